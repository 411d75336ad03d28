package transition

import (
	"context"
	"testing"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/display/displaytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDefault(t *testing.T, spy *displaytest.Spy) *Notifier {
	t.Helper()
	tr, err := WithDefaultSteps(spy, fast()...)
	require.NoError(t, err)
	n, err := tr.Start(context.Background())
	require.NoError(t, err)
	return n
}

func TestNotifier_SingleUse(t *testing.T) {
	spy := displaytest.NewSpy()
	n := startDefault(t, spy)

	require.NoError(t, n.NotifySuccess())
	assert.ErrorIs(t, n.NotifySuccess(), ErrNotifierUsed)
	assert.ErrorIs(t, n.NotifyFailure(), ErrNotifierUsed)
	assert.ErrorIs(t, n.Abandon(), ErrNotifierUsed)

	assert.Equal(t, 1, spy.Count(color.Green))
	assert.Zero(t, spy.Count(color.Red))
}

func TestNotifier_ConcurrentNotifyRendersOnce(t *testing.T) {
	spy := displaytest.NewSpy()
	n := startDefault(t, spy)

	results := make(chan error, 2)
	go func() { results <- n.NotifySuccess() }()
	go func() { results <- n.NotifyFailure() }()

	var used, ok int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrNotifierUsed)
			used++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, used)
	assert.Equal(t, 1, spy.Count(color.Green)+spy.Count(color.Red))
}

func TestNotifier_AbandonAfterFailure(t *testing.T) {
	spy := displaytest.NewSpy().FailOnRender(1, assert.AnError)
	n := startDefault(t, spy)
	waitDone(t, n)

	err := n.Abandon()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNotifier_Done(t *testing.T) {
	n := startDefault(t, displaytest.NewSpy())

	select {
	case <-n.Done():
		t.Fatal("done before any outcome")
	default:
	}

	require.NoError(t, n.NotifyFailure())
	_, open := <-n.Done()
	assert.False(t, open)
}
