package transition

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/display"
	"github.com/nomis52/goblink/display/displaytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicate(t *testing.T) {
	spy := displaytest.NewSpy()

	err := Indicate(context.Background(), spy, color.Orange, WithFade(time.Second), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, 1, spy.Acquired())
	assert.Equal(t, []display.Step{{Color: color.Orange, Fade: time.Second, Hold: display.DefaultHold}}, spy.Steps())
}

func TestIndicate_Errors(t *testing.T) {
	unplugged := displaytest.NewSpy().FailAcquire(fmt.Errorf("%w: gone", display.ErrDeviceUnavailable))
	err := Indicate(context.Background(), unplugged, color.Red)
	assert.ErrorIs(t, err, display.ErrDeviceUnavailable)

	boom := errors.New("write failed")
	broken := displaytest.NewSpy().FailOnRender(1, boom)
	err = Indicate(context.Background(), broken, color.Red)
	assert.ErrorIs(t, err, boom)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, PhaseIndicate, renderErr.Phase)
}
