package display

import (
	"bytes"
	"context"
	"testing"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/nomis52/goblink/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Render(t *testing.T) {
	origNoColor := fcolor.NoColor
	fcolor.NoColor = true
	defer func() { fcolor.NoColor = origNoColor }()

	var buf bytes.Buffer
	term := NewTerminal(&buf)
	term.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC) }

	d, err := term.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, d.Render(context.Background(), NewStep(color.Cyan)))
	assert.Equal(t, "03:04:05.006      cyan\n", buf.String())
}

func TestTerminal_RenderCancelled(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := term.Render(ctx, NewStep(color.Red))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestStep_String(t *testing.T) {
	s := Step{Color: color.Green, Fade: 100 * time.Millisecond, Hold: time.Second}
	assert.Equal(t, "green (fade 100ms, hold 1s)", s.String())
}
