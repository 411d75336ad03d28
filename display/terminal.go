package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	fcolor "github.com/fatih/color"
)

// Terminal renders steps as coloured swatches on a terminal. It is useful on
// machines without a blink(1) and for demos.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewTerminal creates a Terminal writing to out, or stdout if out is nil.
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out, now: time.Now}
}

// Acquire implements Acquirer. A terminal is always available.
func (t *Terminal) Acquire(ctx context.Context) (Display, error) {
	return t, nil
}

// Render implements Display.
func (t *Terminal) Render(ctx context.Context, step Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	swatch := fcolor.BgRGB(int(step.Color.R), int(step.Color.G), int(step.Color.B)).Sprint("    ")

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, "%s %s %s\n", t.now().Format("15:04:05.000"), swatch, step.Color)
	if err != nil {
		return fmt.Errorf("writing to terminal: %w", err)
	}
	return nil
}
