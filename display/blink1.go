package display

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultBlink1Tool is the command used to talk to blink(1) devices.
const DefaultBlink1Tool = "blink1-tool"

const noDevicesMarker = "no blink(1) devices found"

// Blink1 drives a blink(1) USB LED through the blink1-tool command line
// utility.
type Blink1 struct {
	tool   string
	device string
	runner CommandRunner
	logger *slog.Logger
}

// Blink1Option configures a Blink1.
type Blink1Option func(*Blink1)

// WithTool overrides the path of the blink1-tool binary.
func WithTool(path string) Blink1Option {
	return func(b *Blink1) {
		b.tool = path
	}
}

// WithDevice selects a device by id or serial number when several are
// plugged in.
func WithDevice(device string) Blink1Option {
	return func(b *Blink1) {
		b.device = device
	}
}

// WithCommandRunner replaces the runner used to execute blink1-tool.
func WithCommandRunner(runner CommandRunner) Blink1Option {
	return func(b *Blink1) {
		b.runner = runner
	}
}

// WithLogger sets the logger used for device commands.
func WithLogger(logger *slog.Logger) Blink1Option {
	return func(b *Blink1) {
		b.logger = logger
	}
}

// NewBlink1 creates a Blink1. No device is contacted until Acquire.
func NewBlink1(opts ...Blink1Option) *Blink1 {
	b := &Blink1{
		tool:   DefaultBlink1Tool,
		runner: &execCommandRunner{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Acquire checks that a blink(1) is attached (and, if configured, that the
// selected device is among them) and returns a Display bound to it.
func (b *Blink1) Acquire(ctx context.Context) (Display, error) {
	output, err := b.runner.Run(ctx, b.tool, "--list")
	if err != nil {
		return nil, fmt.Errorf("%w: listing devices with %s: %v", ErrDeviceUnavailable, b.tool, err)
	}

	listing := strings.ToLower(string(output))
	if strings.Contains(listing, noDevicesMarker) {
		return nil, fmt.Errorf("%w: no blink(1) devices found", ErrDeviceUnavailable)
	}
	if b.device != "" && !strings.Contains(listing, strings.ToLower(b.device)) {
		return nil, fmt.Errorf("%w: device %q not found", ErrDeviceUnavailable, b.device)
	}

	b.logger.Debug("blink(1) acquired", "tool", b.tool, "device", b.device)
	return &blink1Display{
		tool:   b.tool,
		device: b.device,
		runner: b.runner,
		logger: b.logger,
	}, nil
}

// blink1Display is an acquired blink(1).
type blink1Display struct {
	tool   string
	device string
	runner CommandRunner
	logger *slog.Logger
}

// Render implements Display.
func (d *blink1Display) Render(ctx context.Context, step Step) error {
	args := d.args(step)
	output, err := d.runner.Run(ctx, d.tool, args...)
	if err != nil {
		if strings.Contains(strings.ToLower(string(output)), noDevicesMarker) {
			return fmt.Errorf("%w: device disappeared", ErrDeviceUnavailable)
		}
		return fmt.Errorf("running %s %s: %w", d.tool, strings.Join(args, " "), err)
	}
	d.logger.Debug("blink(1) step rendered", "color", step.Color, "fade", step.Fade)
	return nil
}

// args builds the blink1-tool arguments for step.
func (d *blink1Display) args(step Step) []string {
	args := []string{"-q"}
	if d.device != "" {
		args = append(args, "-d", d.device)
	}
	args = append(args,
		"-m", strconv.FormatInt(step.Fade.Round(time.Millisecond).Milliseconds(), 10),
		"--rgb", fmt.Sprintf("%d,%d,%d", step.Color.R, step.Color.G, step.Color.B),
	)
	return args
}
