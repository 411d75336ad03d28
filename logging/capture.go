package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Capture collects the log records of one run. Records beyond the limit
// are dropped and counted.
type Capture struct {
	mu      sync.Mutex
	limit   int
	entries []LogEntry
	dropped int
}

// NewCapture creates a Capture keeping at most limit entries. A limit of
// zero or less keeps everything.
func NewCapture(limit int) *Capture {
	return &Capture{limit: limit}
}

// Logger returns a logger that records into c and passes every record on
// to base.
func (c *Capture) Logger(base *slog.Logger) *slog.Logger {
	return slog.New(&captureHandler{underlying: base.Handler(), capture: c})
}

// Entries returns a copy of the captured entries in the order they were logged.
func (c *Capture) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]LogEntry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// Dropped returns how many entries were discarded because of the limit.
func (c *Capture) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Capture) add(e LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.limit > 0 && len(c.entries) >= c.limit {
		c.dropped++
		return
	}
	c.entries = append(c.entries, e)
}

// captureHandler records every record, whatever its level, then hands it to
// the underlying handler, which applies its own level filtering.
type captureHandler struct {
	underlying slog.Handler
	capture    *Capture
	attrs      []slog.Attr
}

func (h *captureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
	}
	if n := len(h.attrs) + r.NumAttrs(); n > 0 {
		entry.Attributes = make(map[string]any, n)
	}
	for _, a := range h.attrs {
		entry.Attributes[a.Key] = resolveValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = resolveValue(a.Value)
		return true
	})
	h.capture.add(entry)

	if !h.underlying.Enabled(ctx, r.Level) {
		return nil
	}
	return h.underlying.Handle(ctx, r)
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &captureHandler{
		underlying: h.underlying.WithAttrs(attrs),
		capture:    h.capture,
		attrs:      merged,
	}
}

// WithGroup only groups the underlying output; captured attributes stay flat.
func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{
		underlying: h.underlying.WithGroup(name),
		capture:    h.capture,
		attrs:      h.attrs,
	}
}

// resolveValue converts a slog.Value into something encoding/json can write.
func resolveValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindGroup:
		group := make(map[string]any, len(v.Group()))
		for _, a := range v.Group() {
			group[a.Key] = resolveValue(a.Value)
		}
		return group
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		if s, ok := v.Any().(interface{ String() string }); ok {
			return s.String()
		}
		return v.Any()
	default:
		return v.Any()
	}
}
