// Package color describes the colours an indicator can show.
//
// A Color is a plain RGB triple. Colours can be given by name ("green",
// "orange", "blank"), as a hex string ("#ff8800" or "ff8800") or as a
// decimal channel triple ("255,136,0"). Mapping a Color onto the encoding a
// particular device understands is left to the display package.
package color

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is an RGB colour.
type Color struct {
	R, G, B uint8
}

// Built-in colours.
var (
	Blank   = Color{0x00, 0x00, 0x00}
	Red     = Color{0xff, 0x00, 0x00}
	Green   = Color{0x00, 0xff, 0x00}
	Blue    = Color{0x00, 0x00, 0xff}
	Cyan    = Color{0x00, 0xff, 0xff}
	Magenta = Color{0xff, 0x00, 0xff}
	Yellow  = Color{0xff, 0xff, 0x00}
	Orange  = Color{0xff, 0xa5, 0x00}
	Purple  = Color{0x80, 0x00, 0x80}
	Pink    = Color{0xff, 0xc0, 0xcb}
	White   = Color{0xff, 0xff, 0xff}
)

// ErrInvalidColor is returned when a colour string cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

var named = map[string]Color{
	"blank":   Blank,
	"black":   Blank,
	"off":     Blank,
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"cyan":    Cyan,
	"magenta": Magenta,
	"yellow":  Yellow,
	"orange":  Orange,
	"purple":  Purple,
	"pink":    Pink,
	"white":   White,
}

// aliases parse like their colour but are never used to print it.
var aliases = map[string]bool{"black": true, "off": true}

// colorNames maps each built-in colour back to its canonical name.
var colorNames = func() map[Color]string {
	m := make(map[Color]string, len(named))
	for name, c := range named {
		if !aliases[name] {
			m[c] = name
		}
	}
	return m
}()

// Names returns the recognised colour names, sorted.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse converts a name, hex string or "r,g,b" triple to a Color.
func Parse(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty string", ErrInvalidColor)
	}
	if c, ok := named[s]; ok {
		return c, nil
	}
	if strings.Contains(s, ",") {
		return parseTriple(s)
	}
	return parseHex(s)
}

// MustParse is like Parse but panics on error. Intended for constants in tests
// and examples.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseList parses every entry of names, stopping at the first bad one.
func ParseList(names []string) ([]Color, error) {
	colors := make([]Color, 0, len(names))
	for i, name := range names {
		c, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		colors = append(colors, c)
	}
	return colors, nil
}

func parseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: %q is not a known name or a 6 digit hex value", ErrInvalidColor, s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return Color{
		R: uint8(val >> 16),
		G: uint8(val >> 8),
		B: uint8(val),
	}, nil
}

func parseTriple(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: %q must have exactly 3 channels", ErrInvalidColor, s)
	}
	var channels [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: channel %d of %q: %v", ErrInvalidColor, i, s, err)
		}
		channels[i] = uint8(v)
	}
	return Color{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// IsBlank reports whether the colour turns the indicator off.
func (c Color) IsBlank() bool {
	return c == Blank
}

// String returns the colour's name if it has one, otherwise its hex form.
func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return c.Hex()
}

// UnmarshalYAML lets colours be written by name or value in config files.
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML writes the colour in the form String returns.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// MarshalText implements encoding.TextMarshaler so colours render nicely in
// JSON and structured logs.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
