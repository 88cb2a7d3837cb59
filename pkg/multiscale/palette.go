package multiscale

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an opaque RGB color. It implements image/color.Color.
type Color struct {
	R, G, B uint8
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// MarshalText encodes the color as its hex string.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText parses a #rrggbb string.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := colorful.Hex(string(text))
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}
	c.R, c.G, c.B = parsed.RGB255()
	return nil
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// Palette hands out one color per community id.
type Palette interface {
	Colors(k int) []Color
}

// NewPalette returns the palette registered under name.
func NewPalette(name string, seed int64) (Palette, error) {
	switch name {
	case "golden":
		return GoldenPalette{Saturation: 0.65, Value: 0.9, Offset: float64(seed%1000) / 1000}, nil
	case "random":
		return RandomPalette{Seed: seed}, nil
	default:
		return nil, fmt.Errorf("unknown palette %q", name)
	}
}

// GoldenPalette steps the hue by the golden ratio conjugate, which keeps
// consecutive colors far apart for any k.
type GoldenPalette struct {
	Saturation float64
	Value      float64
	Offset     float64 // starting hue, taken modulo 1
}

const goldenRatioConjugate = 0.618033988749895

// Colors returns k colors.
func (p GoldenPalette) Colors(k int) []Color {
	colors := make([]Color, k)
	for i := range colors {
		hue := math.Mod(p.Offset+float64(i)*goldenRatioConjugate, 1.0)
		if hue < 0 {
			hue++
		}
		colors[i] = fromColorful(colorful.Hsv(hue*360, p.Saturation, p.Value))
	}
	return colors
}

// RandomPalette draws uniformly random 24-bit colors from a seeded source.
type RandomPalette struct {
	Seed int64
}

// Colors returns k colors.
func (p RandomPalette) Colors(k int) []Color {
	rng := rand.New(rand.NewSource(p.Seed))
	colors := make([]Color, k)
	for i := range colors {
		v := rng.Intn(0x1000000)
		colors[i] = Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
	}
	return colors
}
