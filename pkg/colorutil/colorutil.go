// Package colorutil provides shared color utilities for the spot mapper.
package colorutil

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// DefaultPalette is the 10-color cycle used to distinguish nuclei and the
// spots assigned to them. Labels beyond the palette length wrap around.
var DefaultPalette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

// Cycle hands colors from a palette to labels in first-appearance order.
// The mapping is injective while the number of distinct labels does not
// exceed the palette length; after that colors repeat cyclically.
type Cycle struct {
	palette []color.RGBA
	order   map[int]int
}

// NewCycle creates a cycle over the given palette. A nil or empty palette
// falls back to DefaultPalette.
func NewCycle(palette []color.RGBA) *Cycle {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Cycle{
		palette: palette,
		order:   make(map[int]int),
	}
}

// ColorFor returns the color for a label, assigning the next palette entry
// the first time a label is seen.
func (c *Cycle) ColorFor(label int) color.RGBA {
	idx, ok := c.order[label]
	if !ok {
		idx = len(c.order)
		c.order[label] = idx
	}
	return c.palette[idx%len(c.palette)]
}

// Seen returns the number of distinct labels the cycle has handed out
// colors for.
func (c *Cycle) Seen() int {
	return len(c.order)
}

// PaletteLen returns the length of the underlying palette.
func (c *Cycle) PaletteLen() int {
	return len(c.palette)
}

// Darken returns the color darkened by the given factor (0 = unchanged,
// 1 = black).
func Darken(c color.RGBA, factor float64) color.RGBA {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	scale := 1 - factor
	return color.RGBA{
		R: uint8(float64(c.R) * scale),
		G: uint8(float64(c.G) * scale),
		B: uint8(float64(c.B) * scale),
		A: c.A,
	}
}

// Lighten returns the color blended toward white by the given factor.
func Lighten(c color.RGBA, factor float64) color.RGBA {
	base, _ := colorful.MakeColor(c)
	mixed := base.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, clamp01(factor)).Clamped()
	r, g, b := mixed.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: c.A}
}

// DistinctPalette generates n visually distinct colors for callers that
// want a unique color per label instead of the cyclic default.
func DistinctPalette(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	cols, err := colorful.HappyPalette(n)
	if err != nil {
		// HappyPalette can fail for very large n; fall back to cycling
		// the default palette.
		out := make([]color.RGBA, n)
		for i := range out {
			out[i] = DefaultPalette[i%len(DefaultPalette)]
		}
		return out
	}
	out := make([]color.RGBA, n)
	for i, c := range cols {
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
