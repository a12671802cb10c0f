package colorutil

import (
	"image/color"
	"testing"
)

func TestCycleFirstAppearanceOrder(t *testing.T) {
	c := NewCycle(nil)

	// Labels arrive out of numeric order; colors must follow appearance order.
	labels := []int{7, 2, 9, 2, 7, 1}
	want := []color.RGBA{
		DefaultPalette[0], // 7 first seen
		DefaultPalette[1], // 2 first seen
		DefaultPalette[2], // 9 first seen
		DefaultPalette[1], // 2 again
		DefaultPalette[0], // 7 again
		DefaultPalette[3], // 1 first seen
	}

	for i, label := range labels {
		got := c.ColorFor(label)
		if got != want[i] {
			t.Errorf("ColorFor(%d) call %d = %v, want %v", label, i, got, want[i])
		}
	}

	if c.Seen() != 4 {
		t.Errorf("Seen() = %d, want 4", c.Seen())
	}
}

func TestCycleInjectiveWithinPalette(t *testing.T) {
	c := NewCycle(nil)

	seen := make(map[color.RGBA]int)
	for label := 100; label < 100+c.PaletteLen(); label++ {
		col := c.ColorFor(label)
		if prev, dup := seen[col]; dup {
			t.Errorf("labels %d and %d share color %v", prev, label, col)
		}
		seen[col] = label
	}
}

func TestCycleRepeatsBeyondPalette(t *testing.T) {
	c := NewCycle(nil)

	n := c.PaletteLen()
	first := make([]color.RGBA, 0, n)
	for label := 0; label < n; label++ {
		first = append(first, c.ColorFor(label))
	}

	// The next n labels must repeat the first n colors in the same order.
	for label := n; label < 2*n; label++ {
		got := c.ColorFor(label)
		if got != first[label-n] {
			t.Errorf("label %d = %v, want repeat of label %d (%v)",
				label, got, label-n, first[label-n])
		}
	}
}

func TestCycleCustomPalette(t *testing.T) {
	palette := []color.RGBA{
		{R: 10, A: 255},
		{R: 20, A: 255},
	}
	c := NewCycle(palette)

	if c.ColorFor(5) != palette[0] {
		t.Errorf("first label should take first palette entry")
	}
	if c.ColorFor(6) != palette[1] {
		t.Errorf("second label should take second palette entry")
	}
	if c.ColorFor(7) != palette[0] {
		t.Errorf("third label should wrap to first palette entry")
	}
}

func TestDarken(t *testing.T) {
	c := color.RGBA{R: 200, G: 100, B: 50, A: 255}

	dark := Darken(c, 0.5)
	if dark.R != 100 || dark.G != 50 || dark.B != 25 {
		t.Errorf("Darken(0.5) = %v", dark)
	}
	if dark.A != 255 {
		t.Errorf("Darken must preserve alpha, got %d", dark.A)
	}

	black := Darken(c, 1.0)
	if black.R != 0 || black.G != 0 || black.B != 0 {
		t.Errorf("Darken(1.0) = %v, want black", black)
	}
}

func TestDistinctPalette(t *testing.T) {
	for _, n := range []int{1, 5, 10} {
		got := DistinctPalette(n)
		if len(got) != n {
			t.Errorf("DistinctPalette(%d) returned %d colors", n, len(got))
		}
	}
	if DistinctPalette(0) != nil {
		t.Errorf("DistinctPalette(0) should be nil")
	}
}
