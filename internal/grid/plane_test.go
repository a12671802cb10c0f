package grid

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestFromImageGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(2, 1, color.Gray{Y: 255})
	img.SetGray(1, 0, color.Gray{Y: 51})

	p := FromImage(img)
	if p.Rows() != 2 || p.Cols() != 3 {
		t.Fatalf("dims = %dx%d, want 2x3", p.Rows(), p.Cols())
	}
	if p.At(0, 0) != 0 {
		t.Errorf("At(0,0) = %f, want 0", p.At(0, 0))
	}
	if p.At(1, 2) != 1 {
		t.Errorf("At(1,2) = %f, want 1", p.At(1, 2))
	}
	if math.Abs(p.At(0, 1)-0.2) > 1e-9 {
		t.Errorf("At(0,1) = %f, want 0.2", p.At(0, 1))
	}
}

func TestFromImageGray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(1, 1, color.Gray16{Y: 65535})

	p := FromImage(img)
	if p.At(1, 1) != 1 {
		t.Errorf("At(1,1) = %f, want 1", p.At(1, 1))
	}
	if p.At(0, 0) != 0 {
		t.Errorf("At(0,0) = %f, want 0", p.At(0, 0))
	}
}

func TestSub(t *testing.T) {
	a := New(2, 2)
	b := New(2, 2)
	a.Set(0, 1, 0.75)
	b.Set(0, 1, 0.25)
	b.Set(1, 0, 0.5)

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.At(0, 1) != 0.5 {
		t.Errorf("diff(0,1) = %f, want 0.5", diff.At(0, 1))
	}
	if diff.At(1, 0) != -0.5 {
		t.Errorf("diff(1,0) = %f, want -0.5 (differences may be negative)", diff.At(1, 0))
	}
}

func TestSubShapeMismatch(t *testing.T) {
	a := New(2, 2)
	b := New(2, 3)
	if _, err := a.Sub(b); err == nil {
		t.Errorf("expected error for shape mismatch")
	}
}

func TestStats(t *testing.T) {
	p := New(2, 2)
	p.Set(0, 0, -1)
	p.Set(0, 1, 1)
	p.Set(1, 0, 0.5)
	p.Set(1, 1, 0.5)

	if p.Min() != -1 {
		t.Errorf("Min = %f", p.Min())
	}
	if p.Max() != 1 {
		t.Errorf("Max = %f", p.Max())
	}
	if math.Abs(p.Mean()-0.25) > 1e-12 {
		t.Errorf("Mean = %f, want 0.25", p.Mean())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := New(2, 2)
	p.Set(0, 0, 0.5)

	c := p.Clone()
	c.Set(0, 0, 0.9)

	if p.At(0, 0) != 0.5 {
		t.Errorf("mutating the clone changed the original")
	}
}

func TestToGrayRescales(t *testing.T) {
	p := New(1, 3)
	p.Set(0, 0, -2)
	p.Set(0, 1, 0)
	p.Set(0, 2, 2)

	img := p.ToGray()
	if img.GrayAt(0, 0).Y != 0 {
		t.Errorf("min pixel = %d, want 0", img.GrayAt(0, 0).Y)
	}
	if img.GrayAt(2, 0).Y != 255 {
		t.Errorf("max pixel = %d, want 255", img.GrayAt(2, 0).Y)
	}
	if img.GrayAt(1, 0).Y != 128 {
		t.Errorf("mid pixel = %d, want 128", img.GrayAt(1, 0).Y)
	}
}

func TestToGray16RoundTrip(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 3, 3))
	src.SetGray16(0, 0, color.Gray16{Y: 0})
	src.SetGray16(1, 1, color.Gray16{Y: 32768})
	src.SetGray16(2, 2, color.Gray16{Y: 65535})

	p := FromImage(src)
	out := p.ToGray16()

	// Range spans 0..65535 already, so the rescale is the identity.
	for _, pt := range []struct{ x, y int }{{0, 0}, {1, 1}, {2, 2}} {
		if out.Gray16At(pt.x, pt.y) != src.Gray16At(pt.x, pt.y) {
			t.Errorf("pixel (%d,%d) = %v, want %v",
				pt.x, pt.y, out.Gray16At(pt.x, pt.y), src.Gray16At(pt.x, pt.y))
		}
	}
}
