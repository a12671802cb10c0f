// Package grid provides a float64 intensity plane for image arithmetic.
//
// Detection math runs on float planes end to end so that filter responses
// keep sign and precision; images are converted once on the way in and
// rescaled once on the way out.
package grid

import (
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Plane is a 2-D intensity plane. Values are typically in [0, 1] when the
// plane was built from an image, but arithmetic results (e.g. a high-pass
// residual) may be negative.
type Plane struct {
	m *mat.Dense
}

// New creates a zero-valued plane with the given dimensions.
func New(rows, cols int) *Plane {
	if rows <= 0 || cols <= 0 {
		return &Plane{}
	}
	return &Plane{m: mat.NewDense(rows, cols, nil)}
}

// FromImage converts an image to an intensity plane. Gray and Gray16 pixels
// map directly to [0, 1]; other color models go through the usual luminance
// weighting.
func FromImage(img image.Image) *Plane {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	if rows == 0 || cols == 0 {
		return &Plane{}
	}

	p := New(rows, cols)
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				v := src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
				p.m.Set(y, x, float64(v)/255.0)
			}
		}
	case *image.Gray16:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				v := src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y
				p.m.Set(y, x, float64(v)/65535.0)
			}
		}
	default:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				lum := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
				p.m.Set(y, x, float64(lum)/65535.0)
			}
		}
	}
	return p
}

// Rows returns the number of rows (image height).
func (p *Plane) Rows() int {
	if p == nil || p.m == nil {
		return 0
	}
	r, _ := p.m.Dims()
	return r
}

// Cols returns the number of columns (image width).
func (p *Plane) Cols() int {
	if p == nil || p.m == nil {
		return 0
	}
	_, c := p.m.Dims()
	return c
}

// Empty reports whether the plane has no pixels.
func (p *Plane) Empty() bool {
	return p.Rows() == 0 || p.Cols() == 0
}

// At returns the value at (row, col).
func (p *Plane) At(row, col int) float64 {
	return p.m.At(row, col)
}

// Set stores a value at (row, col).
func (p *Plane) Set(row, col int, v float64) {
	p.m.Set(row, col, v)
}

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	if p.Empty() {
		return &Plane{}
	}
	c := &Plane{m: mat.NewDense(p.Rows(), p.Cols(), nil)}
	c.m.Copy(p.m)
	return c
}

// Sub returns the pixel-wise difference p - other.
func (p *Plane) Sub(other *Plane) (*Plane, error) {
	if p.Rows() != other.Rows() || p.Cols() != other.Cols() {
		return nil, fmt.Errorf("grid: shape mismatch %dx%d vs %dx%d",
			p.Rows(), p.Cols(), other.Rows(), other.Cols())
	}
	out := &Plane{m: mat.NewDense(p.Rows(), p.Cols(), nil)}
	out.m.Sub(p.m, other.m)
	return out, nil
}

// Min returns the smallest value in the plane.
func (p *Plane) Min() float64 {
	if p.Empty() {
		return 0
	}
	return floats.Min(p.m.RawMatrix().Data)
}

// Max returns the largest value in the plane.
func (p *Plane) Max() float64 {
	if p.Empty() {
		return 0
	}
	return floats.Max(p.m.RawMatrix().Data)
}

// Mean returns the mean value of the plane.
func (p *Plane) Mean() float64 {
	if p.Empty() {
		return 0
	}
	data := p.m.RawMatrix().Data
	return floats.Sum(data) / float64(len(data))
}

// ToGray renders the plane as an 8-bit grayscale image, linearly rescaling
// the value range to 0-255. A constant plane renders as black.
func (p *Plane) ToGray() *image.Gray {
	rows, cols := p.Rows(), p.Cols()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	if p.Empty() {
		return img
	}

	lo, hi := p.Min(), p.Max()
	span := hi - lo
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			var v float64
			if span > 0 {
				v = (p.m.At(y, x) - lo) / span
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}

// ToGray16 renders the plane as a 16-bit grayscale image with the same
// linear rescale as ToGray.
func (p *Plane) ToGray16() *image.Gray16 {
	rows, cols := p.Rows(), p.Cols()
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	if p.Empty() {
		return img
	}

	lo, hi := p.Min(), p.Max()
	span := hi - lo
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			var v float64
			if span > 0 {
				v = (p.m.At(y, x) - lo) / span
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*65535 + 0.5)})
		}
	}
	return img
}
