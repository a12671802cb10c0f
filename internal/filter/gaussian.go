// Package filter provides Gaussian filtering primitives for spot detection.
package filter

import (
	"errors"
	"math"

	"spot-mapper/internal/grid"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidSigma is returned when a smoothing width is not positive.
	ErrInvalidSigma = errors.New("filter: sigma must be positive")

	// ErrEmptyPlane is returned when the input plane has no pixels.
	ErrEmptyPlane = errors.New("filter: empty plane")
)

// Kernel builds a normalized 1-D Gaussian kernel with standard deviation
// sigma, truncated at 4 sigma on each side.
func Kernel(sigma float64) []float64 {
	radius := int(math.Ceil(4 * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	inv := 1.0 / (2 * sigma * sigma)
	for i := -radius; i <= radius; i++ {
		k[i+radius] = math.Exp(-float64(i*i) * inv)
	}
	floats.Scale(1.0/floats.Sum(k), k)
	return k
}

// LowPass returns the plane convolved with a Gaussian of the given sigma.
// The convolution is separable and uses reflected borders, so a constant
// plane passes through unchanged.
func LowPass(p *grid.Plane, sigma float64) (*grid.Plane, error) {
	if p == nil || p.Empty() {
		return nil, ErrEmptyPlane
	}
	if sigma <= 0 {
		return nil, ErrInvalidSigma
	}

	k := Kernel(sigma)
	radius := len(k) / 2
	rows, cols := p.Rows(), p.Cols()

	// Horizontal pass.
	tmp := grid.New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for i := -radius; i <= radius; i++ {
				sum += k[i+radius] * p.At(r, reflect(c+i, cols))
			}
			tmp.Set(r, c, sum)
		}
	}

	// Vertical pass.
	out := grid.New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for i := -radius; i <= radius; i++ {
				sum += k[i+radius] * tmp.At(reflect(r+i, rows), c)
			}
			out.Set(r, c, sum)
		}
	}
	return out, nil
}

// HighPass returns the plane minus its Gaussian-blurred version. Values may
// be negative; callers must not assume non-negativity. The result plus
// LowPass at the same sigma reconstructs the input exactly.
func HighPass(p *grid.Plane, sigma float64) (*grid.Plane, error) {
	low, err := LowPass(p, sigma)
	if err != nil {
		return nil, err
	}
	return p.Sub(low)
}

// LoG returns the scale-normalized Laplacian-of-Gaussian response at a
// single scale: the plane is smoothed at sigma, a 4-neighbor Laplacian is
// applied, and the result is scaled by -sigma^2 so that bright blobs of
// radius ~sigma produce positive peaks.
func LoG(p *grid.Plane, sigma float64) (*grid.Plane, error) {
	smooth, err := LowPass(p, sigma)
	if err != nil {
		return nil, err
	}

	rows, cols := p.Rows(), p.Cols()
	norm := -sigma * sigma
	out := grid.New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lap := smooth.At(reflect(r-1, rows), c) +
				smooth.At(reflect(r+1, rows), c) +
				smooth.At(r, reflect(c-1, cols)) +
				smooth.At(r, reflect(c+1, cols)) -
				4*smooth.At(r, c)
			out.Set(r, c, norm*lap)
		}
	}
	return out, nil
}

// reflect maps an out-of-range index back into [0, n) by mirroring across
// the border (half-sample symmetric, matching the convolution's edge policy).
func reflect(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}
