package filter

import (
	"math"
	"math/rand"
	"testing"

	"spot-mapper/internal/grid"
)

func randomPlane(rows, cols int, seed int64) *grid.Plane {
	rng := rand.New(rand.NewSource(seed))
	p := grid.New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p.Set(r, c, rng.Float64())
		}
	}
	return p
}

func TestKernelNormalized(t *testing.T) {
	for _, sigma := range []float64{0.5, 1, 2, 3.5} {
		k := Kernel(sigma)
		if len(k)%2 != 1 {
			t.Errorf("sigma=%f: kernel length %d is not odd", sigma, len(k))
		}
		var sum float64
		for _, v := range k {
			sum += v
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("sigma=%f: kernel sum = %f, want 1", sigma, sum)
		}
		// Symmetry
		for i := range k {
			j := len(k) - 1 - i
			if math.Abs(k[i]-k[j]) > 1e-15 {
				t.Errorf("sigma=%f: kernel not symmetric at %d/%d", sigma, i, j)
			}
		}
	}
}

func TestLowPassPreservesConstant(t *testing.T) {
	p := grid.New(16, 16)
	for r := 0; r < 16; r++ {
		for c := 0; c < 16; c++ {
			p.Set(r, c, 0.7)
		}
	}

	low, err := LowPass(p, 2)
	if err != nil {
		t.Fatalf("LowPass: %v", err)
	}
	for r := 0; r < 16; r++ {
		for c := 0; c < 16; c++ {
			if math.Abs(low.At(r, c)-0.7) > 1e-12 {
				t.Fatalf("constant plane changed at (%d,%d): %f", r, c, low.At(r, c))
			}
		}
	}
}

func TestHighPassReconstruction(t *testing.T) {
	for _, sigma := range []float64{1, 2, 3} {
		p := randomPlane(24, 17, 42)

		high, err := HighPass(p, sigma)
		if err != nil {
			t.Fatalf("HighPass: %v", err)
		}
		low, err := LowPass(p, sigma)
		if err != nil {
			t.Fatalf("LowPass: %v", err)
		}

		if high.Rows() != p.Rows() || high.Cols() != p.Cols() {
			t.Fatalf("sigma=%f: shape changed: %dx%d", sigma, high.Rows(), high.Cols())
		}

		for r := 0; r < p.Rows(); r++ {
			for c := 0; c < p.Cols(); c++ {
				sum := high.At(r, c) + low.At(r, c)
				if math.Abs(sum-p.At(r, c)) > 1e-12 {
					t.Fatalf("sigma=%f: high+low != original at (%d,%d): %f vs %f",
						sigma, r, c, sum, p.At(r, c))
				}
			}
		}
	}
}

func TestHighPassConstantIsZero(t *testing.T) {
	p := grid.New(10, 10)
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			p.Set(r, c, 0.3)
		}
	}

	high, err := HighPass(p, 2)
	if err != nil {
		t.Fatalf("HighPass: %v", err)
	}
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			if math.Abs(high.At(r, c)) > 1e-12 {
				t.Fatalf("high-pass of constant plane nonzero at (%d,%d): %g", r, c, high.At(r, c))
			}
		}
	}
}

func TestLoGPeaksAtBlobCenter(t *testing.T) {
	// A small Gaussian bump should produce the strongest positive response
	// at its own center.
	p := grid.New(31, 31)
	const cr, cc = 15, 15
	const s = 2.0
	for r := 0; r < 31; r++ {
		for c := 0; c < 31; c++ {
			d2 := float64((r-cr)*(r-cr) + (c-cc)*(c-cc))
			p.Set(r, c, math.Exp(-d2/(2*s*s)))
		}
	}

	resp, err := LoG(p, s)
	if err != nil {
		t.Fatalf("LoG: %v", err)
	}

	best := resp.At(0, 0)
	br, bc := 0, 0
	for r := 0; r < 31; r++ {
		for c := 0; c < 31; c++ {
			if resp.At(r, c) > best {
				best = resp.At(r, c)
				br, bc = r, c
			}
		}
	}

	if br != cr || bc != cc {
		t.Errorf("LoG peak at (%d,%d), want (%d,%d)", br, bc, cr, cc)
	}
	if best <= 0 {
		t.Errorf("bright blob should give positive response, got %g", best)
	}
}

func TestErrors(t *testing.T) {
	p := randomPlane(4, 4, 1)

	if _, err := LowPass(p, 0); err != ErrInvalidSigma {
		t.Errorf("sigma=0: err = %v, want ErrInvalidSigma", err)
	}
	if _, err := LowPass(p, -1); err != ErrInvalidSigma {
		t.Errorf("sigma=-1: err = %v, want ErrInvalidSigma", err)
	}
	if _, err := LowPass(nil, 2); err != ErrEmptyPlane {
		t.Errorf("nil plane: err = %v, want ErrEmptyPlane", err)
	}
	if _, err := HighPass(grid.New(0, 0), 2); err != ErrEmptyPlane {
		t.Errorf("empty plane: err = %v, want ErrEmptyPlane", err)
	}
}

func TestReflectIndexing(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{-1, 5, 0},
		{-2, 5, 1},
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 4},
		{6, 5, 3},
	}
	for _, tc := range cases {
		if got := reflect(tc.i, tc.n); got != tc.want {
			t.Errorf("reflect(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}
