package spot

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"spot-mapper/internal/filter"
	"spot-mapper/internal/grid"
	"spot-mapper/pkg/geometry"
)

// ErrEmptyImage is returned when the input plane has no pixels.
var ErrEmptyImage = errors.New("spot: empty image")

// Detect finds blob-like spots in an intensity plane.
//
// The plane is high-pass filtered to flatten the background, a single-scale
// Laplacian-of-Gaussian response is computed at BlobSigma, and local maxima
// above Threshold become spots. Peaks closer than MinSeparation collapse to
// the stronger response. A plane with no qualifying peaks (e.g. a constant
// image) yields an empty result, not an error.
//
// Detection is deterministic: identical inputs and parameters always produce
// identical spot lists.
func Detect(plane *grid.Plane, params DetectionParams) (*DetectionResult, error) {
	if plane == nil || plane.Empty() {
		return nil, ErrEmptyImage
	}
	if params.HighPassSigma <= 0 || params.BlobSigma <= 0 {
		return nil, fmt.Errorf("spot: %w", filter.ErrInvalidSigma)
	}

	high, err := filter.HighPass(plane, params.HighPassSigma)
	if err != nil {
		return nil, fmt.Errorf("spot: high-pass filter: %w", err)
	}
	resp, err := filter.LoG(high, params.BlobSigma)
	if err != nil {
		return nil, fmt.Errorf("spot: blob response: %w", err)
	}

	peaks := findPeaks(resp, params.Threshold)
	peaks = deduplicate(peaks, params.MinSeparation)

	// Report top-to-bottom, left-to-right regardless of response ordering.
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].row != peaks[j].row {
			return peaks[i].row < peaks[j].row
		}
		return peaks[i].col < peaks[j].col
	})

	result := &DetectionResult{
		Spots:  make([]Spot, len(peaks)),
		Params: params,
	}
	diameter := DiameterFactor * params.BlobSigma
	for i, pk := range peaks {
		result.Spots[i] = Spot{
			ID:         fmt.Sprintf("spot-%03d", i+1),
			Center:     geometry.Point2D{X: float64(pk.col), Y: float64(pk.row)},
			Row:        pk.row,
			Col:        pk.col,
			Diameter:   diameter,
			Response:   pk.value,
			Background: localBackground(plane, pk.row, pk.col, diameter),
		}
	}
	return result, nil
}

// localBackground estimates the background level around a peak by averaging
// the original intensities on a ring at the given radius, which keeps the
// samples outside the spot itself. Samples falling off the plane are skipped.
func localBackground(p *grid.Plane, row, col int, radius float64) float64 {
	ring := geometry.GenerateCirclePoints(float64(col), float64(row), radius, 16)
	var sum float64
	var n int
	for _, pt := range ring {
		r := int(math.Round(pt.Y))
		c := int(math.Round(pt.X))
		if r < 0 || r >= p.Rows() || c < 0 || c >= p.Cols() {
			continue
		}
		sum += p.At(r, c)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

type peak struct {
	row, col int
	value    float64
}

// findPeaks scans the response plane in row-major order and collects local
// maxima (8-neighborhood, ties resolved toward the earlier pixel) above the
// threshold.
func findPeaks(resp *grid.Plane, threshold float64) []peak {
	rows, cols := resp.Rows(), resp.Cols()

	var peaks []peak
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := resp.At(r, c)
			if v <= threshold {
				continue
			}
			if !isLocalMax(resp, r, c, v) {
				continue
			}
			peaks = append(peaks, peak{row: r, col: c, value: v})
		}
	}
	return peaks
}

// isLocalMax reports whether (r, c) dominates its 8-neighborhood. Earlier
// pixels in scan order win plateau ties, so a flat-topped peak is reported
// once.
func isLocalMax(resp *grid.Plane, r, c int, v float64) bool {
	rows, cols := resp.Rows(), resp.Cols()
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := r+dr, c+dc
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			nv := resp.At(nr, nc)
			if nv > v {
				return false
			}
			if nv == v && (nr < r || (nr == r && nc < c)) {
				return false
			}
		}
	}
	return true
}

// deduplicate removes peaks closer than minSeparation, keeping the stronger
// response. Equal responses fall back to scan order so the result stays
// deterministic.
func deduplicate(peaks []peak, minSeparation float64) []peak {
	if minSeparation <= 0 || len(peaks) <= 1 {
		return peaks
	}

	sorted := make([]peak, len(peaks))
	copy(sorted, peaks)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].value != sorted[j].value {
			return sorted[i].value > sorted[j].value
		}
		if sorted[i].row != sorted[j].row {
			return sorted[i].row < sorted[j].row
		}
		return sorted[i].col < sorted[j].col
	})

	minSq := minSeparation * minSeparation
	var kept []peak
	for _, pk := range sorted {
		isDup := false
		for _, k := range kept {
			dr := float64(pk.row - k.row)
			dc := float64(pk.col - k.col)
			if dr*dr+dc*dc < minSq {
				isDup = true
				break
			}
		}
		if !isDup {
			kept = append(kept, pk)
		}
	}
	return kept
}
