// Package labelmap provides integer-labeled segmentation masks and the
// per-region measurements derived from them.
package labelmap

import (
	"errors"
	"image"
	"image/color"
	"sort"

	"spot-mapper/internal/grid"
	"spot-mapper/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// ErrNotLabelImage is returned when an image cannot be interpreted as a
// label map.
var ErrNotLabelImage = errors.New("labelmap: image is not a grayscale label map")

// LabelMap is an integer-labeled image: 0 is background, each positive
// value identifies one connected nucleus region.
type LabelMap struct {
	labels []int
	rows   int
	cols   int
}

// New creates an all-background label map with the given dimensions.
func New(rows, cols int) *LabelMap {
	if rows <= 0 || cols <= 0 {
		return &LabelMap{}
	}
	return &LabelMap{
		labels: make([]int, rows*cols),
		rows:   rows,
		cols:   cols,
	}
}

// FromImage decodes a label map from a grayscale image. Gray16 is the
// native encoding; 8-bit Gray is accepted for maps with at most 255 labels.
// Color images are rejected rather than guessed at.
func FromImage(img image.Image) (*LabelMap, error) {
	bounds := img.Bounds()
	m := New(bounds.Dy(), bounds.Dx())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < m.rows; y++ {
			for x := 0; x < m.cols; x++ {
				m.labels[y*m.cols+x] = int(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < m.rows; y++ {
			for x := 0; x < m.cols; x++ {
				m.labels[y*m.cols+x] = int(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		return nil, ErrNotLabelImage
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *LabelMap) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *LabelMap) Cols() int { return m.cols }

// Empty reports whether the map has no pixels.
func (m *LabelMap) Empty() bool { return m == nil || m.rows == 0 || m.cols == 0 }

// At returns the label at (row, col).
func (m *LabelMap) At(row, col int) int {
	return m.labels[row*m.cols+col]
}

// Set stores a label at (row, col).
func (m *LabelMap) Set(row, col, label int) {
	m.labels[row*m.cols+col] = label
}

// Labels returns the sorted distinct positive labels present in the map.
func (m *LabelMap) Labels() []int {
	if m.Empty() {
		return nil
	}
	seen := make(map[int]bool)
	for _, l := range m.labels {
		if l > 0 {
			seen[l] = true
		}
	}
	out := make([]int, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// Region holds the measurements of one labeled region.
type Region struct {
	Label         int              `json:"label"`
	Centroid      geometry.Point2D `json:"centroid"` // X = column, Y = row
	Area          int              `json:"area"`     // Pixel count
	Bounds        geometry.RectInt `json:"bounds"`
	MeanIntensity float64          `json:"mean_intensity,omitempty"`
	StdIntensity  float64          `json:"std_intensity,omitempty"`
}

// Regions measures every labeled region in one pass: centroid, area and
// bounding box. When intensity is non-nil (and shaped like the map), the
// mean and standard deviation of the underlying intensities are included.
// Results are ordered by ascending label.
func (m *LabelMap) Regions(intensity *grid.Plane) []Region {
	if m.Empty() {
		return nil
	}

	type accum struct {
		sumR, sumC float64
		count      int
		minR, minC int
		maxR, maxC int
		values     []float64
	}

	measure := intensity != nil && intensity.Rows() == m.rows && intensity.Cols() == m.cols

	acc := make(map[int]*accum)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			label := m.labels[r*m.cols+c]
			if label == 0 {
				continue
			}
			a, ok := acc[label]
			if !ok {
				a = &accum{minR: r, minC: c, maxR: r, maxC: c}
				acc[label] = a
			}
			a.sumR += float64(r)
			a.sumC += float64(c)
			a.count++
			if r < a.minR {
				a.minR = r
			}
			if r > a.maxR {
				a.maxR = r
			}
			if c < a.minC {
				a.minC = c
			}
			if c > a.maxC {
				a.maxC = c
			}
			if measure {
				a.values = append(a.values, intensity.At(r, c))
			}
		}
	}

	labels := make([]int, 0, len(acc))
	for l := range acc {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	regions := make([]Region, 0, len(labels))
	for _, l := range labels {
		a := acc[l]
		n := float64(a.count)
		region := Region{
			Label:    l,
			Centroid: geometry.Point2D{X: a.sumC / n, Y: a.sumR / n},
			Area:     a.count,
			Bounds: geometry.RectInt{
				X:      a.minC,
				Y:      a.minR,
				Width:  a.maxC - a.minC + 1,
				Height: a.maxR - a.minR + 1,
			},
		}
		if measure {
			region.MeanIntensity = stat.Mean(a.values, nil)
			region.StdIntensity = stat.StdDev(a.values, nil)
		}
		regions = append(regions, region)
	}
	return regions
}

// Prune removes regions smaller than minArea pixels, resetting their pixels
// to background. It returns the number of regions removed.
func (m *LabelMap) Prune(minArea int) int {
	if m.Empty() || minArea <= 1 {
		return 0
	}

	counts := make(map[int]int)
	for _, l := range m.labels {
		if l > 0 {
			counts[l]++
		}
	}

	drop := make(map[int]bool)
	for l, n := range counts {
		if n < minArea {
			drop[l] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}

	for i, l := range m.labels {
		if drop[l] {
			m.labels[i] = 0
		}
	}
	return len(drop)
}

// ToGray16 encodes the label map as a 16-bit grayscale image. Labels above
// 65535 are clamped.
func (m *LabelMap) ToGray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, m.cols, m.rows))
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			v := m.labels[r*m.cols+c]
			if v > 65535 {
				v = 65535
			}
			img.SetGray16(c, r, color.Gray16{Y: uint16(v)})
		}
	}
	return img
}
