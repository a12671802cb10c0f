// Package assign matches detected spots to their nearest nucleus.
package assign

import (
	"errors"
	"image/color"
	"math"

	"spot-mapper/internal/labelmap"
	"spot-mapper/internal/spot"
	"spot-mapper/pkg/colorutil"
	"spot-mapper/pkg/geometry"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// ErrNoNuclei is returned when assignment is attempted against an empty
// centroid set.
var ErrNoNuclei = errors.New("assign: no nucleus centroids to index")

// distanceTieEps is the slack under which two centroid distances count as
// tied. Ties resolve to the lowest label so assignment stays deterministic.
const distanceTieEps = 1e-9

// Assignment records the nearest nucleus for one spot.
type Assignment struct {
	SpotID   string  `json:"spot_id"`
	Label    int     `json:"nucleus"`  // Label of the nearest nucleus
	Distance float64 `json:"distance"` // Euclidean distance to its centroid, pixels
}

// nucleus is a labeled centroid stored in the k-d tree.
type nucleus struct {
	x, y  float64
	label int
}

func (n nucleus) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nucleus)
	switch d {
	case 0:
		return n.x - q.x
	default:
		return n.y - q.y
	}
}

func (n nucleus) Dims() int { return 2 }

func (n nucleus) point() geometry.Point2D { return geometry.Point2D{X: n.x, Y: n.y} }

// Distance returns the squared Euclidean distance, per the kdtree contract.
func (n nucleus) Distance(c kdtree.Comparable) float64 {
	q := c.(nucleus)
	dx := n.x - q.x
	dy := n.y - q.y
	return dx*dx + dy*dy
}

type nuclei []nucleus

func (n nuclei) Index(i int) kdtree.Comparable         { return n[i] }
func (n nuclei) Len() int                              { return len(n) }
func (n nuclei) Pivot(d kdtree.Dim) int                { return byDim{Dim: d, nuclei: n}.Pivot() }
func (n nuclei) Slice(start, end int) kdtree.Interface { return n[start:end] }

type byDim struct {
	kdtree.Dim
	nuclei
}

func (b byDim) Less(i, j int) bool {
	switch b.Dim {
	case 0:
		return b.nuclei[i].x < b.nuclei[j].x
	default:
		return b.nuclei[i].y < b.nuclei[j].y
	}
}

func (b byDim) Pivot() int { return kdtree.Partition(b, kdtree.MedianOfMedians(b)) }

func (b byDim) Slice(start, end int) kdtree.SortSlicer {
	b.nuclei = b.nuclei[start:end]
	return b
}

func (b byDim) Swap(i, j int) {
	b.nuclei[i], b.nuclei[j] = b.nuclei[j], b.nuclei[i]
}

// NearestNucleus assigns every spot to the nucleus with the closest
// centroid in Euclidean distance. The k-d tree over the centroids is built
// from scratch on each call; it is a disposable index, not a maintained
// structure. Requires at least one region.
//
// When a spot is equidistant from several centroids, the lowest label wins.
func NearestNucleus(spots []spot.Spot, regions []labelmap.Region) ([]Assignment, error) {
	if len(regions) == 0 {
		return nil, ErrNoNuclei
	}

	points := make(nuclei, len(regions))
	for i, reg := range regions {
		points[i] = nucleus{x: reg.Centroid.X, y: reg.Centroid.Y, label: reg.Label}
	}
	tree := kdtree.New(points, false)

	assignments := make([]Assignment, len(spots))
	for i, s := range spots {
		query := nucleus{x: s.Center.X, y: s.Center.Y}
		got, distSq := tree.Nearest(query)
		best := got.(nucleus)
		dist := math.Sqrt(distSq)

		// Resolve near-exact ties toward the lowest label; the tree's own
		// tie-breaking depends on construction order.
		for _, cand := range points {
			if cand.label >= best.label {
				continue
			}
			d := cand.point().Distance(query.point())
			if d <= dist+distanceTieEps && math.Abs(d-dist) <= distanceTieEps {
				best = cand
				dist = d
			}
		}

		assignments[i] = Assignment{
			SpotID:   s.ID,
			Label:    best.label,
			Distance: dist,
		}
	}
	return assignments, nil
}

// ColorByNucleus derives the shared color mapping for a set of assignments:
// each nucleus label gets a palette color in first-appearance order (ordered
// by region list), and each spot inherits the color of its nucleus. The
// cycle is applied to regions first so nuclei without spots still get
// stable colors.
func ColorByNucleus(assignments []Assignment, regions []labelmap.Region, cycle *colorutil.Cycle) (spotColors map[string]color.RGBA, labelColors map[int]color.RGBA) {
	labelColors = make(map[int]color.RGBA, len(regions))
	for _, reg := range regions {
		labelColors[reg.Label] = cycle.ColorFor(reg.Label)
	}

	spotColors = make(map[string]color.RGBA, len(assignments))
	for _, a := range assignments {
		spotColors[a.SpotID] = cycle.ColorFor(a.Label)
	}
	return spotColors, labelColors
}
