// Package spot provides diffraction-limited spot detection for microscopy
// images.
package spot

import (
	"spot-mapper/pkg/geometry"
)

// Spot represents a single detected spot.
type Spot struct {
	ID         string           `json:"id"`         // Unique identifier, e.g. "spot-001"
	Center     geometry.Point2D `json:"center"`     // Sub-pixel center (X = column, Y = row)
	Row        int              `json:"row"`        // Pixel row of the response peak
	Col        int              `json:"col"`        // Pixel column of the response peak
	Diameter   float64          `json:"diameter"`   // Estimated diameter in pixels
	Response   float64          `json:"response"`   // LoG peak value; higher = stronger spot
	Background float64          `json:"background"` // Mean intensity on a ring around the spot
}

// DetectionResult holds detected spots plus the parameters that produced
// them.
type DetectionResult struct {
	Spots  []Spot          `json:"spots"`
	Params DetectionParams `json:"params"`
}

// Coordinates returns the (row, col) coordinate of every spot, index-aligned
// with Sizes.
func (r *DetectionResult) Coordinates() []geometry.PointInt {
	coords := make([]geometry.PointInt, len(r.Spots))
	for i, s := range r.Spots {
		coords[i] = geometry.PointInt{X: s.Col, Y: s.Row}
	}
	return coords
}

// Sizes returns the estimated diameter of every spot, index-aligned with
// Coordinates.
func (r *DetectionResult) Sizes() []float64 {
	sizes := make([]float64, len(r.Spots))
	for i, s := range r.Spots {
		sizes[i] = s.Diameter
	}
	return sizes
}
