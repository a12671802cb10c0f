// Package annotate renders detection and assignment results for visual
// review.
package annotate

import (
	"errors"
	"image"
	"image/color"

	"spot-mapper/internal/assign"
	"spot-mapper/internal/grid"
	"spot-mapper/internal/labelmap"
	"spot-mapper/internal/spot"
	"spot-mapper/pkg/colorutil"
	"spot-mapper/pkg/geometry"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// ErrShapeMismatch is returned when the label map does not cover the base
// plane.
var ErrShapeMismatch = errors.New("annotate: label map shape does not match base image")

// Options configures overlay rendering.
type Options struct {
	// LabelOpacity blends the nucleus tint over the grayscale base
	// (0 = invisible, 1 = solid).
	LabelOpacity float64

	// OutlineWidth is the stroke width of spot circles in pixels.
	OutlineWidth float64

	// DrawCentroids marks each nucleus centroid with a small filled dot.
	DrawCentroids bool

	// Palette overrides the default color cycle.
	Palette []color.RGBA
}

// DefaultOptions returns default rendering options.
func DefaultOptions() Options {
	return Options{
		LabelOpacity:  0.45,
		OutlineWidth:  1.5,
		DrawCentroids: true,
	}
}

// RenderOverlay composites the pipeline's results into one reviewable
// image: the intensity plane as a grayscale backdrop, each nucleus tinted
// with its palette color, and every spot drawn as a circle in the color of
// its assigned nucleus. A nucleus and the spots assigned to it always share
// a color.
func RenderOverlay(base *grid.Plane, labels *labelmap.LabelMap, regions []labelmap.Region,
	spots []spot.Spot, assignments []assign.Assignment, opts Options) (image.Image, error) {

	if base == nil || base.Empty() {
		return nil, spot.ErrEmptyImage
	}
	if labels != nil && !labels.Empty() &&
		(labels.Rows() != base.Rows() || labels.Cols() != base.Cols()) {
		return nil, ErrShapeMismatch
	}

	cycle := colorutil.NewCycle(opts.Palette)
	spotColors, labelColors := assign.ColorByNucleus(assignments, regions, cycle)

	backdrop := imaging.Clone(base.ToGray())

	// Tint layer: labeled pixels carry their nucleus color, everything
	// else stays transparent.
	composed := backdrop
	if labels != nil && !labels.Empty() && opts.LabelOpacity > 0 {
		tint := image.NewNRGBA(image.Rect(0, 0, base.Cols(), base.Rows()))
		for r := 0; r < labels.Rows(); r++ {
			for c := 0; c < labels.Cols(); c++ {
				label := labels.At(r, c)
				if label == 0 {
					continue
				}
				col, ok := labelColors[label]
				if !ok {
					col = cycle.ColorFor(label)
					labelColors[label] = col
				}
				tint.SetNRGBA(c, r, color.NRGBA{R: col.R, G: col.G, B: col.B, A: 255})
			}
		}
		composed = imaging.Overlay(backdrop, tint, image.Point{}, opts.LabelOpacity)
	}

	dc := gg.NewContextForImage(composed)

	if opts.DrawCentroids {
		for _, reg := range regions {
			col, ok := labelColors[reg.Label]
			if !ok {
				col = cycle.ColorFor(reg.Label)
			}
			dc.SetColor(colorutil.Lighten(col, 0.3))
			dc.DrawCircle(reg.Centroid.X, reg.Centroid.Y, 2)
			dc.Fill()
		}
	}

	width := opts.OutlineWidth
	if width <= 0 {
		width = 1.5
	}
	dc.SetLineWidth(width)
	frame := geometry.RectInt{Width: base.Cols(), Height: base.Rows()}
	for _, s := range spots {
		if !frame.Contains(int(s.Center.X), int(s.Center.Y)) {
			continue
		}
		col, ok := spotColors[s.ID]
		if !ok {
			col = colorutil.White
		}
		dc.SetColor(col)
		dc.DrawCircle(s.Center.X, s.Center.Y, s.Diameter/2)
		dc.Stroke()
	}

	return dc.Image(), nil
}
