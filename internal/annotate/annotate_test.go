package annotate

import (
	"bytes"
	"testing"

	"spot-mapper/internal/assign"
	"spot-mapper/internal/grid"
	"spot-mapper/internal/labelmap"
	"spot-mapper/internal/spot"
	"spot-mapper/pkg/geometry"
)

func testScene() (*grid.Plane, *labelmap.LabelMap, []labelmap.Region, []spot.Spot, []assign.Assignment) {
	base := grid.New(32, 32)
	labels := labelmap.New(32, 32)
	for r := 4; r < 12; r++ {
		for c := 4; c < 12; c++ {
			labels.Set(r, c, 1)
		}
	}
	for r := 20; r < 28; r++ {
		for c := 20; c < 28; c++ {
			labels.Set(r, c, 2)
		}
	}
	regions := labels.Regions(nil)

	spots := []spot.Spot{
		{ID: "spot-001", Center: geometry.Point2D{X: 6, Y: 6}, Row: 6, Col: 6, Diameter: 6, Response: 0.5},
		{ID: "spot-002", Center: geometry.Point2D{X: 24, Y: 24}, Row: 24, Col: 24, Diameter: 6, Response: 0.8},
	}
	assignments := []assign.Assignment{
		{SpotID: "spot-001", Label: 1, Distance: 2.1},
		{SpotID: "spot-002", Label: 2, Distance: 0.7},
	}
	return base, labels, regions, spots, assignments
}

func TestRenderOverlay(t *testing.T) {
	base, labels, regions, spots, assignments := testScene()

	// A detection outside the frame is skipped, not drawn.
	spots = append(spots, spot.Spot{
		ID: "spot-003", Center: geometry.Point2D{X: 40, Y: -3}, Row: -3, Col: 40, Diameter: 6,
	})

	img, err := RenderOverlay(base, labels, regions, spots, assignments, DefaultOptions())
	if err != nil {
		t.Fatalf("RenderOverlay: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("overlay size = %dx%d, want 32x32", b.Dx(), b.Dy())
	}
}

func TestRenderOverlayShapeMismatch(t *testing.T) {
	base := grid.New(32, 32)
	labels := labelmap.New(16, 16)

	_, err := RenderOverlay(base, labels, nil, nil, nil, DefaultOptions())
	if err != ErrShapeMismatch {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestRenderOverlayEmptyBase(t *testing.T) {
	if _, err := RenderOverlay(nil, nil, nil, nil, nil, DefaultOptions()); err == nil {
		t.Error("expected error for nil base")
	}
}

func TestResponseHistogram(t *testing.T) {
	_, _, _, spots, _ := testScene()

	var buf bytes.Buffer
	if err := ResponseHistogram(spots, &buf); err != nil {
		t.Fatalf("ResponseHistogram: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("no PNG bytes written")
	}
}

func TestResponseHistogramEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ResponseHistogram(nil, &buf); err != ErrNoData {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestSizeHistogramSingleScale(t *testing.T) {
	// One detection scale means every diameter is identical; the chart
	// must still render.
	_, _, _, spots, _ := testScene()

	var buf bytes.Buffer
	if err := SizeHistogram(spots, &buf); err != nil {
		t.Fatalf("SizeHistogram: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("no PNG bytes written")
	}
}

func TestSpotsPerNucleus(t *testing.T) {
	_, _, _, _, assignments := testScene()

	var buf bytes.Buffer
	if err := SpotsPerNucleus(assignments, &buf); err != nil {
		t.Fatalf("SpotsPerNucleus: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("no PNG bytes written")
	}
}
