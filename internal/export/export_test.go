package export

import (
	"bytes"
	"strings"
	"testing"

	"spot-mapper/internal/assign"
	"spot-mapper/internal/labelmap"
	"spot-mapper/internal/spot"
	"spot-mapper/pkg/geometry"
)

func testSpots() ([]spot.Spot, []assign.Assignment) {
	spots := []spot.Spot{
		{ID: "spot-001", Center: geometry.Point2D{X: 10, Y: 5}, Row: 5, Col: 10, Diameter: 6, Response: 0.42},
		{ID: "spot-002", Center: geometry.Point2D{X: 30, Y: 22}, Row: 22, Col: 30, Diameter: 6, Response: 0.17},
	}
	assignments := []assign.Assignment{
		{SpotID: "spot-001", Label: 3, Distance: 4.5},
	}
	return spots, assignments
}

func TestSpotRows(t *testing.T) {
	spots, assignments := testSpots()
	rows := SpotRows(spots, assignments)

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Nucleus != 3 || rows[0].Distance != 4.5 {
		t.Errorf("assigned spot: nucleus %d dist %v, want 3, 4.5", rows[0].Nucleus, rows[0].Distance)
	}
	if rows[1].Nucleus != 0 {
		t.Errorf("unassigned spot: nucleus = %d, want 0", rows[1].Nucleus)
	}
}

func TestWriteSpots(t *testing.T) {
	spots, assignments := testSpots()

	var buf bytes.Buffer
	if err := WriteSpots(spots, assignments, &buf); err != nil {
		t.Fatalf("WriteSpots: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,row,col") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "spot-001") {
		t.Errorf("missing spot-001 in %s", lines[1])
	}
}

func TestWriteAssignments(t *testing.T) {
	_, assignments := testSpots()

	var buf bytes.Buffer
	if err := WriteAssignments(assignments, &buf); err != nil {
		t.Fatalf("WriteAssignments: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header + 1 row", len(lines))
	}
	if lines[0] != "spot_id,nucleus,distance_px" {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestNucleusRows(t *testing.T) {
	regions := []labelmap.Region{
		{Label: 1, Centroid: geometry.Point2D{X: 8, Y: 8}, Area: 64},
		{Label: 2, Centroid: geometry.Point2D{X: 24, Y: 24}, Area: 49},
	}
	assignments := []assign.Assignment{
		{SpotID: "spot-001", Label: 1},
		{SpotID: "spot-002", Label: 1},
		{SpotID: "spot-003", Label: 2},
	}

	rows := NucleusRows(regions, assignments)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Spots != 2 {
		t.Errorf("label 1 spot count = %d, want 2", rows[0].Spots)
	}
	if rows[1].Spots != 1 {
		t.Errorf("label 2 spot count = %d, want 1", rows[1].Spots)
	}
}

func TestWriteNuclei(t *testing.T) {
	regions := []labelmap.Region{
		{Label: 1, Centroid: geometry.Point2D{X: 8, Y: 8}, Area: 64, MeanIntensity: 0.5},
	}

	var buf bytes.Buffer
	if err := WriteNuclei(regions, nil, &buf); err != nil {
		t.Fatalf("WriteNuclei: %v", err)
	}
	if !strings.Contains(buf.String(), "label,centroid_x") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
