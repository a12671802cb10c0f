// Package export writes pipeline results to CSV for downstream analysis.
package export

import (
	"fmt"
	"io"
	"os"

	"spot-mapper/internal/assign"
	"spot-mapper/internal/labelmap"
	"spot-mapper/internal/spot"

	"github.com/gocarina/gocsv"
)

// SpotRow is one detected spot in the spots CSV.
type SpotRow struct {
	ID         string  `csv:"id"`
	Row        int     `csv:"row"`
	Col        int     `csv:"col"`
	X          float64 `csv:"x"`
	Y          float64 `csv:"y"`
	Diameter   float64 `csv:"diameter_px"`
	Response   float64 `csv:"response"`
	Background float64 `csv:"background"`
	Nucleus    int     `csv:"nucleus"` // 0 when unassigned
	Distance   float64 `csv:"nucleus_distance_px"`
}

// AssignmentRow is one spot-to-nucleus pairing in the assignments CSV.
type AssignmentRow struct {
	SpotID   string  `csv:"spot_id"`
	Nucleus  int     `csv:"nucleus"`
	Distance float64 `csv:"distance_px"`
}

// NucleusRow is one segmented nucleus in the nuclei CSV.
type NucleusRow struct {
	Label     int     `csv:"label"`
	CentroidX float64 `csv:"centroid_x"`
	CentroidY float64 `csv:"centroid_y"`
	Area      int     `csv:"area_px"`
	Spots     int     `csv:"spot_count"`
	MeanInt   float64 `csv:"mean_intensity"`
	StdInt    float64 `csv:"std_intensity"`
}

// SpotRows merges detections with their nucleus assignments. Spots without
// an assignment keep nucleus 0 and distance 0.
func SpotRows(spots []spot.Spot, assignments []assign.Assignment) []*SpotRow {
	byID := make(map[string]assign.Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.SpotID] = a
	}

	rows := make([]*SpotRow, len(spots))
	for i, s := range spots {
		row := &SpotRow{
			ID:         s.ID,
			Row:        s.Row,
			Col:        s.Col,
			X:          s.Center.X,
			Y:          s.Center.Y,
			Diameter:   s.Diameter,
			Response:   s.Response,
			Background: s.Background,
		}
		if a, ok := byID[s.ID]; ok {
			row.Nucleus = a.Label
			row.Distance = a.Distance
		}
		rows[i] = row
	}
	return rows
}

// NucleusRows builds per-nucleus summary rows, including the number of
// spots assigned to each.
func NucleusRows(regions []labelmap.Region, assignments []assign.Assignment) []*NucleusRow {
	counts := make(map[int]int)
	for _, a := range assignments {
		counts[a.Label]++
	}

	rows := make([]*NucleusRow, len(regions))
	for i, reg := range regions {
		rows[i] = &NucleusRow{
			Label:     reg.Label,
			CentroidX: reg.Centroid.X,
			CentroidY: reg.Centroid.Y,
			Area:      reg.Area,
			Spots:     counts[reg.Label],
			MeanInt:   reg.MeanIntensity,
			StdInt:    reg.StdIntensity,
		}
	}
	return rows
}

// WriteSpots writes the spot CSV to w.
func WriteSpots(spots []spot.Spot, assignments []assign.Assignment, w io.Writer) error {
	if err := gocsv.Marshal(SpotRows(spots, assignments), w); err != nil {
		return fmt.Errorf("writing spot csv: %w", err)
	}
	return nil
}

// WriteAssignments writes the assignment CSV to w.
func WriteAssignments(assignments []assign.Assignment, w io.Writer) error {
	rows := make([]*AssignmentRow, len(assignments))
	for i, a := range assignments {
		rows[i] = &AssignmentRow{SpotID: a.SpotID, Nucleus: a.Label, Distance: a.Distance}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing assignment csv: %w", err)
	}
	return nil
}

// WriteNuclei writes the nucleus CSV to w.
func WriteNuclei(regions []labelmap.Region, assignments []assign.Assignment, w io.Writer) error {
	if err := gocsv.Marshal(NucleusRows(regions, assignments), w); err != nil {
		return fmt.Errorf("writing nucleus csv: %w", err)
	}
	return nil
}

// WriteSpotsFile writes the spot CSV to path.
func WriteSpotsFile(spots []spot.Spot, assignments []assign.Assignment, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return WriteSpots(spots, assignments, f)
}

// WriteNucleiFile writes the nucleus CSV to path.
func WriteNucleiFile(regions []labelmap.Region, assignments []assign.Assignment, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return WriteNuclei(regions, assignments, f)
}
