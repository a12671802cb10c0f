package annotate

import (
	"errors"
	"fmt"
	"io"
	"math"

	"spot-mapper/internal/assign"
	"spot-mapper/internal/spot"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when a chart is requested for an empty result set.
var ErrNoData = errors.New("annotate: no data to chart")

const histogramBins = 12

// ResponseHistogram writes a PNG bar chart of the detected spot response
// distribution.
func ResponseHistogram(spots []spot.Spot, w io.Writer) error {
	values := make([]float64, 0, len(spots))
	for _, s := range spots {
		values = append(values, s.Response)
	}
	return renderHistogram("Spot response", values, w)
}

// SizeHistogram writes a PNG bar chart of the detected spot diameter
// distribution. With a single detection scale all diameters coincide and
// the chart collapses to one bin.
func SizeHistogram(spots []spot.Spot, w io.Writer) error {
	values := make([]float64, 0, len(spots))
	for _, s := range spots {
		values = append(values, s.Diameter)
	}
	return renderHistogram("Spot diameter (px)", values, w)
}

// SpotsPerNucleus writes a PNG bar chart counting spots per nucleus label.
func SpotsPerNucleus(assignments []assign.Assignment, w io.Writer) error {
	if len(assignments) == 0 {
		return ErrNoData
	}

	counts := make(map[int]int)
	maxLabel := 0
	for _, a := range assignments {
		counts[a.Label]++
		if a.Label > maxLabel {
			maxLabel = a.Label
		}
	}

	bars := make([]chart.Value, 0, len(counts))
	for label := 1; label <= maxLabel; label++ {
		n, ok := counts[label]
		if !ok {
			continue
		}
		bars = append(bars, chart.Value{
			Value: float64(n),
			Label: fmt.Sprintf("n%d", label),
		})
	}

	graph := chart.BarChart{
		Title:    "Spots per nucleus",
		Width:    768,
		Height:   384,
		BarWidth: 24,
		Bars:     bars,
	}
	return graph.Render(chart.PNG, w)
}

func renderHistogram(title string, values []float64, w io.Writer) error {
	if len(values) == 0 {
		return ErrNoData
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	bins := make([]int, histogramBins)
	span := hi - lo
	if span == 0 {
		bins[0] = len(values)
	} else {
		for _, v := range values {
			i := int(math.Floor(float64(histogramBins) * (v - lo) / span))
			if i >= histogramBins {
				i = histogramBins - 1
			}
			bins[i]++
		}
	}

	bars := make([]chart.Value, histogramBins)
	for i, n := range bins {
		center := lo + (float64(i)+0.5)*span/float64(histogramBins)
		bars[i] = chart.Value{
			Value: float64(n),
			Label: fmt.Sprintf("%.3g", center),
		}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    768,
		Height:   384,
		BarWidth: 40,
		Bars:     bars,
	}
	return graph.Render(chart.PNG, w)
}
