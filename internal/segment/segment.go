// Package segment provides automatic nucleus segmentation as a
// non-interactive fallback. It produces the same label-map shape an
// interactive segmentation tool would hand back.
package segment

import (
	"errors"
	"fmt"
	"image"

	"spot-mapper/internal/labelmap"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when the input image has no pixels.
var ErrEmptyImage = errors.New("segment: empty image")

// Segment labels nuclei in a fluorescence image using a threshold +
// distance-transform + watershed pipeline:
//
//  1. Grayscale and blur to suppress pixel noise.
//  2. Otsu threshold for the foreground mask.
//  3. Morphological close/open sized from the expected nucleus diameter.
//  4. Distance-transform peaks seed one marker per nucleus, so touching
//     nuclei separate at the watershed line.
//  5. Connected markers grow back over the mask via watershed.
//
// Labels are renumbered 1..N; fragments below the area floor are pruned.
func Segment(src image.Image, params Params) (*labelmap.LabelMap, error) {
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	if params.DiameterPixels <= 0 {
		return nil, fmt.Errorf("segment: invalid nucleus diameter %d px", params.DiameterPixels)
	}

	bgr, err := imageToMat(src)
	if err != nil {
		return nil, fmt.Errorf("segment: convert image: %w", err)
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	// Light blur so Otsu sees the bimodal histogram, not shot noise.
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(blurred, &mask, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	// Close small holes, then open away specks. Kernel scales with the
	// expected nucleus size but stays well below it.
	k := params.DiameterPixels / 8
	if k < 3 {
		k = 3
	}
	if k%2 == 0 {
		k++
	}
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: k, Y: k})
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)

	// Distance transform: interior pixels far from the background are
	// reliable seeds even when nuclei touch.
	dist := gocv.NewMat()
	defer dist.Close()
	distLabels := gocv.NewMat()
	defer distLabels.Close()
	gocv.DistanceTransform(mask, &dist, &distLabels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	_, maxDist, _, _ := gocv.MinMaxLoc(dist)
	ratio := params.PeakRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.4
	}

	peaks := gocv.NewMat()
	defer peaks.Close()
	gocv.Threshold(dist, &peaks, float32(ratio)*maxDist, 255, gocv.ThresholdBinary)

	peaks8 := gocv.NewMat()
	defer peaks8.Close()
	peaks.ConvertTo(&peaks8, gocv.MatTypeCV8U)

	sureBg := gocv.NewMat()
	defer sureBg.Close()
	gocv.Dilate(mask, &sureBg, kernel)

	markers := gocv.NewMat()
	defer markers.Close()
	gocv.ConnectedComponents(peaks8, &markers)

	// Watershed marker convention: background = 1, seeds = 2.., unknown = 0.
	rows, cols := markers.Rows(), markers.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			switch {
			case peaks8.GetUCharAt(y, x) > 0:
				markers.SetIntAt(y, x, markers.GetIntAt(y, x)+1)
			case sureBg.GetUCharAt(y, x) == 0:
				markers.SetIntAt(y, x, 1)
			default:
				markers.SetIntAt(y, x, 0)
			}
		}
	}

	gocv.Watershed(bgr, &markers)

	// Collapse watershed output to a label map: boundary (-1) and
	// background (1) become 0, seeds renumber from 1.
	out := labelmap.New(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := int(markers.GetIntAt(y, x))
			if v > 1 {
				out.Set(y, x, v-1)
			}
		}
	}
	out.Prune(params.minArea())
	return out, nil
}

// imageToMat converts a Go image.Image to an 8-bit BGR Mat.
func imageToMat(src image.Image) (gocv.Mat, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}
