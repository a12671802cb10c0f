// Command spotdetect runs spot detection on a single microscopy image and
// outputs results.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"spot-mapper/internal/annotate"
	"spot-mapper/internal/config"
	"spot-mapper/internal/export"
	"spot-mapper/internal/grid"
	micimage "spot-mapper/internal/image"
	"spot-mapper/internal/spot"
	"spot-mapper/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to spot channel image (TIFF, PNG, or JPEG)")
	configPath := flag.String("config", "", "Path to YAML analysis config (optional)")
	pixelSize := flag.Float64("pixelsize", 0, "Pixel size in um (overrides image metadata)")
	sigma := flag.Float64("sigma", 0, "High-pass sigma in pixels (overrides config)")
	blobSigma := flag.Float64("blobsigma", 0, "Blob detection sigma in pixels (overrides config)")
	threshold := flag.Float64("threshold", 0, "Response threshold (overrides config)")
	csvPath := flag.String("csv", "", "Write detections to this CSV file")
	histPath := flag.String("hist", "", "Write response histogram PNG to this file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("spotdetect %s\n", version.String())
		return
	}

	if *imagePath == "" {
		fmt.Println("Usage: spotdetect -image <path> [-pixelsize um] [-threshold 0.01] [-csv out.csv]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	layer, err := micimage.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded %s: %dx%d pixels (%s channel)\n",
		layer.Path, layer.Width(), layer.Height(), layer.Channel)

	px := layer.PixelSizeUM
	if *pixelSize > 0 {
		px = *pixelSize
	}
	if px > 0 {
		fmt.Printf("Pixel size: %.4f um (%.1f x %.1f um field)\n",
			px, float64(layer.Width())*px, float64(layer.Height())*px)
	}

	params := spot.DefaultParams().
		WithSigmas(cfg.Detection.HighPassSigma, cfg.Detection.BlobSigma).
		WithThreshold(cfg.Detection.Threshold)
	if px > 0 && cfg.Detection.SpotDiameterUM > 0 {
		params = params.WithPixelSize(px, cfg.Detection.SpotDiameterUM)
	}
	if *sigma > 0 {
		params = params.WithSigmas(*sigma, params.BlobSigma)
	}
	if *blobSigma > 0 {
		params = params.WithSigmas(params.HighPassSigma, *blobSigma)
	}
	if *threshold > 0 {
		params = params.WithThreshold(*threshold)
	}

	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  High-pass sigma: %.2f px\n", params.HighPassSigma)
	fmt.Printf("  Blob sigma: %.2f px (diameter %.1f px)\n",
		params.BlobSigma, spot.DiameterFactor*params.BlobSigma)
	fmt.Printf("  Threshold: %.4f\n", params.Threshold)

	fmt.Printf("\nDetecting spots...\n")
	plane := grid.FromImage(layer.Image)
	result, err := spot.Detect(plane, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nDetected %d spots:\n", len(result.Spots))
	fmt.Printf("%-12s %8s %8s %10s %12s\n", "ID", "Row", "Col", "Diameter", "Response")
	fmt.Println(strings.Repeat("-", 54))
	for _, s := range result.Spots {
		fmt.Printf("%-12s %8d %8d %10.1f %12.4f\n", s.ID, s.Row, s.Col, s.Diameter, s.Response)
	}
	fmt.Printf("\nTotal: %d spots detected\n", len(result.Spots))

	if *csvPath != "" {
		if err := export.WriteSpotsFile(result.Spots, nil, *csvPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *csvPath)
	}

	if *histPath != "" {
		f, err := os.Create(*histPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create histogram file: %v\n", err)
			os.Exit(1)
		}
		if err := annotate.ResponseHistogram(result.Spots, f); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "Failed to render histogram: %v\n", err)
			os.Exit(1)
		}
		f.Close()
		fmt.Printf("Wrote %s\n", *histPath)
	}
}
