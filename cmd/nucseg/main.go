// Command nucseg segments nuclei in a microscopy image and writes a
// 16-bit label map.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"spot-mapper/internal/config"
	"spot-mapper/internal/export"
	"spot-mapper/internal/grid"
	micimage "spot-mapper/internal/image"
	"spot-mapper/internal/segment"
	"spot-mapper/internal/version"

	"golang.org/x/image/tiff"
)

func main() {
	imagePath := flag.String("image", "", "Path to nuclei channel image (TIFF, PNG, or JPEG)")
	configPath := flag.String("config", "", "Path to YAML analysis config (optional)")
	pixelSize := flag.Float64("pixelsize", 0, "Pixel size in um (overrides image metadata)")
	diameter := flag.Float64("diameter", 0, "Expected nucleus diameter in um (overrides config)")
	outPath := flag.String("out", "labels.tif", "Output label map path (16-bit TIFF)")
	csvPath := flag.String("csv", "", "Write per-nucleus measurements to this CSV file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nucseg %s\n", version.String())
		return
	}

	if *imagePath == "" {
		fmt.Println("Usage: nucseg -image <path> [-pixelsize um] [-diameter um] [-out labels.tif]")
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

	params := segment.DefaultParams().WithDiameter(cfg.Segmentation.NucleusDiameterUM)
	params.PeakRatio = cfg.Segmentation.PeakRatio
	if px > 0 {
		params = params.WithPixelSize(px)
	}
	if *diameter > 0 {
		params = params.WithDiameter(*diameter)
	}

	fmt.Printf("\nSegmentation parameters:\n")
	fmt.Printf("  Nucleus diameter: %.1f um (%d px)\n", params.DiameterUM, params.DiameterPixels)
	fmt.Printf("  Seed peak ratio: %.2f\n", params.PeakRatio)

	fmt.Printf("\nSegmenting nuclei...\n")
	labels, err := segment.Segment(layer.Image, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Segmentation failed: %v\n", err)
		os.Exit(1)
	}

	regions := labels.Regions(grid.FromImage(layer.Image))
	fmt.Printf("\nSegmented %d nuclei:\n", len(regions))
	fmt.Printf("%-8s %10s %10s %8s %10s\n", "Label", "X", "Y", "Area", "MeanInt")
	fmt.Println(strings.Repeat("-", 50))
	for _, reg := range regions {
		fmt.Printf("%-8d %10.1f %10.1f %8d %10.4f\n",
			reg.Label, reg.Centroid.X, reg.Centroid.Y, reg.Area, reg.MeanIntensity)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}
	if err := tiff.Encode(f, labels.ToGray16(), nil); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "Failed to encode label map: %v\n", err)
		os.Exit(1)
	}
	f.Close()
	fmt.Printf("\nWrote %s\n", *outPath)

	if *csvPath != "" {
		if err := export.WriteNucleiFile(regions, nil, *csvPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *csvPath)
	}
}
