// Command spotmap runs the full mapping pipeline: detect spots in one
// channel, segment or load nuclei from another, assign each spot to its
// nearest nucleus, and write CSVs plus an annotated overlay.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"spot-mapper/internal/annotate"
	"spot-mapper/internal/assign"
	"spot-mapper/internal/config"
	"spot-mapper/internal/export"
	"spot-mapper/internal/grid"
	micimage "spot-mapper/internal/image"
	"spot-mapper/internal/labelmap"
	"spot-mapper/internal/project"
	"spot-mapper/internal/segment"
	"spot-mapper/internal/spot"
	"spot-mapper/internal/version"
)

func main() {
	spotsPath := flag.String("spots", "", "Path to spot channel image")
	nucleiPath := flag.String("nuclei", "", "Path to nuclei channel image (segmented with watershed)")
	labelsPath := flag.String("labels", "", "Path to precomputed nucleus label map (8/16-bit grayscale)")
	rerunPath := flag.String("project", "", "Rerun an existing .spotproj; its paths and settings become defaults")
	configPath := flag.String("config", "", "Path to YAML analysis config (optional)")
	pixelSize := flag.Float64("pixelsize", 0, "Pixel size in um (overrides image metadata)")
	threshold := flag.Float64("threshold", 0, "Spot response threshold (overrides config)")
	outPath := flag.String("out", "", "Experiment file path (.spotproj); result files are written alongside")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("spotmap %s\n", version.String())
		return
	}

	var prev *project.File
	if *rerunPath != "" {
		var err error
		prev, err = project.Load(*rerunPath)
		if err != nil {
			fatalf("Failed to load experiment file: %v", err)
		}
		if *spotsPath == "" {
			*spotsPath = prev.GetSpotImagePath(*rerunPath)
		}
		if *nucleiPath == "" {
			*nucleiPath = prev.GetNucleiImagePath(*rerunPath)
		}
		if *labelsPath == "" {
			*labelsPath = prev.GetLabelImagePath(*rerunPath)
		}
		if *pixelSize == 0 {
			*pixelSize = prev.PixelSizeUM
		}
		if *outPath == "" {
			*outPath = *rerunPath
		}
	}

	if *spotsPath == "" || (*nucleiPath == "" && *labelsPath == "") {
		fmt.Println("Usage: spotmap -spots <path> (-nuclei <path> | -labels <path>) [-out exp.spotproj] [-project exp.spotproj]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	if prev != nil {
		// Stored experiment settings override config-file defaults.
		if prev.Settings.HighPassSigma > 0 {
			cfg.Detection.HighPassSigma = prev.Settings.HighPassSigma
		}
		if prev.Settings.BlobSigma > 0 {
			cfg.Detection.BlobSigma = prev.Settings.BlobSigma
		}
		if prev.Settings.Threshold > 0 {
			cfg.Detection.Threshold = prev.Settings.Threshold
		}
		if prev.Settings.NucleusUM > 0 {
			cfg.Segmentation.NucleusDiameterUM = prev.Settings.NucleusUM
		}
	}

	projectPath := *outPath
	if projectPath == "" {
		base := strings.TrimSuffix(*spotsPath, filepath.Ext(*spotsPath))
		projectPath = base + ".spotproj"
	}

	// Spot channel.
	spotLayer, err := micimage.Load(*spotsPath)
	if err != nil {
		fatalf("Failed to load spot image: %v", err)
	}
	fmt.Printf("Spot channel: %s (%dx%d)\n", spotLayer.Path, spotLayer.Width(), spotLayer.Height())

	px := spotLayer.PixelSizeUM
	if *pixelSize > 0 {
		px = *pixelSize
	}

	params := spot.DefaultParams().
		WithSigmas(cfg.Detection.HighPassSigma, cfg.Detection.BlobSigma).
		WithThreshold(cfg.Detection.Threshold)
	if px > 0 && cfg.Detection.SpotDiameterUM > 0 {
		params = params.WithPixelSize(px, cfg.Detection.SpotDiameterUM)
	}
	if *threshold > 0 {
		params = params.WithThreshold(*threshold)
	}

	spotPlane := grid.FromImage(spotLayer.Image)
	result, err := spot.Detect(spotPlane, params)
	if err != nil {
		fatalf("Spot detection failed: %v", err)
	}
	fmt.Printf("Detected %d spots (sigma %.2f, threshold %.4f)\n",
		len(result.Spots), params.BlobSigma, params.Threshold)

	// Nucleus label map: either precomputed or segmented here.
	labels, nucleiImage, err := loadLabels(*labelsPath, *nucleiPath, px, cfg)
	if err != nil {
		fatalf("%v", err)
	}

	var intensity *grid.Plane
	if nucleiImage != nil {
		intensity = grid.FromImage(nucleiImage.Image)
	}
	regions := labels.Regions(intensity)
	fmt.Printf("Nuclei: %d labeled regions\n", len(regions))

	// Assignment.
	assignments, err := assign.NearestNucleus(result.Spots, regions)
	if err != nil {
		if errors.Is(err, assign.ErrNoNuclei) {
			fatalf("No nuclei found; cannot assign %d spots", len(result.Spots))
		}
		fatalf("Assignment failed: %v", err)
	}

	fmt.Printf("\n%-12s %8s %12s\n", "Spot", "Nucleus", "Distance")
	fmt.Println(strings.Repeat("-", 34))
	for _, a := range assignments {
		fmt.Printf("%-12s %8d %12.2f\n", a.SpotID, a.Label, a.Distance)
	}

	// Outputs.
	proj := project.New(strings.TrimSuffix(filepath.Base(projectPath), filepath.Ext(projectPath)))
	proj.PixelSizeUM = px
	proj.Settings.HighPassSigma = params.HighPassSigma
	proj.Settings.BlobSigma = params.BlobSigma
	proj.Settings.Threshold = params.Threshold
	proj.SetSpotImage(projectPath, *spotsPath)
	if *nucleiPath != "" {
		proj.SetNucleiImage(projectPath, *nucleiPath)
	}
	if *labelsPath != "" {
		proj.SetLabelImage(projectPath, *labelsPath)
	}

	spotsCSV := proj.GetSpotsPath(projectPath)
	if err := export.WriteSpotsFile(result.Spots, assignments, spotsCSV); err != nil {
		fatalf("Failed to write spot CSV: %v", err)
	}
	fmt.Printf("\nWrote %s\n", spotsCSV)

	assignCSV := strings.TrimSuffix(projectPath, filepath.Ext(projectPath)) + "_assignments.csv"
	af, err := os.Create(assignCSV)
	if err != nil {
		fatalf("Failed to create assignment CSV: %v", err)
	}
	if err := export.WriteAssignments(assignments, af); err != nil {
		af.Close()
		fatalf("Failed to write assignment CSV: %v", err)
	}
	af.Close()
	fmt.Printf("Wrote %s\n", assignCSV)

	nucleiCSV := proj.GetNucleiPath(projectPath)
	if err := export.WriteNucleiFile(regions, assignments, nucleiCSV); err != nil {
		fatalf("Failed to write nucleus CSV: %v", err)
	}
	fmt.Printf("Wrote %s\n", nucleiCSV)

	opts := annotate.DefaultOptions()
	opts.LabelOpacity = cfg.Output.OverlayOpacity
	overlay, err := annotate.RenderOverlay(spotPlane, labels, regions, result.Spots, assignments, opts)
	if err != nil {
		fatalf("Failed to render overlay: %v", err)
	}
	overlayPath := proj.GetOverlayPath(projectPath)
	if err := writePNG(overlayPath, overlay); err != nil {
		fatalf("Failed to write overlay: %v", err)
	}
	fmt.Printf("Wrote %s\n", overlayPath)

	if cfg.Output.WriteHistogram {
		histPath := strings.TrimSuffix(projectPath, filepath.Ext(projectPath)) + "_hist.png"
		f, err := os.Create(histPath)
		if err != nil {
			fatalf("Failed to create histogram: %v", err)
		}
		if err := annotate.SpotsPerNucleus(assignments, f); err != nil && err != annotate.ErrNoData {
			f.Close()
			fatalf("Failed to render histogram: %v", err)
		}
		f.Close()
		fmt.Printf("Wrote %s\n", histPath)
	}

	if err := proj.Save(projectPath); err != nil {
		fatalf("Failed to save experiment file: %v", err)
	}
	fmt.Printf("Wrote %s\n", projectPath)
}

// loadLabels returns the nucleus label map, preferring a precomputed label
// image over on-the-fly segmentation. The returned layer is non-nil only
// when a nuclei channel image was loaded.
func loadLabels(labelsPath, nucleiPath string, px float64, cfg *config.Config) (*labelmap.LabelMap, *micimage.Layer, error) {
	if labelsPath != "" {
		layer, err := micimage.Load(labelsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading label map: %w", err)
		}
		labels, err := labelmap.FromImage(layer.Image)
		if err != nil {
			return nil, nil, fmt.Errorf("reading label map: %w", err)
		}
		return labels, nil, nil
	}

	layer, err := micimage.Load(nucleiPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading nuclei image: %w", err)
	}

	params := segment.DefaultParams().WithDiameter(cfg.Segmentation.NucleusDiameterUM)
	params.PeakRatio = cfg.Segmentation.PeakRatio
	if layer.PixelSizeUM > 0 {
		params = params.WithPixelSize(layer.PixelSizeUM)
	} else if px > 0 {
		params = params.WithPixelSize(px)
	}

	labels, err := segment.Segment(layer.Image, params)
	if err != nil {
		return nil, nil, fmt.Errorf("segmenting nuclei: %w", err)
	}
	return labels, layer, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
