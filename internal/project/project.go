// Package project provides experiment file handling and persistence.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// File represents a spot mapping experiment file (.spotproj).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Image paths (relative to project file)
	SpotImagePath   string `json:"spot_image,omitempty"`
	NucleiImagePath string `json:"nuclei_image,omitempty"`
	LabelImagePath  string `json:"label_image,omitempty"`

	// Acquisition metadata
	PixelSizeUM float64 `json:"pixel_size_um,omitempty"`

	// Result file paths (relative to project file)
	SpotsPath   string `json:"spots,omitempty"`
	NucleiPath  string `json:"nuclei,omitempty"`
	OverlayPath string `json:"overlay,omitempty"`

	// Analysis settings
	Settings Settings `json:"settings,omitempty"`
}

// Settings holds the analysis parameters used for the experiment.
type Settings struct {
	HighPassSigma float64 `json:"highpass_sigma,omitempty"`
	BlobSigma     float64 `json:"blob_sigma,omitempty"`
	Threshold     float64 `json:"threshold,omitempty"`
	NucleusUM     float64 `json:"nucleus_diameter_um,omitempty"`
}

// New creates a new experiment file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
		Settings: Settings{
			HighPassSigma: 2,
			BlobSigma:     2,
			Threshold:     0.01,
			NucleusUM:     15,
		},
	}
}

// Load loads an experiment from a .spotproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save saves the experiment to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetSpotImage sets the spot channel image path (relative to project).
func (p *File) SetSpotImage(projectPath, imagePath string) {
	p.SpotImagePath = relativize(projectPath, imagePath)
	p.Modified = time.Now()
}

// SetNucleiImage sets the nuclei channel image path (relative to project).
func (p *File) SetNucleiImage(projectPath, imagePath string) {
	p.NucleiImagePath = relativize(projectPath, imagePath)
	p.Modified = time.Now()
}

// SetLabelImage sets the label map image path (relative to project).
func (p *File) SetLabelImage(projectPath, imagePath string) {
	p.LabelImagePath = relativize(projectPath, imagePath)
	p.Modified = time.Now()
}

// GetSpotImagePath returns the absolute path to the spot channel image.
func (p *File) GetSpotImagePath(projectPath string) string {
	return absolutize(projectPath, p.SpotImagePath)
}

// GetNucleiImagePath returns the absolute path to the nuclei channel image.
func (p *File) GetNucleiImagePath(projectPath string) string {
	return absolutize(projectPath, p.NucleiImagePath)
}

// GetLabelImagePath returns the absolute path to the label map image.
func (p *File) GetLabelImagePath(projectPath string) string {
	return absolutize(projectPath, p.LabelImagePath)
}

// GetSpotsPath returns the absolute path to the spot CSV.
func (p *File) GetSpotsPath(projectPath string) string {
	if p.SpotsPath == "" {
		return defaultSidecar(projectPath, "_spots.csv")
	}
	return absolutize(projectPath, p.SpotsPath)
}

// GetNucleiPath returns the absolute path to the nucleus CSV.
func (p *File) GetNucleiPath(projectPath string) string {
	if p.NucleiPath == "" {
		return defaultSidecar(projectPath, "_nuclei.csv")
	}
	return absolutize(projectPath, p.NucleiPath)
}

// GetOverlayPath returns the absolute path to the overlay image.
func (p *File) GetOverlayPath(projectPath string) string {
	if p.OverlayPath == "" {
		return defaultSidecar(projectPath, "_overlay.png")
	}
	return absolutize(projectPath, p.OverlayPath)
}

func relativize(projectPath, path string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), path)
	if err != nil {
		return path
	}
	return rel
}

func absolutize(projectPath, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(projectPath), path)
}

func defaultSidecar(projectPath, suffix string) string {
	base := projectPath[:len(projectPath)-len(filepath.Ext(projectPath))]
	return base + suffix
}
