// Package config provides analysis configuration loading from YAML files
// with sensible microscopy defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the analysis configuration loaded from YAML.
type Config struct {
	// Detection parameters for the spot channel.
	Detection struct {
		// HighPassSigma is the Gaussian sigma used for background removal.
		HighPassSigma float64 `yaml:"highPassSigma"`

		// BlobSigma is the Laplacian of Gaussian scale for spot detection.
		BlobSigma float64 `yaml:"blobSigma"`

		// Threshold is the minimum blob response to accept.
		Threshold float64 `yaml:"threshold"`

		// SpotDiameterUM overrides BlobSigma when the pixel size is known.
		SpotDiameterUM float64 `yaml:"spotDiameterUM"`
	} `yaml:"detection"`

	// Segmentation parameters for the nuclei channel.
	Segmentation struct {
		// NucleusDiameterUM is the expected nucleus diameter.
		NucleusDiameterUM float64 `yaml:"nucleusDiameterUM"`

		// PeakRatio scales the distance-transform maximum when picking
		// watershed seeds.
		PeakRatio float64 `yaml:"peakRatio"`
	} `yaml:"segmentation"`

	// Output parameters.
	Output struct {
		// OverlayOpacity blends nucleus tints over the grayscale backdrop.
		OverlayOpacity float64 `yaml:"overlayOpacity"`

		// WriteHistogram enables the response histogram chart.
		WriteHistogram bool `yaml:"writeHistogram"`

		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Detection.HighPassSigma = 2.0
	cfg.Detection.BlobSigma = 2.0
	cfg.Detection.Threshold = 0.01

	cfg.Segmentation.NucleusDiameterUM = 15.0
	cfg.Segmentation.PeakRatio = 0.4

	cfg.Output.OverlayOpacity = 0.45
	cfg.Output.WriteHistogram = true
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file does not
// exist the default configuration is returned.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
