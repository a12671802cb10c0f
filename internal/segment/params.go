package segment

// Params holds nucleus segmentation parameters.
type Params struct {
	// DiameterUM is the expected nucleus diameter in micrometers. It is
	// the single knob a user normally estimates from the image.
	DiameterUM float64 `json:"diameter_um"`

	// PixelSizeUM is the pixel pitch in micrometers.
	PixelSizeUM float64 `json:"pixel_size_um"`

	// DiameterPixels is derived from the two values above (or set
	// directly when no physical calibration is available).
	DiameterPixels int `json:"diameter_pixels"`

	// PeakRatio controls marker extraction: distance-transform values of
	// at least PeakRatio x the maximum become watershed seeds. Lower
	// values split touching nuclei more aggressively.
	PeakRatio float64 `json:"peak_ratio"`

	// MinAreaPixels drops labeled fragments smaller than this after
	// watershed. Zero derives it from the expected diameter.
	MinAreaPixels int `json:"min_area_pixels"`
}

// DefaultParams returns segmentation defaults tuned for DAPI-stained nuclei
// at typical widefield magnification.
func DefaultParams() Params {
	return Params{
		DiameterUM:     15,
		DiameterPixels: 30,
		PeakRatio:      0.4,
	}
}

// WithPixelSize returns a copy of params with pixel sizes calculated from
// the physical calibration.
func (p Params) WithPixelSize(pixelSizeUM float64) Params {
	p.PixelSizeUM = pixelSizeUM
	if pixelSizeUM > 0 && p.DiameterUM > 0 {
		p.DiameterPixels = int(p.DiameterUM / pixelSizeUM)
		if p.DiameterPixels < 5 {
			p.DiameterPixels = 5
		}
	}
	return p
}

// WithDiameter returns a copy of params with a custom expected nucleus
// diameter in micrometers.
func (p Params) WithDiameter(diameterUM float64) Params {
	p.DiameterUM = diameterUM
	if p.PixelSizeUM > 0 {
		return p.WithPixelSize(p.PixelSizeUM)
	}
	return p
}

// minArea returns the fragment-size floor, deriving it from the expected
// nucleus area when unset.
func (p Params) minArea() int {
	if p.MinAreaPixels > 0 {
		return p.MinAreaPixels
	}
	r := float64(p.DiameterPixels) / 2
	return int(3.14159 * r * r / 4)
}
