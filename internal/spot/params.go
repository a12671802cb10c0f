package spot

// DiameterFactor converts the detection scale (blob sigma) to an estimated
// spot diameter.
const DiameterFactor = 3.0

// DetectionParams holds spot detection parameters.
type DetectionParams struct {
	// HighPassSigma is the smoothing width of the high-pass pre-filter
	// that removes uneven background before blob detection.
	HighPassSigma float64 `json:"high_pass_sigma"`

	// BlobSigma is the single Laplacian-of-Gaussian detection scale.
	// Spots of radius ~BlobSigma respond most strongly.
	BlobSigma float64 `json:"blob_sigma"`

	// Threshold is the raw cutoff on the LoG response. It is not
	// normalized: smaller values admit more (and noisier) detections.
	Threshold float64 `json:"threshold"`

	// MinSeparation is the minimum center distance between two reported
	// spots, in pixels. Closer pairs collapse to the stronger response.
	// Zero disables deduplication.
	MinSeparation float64 `json:"min_separation"`

	// PixelSizeUM is the physical pixel size in micrometers, when known.
	// Informational unless set through WithPixelSize.
	PixelSizeUM float64 `json:"pixel_size_um,omitempty"`
}

// DefaultParams returns default detection parameters. These are tuned for
// diffraction-limited spots a few pixels across on a high-pass-filtered
// channel.
func DefaultParams() DetectionParams {
	return DetectionParams{
		HighPassSigma: 2,
		BlobSigma:     2,
		Threshold:     0.01,
		MinSeparation: 2,
	}
}

// WithSigmas returns a copy of params with custom filter and detection
// scales.
func (p DetectionParams) WithSigmas(highPass, blob float64) DetectionParams {
	p.HighPassSigma = highPass
	p.BlobSigma = blob
	if p.MinSeparation > 0 {
		p.MinSeparation = blob
	}
	return p
}

// WithThreshold returns a copy of params with a custom response threshold.
func (p DetectionParams) WithThreshold(threshold float64) DetectionParams {
	p.Threshold = threshold
	return p
}

// WithPixelSize returns a copy of params with the detection scale derived
// from a physical spot diameter. spotDiameterUM is the expected spot size in
// micrometers, pixelSizeUM the pixel pitch of the camera.
func (p DetectionParams) WithPixelSize(pixelSizeUM, spotDiameterUM float64) DetectionParams {
	p.PixelSizeUM = pixelSizeUM
	if pixelSizeUM > 0 && spotDiameterUM > 0 {
		diameterPx := spotDiameterUM / pixelSizeUM
		sigma := diameterPx / DiameterFactor
		if sigma < 1 {
			sigma = 1
		}
		p.BlobSigma = sigma
		if p.MinSeparation > 0 {
			p.MinSeparation = sigma
		}
	}
	return p
}
