// Package image provides microscopy channel loading and calibration
// metadata.
package image

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"spot-mapper/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

// Channel indicates which acquisition channel an image represents.
type Channel int

const (
	ChannelUnknown Channel = iota
	ChannelNuclei          // Nuclear stain (e.g. DAPI)
	ChannelSpots           // Spot signal (e.g. smFISH probes)
)

func (c Channel) String() string {
	switch c {
	case ChannelNuclei:
		return "Nuclei"
	case ChannelSpots:
		return "Spots"
	default:
		return "Unknown"
	}
}

// Layer represents a single loaded channel.
type Layer struct {
	Path        string      // Original file path
	Image       image.Image // Loaded image data
	Channel     Channel     // Which acquisition channel
	PixelSizeUM float64     // Pixel pitch in micrometers (0 if unknown)
	Visible     bool        // Layer visibility in rendered output
	Opacity     float64     // Layer opacity (0.0 - 1.0)
}

// NewLayer creates a new Layer with default settings.
func NewLayer() *Layer {
	return &Layer{
		Visible: true,
		Opacity: 1.0,
	}
}

// Load loads an image from the specified path and returns a Layer.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	layer := NewLayer()
	layer.Path = path
	layer.Image = img

	// Try to extract the pixel size from TIFF resolution metadata
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if um, err := extractTIFFPixelSize(path); err == nil {
			layer.PixelSizeUM = um
		}
	}

	layer.Channel = guessChannelFromFilename(path)
	return layer, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (l *Layer) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(l.Width()),
		Height: float64(l.Height()),
	}
}

// WidthUM returns the image width in micrometers if the pixel size is known.
func (l *Layer) WidthUM() float64 {
	if l.PixelSizeUM == 0 {
		return 0
	}
	return float64(l.Width()) * l.PixelSizeUM
}

// HeightUM returns the image height in micrometers if the pixel size is known.
func (l *Layer) HeightUM() float64 {
	if l.PixelSizeUM == 0 {
		return 0
	}
	return float64(l.Height()) * l.PixelSizeUM
}

// guessChannelFromFilename attempts to determine the channel from the
// filename.
func guessChannelFromFilename(path string) Channel {
	base := strings.ToLower(filepath.Base(path))

	nucleiKeywords := []string{"nuclei", "nucleus", "dapi", "hoechst"}
	for _, kw := range nucleiKeywords {
		if strings.Contains(base, kw) {
			return ChannelNuclei
		}
	}

	spotKeywords := []string{"spot", "fish", "smfish", "probe"}
	for _, kw := range spotKeywords {
		if strings.Contains(base, kw) {
			return ChannelSpots
		}
	}

	return ChannelUnknown
}

// extractTIFFPixelSize reads the TIFF resolution tags and converts them to
// a pixel pitch in micrometers.
func extractTIFFPixelSize(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	// Read TIFF header to determine byte order
	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // Default to inches

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 { // RATIONAL
				xRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 { // RATIONAL
				yRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 { // SHORT
				// Inline SHORT values occupy the first two bytes of the
				// value field regardless of byte order.
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	if xRes == 0 && yRes == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}

	// Use X resolution (or Y if X is 0); resolution is pixels per unit.
	res := xRes
	if res == 0 {
		res = yRes
	}
	if res == 0 {
		return 0, fmt.Errorf("resolution is zero")
	}

	// Convert pixels-per-unit to micrometers-per-pixel.
	switch resUnit {
	case 3: // pixels per centimeter
		return 10000.0 / res, nil
	default: // pixels per inch
		return 25400.0 / res, nil
	}
}

// readTIFFRational reads a RATIONAL value (two uint32s) from a TIFF file.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1) // Save current position
	defer file.Seek(currentPos, 0)   // Restore position

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
