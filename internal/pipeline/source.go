package pipeline

import (
	"context"
	"math"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// bytesPerPixel is the packed RGBA stride of the frame contract.
const bytesPerPixel = 4

// emissionLine is one synthetic spectral line rendered by the
// synthetic source.
type emissionLine struct {
	centerPx  float64
	widthPx   float64
	amplitude float64
}

// SyntheticSource renders a deterministic emission-line frame. It
// stands in for a camera when no device is attached, so the full
// pipeline (and its tests) can run against known spectra.
type SyntheticSource struct {
	width  int
	height int
	lines  []emissionLine
}

// NewSyntheticSource creates a source with a mercury/argon-like line
// set matching the default calibration points.
func NewSyntheticSource(width, height int) *SyntheticSource {
	return &SyntheticSource{
		width:  width,
		height: height,
		lines: []emissionLine{
			{centerPx: 1623, widthPx: 4, amplitude: 0.95}, // Hg 405.4nm
			{centerPx: 1500, widthPx: 4, amplitude: 0.70},
			{centerPx: 1238, widthPx: 4, amplitude: 0.85}, // Ar 611.6nm
			{centerPx: 900, widthPx: 5, amplitude: 0.55},
			{centerPx: 420, widthPx: 6, amplitude: 0.40},
		},
	}
}

// GetFrame renders the line set into a fresh RGBA buffer. Output is
// identical across calls.
func (s *SyntheticSource) GetFrame(ctx context.Context) (*models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pixels := make([]byte, s.width*s.height*bytesPerPixel)
	row := make([]byte, s.width)
	for x := 0; x < s.width; x++ {
		var intensity float64
		for _, line := range s.lines {
			d := float64(x) - line.centerPx
			intensity += line.amplitude * math.Exp(-(d*d)/(2*line.widthPx*line.widthPx))
		}
		if intensity > 1 {
			intensity = 1
		}
		row[x] = byte(math.Round(intensity * 255))
	}

	for y := 0; y < s.height; y++ {
		base := y * s.width * bytesPerPixel
		for x := 0; x < s.width; x++ {
			v := row[x]
			i := base + x*bytesPerPixel
			pixels[i+0] = v
			pixels[i+1] = v
			pixels[i+2] = v
			pixels[i+3] = 255
		}
	}

	return &models.Frame{Width: s.width, Height: s.height, Pixels: pixels}, nil
}

// StaticSource replays a single frame, e.g. a decoded upload.
type StaticSource struct {
	frame *models.Frame
}

// NewStaticSource wraps a fixed frame.
func NewStaticSource(frame *models.Frame) *StaticSource {
	return &StaticSource{frame: frame}
}

// GetFrame returns the wrapped frame, or ErrDeviceUnavailable when
// none was set.
func (s *StaticSource) GetFrame(ctx context.Context) (*models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.frame == nil {
		return nil, ErrDeviceUnavailable
	}
	return s.frame, nil
}
