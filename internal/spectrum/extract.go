package spectrum

import (
	"errors"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// ErrEmptyRegion is returned when the ROI is degenerate or does not
// fit inside the frame.
var ErrEmptyRegion = errors.New("spectrum: empty region")

// bytesPerPixel is the packed RGBA stride of the frame contract.
const bytesPerPixel = 4

// greenOffset selects the green channel within each RGBA pixel. Green
// carries the most luminance weight on Bayer sensors, which matches the
// monochrome response the QE profiles model. The channel is fixed, not
// user-configurable.
const greenOffset = 1

// Extract reduces the ROI of a frame to a per-column intensity profile.
// Each column in [roi.StartX, roi.StopX) is the average of its green
// channel over rows [roi.StartY, roi.StopY), normalized to [0,1]. The
// output length is StopX-StartX. The result is deterministic for
// identical input bytes.
func Extract(frame *models.Frame, roi models.ROI) ([]float64, error) {
	if frame == nil || len(frame.Pixels) < frame.Width*frame.Height*bytesPerPixel {
		return nil, ErrEmptyRegion
	}
	if roi.StopX <= roi.StartX || roi.StopY <= roi.StartY {
		return nil, ErrEmptyRegion
	}
	if roi.StartX < 0 || roi.StopX > frame.Width || roi.StartY < 0 || roi.StopY > frame.Height {
		return nil, ErrEmptyRegion
	}

	cols := roi.StopX - roi.StartX
	rows := roi.StopY - roi.StartY
	out := make([]float64, cols)

	for x := 0; x < cols; x++ {
		var sum uint64
		idx := (roi.StartY*frame.Width + roi.StartX + x) * bytesPerPixel
		for y := 0; y < rows; y++ {
			sum += uint64(frame.Pixels[idx+greenOffset])
			idx += frame.Width * bytesPerPixel
		}
		out[x] = float64(sum) / float64(rows) / 255.0
	}

	return out, nil
}
