package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Register the decoders for the two upload formats the frontend
	// produces.
	_ "image/jpeg"
	_ "image/png"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// DecodeImage converts an uploaded PNG or JPEG into the frame
// contract: packed RGBA, 4 bytes per pixel, row-major.
func DecodeImage(data []byte) (*models.Frame, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	frame := &models.Frame{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}
	if frame.Width == 0 || frame.Height == 0 {
		return nil, fmt.Errorf("decode image: empty %s image", format)
	}
	return frame, nil
}
