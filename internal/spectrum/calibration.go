package spectrum

import (
	"errors"
	"math"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// SensorWidth is the pixel width of the supported sensor. Calibration
// points and the sensor range are defined over columns [0, SensorWidth-1].
const SensorWidth = 1920

// ErrInvalidCalibration is returned when the two calibration points
// share a pixel column or carry a non-finite wavelength.
var ErrInvalidCalibration = errors.New("spectrum: invalid calibration")

// Calibrator holds a two-point linear pixel-to-wavelength model.
type Calibrator struct {
	cal models.Calibration
}

// NewCalibrator creates a calibrator from two calibration points.
func NewCalibrator(p1, p2 models.CalibrationPoint) (*Calibrator, error) {
	c := &Calibrator{}
	if err := c.SetCalibration(p1, p2); err != nil {
		return nil, err
	}
	return c, nil
}

// SetCalibration replaces the calibration atomically. On rejection the
// previous calibration is retained.
func (c *Calibrator) SetCalibration(p1, p2 models.CalibrationPoint) error {
	if p1.Pixel == p2.Pixel {
		return ErrInvalidCalibration
	}
	if p1.Pixel < 0 || p1.Pixel >= SensorWidth || p2.Pixel < 0 || p2.Pixel >= SensorWidth {
		return ErrInvalidCalibration
	}
	if !isFinite(p1.WavelengthNm) || !isFinite(p2.WavelengthNm) {
		return ErrInvalidCalibration
	}
	c.cal = models.Calibration{P1: p1, P2: p2}
	return nil
}

// Calibration returns the active calibration points.
func (c *Calibrator) Calibration() models.Calibration {
	return c.cal
}

// Slope returns the wavelength change per pixel. Negative when the
// spectrum runs right to left on the sensor.
func (c *Calibrator) Slope() float64 {
	p1, p2 := c.cal.P1, c.cal.P2
	return (p2.WavelengthNm - p1.WavelengthNm) / float64(p2.Pixel-p1.Pixel)
}

// PixelToWavelength maps a sensor pixel column to a wavelength:
// w = w1 + (pixel - p1) * slope.
func (c *Calibrator) PixelToWavelength(pixel float64) float64 {
	p1 := c.cal.P1
	return p1.WavelengthNm + (pixel-float64(p1.Pixel))*c.Slope()
}

// WavelengthToPixel is the algebraic inverse of PixelToWavelength,
// rounded to the nearest integer pixel.
func (c *Calibrator) WavelengthToPixel(wavelength float64) int {
	p1 := c.cal.P1
	pixel := float64(p1.Pixel) + (wavelength-p1.WavelengthNm)/c.Slope()
	return int(math.Round(pixel))
}

// SensorRange evaluates the model at the first and last pixel columns
// and returns the ordered interval, rounded to one decimal.
func (c *Calibrator) SensorRange() models.SensorRange {
	w0 := c.PixelToWavelength(0)
	w1 := c.PixelToWavelength(SensorWidth - 1)
	return models.SensorRange{
		StartNm: round1(math.Min(w0, w1)),
		EndNm:   round1(math.Max(w0, w1)),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
