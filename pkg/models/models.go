package models

import (
	"time"
)

// Frame is a raw pixel buffer delivered by a frame source or image
// decoder. Pixels is packed RGBA, 4 bytes per pixel, row-major.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// CalibrationPoint ties a sensor pixel column to a known wavelength.
type CalibrationPoint struct {
	Pixel        int     `json:"pixel" minimum:"0" maximum:"1919" doc:"Sensor pixel column"`
	WavelengthNm float64 `json:"wavelength_nm" doc:"Known wavelength in nanometers"`
}

// Calibration is a two-point linear pixel-to-wavelength model.
type Calibration struct {
	P1 CalibrationPoint `json:"p1"`
	P2 CalibrationPoint `json:"p2"`
}

// SensorRange is the wavelength interval covered by the full sensor
// width under the current calibration. StartNm <= EndNm always holds,
// regardless of calibration slope sign.
type SensorRange struct {
	StartNm float64 `json:"start_nm" doc:"Shortest wavelength on the sensor"`
	EndNm   float64 `json:"end_nm" doc:"Longest wavelength on the sensor"`
}

// ROI is the rectangular pixel region averaged into the spectrum.
// Stop bounds are exclusive.
type ROI struct {
	StartX int `json:"start_x" doc:"First column included"`
	StopX  int `json:"stop_x" doc:"Column after the last included"`
	StartY int `json:"start_y" doc:"First row included"`
	StopY  int `json:"stop_y" doc:"Row after the last included"`
}

// SpectralFrame holds one extracted spectrum. Raw and Corrected are
// index-aligned and equal length. A frame is replaced wholesale each
// tick, never mutated in place.
type SpectralFrame struct {
	Raw       []float64 `json:"raw"`
	Corrected []float64 `json:"corrected"`
}

// DisplayRange is the currently visible wavelength window, distinct
// from the sensor range.
type DisplayRange struct {
	StartNm float64 `json:"start_nm"`
	EndNm   float64 `json:"end_nm"`
}

// Span returns the width of the range in nanometers.
func (r DisplayRange) Span() float64 {
	return r.EndNm - r.StartNm
}

// QEPoint is one control point of a quantum-efficiency profile.
type QEPoint struct {
	WavelengthNm float64 `json:"wavelength_nm"`
	Efficiency   float64 `json:"efficiency" minimum:"0" doc:"Multiplicative correction factor"`
}

// RecordedFrame is one time sample of the running spectrum.
type RecordedFrame struct {
	TimestampMs          int64     `json:"timestamp_ms" doc:"Milliseconds since recording start"`
	Wavelengths          []float64 `json:"wavelengths"`
	RawIntensities       []float64 `json:"raw_intensities"`
	CorrectedIntensities []float64 `json:"corrected_intensities"`
}

// RecordingSession is the persisted record of one recording run.
type RecordingSession struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	IntervalMs  int        `json:"interval_ms"`
	FrameCount  int        `json:"frame_count"`
	CSVKey      *string    `json:"csv_key,omitempty"`
	RawVideoKey *string    `json:"raw_video_key,omitempty"`
	ErrorMsg    *string    `json:"error_message,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
