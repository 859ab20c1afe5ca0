package spectrum

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// Display range bounds. Zoom and explicit range changes are rejected
// when the resulting span would leave [MinSpanNm, MaxSpanNm].
const (
	MinSpanNm = 100.0
	MaxSpanNm = 2000.0
)

const (
	zoomStep         = 1.1
	peakSearchRadius = 10
	peakMinHeight    = 0.05
)

// ErrInvalidRange is returned for rejected view transitions. The view
// state is unchanged when it is returned.
var ErrInvalidRange = errors.New("spectrum: invalid display range")

// PeakInfo is the result of a nearest-peak query.
type PeakInfo struct {
	Index        int
	WavelengthNm float64
	Intensity    float64
	IsPeak       bool
}

// HoverInfo is the spectrum sample under a cursor position.
type HoverInfo struct {
	Index              int
	WavelengthNm       float64
	RawIntensity       float64
	CorrectedIntensity float64
	OK                 bool
}

// ViewState holds the interactive display state: the visible wavelength
// window, axis direction, overlay flags and cursor queries. Transitions
// are atomic; rejected inputs leave the state untouched. Callers must
// serialize access (the pipeline owns a ViewState behind its lock).
type ViewState struct {
	cal                  *Calibrator
	displayRange         models.DisplayRange
	reversed             bool
	showCalibrationLines bool
	mouseX               *int
	baseX                int
}

// NewViewState creates a view over the calibrator's sensor range,
// capped at MaxSpanNm.
func NewViewState(cal *Calibrator) *ViewState {
	v := &ViewState{cal: cal, showCalibrationLines: true}
	v.ResetDisplayRange()
	return v
}

// ResetDisplayRange snaps the visible window back to the sensor range.
func (v *ViewState) ResetDisplayRange() {
	sr := v.cal.SensorRange()
	end := math.Min(sr.EndNm, sr.StartNm+MaxSpanNm)
	v.displayRange = models.DisplayRange{StartNm: sr.StartNm, EndNm: end}
}

// DisplayRange returns the visible wavelength window.
func (v *ViewState) DisplayRange() models.DisplayRange {
	return v.displayRange
}

// Reversed reports whether the wavelength axis is drawn reversed.
func (v *ViewState) Reversed() bool {
	return v.reversed
}

// SetReversed flips the wavelength axis direction.
func (v *ViewState) SetReversed(reversed bool) {
	v.reversed = reversed
}

// ShowCalibrationLines reports whether calibration overlays are drawn.
func (v *ViewState) ShowCalibrationLines() bool {
	return v.showCalibrationLines
}

// SetShowCalibrationLines toggles calibration overlays.
func (v *ViewState) SetShowCalibrationLines(show bool) {
	v.showCalibrationLines = show
}

// SetMousePosition records the cursor column in view pixels.
func (v *ViewState) SetMousePosition(x int) {
	v.mouseX = &x
}

// ClearMousePosition forgets the cursor, e.g. when it leaves the plot.
func (v *ViewState) ClearMousePosition() {
	v.mouseX = nil
}

// MousePosition returns the recorded cursor column, if any.
func (v *ViewState) MousePosition() (int, bool) {
	if v.mouseX == nil {
		return 0, false
	}
	return *v.mouseX, true
}

// SetBaseX records the sensor column of spectrum index 0, i.e. the
// active ROI start.
func (v *ViewState) SetBaseX(x int) {
	v.baseX = x
}

// UpdateDisplayRange sets the visible window explicitly. Both bounds
// are clamped into the sensor range; the request is rejected when the
// bounds are not an increasing finite pair or the clamped span falls
// below MinSpanNm.
func (v *ViewState) UpdateDisplayRange(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || start >= end {
		log.Debug().Float64("start", start).Float64("end", end).Msg("Rejected display range")
		return ErrInvalidRange
	}

	sr := v.cal.SensorRange()
	start = clamp(start, sr.StartNm, sr.EndNm)
	end = clamp(end, sr.StartNm, sr.EndNm)
	if end-start < MinSpanNm {
		log.Debug().Float64("start", start).Float64("end", end).Msg("Rejected display range: span below minimum")
		return ErrInvalidRange
	}

	v.displayRange = models.DisplayRange{StartNm: start, EndNm: end}
	return nil
}

// HandleZoom scales the visible span about the wavelength under the
// cursor, keeping that wavelength at the same fractional position.
// Positive scroll deltas zoom out by zoomStep, negative zoom in by its
// reciprocal. The request is rejected when the new span leaves
// [MinSpanNm, MaxSpanNm] or the view width is not positive.
func (v *ViewState) HandleZoom(cursorX, viewWidth int, scrollDelta float64) error {
	if viewWidth <= 0 || math.IsNaN(scrollDelta) {
		return ErrInvalidRange
	}
	if scrollDelta == 0 {
		return nil
	}

	factor := zoomStep
	if scrollDelta < 0 {
		factor = 1 / zoomStep
	}

	span := v.displayRange.Span()
	newSpan := span * factor
	if newSpan < MinSpanNm || newSpan > MaxSpanNm {
		log.Debug().Float64("span", newSpan).Msg("Rejected zoom: span outside bounds")
		return ErrInvalidRange
	}

	f := v.cursorFraction(cursorX, viewWidth)
	anchor := v.displayRange.StartNm + f*span

	newStart := anchor - f*newSpan
	newEnd := newStart + newSpan

	sr := v.cal.SensorRange()
	if newStart < sr.StartNm {
		newEnd += sr.StartNm - newStart
		newStart = sr.StartNm
	}
	if newEnd > sr.EndNm {
		newStart -= newEnd - sr.EndNm
		newEnd = sr.EndNm
	}
	if newStart < sr.StartNm {
		newStart = sr.StartNm
	}

	if newEnd-newStart < MinSpanNm {
		log.Debug().Float64("span", newEnd-newStart).Msg("Rejected zoom: clamped span below minimum")
		return ErrInvalidRange
	}

	v.displayRange = models.DisplayRange{StartNm: newStart, EndNm: newEnd}
	return nil
}

// FindNearestPeak scans a fixed window of peakSearchRadius indices
// around the cursor. An index qualifies as a peak only when it is
// strictly greater than both of its two neighbors on each side and
// exceeds peakMinHeight. The highest qualifying candidate wins; when
// none qualifies the sample under the cursor is returned as-is with
// IsPeak false. Both the search and the fallback read the corrected
// series, since that is what renderers display.
func (v *ViewState) FindNearestPeak(cursorX, viewWidth int, frame *models.SpectralFrame) PeakInfo {
	if frame == nil || len(frame.Corrected) == 0 || viewWidth <= 0 {
		return PeakInfo{}
	}
	data := frame.Corrected
	center := v.cursorIndex(cursorX, viewWidth)

	best := -1
	for i := center - peakSearchRadius; i <= center+peakSearchRadius; i++ {
		if i < 2 || i > len(data)-3 {
			continue
		}
		if data[i] <= peakMinHeight {
			continue
		}
		if data[i] > data[i-1] && data[i] > data[i-2] && data[i] > data[i+1] && data[i] > data[i+2] {
			if best < 0 || data[i] > data[best] {
				best = i
			}
		}
	}

	if best >= 0 {
		return PeakInfo{
			Index:        best,
			WavelengthNm: v.cal.PixelToWavelength(float64(best + v.baseX)),
			Intensity:    data[best],
			IsPeak:       true,
		}
	}
	if center < 0 || center >= len(data) {
		return PeakInfo{}
	}
	return PeakInfo{
		Index:        center,
		WavelengthNm: v.cal.PixelToWavelength(float64(center + v.baseX)),
		Intensity:    data[center],
	}
}

// HoverInfo maps the cursor to a wavelength and the nearest spectrum
// index and returns the sample there. Out-of-bounds cursors yield the
// zero value with OK false.
func (v *ViewState) HoverInfo(cursorX, viewWidth int, frame *models.SpectralFrame) HoverInfo {
	if frame == nil || len(frame.Raw) == 0 || viewWidth <= 0 {
		return HoverInfo{}
	}
	wavelength := v.cursorWavelength(cursorX, viewWidth)
	idx := v.cal.WavelengthToPixel(wavelength) - v.baseX
	if idx < 0 || idx >= len(frame.Raw) || idx >= len(frame.Corrected) {
		return HoverInfo{}
	}
	return HoverInfo{
		Index:              idx,
		WavelengthNm:       wavelength,
		RawIntensity:       frame.Raw[idx],
		CorrectedIntensity: frame.Corrected[idx],
		OK:                 true,
	}
}

// cursorFraction maps a view pixel to its fractional position along
// the wavelength axis, respecting the reversed flag.
func (v *ViewState) cursorFraction(cursorX, viewWidth int) float64 {
	f := clamp(float64(cursorX)/float64(viewWidth), 0, 1)
	if v.reversed {
		f = 1 - f
	}
	return f
}

func (v *ViewState) cursorWavelength(cursorX, viewWidth int) float64 {
	return v.displayRange.StartNm + v.cursorFraction(cursorX, viewWidth)*v.displayRange.Span()
}

func (v *ViewState) cursorIndex(cursorX, viewWidth int) int {
	return v.cal.WavelengthToPixel(v.cursorWavelength(cursorX, viewWidth)) - v.baseX
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
