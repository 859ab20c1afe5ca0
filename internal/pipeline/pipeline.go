package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aUsernamePNG/WebSpectrometer/internal/spectrum"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// ErrDeviceUnavailable is returned when the frame source cannot
// deliver. The pipeline pauses and stays paused until an explicit
// Resume.
var ErrDeviceUnavailable = errors.New("pipeline: device unavailable")

// FrameSource supplies one raw pixel buffer per call. Continuous
// sources (cameras) return a fresh frame each tick; single-shot
// sources return the same decoded image.
type FrameSource interface {
	GetFrame(ctx context.Context) (*models.Frame, error)
}

// Snapshot is the full pipeline state handed to renderers. All slices
// are replaced wholesale per tick and safe to hold across ticks.
type Snapshot struct {
	SensorRange          models.SensorRange
	DisplayRange         models.DisplayRange
	Calibration          models.Calibration
	ROI                  models.ROI
	Reversed             bool
	ShowCalibrationLines bool
	Paused               bool
	ProfileKind          spectrum.ProfileKind
	Wavelengths          []float64
	Raw                  []float64
	Corrected            []float64
}

// Pipeline owns the spectral transform state: calibrator, view state,
// QE profile, ROI and the most recent spectral frame. Every mutation
// and read goes through its mutex, which realizes the single-writer
// rule for parallel callers (HTTP handlers, the capture loop and the
// recording sampler).
type Pipeline struct {
	mu      sync.Mutex
	source  FrameSource
	cal     *spectrum.Calibrator
	view    *spectrum.ViewState
	profile spectrum.Profile
	roi     models.ROI
	frame   *models.SpectralFrame
	paused  bool
}

// New wires a pipeline around a frame source. The source may be nil
// for image-only operation.
func New(source FrameSource, cal *spectrum.Calibrator, roi models.ROI, profile spectrum.Profile) *Pipeline {
	view := spectrum.NewViewState(cal)
	view.SetBaseX(roi.StartX)
	return &Pipeline{
		source:  source,
		cal:     cal,
		view:    view,
		profile: profile,
		roi:     roi,
	}
}

// Tick runs one acquire-extract-correct pass and replaces the current
// spectral frame. A degenerate ROI yields an empty frame, not an
// error. A source failure pauses the pipeline and surfaces as
// ErrDeviceUnavailable.
func (p *Pipeline) Tick(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return nil
	}
	if p.source == nil {
		return ErrDeviceUnavailable
	}

	frame, err := p.source.GetFrame(ctx)
	if err != nil {
		p.paused = true
		log.Error().Err(err).Msg("Frame source failed, pausing pipeline")
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	p.process(frame)
	return nil
}

// Run drives Tick at the given cadence until the context is canceled.
// Ticks are synchronous; a slow tick simply delays the next one, so
// frames are dropped rather than queued.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				log.Warn().Err(err).Msg("Pipeline tick failed")
			}
		}
	}
}

// ProcessImage runs a single pass over an uploaded image. Live capture
// is paused so the result stays on screen.
func (p *Pipeline) ProcessImage(frame *models.Frame) error {
	if frame == nil {
		return spectrum.ErrEmptyRegion
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.paused = true
	p.process(frame)
	return nil
}

// process extracts and corrects under the lock held by the caller.
func (p *Pipeline) process(frame *models.Frame) {
	raw, err := spectrum.Extract(frame, p.roi)
	if err != nil {
		// Degenerate region: downstream treats the empty frame as
		// "no data".
		log.Debug().Err(err).Msg("Extraction yielded no data")
		p.frame = &models.SpectralFrame{}
		return
	}

	corrected := make([]float64, len(raw))
	for i, v := range raw {
		w := p.cal.PixelToWavelength(float64(p.roi.StartX + i))
		corrected[i] = p.profile.Correct(w, v)
	}

	p.frame = &models.SpectralFrame{Raw: raw, Corrected: corrected}
}

// Pause halts extraction ticks. The last frame and view state stay
// available for hover, zoom and profile changes.
func (p *Pipeline) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume re-enables extraction ticks. This is also the explicit retry
// path after a device failure.
func (p *Pipeline) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

// Paused reports whether extraction is halted.
func (p *Pipeline) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// SetProfile swaps the active QE profile. While paused the last frame
// is recomputed in place, since no new tick will arrive; while running
// the profile applies from the next tick.
func (p *Pipeline) SetProfile(profile spectrum.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.profile = profile
	if !p.paused || p.frame == nil || len(p.frame.Raw) == 0 {
		return
	}

	corrected := make([]float64, len(p.frame.Raw))
	for i, v := range p.frame.Raw {
		w := p.cal.PixelToWavelength(float64(p.roi.StartX + i))
		corrected[i] = profile.Correct(w, v)
	}
	p.frame = &models.SpectralFrame{Raw: p.frame.Raw, Corrected: corrected}
}

// Profile returns the active QE profile.
func (p *Pipeline) Profile() spectrum.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// SetROI replaces the extraction region. The change applies from the
// next tick.
func (p *Pipeline) SetROI(roi models.ROI) error {
	if roi.StopX <= roi.StartX || roi.StopY <= roi.StartY {
		return spectrum.ErrEmptyRegion
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.roi = roi
	p.view.SetBaseX(roi.StartX)
	return nil
}

// SetCalibration replaces the wavelength calibration and snaps the
// display range back onto the new sensor range.
func (p *Pipeline) SetCalibration(p1, p2 models.CalibrationPoint) (models.SensorRange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.cal.SetCalibration(p1, p2); err != nil {
		return models.SensorRange{}, err
	}
	p.view.ResetDisplayRange()
	return p.cal.SensorRange(), nil
}

// CurrentFrame returns the most recent spectral frame and whether it
// carries data.
func (p *Pipeline) CurrentFrame() (*models.SpectralFrame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame, p.frame != nil && len(p.frame.Raw) > 0
}

// SensorRange returns the wavelength interval under the active
// calibration.
func (p *Pipeline) SensorRange() models.SensorRange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cal.SensorRange()
}

// SourceActive reports whether a frame source is attached.
func (p *Pipeline) SourceActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source != nil
}

// Snapshot assembles the full renderer-facing state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		SensorRange:          p.cal.SensorRange(),
		DisplayRange:         p.view.DisplayRange(),
		Calibration:          p.cal.Calibration(),
		ROI:                  p.roi,
		Reversed:             p.view.Reversed(),
		ShowCalibrationLines: p.view.ShowCalibrationLines(),
		Paused:               p.paused,
		ProfileKind:          p.profile.Kind,
	}
	if p.frame != nil {
		snap.Raw = p.frame.Raw
		snap.Corrected = p.frame.Corrected
		snap.Wavelengths = make([]float64, len(p.frame.Raw))
		for i := range snap.Wavelengths {
			snap.Wavelengths[i] = p.cal.PixelToWavelength(float64(p.roi.StartX + i))
		}
	}
	return snap
}

// UpdateDisplayRange forwards to the view state under the pipeline
// lock.
func (p *Pipeline) UpdateDisplayRange(start, end float64) (models.DisplayRange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.view.UpdateDisplayRange(start, end); err != nil {
		return p.view.DisplayRange(), err
	}
	return p.view.DisplayRange(), nil
}

// Zoom forwards a zoom gesture to the view state under the pipeline
// lock.
func (p *Pipeline) Zoom(cursorX, viewWidth int, scrollDelta float64) (models.DisplayRange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.view.HandleZoom(cursorX, viewWidth, scrollDelta); err != nil {
		return p.view.DisplayRange(), err
	}
	return p.view.DisplayRange(), nil
}

// Hover returns the spectrum sample under a cursor position.
func (p *Pipeline) Hover(cursorX, viewWidth int) spectrum.HoverInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.SetMousePosition(cursorX)
	return p.view.HoverInfo(cursorX, viewWidth, p.frame)
}

// NearestPeak returns the closest qualifying peak to a cursor
// position.
func (p *Pipeline) NearestPeak(cursorX, viewWidth int) spectrum.PeakInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view.FindNearestPeak(cursorX, viewWidth, p.frame)
}

// SetReversed flips the wavelength axis direction.
func (p *Pipeline) SetReversed(reversed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.SetReversed(reversed)
}

// SetShowCalibrationLines toggles calibration overlays.
func (p *Pipeline) SetShowCalibrationLines(show bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.SetShowCalibrationLines(show)
}
