package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aUsernamePNG/WebSpectrometer/internal/spectrum"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// failingSource always reports a device failure.
type failingSource struct{}

func (failingSource) GetFrame(ctx context.Context) (*models.Frame, error) {
	return nil, errors.New("camera disconnected")
}

func testCalibrator(t *testing.T) *spectrum.Calibrator {
	t.Helper()
	cal, err := spectrum.NewCalibrator(
		models.CalibrationPoint{Pixel: 1623, WavelengthNm: 405.4},
		models.CalibrationPoint{Pixel: 1238, WavelengthNm: 611.6},
	)
	require.NoError(t, err)
	return cal
}

func fullWidthROI() models.ROI {
	return models.ROI{StartX: 0, StopX: 1920, StartY: 8, StopY: 56}
}

func TestTickProducesSpectrum(t *testing.T) {
	source := NewSyntheticSource(1920, 64)
	p := New(source, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())

	require.NoError(t, p.Tick(context.Background()))

	frame, ok := p.CurrentFrame()
	require.True(t, ok)
	require.Len(t, frame.Raw, 1920)
	require.Len(t, frame.Corrected, 1920)

	// The synthetic mercury line sits at column 1623.
	assert.Greater(t, frame.Raw[1623], 0.9)
	assert.Less(t, frame.Raw[100], 0.05)

	// Identity profile: corrected equals raw.
	assert.Equal(t, frame.Raw, frame.Corrected)
}

func TestTickReplacesFrameWholesale(t *testing.T) {
	source := NewSyntheticSource(640, 32)
	p := New(source, testCalibrator(t), models.ROI{StartX: 0, StopX: 640, StartY: 0, StopY: 32}, spectrum.NoneProfile())

	require.NoError(t, p.Tick(context.Background()))
	first, ok := p.CurrentFrame()
	require.True(t, ok)

	require.NoError(t, p.Tick(context.Background()))
	second, ok := p.CurrentFrame()
	require.True(t, ok)

	// A reader holding the old frame keeps a consistent snapshot.
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Raw, second.Raw)
}

func TestTickDeviceFailurePausesPipeline(t *testing.T) {
	p := New(failingSource{}, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())

	err := p.Tick(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.True(t, p.Paused())

	// Paused ticks are skipped, not retried.
	assert.NoError(t, p.Tick(context.Background()))

	// Explicit retry path.
	p.Resume()
	assert.False(t, p.Paused())
	assert.ErrorIs(t, p.Tick(context.Background()), ErrDeviceUnavailable)
}

func TestTickWithoutSource(t *testing.T) {
	p := New(nil, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())

	assert.ErrorIs(t, p.Tick(context.Background()), ErrDeviceUnavailable)
	assert.False(t, p.SourceActive())
}

func TestOversizedROIYieldsEmptyFrame(t *testing.T) {
	source := NewSyntheticSource(640, 32)
	p := New(source, testCalibrator(t), models.ROI{StartX: 0, StopX: 1920, StartY: 0, StopY: 32}, spectrum.NoneProfile())

	require.NoError(t, p.Tick(context.Background()))

	frame, ok := p.CurrentFrame()
	assert.False(t, ok)
	require.NotNil(t, frame)
	assert.Empty(t, frame.Raw)
}

func TestSetROIRejectsDegenerateRegion(t *testing.T) {
	p := New(nil, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())

	assert.ErrorIs(t, p.SetROI(models.ROI{StartX: 100, StopX: 100, StartY: 0, StopY: 10}), spectrum.ErrEmptyRegion)
	assert.ErrorIs(t, p.SetROI(models.ROI{StartX: 0, StopX: 100, StartY: 50, StopY: 10}), spectrum.ErrEmptyRegion)
	assert.NoError(t, p.SetROI(models.ROI{StartX: 100, StopX: 200, StartY: 0, StopY: 10}))
}

func TestSetProfileWhilePausedRecomputesInPlace(t *testing.T) {
	source := NewSyntheticSource(1920, 64)
	p := New(source, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())
	require.NoError(t, p.Tick(context.Background()))

	p.Pause()
	p.SetProfile(spectrum.GeneratedProfile())

	frame, ok := p.CurrentFrame()
	require.True(t, ok)

	profile := spectrum.GeneratedProfile()
	cal := testCalibrator(t)
	for _, i := range []int{100, 900, 1238, 1623} {
		w := cal.PixelToWavelength(float64(i))
		assert.InDelta(t, profile.Correct(w, frame.Raw[i]), frame.Corrected[i], 1e-9, "index %d", i)
	}
}

func TestSetProfileWhileRunningAppliesNextTick(t *testing.T) {
	source := NewSyntheticSource(1920, 64)
	p := New(source, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())
	require.NoError(t, p.Tick(context.Background()))

	before, ok := p.CurrentFrame()
	require.True(t, ok)

	p.SetProfile(spectrum.GeneratedProfile())

	// Unchanged until the next tick.
	after, _ := p.CurrentFrame()
	assert.Same(t, before, after)

	require.NoError(t, p.Tick(context.Background()))
	next, ok := p.CurrentFrame()
	require.True(t, ok)
	assert.NotEqual(t, next.Raw, next.Corrected)
}

func TestProcessImagePausesLiveCapture(t *testing.T) {
	source := NewSyntheticSource(1920, 64)
	p := New(source, testCalibrator(t), models.ROI{StartX: 0, StopX: 320, StartY: 0, StopY: 24}, spectrum.NoneProfile())

	img := &models.Frame{Width: 320, Height: 24, Pixels: make([]byte, 320*24*bytesPerPixel)}
	for i := range img.Pixels {
		img.Pixels[i] = 128
	}

	require.NoError(t, p.ProcessImage(img))
	assert.True(t, p.Paused())

	frame, ok := p.CurrentFrame()
	require.True(t, ok)
	require.Len(t, frame.Raw, 320)
	assert.InDelta(t, 0.50196, frame.Raw[7], 1e-5)
}

func TestSetCalibrationResetsDisplayRange(t *testing.T) {
	p := New(nil, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())

	_, err := p.UpdateDisplayRange(400, 600)
	require.NoError(t, err)

	sr, err := p.SetCalibration(
		models.CalibrationPoint{Pixel: 0, WavelengthNm: 300},
		models.CalibrationPoint{Pixel: 1919, WavelengthNm: 800},
	)
	require.NoError(t, err)
	assert.InDelta(t, 300, sr.StartNm, 1e-9)
	assert.InDelta(t, 800, sr.EndNm, 1e-9)

	snap := p.Snapshot()
	assert.InDelta(t, 300, snap.DisplayRange.StartNm, 1e-9)
	assert.InDelta(t, 800, snap.DisplayRange.EndNm, 1e-9)
}

func TestSetCalibrationRejectionKeepsState(t *testing.T) {
	p := New(nil, testCalibrator(t), fullWidthROI(), spectrum.NoneProfile())
	before := p.Snapshot()

	_, err := p.SetCalibration(
		models.CalibrationPoint{Pixel: 500, WavelengthNm: 300},
		models.CalibrationPoint{Pixel: 500, WavelengthNm: 800},
	)
	assert.ErrorIs(t, err, spectrum.ErrInvalidCalibration)

	after := p.Snapshot()
	assert.Equal(t, before.Calibration, after.Calibration)
	assert.Equal(t, before.DisplayRange, after.DisplayRange)
}

func TestSnapshotWavelengthAxis(t *testing.T) {
	source := NewSyntheticSource(1920, 64)
	p := New(source, testCalibrator(t), models.ROI{StartX: 100, StopX: 300, StartY: 8, StopY: 56}, spectrum.NoneProfile())
	require.NoError(t, p.Tick(context.Background()))

	snap := p.Snapshot()
	require.Len(t, snap.Wavelengths, 200)

	cal := testCalibrator(t)
	assert.InDelta(t, cal.PixelToWavelength(100), snap.Wavelengths[0], 1e-9)
	assert.InDelta(t, cal.PixelToWavelength(299), snap.Wavelengths[199], 1e-9)
}
