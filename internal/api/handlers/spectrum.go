package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/aUsernamePNG/WebSpectrometer/internal/export"
	"github.com/aUsernamePNG/WebSpectrometer/internal/pipeline"
	"github.com/aUsernamePNG/WebSpectrometer/internal/spectrum"
	"github.com/aUsernamePNG/WebSpectrometer/internal/storage"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// downloadURLExpiry matches the artifact store's pre-signed URL expiry.
const downloadURLExpiry = 24 * time.Hour

// SpectrumHandler handles spectrum and view-state HTTP requests
type SpectrumHandler struct {
	pipe  *pipeline.Pipeline
	store storage.ArtifactStore
}

// NewSpectrumHandler creates a new spectrum handler
func NewSpectrumHandler(pipe *pipeline.Pipeline, store storage.ArtifactStore) *SpectrumHandler {
	return &SpectrumHandler{
		pipe:  pipe,
		store: store,
	}
}

// GetSpectrum returns the full renderer-facing pipeline snapshot
func (h *SpectrumHandler) GetSpectrum(ctx context.Context, req *struct{}) (*models.GetSpectrumResponse, error) {
	snap := h.pipe.Snapshot()

	return &models.GetSpectrumResponse{
		Body: models.GetSpectrumResponseBody{
			SensorRange:          snap.SensorRange,
			DisplayRange:         snap.DisplayRange,
			Calibration:          snap.Calibration,
			ROI:                  snap.ROI,
			Reversed:             snap.Reversed,
			ShowCalibrationLines: snap.ShowCalibrationLines,
			Paused:               snap.Paused,
			QEProfile:            string(snap.ProfileKind),
			Wavelengths:          snap.Wavelengths,
			Raw:                  snap.Raw,
			Corrected:            snap.Corrected,
		},
	}, nil
}

// SetCalibration replaces the two-point wavelength calibration
func (h *SpectrumHandler) SetCalibration(ctx context.Context, req *models.SetCalibrationRequest) (*models.SetCalibrationResponse, error) {
	log.Info().
		Int("p1Pixel", req.Body.P1.Pixel).Float64("p1Wavelength", req.Body.P1.WavelengthNm).
		Int("p2Pixel", req.Body.P2.Pixel).Float64("p2Wavelength", req.Body.P2.WavelengthNm).
		Msg("Calibration update request received")

	sensorRange, err := h.pipe.SetCalibration(req.Body.P1, req.Body.P2)
	if err != nil {
		return nil, huma.Error400BadRequest("Calibration points must be two distinct on-sensor pixels with finite wavelengths", err)
	}

	resp := &models.SetCalibrationResponse{}
	resp.Body.SensorRange = sensorRange
	return resp, nil
}

// SetDisplayRange sets the visible wavelength window explicitly
func (h *SpectrumHandler) SetDisplayRange(ctx context.Context, req *models.SetDisplayRangeRequest) (*models.DisplayRangeResponse, error) {
	rng, err := h.pipe.UpdateDisplayRange(req.Body.StartNm, req.Body.EndNm)
	if err != nil {
		return nil, huma.Error400BadRequest("Display range rejected", err)
	}
	return &models.DisplayRangeResponse{Body: rng}, nil
}

// Zoom applies a scroll-wheel zoom about the cursor position. A zoom
// that would leave the allowed span stays at the current range rather
// than failing the request.
func (h *SpectrumHandler) Zoom(ctx context.Context, req *models.ZoomRequest) (*models.DisplayRangeResponse, error) {
	rng, err := h.pipe.Zoom(req.Body.CursorX, req.Body.ViewWidth, req.Body.ScrollDelta)
	if err != nil && !errors.Is(err, spectrum.ErrInvalidRange) {
		return nil, huma.Error400BadRequest("Zoom rejected", err)
	}
	return &models.DisplayRangeResponse{Body: rng}, nil
}

// Hover returns the spectrum values under a cursor position
func (h *SpectrumHandler) Hover(ctx context.Context, req *models.HoverRequest) (*models.HoverResponse, error) {
	info := h.pipe.Hover(req.CursorX, req.ViewWidth)

	return &models.HoverResponse{
		Body: models.HoverResponseBody{
			WavelengthNm:       info.WavelengthNm,
			RawIntensity:       info.RawIntensity,
			CorrectedIntensity: info.CorrectedIntensity,
			Index:              info.Index,
			OK:                 info.OK,
		},
	}, nil
}

// NearestPeak returns the closest qualifying peak to the cursor
func (h *SpectrumHandler) NearestPeak(ctx context.Context, req *models.PeakRequest) (*models.PeakResponse, error) {
	peak := h.pipe.NearestPeak(req.CursorX, req.ViewWidth)

	return &models.PeakResponse{
		Body: models.PeakResponseBody{
			Index:        peak.Index,
			WavelengthNm: peak.WavelengthNm,
			Intensity:    peak.Intensity,
			IsPeak:       peak.IsPeak,
		},
	}, nil
}

// SetReversed flips the wavelength axis direction
func (h *SpectrumHandler) SetReversed(ctx context.Context, req *models.SetReversedRequest) (*models.ViewFlagsResponse, error) {
	h.pipe.SetReversed(req.Body.Reversed)
	return h.viewFlags(), nil
}

// SetCalibrationLines toggles the calibration line overlays
func (h *SpectrumHandler) SetCalibrationLines(ctx context.Context, req *models.SetCalibrationLinesRequest) (*models.ViewFlagsResponse, error) {
	h.pipe.SetShowCalibrationLines(req.Body.Show)
	return h.viewFlags(), nil
}

func (h *SpectrumHandler) viewFlags() *models.ViewFlagsResponse {
	snap := h.pipe.Snapshot()
	resp := &models.ViewFlagsResponse{}
	resp.Body.Reversed = snap.Reversed
	resp.Body.ShowCalibrationLines = snap.ShowCalibrationLines
	return resp
}

// SetROI replaces the extraction region
func (h *SpectrumHandler) SetROI(ctx context.Context, req *models.SetROIRequest) (*models.MessageResponse, error) {
	if err := h.pipe.SetROI(req.Body); err != nil {
		return nil, huma.Error400BadRequest("Region must span at least one column and one row", err)
	}

	log.Info().
		Int("startX", req.Body.StartX).Int("stopX", req.Body.StopX).
		Int("startY", req.Body.StartY).Int("stopY", req.Body.StopY).
		Msg("Extraction region updated")

	resp := &models.MessageResponse{}
	resp.Body.Message = "Region updated"
	return resp, nil
}

// SetQEProfile selects the active quantum-efficiency profile
func (h *SpectrumHandler) SetQEProfile(ctx context.Context, req *models.SetQEProfileRequest) (*models.MessageResponse, error) {
	var profile spectrum.Profile
	switch spectrum.ProfileKind(req.Body.Kind) {
	case spectrum.ProfileNone:
		profile = spectrum.NoneProfile()
	case spectrum.ProfileGenerated:
		profile = spectrum.GeneratedProfile()
	case spectrum.ProfileCustom:
		var err error
		profile, err = spectrum.CustomProfile(req.Body.Points)
		if err != nil {
			return nil, huma.Error400BadRequest("Custom profile needs at least two points with strictly increasing wavelengths", err)
		}
	default:
		return nil, huma.Error400BadRequest(fmt.Sprintf("Unknown profile kind %q", req.Body.Kind), nil)
	}

	h.pipe.SetProfile(profile)
	log.Info().Str("kind", req.Body.Kind).Int("points", len(profile.Points)).Msg("QE profile updated")

	resp := &models.MessageResponse{}
	resp.Body.Message = "Profile updated"
	return resp, nil
}

// Pause halts live extraction
func (h *SpectrumHandler) Pause(ctx context.Context, req *struct{}) (*models.PauseResponse, error) {
	h.pipe.Pause()
	resp := &models.PauseResponse{}
	resp.Body.Paused = true
	return resp, nil
}

// Resume re-enables live extraction
func (h *SpectrumHandler) Resume(ctx context.Context, req *struct{}) (*models.PauseResponse, error) {
	h.pipe.Resume()
	resp := &models.PauseResponse{}
	resp.Body.Paused = false
	return resp, nil
}

// UploadImage runs a single pipeline pass over an uploaded PNG or JPEG
// and returns the resulting snapshot. Live capture is paused so the
// result stays current.
func (h *SpectrumHandler) UploadImage(ctx context.Context, req *models.UploadImageRequest) (*models.GetSpectrumResponse, error) {
	frame, err := pipeline.DecodeImage(req.Body.Data)
	if err != nil {
		return nil, huma.Error400BadRequest("Image must be a valid PNG or JPEG", err)
	}

	if err := h.pipe.ProcessImage(frame); err != nil {
		return nil, huma.Error400BadRequest("Image could not be processed", err)
	}

	log.Info().Int("width", frame.Width).Int("height", frame.Height).Msg("Uploaded image processed")
	return h.GetSpectrum(ctx, &struct{}{})
}

// ExportSpectrum serializes the current spectrum to CSV, stores it and
// returns a pre-signed download URL
func (h *SpectrumHandler) ExportSpectrum(ctx context.Context, req *struct{}) (*models.ExportResponse, error) {
	snap := h.pipe.Snapshot()

	frame := &models.SpectralFrame{Raw: snap.Raw, Corrected: snap.Corrected}
	data, err := export.SpectrumCSV(frame, snap.Wavelengths)
	if err != nil {
		if errors.Is(err, export.ErrNoData) {
			return nil, huma.Error409Conflict("No spectrum data to export", err)
		}
		return nil, huma.Error500InternalServerError("Failed to serialize spectrum", err)
	}

	filename := export.SpectrumFilename(time.Now())
	key := fmt.Sprintf("exports/%s", filename)
	if err := h.store.Upload(ctx, key, "text/csv", data); err != nil {
		return nil, huma.Error500InternalServerError("Failed to store export", err)
	}

	url, err := h.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate download URL", err)
	}

	log.Info().Str("key", key).Int("rows", len(snap.Raw)).Msg("Spectrum exported")
	return &models.ExportResponse{
		Body: models.ExportResponseBody{
			Filename: filename,
			Key:      key,
			URL:      url,
		},
	}, nil
}
