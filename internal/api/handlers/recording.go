package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aUsernamePNG/WebSpectrometer/internal/config"
	"github.com/aUsernamePNG/WebSpectrometer/internal/export"
	"github.com/aUsernamePNG/WebSpectrometer/internal/recording"
	"github.com/aUsernamePNG/WebSpectrometer/internal/repository"
	"github.com/aUsernamePNG/WebSpectrometer/internal/storage"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// sessionListLimit caps the session listing endpoint.
const sessionListLimit = 50

// RecordingHandler handles recording-session HTTP requests
type RecordingHandler struct {
	recorder *recording.Recorder
	repo     repository.SessionRepository
	store    storage.ArtifactStore
	defaults config.RecordingConfig
}

// NewRecordingHandler creates a new recording handler
func NewRecordingHandler(recorder *recording.Recorder, repo repository.SessionRepository, store storage.ArtifactStore, defaults config.RecordingConfig) *RecordingHandler {
	return &RecordingHandler{
		recorder: recorder,
		repo:     repo,
		store:    store,
		defaults: defaults,
	}
}

// StartRecording begins a timed recording session
func (h *RecordingHandler) StartRecording(ctx context.Context, req *models.StartRecordingRequest) (*models.StartRecordingResponse, error) {
	intervalMs := req.Body.IntervalMs
	if intervalMs <= 0 {
		intervalMs = int(h.defaults.IntervalSeconds * 1000)
	}
	captureRaw := h.defaults.CaptureRawVideo
	if req.Body.CaptureRaw != nil {
		captureRaw = *req.Body.CaptureRaw
	}

	log.Info().Int("intervalMs", intervalMs).Bool("captureRaw", captureRaw).Msg("Recording start request received")

	session, err := h.recorder.Start(ctx, intervalMs, captureRaw)
	if err != nil {
		switch {
		case errors.Is(err, recording.ErrAlreadyRecording):
			return nil, huma.Error409Conflict("A recording session is already active", err)
		case errors.Is(err, recording.ErrNotReady):
			return nil, huma.Error409Conflict("No spectrum data available to record", err)
		default:
			return nil, huma.Error500InternalServerError("Failed to start recording", err)
		}
	}

	resp := &models.StartRecordingResponse{}
	resp.Body.SessionID = session.ID
	resp.Body.StartedAt = session.StartedAt
	return resp, nil
}

// StopRecording halts the active session and returns the finalized
// record including its artifact keys
func (h *RecordingHandler) StopRecording(ctx context.Context, req *struct{}) (*models.StopRecordingResponse, error) {
	session, err := h.recorder.Stop(ctx)
	if err != nil {
		switch {
		case errors.Is(err, recording.ErrNotRecording):
			return nil, huma.Error409Conflict("No recording session is active", err)
		case errors.Is(err, export.ErrNoData):
			return nil, huma.Error409Conflict("Recording captured no frames", err)
		default:
			return nil, huma.Error500InternalServerError("Failed to stop recording", err)
		}
	}

	return &models.StopRecordingResponse{Body: *session}, nil
}

// ListSessions lists the most recent recording sessions
func (h *RecordingHandler) ListSessions(ctx context.Context, req *struct{}) (*models.ListSessionsResponse, error) {
	sessions, err := h.repo.List(ctx, sessionListLimit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list sessions", err)
	}

	resp := &models.ListSessionsResponse{}
	resp.Body.Sessions = make([]models.RecordingSession, 0, len(sessions))
	for _, s := range sessions {
		resp.Body.Sessions = append(resp.Body.Sessions, *s)
	}
	return resp, nil
}

// GetSession fetches one recording session by ID
func (h *RecordingHandler) GetSession(ctx context.Context, req *models.GetSessionRequest) (*models.GetSessionResponse, error) {
	sessionID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid session ID", err)
	}

	session, err := h.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, huma.Error404NotFound("Session not found", err)
	}

	return &models.GetSessionResponse{Body: *session}, nil
}

// GetSessionDownload returns a pre-signed URL for a session's CSV
func (h *RecordingHandler) GetSessionDownload(ctx context.Context, req *models.GetSessionRequest) (*models.SessionDownloadResponse, error) {
	sessionID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid session ID", err)
	}

	session, err := h.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, huma.Error404NotFound("Session not found", err)
	}
	if session.CSVKey == nil {
		return nil, huma.Error409Conflict("Session has no stored CSV", nil)
	}

	url, err := h.store.GenerateDownloadURL(ctx, *session.CSVKey)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate download URL", err)
	}

	resp := &models.SessionDownloadResponse{}
	resp.Body.URL = url
	resp.Body.ExpiresIn = int(downloadURLExpiry.Seconds())
	return resp, nil
}
