package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aUsernamePNG/WebSpectrometer/internal/export"
	"github.com/aUsernamePNG/WebSpectrometer/internal/repository"
	"github.com/aUsernamePNG/WebSpectrometer/internal/storage"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

var (
	// ErrNotReady is returned when recording is started before a
	// spectral frame exists, or raw capture is requested without an
	// active frame source.
	ErrNotReady = errors.New("recording: not ready")
	// ErrAlreadyRecording is returned when a session is active.
	ErrAlreadyRecording = errors.New("recording: session already active")
	// ErrNotRecording is returned when stopping without a session.
	ErrNotRecording = errors.New("recording: no active session")
)

// rawFlushTimeout bounds how long Stop waits for the raw-capture
// collaborator to flush.
const rawFlushTimeout = 5 * time.Second

// Sampler is the recorder's read-only view of the pipeline. Samples
// reflect the most recently computed frame at the moment the timer
// fires; the cadence is best-effort, not hardware-synchronized.
type Sampler interface {
	CurrentFrame() (*models.SpectralFrame, bool)
	SensorRange() models.SensorRange
	SourceActive() bool
}

// RawCapture owns the parallel raw-frame stream. The recorder only
// starts and stops it and never blocks on it outside Stop.
type RawCapture interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (data []byte, contentType string, err error)
}

// Recorder samples the running spectrum on a timer, accumulates a
// session and serializes it on stop.
type Recorder struct {
	mu      sync.Mutex
	sampler Sampler
	raw     RawCapture
	store   storage.ArtifactStore
	repo    repository.SessionRepository

	session      *models.RecordingSession
	sessionID    uuid.UUID
	frames       []models.RecordedFrame
	startedAt    time.Time
	capturingRaw bool
	ticker       *time.Ticker
	done         chan struct{}
}

// NewRecorder creates a recorder over a pipeline sampler. raw may be
// nil when no raw-capture collaborator is available.
func NewRecorder(sampler Sampler, raw RawCapture, store storage.ArtifactStore, repo repository.SessionRepository) *Recorder {
	return &Recorder{
		sampler: sampler,
		raw:     raw,
		store:   store,
		repo:    repo,
	}
}

// Start begins periodic sampling and, when requested, the raw-frame
// capture stream.
func (r *Recorder) Start(ctx context.Context, intervalMs int, captureRaw bool) (*models.RecordingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return nil, ErrAlreadyRecording
	}
	if intervalMs <= 0 {
		return nil, fmt.Errorf("%w: non-positive interval", ErrNotReady)
	}
	if _, ok := r.sampler.CurrentFrame(); !ok {
		return nil, fmt.Errorf("%w: no spectral frame available", ErrNotReady)
	}
	if captureRaw && (r.raw == nil || !r.sampler.SourceActive()) {
		return nil, fmt.Errorf("%w: no frame source active for raw capture", ErrNotReady)
	}

	id := uuid.New()
	session := &models.RecordingSession{
		ID:         id.String(),
		Status:     "recording",
		IntervalMs: intervalMs,
		StartedAt:  time.Now(),
	}
	if err := r.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create recording session: %w", err)
	}

	if captureRaw {
		if err := r.raw.Start(ctx); err != nil {
			_ = r.repo.UpdateError(ctx, id, fmt.Sprintf("raw capture failed to start: %v", err))
			return nil, fmt.Errorf("start raw capture: %w", err)
		}
	}

	r.session = session
	r.sessionID = id
	r.frames = nil
	r.startedAt = session.StartedAt
	r.capturingRaw = captureRaw
	r.ticker = time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	r.done = make(chan struct{})
	go r.sampleLoop(r.ticker, r.done)

	log.Info().Str("sessionID", session.ID).Int("intervalMs", intervalMs).Bool("captureRaw", captureRaw).Msg("Recording started")
	return session, nil
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

func (r *Recorder) sampleLoop(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.sample()
		}
	}
}

// sample snapshots the current spectrum into a RecordedFrame. Ticks
// with no data or misaligned arrays are skipped, not recorded.
func (r *Recorder) sample() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return
	}
	frame, ok := r.sampler.CurrentFrame()
	if !ok {
		return
	}
	if len(frame.Raw) != len(frame.Corrected) {
		log.Warn().Int("raw", len(frame.Raw)).Int("corrected", len(frame.Corrected)).Msg("Skipping sample with misaligned arrays")
		return
	}

	r.frames = append(r.frames, models.RecordedFrame{
		TimestampMs:          time.Since(r.startedAt).Milliseconds(),
		Wavelengths:          wavelengthAxis(r.sampler.SensorRange(), len(frame.Raw)),
		RawIntensities:       frame.Raw,
		CorrectedIntensities: frame.Corrected,
	})
}

// Stop halts sampling, flushes raw capture within a bounded timeout,
// serializes the session to CSV and uploads the artifacts. With zero
// captured frames the session fails with ErrNoData and no file is
// written.
func (r *Recorder) Stop(ctx context.Context) (*models.RecordingSession, error) {
	r.mu.Lock()
	if r.session == nil {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}

	r.ticker.Stop()
	close(r.done)

	session := r.session
	frames := r.frames
	id := r.sessionID
	capturingRaw := r.capturingRaw

	r.session = nil
	r.frames = nil
	r.ticker = nil
	r.done = nil
	r.capturingRaw = false
	r.mu.Unlock()

	var rawData []byte
	var rawContentType string
	if capturingRaw {
		flushCtx, cancel := context.WithTimeout(ctx, rawFlushTimeout)
		defer cancel()
		var err error
		rawData, rawContentType, err = r.raw.Stop(flushCtx)
		if err != nil {
			log.Error().Err(err).Str("sessionID", session.ID).Msg("Raw capture flush failed")
			rawData = nil
		}
	}

	csvData, err := export.RecordingCSV(frames)
	if err != nil {
		_ = r.repo.UpdateError(ctx, id, "no frames captured")
		return nil, err
	}

	csvKey := fmt.Sprintf("recordings/%s.csv", session.ID)
	if err := r.store.Upload(ctx, csvKey, "text/csv", csvData); err != nil {
		_ = r.repo.UpdateError(ctx, id, fmt.Sprintf("upload failed: %v", err))
		return nil, fmt.Errorf("upload recording CSV: %w", err)
	}

	var rawKey *string
	if len(rawData) > 0 {
		key := fmt.Sprintf("recordings/%s.video", session.ID)
		if err := r.store.Upload(ctx, key, rawContentType, rawData); err != nil {
			log.Error().Err(err).Str("sessionID", session.ID).Msg("Raw video upload failed")
		} else {
			rawKey = &key
		}
	}

	if err := r.repo.Complete(ctx, id, len(frames), csvKey, rawKey); err != nil {
		return nil, fmt.Errorf("finalize recording session: %w", err)
	}

	now := time.Now()
	session.Status = "completed"
	session.FrameCount = len(frames)
	session.CSVKey = &csvKey
	session.RawVideoKey = rawKey
	session.CompletedAt = &now

	log.Info().Str("sessionID", session.ID).Int("frames", len(frames)).Msg("Recording stopped")
	return session, nil
}

// wavelengthAxis spreads the sensor range evenly over n sample points.
func wavelengthAxis(sr models.SensorRange, n int) []float64 {
	axis := make([]float64, n)
	if n == 1 {
		axis[0] = sr.StartNm
		return axis
	}
	step := (sr.EndNm - sr.StartNm) / float64(n-1)
	for i := range axis {
		axis[i] = sr.StartNm + float64(i)*step
	}
	return axis
}
