package recording

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aUsernamePNG/WebSpectrometer/internal/export"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.RecordingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RecordingSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecordingSession), args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context, limit int) ([]*models.RecordingSession, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RecordingSession), args.Error(1)
}

func (m *MockSessionRepository) Complete(ctx context.Context, id uuid.UUID, frameCount int, csvKey string, rawVideoKey *string) error {
	args := m.Called(ctx, id, frameCount, csvKey, rawVideoKey)
	return args.Error(0)
}

func (m *MockSessionRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	args := m.Called(ctx, id, errorMsg)
	return args.Error(0)
}

// MockArtifactStore is a mock implementation of ArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

func (m *MockArtifactStore) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockArtifactStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// stubSampler hands out a fixed frame and sensor range.
type stubSampler struct {
	frame  *models.SpectralFrame
	sr     models.SensorRange
	active bool
}

func (s *stubSampler) CurrentFrame() (*models.SpectralFrame, bool) {
	return s.frame, s.frame != nil
}

func (s *stubSampler) SensorRange() models.SensorRange { return s.sr }
func (s *stubSampler) SourceActive() bool              { return s.active }

// stubRawCapture records start/stop calls and replays fixed bytes.
type stubRawCapture struct {
	started  bool
	stopped  bool
	data     []byte
	startErr error
	stopErr  error
}

func (s *stubRawCapture) Start(ctx context.Context) error {
	s.started = true
	return s.startErr
}

func (s *stubRawCapture) Stop(ctx context.Context) ([]byte, string, error) {
	s.stopped = true
	return s.data, "video/mp4", s.stopErr
}

func testSampler() *stubSampler {
	return &stubSampler{
		frame: &models.SpectralFrame{
			Raw:       []float64{0.1, 0.5, 0.2},
			Corrected: []float64{0.08, 0.45, 0.19},
		},
		sr:     models.SensorRange{StartNm: 400, EndNm: 800},
		active: true,
	}
}

func TestStartRequiresSpectralFrame(t *testing.T) {
	repo := new(MockSessionRepository)
	store := new(MockArtifactStore)
	rec := NewRecorder(&stubSampler{}, nil, store, repo)

	_, err := rec.Start(context.Background(), 100, false)
	assert.ErrorIs(t, err, ErrNotReady)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStartRequiresActiveSourceForRawCapture(t *testing.T) {
	sampler := testSampler()
	sampler.active = false

	repo := new(MockSessionRepository)
	store := new(MockArtifactStore)
	rec := NewRecorder(sampler, &stubRawCapture{}, store, repo)

	_, err := rec.Start(context.Background(), 100, true)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	rec := NewRecorder(testSampler(), nil, new(MockArtifactStore), new(MockSessionRepository))

	_, err := rec.Start(context.Background(), 0, false)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStartRejectsSecondSession(t *testing.T) {
	repo := new(MockSessionRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	rec := NewRecorder(testSampler(), nil, new(MockArtifactStore), repo)

	_, err := rec.Start(context.Background(), 1000, false)
	require.NoError(t, err)
	defer rec.Stop(context.Background()) //nolint:errcheck

	_, err = rec.Start(context.Background(), 1000, false)
	assert.ErrorIs(t, err, ErrAlreadyRecording)
}

func TestRecordAndStopUploadsCSV(t *testing.T) {
	sampler := testSampler()
	repo := new(MockSessionRepository)
	store := new(MockArtifactStore)

	var sessionID string
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *models.RecordingSession) bool {
		sessionID = s.ID
		return s.Status == "recording" && s.IntervalMs == 100
	})).Return(nil)
	store.On("Upload", mock.Anything, mock.AnythingOfType("string"), "text/csv", mock.Anything).Return(nil)
	repo.On("Complete", mock.Anything, mock.Anything, 3, mock.AnythingOfType("string"), (*string)(nil)).Return(nil)

	rec := NewRecorder(sampler, nil, store, repo)
	_, err := rec.Start(context.Background(), 100, false)
	require.NoError(t, err)
	assert.True(t, rec.Recording())

	rec.sample()
	rec.sample()
	rec.sample()

	session, err := rec.Stop(context.Background())
	require.NoError(t, err)
	assert.False(t, rec.Recording())

	assert.Equal(t, "completed", session.Status)
	assert.Equal(t, 3, session.FrameCount)
	require.NotNil(t, session.CSVKey)
	assert.Equal(t, "recordings/"+sessionID+".csv", *session.CSVKey)
	assert.Nil(t, session.RawVideoKey)
	require.NotNil(t, session.CompletedAt)

	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSampleTimestampsAreRelative(t *testing.T) {
	repo := new(MockSessionRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateError", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := NewRecorder(testSampler(), nil, new(MockArtifactStore), repo)
	_, err := rec.Start(context.Background(), 1000, false)
	require.NoError(t, err)

	rec.sample()
	time.Sleep(20 * time.Millisecond)
	rec.sample()

	rec.mu.Lock()
	frames := rec.frames
	rec.mu.Unlock()

	require.Len(t, frames, 2)
	assert.GreaterOrEqual(t, frames[0].TimestampMs, int64(0))
	assert.Greater(t, frames[1].TimestampMs, frames[0].TimestampMs)

	// Axis spans the sensor range evenly.
	require.Len(t, frames[0].Wavelengths, 3)
	assert.InDelta(t, 400, frames[0].Wavelengths[0], 1e-9)
	assert.InDelta(t, 600, frames[0].Wavelengths[1], 1e-9)
	assert.InDelta(t, 800, frames[0].Wavelengths[2], 1e-9)

	rec.Stop(context.Background()) //nolint:errcheck
}

func TestSampleSkipsMisalignedFrame(t *testing.T) {
	sampler := testSampler()
	repo := new(MockSessionRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateError", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := NewRecorder(sampler, nil, new(MockArtifactStore), repo)
	_, err := rec.Start(context.Background(), 1000, false)
	require.NoError(t, err)

	sampler.frame = &models.SpectralFrame{Raw: []float64{0.1, 0.2}, Corrected: []float64{0.1}}
	rec.sample()

	rec.mu.Lock()
	count := len(rec.frames)
	rec.mu.Unlock()
	assert.Zero(t, count)

	rec.Stop(context.Background()) //nolint:errcheck
}

func TestStopWithoutSession(t *testing.T) {
	rec := NewRecorder(testSampler(), nil, new(MockArtifactStore), new(MockSessionRepository))

	_, err := rec.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestStopWithNoFramesFailsSession(t *testing.T) {
	repo := new(MockSessionRepository)
	store := new(MockArtifactStore)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateError", mock.Anything, mock.Anything, "no frames captured").Return(nil)

	rec := NewRecorder(testSampler(), nil, store, repo)
	_, err := rec.Start(context.Background(), 1000, false)
	require.NoError(t, err)

	_, err = rec.Stop(context.Background())
	assert.ErrorIs(t, err, export.ErrNoData)

	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestStopUploadsRawVideo(t *testing.T) {
	raw := &stubRawCapture{data: []byte("mp4-bytes")}
	repo := new(MockSessionRepository)
	store := new(MockArtifactStore)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("Upload", mock.Anything, mock.AnythingOfType("string"), "text/csv", mock.Anything).Return(nil)
	store.On("Upload", mock.Anything, mock.AnythingOfType("string"), "video/mp4", []byte("mp4-bytes")).Return(nil)
	repo.On("Complete", mock.Anything, mock.Anything, 1, mock.AnythingOfType("string"), mock.AnythingOfType("*string")).Return(nil)

	rec := NewRecorder(testSampler(), raw, store, repo)
	_, err := rec.Start(context.Background(), 1000, true)
	require.NoError(t, err)
	assert.True(t, raw.started)

	rec.sample()

	session, err := rec.Stop(context.Background())
	require.NoError(t, err)
	assert.True(t, raw.stopped)
	require.NotNil(t, session.RawVideoKey)
	assert.Equal(t, "recordings/"+session.ID+".video", *session.RawVideoKey)

	store.AssertExpectations(t)
}

func TestStopSurvivesRawFlushFailure(t *testing.T) {
	raw := &stubRawCapture{stopErr: errors.New("camera hung up")}
	repo := new(MockSessionRepository)
	store := new(MockArtifactStore)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("Upload", mock.Anything, mock.AnythingOfType("string"), "text/csv", mock.Anything).Return(nil)
	repo.On("Complete", mock.Anything, mock.Anything, 1, mock.AnythingOfType("string"), (*string)(nil)).Return(nil)

	rec := NewRecorder(testSampler(), raw, store, repo)
	_, err := rec.Start(context.Background(), 1000, true)
	require.NoError(t, err)

	rec.sample()

	session, err := rec.Stop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session.RawVideoKey)
	assert.Equal(t, "completed", session.Status)
}

func TestStartRawCaptureFailureFailsSession(t *testing.T) {
	raw := &stubRawCapture{startErr: errors.New("device busy")}
	repo := new(MockSessionRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateError", mock.Anything, mock.Anything, mock.AnythingOfType("string")).Return(nil)

	rec := NewRecorder(testSampler(), raw, new(MockArtifactStore), repo)
	_, err := rec.Start(context.Background(), 1000, true)
	require.Error(t, err)
	assert.False(t, rec.Recording())
	repo.AssertExpectations(t)
}
