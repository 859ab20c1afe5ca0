package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// SessionRepository defines the interface for recording-session data
// operations.
type SessionRepository interface {
	Create(ctx context.Context, session *models.RecordingSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RecordingSession, error)
	List(ctx context.Context, limit int) ([]*models.RecordingSession, error)
	Complete(ctx context.Context, id uuid.UUID, frameCount int, csvKey string, rawVideoKey *string) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
}
