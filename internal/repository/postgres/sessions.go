package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/aUsernamePNG/WebSpectrometer/internal/repository"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

// PostgresSessionRepository implements SessionRepository for PostgreSQL
type PostgresSessionRepository struct {
	db *sql.DB
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository
func NewPostgresSessionRepository(db *sql.DB) repository.SessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Create inserts a new recording session record
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.RecordingSession) error {
	query := `
		INSERT INTO recording_sessions (id, status, interval_ms, frame_count, started_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.Status,
		session.IntervalMs,
		session.FrameCount,
		session.StartedAt)

	return err
}

// GetByID retrieves a recording session by ID
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RecordingSession, error) {
	query := `
		SELECT id, status, interval_ms, frame_count, csv_key, raw_video_key, error_message, started_at, completed_at
		FROM recording_sessions
		WHERE id = $1`

	return scanSession(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves the most recent recording sessions
func (r *PostgresSessionRepository) List(ctx context.Context, limit int) ([]*models.RecordingSession, error) {
	query := `
		SELECT id, status, interval_ms, frame_count, csv_key, raw_video_key, error_message, started_at, completed_at
		FROM recording_sessions
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.RecordingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// Complete marks a session finished and attaches its artifact keys
func (r *PostgresSessionRepository) Complete(ctx context.Context, id uuid.UUID, frameCount int, csvKey string, rawVideoKey *string) error {
	query := `
		UPDATE recording_sessions
		SET status = 'completed', frame_count = $1, csv_key = $2, raw_video_key = $3, completed_at = NOW()
		WHERE id = $4`

	_, err := r.db.ExecContext(ctx, query, frameCount, csvKey, rawVideoKey, id)
	return err
}

// UpdateError marks a session failed with an error message
func (r *PostgresSessionRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE recording_sessions
		SET status = 'failed', error_message = $1, completed_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, errorMsg, id)
	return err
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*models.RecordingSession, error) {
	var session models.RecordingSession
	var csvKey, rawVideoKey, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&session.ID,
		&session.Status,
		&session.IntervalMs,
		&session.FrameCount,
		&csvKey,
		&rawVideoKey,
		&errorMsg,
		&session.StartedAt,
		&completedAt)

	if err != nil {
		return nil, err
	}

	if csvKey.Valid {
		session.CSVKey = &csvKey.String
	}
	if rawVideoKey.Valid {
		session.RawVideoKey = &rawVideoKey.String
	}
	if errorMsg.Valid {
		session.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return &session, nil
}
