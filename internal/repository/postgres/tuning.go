package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/RMahshie/fretcheck/internal/repository"
	"github.com/RMahshie/fretcheck/pkg/models"
)

// PostgresTuningRepository implements TuningRepository for PostgreSQL
type PostgresTuningRepository struct {
	db *sql.DB
}

// NewPostgresTuningRepository creates a new PostgreSQL tuning repository
func NewPostgresTuningRepository(db *sql.DB) repository.TuningRepository {
	return &PostgresTuningRepository{db: db}
}

const tuningColumns = `id, session_id, note, status, progress, recording_key, error_message, created_at, updated_at, completed_at`

// Create inserts a new tuning record
func (r *PostgresTuningRepository) Create(ctx context.Context, tuning *models.Tuning) error {
	query := `
		INSERT INTO tunings (id, session_id, note, status, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		tuning.ID,
		tuning.SessionID,
		tuning.Note,
		tuning.Status,
		tuning.Progress,
		tuning.CreatedAt,
		tuning.UpdatedAt)

	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTuning(row rowScanner) (*models.Tuning, error) {
	var tuning models.Tuning
	var recordingKey, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&tuning.ID,
		&tuning.SessionID,
		&tuning.Note,
		&tuning.Status,
		&tuning.Progress,
		&recordingKey,
		&errorMsg,
		&tuning.CreatedAt,
		&tuning.UpdatedAt,
		&completedAt)
	if err != nil {
		return nil, err
	}

	if recordingKey.Valid {
		tuning.RecordingKey = &recordingKey.String
	}
	if errorMsg.Valid {
		tuning.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		tuning.CompletedAt = &completedAt.Time
	}
	return &tuning, nil
}

// GetByID retrieves a tuning by ID
func (r *PostgresTuningRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tuning, error) {
	query := `SELECT ` + tuningColumns + ` FROM tunings WHERE id = $1`

	tuning, err := scanTuning(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tuning %s: %w", id, repository.ErrNotFound)
	}
	return tuning, err
}

// GetBySessionID retrieves a session's tunings, newest first
func (r *PostgresTuningRepository) GetBySessionID(ctx context.Context, sessionID string) ([]*models.Tuning, error) {
	query := `SELECT ` + tuningColumns + `
		FROM tunings
		WHERE session_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tunings []*models.Tuning
	for rows.Next() {
		tuning, err := scanTuning(rows)
		if err != nil {
			return nil, err
		}
		tunings = append(tunings, tuning)
	}

	return tunings, rows.Err()
}

// UpdateStatus updates the status and progress of a tuning
func (r *PostgresTuningRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE tunings
		SET status = $1, progress = $2, updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, status, progress, id)
	return err
}

// UpdateError marks a tuning as failed with a user-facing message
func (r *PostgresTuningRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE tunings
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, errorMsg, id)
	return err
}

// SetRecordingKey records where the archived clip lives in object storage
func (r *PostgresTuningRepository) SetRecordingKey(ctx context.Context, id uuid.UUID, key string) error {
	query := `
		UPDATE tunings
		SET recording_key = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, key, id)
	return err
}

// StoreOutcome stores the result of a completed tuning
func (r *PostgresTuningRepository) StoreOutcome(ctx context.Context, outcome *models.TuningOutcome) error {
	peaks, err := json.Marshal(outcome.Peaks)
	if err != nil {
		return fmt.Errorf("failed to marshal peaks: %w", err)
	}

	query := `
		INSERT INTO tuning_outcomes (id, tuning_id, target_hz, recorded_hz, verdict, confident, bin, sample_rate, samples, peaks, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.ExecContext(ctx, query,
		outcome.ID,
		outcome.TuningID,
		outcome.Result.TargetHz,
		outcome.Result.RecordedHz,
		string(outcome.Result.Verdict),
		outcome.Result.Confident,
		outcome.Bin,
		outcome.SampleRate,
		outcome.Samples,
		string(peaks),
		outcome.Reason,
		outcome.CreatedAt)

	return err
}

// GetOutcome retrieves the stored result of a tuning
func (r *PostgresTuningRepository) GetOutcome(ctx context.Context, tuningID uuid.UUID) (*models.TuningOutcome, error) {
	query := `
		SELECT id, tuning_id, target_hz, recorded_hz, verdict, confident, bin, sample_rate, samples, peaks, reason, created_at
		FROM tuning_outcomes
		WHERE tuning_id = $1`

	var outcome models.TuningOutcome
	var verdict string
	var peaksStr, reason sql.NullString

	err := r.db.QueryRowContext(ctx, query, tuningID).Scan(
		&outcome.ID,
		&outcome.TuningID,
		&outcome.Result.TargetHz,
		&outcome.Result.RecordedHz,
		&verdict,
		&outcome.Result.Confident,
		&outcome.Bin,
		&outcome.SampleRate,
		&outcome.Samples,
		&peaksStr,
		&reason,
		&outcome.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outcome for tuning %s: %w", tuningID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	outcome.Result.Verdict = models.Verdict(verdict)
	if reason.Valid {
		outcome.Reason = reason.String
	}
	if peaksStr.Valid {
		if err := json.Unmarshal([]byte(peaksStr.String), &outcome.Peaks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal peaks: %w", err)
		}
	}

	return &outcome, nil
}
