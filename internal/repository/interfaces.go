package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/fretcheck/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a tuning or outcome does not exist
var ErrNotFound = errors.New("not found")

// TuningRepository defines the interface for tuning data operations
type TuningRepository interface {
	Create(ctx context.Context, tuning *models.Tuning) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tuning, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]*models.Tuning, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	SetRecordingKey(ctx context.Context, id uuid.UUID, key string) error
	StoreOutcome(ctx context.Context, outcome *models.TuningOutcome) error
	GetOutcome(ctx context.Context, tuningID uuid.UUID) (*models.TuningOutcome, error)
}
