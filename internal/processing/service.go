package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RMahshie/fretcheck/internal/audiofile"
	"github.com/RMahshie/fretcheck/internal/capture"
	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/internal/repository"
	"github.com/RMahshie/fretcheck/internal/storage"
	"github.com/RMahshie/fretcheck/internal/tuner"
	"github.com/RMahshie/fretcheck/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DeviceErrorMessage is stored on a tuning when the microphone could not be used
const DeviceErrorMessage = "Could not record audio. Check your microphone and try again."

// ShutdownMessage is stored on tunings the worker could not finish before the
// server stopped
const ShutdownMessage = "The tuner shut down before this tuning finished. Please try again."

// DefaultQueueSize bounds how many tunings may wait for the worker
const DefaultQueueSize = 16

// ErrQueueFull is returned by Enqueue when the worker is saturated
var ErrQueueFull = errors.New("tuning queue is full")

// Tuner runs the pitch pipeline for one note
type Tuner interface {
	Tune(ctx context.Context, note notes.Note) (*tuner.Outcome, error)
}

type TuningService interface {
	// Start runs the worker until ctx is cancelled
	Start(ctx context.Context)
	Enqueue(tuningID uuid.UUID) error
	ProcessTuning(ctx context.Context, tuningID uuid.UUID) error
}

type tuningService struct {
	tuner      Tuner
	repository repository.TuningRepository
	store      storage.ClipStore // nil disables archival
	queue      chan uuid.UUID
}

func NewTuningService(t Tuner, repo repository.TuningRepository, store storage.ClipStore, queueSize int) TuningService {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &tuningService{
		tuner:      t,
		repository: repo,
		store:      store,
		queue:      make(chan uuid.UUID, queueSize),
	}
}

// Start drains the queue on a single goroutine so only one capture holds the
// input device at a time. Tunings still queued when ctx ends are marked failed.
func (s *tuningService) Start(ctx context.Context) {
	go func() {
		for {
			// cancellation wins over queued work
			if ctx.Err() != nil {
				s.abandonQueued(ctx)
				return
			}

			select {
			case id := <-s.queue:
				if err := s.ProcessTuning(ctx, id); err != nil {
					log.Error().Err(err).Str("tuning_id", id.String()).Msg("Tuning processing failed")
				}
			case <-ctx.Done():
				s.abandonQueued(ctx)
				return
			}
		}
	}()
}

func (s *tuningService) abandonQueued(ctx context.Context) {
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case id := <-s.queue:
			if err := s.repository.UpdateError(writeCtx, id, ShutdownMessage); err != nil {
				log.Error().Err(err).Str("tuning_id", id.String()).Msg("Failed to mark queued tuning as failed")
			}
		default:
			return
		}
	}
}

func (s *tuningService) Enqueue(tuningID uuid.UUID) error {
	select {
	case s.queue <- tuningID:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *tuningService) ProcessTuning(ctx context.Context, tuningID uuid.UUID) error {
	// Step 1: Update to processing status
	if err := s.repository.UpdateStatus(ctx, tuningID, models.StatusProcessing, 10); err != nil {
		return err
	}

	// Step 2: Get tuning details
	tuning, err := s.repository.GetByID(ctx, tuningID)
	if err != nil {
		return err
	}

	// Step 3: Capture, analyze and compare
	outcome, err := s.tuner.Tune(ctx, notes.Note(tuning.Note))
	if err != nil {
		// ctx may already be cancelled, the failure must still be recorded
		writeCtx := context.WithoutCancel(ctx)
		switch {
		case capture.IsDeviceError(err):
			log.Warn().Err(err).Str("tuning_id", tuning.ID).Msg("Capture device unavailable")
			s.repository.UpdateError(writeCtx, tuningID, DeviceErrorMessage)
			return nil // Don't return error, status is updated to failed
		case ctx.Err() != nil:
			s.repository.UpdateError(writeCtx, tuningID, ShutdownMessage)
		default:
			s.repository.UpdateError(writeCtx, tuningID, "Tuning failed due to an internal error")
		}
		return fmt.Errorf("tune %s: %w", tuning.Note, err)
	}

	if err := s.repository.UpdateStatus(ctx, tuningID, models.StatusProcessing, 50); err != nil {
		return err
	}

	// Step 4: Archive the recording
	if err := s.repository.UpdateStatus(ctx, tuningID, models.StatusProcessing, 80); err != nil {
		return err
	}
	if s.store != nil {
		s.archive(ctx, tuningID, tuning, outcome.Clip)
	}

	// Step 5: Store results
	result := &models.TuningOutcome{
		ID:         uuid.New().String(),
		TuningID:   tuning.ID,
		Result:     outcome.Result,
		Bin:        outcome.Estimate.Bin,
		SampleRate: outcome.Clip.SampleRate,
		Samples:    len(outcome.Clip.Samples),
		Peaks:      outcome.Peaks,
		Reason:     outcome.Estimate.Reason,
		CreatedAt:  time.Now(),
	}
	if err := s.repository.StoreOutcome(ctx, result); err != nil {
		return err
	}

	// Step 6: Mark complete
	return s.repository.UpdateStatus(ctx, tuningID, models.StatusCompleted, 100)
}

// archive failures are logged, the tuning result is still delivered
func (s *tuningService) archive(ctx context.Context, tuningID uuid.UUID, tuning *models.Tuning, clip *models.AudioClip) {
	data, err := audiofile.Encode(clip)
	if err != nil {
		log.Warn().Err(err).Str("tuning_id", tuning.ID).Msg("Failed to encode recording")
		return
	}

	key := storage.RecordingKey(tuning.SessionID, tuning.ID)
	if err := s.store.UploadClip(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("tuning_id", tuning.ID).Msg("Failed to archive recording")
		return
	}

	if err := s.repository.SetRecordingKey(ctx, tuningID, key); err != nil {
		log.Warn().Err(err).Str("tuning_id", tuning.ID).Msg("Failed to save recording key")
		// nothing references the object, so remove it
		if err := s.store.DeleteFile(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to delete orphaned recording")
		}
	}
}
