package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/internal/processing"
	"github.com/RMahshie/fretcheck/internal/repository"
	"github.com/RMahshie/fretcheck/internal/storage"
	"github.com/RMahshie/fretcheck/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TuningHandler handles tuning-related HTTP requests
type TuningHandler struct {
	repo          repository.TuningRepository
	store         storage.ClipStore
	processingSvc processing.TuningService
}

// NewTuningHandler creates a new tuning handler. store may be nil when
// recordings are not archived.
func NewTuningHandler(repo repository.TuningRepository, store storage.ClipStore, processingSvc processing.TuningService) *TuningHandler {
	return &TuningHandler{
		repo:          repo,
		store:         store,
		processingSvc: processingSvc,
	}
}

// CreateTuning records a tuning request and queues it for the capture worker
func (h *TuningHandler) CreateTuning(ctx context.Context, req *models.CreateTuningRequest) (*models.CreateTuningResponse, error) {
	note, err := notes.Parse(req.Body.Note)
	if err != nil {
		return nil, huma.Error400BadRequest("Unknown note. Use a tag such as E2 or A2F.", err)
	}

	tuningID := uuid.New()
	tuning := &models.Tuning{
		ID:        tuningID.String(),
		SessionID: req.Body.SessionID,
		Note:      string(note),
		Status:    models.StatusPending,
		Progress:  0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.repo.Create(ctx, tuning); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create tuning", err)
	}

	if err := h.processingSvc.Enqueue(tuningID); err != nil {
		h.repo.UpdateError(ctx, tuningID, "Tuner is busy. Please try again in a moment.")
		if errors.Is(err, processing.ErrQueueFull) {
			return nil, huma.Error503ServiceUnavailable("Tuner is busy. Please try again in a moment.", err)
		}
		return nil, huma.Error500InternalServerError("Failed to queue tuning", err)
	}

	log.Info().Str("tuningID", tuning.ID).Str("sessionID", tuning.SessionID).Str("note", tuning.Note).Msg("Tuning queued")
	return &models.CreateTuningResponse{
		Body: models.CreateTuningResponseBody{
			ID:     tuning.ID,
			Status: tuning.Status,
		},
	}, nil
}

// GetTuning returns the status of a tuning and, once completed, its result
func (h *TuningHandler) GetTuning(ctx context.Context, req *models.GetTuningRequest) (*models.GetTuningResponse, error) {
	tuningID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid tuning ID", err)
	}

	tuning, err := h.repo.GetByID(ctx, tuningID)
	if err != nil {
		return nil, huma.Error404NotFound("Tuning not found", err)
	}

	body, err := h.tuningBody(ctx, tuning)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get tuning result", err)
	}
	return &models.GetTuningResponse{Body: *body}, nil
}

// ListSessionTunings returns a session's tunings, newest first
func (h *TuningHandler) ListSessionTunings(ctx context.Context, req *models.ListSessionTuningsRequest) (*models.ListSessionTuningsResponse, error) {
	tunings, err := h.repo.GetBySessionID(ctx, req.SessionID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tunings", err)
	}

	resp := &models.ListSessionTuningsResponse{}
	resp.Body.Tunings = make([]models.GetTuningResponseBody, 0, len(tunings))
	for _, tuning := range tunings {
		body, err := h.tuningBody(ctx, tuning)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get tuning result", err)
		}
		resp.Body.Tunings = append(resp.Body.Tunings, *body)
	}
	return resp, nil
}

// GetRecording returns a pre-signed URL for a tuning's archived clip
func (h *TuningHandler) GetRecording(ctx context.Context, req *models.GetRecordingRequest) (*models.GetRecordingResponse, error) {
	tuningID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid tuning ID", err)
	}
	if h.store == nil {
		return nil, huma.Error404NotFound("Recording archival is disabled")
	}

	tuning, err := h.repo.GetByID(ctx, tuningID)
	if err != nil {
		return nil, huma.Error404NotFound("Tuning not found", err)
	}
	if tuning.RecordingKey == nil {
		return nil, huma.Error404NotFound("No recording for this tuning")
	}

	url, err := h.store.GenerateDownloadURL(ctx, *tuning.RecordingKey)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate download URL", err)
	}

	resp := &models.GetRecordingResponse{}
	resp.Body.URL = url
	return resp, nil
}

func (h *TuningHandler) tuningBody(ctx context.Context, tuning *models.Tuning) (*models.GetTuningResponseBody, error) {
	body := &models.GetTuningResponseBody{
		ID:       tuning.ID,
		Note:     tuning.Note,
		Status:   tuning.Status,
		Progress: tuning.Progress,
		Message:  statusMessage(tuning.Status, tuning.Progress),
	}

	switch tuning.Status {
	case models.StatusFailed:
		if tuning.ErrorMsg != nil {
			body.Message = *tuning.ErrorMsg
		}
	case models.StatusCompleted:
		tuningID, err := uuid.Parse(tuning.ID)
		if err != nil {
			return nil, err
		}
		outcome, err := h.repo.GetOutcome(ctx, tuningID)
		if err != nil {
			return nil, err
		}
		result := outcome.Result
		body.Result = &result
		body.Report = result.Report()
		body.Peaks = outcome.Peaks
		if !result.Confident {
			body.Warning = lowConfidenceWarning(outcome.Reason)
		}
	}
	return body, nil
}

func lowConfidenceWarning(reason string) string {
	if reason == "" {
		return "Low confidence in the recorded pitch. Pluck the string again closer to the microphone."
	}
	return "Low confidence in the recorded pitch (" + reason + "). Pluck the string again closer to the microphone."
}

// statusMessage creates a human-readable status message
func statusMessage(status string, progress int) string {
	switch status {
	case models.StatusPending:
		return "Waiting for the microphone..."
	case models.StatusProcessing:
		if progress < 50 {
			return "Listening... pluck your string now"
		} else if progress < 80 {
			return "Analyzing pitch..."
		}
		return "Finalizing result..."
	case models.StatusCompleted:
		return "Tuning complete!"
	case models.StatusFailed:
		return "Tuning failed. Please try again."
	default:
		return "Unknown status"
	}
}
