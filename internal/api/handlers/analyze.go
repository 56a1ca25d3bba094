package handlers

import (
	"bytes"
	"context"
	"errors"

	"github.com/RMahshie/fretcheck/internal/audiofile"
	"github.com/RMahshie/fretcheck/internal/estimator"
	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/internal/tuner"
	"github.com/RMahshie/fretcheck/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"
)

// maxUploadBytes caps uploaded WAV files
const maxUploadBytes = 20 * 1024 * 1024

// ClipTuner analyses an already recorded clip
type ClipTuner interface {
	TuneClip(clip *models.AudioClip, note notes.Note) (*tuner.Outcome, error)
}

// AnalyzeHandler runs the pitch pipeline synchronously on uploaded audio
type AnalyzeHandler struct {
	tuner ClipTuner
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(t ClipTuner) *AnalyzeHandler {
	return &AnalyzeHandler{tuner: t}
}

// AnalyzeUpload decodes an uploaded WAV and compares it with the target note
func (h *AnalyzeHandler) AnalyzeUpload(ctx context.Context, req *models.AnalyzeUploadRequest) (*models.AnalyzeUploadResponse, error) {
	note, err := notes.Parse(req.Body.Note)
	if err != nil {
		return nil, huma.Error400BadRequest("Unknown note. Use a tag such as E2 or A2F.", err)
	}
	if len(req.Body.Audio) == 0 {
		return nil, huma.Error400BadRequest("Recording is empty")
	}
	if len(req.Body.Audio) > maxUploadBytes {
		return nil, huma.Error400BadRequest("Recording too large. Please try a shorter recording.")
	}

	clip, err := audiofile.Decode(bytes.NewReader(req.Body.Audio))
	if err != nil {
		return nil, huma.Error400BadRequest("Recording must be a PCM WAV file", err)
	}

	outcome, err := h.tuner.TuneClip(clip, note)
	if err != nil {
		if errors.Is(err, estimator.ErrTargetBelowGuard) {
			return nil, huma.Error400BadRequest("Note is too low to analyze", err)
		}
		return nil, huma.Error500InternalServerError("Failed to analyze recording", err)
	}

	log.Info().
		Str("note", string(note)).
		Int("samples", len(clip.Samples)).
		Int("recorded_hz", outcome.Result.RecordedHz).
		Msg("Analyzed uploaded recording")

	resp := &models.AnalyzeUploadResponse{}
	resp.Body.Report = outcome.Result.Report()
	resp.Body.Result = outcome.Result
	resp.Body.Peaks = outcome.Peaks
	if !outcome.Result.Confident {
		resp.Body.Warning = lowConfidenceWarning(outcome.Estimate.Reason)
	}
	return resp, nil
}
