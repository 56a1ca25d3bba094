package handlers

import (
	"context"
	"errors"

	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/internal/tone"
	"github.com/RMahshie/fretcheck/pkg/models"
	"github.com/danielgtaylor/huma/v2"
)

// ToneGenerator plays a reference pitch for a note
type ToneGenerator interface {
	PlayNote(ctx context.Context, note notes.Note, volume int) (int, error)
}

// ToneHandler plays reference tones on the server's audio output
type ToneHandler struct {
	generator ToneGenerator
}

// NewToneHandler creates a new tone handler
func NewToneHandler(g ToneGenerator) *ToneHandler {
	return &ToneHandler{generator: g}
}

// PlayTone plays the requested note and waits until playback finishes
func (h *ToneHandler) PlayTone(ctx context.Context, req *models.PlayToneRequest) (*models.PlayToneResponse, error) {
	note, err := notes.Parse(req.Body.Note)
	if err != nil {
		return nil, huma.Error400BadRequest("Unknown note. Use a tag such as E2 or A2F.", err)
	}

	hz, err := h.generator.PlayNote(ctx, note, req.Body.Volume)
	if err != nil {
		if errors.Is(err, tone.ErrInvalidVolume) {
			return nil, huma.Error400BadRequest("Volume must be between 0 and 100", err)
		}
		return nil, huma.Error500InternalServerError("Failed to play tone", err)
	}

	resp := &models.PlayToneResponse{}
	resp.Body.Note = string(note)
	resp.Body.Frequency = hz
	return resp, nil
}
