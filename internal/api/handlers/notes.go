package handlers

import (
	"context"

	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/pkg/models"
)

// ListNotes returns the note catalog and the named tunings built from it
func ListNotes(ctx context.Context, _ *struct{}) (*models.ListNotesResponse, error) {
	resp := &models.ListNotesResponse{}

	for _, n := range notes.All() {
		hz, _ := notes.Frequency(n)
		resp.Body.Notes = append(resp.Body.Notes, models.NoteInfo{Note: string(n), Frequency: hz})
	}

	for _, t := range notes.Tunings() {
		info := models.TuningInfo{Name: t.Name, Title: t.Title}
		for _, s := range t.Strings {
			info.Strings = append(info.Strings, models.TuningStringInfo{Label: s.Label, Note: string(s.Note)})
		}
		resp.Body.Tunings = append(resp.Body.Tunings, info)
	}

	return resp, nil
}
