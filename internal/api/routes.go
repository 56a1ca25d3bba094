package api

import (
	"net/http"

	"github.com/RMahshie/fretcheck/internal/api/handlers"
	"github.com/RMahshie/fretcheck/internal/processing"
	"github.com/RMahshie/fretcheck/internal/repository"
	"github.com/RMahshie/fretcheck/internal/storage"
	"github.com/danielgtaylor/huma/v2"
)

// Dependencies are the services the routes are served by
type Dependencies struct {
	Repo          repository.TuningRepository
	Store         storage.ClipStore // nil when archival is disabled
	ProcessingSvc processing.TuningService
	ClipTuner     handlers.ClipTuner
	Tones         handlers.ToneGenerator
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, deps Dependencies) {
	// Initialize handlers
	tuningHandler := handlers.NewTuningHandler(deps.Repo, deps.Store, deps.ProcessingSvc)
	analyzeHandler := handlers.NewAnalyzeHandler(deps.ClipTuner)
	toneHandler := handlers.NewToneHandler(deps.Tones)

	huma.Register(api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/notes",
		Summary:     "List notes",
		Description: "Returns every supported note with its target frequency and the named tunings",
		Tags:        []string{"Notes"},
	}, handlers.ListNotes)

	// Register tuning routes
	huma.Register(api, huma.Operation{
		OperationID:   "createTuning",
		Method:        http.MethodPost,
		Path:          "/api/tunings",
		Summary:       "Tune a string",
		Description:   "Queues a microphone capture for the given note. Poll the tuning for its result.",
		Tags:          []string{"Tunings"},
		DefaultStatus: http.StatusAccepted,
	}, tuningHandler.CreateTuning)

	huma.Register(api, huma.Operation{
		OperationID: "analyzeUpload",
		Method:      http.MethodPost,
		Path:        "/api/tunings/analyze",
		Summary:     "Analyze a recording",
		Description: "Compares an uploaded WAV recording with the given note and returns the result immediately",
		Tags:        []string{"Tunings"},
	}, analyzeHandler.AnalyzeUpload)

	huma.Register(api, huma.Operation{
		OperationID: "getTuning",
		Method:      http.MethodGet,
		Path:        "/api/tunings/{id}",
		Summary:     "Get tuning",
		Description: "Returns the status of a tuning and, once completed, its result line and verdict",
		Tags:        []string{"Tunings"},
	}, tuningHandler.GetTuning)

	huma.Register(api, huma.Operation{
		OperationID: "getTuningRecording",
		Method:      http.MethodGet,
		Path:        "/api/tunings/{id}/recording",
		Summary:     "Get tuning recording",
		Description: "Returns a pre-signed download URL for the archived WAV clip",
		Tags:        []string{"Tunings"},
	}, tuningHandler.GetRecording)

	huma.Register(api, huma.Operation{
		OperationID: "listSessionTunings",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{session_id}/tunings",
		Summary:     "List session tunings",
		Description: "Returns every tuning for a session, newest first",
		Tags:        []string{"Tunings"},
	}, tuningHandler.ListSessionTunings)

	huma.Register(api, huma.Operation{
		OperationID: "playReferenceTone",
		Method:      http.MethodPost,
		Path:        "/api/reference-tones",
		Summary:     "Play a reference tone",
		Description: "Plays a one second sine at the note's frequency on the server's audio output",
		Tags:        []string{"Tones"},
	}, toneHandler.PlayTone)
}
