package models

import (
	"fmt"
	"time"
)

// Verdict classifies a recorded pitch against its target
type Verdict string

const (
	VerdictInTune  Verdict = "in_tune"
	VerdictTooLow  Verdict = "too_low"
	VerdictTooHigh Verdict = "too_high"
)

// Message returns the advice shown to the player for a verdict
func (v Verdict) Message() string {
	switch v {
	case VerdictInTune:
		return "Perfect!"
	case VerdictTooHigh:
		return "You should loosen your string!"
	case VerdictTooLow:
		return "You should tighten your string!"
	default:
		return "Unknown"
	}
}

// TuningResult is one comparison of a recorded pitch with a target note
type TuningResult struct {
	TargetHz   int     `json:"target_hz" doc:"Target note frequency in Hz"`
	RecordedHz int     `json:"recorded_hz" doc:"Estimated fundamental in Hz"`
	Verdict    Verdict `json:"verdict" enum:"in_tune,too_low,too_high" doc:"Comparison outcome"`
	Confident  bool    `json:"confident" doc:"False when the estimate sits near the noise floor or outside the guitar range"`
}

// Report renders the single-line result shown to the player
func (r TuningResult) Report() string {
	return fmt.Sprintf("Result: (Target Pitch: %d Hz Recorded Pitch: %d Hz): %q",
		r.TargetHz, r.RecordedHz, r.Verdict.Message())
}

// Tuning status values
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Tuning represents one queued "tune this string" request (for internal use)
type Tuning struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	Note         string     `json:"note"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	RecordingKey *string    `json:"recording_key,omitempty"`
	ErrorMsg     *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// TuningOutcome represents the stored result of a completed tuning
type TuningOutcome struct {
	ID         string           `json:"id"`
	TuningID   string           `json:"tuning_id"`
	Result     TuningResult     `json:"result"`
	Bin        int              `json:"bin"`
	SampleRate int              `json:"sample_rate"`
	Samples    int              `json:"samples"`
	Peaks      []FrequencyPoint `json:"peaks"`
	Reason     string           `json:"reason,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// NoteInfo describes one catalog entry
type NoteInfo struct {
	Note      string `json:"note" example:"E2" doc:"Note tag"`
	Frequency int    `json:"frequency" example:"82" doc:"Target frequency in Hz"`
}

// TuningStringInfo describes one string of a named tuning
type TuningStringInfo struct {
	Label string `json:"label" example:"E" doc:"Button label"`
	Note  string `json:"note" example:"E2" doc:"Note tag"`
}

// TuningInfo describes one named tuning
type TuningInfo struct {
	Name    string             `json:"name" example:"standard" doc:"Tuning name"`
	Title   string             `json:"title" example:"Standard Tuning" doc:"Display title"`
	Strings []TuningStringInfo `json:"strings" doc:"Strings from lowest to highest"`
}

// ListNotesResponse represents the note catalog
type ListNotesResponse struct {
	Body struct {
		Notes   []NoteInfo   `json:"notes" doc:"All supported notes"`
		Tunings []TuningInfo `json:"tunings" doc:"Named tunings"`
	}
}

// CreateTuningRequest represents a request to record and tune one string
type CreateTuningRequest struct {
	Body struct {
		SessionID string `json:"session_id" minLength:"10" maxLength:"50" required:"true" doc:"Client session identifier"`
		Note      string `json:"note" required:"true" example:"E2" doc:"Target note tag"`
	}
}

// CreateTuningResponseBody is the body of the create tuning response
type CreateTuningResponseBody struct {
	ID     string `json:"id" doc:"Tuning unique identifier"`
	Status string `json:"status" doc:"Initial status"`
}

// CreateTuningResponse represents the response from queueing a tuning
type CreateTuningResponse struct {
	Body CreateTuningResponseBody
}

// GetTuningRequest represents a request to get one tuning
type GetTuningRequest struct {
	ID string `path:"id" doc:"Tuning ID"`
}

// GetTuningResponseBody is the body of the tuning status response
type GetTuningResponseBody struct {
	ID       string           `json:"id" doc:"Tuning ID"`
	Note     string           `json:"note" doc:"Target note tag"`
	Status   string           `json:"status" enum:"pending,processing,completed,failed" doc:"Tuning status"`
	Progress int              `json:"progress" minimum:"0" maximum:"100" doc:"Progress percentage"`
	Message  string           `json:"message,omitempty" doc:"Human-readable status message"`
	Report   string           `json:"report,omitempty" doc:"Result line once completed"`
	Result   *TuningResult    `json:"result,omitempty" doc:"Structured result once completed"`
	Peaks    []FrequencyPoint `json:"peaks,omitempty" doc:"Strongest bins inside the search window"`
	Warning  string           `json:"warning,omitempty" doc:"Set when the estimate is unreliable"`
}

// GetTuningResponse represents the current state of a tuning
type GetTuningResponse struct {
	Body GetTuningResponseBody
}

// ListSessionTuningsRequest represents a request for a session's history
type ListSessionTuningsRequest struct {
	SessionID string `path:"session_id" doc:"Client session identifier"`
}

// ListSessionTuningsResponse represents a session's tunings, newest first
type ListSessionTuningsResponse struct {
	Body struct {
		Tunings []GetTuningResponseBody `json:"tunings" doc:"Tunings for the session"`
	}
}

// GetRecordingRequest represents a request for a recording download URL
type GetRecordingRequest struct {
	ID string `path:"id" doc:"Tuning ID"`
}

// GetRecordingResponse carries a pre-signed recording URL
type GetRecordingResponse struct {
	Body struct {
		URL string `json:"url" doc:"Pre-signed download URL of the WAV recording"`
	}
}

// AnalyzeUploadRequest represents a synchronous analysis of an uploaded WAV
type AnalyzeUploadRequest struct {
	Body struct {
		Note  string `json:"note" required:"true" example:"E2" doc:"Target note tag"`
		Audio []byte `json:"audio" required:"true" doc:"Base64 encoded WAV file"`
	}
}

// AnalyzeUploadResponse represents the analysis of an uploaded WAV
type AnalyzeUploadResponse struct {
	Body struct {
		Report  string           `json:"report" doc:"Result line"`
		Result  TuningResult     `json:"result" doc:"Structured result"`
		Peaks   []FrequencyPoint `json:"peaks,omitempty" doc:"Strongest bins inside the search window"`
		Warning string           `json:"warning,omitempty" doc:"Set when the estimate is unreliable"`
	}
}

// PlayToneRequest represents a request to play a reference tone
type PlayToneRequest struct {
	Body struct {
		Note   string `json:"note" required:"true" example:"A2" doc:"Note tag to play"`
		Volume int    `json:"volume,omitempty" minimum:"0" maximum:"100" default:"10" doc:"Playback volume"`
	}
}

// PlayToneResponse represents the response from playing a tone
type PlayToneResponse struct {
	Body struct {
		Note      string `json:"note" doc:"Note tag played"`
		Frequency int    `json:"frequency" doc:"Frequency played in Hz"`
	}
}
