// Package tuner runs the capture, analysis, estimation and comparison stages
// for one string.
package tuner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/fretcheck/internal/capture"
	"github.com/RMahshie/fretcheck/internal/comparator"
	"github.com/RMahshie/fretcheck/internal/estimator"
	"github.com/RMahshie/fretcheck/internal/notes"
	"github.com/RMahshie/fretcheck/internal/spectral"
	"github.com/RMahshie/fretcheck/pkg/models"
)

// PeakCount is how many of the strongest in-window bins an Outcome reports
const PeakCount = 5

// Config holds the pipeline settings
type Config struct {
	Duration  time.Duration
	Estimator estimator.Config
}

// DefaultConfig returns a one second capture with the default estimator
func DefaultConfig() Config {
	return Config{
		Duration:  capture.DefaultDuration,
		Estimator: estimator.DefaultConfig(),
	}
}

// Outcome is everything one run produced
type Outcome struct {
	Note     notes.Note
	Clip     *models.AudioClip
	Estimate *models.Estimate
	Result   models.TuningResult
	Peaks    []models.FrequencyPoint
}

// Warning returns a line to show next to the report when the estimate is
// unreliable, or "" when it is fine
func (o *Outcome) Warning() string {
	if o.Result.Confident {
		return ""
	}
	return fmt.Sprintf("Warning: low confidence in recorded pitch (%s). Pluck the string again closer to the microphone.", o.Estimate.Reason)
}

// Pipeline holds no per-request state, so it is safe to reuse. The capturer
// is not: callers serialise Tune calls when it owns a real device.
type Pipeline struct {
	capturer  capture.Capturer
	analyzer  *spectral.Analyzer
	estimator *estimator.Estimator
	duration  time.Duration
}

// New creates a pipeline reading from capturer
func New(capturer capture.Capturer, cfg Config) *Pipeline {
	if cfg.Duration <= 0 {
		cfg.Duration = capture.DefaultDuration
	}
	return &Pipeline{
		capturer:  capturer,
		analyzer:  spectral.NewAnalyzer(),
		estimator: estimator.New(cfg.Estimator),
		duration:  cfg.Duration,
	}
}

// Tune records one clip and compares it with note
func (p *Pipeline) Tune(ctx context.Context, note notes.Note) (*Outcome, error) {
	// resolve the note before touching the device
	if _, err := notes.Frequency(note); err != nil {
		return nil, err
	}

	clip, err := p.capturer.Capture(ctx, p.duration)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	log.Debug().
		Str("note", string(note)).
		Int("samples", len(clip.Samples)).
		Int("sample_rate", clip.SampleRate).
		Msg("Captured clip")

	return p.TuneClip(clip, note)
}

// TuneClip runs analysis and comparison on an existing clip
func (p *Pipeline) TuneClip(clip *models.AudioClip, note notes.Note) (*Outcome, error) {
	targetHz, err := notes.Frequency(note)
	if err != nil {
		return nil, err
	}

	spec, err := p.analyzer.Analyze(clip)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	est, err := p.estimator.Estimate(spec, targetHz)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}

	limit, err := p.estimator.SearchLimitBin(spec, targetHz)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}

	outcome := &Outcome{
		Note:     note,
		Clip:     clip,
		Estimate: est,
		Result:   comparator.CompareEstimate(targetHz, est),
		Peaks:    spec.Peaks(PeakCount, limit),
	}

	log.Info().
		Str("note", string(note)).
		Int("target_hz", targetHz).
		Int("recorded_hz", est.FrequencyHz).
		Str("verdict", string(outcome.Result.Verdict)).
		Bool("confident", est.Confident).
		Msg("Tuning complete")

	return outcome, nil
}
