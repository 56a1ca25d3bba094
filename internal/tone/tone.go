// Package tone synthesises and plays reference pitches.
package tone

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/fretcheck/internal/notes"
)

const (
	DefaultSampleRate = 48000
	DefaultDuration   = time.Second
	DefaultVolume     = 10
	MaxVolume         = 100
)

// ErrInvalidVolume is returned for a volume outside 0..MaxVolume
var ErrInvalidVolume = errors.New("volume must be between 0 and 100")

// Player plays mono float32 samples and returns once playback is done
type Player interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// Sine returns d worth of sin(2πft) scaled by volume*0.1. A volume of 10
// gives full scale.
func Sine(freqHz, volume, sampleRate int, d time.Duration) []float32 {
	n := int(math.Round(d.Seconds() * float64(sampleRate)))
	if n <= 0 || sampleRate <= 0 {
		return []float32{}
	}

	gain := float64(volume) * 0.1
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = float32(math.Sin(2*math.Pi*float64(freqHz)*t) * gain)
	}
	return samples
}

// ValidateVolume checks v is within 0..MaxVolume
func ValidateVolume(v int) error {
	if v < 0 || v > MaxVolume {
		return fmt.Errorf("%w: got %d", ErrInvalidVolume, v)
	}
	return nil
}

// Generator turns note tags into played tones
type Generator struct {
	player     Player
	sampleRate int
	duration   time.Duration
}

// NewGenerator creates a generator. Zero values fall back to the defaults.
func NewGenerator(player Player, sampleRate int, d time.Duration) *Generator {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if d <= 0 {
		d = DefaultDuration
	}
	return &Generator{player: player, sampleRate: sampleRate, duration: d}
}

// PlayNote plays the reference pitch for note and returns its frequency
func (g *Generator) PlayNote(ctx context.Context, note notes.Note, volume int) (int, error) {
	hz, err := notes.Frequency(note)
	if err != nil {
		return 0, err
	}
	if err := ValidateVolume(volume); err != nil {
		return 0, err
	}

	log.Info().
		Str("note", string(note)).
		Int("frequency", hz).
		Int("volume", volume).
		Msg("Playing reference tone")

	if err := g.player.Play(ctx, Sine(hz, volume, g.sampleRate, g.duration), g.sampleRate); err != nil {
		return 0, fmt.Errorf("play %s: %w", note, err)
	}
	return hz, nil
}
