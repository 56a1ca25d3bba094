// Package capture records a fixed-length mono clip from the default input
// device.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/fretcheck/pkg/models"
)

// DefaultDuration is how long a single tuning capture records for
const DefaultDuration = time.Second

// Device errors. All of them are retryable by the user and are matched by
// IsDeviceError.
var (
	ErrNoInputDevice     = errors.New("no input device available")
	ErrNoSupportedConfig = errors.New("input device has no supported configuration")
	ErrStreamOpen        = errors.New("failed to open input stream")
)

// ErrUnknownBackend is returned by Backend for an unsupported name
var ErrUnknownBackend = errors.New("unknown capture backend")

// Capturer records one clip of roughly d from an input source
type Capturer interface {
	Capture(ctx context.Context, d time.Duration) (*models.AudioClip, error)
}

// IsDeviceError reports whether err came from the audio device rather than
// from a bug, so callers can ask the user to check their microphone
func IsDeviceError(err error) bool {
	return errors.Is(err, ErrNoInputDevice) ||
		errors.Is(err, ErrNoSupportedConfig) ||
		errors.Is(err, ErrStreamOpen)
}

// Backend returns the capturer registered under name. An empty name selects
// malgo.
func Backend(name string) (Capturer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "malgo":
		return NewMalgoCapturer(), nil
	case "portaudio":
		return newPortAudioBackend()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// record waits for d to elapse, then seals buf and returns what it holds.
// A cancelled context seals the buffer and returns the context error.
func record(ctx context.Context, d time.Duration, buf *clipBuffer) ([]float32, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		buf.seal()
		return nil, ctx.Err()
	}

	samples := buf.seal()
	if dropped := buf.Dropped(); dropped > 0 {
		log.Warn().
			Int64("dropped_batches", dropped).
			Int("samples", len(samples)).
			Msg("Capture dropped callback batches under contention")
	}
	return samples, nil
}
