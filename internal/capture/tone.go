package capture

import (
	"context"
	"math"
	"time"

	"github.com/RMahshie/fretcheck/pkg/models"
)

// ToneCapturer stands in for a microphone by producing a pure sine. The CLI
// uses it to simulate a string played at a known pitch.
type ToneCapturer struct {
	FrequencyHz float64
	SampleRate  int
	Amplitude   float64
}

// NewToneCapturer returns a capturer producing freqHz at 48 kHz
func NewToneCapturer(freqHz float64) *ToneCapturer {
	return &ToneCapturer{
		FrequencyHz: freqHz,
		SampleRate:  48000,
		Amplitude:   0.5,
	}
}

func (c *ToneCapturer) Capture(ctx context.Context, d time.Duration) (*models.AudioClip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := int(math.Round(d.Seconds() * float64(c.SampleRate)))
	if n < 0 {
		n = 0
	}
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(c.SampleRate)
		samples[i] = float32(c.Amplitude * math.Sin(2*math.Pi*c.FrequencyHz*t))
	}
	return &models.AudioClip{Samples: samples, SampleRate: c.SampleRate}, nil
}
