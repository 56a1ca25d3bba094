//go:build portaudio

package capture

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/fretcheck/pkg/models"
)

// PortAudioCapturer records from the default PortAudio input device. It is
// only built with the portaudio tag since it links against libportaudio.
type PortAudioCapturer struct{}

// NewPortAudioCapturer creates a PortAudio capturer
func NewPortAudioCapturer() *PortAudioCapturer {
	return &PortAudioCapturer{}
}

func newPortAudioBackend() (Capturer, error) {
	return NewPortAudioCapturer(), nil
}

func (c *PortAudioCapturer) Capture(ctx context.Context, d time.Duration) (*models.AudioClip, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrNoInputDevice, err)
	}
	defer portaudio.Terminate()

	in, err := portaudio.DefaultInputDevice()
	if err != nil || in == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}
	if in.MaxInputChannels <= 0 || in.DefaultSampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSupportedConfig, in.Name)
	}

	p := portaudio.HighLatencyParameters(in, nil)
	p.Input.Channels = in.MaxInputChannels
	channels := in.MaxInputChannels

	buf := newClipBuffer(int(math.Ceil(d.Seconds() * in.DefaultSampleRate)))
	stream, err := portaudio.OpenStream(p, func(input []float32) {
		buf.write(func(dst []float32) []float32 {
			return appendFirstChannelFloat(dst, input, channels)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}
	defer stream.Close()

	rate := int(math.Round(stream.Info().SampleRate))
	log.Debug().
		Str("device", in.Name).
		Int("channels", channels).
		Int("sample_rate", rate).
		Msg("Opening capture device")

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("%w: start stream: %v", ErrStreamOpen, err)
	}

	samples, err := record(ctx, d, buf)
	_ = stream.Stop()
	if err != nil {
		return nil, err
	}

	return &models.AudioClip{Samples: samples, SampleRate: rate}, nil
}
