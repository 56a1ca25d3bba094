package capture

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/fretcheck/pkg/models"
)

// MalgoCapturer records through miniaudio. Each Capture opens and tears down
// its own context and device.
type MalgoCapturer struct{}

// NewMalgoCapturer creates a miniaudio capturer
func NewMalgoCapturer() *MalgoCapturer {
	return &MalgoCapturer{}
}

func (c *MalgoCapturer) Capture(ctx context.Context, d time.Duration) (*models.AudioClip, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug().Str("backend", "malgo").Msg(strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init context: %v", ErrNoInputDevice, err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	devices, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", ErrNoInputDevice, err)
	}
	info, err := selectCaptureDevice(devices)
	if err != nil {
		return nil, err
	}

	// Devices only fills in ids and names, the formats need a second query
	details, err := mctx.DeviceInfo(malgo.Capture, info.ID, malgo.Shared)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoSupportedConfig, info.Name(), err)
	}
	chosen, err := captureFormat(details)
	if err != nil {
		return nil, err
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = chosen.Format
	config.Capture.Channels = chosen.Channels
	config.Capture.DeviceID = info.ID.Pointer()
	config.SampleRate = chosen.SampleRate
	config.Alsa.NoMMap = 1

	rate := chosen.SampleRate
	if rate == 0 {
		rate = 48000
	}
	buf := newClipBuffer(int(math.Ceil(d.Seconds() * float64(rate))))

	// set from the opened device before Start, read only by the callback
	var (
		sf       sampleFormat
		channels int
	)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if len(input) == 0 {
				return
			}
			buf.write(func(dst []float32) []float32 {
				return appendFirstChannel(dst, input, sf, channels)
			})
		},
	}

	device, err := malgo.InitDevice(mctx.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: init device: %v", ErrStreamOpen, err)
	}
	defer device.Uninit()

	negotiated := device.SampleRate()
	format, ok := malgoSampleFormat(device.CaptureFormat())
	if negotiated == 0 || device.CaptureChannels() == 0 || !ok {
		return nil, fmt.Errorf("%w: %s opened as %d Hz, %d channels", ErrNoSupportedConfig,
			info.Name(), negotiated, device.CaptureChannels())
	}
	sf = format
	channels = int(device.CaptureChannels())

	log.Debug().
		Str("device", info.Name()).
		Str("format", sf.String()).
		Int("channels", channels).
		Uint32("sample_rate", negotiated).
		Msg("Opening capture device")

	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("%w: start device: %v", ErrStreamOpen, err)
	}

	samples, err := record(ctx, d, buf)
	_ = device.Stop()
	if err != nil {
		return nil, err
	}

	return &models.AudioClip{Samples: samples, SampleRate: int(negotiated)}, nil
}

// selectCaptureDevice returns the default capture device, or the first one
// when none is flagged default
func selectCaptureDevice(devices []malgo.DeviceInfo) (malgo.DeviceInfo, error) {
	if len(devices) == 0 {
		return malgo.DeviceInfo{}, ErrNoInputDevice
	}
	for _, info := range devices {
		if info.IsDefault != 0 {
			return info, nil
		}
	}
	return devices[0], nil
}

// captureFormat returns the first configuration the device reports. Zero
// channels or rate in it mean "device native" to miniaudio.
func captureFormat(info malgo.DeviceInfo) (malgo.DataFormat, error) {
	if info.FormatCount == 0 || len(info.Formats) == 0 {
		return malgo.DataFormat{}, fmt.Errorf("%w: %s reports no formats", ErrNoSupportedConfig, info.Name())
	}
	chosen := info.Formats[0]
	if _, ok := malgoSampleFormat(chosen.Format); !ok {
		// miniaudio converts anything it can open into f32
		chosen.Format = malgo.FormatF32
	}
	return chosen, nil
}

func malgoSampleFormat(f malgo.FormatType) (sampleFormat, bool) {
	switch f {
	case malgo.FormatU8:
		return formatU8, true
	case malgo.FormatS16:
		return formatS16, true
	case malgo.FormatS24:
		return formatS24, true
	case malgo.FormatS32:
		return formatS32, true
	case malgo.FormatF32:
		return formatF32, true
	default:
		return 0, false
	}
}
