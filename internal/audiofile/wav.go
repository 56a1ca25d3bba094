// Package audiofile reads and writes clips as PCM WAV.
package audiofile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RMahshie/fretcheck/pkg/models"
)

const (
	encodeBitDepth = 16
	wavFormatPCM   = 1
)

var (
	ErrNotWav            = errors.New("not a valid WAV file")
	ErrUnsupportedFormat = errors.New("unsupported WAV encoding")
)

// Encode writes clip as a 16-bit mono PCM WAV
func Encode(clip *models.AudioClip) ([]byte, error) {
	if clip == nil || clip.SampleRate <= 0 {
		return nil, errors.New("clip has no sample rate")
	}

	// the encoder seeks back to patch the header sizes
	f, err := os.CreateTemp("", "fretcheck-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, clip.SampleRate, encodeBitDepth, 1, wavFormatPCM)

	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * 32767))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		Data:           data,
		SourceBitDepth: encodeBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

// Decode reads a PCM WAV and keeps its first channel, normalised by bit depth
func Decode(r io.ReadSeeker) (*models.AudioClip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWav
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}

	var scale, offset float64
	switch dec.BitDepth {
	case 8:
		// 8-bit WAV is unsigned
		scale, offset = 128, 128
	case 16:
		scale = 32768
	case 24:
		scale = 8388608
	case 32:
		scale = 2147483648
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, dec.BitDepth)
	}

	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		samples = append(samples, float32((float64(buf.Data[i])-offset)/scale))
	}

	return &models.AudioClip{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}
