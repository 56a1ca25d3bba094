package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/fretcheck/internal/audiofile"
	"github.com/RMahshie/fretcheck/pkg/models"
)

func TestRun_Simulate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"in tune", []string{"--note", "E2", "--simulate", "82"}, `Result: (Target Pitch: 82 Hz Recorded Pitch: 82 Hz): "Perfect!"`},
		{"sharp", []string{"--note", "E2", "--simulate", "90"}, `Result: (Target Pitch: 82 Hz Recorded Pitch: 90 Hz): "You should loosen your string!"`},
		{"flat", []string{"-n", "a2", "--simulate", "104"}, `Result: (Target Pitch: 110 Hz Recorded Pitch: 104 Hz): "You should tighten your string!"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			require.Equal(t, exitOK, code, stderr.String())
			assert.Equal(t, tt.want+"\n", stdout.String())
		})
	}
}

func TestRun_Wav(t *testing.T) {
	samples := make([]float32, 48000)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*147*float64(i)/48000))
	}
	data, err := audiofile.Encode(&models.AudioClip{Samples: samples, SampleRate: 48000})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "d3.wav")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--note", "D3", "--wav", path}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), `Recorded Pitch: 147 Hz): "Perfect!"`)
}

func TestRun_Silence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	data, err := audiofile.Encode(&models.AudioClip{Samples: make([]float32, 48000), SampleRate: 48000})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--note", "E2", "--wav", path}, &stdout, &stderr)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "Recorded Pitch: 0 Hz")
	assert.Contains(t, stdout.String(), "Warning: low confidence")
}

func TestRun_List(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"--list"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "G3S")
	assert.Contains(t, stdout.String(), "drop-d")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, run([]string{"--note", "Z1"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--list")

	assert.Equal(t, exitUsage, run([]string{"--bogus"}, &stdout, &stderr))
}

func TestRun_MissingWav(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitError, run([]string{"--note", "E2", "--wav", "/nonexistent/file.wav"}, &stdout, &stderr))
}
