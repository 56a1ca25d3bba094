package capture

import (
	"testing"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCaptureDevice(t *testing.T) {
	first := malgo.DeviceInfo{FormatCount: 1}
	def := malgo.DeviceInfo{IsDefault: 1, FormatCount: 2}

	got, err := selectCaptureDevice([]malgo.DeviceInfo{first, def})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.IsDefault)

	got, err = selectCaptureDevice([]malgo.DeviceInfo{first, {FormatCount: 3}})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.FormatCount)

	_, err = selectCaptureDevice(nil)
	assert.ErrorIs(t, err, ErrNoInputDevice)
}

func TestCaptureFormat_FirstReported(t *testing.T) {
	info := malgo.DeviceInfo{
		FormatCount: 2,
		Formats: []malgo.DataFormat{
			{Format: malgo.FormatS16, Channels: 2, SampleRate: 44100},
			{Format: malgo.FormatF32, Channels: 1, SampleRate: 48000},
		},
	}

	got, err := captureFormat(info)
	require.NoError(t, err)
	assert.Equal(t, malgo.FormatS16, got.Format)
	assert.Equal(t, uint32(2), got.Channels)
	assert.Equal(t, uint32(44100), got.SampleRate)
}

func TestCaptureFormat_NoneReported(t *testing.T) {
	_, err := captureFormat(malgo.DeviceInfo{})
	assert.ErrorIs(t, err, ErrNoSupportedConfig)
	assert.True(t, IsDeviceError(err))
}

func TestCaptureFormat_UnknownFormatFallsBackToF32(t *testing.T) {
	info := malgo.DeviceInfo{
		FormatCount: 1,
		Formats:     []malgo.DataFormat{{Format: malgo.FormatUnknown, Channels: 1, SampleRate: 48000}},
	}

	got, err := captureFormat(info)
	require.NoError(t, err)
	assert.Equal(t, malgo.FormatF32, got.Format)
	assert.Equal(t, uint32(48000), got.SampleRate)
}
