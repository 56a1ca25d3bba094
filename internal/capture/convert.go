package capture

import (
	"encoding/binary"
	"math"
)

// sampleFormat is the encoding of one sample in a raw device buffer
type sampleFormat int

const (
	formatU8 sampleFormat = iota
	formatS16
	formatS24
	formatS32
	formatF32
)

func (f sampleFormat) bytesPerSample() int {
	switch f {
	case formatU8:
		return 1
	case formatS16:
		return 2
	case formatS24:
		return 3
	default:
		return 4
	}
}

func (f sampleFormat) String() string {
	switch f {
	case formatU8:
		return "u8"
	case formatS16:
		return "s16"
	case formatS24:
		return "s24"
	case formatS32:
		return "s32"
	case formatF32:
		return "f32"
	default:
		return "unknown"
	}
}

// appendFirstChannel decodes interleaved little-endian frames and appends the
// first channel of each one, normalised to [-1, 1]. A trailing partial frame
// still contributes its first sample if that sample is complete.
func appendFirstChannel(dst []float32, data []byte, format sampleFormat, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	width := format.bytesPerSample()
	stride := width * channels

	for off := 0; off+width <= len(data); off += stride {
		dst = append(dst, decodeSample(data[off:off+width], format))
	}
	return dst
}

func decodeSample(b []byte, format sampleFormat) float32 {
	switch format {
	case formatU8:
		return (float32(b[0]) - 128) / 128
	case formatS16:
		return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
	case formatS24:
		v := int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) << 8 >> 8
		return float32(v) / 8388608
	case formatS32:
		return float32(float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648)
	default:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
}

// appendFirstChannelFloat is appendFirstChannel for callbacks that already
// deliver float32 frames
func appendFirstChannelFloat(dst []float32, in []float32, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	for i := 0; i < len(in); i += channels {
		dst = append(dst, in[i])
	}
	return dst
}
