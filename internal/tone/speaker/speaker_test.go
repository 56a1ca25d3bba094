package speaker

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/fretcheck/internal/tone"
)

var _ tone.Player = (*Player)(nil)

func TestEncodeFloat32LE(t *testing.T) {
	out := encodeFloat32LE([]float32{0.5, -1})
	require.Len(t, out, 8)
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(out[0:])))
	assert.Equal(t, float32(-1), math.Float32frombits(binary.LittleEndian.Uint32(out[4:])))
}
