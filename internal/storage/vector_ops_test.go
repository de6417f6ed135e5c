package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVector(t *testing.T) {
	blob := SerializeVector([]float32{1})
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, blob, "little-endian IEEE 754")
	assert.Empty(t, SerializeVector(nil))
}

func TestVectorRoundTripIsBitIdentical(t *testing.T) {
	input := []float32{
		0, float32(math.Copysign(0, -1)), 1e-45, -3.4028235e38,
		float32(math.Inf(1)), float32(math.Inf(-1)),
		math.Float32frombits(0x7fc00001), // NaN with payload
		0.1, 1.0 / 3,
	}

	got, err := DeserializeVector(SerializeVector(input))
	require.NoError(t, err)
	require.Len(t, got, len(input))
	for i := range input {
		assert.Equal(t, math.Float32bits(input[i]), math.Float32bits(got[i]), "index %d", i)
	}
}

func TestDeserializeVectorRejectsTruncatedBlob(t *testing.T) {
	_, err := DeserializeVector([]byte{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrCorrupt)
}
