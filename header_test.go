package lerc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadHeader(t *testing.T) {
	blob := buildBlob(blobSpec{
		version: 2, rows: 4, cols: 5, numValid: 20, micro: 4,
		dt: TypeByte, maxZError: 0.5, zMin: 1, zMax: 9,
	}, nil)

	hd, hasMask, err := getHeaderInfo(blob)
	assert.NoError(t, err)
	assert.False(t, hasMask)
	assert.Equal(t, 2, hd.version)
	assert.Equal(t, 4, hd.rows)
	assert.Equal(t, 5, hd.cols)
	assert.Equal(t, 1, hd.depth)
	assert.Equal(t, 20, hd.numValidPixel)
	assert.Equal(t, TypeByte, hd.dt)
	assert.Equal(t, 0.5, hd.maxZError)
	assert.Equal(t, 1.0, hd.zMin)
	assert.Equal(t, 9.0, hd.zMax)
	assert.Equal(t, len(blob), hd.blobSize)
}

func TestReadHeaderPartialMask(t *testing.T) {
	blob := buildBlob(blobSpec{
		version: 2, rows: 4, cols: 4, numValid: 7, micro: 4,
		dt: TypeFloat, maxZError: 0.1, zMin: 0, zMax: 1,
	}, nil)

	_, hasMask, err := getHeaderInfo(blob)
	assert.NoError(t, err)
	assert.True(t, hasMask)
}

func TestReadHeaderRejects(t *testing.T) {
	good := blobSpec{
		version: 2, rows: 4, cols: 4, numValid: 16, micro: 4,
		dt: TypeByte, maxZError: 0.5, zMin: 1, zMax: 9,
	}

	// Wrong key.
	blob := buildBlob(good, nil)
	blob[0] = 'X'
	_, _, err := getHeaderInfo(blob)
	assert.Error(t, err)

	// Unsupported version.
	spec := good
	spec.version = 7
	_, _, err = getHeaderInfo(buildBlob(spec, nil))
	assert.Error(t, err)

	// Bad data type.
	spec = good
	spec.dt = TypeUndefined
	_, _, err = getHeaderInfo(buildBlob(spec, nil))
	assert.Error(t, err)

	// Zero dimensions.
	spec = good
	spec.rows = 0
	_, _, err = getHeaderInfo(buildBlob(spec, nil))
	assert.Error(t, err)

	// More valid pixels than the raster holds.
	spec = good
	spec.numValid = 17
	_, _, err = getHeaderInfo(buildBlob(spec, nil))
	assert.Error(t, err)

	// Depth so large the raster size overflows 32 bits.
	spec = good
	spec.version = 4
	spec.depth = 1 << 28
	_, _, err = getHeaderInfo(buildBlob(spec, nil))
	assert.EqualError(t, err, "lerc: invalid format: raster dimensions overflow")

	// Truncated header.
	_, _, err = getHeaderInfo(buildBlob(good, nil)[:20])
	assert.Error(t, err)

	_, _, err = getHeaderInfo(nil)
	assert.Error(t, err)
}

func TestFletcher32(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), fletcher32(nil))
	assert.Equal(t, uint32(0x01000100), fletcher32([]byte{0x01}))

	data := []byte("limited error raster compression")
	sum := fletcher32(data)
	assert.Equal(t, sum, fletcher32(data))

	corrupt := append([]byte(nil), data...)
	corrupt[4] ^= 0x01
	assert.NotEqual(t, sum, fletcher32(corrupt))
}

func TestFletcher32LongInput(t *testing.T) {
	// More than one 359-word reduction block.
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 31)
	}
	sum := fletcher32(data)
	assert.Equal(t, sum, fletcher32(data))
	assert.NotEqual(t, sum, fletcher32(data[:4095]))
}
