package lerc

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
)

func testBlob() []byte {
	return buildBlob(blobSpec{
		version: 2, rows: 4, cols: 4, numValid: 16, micro: 4,
		dt: TypeByte, maxZError: 0.5, zMin: 9, zMax: 9,
	}, []byte{0, 0, 0, 0})
}

func TestUnwrapPassthrough(t *testing.T) {
	blob := testBlob()
	out, err := unwrap(blob)
	assert.NoError(t, err)
	assert.Equal(t, blob, out)

	// Unrecognized bytes pass through untouched; the header parser catches
	// them later.
	garbage := []byte{1, 2, 3, 4, 5}
	out, err = unwrap(garbage)
	assert.NoError(t, err)
	assert.Equal(t, garbage, out)

	short := []byte{0x78}
	out, err = unwrap(short)
	assert.NoError(t, err)
	assert.Equal(t, short, out)
}

func TestUnwrapDeflate(t *testing.T) {
	blob := testBlob()

	var wrapped bytes.Buffer
	w := zlib.NewWriter(&wrapped)
	_, err := w.Write(blob)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	out, err := unwrap(wrapped.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, blob, out)

	// The public entry points unwrap transparently.
	raster, err := Decode(wrapped.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, uint8(9), raster.Pixels.(BytePixels)[0])
}

func TestUnwrapZstd(t *testing.T) {
	blob := testBlob()

	enc, err := zstd.NewWriter(nil)
	assert.NoError(t, err)
	wrapped := enc.EncodeAll(blob, nil)
	assert.NoError(t, enc.Close())

	out, err := unwrap(wrapped)
	assert.NoError(t, err)
	assert.Equal(t, blob, out)

	info, err := GetBlobInfo(wrapped)
	assert.NoError(t, err)
	assert.Equal(t, 4, info.Cols)
	assert.Equal(t, TypeByte, info.DataType)
}

func TestUnwrapCorruptEnvelope(t *testing.T) {
	// A valid zlib header over garbage.
	_, err := unwrap([]byte{0x78, 0x9C, 0xFF, 0xFF, 0xFF, 0xFF})
	assert.Error(t, err)
}
