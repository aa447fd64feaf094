package lerc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRLEDecompress(t *testing.T) {
	// A literal run of two bytes, a repeat run of three, then the
	// terminator count.
	data := []byte{
		0x02, 0x00, 0x11, 0x22,
		0xFD, 0xFF, 0x33,
		0x00, 0x80,
	}

	size, err := rleDecompressedSize(data)
	assert.NoError(t, err)
	assert.Equal(t, 5, size)

	dst := make([]byte, 5)
	assert.NoError(t, rleDecompress(data, dst))
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x33, 0x33}, dst)

	out, err := rleDecompressAlloc(data)
	assert.NoError(t, err)
	assert.Equal(t, dst, out)
}

func TestRLEDecompressEmpty(t *testing.T) {
	data := []byte{0x00, 0x80}

	size, err := rleDecompressedSize(data)
	assert.NoError(t, err)
	assert.Equal(t, 0, size)

	assert.NoError(t, rleDecompress(data, nil))
}

func TestRLEDecompressTruncated(t *testing.T) {
	// Missing terminator.
	assert.Error(t, rleDecompress([]byte{0x02, 0x00, 0x11, 0x22}, make([]byte, 2)))

	// Literal run past the end of input.
	assert.Error(t, rleDecompress([]byte{0x05, 0x00, 0x11}, make([]byte, 5)))

	// Repeat run with no value byte.
	assert.Error(t, rleDecompress([]byte{0xFD, 0xFF}, make([]byte, 3)))

	// Count field alone.
	_, err := rleDecompressedSize([]byte{0x02})
	assert.Error(t, err)
}

func TestRLEDecompressOverflow(t *testing.T) {
	data := []byte{
		0x02, 0x00, 0x11, 0x22,
		0xFD, 0xFF, 0x33,
		0x00, 0x80,
	}

	// Destination too small for the decoded stream.
	assert.Error(t, rleDecompress(data, make([]byte, 4)))
}
