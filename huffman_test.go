package lerc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexWrapAround(t *testing.T) {
	assert.Equal(t, 3, indexWrapAround(3, 10))
	assert.Equal(t, 0, indexWrapAround(10, 10))
	assert.Equal(t, 2, indexWrapAround(12, 10))
}

// packMSB packs a bit string, most significant bit first, into
// little-endian 32-bit words.
func packMSB(bits []int) []byte {
	numWords := (len(bits) + 31) / 32
	words := make([]uint32, numWords)
	for i, b := range bits {
		if b != 0 {
			words[i/32] |= 1 << (31 - i%32)
		}
	}
	out := make([]byte, numWords*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestHuffmanDecodeLUT(t *testing.T) {
	h := huffman{
		codeTable: []huffmanCode{
			{length: 1, code: 0},    // symbol 0: "0"
			{length: 2, code: 0b10}, // symbol 1: "10"
			{length: 2, code: 0b11}, // symbol 2: "11"
		},
	}
	assert.NoError(t, h.buildTree())
	assert.Nil(t, h.root)

	// Symbols 1, 0, 2, 0.
	data := packMSB([]int{1, 0, 0, 1, 1, 0})

	pos := 0
	bitPos := 0
	for _, want := range []int{1, 0, 2, 0} {
		v, err := h.decodeOne(data, &pos, &bitPos)
		assert.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestHuffmanDecodeTree(t *testing.T) {
	// Symbol 1 and 2 exceed the LUT width and decode through the tree.
	h := huffman{
		codeTable: []huffmanCode{
			{length: 1, code: 0},
			{length: 13, code: 1 << 12},
			{length: 13, code: 1<<12 | 1},
		},
	}
	assert.NoError(t, h.buildTree())
	assert.NotNil(t, h.root)

	bits := make([]int, 0, 32)
	bits = append(bits, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // symbol 1
	bits = append(bits, 0)                                      // symbol 0
	bits = append(bits, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1) // symbol 2
	data := packMSB(bits)

	pos := 0
	bitPos := 0
	for _, want := range []int{1, 0, 2} {
		v, err := h.decodeOne(data, &pos, &bitPos)
		assert.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestHuffmanDecodeWordCrossing(t *testing.T) {
	h := huffman{
		codeTable: []huffmanCode{
			{length: 1, code: 0},
			{length: 2, code: 0b10},
			{length: 2, code: 0b11},
		},
	}
	assert.NoError(t, h.buildTree())

	// 31 one-bit symbols, then a two-bit code straddling the word boundary.
	bits := make([]int, 0, 64)
	for i := 0; i < 31; i++ {
		bits = append(bits, 0)
	}
	bits = append(bits, 1, 0)
	data := packMSB(bits)

	pos := 0
	bitPos := 0
	for i := 0; i < 31; i++ {
		v, err := h.decodeOne(data, &pos, &bitPos)
		assert.NoError(t, err)
		assert.Equal(t, 0, v)
	}
	v, err := h.decodeOne(data, &pos, &bitPos)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestHuffmanReadCodeTableLengthTooLong(t *testing.T) {
	buf := make([]byte, 0, 20)
	buf = appendU32(buf, 3) // table version
	buf = appendU32(buf, 2) // size
	buf = appendU32(buf, 0) // i0
	buf = appendU32(buf, 1) // i1
	// One stuffed code length of 33 bits, one byte count, 6-bit entries.
	buf = append(buf, 0x86, 0x01, 0x21)

	var h huffman
	pos := 0
	err := h.readCodeTable(buf, &pos, 3)
	assert.EqualError(t, err, "lerc: invalid format: Huffman code length exceeds 32 bits")
}

func TestHuffmanCodeRangeEmpty(t *testing.T) {
	h := huffman{codeTable: make([]huffmanCode, 8)}
	_, _, _, err := h.codeRange()
	assert.Error(t, err)

	h = huffman{}
	_, _, _, err = h.codeRange()
	assert.Error(t, err)
}

func TestHuffmanDecodePastEnd(t *testing.T) {
	h := huffman{
		codeTable: []huffmanCode{
			{length: 1, code: 0},
			{length: 2, code: 0b10},
			{length: 2, code: 0b11},
		},
	}
	assert.NoError(t, h.buildTree())

	pos := 0
	bitPos := 0
	_, err := h.decodeOne([]byte{0x00, 0x00}, &pos, &bitPos)
	assert.Error(t, err)
}
