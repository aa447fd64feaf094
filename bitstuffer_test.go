package lerc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeUint(t *testing.T) {
	data := []byte{0x78, 0x56, 0x34, 0x12}

	pos := 0
	v, err := decodeUint(data, &pos, 1)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x78), v)
	assert.Equal(t, 1, pos)

	pos = 0
	v, err = decodeUint(data, &pos, 2)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x5678), v)

	pos = 0
	v, err = decodeUint(data, &pos, 4)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	pos = 2
	_, err = decodeUint(data, &pos, 4)
	assert.Error(t, err)

	pos = 0
	_, err = decodeUint(data, &pos, 3)
	assert.Error(t, err)
}

func TestNumTailBytesNotNeeded(t *testing.T) {
	assert.Equal(t, 0, numTailBytesNotNeeded(8, 4))  // exactly one word
	assert.Equal(t, 2, numTailBytesNotNeeded(5, 3))  // 15 bits
	assert.Equal(t, 3, numTailBytesNotNeeded(2, 3))  // 6 bits
	assert.Equal(t, 0, numTailBytesNotNeeded(16, 2)) // 32 bits
}

func TestBitStufferZeroBits(t *testing.T) {
	// Bit width 0 without a LUT means every value is zero and no payload
	// follows the count.
	data := []byte{0x00, 0x05, 0x00, 0x00, 0x00}

	var s bitStuffer
	pos := 0
	out, err := s.decode(data, &pos, 100, 6)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 0, 0, 0}, out)
	assert.Equal(t, 5, pos)
}

func TestBitStufferUnstuff(t *testing.T) {
	// Five 3-bit values {5, 0, 7, 3, 1} packed LSB-first: 15 bits, so the
	// last two bytes of the word are not stored.
	word := uint32(5) | 0<<3 | 7<<6 | 3<<9 | 1<<12
	data := []byte{byte(word), byte(word >> 8)}

	var s bitStuffer
	pos := 0
	assert.NoError(t, s.unstuff(data, &pos, 5, 3))
	assert.Equal(t, []uint32{5, 0, 7, 3, 1}, s.out)
	assert.Equal(t, 2, pos)
}

func TestBitStufferUnstuffWordCrossing(t *testing.T) {
	// Seven 5-bit values cross the first word boundary.
	vals := []uint32{31, 0, 17, 9, 30, 1, 22}
	var lo, hi uint64
	for i, v := range vals {
		lo |= uint64(v) << (i * 5)
	}
	hi = lo >> 32
	data := []byte{
		byte(lo), byte(lo >> 8), byte(lo >> 16), byte(lo >> 24),
		byte(hi),
	}

	var s bitStuffer
	pos := 0
	assert.NoError(t, s.unstuff(data, &pos, 7, 5))
	assert.Equal(t, vals, s.out)
	assert.Equal(t, 5, pos)
}

func TestBitStufferUnstuffBeforeV3(t *testing.T) {
	// Eight 4-bit values packed MSB-first into one big-endian word.
	vals := []uint32{1, 15, 0, 7, 8, 3, 12, 5}
	var word uint32
	for i, v := range vals {
		word |= v << (28 - i*4)
	}
	data := []byte{byte(word >> 24), byte(word >> 16), byte(word >> 8), byte(word)}

	var s bitStuffer
	pos := 0
	assert.NoError(t, s.unstuffBeforeV3(data, &pos, 8, 4))
	assert.Equal(t, vals, s.out)
	assert.Equal(t, 4, pos)
}

func TestBitStufferDecode(t *testing.T) {
	// Control byte: count on 4 bytes, no LUT, 3 bits per value.
	word := uint32(5) | 0<<3 | 7<<6 | 3<<9 | 1<<12
	data := []byte{
		0x03,
		0x05, 0x00, 0x00, 0x00,
		byte(word), byte(word >> 8),
	}

	var s bitStuffer
	pos := 0
	out, err := s.decode(data, &pos, 5, 6)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{5, 0, 7, 3, 1}, out)
	assert.Equal(t, len(data), pos)
}

func TestBitStufferDecodeShortCount(t *testing.T) {
	// Control byte 0x83: bits 6-7 = 2 select a single count byte.
	word := uint32(5) | 0<<3 | 7<<6 | 3<<9 | 1<<12
	data := []byte{
		0x83,
		0x05,
		byte(word), byte(word >> 8),
	}

	var s bitStuffer
	pos := 0
	out, err := s.decode(data, &pos, 5, 6)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{5, 0, 7, 3, 1}, out)
}

func TestBitStufferDecodeLUT(t *testing.T) {
	// LUT with entries {0, 40, 90}: the zero entry is implicit, the stored
	// table holds {40, 90} at 7 bits each, indices use 2 bits.
	lutWord := uint32(40) | 90<<7
	idxWord := uint32(1) | 2<<2 | 0<<4 | 1<<6 | 2<<8 | 2<<10
	data := []byte{
		0x20 | 7, // count on 4 bytes, LUT flag, 7 bits
		0x06, 0x00, 0x00, 0x00,
		0x03, // lut size byte: 3 - 1 = 2 stored entries
		byte(lutWord), byte(lutWord >> 8),
		byte(idxWord), byte(idxWord >> 8),
	}

	var s bitStuffer
	pos := 0
	out, err := s.decode(data, &pos, 6, 6)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{40, 90, 0, 40, 90, 90}, out)
	assert.Equal(t, len(data), pos)
}

func TestBitStufferDecodeCountTooLarge(t *testing.T) {
	data := []byte{0x03, 0xFF, 0x00, 0x00, 0x00, 0xAA, 0xAA}

	var s bitStuffer
	pos := 0
	_, err := s.decode(data, &pos, 5, 6)
	assert.Error(t, err)
}

func TestBitStufferDecodeInvalidCountWidth(t *testing.T) {
	// Bits 6-7 = 3 selects a zero-byte count field, which is invalid.
	data := []byte{0xC3, 0x05, 0xAA, 0xAA}

	var s bitStuffer
	pos := 0
	_, err := s.decode(data, &pos, 5, 6)
	assert.Error(t, err)
}
