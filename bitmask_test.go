package lerc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitMaskSetGet(t *testing.T) {
	m, err := newBitMask(5, 3)
	assert.NoError(t, err)
	assert.Equal(t, 2, m.size())

	m.setAllInvalid()
	assert.Equal(t, 0, m.countValid())

	m.setValid(0)
	m.setValid(7)
	m.setValid(14)
	assert.Equal(t, 3, m.countValid())
	assert.True(t, m.isValid(0))
	assert.True(t, m.isValid(7))
	assert.True(t, m.isValid(14))
	assert.False(t, m.isValid(1))
	assert.True(t, m.isValidAt(1, 2))

	m.setInvalid(7)
	assert.False(t, m.isValid(7))
	assert.Equal(t, 2, m.countValid())
}

func TestBitMaskAllValid(t *testing.T) {
	m, err := newBitMask(4, 4)
	assert.NoError(t, err)

	m.setAllValid()
	assert.Equal(t, 16, m.countValid())

	bools := m.bools()
	assert.Len(t, bools, 16)
	for _, b := range bools {
		assert.True(t, b)
	}
}

func TestBitMaskOutOfRange(t *testing.T) {
	m, err := newBitMask(4, 2)
	assert.NoError(t, err)
	m.setAllValid()

	assert.False(t, m.isValid(-1))
	assert.False(t, m.isValid(8))
	assert.False(t, m.isValidAt(2, 0))

	// Out of range writes are ignored.
	m.setValid(8)
	m.setInvalid(-1)
	assert.Equal(t, 8, m.countValid())
}

func TestBitMaskResize(t *testing.T) {
	m, err := newBitMask(8, 8)
	assert.NoError(t, err)
	m.setAllValid()

	assert.NoError(t, m.setSize(2, 2))
	assert.Equal(t, 2, m.width())
	assert.Equal(t, 2, m.height())
	assert.Equal(t, 1, m.size())

	assert.Error(t, m.setSize(0, 4))
	assert.Error(t, m.setSize(4, -1))
}

func TestBitMaskCountValidTailBits(t *testing.T) {
	// 9 pixels span two bytes; bits past the last pixel are not pixels and
	// must not be counted.
	m, err := newBitMask(3, 3)
	assert.NoError(t, err)

	m.setAllValid()
	assert.Equal(t, 9, m.countValid())

	assert.NoError(t, m.copyFrom([]byte{0xFF, 0x7F}))
	assert.Equal(t, 8, m.countValid())
}

func TestBitMaskCopyFrom(t *testing.T) {
	m, err := newBitMask(8, 2)
	assert.NoError(t, err)

	assert.NoError(t, m.copyFrom([]byte{0xF0, 0x0F}))
	assert.True(t, m.isValid(0))
	assert.False(t, m.isValid(4))
	assert.False(t, m.isValid(8))
	assert.True(t, m.isValid(12))
	assert.Equal(t, 8, m.countValid())

	assert.Error(t, m.copyFrom([]byte{0xFF}))
}
