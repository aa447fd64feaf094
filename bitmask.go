package lerc

import "math/bits"

// A bitMask tracks valid/invalid pixels of a raster, one bit per pixel in
// row-major order. Bit 7 of byte 0 is pixel 0, bit 6 is pixel 1, and so on.
type bitMask struct {
	bits []byte
	cols int
	rows int
}

// newBitMask returns a mask of the given dimensions with every pixel invalid.
func newBitMask(cols, rows int) (*bitMask, error) {
	m := &bitMask{}
	if err := m.setSize(cols, rows); err != nil {
		return nil, err
	}
	return m, nil
}

// setSize resizes the mask in place. Bits already set keep their byte
// positions; callers are expected to overwrite the whole mask afterwards.
func (m *bitMask) setSize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return FormatError("invalid mask dimensions")
	}

	size := bitMaskSize(cols, rows)
	if cap(m.bits) < size {
		m.bits = make([]byte, size)
	}
	m.bits = m.bits[:size]
	m.cols = cols
	m.rows = rows
	return nil
}

// bitMaskSize returns the byte size needed for the given dimensions.
func bitMaskSize(cols, rows int) int {
	return (cols*rows + 7) >> 3
}

func (m *bitMask) size() int   { return bitMaskSize(m.cols, m.rows) }
func (m *bitMask) width() int  { return m.cols }
func (m *bitMask) height() int { return m.rows }

// bit returns the in-byte pattern for linear pixel index k.
func bit(k int) byte {
	return byte(0x80 >> (k & 7))
}

// isValid reports whether pixel k is valid. Out-of-range indices read as
// invalid.
func (m *bitMask) isValid(k int) bool {
	i := k >> 3
	if i < 0 || i >= len(m.bits) {
		return false
	}
	return m.bits[i]&bit(k) != 0
}

// isValidAt reports whether the pixel at (row, col) is valid.
func (m *bitMask) isValidAt(row, col int) bool {
	return m.isValid(row*m.cols + col)
}

// setValid marks pixel k valid. Out-of-range indices are ignored.
func (m *bitMask) setValid(k int) {
	i := k >> 3
	if i >= 0 && i < len(m.bits) {
		m.bits[i] |= bit(k)
	}
}

// setInvalid marks pixel k invalid. Out-of-range indices are ignored.
func (m *bitMask) setInvalid(k int) {
	i := k >> 3
	if i >= 0 && i < len(m.bits) {
		m.bits[i] &^= bit(k)
	}
}

func (m *bitMask) setAllValid() {
	for i := range m.bits {
		m.bits[i] = 0xFF
	}
}

func (m *bitMask) setAllInvalid() {
	for i := range m.bits {
		m.bits[i] = 0x00
	}
}

// countValid returns the number of valid pixels. Stray bits past the last
// pixel of the final byte are not counted.
func (m *bitMask) countValid() int {
	total := m.cols * m.rows
	full := total >> 3
	n := 0
	for _, b := range m.bits[:full] {
		n += bits.OnesCount8(b)
	}
	if rem := total & 7; rem > 0 {
		n += bits.OnesCount8(m.bits[full] >> (8 - rem))
	}
	return n
}

// copyFrom overwrites the mask bytes with src. src may be longer than the
// mask; it must not be shorter.
func (m *bitMask) copyFrom(src []byte) error {
	if len(src) < len(m.bits) {
		return FormatError("mask buffer too small")
	}
	copy(m.bits, src[:len(m.bits)])
	return nil
}

// bools expands the mask to one boolean per pixel in row-major order.
func (m *bitMask) bools() []bool {
	out := make([]bool, m.cols*m.rows)
	for k := range out {
		out[k] = m.isValid(k)
	}
	return out
}
