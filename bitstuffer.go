package lerc

import (
	"encoding/binary"
)

// A bitStuffer unpacks arrays of fixed-bit-width unsigned integers from a
// byte stream, optionally through a small dictionary (LUT) of distinct
// values. The three scratch buffers are cleared and resized, never
// reallocated when capacity allows, so one instance can decode many tiles
// without per-call allocation. Instances are not safe for concurrent use;
// the returned slice aliases the output scratch buffer and is only valid
// until the next decode call.
type bitStuffer struct {
	lut   []uint32
	words []uint32
	out   []uint32
}

// resizeU32 returns s resized to n elements, zeroed, reusing capacity.
func resizeU32(s []uint32, n int) []uint32 {
	if cap(s) < n {
		return make([]uint32, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

// decodeUint reads a little-endian unsigned integer of 1, 2 or 4 bytes and
// advances *pos.
func decodeUint(data []byte, pos *int, numBytes int) (uint32, error) {
	if *pos+numBytes > len(data) {
		return 0, FormatError("count field past end of input")
	}

	var v uint32
	switch numBytes {
	case 1:
		v = uint32(data[*pos])
	case 2:
		v = uint32(binary.LittleEndian.Uint16(data[*pos:]))
	case 4:
		v = binary.LittleEndian.Uint32(data[*pos:])
	default:
		return 0, FormatError("invalid count field width")
	}

	*pos += numBytes
	return v, nil
}

// numTailBytesNotNeeded returns how many bytes of the last 32-bit word carry
// no payload bits.
func numTailBytesNotNeeded(numElements, numBits int) int {
	tailBits := (numElements * numBits) & 31
	tailBytes := (tailBits + 7) >> 3
	if tailBytes > 0 {
		return 4 - tailBytes
	}
	return 0
}

// unstuff decodes numElements values of numBits each, packed LSB-first into
// little-endian 32-bit words (the version >= 3 layout), into s.out.
func (s *bitStuffer) unstuff(data []byte, pos *int, numElements, numBits int) error {
	if numElements == 0 || numBits <= 0 || numBits >= maxElementBits {
		return FormatError("invalid bit stuffing parameters")
	}

	numWords := (numElements*numBits + 31) / 32
	numBytesUsed := numWords*4 - numTailBytesNotNeeded(numElements, numBits)

	if *pos+numBytesUsed > len(data) {
		return FormatError("bit-stuffed data past end of input")
	}

	s.words = resizeU32(s.words, numWords)
	src := data[*pos : *pos+numBytesUsed]

	fullWords := numBytesUsed / 4
	for i := 0; i < fullWords; i++ {
		s.words[i] = binary.LittleEndian.Uint32(src[i*4:])
	}
	if rem := numBytesUsed - fullWords*4; rem > 0 {
		var v uint32
		for j := 0; j < rem; j++ {
			v |= uint32(src[fullWords*4+j]) << (j * 8)
		}
		s.words[fullWords] = v
	}

	s.out = resizeU32(s.out, numElements)

	srcIdx := 0
	bitPos := 0
	nb := 32 - numBits
	for i := 0; i < numElements; i++ {
		if nb-bitPos >= 0 {
			s.out[i] = (s.words[srcIdx] << (nb - bitPos)) >> nb
			bitPos += numBits
			if bitPos == 32 {
				srcIdx++
				bitPos = 0
			}
		} else {
			s.out[i] = s.words[srcIdx] >> bitPos
			srcIdx++
			s.out[i] |= (s.words[srcIdx] << (64 - numBits - bitPos)) >> nb
			bitPos -= nb
		}
	}

	*pos += numBytesUsed
	return nil
}

// unstuffBeforeV3 decodes the legacy layout (versions 1 and 2): values are
// packed MSB-first into words read with big-endian byte order. Both layouts
// must stay exactly as written, bit-for-bit compatibility with old files is
// a hard requirement.
func (s *bitStuffer) unstuffBeforeV3(data []byte, pos *int, numElements, numBits int) error {
	if numElements == 0 || numBits <= 0 || numBits >= maxElementBits {
		return FormatError("invalid bit stuffing parameters")
	}

	numWords := (numElements*numBits + 31) / 32
	tailBytes := numTailBytesNotNeeded(numElements, numBits)
	numBytesToCopy := (numElements*numBits + 7) / 8

	if *pos+numBytesToCopy > len(data) {
		return FormatError("bit-stuffed data past end of input")
	}

	s.words = resizeU32(s.words, numWords)
	src := data[*pos : *pos+numBytesToCopy]

	for i := 0; i < numWords; i++ {
		var v uint32
		for j := 0; j < 4; j++ {
			if b := i*4 + j; b < numBytesToCopy {
				v |= uint32(src[b]) << (24 - j*8)
			}
		}
		s.words[i] = v
	}

	// The legacy encoder wrote the last word high-byte aligned.
	for i := 0; i < tailBytes; i++ {
		s.words[numWords-1] <<= 8
	}

	s.out = resizeU32(s.out, numElements)

	srcIdx := 0
	bitPos := 0
	for i := 0; i < numElements; i++ {
		if 32-bitPos >= numBits {
			n := s.words[srcIdx] << bitPos
			s.out[i] = n >> (32 - numBits)
			bitPos += numBits
			if bitPos == 32 {
				bitPos = 0
				srcIdx++
			}
		} else {
			n := s.words[srcIdx] << bitPos
			srcIdx++
			s.out[i] = n >> (32 - numBits)
			bitPos -= 32 - numBits
			s.out[i] |= s.words[srcIdx] >> (32 - bitPos)
		}
	}

	*pos += numBytesToCopy
	return nil
}

// unstuffVersioned dispatches on the two physical layouts.
func (s *bitStuffer) unstuffVersioned(data []byte, pos *int, numElements, numBits, version int) error {
	if version >= 3 {
		return s.unstuff(data, pos, numElements, numBits)
	}
	return s.unstuffBeforeV3(data, pos, numElements, numBits)
}

// decode reads one bit-stuffed array at *pos and returns the decoded values.
// The control byte holds the count field width in bits 6-7 (0 selects 4
// bytes, otherwise 3-bits67), the LUT flag in bit 5 and the bit width in
// bits 0-4. A bit width of 0 outside LUT mode is the valid "all zeros"
// encoding. The result aliases scratch memory owned by s.
func (s *bitStuffer) decode(data []byte, pos *int, maxElementCount, version int) ([]uint32, error) {
	if *pos >= len(data) {
		return nil, FormatError("bit stuffing control byte past end of input")
	}

	ctl := data[*pos]
	*pos++

	bits67 := int(ctl >> 6)
	nb := 4
	if bits67 != 0 {
		nb = 3 - bits67
	}
	doLUT := ctl&(1<<5) != 0
	numBits := int(ctl & 31)

	n, err := decodeUint(data, pos, nb)
	if err != nil {
		return nil, err
	}
	numElements := int(n)
	if numElements > maxElementCount {
		return nil, FormatError("element count exceeds maximum")
	}

	if !doLUT {
		if numBits == 0 {
			// All values are zero; no payload follows.
			s.out = resizeU32(s.out, numElements)
			return s.out, nil
		}
		if err := s.unstuffVersioned(data, pos, numElements, numBits, version); err != nil {
			return nil, err
		}
		return s.out, nil
	}

	if numBits == 0 {
		return nil, FormatError("LUT mode with zero bit width")
	}
	if *pos >= len(data) {
		return nil, FormatError("LUT size past end of input")
	}

	nLUT := int(data[*pos]) - 1
	*pos++
	if nLUT < 1 {
		return nil, FormatError("LUT with fewer than 2 entries")
	}

	if err := s.unstuffVersioned(data, pos, nLUT, numBits, version); err != nil {
		return nil, err
	}

	// Value 0 is the implicit first table entry; it is never encoded, so the
	// stored table holds entries 1..nLUT and every index shifts up by one.
	s.lut = resizeU32(s.lut, nLUT+1)
	s.lut[0] = 0
	copy(s.lut[1:], s.out)

	nBitsLUT := 0
	for tmp := nLUT; tmp > 0; tmp >>= 1 {
		nBitsLUT++
	}
	if nBitsLUT == 0 {
		return nil, FormatError("invalid LUT index width")
	}

	if err := s.unstuffVersioned(data, pos, numElements, nBitsLUT, version); err != nil {
		return nil, err
	}

	for i, idx := range s.out {
		if int(idx) >= len(s.lut) {
			return nil, FormatError("LUT index out of range")
		}
		s.out[i] = s.lut[idx]
	}

	return s.out, nil
}
