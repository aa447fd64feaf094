package lerc

import (
	"encoding/binary"
	"fmt"
)

// Lossless floating-point mode (version >= 6, maxZError == 0). The encoder
// splits the samples into byte planes, delta-encodes each plane, compresses
// it with a small Huffman/RLE family, and applies a predictor over the bit
// patterns after moving sign and exponent bits to the front of the word.
// Decoding undoes those steps in reverse order.

const fplMaxDelta = 5

// Predictors applied over the transformed bit patterns.
const (
	fplPredictorNone     = 0
	fplPredictorDelta1   = 1
	fplPredictorRowsCols = 2
)

// Byte-plane payload encodings.
const (
	fplHuffman  = 0
	fplRLE      = 1
	fplRaw      = 2
	fplPackBits = 3
)

// decodeFPL decodes one lossless float section into the raw little-endian
// bytes of the sample array.
func decodeFPL(data []byte, pos *int, isDouble bool, width, height, depth int) ([]byte, error) {
	// Multi-depth rasters are encoded as a (depth x width*height) slice.
	if depth == 1 {
		return decodeFPLSlice(data, pos, isDouble, width, height)
	}
	return decodeFPLSlice(data, pos, isDouble, depth, width*height)
}

func decodeFPLSlice(data []byte, pos *int, isDouble bool, width, height int) ([]byte, error) {
	unitSize := 4
	if isDouble {
		unitSize = 8
	}
	planeSize := width * height

	if *pos >= len(data) {
		return nil, FormatError("FPL predictor byte past end of input")
	}
	predictor := int(data[*pos])
	*pos++
	if predictor > fplPredictorRowsCols {
		return nil, FormatError(fmt.Sprintf("invalid FPL predictor %d", predictor))
	}

	type plane struct {
		index int
		bytes []byte
	}
	planes := make([]plane, 0, unitSize)

	for p := 0; p < unitSize; p++ {
		if *pos+6 > len(data) {
			return nil, FormatError("FPL plane header past end of input")
		}

		byteIndex := int(data[*pos])
		*pos++
		if byteIndex >= unitSize {
			return nil, FormatError(fmt.Sprintf("invalid FPL byte index %d", byteIndex))
		}

		level := int(data[*pos])
		*pos++
		if level > fplMaxDelta {
			return nil, FormatError(fmt.Sprintf("invalid FPL delta level %d", level))
		}

		compressedSize := int(binary.LittleEndian.Uint32(data[*pos:]))
		*pos += 4
		if *pos+compressedSize > len(data) {
			return nil, FormatError("FPL plane payload past end of input")
		}
		payload := data[*pos : *pos+compressedSize]
		*pos += compressedSize

		decoded, err := decodeFPLPlane(payload, planeSize)
		if err != nil {
			return nil, err
		}
		restoreSequence(decoded, level)
		planes = append(planes, plane{index: byteIndex, bytes: decoded})
	}

	out := make([]byte, planeSize*unitSize)
	for i := 0; i < planeSize; i++ {
		for _, p := range planes {
			out[i*unitSize+p.index] = p.bytes[i]
		}
	}

	if isDouble {
		values := make([]uint64, planeSize)
		for i := range values {
			values[i] = binary.LittleEndian.Uint64(out[i*8:])
		}
		if predictor == fplPredictorRowsCols {
			restoreCrossDouble(values, width, height)
		} else {
			restoreBlockSequenceDouble(predictor, values, width, height)
		}
		for i, v := range values {
			binary.LittleEndian.PutUint64(out[i*8:], v)
		}
		return out, nil
	}

	values := make([]uint32, planeSize)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(out[i*4:])
	}
	if predictor == fplPredictorRowsCols {
		restoreCrossFloat(values, width, height)
	} else {
		restoreBlockSequenceFloat(predictor, values, width, height)
	}
	undoFloatTransform(values)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out, nil
}

// decodeFPLPlane expands one byte-plane payload to exactly expected bytes.
func decodeFPLPlane(data []byte, expected int) ([]byte, error) {
	if len(data) == 0 {
		return nil, FormatError("empty FPL plane payload")
	}

	switch data[0] {
	case fplHuffman:
		pos := 1
		var h huffman
		// FPL code tables always use the current physical layout.
		if err := h.readCodeTable(data, &pos, 5); err != nil {
			return nil, err
		}
		if err := h.buildTree(); err != nil {
			return nil, err
		}

		out := make([]byte, expected)
		bitPos := 0
		for i := range out {
			v, err := h.decodeOne(data, &pos, &bitPos)
			if err != nil {
				return nil, err
			}
			out[i] = byte(v)
		}
		return out, nil

	case fplRLE:
		if len(data) < 6 {
			return nil, FormatError("short FPL RLE payload")
		}
		value := data[1]
		count := int(binary.LittleEndian.Uint32(data[2:]))
		if count != expected {
			return nil, FormatError(fmt.Sprintf("FPL RLE count %d, want %d", count, expected))
		}
		out := make([]byte, expected)
		for i := range out {
			out[i] = value
		}
		return out, nil

	case fplRaw:
		if len(data) < 1+expected {
			return nil, FormatError("short FPL raw payload")
		}
		out := make([]byte, expected)
		copy(out, data[1:1+expected])
		return out, nil

	case fplPackBits:
		return unpackBits(data[1:], expected)
	}

	return nil, FormatError(fmt.Sprintf("unknown FPL plane encoding %d", data[0]))
}

// unpackBits decodes the PackBits-style run-length scheme used for byte
// planes: a header byte <= 127 copies header+1 literal bytes, larger headers
// repeat the next byte header-126 times.
func unpackBits(data []byte, expected int) ([]byte, error) {
	out := make([]byte, 0, expected)
	i := 0

	for i < len(data) && len(out) < expected {
		b := int(data[i])
		if b <= 127 {
			for ; b >= 0; b-- {
				i++
				if i >= len(data) {
					return nil, FormatError("FPL PackBits literal run past end of input")
				}
				out = append(out, data[i])
			}
			i++
		} else {
			i++
			if i >= len(data) {
				return nil, FormatError("FPL PackBits repeat run past end of input")
			}
			value := data[i]
			for ; b >= 127; b-- {
				out = append(out, value)
			}
			i++
		}
	}

	if len(out) != expected {
		return nil, FormatError(fmt.Sprintf("FPL PackBits decoded %d bytes, want %d", len(out), expected))
	}
	return out, nil
}

// restoreSequence undoes up to fplMaxDelta levels of in-place byte delta
// encoding.
func restoreSequence(data []byte, level int) {
	if level <= 0 || len(data) == 0 {
		return
	}
	for l := level; l >= 1; l-- {
		for i := l; i < len(data); i++ {
			data[i] += data[i-1]
		}
	}
}

// Bit layout after the forward transform: the exponent (plus one mantissa
// bit for floats) sits in the top bits and the sign below it, so prediction
// residuals stay small.
const (
	fltMantMask = 0x007FFFFF
	flt9BitMask = 0xFF800000

	dblMantMask  = 0x000FFFFFFFFFFFFF
	dbl12BitMask = 0xFFF0000000000000
)

// undoFloatTransform moves sign and exponent bits back to their IEEE 754
// positions.
func undoFloatTransform(data []uint32) {
	for i, v := range data {
		data[i] = undoMoveBitsToFront(v)
	}
}

func undoMoveBitsToFront(a uint32) uint32 {
	ret := a & fltMantMask
	ae := (a & flt9BitMask) >> 24 & 0xFF
	sign := a >> 23 & 0x01
	ret |= ae << 23
	ret |= sign << 31
	return ret
}

// addFloat adds two transformed float bit patterns, mantissa and exponent
// fields separately.
func addFloat(a, b uint32) uint32 {
	ret := (a + b) & fltMantMask
	ae := (a & flt9BitMask) >> 23 & 0x1FF
	be := (b & flt9BitMask) >> 23 & 0x1FF
	ret |= ((ae + be) & 0x1FF) << 23
	return ret
}

// addDouble is the 64-bit counterpart of addFloat.
func addDouble(a, b uint64) uint64 {
	am := a & dblMantMask
	bm := b & dblMantMask
	ret := (am + bm) & dblMantMask
	ae := (a & dbl12BitMask) >> 52 & 0xFFF
	be := (b & dbl12BitMask) >> 52 & 0xFFF
	ret |= ((ae + be) & 0xFFF) << 52
	return ret
}

func restoreBlockSequenceFloat(delta int, data []uint32, cols, rows int) {
	if delta == 2 {
		for row := 0; row < rows; row++ {
			start := row * cols
			for i := 2; i < cols; i++ {
				data[start+i] = addFloat(data[start+i], data[start+i-1])
			}
		}
	}
	if delta >= 1 {
		for row := 0; row < rows; row++ {
			start := row * cols
			for i := 1; i < cols; i++ {
				data[start+i] = addFloat(data[start+i], data[start+i-1])
			}
		}
	}
}

func restoreBlockSequenceDouble(delta int, data []uint64, cols, rows int) {
	if delta == 2 {
		for row := 0; row < rows; row++ {
			start := row * cols
			for i := 2; i < cols; i++ {
				data[start+i] = addDouble(data[start+i], data[start+i-1])
			}
		}
	}
	if delta >= 1 {
		for row := 0; row < rows; row++ {
			start := row * cols
			for i := 1; i < cols; i++ {
				data[start+i] = addDouble(data[start+i], data[start+i-1])
			}
		}
	}
}

// restoreCrossFloat undoes the rows-cols predictor: columns first, rows
// second, matching the encode order in reverse.
func restoreCrossFloat(data []uint32, cols, rows int) {
	for col := 0; col < cols; col++ {
		for row := 1; row < rows; row++ {
			i := row*cols + col
			data[i] = addFloat(data[i], data[i-cols])
		}
	}
	for row := 0; row < rows; row++ {
		start := row * cols
		for i := 1; i < cols; i++ {
			data[start+i] = addFloat(data[start+i], data[start+i-1])
		}
	}
}

func restoreCrossDouble(data []uint64, cols, rows int) {
	for col := 0; col < cols; col++ {
		for row := 1; row < rows; row++ {
			i := row*cols + col
			data[i] = addDouble(data[i], data[i-cols])
		}
	}
	for row := 0; row < rows; row++ {
		start := row * cols
		for i := 1; i < cols; i++ {
			data[start+i] = addDouble(data[start+i], data[start+i-1])
		}
	}
}
