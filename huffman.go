package lerc

import (
	"encoding/binary"
)

const (
	// Codes up to this length decode through a flat lookup table; longer
	// codes fall back to walking the tree.
	maxHuffmanBitsLUT = 12

	maxHistoSize = 1 << 15
)

// huffmanCode is one symbol's canonical code.
type huffmanCode struct {
	length uint16
	code   uint32
}

// huffmanNode is a node of the fallback decode tree. value is -1 on
// internal nodes.
type huffmanNode struct {
	value  int16
	child0 *huffmanNode
	child1 *huffmanNode
}

// A huffman decoder reads the canonical code table written by the encoder
// and decodes one symbol at a time from a stream of little-endian 32-bit
// words, most significant bit first.
type huffman struct {
	codeTable []huffmanCode

	// Flat LUT over the next numBitsLUT bits: decoded length and symbol,
	// or length -1 when the code is longer than the LUT covers.
	lutLen []int16
	lutVal []int16

	numBitsLUT      int
	numBitsSkipTree int
	root            *huffmanNode
}

// indexWrapAround folds indices of the wrap-around code range back into the
// table.
func indexWrapAround(i, size int) int {
	if i < size {
		return i
	}
	return i - size
}

// readCodeTable parses the code table header, the bit-stuffed code lengths
// and the packed codes, advancing *pos past all of it.
func (h *huffman) readCodeTable(data []byte, pos *int, version int) error {
	if *pos+16 > len(data) {
		return FormatError("Huffman table header past end of input")
	}

	tableVersion := int(int32(binary.LittleEndian.Uint32(data[*pos:])))
	size := int(int32(binary.LittleEndian.Uint32(data[*pos+4:])))
	i0 := int(int32(binary.LittleEndian.Uint32(data[*pos+8:])))
	i1 := int(int32(binary.LittleEndian.Uint32(data[*pos+12:])))
	*pos += 16

	if tableVersion < 2 {
		return UnsupportedError("Huffman table version")
	}
	if i0 >= i1 || i0 < 0 || size < 0 || size > maxHistoSize {
		return FormatError("invalid Huffman table range")
	}
	if indexWrapAround(i0, size) >= size || indexWrapAround(i1-1, size) >= size {
		return FormatError("invalid Huffman table range")
	}

	var stuffer bitStuffer
	lengths, err := stuffer.decode(data, pos, i1-i0, version)
	if err != nil {
		return err
	}
	if len(lengths) != i1-i0 {
		return FormatError("short Huffman length table")
	}

	h.codeTable = make([]huffmanCode, size)
	for i := i0; i < i1; i++ {
		length := lengths[i-i0]
		if length > 32 {
			return FormatError("Huffman code length exceeds 32 bits")
		}
		k := indexWrapAround(i, size)
		h.codeTable[k].length = uint16(length)
	}

	return h.unstuffCodes(data, pos, i0, i1)
}

// unstuffCodes reads the variable-length codes themselves, packed MSB-first
// with no alignment between symbols.
func (h *huffman) unstuffCodes(data []byte, pos *int, i0, i1 int) error {
	size := len(h.codeTable)
	bitPos := 0
	start := *pos

	for i := i0; i < i1; i++ {
		k := indexWrapAround(i, size)
		length := int(h.codeTable[k].length)
		if length == 0 {
			continue
		}

		if *pos+4 > len(data) {
			return FormatError("Huffman codes past end of input")
		}
		word := binary.LittleEndian.Uint32(data[*pos:])
		code := (word << bitPos) >> (32 - length)

		if 32-bitPos >= length {
			bitPos += length
			if bitPos == 32 {
				bitPos = 0
				*pos += 4
			}
		} else {
			bitPos += length - 32
			*pos += 4

			if *pos+4 > len(data) {
				return FormatError("Huffman codes past end of input")
			}
			word = binary.LittleEndian.Uint32(data[*pos:])
			h.codeTable[k].code = code | word>>(32-bitPos)
			continue
		}

		h.codeTable[k].code = code
	}

	// The stream is padded to a whole word.
	consumed := *pos - start
	if bitPos > 0 {
		consumed += 4
	}
	*pos = start + consumed
	return nil
}

// codeRange returns the wrap-around range of symbols with codes and the
// maximum code length.
func (h *huffman) codeRange() (i0, i1, maxLen int, err error) {
	size := len(h.codeTable)
	if size == 0 || size >= maxHistoSize {
		return 0, 0, 0, FormatError("invalid Huffman code table")
	}

	i := 0
	for i < size && h.codeTable[i].length == 0 {
		i++
	}
	first := i

	i = size - 1
	for i >= 0 && h.codeTable[i].length == 0 {
		i--
	}
	last := i + 1

	if last <= first {
		return 0, 0, 0, FormatError("empty Huffman code table")
	}

	// The encoder may rotate the range so the longest stretch of unused
	// symbols wraps past the end of the table.
	var segStart, segLen int
	for j := 0; j < size; {
		for j < size && h.codeTable[j].length > 0 {
			j++
		}
		k0 := j
		for j < size && h.codeTable[j].length == 0 {
			j++
		}
		if j-k0 > segLen {
			segStart, segLen = k0, j-k0
		}
	}

	if size-segLen < last-first {
		i0, i1 = segStart+segLen, segStart+size
	} else {
		i0, i1 = first, last
	}
	if i1 <= i0 {
		return 0, 0, 0, FormatError("invalid Huffman code range")
	}

	for i := i0; i < i1; i++ {
		k := indexWrapAround(i, size)
		maxLen = maxInt(maxLen, int(h.codeTable[k].length))
	}
	if maxLen <= 0 || maxLen > 32 {
		return 0, 0, 0, FormatError("invalid Huffman code length")
	}
	return i0, i1, maxLen, nil
}

// buildTree fills the decode LUT and, when any code exceeds the LUT width,
// the fallback tree.
func (h *huffman) buildTree() error {
	i0, i1, maxLen, err := h.codeRange()
	if err != nil {
		return err
	}

	size := len(h.codeTable)
	needTree := maxLen > maxHuffmanBitsLUT
	h.numBitsLUT = minInt(maxLen, maxHuffmanBitsLUT)

	sizeLUT := 1 << h.numBitsLUT
	h.lutLen = make([]int16, sizeLUT)
	h.lutVal = make([]int16, sizeLUT)
	for i := range h.lutLen {
		h.lutLen[i] = -1
		h.lutVal[i] = -1
	}

	minNumZeroBits := 32
	for i := i0; i < i1; i++ {
		k := indexWrapAround(i, size)
		length := int(h.codeTable[k].length)
		if length == 0 {
			continue
		}
		code := h.codeTable[k].code

		if length <= h.numBitsLUT {
			shifted := code << (h.numBitsLUT - length)
			entries := 1 << (h.numBitsLUT - length)
			for j := 0; j < entries; j++ {
				h.lutLen[int(shifted)+j] = int16(length)
				h.lutVal[int(shifted)+j] = int16(k)
			}
		} else {
			shift := 1
			for tmp := code; tmp > 1; tmp >>= 1 {
				shift++
			}
			minNumZeroBits = minInt(minNumZeroBits, length-shift)
		}
	}

	if !needTree {
		h.numBitsSkipTree = 0
		return nil
	}
	h.numBitsSkipTree = minNumZeroBits

	h.root = &huffmanNode{value: -1}
	for i := i0; i < i1; i++ {
		k := indexWrapAround(i, size)
		length := int(h.codeTable[k].length)
		if length <= h.numBitsLUT {
			continue
		}

		code := h.codeTable[k].code
		node := h.root
		for j := length - h.numBitsSkipTree; j > 0; j-- {
			if code>>(j-1)&1 == 1 {
				if node.child1 == nil {
					node.child1 = &huffmanNode{value: -1}
				}
				node = node.child1
			} else {
				if node.child0 == nil {
					node.child0 = &huffmanNode{value: -1}
				}
				node = node.child0
			}
			if j == 1 {
				node.value = int16(k)
			}
		}
	}
	return nil
}

// decodeOne decodes the next symbol. pos is the byte offset of the current
// 32-bit word and bitPos the bit offset within it.
func (h *huffman) decodeOne(data []byte, pos *int, bitPos *int) (int, error) {
	if *bitPos < 0 || *bitPos >= 32 || *pos+4 > len(data) {
		return 0, FormatError("Huffman stream past end of input")
	}

	word := binary.LittleEndian.Uint32(data[*pos:])
	valTmp := int((word << *bitPos) >> (32 - h.numBitsLUT))

	if 32-*bitPos < h.numBitsLUT {
		if *pos+8 > len(data) {
			return 0, FormatError("Huffman stream past end of input")
		}
		next := binary.LittleEndian.Uint32(data[*pos+4:])
		valTmp |= int(next >> (64 - *bitPos - h.numBitsLUT))
	}

	if length := h.lutLen[valTmp]; length >= 0 {
		*bitPos += int(length)
		if *bitPos >= 32 {
			*bitPos -= 32
			*pos += 4
		}
		return int(h.lutVal[valTmp]), nil
	}

	if h.root == nil {
		return 0, FormatError("Huffman code beyond table")
	}

	*bitPos += h.numBitsSkipTree
	if *bitPos >= 32 {
		*bitPos -= 32
		*pos += 4
	}

	node := h.root
	for {
		if *pos+4 > len(data) {
			return 0, FormatError("Huffman stream past end of input")
		}
		word := binary.LittleEndian.Uint32(data[*pos:])
		bit := (word << *bitPos) >> 31
		*bitPos++
		if *bitPos == 32 {
			*bitPos = 0
			*pos += 4
		}

		if bit != 0 {
			node = node.child1
		} else {
			node = node.child0
		}
		if node == nil {
			return 0, FormatError("invalid Huffman code")
		}
		if node.value >= 0 {
			return int(node.value), nil
		}
	}
}
