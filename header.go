package lerc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// headerInfo holds one blob's parsed header. Field counts grew over the
// format's life: version >= 3 adds the checksum, version >= 4 the depth,
// version >= 6 the remaining-blob counter and no-data passthrough.
type headerInfo struct {
	version        int
	checksum       uint32
	rows           int
	cols           int
	depth          int
	numValidPixel  int
	microBlockSize int
	blobSize       int
	blobsMore      int
	dt             DataType
	maxZError      float64
	zMin           float64
	zMax           float64

	passNoDataValues byte
	isInt            byte
	noDataVal        float64
	noDataValOrig    float64
}

// tryHuffmanInt reports whether the 8-bit Huffman image modes may apply.
func (h *headerInfo) tryHuffmanInt() bool {
	return h.version >= 2 && (h.dt == TypeByte || h.dt == TypeChar) && h.maxZError == 0.5
}

// tryHuffmanFlt reports whether the lossless float mode may apply.
func (h *headerInfo) tryHuffmanFlt() bool {
	return h.version >= 6 && (h.dt == TypeFloat || h.dt == TypeDouble) && h.maxZError == 0
}

// readHeader parses one blob header at *pos, advancing *pos and
// *bytesRemaining past it, and reports whether the blob carries a
// non-trivial validity mask.
func readHeader(data []byte, pos *int, bytesRemaining *int) (headerInfo, bool, error) {
	var hd headerInfo

	keyLen := len(fileKey)
	if *bytesRemaining < keyLen {
		return hd, false, FormatError("data too small for header key")
	}
	if string(data[*pos:*pos+keyLen]) != fileKey {
		return hd, false, FormatError("invalid header key")
	}
	*pos += keyLen
	*bytesRemaining -= keyLen

	if *bytesRemaining < 4 {
		return hd, false, FormatError("truncated version field")
	}
	version := int(int32(binary.LittleEndian.Uint32(data[*pos:])))
	*pos += 4
	*bytesRemaining -= 4

	if version < 0 || version > currentVersion {
		return hd, false, UnsupportedError(fmt.Sprintf("codec version %d", version))
	}
	hd.version = version
	hd.depth = 1

	if version >= 3 {
		if *bytesRemaining < 4 {
			return hd, false, FormatError("truncated checksum field")
		}
		hd.checksum = binary.LittleEndian.Uint32(data[*pos:])
		*pos += 4
		*bytesRemaining -= 4
	}

	nInts := 6
	if version >= 4 {
		nInts++
	}
	if version >= 6 {
		nInts++
	}
	nBytesExtra := 0
	nDbls := 3
	if version >= 6 {
		nBytesExtra = 4
		nDbls += 2
	}

	if *bytesRemaining < nInts*4 {
		return hd, false, FormatError("truncated header integers")
	}
	ints := make([]int, nInts)
	for i := range ints {
		ints[i] = int(int32(binary.LittleEndian.Uint32(data[*pos+i*4:])))
	}
	*pos += nInts * 4
	*bytesRemaining -= nInts * 4

	var extra [4]byte
	if version >= 6 {
		if *bytesRemaining < nBytesExtra {
			return hd, false, FormatError("truncated header bytes")
		}
		copy(extra[:], data[*pos:*pos+nBytesExtra])
		*pos += nBytesExtra
		*bytesRemaining -= nBytesExtra
	}

	if *bytesRemaining < nDbls*8 {
		return hd, false, FormatError("truncated header doubles")
	}
	dbls := make([]float64, nDbls)
	for i := range dbls {
		dbls[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[*pos+i*8:]))
	}
	*pos += nDbls * 8
	*bytesRemaining -= nDbls * 8

	i := 0
	hd.rows = ints[i]
	i++
	hd.cols = ints[i]
	i++
	if version >= 4 {
		hd.depth = ints[i]
		i++
	}
	hd.numValidPixel = ints[i]
	i++
	hd.microBlockSize = ints[i]
	i++
	hd.blobSize = ints[i]
	i++
	dt := ints[i]
	i++

	if !validDataType(int32(dt)) {
		return hd, false, FormatError(fmt.Sprintf("invalid data type %d", dt))
	}
	hd.dt = DataType(dt)

	if version >= 6 {
		hd.blobsMore = ints[i]
		hd.passNoDataValues = extra[0]
		hd.isInt = extra[1]
	}

	hd.maxZError = dbls[0]
	hd.zMin = dbls[1]
	hd.zMax = dbls[2]
	if version >= 6 {
		hd.noDataVal = dbls[3]
		hd.noDataValOrig = dbls[4]
	}

	if hd.rows <= 0 || hd.cols <= 0 || hd.depth <= 0 || hd.numValidPixel < 0 ||
		hd.microBlockSize <= 0 || hd.blobSize <= 0 {
		return hd, false, FormatError("invalid header values")
	}
	if hd.rows > math.MaxInt32/hd.cols || hd.depth > math.MaxInt32/(hd.rows*hd.cols) {
		return hd, false, FormatError("raster dimensions overflow")
	}
	if hd.numValidPixel > hd.rows*hd.cols {
		return hd, false, FormatError("valid pixel count exceeds raster size")
	}

	hasMask := hd.numValidPixel > 0 && hd.numValidPixel < hd.rows*hd.cols
	return hd, hasMask, nil
}

// fletcher32 computes the checksum stored by version >= 3 encoders over the
// blob bytes following the checksum field.
func fletcher32(data []byte) uint32 {
	sum1 := uint32(0xffff)
	sum2 := uint32(0xffff)
	words := len(data) / 2
	i := 0

	for words > 0 {
		tlen := minInt(words, 359)
		words -= tlen
		for ; tlen > 0; tlen-- {
			sum1 += uint32(data[i]) << 8
			i++
			sum1 += uint32(data[i])
			sum2 += sum1
			i++
		}
		sum1 = (sum1 & 0xffff) + (sum1 >> 16)
		sum2 = (sum2 & 0xffff) + (sum2 >> 16)
	}

	if len(data)&1 != 0 {
		sum1 += uint32(data[i]) << 8
		sum2 += sum1
	}

	sum1 = (sum1 & 0xffff) + (sum1 >> 16)
	sum2 = (sum2 & 0xffff) + (sum2 >> 16)

	return sum2<<16 | sum1
}
