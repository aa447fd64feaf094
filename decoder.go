package lerc

import (
	"encoding/binary"
	"math"
)

// sample covers the eight numeric types a blob can carry.
type sample interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | float32 | float64
}

// dataTypeOf maps a sample type to its on-wire data type tag.
func dataTypeOf[T sample]() DataType {
	var z T
	switch any(z).(type) {
	case int8:
		return TypeChar
	case uint8:
		return TypeByte
	case int16:
		return TypeShort
	case uint16:
		return TypeUShort
	case int32:
		return TypeInt
	case uint32:
		return TypeUInt
	case float32:
		return TypeFloat
	}
	return TypeDouble
}

// readValue reads one little-endian value of the given type as float64.
// Callers check bounds before calling.
func readValue(data []byte, pos int, dt DataType) float64 {
	switch dt {
	case TypeChar:
		return float64(int8(data[pos]))
	case TypeByte:
		return float64(data[pos])
	case TypeShort:
		return float64(int16(binary.LittleEndian.Uint16(data[pos:])))
	case TypeUShort:
		return float64(binary.LittleEndian.Uint16(data[pos:]))
	case TypeInt:
		return float64(int32(binary.LittleEndian.Uint32(data[pos:])))
	case TypeUInt:
		return float64(binary.LittleEndian.Uint32(data[pos:]))
	case TypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[pos:])))
	case TypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(data[pos:]))
	}
	return 0
}

// A decoder reconstructs one band at a time. It owns the validity mask and
// the bit-unstuffing scratch of the band being decoded, so instances must
// not be shared across concurrent decodes.
type decoder struct {
	header     headerInfo
	mask       bitMask
	stuffer    bitStuffer
	zMinVec    []float64
	zMaxVec    []float64
	encodeMode imageEncodeMode
}

// getHeaderInfo parses a blob header without decoding pixels.
func getHeaderInfo(data []byte) (headerInfo, bool, error) {
	pos := 0
	remaining := len(data)
	return readHeader(data, &pos, &remaining)
}

// maskBools returns the validity mask of the most recent decode as one
// boolean per pixel, or nil when every pixel is valid.
func (d *decoder) maskBools() []bool {
	if d.header.numValidPixel == d.header.rows*d.header.cols {
		return nil
	}
	return d.mask.bools()
}

// readMask reads the mask section: a byte count followed, for partially
// valid rasters, by the RLE-compressed mask bytes.
func (d *decoder) readMask(data []byte, pos *int, bytesRemaining *int) error {
	numValid := d.header.numValidPixel
	w := d.header.cols
	h := d.header.rows

	if *bytesRemaining < 4 {
		return FormatError("truncated mask byte count")
	}
	numBytesMask := int(int32(binary.LittleEndian.Uint32(data[*pos:])))
	*pos += 4
	*bytesRemaining -= 4

	if (numValid == 0 || numValid == w*h) && numBytesMask != 0 {
		return FormatError("unexpected mask payload")
	}
	if err := d.mask.setSize(w, h); err != nil {
		return err
	}

	switch {
	case numValid == 0:
		d.mask.setAllInvalid()
	case numValid == w*h:
		d.mask.setAllValid()
	case numBytesMask > 0:
		if *bytesRemaining < numBytesMask {
			return FormatError("truncated mask payload")
		}
		if err := rleDecompress(data[*pos:*pos+numBytesMask], d.mask.bits); err != nil {
			return err
		}
		*pos += numBytesMask
		*bytesRemaining -= numBytesMask
	}

	return nil
}

// decodeBlob decodes one band blob starting at data[0] into output
// (rows*cols*depth samples). On return bytesRemaining reflects the bytes
// following the blob.
func decodeBlob[T sample](d *decoder, data []byte, bytesRemaining *int, output []T) error {
	pos := 0

	header, _, err := readHeader(data, &pos, bytesRemaining)
	if err != nil {
		return err
	}
	d.header = header

	if len(data) < d.header.blobSize {
		return FormatError("buffer smaller than declared blob size")
	}

	if d.header.version >= 3 {
		skip := len(fileKey) + 4 + 4 // key + version + checksum
		if d.header.blobSize < skip {
			return FormatError("blob size smaller than header")
		}
		if sum := fletcher32(data[skip:d.header.blobSize]); sum != d.header.checksum {
			return FormatError("checksum mismatch")
		}
	}

	if err := d.readMask(data, &pos, bytesRemaining); err != nil {
		return err
	}

	totalSize := d.header.cols * d.header.rows * d.header.depth
	if len(output) < totalSize {
		return InternalError("output buffer too small")
	}
	var zero T
	for i := 0; i < totalSize; i++ {
		output[i] = zero
	}

	// All pixels invalid: the blob carries no pixel section at all.
	if d.header.numValidPixel == 0 {
		*bytesRemaining = len(data) - d.header.blobSize
		return nil
	}

	if d.header.zMin == d.header.zMax {
		if err := fillConstImage(d, output); err != nil {
			return err
		}
		*bytesRemaining = len(data) - d.header.blobSize
		return nil
	}

	if d.header.version >= 4 {
		if err := readMinMaxRanges[T](d, data, &pos, bytesRemaining); err != nil {
			return err
		}
		if d.minMaxEqual() {
			if err := fillConstImage(d, output); err != nil {
				return err
			}
			*bytesRemaining = len(data) - d.header.blobSize
			return nil
		}
	}

	if *bytesRemaining < 1 {
		return FormatError("truncated sweep flag")
	}
	oneSweep := data[pos] != 0
	pos++
	*bytesRemaining--

	switch {
	case oneSweep:
		if err := readDataOneSweep(d, data, &pos, bytesRemaining, output); err != nil {
			return err
		}
	default:
		d.encodeMode = emTiling

		if d.header.tryHuffmanInt() || d.header.tryHuffmanFlt() {
			if *bytesRemaining < 1 {
				return FormatError("truncated encode mode flag")
			}
			flag := data[pos]
			pos++
			*bytesRemaining--

			if flag > 3 || (flag > 2 && d.header.version < 6) || (flag > 1 && d.header.version < 4) {
				return FormatError("invalid encode mode flag")
			}
			d.encodeMode = imageEncodeMode(flag)

			if d.encodeMode != emTiling {
				switch {
				case d.header.tryHuffmanInt():
					if d.encodeMode == emDeltaHuffman ||
						(d.header.version >= 4 && d.encodeMode == emHuffman) {
						if err := decodeHuffmanImage(d, data, &pos, output); err != nil {
							return err
						}
						*bytesRemaining = len(data) - d.header.blobSize
						return nil
					}
					return FormatError("invalid Huffman mode")
				case d.header.tryHuffmanFlt() && d.encodeMode == emDeltaDeltaHuffman:
					if err := decodeFloatLossless(d, data, &pos, output); err != nil {
						return err
					}
					*bytesRemaining = len(data) - d.header.blobSize
					return nil
				default:
					return FormatError("invalid encode mode")
				}
			}
		}

		if err := readTiles(d, data, &pos, bytesRemaining, output); err != nil {
			return err
		}
	}

	*bytesRemaining = len(data) - d.header.blobSize
	return nil
}

// readMinMaxRanges reads the per-depth min and max vectors (version >= 4).
func readMinMaxRanges[T sample](d *decoder, data []byte, pos *int, bytesRemaining *int) error {
	depth := d.header.depth
	dt := dataTypeOf[T]()
	typeSize := dt.Size()
	length := depth * typeSize

	if *bytesRemaining < length*2 {
		return FormatError("truncated min/max ranges")
	}

	d.zMinVec = resizeF64(d.zMinVec, depth)
	d.zMaxVec = resizeF64(d.zMaxVec, depth)

	for i := 0; i < depth; i++ {
		d.zMinVec[i] = readValue(data, *pos+i*typeSize, dt)
	}
	*pos += length
	*bytesRemaining -= length

	for i := 0; i < depth; i++ {
		d.zMaxVec[i] = readValue(data, *pos+i*typeSize, dt)
	}
	*pos += length
	*bytesRemaining -= length

	return nil
}

func resizeF64(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

func (d *decoder) minMaxEqual() bool {
	for i := range d.zMinVec {
		if d.zMinVec[i] != d.zMaxVec[i] {
			return false
		}
	}
	return true
}

// fillConstImage fills every valid pixel with the constant band value, or
// the per-depth minimum vector for multi-depth rasters.
func fillConstImage[T sample](d *decoder, output []T) error {
	cols := d.header.cols
	rows := d.header.rows
	depth := d.header.depth
	z0 := T(d.header.zMin)

	if depth == 1 {
		for k := 0; k < rows*cols; k++ {
			if d.mask.isValid(k) {
				output[k] = z0
			}
		}
		return nil
	}

	zBuf := make([]T, depth)
	if d.header.zMin != d.header.zMax {
		if len(d.zMinVec) != depth {
			return InternalError("min vector size mismatch")
		}
		for i, v := range d.zMinVec {
			zBuf[i] = T(v)
		}
	} else {
		for i := range zBuf {
			zBuf[i] = z0
		}
	}

	for k := 0; k < rows*cols; k++ {
		if d.mask.isValid(k) {
			copy(output[k*depth:(k+1)*depth], zBuf)
		}
	}
	return nil
}

// readDataOneSweep reads raw samples for every valid pixel in row-major order.
func readDataOneSweep[T sample](d *decoder, data []byte, pos *int, bytesRemaining *int, output []T) error {
	depth := d.header.depth
	dt := dataTypeOf[T]()
	typeSize := dt.Size()
	length := depth * typeSize

	numValid := d.mask.countValid()
	if *bytesRemaining < numValid*length {
		return FormatError("truncated one-sweep pixel data")
	}

	src := *pos
	for k := 0; k < d.header.rows*d.header.cols; k++ {
		if !d.mask.isValid(k) {
			continue
		}
		m0 := k * depth
		for dd := 0; dd < depth; dd++ {
			output[m0+dd] = T(readValue(data, src+dd*typeSize, dt))
		}
		src += length
	}

	*pos += numValid * length
	*bytesRemaining -= numValid * length
	return nil
}

// readTiles iterates the micro-block grid in row-major tile order, one pass
// per depth plane within each tile.
func readTiles[T sample](d *decoder, data []byte, pos *int, bytesRemaining *int, output []T) error {
	mbSize := d.header.microBlockSize
	rows := d.header.rows
	cols := d.header.cols

	if mbSize > maxMicroBlock {
		return FormatError("micro block size too large")
	}

	tilesVert := (rows + mbSize - 1) / mbSize
	tilesHori := (cols + mbSize - 1) / mbSize

	for iTile := 0; iTile < tilesVert; iTile++ {
		tileH := mbSize
		if iTile == tilesVert-1 {
			tileH = rows - iTile*mbSize
		}
		i0 := iTile * mbSize

		for jTile := 0; jTile < tilesHori; jTile++ {
			tileW := mbSize
			if jTile == tilesHori-1 {
				tileW = cols - jTile*mbSize
			}
			j0 := jTile * mbSize

			for iDepth := 0; iDepth < d.header.depth; iDepth++ {
				if err := readTile(d, data, pos, bytesRemaining, output, i0, i0+tileH, j0, j0+tileW, iDepth); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// dataTypeUsed maps the tile's reduced-width type code onto the type
// actually stored for the tile offset.
func dataTypeUsed(dt DataType, tc int) DataType {
	switch dt {
	case TypeShort, TypeInt:
		if validDataType(int32(dt) - int32(tc)) {
			return DataType(int(dt) - tc)
		}
	case TypeUShort, TypeUInt:
		if validDataType(int32(dt) - int32(2*tc)) {
			return DataType(int(dt) - 2*tc)
		}
	case TypeFloat:
		switch tc {
		case 0:
			return dt
		case 1:
			return TypeShort
		default:
			return TypeByte
		}
	case TypeDouble:
		if tc == 0 {
			return dt
		}
		if validDataType(int32(dt) - int32(2*tc) + 1) {
			return DataType(int(dt) - 2*tc + 1)
		}
	}
	return dt
}

// readTile decodes one micro block for one depth plane.
func readTile[T sample](d *decoder, data []byte, pos *int, bytesRemaining *int, output []T, i0, i1, j0, j1, iDepth int) error {
	if *bytesRemaining < 1 {
		return FormatError("truncated tile flag")
	}

	cols := d.header.cols
	depth := d.header.depth

	comprFlag := data[*pos]
	*pos++
	*bytesRemaining--

	diffEnc := d.header.version >= 5 && comprFlag&4 != 0

	pattern := 15
	if d.header.version >= 5 {
		pattern = 14
	}
	// The flag byte echoes low bits of the tile column offset.
	if int(comprFlag>>2)&pattern != (j0>>3)&pattern {
		return FormatError("tile integrity check failed")
	}
	if diffEnc && iDepth == 0 {
		return FormatError("delta-encoded tile at depth 0")
	}

	bits67 := int(comprFlag >> 6)
	flag := int(comprFlag & 3)

	if flag == tcConstantZero {
		for i := i0; i < i1; i++ {
			k := i*cols + j0
			m := k*depth + iDepth
			for j := j0; j < j1; j++ {
				if d.mask.isValid(k) {
					if diffEnc {
						output[m] = output[m-1]
					} else {
						output[m] = 0
					}
				}
				k++
				m += depth
			}
		}
		return nil
	}

	if flag == tcUncompressed {
		if diffEnc {
			return FormatError("raw tile with delta encoding")
		}
		dt := dataTypeOf[T]()
		typeSize := dt.Size()

		for i := i0; i < i1; i++ {
			k := i*cols + j0
			m := k*depth + iDepth
			for j := j0; j < j1; j++ {
				if d.mask.isValid(k) {
					if *bytesRemaining < typeSize {
						return FormatError("truncated raw tile data")
					}
					output[m] = T(readValue(data, *pos, dt))
					*pos += typeSize
					*bytesRemaining -= typeSize
				}
				k++
				m += depth
			}
		}
		return nil
	}

	// tcStuffed or tcConstant: an offset value precedes the payload, stored
	// in a possibly narrower type selected by bits 6-7.
	offsetType := d.header.dt
	if diffEnc && d.header.dt < TypeFloat {
		offsetType = TypeInt
	}
	dtUsed := dataTypeUsed(offsetType, bits67)

	typeSize := dtUsed.Size()
	if *bytesRemaining < typeSize {
		return FormatError("truncated tile offset")
	}
	offset := readValue(data, *pos, dtUsed)
	*pos += typeSize
	*bytesRemaining -= typeSize

	zMax := d.header.zMax
	if d.header.version >= 4 && depth > 1 {
		zMax = d.zMaxVec[iDepth]
	}

	if flag == tcConstant {
		for i := i0; i < i1; i++ {
			k := i*cols + j0
			m := k*depth + iDepth
			if !diffEnc {
				val := T(offset)
				for j := j0; j < j1; j++ {
					if d.mask.isValid(k) {
						output[m] = val
					}
					k++
					m += depth
				}
			} else {
				for j := j0; j < j1; j++ {
					if d.mask.isValid(k) {
						z := offset + float64(output[m-1])
						output[m] = T(math.Min(z, zMax))
					}
					k++
					m += depth
				}
			}
		}
		return nil
	}

	maxElementCount := (i1 - i0) * (j1 - j0)
	buf, err := d.stuffer.decode(data, pos, maxElementCount, d.header.version)
	if err != nil {
		return err
	}
	*bytesRemaining = len(data) - *pos

	invScale := 2 * d.header.maxZError

	if len(buf) == maxElementCount {
		// Every pixel of the tile is valid.
		srcIdx := 0
		for i := i0; i < i1; i++ {
			m := (i*cols+j0)*depth + iDepth
			for j := j0; j < j1; j++ {
				z := offset + float64(buf[srcIdx])*invScale
				if diffEnc {
					z += float64(output[m-1])
				}
				output[m] = T(math.Min(z, zMax))
				srcIdx++
				m += depth
			}
		}
		return nil
	}

	srcIdx := 0
	for i := i0; i < i1; i++ {
		k := i*cols + j0
		m := k*depth + iDepth
		for j := j0; j < j1; j++ {
			if d.mask.isValid(k) {
				if srcIdx >= len(buf) {
					return FormatError("stuffed tile shorter than valid pixel count")
				}
				z := offset + float64(buf[srcIdx])*invScale
				if diffEnc {
					z += float64(output[m-1])
				}
				output[m] = T(math.Min(z, zMax))
				srcIdx++
			}
			k++
			m += depth
		}
	}
	return nil
}

// decodeHuffmanImage decodes the whole-image Huffman modes used for the
// 8-bit data types.
func decodeHuffmanImage[T sample](d *decoder, data []byte, pos *int, output []T) error {
	var h huffman
	if err := h.readCodeTable(data, pos, d.header.version); err != nil {
		return err
	}
	if err := h.buildTree(); err != nil {
		return err
	}

	offset := 0
	if d.header.dt == TypeChar {
		offset = 128
	}
	height := d.header.rows
	width := d.header.cols
	depth := d.header.depth

	allValid := d.header.numValidPixel == width*height
	bitPos := 0

	switch d.encodeMode {
	case emDeltaHuffman:
		for iDepth := 0; iDepth < depth; iDepth++ {
			var prev T
			for i := 0; i < height; i++ {
				for j := 0; j < width; j++ {
					k := i*width + j
					m := k*depth + iDepth
					if !allValid && !d.mask.isValid(k) {
						continue
					}

					val, err := h.decodeOne(data, pos, &bitPos)
					if err != nil {
						return err
					}
					// Deltas chain along the row, restarting from the pixel
					// above when the left neighbor is missing. Arithmetic
					// wraps, matching the encoder.
					delta := T(val - offset)
					var result T
					switch {
					case j > 0 && (allValid || d.mask.isValid(k-1)):
						result = delta + prev
					case i > 0 && (allValid || d.mask.isValid(k-width)):
						result = delta + output[m-width*depth]
					default:
						result = delta + prev
					}
					output[m] = result
					prev = result
				}
			}
		}
	case emHuffman:
		for k := 0; k < height*width; k++ {
			if !allValid && !d.mask.isValid(k) {
				continue
			}
			m0 := k * depth
			for m := 0; m < depth; m++ {
				val, err := h.decodeOne(data, pos, &bitPos)
				if err != nil {
					return err
				}
				output[m0+m] = T(val - offset)
			}
		}
	default:
		return FormatError("invalid Huffman encode mode")
	}

	// The code stream is padded to a whole word boundary.
	numWords := 1
	if bitPos > 0 {
		numWords = 2
	}
	*pos += numWords * 4
	return nil
}

// decodeFloatLossless decodes the byte-plane section used for lossless
// floating point rasters (version >= 6).
func decodeFloatLossless[T sample](d *decoder, data []byte, pos *int, output []T) error {
	isDouble := d.header.dt == TypeDouble

	raw, err := decodeFPL(data, pos, isDouble, d.header.cols, d.header.rows, d.header.depth)
	if err != nil {
		return err
	}

	total := d.header.cols * d.header.rows * d.header.depth
	typeSize := dataTypeOf[T]().Size()
	if len(raw) != total*typeSize {
		return FormatError("lossless float size mismatch")
	}

	for i := 0; i < total; i++ {
		if isDouble {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			output[i] = T(math.Float64frombits(bits))
		} else {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			output[i] = T(math.Float32frombits(bits))
		}
	}
	return nil
}
