package lerc

// A LERC buffer contains one or more single-band blobs concatenated back to
// back. Each blob starts with
//
//  - the file key "Lerc2 ",
//  - a version integer (0 to 6, all little-endian),
//  - a Fletcher32 checksum (version >= 3),
//  - a fixed run of header integers and doubles whose count depends on
//    the version,
//  - the compressed validity mask, then the compressed pixel data.
//
// Multi-band rasters are simply several such blobs in a row.

const (
	fileKey = "Lerc2 " // Header key for all supported blobs.

	currentVersion = 6 // Highest supported codec version (Lerc 2.6).
)

// Pixel data types, in their on-wire order.
const (
	TypeChar DataType = iota
	TypeByte
	TypeShort
	TypeUShort
	TypeInt
	TypeUInt
	TypeFloat
	TypeDouble
	TypeUndefined
)

// DataType identifies the numeric type of the decoded samples.
type DataType int

// Size returns the byte size of one sample, or 0 for TypeUndefined.
func (dt DataType) Size() int {
	switch dt {
	case TypeChar, TypeByte:
		return 1
	case TypeShort, TypeUShort:
		return 2
	case TypeInt, TypeUInt, TypeFloat:
		return 4
	case TypeDouble:
		return 8
	}
	return 0
}

func (dt DataType) String() string {
	switch dt {
	case TypeChar:
		return "Char"
	case TypeByte:
		return "Byte"
	case TypeShort:
		return "Short"
	case TypeUShort:
		return "UShort"
	case TypeInt:
		return "Int"
	case TypeUInt:
		return "UInt"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	}
	return "Undefined"
}

func validDataType(v int32) bool {
	return v >= int32(TypeChar) && v <= int32(TypeDouble)
}

// Image encoding modes (the byte following the one-sweep flag when Huffman
// coding may apply).
type imageEncodeMode int

const (
	emTiling imageEncodeMode = iota
	emDeltaHuffman
	emHuffman
	emDeltaDeltaHuffman // Lossless float (FPL) mode, version >= 6.
)

// Per-tile compression flags (low two bits of the tile control byte).
const (
	tcUncompressed = 0 // Raw samples for every valid pixel.
	tcStuffed      = 1 // Offset plus bit-stuffed quantized deltas.
	tcConstantZero = 2 // Whole tile is zero.
	tcConstant     = 3 // Whole tile equals the offset value.
)

const (
	rleTerminator  = -32768 // Sentinel count closing every RLE stream.
	maxMicroBlock  = 32     // Largest legal micro block edge in pixels.
	maxElementBits = 32     // Stuffed values never reach the full word width.
)
