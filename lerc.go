// Package lerc implements a decoder for the LERC (Limited Error Raster
// Compression) format, versions Lerc2.0 through Lerc2.6, including the
// validity mask, Huffman coded 8-bit rasters and the lossless floating
// point mode. Blobs wrapped in a deflate or zstd envelope, as written by
// some raster pipelines, are unwrapped transparently.
package lerc

// Info describes a LERC buffer without decoding its pixels.
type Info struct {
	// Version is the codec version, 0 to 6 for Lerc2.0 to Lerc2.6.
	Version int
	// Depth is the number of values per pixel.
	Depth int
	// Cols and Rows are the raster dimensions.
	Cols int
	Rows int
	// NumValidPixel counts the valid pixels of the first band.
	NumValidPixel int
	// Bands is the number of concatenated single-band blobs.
	Bands int
	// BlobSize is the total byte size of all blobs.
	BlobSize int
	// Masks is 0 when every pixel is valid, 1 otherwise.
	Masks int
	// DataType is the numeric type of the samples.
	DataType DataType
	// ZMin and ZMax bound the values of the first band.
	ZMin float64
	ZMax float64
	// MaxZError is the quantization error the encoder guaranteed.
	MaxZError float64
}

// Pixels holds decoded samples. The concrete type is one of the eight
// slice types below, matching Info.DataType.
type Pixels interface {
	Len() int
	IsEmpty() bool
	DataType() DataType
}

type (
	// CharPixels holds TypeChar samples.
	CharPixels []int8
	// BytePixels holds TypeByte samples.
	BytePixels []uint8
	// ShortPixels holds TypeShort samples.
	ShortPixels []int16
	// UShortPixels holds TypeUShort samples.
	UShortPixels []uint16
	// IntPixels holds TypeInt samples.
	IntPixels []int32
	// UIntPixels holds TypeUInt samples.
	UIntPixels []uint32
	// FloatPixels holds TypeFloat samples.
	FloatPixels []float32
	// DoublePixels holds TypeDouble samples.
	DoublePixels []float64
)

func (p CharPixels) Len() int   { return len(p) }
func (p BytePixels) Len() int   { return len(p) }
func (p ShortPixels) Len() int  { return len(p) }
func (p UShortPixels) Len() int { return len(p) }
func (p IntPixels) Len() int    { return len(p) }
func (p UIntPixels) Len() int   { return len(p) }
func (p FloatPixels) Len() int  { return len(p) }
func (p DoublePixels) Len() int { return len(p) }

func (p CharPixels) IsEmpty() bool   { return len(p) == 0 }
func (p BytePixels) IsEmpty() bool   { return len(p) == 0 }
func (p ShortPixels) IsEmpty() bool  { return len(p) == 0 }
func (p UShortPixels) IsEmpty() bool { return len(p) == 0 }
func (p IntPixels) IsEmpty() bool    { return len(p) == 0 }
func (p UIntPixels) IsEmpty() bool   { return len(p) == 0 }
func (p FloatPixels) IsEmpty() bool  { return len(p) == 0 }
func (p DoublePixels) IsEmpty() bool { return len(p) == 0 }

func (p CharPixels) DataType() DataType   { return TypeChar }
func (p BytePixels) DataType() DataType   { return TypeByte }
func (p ShortPixels) DataType() DataType  { return TypeShort }
func (p UShortPixels) DataType() DataType { return TypeUShort }
func (p IntPixels) DataType() DataType    { return TypeInt }
func (p UIntPixels) DataType() DataType   { return TypeUInt }
func (p FloatPixels) DataType() DataType  { return TypeFloat }
func (p DoublePixels) DataType() DataType { return TypeDouble }

// Raster is the result of decoding a LERC buffer.
type Raster struct {
	// Pixels holds Rows*Cols*Depth*Bands samples, band by band, each band
	// in row-major order with Depth values per pixel.
	Pixels Pixels
	// Mask has one entry per pixel (true = valid), or is nil when every
	// pixel is valid.
	Mask []bool
	// Info describes the decoded buffer.
	Info Info
}

// GetBlobInfo walks the concatenated band blobs of a LERC buffer and
// returns the combined information. It does not decode pixels.
func GetBlobInfo(data []byte) (Info, error) {
	data, err := unwrap(data)
	if err != nil {
		return Info{}, err
	}
	return getBlobInfo(data)
}

func getBlobInfo(data []byte) (Info, error) {
	var (
		info      Info
		first     bool
		firstMask bool
	)

	pos := 0
	for pos < len(data) {
		header, hasMask, err := getHeaderInfo(data[pos:])
		if err != nil {
			// Past the last valid blob. Trailing bytes are tolerated.
			break
		}

		if !first {
			first = true
			firstMask = hasMask
			info = Info{
				Version:       header.version,
				Depth:         header.depth,
				Cols:          header.cols,
				Rows:          header.rows,
				NumValidPixel: header.numValidPixel,
				DataType:      header.dt,
				ZMin:          header.zMin,
				ZMax:          header.zMax,
				MaxZError:     header.maxZError,
			}
		}

		info.Bands++
		info.BlobSize += header.blobSize
		pos += header.blobSize

		if header.version >= 6 && header.blobsMore == 0 {
			break
		}
	}

	if !first {
		return Info{}, FormatError("no blob header found")
	}
	if firstMask {
		info.Masks = 1
	}
	return info, nil
}

// Decode decompresses a LERC buffer into a Raster.
func Decode(data []byte) (*Raster, error) {
	data, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	info, err := getBlobInfo(data)
	if err != nil {
		return nil, err
	}

	var d decoder
	total := info.Rows * info.Cols * info.Depth * info.Bands

	var pixels Pixels
	switch info.DataType {
	case TypeChar:
		buf := make(CharPixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	case TypeByte:
		buf := make(BytePixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	case TypeShort:
		buf := make(ShortPixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	case TypeUShort:
		buf := make(UShortPixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	case TypeInt:
		buf := make(IntPixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	case TypeUInt:
		buf := make(UIntPixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	case TypeFloat:
		buf := make(FloatPixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	case TypeDouble:
		buf := make(DoublePixels, total)
		err = decodeBands(&d, data, buf, &info)
		pixels = buf
	default:
		return nil, UnsupportedError("undefined data type")
	}
	if err != nil {
		return nil, err
	}

	return &Raster{
		Pixels: pixels,
		Mask:   d.maskBools(),
		Info:   info,
	}, nil
}

// decodeBands decodes every band in sequence, advancing by each header's
// declared blob size.
func decodeBands[T sample](d *decoder, data []byte, output []T, info *Info) error {
	bandSize := info.Rows * info.Cols * info.Depth

	offset := 0
	dataOffset := 0
	for band := 0; band < info.Bands; band++ {
		remaining := data[dataOffset:]
		bytesRemaining := len(remaining)

		if err := decodeBlob(d, remaining, &bytesRemaining, output[offset:offset+bandSize]); err != nil {
			return err
		}

		dataOffset += d.header.blobSize
		offset += bandSize
	}

	return nil
}
