package lerc

import (
	"image"
	"image/color"
	"io"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// DecodeImageConfig returns the color model and dimensions of a LERC raster
// without decoding the pixels.
func DecodeImageConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}

	info, err := GetBlobInfo(data)
	if err != nil {
		return image.Config{}, err
	}

	cfg := image.Config{Width: info.Cols, Height: info.Rows}
	switch {
	case info.DataType == TypeByte && info.Bands >= 3:
		cfg.ColorModel = color.NRGBAModel
	case info.DataType == TypeByte || info.DataType == TypeChar:
		cfg.ColorModel = color.GrayModel
	case info.DataType == TypeUShort || info.DataType == TypeShort:
		cfg.ColorModel = color.Gray16Model
	default:
		cfg.ColorModel = hdrcolor.XYZModel
	}
	return cfg, nil
}

// DecodeImage reads a LERC raster from r and returns an image.Image.
//
// Byte rasters with three or more bands become NRGBA, 8-bit and 16-bit
// single band rasters become Gray and Gray16. Wider integer and floating
// point rasters become an hdr.XYZ image with the sample as luminance.
// Invalid pixels are left at zero (transparent for NRGBA).
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	raster, err := Decode(data)
	if err != nil {
		return nil, err
	}
	info := raster.Info

	if info.Depth != 1 {
		return nil, UnsupportedError("image rendering of multi-depth rasters")
	}

	bounds := image.Rect(0, 0, info.Cols, info.Rows)
	bandSize := info.Rows * info.Cols

	valid := func(k int) bool {
		return raster.Mask == nil || raster.Mask[k]
	}

	switch px := raster.Pixels.(type) {
	case BytePixels:
		if info.Bands >= 3 {
			m := image.NewNRGBA(bounds)
			for k := 0; k < bandSize; k++ {
				if !valid(k) {
					continue
				}
				m.Pix[k*4+0] = px[k]
				m.Pix[k*4+1] = px[bandSize+k]
				m.Pix[k*4+2] = px[2*bandSize+k]
				m.Pix[k*4+3] = 0xFF
			}
			return m, nil
		}
		m := image.NewGray(bounds)
		for k := 0; k < bandSize; k++ {
			if valid(k) {
				m.Pix[k] = px[k]
			}
		}
		return m, nil
	case CharPixels:
		m := image.NewGray(bounds)
		for k := 0; k < bandSize; k++ {
			if valid(k) {
				m.Pix[k] = uint8(int(px[k]) + 128)
			}
		}
		return m, nil
	case UShortPixels:
		m := image.NewGray16(bounds)
		for k := 0; k < bandSize; k++ {
			if valid(k) {
				m.Pix[k*2] = uint8(px[k] >> 8)
				m.Pix[k*2+1] = uint8(px[k])
			}
		}
		return m, nil
	case ShortPixels:
		m := image.NewGray16(bounds)
		for k := 0; k < bandSize; k++ {
			if valid(k) {
				v := uint16(int(px[k]) + 32768)
				m.Pix[k*2] = uint8(v >> 8)
				m.Pix[k*2+1] = uint8(v)
			}
		}
		return m, nil
	case IntPixels:
		return luminanceImage(bounds, bandSize, valid, func(k int) float64 { return float64(px[k]) }), nil
	case UIntPixels:
		return luminanceImage(bounds, bandSize, valid, func(k int) float64 { return float64(px[k]) }), nil
	case FloatPixels:
		return luminanceImage(bounds, bandSize, valid, func(k int) float64 { return float64(px[k]) }), nil
	case DoublePixels:
		return luminanceImage(bounds, bandSize, valid, func(k int) float64 { return px[k] }), nil
	}
	return nil, UnsupportedError("undefined data type")
}

func luminanceImage(bounds image.Rectangle, bandSize int, valid func(int) bool, at func(int) float64) *hdr.XYZ {
	m := hdr.NewXYZ(bounds)
	w := bounds.Dx()
	for k := 0; k < bandSize; k++ {
		if !valid(k) {
			continue
		}
		y := at(k)
		m.SetXYZ(k%w, k/w, hdrcolor.XYZ{X: y, Y: y, Z: y})
	}
	return m
}

func init() {
	image.RegisterFormat("lerc", fileKey, DecodeImage, DecodeImageConfig)
}
