package lerc

import (
	"encoding/binary"
)

// The mask payload uses a run-length scheme built on signed 16-bit
// little-endian counts:
//
//  - a positive count means "copy that many literal bytes",
//  - a negative count means "repeat the following byte |count| times",
//  - -32768 terminates the stream.

// rleReadCount reads the next run count and advances *pos.
func rleReadCount(data []byte, pos *int) (int16, error) {
	if *pos+2 > len(data) {
		return 0, FormatError("RLE count past end of input")
	}
	n := int16(binary.LittleEndian.Uint16(data[*pos:]))
	*pos += 2
	return n, nil
}

// rleDecompress expands data into dst. The decoded runs must fit dst exactly
// up to its length; overruns on either side fail before any out-of-bounds
// access.
func rleDecompress(data, dst []byte) error {
	if len(data) < 2 {
		return FormatError("RLE input too small")
	}

	var src, off int
	for {
		count, err := rleReadCount(data, &src)
		if err != nil {
			return err
		}
		if count == rleTerminator {
			return nil
		}

		if count > 0 {
			n := int(count)
			if src+n > len(data) {
				return FormatError("RLE literal run past end of input")
			}
			if off+n > len(dst) {
				return FormatError("RLE literal run overflows output")
			}
			copy(dst[off:off+n], data[src:src+n])
			src += n
			off += n
			continue
		}

		n := int(-count)
		if src >= len(data) {
			return FormatError("RLE repeat run past end of input")
		}
		if off+n > len(dst) {
			return FormatError("RLE repeat run overflows output")
		}
		b := data[src]
		src++
		for i := 0; i < n; i++ {
			dst[off+i] = b
		}
		off += n
	}
}

// rleDecompressedSize walks the runs without writing and returns the total
// decoded size, for pre-sizing output buffers.
func rleDecompressedSize(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, FormatError("RLE input too small")
	}

	var src, total int
	for {
		count, err := rleReadCount(data, &src)
		if err != nil {
			return 0, err
		}
		if count == rleTerminator {
			return total, nil
		}

		if count > 0 {
			n := int(count)
			if src+n > len(data) {
				return 0, FormatError("RLE literal run past end of input")
			}
			src += n
			total += n
			continue
		}

		if src >= len(data) {
			return 0, FormatError("RLE repeat run past end of input")
		}
		src++
		total += int(-count)
	}
}

// rleDecompressAlloc sizes and decompresses in one call.
func rleDecompressAlloc(data []byte) ([]byte, error) {
	size, err := rleDecompressedSize(data)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, size)
	if err := rleDecompress(data, dst); err != nil {
		return nil, err
	}
	return dst, nil
}
