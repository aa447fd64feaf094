package lerc

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Raster pipelines (GDAL among them) optionally wrap the LERC buffer in a
// deflate or zstd envelope. unwrap detects and removes such an envelope;
// bare buffers pass through untouched.
func unwrap(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return data, nil
	}
	if bytes.HasPrefix(data, []byte(fileKey)) {
		return data, nil
	}

	switch {
	case isZstd(data):
		r, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "lerc: zstd envelope")
		}
		defer r.Close()

		out, err := r.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.Wrap(err, "lerc: zstd envelope")
		}
		return out, nil
	case isZlib(data):
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "lerc: deflate envelope")
		}
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "lerc: deflate envelope")
		}
		return out, nil
	}

	return data, nil
}

func isZstd(data []byte) bool {
	return data[0] == 0x28 && data[1] == 0xB5 && data[2] == 0x2F && data[3] == 0xFD
}

func isZlib(data []byte) bool {
	// CMF byte 0x78 (deflate, 32K window) and a valid FCHECK.
	return data[0] == 0x78 && (uint16(data[0])<<8|uint16(data[1]))%31 == 0
}
