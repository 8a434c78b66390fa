package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// DefaultDeflateLevel is used when client data gives no level.
const DefaultDeflateLevel = 6

// Deflate is the zlib filter.
type Deflate struct {
	Level int
}

// NewDeflate reads the level from client data.
func NewDeflate(cd []uint32) *Deflate {
	level := DefaultDeflateLevel
	if len(cd) > 0 {
		level = int(cd[0])
	}
	return &Deflate{Level: level}
}

func (f *Deflate) ID() uint16 { return message.FilterDeflate }

func (f *Deflate) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, f.Level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(input); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Deflate) Decode(input []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return out, nil
}
