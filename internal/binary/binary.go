// Package binary reads and writes the fixed and variable-width integers
// that HDF5 metadata structures are built from.
package binary

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrInvalidSize is returned when an offset or length size is not 2, 4 or 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// Config describes the encoding of a file, taken from its superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is little-endian with 8-byte offsets and lengths, which is
// also what is used to read the start of a superblock.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Validate checks the offset and length sizes.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return ErrInvalidSize
		}
	}
	return nil
}

// Undefined returns the all-ones sentinel HDF5 uses for an unset address
// of the given width.
func Undefined(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*size) - 1
}

func getUint(order binary.ByteOrder, buf []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	}
	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

func putUint(order binary.ByteOrder, buf []byte, v uint64, size int) {
	switch size {
	case 1:
		buf[0] = uint8(v)
	case 2:
		order.PutUint16(buf, uint16(v))
	case 4:
		order.PutUint32(buf, uint32(v))
	case 8:
		order.PutUint64(buf, v)
	default:
		for i := 0; i < size; i++ {
			buf[i] = byte(v >> (8 * i))
		}
	}
}

// Buffer is a growable in-memory io.ReaderAt and io.WriterAt. Metadata
// blocks are assembled in a Buffer so their checksum can be computed
// before they reach the file.
type Buffer struct {
	buf []byte
}

// NewBuffer returns a Buffer that starts with the given contents.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{buf: b}
}

// WriteAt implements io.WriterAt, growing the buffer as needed.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("binary: negative offset")
	}
	if end := int(off) + len(p); end > len(b.buf) {
		grown := make([]byte, end)
		copy(grown, b.buf)
		b.buf = grown
	}
	return copy(b.buf[off:], p), nil
}

// ReadAt implements io.ReaderAt.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("binary: negative offset")
	}
	if off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.buf) }

// Encode runs fn against a Writer backed by a fresh Buffer and returns
// what it wrote.
func Encode(cfg Config, fn func(w *Writer) error) ([]byte, error) {
	buf := &Buffer{}
	if err := fn(NewWriter(buf, cfg)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
