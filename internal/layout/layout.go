package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// ErrUnsupported reports storage this package cannot read or write.
var ErrUnsupported = errors.New("unsupported storage")

// Params describes one dataset's raw data.
type Params struct {
	Layout   *message.DataLayout
	Dims     []uint64 // empty for a scalar
	ElemSize int
	Filters  *message.FilterPipeline
	Fill     []byte // one element; nil fills with zeros
}

func (p *Params) elements() uint64 {
	n := uint64(1)
	for _, d := range p.Dims {
		n *= d
	}
	return n
}

func (p *Params) size() uint64 { return p.elements() * uint64(p.ElemSize) }

// fill returns n bytes of fill value.
func (p *Params) fill(n uint64) []byte {
	b := make([]byte, n)
	if len(p.Fill) == p.ElemSize && p.ElemSize > 0 && !allZero(p.Fill) {
		for i := 0; i+p.ElemSize <= len(b); i += p.ElemSize {
			copy(b[i:], p.Fill)
		}
	}
	return b
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Store moves the selected elements of a dataset between the file and a
// packed buffer. Selections must already be normalized against Dims.
type Store interface {
	Class() message.LayoutClass

	// Read returns the selected elements, packed in selection order.
	Read(sel *Hyperslab) ([]byte, error)

	// Write stores packed data into the selected elements. When the
	// layout message changes, the new message is returned and must
	// replace the old one in the object header.
	Write(w *binary.Writer, a *alloc.Allocator, sel *Hyperslab, data []byte) (*message.DataLayout, error)
}

// Open returns the store for p.
func Open(p Params, r *binary.Reader) (Store, error) {
	if p.Layout == nil {
		return nil, fmt.Errorf("dataset has no layout message")
	}
	if p.ElemSize <= 0 {
		return nil, fmt.Errorf("invalid element size %d", p.ElemSize)
	}
	switch p.Layout.Class {
	case message.LayoutCompact:
		return &Compact{p: p}, nil
	case message.LayoutContiguous:
		return &Contiguous{p: p, r: r}, nil
	case message.LayoutChunked:
		return newChunked(p, r)
	}
	return nil, fmt.Errorf("%w: %s layout", ErrUnsupported, p.Layout.Class)
}

// undefined reports whether addr is the all-ones address of the given
// width, or the 8-byte form of it.
func undefined(addr uint64, offsetSize int) bool {
	return addr == binary.Undefined(offsetSize) || addr == message.UndefinedAddress
}

func checkData(sel *Hyperslab, elemSize int, data []byte) error {
	if want := sel.Elements() * uint64(elemSize); uint64(len(data)) != want {
		return fmt.Errorf("%w: %d bytes for %d selected bytes", ErrSelection, len(data), want)
	}
	return nil
}
