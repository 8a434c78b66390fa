package layout

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Contiguous is storage in one block of the file. An undefined address
// means the block has not been allocated and reads return fill.
type Contiguous struct {
	p Params
	r *binary.Reader
}

// NewContiguousLayout allocates and fills the data block of p.
func NewContiguousLayout(w *binary.Writer, a *alloc.Allocator, p Params) (*message.DataLayout, error) {
	size := p.size()
	addr := a.Alloc(size, "contiguous data")
	if size > 0 {
		if err := w.At(int64(addr)).WriteBytes(p.fill(size)); err != nil {
			return nil, fmt.Errorf("writing contiguous data: %w", err)
		}
	}
	return message.NewContiguousLayout(addr, size), nil
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c *Contiguous) allocated() bool {
	return !undefined(c.p.Layout.Address, c.r.OffsetSize())
}

func (c *Contiguous) Read(sel *Hyperslab) ([]byte, error) {
	runs := Runs(c.p.Dims, sel)
	if !c.allocated() {
		return c.p.fill(sel.Elements() * uint64(c.p.ElemSize)), nil
	}
	if err := c.checkSize(); err != nil {
		return nil, err
	}
	es := uint64(c.p.ElemSize)
	out := make([]byte, 0, sel.Elements()*es)
	for _, run := range runs {
		b, err := c.r.At(int64(c.p.Layout.Address + run.Offset*es)).ReadBytes(int(run.Length * es))
		if err != nil {
			return nil, fmt.Errorf("reading contiguous data: %w", err)
		}
		out = append(out, b...)
	}
	return out, nil
}

func (c *Contiguous) checkSize() error {
	if stored := c.p.Layout.Size; stored != 0 && stored < c.p.size() {
		return fmt.Errorf("contiguous block of %d bytes holds less than %d", stored, c.p.size())
	}
	return nil
}

func (c *Contiguous) Write(w *binary.Writer, a *alloc.Allocator, sel *Hyperslab, data []byte) (*message.DataLayout, error) {
	if err := checkData(sel, c.p.ElemSize, data); err != nil {
		return nil, err
	}
	var changed *message.DataLayout
	if !c.allocated() {
		next, err := NewContiguousLayout(w, a, c.p)
		if err != nil {
			return nil, err
		}
		c.p.Layout, changed = next, next
	} else if err := c.checkSize(); err != nil {
		return nil, err
	}

	es := uint64(c.p.ElemSize)
	pos := uint64(0)
	for _, run := range Runs(c.p.Dims, sel) {
		n := run.Length * es
		if err := w.At(int64(c.p.Layout.Address + run.Offset*es)).WriteBytes(data[pos : pos+n]); err != nil {
			return nil, fmt.Errorf("writing contiguous data: %w", err)
		}
		pos += n
	}
	return changed, nil
}
