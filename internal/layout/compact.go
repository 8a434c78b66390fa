package layout

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// MaxCompactSize is the largest raw data a compact layout can hold.
const MaxCompactSize = 0xFFFF - 4

// Compact is storage held inside the object header.
type Compact struct {
	p Params
}

// NewCompactLayout returns a compact layout message holding size bytes
// of fill.
func NewCompactLayout(p Params) (*message.DataLayout, error) {
	size := p.size()
	if size > MaxCompactSize {
		return nil, fmt.Errorf("compact storage of %d bytes exceeds %d", size, MaxCompactSize)
	}
	return message.NewCompactLayout(p.fill(size)), nil
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c *Compact) data() []byte {
	raw := c.p.Layout.CompactData
	if size := c.p.size(); uint64(len(raw)) < size {
		raw = append(slices.Clone(raw), c.p.fill(size-uint64(len(raw)))...)
	}
	return raw
}

func (c *Compact) Read(sel *Hyperslab) ([]byte, error) {
	return Gather(c.data(), Runs(c.p.Dims, sel), c.p.ElemSize), nil
}

func (c *Compact) Write(_ *binary.Writer, _ *alloc.Allocator, sel *Hyperslab, data []byte) (*message.DataLayout, error) {
	if err := checkData(sel, c.p.ElemSize, data); err != nil {
		return nil, err
	}
	raw := slices.Clone(c.data())
	Scatter(raw, Runs(c.p.Dims, sel), c.p.ElemSize, data)
	next := *c.p.Layout
	next.CompactData = raw
	c.p.Layout = &next
	return &next, nil
}
