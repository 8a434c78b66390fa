package layout

import (
	"errors"
	"fmt"
	"slices"
)

// ErrSelection reports a hyperslab that does not fit the extent it is
// applied to.
var ErrSelection = errors.New("invalid selection")

// Hyperslab selects, in each dimension, Count blocks of Block elements
// placed Stride apart from Start. Nil Stride or Block mean 1 everywhere.
type Hyperslab struct {
	Start  []uint64
	Stride []uint64
	Count  []uint64
	Block  []uint64
}

// Run is a contiguous range of elements in row-major order.
type Run struct {
	Offset uint64
	Length uint64
}

// All selects every element of an extent.
func All(dims []uint64) *Hyperslab {
	return &Hyperslab{
		Start:  make([]uint64, len(dims)),
		Stride: ones(len(dims)),
		Count:  slices.Clone(dims),
		Block:  ones(len(dims)),
	}
}

func ones(n int) []uint64 {
	s := make([]uint64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

// Normalize checks h against dims and returns a copy with defaults filled
// in. A nil h selects the whole extent.
func Normalize(h *Hyperslab, dims []uint64) (*Hyperslab, error) {
	if h == nil {
		return All(dims), nil
	}
	rank := len(dims)
	if len(h.Start) != rank || len(h.Count) != rank {
		return nil, fmt.Errorf("%w: rank %d selection on rank %d extent", ErrSelection, len(h.Count), rank)
	}
	if (h.Stride != nil && len(h.Stride) != rank) || (h.Block != nil && len(h.Block) != rank) {
		return nil, fmt.Errorf("%w: stride and block need %d entries", ErrSelection, rank)
	}
	out := &Hyperslab{
		Start:  slices.Clone(h.Start),
		Stride: ones(rank),
		Count:  slices.Clone(h.Count),
		Block:  ones(rank),
	}
	if h.Stride != nil {
		copy(out.Stride, h.Stride)
	}
	if h.Block != nil {
		copy(out.Block, h.Block)
	}
	for d := range rank {
		start, stride, count, block := out.Start[d], out.Stride[d], out.Count[d], out.Block[d]
		if stride == 0 || block == 0 {
			return nil, fmt.Errorf("%w: dimension %d has zero stride or block", ErrSelection, d)
		}
		if count > 1 && block > stride {
			return nil, fmt.Errorf("%w: dimension %d blocks of %d overlap at stride %d", ErrSelection, d, block, stride)
		}
		if count == 0 {
			if start > dims[d] {
				return nil, fmt.Errorf("%w: dimension %d start %d beyond extent %d", ErrSelection, d, start, dims[d])
			}
			continue
		}
		if end := start + (count-1)*stride + block; end > dims[d] {
			return nil, fmt.Errorf("%w: dimension %d ends at %d beyond extent %d", ErrSelection, d, end, dims[d])
		}
	}
	return out, nil
}

// Elements returns the number of selected elements.
func (h *Hyperslab) Elements() uint64 {
	n := uint64(1)
	for d := range h.Count {
		n *= h.Count[d] * h.block(d)
	}
	return n
}

// Shape returns the extent of the selection when packed densely.
func (h *Hyperslab) Shape() []uint64 {
	s := make([]uint64, len(h.Count))
	for d := range s {
		s[d] = h.Count[d] * h.block(d)
	}
	return s
}

func (h *Hyperslab) stride(d int) uint64 {
	if h.Stride == nil {
		return 1
	}
	return h.Stride[d]
}

func (h *Hyperslab) block(d int) uint64 {
	if h.Block == nil {
		return 1
	}
	return h.Block[d]
}

// Intervals returns the selected half-open coordinate ranges of
// dimension d in increasing order.
func (h *Hyperslab) Intervals(d int) [][2]uint64 {
	var out [][2]uint64
	for c := uint64(0); c < h.Count[d]; c++ {
		lo := h.Start[d] + c*h.stride(d)
		hi := lo + h.block(d)
		if n := len(out); n > 0 && out[n-1][1] == lo {
			out[n-1][1] = hi
			continue
		}
		out = append(out, [2]uint64{lo, hi})
	}
	return out
}

// Runs lists the selected elements of an extent as row-major runs, in
// the order the selection visits them. Adjacent runs are merged.
func Runs(dims []uint64, h *Hyperslab) []Run {
	rank := len(dims)
	if rank == 0 {
		return []Run{{Offset: 0, Length: 1}}
	}
	if h.Elements() == 0 {
		return nil
	}

	pitch := make([]uint64, rank)
	pitch[rank-1] = 1
	for d := rank - 2; d >= 0; d-- {
		pitch[d] = pitch[d+1] * dims[d+1]
	}
	coords := make([][]uint64, rank-1)
	for d := range coords {
		for _, iv := range h.Intervals(d) {
			for x := iv[0]; x < iv[1]; x++ {
				coords[d] = append(coords[d], x)
			}
		}
	}
	last := h.Intervals(rank - 1)

	var runs []Run
	emit := func(off, n uint64) {
		if k := len(runs); k > 0 && runs[k-1].Offset+runs[k-1].Length == off {
			runs[k-1].Length += n
			return
		}
		runs = append(runs, Run{Offset: off, Length: n})
	}

	idx := make([]int, rank-1)
	for {
		base := uint64(0)
		for d, i := range idx {
			base += coords[d][i] * pitch[d]
		}
		for _, iv := range last {
			emit(base+iv[0], iv[1]-iv[0])
		}

		d := rank - 2
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < len(coords[d]) {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return runs
		}
	}
}

// Gather copies the runs of src, in order, into a packed buffer.
func Gather(src []byte, runs []Run, elemSize int) []byte {
	es := uint64(elemSize)
	n := uint64(0)
	for _, r := range runs {
		n += r.Length
	}
	out := make([]byte, 0, n*es)
	for _, r := range runs {
		out = append(out, src[r.Offset*es:(r.Offset+r.Length)*es]...)
	}
	return out
}

// Scatter copies packed data into the runs of dst.
func Scatter(dst []byte, runs []Run, elemSize int, data []byte) {
	es := uint64(elemSize)
	pos := uint64(0)
	for _, r := range runs {
		n := r.Length * es
		copy(dst[r.Offset*es:r.Offset*es+n], data[pos:pos+n])
		pos += n
	}
}
