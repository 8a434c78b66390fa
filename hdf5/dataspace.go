package hdf5

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
	"github.com/robert-malhotra/hdf5kit/internal/layout"
)

// Slice selects Count blocks of Block elements, Stride apart, from
// Offset in each dimension. Empty Stride and Block mean 1.
type Slice struct {
	Offset []uint64
	Count  []uint64
	Stride []uint64
	Block  []uint64
}

// NewSlice selects count elements from offset in each dimension.
func NewSlice(offset, count []uint64) (Slice, error) {
	if len(offset) != len(count) {
		return Slice{}, ErrSliceRank
	}
	return Slice{Offset: slices.Clone(offset), Count: slices.Clone(count)}, nil
}

// NewStridedSlice selects count blocks placed stride apart.
func NewStridedSlice(offset, count, stride, block []uint64) (Slice, error) {
	n := len(count)
	if len(offset) != n || len(stride) != n || len(block) != n {
		return Slice{}, ErrSliceRank
	}
	return Slice{
		Offset: slices.Clone(offset),
		Count:  slices.Clone(count),
		Stride: slices.Clone(stride),
		Block:  slices.Clone(block),
	}, nil
}

// Rank returns the number of dimensions the slice addresses.
func (s Slice) Rank() int { return len(s.Count) }

func (s Slice) hyperslab() *h5lib.Hyperslab {
	h := &h5lib.Hyperslab{Start: s.Offset, Count: s.Count}
	if len(s.Stride) > 0 {
		h.Stride = s.Stride
	}
	if len(s.Block) > 0 {
		h.Block = s.Block
	}
	return h
}

// Dataspace is the extent of a dataset or memory buffer, optionally
// with a selection that restricts a transfer to part of it.
type Dataspace struct {
	extents []uint64
	scalar  bool
	sel     *h5lib.Hyperslab
}

// NewDataspace returns a simple dataspace. With no extents it is scalar.
func NewDataspace(extents ...uint64) *Dataspace {
	if len(extents) == 0 {
		return ScalarDataspace()
	}
	return &Dataspace{extents: slices.Clone(extents)}
}

// ScalarDataspace returns a dataspace of exactly one element.
func ScalarDataspace() *Dataspace {
	return &Dataspace{scalar: true}
}

func dataspaceOf(s *h5lib.Space) *Dataspace {
	if s.Scalar {
		return ScalarDataspace()
	}
	return NewDataspace(s.Dims...)
}

// Rank returns the number of dimensions, zero for a scalar.
func (s *Dataspace) Rank() int { return len(s.extents) }

// Extents returns the size of each dimension.
func (s *Dataspace) Extents() []uint64 { return slices.Clone(s.extents) }

// IsScalar reports whether the dataspace holds a single element with no
// dimensions.
func (s *Dataspace) IsScalar() bool { return s.scalar }

// Elements returns the number of elements in the extent.
func (s *Dataspace) Elements() uint64 {
	n := uint64(1)
	for _, d := range s.extents {
		n *= d
	}
	return n
}

// Select restricts the dataspace to the elements of sl.
func (s *Dataspace) Select(sl Slice) error {
	if len(sl.Offset) != len(sl.Count) ||
		(len(sl.Stride) > 0 && len(sl.Stride) != len(sl.Count)) ||
		(len(sl.Block) > 0 && len(sl.Block) != len(sl.Count)) {
		return ErrSliceRank
	}
	if sl.Rank() != s.Rank() {
		return fmt.Errorf("%w: slice of rank %d on a dataspace of rank %d", ErrRankMismatch, sl.Rank(), s.Rank())
	}
	h := sl.hyperslab()
	if _, err := layout.Normalize(h, s.extents); err != nil {
		return err
	}
	s.sel = h
	return nil
}

// SelectAll drops any selection.
func (s *Dataspace) SelectAll() { s.sel = nil }

// Selected returns the number of selected elements.
func (s *Dataspace) Selected() uint64 {
	if s.sel == nil {
		return s.Elements()
	}
	h, err := layout.Normalize(s.sel, s.extents)
	if err != nil {
		return 0
	}
	return h.Elements()
}

func (s *Dataspace) space() *h5lib.Space {
	if s == nil {
		return nil
	}
	return &h5lib.Space{Dims: s.extents, Scalar: s.scalar, Sel: s.sel}
}
