package h5lib

import (
	"slices"

	"github.com/robert-malhotra/hdf5kit/internal/layout"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Hyperslab selects a regular pattern of blocks in each dimension.
type Hyperslab = layout.Hyperslab

// Space is an extent with an optional selection. A nil Sel selects
// everything.
type Space struct {
	Dims   []uint64
	Scalar bool
	Sel    *Hyperslab
}

// Rank returns the number of dimensions, zero for a scalar.
func (s *Space) Rank() int { return len(s.Dims) }

// Elements returns the number of elements in the extent.
func (s *Space) Elements() uint64 {
	n := uint64(1)
	for _, d := range s.Dims {
		n *= d
	}
	return n
}

func (s *Space) message() *message.Dataspace {
	if s.Scalar || len(s.Dims) == 0 {
		return message.NewScalarDataspace()
	}
	return message.NewDataspace(s.Dims, nil)
}

func spaceOf(ds *message.Dataspace) *Space {
	if ds.IsScalar() {
		return &Space{Scalar: true}
	}
	return &Space{Dims: slices.Clone(ds.Dimensions)}
}

// selection returns the normalized selection of s. Scalar spaces select
// their one element.
func (s *Space) selection() (*Hyperslab, error) {
	if s.Scalar {
		return layout.Normalize(nil, nil)
	}
	return layout.Normalize(s.Sel, s.Dims)
}
