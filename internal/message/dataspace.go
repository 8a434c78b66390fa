package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// DataspaceType is the kind of a dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Unlimited marks an unlimited maximum dimension.
const Unlimited = ^uint64(0)

// Dataspace is the dataspace message (0x0001).
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil when equal to Dimensions
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// Rank returns the number of dimensions.
func (m *Dataspace) Rank() int { return len(m.Dimensions) }

// NumElements returns the number of elements in the dataspace.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	}
	return 0
}

func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }

// NewDataspace returns a simple dataspace. A nil or empty dims gives a
// scalar dataspace.
func NewDataspace(dims []uint64, maxDims []uint64) *Dataspace {
	if len(dims) == 0 {
		return NewScalarDataspace()
	}
	ds := &Dataspace{
		Version:    2,
		SpaceType:  DataspaceSimple,
		Dimensions: append([]uint64(nil), dims...),
	}
	if maxDims != nil {
		ds.MaxDims = append([]uint64(nil), maxDims...)
	}
	return ds
}

// NewScalarDataspace returns a single-element dataspace.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}

// NewNullDataspace returns an empty dataspace.
func NewNullDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceNull}
}

func parseDataspace(data []byte, r *binary.Reader) (*Dataspace, error) {
	c := newCursor(data, r)
	ds := &Dataspace{Version: c.u8()}
	rank := int(c.u8())
	flags := c.u8()

	switch ds.Version {
	case 1:
		c.skip(5)
		ds.SpaceType = DataspaceSimple
		if rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(c.u8())
	default:
		return nil, fmt.Errorf("unsupported dataspace version %d", ds.Version)
	}
	if c.err != nil {
		return nil, c.err
	}
	if ds.SpaceType != DataspaceSimple {
		return ds, nil
	}

	ds.Dimensions = make([]uint64, rank)
	for i := range ds.Dimensions {
		ds.Dimensions[i] = c.length()
	}
	if flags&0x01 != 0 {
		ds.MaxDims = make([]uint64, rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = c.length()
		}
	}
	return ds, c.err
}

// Serialize writes a version 2 dataspace message.
func (m *Dataspace) Serialize(w *binary.Writer) error {
	var flags uint8
	if m.MaxDims != nil {
		flags |= 0x01
	}
	for _, v := range []uint8{2, uint8(len(m.Dimensions)), flags, uint8(m.SpaceType)} {
		if err := w.WriteUint8(v); err != nil {
			return err
		}
	}
	if m.SpaceType != DataspaceSimple {
		return nil
	}
	for _, d := range m.Dimensions {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	for _, d := range m.MaxDims {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	return nil
}

func (m *Dataspace) SerializedSize(w *binary.Writer) int {
	if m.SpaceType != DataspaceSimple {
		return 4
	}
	n := 4 + len(m.Dimensions)*w.LengthSize()
	if m.MaxDims != nil {
		n += len(m.MaxDims) * w.LengthSize()
	}
	return n
}
