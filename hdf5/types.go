package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/dtype"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Element is the set of Go types stored as dataset and attribute
// elements.
type Element interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// Type is the element type of a dataset.
type Type struct {
	dt *message.Datatype
}

// TypeOf returns the type that stores T.
func TypeOf[T Element]() Type {
	return Type{dt: dtype.For[T]()}
}

// Size returns the size of one element in bytes.
func (t Type) Size() int {
	if t.dt == nil {
		return 0
	}
	return int(t.dt.Size)
}

// String describes the type, e.g. "int32" or "string(8)".
func (t Type) String() string {
	if t.dt == nil {
		return "invalid"
	}
	if gt, err := dtype.GoType(t.dt); err == nil {
		if t.dt.IsString() && !t.dt.IsVarLenString() {
			return fmt.Sprintf("%s(%d)", gt, t.dt.Size)
		}
		return gt.String()
	}
	return t.dt.String()
}

// Equal reports whether two types store elements identically.
func (t Type) Equal(o Type) bool {
	return t.dt != nil && o.dt != nil && dtype.Compatible(t.dt, o.dt) && t.dt.ByteOrder == o.dt.ByteOrder
}
