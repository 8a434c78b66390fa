// Package hdf5 is a typed veneer over HDF5 files: groups, datasets and
// attributes read and written as native Go values.
package hdf5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
)

var (
	ErrAlreadyInUse     = errors.New("object is already in use")
	ErrCopyNotSupported = errors.New("object was copied; use Move to transfer ownership")
	ErrNotFound         = h5lib.ErrNotFound
	ErrAlreadyExists    = h5lib.ErrExists
	ErrShapeMismatch    = errors.New("dataspace is not scalar")
	ErrRankMismatch     = errors.New("rank mismatch")
	ErrInvalidOperation = errors.New("invalid operation on an iterator without a parent")
	ErrOutOfRange       = errors.New("iterator is past the end")
	ErrTypeMismatch     = h5lib.ErrTypeMismatch
	ErrReadOnly         = h5lib.ErrReadOnly
	ErrUnsupported      = h5lib.ErrUnsupported
	ErrNotHDF5          = h5lib.ErrNotHDF5
	ErrLocked           = h5lib.ErrLocked
	ErrTooLarge         = h5lib.ErrTooLarge
	ErrSelection        = h5lib.ErrSelection
	ErrSliceRank        = errors.New("slice arrays must have identical length")
	ErrOpenObjects      = errors.New("objects are still open")
	ErrMode             = errors.New("conflicting file mode")
	ErrNotOpen          = errors.New("object is not open")
)

// OpError is a failure reported by the storage library. Op names the
// operation and Name the object it was applied to.
type OpError struct {
	Op   string
	Name string
	Err  error
}

func (e *OpError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("hdf5: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("hdf5: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Name: name, Err: err}
}
