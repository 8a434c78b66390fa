package h5lib

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/layout"
	"github.com/robert-malhotra/hdf5kit/internal/object"
	"github.com/robert-malhotra/hdf5kit/internal/superblock"
)

var (
	ErrInvalidID    = errors.New("invalid identifier")
	ErrWrongKind    = errors.New("wrong kind of object")
	ErrNotFound     = errors.New("not found")
	ErrExists       = errors.New("already exists")
	ErrReadOnly     = errors.New("file is read-only")
	ErrTypeMismatch = errors.New("datatype mismatch")
	ErrSelection    = layout.ErrSelection
	ErrUnsupported  = errors.New("unsupported")
	ErrNotHDF5      = superblock.ErrNotHDF5
	ErrTooLarge     = errors.New("too large")
	ErrLocked       = errors.New("file is locked")
)

// unsupported tags errors from the format packages that describe
// structures this library cannot handle.
func unsupported(err error) error {
	if err == nil || errors.Is(err, ErrUnsupported) {
		return err
	}
	if errors.Is(err, object.ErrUnsupportedVersion) || errors.Is(err, layout.ErrUnsupported) {
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return err
}
