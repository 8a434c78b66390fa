package hdf5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/dtype"
)

// CreateScalar creates a single-element dataset of type T with compact
// storage. It fails with ErrAlreadyExists when name is already a dataset.
func CreateScalar[T Element](loc Location, name string) (*Dataset, error) {
	if ExistsDataset(loc, name) {
		return nil, fmt.Errorf("%w: dataset %s", ErrAlreadyExists, name)
	}
	return CreateDataset(loc, name, TypeOf[T](), ScalarDataspace(), Compact{})
}

// WriteScalar stores v in the existing scalar dataset name. It never
// creates the dataset.
func WriteScalar[T Element](loc Location, name string, v T) error {
	return withDataset(loc, name, func(ds *Dataset) error {
		return WriteScalarTo(ds, v)
	})
}

// ReadScalar returns the value of the scalar dataset name.
func ReadScalar[T Element](loc Location, name string) (v T, err error) {
	ds, err := OpenDataset(loc, name)
	if err != nil {
		return v, err
	}
	defer func() { err = errors.Join(err, ds.Close()) }()
	return ReadScalarFrom[T](ds)
}

// WriteScalarTo stores v in ds, which must be scalar.
func WriteScalarTo[T Element](ds *Dataset, v T) error {
	if err := requireScalar(ds); err != nil {
		return err
	}
	return ds.write(dtype.For[T](), nil, nil, dtype.Encode([]T{v}))
}

// ReadScalarFrom returns the value stored in the scalar dataset ds.
func ReadScalarFrom[T Element](ds *Dataset) (T, error) {
	var zero T
	if err := requireScalar(ds); err != nil {
		return zero, err
	}
	buf := make([]byte, dtype.Size[T]())
	if err := ds.read(dtype.For[T](), nil, nil, buf); err != nil {
		return zero, err
	}
	vals, err := dtype.Decode[T](buf)
	if err != nil {
		return zero, err
	}
	return vals[0], nil
}

func requireScalar(ds *Dataset) error {
	s, err := ds.Dataspace()
	if err != nil {
		return err
	}
	if !s.IsScalar() {
		return fmt.Errorf("%w: %s has extents %v", ErrShapeMismatch, ds.Name(), s.Extents())
	}
	return nil
}
