package hdf5

import (
	"errors"
	"fmt"
	"slices"

	"github.com/robert-malhotra/hdf5kit/internal/dtype"
)

// Array is a dense N-dimensional array stored in row-major order.
type Array[T Element] struct {
	shape []uint64
	data  []T
}

func product(shape []uint64) uint64 {
	n := uint64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

// NewArray returns a zeroed array of the given shape. With no
// dimensions it holds a single element.
func NewArray[T Element](shape ...uint64) *Array[T] {
	return &Array[T]{shape: slices.Clone(shape), data: make([]T, product(shape))}
}

// ArrayFrom wraps data, which must hold exactly the elements of shape.
// The array shares data with the caller.
func ArrayFrom[T Element](data []T, shape ...uint64) (*Array[T], error) {
	if uint64(len(data)) != product(shape) {
		return nil, fmt.Errorf("hdf5: %d values cannot fill shape %v", len(data), shape)
	}
	return &Array[T]{shape: slices.Clone(shape), data: data}, nil
}

// Shape returns a copy of the extent of each dimension.
func (a *Array[T]) Shape() []uint64 { return slices.Clone(a.shape) }

// Rank returns the number of dimensions.
func (a *Array[T]) Rank() int { return len(a.shape) }

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.data) }

// Data returns the backing slice in row-major order.
func (a *Array[T]) Data() []T { return a.data }

func (a *Array[T]) offset(idx []uint64) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("hdf5: index of rank %d into array of rank %d", len(idx), len(a.shape)))
	}
	var off uint64
	for i, x := range idx {
		if x >= a.shape[i] {
			panic(fmt.Sprintf("hdf5: index %v out of range for shape %v", idx, a.shape))
		}
		off = off*a.shape[i] + x
	}
	return int(off)
}

// At returns the element at idx. It panics when idx is out of range.
func (a *Array[T]) At(idx ...uint64) T { return a.data[a.offset(idx)] }

// Set stores v at idx.
func (a *Array[T]) Set(v T, idx ...uint64) { a.data[a.offset(idx)] = v }

// Equal reports whether both arrays have the same shape and elements.
func (a *Array[T]) Equal(o *Array[T]) bool {
	return slices.Equal(a.shape, o.shape) && slices.Equal(a.data, o.data)
}

func firstStorage(storage []Storage) Storage {
	if len(storage) == 0 {
		return Contiguous{}
	}
	return storage[0]
}

// CreateArray creates a dataset with the shape and element type of arr.
// It does not check for an existing dataset and does not write arr.
func CreateArray[T Element](loc Location, name string, arr *Array[T], storage ...Storage) (*Dataset, error) {
	return CreateDataset(loc, name, TypeOf[T](), NewDataspace(arr.shape...), firstStorage(storage))
}

// WriteArray writes all of arr to the whole of ds.
func WriteArray[T Element](ds *Dataset, arr *Array[T]) error {
	return ds.write(dtype.For[T](), nil, nil, dtype.Encode(arr.data))
}

// WriteArraySelection writes the elements of arr selected by mem to the
// elements of ds selected by file. mem must describe arr's shape.
func WriteArraySelection[T Element](ds *Dataset, arr *Array[T], mem, file *Dataspace) error {
	return ds.write(dtype.For[T](), mem, file, dtype.Encode(arr.data))
}

// WriteArrayByName writes arr to the existing dataset name.
func WriteArrayByName[T Element](loc Location, name string, arr *Array[T]) error {
	return withDataset(loc, name, func(ds *Dataset) error {
		return WriteArray(ds, arr)
	})
}

// WriteArraySelectionByName is WriteArraySelection on the existing
// dataset name.
func WriteArraySelectionByName[T Element](loc Location, name string, arr *Array[T], mem, file *Dataspace) error {
	return withDataset(loc, name, func(ds *Dataset) error {
		return WriteArraySelection(ds, arr, mem, file)
	})
}

// ReadArray reads all of ds. rank is the rank the caller expects; a
// dataset of any other rank fails with ErrRankMismatch.
func ReadArray[T Element](ds *Dataset, rank int) (*Array[T], error) {
	s, err := ds.Dataspace()
	if err != nil {
		return nil, err
	}
	if s.Rank() != rank {
		return nil, fmt.Errorf("%w: %s has rank %d, want %d", ErrRankMismatch, ds.Name(), s.Rank(), rank)
	}
	arr := NewArray[T](s.Extents()...)
	buf := make([]byte, arr.Len()*dtype.Size[T]())
	if err := ds.read(dtype.For[T](), nil, nil, buf); err != nil {
		return nil, err
	}
	return decodeInto(arr, buf)
}

// ReadArrayByName reads all of the dataset name.
func ReadArrayByName[T Element](loc Location, name string, rank int) (arr *Array[T], err error) {
	ds, err := OpenDataset(loc, name)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, ds.Close()) }()
	return ReadArray[T](ds, rank)
}

// ReadArraySelection reads the elements of ds selected by file into a
// new array shaped like mem. The rank is checked against mem, not
// against the dataset.
func ReadArraySelection[T Element](ds *Dataset, rank int, mem, file *Dataspace) (*Array[T], error) {
	if mem == nil {
		return nil, fmt.Errorf("%w: no memory dataspace", ErrRankMismatch)
	}
	if mem.Rank() != rank {
		return nil, fmt.Errorf("%w: memory dataspace has rank %d, want %d", ErrRankMismatch, mem.Rank(), rank)
	}
	arr := NewArray[T](mem.Extents()...)
	buf := make([]byte, arr.Len()*dtype.Size[T]())
	if err := ds.read(dtype.For[T](), mem, file, buf); err != nil {
		return nil, err
	}
	return decodeInto(arr, buf)
}

func decodeInto[T Element](arr *Array[T], buf []byte) (*Array[T], error) {
	vals, err := dtype.Decode[T](buf)
	if err != nil {
		return nil, err
	}
	arr.data = vals
	return arr, nil
}

// withDataset opens the existing dataset name, runs fn and closes it.
func withDataset(loc Location, name string, fn func(*Dataset) error) (err error) {
	if !ExistsDataset(loc, name) {
		return fmt.Errorf("%w: dataset %s", ErrNotFound, name)
	}
	ds, err := OpenDataset(loc, name)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, ds.Close()) }()
	return fn(ds)
}
