package hdf5

import (
	"github.com/robert-malhotra/hdf5kit/internal/dtype"
	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Dataset is an open dataset.
type Dataset struct {
	handle
}

// OpenDataset opens the existing dataset name under loc.
func OpenDataset(loc Location, name string) (*Dataset, error) {
	d := &Dataset{}
	if err := d.Open(loc, name); err != nil {
		return nil, err
	}
	return d, nil
}

// Open opens the dataset name under loc into d. It fails with
// ErrAlreadyInUse when d already holds a dataset.
func (d *Dataset) Open(loc Location, name string) error {
	if err := d.claim(); err != nil {
		return err
	}
	lid, err := loc.location()
	if err != nil {
		return err
	}
	id, err := h5lib.OpenDataset(lid, name)
	if err != nil {
		return opError("open dataset", name, err)
	}
	d.set(id)
	return nil
}

// ExistsDataset reports whether a dataset name can be opened under loc.
// Every failure, not only absence, reports false.
func ExistsDataset(loc Location, name string) bool {
	lid, err := loc.location()
	if err != nil {
		return false
	}
	kind, err := h5lib.ObjectKind(lid, name)
	return err == nil && kind == h5lib.KindDataset
}

// CreateDataset creates a dataset of type t and extent space under loc.
// Missing intermediate groups are created. A nil storage means
// Contiguous.
func CreateDataset(loc Location, name string, t Type, space *Dataspace, storage Storage) (*Dataset, error) {
	lid, err := loc.location()
	if err != nil {
		return nil, err
	}
	if storage == nil {
		storage = Contiguous{}
	}
	if space == nil {
		space = ScalarDataspace()
	}
	id, err := h5lib.CreateDataset(lid, name, space.space(), t.dt, storage.storage(t.Size()), true)
	if err != nil {
		return nil, opError("create dataset", name, err)
	}
	d := &Dataset{}
	d.set(id)
	return d, nil
}

// Name returns the absolute path of the dataset.
func (d *Dataset) Name() string { return d.name() }

// Close releases the dataset. Closing a closed dataset does nothing.
func (d *Dataset) Close() error { return d.release("close dataset") }

// Move transfers the dataset to a new value and leaves d empty.
func (d *Dataset) Move() (*Dataset, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	out := &Dataset{}
	if d.held() {
		out.set(d.take())
	}
	return out, nil
}

// Dataspace returns the extent of the dataset.
func (d *Dataset) Dataspace() (*Dataspace, error) {
	id, err := d.current()
	if err != nil {
		return nil, err
	}
	s, err := h5lib.DatasetSpace(id)
	if err != nil {
		return nil, opError("get dataspace", d.Name(), err)
	}
	return dataspaceOf(s), nil
}

// Type returns the element type of the dataset.
func (d *Dataset) Type() (Type, error) {
	id, err := d.current()
	if err != nil {
		return Type{}, err
	}
	dt, err := h5lib.DatasetType(id)
	if err != nil {
		return Type{}, opError("get type", d.Name(), err)
	}
	return Type{dt: dt}, nil
}

// Storage returns the storage layout of the dataset.
func (d *Dataset) Storage() (Storage, error) {
	id, err := d.current()
	if err != nil {
		return nil, err
	}
	st, err := h5lib.DatasetStorage(id)
	if err != nil {
		return nil, opError("get storage", d.Name(), err)
	}
	return storageOf(st), nil
}

// Elements returns the number of elements in the dataset.
func (d *Dataset) Elements() (uint64, error) {
	s, err := d.Dataspace()
	if err != nil {
		return 0, err
	}
	return s.Elements(), nil
}

// HasType reports whether d stores elements of type T.
func HasType[T Element](d *Dataset) bool {
	t, err := d.Type()
	return err == nil && dtype.Compatible(dtype.For[T](), t.dt)
}

// ReadRaw reads every element of d into buf in stored byte order of the
// memory type t.
func (d *Dataset) ReadRaw(t Type, buf []byte) error {
	return d.read(t.dt, nil, nil, buf)
}

func (d *Dataset) read(memType *message.Datatype, mem, file *Dataspace, buf []byte) error {
	id, err := d.current()
	if err != nil {
		return err
	}
	return opError("read", d.Name(), h5lib.Read(id, memType, mem.space(), file.space(), buf))
}

func (d *Dataset) write(memType *message.Datatype, mem, file *Dataspace, buf []byte) error {
	id, err := d.current()
	if err != nil {
		return err
	}
	return opError("write", d.Name(), h5lib.Write(id, memType, mem.space(), file.space(), buf))
}
