package hdf5

import (
	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
)

// ID is a library object identifier. Negative values are never open.
type ID = h5lib.ID

// noCopy lets go vet's copylocks check flag copies of objects that own a
// handle.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// handle owns one library ID. The self pointer detects copies made by
// value, in the manner of strings.Builder.
type handle struct {
	_    noCopy
	self *handle
	id   h5lib.ID
}

func (h *handle) check() error {
	if h.self != nil && h.self != h {
		return ErrCopyNotSupported
	}
	return nil
}

// held reports whether h was ever set and still owns a non-negative ID.
// The zero value holds nothing.
func (h *handle) held() bool { return h.self != nil && h.id >= 0 }

func (h *handle) set(id h5lib.ID) {
	h.id = id
	h.self = h
}

// take returns the ID and leaves h empty.
func (h *handle) take() h5lib.ID {
	id := h.id
	h.id = h5lib.Invalid
	return id
}

// current returns the ID of an open, uncopied handle.
func (h *handle) current() (h5lib.ID, error) {
	if err := h.check(); err != nil {
		return h5lib.Invalid, err
	}
	if !h.held() {
		return h5lib.Invalid, ErrNotOpen
	}
	return h.id, nil
}

// claim prepares h to receive a new ID.
func (h *handle) claim() error {
	if err := h.check(); err != nil {
		return err
	}
	if h.held() {
		return ErrAlreadyInUse
	}
	return nil
}

// release closes the ID if one is held. Calling it again is a no-op.
func (h *handle) release(op string) error {
	if err := h.check(); err != nil {
		return err
	}
	if !h.held() {
		return nil
	}
	name, _ := h5lib.Name(h.id)
	return opError(op, name, h5lib.Close(h.take()))
}

// ID returns the library ID, or a negative value when not open.
func (h *handle) ID() ID {
	if !h.held() || h.check() != nil {
		return h5lib.Invalid
	}
	return h.id
}

// Valid reports whether the object holds an open ID.
func (h *handle) Valid() bool {
	return h.check() == nil && h.held() && h5lib.IsValid(h.id)
}

func (h *handle) name() string {
	id, err := h.current()
	if err != nil {
		return ""
	}
	name, _ := h5lib.Name(id)
	return name
}
