package hdf5

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
)

// File is an open HDF5 file.
type File struct {
	handle
}

// OpenFile opens or creates the file at path.
//
// An existing file is opened unless ModeTrunc is set; ModeExcl refuses
// to open it at all. A missing file, or one to be truncated, is created
// unless the mode is read-only. ModeTrunc and ModeExcl cannot be
// combined.
func OpenFile(path string, mode Mode, opts ...FileOption) (*File, error) {
	f := &File{}
	if err := f.Open(path, mode, opts...); err != nil {
		return nil, err
	}
	return f, nil
}

// Open opens a file into f, which must not hold one already.
func (f *File) Open(path string, mode Mode, opts ...FileOption) error {
	if err := f.claim(); err != nil {
		return err
	}
	if mode&ModeTrunc != 0 && mode&ModeExcl != 0 {
		return fmt.Errorf("%w: %#x", ErrMode, uint(mode))
	}
	o := defaultFileOptions()
	for _, opt := range opts {
		opt(o)
	}

	exists := true
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		exists = false
	}

	var (
		id  h5lib.ID
		err error
	)
	switch {
	case exists && mode&ModeTrunc == 0:
		if mode&ModeExcl != 0 {
			return opError("open", path, fmt.Errorf("refusing to overwrite existing file: %w", ErrAlreadyExists))
		}
		ok, err := h5lib.IsHDF5(path)
		if err != nil {
			return opError("open", path, err)
		}
		if !ok {
			return opError("open", path, ErrNotHDF5)
		}
		id, err = h5lib.OpenFile(path, mode&ModeOut != 0, o.cfg)
		if err != nil {
			return opError("open", path, err)
		}
	case mode == ModeIn:
		return opError("open", path, fmt.Errorf("read-only access to a missing file: %w", ErrNotFound))
	default:
		if id, err = h5lib.CreateFile(path, o.cfg); err != nil {
			return opError("create", path, err)
		}
	}
	f.set(id)
	return nil
}

// IsHDF5 reports whether path is an HDF5 file.
func IsHDF5(path string) (bool, error) {
	ok, err := h5lib.IsHDF5(path)
	if err != nil {
		return false, opError("probe", path, err)
	}
	return ok, nil
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	id, err := f.current()
	if err != nil {
		return ""
	}
	name, _ := h5lib.FileName(id)
	return name
}

// Root opens the root group.
func (f *File) Root() (*Group, error) {
	return openGroup(f, "/", false)
}

// Flush writes pending metadata to disk.
func (f *File) Flush() error {
	id, err := f.current()
	if errors.Is(err, ErrNotOpen) {
		return nil
	}
	if err != nil {
		return err
	}
	return opError("flush", f.Name(), h5lib.Flush(id))
}

// Close releases the file. Objects opened through it keep it open until
// they are closed too.
func (f *File) Close() error {
	return f.release("close file")
}

// CloseStrict closes the file only when no group or dataset opened
// through it is still open.
func (f *File) CloseStrict() error {
	id, err := f.current()
	if errors.Is(err, ErrNotOpen) {
		return nil
	}
	if err != nil {
		return err
	}
	n, err := h5lib.OpenObjects(id)
	if err != nil {
		return opError("close file", f.Name(), err)
	}
	if n > 0 {
		return fmt.Errorf("closing %s would leave %d objects behind: %w", f.Name(), n, ErrOpenObjects)
	}
	return f.Close()
}

// Move transfers the file to a new value and leaves f empty.
func (f *File) Move() (*File, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	out := &File{}
	if f.held() {
		out.set(f.take())
	}
	return out, nil
}

func (f *File) location() (h5lib.ID, error) { return f.current() }
