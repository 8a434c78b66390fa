package h5lib

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/message"
	"github.com/robert-malhotra/hdf5kit/internal/object"
	"github.com/robert-malhotra/hdf5kit/internal/superblock"
)

type file struct {
	path   string
	osf    *os.File
	rw     bool
	locked bool
	sb     *superblock.Superblock
	r      *binary.Reader
	w      *binary.Writer
	a      *alloc.Allocator
	refs   int
}

// section shifts file addresses by the offset of the superblock.
type section struct {
	f    *os.File
	base int64
}

func (s section) ReadAt(p []byte, off int64) (int, error)  { return s.f.ReadAt(p, s.base+off) }
func (s section) WriteAt(p []byte, off int64) (int, error) { return s.f.WriteAt(p, s.base+off) }

func (f *file) bind() {
	cfg := f.sb.Config()
	sec := section{f: f.osf, base: f.sb.FileOffset}
	f.r = binary.NewReader(sec, cfg)
	f.w = binary.NewWriter(sec, cfg)
}

func (f *file) root() uint64 { return f.sb.RootGroupAddress }

func groupMessages() []message.Message {
	return []message.Message{message.NewLinkInfo(), message.NewGroupInfo()}
}

// CreateFile creates or truncates the file at path and returns its ID.
func CreateFile(path string, cfg FileConfig) (ID, error) {
	if err := cfg.validate(); err != nil {
		return Invalid, err
	}
	osf, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return Invalid, fmt.Errorf("creating %s: %w", path, err)
	}
	f := &file{path: path, osf: osf, rw: true}
	if err := f.lock(cfg); err != nil {
		osf.Close()
		return Invalid, err
	}
	if err := osf.Truncate(0); err != nil {
		f.abort()
		return Invalid, fmt.Errorf("truncating %s: %w", path, err)
	}

	f.sb = superblock.New(uint8(cfg.OffsetSize), uint8(cfg.LengthSize))
	f.bind()
	f.a = alloc.New(uint64(f.sb.Size()))
	root, err := object.Write(f.w, f.a, groupMessages(), object.MinGroupChunkSize)
	if err != nil {
		f.abort()
		return Invalid, fmt.Errorf("writing root group: %w", err)
	}
	f.sb.RootGroupAddress = root.Address
	if err := f.writeSuperblock(); err != nil {
		f.abort()
		return Invalid, err
	}

	Logger().Debug("created file",
		zap.String("path", path),
		zap.Int("offset_size", cfg.OffsetSize),
		zap.Int("length_size", cfg.LengthSize))

	mu.Lock()
	defer mu.Unlock()
	return register(KindFile, f, f.root(), "/"), nil
}

// OpenFile opens an existing HDF5 file.
func OpenFile(path string, readWrite bool, cfg FileConfig) (ID, error) {
	flag := os.O_RDONLY
	if readWrite {
		flag = os.O_RDWR
	}
	osf, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return Invalid, fmt.Errorf("opening %s: %w", path, err)
	}
	f := &file{path: path, osf: osf, rw: readWrite}
	if readWrite {
		if err := f.lock(cfg); err != nil {
			osf.Close()
			return Invalid, err
		}
	}

	f.sb, err = superblock.Read(osf)
	if err != nil {
		f.abort()
		if errors.Is(err, superblock.ErrNotHDF5) {
			return Invalid, fmt.Errorf("%s: %w", path, err)
		}
		return Invalid, unsupported(fmt.Errorf("%s: %w", path, err))
	}
	f.bind()
	if _, err := f.header(f.root()); err != nil {
		f.abort()
		return Invalid, fmt.Errorf("%s: root group: %w", path, err)
	}
	if readWrite {
		info, err := osf.Stat()
		if err != nil {
			f.abort()
			return Invalid, fmt.Errorf("stat %s: %w", path, err)
		}
		end := max(f.sb.EOFAddress, uint64(max(info.Size()-f.sb.FileOffset, 0)))
		f.a = alloc.New(end)
	}

	Logger().Debug("opened file",
		zap.String("path", path),
		zap.Bool("read_write", readWrite),
		zap.Uint8("superblock_version", f.sb.Version))

	mu.Lock()
	defer mu.Unlock()
	return register(KindFile, f, f.root(), "/"), nil
}

// IsHDF5 reports whether path starts with an HDF5 superblock.
func IsHDF5(path string) (bool, error) {
	osf, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer osf.Close()
	if _, err := superblock.Read(osf); err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Flush writes the superblock of the file id belongs to and syncs it.
func Flush(id ID) error {
	mu.Lock()
	defer mu.Unlock()
	h, err := lookup(id)
	if err != nil {
		return err
	}
	return h.file.flush()
}

func (f *file) lock(cfg FileConfig) error {
	if !cfg.Lock {
		return nil
	}
	if err := lockFile(f.osf); err != nil {
		return fmt.Errorf("locking %s: %w", f.path, err)
	}
	f.locked = true
	return nil
}

func (f *file) writable() error {
	if !f.rw {
		return fmt.Errorf("%w: %s", ErrReadOnly, f.path)
	}
	return nil
}

func (f *file) writeSuperblock() error {
	w := binary.NewWriter(f.osf, f.sb.Config())
	if err := f.sb.WriteEOF(w, f.a.EOFAddr()); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}

func (f *file) flush() error {
	if !f.rw {
		return nil
	}
	if err := f.writeSuperblock(); err != nil {
		return err
	}
	return f.osf.Sync()
}

func (f *file) close() error {
	var errs []error
	if f.rw {
		errs = append(errs, f.flush())
	}
	if f.locked {
		errs = append(errs, unlockFile(f.osf))
	}
	errs = append(errs, f.osf.Close())
	if err := errors.Join(errs...); err != nil {
		Logger().Error("closing file failed", zap.String("path", f.path), zap.Error(err))
		return fmt.Errorf("closing %s: %w", f.path, err)
	}
	Logger().Debug("closed file", zap.String("path", f.path))
	return nil
}

// abort releases a file that never got an ID.
func (f *file) abort() {
	if f.locked {
		unlockFile(f.osf)
	}
	f.osf.Close()
}
