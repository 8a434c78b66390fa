package hdf5

import "github.com/robert-malhotra/hdf5kit/internal/h5lib"

// Mode selects how OpenFile treats an existing file.
type Mode uint

const (
	ModeIn    Mode = 0x0 // read-only
	ModeOut   Mode = 0x1 // read-write
	ModeTrunc Mode = 0x2 // replace an existing file
	ModeExcl  Mode = 0x4 // refuse to touch an existing file
)

// FileOption configures file creation and access.
type FileOption func(*fileOptions)

type fileOptions struct {
	cfg h5lib.FileConfig
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{cfg: h5lib.DefaultFileConfig()}
}

// WithOffsetSize sets the size in bytes of file addresses (2, 4, or 8)
// for a new file.
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.cfg.OffsetSize = size
		}
	}
}

// WithLengthSize sets the size in bytes of lengths (2, 4, or 8) for a
// new file.
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.cfg.LengthSize = size
		}
	}
}

// WithLocking controls the advisory lock taken on files opened for
// writing. It is on by default.
func WithLocking(lock bool) FileOption {
	return func(o *fileOptions) {
		o.cfg.Lock = lock
	}
}
