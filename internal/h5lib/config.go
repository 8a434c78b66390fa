package h5lib

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// FileConfig holds the creation and access properties of a file.
type FileConfig struct {
	// OffsetSize and LengthSize are the address and length widths of a
	// new file: 2, 4 or 8 bytes.
	OffsetSize int
	LengthSize int

	// Lock takes an exclusive advisory lock on files opened for writing.
	Lock bool
}

// DefaultFileConfig returns 8-byte addresses and lengths with locking on.
func DefaultFileConfig() FileConfig {
	return FileConfig{OffsetSize: 8, LengthSize: 8, Lock: true}
}

func (c FileConfig) validate() error {
	cfg := binary.DefaultConfig()
	cfg.OffsetSize, cfg.LengthSize = c.OffsetSize, c.LengthSize
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("file config: %w", err)
	}
	return nil
}
