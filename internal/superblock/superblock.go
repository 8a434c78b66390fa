package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/hdf5kit/internal/binary"
)

// Signature is the 8-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock holds the fields of a parsed superblock.
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress                uint64
	SuperblockExtensionAddress uint64
	EOFAddress                 uint64
	RootGroupAddress           uint64

	// Version 0 and 1 only.
	GroupLeafNodeK     uint16
	GroupInternalNodeK uint16
	IndexedStorageK    uint16

	// FileOffset is where the signature was found.
	FileOffset int64
}

// New returns a version 3 superblock for a file about to be created.
func New(offsetSize, lengthSize uint8) *Superblock {
	return &Superblock{
		Version:                    3,
		OffsetSize:                 offsetSize,
		LengthSize:                 lengthSize,
		SuperblockExtensionAddress: binpkg.Undefined(int(offsetSize)),
	}
}

// Read locates and parses the superblock of an HDF5 file.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, 9)
	for _, offset := range searchOffsets {
		n, err := r.ReadAt(sig, offset)
		if n < len(sig) {
			if err == nil || err == io.EOF {
				break
			}
			return nil, err
		}
		if !bytes.Equal(sig[:8], Signature) {
			continue
		}

		var sb *Superblock
		switch version := sig[8]; version {
		case 0, 1:
			sb, err = readV0(r, offset, version)
		case 2, 3:
			sb, err = readV2(r, offset)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
		if err != nil {
			return nil, err
		}
		sb.FileOffset = offset
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// Config returns the binary encoding used by the rest of the file.
func (sb *Superblock) Config() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// Size returns the encoded size of the superblock, including the root
// group symbol table entry for versions 0 and 1.
func (sb *Superblock) Size() int {
	o := int(sb.OffsetSize)
	switch sb.Version {
	case 0:
		return 24 + 4*o + symbolEntrySize(o)
	case 1:
		return 28 + 4*o + symbolEntrySize(o)
	}
	return 12 + 4*o + 4
}

// WriteEOF records a new logical end of file. Versions 2 and 3 are
// rewritten whole so the checksum stays valid; older versions have the
// field patched in place.
func (sb *Superblock) WriteEOF(w *binpkg.Writer, eof uint64) error {
	sb.EOFAddress = eof
	if sb.Version >= 2 {
		return sb.Write(w.At(sb.FileOffset))
	}
	fieldStart := int64(24)
	if sb.Version == 1 {
		fieldStart = 28
	}
	return w.At(sb.FileOffset + fieldStart + 2*int64(sb.OffsetSize)).WriteOffset(eof - sb.BaseAddress)
}
