package superblock

import (
	"encoding/binary"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/hdf5kit/internal/binary"
)

/*
Version 2/3 superblock:

	0       8  Signature
	8       1  Version
	9       1  Size of offsets
	10      1  Size of lengths
	11      1  File consistency flags
	12      O  Base address
	12+O    O  Superblock extension address
	12+2O   O  EOF address
	12+3O   O  Root group object header address
	12+4O   4  Checksum (lookup3 over everything before it)
*/

func readV2(r io.ReaderAt, offset int64) (*Superblock, error) {
	fixed := make([]byte, 4)
	if _, err := r.ReadAt(fixed, offset+8); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb := &Superblock{
		Version:              fixed[0],
		OffsetSize:           fixed[1],
		LengthSize:           fixed[2],
		FileConsistencyFlags: fixed[3],
	}
	if err := sb.Config().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	raw := make([]byte, sb.Size())
	if _, err := r.ReadAt(raw, offset); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	body := raw[:len(raw)-4]
	if binary.LittleEndian.Uint32(raw[len(raw)-4:]) != binpkg.Lookup3Checksum(body) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSuperblock)
	}

	br := binpkg.NewReader(binpkg.NewBuffer(body), sb.Config()).At(12)
	sb.BaseAddress, _ = br.ReadOffset()
	sb.SuperblockExtensionAddress, _ = br.ReadOffset()
	sb.EOFAddress, _ = br.ReadOffset()
	sb.RootGroupAddress, _ = br.ReadOffset()
	return sb, nil
}

// Write encodes a version 2 or 3 superblock at the writer's position.
func (sb *Superblock) Write(w *binpkg.Writer) error {
	if sb.Version < 2 {
		return fmt.Errorf("%w: cannot write version %d", ErrUnsupportedVersion, sb.Version)
	}
	body, err := binpkg.Encode(sb.Config(), func(bw *binpkg.Writer) error {
		if err := bw.WriteBytes(Signature); err != nil {
			return err
		}
		for _, b := range []uint8{sb.Version, sb.OffsetSize, sb.LengthSize, sb.FileConsistencyFlags} {
			if err := bw.WriteUint8(b); err != nil {
				return err
			}
		}
		for _, addr := range []uint64{sb.BaseAddress, sb.SuperblockExtensionAddress, sb.EOFAddress, sb.RootGroupAddress} {
			if err := bw.WriteOffset(addr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.WriteBytes(body); err != nil {
		return err
	}
	return w.WriteUint32(binpkg.Lookup3Checksum(body))
}
