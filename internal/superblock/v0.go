package superblock

import (
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/hdf5kit/internal/binary"
)

/*
Version 0/1 superblock:

	0     8  Signature
	8     1  Version
	9     1  Free-space storage version
	10    1  Root group symbol table entry version
	11    1  Reserved
	12    1  Shared header message format version
	13    1  Size of offsets
	14    1  Size of lengths
	15    1  Reserved
	16    2  Group leaf node K
	18    2  Group internal node K
	20    4  File consistency flags
	24    2  Indexed storage K (v1 only, then 2 reserved bytes)
	..    O  Base address
	..    O  Free-space info address
	..    O  EOF address
	..    O  Driver info block address
	..    E  Root group symbol table entry (link name offset, object header
	         address, cache type, reserved, 16-byte scratch pad)
*/

func symbolEntrySize(offsetSize int) int {
	return 2*offsetSize + 4 + 4 + 16
}

func readV0(r io.ReaderAt, offset int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 16)
	if _, err := r.ReadAt(fixed, offset+8); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb := &Superblock{
		Version:            version,
		OffsetSize:         fixed[5],
		LengthSize:         fixed[6],
		GroupLeafNodeK:     uint16(fixed[8]) | uint16(fixed[9])<<8,
		GroupInternalNodeK: uint16(fixed[10]) | uint16(fixed[11])<<8,
	}
	if err := sb.Config().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	br := binpkg.NewReader(r, sb.Config()).At(offset + 24)
	if version == 1 {
		k, err := br.ReadUint16()
		if err != nil {
			return nil, err
		}
		sb.IndexedStorageK = k
		br.Skip(2)
	}

	var err error
	if sb.BaseAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	br.Skip(int64(sb.OffsetSize)) // free-space info
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	br.Skip(int64(sb.OffsetSize)) // driver info
	br.Skip(int64(sb.OffsetSize)) // link name offset
	if sb.RootGroupAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	sb.SuperblockExtensionAddress = binpkg.Undefined(int(sb.OffsetSize))
	return sb, nil
}
