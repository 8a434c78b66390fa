package btree

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// ChunkEntry is one stored chunk.
type ChunkEntry struct {
	// Offset is the element coordinate of the chunk's first element.
	Offset     []uint64
	FilterMask uint32
	Size       uint32
	Address    uint64
}

// ReadChunkIndex returns every chunk of a dataset of the given rank
// indexed by the B-tree at address.
func ReadChunkIndex(r *binary.Reader, address uint64, rank int) ([]ChunkEntry, error) {
	return readChunkNode(r, address, rank, 0)
}

func readChunkNode(r *binary.Reader, address uint64, rank, depth int) ([]ChunkEntry, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("chunk B-tree deeper than %d levels", maxDepth)
	}
	nr := r.At(int64(address))
	h, err := readNodeHeader(nr, address, nodeChunk)
	if err != nil {
		return nil, err
	}

	var entries []ChunkEntry
	for i := 0; i < int(h.entries); i++ {
		key, err := readChunkKey(nr, rank)
		if err != nil {
			return nil, err
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		if h.level > 0 {
			sub, err := readChunkNode(r, child, rank, depth+1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
			continue
		}
		if nr.IsUndefinedOffset(child) || key.Size == 0 {
			continue
		}
		key.Address = child
		entries = append(entries, key)
	}
	return entries, nil
}

// readChunkKey reads a key: stored size, filter mask, then rank+1
// 8-byte offsets of which the last is always zero.
func readChunkKey(r *binary.Reader, rank int) (ChunkEntry, error) {
	var k ChunkEntry
	var err error
	if k.Size, err = r.ReadUint32(); err != nil {
		return k, err
	}
	if k.FilterMask, err = r.ReadUint32(); err != nil {
		return k, err
	}
	k.Offset = make([]uint64, rank)
	for i := range k.Offset {
		if k.Offset[i], err = r.ReadUint64(); err != nil {
			return k, err
		}
	}
	r.Skip(8)
	return k, nil
}
