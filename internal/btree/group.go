package btree

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/heap"
)

var signatureSymbolNode = []byte("SNOD")

// GroupEntry is one member of an old-style group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	Soft          bool
	SoftLinkValue string
}

// Symbol table entry cache types.
const (
	cacheNone     = 0
	cacheHeader   = 1
	cacheSoftLink = 2
)

// ReadGroupEntries returns the members of the group whose B-tree is at
// btreeAddr, in name order.
func ReadGroupEntries(r *binary.Reader, btreeAddr uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	return readGroupNode(r, btreeAddr, names, 0)
}

func readGroupNode(r *binary.Reader, address uint64, names *heap.LocalHeap, depth int) ([]GroupEntry, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("group B-tree deeper than %d levels", maxDepth)
	}
	nr := r.At(int64(address))
	h, err := readNodeHeader(nr, address, nodeGroup)
	if err != nil {
		return nil, err
	}

	var entries []GroupEntry
	for i := 0; i < int(h.entries); i++ {
		// keys are heap offsets of the largest name below; only the
		// children matter here
		nr.Skip(int64(nr.LengthSize()))
		child, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		var sub []GroupEntry
		if h.level == 0 {
			sub, err = readSymbolNode(r, child, names)
		} else {
			sub, err = readGroupNode(r, child, names, depth+1)
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, sub...)
	}
	return entries, nil
}

func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(address))
	hdr, err := nr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table node at %d: %w", address, err)
	}
	if !bytes.Equal(hdr[:4], signatureSymbolNode) {
		return nil, fmt.Errorf("invalid symbol table node signature %q at %d", hdr[:4], address)
	}
	if hdr[4] != 1 {
		return nil, fmt.Errorf("unsupported symbol table node version %d", hdr[4])
	}
	n := int(nr.Uint(hdr[6:], 2))

	entries := make([]GroupEntry, 0, n)
	for i := 0; i < n; i++ {
		e, err := readSymbolEntry(nr, names)
		if err != nil {
			return nil, fmt.Errorf("symbol table entry %d: %w", i, err)
		}
		if e.Name != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func readSymbolEntry(r *binary.Reader, names *heap.LocalHeap) (GroupEntry, error) {
	var e GroupEntry
	nameOffset, err := r.ReadOffset()
	if err != nil {
		return e, err
	}
	if e.ObjectAddress, err = r.ReadOffset(); err != nil {
		return e, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return e, err
	}
	r.Skip(4)
	scratch, err := r.ReadBytes(16)
	if err != nil {
		return e, err
	}

	e.Name = names.String(nameOffset)
	if cache == cacheSoftLink {
		e.Soft = true
		e.SoftLinkValue = names.String(r.Uint(scratch, 4))
		e.ObjectAddress = 0
	}
	return e, nil
}
