package btree

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

var signatureTree = []byte("TREE")

// Node types.
const (
	nodeGroup = 0
	nodeChunk = 1
)

// maxDepth bounds recursion on corrupt trees.
const maxDepth = 64

type nodeHeader struct {
	level   uint8
	entries uint16
}

// readNodeHeader checks the signature and type of the node at address
// and leaves nr positioned at its first key.
func readNodeHeader(nr *binary.Reader, address uint64, wantType uint8) (nodeHeader, error) {
	var h nodeHeader
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return h, fmt.Errorf("reading B-tree node at %d: %w", address, err)
	}
	if !bytes.Equal(sig, signatureTree) {
		return h, fmt.Errorf("invalid B-tree signature %q at %d", sig, address)
	}
	typ, err := nr.ReadUint8()
	if err != nil {
		return h, err
	}
	if typ != wantType {
		return h, fmt.Errorf("B-tree node at %d has type %d, want %d", address, typ, wantType)
	}
	if h.level, err = nr.ReadUint8(); err != nil {
		return h, err
	}
	if h.entries, err = nr.ReadUint16(); err != nil {
		return h, err
	}
	// siblings
	nr.Skip(int64(2 * nr.OffsetSize()))
	return h, nil
}
