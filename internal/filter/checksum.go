package filter

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	binpkg "github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Fletcher32 appends a Fletcher-32 checksum to each chunk.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (Fletcher32) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input)+4)
	copy(out, input)
	binary.LittleEndian.PutUint32(out[len(input):], binpkg.Fletcher32(input))
	return out, nil
}

// Decode verifies and strips the checksum. Checksums written byte-swapped
// by old library versions are accepted too.
func (Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("chunk of %d bytes has no checksum", len(input))
	}
	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	sum := binpkg.Fletcher32(data)
	if stored != sum && stored != bits.ReverseBytes32(sum) {
		return nil, fmt.Errorf("checksum mismatch: stored %#08x, computed %#08x", stored, sum)
	}
	return data, nil
}
