package filter

import (
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Shuffle groups byte i of every element together. Trailing bytes that
// do not form a whole element are left in place.
type Shuffle struct {
	ElemSize int
}

// NewShuffle reads the element size from client data, falling back to
// elemSize.
func NewShuffle(cd []uint32, elemSize int) *Shuffle {
	if len(cd) > 0 && cd[0] > 0 {
		elemSize = int(cd[0])
	}
	return &Shuffle{ElemSize: max(elemSize, 1)}
}

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	n := len(input) / max(f.ElemSize, 1)
	if f.ElemSize <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for i := 0; i < n; i++ {
		for j := 0; j < f.ElemSize; j++ {
			out[j*n+i] = input[i*f.ElemSize+j]
		}
	}
	copy(out[n*f.ElemSize:], input[n*f.ElemSize:])
	return out, nil
}

func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / max(f.ElemSize, 1)
	if f.ElemSize <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for i := 0; i < n; i++ {
		for j := 0; j < f.ElemSize; j++ {
			out[i*f.ElemSize+j] = input[j*n+i]
		}
	}
	copy(out[n*f.ElemSize:], input[n*f.ElemSize:])
	return out, nil
}
