package filter

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Filter transforms chunk bytes in both directions.
type Filter interface {
	ID() uint16
	Encode(input []byte) ([]byte, error)
	Decode(input []byte) ([]byte, error)
}

// Registry maps filter IDs to constructors. The element size is passed
// for filters that need it when client data leaves it out.
var Registry = map[uint16]func(cd []uint32, elemSize int) Filter{
	message.FilterDeflate:    func(cd []uint32, _ int) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32, size int) Filter { return NewShuffle(cd, size) },
	message.FilterFletcher32: func([]uint32, int) Filter { return Fletcher32{} },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
}

// Name returns a short name for filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter-%d", id)
}

// New returns the filter described by info. An optional filter that is
// not available yields nil and no error.
func New(info message.FilterInfo, elemSize int) (Filter, error) {
	ctor, ok := Registry[info.ID]
	if !ok {
		if info.IsOptional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%s filter (ID %d) is not supported", Name(info.ID), info.ID)
	}
	return ctor(info.ClientData, elemSize), nil
}
