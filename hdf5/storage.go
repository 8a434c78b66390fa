package hdf5

import (
	"github.com/robert-malhotra/hdf5kit/internal/filter"
	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Storage is a dataset storage layout: Contiguous, Compact or Chunked.
type Storage interface {
	storage(elemSize int) h5lib.Storage
}

// Contiguous stores the data in one block of the file. It is the
// default.
type Contiguous struct{}

// Compact stores the data inside the dataset's object header. The data
// must be smaller than 64 KiB.
type Compact struct{}

// Chunked stores the data in chunks of Dims elements, each passed
// through Filters in order.
type Chunked struct {
	Dims    []uint32
	Filters []Filter
}

func (Contiguous) storage(int) h5lib.Storage {
	return h5lib.Storage{Layout: message.LayoutContiguous}
}

func (Compact) storage(int) h5lib.Storage {
	return h5lib.Storage{Layout: message.LayoutCompact}
}

func (c Chunked) storage(elemSize int) h5lib.Storage {
	st := h5lib.Storage{Layout: message.LayoutChunked, Chunk: c.Dims}
	for _, f := range c.Filters {
		st.Filters = append(st.Filters, f.filter(elemSize))
	}
	return st
}

// Filter is a chunk filter.
type Filter interface {
	filter(elemSize int) message.FilterInfo
}

// Deflate compresses chunks with zlib at Level (1-9). Zero selects the
// default level.
type Deflate struct {
	Level int
}

// Shuffle regroups the bytes of each element so that deflate compresses
// numeric data better.
type Shuffle struct{}

// Fletcher32 appends a checksum to each chunk and verifies it on read.
type Fletcher32 struct{}

func (d Deflate) filter(int) message.FilterInfo {
	level := d.Level
	if level <= 0 || level > 9 {
		level = filter.DefaultDeflateLevel
	}
	return message.FilterInfo{ID: message.FilterDeflate, ClientData: []uint32{uint32(level)}}
}

func (Shuffle) filter(elemSize int) message.FilterInfo {
	return message.FilterInfo{ID: message.FilterShuffle, ClientData: []uint32{uint32(elemSize)}}
}

func (Fletcher32) filter(int) message.FilterInfo {
	return message.FilterInfo{ID: message.FilterFletcher32}
}

// storageOf describes the stored layout of a dataset as a policy.
func storageOf(st h5lib.Storage) Storage {
	switch st.Layout {
	case message.LayoutCompact:
		return Compact{}
	case message.LayoutChunked:
		c := Chunked{Dims: st.Chunk}
		for _, f := range st.Filters {
			switch f.ID {
			case message.FilterDeflate:
				d := Deflate{}
				if len(f.ClientData) > 0 {
					d.Level = int(f.ClientData[0])
				}
				c.Filters = append(c.Filters, d)
			case message.FilterShuffle:
				c.Filters = append(c.Filters, Shuffle{})
			case message.FilterFletcher32:
				c.Filters = append(c.Filters, Fletcher32{})
			}
		}
		return c
	}
	return Contiguous{}
}
