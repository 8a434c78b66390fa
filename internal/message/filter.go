package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// Filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// FilterOptional marks a filter whose failure is not an error.
const FilterOptional uint16 = 0x0001

// FilterInfo is one filter of a pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

func (f *FilterInfo) IsOptional() bool { return f.Flags&FilterOptional != 0 }

// FilterPipeline is the filter pipeline message (0x000B). Filters are
// listed in the order they are applied when writing.
type FilterPipeline struct {
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// HasFilter reports whether the pipeline contains filter id.
func (m *FilterPipeline) HasFilter(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func parseFilterPipeline(data []byte) (*FilterPipeline, error) {
	c := newCursor(data, nil)
	version := c.u8()
	n := int(c.u8())
	if c.err != nil {
		return nil, c.err
	}
	switch version {
	case 1:
		c.skip(6)
	case 2:
	default:
		return nil, fmt.Errorf("unsupported filter pipeline version %d", version)
	}

	m := &FilterPipeline{Filters: make([]FilterInfo, n)}
	for i := range m.Filters {
		f := &m.Filters[i]
		f.ID = c.u16()
		var nameLen int
		if version == 1 || f.ID >= 256 {
			nameLen = int(c.u16())
		}
		f.Flags = c.u16()
		numCD := int(c.u16())
		if nameLen > 0 {
			if version == 1 {
				f.Name = cstring(c.take(pad8(nameLen)))
			} else {
				f.Name = cstring(c.take(nameLen))
			}
		}
		f.ClientData = make([]uint32, numCD)
		for j := range f.ClientData {
			f.ClientData[j] = c.u32()
		}
		if version == 1 && numCD%2 != 0 {
			c.skip(4)
		}
		if c.err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, c.err)
		}
	}
	return m, nil
}

// Serialize writes a version 2 filter pipeline message.
func (m *FilterPipeline) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(2); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(len(m.Filters))); err != nil {
		return err
	}
	for _, f := range m.Filters {
		if err := w.WriteUint16(f.ID); err != nil {
			return err
		}
		var name []byte
		if f.ID >= 256 {
			if f.Name != "" {
				name = append([]byte(f.Name), 0)
			}
			if err := w.WriteUint16(uint16(len(name))); err != nil {
				return err
			}
		}
		if err := w.WriteUint16(f.Flags); err != nil {
			return err
		}
		if err := w.WriteUint16(uint16(len(f.ClientData))); err != nil {
			return err
		}
		if err := w.WriteBytes(name); err != nil {
			return err
		}
		for _, v := range f.ClientData {
			if err := w.WriteUint32(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *FilterPipeline) SerializedSize(*binary.Writer) int {
	n := 2
	for _, f := range m.Filters {
		n += 6 + 4*len(f.ClientData)
		if f.ID >= 256 {
			n += 2
			if f.Name != "" {
				n += len(f.Name) + 1
			}
		}
	}
	return n
}
