package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// Space allocation times.
const (
	AllocEarly       uint8 = 1
	AllocLate        uint8 = 2
	AllocIncremental uint8 = 3
)

// Fill value write times.
const (
	FillWriteOnAlloc uint8 = 0
	FillWriteNever   uint8 = 1
	FillWriteIfSet   uint8 = 2
)

// FillValue is the fill value message (0x0005).
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	Defined        bool
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

// NewFillValue returns a fill value message with the library default
// fill (zero bytes) for the given allocation time.
func NewFillValue(allocTime uint8) *FillValue {
	return &FillValue{Version: 3, SpaceAllocTime: allocTime, FillWriteTime: FillWriteIfSet}
}

func parseFillValue(data []byte) (*FillValue, error) {
	c := newCursor(data, nil)
	m := &FillValue{Version: c.u8()}
	switch m.Version {
	case 1, 2:
		m.SpaceAllocTime = c.u8()
		m.FillWriteTime = c.u8()
		m.Defined = c.u8() != 0
		if m.Defined && (m.Version == 1 || c.remaining() >= 4) {
			n := int(c.u32())
			m.Value = append([]byte(nil), c.take(n)...)
		}
	case 3:
		flags := c.u8()
		m.SpaceAllocTime = flags & 0x03
		m.FillWriteTime = (flags >> 2) & 0x03
		if flags&0x20 != 0 {
			m.Defined = true
			n := int(c.u32())
			m.Value = append([]byte(nil), c.take(n)...)
		}
	default:
		return nil, fmt.Errorf("unsupported fill value version %d", m.Version)
	}
	return m, c.err
}

// Serialize writes a version 3 fill value message.
func (m *FillValue) Serialize(w *binary.Writer) error {
	flags := m.SpaceAllocTime&0x03 | (m.FillWriteTime&0x03)<<2
	if m.Defined && m.Value != nil {
		flags |= 0x20
	}
	if err := w.WriteUint8(3); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if flags&0x20 == 0 {
		return nil
	}
	if err := w.WriteUint32(uint32(len(m.Value))); err != nil {
		return err
	}
	return w.WriteBytes(m.Value)
}

func (m *FillValue) SerializedSize(*binary.Writer) int {
	if m.Defined && m.Value != nil {
		return 6 + len(m.Value)
	}
	return 2
}
