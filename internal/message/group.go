package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// LinkInfo is the link info message (0x0002) of a new-style group.
type LinkInfo struct {
	Flags                uint8
	MaxCreationIndex     uint64
	FractalHeapAddress   uint64
	NameIndexAddress     uint64
	CreationOrderAddress uint64
}

const (
	linkInfoTrackOrder = 0x01
	linkInfoIndexOrder = 0x02
)

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// NewLinkInfo returns link info for a group that stores its links
// compactly in the object header.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{
		FractalHeapAddress:   UndefinedAddress,
		NameIndexAddress:     UndefinedAddress,
		CreationOrderAddress: UndefinedAddress,
	}
}

// Dense reports whether links live in a fractal heap rather than in
// link messages.
func (m *LinkInfo) Dense(undefined uint64) bool {
	return m.FractalHeapAddress != undefined
}

func parseLinkInfo(data []byte, r *binary.Reader) (*LinkInfo, error) {
	c := newCursor(data, r)
	if v := c.u8(); c.err == nil && v != 0 {
		return nil, fmt.Errorf("unsupported link info version %d", v)
	}
	m := &LinkInfo{Flags: c.u8(), CreationOrderAddress: UndefinedAddress}
	if m.Flags&linkInfoTrackOrder != 0 {
		m.MaxCreationIndex = c.uint(8)
	}
	m.FractalHeapAddress = c.offset()
	m.NameIndexAddress = c.offset()
	if m.Flags&linkInfoIndexOrder != 0 {
		m.CreationOrderAddress = c.offset()
	}
	return m, c.err
}

func (m *LinkInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Flags); err != nil {
		return err
	}
	if m.Flags&linkInfoTrackOrder != 0 {
		if err := w.WriteUint64(m.MaxCreationIndex); err != nil {
			return err
		}
	}
	addrs := []uint64{m.FractalHeapAddress, m.NameIndexAddress}
	if m.Flags&linkInfoIndexOrder != 0 {
		addrs = append(addrs, m.CreationOrderAddress)
	}
	for _, a := range addrs {
		if err := w.WriteUintN(a, w.OffsetSize()); err != nil {
			return err
		}
	}
	return nil
}

func (m *LinkInfo) SerializedSize(w *binary.Writer) int {
	n := 2 + 2*w.OffsetSize()
	if m.Flags&linkInfoTrackOrder != 0 {
		n += 8
	}
	if m.Flags&linkInfoIndexOrder != 0 {
		n += w.OffsetSize()
	}
	return n
}

// GroupInfo is the group info message (0x000A).
type GroupInfo struct {
	MaxCompact       uint16
	MinDense         uint16
	EstimatedEntries uint16
	EstimatedNameLen uint16
	hasLinkPhase     bool
	hasEstimates     bool
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// NewGroupInfo returns group info with the library defaults.
func NewGroupInfo() *GroupInfo {
	return &GroupInfo{}
}

func parseGroupInfo(data []byte) (*GroupInfo, error) {
	c := newCursor(data, nil)
	if v := c.u8(); c.err == nil && v != 0 {
		return nil, fmt.Errorf("unsupported group info version %d", v)
	}
	flags := c.u8()
	m := &GroupInfo{}
	if flags&0x01 != 0 {
		m.hasLinkPhase = true
		m.MaxCompact = c.u16()
		m.MinDense = c.u16()
	}
	if flags&0x02 != 0 {
		m.hasEstimates = true
		m.EstimatedEntries = c.u16()
		m.EstimatedNameLen = c.u16()
	}
	return m, c.err
}

func (m *GroupInfo) Serialize(w *binary.Writer) error {
	var flags uint8
	var vals []uint16
	if m.hasLinkPhase {
		flags |= 0x01
		vals = append(vals, m.MaxCompact, m.MinDense)
	}
	if m.hasEstimates {
		flags |= 0x02
		vals = append(vals, m.EstimatedEntries, m.EstimatedNameLen)
	}
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	for _, v := range vals {
		if err := w.WriteUint16(v); err != nil {
			return err
		}
	}
	return nil
}

func (m *GroupInfo) SerializedSize(*binary.Writer) int {
	n := 2
	if m.hasLinkPhase {
		n += 4
	}
	if m.hasEstimates {
		n += 4
	}
	return n
}
