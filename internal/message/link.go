package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// LinkType is the kind of a link.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

const (
	linkNameSizeMask = 0x03
	linkHasCreation  = 0x04
	linkHasType      = 0x08
	linkHasCharset   = 0x10
)

// Link is the link message (0x0006).
type Link struct {
	LinkType      LinkType
	CreationOrder uint64
	HasCreation   bool
	Name          string
	Charset       CharacterSet

	ObjectAddress uint64

	SoftLinkValue string

	ExternalFile string
	ExternalPath string
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

// NewHardLink returns a hard link to the object header at address.
func NewHardLink(name string, address uint64) *Link {
	return &Link{LinkType: LinkTypeHard, Name: name, ObjectAddress: address, Charset: CharsetUTF8}
}

// NewSoftLink returns a link that resolves target by path.
func NewSoftLink(name, target string) *Link {
	return &Link{LinkType: LinkTypeSoft, Name: name, SoftLinkValue: target, Charset: CharsetUTF8}
}

func parseLink(data []byte, r *binary.Reader) (*Link, error) {
	c := newCursor(data, r)
	if v := c.u8(); c.err == nil && v != 1 {
		return nil, fmt.Errorf("unsupported link version %d", v)
	}
	flags := c.u8()
	m := &Link{}
	if flags&linkHasType != 0 {
		m.LinkType = LinkType(c.u8())
	}
	if flags&linkHasCreation != 0 {
		m.HasCreation = true
		m.CreationOrder = c.uint(8)
	}
	if flags&linkHasCharset != 0 {
		m.Charset = CharacterSet(c.u8())
	}
	nameLen := int(c.uint(1 << (flags & linkNameSizeMask)))
	m.Name = string(c.take(nameLen))

	switch m.LinkType {
	case LinkTypeHard:
		m.ObjectAddress = c.offset()
	case LinkTypeSoft:
		n := int(c.u16())
		m.SoftLinkValue = string(c.take(n))
	case LinkTypeExternal:
		n := int(c.u16())
		ext := c.take(n)
		if c.err == nil {
			if len(ext) < 2 {
				return nil, fmt.Errorf("external link value too short")
			}
			ext = ext[1:]
			m.ExternalFile = cstring(ext)
			if len(m.ExternalFile)+1 < len(ext) {
				m.ExternalPath = cstring(ext[len(m.ExternalFile)+1:])
			}
		}
	default:
		c.rest()
	}
	return m, c.err
}

func (m *Link) nameSizeBytes() (int, uint8) {
	switch n := len(m.Name); {
	case n <= 0xFF:
		return 1, 0
	case n <= 0xFFFF:
		return 2, 1
	case n <= 0xFFFFFFFF:
		return 4, 2
	}
	return 8, 3
}

func (m *Link) flags() uint8 {
	_, sz := m.nameSizeBytes()
	flags := sz
	if m.LinkType != LinkTypeHard {
		flags |= linkHasType
	}
	if m.HasCreation {
		flags |= linkHasCreation
	}
	if m.Charset != CharsetASCII {
		flags |= linkHasCharset
	}
	return flags
}

func (m *Link) externalValue() []byte {
	v := []byte{0}
	v = append(v, m.ExternalFile...)
	v = append(v, 0)
	v = append(v, m.ExternalPath...)
	return append(v, 0)
}

// Serialize writes a version 1 link message.
func (m *Link) Serialize(w *binary.Writer) error {
	flags := m.flags()
	if err := w.WriteUint8(1); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if flags&linkHasType != 0 {
		if err := w.WriteUint8(uint8(m.LinkType)); err != nil {
			return err
		}
	}
	if flags&linkHasCreation != 0 {
		if err := w.WriteUint64(m.CreationOrder); err != nil {
			return err
		}
	}
	if flags&linkHasCharset != 0 {
		if err := w.WriteUint8(uint8(m.Charset)); err != nil {
			return err
		}
	}
	n, _ := m.nameSizeBytes()
	if err := w.WriteUintN(uint64(len(m.Name)), n); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(m.Name)); err != nil {
		return err
	}
	switch m.LinkType {
	case LinkTypeHard:
		return w.WriteOffset(m.ObjectAddress)
	case LinkTypeSoft:
		if err := w.WriteUint16(uint16(len(m.SoftLinkValue))); err != nil {
			return err
		}
		return w.WriteBytes([]byte(m.SoftLinkValue))
	case LinkTypeExternal:
		v := m.externalValue()
		if err := w.WriteUint16(uint16(len(v))); err != nil {
			return err
		}
		return w.WriteBytes(v)
	}
	return fmt.Errorf("cannot serialise link type %d", m.LinkType)
}

func (m *Link) SerializedSize(w *binary.Writer) int {
	flags := m.flags()
	n, _ := m.nameSizeBytes()
	size := 2 + n + len(m.Name)
	if flags&linkHasType != 0 {
		size++
	}
	if flags&linkHasCreation != 0 {
		size += 8
	}
	if flags&linkHasCharset != 0 {
		size++
	}
	switch m.LinkType {
	case LinkTypeHard:
		size += w.OffsetSize()
	case LinkTypeSoft:
		size += 2 + len(m.SoftLinkValue)
	case LinkTypeExternal:
		size += 2 + len(m.externalValue())
	}
	return size
}
