package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// Attribute is the attribute message (0x000C).
type Attribute struct {
	Name      string
	Charset   CharacterSet
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// NewAttribute returns an attribute holding data, which must already be
// encoded for dt.
func NewAttribute(name string, dt *Datatype, ds *Dataspace, data []byte) *Attribute {
	return &Attribute{Name: name, Charset: CharsetUTF8, Datatype: dt, Dataspace: ds, Data: data}
}

func pad8(n int) int { return (n + 7) &^ 7 }

func parseAttribute(data []byte, r *binary.Reader) (*Attribute, error) {
	c := newCursor(data, r)
	version := c.u8()
	flags := c.u8()
	nameSize := int(c.u16())
	dtSize := int(c.u16())
	dsSize := int(c.u16())
	if c.err != nil {
		return nil, c.err
	}
	if version < 1 || version > 3 {
		return nil, fmt.Errorf("unsupported attribute version %d", version)
	}
	if flags&0x03 != 0 {
		return nil, fmt.Errorf("shared attribute datatypes are not supported")
	}

	m := &Attribute{}
	if version == 3 {
		m.Charset = CharacterSet(c.u8())
	}
	field := func(n int) []byte {
		if version == 1 {
			b := c.take(pad8(n))
			if b == nil {
				return nil
			}
			return b[:n]
		}
		return c.take(n)
	}

	m.Name = cstring(field(nameSize))
	dtBytes := field(dtSize)
	dsBytes := field(dsSize)
	if c.err != nil {
		return nil, c.err
	}

	var err error
	if m.Datatype, err = parseDatatype(dtBytes); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	if m.Dataspace, err = parseDataspace(dsBytes, r); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	m.Data = append([]byte(nil), c.rest()...)
	return m, nil
}

// Serialize writes a version 3 attribute message.
func (m *Attribute) Serialize(w *binary.Writer) error {
	for _, v := range []uint8{3, 0} {
		if err := w.WriteUint8(v); err != nil {
			return err
		}
	}
	sizes := []int{len(m.Name) + 1, m.Datatype.SerializedSize(w), m.Dataspace.SerializedSize(w)}
	for _, s := range sizes {
		if s > 0xFFFF {
			return fmt.Errorf("attribute %q: field of %d bytes too large", m.Name, s)
		}
		if err := w.WriteUint16(uint16(s)); err != nil {
			return err
		}
	}
	if err := w.WriteUint8(uint8(m.Charset)); err != nil {
		return err
	}
	if err := w.WriteBytes(append([]byte(m.Name), 0)); err != nil {
		return err
	}
	if err := m.Datatype.Serialize(w); err != nil {
		return err
	}
	if err := m.Dataspace.Serialize(w); err != nil {
		return err
	}
	return w.WriteBytes(m.Data)
}

func (m *Attribute) SerializedSize(w *binary.Writer) int {
	return 9 + len(m.Name) + 1 + m.Datatype.SerializedSize(w) + m.Dataspace.SerializedSize(w) + len(m.Data)
}
