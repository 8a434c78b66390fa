package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// Type is an HDF5 header message type.
type Type uint16

const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeExternalDataFiles        Type = 0x0007
	TypeDataLayout               Type = 0x0008
	TypeBogus                    Type = 0x0009
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectComment            Type = 0x000D
	TypeObjectModTime            Type = 0x000E
	TypeSharedMessageTable       Type = 0x000F
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeObjectModTimeOld         Type = 0x0012
	TypeBTreeKValues             Type = 0x0013
	TypeDriverInfo               Type = 0x0014
	TypeAttributeInfo            Type = 0x0015
	TypeObjectRefCount           Type = 0x0016
)

// Message flag bits.
const (
	FlagConstant uint8 = 0x01
	FlagShared   uint8 = 0x02
)

// Message is implemented by all header messages.
type Message interface {
	Type() Type
}

// Serializable is implemented by messages that can be written back.
type Serializable interface {
	Message
	Serialize(w *binary.Writer) error
	SerializedSize(w *binary.Writer) int
}

// Parse decodes a message body. Shared messages and types this package
// does not decode come back as *Unknown.
func Parse(typ Type, data []byte, flags uint8, r *binary.Reader) (Message, error) {
	if flags&FlagShared != 0 {
		return &Unknown{typ: typ, flags: flags, data: data}, nil
	}
	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = parseDataspace(data, r)
	case TypeLinkInfo:
		msg, err = parseLinkInfo(data, r)
	case TypeDatatype:
		msg, err = parseDatatype(data)
	case TypeFillValue:
		msg, err = parseFillValue(data)
	case TypeLink:
		msg, err = parseLink(data, r)
	case TypeDataLayout:
		msg, err = parseDataLayout(data, r)
	case TypeGroupInfo:
		msg, err = parseGroupInfo(data)
	case TypeFilterPipeline:
		msg, err = parseFilterPipeline(data)
	case TypeAttribute:
		msg, err = parseAttribute(data, r)
	case TypeObjectHeaderContinuation:
		msg, err = parseContinuation(data, r)
	case TypeSymbolTable:
		msg, err = parseSymbolTable(data, r)
	default:
		return &Unknown{typ: typ, flags: flags, data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message 0x%04x: %w", uint16(typ), err)
	}
	return msg, nil
}

// Unknown is a message kept as raw bytes.
type Unknown struct {
	typ   Type
	flags uint8
	data  []byte
}

// NewUnknown wraps raw message bytes.
func NewUnknown(typ Type, flags uint8, data []byte) *Unknown {
	return &Unknown{typ: typ, flags: flags, data: data}
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Flags() uint8 { return m.flags }
func (m *Unknown) Data() []byte { return m.data }

func (m *Unknown) Serialize(w *binary.Writer) error {
	return w.WriteBytes(m.data)
}

func (m *Unknown) SerializedSize(*binary.Writer) int {
	return len(m.data)
}

// Flags returns the header flags to store with msg.
func Flags(msg Message) uint8 {
	switch m := msg.(type) {
	case *Unknown:
		return m.flags
	case *Datatype:
		return FlagConstant
	}
	return 0
}

// Continuation points at the next chunk of an object header.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func parseContinuation(data []byte, r *binary.Reader) (*Continuation, error) {
	o, l := r.OffsetSize(), r.LengthSize()
	if len(data) < o+l {
		return nil, fmt.Errorf("continuation message too short")
	}
	return &Continuation{
		Offset: r.Uint(data, o),
		Length: r.Uint(data[o:], l),
	}, nil
}

func (m *Continuation) Serialize(w *binary.Writer) error {
	if err := w.WriteOffset(m.Offset); err != nil {
		return err
	}
	return w.WriteLength(m.Length)
}

func (m *Continuation) SerializedSize(w *binary.Writer) int {
	return w.OffsetSize() + w.LengthSize()
}

// SymbolTable points at the B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binary.Reader) (*SymbolTable, error) {
	o := r.OffsetSize()
	if len(data) < 2*o {
		return nil, fmt.Errorf("symbol table message too short")
	}
	return &SymbolTable{
		BTreeAddress:     r.Uint(data, o),
		LocalHeapAddress: r.Uint(data[o:], o),
	}, nil
}

func (m *SymbolTable) Serialize(w *binary.Writer) error {
	if err := w.WriteOffset(m.BTreeAddress); err != nil {
		return err
	}
	return w.WriteOffset(m.LocalHeapAddress)
}

func (m *SymbolTable) SerializedSize(w *binary.Writer) int {
	return 2 * w.OffsetSize()
}

// cursor walks a message body, failing softly once it runs out of bytes.
type cursor struct {
	data []byte
	pos  int
	r    *binary.Reader
	err  error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.data) {
		c.err = fmt.Errorf("truncated: need %d bytes at %d, have %d", n, c.pos, len(c.data))
		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) uint(n int) uint64 {
	b := c.take(n)
	if b == nil {
		return 0
	}
	return c.r.Uint(b, n)
}

func (c *cursor) u8() uint8      { return uint8(c.uint(1)) }
func (c *cursor) u16() uint16    { return uint16(c.uint(2)) }
func (c *cursor) u32() uint32    { return uint32(c.uint(4)) }
func (c *cursor) offset() uint64 { return c.uint(c.r.OffsetSize()) }
func (c *cursor) length() uint64 { return c.uint(c.r.LengthSize()) }
func (c *cursor) skip(n int)     { c.take(n) }
func (c *cursor) rest() []byte   { return c.take(len(c.data) - c.pos) }
func (c *cursor) remaining() int { return len(c.data) - c.pos }

func newCursor(data []byte, r *binary.Reader) *cursor {
	if r == nil {
		r = binary.NewReader(nil, binary.DefaultConfig())
	}
	return &cursor{data: data, r: r}
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// UndefinedAddress is the all-ones address written for absent structures.
const UndefinedAddress = ^uint64(0)
