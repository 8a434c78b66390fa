package message

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/hdf5kit/internal/binary"
)

// DatatypeClass is the class of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

func (c DatatypeClass) String() string {
	names := [...]string{"integer", "float", "time", "string", "bitfield", "opaque",
		"compound", "reference", "enum", "vlen", "array"}
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder is the byte order of a numeric type.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding is how a fixed-length string fills its slot.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet is the encoding of a string type.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype is the datatype message (0x0003).
//
// Integer, float, string and variable-length string types are decoded.
// The properties of every other class are kept verbatim in Properties.
type Datatype struct {
	Version   uint8
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32

	ByteOrder    ByteOrder
	Signed       bool
	BitOffset    uint16
	BitPrecision uint16

	StringPadding StringPadding
	CharSet       CharacterSet

	VarLenString bool
	Base         *Datatype

	Properties []byte
}

func (m *Datatype) Type() Type { return TypeDatatype }

func (m *Datatype) IsInteger() bool { return m.Class == ClassFixedPoint }
func (m *Datatype) IsFloat() bool   { return m.Class == ClassFloatPoint }

// IsString reports whether the type is a fixed or variable-length string.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || m.IsVarLenString()
}

func (m *Datatype) IsVarLenString() bool {
	return m.Class == ClassVarLen && m.VarLenString
}

// Equal reports whether two datatypes describe the same storage.
func (m *Datatype) Equal(o *Datatype) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Class != o.Class || m.Size != o.Size || m.ClassBits != o.ClassBits {
		return false
	}
	switch m.Class {
	case ClassFixedPoint:
		return m.BitOffset == o.BitOffset && m.BitPrecision == o.BitPrecision
	case ClassString:
		return true
	case ClassVarLen:
		return m.Base.Equal(o.Base)
	}
	return bytes.Equal(m.Properties, o.Properties)
}

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	}
	if m.IsVarLenString() {
		return "vlen string"
	}
	return m.Class.String()
}

// NewInteger returns a little-endian integer type of size bytes.
func NewInteger(size int, signed bool) *Datatype {
	dt := &Datatype{
		Version:      1,
		Class:        ClassFixedPoint,
		Size:         uint32(size),
		Signed:       signed,
		BitPrecision: uint16(size * 8),
	}
	if signed {
		dt.ClassBits = 0x08
	}
	return dt
}

// NewFloat returns a little-endian IEEE 754 type of 4 or 8 bytes.
func NewFloat(size int) *Datatype {
	props := make([]byte, 12)
	var sign, expLoc, expSize, mantSize uint8
	var bias uint32
	if size == 4 {
		sign, expLoc, expSize, mantSize, bias = 31, 23, 8, 23, 127
	} else {
		size = 8
		sign, expLoc, expSize, mantSize, bias = 63, 52, 11, 52, 1023
	}
	binary.LittleEndian.PutUint16(props[2:], uint16(size*8))
	props[4] = expLoc
	props[5] = expSize
	props[6] = 0
	props[7] = mantSize
	binary.LittleEndian.PutUint32(props[8:], bias)
	return &Datatype{
		Version:      1,
		Class:        ClassFloatPoint,
		ClassBits:    0x20 | uint32(sign)<<8,
		Size:         uint32(size),
		BitPrecision: uint16(size * 8),
		Properties:   props,
	}
}

// NewFixedString returns a fixed-length string type.
func NewFixedString(size int, pad StringPadding, cset CharacterSet) *Datatype {
	return &Datatype{
		Version:       1,
		Class:         ClassString,
		ClassBits:     uint32(pad) | uint32(cset)<<4,
		Size:          uint32(size),
		StringPadding: pad,
		CharSet:       cset,
	}
}

// NewVarLenString returns a variable-length string type whose elements
// are global heap references.
func NewVarLenString(cset CharacterSet, offsetSize int) *Datatype {
	return &Datatype{
		Version:       1,
		Class:         ClassVarLen,
		ClassBits:     1 | uint32(PadNullTerm)<<4 | uint32(cset)<<8,
		Size:          uint32(4 + offsetSize + 4),
		StringPadding: PadNullTerm,
		CharSet:       cset,
		VarLenString:  true,
		Base:          NewInteger(1, false),
	}
}

func parseDatatype(data []byte) (*Datatype, error) {
	dt, _, err := parseDatatypeSized(data)
	return dt, err
}

// parseDatatypeSized decodes a datatype and returns how many bytes it used.
func parseDatatypeSized(data []byte) (*Datatype, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("datatype message too short")
	}
	dt := &Datatype{
		Version:   data[0] >> 4,
		Class:     DatatypeClass(data[0] & 0x0F),
		ClassBits: uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16,
		Size:      binary.LittleEndian.Uint32(data[4:8]),
	}
	props := data[8:]
	used := 8

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		if len(props) < 4 {
			return nil, 0, fmt.Errorf("fixed-point properties truncated")
		}
		dt.ByteOrder = ByteOrder(dt.ClassBits & 0x01)
		dt.Signed = dt.ClassBits&0x08 != 0
		dt.BitOffset = binary.LittleEndian.Uint16(props[0:])
		dt.BitPrecision = binary.LittleEndian.Uint16(props[2:])
		dt.Properties = props[:4]
		used += 4
	case ClassFloatPoint:
		if len(props) < 12 {
			return nil, 0, fmt.Errorf("float properties truncated")
		}
		dt.ByteOrder = ByteOrder(dt.ClassBits & 0x01)
		dt.Signed = true
		dt.BitOffset = binary.LittleEndian.Uint16(props[0:])
		dt.BitPrecision = binary.LittleEndian.Uint16(props[2:])
		dt.Properties = props[:12]
		used += 12
	case ClassString:
		dt.StringPadding = StringPadding(dt.ClassBits & 0x0F)
		dt.CharSet = CharacterSet((dt.ClassBits >> 4) & 0x0F)
	case ClassVarLen:
		dt.VarLenString = dt.ClassBits&0x0F == 1
		dt.StringPadding = StringPadding((dt.ClassBits >> 4) & 0x0F)
		dt.CharSet = CharacterSet((dt.ClassBits >> 8) & 0x0F)
		base, n, err := parseDatatypeSized(props)
		if err != nil {
			return nil, 0, fmt.Errorf("vlen base: %w", err)
		}
		dt.Base = base
		dt.Properties = props[:n]
		used += n
	default:
		dt.Properties = props
		used += len(props)
	}
	return dt, used, nil
}

// Serialize writes the datatype.
func (m *Datatype) Serialize(w *binpkg.Writer) error {
	version := m.Version
	if version == 0 {
		version = 1
	}
	if err := w.WriteUint8(version<<4 | uint8(m.Class)); err != nil {
		return err
	}
	bits := []byte{byte(m.ClassBits), byte(m.ClassBits >> 8), byte(m.ClassBits >> 16)}
	if err := w.WriteBytes(bits); err != nil {
		return err
	}
	if err := w.WriteUint32(m.Size); err != nil {
		return err
	}
	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		if err := w.WriteUint16(m.BitOffset); err != nil {
			return err
		}
		return w.WriteUint16(m.BitPrecision)
	case ClassString:
		return nil
	case ClassVarLen:
		if m.Base != nil {
			return m.Base.Serialize(w)
		}
	}
	return w.WriteBytes(m.Properties)
}

func (m *Datatype) SerializedSize(w *binpkg.Writer) int {
	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		return 12
	case ClassString:
		return 8
	case ClassVarLen:
		if m.Base != nil {
			return 8 + m.Base.SerializedSize(w)
		}
	}
	return 8 + len(m.Properties)
}
