package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Number is the set of element types stored as numeric datasets.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// For returns the datatype that stores T.
func For[T Number]() *message.Datatype {
	dt, err := ForKind(reflect.TypeFor[T]().Kind())
	if err != nil {
		panic(err) // unreachable for the Number type set
	}
	return dt
}

// ForKind returns the datatype for a numeric reflect.Kind.
func ForKind(k reflect.Kind) (*message.Datatype, error) {
	switch k {
	case reflect.Int8:
		return message.NewInteger(1, true), nil
	case reflect.Int16:
		return message.NewInteger(2, true), nil
	case reflect.Int32:
		return message.NewInteger(4, true), nil
	case reflect.Int64:
		return message.NewInteger(8, true), nil
	case reflect.Uint8:
		return message.NewInteger(1, false), nil
	case reflect.Uint16:
		return message.NewInteger(2, false), nil
	case reflect.Uint32:
		return message.NewInteger(4, false), nil
	case reflect.Uint64:
		return message.NewInteger(8, false), nil
	case reflect.Float32:
		return message.NewFloat(4), nil
	case reflect.Float64:
		return message.NewFloat(8), nil
	}
	return nil, fmt.Errorf("no datatype for Go kind %s", k)
}

// GoType returns the Go type that holds one element of dt.
func GoType(dt *message.Datatype) (reflect.Type, error) {
	if dt == nil {
		return nil, fmt.Errorf("nil datatype")
	}
	switch {
	case dt.Class == message.ClassFixedPoint:
		var t reflect.Type
		switch dt.Size {
		case 1:
			t = reflect.TypeFor[int8]()
		case 2:
			t = reflect.TypeFor[int16]()
		case 4:
			t = reflect.TypeFor[int32]()
		case 8:
			t = reflect.TypeFor[int64]()
		default:
			return nil, fmt.Errorf("unsupported integer size %d", dt.Size)
		}
		if !dt.Signed {
			t = unsigned[t.Kind()]
		}
		return t, nil
	case dt.Class == message.ClassFloatPoint && dt.Size == 4:
		return reflect.TypeFor[float32](), nil
	case dt.Class == message.ClassFloatPoint && dt.Size == 8:
		return reflect.TypeFor[float64](), nil
	case dt.IsString():
		return reflect.TypeFor[string](), nil
	}
	return nil, fmt.Errorf("unsupported datatype %s", dt)
}

var unsigned = map[reflect.Kind]reflect.Type{
	reflect.Int8:  reflect.TypeFor[uint8](),
	reflect.Int16: reflect.TypeFor[uint16](),
	reflect.Int32: reflect.TypeFor[uint32](),
	reflect.Int64: reflect.TypeFor[uint64](),
}

// IsNumeric reports whether dt is an integer or floating-point type.
func IsNumeric(dt *message.Datatype) bool {
	return dt != nil && (dt.IsInteger() || dt.IsFloat())
}

// Compatible reports whether elements of mem can be copied to and from
// elements of file without conversion.
func Compatible(mem, file *message.Datatype) bool {
	if mem == nil || file == nil || mem.Class != file.Class || mem.Size != file.Size {
		return false
	}
	switch mem.Class {
	case message.ClassFixedPoint:
		return mem.Signed == file.Signed
	case message.ClassFloatPoint:
		return true
	case message.ClassString:
		return true
	case message.ClassVarLen:
		return mem.VarLenString && file.VarLenString
	}
	return mem.Equal(file)
}

// NeedsSwap reports whether file stores elements big-endian.
func NeedsSwap(file *message.Datatype) bool {
	return IsNumeric(file) && file.ByteOrder == message.OrderBE && file.Size > 1
}

// Swap reverses the byte order of each size-byte element of buf.
func Swap(buf []byte, size int) {
	for off := 0; off+size <= len(buf); off += size {
		e := buf[off : off+size]
		for i, j := 0, size-1; i < j; i, j = i+1, j-1 {
			e[i], e[j] = e[j], e[i]
		}
	}
}

// Size returns the byte size of one T.
func Size[T Number]() int {
	return int(reflect.TypeFor[T]().Size())
}

// Encode returns vals as little-endian bytes.
func Encode[T Number](vals []T) []byte {
	out := make([]byte, len(vals)*Size[T]())
	if _, err := binary.Encode(out, binary.LittleEndian, vals); err != nil {
		panic(err) // buffer is sized exactly
	}
	return out
}

// Decode interprets data as little-endian elements of T.
func Decode[T Number](data []byte) ([]T, error) {
	size := Size[T]()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %d-byte elements", len(data), size)
	}
	vals := make([]T, len(data)/size)
	if _, err := binary.Decode(data, binary.LittleEndian, vals); err != nil {
		return nil, err
	}
	return vals, nil
}
