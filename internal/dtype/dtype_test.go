package dtype

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

func TestFor(t *testing.T) {
	assert.Equal(t, "int8", For[int8]().String())
	assert.Equal(t, "int16", For[int16]().String())
	assert.Equal(t, "int32", For[int32]().String())
	assert.Equal(t, "int64", For[int64]().String())
	assert.Equal(t, "uint8", For[uint8]().String())
	assert.Equal(t, "uint16", For[uint16]().String())
	assert.Equal(t, "uint32", For[uint32]().String())
	assert.Equal(t, "uint64", For[uint64]().String())
	assert.Equal(t, "float32", For[float32]().String())
	assert.Equal(t, "float64", For[float64]().String())

	type celsius float32
	assert.Equal(t, "float32", For[celsius]().String())

	_, err := ForKind(reflect.String)
	assert.Error(t, err)
}

func TestGoType(t *testing.T) {
	tests := []struct {
		dt   *message.Datatype
		want reflect.Type
	}{
		{message.NewInteger(1, true), reflect.TypeFor[int8]()},
		{message.NewInteger(2, false), reflect.TypeFor[uint16]()},
		{message.NewInteger(4, true), reflect.TypeFor[int32]()},
		{message.NewInteger(8, false), reflect.TypeFor[uint64]()},
		{message.NewFloat(4), reflect.TypeFor[float32]()},
		{message.NewFloat(8), reflect.TypeFor[float64]()},
		{message.NewFixedString(8, message.PadNullPad, message.CharsetASCII), reflect.TypeFor[string]()},
		{message.NewVarLenString(message.CharsetUTF8, 8), reflect.TypeFor[string]()},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			got, err := GoType(tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := GoType(nil)
	assert.Error(t, err)
	_, err = GoType(message.NewInteger(3, true))
	assert.Error(t, err)
}

func TestCompatible(t *testing.T) {
	be := message.NewInteger(4, true)
	be.ByteOrder = message.OrderBE
	be.ClassBits |= 0x01

	assert.True(t, Compatible(For[int32](), message.NewInteger(4, true)))
	assert.True(t, Compatible(For[int32](), be))
	assert.False(t, Compatible(For[int32](), message.NewInteger(4, false)))
	assert.False(t, Compatible(For[int32](), message.NewInteger(8, true)))
	assert.False(t, Compatible(For[float32](), message.NewInteger(4, true)))
	assert.False(t, Compatible(For[float64](), message.NewFloat(4)))
	assert.True(t, Compatible(For[float64](), message.NewFloat(8)))
	assert.False(t, Compatible(nil, message.NewFloat(8)))

	assert.True(t, NeedsSwap(be))
	assert.False(t, NeedsSwap(For[int32]()))
	assert.False(t, NeedsSwap(message.NewFixedString(4, message.PadNullTerm, message.CharsetASCII)))
}

func TestSwap(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	Swap(buf, 4)
	assert.Equal(t, []byte{4, 3, 2, 1, 8, 7, 6, 5}, buf)
	Swap(buf, 1)
	assert.Equal(t, []byte{4, 3, 2, 1, 8, 7, 6, 5}, buf)
}

func TestEncodeDecode(t *testing.T) {
	ints := []int32{-1, 0, 1, math.MaxInt32}
	data := Encode(ints)
	assert.Len(t, data, 16)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, data[:4])
	got, err := Decode[int32](data)
	require.NoError(t, err)
	assert.Equal(t, ints, got)

	floats := []float64{math.Pi, -0.5, math.Inf(1)}
	gotF, err := Decode[float64](Encode(floats))
	require.NoError(t, err)
	assert.Equal(t, floats, gotF)

	u8, err := Decode[uint8]([]byte{7, 8})
	require.NoError(t, err)
	assert.Equal(t, []uint8{7, 8}, u8)

	_, err = Decode[int64](make([]byte, 7))
	assert.Error(t, err)
	assert.Equal(t, 2, Size[uint16]())
}

func TestFixedStrings(t *testing.T) {
	tests := []struct {
		name string
		pad  message.StringPadding
		in   string
		size int
		raw  []byte
		out  string
	}{
		{"null term", message.PadNullTerm, "abc", 4, []byte("abc\x00"), "abc"},
		{"null term truncated", message.PadNullTerm, "abcdef", 4, []byte("abc\x00"), "abc"},
		{"null pad", message.PadNullPad, "ab", 4, []byte("ab\x00\x00"), "ab"},
		{"null pad exact", message.PadNullPad, "abcd", 4, []byte("abcd"), "abcd"},
		{"space pad", message.PadSpacePad, "ab", 4, []byte("ab  "), "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := EncodeFixedString(tt.in, tt.size, tt.pad)
			assert.Equal(t, tt.raw, raw)
			assert.Equal(t, tt.out, DecodeFixedString(raw, tt.pad))
		})
	}

	assert.Equal(t, 4, FixedStringSize("abc", message.PadNullTerm))
	assert.Equal(t, 3, FixedStringSize("abc", message.PadSpacePad))
	assert.Equal(t, 1, FixedStringSize("", message.PadNullPad))
}
