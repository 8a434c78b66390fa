package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

func encode(t *testing.T, cfg binary.Config, m Serializable) []byte {
	t.Helper()
	data, err := binary.Encode(cfg, m.Serialize)
	require.NoError(t, err)
	w := binary.NewWriter(binary.NewBuffer(nil), cfg)
	require.Len(t, data, m.SerializedSize(w), "SerializedSize disagrees with Serialize")
	return data
}

func roundTrip(t *testing.T, m Serializable) Message {
	t.Helper()
	cfg := binary.DefaultConfig()
	data := encode(t, cfg, m)
	out, err := Parse(m.Type(), data, 0, binary.NewReader(nil, cfg))
	require.NoError(t, err)
	require.Equal(t, m.Type(), out.Type())
	return out
}

func TestDataspaceRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ds   *Dataspace
		n    uint64
	}{
		{"scalar", NewScalarDataspace(), 1},
		{"null", NewNullDataspace(), 0},
		{"1d", NewDataspace([]uint64{7}, nil), 7},
		{"2d", NewDataspace([]uint64{2, 3}, nil), 6},
		{"max dims", NewDataspace([]uint64{4, 4}, []uint64{Unlimited, 8}), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.ds).(*Dataspace)
			assert.Equal(t, tt.ds.SpaceType, got.SpaceType)
			assert.Equal(t, tt.ds.Dimensions, got.Dimensions)
			assert.Equal(t, tt.ds.MaxDims, got.MaxDims)
			assert.Equal(t, tt.n, got.NumElements())
		})
	}
}

func TestDataspaceVersion1(t *testing.T) {
	data := []byte{
		1, 2, 0, 0, 0, 0, 0, 0,
		3, 0, 0, 0, 0, 0, 0, 0,
		5, 0, 0, 0, 0, 0, 0, 0,
	}
	msg, err := Parse(TypeDataspace, data, 0, binary.NewReader(nil, binary.DefaultConfig()))
	require.NoError(t, err)
	ds := msg.(*Dataspace)
	assert.Equal(t, DataspaceSimple, ds.SpaceType)
	assert.Equal(t, []uint64{3, 5}, ds.Dimensions)
	assert.Equal(t, 2, ds.Rank())
}

func TestDataspaceTruncated(t *testing.T) {
	_, err := Parse(TypeDataspace, []byte{2, 2, 0, 1, 3}, 0, binary.NewReader(nil, binary.DefaultConfig()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message 0x0001")
}

func TestDatatypeConstructors(t *testing.T) {
	tests := []struct {
		name string
		dt   *Datatype
		want string
	}{
		{"int8", NewInteger(1, true), "int8"},
		{"uint16", NewInteger(2, false), "uint16"},
		{"int64", NewInteger(8, true), "int64"},
		{"float32", NewFloat(4), "float32"},
		{"float64", NewFloat(8), "float64"},
		{"fixed string", NewFixedString(12, PadNullTerm, CharsetUTF8), "string[12]"},
		{"vlen string", NewVarLenString(CharsetUTF8, 8), "vlen string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.dt).(*Datatype)
			assert.True(t, tt.dt.Equal(got), "round trip changed %s", tt.want)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDatatypeEqual(t *testing.T) {
	assert.False(t, NewInteger(4, true).Equal(NewInteger(4, false)))
	assert.False(t, NewInteger(4, true).Equal(NewFloat(4)))
	assert.False(t, NewFixedString(4, PadNullTerm, CharsetASCII).Equal(NewFixedString(5, PadNullTerm, CharsetASCII)))
	assert.True(t, NewFloat(8).Equal(NewFloat(8)))
	assert.False(t, NewFloat(8).Equal(nil))
}

func TestVarLenStringClassBits(t *testing.T) {
	dt := NewVarLenString(CharsetUTF8, 8)
	data := encode(t, binary.DefaultConfig(), dt)
	assert.Equal(t, byte(0x19), data[0])
	assert.Equal(t, byte(0x01), data[1])
	assert.Equal(t, byte(0x01), data[2])
	assert.Equal(t, uint32(16), dt.Size)

	got := roundTrip(t, dt).(*Datatype)
	assert.True(t, got.IsVarLenString())
	assert.Equal(t, CharsetUTF8, got.CharSet)
	require.NotNil(t, got.Base)
	assert.Equal(t, uint32(1), got.Base.Size)
}

func TestDatatypeKeepsOtherClasses(t *testing.T) {
	data := []byte{0x15, 0, 0, 0, 4, 0, 0, 0, 't', 'a', 'g', 0, 0, 0, 0, 0}
	msg, err := Parse(TypeDatatype, data, 0, nil)
	require.NoError(t, err)
	dt := msg.(*Datatype)
	assert.Equal(t, ClassOpaque, dt.Class)
	assert.Equal(t, data, encode(t, binary.DefaultConfig(), dt))
}

func TestLayoutRoundTrip(t *testing.T) {
	fixed := NewChunkedLayout([]uint32{2, 2}, 4, ChunkIndexFixedArray, 4096)
	fixed.PageBits = 10

	single := NewChunkedLayout([]uint32{300}, 8, ChunkIndexSingle, 2048)
	single.ChunkFlags = ChunkSingleIndexWithFilter
	single.FilteredChunkSize = 1234
	single.FilterMask = 0

	tests := []struct {
		name string
		l    *DataLayout
	}{
		{"compact", NewCompactLayout([]byte{1, 2, 3, 4})},
		{"contiguous", NewContiguousLayout(800, 96)},
		{"fixed array", fixed},
		{"single filtered", single},
		{"implicit", NewChunkedLayout([]uint32{4}, 2, ChunkIndexImplicit, 512)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.l).(*DataLayout)
			assert.Equal(t, tt.l.Class, got.Class)
			assert.Equal(t, tt.l.CompactData, got.CompactData)
			assert.Equal(t, tt.l.Address, got.Address)
			assert.Equal(t, tt.l.Size, got.Size)
			assert.Equal(t, tt.l.ChunkDims, got.ChunkDims)
			assert.Equal(t, tt.l.ElementSize, got.ElementSize)
			assert.Equal(t, tt.l.ChunkIndexType, got.ChunkIndexType)
			assert.Equal(t, tt.l.ChunkIndexAddr, got.ChunkIndexAddr)
			assert.Equal(t, tt.l.PageBits, got.PageBits)
			assert.Equal(t, tt.l.FilteredChunkSize, got.FilteredChunkSize)
		})
	}
}

func TestLayoutV4DimensionEncoding(t *testing.T) {
	l := NewChunkedLayout([]uint32{300, 2}, 8, ChunkIndexFixedArray, 0)
	data := encode(t, binary.DefaultConfig(), l)
	assert.Equal(t, []byte{4, 2, 0, 3, 2}, data[:5])
	assert.Equal(t, []byte{0x2c, 0x01}, data[5:7])
	assert.Equal(t, byte(ChunkIndexFixedArray), data[11])
}

func TestLayoutV3Chunked(t *testing.T) {
	data := []byte{3, 2, 3}
	data = append(data, 0x00, 0x10, 0, 0, 0, 0, 0, 0)
	data = append(data, 4, 0, 0, 0, 5, 0, 0, 0, 8, 0, 0, 0)
	msg, err := Parse(TypeDataLayout, data, 0, binary.NewReader(nil, binary.DefaultConfig()))
	require.NoError(t, err)
	l := msg.(*DataLayout)
	assert.Equal(t, ChunkIndexBTreeV1, l.ChunkIndexType)
	assert.Equal(t, uint64(0x1000), l.ChunkIndexAddr)
	assert.Equal(t, []uint32{4, 5}, l.ChunkDims)
	assert.Equal(t, uint32(8), l.ElementSize)
	assert.Equal(t, uint64(160), l.ChunkBytes())
	assert.Equal(t, data, encode(t, binary.DefaultConfig(), l))
}

func TestLayoutV1Contiguous(t *testing.T) {
	data := []byte{1, 2, 1, 0, 0, 0, 0, 0}
	data = append(data, 0x20, 0, 0, 0, 0, 0, 0, 0)
	data = append(data, 3, 0, 0, 0, 4, 0, 0, 0)
	msg, err := Parse(TypeDataLayout, data, 0, binary.NewReader(nil, binary.DefaultConfig()))
	require.NoError(t, err)
	l := msg.(*DataLayout)
	assert.True(t, l.IsContiguous())
	assert.Equal(t, uint64(0x20), l.Address)
	assert.Zero(t, l.Size)
}

func TestLayoutCompactTooLarge(t *testing.T) {
	_, err := binary.Encode(binary.DefaultConfig(), NewCompactLayout(make([]byte, 70000)).Serialize)
	assert.Error(t, err)
}

func TestLinkRoundTrip(t *testing.T) {
	hard := NewHardLink("dataset", 0x1234)
	got := roundTrip(t, hard).(*Link)
	assert.True(t, got.IsHard())
	assert.Equal(t, "dataset", got.Name)
	assert.Equal(t, uint64(0x1234), got.ObjectAddress)

	soft := NewSoftLink("alias", "/g/a")
	soft.HasCreation = true
	soft.CreationOrder = 9
	gotSoft := roundTrip(t, soft).(*Link)
	assert.True(t, gotSoft.IsSoft())
	assert.Equal(t, "/g/a", gotSoft.SoftLinkValue)
	assert.Equal(t, uint64(9), gotSoft.CreationOrder)

	ext := &Link{LinkType: LinkTypeExternal, Name: "x", ExternalFile: "other.h5", ExternalPath: "/data"}
	gotExt := roundTrip(t, ext).(*Link)
	assert.True(t, gotExt.IsExternal())
	assert.Equal(t, "other.h5", gotExt.ExternalFile)
	assert.Equal(t, "/data", gotExt.ExternalPath)
}

func TestLinkLongName(t *testing.T) {
	name := string(make([]byte, 300))
	got := roundTrip(t, NewHardLink(name, 1)).(*Link)
	assert.Len(t, got.Name, 300)
}

func TestLinkInfoRoundTrip(t *testing.T) {
	li := NewLinkInfo()
	got := roundTrip(t, li).(*LinkInfo)
	assert.False(t, got.Dense(UndefinedAddress))

	ordered := NewLinkInfo()
	ordered.Flags = linkInfoTrackOrder | linkInfoIndexOrder
	ordered.MaxCreationIndex = 3
	ordered.FractalHeapAddress = 400
	ordered.CreationOrderAddress = 600
	got = roundTrip(t, ordered).(*LinkInfo)
	assert.True(t, got.Dense(UndefinedAddress))
	assert.Equal(t, uint64(3), got.MaxCreationIndex)
	assert.Equal(t, uint64(600), got.CreationOrderAddress)
}

func TestLinkInfoTrackOnly(t *testing.T) {
	li := NewLinkInfo()
	li.Flags = linkInfoTrackOrder
	data := encode(t, binary.DefaultConfig(), li)
	assert.Len(t, data, 2+8+16)
}

func TestGroupInfoRoundTrip(t *testing.T) {
	got := roundTrip(t, NewGroupInfo()).(*GroupInfo)
	assert.Zero(t, got.MaxCompact)

	data := []byte{0, 3, 8, 0, 6, 0, 4, 0, 10, 0}
	msg, err := Parse(TypeGroupInfo, data, 0, nil)
	require.NoError(t, err)
	gi := msg.(*GroupInfo)
	assert.Equal(t, uint16(8), gi.MaxCompact)
	assert.Equal(t, uint16(10), gi.EstimatedNameLen)
	assert.Equal(t, data, encode(t, binary.DefaultConfig(), gi))
}

func TestAttributeRoundTrip(t *testing.T) {
	attr := NewAttribute("units", NewFixedString(6, PadNullTerm, CharsetUTF8), NewScalarDataspace(), []byte("metre\x00"))
	got := roundTrip(t, attr).(*Attribute)
	assert.Equal(t, "units", got.Name)
	assert.Equal(t, ClassString, got.Datatype.Class)
	assert.True(t, got.Dataspace.IsScalar())
	assert.Equal(t, []byte("metre\x00"), got.Data)
}

func TestAttributeVersion1(t *testing.T) {
	cfg := binary.DefaultConfig()
	dt, err := binary.Encode(cfg, NewInteger(4, true).Serialize)
	require.NoError(t, err)
	ds, err := binary.Encode(cfg, NewDataspace([]uint64{2}, nil).Serialize)
	require.NoError(t, err)

	data := []byte{1, 0, 2, 0, byte(len(dt)), 0, byte(len(ds)), 0}
	data = append(data, 'n', 0, 0, 0, 0, 0, 0, 0)
	data = append(data, dt...)
	data = append(data, make([]byte, pad8(len(dt))-len(dt))...)
	data = append(data, ds...)
	data = append(data, make([]byte, pad8(len(ds))-len(ds))...)
	data = append(data, 1, 0, 0, 0, 2, 0, 0, 0)

	msg, err := Parse(TypeAttribute, data, 0, binary.NewReader(nil, cfg))
	require.NoError(t, err)
	attr := msg.(*Attribute)
	assert.Equal(t, "n", attr.Name)
	assert.Equal(t, "int32", attr.Datatype.String())
	assert.Equal(t, []uint64{2}, attr.Dataspace.Dimensions)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, attr.Data)
}

func TestFillValue(t *testing.T) {
	got := roundTrip(t, NewFillValue(AllocIncremental)).(*FillValue)
	assert.Equal(t, AllocIncremental, got.SpaceAllocTime)
	assert.Equal(t, FillWriteIfSet, got.FillWriteTime)
	assert.False(t, got.Defined)

	set := &FillValue{SpaceAllocTime: AllocEarly, Defined: true, Value: []byte{0xff, 0xff}}
	got = roundTrip(t, set).(*FillValue)
	assert.True(t, got.Defined)
	assert.Equal(t, []byte{0xff, 0xff}, got.Value)
}

func TestFilterPipelineRoundTrip(t *testing.T) {
	fp := &FilterPipeline{Filters: []FilterInfo{
		{ID: FilterShuffle, ClientData: []uint32{4}},
		{ID: FilterDeflate, ClientData: []uint32{6}},
		{ID: FilterFletcher32},
		{ID: 32015, Name: "zstd", Flags: FilterOptional, ClientData: []uint32{3}},
	}}
	got := roundTrip(t, fp).(*FilterPipeline)
	require.Len(t, got.Filters, 4)
	assert.Equal(t, []uint32{4}, got.Filters[0].ClientData)
	assert.True(t, got.HasFilter(FilterDeflate))
	assert.False(t, got.HasFilter(FilterSZIP))
	assert.Equal(t, "zstd", got.Filters[3].Name)
	assert.True(t, got.Filters[3].IsOptional())
}

func TestFilterPipelineVersion1(t *testing.T) {
	data := []byte{1, 1, 0, 0, 0, 0, 0, 0}
	data = append(data, 1, 0, 8, 0, 0, 0, 1, 0)
	data = append(data, 'd', 'e', 'f', 'l', 'a', 't', 'e', 0)
	data = append(data, 5, 0, 0, 0, 0, 0, 0, 0)
	msg, err := Parse(TypeFilterPipeline, data, 0, nil)
	require.NoError(t, err)
	fp := msg.(*FilterPipeline)
	require.Len(t, fp.Filters, 1)
	assert.Equal(t, "deflate", fp.Filters[0].Name)
	assert.Equal(t, []uint32{5}, fp.Filters[0].ClientData)
}

func TestUnknownPreserved(t *testing.T) {
	raw := []byte{9, 8, 7, 6, 5}
	msg, err := Parse(TypeObjectModTime, raw, FlagConstant, nil)
	require.NoError(t, err)
	u, ok := msg.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, FlagConstant, Flags(u))
	assert.Equal(t, raw, encode(t, binary.DefaultConfig(), u))
}

func TestSharedMessagesStayRaw(t *testing.T) {
	msg, err := Parse(TypeDatatype, []byte{1, 2, 3}, FlagShared, nil)
	require.NoError(t, err)
	assert.IsType(t, &Unknown{}, msg)
}

func TestContinuationAndSymbolTable(t *testing.T) {
	got := roundTrip(t, &Continuation{Offset: 4096, Length: 256}).(*Continuation)
	assert.Equal(t, uint64(4096), got.Offset)
	assert.Equal(t, uint64(256), got.Length)

	data := []byte{0x10, 0, 0, 0, 0, 0, 0, 0, 0x20, 0, 0, 0, 0, 0, 0, 0}
	msg, err := Parse(TypeSymbolTable, data, 0, binary.NewReader(nil, binary.DefaultConfig()))
	require.NoError(t, err)
	st := msg.(*SymbolTable)
	assert.Equal(t, uint64(0x10), st.BTreeAddress)
	assert.Equal(t, uint64(0x20), st.LocalHeapAddress)
}
