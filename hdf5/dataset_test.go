package hdf5

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp[T Element](shape ...uint64) *Array[T] {
	arr := NewArray[T](shape...)
	for i := range arr.Data() {
		arr.Data()[i] = T(i%100 + 1)
	}
	return arr
}

func arrayRoundTrip[T Element](t *testing.T, f *File, shape []uint64) {
	name := fmt.Sprintf("%T_rank%d", *new(T), len(shape))
	arr := ramp[T](shape...)
	ds, err := CreateArray(f, name, arr)
	require.NoError(t, err)
	require.NoError(t, WriteArray(ds, arr))
	require.NoError(t, ds.Close())

	got, err := ReadArrayByName[T](f, name, len(shape))
	require.NoError(t, err)
	assert.Equal(t, shape, got.Shape())
	assert.True(t, arr.Equal(got))
}

func scalarRoundTrip[T Element](t *testing.T, f *File, _ []uint64) {
	name := fmt.Sprintf("%T_scalar", *new(T))
	ds, err := CreateScalar[T](f, name)
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	require.NoError(t, WriteScalar(f, name, T(7)))
	got, err := ReadScalar[T](f, name)
	require.NoError(t, err)
	assert.Equal(t, T(7), got)
}

type roundTripFunc func(*testing.T, *File, []uint64)

var elementTypes = []struct {
	name   string
	array  roundTripFunc
	scalar roundTripFunc
}{
	{"int8", arrayRoundTrip[int8], scalarRoundTrip[int8]},
	{"int16", arrayRoundTrip[int16], scalarRoundTrip[int16]},
	{"int32", arrayRoundTrip[int32], scalarRoundTrip[int32]},
	{"int64", arrayRoundTrip[int64], scalarRoundTrip[int64]},
	{"uint8", arrayRoundTrip[uint8], scalarRoundTrip[uint8]},
	{"uint16", arrayRoundTrip[uint16], scalarRoundTrip[uint16]},
	{"uint32", arrayRoundTrip[uint32], scalarRoundTrip[uint32]},
	{"uint64", arrayRoundTrip[uint64], scalarRoundTrip[uint64]},
	{"float32", arrayRoundTrip[float32], scalarRoundTrip[float32]},
	{"float64", arrayRoundTrip[float64], scalarRoundTrip[float64]},
}

func TestArrayRoundTrip(t *testing.T) {
	shapes := [][]uint64{{5}, {2, 3}, {2, 3, 4}, {3, 1, 2, 2}}
	for _, et := range elementTypes {
		t.Run(et.name, func(t *testing.T) {
			f := newFile(t)
			for _, shape := range shapes {
				t.Run(fmt.Sprint(len(shape)), func(t *testing.T) {
					et.array(t, f, shape)
				})
			}
		})
	}
}

func TestScalarRoundTrip(t *testing.T) {
	for _, et := range elementTypes {
		t.Run(et.name, func(t *testing.T) {
			et.scalar(t, newFile(t), nil)
		})
	}
}

func TestScalarOverwrite(t *testing.T) {
	f := newFile(t)
	ds, err := CreateScalar[int32](f, "x")
	require.NoError(t, err)
	defer ds.Close()

	require.NoError(t, WriteScalar[int32](f, "x", 42))
	got, err := ReadScalar[int32](f, "x")
	require.NoError(t, err)
	assert.Equal(t, int32(42), got)

	require.NoError(t, WriteScalarTo[int32](ds, -9))
	got, err = ReadScalarFrom[int32](ds)
	require.NoError(t, err)
	assert.Equal(t, int32(-9), got)

	st, err := ds.Storage()
	require.NoError(t, err)
	assert.Equal(t, Compact{}, st)
}

func TestScalarErrors(t *testing.T) {
	f := newFile(t)
	ds, err := CreateScalar[int32](f, "x")
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	_, err = CreateScalar[int32](f, "x")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	assert.ErrorIs(t, WriteScalar[int32](f, "missing", 1), ErrNotFound)
	assert.False(t, ExistsDataset(f, "missing"))

	_, err = ReadScalar[int32](f, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ds, err = CreateArray(f, "arr", NewArray[int32](2, 3))
	require.NoError(t, err)
	require.NoError(t, ds.Close())
	assert.ErrorIs(t, WriteScalar[int32](f, "arr", 1), ErrShapeMismatch)
	_, err = ReadScalar[int32](f, "arr")
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = ReadScalar[float64](f, "x")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	var opErr *OpError
	assert.ErrorAs(t, err, &opErr)
}

func TestArray2x3(t *testing.T) {
	f := newFile(t)
	arr, err := ArrayFrom([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, arr.At(1, 2))

	ds, err := CreateArray(f, "grid/m", arr)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, WriteArray(ds, arr))

	got, err := ReadArray[float64](ds, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, got.Shape())
	assert.Equal(t, arr.Data(), got.Data())
	assert.Equal(t, 4.0, got.At(1, 0))

	assert.True(t, ExistsGroup(f, "grid"))
	assert.True(t, HasType[float64](ds))
	assert.False(t, HasType[float32](ds))
	n, err := ds.Elements()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), n)
	typ, err := ds.Type()
	require.NoError(t, err)
	assert.Equal(t, "float64", typ.String())
	assert.True(t, typ.Equal(TypeOf[float64]()))
	assert.Equal(t, 8, typ.Size())
}

func TestArrayRankMismatch(t *testing.T) {
	f := newFile(t)
	ds, err := CreateArray(f, "m", ramp[int16](2, 3))
	require.NoError(t, err)
	defer ds.Close()

	for _, rank := range []int{0, 1, 3} {
		_, err := ReadArray[int16](ds, rank)
		assert.ErrorIs(t, err, ErrRankMismatch, "rank %d", rank)
	}
	_, err = ReadArrayByName[int16](f, "m", 1)
	assert.ErrorIs(t, err, ErrRankMismatch)
}

func TestArrayWriteByName(t *testing.T) {
	f := newFile(t)
	arr := ramp[uint32](3, 3)
	assert.ErrorIs(t, WriteArrayByName(f, "m", arr), ErrNotFound)
	assert.False(t, ExistsDataset(f, "m"))

	ds, err := CreateArray(f, "m", arr)
	require.NoError(t, err)
	require.NoError(t, ds.Close())
	require.NoError(t, WriteArrayByName(f, "m", arr))

	got, err := ReadArrayByName[uint32](f, "m", 2)
	require.NoError(t, err)
	assert.True(t, arr.Equal(got))
}

func TestCreateArrayExisting(t *testing.T) {
	f := newFile(t)
	ds, err := CreateArray(f, "m", NewArray[int8](4))
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	_, err = CreateArray(f, "m", NewArray[int8](4))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "create dataset", opErr.Op)
}

func TestPartialArrayWrite(t *testing.T) {
	tests := []struct {
		name    string
		storage Storage
	}{
		{"contiguous", Contiguous{}},
		{"chunked", Chunked{Dims: []uint32{3, 3}}},
		{"compact", Compact{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFile(t)
			ds, err := CreateArray(f, "big", NewArray[int32](4, 4), tt.storage)
			require.NoError(t, err)
			defer ds.Close()

			block, err := ArrayFrom([]int32{1, 2, 3, 4}, 2, 2)
			require.NoError(t, err)
			fileSpace, err := ds.Dataspace()
			require.NoError(t, err)
			sel, err := NewSlice([]uint64{1, 1}, []uint64{2, 2})
			require.NoError(t, err)
			require.NoError(t, fileSpace.Select(sel))
			assert.Equal(t, uint64(4), fileSpace.Selected())

			require.NoError(t, WriteArraySelection(ds, block, NewDataspace(2, 2), fileSpace))

			got, err := ReadArray[int32](ds, 2)
			require.NoError(t, err)
			assert.Equal(t, []int32{
				0, 0, 0, 0,
				0, 1, 2, 0,
				0, 3, 4, 0,
				0, 0, 0, 0,
			}, got.Data())

			back, err := ReadArraySelection[int32](ds, 2, NewDataspace(2, 2), fileSpace)
			require.NoError(t, err)
			assert.True(t, block.Equal(back))

			// The rank is checked against the memory dataspace.
			_, err = ReadArraySelection[int32](ds, 2, NewDataspace(4), fileSpace)
			assert.ErrorIs(t, err, ErrRankMismatch)
			flat, err := ReadArraySelection[int32](ds, 1, NewDataspace(4), fileSpace)
			require.NoError(t, err)
			assert.Equal(t, []int32{1, 2, 3, 4}, flat.Data())
		})
	}
}

func TestStridedSelection(t *testing.T) {
	f := newFile(t)
	ds, err := CreateArray(f, "v", NewArray[uint8](10))
	require.NoError(t, err)
	defer ds.Close()

	file := NewDataspace(10)
	sel, err := NewStridedSlice([]uint64{1}, []uint64{3}, []uint64{3}, []uint64{2})
	require.NoError(t, err)
	require.NoError(t, file.Select(sel))

	vals, err := ArrayFrom([]uint8{1, 2, 3, 4, 5, 6}, 6)
	require.NoError(t, err)
	require.NoError(t, WriteArraySelectionByName(f, "v", vals, nil, file))

	got, err := ReadVector[uint8](ds)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 2, 0, 3, 4, 0, 5, 6, 0}, got)

	// Write into every other element of a memory buffer.
	mem := NewDataspace(4)
	memSel, err := NewStridedSlice([]uint64{0}, []uint64{2}, []uint64{2}, []uint64{1})
	require.NoError(t, err)
	require.NoError(t, mem.Select(memSel))
	head := NewDataspace(10)
	headSel, err := NewSlice([]uint64{8}, []uint64{2})
	require.NoError(t, err)
	require.NoError(t, head.Select(headSel))
	src, err := ArrayFrom([]uint8{9, 0, 8, 0}, 4)
	require.NoError(t, err)
	require.NoError(t, WriteArraySelection(ds, src, mem, head))

	got, err = ReadVector[uint8](ds)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 2, 0, 3, 4, 0, 5, 9, 8}, got)
}

func TestSelectionErrors(t *testing.T) {
	s := NewDataspace(4, 4)
	_, err := NewSlice([]uint64{0}, []uint64{1, 1})
	assert.ErrorIs(t, err, ErrSliceRank)
	_, err = NewStridedSlice([]uint64{0}, []uint64{1}, []uint64{1, 1}, []uint64{1})
	assert.ErrorIs(t, err, ErrSliceRank)

	sel, err := NewSlice([]uint64{0}, []uint64{2})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Select(sel), ErrRankMismatch)

	sel, err = NewSlice([]uint64{3, 0}, []uint64{2, 1})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Select(sel), ErrSelection)
	assert.Equal(t, uint64(16), s.Selected())

	f := newFile(t)
	ds, err := CreateArray(f, "m", NewArray[int32](4, 4))
	require.NoError(t, err)
	defer ds.Close()
	small, err := ArrayFrom([]int32{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.ErrorIs(t, WriteArray(ds, small), ErrSelection)
	assert.ErrorIs(t, WriteArray(ds, ramp[int64](4, 4)), ErrTypeMismatch)
}

func TestStoragePolicies(t *testing.T) {
	tests := []struct {
		name    string
		storage Storage
	}{
		{"contiguous", Contiguous{}},
		{"compact", Compact{}},
		{"chunked", Chunked{Dims: []uint32{4, 3}}},
		{"filtered", Chunked{Dims: []uint32{2, 2}, Filters: []Filter{Shuffle{}, Deflate{Level: 6}, Fletcher32{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFile(t)
			arr := ramp[float32](6, 7)
			ds, err := CreateArray(f, "d", arr, tt.storage)
			require.NoError(t, err)
			require.NoError(t, WriteArray(ds, arr))
			require.NoError(t, ds.Close())

			f = reopen(t, f, ModeIn)
			ds, err = OpenDataset(f, "d")
			require.NoError(t, err)
			defer ds.Close()

			st, err := ds.Storage()
			require.NoError(t, err)
			assert.Equal(t, tt.storage, st)

			got, err := ReadArray[float32](ds, 2)
			require.NoError(t, err)
			assert.True(t, arr.Equal(got))
		})
	}
}

func TestCompactTooLarge(t *testing.T) {
	f := newFile(t)
	_, err := CreateArray(f, "big", NewArray[float64](20000), Compact{})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.False(t, ExistsDataset(f, "big"))
}

func TestVectorRoundTrip(t *testing.T) {
	f := newFile(t)
	vals := []int64{-3, 0, 1 << 40}
	ds, err := CreateVector(f, "v", vals, Chunked{Dims: []uint32{2}})
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, WriteVector(ds, vals))

	got, err := ReadVector[int64](ds)
	require.NoError(t, err)
	assert.Equal(t, vals, got)

	_, err = ReadVector[int32](ds)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestDatasetHandles(t *testing.T) {
	f := newFile(t)
	ds, err := CreateArray(f, "m", NewArray[int32](2))
	require.NoError(t, err)
	assert.Equal(t, "/m", ds.Name())

	assert.ErrorIs(t, ds.Open(f, "m"), ErrAlreadyInUse)

	cp := *ds
	_, err = cp.Dataspace()
	assert.ErrorIs(t, err, ErrCopyNotSupported)
	assert.Equal(t, ID(-1), cp.ID())

	moved, err := ds.Move()
	require.NoError(t, err)
	assert.False(t, ds.Valid())
	_, err = ds.Dataspace()
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, moved.Close())
	assert.NoError(t, moved.Close())

	_, err = OpenDataset(f, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArrayValue(t *testing.T) {
	arr := NewArray[int32](2, 3, 4)
	assert.Equal(t, 3, arr.Rank())
	assert.Equal(t, 24, arr.Len())
	arr.Set(5, 1, 2, 3)
	assert.Equal(t, int32(5), arr.At(1, 2, 3))
	assert.Equal(t, int32(5), arr.Data()[23])
	assert.Panics(t, func() { arr.At(2, 0, 0) })
	assert.Panics(t, func() { arr.At(0, 0) })

	_, err := ArrayFrom([]int32{1, 2, 3}, 2, 2)
	assert.Error(t, err)

	scalar := NewArray[float64]()
	assert.Equal(t, 0, scalar.Rank())
	assert.Equal(t, 1, scalar.Len())
}
