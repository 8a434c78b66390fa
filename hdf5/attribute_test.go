package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericAttributes(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "g")
	ds, err := CreateArray(g, "d", NewArray[int32](3))
	require.NoError(t, err)
	defer ds.Close()

	owners := []struct {
		name string
		obj  Object
	}{
		{"file", f},
		{"group", g},
		{"dataset", ds},
	}
	for _, o := range owners {
		t.Run(o.name, func(t *testing.T) {
			require.NoError(t, WriteAttribute(o.obj, "scale", 2.5))
			got, err := ReadAttribute[float64](o.obj, "scale")
			require.NoError(t, err)
			assert.Equal(t, 2.5, got)

			require.NoError(t, WriteAttribute[int16](o.obj, "scale", -4))
			n, err := ReadAttribute[int16](o.obj, "scale")
			require.NoError(t, err)
			assert.Equal(t, int16(-4), n)

			_, err = ReadAttribute[float64](o.obj, "scale")
			assert.ErrorIs(t, err, ErrTypeMismatch)

			require.NoError(t, WriteAttributeSlice(o.obj, "range", []uint32{1, 10, 100}))
			vals, err := ReadAttributeSlice[uint32](o.obj, "range")
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 10, 100}, vals)
			_, err = ReadAttribute[uint32](o.obj, "range")
			assert.ErrorIs(t, err, ErrShapeMismatch)

			names, err := Attributes(o.obj)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"scale", "range"}, names)
		})
	}
}

func TestStringAttributes(t *testing.T) {
	f := newFile(t)
	tests := []struct {
		name   string
		policy []StringPolicy
		value  string
	}{
		{"default", nil, "metres"},
		{"null term", []StringPolicy{StringNullTerm}, "kelvin"},
		{"null pad", []StringPolicy{StringNullPad}, "pascal"},
		{"space pad", []StringPolicy{StringSpacePad}, "two words"},
		{"variable", []StringPolicy{StringVariable}, "a longer description of the data"},
		{"empty variable", []StringPolicy{StringVariable}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, WriteStringAttribute(f, tt.name, tt.value, tt.policy...))
			got, err := ReadStringAttribute(f, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)

			v, err := AttributeValue(f, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.value, v)
		})
	}

	f = reopen(t, f, ModeIn)
	got, err := ReadStringAttribute(f, "variable")
	require.NoError(t, err)
	assert.Equal(t, "a longer description of the data", got)

	_, err = ReadAttribute[int32](f, "variable")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAttributeExistsDelete(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "g")

	assert.False(t, ExistsAttribute(g, "a"))
	require.NoError(t, WriteAttribute[int8](g, "a", 1))
	assert.True(t, ExistsAttribute(g, "a"))
	assert.False(t, ExistsAttribute(f, "a"))

	require.NoError(t, DeleteAttribute(g, "a"))
	assert.False(t, ExistsAttribute(g, "a"))

	err := DeleteAttribute(g, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "/g@a", opErr.Name)

	_, err = ReadAttribute[int8](g, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, g.Close())
	assert.False(t, ExistsAttribute(g, "a"))
	assert.ErrorIs(t, WriteAttribute[int8](g, "a", 1), ErrNotOpen)
}

func TestAttributeValue(t *testing.T) {
	f := newFile(t)
	require.NoError(t, WriteAttribute[uint16](f, "u", 7))
	require.NoError(t, WriteAttributeSlice(f, "fs", []float32{0.5, 1.5}))

	v, err := AttributeValue(f, "u")
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v)

	v, err = AttributeValue(f, "fs")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1.5}, v)

	_, err = AttributeValue(f, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttributePaths(t *testing.T) {
	tests := []struct {
		path    string
		object  string
		attr    string
		wantErr bool
	}{
		{"/@title", "/", "title", false},
		{"/data@units", "/data", "units", false},
		{"grid/temp@scale", "/grid/temp", "scale", false},
		{"/a@b@c", "/a@b", "c", false},
		{"", "", "", true},
		{"/no/separator", "", "", true},
		{"/data@", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			obj, attr, err := ParseAttrPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.object, obj)
			assert.Equal(t, tt.attr, attr)
			if tt.object != "/a@b" {
				assert.Equal(t, JoinAttrPath(obj, attr), "/"+trimSlash(tt.path))
			}
		})
	}
}

func trimSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}
