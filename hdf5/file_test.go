package hdf5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFile(t *testing.T) *File {
	t.Helper()
	f, err := OpenFile(filepath.Join(t.TempDir(), "test.h5"), ModeOut|ModeTrunc)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// reopen closes f and opens its file again with mode.
func reopen(t *testing.T, f *File, mode Mode) *File {
	t.Helper()
	path := f.Name()
	require.NoError(t, f.Close())
	g, err := OpenFile(path, mode)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestOpenFileModes(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.h5")
	f, err := OpenFile(existing, ModeOut)
	require.NoError(t, err)
	ds, err := CreateScalar[int32](f, "marker")
	require.NoError(t, err)
	require.NoError(t, ds.Close())
	require.NoError(t, f.Close())

	plain := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(plain, []byte("just text"), 0o644))

	tests := []struct {
		name    string
		path    string
		mode    Mode
		wantErr error
		marker  bool
	}{
		{"read existing", existing, ModeIn, nil, true},
		{"write existing", existing, ModeOut, nil, true},
		{"exclusive existing", existing, ModeOut | ModeExcl, ErrAlreadyExists, false},
		{"read missing", filepath.Join(dir, "missing.h5"), ModeIn, ErrNotFound, false},
		{"create missing", filepath.Join(dir, "new.h5"), ModeOut, nil, false},
		{"exclusive missing", filepath.Join(dir, "excl.h5"), ModeOut | ModeExcl, nil, false},
		{"trunc and excl", filepath.Join(dir, "both.h5"), ModeTrunc | ModeExcl, ErrMode, false},
		{"not hdf5", plain, ModeIn, ErrNotHDF5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := OpenFile(tt.path, tt.mode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, tt.marker, ExistsDataset(f, "marker"))
		})
	}

	t.Run("trunc existing", func(t *testing.T) {
		f, err := OpenFile(existing, ModeOut|ModeTrunc)
		require.NoError(t, err)
		defer f.Close()
		assert.False(t, ExistsDataset(f, "marker"))
	})
}

func TestFileOpenInUse(t *testing.T) {
	f := newFile(t)
	err := f.Open(filepath.Join(t.TempDir(), "other.h5"), ModeOut)
	assert.ErrorIs(t, err, ErrAlreadyInUse)
}

func TestFileCloseTwice(t *testing.T) {
	f := newFile(t)
	assert.True(t, f.Valid())
	require.NoError(t, f.Close())
	assert.NoError(t, f.Close())
	assert.False(t, f.Valid())
	assert.Equal(t, ID(-1), f.ID())
	assert.NoError(t, f.Flush())
}

func TestFileNameAndRoot(t *testing.T) {
	f := newFile(t)
	assert.Equal(t, "test.h5", filepath.Base(f.Name()))
	root, err := f.Root()
	require.NoError(t, err)
	defer root.Close()
	assert.Equal(t, "/", root.Name())
}

func TestIsHDF5(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.Flush())
	ok, err := IsHDF5(f.Name())
	require.NoError(t, err)
	assert.True(t, ok)

	plain := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))
	ok, err = IsHDF5(plain)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = IsHDF5(filepath.Join(t.TempDir(), "missing.h5"))
	assert.Error(t, err)
}

func TestCloseStrict(t *testing.T) {
	f := newFile(t)
	g, err := OpenGroup(f, "g")
	require.NoError(t, err)

	assert.ErrorIs(t, f.CloseStrict(), ErrOpenObjects)
	assert.True(t, f.Valid())

	require.NoError(t, g.Close())
	require.NoError(t, f.CloseStrict())
	assert.False(t, f.Valid())
}

func TestWeakClose(t *testing.T) {
	f := newFile(t)
	g, err := OpenGroup(f, "g")
	require.NoError(t, err)
	defer g.Close()
	require.NoError(t, f.Close())

	// The group keeps the file open.
	ds, err := CreateScalar[int64](g, "late")
	require.NoError(t, err)
	require.NoError(t, ds.Close())
	assert.True(t, ExistsDataset(g, "late"))
}

func TestFileMove(t *testing.T) {
	f := newFile(t)
	moved, err := f.Move()
	require.NoError(t, err)
	defer moved.Close()
	assert.False(t, f.Valid())
	assert.True(t, moved.Valid())
	assert.True(t, ExistsGroup(moved, "/"))
}

func TestFileCopyDetected(t *testing.T) {
	f := newFile(t)
	cp := *f
	assert.ErrorIs(t, cp.Close(), ErrCopyNotSupported)
	assert.ErrorIs(t, cp.Flush(), ErrCopyNotSupported)
	_, err := cp.Move()
	assert.ErrorIs(t, err, ErrCopyNotSupported)
	assert.True(t, f.Valid())
}

func TestOffsetSizeOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.h5")
	f, err := OpenFile(path, ModeOut, WithOffsetSize(4), WithLengthSize(4))
	require.NoError(t, err)
	ds, err := CreateVector(f, "v", []uint16{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, WriteVector(ds, []uint16{1, 2, 3}))
	require.NoError(t, ds.Close())

	f = reopen(t, f, ModeIn)
	ds, err = OpenDataset(f, "v")
	require.NoError(t, err)
	defer ds.Close()
	got, err := ReadVector[uint16](ds)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3}, got)
}

func TestReadOnlyFile(t *testing.T) {
	f := newFile(t)
	ds, err := CreateScalar[float32](f, "x")
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	f = reopen(t, f, ModeIn)
	err = WriteScalar[float32](f, "x", 1.5)
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = OpenGroup(f, "new")
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestWriteLock(t *testing.T) {
	f := newFile(t)
	_, err := OpenFile(f.Name(), ModeOut)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := OpenFile(f.Name(), ModeIn)
	require.NoError(t, err)
	assert.NoError(t, other.Close())
}

func TestHandleSentinel(t *testing.T) {
	var g Group
	assert.Equal(t, ID(-1), g.ID())
	assert.False(t, g.Valid())
	assert.NoError(t, g.Close())

	var ds Dataset
	_, err := ds.Dataspace()
	assert.ErrorIs(t, err, ErrNotOpen)

	f := newFile(t)
	assert.GreaterOrEqual(t, int(f.ID()), 0)
	moved, err := f.Move()
	require.NoError(t, err)
	defer moved.Close()
	assert.Less(t, int(f.ID()), 0)
	assert.GreaterOrEqual(t, int(moved.ID()), 0)
}
