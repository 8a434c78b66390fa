package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGroup(t *testing.T, loc Location, name string) *Group {
	t.Helper()
	g, err := OpenGroup(loc, name)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func mustScalar(t *testing.T, loc Location, name string) {
	t.Helper()
	ds, err := CreateScalar[int32](loc, name)
	require.NoError(t, err)
	require.NoError(t, ds.Close())
}

// sampleGroup builds /g with datasets a and b and subgroup c.
func sampleGroup(t *testing.T) *Group {
	t.Helper()
	f := newFile(t)
	g := mustGroup(t, f, "g")
	mustScalar(t, g, "b")
	mustScalar(t, g, "a")
	require.NoError(t, mustGroup(t, g, "c").Close())
	return g
}

func TestGroupCreateAndExists(t *testing.T) {
	f := newFile(t)
	tests := []string{"g", "deep/er/path", "/abs"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			assert.False(t, ExistsGroup(f, name))
			g := mustGroup(t, f, name)
			assert.True(t, ExistsGroup(f, name))
			assert.False(t, ExistsDataset(f, name))
			require.NoError(t, g.Close())
		})
	}
	assert.True(t, ExistsGroup(f, "deep/er"))
	assert.False(t, ExistsGroup(f, "never"))
}

func TestGroupOpenExisting(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "g")
	mustScalar(t, g, "x")

	again := mustGroup(t, f, "g")
	assert.Equal(t, "/g", again.Name())
	assert.True(t, ExistsDataset(again, "x"))
}

func TestGroupOpenOverDataset(t *testing.T) {
	f := newFile(t)
	mustScalar(t, f, "x")
	_, err := OpenGroup(f, "x")
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "create group", opErr.Op)
	assert.Equal(t, "x", opErr.Name)
}

func TestGroupAlreadyInUse(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "g")
	assert.ErrorIs(t, g.Open(f, "h"), ErrAlreadyInUse)
	assert.False(t, ExistsGroup(f, "h"))

	var empty Group
	require.NoError(t, empty.Open(f, "h"))
	defer empty.Close()
	assert.Equal(t, "/h", empty.Name())
}

func TestGroupCloseIdempotent(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "g")
	require.NoError(t, g.Close())
	assert.NoError(t, g.Close())
	assert.False(t, g.Valid())
	assert.Equal(t, "", g.Name())

	var zero Group
	assert.NoError(t, zero.Close())
}

func TestGroupMoveAndCopy(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "g")

	cp := *g
	assert.ErrorIs(t, cp.Close(), ErrCopyNotSupported)
	assert.ErrorIs(t, cp.Delete("x"), ErrCopyNotSupported)
	assert.False(t, cp.Valid())

	moved, err := g.Move()
	require.NoError(t, err)
	defer moved.Close()
	assert.False(t, g.Valid())
	assert.True(t, moved.Valid())
	assert.Equal(t, "/g", moved.Name())

	// The emptied source can be reused.
	require.NoError(t, g.Open(f, "h"))
	assert.NoError(t, g.Close())
}

func TestGroupDeleteAndLink(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "g")
	mustScalar(t, g, "x")

	require.NoError(t, g.Link("alias", "/g/x"))
	assert.True(t, ExistsDataset(g, "alias"))

	require.NoError(t, g.Delete("x"))
	assert.False(t, ExistsDataset(g, "x"))
	assert.False(t, ExistsDataset(g, "alias"))
	assert.ErrorIs(t, g.Delete("x"), ErrNotFound)
}

func TestIterateSample(t *testing.T) {
	g := sampleGroup(t)

	names, err := g.Datasets().Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	names, err = g.Groups().Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names)
}

func TestIteratorProtocol(t *testing.T) {
	g := sampleGroup(t)
	c := g.Datasets()
	it, end := c.Begin(), c.End()

	var seen []string
	for !it.Equal(end) {
		ds, err := it.Value()
		require.NoError(t, err)
		again, err := it.Value()
		require.NoError(t, err)
		assert.Same(t, ds, again)
		seen = append(seen, ds.Name())

		require.NoError(t, it.Next())
		assert.False(t, ds.Valid(), "advancing closes the previous element")
	}
	assert.Equal(t, []string{"/g/a", "/g/b"}, seen)

	_, err := it.Value()
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, it.Next(), ErrOutOfRange)
	assert.Equal(t, "", it.Name())
	assert.NoError(t, it.Err())
}

func TestIteratorEmptyGroup(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "empty")

	datasets, groups := g.Datasets(), g.Groups()
	assert.True(t, datasets.Begin().Equal(datasets.End()))
	assert.True(t, groups.Begin().Equal(groups.End()))

	_, err := datasets.Begin().Value()
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "parent group /empty")
}

func TestIteratorEquality(t *testing.T) {
	g := sampleGroup(t)
	c := g.Datasets()

	first, second := c.Begin(), c.Begin()
	assert.True(t, first.Equal(second), "fresh iterators settle on the same child")
	assert.Equal(t, "a", second.Name())

	require.NoError(t, first.Next())
	assert.False(t, first.Equal(second))
	assert.Equal(t, "b", first.Name())

	require.NoError(t, second.Next())
	assert.True(t, first.Equal(second))

	require.NoError(t, first.Next())
	assert.True(t, first.Equal(c.End()))
	assert.True(t, c.End().Equal(c.End()))
}

func TestIteratorWithoutParent(t *testing.T) {
	var it Iterator[Group]
	_, err := it.Value()
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.ErrorIs(t, it.Next(), ErrInvalidOperation)
	assert.Equal(t, "", it.Name())

	g := sampleGroup(t)
	assert.True(t, it.Equal(g.Groups().End()))
	assert.False(t, it.Equal(g.Groups().Begin()))

	var c Container[Dataset]
	names, err := c.Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestIteratorClosedParent(t *testing.T) {
	g := sampleGroup(t)
	c := g.Groups()
	require.NoError(t, g.Close())

	it := c.Begin()
	assert.True(t, it.Equal(c.End()))
	_, err := it.Value()
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "non-existing parent group")
}

func TestContainerAll(t *testing.T) {
	g := sampleGroup(t)

	var names []string
	for ds, err := range g.Datasets().All() {
		require.NoError(t, err)
		n, err := ds.Elements()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
		names = append(names, ds.Name())
	}
	assert.Equal(t, []string{"/g/a", "/g/b"}, names)

	for sub, err := range g.Groups().All() {
		require.NoError(t, err)
		assert.Equal(t, "/g/c", sub.Name())
		break
	}
}

func TestIterateLarge(t *testing.T) {
	f := newFile(t)
	g := mustGroup(t, f, "many")
	var want []string
	for i := range 30 {
		name := string(rune('A'+i%26)) + string(rune('a'+i))
		want = append(want, name)
		if i%3 == 0 {
			require.NoError(t, mustGroup(t, g, name).Close())
			continue
		}
		mustScalar(t, g, name)
	}

	datasets, err := g.Datasets().Names()
	require.NoError(t, err)
	groups, err := g.Groups().Names()
	require.NoError(t, err)
	assert.Len(t, datasets, 20)
	assert.Len(t, groups, 10)
	assert.IsNonDecreasing(t, datasets)
	assert.IsNonDecreasing(t, groups)
	assert.ElementsMatch(t, want, append(datasets, groups...))
}
