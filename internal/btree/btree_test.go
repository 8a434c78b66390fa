package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/heap"
)

type image struct {
	t   *testing.T
	buf *binary.Buffer
	cfg binary.Config
}

func newImage(t *testing.T) *image {
	return &image{t: t, buf: binary.NewBuffer(nil), cfg: binary.DefaultConfig()}
}

func (im *image) at(addr int64) *binary.Writer {
	return binary.NewWriter(im.buf, im.cfg).At(addr)
}

func (im *image) reader() *binary.Reader {
	return binary.NewReader(im.buf, im.cfg)
}

func (im *image) must(err error) {
	im.t.Helper()
	require.NoError(im.t, err)
}

// node writes a TREE prefix and returns the writer positioned at
// the first key.
func (im *image) node(addr int64, typ, level uint8, entries uint16) *binary.Writer {
	w := im.at(addr)
	im.must(w.WriteBytes([]byte("TREE")))
	im.must(w.WriteUint8(typ))
	im.must(w.WriteUint8(level))
	im.must(w.WriteUint16(entries))
	im.must(w.WriteUndefinedOffset())
	im.must(w.WriteUndefinedOffset())
	return w
}

// localHeap stores names back to back after an empty string and returns
// their offsets.
func (im *image) localHeap(addr, dataAddr int64, names ...string) []uint64 {
	data := []byte{0}
	var offsets []uint64
	for _, n := range names {
		offsets = append(offsets, uint64(len(data)))
		data = append(data, n...)
		data = append(data, 0)
	}
	w := im.at(addr)
	im.must(w.WriteBytes([]byte("HEAP")))
	im.must(w.WriteZeros(4))
	im.must(w.WriteLength(uint64(len(data))))
	im.must(w.WriteLength(uint64(len(data))))
	im.must(w.WriteOffset(uint64(dataAddr)))
	im.must(im.at(dataAddr).WriteBytes(data))
	return offsets
}

type symbol struct {
	name    uint64
	addr    uint64
	softRef uint64
	soft    bool
}

func (im *image) symbolNode(addr int64, syms ...symbol) {
	w := im.at(addr)
	im.must(w.WriteBytes([]byte("SNOD")))
	im.must(w.WriteUint8(1))
	im.must(w.WriteUint8(0))
	im.must(w.WriteUint16(uint16(len(syms))))
	for _, s := range syms {
		im.must(w.WriteOffset(s.name))
		im.must(w.WriteOffset(s.addr))
		scratch := make([]byte, 16)
		if s.soft {
			im.must(w.WriteUint32(cacheSoftLink))
			scratch[0] = byte(s.softRef)
		} else {
			im.must(w.WriteUint32(cacheNone))
		}
		im.must(w.WriteZeros(4))
		im.must(w.WriteBytes(scratch))
	}
}

func TestReadGroupEntries(t *testing.T) {
	im := newImage(t)
	offs := im.localHeap(0, 64, "alpha", "beta", "/alpha")
	im.symbolNode(512,
		symbol{name: offs[0], addr: 4000},
		symbol{name: offs[1], soft: true, softRef: offs[2]},
	)
	w := im.node(256, nodeGroup, 0, 1)
	im.must(w.WriteLength(0))
	im.must(w.WriteOffset(512))
	im.must(w.WriteLength(offs[1]))

	r := im.reader()
	names, err := heap.ReadLocalHeap(r, 0)
	require.NoError(t, err)
	entries, err := ReadGroupEntries(r, 256, names)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, GroupEntry{Name: "alpha", ObjectAddress: 4000}, entries[0])
	assert.Equal(t, GroupEntry{Name: "beta", Soft: true, SoftLinkValue: "/alpha"}, entries[1])
}

func TestReadGroupEntriesInternalNode(t *testing.T) {
	im := newImage(t)
	offs := im.localHeap(0, 64, "a", "b")
	im.symbolNode(1024, symbol{name: offs[0], addr: 10})
	im.symbolNode(2048, symbol{name: offs[1], addr: 20})

	leaf := im.node(512, nodeGroup, 0, 2)
	for _, child := range []uint64{1024, 2048} {
		im.must(leaf.WriteLength(0))
		im.must(leaf.WriteOffset(child))
	}
	im.must(leaf.WriteLength(0))

	root := im.node(256, nodeGroup, 1, 1)
	im.must(root.WriteLength(0))
	im.must(root.WriteOffset(512))
	im.must(root.WriteLength(0))

	r := im.reader()
	names, err := heap.ReadLocalHeap(r, 0)
	require.NoError(t, err)
	entries, err := ReadGroupEntries(r, 256, names)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, uint64(20), entries[1].ObjectAddress)
}

func TestReadGroupEntriesErrors(t *testing.T) {
	im := newImage(t)
	im.localHeap(0, 64, "x")
	im.must(im.at(256).WriteBytes([]byte("XXXX0000000000000000000000000000")))
	im.node(512, nodeChunk, 0, 0)

	r := im.reader()
	names, err := heap.ReadLocalHeap(r, 0)
	require.NoError(t, err)

	_, err = ReadGroupEntries(r, 256, names)
	assert.ErrorContains(t, err, "invalid B-tree signature")
	_, err = ReadGroupEntries(r, 512, names)
	assert.ErrorContains(t, err, "has type 1")
	_, err = ReadGroupEntries(r, 1<<20, names)
	assert.Error(t, err)
}

func writeChunkKey(im *image, w *binary.Writer, size, mask uint32, offset ...uint64) {
	im.must(w.WriteUint32(size))
	im.must(w.WriteUint32(mask))
	for _, o := range offset {
		im.must(w.WriteUint64(o))
	}
	im.must(w.WriteUint64(0))
}

func TestReadChunkIndex(t *testing.T) {
	im := newImage(t)
	w := im.node(0, nodeChunk, 0, 3)
	writeChunkKey(im, w, 64, 0, 0, 0)
	im.must(w.WriteOffset(1000))
	writeChunkKey(im, w, 48, 2, 0, 4)
	im.must(w.WriteOffset(2000))
	writeChunkKey(im, w, 64, 0, 4, 0)
	im.must(w.WriteUndefinedOffset())
	writeChunkKey(im, w, 0, 0, 8, 8)

	entries, err := ReadChunkIndex(im.reader(), 0, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ChunkEntry{Offset: []uint64{0, 0}, Size: 64, Address: 1000}, entries[0])
	assert.Equal(t, ChunkEntry{Offset: []uint64{0, 4}, Size: 48, FilterMask: 2, Address: 2000}, entries[1])
}

func TestReadChunkIndexTwoLevels(t *testing.T) {
	im := newImage(t)
	left := im.node(512, nodeChunk, 0, 1)
	writeChunkKey(im, left, 8, 0, 0)
	im.must(left.WriteOffset(5000))
	writeChunkKey(im, left, 0, 0, 2)

	right := im.node(1024, nodeChunk, 0, 1)
	writeChunkKey(im, right, 8, 0, 2)
	im.must(right.WriteOffset(6000))
	writeChunkKey(im, right, 0, 0, 4)

	root := im.node(0, nodeChunk, 1, 2)
	writeChunkKey(im, root, 0, 0, 0)
	im.must(root.WriteOffset(512))
	writeChunkKey(im, root, 0, 0, 2)
	im.must(root.WriteOffset(1024))
	writeChunkKey(im, root, 0, 0, 4)

	entries, err := ReadChunkIndex(im.reader(), 0, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []uint64{0}, entries[0].Offset)
	assert.Equal(t, uint64(6000), entries[1].Address)
}

func TestReadChunkIndexWrongType(t *testing.T) {
	im := newImage(t)
	im.node(0, nodeGroup, 0, 0)
	_, err := ReadChunkIndex(im.reader(), 0, 1)
	assert.ErrorContains(t, err, "want 1")
}
