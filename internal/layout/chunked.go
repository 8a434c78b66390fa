package layout

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/btree"
	"github.com/robert-malhotra/hdf5kit/internal/filter"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Chunked is storage split into equally sized chunks located through an
// index. Chunks on the upper edges are stored at full size.
type Chunked struct {
	p        Params
	r        *binary.Reader
	pipeline *filter.Pipeline
	chunk    []uint64
	grid     []uint64

	// index blocks written by this package, released when replaced
	blocks []alloc.Allocation
}

// NewChunkedLayout returns the layout message of a dataset whose chunks
// are allocated on first write. A single chunk uses the single chunk
// index, anything larger a fixed array.
func NewChunkedLayout(p Params, chunk []uint32, offsetSize int) (*message.DataLayout, error) {
	if len(p.Dims) == 0 {
		return nil, fmt.Errorf("a scalar dataset cannot be chunked")
	}
	if len(chunk) != len(p.Dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(chunk), len(p.Dims))
	}
	for d, n := range chunk {
		if n == 0 {
			return nil, fmt.Errorf("chunk dimension %d is zero", d)
		}
		if uint64(n) > p.Dims[d] && p.Dims[d] > 0 {
			return nil, fmt.Errorf("chunk dimension %d of %d exceeds extent %d", d, n, p.Dims[d])
		}
	}
	l := message.NewChunkedLayout(chunk, uint32(p.ElemSize), message.ChunkIndexFixedArray, binary.Undefined(offsetSize))
	c := &Chunked{p: p}
	c.setGrid(l)
	setIndex(l, c.numChunks(), filtered(p.Filters))
	return l, nil
}

func filtered(fp *message.FilterPipeline) bool {
	return fp != nil && len(fp.Filters) > 0
}

func setIndex(l *message.DataLayout, n uint64, filtered bool) {
	l.Version = 4
	l.DimensionSizeBytes = 0
	l.IndexParams = nil
	l.ChunkFlags &^= message.ChunkSingleIndexWithFilter
	l.FilteredChunkSize, l.FilterMask, l.PageBits = 0, 0, 0
	if n == 1 {
		l.ChunkIndexType = message.ChunkIndexSingle
		if filtered {
			l.ChunkFlags |= message.ChunkSingleIndexWithFilter
		}
		return
	}
	l.ChunkIndexType = message.ChunkIndexFixedArray
	l.PageBits = fixedArrayPageBits(n)
}

func newChunked(p Params, r *binary.Reader) (*Chunked, error) {
	l := p.Layout
	if len(l.ChunkDims) != len(p.Dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(l.ChunkDims), len(p.Dims))
	}
	if slices.Contains(l.ChunkDims, 0) {
		return nil, fmt.Errorf("zero chunk dimension")
	}
	if l.ElementSize != 0 && int(l.ElementSize) != p.ElemSize {
		return nil, fmt.Errorf("chunk element size %d does not match datatype size %d", l.ElementSize, p.ElemSize)
	}
	pl, err := filter.NewPipeline(p.Filters, p.ElemSize)
	if err != nil {
		return nil, err
	}
	c := &Chunked{p: p, r: r, pipeline: pl}
	c.setGrid(l)
	return c, nil
}

func (c *Chunked) setGrid(l *message.DataLayout) {
	c.chunk = make([]uint64, len(l.ChunkDims))
	c.grid = make([]uint64, len(l.ChunkDims))
	for d, n := range l.ChunkDims {
		c.chunk[d] = uint64(n)
		c.grid[d] = (c.p.Dims[d] + c.chunk[d] - 1) / c.chunk[d]
	}
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

func (c *Chunked) numChunks() uint64 {
	n := uint64(1)
	for _, g := range c.grid {
		n *= g
	}
	return n
}

func (c *Chunked) chunkBytes() uint64 {
	n := uint64(c.p.ElemSize)
	for _, d := range c.chunk {
		n *= d
	}
	return n
}

// linear maps chunk grid coordinates to the row-major chunk number.
func (c *Chunked) linear(coords []uint64) uint64 {
	i := uint64(0)
	for d, x := range coords {
		i = i*c.grid[d] + x
	}
	return i
}

func (c *Chunked) coords(i uint64) []uint64 {
	out := make([]uint64, len(c.grid))
	for d := len(c.grid) - 1; d >= 0; d-- {
		out[d] = i % c.grid[d]
		i /= c.grid[d]
	}
	return out
}

func (c *Chunked) partial(coords []uint64) bool {
	for d, x := range coords {
		if (x+1)*c.chunk[d] > c.p.Dims[d] {
			return true
		}
	}
	return false
}

// applyFilters reports whether the chunk at coords goes through the
// pipeline.
func (c *Chunked) applyFilters(coords []uint64) bool {
	if c.pipeline.Empty() {
		return false
	}
	return c.p.Layout.ChunkFlags&message.ChunkDontFilterPartial == 0 || !c.partial(coords)
}

// touched lists the chunks a selection intersects.
func (c *Chunked) touched(sel *Hyperslab) []uint64 {
	rank := len(c.grid)
	per := make([][]uint64, rank)
	for d := range rank {
		seen := map[uint64]bool{}
		for _, iv := range sel.Intervals(d) {
			for x := iv[0] / c.chunk[d]; x <= (iv[1]-1)/c.chunk[d]; x++ {
				if !seen[x] {
					seen[x] = true
					per[d] = append(per[d], x)
				}
			}
		}
		if len(per[d]) == 0 {
			return nil
		}
	}

	var out []uint64
	idx := make([]int, rank)
	coords := make([]uint64, rank)
	for {
		for d, i := range idx {
			coords[d] = per[d][i]
		}
		out = append(out, c.linear(coords))
		d := rank - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < len(per[d]) {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return out
		}
	}
}

// copyChunk moves a chunk's elements between its own full-size buffer and
// the dataset buffer, clipping at the dataset edges.
func (c *Chunked) copyChunk(raw, buf []byte, coords []uint64, toRaw bool) {
	rank := len(c.grid)
	es := uint64(c.p.ElemSize)
	origin := make([]uint64, rank)
	extent := make([]uint64, rank)
	for d := range rank {
		origin[d] = coords[d] * c.chunk[d]
		extent[d] = min(c.chunk[d], c.p.Dims[d]-origin[d])
	}
	rowBytes := extent[rank-1] * es

	pos := make([]uint64, rank)
	for {
		var src, dst uint64
		for d := range rank {
			src = src*c.p.Dims[d] + origin[d] + pos[d]
			dst = dst*c.chunk[d] + pos[d]
		}
		src *= es
		dst *= es
		if toRaw {
			copy(raw[src:src+rowBytes], buf[dst:dst+rowBytes])
		} else {
			copy(buf[dst:dst+rowBytes], raw[src:src+rowBytes])
		}
		d := rank - 2
		for ; d >= 0; d-- {
			pos[d]++
			if pos[d] < extent[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

func (c *Chunked) readChunk(e btree.ChunkEntry, coords []uint64) ([]byte, error) {
	b, err := c.r.At(int64(e.Address)).ReadBytes(int(e.Size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk %v: %w", coords, err)
	}
	if c.applyFilters(coords) {
		if b, err = c.pipeline.Decode(b, e.FilterMask); err != nil {
			return nil, fmt.Errorf("chunk %v: %w", coords, err)
		}
	}
	if uint64(len(b)) < c.chunkBytes() {
		return nil, fmt.Errorf("chunk %v holds %d bytes, want %d", coords, len(b), c.chunkBytes())
	}
	return b[:c.chunkBytes()], nil
}

// load decodes the given chunks into a dataset-sized buffer. Missing
// chunks read as fill.
func (c *Chunked) load(index map[uint64]btree.ChunkEntry, chunks []uint64) ([]byte, error) {
	raw := make([]byte, c.p.size())
	var fill []byte
	for _, i := range chunks {
		coords := c.coords(i)
		e, ok := index[i]
		if !ok {
			if fill == nil {
				fill = c.p.fill(c.chunkBytes())
			}
			c.copyChunk(raw, fill, coords, true)
			continue
		}
		buf, err := c.readChunk(e, coords)
		if err != nil {
			return nil, err
		}
		c.copyChunk(raw, buf, coords, true)
	}
	return raw, nil
}

func (c *Chunked) Read(sel *Hyperslab) ([]byte, error) {
	index, err := c.index()
	if err != nil {
		return nil, err
	}
	raw, err := c.load(index, c.touched(sel))
	if err != nil {
		return nil, err
	}
	return Gather(raw, Runs(c.p.Dims, sel), c.p.ElemSize), nil
}

// Write re-encodes every chunk the selection touches into newly allocated
// space, then writes a fresh index. Untouched chunks keep their place.
func (c *Chunked) Write(w *binary.Writer, a *alloc.Allocator, sel *Hyperslab, data []byte) (*message.DataLayout, error) {
	if err := checkData(sel, c.p.ElemSize, data); err != nil {
		return nil, err
	}
	index, err := c.index()
	if err != nil {
		return nil, err
	}
	chunks := c.touched(sel)
	if len(chunks) == 0 {
		return nil, nil
	}
	raw, err := c.load(index, chunks)
	if err != nil {
		return nil, err
	}
	Scatter(raw, Runs(c.p.Dims, sel), c.p.ElemSize, data)

	for _, i := range chunks {
		coords := c.coords(i)
		buf := c.p.fill(c.chunkBytes())
		c.copyChunk(raw, buf, coords, false)
		var mask uint32
		if c.applyFilters(coords) {
			if buf, mask, err = c.pipeline.Encode(buf); err != nil {
				return nil, fmt.Errorf("chunk %v: %w", coords, err)
			}
		}
		addr := a.Alloc(uint64(len(buf)), "chunk")
		if err := w.At(int64(addr)).WriteBytes(buf); err != nil {
			return nil, fmt.Errorf("writing chunk %v: %w", coords, err)
		}
		if old, ok := index[i]; ok {
			a.Free(old.Address, uint64(old.Size), "chunk")
		}
		index[i] = btree.ChunkEntry{
			Offset:     c.origin(coords),
			FilterMask: mask,
			Size:       uint32(len(buf)),
			Address:    addr,
		}
	}

	next := *c.p.Layout
	next.ChunkDims = slices.Clone(c.p.Layout.ChunkDims)
	next.ElementSize = uint32(c.p.ElemSize)
	setIndex(&next, c.numChunks(), !c.pipeline.Empty())
	blocks, err := c.writeIndex(w, a, &next, index)
	if err != nil {
		return nil, err
	}
	for _, b := range c.blocks {
		a.Free(b.Addr, b.Size, b.Tag)
	}
	c.blocks = blocks
	c.p.Layout = &next
	return &next, nil
}

func (c *Chunked) origin(coords []uint64) []uint64 {
	out := make([]uint64, len(coords))
	for d, x := range coords {
		out[d] = x * c.chunk[d]
	}
	return out
}

func (c *Chunked) writeIndex(w *binary.Writer, a *alloc.Allocator, l *message.DataLayout, index map[uint64]btree.ChunkEntry) ([]alloc.Allocation, error) {
	if l.ChunkIndexType == message.ChunkIndexSingle {
		e := index[0]
		l.ChunkIndexAddr = e.Address
		if l.ChunkFlags&message.ChunkSingleIndexWithFilter != 0 {
			l.FilteredChunkSize = uint64(e.Size)
			l.FilterMask = e.FilterMask
		}
		return nil, nil
	}
	entries := make([]btree.ChunkEntry, c.numChunks())
	for i := range entries {
		e, ok := index[uint64(i)]
		if !ok {
			e.Address = w.UndefinedOffset()
		}
		entries[i] = e
	}
	addr, blocks, err := writeFixedArray(w, a, entries, !c.pipeline.Empty(), c.chunkBytes(), l.PageBits)
	if err != nil {
		return nil, err
	}
	l.ChunkIndexAddr = addr
	return blocks, nil
}

// index returns the stored chunks keyed by chunk number.
func (c *Chunked) index() (map[uint64]btree.ChunkEntry, error) {
	l := c.p.Layout
	out := map[uint64]btree.ChunkEntry{}
	if undefined(l.ChunkIndexAddr, c.r.OffsetSize()) || c.numChunks() == 0 {
		return out, nil
	}
	switch l.ChunkIndexType {
	case message.ChunkIndexSingle:
		size := c.chunkBytes()
		if l.ChunkFlags&message.ChunkSingleIndexWithFilter != 0 {
			size = l.FilteredChunkSize
		}
		out[0] = btree.ChunkEntry{
			Offset:     make([]uint64, len(c.grid)),
			FilterMask: l.FilterMask,
			Size:       uint32(size),
			Address:    l.ChunkIndexAddr,
		}
	case message.ChunkIndexImplicit:
		for i := range c.numChunks() {
			out[i] = btree.ChunkEntry{
				Offset:  c.origin(c.coords(i)),
				Size:    uint32(c.chunkBytes()),
				Address: l.ChunkIndexAddr + i*c.chunkBytes(),
			}
		}
	case message.ChunkIndexFixedArray:
		entries, blocks, err := readFixedArray(c.r, l.ChunkIndexAddr)
		if err != nil {
			return nil, err
		}
		c.blocks = blocks
		for i, e := range entries {
			if undefined(e.Address, c.r.OffsetSize()) || uint64(i) >= c.numChunks() {
				continue
			}
			if e.Size == 0 {
				e.Size = uint32(c.chunkBytes())
			}
			e.Offset = c.origin(c.coords(uint64(i)))
			out[uint64(i)] = e
		}
	case message.ChunkIndexBTreeV1:
		entries, err := btree.ReadChunkIndex(c.r, l.ChunkIndexAddr, len(c.grid))
		if err != nil {
			return nil, fmt.Errorf("chunk B-tree: %w", err)
		}
		for _, e := range entries {
			coords := make([]uint64, len(e.Offset))
			for d, off := range e.Offset {
				coords[d] = off / c.chunk[d]
				if coords[d] >= c.grid[d] {
					return nil, fmt.Errorf("chunk offset %v outside dataset", e.Offset)
				}
			}
			out[c.linear(coords)] = e
		}
	default:
		return nil, fmt.Errorf("%w: %s chunk index", ErrUnsupported, l.ChunkIndexType)
	}
	return out, nil
}
