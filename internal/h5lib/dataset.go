package h5lib

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/robert-malhotra/hdf5kit/internal/dtype"
	"github.com/robert-malhotra/hdf5kit/internal/filter"
	"github.com/robert-malhotra/hdf5kit/internal/layout"
	"github.com/robert-malhotra/hdf5kit/internal/message"
	"github.com/robert-malhotra/hdf5kit/internal/object"
)

// Storage describes how a dataset keeps its raw data. Chunk and Filters
// apply to chunked storage only.
type Storage struct {
	Layout  message.LayoutClass
	Chunk   []uint32
	Filters []message.FilterInfo
}

type dataset struct {
	h     *object.Header
	space *message.Dataspace
	dt    *message.Datatype
	store layout.Store
}

func (f *file) dataset(addr uint64) (*dataset, error) {
	h, err := f.header(addr)
	if err != nil {
		return nil, err
	}
	ds := &dataset{h: h, space: h.Dataspace(), dt: h.Datatype()}
	l := h.DataLayout()
	if ds.space == nil || ds.dt == nil || l == nil {
		return nil, fmt.Errorf("%w: object at %#x is not a dataset", ErrWrongKind, addr)
	}
	p := layout.Params{
		Layout:   l,
		ElemSize: int(ds.dt.Size),
		Filters:  h.FilterPipeline(),
	}
	if !ds.space.IsScalar() {
		p.Dims = ds.space.Dimensions
	}
	if fv := h.FillValue(); fv != nil && fv.Defined && len(fv.Value) == int(ds.dt.Size) {
		p.Fill = fv.Value
	}
	if ds.store, err = layout.Open(p, f.r); err != nil {
		return nil, unsupported(err)
	}
	return ds, nil
}

func (ds *dataset) dims() []uint64 {
	if ds.space.IsScalar() {
		return nil
	}
	return ds.space.Dimensions
}

// CreateDataset creates a dataset at path relative to loc.
func CreateDataset(loc ID, path string, space *Space, dt *message.Datatype, st Storage, intermediate bool) (ID, error) {
	if space == nil || dt == nil || dt.Size == 0 {
		return Invalid, fmt.Errorf("dataset %s needs a dataspace and a sized datatype", path)
	}
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return Invalid, err
	}
	f := h.file
	if err := f.writable(); err != nil {
		return Invalid, err
	}
	dir, name, err := split(path)
	if err != nil {
		return Invalid, err
	}
	addr, cur := h.addr, h.path
	if absolute(path) {
		addr, cur = f.root(), "/"
	}
	if addr, cur, err = f.mkdirs(addr, cur, dir, intermediate); err != nil {
		return Invalid, err
	}
	_, links, err := f.group(addr)
	if err != nil {
		return Invalid, err
	}
	abs := JoinPath(cur, name)
	if _, ok := find(links, name); ok {
		return Invalid, fmt.Errorf("%w: %s", ErrExists, abs)
	}

	msgs, err := f.datasetMessages(space, dt, st)
	if err != nil {
		return Invalid, fmt.Errorf("dataset %s: %w", abs, err)
	}
	hdr, err := object.Write(f.w, f.a, msgs, 0)
	if err != nil {
		return Invalid, fmt.Errorf("writing dataset %s: %w", abs, err)
	}
	if err := f.addLink(addr, message.NewHardLink(name, hdr.Address)); err != nil {
		return Invalid, err
	}
	Logger().Debug("created dataset",
		zap.String("path", abs),
		zap.Uint64s("dims", space.Dims),
		zap.Stringer("datatype", dt),
		zap.Stringer("layout", st.Layout))
	return register(KindDataset, f, hdr.Address, abs), nil
}

func (f *file) datasetMessages(space *Space, dt *message.Datatype, st Storage) ([]message.Message, error) {
	p := layout.Params{ElemSize: int(dt.Size)}
	if !space.Scalar {
		p.Dims = space.Dims
	}
	var fp *message.FilterPipeline
	if len(st.Filters) > 0 {
		if st.Layout != message.LayoutChunked {
			return nil, fmt.Errorf("filters need chunked storage")
		}
		fp = &message.FilterPipeline{Filters: slices.Clone(st.Filters)}
		if _, err := filter.NewPipeline(fp, p.ElemSize); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
		p.Filters = fp
	}

	var (
		l         *message.DataLayout
		allocTime = message.AllocEarly
		err       error
	)
	switch st.Layout {
	case message.LayoutCompact:
		if l, err = layout.NewCompactLayout(p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTooLarge, err)
		}
	case message.LayoutContiguous:
		l, err = layout.NewContiguousLayout(f.w, f.a, p)
	case message.LayoutChunked:
		allocTime = message.AllocIncremental
		l, err = layout.NewChunkedLayout(p, st.Chunk, f.w.Config().OffsetSize)
	default:
		return nil, fmt.Errorf("%w: %s layout", ErrUnsupported, st.Layout)
	}
	if err != nil {
		return nil, err
	}

	msgs := []message.Message{space.message(), dt, message.NewFillValue(allocTime)}
	if fp != nil {
		msgs = append(msgs, fp)
	}
	return append(msgs, l), nil
}

// OpenDataset opens the dataset at path relative to loc.
func OpenDataset(loc ID, path string) (ID, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return Invalid, err
	}
	addr, abs, err := h.file.resolve(h.addr, h.path, path)
	if err != nil {
		return Invalid, err
	}
	hdr, err := h.file.header(addr)
	if err != nil {
		return Invalid, err
	}
	if !hdr.IsDataset() {
		return Invalid, fmt.Errorf("%w: %s is not a dataset", ErrWrongKind, abs)
	}
	return register(KindDataset, h.file, addr, abs), nil
}

func openDataset(id ID) (*file, *dataset, error) {
	h, err := lookup(id, KindDataset)
	if err != nil {
		return nil, nil, err
	}
	ds, err := h.file.dataset(h.addr)
	if err != nil {
		return nil, nil, err
	}
	return h.file, ds, nil
}

// DatasetSpace returns the extent of a dataset.
func DatasetSpace(id ID) (*Space, error) {
	mu.Lock()
	defer mu.Unlock()
	_, ds, err := openDataset(id)
	if err != nil {
		return nil, err
	}
	return spaceOf(ds.space), nil
}

// DatasetType returns the element type of a dataset as stored.
func DatasetType(id ID) (*message.Datatype, error) {
	mu.Lock()
	defer mu.Unlock()
	_, ds, err := openDataset(id)
	if err != nil {
		return nil, err
	}
	return ds.dt, nil
}

// DatasetStorage returns how a dataset stores its data.
func DatasetStorage(id ID) (Storage, error) {
	mu.Lock()
	defer mu.Unlock()
	_, ds, err := openDataset(id)
	if err != nil {
		return Storage{}, err
	}
	l := ds.h.DataLayout()
	st := Storage{Layout: l.Class}
	if l.IsChunked() {
		st.Chunk = slices.Clone(l.ChunkDims)
	}
	if fp := ds.h.FilterPipeline(); fp != nil {
		st.Filters = slices.Clone(fp.Filters)
	}
	return st, nil
}

// transfer resolves the memory and file selections of a read or write
// and returns the runs of the memory buffer they cover.
func (ds *dataset) transfer(memType *message.Datatype, mem, fsp *Space, buf []byte) (*Hyperslab, []layout.Run, error) {
	if !dtype.Compatible(memType, ds.dt) {
		return nil, nil, fmt.Errorf("%w: memory %s, file %s", ErrTypeMismatch, memType, ds.dt)
	}
	dims := ds.dims()
	fileSel, err := layout.Normalize(nil, dims)
	if fsp != nil {
		if !fsp.Scalar && !slices.Equal(fsp.Dims, dims) {
			return nil, nil, fmt.Errorf("%w: file space %v does not match dataset extent %v", ErrSelection, fsp.Dims, dims)
		}
		fileSel, err = layout.Normalize(fsp.Sel, dims)
	}
	if err != nil {
		return nil, nil, err
	}

	memDims := fileSel.Shape()
	memSel := layout.All(memDims)
	if mem != nil {
		memDims = nil
		if !mem.Scalar {
			memDims = mem.Dims
		}
		if memSel, err = mem.selection(); err != nil {
			return nil, nil, err
		}
	}
	if memSel.Elements() != fileSel.Elements() {
		return nil, nil, fmt.Errorf("%w: %d elements in memory, %d in file", ErrSelection, memSel.Elements(), fileSel.Elements())
	}
	es := uint64(ds.dt.Size)
	n := uint64(1)
	for _, d := range memDims {
		n *= d
	}
	if uint64(len(buf)) != n*es {
		return nil, nil, fmt.Errorf("%w: buffer of %d bytes for %d elements of %d bytes", ErrSelection, len(buf), n, es)
	}
	return fileSel, layout.Runs(memDims, memSel), nil
}

// Read copies the selected elements of dataset id into buf. A nil mem
// means buf is packed in selection order; a nil file selects everything.
func Read(id ID, memType *message.Datatype, mem, fsp *Space, buf []byte) error {
	mu.Lock()
	defer mu.Unlock()
	_, ds, err := openDataset(id)
	if err != nil {
		return err
	}
	fileSel, runs, err := ds.transfer(memType, mem, fsp, buf)
	if err != nil {
		return err
	}
	packed, err := ds.store.Read(fileSel)
	if err != nil {
		return unsupported(err)
	}
	if dtype.NeedsSwap(ds.dt) {
		dtype.Swap(packed, int(ds.dt.Size))
	}
	layout.Scatter(buf, runs, int(ds.dt.Size), packed)
	return nil
}

// Write stores the selected elements of buf into dataset id.
func Write(id ID, memType *message.Datatype, mem, fsp *Space, buf []byte) error {
	mu.Lock()
	defer mu.Unlock()
	f, ds, err := openDataset(id)
	if err != nil {
		return err
	}
	if err := f.writable(); err != nil {
		return err
	}
	fileSel, runs, err := ds.transfer(memType, mem, fsp, buf)
	if err != nil {
		return err
	}
	packed := layout.Gather(buf, runs, int(ds.dt.Size))
	if dtype.NeedsSwap(ds.dt) {
		dtype.Swap(packed, int(ds.dt.Size))
	}
	next, err := ds.store.Write(f.w, f.a, fileSel, packed)
	if err != nil {
		if errors.Is(err, layout.ErrSelection) {
			return err
		}
		return unsupported(fmt.Errorf("writing dataset: %w", err))
	}
	if next == nil {
		return nil
	}
	ds.h.SetMessage(next)
	return f.rewrite(ds.h)
}
