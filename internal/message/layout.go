package message

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// LayoutClass is the storage layout class of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// ChunkIndexType identifies the chunk index of a version 4 layout.
// Version 3 layouts always use a version 1 B-tree.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingle          ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

func (t ChunkIndexType) String() string {
	switch t {
	case ChunkIndexBTreeV1:
		return "btree-v1"
	case ChunkIndexSingle:
		return "single"
	case ChunkIndexImplicit:
		return "implicit"
	case ChunkIndexFixedArray:
		return "fixed-array"
	case ChunkIndexExtensibleArray:
		return "extensible-array"
	case ChunkIndexBTreeV2:
		return "btree-v2"
	}
	return fmt.Sprintf("index(%d)", uint8(t))
}

// Chunk layout flags.
const (
	ChunkDontFilterPartial     uint8 = 0x01
	ChunkSingleIndexWithFilter uint8 = 0x02
)

// DataLayout is the data layout message (0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	CompactData []byte

	// Contiguous storage. Size is zero for version 1 and 2 messages,
	// which do not record it.
	Address uint64
	Size    uint64

	// Chunked storage. ChunkDims has one entry per dataset dimension.
	ChunkDims          []uint32
	ElementSize        uint32
	ChunkFlags         uint8
	DimensionSizeBytes uint8
	ChunkIndexType     ChunkIndexType
	ChunkIndexAddr     uint64

	// Single chunk index with filters.
	FilteredChunkSize uint64
	FilterMask        uint32

	// Fixed array index.
	PageBits uint8

	// Index parameters this package does not interpret.
	IndexParams []byte
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func (m *DataLayout) IsContiguous() bool { return m.Class == LayoutContiguous }
func (m *DataLayout) IsChunked() bool    { return m.Class == LayoutChunked }

// ChunkBytes returns the unfiltered size of one chunk.
func (m *DataLayout) ChunkBytes() uint64 {
	n := uint64(m.ElementSize)
	for _, d := range m.ChunkDims {
		n *= uint64(d)
	}
	return n
}

// NewCompactLayout stores data inside the object header.
func NewCompactLayout(data []byte) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutCompact, CompactData: data}
}

// NewContiguousLayout stores size bytes at address.
func NewContiguousLayout(address, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: address, Size: size}
}

// NewChunkedLayout describes chunked storage indexed by a version 4 index.
func NewChunkedLayout(chunkDims []uint32, elemSize uint32, index ChunkIndexType, indexAddr uint64) *DataLayout {
	return &DataLayout{
		Version:        4,
		Class:          LayoutChunked,
		ChunkDims:      append([]uint32(nil), chunkDims...),
		ElementSize:    elemSize,
		ChunkIndexType: index,
		ChunkIndexAddr: indexAddr,
	}
}

func parseDataLayout(data []byte, r *binary.Reader) (*DataLayout, error) {
	c := newCursor(data, r)
	m := &DataLayout{Version: c.u8()}
	switch m.Version {
	case 1, 2:
		return parseLayoutV1(c, m)
	case 3, 4:
	default:
		return nil, fmt.Errorf("unsupported data layout version %d", m.Version)
	}

	m.Class = LayoutClass(c.u8())
	switch m.Class {
	case LayoutCompact:
		n := int(c.u16())
		m.CompactData = append([]byte(nil), c.take(n)...)
	case LayoutContiguous:
		m.Address = c.offset()
		m.Size = c.length()
	case LayoutChunked:
		if m.Version == 3 {
			ndims := int(c.u8())
			m.ChunkIndexType = ChunkIndexBTreeV1
			m.ChunkIndexAddr = c.offset()
			dims := make([]uint32, ndims)
			for i := range dims {
				dims[i] = c.u32()
			}
			m.setChunkDims(dims)
			break
		}
		if err := parseChunkedV4(c, m); err != nil {
			return nil, err
		}
	case LayoutVirtual:
		m.Address = c.offset()
		m.IndexParams = c.take(4)
	default:
		return nil, fmt.Errorf("unknown layout class %d", m.Class)
	}
	return m, c.err
}

func parseLayoutV1(c *cursor, m *DataLayout) (*DataLayout, error) {
	ndims := int(c.u8())
	m.Class = LayoutClass(c.u8())
	c.skip(5)
	if m.Class != LayoutCompact {
		m.Address = c.offset()
	}
	dims := make([]uint32, ndims)
	for i := range dims {
		dims[i] = c.u32()
	}
	switch m.Class {
	case LayoutChunked:
		m.ChunkIndexType = ChunkIndexBTreeV1
		m.ChunkIndexAddr = m.Address
		m.Address = 0
		if c.remaining() >= 4 {
			c.skip(4)
		}
		m.setChunkDims(dims)
	case LayoutCompact:
		n := int(c.u32())
		m.CompactData = append([]byte(nil), c.take(n)...)
	}
	return m, c.err
}

func parseChunkedV4(c *cursor, m *DataLayout) error {
	m.ChunkFlags = c.u8()
	ndims := int(c.u8())
	m.DimensionSizeBytes = c.u8()
	if c.err == nil && (m.DimensionSizeBytes == 0 || m.DimensionSizeBytes > 8) {
		return fmt.Errorf("invalid dimension size encoding %d", m.DimensionSizeBytes)
	}
	dims := make([]uint32, ndims)
	for i := range dims {
		dims[i] = uint32(c.uint(int(m.DimensionSizeBytes)))
	}
	m.setChunkDims(dims)
	m.ChunkIndexType = ChunkIndexType(c.u8())
	switch m.ChunkIndexType {
	case ChunkIndexSingle:
		if m.ChunkFlags&ChunkSingleIndexWithFilter != 0 {
			m.FilteredChunkSize = c.length()
			m.FilterMask = c.u32()
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		m.PageBits = c.u8()
	case ChunkIndexExtensibleArray:
		m.IndexParams = c.take(5)
	case ChunkIndexBTreeV2:
		m.IndexParams = c.take(6)
	default:
		return fmt.Errorf("unknown chunk index type %d", m.ChunkIndexType)
	}
	m.ChunkIndexAddr = c.offset()
	return c.err
}

// setChunkDims splits the stored dimensions, whose last entry is the
// element size.
func (m *DataLayout) setChunkDims(dims []uint32) {
	if len(dims) == 0 {
		return
	}
	m.ChunkDims = dims[:len(dims)-1]
	m.ElementSize = dims[len(dims)-1]
}

func (m *DataLayout) dimEncoding() int {
	if m.DimensionSizeBytes != 0 {
		return int(m.DimensionSizeBytes)
	}
	max := uint64(m.ElementSize)
	for _, d := range m.ChunkDims {
		if uint64(d) > max {
			max = uint64(d)
		}
	}
	n := 1
	for max >= 1<<(8*n) && n < 8 {
		n++
	}
	return n
}

func (m *DataLayout) indexParamSize(w *binary.Writer) int {
	switch m.ChunkIndexType {
	case ChunkIndexSingle:
		if m.ChunkFlags&ChunkSingleIndexWithFilter != 0 {
			return w.LengthSize() + 4
		}
		return 0
	case ChunkIndexFixedArray:
		return 1
	case ChunkIndexImplicit:
		return 0
	}
	return len(m.IndexParams)
}

func (m *DataLayout) version() uint8 {
	if m.Class == LayoutChunked {
		if m.Version == 3 {
			return 3
		}
		return 4
	}
	if m.Version < 3 {
		return 3
	}
	return m.Version
}

// Serialize writes a version 3 message, or version 4 for chunked
// storage that is not indexed by a version 1 B-tree.
func (m *DataLayout) Serialize(w *binary.Writer) error {
	v := m.version()
	if err := w.WriteUint8(v); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.Class)); err != nil {
		return err
	}
	switch m.Class {
	case LayoutCompact:
		if len(m.CompactData) > 0xFFFF {
			return fmt.Errorf("compact data of %d bytes exceeds 65535", len(m.CompactData))
		}
		if err := w.WriteUint16(uint16(len(m.CompactData))); err != nil {
			return err
		}
		return w.WriteBytes(m.CompactData)
	case LayoutContiguous:
		if err := w.WriteOffset(m.Address); err != nil {
			return err
		}
		return w.WriteLength(m.Size)
	case LayoutVirtual:
		if err := w.WriteOffset(m.Address); err != nil {
			return err
		}
		return w.WriteBytes(m.IndexParams)
	}

	dims := append(append([]uint32(nil), m.ChunkDims...), m.ElementSize)
	if v == 3 {
		if err := w.WriteUint8(uint8(len(dims))); err != nil {
			return err
		}
		if err := w.WriteOffset(m.ChunkIndexAddr); err != nil {
			return err
		}
		for _, d := range dims {
			if err := w.WriteUint32(d); err != nil {
				return err
			}
		}
		return nil
	}

	enc := m.dimEncoding()
	for _, b := range []uint8{m.ChunkFlags, uint8(len(dims)), uint8(enc)} {
		if err := w.WriteUint8(b); err != nil {
			return err
		}
	}
	for _, d := range dims {
		if err := w.WriteUintN(uint64(d), enc); err != nil {
			return err
		}
	}
	if err := w.WriteUint8(uint8(m.ChunkIndexType)); err != nil {
		return err
	}
	switch m.ChunkIndexType {
	case ChunkIndexSingle:
		if m.ChunkFlags&ChunkSingleIndexWithFilter != 0 {
			if err := w.WriteLength(m.FilteredChunkSize); err != nil {
				return err
			}
			if err := w.WriteUint32(m.FilterMask); err != nil {
				return err
			}
		}
	case ChunkIndexFixedArray:
		if err := w.WriteUint8(m.PageBits); err != nil {
			return err
		}
	case ChunkIndexImplicit:
	default:
		if err := w.WriteBytes(m.IndexParams); err != nil {
			return err
		}
	}
	return w.WriteOffset(m.ChunkIndexAddr)
}

func (m *DataLayout) SerializedSize(w *binary.Writer) int {
	switch m.Class {
	case LayoutCompact:
		return 4 + len(m.CompactData)
	case LayoutContiguous:
		return 2 + w.OffsetSize() + w.LengthSize()
	case LayoutVirtual:
		return 2 + w.OffsetSize() + len(m.IndexParams)
	}
	ndims := len(m.ChunkDims) + 1
	if m.version() == 3 {
		return 3 + w.OffsetSize() + 4*ndims
	}
	return 5 + ndims*m.dimEncoding() + 1 + m.indexParamSize(w) + w.OffsetSize()
}
