package layout

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	binpkg "github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/btree"
)

const (
	signatureFixedArray      = "FAHD"
	signatureFixedArrayBlock = "FADB"

	// client IDs
	fixedArrayChunks         = 0
	fixedArrayFilteredChunks = 1

	minPageBits = 10
)

// fixedArrayPageBits picks a page size that holds all n entries, so the
// data block written here is never paged.
func fixedArrayPageBits(n uint64) uint8 {
	if n <= 1 {
		return minPageBits
	}
	return uint8(max(minPageBits, bits.Len64(n-1)))
}

// chunkSizeWidth is the width of the stored size field of a filtered
// entry: one byte more than needed for the unfiltered chunk size.
func chunkSizeWidth(chunkBytes uint64) int {
	if chunkBytes == 0 {
		return 1
	}
	return min(8, 1+(bits.Len64(chunkBytes)-1+8)/8)
}

func fixedArrayHeaderSize(cfg binpkg.Config) uint64 {
	return uint64(4 + 4 + cfg.LengthSize + cfg.OffsetSize + 4)
}

func readChecksummed(r *binpkg.Reader, addr uint64, n int, sig string) ([]byte, error) {
	raw, err := r.At(int64(addr)).ReadBytes(n + 4)
	if err != nil {
		return nil, err
	}
	if string(raw[:4]) != sig {
		return nil, fmt.Errorf("invalid %s signature %q", sig, raw[:4])
	}
	if stored, sum := binary.LittleEndian.Uint32(raw[n:]), binpkg.Lookup3Checksum(raw[:n]); stored != sum {
		return nil, fmt.Errorf("%s checksum mismatch: stored %#08x, computed %#08x", sig, stored, sum)
	}
	return raw[:n], nil
}

// readFixedArray returns the entries of the fixed array index at addr in
// chunk order, together with the blocks it occupies.
func readFixedArray(r *binpkg.Reader, addr uint64) ([]btree.ChunkEntry, []alloc.Allocation, error) {
	o, l := r.OffsetSize(), r.LengthSize()
	hdr, err := readChecksummed(r, addr, 8+l+o, signatureFixedArray)
	if err != nil {
		return nil, nil, err
	}
	if hdr[4] != 0 {
		return nil, nil, fmt.Errorf("unsupported fixed array version %d", hdr[4])
	}
	client, entrySize, pageBits := hdr[5], int(hdr[6]), hdr[7]
	n := r.Uint(hdr[8:8+l], l)
	dblk := r.Uint(hdr[8+l:8+l+o], o)
	if client != fixedArrayChunks && client != fixedArrayFilteredChunks {
		return nil, nil, fmt.Errorf("fixed array client %d does not index chunks", client)
	}
	sizeWidth := 0
	if client == fixedArrayFilteredChunks {
		sizeWidth = entrySize - o - 4
		if sizeWidth < 1 || sizeWidth > 8 {
			return nil, nil, fmt.Errorf("invalid filtered entry size %d", entrySize)
		}
	} else if entrySize != o {
		return nil, nil, fmt.Errorf("invalid entry size %d", entrySize)
	}

	blocks := []alloc.Allocation{{Addr: addr, Size: uint64(len(hdr) + 4), Tag: "fixed array header"}}
	if undefined(dblk, o) {
		return nil, blocks, nil
	}

	prefix := 4 + 2 + o
	pageN := uint64(1) << pageBits
	var raw []byte
	var present func(i uint64) bool
	if n <= pageN {
		blk, err := readChecksummed(r, dblk, prefix+int(n)*entrySize, signatureFixedArrayBlock)
		if err != nil {
			return nil, nil, err
		}
		raw = blk[prefix:]
		present = func(uint64) bool { return true }
		blocks = append(blocks, alloc.Allocation{Addr: dblk, Size: uint64(len(blk) + 4), Tag: "fixed array data block"})
	} else {
		pages := (n + pageN - 1) / pageN
		bitmapLen := int((pages + 7) / 8)
		blk, err := readChecksummed(r, dblk, prefix+bitmapLen, signatureFixedArrayBlock)
		if err != nil {
			return nil, nil, err
		}
		bitmap := blk[prefix:]
		pos := dblk + uint64(len(blk)+4)
		for p := range pages {
			cnt := min(pageN, n-p*pageN)
			size := int(cnt) * entrySize
			if bitmap[p/8]&(0x80>>(p%8)) != 0 {
				page, err := r.At(int64(pos)).ReadBytes(size + 4)
				if err != nil {
					return nil, nil, fmt.Errorf("reading fixed array page %d: %w", p, err)
				}
				if stored, sum := binary.LittleEndian.Uint32(page[size:]), binpkg.Lookup3Checksum(page[:size]); stored != sum {
					return nil, nil, fmt.Errorf("fixed array page %d checksum mismatch", p)
				}
				raw = append(raw, page[:size]...)
			} else {
				raw = append(raw, make([]byte, size)...)
			}
			pos += uint64(size + 4)
		}
		present = func(i uint64) bool { return bitmap[i/pageN/8]&(0x80>>(i/pageN%8)) != 0 }
		blocks = append(blocks, alloc.Allocation{Addr: dblk, Size: pos - dblk, Tag: "fixed array data block"})
	}

	entries := make([]btree.ChunkEntry, n)
	for i := range entries {
		e := &entries[i]
		b := raw[i*entrySize:]
		if !present(uint64(i)) {
			e.Address = binpkg.Undefined(o)
			continue
		}
		e.Address = r.Uint(b, o)
		if sizeWidth > 0 {
			e.Size = uint32(r.Uint(b[o:], sizeWidth))
			e.FilterMask = binary.LittleEndian.Uint32(b[o+sizeWidth:])
		}
	}
	return entries, blocks, nil
}

// writeFixedArray writes a header and an unpaged data block for entries
// and returns the header address.
func writeFixedArray(w *binpkg.Writer, a *alloc.Allocator, entries []btree.ChunkEntry, filtered bool, chunkBytes uint64, pageBits uint8) (uint64, []alloc.Allocation, error) {
	cfg := w.Config()
	client, entrySize, sizeWidth := uint8(fixedArrayChunks), cfg.OffsetSize, 0
	if filtered {
		client = fixedArrayFilteredChunks
		sizeWidth = chunkSizeWidth(chunkBytes)
		entrySize += sizeWidth + 4
	}

	hdrSize := fixedArrayHeaderSize(cfg)
	blkSize := uint64(4+2+cfg.OffsetSize+len(entries)*entrySize) + 4
	hdrAddr := a.Alloc(hdrSize, "fixed array header")
	blkAddr := a.Alloc(blkSize, "fixed array data block")

	hdr, err := binpkg.Encode(cfg, func(w *binpkg.Writer) error {
		if err := w.WriteBytes([]byte(signatureFixedArray)); err != nil {
			return err
		}
		for _, b := range []uint8{0, client, uint8(entrySize), pageBits} {
			if err := w.WriteUint8(b); err != nil {
				return err
			}
		}
		if err := w.WriteLength(uint64(len(entries))); err != nil {
			return err
		}
		return w.WriteOffset(blkAddr)
	})
	if err != nil {
		return 0, nil, err
	}
	blk, err := binpkg.Encode(cfg, func(w *binpkg.Writer) error {
		if err := w.WriteBytes([]byte(signatureFixedArrayBlock)); err != nil {
			return err
		}
		if err := w.WriteUint8(0); err != nil {
			return err
		}
		if err := w.WriteUint8(client); err != nil {
			return err
		}
		if err := w.WriteOffset(hdrAddr); err != nil {
			return err
		}
		for _, e := range entries {
			if err := w.WriteOffset(e.Address); err != nil {
				return err
			}
			if !filtered {
				continue
			}
			if err := w.WriteUintN(uint64(e.Size), sizeWidth); err != nil {
				return err
			}
			if err := w.WriteUint32(e.FilterMask); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	for _, part := range []struct {
		addr uint64
		data []byte
	}{{hdrAddr, hdr}, {blkAddr, blk}} {
		buf := binary.LittleEndian.AppendUint32(part.data, binpkg.Lookup3Checksum(part.data))
		if err := w.At(int64(part.addr)).WriteBytes(buf); err != nil {
			return 0, nil, fmt.Errorf("writing fixed array: %w", err)
		}
	}
	return hdrAddr, []alloc.Allocation{
		{Addr: hdrAddr, Size: hdrSize, Tag: "fixed array header"},
		{Addr: blkAddr, Size: blkSize, Tag: "fixed array data block"},
	}, nil
}
