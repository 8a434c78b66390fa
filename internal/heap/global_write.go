package heap

import (
	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// MinCollectionSize is the smallest collection the HDF5 library creates.
const MinCollectionSize = 4096

// WriteCollection stores objects in a new global heap collection and returns
// their IDs in order. Objects are numbered from 1; the unused tail of the
// collection is described by a free-space object with index 0.
func WriteCollection(w *binary.Writer, a *alloc.Allocator, objects [][]byte) ([]ID, error) {
	if len(objects) == 0 {
		return nil, nil
	}
	headerSize := 8 + w.LengthSize()
	objHeader := 8 + w.LengthSize()

	used := headerSize
	for _, obj := range objects {
		used += objHeader + align8(len(obj))
	}
	size := max(MinCollectionSize, align8(used+objHeader))
	addr := a.Alloc(uint64(size), "global heap")

	body, err := binary.Encode(w.Config(), func(bw *binary.Writer) error {
		if err := bw.WriteBytes([]byte("GCOL")); err != nil {
			return err
		}
		if err := bw.WriteUint8(1); err != nil {
			return err
		}
		if err := bw.WriteZeros(3); err != nil {
			return err
		}
		if err := bw.WriteLength(uint64(size)); err != nil {
			return err
		}
		for i, obj := range objects {
			if err := writeObject(bw, uint16(i+1), 1, obj); err != nil {
				return err
			}
		}
		free := size - used
		if err := bw.WriteUint16(0); err != nil {
			return err
		}
		if err := bw.WriteZeros(6); err != nil {
			return err
		}
		if err := bw.WriteLength(uint64(free)); err != nil {
			return err
		}
		return bw.WriteZeros(free - objHeader)
	})
	if err != nil {
		return nil, err
	}
	if err := w.At(int64(addr)).WriteBytes(body); err != nil {
		return nil, err
	}

	ids := make([]ID, len(objects))
	for i := range objects {
		ids[i] = ID{Collection: addr, Index: uint32(i + 1)}
	}
	return ids, nil
}

func writeObject(w *binary.Writer, index, refs uint16, data []byte) error {
	if err := w.WriteUint16(index); err != nil {
		return err
	}
	if err := w.WriteUint16(refs); err != nil {
		return err
	}
	if err := w.WriteZeros(4); err != nil {
		return err
	}
	if err := w.WriteLength(uint64(len(data))); err != nil {
		return err
	}
	if err := w.WriteBytes(data); err != nil {
		return err
	}
	return w.WriteZeros(align8(len(data)) - len(data))
}

func align8(n int) int {
	return (n + 7) &^ 7
}
