package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
)

// ID refers to one object in a global heap collection.
type ID struct {
	Collection uint64
	Index      uint32
}

// IDSize is the encoded size of an ID.
func IDSize(offsetSize int) int {
	return offsetSize + 4
}

// ParseID decodes an ID from the start of data.
func ParseID(r *binary.Reader, data []byte) (ID, error) {
	o := r.OffsetSize()
	if len(data) < IDSize(o) {
		return ID{}, fmt.Errorf("global heap ID too short: need %d bytes, have %d", IDSize(o), len(data))
	}
	return ID{
		Collection: r.Uint(data, o),
		Index:      uint32(r.Uint(data[o:], 4)),
	}, nil
}

// WriteID encodes id.
func WriteID(w *binary.Writer, id ID) error {
	if err := w.WriteOffset(id.Collection); err != nil {
		return err
	}
	return w.WriteUint32(id.Index)
}

// Collection is a parsed global heap collection.
type Collection struct {
	Address uint64
	Size    uint64
	objects map[uint32][]byte
}

// ReadCollection reads the global heap collection at address.
func ReadCollection(r *binary.Reader, address uint64) (*Collection, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address 0x%x", address)
	}
	hr := r.At(int64(address))

	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading global heap signature: %w", err)
	}
	if string(sig) != "GCOL" {
		return nil, fmt.Errorf("invalid global heap signature: %q", sig)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported global heap version: %d", version)
	}
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	c := &Collection{Address: address, Size: size, objects: make(map[uint32][]byte)}
	end := int64(address + size)
	objHeader := int64(8 + r.LengthSize())
	for hr.Pos()+objHeader <= end {
		index, err := hr.ReadUint16()
		if err != nil {
			return nil, err
		}
		if index == 0 {
			// Free space runs to the end of the collection.
			break
		}
		hr.Skip(2 + 4) // reference count, reserved
		n, err := hr.ReadLength()
		if err != nil {
			return nil, err
		}
		data, err := hr.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("reading global heap object %d: %w", index, err)
		}
		c.objects[uint32(index)] = data
		hr.Skip(int64(align8(int(n)) - int(n)))
	}
	return c, nil
}

// Object returns a copy of the object with the given index.
func (c *Collection) Object(index uint32) ([]byte, error) {
	data, ok := c.objects[index]
	if !ok {
		return nil, fmt.Errorf("object index %d not found in global heap at 0x%x", index, c.Address)
	}
	return bytes.Clone(data), nil
}

// String returns the object with the given index up to its first NUL.
func (c *Collection) String(index uint32) (string, error) {
	data, err := c.Object(index)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

// Len returns the number of objects in the collection.
func (c *Collection) Len() int {
	return len(c.objects)
}
