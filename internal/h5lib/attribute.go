package h5lib

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/dtype"
	"github.com/robert-malhotra/hdf5kit/internal/heap"
	"github.com/robert-malhotra/hdf5kit/internal/message"
	"github.com/robert-malhotra/hdf5kit/internal/object"
)

// maxAttributeSize is the largest encoded attribute message.
const maxAttributeSize = 0xFFFF

// Attribute is a decoded attribute message.
type Attribute struct {
	Name     string
	Datatype *message.Datatype
	Space    *Space
	Data     []byte
}

// StringType selects how string attributes are stored.
type StringType struct {
	// Variable stores each string in the global heap. Otherwise all
	// strings share one fixed size padded with Pad.
	Variable bool
	Pad      message.StringPadding
}

func attributeOwner(id ID) (*handle, error) {
	return lookup(id, KindFile, KindGroup, KindDataset)
}

func findAttribute(h *object.Header, name string) *message.Attribute {
	for _, a := range h.Attributes() {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// WriteAttribute creates or replaces the attribute name on object id.
// data must already be encoded for dt.
func WriteAttribute(id ID, name string, dt *message.Datatype, space *Space, data []byte) error {
	if space == nil || dt == nil {
		return fmt.Errorf("attribute %s needs a dataspace and a datatype", name)
	}
	if want := space.Elements() * uint64(dt.Size); uint64(len(data)) != want {
		return fmt.Errorf("%w: attribute %s has %d bytes, want %d", ErrSelection, name, len(data), want)
	}
	mu.Lock()
	defer mu.Unlock()
	h, err := attributeOwner(id)
	if err != nil {
		return err
	}
	return h.file.writeAttribute(h.addr, message.NewAttribute(name, dt, space.message(), data))
}

func (f *file) writeAttribute(addr uint64, attr *message.Attribute) error {
	if err := f.writable(); err != nil {
		return err
	}
	if attr.Name == "" {
		return fmt.Errorf("attribute name is empty")
	}
	if n := attr.SerializedSize(f.w); n > maxAttributeSize {
		return fmt.Errorf("%w: attribute %s encodes to %d bytes", ErrTooLarge, attr.Name, n)
	}
	h, err := f.header(addr)
	if err != nil {
		return err
	}
	h.RemoveMessages(func(m message.Message) bool {
		a, ok := m.(*message.Attribute)
		return ok && a.Name == attr.Name
	})
	h.Messages = append(h.Messages, attr)
	return f.rewrite(h)
}

// WriteStringAttribute stores vals as a string attribute of the given
// extent.
func WriteStringAttribute(id ID, name string, space *Space, vals []string, st StringType) error {
	if space == nil {
		return fmt.Errorf("attribute %s needs a dataspace", name)
	}
	if uint64(len(vals)) != space.Elements() {
		return fmt.Errorf("%w: %d strings for %d elements", ErrSelection, len(vals), space.Elements())
	}
	mu.Lock()
	defer mu.Unlock()
	h, err := attributeOwner(id)
	if err != nil {
		return err
	}
	f := h.file
	if err := f.writable(); err != nil {
		return err
	}

	var (
		dt   *message.Datatype
		data []byte
	)
	if st.Variable {
		dt = message.NewVarLenString(message.CharsetUTF8, f.w.Config().OffsetSize)
		objects := make([][]byte, len(vals))
		for i, v := range vals {
			objects[i] = []byte(v)
		}
		ids, err := heap.WriteCollection(f.w, f.a, objects)
		if err != nil {
			return fmt.Errorf("writing strings of attribute %s: %w", name, err)
		}
		data, err = binary.Encode(f.w.Config(), func(w *binary.Writer) error {
			for i, ref := range ids {
				if err := w.WriteUint32(uint32(len(vals[i]))); err != nil {
					return err
				}
				if err := heap.WriteID(w, ref); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		size := 1
		for _, v := range vals {
			size = max(size, dtype.FixedStringSize(v, st.Pad))
		}
		dt = message.NewFixedString(size, st.Pad, message.CharsetUTF8)
		for _, v := range vals {
			data = append(data, dtype.EncodeFixedString(v, size, st.Pad)...)
		}
	}
	return f.writeAttribute(h.addr, message.NewAttribute(name, dt, space.message(), data))
}

func (f *file) attribute(addr uint64, name string) (*message.Attribute, error) {
	h, err := f.header(addr)
	if err != nil {
		return nil, err
	}
	a := findAttribute(h, name)
	if a == nil {
		return nil, fmt.Errorf("%w: attribute %s", ErrNotFound, name)
	}
	return a, nil
}

// ReadAttribute returns the attribute name of object id. When memType is
// not nil the stored type must be compatible with it and the data is
// returned in memory byte order.
func ReadAttribute(id ID, name string, memType *message.Datatype) (*Attribute, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := attributeOwner(id)
	if err != nil {
		return nil, err
	}
	a, err := h.file.attribute(h.addr, name)
	if err != nil {
		return nil, err
	}
	out := &Attribute{Name: a.Name, Datatype: a.Datatype, Space: spaceOf(a.Dataspace), Data: a.Data}
	if memType == nil {
		return out, nil
	}
	if !dtype.Compatible(memType, a.Datatype) {
		return nil, fmt.Errorf("%w: attribute %s is %s, not %s", ErrTypeMismatch, name, a.Datatype, memType)
	}
	if want := out.Space.Elements() * uint64(a.Datatype.Size); uint64(len(out.Data)) < want {
		return nil, fmt.Errorf("attribute %s holds %d bytes, want %d", name, len(out.Data), want)
	}
	out.Data = out.Data[:out.Space.Elements()*uint64(a.Datatype.Size)]
	if dtype.NeedsSwap(a.Datatype) {
		dtype.Swap(out.Data, int(a.Datatype.Size))
	}
	return out, nil
}

// ReadStringAttribute decodes a fixed or variable-length string
// attribute.
func ReadStringAttribute(id ID, name string) ([]string, *Space, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := attributeOwner(id)
	if err != nil {
		return nil, nil, err
	}
	f := h.file
	a, err := f.attribute(h.addr, name)
	if err != nil {
		return nil, nil, err
	}
	dt, space := a.Datatype, spaceOf(a.Dataspace)
	if !dt.IsString() {
		return nil, nil, fmt.Errorf("%w: attribute %s is %s, not a string", ErrTypeMismatch, name, dt)
	}
	n, size := int(space.Elements()), int(dt.Size)
	if len(a.Data) < n*size {
		return nil, nil, fmt.Errorf("attribute %s holds %d bytes, want %d", name, len(a.Data), n*size)
	}
	out := make([]string, n)
	if !dt.IsVarLenString() {
		for i := range out {
			out[i] = dtype.DecodeFixedString(a.Data[i*size:(i+1)*size], dt.StringPadding)
		}
		return out, space, nil
	}

	collections := map[uint64]*heap.Collection{}
	for i := range out {
		elem := a.Data[i*size : (i+1)*size]
		length := f.r.Uint(elem, 4)
		ref, err := heap.ParseID(f.r, elem[4:])
		if err != nil {
			return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		if length == 0 || ref.Collection == 0 {
			continue
		}
		c, ok := collections[ref.Collection]
		if !ok {
			if c, err = heap.ReadCollection(f.r, ref.Collection); err != nil {
				return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
			}
			collections[ref.Collection] = c
		}
		obj, err := c.Object(ref.Index)
		if err != nil {
			return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		out[i] = string(obj[:min(uint64(len(obj)), length)])
	}
	return out, space, nil
}

// AttributeExists reports whether object id has the attribute name.
func AttributeExists(id ID, name string) (bool, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := attributeOwner(id)
	if err != nil {
		return false, err
	}
	hdr, err := h.file.header(h.addr)
	if err != nil {
		return false, err
	}
	return findAttribute(hdr, name) != nil, nil
}

// DeleteAttribute removes the attribute name from object id.
func DeleteAttribute(id ID, name string) error {
	mu.Lock()
	defer mu.Unlock()
	h, err := attributeOwner(id)
	if err != nil {
		return err
	}
	f := h.file
	if err := f.writable(); err != nil {
		return err
	}
	hdr, err := f.header(h.addr)
	if err != nil {
		return err
	}
	n := hdr.RemoveMessages(func(m message.Message) bool {
		a, ok := m.(*message.Attribute)
		return ok && a.Name == name
	})
	if n == 0 {
		return fmt.Errorf("%w: attribute %s", ErrNotFound, name)
	}
	return f.rewrite(hdr)
}

// Attributes lists the attribute names of object id in header order.
func Attributes(id ID) ([]string, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := attributeOwner(id)
	if err != nil {
		return nil, err
	}
	hdr, err := h.file.header(h.addr)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, a := range hdr.Attributes() {
		names = append(names, a.Name)
	}
	return names, nil
}
