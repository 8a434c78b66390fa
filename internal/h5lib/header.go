package h5lib

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/robert-malhotra/hdf5kit/internal/object"
)

// header reads the object header at addr. Headers are never cached so
// every ID sees changes made through any other.
func (f *file) header(addr uint64) (*object.Header, error) {
	h, err := object.Read(f.r, addr)
	if err != nil {
		return nil, unsupported(fmt.Errorf("object header at %#x: %w", addr, err))
	}
	return h, nil
}

// rewrite stores h back at its address. Messages that no longer fit in
// the first chunk spill into a continuation chunk.
func (f *file) rewrite(h *object.Header) error {
	if err := f.writable(); err != nil {
		return err
	}
	if err := object.Rewrite(f.w, f.a, h); err != nil {
		return unsupported(fmt.Errorf("rewriting object header at %#x: %w", h.Address, err))
	}
	if len(h.Continuations) > 0 {
		c := h.Continuations[0]
		Logger().Debug("object header continued",
			zap.String("path", f.path),
			zap.Uint64("header", h.Address),
			zap.Uint64("chunk", c.Address),
			zap.Uint64("length", c.Length))
	}
	return nil
}

func kindOf(h *object.Header) Kind {
	switch {
	case h.IsGroup():
		return KindGroup
	case h.IsDataset():
		return KindDataset
	}
	return KindOther
}
