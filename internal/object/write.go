package object

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/alloc"
	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// MinGroupChunkSize is the first-chunk size given to new group headers
// so that a handful of links fit without a continuation chunk.
const MinGroupChunkSize = 120

const maxMessageSize = 0xFFFF

// Write allocates and writes a new version 2 header holding msgs. The
// first chunk gets at least minChunk bytes of message space.
func Write(w *binary.Writer, a *alloc.Allocator, msgs []message.Message, minChunk int) (*Header, error) {
	size := 0
	for _, m := range msgs {
		s, ok := m.(message.Serializable)
		if !ok {
			return nil, fmt.Errorf("message 0x%04x cannot be written", uint16(m.Type()))
		}
		size += entrySize(w, s, false)
	}
	size = max(size, minChunk, continuationEntrySize(w, false))

	var width uint8
	for width < 3 && size >= 1<<(8<<width) {
		width++
	}
	h := &Header{
		Version:    2,
		Flags:      width,
		RefCount:   1,
		Messages:   msgs,
		Chunk0Size: uint64(size),
	}
	h.Address = a.Alloc(uint64(v2PrefixSize(h.Flags)+size+4), "object header")
	if err := Rewrite(w, a, h); err != nil {
		return nil, err
	}
	return h, nil
}

func entrySize(w *binary.Writer, m message.Serializable, track bool) int {
	n := 4 + m.SerializedSize(w)
	if track {
		n += 2
	}
	return n
}

func continuationEntrySize(w *binary.Writer, track bool) int {
	return entrySize(w, &message.Continuation{}, track)
}

// Rewrite stores h.Messages back into the header at h.Address. Messages
// that do not fit in the first chunk move to a new continuation chunk,
// and the chunks the header used before are freed.
func Rewrite(w *binary.Writer, a *alloc.Allocator, h *Header) error {
	if h.Version != 2 {
		return fmt.Errorf("%w: cannot rewrite a version %d header", ErrUnsupportedVersion, h.Version)
	}
	track := h.Flags&flagTrackAttrOrder != 0
	capacity := int(h.Chunk0Size)

	msgs := make([]message.Serializable, len(h.Messages))
	sizes := make([]int, len(h.Messages))
	total := 0
	for i, m := range h.Messages {
		s, ok := m.(message.Serializable)
		if !ok {
			return fmt.Errorf("message 0x%04x cannot be written", uint16(m.Type()))
		}
		if body := s.SerializedSize(w); body > maxMessageSize {
			return fmt.Errorf("message 0x%04x of %d bytes exceeds %d", uint16(m.Type()), body, maxMessageSize)
		}
		msgs[i] = s
		sizes[i] = entrySize(w, s, track)
		total += sizes[i]
	}

	split := len(msgs)
	if total > capacity {
		room := capacity - continuationEntrySize(w, track)
		if room < 0 {
			return fmt.Errorf("%w: first chunk of %d bytes cannot hold a continuation", ErrInvalidHeader, capacity)
		}
		used := 0
		for split = 0; split < len(msgs) && used+sizes[split] <= room; split++ {
			used += sizes[split]
		}
	}
	first := msgs[:split:split]

	old := h.Continuations
	h.Continuations = nil
	if rest := msgs[split:]; len(rest) > 0 {
		length := uint64(8)
		for _, s := range sizes[split:] {
			length += uint64(s)
		}
		addr := a.Alloc(length, "object header continuation")
		chunk, err := encodeChunk(w.Config(), signatureContinuation, rest, track, split, 0)
		if err != nil {
			return err
		}
		if err := w.At(int64(addr)).WriteBytes(chunk); err != nil {
			return fmt.Errorf("writing continuation chunk: %w", err)
		}
		h.Continuations = []Chunk{{Address: addr, Length: length}}
		first = append(first, &message.Continuation{Offset: addr, Length: length})
	}

	prefix, err := encodePrefix(w.Config(), h)
	if err != nil {
		return err
	}
	used := 0
	for _, s := range first {
		used += entrySize(w, s, track)
	}
	chunk, err := encodeChunk(w.Config(), prefix, first, track, 0, capacity-used)
	if err != nil {
		return err
	}
	if err := w.At(int64(h.Address)).WriteBytes(chunk); err != nil {
		return fmt.Errorf("writing object header: %w", err)
	}

	for _, c := range old {
		a.Free(c.Address, c.Length, "object header continuation")
	}
	return nil
}

func encodePrefix(cfg binary.Config, h *Header) ([]byte, error) {
	return binary.Encode(cfg, func(w *binary.Writer) error {
		if err := w.WriteBytes(signatureHeader); err != nil {
			return err
		}
		if err := w.WriteUint8(2); err != nil {
			return err
		}
		if err := w.WriteUint8(h.Flags); err != nil {
			return err
		}
		if h.Flags&flagStoreTimes != 0 {
			for _, t := range []uint32{h.AccessTime, h.ModTime, h.ChangeTime, h.BirthTime} {
				if err := w.WriteUint32(t); err != nil {
					return err
				}
			}
		}
		if h.Flags&flagAttrPhaseChange != 0 {
			if err := w.WriteUint16(h.MaxCompactAttrs); err != nil {
				return err
			}
			if err := w.WriteUint16(h.MinDenseAttrs); err != nil {
				return err
			}
		}
		return w.WriteUintN(h.Chunk0Size, 1<<(h.Flags&flagChunkSizeMask))
	})
}

// encodeChunk lays out lead, the messages, gap bytes of padding and the
// checksum of everything before it.
func encodeChunk(cfg binary.Config, lead []byte, msgs []message.Serializable, track bool, order, gap int) ([]byte, error) {
	body, err := binary.Encode(cfg, func(w *binary.Writer) error {
		if err := w.WriteBytes(lead); err != nil {
			return err
		}
		for i, m := range msgs {
			if err := writeEntry(w, m.Type(), message.Flags(m), m.SerializedSize(w), track, order+i); err != nil {
				return err
			}
			if err := m.Serialize(w); err != nil {
				return fmt.Errorf("message 0x%04x: %w", uint16(m.Type()), err)
			}
		}
		return writeGap(w, gap, track)
	})
	if err != nil {
		return nil, err
	}
	sum := binary.Lookup3Checksum(body)
	return append(body, byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24)), nil
}

func writeEntry(w *binary.Writer, typ message.Type, flags uint8, size int, track bool, order int) error {
	if err := w.WriteUint8(uint8(typ)); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(size)); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if track {
		return w.WriteUint16(uint16(order))
	}
	return nil
}

// writeGap fills unused space with NIL messages. A remainder too small
// for a message header stays as zero bytes.
func writeGap(w *binary.Writer, gap int, track bool) error {
	hdr := 4
	if track {
		hdr = 6
	}
	for gap >= hdr {
		body := min(gap-hdr, maxMessageSize)
		if err := writeEntry(w, message.TypeNIL, 0, body, track, 0); err != nil {
			return err
		}
		if err := w.WriteZeros(body); err != nil {
			return err
		}
		gap -= hdr + body
	}
	return w.WriteZeros(gap)
}
