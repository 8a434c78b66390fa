package object

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// maxContinuations bounds how many chunks one header may chain through.
const maxContinuations = 1024

// Read parses the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	peek, err := r.At(int64(address)).Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	if bytes.Equal(peek, signatureHeader) {
		return readV2(r, address)
	}
	if peek[0] == 1 {
		return readV1(r, address)
	}
	return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
}

// v2PrefixSize is the size of a version 2 header prefix, excluding the
// message area and checksum.
func v2PrefixSize(flags uint8) int {
	n := 6 + 1<<(flags&flagChunkSizeMask)
	if flags&flagStoreTimes != 0 {
		n += 16
	}
	if flags&flagAttrPhaseChange != 0 {
		n += 4
	}
	return n
}

func readV2(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	fixed, err := hr.ReadBytes(6)
	if err != nil {
		return nil, err
	}
	if fixed[4] != 2 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, fixed[4])
	}
	h := &Header{Version: 2, Address: address, Flags: fixed[5], RefCount: 1}
	if h.Flags&flagStoreTimes != 0 {
		for _, p := range []*uint32{&h.AccessTime, &h.ModTime, &h.ChangeTime, &h.BirthTime} {
			if *p, err = hr.ReadUint32(); err != nil {
				return nil, err
			}
		}
	}
	if h.Flags&flagAttrPhaseChange != 0 {
		if h.MaxCompactAttrs, err = hr.ReadUint16(); err != nil {
			return nil, err
		}
		if h.MinDenseAttrs, err = hr.ReadUint16(); err != nil {
			return nil, err
		}
	}
	if h.Chunk0Size, err = hr.ReadUintN(1 << (h.Flags & flagChunkSizeMask)); err != nil {
		return nil, err
	}

	prefix := v2PrefixSize(h.Flags)
	raw, err := r.At(int64(address)).ReadBytes(prefix + int(h.Chunk0Size) + 4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	if err := verifyChecksum(raw); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}

	p := &parser{r: r, h: h, seen: map[uint64]bool{}}
	if err := p.parseV2(raw[prefix : len(raw)-4]); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	return h, nil
}

func verifyChecksum(raw []byte) error {
	body := raw[:len(raw)-4]
	stored := uint32(raw[len(raw)-4]) | uint32(raw[len(raw)-3])<<8 |
		uint32(raw[len(raw)-2])<<16 | uint32(raw[len(raw)-1])<<24
	if got := binary.Lookup3Checksum(body); got != stored {
		return fmt.Errorf("%w: stored %#08x, computed %#08x", ErrChecksumMismatch, stored, got)
	}
	return nil
}

func readV1(r *binary.Reader, address uint64) (*Header, error) {
	prefix, err := r.At(int64(address)).ReadBytes(16)
	if err != nil {
		return nil, err
	}
	h := &Header{
		Version:  1,
		Address:  address,
		RefCount: uint32(r.Uint(prefix[4:], 4)),
	}
	size := r.Uint(prefix[8:], 4)
	data, err := r.At(int64(address) + 16).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	h.Chunk0Size = size

	p := &parser{r: r, h: h, seen: map[uint64]bool{}}
	if err := p.parseV1(data); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	return h, nil
}

type parser struct {
	r    *binary.Reader
	h    *Header
	seen map[uint64]bool
}

func (p *parser) parseV2(data []byte) error {
	hdrSize := 4
	if p.h.Flags&flagTrackAttrOrder != 0 {
		hdrSize = 6
	}
	pos := 0
	for len(data)-pos >= hdrSize {
		typ := message.Type(data[pos])
		size := int(p.r.Uint(data[pos+1:], 2))
		flags := data[pos+3]
		pos += hdrSize
		if pos+size > len(data) {
			return fmt.Errorf("%w: message 0x%04x overruns its chunk", ErrInvalidHeader, uint16(typ))
		}
		if err := p.add(typ, flags, data[pos:pos+size]); err != nil {
			return err
		}
		pos += size
	}
	return nil
}

func (p *parser) parseV1(data []byte) error {
	pos := 0
	for len(data)-pos >= 8 {
		typ := message.Type(p.r.Uint(data[pos:], 2))
		size := int(p.r.Uint(data[pos+2:], 2))
		flags := data[pos+4]
		pos += 8
		if pos+size > len(data) {
			return fmt.Errorf("%w: message 0x%04x overruns its chunk", ErrInvalidHeader, uint16(typ))
		}
		if err := p.add(typ, flags, data[pos:pos+size]); err != nil {
			return err
		}
		pos += (size + 7) &^ 7
	}
	return nil
}

func (p *parser) add(typ message.Type, flags uint8, body []byte) error {
	switch typ {
	case message.TypeNIL:
		return nil
	case message.TypeObjectHeaderContinuation:
		msg, err := message.Parse(typ, body, 0, p.r)
		if err != nil {
			return err
		}
		return p.follow(msg.(*message.Continuation))
	}
	msg, err := message.Parse(typ, body, flags, p.r)
	if err != nil {
		msg = message.NewUnknown(typ, flags, body)
	}
	p.h.Messages = append(p.h.Messages, msg)
	return nil
}

func (p *parser) follow(c *message.Continuation) error {
	if p.seen[c.Offset] || len(p.seen) >= maxContinuations {
		return fmt.Errorf("%w: continuation loop at %d", ErrInvalidHeader, c.Offset)
	}
	p.seen[c.Offset] = true
	p.h.Continuations = append(p.h.Continuations, Chunk{Address: c.Offset, Length: c.Length})

	raw, err := p.r.At(int64(c.Offset)).ReadBytes(int(c.Length))
	if err != nil {
		return fmt.Errorf("reading continuation chunk at %d: %w", c.Offset, err)
	}
	if p.h.Version == 1 {
		return p.parseV1(raw)
	}
	if len(raw) < 8 || !bytes.Equal(raw[:4], signatureContinuation) {
		return fmt.Errorf("%w: bad continuation signature at %d", ErrInvalidHeader, c.Offset)
	}
	if err := verifyChecksum(raw); err != nil {
		return fmt.Errorf("continuation chunk at %d: %w", c.Offset, err)
	}
	return p.parseV2(raw[4 : len(raw)-4])
}
