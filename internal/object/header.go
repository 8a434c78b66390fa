package object

import (
	"errors"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

var (
	signatureHeader       = []byte("OHDR")
	signatureContinuation = []byte("OCHK")
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Version 2 header flags.
const (
	flagChunkSizeMask   = 0x03
	flagTrackAttrOrder  = 0x04
	flagIndexAttrOrder  = 0x08
	flagAttrPhaseChange = 0x10
	flagStoreTimes      = 0x20
)

// Chunk is a continuation chunk of a header.
type Chunk struct {
	Address uint64
	Length  uint64
}

// Header is a parsed object header. Continuation messages are consumed
// while reading and do not appear in Messages.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32

	Messages []message.Message

	AccessTime uint32
	ModTime    uint32
	ChangeTime uint32
	BirthTime  uint32

	MaxCompactAttrs uint16
	MinDenseAttrs   uint16

	// Chunk0Size is the size of the message area of the first chunk.
	Chunk0Size uint64

	// Continuations lists the chunks the header currently spills into.
	Continuations []Chunk
}

// GetMessage returns the first message of type typ, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of type typ.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

// SetMessage replaces the first message of the same type, or appends msg.
func (h *Header) SetMessage(msg message.Message) {
	for i, m := range h.Messages {
		if m.Type() == msg.Type() {
			h.Messages[i] = msg
			return
		}
	}
	h.Messages = append(h.Messages, msg)
}

// RemoveMessages drops every message for which drop returns true and
// reports how many were removed.
func (h *Header) RemoveMessages(drop func(message.Message) bool) int {
	kept := h.Messages[:0]
	for _, m := range h.Messages {
		if !drop(m) {
			kept = append(kept, m)
		}
	}
	n := len(h.Messages) - len(kept)
	h.Messages = kept
	return n
}

func (h *Header) Dataspace() *message.Dataspace {
	m, _ := h.GetMessage(message.TypeDataspace).(*message.Dataspace)
	return m
}

func (h *Header) Datatype() *message.Datatype {
	m, _ := h.GetMessage(message.TypeDatatype).(*message.Datatype)
	return m
}

func (h *Header) DataLayout() *message.DataLayout {
	m, _ := h.GetMessage(message.TypeDataLayout).(*message.DataLayout)
	return m
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	m, _ := h.GetMessage(message.TypeFilterPipeline).(*message.FilterPipeline)
	return m
}

func (h *Header) FillValue() *message.FillValue {
	m, _ := h.GetMessage(message.TypeFillValue).(*message.FillValue)
	return m
}

func (h *Header) LinkInfo() *message.LinkInfo {
	m, _ := h.GetMessage(message.TypeLinkInfo).(*message.LinkInfo)
	return m
}

func (h *Header) SymbolTable() *message.SymbolTable {
	m, _ := h.GetMessage(message.TypeSymbolTable).(*message.SymbolTable)
	return m
}

// Links returns the link messages in header order.
func (h *Header) Links() []*message.Link {
	var links []*message.Link
	for _, msg := range h.Messages {
		if l, ok := msg.(*message.Link); ok {
			links = append(links, l)
		}
	}
	return links
}

// Attributes returns the attribute messages in header order.
func (h *Header) Attributes() []*message.Attribute {
	var attrs []*message.Attribute
	for _, msg := range h.Messages {
		if a, ok := msg.(*message.Attribute); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// IsGroup reports whether the header describes a group.
func (h *Header) IsGroup() bool {
	return h.GetMessage(message.TypeLinkInfo) != nil || h.GetMessage(message.TypeSymbolTable) != nil
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.GetMessage(message.TypeDataLayout) != nil
}
