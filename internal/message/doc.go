// Package message parses and serialises HDF5 object header messages.
//
// An object header is a list of typed messages. This package decodes the
// ones a group or dataset is made of:
//
//   - Dataspace (0x0001), see [Dataspace]
//   - Link Info (0x0002) and Group Info (0x000A), see [LinkInfo], [GroupInfo]
//   - Datatype (0x0003), see [Datatype]
//   - Fill Value (0x0005), see [FillValue]
//   - Link (0x0006), see [Link]
//   - Data Layout (0x0008), see [DataLayout]
//   - Filter Pipeline (0x000B), see [FilterPipeline]
//   - Attribute (0x000C), see [Attribute]
//   - Continuation (0x0010), see [Continuation]
//   - Symbol Table (0x0011), see [SymbolTable]
//
// Every other type is kept as an [Unknown] holding the raw bytes, which
// serialises back unchanged so that rewriting a header never drops
// messages this package does not understand.
//
// Messages that can be written implement [Serializable]. Sizes depend on
// the file's offset and length widths, so both methods take the
// [binary.Writer] the message is headed for.
package message
