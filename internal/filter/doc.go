// Package filter implements the HDF5 filter pipeline for chunked storage.
//
// Filters listed in a pipeline message are applied in order when a chunk
// is written and in reverse order when it is read. A chunk's filter mask
// marks filters that were skipped for that chunk.
//
// Supported filters:
//
//   - Deflate (ID 1): zlib streams, compressed with
//     github.com/klauspost/compress/zlib. Client data [0] is the level.
//   - Shuffle (ID 2): byte transposition. Client data [0] is the element size.
//   - Fletcher-32 (ID 3): a checksum appended to the chunk.
//
// SZIP, N-bit and scale-offset are recognised by name but cannot be
// decoded. Optional filters that are not available are skipped.
package filter
