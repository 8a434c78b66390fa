// Package object reads and writes HDF5 object headers.
//
// Every group and dataset is an object header: a prefix followed by a
// list of header messages, possibly spread over continuation chunks.
//
// # Versions
//
//   - Version 1 headers come from older files. They are read, including
//     their continuation blocks, but cannot be rewritten.
//   - Version 2 headers (signature "OHDR") carry a checksum on every
//     chunk, which [Read] verifies.
//
// New headers are always written as version 2 by [Write].
//
// # Rewriting
//
// A header's address never changes. [Rewrite] encodes the messages back
// into the first chunk. When they no longer fit, the first chunk ends in
// a continuation message and the remaining messages move to a freshly
// allocated "OCHK" chunk. Chunks left over from earlier rewrites are
// returned to the allocator.
//
// # Errors
//
//   - [ErrInvalidHeader]: not an object header
//   - [ErrUnsupportedVersion]: unknown version, or a rewrite of a version 1 header
//   - [ErrChecksumMismatch]: a chunk failed checksum verification
package object
