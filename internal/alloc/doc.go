// Package alloc hands out file space for metadata and raw data written to
// an HDF5 file.
//
// Space is append-only: every allocation starts at the current end of
// file, which then advances. Blocks that become unreachable, such as a
// superseded continuation chunk or a relocated chunk, are recorded with
// [Allocator.Free] so the loss shows up in [Stats], but the space is never
// reused while the file is open.
//
//	a := alloc.New(eof)
//	addr := a.Alloc(1024, "raw data")
package alloc
