// Package layout reads and writes dataset raw data.
//
// A dataset's data layout message selects one of three storage classes:
//
//   - Compact: the bytes live inside the object header. Writes return a
//     new layout message that the caller stores back into the header.
//   - Contiguous: one block of the file. Writes go to the block in place.
//   - Chunked: fixed-size chunks located through a chunk index and
//     optionally passed through a filter pipeline.
//
// All transfers go through a [Hyperslab] selection. Selected elements are
// moved in the row-major order of the selection, as lists of [Run]s.
//
// Chunk indexes read: single chunk, implicit, fixed array (paged or not)
// and version 1 B-trees. Chunked writes decode only the chunks a selection
// touches, write them to new space and replace the index with a single
// chunk index or an unpaged fixed array. Chunks on the upper edges of the
// dataset are stored at full chunk size.
package layout
