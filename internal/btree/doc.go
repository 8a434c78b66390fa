// Package btree reads version 1 B-trees.
//
// Version 1 B-trees (signature "TREE") index two things in HDF5 files:
//
//   - Old-style groups. Leaves point to symbol table nodes ("SNOD") whose
//     entries name their links through a [heap.LocalHeap]. See
//     [ReadGroupEntries].
//   - Chunked datasets whose layout message is version 3 or older. Keys
//     hold each chunk's offset, stored size and filter mask. See
//     [ReadChunkIndex].
//
// Files written by this module never create version 1 B-trees; they are
// only read.
package btree
