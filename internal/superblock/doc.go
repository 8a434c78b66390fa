// Package superblock reads and writes the HDF5 superblock.
//
// The superblock is the entry point for any HDF5 file: it carries the
// format version, the width of addresses and lengths, the logical end of
// file and the address of the root group. [Read] looks for the signature
// at offsets 0, 512, 1024 and 2048.
//
// Versions 0 and 1 locate the root group through a symbol table entry and
// are read only; the end-of-file field can still be patched in place with
// [Superblock.WriteEOF]. Versions 2 and 3 are read and written, and carry a
// lookup3 checksum.
//
//	sb, err := superblock.Read(f)
//	if errors.Is(err, superblock.ErrNotHDF5) {
//		...
//	}
//	r := binary.NewReader(f, sb.Config())
package superblock
