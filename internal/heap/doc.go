// Package heap reads and writes the two HDF5 heap structures.
//
// A local heap ("HEAP") holds the member names of an old-style group; the
// symbol table entries in the group's B-tree refer to names by offset.
//
// A global heap collection ("GCOL") holds variable-length values such as
// variable-length strings. A value is addressed by an [ID]: the collection
// address plus the object's index inside it.
//
//	coll, err := heap.ReadCollection(r, id.Collection)
//	s, err := coll.String(id.Index)
package heap
