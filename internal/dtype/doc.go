// Package dtype maps Go element types to HDF5 datatypes and moves values
// between Go slices and raw little-endian element bytes.
//
// The type table is fixed:
//
//	Go type          | HDF5 datatype
//	-----------------|---------------------------------
//	int8 … int64     | signed fixed-point, 1 to 8 bytes
//	uint8 … uint64   | unsigned fixed-point, 1 to 8 bytes
//	float32, float64 | IEEE 754 floating point
//	string           | fixed-length or variable-length string
//
// Values are never converted between types. [Compatible] decides whether
// a memory type may be transferred to or from a file type; a big-endian
// file type is compatible with its little-endian twin and [Swap] flips
// the bytes in place.
package dtype
