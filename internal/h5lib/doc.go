// Package h5lib is a small HDF5 library with an identifier-based API.
//
// Every open file, group and dataset is represented by an [ID] drawn from
// a process-wide handle table. Operations take IDs, resolve them to the
// file and object header they refer to, and read or rewrite on-disk
// structures directly. Object header addresses never change once an
// object is created, so IDs stay valid while other objects are modified.
//
// Files stay open while the file ID or any object ID opened through it is
// open. Read-write opens take an advisory exclusive lock where the
// platform supports it.
//
// All operations are serialized by one package mutex.
package h5lib
