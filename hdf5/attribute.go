package hdf5

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/hdf5kit/internal/dtype"
	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Object is something attributes can be attached to: a *File (its root
// group), a *Group or a *Dataset.
type Object interface {
	current() (h5lib.ID, error)
}

// StringPolicy selects how WriteStringAttribute stores text.
type StringPolicy int

const (
	StringNullTerm StringPolicy = iota // fixed length, NUL terminated
	StringNullPad                      // fixed length, NUL padded
	StringSpacePad                     // fixed length, space padded
	StringVariable                     // variable length, in the global heap
)

func (p StringPolicy) stringType() h5lib.StringType {
	switch p {
	case StringNullPad:
		return h5lib.StringType{Pad: message.PadNullPad}
	case StringSpacePad:
		return h5lib.StringType{Pad: message.PadSpacePad}
	case StringVariable:
		return h5lib.StringType{Variable: true}
	}
	return h5lib.StringType{Pad: message.PadNullTerm}
}

func objectName(id h5lib.ID) string {
	name, _ := h5lib.Name(id)
	return name
}

func attrOp(op string, id h5lib.ID, attr string, err error) error {
	return opError(op, JoinAttrPath(objectName(id), attr), err)
}

// WriteAttribute stores v as the scalar attribute name of obj, replacing
// any attribute of that name.
func WriteAttribute[T Element](obj Object, name string, v T) error {
	id, err := obj.current()
	if err != nil {
		return err
	}
	err = h5lib.WriteAttribute(id, name, dtype.For[T](), &h5lib.Space{Scalar: true}, dtype.Encode([]T{v}))
	return attrOp("write attribute", id, name, err)
}

// WriteAttributeSlice stores vals as a one-dimensional attribute.
func WriteAttributeSlice[T Element](obj Object, name string, vals []T) error {
	id, err := obj.current()
	if err != nil {
		return err
	}
	space := &h5lib.Space{Dims: []uint64{uint64(len(vals))}}
	err = h5lib.WriteAttribute(id, name, dtype.For[T](), space, dtype.Encode(vals))
	return attrOp("write attribute", id, name, err)
}

// WriteStringAttribute stores value as a scalar string attribute. The
// default policy is StringNullTerm.
func WriteStringAttribute(obj Object, name, value string, policy ...StringPolicy) error {
	id, err := obj.current()
	if err != nil {
		return err
	}
	p := StringNullTerm
	if len(policy) > 0 {
		p = policy[0]
	}
	err = h5lib.WriteStringAttribute(id, name, &h5lib.Space{Scalar: true}, []string{value}, p.stringType())
	return attrOp("write attribute", id, name, err)
}

func readAttribute[T Element](obj Object, name string) ([]T, error) {
	id, err := obj.current()
	if err != nil {
		return nil, err
	}
	a, err := h5lib.ReadAttribute(id, name, dtype.For[T]())
	if err != nil {
		return nil, attrOp("read attribute", id, name, err)
	}
	vals, err := dtype.Decode[T](a.Data)
	return vals, attrOp("read attribute", id, name, err)
}

// ReadAttribute returns the single-element attribute name of obj.
func ReadAttribute[T Element](obj Object, name string) (T, error) {
	var zero T
	vals, err := readAttribute[T](obj, name)
	if err != nil {
		return zero, err
	}
	if len(vals) != 1 {
		return zero, fmt.Errorf("%w: attribute %s holds %d values", ErrShapeMismatch, name, len(vals))
	}
	return vals[0], nil
}

// ReadAttributeSlice returns every element of the attribute name in
// row-major order.
func ReadAttributeSlice[T Element](obj Object, name string) ([]T, error) {
	vals, err := readAttribute[T](obj, name)
	return vals, err
}

// ReadStringAttribute returns the scalar string attribute name.
func ReadStringAttribute(obj Object, name string) (string, error) {
	id, err := obj.current()
	if err != nil {
		return "", err
	}
	vals, _, err := h5lib.ReadStringAttribute(id, name)
	if err != nil {
		return "", attrOp("read attribute", id, name, err)
	}
	if len(vals) != 1 {
		return "", fmt.Errorf("%w: attribute %s holds %d strings", ErrShapeMismatch, name, len(vals))
	}
	return vals[0], nil
}

// ExistsAttribute reports whether obj has the attribute name. Failures
// report false.
func ExistsAttribute(obj Object, name string) bool {
	id, err := obj.current()
	if err != nil {
		return false
	}
	ok, err := h5lib.AttributeExists(id, name)
	return err == nil && ok
}

// DeleteAttribute removes the attribute name from obj.
func DeleteAttribute(obj Object, name string) error {
	id, err := obj.current()
	if err != nil {
		return err
	}
	return attrOp("delete attribute", id, name, h5lib.DeleteAttribute(id, name))
}

// Attributes returns the attribute names of obj in creation order.
func Attributes(obj Object) ([]string, error) {
	id, err := obj.current()
	if err != nil {
		return nil, err
	}
	names, err := h5lib.Attributes(id)
	if err != nil {
		return nil, opError("list attributes", objectName(id), err)
	}
	return names, nil
}

// AttributeValue reads the attribute name without knowing its type. It
// returns a Go value of the matching Element type, a string, or a slice
// of either when the attribute is not scalar.
func AttributeValue(obj Object, name string) (any, error) {
	id, err := obj.current()
	if err != nil {
		return nil, err
	}
	a, err := h5lib.ReadAttribute(id, name, nil)
	if err != nil {
		return nil, attrOp("read attribute", id, name, err)
	}
	scalar := a.Space.Scalar
	if a.Datatype.IsString() {
		vals, _, err := h5lib.ReadStringAttribute(id, name)
		if err != nil {
			return nil, attrOp("read attribute", id, name, err)
		}
		if scalar && len(vals) == 1 {
			return vals[0], nil
		}
		return vals, nil
	}
	gt, err := dtype.GoType(a.Datatype)
	if err != nil {
		return nil, attrOp("read attribute", id, name, fmt.Errorf("%w: %w", ErrUnsupported, err))
	}
	switch gt.Kind() {
	case reflect.Int8:
		return attributeValue[int8](obj, name, scalar)
	case reflect.Int16:
		return attributeValue[int16](obj, name, scalar)
	case reflect.Int32:
		return attributeValue[int32](obj, name, scalar)
	case reflect.Int64:
		return attributeValue[int64](obj, name, scalar)
	case reflect.Uint8:
		return attributeValue[uint8](obj, name, scalar)
	case reflect.Uint16:
		return attributeValue[uint16](obj, name, scalar)
	case reflect.Uint32:
		return attributeValue[uint32](obj, name, scalar)
	case reflect.Uint64:
		return attributeValue[uint64](obj, name, scalar)
	case reflect.Float32:
		return attributeValue[float32](obj, name, scalar)
	case reflect.Float64:
		return attributeValue[float64](obj, name, scalar)
	}
	return nil, attrOp("read attribute", id, name, fmt.Errorf("%w: %s", ErrUnsupported, gt))
}

func attributeValue[T Element](obj Object, name string, scalar bool) (any, error) {
	vals, err := readAttribute[T](obj, name)
	if err != nil {
		return nil, err
	}
	if scalar && len(vals) == 1 {
		return vals[0], nil
	}
	return vals, nil
}
