package hdf5

import (
	"errors"
	"iter"
)

// ErrStopWalk can be returned from a walk callback to end the walk
// without an error.
var ErrStopWalk = errors.New("walk stopped")

// WalkFunc is called for each object visited by Walk. obj is a *Group or
// a *Dataset, owned by the walk and closed once fn returns. err is set
// when the child could not be opened; obj is nil then.
type WalkFunc func(path string, obj any, err error) error

// Walk visits g and everything below it depth-first. Within a group the
// datasets come first, then each subgroup in name order.
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Name(), g, nil); err != nil {
		return err
	}
	err := walkChildren(g.Name(), g.Datasets().All(), fn, func(ds *Dataset) error {
		return fn(ds.Name(), ds, nil)
	})
	if err != nil {
		return err
	}
	return walkChildren(g.Name(), g.Groups().All(), fn, func(sub *Group) error {
		return walkGroup(sub, fn)
	})
}

// walkChildren visits each child in seq. A child that failed is reported
// to fn under the parent path and skipped unless fn returns an error.
func walkChildren[T any](parent string, seq iter.Seq2[*T, error], fn WalkFunc, visit func(*T) error) error {
	for child, err := range seq {
		if err != nil {
			if err := fn(parent, nil, err); err != nil {
				return err
			}
			continue
		}
		if err := visit(child); err != nil {
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute met by WalkAttrs.
type AttrInfo struct {
	// Path is the attribute path, e.g. "/grid/temp@units".
	Path       string
	ObjectPath string
	Name       string
	// Value is the decoded value as returned by AttributeValue, nil when
	// Err is set.
	Value any
	Err   error
}

// WalkAttrsFunc is called for each attribute visited by WalkAttrs.
type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs calls fn for every attribute of g and of the objects below
// it, in Walk order.
func WalkAttrs(g *Group, fn WalkAttrsFunc) error {
	return Walk(g, func(path string, obj any, err error) error {
		if err != nil {
			return err
		}
		o, ok := obj.(Object)
		if !ok {
			return nil
		}
		names, err := Attributes(o)
		if err != nil {
			return err
		}
		for _, name := range names {
			info := AttrInfo{Path: JoinAttrPath(path, name), ObjectPath: path, Name: name}
			info.Value, info.Err = AttributeValue(o, name)
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
