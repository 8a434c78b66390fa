package hdf5

import (
	"fmt"
	"iter"

	"github.com/robert-malhotra/hdf5kit/internal/h5lib"
)

// Node is a kind of object that can be enumerated under a group.
type Node interface {
	Group | Dataset
}

// endCursor marks an exhausted iterator. Cursor 0 marks one that has not
// been touched yet.
const endCursor = ^uint64(0)

func nodeKind[T Node]() h5lib.Kind {
	var zero T
	if _, ok := any(&zero).(*Group); ok {
		return h5lib.KindGroup
	}
	return h5lib.KindDataset
}

func openNode[T Node](parent *Group, name string) (*T, error) {
	elem := new(T)
	var err error
	switch e := any(elem).(type) {
	case *Group:
		err = e.open(parent, name, false)
	case *Dataset:
		err = e.Open(parent, name)
	}
	if err != nil {
		return nil, err
	}
	return elem, nil
}

// Container is the set of children of one kind below a group. It holds
// no handle of its own: the group must stay open while the container and
// its iterators are in use.
type Container[T Node] struct {
	parent *Group
}

// Begin returns an iterator positioned before the first child. The
// group is not queried until the iterator is first used.
func (c Container[T]) Begin() *Iterator[T] {
	return &Iterator[T]{parent: c.parent}
}

// End returns the past-the-end iterator.
func (c Container[T]) End() *Iterator[T] {
	return &Iterator[T]{parent: c.parent, cursor: endCursor}
}

// All ranges over the children. Each yielded value is owned by the
// underlying iterator and is closed when the loop advances or ends. A
// child that cannot be opened is yielded as an error and the loop moves
// on to the next one unless the body breaks.
func (c Container[T]) All() iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		it, end := c.Begin(), c.End()
		defer it.Close()
		for !it.Equal(end) {
			v, err := it.Value()
			if !yield(v, err) {
				return
			}
			if err := it.Next(); err != nil {
				yield(nil, err)
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Names returns the names of the children in iteration order.
func (c Container[T]) Names() ([]string, error) {
	var names []string
	it, end := c.Begin(), c.End()
	for !it.Equal(end) {
		names = append(names, it.Name())
		if err := it.Next(); err != nil {
			return names, err
		}
	}
	return names, it.Err()
}

// Iterator walks the children of one kind below a group in name order.
// It is single-pass and materialises at most one child at a time.
//
// An iterator is lazy: the first call to Value, Name, Next or Equal
// positions it on the first matching child. Two iterators are equal when
// their positions are, so two fresh iterators over the same group
// compare equal once both have settled on the first child.
type Iterator[T Node] struct {
	parent *Group
	cursor uint64
	name   string
	elem   *T
	err    error
}

func (it *Iterator[T]) init() {
	if it.parent != nil && it.cursor == 0 {
		it.step()
	}
}

// step advances to the next child of kind T at or after the cursor.
func (it *Iterator[T]) step() {
	id, err := it.parent.current()
	if err != nil {
		// A closed parent reads as an exhausted iterator; Value tells
		// the two apart.
		it.exhaust(nil)
		return
	}
	want := nodeKind[T]()
	idx := it.cursor
	var name string
	found, err := h5lib.Iterate(id, &idx, func(n string, k h5lib.Kind) bool {
		if k != want {
			return false
		}
		name = n
		return true
	})
	if err != nil || !found {
		it.exhaust(err)
		return
	}
	it.cursor, it.name = idx, name
}

func (it *Iterator[T]) exhaust(err error) {
	it.cursor, it.name = endCursor, ""
	if err != nil {
		it.err = opError("iterate", it.parent.Name(), err)
	}
}

func (it *Iterator[T]) position() uint64 {
	if it == nil || it.parent == nil {
		return endCursor
	}
	it.init()
	return it.cursor
}

// Value opens the current child. Repeated calls return the same object
// until Next is called; the iterator owns it.
func (it *Iterator[T]) Value() (*T, error) {
	if it.parent == nil {
		return nil, ErrInvalidOperation
	}
	it.init()
	if it.cursor == endCursor {
		if it.err != nil {
			return nil, it.err
		}
		if !it.parent.Valid() {
			return nil, fmt.Errorf("%w: non-existing parent group", ErrOutOfRange)
		}
		return nil, fmt.Errorf("%w: parent group %s", ErrOutOfRange, it.parent.Name())
	}
	if it.elem == nil {
		elem, err := openNode[T](it.parent, it.name)
		if err != nil {
			return nil, err
		}
		it.elem = elem
	}
	return it.elem, nil
}

// Name returns the name of the current child, or "" past the end.
func (it *Iterator[T]) Name() string {
	if it.parent == nil {
		return ""
	}
	it.init()
	return it.name
}

// Next closes the current child and moves to the following one.
func (it *Iterator[T]) Next() error {
	if err := it.Close(); err != nil {
		return err
	}
	if it.parent == nil {
		return ErrInvalidOperation
	}
	it.init()
	if it.cursor == endCursor {
		return fmt.Errorf("%w: next past the end", ErrOutOfRange)
	}
	it.step()
	return nil
}

// Equal reports whether both iterators are at the same position. An
// iterator without a group counts as past the end.
func (it *Iterator[T]) Equal(o *Iterator[T]) bool {
	return it.position() == o.position()
}

// Err returns the error that ended the iteration early, if any.
func (it *Iterator[T]) Err() error { return it.err }

// Close releases the current child, if one was opened.
func (it *Iterator[T]) Close() error {
	if it.elem == nil {
		return nil
	}
	var err error
	switch e := any(it.elem).(type) {
	case *Group:
		err = e.Close()
	case *Dataset:
		err = e.Close()
	}
	it.elem = nil
	return err
}
