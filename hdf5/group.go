package hdf5

import "github.com/robert-malhotra/hdf5kit/internal/h5lib"

// Location is a place children can be opened from: a *File (its root
// group) or a *Group.
type Location interface {
	location() (h5lib.ID, error)
}

// Group is an open group. The zero value holds nothing and can be
// filled with Open.
type Group struct {
	handle
}

// OpenGroup opens the group name under loc, creating it and any missing
// intermediate groups when it does not exist.
func OpenGroup(loc Location, name string) (*Group, error) {
	return openGroup(loc, name, true)
}

func openGroup(loc Location, name string, create bool) (*Group, error) {
	g := &Group{}
	if err := g.open(loc, name, create); err != nil {
		return nil, err
	}
	return g, nil
}

// Open opens or creates the group name under loc into g. It fails with
// ErrAlreadyInUse when g already holds a group.
func (g *Group) Open(loc Location, name string) error {
	return g.open(loc, name, true)
}

func (g *Group) open(loc Location, name string, create bool) error {
	if err := g.claim(); err != nil {
		return err
	}
	lid, err := loc.location()
	if err != nil {
		return err
	}
	var id h5lib.ID
	if !create || ExistsGroup(loc, name) {
		id, err = h5lib.OpenGroup(lid, name)
		if err != nil {
			return opError("open group", name, err)
		}
	} else {
		id, err = h5lib.CreateGroup(lid, name, true)
		if err != nil {
			return opError("create group", name, err)
		}
	}
	g.set(id)
	return nil
}

// ExistsGroup reports whether a group name can be opened under loc. Every
// failure, not only absence, reports false.
func ExistsGroup(loc Location, name string) bool {
	lid, err := loc.location()
	if err != nil {
		return false
	}
	kind, err := h5lib.ObjectKind(lid, name)
	return err == nil && kind == h5lib.KindGroup
}

// Name returns the absolute path of the group.
func (g *Group) Name() string { return g.name() }

// Close releases the group. Closing a closed group does nothing.
func (g *Group) Close() error { return g.release("close group") }

// Move transfers the group to a new value and leaves g empty.
func (g *Group) Move() (*Group, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	out := &Group{}
	if g.held() {
		out.set(g.take())
	}
	return out, nil
}

// Datasets returns the datasets directly below g. g must stay open while
// the container and its iterators are used.
func (g *Group) Datasets() Container[Dataset] {
	return Container[Dataset]{parent: g}
}

// Groups returns the groups directly below g.
func (g *Group) Groups() Container[Group] {
	return Container[Group]{parent: g}
}

// Delete unlinks the child name from g.
func (g *Group) Delete(name string) error {
	id, err := g.current()
	if err != nil {
		return err
	}
	return opError("delete", name, h5lib.Delete(id, name))
}

// Link adds a soft link name that resolves to the path target.
func (g *Group) Link(name, target string) error {
	id, err := g.current()
	if err != nil {
		return err
	}
	return opError("link", name, h5lib.CreateSoftLink(id, name, target))
}

func (g *Group) location() (h5lib.ID, error) { return g.current() }

