package h5lib

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/robert-malhotra/hdf5kit/internal/binary"
	"github.com/robert-malhotra/hdf5kit/internal/btree"
	"github.com/robert-malhotra/hdf5kit/internal/heap"
	"github.com/robert-malhotra/hdf5kit/internal/message"
	"github.com/robert-malhotra/hdf5kit/internal/object"
)

// maxLinkDepth bounds soft link chains.
const maxLinkDepth = 100

type link struct {
	name     string
	addr     uint64
	hard     bool
	soft     string
	external bool
}

// links returns the members of the group whose header is h, in name
// order.
func (f *file) links(h *object.Header) ([]link, error) {
	var out []link
	for _, l := range h.Links() {
		switch {
		case l.IsHard():
			out = append(out, link{name: l.Name, addr: l.ObjectAddress, hard: true})
		case l.IsSoft():
			out = append(out, link{name: l.Name, soft: l.SoftLinkValue})
		default:
			out = append(out, link{name: l.Name, external: true})
		}
	}
	if li := h.LinkInfo(); li != nil && li.Dense(binary.Undefined(f.r.OffsetSize())) {
		return nil, fmt.Errorf("%w: dense link storage in group at %#x", ErrUnsupported, h.Address)
	}
	if st := h.SymbolTable(); st != nil {
		names, err := heap.ReadLocalHeap(f.r, st.LocalHeapAddress)
		if err != nil {
			return nil, fmt.Errorf("group at %#x: %w", h.Address, err)
		}
		entries, err := btree.ReadGroupEntries(f.r, st.BTreeAddress, names)
		if err != nil {
			return nil, fmt.Errorf("group at %#x: %w", h.Address, err)
		}
		for _, e := range entries {
			if e.Soft {
				out = append(out, link{name: e.Name, soft: e.SoftLinkValue})
			} else {
				out = append(out, link{name: e.Name, addr: e.ObjectAddress, hard: true})
			}
		}
	}
	slices.SortFunc(out, func(a, b link) int { return strings.Compare(a.name, b.name) })
	return out, nil
}

func (f *file) group(addr uint64) (*object.Header, []link, error) {
	h, err := f.header(addr)
	if err != nil {
		return nil, nil, err
	}
	if !h.IsGroup() {
		return nil, nil, fmt.Errorf("%w: object at %#x is not a group", ErrWrongKind, addr)
	}
	links, err := f.links(h)
	if err != nil {
		return nil, nil, err
	}
	return h, links, nil
}

func find(links []link, name string) (link, bool) {
	i, ok := slices.BinarySearchFunc(links, name, func(l link, n string) int { return strings.Compare(l.name, n) })
	if !ok {
		return link{}, false
	}
	return links[i], true
}

// target returns the header address l points at. Soft links resolve
// relative to the group at dir, whose path is dirPath.
func (f *file) target(dir uint64, dirPath string, l link, depth int) (uint64, error) {
	switch {
	case l.hard:
		return l.addr, nil
	case l.external:
		return 0, fmt.Errorf("%w: external link %s", ErrUnsupported, JoinPath(dirPath, l.name))
	}
	if depth >= maxLinkDepth {
		return 0, fmt.Errorf("%w: soft link chain at %s is longer than %d", ErrNotFound, JoinPath(dirPath, l.name), maxLinkDepth)
	}
	addr, _, err := f.walk(dir, dirPath, l.soft, depth+1)
	return addr, err
}

// resolve follows p from the group at base and returns the header
// address and absolute path it names.
func (f *file) resolve(base uint64, basePath, p string) (uint64, string, error) {
	return f.walk(base, basePath, p, 0)
}

func (f *file) walk(addr uint64, cur, p string, depth int) (uint64, string, error) {
	if absolute(p) {
		addr, cur = f.root(), "/"
	}
	for _, name := range SplitPath(p) {
		if name == "." {
			continue
		}
		_, links, err := f.group(addr)
		if errors.Is(err, ErrWrongKind) {
			return 0, "", fmt.Errorf("%w: %s is not a group", ErrNotFound, cur)
		}
		if err != nil {
			return 0, "", err
		}
		l, ok := find(links, name)
		if !ok {
			return 0, "", fmt.Errorf("%w: %s", ErrNotFound, JoinPath(cur, name))
		}
		if addr, err = f.target(addr, cur, l, depth); err != nil {
			return 0, "", err
		}
		cur = JoinPath(cur, name)
	}
	return addr, cur, nil
}

// mkdirs walks the groups named by parts, creating missing ones when
// intermediate is set, and returns the last.
func (f *file) mkdirs(addr uint64, cur string, parts []string, intermediate bool) (uint64, string, error) {
	for _, name := range parts {
		if name == "." {
			continue
		}
		_, links, err := f.group(addr)
		if err != nil {
			return 0, "", fmt.Errorf("%s: %w", cur, err)
		}
		next := JoinPath(cur, name)
		if l, ok := find(links, name); ok {
			if addr, err = f.target(addr, cur, l, 0); err != nil {
				return 0, "", err
			}
		} else {
			if !intermediate {
				return 0, "", fmt.Errorf("%w: %s", ErrNotFound, next)
			}
			if addr, err = f.createGroup(addr, name); err != nil {
				return 0, "", err
			}
		}
		cur = next
	}
	return addr, cur, nil
}

func (f *file) createGroup(parent uint64, name string) (uint64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	h, err := object.Write(f.w, f.a, groupMessages(), object.MinGroupChunkSize)
	if err != nil {
		return 0, fmt.Errorf("writing group %s: %w", name, err)
	}
	if err := f.addLink(parent, message.NewHardLink(name, h.Address)); err != nil {
		return 0, err
	}
	return h.Address, nil
}

// addLink inserts l into the group at parent. Only groups that keep
// their links in the object header can be modified.
func (f *file) addLink(parent uint64, l *message.Link) error {
	h, err := f.header(parent)
	if err != nil {
		return err
	}
	if h.SymbolTable() != nil {
		return fmt.Errorf("%w: adding links to a symbol table group", ErrUnsupported)
	}
	if li := h.LinkInfo(); li != nil && li.Dense(binary.Undefined(f.r.OffsetSize())) {
		return fmt.Errorf("%w: adding links to dense link storage", ErrUnsupported)
	}
	h.Messages = append(h.Messages, l)
	return f.rewrite(h)
}

// split separates the last component of p from its parent.
func split(p string) (dir []string, name string, err error) {
	parts := SplitPath(p)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("%w: %q names the root group", ErrExists, p)
	}
	name = parts[len(parts)-1]
	if err := checkName(name); err != nil {
		return nil, "", err
	}
	return parts[:len(parts)-1], name, nil
}

// OpenGroup opens the group at path relative to loc.
func OpenGroup(loc ID, path string) (ID, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return Invalid, err
	}
	addr, abs, err := h.file.resolve(h.addr, h.path, path)
	if err != nil {
		return Invalid, err
	}
	hdr, err := h.file.header(addr)
	if err != nil {
		return Invalid, err
	}
	if !hdr.IsGroup() {
		return Invalid, fmt.Errorf("%w: %s is not a group", ErrWrongKind, abs)
	}
	return register(KindGroup, h.file, addr, abs), nil
}

// CreateGroup creates a group at path relative to loc. Missing parents
// are created only when intermediate is set.
func CreateGroup(loc ID, path string, intermediate bool) (ID, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return Invalid, err
	}
	f := h.file
	if err := f.writable(); err != nil {
		return Invalid, err
	}
	dir, name, err := split(path)
	if err != nil {
		return Invalid, err
	}
	addr, cur := h.addr, h.path
	if absolute(path) {
		addr, cur = f.root(), "/"
	}
	addr, cur, err = f.mkdirs(addr, cur, dir, intermediate)
	if err != nil {
		return Invalid, err
	}
	_, links, err := f.group(addr)
	if err != nil {
		return Invalid, err
	}
	abs := JoinPath(cur, name)
	if _, ok := find(links, name); ok {
		return Invalid, fmt.Errorf("%w: %s", ErrExists, abs)
	}
	child, err := f.createGroup(addr, name)
	if err != nil {
		return Invalid, err
	}
	return register(KindGroup, f, child, abs), nil
}

// CreateSoftLink adds a link named path that resolves target by path.
func CreateSoftLink(loc ID, path, target string) error {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return err
	}
	f := h.file
	if err := f.writable(); err != nil {
		return err
	}
	dir, name, err := split(path)
	if err != nil {
		return err
	}
	addr, cur := h.addr, h.path
	if absolute(path) {
		addr, cur = f.root(), "/"
	}
	if addr, cur, err = f.mkdirs(addr, cur, dir, false); err != nil {
		return err
	}
	_, links, err := f.group(addr)
	if err != nil {
		return err
	}
	if _, ok := find(links, name); ok {
		return fmt.Errorf("%w: %s", ErrExists, JoinPath(cur, name))
	}
	return f.addLink(addr, message.NewSoftLink(name, target))
}

// Exists reports whether path relative to loc resolves to an object.
// Only resolution failures are reported as false; other errors are
// returned.
func Exists(loc ID, path string) (bool, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return false, err
	}
	_, _, err = h.file.resolve(h.addr, h.path, path)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ObjectKind returns the kind of the object path names.
func ObjectKind(loc ID, path string) (Kind, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return KindInvalid, err
	}
	addr, _, err := h.file.resolve(h.addr, h.path, path)
	if err != nil {
		return KindInvalid, err
	}
	hdr, err := h.file.header(addr)
	if err != nil {
		return KindInvalid, err
	}
	return kindOf(hdr), nil
}

type member struct {
	name string
	kind Kind
}

// Iterate calls fn for the links of the group loc in ascending name
// order, starting at position *idx. It stops early when fn returns true
// and reports whether it did. On return *idx is one past the last link
// visited. fn runs without the package lock held and may call back into
// this package.
func Iterate(loc ID, idx *uint64, fn func(name string, kind Kind) bool) (bool, error) {
	members, err := list(loc)
	if err != nil {
		return false, err
	}
	for i := *idx; i < uint64(len(members)); i++ {
		*idx = i + 1
		if fn(members[i].name, members[i].kind) {
			return true, nil
		}
	}
	*idx = max(*idx, uint64(len(members)))
	return false, nil
}

func list(loc ID) ([]member, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return nil, err
	}
	f := h.file
	_, links, err := f.group(h.addr)
	if err != nil {
		return nil, err
	}
	out := make([]member, len(links))
	for i, l := range links {
		out[i] = member{name: l.name, kind: KindOther}
		addr, err := f.target(h.addr, h.path, l, 0)
		if err != nil {
			continue
		}
		if hdr, err := f.header(addr); err == nil {
			out[i].kind = kindOf(hdr)
		}
	}
	return out, nil
}

// Delete removes the link name from the group loc. The object it
// pointed to stays in the file.
func Delete(loc ID, name string) error {
	mu.Lock()
	defer mu.Unlock()
	h, err := location(loc)
	if err != nil {
		return err
	}
	f := h.file
	if err := f.writable(); err != nil {
		return err
	}
	dir, base, err := split(name)
	if err != nil {
		return err
	}
	addr, cur := h.addr, h.path
	if absolute(name) {
		addr, cur = f.root(), "/"
	}
	if addr, cur, err = f.mkdirs(addr, cur, dir, false); err != nil {
		return err
	}
	hdr, err := f.header(addr)
	if err != nil {
		return err
	}
	n := hdr.RemoveMessages(func(m message.Message) bool {
		l, ok := m.(*message.Link)
		return ok && l.Name == base
	})
	if n == 0 {
		if hdr.SymbolTable() != nil {
			return fmt.Errorf("%w: deleting from a symbol table group", ErrUnsupported)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, JoinPath(cur, base))
	}
	return f.rewrite(hdr)
}
