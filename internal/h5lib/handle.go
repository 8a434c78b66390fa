package h5lib

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// ID identifies an open file, group or dataset. Negative values are
// never valid.
type ID int64

// Invalid is the ID of nothing.
const Invalid ID = -1

// Kind is the kind of object an ID or a link refers to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindGroup
	KindDataset
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	case KindOther:
		return "other"
	}
	return "invalid"
}

type handle struct {
	kind Kind
	file *file
	addr uint64
	path string
}

var (
	mu      sync.Mutex
	nextID  ID = 1
	handles    = map[ID]*handle{}
)

func register(kind Kind, f *file, addr uint64, path string) ID {
	id := nextID
	nextID++
	handles[id] = &handle{kind: kind, file: f, addr: addr, path: path}
	f.refs++
	return id
}

func lookup(id ID, kinds ...Kind) (*handle, error) {
	h, ok := handles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if len(kinds) > 0 && !slices.Contains(kinds, h.kind) {
		return nil, fmt.Errorf("%w: %d is a %s", ErrWrongKind, id, h.kind)
	}
	return h, nil
}

// location resolves an ID that children can be looked up from.
func location(id ID) (*handle, error) {
	return lookup(id, KindFile, KindGroup)
}

// IsValid reports whether id is open.
func IsValid(id ID) bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := handles[id]
	return ok
}

// KindOf returns the kind of an open ID, or KindInvalid.
func KindOf(id ID) Kind {
	mu.Lock()
	defer mu.Unlock()
	if h, ok := handles[id]; ok {
		return h.kind
	}
	return KindInvalid
}

// Name returns the absolute path id was opened by.
func Name(id ID) (string, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := lookup(id)
	if err != nil {
		return "", err
	}
	return h.path, nil
}

// FileName returns the path of the file id belongs to.
func FileName(id ID) (string, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := lookup(id)
	if err != nil {
		return "", err
	}
	return h.file.path, nil
}

// OpenObjects counts the group and dataset IDs open in the file of id.
func OpenObjects(id ID) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := lookup(id)
	if err != nil {
		return 0, err
	}
	return h.file.openObjects(), nil
}

func (f *file) openObjects() int {
	n := 0
	for _, h := range handles {
		if h.file == f && h.kind != KindFile {
			n++
		}
	}
	return n
}

// Close releases id. The file is closed once its file ID and every
// object ID opened through it are released.
func Close(id ID) error {
	mu.Lock()
	defer mu.Unlock()
	h, err := lookup(id)
	if err != nil {
		return err
	}
	delete(handles, id)
	if h.kind == KindFile {
		if n := h.file.openObjects(); n > 0 {
			Logger().Warn("file closed with objects still open",
				zap.String("path", h.file.path),
				zap.Int("open", n))
		}
	}
	h.file.refs--
	if h.file.refs > 0 {
		return nil
	}
	return h.file.close()
}
