package h5lib

import (
	"fmt"
	"strings"
)

// SplitPath splits a path into its components. Leading and trailing
// slashes are ignored and empty components are removed.
//
//   - "/" -> []
//   - "/foo" -> ["foo"]
//   - "foo//bar/" -> ["foo", "bar"]
func SplitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// JoinPath appends name to the absolute path dir.
func JoinPath(dir, name string) string {
	if dir == "/" || dir == "" {
		return "/" + name
	}
	return dir + "/" + name
}

func absolute(p string) bool { return strings.HasPrefix(p, "/") }

func checkName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "/") {
		return fmt.Errorf("invalid link name %q", name)
	}
	return nil
}
