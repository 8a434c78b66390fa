package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form
// /group/object@attribute into the object path and the attribute name.
//
// Examples:
//   - "/@title" -> "/", "title"
//   - "/data@units" -> "/data", "units"
//   - "grid/temp@scale" -> "/grid/temp", "scale"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	if path == "" {
		return "", "", fmt.Errorf("empty attribute path")
	}
	at := strings.LastIndex(path, "@")
	if at == -1 {
		return "", "", fmt.Errorf("attribute path must contain '@': %s", path)
	}
	objectPath, attrName = path[:at], path[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("attribute name cannot be empty: %s", path)
	}
	if !strings.HasPrefix(objectPath, "/") {
		objectPath = "/" + objectPath
	}
	return objectPath, attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" || objectPath == "" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}
