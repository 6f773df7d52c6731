package vfs

import (
	"path"
	"strings"

	"vroot/internal/constants"
)

// JoinPath joins a virtual directory and a name. Joining onto the root
// yields "name/" so location ids become "ID:/".
func JoinPath(base, name string) string {
	id, rel, err := Split(base)
	if err != nil {
		return path.Join(base, name)
	}
	if id == "" {
		if strings.HasSuffix(name, string(constants.LocationSeparator)) {
			return name + "/"
		}
		return path.Join("/", rel, name)
	}
	return id + path.Join(rel, name)
}

// ParentPath returns the parent of a virtual path. The parent of a location
// root is the virtual root; the virtual root is its own parent.
func ParentPath(p string) string {
	id, rel, err := Split(p)
	if err != nil {
		return constants.RootPath
	}
	if id == "" {
		return path.Dir(rel)
	}
	if rel == "/" {
		return constants.RootPath
	}
	return id + path.Dir(rel)
}

// BaseName returns the last element of a virtual path. A location root
// returns its id.
func BaseName(p string) string {
	id, rel, err := Split(p)
	if err != nil {
		return path.Base(p)
	}
	if rel == "/" {
		if id == "" {
			return constants.RootPath
		}
		return id
	}
	return path.Base(rel)
}
