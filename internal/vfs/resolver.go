// Package vfs exposes every storage location under one virtual root.
//
// Paths have the form "ID:/rel/path" where "ID:" is a canonical location id.
// A path without a location id refers to the virtual root, which can only be
// listed.
package vfs

import (
	"path"
	"strings"

	"vroot/internal/constants"
	apperrors "vroot/internal/errors"
	"vroot/internal/location"
)

// Split separates a virtual path into its location id (including the
// trailing ':') and a cleaned, slash-rooted remainder. An empty id means
// the path is at or below the virtual root.
func Split(p string) (id, rel string, err error) {
	if strings.IndexByte(p, 0) >= 0 {
		return "", "", apperrors.NewMalformedPathError("split", p, "path contains a NUL byte")
	}
	s := strings.TrimLeft(p, `/\`)
	i := strings.IndexByte(s, constants.LocationSeparator)
	if i < 0 {
		return "", cleanRel(s), nil
	}
	id = s[:i+1]
	if i == 0 {
		return "", "", apperrors.NewMalformedPathError("split", p, "empty location id")
	}
	if strings.ContainsAny(id, `/\`) {
		return "", "", apperrors.NewMalformedPathError("split", p, "location id contains a separator")
	}
	return id, cleanRel(s[i+1:]), nil
}

func cleanRel(r string) string {
	return path.Clean("/" + strings.ReplaceAll(r, `\`, "/"))
}

// Target is a resolved virtual path.
type Target struct {
	Entry location.Entry
	Rel   string
	Root  bool // the path is the virtual root or below it
}

// Resolve maps p onto an entry of snap.
func Resolve(snap *location.Snapshot, p string) (Target, error) {
	id, rel, err := Split(p)
	if err != nil {
		return Target{}, err
	}
	if id == "" {
		return Target{Rel: rel, Root: true}, nil
	}
	e, ok := snap.Lookup(id)
	if !ok {
		return Target{}, apperrors.NewUnknownLocationError("resolve", p)
	}
	return Target{Entry: e, Rel: rel}, nil
}
