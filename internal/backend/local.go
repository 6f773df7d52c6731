package backend

import (
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// Space is the result of a filesystem space query.
type Space struct {
	Total     uint64
	Free      uint64
	Available uint64
	BlockSize uint64
}

// SpaceFS is implemented by backends that can report filesystem space.
type SpaceFS interface {
	Space(name string) (Space, error)
}

// LocalFS is a backend rooted at a directory of the host filesystem.
type LocalFS struct {
	afero.Fs
	root string
}

// NewLocalFS returns a filesystem confined to root.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{Fs: afero.NewBasePathFs(afero.NewOsFs(), root), root: root}
}

// Root returns the host directory backing the filesystem.
func (l *LocalFS) Root() string { return l.root }

func (l *LocalFS) Name() string { return "local:" + l.root }

func (l *LocalFS) Space(name string) (Space, error) {
	return statfs(filepath.Join(l.root, filepath.FromSlash(path.Clean("/"+name))))
}

// localFS builds the filesystem of a host-directory backend.
func localFS(root string, readOnly bool) afero.Fs {
	fs := NewLocalFS(root)
	if readOnly {
		return ReadOnly(fs)
	}
	return fs
}

type readOnlyFS struct {
	afero.Fs
	inner afero.Fs
}

// ReadOnly wraps fs so every mutation fails with EPERM while space queries
// still reach the wrapped backend.
func ReadOnly(fs afero.Fs) afero.Fs {
	return &readOnlyFS{Fs: afero.NewReadOnlyFs(fs), inner: fs}
}

func (r *readOnlyFS) Space(name string) (Space, error) {
	if s, ok := r.inner.(SpaceFS); ok {
		return s.Space(name)
	}
	return Space{}, &os.PathError{Op: "statfs", Path: name, Err: errors.ErrUnsupported}
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
