package vfs

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/afero"

	"vroot/internal/backend"
	apperrors "vroot/internal/errors"
	"vroot/internal/location"
)

var log = logging.Logger("vroot/vfs")

// Lister is the registry surface the multiplexer needs.
type Lister interface {
	List(ctx context.Context, o location.Options) *location.Snapshot
}

// Mux is an afero.Fs over every storage location. Operations below a
// location are forwarded to the location's own filesystem and its errors
// are returned unchanged.
type Mux struct {
	reg        Lister
	showHidden bool

	mu    sync.RWMutex
	cache *location.Snapshot // resolution snapshot, hidden entries included
}

var _ afero.Fs = (*Mux)(nil)

// MuxOption configures a Mux.
type MuxOption func(*Mux)

// WithShowHidden lists hidden locations at the root.
func WithShowHidden(show bool) MuxOption {
	return func(m *Mux) { m.showHidden = show }
}

// NewMux returns a multiplexer over the locations reg lists.
func NewMux(reg Lister, opts ...MuxOption) *Mux {
	m := &Mux{reg: reg}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Refresh rebuilds the snapshot used to resolve paths.
func (m *Mux) Refresh(ctx context.Context) *location.Snapshot {
	snap := m.reg.List(ctx, location.Options{IncludeHidden: true})
	m.mu.Lock()
	m.cache = snap
	m.mu.Unlock()
	return snap
}

func (m *Mux) snapshot() *location.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache
}

// listRoot takes the snapshot a root listing session serves.
func (m *Mux) listRoot(ctx context.Context) *location.Snapshot {
	return m.reg.List(ctx, location.Options{IncludeHidden: m.showHidden})
}

// resolve maps p to a location. A location missing from the cached snapshot
// triggers one rebuild before giving up.
func (m *Mux) resolve(ctx context.Context, op, p string) (Target, error) {
	id, _, err := Split(p)
	if err != nil {
		var ae *apperrors.AppError
		if errors.As(err, &ae) {
			ae.Operation = op
		}
		return Target{}, err
	}
	snap := m.snapshot()
	if _, ok := snap.Lookup(id); !ok && id != "" {
		log.Debugf("%s: %s not cached, refreshing", op, id)
		snap = m.Refresh(ctx)
	}
	t, err := Resolve(snap, p)
	if err != nil {
		return Target{}, apperrors.NewUnknownLocationError(op, p)
	}
	return t, nil
}

// target resolves p for an operation that needs a real location.
func (m *Mux) target(op, p string) (Target, error) {
	t, err := m.resolve(context.Background(), op, p)
	if err != nil {
		return Target{}, err
	}
	if t.Root {
		return Target{}, apperrors.NewUnknownLocationError(op, p)
	}
	return t, nil
}

func isRoot(t Target) bool { return t.Root && t.Rel == "/" }

func (m *Mux) Name() string { return "vroot" }

func (m *Mux) Create(name string) (afero.File, error) {
	t, err := m.target("create", name)
	if err != nil {
		return nil, err
	}
	return t.Entry.FS.Create(t.Rel)
}

func (m *Mux) Mkdir(name string, perm os.FileMode) error {
	t, err := m.target("mkdir", name)
	if err != nil {
		return err
	}
	return t.Entry.FS.Mkdir(t.Rel, perm)
}

func (m *Mux) MkdirAll(name string, perm os.FileMode) error {
	t, err := m.target("mkdir", name)
	if err != nil {
		return err
	}
	return t.Entry.FS.MkdirAll(t.Rel, perm)
}

// Open opens a file. Opening the virtual root returns a directory handle
// that lists the visible locations.
func (m *Mux) Open(name string) (afero.File, error) {
	t, err := m.resolve(context.Background(), "open", name)
	if err != nil {
		return nil, err
	}
	if isRoot(t) {
		return newRootFile(newRootDir(context.Background(), m)), nil
	}
	if t.Root {
		return nil, apperrors.NewUnknownLocationError("open", name)
	}
	return t.Entry.FS.Open(t.Rel)
}

func (m *Mux) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) == 0 {
		return m.Open(name)
	}
	t, err := m.target("open", name)
	if err != nil {
		return nil, err
	}
	return t.Entry.FS.OpenFile(t.Rel, flag, perm)
}

func (m *Mux) Remove(name string) error {
	t, err := m.target("remove", name)
	if err != nil {
		return err
	}
	return t.Entry.FS.Remove(t.Rel)
}

func (m *Mux) RemoveAll(name string) error {
	t, err := m.target("remove", name)
	if err != nil {
		return err
	}
	return t.Entry.FS.RemoveAll(t.Rel)
}

// Rename moves a file within one location. Moving between locations fails
// with EXDEV like a rename across mounts.
func (m *Mux) Rename(oldname, newname string) error {
	from, err := m.target("rename", oldname)
	if err != nil {
		return err
	}
	to, err := m.target("rename", newname)
	if err != nil {
		return err
	}
	if from.Entry.ID != to.Entry.ID {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EXDEV}
	}
	return from.Entry.FS.Rename(from.Rel, to.Rel)
}

// Stat reports a synthetic directory for the virtual root.
func (m *Mux) Stat(name string) (os.FileInfo, error) {
	t, err := m.resolve(context.Background(), "stat", name)
	if err != nil {
		return nil, err
	}
	if isRoot(t) {
		return rootInfo{}, nil
	}
	if t.Root {
		return nil, apperrors.NewUnknownLocationError("stat", name)
	}
	return t.Entry.FS.Stat(t.Rel)
}

func (m *Mux) Chmod(name string, mode os.FileMode) error {
	t, err := m.target("chmod", name)
	if err != nil {
		return err
	}
	return t.Entry.FS.Chmod(t.Rel, mode)
}

func (m *Mux) Chown(name string, uid, gid int) error {
	t, err := m.target("chown", name)
	if err != nil {
		return err
	}
	return t.Entry.FS.Chown(t.Rel, uid, gid)
}

func (m *Mux) Chtimes(name string, atime, mtime time.Time) error {
	t, err := m.target("chtimes", name)
	if err != nil {
		return err
	}
	return t.Entry.FS.Chtimes(t.Rel, atime, mtime)
}

// Truncate changes the size of a file.
func (m *Mux) Truncate(name string, size int64) error {
	t, err := m.target("truncate", name)
	if err != nil {
		return err
	}
	f, err := t.Entry.FS.OpenFile(t.Rel, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	err = f.Truncate(size)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Sync flushes a file to its backend.
func (m *Mux) Sync(name string) error {
	t, err := m.target("sync", name)
	if err != nil {
		return err
	}
	f, err := t.Entry.FS.Open(t.Rel)
	if err != nil {
		return err
	}
	err = f.Sync()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Space reports the capacity of the location holding name.
func (m *Mux) Space(name string) (backend.Space, error) {
	t, err := m.target("statfs", name)
	if err != nil {
		return backend.Space{}, err
	}
	sfs, ok := t.Entry.FS.(backend.SpaceFS)
	if !ok {
		return backend.Space{}, &os.PathError{Op: "statfs", Path: name, Err: errors.ErrUnsupported}
	}
	return sfs.Space(t.Rel)
}

// OpenDir starts a directory listing session. At the virtual root the
// session serves the visible locations; elsewhere it reads the backend
// directory.
func (m *Mux) OpenDir(ctx context.Context, name string) (Dir, error) {
	t, err := m.resolve(ctx, "opendir", name)
	if err != nil {
		return nil, err
	}
	if isRoot(t) {
		return newRootDir(ctx, m), nil
	}
	if t.Root {
		return nil, apperrors.NewUnknownLocationError("opendir", name)
	}
	d, err := openDelegated(t.Entry.FS, t.Rel)
	if err != nil {
		return nil, err
	}
	return d, nil
}
