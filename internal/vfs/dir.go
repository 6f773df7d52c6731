package vfs

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"

	"vroot/internal/location"
)

// Dir is an open directory listing session.
type Dir interface {
	// ReadNext returns the next entry, or io.EOF at the end of the directory.
	ReadNext() (os.FileInfo, error)
	// Reset rewinds to the first entry.
	Reset() error
	// Close ends the session. Closing twice is allowed.
	Close() error
}

// rootDir lists locations. The snapshot is taken on the first read and kept
// until Close; Reset replays it without listing again.
type rootDir struct {
	ctx    context.Context
	list   func(context.Context) *location.Snapshot
	snap   *location.Snapshot
	pos    int
	closed bool
}

func newRootDir(ctx context.Context, m *Mux) *rootDir {
	return &rootDir{ctx: ctx, list: m.listRoot}
}

func (d *rootDir) ReadNext() (os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	if d.snap == nil {
		d.snap = d.list(d.ctx)
		d.pos = 0
	}
	if d.pos >= d.snap.Len() {
		return nil, io.EOF
	}
	e := d.snap.At(d.pos)
	d.pos++
	return entryInfo{e: e, mod: d.snap.BuiltAt()}, nil
}

func (d *rootDir) Reset() error {
	if d.closed {
		return os.ErrClosed
	}
	d.pos = 0
	return nil
}

func (d *rootDir) Close() error {
	d.closed = true
	d.snap = nil
	return nil
}

// entryInfo presents a location as a directory of the virtual root.
type entryInfo struct {
	e   location.Entry
	mod time.Time
}

func (i entryInfo) Name() string { return i.e.ID }
func (i entryInfo) Size() int64  { return 0 }
func (i entryInfo) Mode() os.FileMode {
	if i.e.ReadOnly {
		return os.ModeDir | 0o555
	}
	return os.ModeDir | 0o755
}
func (i entryInfo) ModTime() time.Time { return i.mod }
func (i entryInfo) IsDir() bool        { return true }

// Sys returns the location.Entry.
func (i entryInfo) Sys() any { return i.e }

type rootInfo struct{}

func (rootInfo) Name() string       { return "/" }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() os.FileMode  { return os.ModeDir | 0o555 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() any           { return nil }

// delegatedDir forwards to a backend directory handle. Reset reopens the
// directory; not every backend rewinds its readdir cursor on Seek.
type delegatedDir struct {
	fs     afero.Fs
	rel    string
	f      afero.File
	closed bool
}

func openDelegated(fs afero.Fs, rel string) (*delegatedDir, error) {
	f, err := fs.Open(rel)
	if err != nil {
		return nil, err
	}
	return &delegatedDir{fs: fs, rel: rel, f: f}, nil
}

func (d *delegatedDir) ReadNext() (os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	fis, err := d.f.Readdir(1)
	if len(fis) == 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	return fis[0], nil
}

func (d *delegatedDir) Reset() error {
	if d.closed {
		return os.ErrClosed
	}
	f, err := d.fs.Open(d.rel)
	if err != nil {
		return err
	}
	old := d.f
	d.f = f
	return old.Close()
}

func (d *delegatedDir) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.f.Close()
}
