package vfs

import (
	"io"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// rootFile is the afero.File returned when the virtual root is opened.
type rootFile struct {
	dir *rootDir
}

var _ afero.File = (*rootFile)(nil)

func newRootFile(d *rootDir) *rootFile { return &rootFile{dir: d} }

func isDirErr(op string) error {
	return &os.PathError{Op: op, Path: "/", Err: syscall.EISDIR}
}

func (f *rootFile) Name() string { return "/" }

func (f *rootFile) Close() error { return f.dir.Close() }

func (f *rootFile) Read(p []byte) (int, error)              { return 0, isDirErr("read") }
func (f *rootFile) ReadAt(p []byte, off int64) (int, error) { return 0, isDirErr("read") }
func (f *rootFile) Write(p []byte) (int, error)             { return 0, isDirErr("write") }
func (f *rootFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, isDirErr("write")
}
func (f *rootFile) WriteString(s string) (int, error) { return 0, isDirErr("write") }
func (f *rootFile) Truncate(size int64) error         { return isDirErr("truncate") }
func (f *rootFile) Sync() error                       { return nil }

func (f *rootFile) Stat() (os.FileInfo, error) { return rootInfo{}, nil }

// Seek only supports rewinding to the first entry.
func (f *rootFile) Seek(offset int64, whence int) (int64, error) {
	if offset != 0 || whence != io.SeekStart {
		return 0, &os.PathError{Op: "seek", Path: "/", Err: syscall.EINVAL}
	}
	return 0, f.dir.Reset()
}

// Readdir follows os.File semantics: count <= 0 returns everything left
// with a nil error, count > 0 returns io.EOF once exhausted.
func (f *rootFile) Readdir(count int) ([]os.FileInfo, error) {
	var out []os.FileInfo
	for count <= 0 || len(out) < count {
		fi, err := f.dir.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, fi)
	}
	if count > 0 && len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

func (f *rootFile) Readdirnames(n int) ([]string, error) {
	fis, err := f.Readdir(n)
	names := make([]string, len(fis))
	for i, fi := range fis {
		names[i] = fi.Name()
	}
	return names, err
}
