package backend

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mholt/archives"
	"github.com/spf13/afero"

	"vroot/internal/constants"
)

// OpticalSource reports mounted optical discs and disc/archive images.
// Both are always read-only.
type OpticalSource struct {
	Enabled       bool
	MountInfoPath string
	FSTypes       []string
	ImageGlobs    []string
}

func (s *OpticalSource) Kind() Kind { return KindOptical }

// Exclusive is true: the drive is probed through a shared device bus.
func (s *OpticalSource) Exclusive() bool { return true }

func (s *OpticalSource) Enumerate(ctx context.Context) ([]Record, error) {
	if !s.Enabled {
		return nil, ErrUnsupported
	}
	var out []Record
	next := func() string { return fmt.Sprintf("%s%d", constants.OpticalPrefix, len(out)) }

	mounts, err := readMountInfo(s.mountInfoPath())
	if err != nil {
		// no mount table on this host, images may still be configured
		log.Debugf("optical: mount table unavailable: %v", err)
	}
	for _, m := range mounts {
		if !containsFold(s.FSTypes, m.FSType) {
			continue
		}
		rec := Record{
			Kind:      KindOptical,
			NativeID:  next(),
			Name:      filepath.Base(m.MountPoint),
			ReadOnly:  true,
			Removable: true,
			FSType:    m.FSType,
			Mount:     m.MountPoint,
			FS:        localFS(m.MountPoint, true),
		}
		if sp, err := statfs(m.MountPoint); err == nil {
			rec.Capacity = sp.Total
		}
		out = append(out, rec)
	}

	for _, pattern := range s.ImageGlobs {
		files, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			log.Warnf("optical: bad image pattern %q: %v", pattern, err)
			continue
		}
		for _, file := range files {
			rec, err := openImage(ctx, file)
			if err != nil {
				log.Warnf("optical: skipping image %s: %v", file, err)
				continue
			}
			rec.NativeID = next()
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *OpticalSource) mountInfoPath() string {
	if s.MountInfoPath == "" {
		return constants.DefaultMountInfoPath
	}
	return s.MountInfoPath
}

func openImage(ctx context.Context, file string) (Record, error) {
	fi, err := os.Stat(file)
	if err != nil {
		return Record{}, err
	}
	if fi.IsDir() {
		return Record{}, fmt.Errorf("%s is a directory", file)
	}
	fsys, err := archives.FileSystem(ctx, file, nil)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Kind:      KindOptical,
		Name:      filepath.Base(file),
		ReadOnly:  true,
		Removable: true,
		Capacity:  uint64(fi.Size()),
		FSType:    strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), "."),
		Mount:     file,
		FS:        ReadOnly(imageFS{Fs: afero.FromIOFS{FS: fsys}, fsys: fsys}),
	}, nil
}

// imageFS maps slash-rooted backend paths onto io/fs names. Directories
// are listed through fs.ReadDir, which also covers directories an archive
// only implies through its file names.
type imageFS struct {
	afero.Fs
	fsys fs.FS
}

func ioName(name string) string {
	n := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	if n == "" {
		return "."
	}
	return n
}

func (f imageFS) Open(name string) (afero.File, error) {
	n := ioName(name)
	file, err := f.Fs.Open(n)
	if err != nil {
		return nil, err
	}
	return &imageFile{File: file, fsys: f.fsys, name: n}, nil
}

func (f imageFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) == 0 {
		return f.Open(name)
	}
	return f.Fs.OpenFile(ioName(name), flag, perm)
}

func (f imageFS) Stat(name string) (os.FileInfo, error) { return f.Fs.Stat(ioName(name)) }

func (f imageFS) Name() string { return "image" }

// imageFile lists directories with a cursor over fs.ReadDir.
type imageFile struct {
	afero.File
	fsys    fs.FS
	name    string
	entries []fs.DirEntry
	loaded  bool
	pos     int
}

func (f *imageFile) Readdir(count int) ([]os.FileInfo, error) {
	if !f.loaded {
		entries, err := fs.ReadDir(f.fsys, f.name)
		if err != nil {
			return nil, &os.PathError{Op: "readdir", Path: f.name, Err: err}
		}
		f.entries, f.loaded = entries, true
	}
	rest := f.entries[f.pos:]
	if count > 0 {
		if len(rest) == 0 {
			return nil, io.EOF
		}
		if count < len(rest) {
			rest = rest[:count]
		}
	}
	out := make([]os.FileInfo, 0, len(rest))
	for _, e := range rest {
		fi, err := e.Info()
		if err != nil {
			return out, err
		}
		out = append(out, fi)
		f.pos++
	}
	return out, nil
}

func (f *imageFile) Readdirnames(n int) ([]string, error) {
	fis, err := f.Readdir(n)
	names := make([]string, len(fis))
	for i, fi := range fis {
		names[i] = fi.Name()
	}
	return names, err
}

func (f *imageFile) Seek(offset int64, whence int) (int64, error) {
	if f.loaded && offset == 0 && whence == io.SeekStart {
		f.pos = 0
	}
	return f.File.Seek(offset, whence)
}
