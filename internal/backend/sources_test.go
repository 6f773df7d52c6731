package backend

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vroot/internal/config"
)

func TestPartitionSourceSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	games := filepath.Join(dir, "games")
	require.NoError(t, os.Mkdir(games, 0o755))

	src := &PartitionSource{Partitions: []config.PartitionConfig{
		{Name: "games", Path: games, ReadOnly: true},
		{Name: "user", Path: filepath.Join(dir, "missing")},
	}}
	records, err := src.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "games", records[0].NativeID)
	assert.True(t, records[0].ReadOnly)

	err = afero.WriteFile(records[0].FS, "/x", []byte("x"), 0o644)
	assert.Error(t, err, "read-only partition accepted a write")
}

func TestCardSource(t *testing.T) {
	dir := t.TempDir()

	_, err := (&CardSource{Path: dir}).Enumerate(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)

	records, err := (&CardSource{Enabled: true, Path: filepath.Join(dir, "nope")}).Enumerate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = (&CardSource{Enabled: true, Path: dir}).Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "microSD card", records[0].NativeID)
	assert.True(t, records[0].Removable)

	require.NoError(t, afero.WriteFile(records[0].FS, "/hello.txt", []byte("hi"), 0o644))
	b, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(b))
}

func TestMassStorageSource(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "media", "STICK")
	b := filepath.Join(dir, "media", "DISK")
	require.NoError(t, os.MkdirAll(a, 0o755))
	require.NoError(t, os.MkdirAll(b, 0o755))

	// sysfs layout: <sys>/sdb1 -> <sys>/devices/sdb/sdb1, vendor on the disk
	sys := filepath.Join(dir, "sys")
	disk := filepath.Join(sys, "devices", "sdb")
	require.NoError(t, os.MkdirAll(filepath.Join(disk, "sdb1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(disk, "device"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(disk, "device", "vendor"), []byte("SanDisk \n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(disk, "device", "model"), []byte("Ultra\n"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(disk, "sdb1"), filepath.Join(sys, "sdb1")))

	mi := filepath.Join(dir, "mountinfo")
	lines := fmt.Sprintf("20 1 8:1 / / rw - ext4 /dev/sda1 rw\n"+
		"36 20 8:17 / %s rw - vfat /dev/sdb1 rw\n"+
		"37 20 8:33 / %s ro - exfat /dev/sdc1 ro\n", a, b)
	require.NoError(t, os.WriteFile(mi, []byte(lines), 0o644))

	src := &MassStorageSource{
		Enabled:       true,
		MountInfoPath: mi,
		MountGlobs:    []string{filepath.ToSlash(filepath.Join(dir, "media")) + "/**"},
		FSTypes:       []string{"vfat", "exfat"},
		SysBlockPath:  sys,
	}
	records, err := src.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "ums0", records[0].NativeID)
	assert.Equal(t, "vfat", records[0].FSType)
	assert.Equal(t, "SanDisk", records[0].Vendor)
	assert.Equal(t, "Ultra", records[0].Product)
	assert.False(t, records[0].ReadOnly)

	assert.Equal(t, "ums1", records[1].NativeID)
	assert.True(t, records[1].ReadOnly)
	assert.Empty(t, records[1].Vendor)
}

func TestMassStorageDisabled(t *testing.T) {
	_, err := (&MassStorageSource{}).Enumerate(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func writeZip(t *testing.T, p string, files map[string]string) {
	t.Helper()
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestOpticalSourceImages(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "disc.zip"), map[string]string{
		"readme.txt":           "insert disc 2",
		"extras/art/cover.png": "png",
		"extras/notes.txt":     "notes",
	})

	src := &OpticalSource{
		Enabled:       true,
		MountInfoPath: filepath.Join(dir, "no-mountinfo"),
		ImageGlobs:    []string{filepath.ToSlash(dir) + "/*.zip"},
	}
	assert.True(t, src.Exclusive())

	records, err := src.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "dvd0", r.NativeID)
	assert.True(t, r.ReadOnly)
	assert.Equal(t, "zip", r.FSType)

	b, err := afero.ReadFile(r.FS, "/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "insert disc 2", string(b))

	assert.Error(t, afero.WriteFile(r.FS, "/new.txt", []byte("x"), 0o644))

	// the zip has no entries for extras/ or extras/art/
	d, err := r.FS.Open("/extras")
	require.NoError(t, err)
	names, err := d.Readdirnames(-1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"art", "notes.txt"}, names)
	require.NoError(t, d.Close())

	d, err = r.FS.Open("/extras/art")
	require.NoError(t, err)
	fis, err := d.Readdir(1)
	require.NoError(t, err)
	require.Len(t, fis, 1)
	assert.Equal(t, "cover.png", fis[0].Name())
	_, err = d.Readdir(1)
	assert.Equal(t, io.EOF, err)
	require.NoError(t, d.Close())

	root, err := r.FS.Open("/")
	require.NoError(t, err)
	names, err = root.Readdirnames(-1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"readme.txt", "extras"}, names)
	require.NoError(t, root.Close())
}

func TestIOName(t *testing.T) {
	cases := map[string]string{
		"":          ".",
		"/":         ".",
		"/a/b":      "a/b",
		"a/../b":    "b",
		"/a/b/../c": "a/c",
	}
	for in, want := range cases {
		assert.Equal(t, want, ioName(in), "ioName(%q)", in)
	}
}

func TestNetworkSourceUsesKernelMount(t *testing.T) {
	dir := t.TempDir()
	nas := filepath.Join(dir, "nas")
	backup := filepath.Join(dir, "backup")
	require.NoError(t, os.Mkdir(nas, 0o755))
	require.NoError(t, os.Mkdir(backup, 0o755))

	mi := filepath.Join(dir, "mountinfo")
	lines := fmt.Sprintf("40 20 0:50 / %s rw - cifs //NAS/Media rw,vers=3.0\n"+
		"41 20 0:51 / %s ro - smb3 //other/x ro,unc=\\\\fileserver\\backup\n", nas, backup)
	require.NoError(t, os.WriteFile(mi, []byte(lines), 0o644))

	src := &NetworkSource{
		Enabled: true,
		Shares: []config.ShareConfig{
			{Name: "media", Host: "nas", Share: "media"},
			{Host: "fileserver", Share: "backup"},
		},
		MountInfoPath: mi,
	}
	records, err := src.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "media", records[0].NativeID)
	assert.Equal(t, "cifs", records[0].FSType)
	assert.Equal(t, nas, records[0].Mount)
	assert.False(t, records[0].ReadOnly)
	require.NoError(t, afero.WriteFile(records[0].FS, "/movie.mkv", []byte("m"), 0o644))
	assert.FileExists(t, filepath.Join(nas, "movie.mkv"))

	assert.Equal(t, "backup", records[1].NativeID)
	assert.True(t, records[1].ReadOnly, "ro mount option")
	assert.Error(t, afero.WriteFile(records[1].FS, "/x", []byte("x"), 0o644))
}

func TestNetworkSourceDisabled(t *testing.T) {
	_, err := (&NetworkSource{}).Enumerate(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}
