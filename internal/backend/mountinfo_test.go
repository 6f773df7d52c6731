package backend

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMountInfoLine(t *testing.T) {
	line := `36 35 8:17 / /media/usb\040stick rw,nosuid,relatime shared:1 - vfat /dev/sdb1 rw,uid=1000`
	fsType, src, mp, superOpts, opts, ok := parseMountInfo(line)
	if !ok {
		t.Fatalf("line not parsed")
	}
	if fsType != "vfat" || src != "/dev/sdb1" {
		t.Fatalf("fstype/source mismatch: %q %q", fsType, src)
	}
	if mp != "/media/usb stick" {
		t.Fatalf("mount point not decoded: %q", mp)
	}
	if opts != "rw,nosuid,relatime" || superOpts != "rw,uid=1000" {
		t.Fatalf("options mismatch: %q %q", opts, superOpts)
	}
}

func TestParseMountInfoRejectsShortLines(t *testing.T) {
	if _, _, _, _, _, ok := parseMountInfo("garbage"); ok {
		t.Fatalf("expected rejection")
	}
	if _, _, _, _, _, ok := parseMountInfo("1 2 3 - vfat"); ok {
		t.Fatalf("expected rejection of truncated line")
	}
}

func TestReadMountInfoReadOnly(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mountinfo")
	data := "36 35 8:17 / /media/a ro,relatime - vfat /dev/sdb1 rw\n" +
		"37 35 8:33 / /media/b rw,relatime - exfat /dev/sdc1 ro\n" +
		"38 35 8:49 / /media/c rw,relatime - ext4 /dev/sdd1 rw\n"
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	mounts, err := readMountInfo(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(mounts) != 3 {
		t.Fatalf("want 3 mounts, got %d", len(mounts))
	}
	if !mounts[0].readOnly() || !mounts[1].readOnly() || mounts[2].readOnly() {
		t.Fatalf("read-only detection wrong: %+v", mounts)
	}
}

func TestMatchAny(t *testing.T) {
	globs := []string{"/media/**", "/run/media/*/*"}
	if !matchAny(globs, "/media/alice/STICK") {
		t.Fatalf("deep /media mount should match")
	}
	if !matchAny(globs, "/run/media/bob/DISK") {
		t.Fatalf("/run/media mount should match")
	}
	if matchAny(globs, "/home") {
		t.Fatalf("/home should not match")
	}
	if matchAny([]string{"[unclosed"}, "/media") {
		t.Fatalf("malformed pattern should never match")
	}
}
