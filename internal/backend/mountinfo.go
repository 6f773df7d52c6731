package backend

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// mountEntry is the part of a mountinfo line the sources care about.
type mountEntry struct {
	FSType     string
	Source     string
	MountPoint string
	Options    []string
}

func (m mountEntry) readOnly() bool {
	for _, o := range m.Options {
		if o == "ro" {
			return true
		}
	}
	return false
}

// readMountInfo parses every line of a mountinfo file (normally /proc/self/mountinfo).
func readMountInfo(path string) ([]mountEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fsType, src, mp, superOpts, opts, ok := parseMountInfo(scanner.Text())
		if !ok {
			continue
		}
		out = append(out, mountEntry{
			FSType:     fsType,
			Source:     src,
			MountPoint: mp,
			Options:    splitOptions(opts, superOpts),
		})
	}
	return out, scanner.Err()
}

// parseMountInfo extracts minimal fields from a mountinfo line.
func parseMountInfo(line string) (fsType, source, mountPoint, superOpts, opts string, ok bool) {
	// split at " - " separator
	parts := strings.SplitN(line, " - ", 2)
	if len(parts) != 2 {
		return
	}
	left := strings.Fields(parts[0])
	right := strings.Fields(parts[1])
	// mountinfo may have zero optional fields; accept 6+ tokens on the left side.
	if len(left) < 6 || len(right) < 3 {
		return
	}
	// left fields: id parent major:minor root mountPoint opts [optional...]
	mountPoint = decodeMountPoint(left[4])
	opts = left[5]
	// right fields: fstype source superOpts
	fsType = right[0]
	source = decodeMountPoint(right[1])
	superOpts = strings.Join(right[2:], " ")
	ok = true
	return
}

// decodeMountPoint converts mountinfo octal escapes (e.g., \040 -> space).
func decodeMountPoint(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func splitOptions(lists ...string) []string {
	var out []string
	for _, l := range lists {
		for _, o := range strings.Split(l, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// matchAny reports whether p matches one of the doublestar patterns.
// Malformed patterns never match.
func matchAny(patterns []string, p string) bool {
	p = filepath.ToSlash(p)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, p); err == nil && ok {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
