//go:build linux

package backend

import (
	"os"

	"golang.org/x/sys/unix"
)

func statfs(p string) (Space, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(p, &st); err != nil {
		return Space{}, &os.PathError{Op: "statfs", Path: p, Err: err}
	}
	bs := uint64(st.Bsize)
	return Space{
		Total:     st.Blocks * bs,
		Free:      st.Bfree * bs,
		Available: st.Bavail * bs,
		BlockSize: bs,
	}, nil
}

// writable reports whether the current user may write below p.
func writable(p string) bool {
	return unix.Access(p, unix.W_OK) == nil
}
