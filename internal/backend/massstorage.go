package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vroot/internal/constants"
)

// MassStorageSource reports USB mass-storage volumes mounted by the host.
// Volumes are numbered ums0, ums1, ... in mount order.
type MassStorageSource struct {
	Enabled       bool
	MountInfoPath string
	MountGlobs    []string
	FSTypes       []string
	SysBlockPath  string
}

func (s *MassStorageSource) Kind() Kind { return KindMassStorage }

func (s *MassStorageSource) Enumerate(ctx context.Context) ([]Record, error) {
	if !s.Enabled {
		return nil, ErrUnsupported
	}
	mounts, err := readMountInfo(s.mountInfoPath())
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, m := range mounts {
		if !containsFold(s.FSTypes, m.FSType) || !matchAny(s.MountGlobs, m.MountPoint) {
			continue
		}
		rec := Record{
			Kind:      KindMassStorage,
			NativeID:  fmt.Sprintf("%s%d", constants.MassStoragePrefix, len(out)),
			Name:      filepath.Base(m.MountPoint),
			ReadOnly:  m.readOnly(),
			Removable: true,
			FSType:    m.FSType,
			Mount:     m.MountPoint,
		}
		rec.Vendor, rec.Product = deviceInfo(s.sysBlockPath(), m.Source)
		if sp, err := statfs(m.MountPoint); err == nil {
			rec.Capacity = sp.Total
		}
		rec.FS = localFS(m.MountPoint, rec.ReadOnly)
		out = append(out, rec)
	}
	return out, nil
}

func (s *MassStorageSource) mountInfoPath() string {
	if s.MountInfoPath == "" {
		return constants.DefaultMountInfoPath
	}
	return s.MountInfoPath
}

func (s *MassStorageSource) sysBlockPath() string {
	if s.SysBlockPath == "" {
		return constants.DefaultSysBlockPath
	}
	return s.SysBlockPath
}

// deviceInfo reads vendor and model for a block device such as /dev/sdb1.
// Partitions carry no device directory of their own, so the parent disk is
// tried as well.
func deviceInfo(sysBlock, devNode string) (vendor, product string) {
	if !strings.HasPrefix(devNode, "/dev/") {
		return "", ""
	}
	node := filepath.Join(sysBlock, filepath.Base(devNode))
	resolved, err := filepath.EvalSymlinks(node)
	if err != nil {
		resolved = node
	}
	for _, dir := range []string{resolved, filepath.Dir(resolved)} {
		dev := filepath.Join(dir, "device")
		v := readSysAttr(filepath.Join(dev, "vendor"))
		p := readSysAttr(filepath.Join(dev, "model"))
		if v != "" || p != "" {
			return v, p
		}
	}
	return "", ""
}

func readSysAttr(p string) string {
	b, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
