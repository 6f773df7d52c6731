package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"vroot/internal/config"
)

// NetworkSource reports configured SMB shares. A share the kernel already
// has mounted (cifs/smb3 in mountinfo) is served from its mount point;
// others are reached over go-smb2 and must answer a mount.
type NetworkSource struct {
	Enabled       bool
	Shares        []config.ShareConfig
	DialTimeout   time.Duration
	Creds         *CredentialResolver
	MountInfoPath string
}

func (s *NetworkSource) Kind() Kind { return KindNetwork }

// Enumerate resolves every share. Unreachable shares are reported in the
// returned error; the reachable ones are still returned.
func (s *NetworkSource) Enumerate(ctx context.Context) ([]Record, error) {
	if !s.Enabled {
		return nil, ErrUnsupported
	}
	var mounts []mountEntry
	if s.MountInfoPath != "" {
		var err error
		if mounts, err = readMountInfo(s.MountInfoPath); err != nil {
			log.Debugf("network: no mountinfo: %v", err)
		}
	}

	var (
		out  []Record
		errs *multierror.Error
	)
	for _, sh := range s.Shares {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		name := sh.Name
		if name == "" {
			name = sh.Share
		}
		rec := Record{
			Kind:     KindNetwork,
			NativeID: name,
			Name:     name,
			ReadOnly: sh.ReadOnly,
		}

		if m, ok := findShareMount(mounts, sh.Host, sh.Share); ok {
			rec.ReadOnly = rec.ReadOnly || m.readOnly()
			rec.FSType = m.FSType
			rec.Mount = m.MountPoint
			rec.FS = localFS(m.MountPoint, rec.ReadOnly)
			if sp, err := statfs(m.MountPoint); err == nil {
				rec.Capacity = sp.Total
			}
			out = append(out, rec)
			continue
		}

		fs := NewSMBFS(sh.Host, sh.Port, sh.Share, s.DialTimeout, s.Creds)
		if err := fs.Ping(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", fs.Name(), err))
			continue
		}
		rec.FSType = "smb"
		rec.Mount = fs.Name()
		if sp, err := fs.Space(""); err == nil {
			rec.Capacity = sp.Total
		}
		if rec.ReadOnly {
			rec.FS = ReadOnly(fs)
		} else {
			rec.FS = fs
		}
		out = append(out, rec)
	}
	return out, errs.ErrorOrNil()
}

// findShareMount looks for a cifs/smb mount of //host/share, matching either
// the mount source or a unc=\\host\share option.
func findShareMount(mounts []mountEntry, host, share string) (mountEntry, bool) {
	for _, m := range mounts {
		fsType := strings.ToLower(m.FSType)
		if fsType != "cifs" && !strings.Contains(fsType, "smb") {
			continue
		}
		if h, s := parseSourceUNC(m.Source); h != "" && strings.EqualFold(h, host) && strings.EqualFold(s, share) {
			return m, true
		}
		for _, o := range m.Options {
			k, v, ok := strings.Cut(o, "=")
			if !ok || !strings.EqualFold(k, "unc") {
				continue
			}
			if h, s := parseBackslashUNC(v); h != "" && strings.EqualFold(h, host) && strings.EqualFold(s, share) {
				return m, true
			}
		}
	}
	return mountEntry{}, false
}

func parseSourceUNC(src string) (host, share string) {
	if rest, ok := strings.CutPrefix(src, "//"); ok {
		parts := strings.Split(rest, "/")
		if len(parts) >= 2 {
			return parts[0], parts[1]
		}
	}
	return "", ""
}

func parseBackslashUNC(unc string) (host, share string) {
	parts := strings.Split(strings.TrimPrefix(unc, `\\`), `\`)
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return "", ""
}
