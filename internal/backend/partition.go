package backend

import (
	"context"

	"vroot/internal/config"
	"vroot/internal/constants"
)

// PartitionSource reports the fixed internal partitions (game data, album,
// user, system, ...). A partition whose directory is missing is absent.
type PartitionSource struct {
	Partitions []config.PartitionConfig
}

func (s *PartitionSource) Kind() Kind { return KindPartition }

func (s *PartitionSource) Enumerate(ctx context.Context) ([]Record, error) {
	out := make([]Record, 0, len(s.Partitions))
	for _, p := range s.Partitions {
		if !isDir(p.Path) {
			log.Debugf("partition %q not present at %s", p.Name, p.Path)
			continue
		}
		rec := Record{
			Kind:     KindPartition,
			NativeID: p.Name,
			Name:     p.Name,
			ReadOnly: p.ReadOnly,
			Hidden:   p.Hidden,
			Mount:    p.Path,
		}
		rec.FS = localFS(p.Path, rec.ReadOnly)
		out = append(out, rec)
	}
	return out, nil
}

// CardSource reports the removable card when it is mounted.
type CardSource struct {
	Enabled bool
	Path    string
}

func (s *CardSource) Kind() Kind { return KindCard }

func (s *CardSource) Enumerate(ctx context.Context) ([]Record, error) {
	if !s.Enabled {
		return nil, ErrUnsupported
	}
	if !isDir(s.Path) {
		return nil, nil
	}
	rec := Record{
		Kind:      KindCard,
		NativeID:  constants.NativeCard,
		Name:      constants.NativeCard,
		ReadOnly:  !writable(s.Path),
		Removable: true,
		Mount:     s.Path,
	}
	if sp, err := statfs(s.Path); err == nil {
		rec.Capacity = sp.Total
	}
	rec.FS = localFS(s.Path, rec.ReadOnly)
	return []Record{rec}, nil
}
