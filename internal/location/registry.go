// Package location turns raw storage backends into an ordered, canonically
// named set of locations.
package location

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	logging "github.com/ipfs/go-log/v2"

	"vroot/internal/backend"
	"vroot/internal/constants"
)

var log = logging.Logger("vroot/location")

// Enumerator is the backend discovery the registry builds from.
type Enumerator interface {
	Enumerate(ctx context.Context, writeIntent bool) backend.Result
}

// Options select what List returns.
type Options struct {
	WriteIntent   bool // only locations that accept writes
	IncludeHidden bool // include reserved partitions
}

// Registry builds location snapshots on demand. It keeps no state between
// builds.
type Registry struct {
	enum        Enumerator
	extraHidden []string
	metrics     *Metrics
	now         func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithExtraHidden hides locations whose id (without ':') matches one of the
// doublestar patterns.
func WithExtraHidden(patterns ...string) Option {
	return func(r *Registry) { r.extraHidden = append(r.extraHidden, patterns...) }
}

// WithMetrics instruments the registry.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry returns a registry over enum.
func NewRegistry(enum Enumerator, opts ...Option) *Registry {
	r := &Registry{enum: enum, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// List returns the current locations. Hidden entries are left out unless
// o.IncludeHidden is set.
func (r *Registry) List(ctx context.Context, o Options) *Snapshot {
	snap := r.Build(ctx, o.WriteIntent, o.IncludeHidden)
	if o.IncludeHidden {
		return snap
	}
	return snap.Visible()
}

// Build enumerates every source and returns all entries, hidden ones
// included with Visible false unless showHidden. Source failures are logged
// and never returned; an empty snapshot is a valid result.
func (r *Registry) Build(ctx context.Context, writeIntent, showHidden bool) *Snapshot {
	res := r.enum.Enumerate(ctx, writeIntent)
	var failed []string
	if res.Err != nil {
		log.Warnf("some storage sources are unavailable: %v", res.Err)
		for _, k := range res.Failed {
			failed = append(failed, k.String())
		}
	}

	reserved := 0
	taken := make(map[string]bool, len(res.Records))
	entries := make([]Entry, 0, len(res.Records))
	for _, rec := range res.Records {
		if writeIntent && rec.ReadOnly {
			continue
		}
		c := canonicalize(rec)
		e := Entry{
			ID:        uniqueID(taken, c.base),
			Label:     c.label,
			ReadOnly:  rec.ReadOnly,
			SortKey:   c.category.SortKey(),
			Category:  c.category,
			Kind:      rec.Kind,
			Removable: rec.Removable,
			Capacity:  rec.Capacity,
			FSType:    rec.FSType,
			Mount:     rec.Mount,
			FS:        rec.FS,
		}
		if e.ReadOnly {
			e.Label = markReadOnly(e.Label)
		}
		isHidden := rec.Hidden || r.hidden(e.ID)
		if isHidden {
			reserved++
		}
		e.Visible = showHidden || !isHidden
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	snap := newSnapshot(entries, r.now())
	r.metrics.observe(snap.Len(), reserved, failed)
	log.Debugf("built %d locations (write=%v hidden=%v)", snap.Len(), writeIntent, showHidden)
	return snap
}

func less(a, b Entry) bool {
	if a.SortKey != b.SortKey {
		return a.SortKey < b.SortKey
	}
	if a.Label != b.Label {
		return a.Label < b.Label
	}
	return a.ID < b.ID
}

// hidden reports whether id belongs to the reserved set or matches a
// configured pattern.
func (r *Registry) hidden(id string) bool {
	bare := strings.TrimSuffix(id, string(constants.LocationSeparator))
	if hiddenIDs[bare] {
		return true
	}
	for _, p := range r.extraHidden {
		if ok, err := doublestar.Match(p, bare); err == nil && ok {
			return true
		}
	}
	return false
}

// uniqueID appends the separator, disambiguating repeated bases with -2, -3, ...
func uniqueID(taken map[string]bool, base string) string {
	id := base + string(constants.LocationSeparator)
	for n := 2; taken[id]; n++ {
		id = fmt.Sprintf("%s-%d%c", base, n, constants.LocationSeparator)
	}
	taken[id] = true
	return id
}
