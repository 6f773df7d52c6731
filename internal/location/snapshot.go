package location

import (
	"time"

	"github.com/spf13/afero"

	"vroot/internal/backend"
)

// Entry is one storage location as published in a snapshot.
type Entry struct {
	ID        string // canonical id, path prefix including the trailing ':'
	Label     string
	ReadOnly  bool
	Visible   bool
	SortKey   int
	Category  Category
	Kind      backend.Kind
	Removable bool
	Capacity  uint64
	FSType    string
	Mount     string
	FS        afero.Fs
}

// Snapshot is an immutable, ordered set of entries.
type Snapshot struct {
	entries []Entry
	byID    map[string]int
	built   time.Time
}

func newSnapshot(entries []Entry, built time.Time) *Snapshot {
	s := &Snapshot{entries: entries, byID: make(map[string]int, len(entries)), built: built}
	for i, e := range entries {
		s.byID[e.ID] = i
	}
	return s
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// At returns the i-th entry in order.
func (s *Snapshot) At(i int) Entry { return s.entries[i] }

// Entries returns a copy of the ordered entries.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	return append([]Entry(nil), s.entries...)
}

// Lookup finds an entry by canonical id ("SD-CARD:").
func (s *Snapshot) Lookup(id string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Visible returns the snapshot restricted to visible entries.
func (s *Snapshot) Visible() *Snapshot {
	out := make([]Entry, 0, s.Len())
	for _, e := range s.Entries() {
		if e.Visible {
			out = append(out, e)
		}
	}
	return newSnapshot(out, s.BuiltAt())
}

// IDs returns the canonical ids in order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, s.Len())
	for _, e := range s.Entries() {
		ids = append(ids, e.ID)
	}
	return ids
}

// Labels returns the display labels in order.
func (s *Snapshot) Labels() []string {
	labels := make([]string, 0, s.Len())
	for _, e := range s.Entries() {
		labels = append(labels, e.Label)
	}
	return labels
}

// BuiltAt is the time the snapshot was produced.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.built
}
