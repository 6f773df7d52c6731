package watcher

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	logging "github.com/ipfs/go-log/v2"

	"vroot/internal/constants"
	apperrors "vroot/internal/errors"
	"vroot/internal/location"
)

var log = logging.Logger("vroot/watcher")

// Lister is the registry surface the watcher polls.
type Lister interface {
	List(ctx context.Context, o location.Options) *location.Snapshot
}

// Changes is the difference between two location listings.
type Changes struct {
	Added    []location.Entry
	Removed  []location.Entry
	Modified []location.Entry
}

// Empty reports whether nothing changed.
func (c *Changes) Empty() bool {
	return c == nil || len(c.Added)+len(c.Removed)+len(c.Modified) == 0
}

// LocationWatcher reports locations appearing, disappearing or changing.
// It polls the registry on an interval and additionally whenever one of the
// configured mount roots changes.
type LocationWatcher struct {
	lister   Lister
	onChange func(*Changes)
	opts     location.Options
	interval time.Duration
	roots    []string

	// mu protects previous, the state changes are computed against
	mu       sync.RWMutex
	previous map[string]location.Entry
	rootErrs []error

	stopChan   chan struct{}
	changeChan chan *Changes
	stopped    bool
	running    bool
	done       sync.WaitGroup
}

// Option configures a LocationWatcher.
type Option func(*LocationWatcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(w *LocationWatcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithRoots watches directories where mount points come and go.
func WithRoots(roots ...string) Option {
	return func(w *LocationWatcher) { w.roots = append(w.roots, roots...) }
}

// WithListOptions selects which locations are compared.
func WithListOptions(o location.Options) Option {
	return func(w *LocationWatcher) { w.opts = o }
}

// New creates a watcher delivering changes to onChange.
func New(lister Lister, onChange func(*Changes), opts ...Option) *LocationWatcher {
	w := &LocationWatcher{
		lister:   lister,
		onChange: onChange,
		interval: constants.WatcherInterval,
		previous: make(map[string]location.Entry),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Start takes the initial listing and begins watching until ctx is done or
// Stop is called.
func (w *LocationWatcher) Start(ctx context.Context) {
	if w.running {
		return // Already running
	}
	w.running = true
	w.stopped = false
	w.stopChan = make(chan struct{})
	w.changeChan = make(chan *Changes, constants.WatcherBufferSize)

	w.updateSnapshot(w.lister.List(ctx, w.opts))

	var events <-chan fsnotify.Event
	var errs <-chan error
	var rootErrs []error
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		rootErrs = append(rootErrs, apperrors.NewWatcherError("start", "", "fsnotify unavailable, polling only", err))
	} else {
		for _, r := range w.roots {
			if err := fsw.Add(r); err != nil {
				rootErrs = append(rootErrs, apperrors.NewWatcherError("watch", r, "cannot watch mount root", err))
			}
		}
		events, errs = fsw.Events, fsw.Errors
	}
	for _, err := range rootErrs {
		log.Debug(err)
	}
	w.mu.Lock()
	w.rootErrs = rootErrs
	w.mu.Unlock()

	stop, changes := w.stopChan, w.changeChan
	ticker := time.NewTicker(w.interval)
	w.done.Add(2)
	go func() {
		defer w.done.Done()
		defer ticker.Stop()
		if fsw != nil {
			defer fsw.Close()
		}
		for {
			select {
			case <-ticker.C:
				w.check(ctx, changes)
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				log.Debugf("mount root event %s", ev)
				w.check(ctx, changes)
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				log.Warnf("mount root watch: %v", err)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	go func() {
		defer w.done.Done()
		for {
			select {
			case c := <-changes:
				w.deliver(c)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
}

// Stop stops the watcher and waits for its goroutines.
func (w *LocationWatcher) Stop() {
	if w.stopped || !w.running {
		return
	}
	w.stopped = true
	w.running = false
	close(w.stopChan)
	w.done.Wait()
}

// RootErrors returns the mount roots the last Start could not watch. Those
// roots are still covered by polling.
func (w *LocationWatcher) RootErrors() []error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]error(nil), w.rootErrs...)
}

// CheckNow lists locations once and returns what changed since the last
// listing.
func (w *LocationWatcher) CheckNow(ctx context.Context) *Changes {
	snap := w.lister.List(ctx, w.opts)
	c := w.detectChanges(snap)
	w.updateSnapshot(snap)
	return c
}

// check diffs a fresh listing and queues the result. The new state is only
// committed once the changes are queued, so a full channel defers them to
// the next check instead of losing them.
func (w *LocationWatcher) check(ctx context.Context, out chan<- *Changes) {
	snap := w.lister.List(ctx, w.opts)
	c := w.detectChanges(snap)
	if c.Empty() {
		w.updateSnapshot(snap)
		return
	}
	select {
	case out <- c:
		w.updateSnapshot(snap)
	default:
		log.Debugf("change channel full, retrying on next check")
	}
}

func (w *LocationWatcher) deliver(c *Changes) {
	log.Debugf("locations changed: %d added, %d removed, %d modified", len(c.Added), len(c.Removed), len(c.Modified))
	if w.onChange != nil {
		w.onChange(c)
	}
}

// updateSnapshot replaces the state changes are computed against.
func (w *LocationWatcher) updateSnapshot(snap *location.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.previous = make(map[string]location.Entry, snap.Len())
	for _, e := range snap.Entries() {
		w.previous[e.ID] = e
	}
}

// detectChanges compares snap with the previous state. Results follow the
// snapshot order; removals follow id order.
func (w *LocationWatcher) detectChanges(snap *location.Snapshot) *Changes {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c := &Changes{}
	seen := make(map[string]bool, snap.Len())
	for _, e := range snap.Entries() {
		seen[e.ID] = true
		prev, exists := w.previous[e.ID]
		switch {
		case !exists:
			c.Added = append(c.Added, e)
		case modified(prev, e):
			c.Modified = append(c.Modified, e)
		}
	}

	for id, e := range w.previous {
		if !seen[id] {
			c.Removed = append(c.Removed, e)
		}
	}
	sortByID(c.Removed)
	return c
}

func modified(a, b location.Entry) bool {
	return a.Label != b.Label || a.ReadOnly != b.ReadOnly || a.Visible != b.Visible ||
		a.Capacity != b.Capacity || a.Mount != b.Mount
}

func sortByID(entries []location.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}
