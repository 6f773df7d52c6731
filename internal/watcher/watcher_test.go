package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"vroot/internal/backend"
	apperrors "vroot/internal/errors"
	"vroot/internal/location"
)

type mutableSource struct {
	mu      sync.Mutex
	records []backend.Record
}

func (s *mutableSource) Kind() backend.Kind { return backend.KindMassStorage }

func (s *mutableSource) Enumerate(ctx context.Context) ([]backend.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Record(nil), s.records...), nil
}

func (s *mutableSource) set(records ...backend.Record) {
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

func usb(id string, capacity uint64) backend.Record {
	return backend.Record{Kind: backend.KindMassStorage, NativeID: id, Capacity: capacity, FS: afero.NewMemMapFs()}
}

func newRegistry(src *mutableSource) *location.Registry {
	return location.NewRegistry(backend.NewEnumerator(src))
}

func TestDetectChanges_AddedRemovedModified(t *testing.T) {
	src := &mutableSource{}
	src.set(usb("ums0", 8<<30), usb("ums1", 0))
	w := New(newRegistry(src), nil)
	w.CheckNow(context.Background())

	// ums0 grows a capacity, ums1 is pulled, ums2 is plugged in
	src.set(usb("ums0", 16<<30), usb("ums2", 0))
	c := w.CheckNow(context.Background())

	if len(c.Added) != 1 || c.Added[0].ID != "ums2:" {
		t.Fatalf("expected 1 added ums2:, got %#v", c.Added)
	}
	if len(c.Removed) != 1 || c.Removed[0].ID != "ums1:" {
		t.Fatalf("expected 1 removed ums1:, got %#v", c.Removed)
	}
	if len(c.Modified) != 1 || c.Modified[0].ID != "ums0:" {
		t.Fatalf("expected 1 modified ums0:, got %#v", c.Modified)
	}

	if c := w.CheckNow(context.Background()); !c.Empty() {
		t.Fatalf("unchanged set reported changes: %#v", c)
	}
}

func TestUpdateSnapshot_ReplacesState(t *testing.T) {
	src := &mutableSource{}
	src.set(usb("ums0", 0))
	w := New(newRegistry(src), nil)
	w.updateSnapshot(newRegistry(src).List(context.Background(), location.Options{}))
	if _, ok := w.previous["ums0:"]; !ok {
		t.Fatalf("snapshot should include ums0:")
	}
	src.set()
	w.updateSnapshot(newRegistry(src).List(context.Background(), location.Options{}))
	if len(w.previous) != 0 {
		t.Fatalf("snapshot should be empty, got %d", len(w.previous))
	}
}

func TestWatcherDeliversChanges(t *testing.T) {
	src := &mutableSource{}
	got := make(chan *Changes, 4)
	w := New(newRegistry(src), func(c *Changes) { got <- c }, WithInterval(10*time.Millisecond), WithRoots(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	src.set(usb("ums0", 0))
	select {
	case c := <-got:
		if len(c.Added) != 1 || c.Added[0].ID != "ums0:" {
			t.Fatalf("unexpected changes: %#v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no change delivered")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w := New(newRegistry(&mutableSource{}), nil, WithInterval(time.Hour))
	w.Stop()
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

func TestCheck_FullChannelKeepsChanges(t *testing.T) {
	src := &mutableSource{}
	src.set(usb("ums0", 0))
	w := New(newRegistry(src), nil)
	w.CheckNow(context.Background())

	src.set(usb("ums0", 0), usb("ums1", 0))
	w.check(context.Background(), make(chan *Changes)) // nobody receives

	out := make(chan *Changes, 1)
	w.check(context.Background(), out)
	select {
	case c := <-out:
		if len(c.Added) != 1 || c.Added[0].ID != "ums1:" {
			t.Fatalf("expected ums1: to be redelivered, got %#v", c.Added)
		}
	default:
		t.Fatalf("change dropped after a full channel")
	}

	w.check(context.Background(), out)
	if len(out) != 0 {
		t.Fatalf("delivered changes must not repeat")
	}
}

func TestStart_ReportsUnwatchableRoots(t *testing.T) {
	src := &mutableSource{}
	missing := filepath.Join(t.TempDir(), "no-such-root")
	w := New(newRegistry(src), nil, WithRoots(missing), WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	errs := w.RootErrors()
	var ae *apperrors.AppError
	if len(errs) > 0 && errors.As(errs[0], &ae) && ae.Operation == "start" {
		t.Skipf("fsnotify unavailable: %v", ae)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 root error, got %v", errs)
	}
	if !errors.As(errs[0], &ae) || ae.Type != apperrors.ErrorTypeWatcher || ae.Path != missing {
		t.Fatalf("unexpected root error %#v", errs[0])
	}
}
