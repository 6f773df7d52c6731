// Package jobs runs copy and move transfers between locations on a single
// background worker.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/afero"

	"vroot/internal/constants"
	"vroot/internal/vfs"
)

var log = logging.Logger("vroot/jobs")

const (
	defaultHistory = 100
	bufferSize     = 1 << 20
	partSuffix     = ".part"
)

var errCanceled = errors.New("job canceled")

// Manager queues jobs and processes them one at a time against fs.
type Manager struct {
	fs afero.Fs

	mu          sync.Mutex
	cond        *sync.Cond
	queue       []*Job
	closed      bool
	nextID      int64
	subscribers []func()
	current     *Job
	history     []*Job
	historyMax  int
	wg          sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithHistory bounds the number of finished jobs kept for List.
func WithHistory(n int) Option {
	return func(m *Manager) { m.historyMax = n }
}

// NewManager constructs a Manager over fs and starts its worker.
func NewManager(fs afero.Fs, opts ...Option) *Manager {
	m := &Manager{fs: fs, historyMax: defaultHistory}
	for _, o := range opts {
		o(m)
	}
	m.cond = sync.NewCond(&m.mu)
	m.wg.Add(1)
	go m.worker()
	log.Debug("manager created; worker started")
	return m
}

// Subscribe registers a callback called on state changes. Callbacks run on
// the worker goroutine.
func (m *Manager) Subscribe(cb func()) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, cb)
	m.mu.Unlock()
}

func (m *Manager) notify() {
	m.mu.Lock()
	subs := append([]func(){}, m.subscribers...)
	m.mu.Unlock()
	for _, cb := range subs {
		cb()
	}
}

// EnqueueCopy enqueues copying sources into destDir.
func (m *Manager) EnqueueCopy(sources []string, destDir string) *Job {
	return m.enqueue(TypeCopy, sources, destDir)
}

// EnqueueMove enqueues moving sources into destDir. A move within one
// location is a rename; across locations it is a copy followed by removal.
func (m *Manager) EnqueueMove(sources []string, destDir string) *Job {
	return m.enqueue(TypeMove, sources, destDir)
}

func (m *Manager) enqueue(t Type, sources []string, destDir string) *Job {
	j := &Job{
		ID:         atomic.AddInt64(&m.nextID, 1),
		Type:       t,
		Sources:    append([]string(nil), sources...),
		DestDir:    destDir,
		Status:     StatusPending,
		TotalItems: len(sources),
		EnqueuedAt: time.Now(),
		done:       make(chan struct{}),
	}
	j.ctx, j.cancel = context.WithCancel(context.Background())

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		j.Status = StatusCanceled
		j.CompletedAt = time.Now()
		close(j.done)
		return j
	}
	m.queue = append(m.queue, j)
	m.mu.Unlock()
	log.Debugw("enqueue", "id", j.ID, "type", t, "n", len(sources), "dest", destDir)
	m.notify()
	m.cond.Signal()
	return j
}

// Cancel cancels a pending or running job by ID.
func (m *Manager) Cancel(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, j := range m.queue {
		if j.ID == id {
			j.mu.Lock()
			j.Status = StatusCanceled
			j.CompletedAt = time.Now()
			j.mu.Unlock()
			j.cancel()
			close(j.done)
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.addHistoryLocked(j)
			go m.notify()
			return true
		}
	}
	if m.current != nil && m.current.ID == id {
		m.current.Cancel()
		return true
	}
	return false
}

// List returns the running job, then pending ones, then history newest first.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.queue)+1+len(m.history))
	if m.current != nil {
		out = append(out, m.current.Snapshot())
	}
	for _, j := range m.queue {
		out = append(out, j.Snapshot())
	}
	for i := len(m.history) - 1; i >= 0; i-- {
		out = append(out, m.history[i].Snapshot())
	}
	return out
}

// Close cancels everything pending, stops the worker after the current job
// and waits for it.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.wg.Wait()
		return
	}
	m.closed = true
	pending := m.queue
	m.queue = nil
	if m.current != nil {
		m.current.Cancel()
	}
	m.mu.Unlock()
	for _, j := range pending {
		j.mu.Lock()
		j.Status = StatusCanceled
		j.CompletedAt = time.Now()
		j.mu.Unlock()
		j.cancel()
		close(j.done)
	}
	m.cond.Broadcast()
	m.wg.Wait()
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			return
		}
		j := m.queue[0]
		m.queue = m.queue[1:]
		m.current = j
		m.mu.Unlock()

		j.mu.Lock()
		j.Status = StatusRunning
		j.StartedAt = time.Now()
		j.mu.Unlock()
		m.notify()

		err := m.runJob(j)
		j.mu.Lock()
		switch {
		case err == nil:
			j.Status = StatusCompleted
		case errors.Is(err, errCanceled):
			j.Status = StatusCanceled
		default:
			j.Status = StatusFailed
			j.Error = err.Error()
		}
		j.CompletedAt = time.Now()
		status := j.Status
		j.mu.Unlock()
		if err != nil && status == StatusFailed {
			log.Warnw("job failed", "id", j.ID, "type", j.Type, "err", err)
		} else {
			log.Debugw("job finished", "id", j.ID, "status", status)
		}

		m.mu.Lock()
		m.current = nil
		m.addHistoryLocked(j)
		m.mu.Unlock()
		j.cancel()
		close(j.done)
		m.notify()
	}
}

// addHistoryLocked appends a finished job and trims the oldest; caller must hold m.mu.
func (m *Manager) addHistoryLocked(j *Job) {
	m.history = append(m.history, j)
	if m.historyMax > 0 && len(m.history) > m.historyMax {
		drop := len(m.history) - m.historyMax
		m.history = append([]*Job{}, m.history[drop:]...)
	}
}

func (m *Manager) runJob(j *Job) error {
	for i, src := range j.Sources {
		if canceled(j) {
			return errCanceled
		}
		j.mu.Lock()
		j.CurrentSource = src
		j.mu.Unlock()
		m.notify()

		if err := m.transfer(j, src, j.DestDir); err != nil {
			if !errors.Is(err, errCanceled) {
				j.mu.Lock()
				j.Failures = append(j.Failures, Failure{TopSource: src, Path: failingPath(err), Error: err.Error()})
				j.mu.Unlock()
			}
			return err
		}
		j.mu.Lock()
		j.DoneItems = i + 1
		j.mu.Unlock()
		m.notify()
	}
	return nil
}

func canceled(j *Job) bool {
	select {
	case <-j.ctx.Done():
		return true
	default:
		return false
	}
}

// entryName is the name src takes inside a destination directory. A
// location root is named after its id without the separator.
func entryName(src string) (string, error) {
	name := strings.TrimSuffix(vfs.BaseName(src), string(constants.LocationSeparator))
	if name == "" || name == constants.RootPath {
		return "", fmt.Errorf("cannot transfer %q", src)
	}
	return name, nil
}

// within reports whether p is dir or lies below it.
func within(p, dir string) bool {
	p, dir = canonical(p), canonical(dir)
	for {
		if p == dir {
			return true
		}
		parent := vfs.ParentPath(p)
		if parent == p {
			return false
		}
		p = parent
	}
}

func canonical(p string) string {
	id, rel, err := vfs.Split(p)
	if err != nil {
		return p
	}
	return id + rel
}

// transfer copies or moves src into destDir.
func (m *Manager) transfer(j *Job, src, destDir string) error {
	name, err := entryName(src)
	if err != nil {
		return wrapPath(src, err)
	}
	dst := vfs.JoinPath(destDir, name)
	if within(dst, src) {
		return wrapPath(dst, fmt.Errorf("destination is inside %s", src))
	}
	if j.Type == TypeMove {
		err := m.fs.Rename(src, dst)
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EXDEV) {
			return wrapPath(src, err)
		}
		log.Debugw("cross-location move, copying", "src", src, "dst", dst)
	}
	return m.copyPath(j, src, dst)
}

func (m *Manager) copyPath(j *Job, src, dst string) error {
	fi, err := m.fs.Stat(src)
	if err != nil {
		return wrapPath(src, err)
	}

	if fi.IsDir() {
		if err := m.fs.MkdirAll(dst, 0o755); err != nil {
			return wrapPath(dst, err)
		}
		_ = m.fs.Chmod(dst, fi.Mode().Perm())
		names, err := readDirNames(m.fs, src)
		if err != nil {
			return wrapPath(src, err)
		}
		for _, name := range names {
			if canceled(j) {
				return errCanceled
			}
			if err := m.copyPath(j, vfs.JoinPath(src, name), vfs.JoinPath(dst, name)); err != nil {
				return err
			}
		}
	} else if err := m.copyFile(j, src, dst, fi.Mode()); err != nil {
		return err
	}

	if j.Type == TypeMove {
		if canceled(j) {
			return errCanceled
		}
		if err := m.fs.Remove(src); err != nil {
			return wrapPath(src, err)
		}
	}
	return nil
}

func readDirNames(fs afero.Fs, dir string) ([]string, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

// copyFile writes into dst+".part" and renames it into place.
func (m *Manager) copyFile(j *Job, src, dst string, mode os.FileMode) error {
	in, err := m.fs.Open(src)
	if err != nil {
		return wrapPath(src, err)
	}
	defer in.Close()

	tmp := dst + partSuffix
	out, err := m.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return wrapPath(tmp, err)
	}
	abort := func(err error) error {
		out.Close()
		_ = m.fs.Remove(tmp)
		return err
	}

	buf := make([]byte, bufferSize)
	for {
		if canceled(j) {
			return abort(errCanceled)
		}
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return abort(wrapPath(tmp, werr))
			}
			j.mu.Lock()
			j.BytesCopied += int64(n)
			j.mu.Unlock()
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return abort(wrapPath(src, rerr))
		}
	}
	if err := out.Close(); err != nil {
		_ = m.fs.Remove(tmp)
		return wrapPath(tmp, err)
	}
	if err := m.fs.Rename(tmp, dst); err != nil {
		_ = m.fs.Remove(tmp)
		return wrapPath(dst, err)
	}
	return nil
}

type opError struct {
	Path string
	Err  error
}

func (e opError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e opError) Unwrap() error { return e.Err }

func wrapPath(p string, err error) error {
	if err == nil {
		return nil
	}
	return opError{Path: p, Err: err}
}

func failingPath(err error) string {
	var oe opError
	if errors.As(err, &oe) {
		return oe.Path
	}
	return ""
}
