package jobs

import (
	"context"
	"sync"
	"time"
)

// Type is what a job does with its sources.
type Type string

const (
	TypeCopy Type = "copy"
	TypeMove Type = "move"
)

// Status represents job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Job transfers a set of virtual paths into one destination directory.
type Job struct {
	ID      int64
	Type    Type
	Sources []string // virtual paths, e.g. "/USB-DEVICE:/photos"
	DestDir string   // virtual directory

	mu            sync.RWMutex
	Status        Status
	TotalItems    int
	DoneItems     int
	BytesCopied   int64
	CurrentSource string
	Error         string
	Failures      []Failure
	EnqueuedAt    time.Time
	StartedAt     time.Time
	CompletedAt   time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Snapshot returns a consistent copy of the job state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:            j.ID,
		Type:          j.Type,
		Status:        j.Status,
		Sources:       append([]string(nil), j.Sources...),
		DestDir:       j.DestDir,
		TotalItems:    j.TotalItems,
		DoneItems:     j.DoneItems,
		BytesCopied:   j.BytesCopied,
		CurrentSource: j.CurrentSource,
		Error:         j.Error,
		Failures:      append([]Failure(nil), j.Failures...),
		EnqueuedAt:    j.EnqueuedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
	}
}

// Cancel stops the job at the next file boundary or buffer.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

// Wait blocks until the job finishes or ctx ends.
func (j *Job) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-j.done:
		return j.Snapshot(), nil
	case <-ctx.Done():
		return j.Snapshot(), ctx.Err()
	}
}

// Snapshot is a read-only view of a job.
type Snapshot struct {
	ID            int64
	Type          Type
	Status        Status
	Sources       []string
	DestDir       string
	TotalItems    int
	DoneItems     int
	BytesCopied   int64
	CurrentSource string
	Error         string
	Failures      []Failure
	EnqueuedAt    time.Time
	StartedAt     time.Time
	CompletedAt   time.Time
}

// Failure records the path that stopped a job.
type Failure struct {
	TopSource string // top-level source being processed
	Path      string // the path that failed, possibly inside TopSource
	Error     string
}
