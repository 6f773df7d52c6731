package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"

	apperrors "vroot/internal/errors"
)

var log = logging.Logger("vroot/backend")

// Result is the outcome of one enumeration. Err aggregates the sources that
// failed; it never invalidates Records.
type Result struct {
	Records []Record
	Failed  []Kind
	Err     error
}

// Enumerator queries every configured source independently.
type Enumerator struct {
	sources []Source
	// exclusive serializes sources that are not reentrant
	exclusive sync.Mutex
}

// NewEnumerator returns an enumerator over sources, queried in order.
func NewEnumerator(sources ...Source) *Enumerator {
	return &Enumerator{sources: append([]Source(nil), sources...)}
}

// Sources returns the configured sources.
func (e *Enumerator) Sources() []Source {
	return append([]Source(nil), e.sources...)
}

// Enumerate lists the backends available right now. With writeIntent,
// backends that cannot be written are left out.
func (e *Enumerator) Enumerate(ctx context.Context, writeIntent bool) Result {
	var (
		res  Result
		errs *multierror.Error
	)
	for _, src := range e.sources {
		records, err := e.query(ctx, src)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				log.Debugf("source %s disabled", src.Kind())
			} else {
				log.Debugf("source %s failed: %v", src.Kind(), err)
				errs = multierror.Append(errs, apperrors.NewBackendUnavailableError("enumerate", src.Kind().String(), "source could not be queried", err))
				res.Failed = append(res.Failed, src.Kind())
			}
		}
		for _, r := range records {
			if writeIntent && r.ReadOnly {
				continue
			}
			res.Records = append(res.Records, r)
		}
	}
	res.Err = errs.ErrorOrNil()
	return res
}

func (e *Enumerator) query(ctx context.Context, src Source) (records []Record, err error) {
	if ex, ok := src.(exclusiveSource); ok && ex.Exclusive() {
		e.exclusive.Lock()
		defer e.exclusive.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("source %s panicked: %v", src.Kind(), r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return src.Enumerate(ctx)
}
