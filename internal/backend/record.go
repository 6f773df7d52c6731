// Package backend discovers the storage backends that are currently
// available and exposes each one as an afero.Fs.
package backend

import (
	"context"
	"errors"

	"github.com/spf13/afero"
)

// Kind is the storage source a record came from.
type Kind int

const (
	KindPartition Kind = iota
	KindCard
	KindMassStorage
	KindOptical
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindPartition:
		return "partition"
	case KindCard:
		return "card"
	case KindMassStorage:
		return "mass-storage"
	case KindOptical:
		return "optical"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ErrUnsupported is returned by a source whose feature flag is off.
var ErrUnsupported = errors.New("storage source unsupported or disabled")

// Record is one backend as reported by its source. It is only valid for the
// enumeration call that produced it.
type Record struct {
	Kind      Kind
	NativeID  string // identity used by the source, e.g. "ums0", "microSD card"
	Name      string // native display string
	ReadOnly  bool
	Removable bool
	Hidden    bool   // the source asks for the backend to stay out of listings
	Capacity  uint64 // bytes, 0 when unknown
	Vendor    string
	Product   string
	FSType    string
	Mount     string // native mount point, image file or smb:// URL
	FS        afero.Fs
}

// Source enumerates one kind of storage. A source may return the records it
// could build together with an error describing the ones it could not.
type Source interface {
	Kind() Kind
	Enumerate(ctx context.Context) ([]Record, error)
}

// exclusiveSource is implemented by sources whose native APIs are not
// reentrant; the enumerator serializes their calls.
type exclusiveSource interface {
	Exclusive() bool
}
