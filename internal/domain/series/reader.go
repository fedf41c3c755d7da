package series

import (
	"context"

	"github.com/okian/fileseries/internal/domain/timeinfo"
)

// Data is whatever a reader produces for one request. The controller
// passes it through untouched.
type Data any

// Reader is the capability that understands the contents of one source.
//
// ReportTime writes the source's range and steps into slot; leaving slot
// empty means the source has no notion of time. Produce receives the slot
// holding the source's own time info and may read or modify it.
type Reader interface {
	ReportTime(ctx context.Context, source string, slot *timeinfo.Info) error
	Produce(ctx context.Context, source string, slot *timeinfo.Info, times []float64) (Data, error)
	CanRead(ctx context.Context, source string) bool
}

// Enumerator maps ordinal indices to source identifiers.
type Enumerator interface {
	Add(source string)
	Clear()
	Len() int
	Get(index int) (string, bool)
}

// ManifestProvider lists the sources named by a manifest.
type ManifestProvider interface {
	List(ctx context.Context, path string) ([]string, error)
}
