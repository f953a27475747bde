package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when the capability surface is absent or could
// not be initialized.
var ErrUnavailable = errors.New("health store unavailable")

// MetadataUserEntered is the sample metadata key flagging values the user
// typed in directly rather than ones recorded by a sensor. Absent metadata
// means sensor-recorded.
const MetadataUserEntered = "was_user_entered"

// AuthorizationStatus is the per-sample-type consent state as reported by the
// store. Once the user has responded to the consent prompt, read-only access
// does not disclose whether the answer was allow or deny; callers must treat
// Denied and Authorized as "responded" rather than infer the actual grant.
type AuthorizationStatus int

const (
	StatusNotDetermined AuthorizationStatus = iota
	StatusSharingDenied
	StatusSharingAuthorized
)

// RequestStatus is the refined probe result: whether presenting the consent
// prompt again would do anything.
type RequestStatus int

const (
	RequestStatusUnknown RequestStatus = iota
	RequestStatusShouldRequest
	RequestStatusUnnecessary
)

// SortOrder orders sample query results by sample end time.
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// SampleKind tells how a raw sample carries its value. Samples that are
// neither quantity nor category are a defect signal surfaced upstream.
type SampleKind int

const (
	KindUnknown SampleKind = iota
	KindQuantity
	KindCategory
)

// RawSample is one observation as returned by the store, already converted to
// the unit the query asked for.
type RawSample struct {
	Kind     SampleKind
	Quantity decimal.Decimal // set when Kind == KindQuantity
	Category int64           // set when Kind == KindCategory
	Start    time.Time
	End      time.Time
	Source   string // originating app/device display name
	Metadata map[string]string
}

// SampleQuery is a bounded-range query for one sample type. The start bound
// is strict: a sample qualifies when Start <= sample.Start < End. Limit 0
// means unbounded.
type SampleQuery struct {
	SampleType string
	Unit       string
	Start      time.Time
	End        time.Time
	Limit      int
	Order      SortOrder
}

// DailyTotalsQuery is a windowed aggregate query: per-calendar-day cumulative
// sums for one quantity sample type. Day boundaries are taken from Anchor's
// location (bucket anchored at local midnight). When ExcludeUserEntered is
// set, manually entered samples are filtered out before summation.
type DailyTotalsQuery struct {
	SampleType         string
	Unit               string
	Start              time.Time
	End                time.Time
	Anchor             time.Time
	ExcludeUserEntered bool
}

// DailyTotal is one non-empty day bucket.
type DailyTotal struct {
	BucketStart time.Time
	Sum         decimal.Decimal
}

// Store is the opaque capability surface over the device-local health data
// store: report authorization state, run range queries, run windowed
// aggregate queries. Implementations must be safe for concurrent use and, on
// success, must return non-nil (possibly empty) result slices — a nil result
// set is treated as a query failure by callers.
type Store interface {
	// Available reports whether health data can be served at all.
	Available(ctx context.Context) bool

	// AuthorizationStatus returns the consent state for one sample type.
	// Never presents the consent prompt.
	AuthorizationStatus(ctx context.Context, sampleType string) (AuthorizationStatus, error)

	// RequestAuthorization presents the consent prompt for any sample type
	// still undetermined and reports completion. A true result means the
	// request flow finished, not that every sample type was granted.
	RequestAuthorization(ctx context.Context, sampleTypes []string) (bool, error)

	// QuerySamples executes a bounded-range sample query.
	QuerySamples(ctx context.Context, q SampleQuery) ([]RawSample, error)

	// QueryDailyTotals executes a windowed aggregate query, returning only
	// days that had at least one qualifying sample, in chronological order.
	QueryDailyTotals(ctx context.Context, q DailyTotalsQuery) ([]DailyTotal, error)
}

// RequestStatusReporter is the refined authorization probe available on newer
// store implementations. Callers detect it with a type assertion and fall
// back to per-type AuthorizationStatus checks when absent.
type RequestStatusReporter interface {
	RequestStatusForAuthorization(ctx context.Context, sampleTypes []string) (RequestStatus, error)
}
