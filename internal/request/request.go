package request

import (
	"errors"
	"fmt"
	"time"

	v1 "github.com/healthbridge-lab/healthbridge/internal/api/v1"
	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
)

// ErrInvalid marks request validation errors (bad or unknown metric,
// malformed range, non-positive limit). These are caller errors and must be
// raised before any store interaction.
var ErrInvalid = errors.New("invalid request")

// Permissions is the typed form of a permission-flow call: the set of
// metrics the caller wants read access to.
type Permissions struct {
	Metrics []metric.Type
}

// Read is the typed form of a read/aggregate call. DateTo is always
// concrete: when the caller omits it, it is resolved to "now" exactly once
// during parsing so multi-step operations see a stable bound. Limit 0 means
// unbounded.
type Read struct {
	Metric   metric.Type
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
}

// ReadArgs is the loosely-typed wire shape of a read call. Dates are epoch
// milliseconds.
type ReadArgs struct {
	Metric   string
	DateFrom *int64
	DateTo   *int64
	Limit    *int
}

// ParsePermissions builds a Permissions value from a metric identifier list.
// The list is treated as a set: order is irrelevant and duplicates collapse
// silently. An empty list or any unknown identifier is invalid.
func ParsePermissions(names []string, reg *metric.Registry) (Permissions, error) {
	if len(names) == 0 {
		return Permissions{}, fmt.Errorf("%w: at least one metric is required", ErrInvalid)
	}

	seen := make(map[metric.Type]struct{}, len(names))
	metrics := make([]metric.Type, 0, len(names))
	for _, name := range names {
		d, err := reg.Resolve(name)
		if err != nil {
			return Permissions{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if _, dup := seen[d.Type]; dup {
			continue
		}
		seen[d.Type] = struct{}{}
		metrics = append(metrics, d.Type)
	}
	return Permissions{Metrics: metrics}, nil
}

// ParseRead builds a Read value from wire arguments. now is the single
// call-time instant used when date_to is absent.
func ParseRead(args ReadArgs, reg *metric.Registry, now time.Time) (Read, error) {
	d, err := reg.Resolve(args.Metric)
	if err != nil {
		return Read{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if args.DateFrom == nil {
		return Read{}, fmt.Errorf("%w: date_from is required", ErrInvalid)
	}
	dateFrom := v1.FromMillis(*args.DateFrom)

	dateTo := now
	if args.DateTo != nil {
		dateTo = v1.FromMillis(*args.DateTo)
	}
	if dateFrom.After(dateTo) {
		return Read{}, fmt.Errorf("%w: date_from must not be after date_to", ErrInvalid)
	}

	limit := 0
	if args.Limit != nil {
		if *args.Limit < 1 {
			return Read{}, fmt.Errorf("%w: limit must be >= 1", ErrInvalid)
		}
		limit = *args.Limit
	}

	return Read{
		Metric:   d.Type,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Limit:    limit,
	}, nil
}
