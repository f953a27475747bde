package read

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/healthbridge-lab/healthbridge/internal/api/v1"
	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
	"github.com/healthbridge-lab/healthbridge/internal/request"
	"github.com/healthbridge-lab/healthbridge/internal/store"
)

// dailyWindowDays is the fixed rolling window of the daily aggregate. The
// caller-supplied range is deliberately ignored there; parameterizing the
// window would be an extension of the boundary contract, not current
// behavior.
const dailyWindowDays = 10

var (
	// ErrQueryFailed marks store-side failures during query execution,
	// including a nil result set, which is distinct from a legitimately
	// empty one.
	ErrQueryFailed = errors.New("query failed")

	// ErrUnsupportedSample marks samples whose representation is neither
	// numeric quantity nor categorical. Surfacing it is a defect signal.
	ErrUnsupportedSample = errors.New("unsupported sample type")
)

// Authorizer is the slice of the authorization orchestrator the read path
// needs: the mandatory pre-query consent step.
type Authorizer interface {
	EnsureAccess(ctx context.Context, m metric.Type) error
}

// Service executes sample range queries and daily aggregates. Each call is
// stateless and independently resolved; nothing is cached between calls.
type Service struct {
	handle   *store.Lazy
	registry *metric.Registry
	auth     Authorizer
	nowFn    func() time.Time
	loc      *time.Location
}

// NewService creates the read service. Daily buckets are anchored at local
// midnight of the process's local time zone.
func NewService(handle *store.Lazy, registry *metric.Registry, auth Authorizer) *Service {
	return &Service{
		handle:   handle,
		registry: registry,
		auth:     auth,
		nowFn:    time.Now,
		loc:      time.Local,
	}
}

// Read runs a bounded-range query for one metric and returns the samples in
// chronologically ascending order. A limit changes which samples are
// included (the most recent N), never the returned order.
func (s *Service) Read(ctx context.Context, req request.Read) ([]v1.Sample, error) {
	desc, err := s.registry.Resolve(string(req.Metric))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", request.ErrInvalid, err)
	}

	if err := s.auth.EnsureAccess(ctx, req.Metric); err != nil {
		return nil, err
	}

	order := store.SortAscending
	if req.Limit > 0 {
		// Most recent N at the store level; re-sorted ascending below.
		order = store.SortDescending
	}

	st, err := s.handle.Get()
	if err != nil {
		return nil, err
	}

	raw, err := st.QuerySamples(ctx, store.SampleQuery{
		SampleType: desc.SampleType,
		Unit:       desc.Unit,
		Start:      req.DateFrom,
		End:        req.DateTo,
		Limit:      req.Limit,
		Order:      order,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: store returned no result set", ErrQueryFailed)
	}

	if req.Limit > 0 {
		sort.SliceStable(raw, func(i, j int) bool { return raw[i].Start.Before(raw[j].Start) })
	}

	samples := make([]v1.Sample, 0, len(raw))
	for _, r := range raw {
		sample, err := normalizeSample(r)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	slog.Debug("Read samples", "metric", req.Metric, "count", len(samples), "limit", req.Limit)
	return samples, nil
}

// ReadDay aggregates the metric into calendar-day buckets over a fixed
// window of the last ten days, excluding manually entered samples before
// summation. Days without a qualifying sample yield no bucket.
func (s *Service) ReadDay(ctx context.Context, req request.Read) ([]v1.DailyBucket, error) {
	desc, err := s.registry.Resolve(string(req.Metric))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", request.ErrInvalid, err)
	}
	if desc.Kind != metric.KindQuantity {
		return nil, fmt.Errorf("%w: daily totals require a quantity metric, got %q", request.ErrInvalid, req.Metric)
	}

	if err := s.auth.EnsureAccess(ctx, req.Metric); err != nil {
		return nil, err
	}

	st, err := s.handle.Get()
	if err != nil {
		return nil, err
	}

	// The window is resolved once per call: ten days back from now through
	// now, bucketed by calendar day anchored at today's local midnight.
	now := s.nowFn().In(s.loc)
	windowStart := now.AddDate(0, 0, -dailyWindowDays)
	anchor := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	totals, err := st.QueryDailyTotals(ctx, store.DailyTotalsQuery{
		SampleType:         desc.SampleType,
		Unit:               desc.Unit,
		Start:              windowStart,
		End:                now,
		Anchor:             anchor,
		ExcludeUserEntered: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if totals == nil {
		return nil, fmt.Errorf("%w: store returned no result set", ErrQueryFailed)
	}

	buckets := make([]v1.DailyBucket, 0, len(totals))
	for _, total := range totals {
		buckets = append(buckets, v1.DailyBucket{
			Value: total.Sum,
			Date:  total.BucketStart.In(s.loc).Format(v1.DayFormat),
		})
	}

	slog.Debug("Read daily buckets", "metric", req.Metric, "buckets", len(buckets))
	return buckets, nil
}

// normalizeSample converts one raw store sample into the canonical wire
// record. Quantity samples carry their numeric value, category samples their
// integer code; anything else is invalid.
func normalizeSample(r store.RawSample) (v1.Sample, error) {
	var value decimal.Decimal
	switch r.Kind {
	case store.KindQuantity:
		value = r.Quantity
	case store.KindCategory:
		value = decimal.NewFromInt(r.Category)
	default:
		return v1.Sample{}, fmt.Errorf("%w: sample is neither quantity nor category", ErrUnsupportedSample)
	}

	return v1.Sample{
		Value:       value,
		DateFrom:    v1.Millis(r.Start),
		DateTo:      v1.Millis(r.End),
		Source:      r.Source,
		UserEntered: r.Metadata[store.MetadataUserEntered] == "true",
	}, nil
}
