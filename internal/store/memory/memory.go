package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/healthbridge-lab/healthbridge/internal/store"
)

// Sample is one seeded observation. Unit is the unit the value was recorded
// in; queries convert to the requested unit on the way out.
type Sample struct {
	ID          string
	Category    *int64 // non-nil for category samples
	Quantity    decimal.Decimal
	Unit        string
	Start       time.Time
	End         time.Time
	Source      string
	UserEntered bool
}

// Store is an in-memory implementation of the capability surface. It backs
// the "memory" store type for development and is the workhorse of the test
// suite: it models the full per-sample-type consent lifecycle, including the
// platform's refusal to disclose the actual read grant after the user has
// responded.
type Store struct {
	mu         sync.RWMutex
	samples    map[string][]Sample // keyed by sample type
	auth       map[string]store.AuthorizationStatus
	decisions  map[string]bool // simulated user answer per sample type; default allow
	available  bool
	requestErr error
}

// New creates an empty, available in-memory store with no consent recorded.
func New() *Store {
	return &Store{
		samples:   make(map[string][]Sample),
		auth:      make(map[string]store.AuthorizationStatus),
		decisions: make(map[string]bool),
		available: true,
	}
}

// Seed adds samples for a sample type. Samples without an ID get one.
func (s *Store) Seed(sampleType string, samples ...Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sm := range samples {
		if sm.ID == "" {
			sm.ID = uuid.NewString()
		}
		s.samples[sampleType] = append(s.samples[sampleType], sm)
	}
}

// SetAvailable toggles the capability surface on or off.
func (s *Store) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = available
}

// SetDecision fixes the simulated user's answer for a sample type. The
// answer only shapes the post-response AuthorizationStatus; it is never
// visible through RequestAuthorization, matching the platform contract.
func (s *Store) SetDecision(sampleType string, allow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[sampleType] = allow
}

// FailRequests makes RequestAuthorization return err until reset with nil.
func (s *Store) FailRequests(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestErr = err
}

func (s *Store) Available(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

func (s *Store) AuthorizationStatus(ctx context.Context, sampleType string) (store.AuthorizationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth[sampleType], nil
}

// RequestStatusForAuthorization implements store.RequestStatusReporter.
func (s *Store) RequestStatusForAuthorization(ctx context.Context, sampleTypes []string) (store.RequestStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range sampleTypes {
		if s.auth[st] == store.StatusNotDetermined {
			return store.RequestStatusShouldRequest, nil
		}
	}
	return store.RequestStatusUnnecessary, nil
}

func (s *Store) RequestAuthorization(ctx context.Context, sampleTypes []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requestErr != nil {
		return false, s.requestErr
	}
	for _, st := range sampleTypes {
		if s.auth[st] != store.StatusNotDetermined {
			continue
		}
		allow, fixed := s.decisions[st]
		if !fixed {
			allow = true
		}
		if allow {
			s.auth[st] = store.StatusSharingAuthorized
		} else {
			s.auth[st] = store.StatusSharingDenied
		}
	}
	return true, nil
}

func (s *Store) QuerySamples(ctx context.Context, q store.SampleQuery) ([]store.RawSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]store.RawSample, 0)
	for _, sm := range s.samples[q.SampleType] {
		if !inRange(sm.Start, q.Start, q.End) {
			continue
		}
		raw, err := toRaw(sm, q.Unit)
		if err != nil {
			return nil, err
		}
		matched = append(matched, raw)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if q.Order == store.SortDescending {
			return matched[i].End.After(matched[j].End)
		}
		return matched[i].End.Before(matched[j].End)
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *Store) QueryDailyTotals(ctx context.Context, q store.DailyTotalsQuery) ([]store.DailyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc := q.Anchor.Location()
	sums := make(map[time.Time]decimal.Decimal)
	for _, sm := range s.samples[q.SampleType] {
		if !inRange(sm.Start, q.Start, q.End) {
			continue
		}
		if q.ExcludeUserEntered && sm.UserEntered {
			continue
		}
		if sm.Category != nil {
			return nil, fmt.Errorf("sample type %q is not a quantity type", q.SampleType)
		}
		value, err := store.ConvertQuantity(sm.Quantity, sm.Unit, q.Unit)
		if err != nil {
			return nil, err
		}
		day := dayStart(sm.Start, loc)
		sums[day] = sums[day].Add(value)
	}

	totals := make([]store.DailyTotal, 0, len(sums))
	for day, sum := range sums {
		totals = append(totals, store.DailyTotal{BucketStart: day, Sum: sum})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].BucketStart.Before(totals[j].BucketStart)
	})
	return totals, nil
}

// inRange applies the strict-start range filter: Start <= t < End.
func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, loc)
}

func toRaw(sm Sample, unit string) (store.RawSample, error) {
	raw := store.RawSample{
		Start:  sm.Start,
		End:    sm.End,
		Source: sm.Source,
	}
	if sm.UserEntered {
		raw.Metadata = map[string]string{store.MetadataUserEntered: "true"}
	}

	if sm.Category != nil {
		raw.Kind = store.KindCategory
		raw.Category = *sm.Category
		return raw, nil
	}

	value, err := store.ConvertQuantity(sm.Quantity, sm.Unit, unit)
	if err != nil {
		return store.RawSample{}, err
	}
	raw.Kind = store.KindQuantity
	raw.Quantity = value
	return raw, nil
}
