package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
	"github.com/healthbridge-lab/healthbridge/internal/store"
)

// ErrAuthorizationFailed marks consent-flow failures: the user cancelled the
// whole flow or the platform call errored. Per-metric grant visibility for
// read access does not exist, so a completed flow reports success regardless
// of the individual answers.
var ErrAuthorizationFailed = errors.New("authorization failed")

// Service drives the per-metric consent state handling that precedes every
// data query.
type Service struct {
	handle   *store.Lazy
	registry *metric.Registry

	// The consent prompt can only be on screen once; identical concurrent
	// request flows collapse into one store call.
	consent singleflight.Group
}

// NewService creates the authorization orchestrator.
func NewService(handle *store.Lazy, registry *metric.Registry) *Service {
	return &Service{handle: handle, registry: registry}
}

// HasPermissions reports whether presenting the consent prompt again would
// be unnecessary for every given metric. It never triggers the prompt.
//
// When the store supports the refined request-status probe, that answer is
// authoritative. Otherwise the fallback is per-metric: true iff no metric is
// still undetermined. Either way a response of "denied" counts the same as
// "authorized" — the platform does not disclose the read grant.
func (s *Service) HasPermissions(ctx context.Context, metrics []metric.Type) (bool, error) {
	st, sampleTypes, err := s.resolve(metrics)
	if err != nil {
		return false, err
	}

	if probe, ok := st.(store.RequestStatusReporter); ok {
		status, err := probe.RequestStatusForAuthorization(ctx, sampleTypes)
		if err != nil {
			return false, fmt.Errorf("authorization request status probe: %w", err)
		}
		return status == store.RequestStatusUnnecessary, nil
	}

	for _, sampleType := range sampleTypes {
		status, err := st.AuthorizationStatus(ctx, sampleType)
		if err != nil {
			return false, fmt.Errorf("authorization status for %q: %w", sampleType, err)
		}
		if status == store.StatusNotDetermined {
			return false, nil
		}
	}
	return true, nil
}

// RequestPermissions triggers the consent flow for any metric still
// undetermined. It resolves true once the platform reports the request
// completed, independent of what the user answered per metric.
func (s *Service) RequestPermissions(ctx context.Context, metrics []metric.Type) (bool, error) {
	st, sampleTypes, err := s.resolve(metrics)
	if err != nil {
		return false, err
	}

	key := consentKey(sampleTypes)
	granted, err, shared := s.consent.Do(key, func() (interface{}, error) {
		ok, err := st.RequestAuthorization(ctx, sampleTypes)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrAuthorizationFailed, err)
		}
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	if shared {
		slog.Debug("Consent flow deduplicated", "key", key)
	}
	return granted.(bool), nil
}

// RevokePermissions is a deliberate no-op: the underlying store provides no
// programmatic revocation, so callers must direct users to system settings.
func (s *Service) RevokePermissions() error {
	return nil
}

// IsAuthorized probes a single reference metric (step count): true when the
// user has responded to the consent prompt at all, either way; false while
// the prompt has never been answered.
func (s *Service) IsAuthorized(ctx context.Context) (bool, error) {
	st, sampleTypes, err := s.resolve([]metric.Type{metric.TypeSteps})
	if err != nil {
		return false, err
	}

	status, err := st.AuthorizationStatus(ctx, sampleTypes[0])
	if err != nil {
		return false, fmt.Errorf("authorization status for %q: %w", sampleTypes[0], err)
	}
	return status == store.StatusSharingAuthorized || status == store.StatusSharingDenied, nil
}

// EnsureAccess is the mandatory first step of every read/aggregate call:
// request authorization for exactly the metric being read and fail the call
// if the flow does not complete.
func (s *Service) EnsureAccess(ctx context.Context, m metric.Type) error {
	granted, err := s.RequestPermissions(ctx, []metric.Type{m})
	if err != nil {
		return err
	}
	if !granted {
		return fmt.Errorf("%w: consent flow did not complete for %q", ErrAuthorizationFailed, m)
	}
	return nil
}

func (s *Service) resolve(metrics []metric.Type) (store.Store, []string, error) {
	st, err := s.handle.Get()
	if err != nil {
		return nil, nil, err
	}

	sampleTypes := make([]string, 0, len(metrics))
	for _, m := range metrics {
		d, err := s.registry.Resolve(string(m))
		if err != nil {
			return nil, nil, err
		}
		sampleTypes = append(sampleTypes, d.SampleType)
	}
	return st, sampleTypes, nil
}

func consentKey(sampleTypes []string) string {
	sorted := make([]string, len(sampleTypes))
	copy(sorted, sampleTypes)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
