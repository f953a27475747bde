package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
	"github.com/healthbridge-lab/healthbridge/internal/store"
	"github.com/healthbridge-lab/healthbridge/internal/store/memory"
)

func newService(t *testing.T, st store.Store) *Service {
	t.Helper()
	return NewService(store.NewLazy(func() (store.Store, error) { return st, nil }), metric.NewRegistry())
}

// legacyStore hides the refined request-status probe, forcing the
// per-metric fallback strategy.
type legacyStore struct {
	store.Store
}

func TestService_HasPermissions_ModernProbe(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := newService(t, mem)

	metrics := []metric.Type{metric.TypeSteps, metric.TypeEnergy}

	granted, err := svc.HasPermissions(ctx, metrics)
	require.NoError(t, err)
	require.False(t, granted, "fresh state must report no permissions")

	ok, err := svc.RequestPermissions(ctx, metrics)
	require.NoError(t, err)
	require.True(t, ok)

	granted, err = svc.HasPermissions(ctx, metrics)
	require.NoError(t, err)
	require.True(t, granted)
}

func TestService_HasPermissions_IndependentOfUserDecision(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	mem.SetDecision("step_count", false) // simulated deny
	svc := newService(t, mem)

	metrics := []metric.Type{metric.TypeSteps}

	ok, err := svc.RequestPermissions(ctx, metrics)
	require.NoError(t, err)
	require.True(t, ok, "a denied answer still completes the flow")

	granted, err := svc.HasPermissions(ctx, metrics)
	require.NoError(t, err)
	require.True(t, granted, "the user responded, so re-prompting is unnecessary")
}

func TestService_HasPermissions_LegacyFallback(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := newService(t, legacyStore{mem})

	metrics := []metric.Type{metric.TypeSteps, metric.TypeDistance}

	granted, err := svc.HasPermissions(ctx, metrics)
	require.NoError(t, err)
	require.False(t, granted)

	// Only one of the two metrics responded: still false.
	_, err = mem.RequestAuthorization(ctx, []string{"step_count"})
	require.NoError(t, err)

	granted, err = svc.HasPermissions(ctx, metrics)
	require.NoError(t, err)
	require.False(t, granted)

	_, err = mem.RequestAuthorization(ctx, []string{"distance_walking_running"})
	require.NoError(t, err)

	granted, err = svc.HasPermissions(ctx, metrics)
	require.NoError(t, err)
	require.True(t, granted)
}

func TestService_RequestPermissions_PlatformErrorFailsFlow(t *testing.T) {
	mem := memory.New()
	mem.FailRequests(errors.New("user cancelled"))
	svc := newService(t, mem)

	_, err := svc.RequestPermissions(context.Background(), []metric.Type{metric.TypeSteps})
	require.ErrorIs(t, err, ErrAuthorizationFailed)
}

func TestService_RevokePermissions_NoOpKeepsState(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := newService(t, mem)

	_, err := svc.RequestPermissions(ctx, []metric.Type{metric.TypeSteps})
	require.NoError(t, err)

	require.NoError(t, svc.RevokePermissions())

	granted, err := svc.HasPermissions(ctx, []metric.Type{metric.TypeSteps})
	require.NoError(t, err)
	require.True(t, granted, "revoke must not alter stored authorization state")
}

func TestService_IsAuthorized(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := newService(t, mem)

	authorized, err := svc.IsAuthorized(ctx)
	require.NoError(t, err)
	require.False(t, authorized)

	// Answering with a deny still counts as authorized-or-denied.
	mem.SetDecision("step_count", false)
	_, err = svc.RequestPermissions(ctx, []metric.Type{metric.TypeSteps})
	require.NoError(t, err)

	authorized, err = svc.IsAuthorized(ctx)
	require.NoError(t, err)
	require.True(t, authorized)
}

func TestService_StoreUnavailable(t *testing.T) {
	svc := NewService(store.NewLazy(func() (store.Store, error) {
		return nil, errors.New("no capability")
	}), metric.NewRegistry())

	_, err := svc.HasPermissions(context.Background(), []metric.Type{metric.TypeSteps})
	require.ErrorIs(t, err, store.ErrUnavailable)
}

// blockingStore lets the test hold the consent flow open so concurrent
// identical requests pile up behind it.
type blockingStore struct {
	store.Store
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingStore) RequestAuthorization(ctx context.Context, sampleTypes []string) (bool, error) {
	b.calls.Add(1)
	<-b.release
	return true, nil
}

func TestService_RequestPermissions_DeduplicatesConcurrentFlows(t *testing.T) {
	blocking := &blockingStore{Store: memory.New(), release: make(chan struct{})}
	svc := newService(t, blocking)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]bool, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.RequestPermissions(context.Background(), []metric.Type{metric.TypeSteps})
		}(i)
	}

	// Let the goroutines queue up on the in-flight flow, then release it.
	require.Eventually(t, func() bool { return blocking.calls.Load() > 0 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(blocking.release)
	wg.Wait()

	require.Equal(t, int32(1), blocking.calls.Load(), "identical concurrent flows must collapse into one store call")
	for i := range results {
		require.NoError(t, errs[i])
		require.True(t, results[i])
	}
}
