package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/metrics"
	"github.com/MrSnakeDoc/swarm-homepage/internal/snapshot"
)

// fakeCycler returns queued snapshots in order, repeating the last one.
type fakeCycler struct {
	mu      sync.Mutex
	results []domain.Snapshot
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (f *fakeCycler) Cycle(ctx context.Context) domain.Snapshot {
	n := int(f.calls.Add(1))
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.results) {
		n = len(f.results)
	}
	return f.results[n-1]
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []domain.Snapshot
	err   error
}

func (f *fakeSaver) SaveSnapshot(ctx context.Context, s domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return f.err
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func healthy(names ...string) domain.Snapshot {
	svcs := make([]domain.ServiceDescriptor, 0, len(names))
	for _, n := range names {
		svcs = append(svcs, domain.ServiceDescriptor{Identity: n, Name: n, Category: domain.DefaultCategory})
	}
	now := time.Now()
	return domain.Snapshot{Services: svcs, GeneratedAt: now, CheckedAt: now, SourceUsed: domain.SourcePrimary}
}

func failed(err error) domain.Snapshot {
	return domain.Snapshot{
		Services:   []domain.ServiceDescriptor{},
		CheckedAt:  time.Now(),
		SourceUsed: domain.SourceNone,
		LastError:  err,
	}
}

func TestRefreshPublishesAndPersists(t *testing.T) {
	cache := snapshot.New()
	store := &fakeSaver{}
	r := NewRefresher(&fakeCycler{results: []domain.Snapshot{healthy("a", "b")}}, cache, store, metrics.New(), logger.NewNop(), time.Hour)

	got := r.Refresh(context.Background())

	assert.Len(t, got.Services, 2)
	assert.Equal(t, got.Services, r.Snapshot().Services)
	assert.Equal(t, 1, store.count())
}

func TestRefreshFailureKeepsPreviousServices(t *testing.T) {
	boom := errors.New("both sources down")
	cache := snapshot.New()
	store := &fakeSaver{}
	r := NewRefresher(&fakeCycler{results: []domain.Snapshot{healthy("a"), failed(boom)}}, cache, store, nil, logger.NewNop(), time.Hour)

	first := r.Refresh(context.Background())
	second := r.Refresh(context.Background())

	assert.Equal(t, first.Services, second.Services)
	assert.Equal(t, domain.SourcePrimary, second.SourceUsed)
	assert.ErrorIs(t, second.LastError, boom)
	assert.Equal(t, 1, store.count(), "failed cycles are not persisted")
}

func TestRefreshWithNothingEligibleKeepsPreviousServices(t *testing.T) {
	cache := snapshot.New()
	store := &fakeSaver{}
	nothing := domain.Snapshot{Services: []domain.ServiceDescriptor{}, CheckedAt: time.Now(), SourceUsed: domain.SourceNone}
	r := NewRefresher(&fakeCycler{results: []domain.Snapshot{healthy("a"), nothing}}, cache, store, nil, logger.NewNop(), time.Hour)

	first := r.Refresh(context.Background())
	second := r.Refresh(context.Background())

	assert.Equal(t, first.Services, second.Services)
	assert.NoError(t, second.LastError)
	assert.Equal(t, 1, store.count())
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	cache := snapshot.New()
	store := &fakeSaver{err: errors.New("redis down")}
	r := NewRefresher(&fakeCycler{results: []domain.Snapshot{healthy("a")}}, cache, store, nil, logger.NewNop(), time.Hour)

	got := r.Refresh(context.Background())

	assert.Len(t, got.Services, 1)
	assert.NoError(t, cache.Get().LastError)
}

func TestRefreshIgnoresCallerCancellation(t *testing.T) {
	r := NewRefresher(&fakeCycler{results: []domain.Snapshot{healthy("a")}}, snapshot.New(), nil, nil, logger.NewNop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := r.Refresh(ctx)
	assert.Len(t, got.Services, 1)
}

func TestRefreshNowCoalescesWhileRunning(t *testing.T) {
	fc := &fakeCycler{
		results: []domain.Snapshot{healthy("a")},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := metrics.New()
	r := NewRefresher(fc, snapshot.New(), nil, m, logger.NewNop(), time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Refresh(context.Background())
	}()
	<-fc.entered

	assert.False(t, r.RefreshNow(), "a request during a running cycle is a no-op")
	assert.False(t, r.RefreshNow())

	close(fc.release)
	<-done

	assert.Equal(t, int32(1), fc.calls.Load())
	assert.True(t, r.RefreshNow(), "idle refresher accepts a request")
	assert.False(t, r.RefreshNow(), "second request coalesces into the pending one")
}

func TestConcurrentRefreshSharesOneCycle(t *testing.T) {
	fc := &fakeCycler{
		results: []domain.Snapshot{healthy("a")},
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	r := NewRefresher(fc, snapshot.New(), nil, nil, logger.NewNop(), time.Hour)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Refresh(context.Background())
	}()
	<-fc.entered

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Refresh(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(fc.release)
	wg.Wait()

	assert.Equal(t, int32(1), fc.calls.Load())
}

func TestStartRunsInitialAndManualCycles(t *testing.T) {
	fc := &fakeCycler{results: []domain.Snapshot{healthy("a"), healthy("a", "b")}}
	cache := snapshot.New()
	r := NewRefresher(fc, cache, nil, nil, logger.NewNop(), time.Hour)

	require.NoError(t, r.Start(context.Background()))
	assert.Len(t, cache.Get().Services, 1, "first cycle runs before Start returns")

	require.True(t, r.RefreshNow())
	require.Eventually(t, func() bool {
		return len(cache.Get().Services) == 2
	}, 2*time.Second, 10*time.Millisecond)

	r.Stop()
	r.Stop()
}

func TestStartTicks(t *testing.T) {
	fc := &fakeCycler{results: []domain.Snapshot{healthy("a")}}
	r := NewRefresher(fc, snapshot.New(), nil, nil, logger.NewNop(), 10*time.Millisecond)

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool {
		return fc.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
	r.Stop()
}

func TestStartWithFailingSources(t *testing.T) {
	fc := &fakeCycler{results: []domain.Snapshot{failed(domain.ErrReconciliationExhausted)}}
	cache := snapshot.New()
	r := NewRefresher(fc, cache, nil, nil, logger.NewNop(), time.Hour)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	got := cache.Get()
	assert.Empty(t, got.Services)
	assert.ErrorIs(t, got.LastError, domain.ErrReconciliationExhausted)
}

func TestStopWithoutStart(t *testing.T) {
	r := NewRefresher(&fakeCycler{results: []domain.Snapshot{healthy()}}, snapshot.New(), nil, nil, logger.NewNop(), 0)
	assert.Equal(t, DefaultInterval, r.interval)
	r.Stop()
}

func TestCycleLogsCycleID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := NewRefresher(&fakeCycler{results: []domain.Snapshot{healthy("a")}}, snapshot.New(), nil, nil, logger.FromZap(zap.New(core)), time.Hour)

	r.Refresh(context.Background())

	entries := logs.FilterMessage("refresh completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.NotEmpty(t, fields["cycle_id"])
	assert.Equal(t, int64(1), fields["services"])
	assert.Equal(t, "primary", fields["source"])
}
