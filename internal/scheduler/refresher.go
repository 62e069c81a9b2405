package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/metrics"
	"github.com/MrSnakeDoc/swarm-homepage/internal/snapshot"
)

const (
	// DefaultInterval is used when no positive interval is configured.
	DefaultInterval = 60 * time.Second

	persistTimeout = 5 * time.Second
)

// Cycler runs one discovery cycle. It never fails; errors travel in the snapshot.
type Cycler interface {
	Cycle(ctx context.Context) domain.Snapshot
}

// SnapshotSaver persists successful snapshots.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, s domain.Snapshot) error
}

// Refresher drives refresh cycles: once at start, then on every tick and on
// manual requests. At most one cycle runs at a time.
type Refresher struct {
	engine   Cycler
	cache    *snapshot.Cache
	store    SnapshotSaver
	metrics  *metrics.Collector
	logger   logger.Logger
	interval time.Duration

	group         singleflight.Group
	running       atomic.Bool
	started       atomic.Bool
	manualTrigger chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
}

// NewRefresher creates a refresher. store and m may be nil.
func NewRefresher(
	engine Cycler,
	cache *snapshot.Cache,
	store SnapshotSaver,
	m *metrics.Collector,
	log logger.Logger,
	interval time.Duration,
) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{
		engine:        engine,
		cache:         cache,
		store:         store,
		metrics:       m,
		logger:        log,
		interval:      interval,
		manualTrigger: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start runs the first cycle synchronously, then refreshes periodically.
// A failed first cycle is not fatal: the cache keeps its prior content.
func (r *Refresher) Start(ctx context.Context) error {
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	r.started.Store(true)
	go func() {
		defer close(r.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Refresh(ctx)
			case <-r.manualTrigger:
				r.logger.Info("manual refresh triggered")
				r.Refresh(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the periodic loop and waits for an in-flight cycle to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	if r.started.Load() {
		<-r.done
	}
}

// Snapshot returns the latest published snapshot without blocking.
func (r *Refresher) Snapshot() domain.Snapshot {
	return r.cache.Get()
}

// RefreshNow asks for one out-of-band cycle and returns immediately.
// It reports false when the request was coalesced into a cycle that is
// already running or already pending.
func (r *Refresher) RefreshNow() bool {
	if r.running.Load() {
		r.metrics.Coalesced()
		return false
	}
	select {
	case r.manualTrigger <- struct{}{}:
		return true
	default:
		r.metrics.Coalesced()
		return false
	}
}

// Refresh runs one cycle and returns the snapshot readers now see.
// Concurrent callers share a single cycle. The cycle is not cancelled by
// ctx; source timeouts bound it.
func (r *Refresher) Refresh(ctx context.Context) domain.Snapshot {
	v, _, _ := r.group.Do("refresh", func() (interface{}, error) {
		return r.cycle(context.WithoutCancel(ctx)), nil
	})
	return v.(domain.Snapshot)
}

func (r *Refresher) cycle(ctx context.Context) domain.Snapshot {
	r.running.Store(true)
	defer r.running.Store(false)

	log := r.logger.With(logger.String("cycle_id", uuid.NewString()))
	start := time.Now()

	next := r.engine.Cycle(ctx)
	published, stale := r.cache.Apply(next)
	took := time.Since(start)

	r.metrics.ObserveCycle(published, stale, took)

	if stale && published.LastError == nil {
		log.Info("no eligible units listed, serving previous snapshot",
			logger.Int("services", len(published.Services)),
			logger.String("source", string(published.SourceUsed)),
			logger.Duration("duration", took))
		return published
	}
	if stale {
		log.Warn("refresh failed, serving previous snapshot",
			logger.Int("services", len(published.Services)),
			logger.String("source", string(published.SourceUsed)),
			logger.Duration("duration", took),
			logger.Error(published.LastError))
		return published
	}

	log.Info("refresh completed",
		logger.Int("services", len(published.Services)),
		logger.String("source", string(published.SourceUsed)),
		logger.Duration("duration", took))

	r.persist(ctx, log, published)
	return published
}

// persist is best effort; the in-memory cache stays authoritative.
func (r *Refresher) persist(ctx context.Context, log logger.Logger, s domain.Snapshot) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := r.store.SaveSnapshot(ctx, s); err != nil {
		log.Warn("failed to persist snapshot to redis", logger.Error(err))
		return
	}
	log.Debug("snapshot persisted to redis")
}
