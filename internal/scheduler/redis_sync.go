package scheduler

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/snapshot"
	redisstore "github.com/MrSnakeDoc/swarm-homepage/internal/store/redis"
)

// SnapshotLoader reads the last persisted snapshot.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (domain.Snapshot, error)
}

// RedisSyncer seeds the cache from Redis on startup so the dashboard is
// not blank while sources warm up.
type RedisSyncer struct {
	store  SnapshotLoader
	cache  *snapshot.Cache
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(store SnapshotLoader, cache *snapshot.Cache, log logger.Logger) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		cache:  cache,
		logger: log,
	}
}

// Sync restores the persisted snapshot. A missing snapshot is not an error.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("restoring last snapshot from redis")

	s, err := rs.store.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, redisstore.ErrNoSnapshot) {
			rs.logger.Info("no snapshot found in redis")
			return nil
		}
		return err
	}

	if !rs.cache.Restore(s) {
		rs.logger.Info("cache already populated, persisted snapshot ignored")
		return nil
	}

	rs.logger.Info("restored snapshot from redis",
		logger.Int("services", len(s.Services)),
		logger.String("source", string(s.SourceUsed)),
		logger.Time("generated_at", s.GeneratedAt))

	return nil
}
