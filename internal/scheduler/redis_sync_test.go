package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/snapshot"
	redisstore "github.com/MrSnakeDoc/swarm-homepage/internal/store/redis"
)

type fakeLoader struct {
	snap domain.Snapshot
	err  error
}

func (f fakeLoader) LoadSnapshot(context.Context) (domain.Snapshot, error) {
	return f.snap, f.err
}

func TestRedisSyncer_Sync(t *testing.T) {
	persisted := healthy("a", "b")

	tests := []struct {
		name         string
		loader       fakeLoader
		wantErr      bool
		wantRestored bool
	}{
		{name: "restores", loader: fakeLoader{snap: persisted}, wantRestored: true},
		{name: "nothing persisted", loader: fakeLoader{err: redisstore.ErrNoSnapshot}},
		{name: "redis error", loader: fakeLoader{err: errors.New("timeout")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := snapshot.New()
			err := NewRedisSyncer(tt.loader, cache, logger.NewNop()).Sync(context.Background())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			got := cache.Get()
			assert.Equal(t, tt.wantRestored, got.Restored)
			if tt.wantRestored {
				assert.Len(t, got.Services, 2)
				assert.Equal(t, domain.SourcePrimary, got.SourceUsed)
			} else {
				assert.False(t, got.Generated())
			}
		})
	}
}

func TestRedisSyncer_LiveCycleWins(t *testing.T) {
	cache := snapshot.New()
	live := healthy("live")
	cache.Apply(live)

	persisted := healthy("old1", "old2")
	persisted.GeneratedAt = time.Now().Add(-time.Hour)
	require.NoError(t, NewRedisSyncer(fakeLoader{snap: persisted}, cache, logger.NewNop()).Sync(context.Background()))

	got := cache.Get()
	assert.False(t, got.Restored)
	assert.Len(t, got.Services, 1)
}
