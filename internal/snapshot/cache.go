package snapshot

import (
	"sync/atomic"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
)

// Cache holds the latest reconciled snapshot.
//
// Readers never block: the current generation is published by atomic
// replacement of a pointer, so Get observes either the old or the new
// complete snapshot. Published values are never mutated.
type Cache struct {
	current atomic.Pointer[domain.Snapshot]
	initial *domain.Snapshot
}

// New creates a cache holding an empty, never-generated snapshot.
func New() *Cache {
	c := &Cache{
		initial: &domain.Snapshot{
			Services:   []domain.ServiceDescriptor{},
			SourceUsed: domain.SourceNone,
		},
	}
	c.current.Store(c.initial)
	return c
}

// Get returns the latest completed snapshot. Callers must treat the
// Services slice as read-only.
func (c *Cache) Get() domain.Snapshot {
	return *c.current.Load()
}

// Apply publishes the outcome of a cycle and returns what readers now see.
//
// A cycle in which no source was usable keeps the previous services and only
// updates LastError and CheckedAt; stale is true in that case. This holds
// whether the sources failed or merely answered without eligible units.
// Apply is meant for a single writer.
func (c *Cache) Apply(next domain.Snapshot) (published domain.Snapshot, stale bool) {
	if next.SourceUsed == domain.SourceNone {
		prior := c.Get()
		published = prior.WithFailure(next.LastError, next.CheckedAt)
		c.current.Store(&published)
		return published, true
	}

	if next.Services == nil {
		next.Services = []domain.ServiceDescriptor{}
	}
	c.current.Store(&next)
	return next, false
}

// Restore seeds the cache with a persisted snapshot. It only succeeds while
// no cycle has been applied yet.
func (c *Cache) Restore(s domain.Snapshot) bool {
	s.Restored = true
	if s.Services == nil {
		s.Services = []domain.ServiceDescriptor{}
	}
	return c.current.CompareAndSwap(c.initial, &s)
}
