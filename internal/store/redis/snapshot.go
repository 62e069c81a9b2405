package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
)

const (
	// DefaultSnapshotTTL bounds how long a persisted snapshot may be restored.
	DefaultSnapshotTTL = 7 * 24 * time.Hour

	snapshotFormat = 1
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing was persisted.
var ErrNoSnapshot = errors.New("no persisted snapshot")

// Store persists the last-known-good snapshot in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a snapshot store. A ttl <= 0 uses DefaultSnapshotTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// persistedSnapshot is the stored JSON form. LastError is not kept:
// only successful snapshots are saved.
type persistedSnapshot struct {
	Format      int                        `json:"format"`
	Services    []domain.ServiceDescriptor `json:"services"`
	GeneratedAt time.Time                  `json:"generated_at"`
	CheckedAt   time.Time                  `json:"checked_at"`
	SourceUsed  domain.SourceKind          `json:"source_used"`
}

func encodeSnapshot(s domain.Snapshot) ([]byte, error) {
	return json.Marshal(persistedSnapshot{
		Format:      snapshotFormat,
		Services:    s.Services,
		GeneratedAt: s.GeneratedAt,
		CheckedAt:   s.CheckedAt,
		SourceUsed:  s.SourceUsed,
	})
}

func decodeSnapshot(data []byte) (domain.Snapshot, error) {
	var p persistedSnapshot
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if p.Format != snapshotFormat {
		return domain.Snapshot{}, fmt.Errorf("unsupported snapshot format %d", p.Format)
	}
	if p.Services == nil {
		p.Services = []domain.ServiceDescriptor{}
	}
	return domain.Snapshot{
		Services:    p.Services,
		GeneratedAt: p.GeneratedAt,
		CheckedAt:   p.CheckedAt,
		SourceUsed:  p.SourceUsed,
	}, nil
}

// SaveSnapshot replaces the persisted snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, SnapshotKey(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted snapshot or ErrNoSnapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, SnapshotKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, ErrNoSnapshot
		}
		return domain.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
