package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/reconcile"
	"github.com/MrSnakeDoc/swarm-homepage/internal/snapshot"
)

type stubSource struct {
	name  string
	units []domain.Unit
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) ListUnits(context.Context) ([]domain.Unit, error) {
	s.calls++
	return s.units, s.err
}

func enabledUnit(id, host string) domain.Unit {
	return domain.Unit{
		Identity: id,
		BareName: id,
		Scope:    domain.ScopeStandalone,
		Labels: map[string]string{
			"traefik.enable":                       "true",
			"traefik.http.routers." + id + ".rule": "Host(`" + host + "`)",
		},
	}
}

func newEngine(primary, fallback Source) *Engine {
	log := logger.NewNop()
	return NewEngine(primary, fallback, reconcile.New(log), log)
}

func TestCycleSkipsFallbackWhenPrimaryUsable(t *testing.T) {
	primary := &stubSource{name: "docker", units: []domain.Unit{enabledUnit("app", "app.example.com")}}
	fallback := &stubSource{name: "traefik", units: []domain.Unit{enabledUnit("other", "other.example.com")}}

	snap := newEngine(primary, fallback).Cycle(context.Background())

	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
	assert.Equal(t, domain.SourcePrimary, snap.SourceUsed)
	require.Len(t, snap.Services, 1)
	assert.Equal(t, "app", snap.Services[0].Identity)
}

func TestCycleQueriesFallback(t *testing.T) {
	tests := []struct {
		name       string
		primaryErr error
	}{
		{name: "primary empty", primaryErr: domain.ErrSourceEmpty},
		{name: "primary down", primaryErr: errors.New("connection refused")},
		{name: "primary timeout", primaryErr: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &stubSource{name: "docker", err: tt.primaryErr}
			fallback := &stubSource{name: "traefik", units: []domain.Unit{enabledUnit("b", "b.example.com")}}

			snap := newEngine(primary, fallback).Cycle(context.Background())

			assert.Equal(t, 1, fallback.calls)
			assert.Equal(t, domain.SourceFallback, snap.SourceUsed)
			require.Len(t, snap.Services, 1)
			assert.Equal(t, "https://b.example.com", snap.Services[0].URL)
		})
	}
}

func TestCycleQueriesFallbackWhenPrimaryHasNoEligibleUnits(t *testing.T) {
	self := domain.Unit{Identity: "swarm-homepage", BareName: "swarm-homepage", Scope: domain.ScopeStandalone, Labels: map[string]string{}}
	primary := &stubSource{name: "docker", units: []domain.Unit{self}}
	fallback := &stubSource{name: "traefik", units: []domain.Unit{enabledUnit("b", "b.example.com")}}

	snap := newEngine(primary, fallback).Cycle(context.Background())

	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, domain.SourceFallback, snap.SourceUsed)
	require.Len(t, snap.Services, 1)
	assert.Equal(t, "https://b.example.com", snap.Services[0].URL)
}

func TestCycleWithNothingEligibleKeepsCachedServices(t *testing.T) {
	cache := snapshot.New()
	live := newEngine(&stubSource{name: "docker", units: []domain.Unit{enabledUnit("app", "app.example.com")}}, nil).Cycle(context.Background())
	cache.Apply(live)

	primary := &stubSource{name: "docker", err: domain.ErrSourceEmpty}
	fallback := &stubSource{name: "traefik", err: domain.ErrSourceEmpty}
	published, stale := cache.Apply(newEngine(primary, fallback).Cycle(context.Background()))

	assert.True(t, stale)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, domain.SourcePrimary, published.SourceUsed)
	require.Len(t, published.Services, 1)
	assert.Equal(t, "app", published.Services[0].Identity)
	assert.NoError(t, published.LastError)
}

func TestCycleExhausted(t *testing.T) {
	primary := &stubSource{name: "docker", err: context.DeadlineExceeded}
	fallback := &stubSource{name: "traefik", err: errors.New("503")}

	snap := newEngine(primary, fallback).Cycle(context.Background())

	assert.Equal(t, domain.SourceNone, snap.SourceUsed)
	assert.ErrorIs(t, snap.LastError, domain.ErrReconciliationExhausted)
	assert.ErrorIs(t, snap.LastError, domain.ErrSourceUnavailable)
	assert.True(t, snap.Failed())
}

func TestCycleWithoutSources(t *testing.T) {
	snap := newEngine(nil, nil).Cycle(context.Background())

	assert.Equal(t, domain.SourceNone, snap.SourceUsed)
	assert.ErrorIs(t, snap.LastError, domain.ErrSourceUnavailable)
}

func TestClassify(t *testing.T) {
	wrapped := classify("docker", context.DeadlineExceeded)
	assert.ErrorIs(t, wrapped, domain.ErrSourceUnavailable)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)

	already := errors.Join(domain.ErrSourceUnavailable, errors.New("dial failed"))
	assert.Equal(t, already, classify("docker", already))
}
