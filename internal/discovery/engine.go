package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/reconcile"
)

// Source is a label source: the runtime socket or the proxy API.
type Source interface {
	Name() string
	ListUnits(ctx context.Context) ([]domain.Unit, error)
}

// Engine runs one discovery cycle: primary source, fallback only when the
// primary yields no eligible unit, then reconciliation.
type Engine struct {
	primary    Source
	fallback   Source
	reconciler *reconcile.Reconciler
	logger     logger.Logger
}

// NewEngine wires the sources. Either source may be nil when not configured.
func NewEngine(primary, fallback Source, r *reconcile.Reconciler, log logger.Logger) *Engine {
	return &Engine{
		primary:    primary,
		fallback:   fallback,
		reconciler: r,
		logger:     log,
	}
}

// Cycle never fails; errors are carried by the returned snapshot.
func (e *Engine) Cycle(ctx context.Context) domain.Snapshot {
	primary := e.query(ctx, e.primary, "primary")

	primaryUsable := e.reconciler.Usable(primary)
	if !primaryUsable && primary.Listed() {
		e.logger.Info("primary source listed no eligible units",
			logger.String("source", e.primary.Name()),
			logger.Int("units", len(primary.Units)))
	}

	var fallback *domain.SourceResult
	if !primaryUsable && e.fallback != nil {
		e.logger.Info("primary source unusable, querying fallback",
			logger.String("fallback", e.fallback.Name()),
			logger.Error(primary.Err))
		fallback = e.query(ctx, e.fallback, "fallback")
	}

	if !primaryUsable && primary.Succeeded() && fallback.Succeeded() && !e.reconciler.Usable(fallback) {
		e.logger.Info("all sources reachable but no eligible units listed")
	}
	return e.reconciler.Reconcile(primary, fallback)
}

func (e *Engine) query(ctx context.Context, src Source, role string) *domain.SourceResult {
	if src == nil {
		return &domain.SourceResult{
			Err: fmt.Errorf("%w: %s source not configured", domain.ErrSourceUnavailable, role),
		}
	}

	start := time.Now()
	units, err := src.ListUnits(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		e.logger.Debug("source answered",
			logger.String("source", src.Name()),
			logger.Int("units", len(units)),
			logger.Duration("elapsed", elapsed))
	case domain.IsEmpty(err):
		e.logger.Info("source returned no units",
			logger.String("source", src.Name()),
			logger.Duration("elapsed", elapsed))
	default:
		err = classify(src.Name(), err)
		e.logger.Warn("source unavailable",
			logger.String("source", src.Name()),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
	}

	return &domain.SourceResult{Units: units, Err: err}
}

// classify makes sure every adapter failure, timeouts included, reads as
// domain.ErrSourceUnavailable.
func classify(name string, err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, name, err)
}
