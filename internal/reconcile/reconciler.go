package reconcile

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/labels"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
)

// Reconciler turns source results into a canonical, ordered snapshot.
//
// Source policy: the primary result is used exclusively when at least one of
// its units is eligible and well formed. Only otherwise is the fallback result
// considered. Records from both sources are never merged, so each identity has
// exactly one owner. Callers may skip querying the fallback when Usable
// reports true for the primary.
type Reconciler struct {
	defaultCategory string
	logger          logger.Logger
	now             func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithDefaultCategory overrides the category sentinel.
func WithDefaultCategory(category string) Option {
	return func(r *Reconciler) {
		if category != "" {
			r.defaultCategory = category
		}
	}
}

// New creates a reconciler.
func New(log logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		defaultCategory: domain.DefaultCategory,
		logger:          log,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Usable reports whether res holds at least one unit that would become a
// descriptor. It parses labels but logs nothing.
func (r *Reconciler) Usable(res *domain.SourceResult) bool {
	if !res.Listed() {
		return false
	}
	for _, u := range res.Units {
		if p := labels.Parse(u.Labels, u.Scope); p.Eligible && p.Anomaly == nil {
			return true
		}
	}
	return false
}

// Reconcile always returns a snapshot. When neither source is usable the
// snapshot is empty and SourceUsed is none; LastError wraps
// domain.ErrReconciliationExhausted with the most recent source error, or
// stays nil when every source answered without eligible units.
func (r *Reconciler) Reconcile(primary, fallback *domain.SourceResult) domain.Snapshot {
	now := r.now()

	var (
		units []domain.Unit
		used  domain.SourceKind
	)
	switch {
	case r.Usable(primary):
		units, used = primary.Units, domain.SourcePrimary
	case r.Usable(fallback):
		units, used = fallback.Units, domain.SourceFallback
	default:
		snap := domain.Snapshot{
			Services:    []domain.ServiceDescriptor{},
			GeneratedAt: now,
			CheckedAt:   now,
			SourceUsed:  domain.SourceNone,
		}
		if err := lastError(primary, fallback); err != nil {
			snap.LastError = fmt.Errorf("%w: %w", domain.ErrReconciliationExhausted, err)
		}
		return snap
	}

	return domain.Snapshot{
		Services:    r.Descriptors(units),
		GeneratedAt: now,
		CheckedAt:   now,
		SourceUsed:  used,
	}
}

// Descriptors parses, filters, defaults, deduplicates and sorts units.
func (r *Reconciler) Descriptors(units []domain.Unit) []domain.ServiceDescriptor {
	out := make([]domain.ServiceDescriptor, 0, len(units))
	seen := make(map[string]bool, len(units))

	for _, u := range units {
		res := labels.Parse(u.Labels, u.Scope)
		if !res.Eligible {
			continue
		}
		if res.Anomaly != nil {
			r.logger.Warn("skipping unit with malformed proxy rule",
				logger.String("identity", u.Identity),
				logger.Error(res.Anomaly))
			continue
		}
		if seen[u.Identity] {
			r.logger.Debug("duplicate unit identity ignored",
				logger.String("identity", u.Identity))
			continue
		}
		seen[u.Identity] = true

		if res.Router != "" {
			r.logger.Debug("host extracted from router rule",
				logger.String("identity", u.Identity),
				logger.String("router", res.Router),
				logger.String("host", res.Host))
		}

		out = append(out, r.applyDefaults(u, res.Fields))
	}

	slices.SortFunc(out, compareDescriptors)
	return out
}

func (r *Reconciler) applyDefaults(u domain.Unit, d domain.ServiceDescriptor) domain.ServiceDescriptor {
	bare := u.BareName
	if bare == "" {
		bare = u.Identity
	}

	d.Identity = u.Identity
	if d.Name == "" {
		d.Name = bare
	}
	if d.Category == "" {
		d.Category = r.defaultCategory
	}
	// No host extracted: the bare name is used as a slug, not a guessed domain.
	if d.URL == "" {
		d.URL = "https://" + bare
	}
	return d
}

// compareDescriptors orders by category then name, case-insensitively.
// Identity breaks ties so the order is total.
func compareDescriptors(a, b domain.ServiceDescriptor) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category)),
		strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		strings.Compare(a.Identity, b.Identity),
	)
}

// lastError prefers the fallback error since the fallback is queried last.
// The empty-source signal is not an error.
func lastError(primary, fallback *domain.SourceResult) error {
	for _, res := range []*domain.SourceResult{fallback, primary} {
		if res != nil && res.Err != nil && !domain.IsEmpty(res.Err) {
			return res.Err
		}
	}
	return nil
}
