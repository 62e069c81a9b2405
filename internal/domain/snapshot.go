package domain

import "time"

// SourceKind tells which label source fed a snapshot.
type SourceKind string

const (
	SourcePrimary  SourceKind = "primary"
	SourceFallback SourceKind = "fallback"
	SourceNone     SourceKind = "none"
)

// Snapshot is one complete, immutable result of a reconciliation cycle.
// Values are never mutated once published; a new cycle publishes a new value.
type Snapshot struct {
	// Services is ordered by category then name, case-insensitively.
	Services []ServiceDescriptor

	// GeneratedAt is when Services was produced.
	GeneratedAt time.Time

	// CheckedAt is when the most recent cycle finished, successful or not.
	CheckedAt time.Time

	SourceUsed SourceKind

	// LastError is the most recent cycle error, nil after a clean cycle.
	LastError error

	// Restored is true when Services came from persistence rather than a live cycle.
	Restored bool
}

// Generated reports whether the snapshot holds the outcome of any cycle.
func (s Snapshot) Generated() bool {
	return !s.GeneratedAt.IsZero() || !s.CheckedAt.IsZero()
}

// Failed reports whether the snapshot came out of a cycle in which no source was usable.
func (s Snapshot) Failed() bool {
	return s.SourceUsed == SourceNone && s.LastError != nil
}

// Stale reports whether the services were produced before the most recent cycle.
func (s Snapshot) Stale() bool {
	return len(s.Services) > 0 && s.CheckedAt.After(s.GeneratedAt)
}

// WithFailure returns a copy of s that keeps its services but records the
// outcome of a cycle that produced none. err may be nil.
func (s Snapshot) WithFailure(err error, at time.Time) Snapshot {
	s.LastError = err
	s.CheckedAt = at
	return s
}
