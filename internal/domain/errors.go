package domain

import "errors"

var (
	// ErrSourceUnavailable covers transport, auth and timeout failures reaching a source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceEmpty signals a reachable source that listed zero units.
	// It is not a failure and never ends up in Snapshot.LastError.
	ErrSourceEmpty = errors.New("source returned no units")

	// ErrParseAnomaly marks a malformed proxy rule; only the affected unit is skipped.
	ErrParseAnomaly = errors.New("malformed proxy rule")

	// ErrReconciliationExhausted is recorded when no source produced usable data in a cycle.
	ErrReconciliationExhausted = errors.New("no source produced usable data")
)

// IsEmpty reports whether err is the non-fatal empty-source signal.
func IsEmpty(err error) bool {
	return errors.Is(err, ErrSourceEmpty)
}
