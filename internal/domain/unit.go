package domain

// Scope identifies where a unit's labels live.
type Scope string

const (
	// ScopeStandalone: labels on the container itself.
	ScopeStandalone Scope = "standalone"
	// ScopeClustered: labels under the swarm service's deployment labels.
	ScopeClustered Scope = "clustered"
)

// Unit is one raw discovery result: a container, a swarm service or a proxy router.
type Unit struct {
	// Identity is the unique key of the unit (full name).
	Identity string
	// BareName is the fallback display name and URL slug.
	BareName string
	Labels   map[string]string
	Scope    Scope
}

// SourceResult is what a source adapter produced for one cycle.
// Either Err is set or Units holds the listing.
type SourceResult struct {
	Units []Unit
	Err   error
}

// Listed reports whether the result carries at least one unit, eligible or not.
func (r *SourceResult) Listed() bool {
	return r != nil && r.Err == nil && len(r.Units) > 0
}

// Succeeded reports whether the source answered, even with zero units.
func (r *SourceResult) Succeeded() bool {
	return r != nil && (r.Err == nil || IsEmpty(r.Err))
}
