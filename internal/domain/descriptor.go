package domain

// DefaultCategory is the grouping key used when a unit carries no category label.
const DefaultCategory = "Uncategorized"

// ServiceDescriptor is the canonical unit of dashboard output.
//
// It is NOT tied to Docker, Traefik or any other source.
// Every source result is parsed and reconciled into this structure.
//
// A ServiceDescriptor is uniquely identified by its Identity within a snapshot.
type ServiceDescriptor struct {
	// Identity is derived from the runtime unit's name (container, swarm
	// service or proxy router). Used for deduplication.
	Identity string `json:"identity"`

	// Name is the display name. Defaults to the unit's bare name.
	Name string `json:"name"`

	// Description is optional, empty by default.
	Description string `json:"description"`

	// IconURL is optional. Empty means the consumer derives one from URL.
	IconURL string `json:"icon"`

	// Category is the grouping key. Defaults to DefaultCategory.
	Category string `json:"category"`

	// URL is the resolved external URL.
	URL string `json:"url"`

	// Enabled is true only when traefik.enable is exactly "true".
	// Reconciled snapshots never contain a disabled descriptor.
	Enabled bool `json:"enabled"`

	// Scope records the label topology the descriptor was read from.
	Scope Scope `json:"scope"`
}
