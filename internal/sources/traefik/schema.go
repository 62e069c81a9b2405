package traefik

// Router is the subset of a Traefik router returned by GET /api/http/routers.
type Router struct {
	Name        string   `json:"name"`
	Rule        string   `json:"rule"`
	Service     string   `json:"service,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	Status      string   `json:"status,omitempty"`
	EntryPoints []string `json:"entryPoints,omitempty"`
	Priority    int      `json:"priority,omitempty"`
}

const (
	statusEnabled    = "enabled"
	providerInternal = "internal"
)
