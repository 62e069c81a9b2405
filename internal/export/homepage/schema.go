package homepage

// ServicesConfig is the top-level structure of a Homepage services.yaml:
// a list of single-key group maps, each holding a list of single-key
// service maps. Lists keep the group and entry order stable.
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps are the per-entry properties Homepage understands.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}
