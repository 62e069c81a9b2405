package labels

// Label keys shared with operators. These are a bit-exact contract.
const (
	// EnableKey must be exactly "true" for a unit to be eligible.
	EnableKey = "traefik.enable"

	// RouterPrefix and RuleSuffix frame traefik.http.routers.<name>.rule.
	RouterPrefix = "traefik.http.routers."
	RuleSuffix   = ".rule"
)

// Namespace is a prefix under which homepage metadata labels live.
type Namespace string

const (
	PrimaryNamespace     Namespace = "homepage"
	AlternativeNamespace Namespace = "swarm.homepage"
)

// Metadata field suffixes.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldIcon        = "icon"
	FieldCategory    = "category"
	FieldURL         = "url"
)

// Key is one (namespace, field) pair.
type Key struct {
	Namespace Namespace
	Field     string
}

func (k Key) String() string {
	return string(k.Namespace) + "." + k.Field
}

// precedence lists namespaces in lookup order. First non-empty value wins.
var precedence = []Namespace{PrimaryNamespace, AlternativeNamespace}

// lookupOrder is the fixed, pre-built list of keys checked for every field.
var lookupOrder = buildLookupOrder(FieldName, FieldDescription, FieldIcon, FieldCategory, FieldURL)

func buildLookupOrder(fields ...string) map[string][]Key {
	order := make(map[string][]Key, len(fields))
	for _, f := range fields {
		keys := make([]Key, 0, len(precedence))
		for _, ns := range precedence {
			keys = append(keys, Key{Namespace: ns, Field: f})
		}
		order[f] = keys
	}
	return order
}

// LookupOrder returns the keys checked for field, highest precedence first.
func LookupOrder(field string) []Key {
	return lookupOrder[field]
}

// RuleKey returns the router rule label key for router name.
func RuleKey(router string) string {
	return RouterPrefix + router + RuleSuffix
}
