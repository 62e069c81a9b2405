package labels

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
)

// hostToken matches the first Host(`...`) matcher. Quotes may be backticks,
// double or single quotes; only the first host of a multi-host matcher is kept.
var hostToken = regexp.MustCompile("\\bHost\\(\\s*[`\"']([^`\"'\\s,)]+)[`\"']")

// hostOpen detects a Host matcher regardless of whether it is well formed.
var hostOpen = regexp.MustCompile(`\bHost\(`)

// Result is the outcome of parsing one unit's labels.
//
// Fields is a partial descriptor: only what the labels carry is set.
// Defaulting is left to the reconciler.
type Result struct {
	Eligible bool
	Fields   domain.ServiceDescriptor

	// Host is the hostname extracted from the router rule, empty if none.
	Host string
	// Router is the router whose rule yielded Host.
	Router string

	// Anomaly wraps domain.ErrParseAnomaly when a router rule carried a
	// malformed Host matcher and no other router yielded a host.
	Anomaly error
}

// Parse extracts a descriptor candidate from a raw label map.
// It does no I/O and holds no state.
func Parse(labels map[string]string, scope domain.Scope) Result {
	if labels[EnableKey] != "true" {
		return Result{}
	}

	res := Result{
		Eligible: true,
		Fields: domain.ServiceDescriptor{
			Enabled:     true,
			Scope:       scope,
			Name:        lookup(labels, FieldName),
			Description: lookup(labels, FieldDescription),
			IconURL:     lookup(labels, FieldIcon),
			Category:    lookup(labels, FieldCategory),
		},
	}

	res.Router, res.Host, res.Anomaly = routerHost(labels)

	if override := lookup(labels, FieldURL); override != "" {
		res.Fields.URL = override
		// An explicit URL makes the rule irrelevant, malformed or not.
		res.Anomaly = nil
	} else if res.Host != "" {
		res.Fields.URL = "https://" + res.Host
	}

	return res
}

// lookup walks the fixed namespace precedence for field.
func lookup(labels map[string]string, field string) string {
	for _, k := range LookupOrder(field) {
		if v := strings.TrimSpace(labels[k.String()]); v != "" {
			return v
		}
	}
	return ""
}

// routerHost examines router rules in lexical order of router name and
// returns the first extracted host.
func routerHost(labels map[string]string) (router, host string, anomaly error) {
	routers := RouterNames(labels)

	var malformed []string
	for _, name := range routers {
		rule := labels[RuleKey(name)]
		if h, ok := ExtractHost(rule); ok {
			return name, h, nil
		}
		if hostOpen.MatchString(rule) {
			malformed = append(malformed, name)
		}
	}

	if len(malformed) > 0 {
		return "", "", fmt.Errorf("%w: router %q rule %q",
			domain.ErrParseAnomaly, malformed[0], labels[RuleKey(malformed[0])])
	}
	return "", "", nil
}

// RouterNames returns the sorted names of routers that declare a rule label.
func RouterNames(labels map[string]string) []string {
	var names []string
	for key := range labels {
		if !strings.HasPrefix(key, RouterPrefix) || !strings.HasSuffix(key, RuleSuffix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, RouterPrefix), RuleSuffix)
		if name == "" || strings.Contains(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractHost returns the hostname of the first Host matcher in rule.
func ExtractHost(rule string) (string, bool) {
	m := hostToken.FindStringSubmatch(rule)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}
