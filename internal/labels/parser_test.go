package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
)

func TestParseIneligible(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
	}{
		{name: "nil labels", labels: nil},
		{name: "enable key missing", labels: map[string]string{
			"traefik.http.routers.app.rule": "Host(`app.example.com`)",
			"homepage.name":                 "App",
		}},
		{name: "enable false", labels: map[string]string{"traefik.enable": "false"}},
		{name: "enable uppercase", labels: map[string]string{"traefik.enable": "TRUE"}},
		{name: "enable with spaces", labels: map[string]string{"traefik.enable": " true"}},
		{name: "enable empty", labels: map[string]string{"traefik.enable": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.labels, domain.ScopeStandalone)
			assert.False(t, res.Eligible)
			assert.Equal(t, domain.ServiceDescriptor{}, res.Fields)
		})
	}
}

func TestParseFullLabels(t *testing.T) {
	res := Parse(map[string]string{
		"traefik.enable":                  "true",
		"traefik.http.routers.myapp.rule": "Host(`myapp.example.com`)",
		"homepage.name":                   "My App",
		"homepage.description":            "A test application",
		"homepage.category":               "Applications",
		"homepage.icon":                   "https://cdn.example.com/myapp.png",
	}, domain.ScopeClustered)

	require.True(t, res.Eligible)
	require.NoError(t, res.Anomaly)
	assert.Equal(t, "myapp", res.Router)
	assert.Equal(t, "myapp.example.com", res.Host)
	assert.Equal(t, domain.ServiceDescriptor{
		Name:        "My App",
		Description: "A test application",
		IconURL:     "https://cdn.example.com/myapp.png",
		Category:    "Applications",
		URL:         "https://myapp.example.com",
		Enabled:     true,
		Scope:       domain.ScopeClustered,
	}, res.Fields)
}

func TestParseLeavesUnmatchedFieldsUnset(t *testing.T) {
	res := Parse(map[string]string{
		"traefik.enable":                   "true",
		"traefik.http.routers.webapp.rule": "Host(`webapp.local`)",
	}, domain.ScopeStandalone)

	require.True(t, res.Eligible)
	assert.Empty(t, res.Fields.Name)
	assert.Empty(t, res.Fields.Category)
	assert.Empty(t, res.Fields.Description)
	assert.Empty(t, res.Fields.IconURL)
	assert.Equal(t, "https://webapp.local", res.Fields.URL)
}

func TestParseNamespacePrecedence(t *testing.T) {
	fields := []string{FieldName, FieldDescription, FieldIcon, FieldCategory, FieldURL}

	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			labels := map[string]string{
				"traefik.enable":              "true",
				"homepage." + field:           "primary-" + field,
				"swarm.homepage." + field:     "alternative-" + field,
				"traefik.http.routers.a.rule": "Host(`a.example.com`)",
			}
			res := Parse(labels, domain.ScopeStandalone)
			require.True(t, res.Eligible)
			assert.Equal(t, "primary-"+field, fieldValue(res.Fields, field))
		})
	}
}

func TestParseAlternativeNamespace(t *testing.T) {
	res := Parse(map[string]string{
		"traefik.enable":                  "true",
		"traefik.http.routers.myapp.rule": "Host(`myapp.example.com`)",
		"swarm.homepage.name":             "Swarm App",
		"swarm.homepage.description":      "Using alternative labels",
	}, domain.ScopeClustered)

	require.True(t, res.Eligible)
	assert.Equal(t, "Swarm App", res.Fields.Name)
	assert.Equal(t, "Using alternative labels", res.Fields.Description)
}

func TestParseEmptyPrimaryFallsThrough(t *testing.T) {
	res := Parse(map[string]string{
		"traefik.enable":      "true",
		"homepage.name":       "  ",
		"swarm.homepage.name": "Alt",
	}, domain.ScopeStandalone)

	assert.Equal(t, "Alt", res.Fields.Name)
}

func TestParseURLOverrideWins(t *testing.T) {
	res := Parse(map[string]string{
		"traefik.enable":                  "true",
		"traefik.http.routers.myapp.rule": "Host(`myapp.example.com`)",
		"homepage.url":                    "https://custom.example.com",
	}, domain.ScopeStandalone)

	assert.Equal(t, "https://custom.example.com", res.Fields.URL)
	assert.Equal(t, "myapp.example.com", res.Host)
}

func TestParseURLOverrideClearsAnomaly(t *testing.T) {
	res := Parse(map[string]string{
		"traefik.enable":                  "true",
		"traefik.http.routers.myapp.rule": "Host(`)",
		"swarm.homepage.url":              "https://custom.example.com",
	}, domain.ScopeStandalone)

	require.NoError(t, res.Anomaly)
	assert.Equal(t, "https://custom.example.com", res.Fields.URL)
}

func TestParseRuleWithoutHost(t *testing.T) {
	res := Parse(map[string]string{
		"traefik.enable":                "true",
		"traefik.http.routers.api.rule": "PathPrefix(`/api`)",
	}, domain.ScopeStandalone)

	require.True(t, res.Eligible)
	assert.NoError(t, res.Anomaly)
	assert.Empty(t, res.Fields.URL)
	assert.Empty(t, res.Host)
}

func TestParseMalformedRule(t *testing.T) {
	for _, rule := range []string{"Host(`)", "Host()", "Host(``)", "Host(`unterminated"} {
		t.Run(rule, func(t *testing.T) {
			var res Result
			require.NotPanics(t, func() {
				res = Parse(map[string]string{
					"traefik.enable":                "true",
					"traefik.http.routers.app.rule": rule,
				}, domain.ScopeStandalone)
			})
			assert.ErrorIs(t, res.Anomaly, domain.ErrParseAnomaly)
			assert.Empty(t, res.Fields.URL)
		})
	}
}

func TestParseRouterOrder(t *testing.T) {
	labels := map[string]string{
		"traefik.enable":                  "true",
		"traefik.http.routers.zeta.rule":  "Host(`zeta.example.com`)",
		"traefik.http.routers.alpha.rule": "Host(`)",
		"traefik.http.routers.beta.rule":  "Host(`beta.example.com`)",
		"traefik.http.routers.beta.tls":   "true",
		"traefik.http.services.beta.port": "80",
		"traefik.http.routers.a.b.rule":   "Host(`nested.example.com`)",
		"traefik.http.routers..rule":      "Host(`empty.example.com`)",
	}

	for i := 0; i < 10; i++ {
		res := Parse(labels, domain.ScopeStandalone)
		require.NoError(t, res.Anomaly)
		assert.Equal(t, "beta", res.Router)
		assert.Equal(t, "https://beta.example.com", res.Fields.URL)
	}
}

func TestExtractHost(t *testing.T) {
	tests := []struct {
		rule   string
		want   string
		wantOK bool
	}{
		{rule: "Host(`example.com`)", want: "example.com", wantOK: true},
		{rule: `Host("example.com")`, want: "example.com", wantOK: true},
		{rule: "Host('example.com')", want: "example.com", wantOK: true},
		{rule: "Host( `example.com` )", want: "example.com", wantOK: true},
		{rule: "Host(`a.example.com`, `b.example.com`)", want: "a.example.com", wantOK: true},
		{rule: "Host(`app.example.com`) && PathPrefix(`/api`)", want: "app.example.com", wantOK: true},
		{rule: "PathPrefix(`/x`) || Host(`late.example.com`)", want: "late.example.com", wantOK: true},
		{rule: "HostRegexp(`{sub:[a-z]+}.example.com`)", wantOK: false},
		{rule: "Host(`)", wantOK: false},
		{rule: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got, ok := ExtractHost(tt.rule)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupOrder(t *testing.T) {
	keys := LookupOrder(FieldCategory)
	require.Len(t, keys, 2)
	assert.Equal(t, "homepage.category", keys[0].String())
	assert.Equal(t, "swarm.homepage.category", keys[1].String())
}

func fieldValue(d domain.ServiceDescriptor, field string) string {
	switch field {
	case FieldName:
		return d.Name
	case FieldDescription:
		return d.Description
	case FieldIcon:
		return d.IconURL
	case FieldCategory:
		return d.Category
	case FieldURL:
		return d.URL
	}
	return ""
}
