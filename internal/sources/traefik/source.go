package traefik

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/labels"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/utils"
)

const (
	routersPath    = "/http/routers"
	perPage        = 100
	maxPages       = 50
	maxBodyBytes   = 8 << 20
	nextPageHeader = "X-Next-Page"
)

// Source lists HTTP routers from the Traefik admin API and turns each into
// a unit whose labels follow the same convention as container labels.
type Source struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  logger.Logger
}

// NewSource creates a proxy API source. baseURL is the API root, e.g. http://traefik:8080/api.
func NewSource(baseURL string, timeout time.Duration, log logger.Logger) *Source {
	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
		logger:  log,
	}
}

// Name identifies the source in logs.
func (s *Source) Name() string { return "traefik" }

// ListUnits is ListRouters under the common source signature.
func (s *Source) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	return s.ListRouters(ctx)
}

// ListRouters fetches every page of routers and synthesizes label maps.
// Internal and non-enabled routers are skipped.
func (s *Source) ListRouters(ctx context.Context) ([]domain.Unit, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var routers []Router
	page := 1
	for i := 0; i < maxPages; i++ {
		batch, next, err := s.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		routers = append(routers, batch...)
		if next <= page {
			break
		}
		page = next
	}

	units := make([]domain.Unit, 0, len(routers))
	seen := make(map[string]bool, len(routers))
	for _, r := range routers {
		if skipRouter(r) {
			continue
		}
		bare := bareName(r.Name)
		if bare == "" || seen[bare] {
			continue
		}
		seen[bare] = true
		units = append(units, domain.Unit{
			Identity: bare,
			BareName: bare,
			Labels:   synthesizeLabels(bare, r),
			Scope:    domain.ScopeStandalone,
		})
	}

	s.logger.Debug("listed routers from traefik",
		logger.Int("routers", len(routers)),
		logger.Int("units", len(units)))

	if len(units) == 0 {
		return nil, domain.ErrSourceEmpty
	}
	return units, nil
}

func (s *Source) fetchPage(ctx context.Context, page int) ([]Router, int, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	endpoint := s.baseURL + routersPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %w", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: GET %s: %w", domain.ErrSourceUnavailable, endpoint, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: GET %s: unexpected status %d",
			domain.ErrSourceUnavailable, endpoint, resp.StatusCode)
	}

	var routers []Router
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&routers); err != nil {
		return nil, 0, fmt.Errorf("%w: decode routers: %w", domain.ErrSourceUnavailable, err)
	}

	next, _ := strconv.Atoi(strings.TrimSpace(resp.Header.Get(nextPageHeader)))
	return routers, next, nil
}

func skipRouter(r Router) bool {
	if r.Provider == providerInternal || strings.HasSuffix(r.Name, "@"+providerInternal) {
		return true
	}
	if strings.HasPrefix(r.Name, "api@") {
		return true
	}
	return r.Status != "" && r.Status != statusEnabled
}

// bareName strips the "@provider" suffix: "whoami@docker" -> "whoami".
func bareName(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[:i]
	}
	return name
}

// synthesizeLabels maps a router onto container-style labels so the label
// parser handles both sources identically. A router that exists in the proxy
// is by definition enabled.
func synthesizeLabels(bare string, r Router) map[string]string {
	// Router label keys cannot carry dots.
	router := strings.ReplaceAll(bare, ".", "-")
	return map[string]string{
		labels.EnableKey:       "true",
		labels.RuleKey(router): r.Rule,
	}
}
