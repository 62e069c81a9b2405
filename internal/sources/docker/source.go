package docker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/client"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
)

// StackNamespaceLabel is set by `docker stack deploy` on every service of a stack.
const StackNamespaceLabel = "com.docker.stack.namespace"

// API is the read-only subset of the Docker engine client used for discovery.
// *client.Client satisfies it.
type API interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ServiceList(ctx context.Context, options swarm.ServiceListOptions) ([]swarm.Service, error)
	Info(ctx context.Context) (system.Info, error)
}

var _ API = (*client.Client)(nil)

// NewClient dials nothing; the Docker client only connects on first call.
func NewClient(host string) (*client.Client, error) {
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client for %s: %w", host, err)
	}
	return c, nil
}

// Source lists units from the container runtime socket.
// The scope is fixed at construction; it is never re-detected per call.
type Source struct {
	api     API
	scope   domain.Scope
	timeout time.Duration
	logger  logger.Logger
}

// NewSource creates a runtime socket source for the given scope.
func NewSource(api API, scope domain.Scope, timeout time.Duration, log logger.Logger) *Source {
	return &Source{
		api:     api,
		scope:   scope,
		timeout: timeout,
		logger:  log,
	}
}

// Name identifies the source in logs.
func (s *Source) Name() string { return "docker" }

// ListUnits enumerates swarm services or containers depending on scope.
// Transport errors and timeouts wrap domain.ErrSourceUnavailable; a
// successful call with nothing to list returns domain.ErrSourceEmpty.
func (s *Source) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		units []domain.Unit
		err   error
	)
	if s.scope == domain.ScopeClustered {
		units, err = s.listServices(ctx)
	} else {
		units, err = s.listContainers(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("listed units from docker",
		logger.String("scope", string(s.scope)),
		logger.Int("count", len(units)))

	if len(units) == 0 {
		return nil, domain.ErrSourceEmpty
	}
	return units, nil
}

func (s *Source) listServices(ctx context.Context) ([]domain.Unit, error) {
	services, err := s.api.ServiceList(ctx, swarm.ServiceListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: list swarm services: %w", domain.ErrSourceUnavailable, err)
	}

	units := make([]domain.Unit, 0, len(services))
	for _, svc := range services {
		name := svc.Spec.Name
		if name == "" {
			name = shortID(svc.ID)
		}
		// Deployment labels live on the service spec, not on the task's container spec.
		labels := svc.Spec.Labels
		units = append(units, domain.Unit{
			Identity: name,
			BareName: stripStack(name, labels[StackNamespaceLabel]),
			Labels:   copyLabels(labels),
			Scope:    domain.ScopeClustered,
		})
	}
	return units, nil
}

func (s *Source) listContainers(ctx context.Context) ([]domain.Unit, error) {
	containers, err := s.api.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: list containers: %w", domain.ErrSourceUnavailable, err)
	}

	units := make([]domain.Unit, 0, len(containers))
	for _, c := range containers {
		name := containerName(c)
		units = append(units, domain.Unit{
			Identity: name,
			BareName: name,
			Labels:   copyLabels(c.Labels),
			Scope:    domain.ScopeStandalone,
		})
	}
	return units, nil
}

// Ping checks that the runtime socket answers within the source timeout.
func (s *Source) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.api.Info(ctx); err != nil {
		return fmt.Errorf("%w: docker info: %w", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// DetectMode decides once, at startup, whether the engine is a swarm manager.
// Only managers can list services, so workers are treated as standalone.
func DetectMode(ctx context.Context, api API) (domain.Scope, error) {
	info, err := api.Info(ctx)
	if err != nil {
		return domain.ScopeStandalone, fmt.Errorf("%w: docker info: %w", domain.ErrSourceUnavailable, err)
	}
	if info.Swarm.LocalNodeState == swarm.LocalNodeStateActive && info.Swarm.ControlAvailable {
		return domain.ScopeClustered, nil
	}
	return domain.ScopeStandalone, nil
}

// containerName returns the first container name without the leading slash.
func containerName(c container.Summary) string {
	for _, n := range c.Names {
		if n = strings.TrimPrefix(n, "/"); n != "" {
			return n
		}
	}
	return shortID(c.ID)
}

// stripStack turns "mystack_app" into "app" for services of stack "mystack".
func stripStack(name, stack string) string {
	if stack == "" {
		return name
	}
	if bare := strings.TrimPrefix(name, stack+"_"); bare != "" && bare != name {
		return bare
	}
	return name
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func copyLabels(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
