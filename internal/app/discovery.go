package app

import (
	"context"
	"time"

	"github.com/docker/docker/client"

	"github.com/MrSnakeDoc/swarm-homepage/internal/config"
	"github.com/MrSnakeDoc/swarm-homepage/internal/discovery"
	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/reconcile"
	"github.com/MrSnakeDoc/swarm-homepage/internal/sources/docker"
	"github.com/MrSnakeDoc/swarm-homepage/internal/sources/traefik"
)

const detectTimeout = 10 * time.Second

// discoveryParts is the label-source side of the app, shared by serve and discover.
type discoveryParts struct {
	engine       *discovery.Engine
	dockerClient *client.Client
	dockerSource *docker.Source
	scope        domain.Scope
}

func newDiscovery(cfg *config.Config, log logger.Logger) discoveryParts {
	parts := discoveryParts{scope: domain.ScopeStandalone}

	// Absent sources stay untyped nil interfaces.
	var primary, fallback discovery.Source

	cli, err := docker.NewClient(cfg.DockerSocket)
	if err != nil {
		log.Warn("docker client unavailable, runtime socket source disabled",
			logger.String("socket", cfg.DockerSocket),
			logger.Error(err))
	} else {
		parts.dockerClient = cli
		parts.scope = resolveScope(cfg.Mode, cli, log)
		parts.dockerSource = docker.NewSource(cli, parts.scope, cfg.SourceTimeout, log)
		primary = parts.dockerSource
	}

	if cfg.TraefikAPIURL != "" {
		fallback = traefik.NewSource(cfg.TraefikAPIURL, cfg.SourceTimeout, log)
	} else {
		log.Info("traefik api not configured, fallback source disabled")
	}

	r := reconcile.New(log, reconcile.WithDefaultCategory(cfg.DefaultCategory))
	parts.engine = discovery.NewEngine(primary, fallback, r, log)

	log.Info("discovery configured",
		logger.String("mode", string(cfg.Mode)),
		logger.String("scope", string(parts.scope)),
		logger.Bool("primary", primary != nil),
		logger.Bool("fallback", fallback != nil))

	return parts
}

// resolveScope maps the configured mode to a scope, detecting it once when auto.
func resolveScope(mode config.Mode, api docker.API, log logger.Logger) domain.Scope {
	switch mode {
	case config.ModeSwarm:
		return domain.ScopeClustered
	case config.ModeStandalone:
		return domain.ScopeStandalone
	}

	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	scope, err := docker.DetectMode(ctx, api)
	if err != nil {
		log.Warn("swarm detection failed, assuming standalone", logger.Error(err))
		return domain.ScopeStandalone
	}
	log.Info("swarm mode detected", logger.String("scope", string(scope)))
	return scope
}

func (p discoveryParts) close(log logger.Logger) {
	if p.dockerClient == nil {
		return
	}
	if err := p.dockerClient.Close(); err != nil {
		log.Warn("failed to close docker client", logger.Error(err))
	}
}
