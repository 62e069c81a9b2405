package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/swarm-homepage/internal/config"
	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/export/homepage"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
)

// Output formats of Discover.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Discover runs a single cycle without the HTTP server or the scheduler and
// writes the services to w. It fails when no source was usable.
func Discover(ctx context.Context, w io.Writer, format string) error {
	if format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatJSON, FormatYAML)
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	parts := newDiscovery(cfg, log)
	defer parts.close(log)

	snap := parts.engine.Cycle(ctx)
	if snap.Failed() {
		return fmt.Errorf("discovery failed: %w", snap.LastError)
	}

	return writeServices(w, format, snap)
}

func writeServices(w io.Writer, format string, snap domain.Snapshot) error {
	services := snap.Services
	if services == nil {
		services = []domain.ServiceDescriptor{}
	}

	if format == FormatYAML {
		data, err := homepage.Marshal(services)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(services)
}
