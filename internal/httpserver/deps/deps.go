package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
)

// SnapshotReader returns the latest published snapshot without blocking.
type SnapshotReader interface {
	Snapshot() domain.Snapshot
}

// RefreshTrigger requests an out-of-band refresh; false means coalesced.
type RefreshTrigger interface {
	RefreshNow() bool
}

// Pinger checks a backing component.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	AllowedHosts    []string         // Host headers allowed to trigger a refresh
	AllowedCIDRS    []string         // IPs allowed to reach operational endpoints
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	ReloadBurst     int              // manual refresh burst per client
	ReloadPerMin    int              // manual refresh refill per client and minute
	Snapshots       SnapshotReader   // snapshot cache accessor
	Refresher       RefreshTrigger   // forceRefresh entry point
	Docker          Pinger           // runtime socket, nil when not configured
	Redis           Pinger           // snapshot persistence, nil when disabled
	Mode            string           // resolved discovery scope
	RefreshInterval time.Duration    // configured refresh period
	Metrics         http.Handler     // prometheus exposition, nil to disable /metrics
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
