package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode selects how the runtime socket is queried.
type Mode string

const (
	ModeAuto       Mode = "auto"       // detect once at startup
	ModeSwarm      Mode = "swarm"      // cluster services, deployment labels
	ModeStandalone Mode = "standalone" // plain containers
)

type Config struct {
	ListenPort      string        // ex: ":5000"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Discovery
	DockerSocket    string        // runtime socket, ex: "unix:///var/run/docker.sock"
	Mode            Mode          // auto | swarm | standalone
	TraefikAPIURL   string        // proxy admin API base, empty disables the fallback
	RefreshInterval time.Duration // period between refresh cycles (default: 60s)
	SourceTimeout   time.Duration // bound on each source call (default: 5s)
	DefaultCategory string        // category for services without one

	// Redis (optional, empty address disables persistence)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	SnapshotTTL           time.Duration // expiry of the persisted snapshot

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	ReloadBurst  int // manual refresh requests allowed at once per client
	ReloadPerMin int // manual refresh refill rate per client
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SWARM_HOMEPAGE_LISTEN_PORT", ":5000"),
		ShutdownTimeout: mustDuration("SWARM_HOMEPAGE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SWARM_HOMEPAGE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SWARM_HOMEPAGE_PRETTY_LOG", false),

		// Discovery
		DockerSocket:    getenv("DOCKER_SOCKET", "unix:///var/run/docker.sock"),
		Mode:            parseMode(getenv("SWARM_HOMEPAGE_MODE", string(ModeAuto))),
		TraefikAPIURL:   getenv("TRAEFIK_API_URL", "http://traefik:8080/api"),
		RefreshInterval: mustSeconds("REFRESH_INTERVAL", 60*time.Second),
		SourceTimeout:   mustDuration("SWARM_HOMEPAGE_SOURCE_TIMEOUT", 5*time.Second),
		DefaultCategory: getenv("SWARM_HOMEPAGE_DEFAULT_CATEGORY", "Uncategorized"),

		// Redis settings
		RedisAddr:             getenv("SWARM_HOMEPAGE_REDIS_ADDR", ""),
		RedisUser:             getenv("SWARM_HOMEPAGE_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("SWARM_HOMEPAGE_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("SWARM_HOMEPAGE_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SWARM_HOMEPAGE_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
		SnapshotTTL:           mustDuration("SWARM_HOMEPAGE_SNAPSHOT_TTL", 7*24*time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SWARM_HOMEPAGE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SWARM_HOMEPAGE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SWARM_HOMEPAGE_TRUST_PROXY", true),

		ReloadBurst:  getenvInt("SWARM_HOMEPAGE_RELOAD_BURST", 3),
		ReloadPerMin: getenvInt("SWARM_HOMEPAGE_RELOAD_PER_MIN", 6),
	}

	if cfg.RefreshInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: REFRESH_INTERVAL must be positive, got %v", cfg.RefreshInterval))
	}
	if cfg.SourceTimeout <= 0 {
		panic(fmt.Sprintf("❌ FATAL: SWARM_HOMEPAGE_SOURCE_TIMEOUT must be positive, got %v", cfg.SourceTimeout))
	}

	// Validate Redis password configuration
	if cfg.RedisEnabled() && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: SWARM_HOMEPAGE_REDIS_PASSWORD is required when SWARM_HOMEPAGE_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether snapshot persistence is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// mustSeconds is mustDuration that also accepts a bare integer as seconds ("60").
func mustSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return mustDuration(key, def)
}

func parseMode(v string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(v))); m {
	case ModeAuto, ModeSwarm, ModeStandalone:
		return m
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid SWARM_HOMEPAGE_MODE %q (want auto, swarm or standalone)", v))
	}
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
