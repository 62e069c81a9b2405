package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/swarm-homepage/internal/config"
	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver"
	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
	"github.com/MrSnakeDoc/swarm-homepage/internal/metrics"
	"github.com/MrSnakeDoc/swarm-homepage/internal/redis"
	"github.com/MrSnakeDoc/swarm-homepage/internal/scheduler"
	"github.com/MrSnakeDoc/swarm-homepage/internal/snapshot"
	redisstore "github.com/MrSnakeDoc/swarm-homepage/internal/store/redis"
	"github.com/MrSnakeDoc/swarm-homepage/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	discovery   discoveryParts
	redisClient *goredis.Client
	refresher   *scheduler.Refresher
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	parts := newDiscovery(cfg, loggerClient)
	cache := snapshot.New()
	collector := metrics.New()

	// Redis is optional: without it the first cycle starts from an empty cache.
	var (
		redisClient *goredis.Client
		store       *redisstore.Store
		saver       scheduler.SnapshotSaver
		redisPinger deps.Pinger
	)
	if cfg.RedisEnabled() {
		redisClient, store = connectRedis(cfg, loggerClient)
	} else {
		loggerClient.Info("redis not configured, snapshot persistence disabled")
	}
	if store != nil {
		saver = store
		redisPinger = store

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisRT+cfg.RedisDT)
		if err := scheduler.NewRedisSyncer(store, cache, loggerClient).Sync(ctx); err != nil {
			loggerClient.Warn("failed to restore snapshot from redis, starting empty",
				logger.Error(err))
		}
		cancel()
	}

	refresher := scheduler.NewRefresher(
		parts.engine,
		cache,
		saver,
		collector,
		loggerClient,
		cfg.RefreshInterval,
	)

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		ReloadBurst:     cfg.ReloadBurst,
		ReloadPerMin:    cfg.ReloadPerMin,
		Snapshots:       refresher,
		Refresher:       refresher,
		Redis:           redisPinger,
		Mode:            string(parts.scope),
		RefreshInterval: cfg.RefreshInterval,
		Metrics:         collector.Handler(),
	}
	if parts.dockerSource != nil {
		d.Docker = parts.dockerSource
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		discovery:   parts,
		redisClient: redisClient,
		refresher:   refresher,
	}
}

// connectRedis returns nils when Redis cannot be reached; persistence is best effort.
func connectRedis(cfg *config.Config, log logger.Logger) (*goredis.Client, *redisstore.Store) {
	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		log.Warn("redis unavailable, snapshot persistence disabled", logger.Error(err))
		return nil, nil
	}
	log.Info("Redis initialized successfully")
	return client, redisstore.NewStore(client, cfg.SnapshotTTL)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting swarm-homepage %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("swarm-homepage %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// First cycle runs here; readers get the empty or restored snapshot meanwhile.
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start refresher: %w", err)
	}
	a.logger.Info("refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.refresher.Stop()
		a.discovery.close(a.logger)
		return err
	}

	a.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.discovery.close(a.logger)

	a.logger.Info("✅ swarm-homepage stopped cleanly")
	return nil
}
