package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/hostwatch/internal/aggregator"
	"github.com/MrSnakeDoc/hostwatch/internal/config"
	"github.com/MrSnakeDoc/hostwatch/internal/discovery"
	"github.com/MrSnakeDoc/hostwatch/internal/docker"
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/index"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
	"github.com/MrSnakeDoc/hostwatch/internal/monitor"
	"github.com/MrSnakeDoc/hostwatch/internal/ports"
	"github.com/MrSnakeDoc/hostwatch/internal/redis"
	"github.com/MrSnakeDoc/hostwatch/internal/scheduler"
	"github.com/MrSnakeDoc/hostwatch/internal/security"
	redisstore "github.com/MrSnakeDoc/hostwatch/internal/store/redis"
	"github.com/MrSnakeDoc/hostwatch/internal/sysstats"
	"github.com/MrSnakeDoc/hostwatch/internal/version"
)

// App owns every long-lived component. Components are built once in New and
// handed to each other explicitly.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	monitor     *monitor.Monitor
	gc          *scheduler.GarbageCollector
	redisClient *goredis.Client
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	runner := hostexec.NewExecRunner()
	resolver := ports.NewResolver(runner, loggerClient.Named("ports"))
	scanner := ports.NewScanner(cfg.ProbeTimeout, cfg.ScanMaxConcurrent, loggerClient.Named("scanner"))

	// Discovery sources
	procs := discovery.NewProcessProvider(loggerClient.Named("process"))
	agg := aggregator.New(resolver, aggregator.Options{
		Container:        discovery.NewContainerProvider(docker.NewClient(cfg.DockerSocket), loggerClient.Named("docker")),
		Platform:         discovery.NewPlatformProvider(runner, loggerClient.Named("platform")),
		Process:          procs,
		IncludeProcesses: cfg.IncludeProcesses,
		Names:            procs,
	}, loggerClient.Named("aggregator"))

	memIndex := index.NewMemoryIndex()
	sinks := monitor.Fanout{memIndex}

	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		RequestTimeout:    cfg.RequestTimeout,
		ScanTimeout:       cfg.ScanTimeout,
		ScanRateBurst:     cfg.ScanRateBurst,
		ScanRatePerMinute: cfg.ScanRatePerMinute,
		SecurityScanTTL:   cfg.SecurityScanCache,
		Services:          agg,
		Ports:             resolver,
		Scanner:           scanner,
		Security:          security.NewScanner(resolver, security.PSOwner{Runner: runner}, loggerClient.Named("security")),
		Stats:             sysstats.NewCollector(loggerClient.Named("sysstats")),
		MemoryIndex:       memIndex,
	}

	// Redis is optional; when configured it must be reachable at startup.
	var store scheduler.ServiceStore
	var redisClient *goredis.Client
	if cfg.RedisEnabled() {
		client, err := redis.Connect(context.Background(), redis.OptionsFromConfig(cfg), loggerClient.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		redisClient = client

		rs := redisstore.NewStore(client)
		hostname, _ := os.Hostname()
		publisher := redisstore.NewPublisher(client, rs, cfg.RedisChannel, hostname)
		sinks = append(sinks, rs, publisher)
		store = rs

		// warm the index so the snapshot answers before the first round
		if err := scheduler.NewRedisSyncer(rs, memIndex, loggerClient).Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to sync services from redis on startup", logger.Error(err))
		}

		d.RedisClient = client
		d.ScanCache = rs
		d.EventCounter = rs
		loggerClient.Info("redis publishing enabled",
			logger.String("channel", publisher.Channel()))
	} else {
		loggerClient.Info("redis not configured, events stay local")
	}

	mon, err := monitor.New(agg, sinks, monitor.Settings{
		Interval: cfg.MonitorInterval,
		Enabled:  cfg.MonitorEnabled,
	}, loggerClient.Named("monitor"))
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	d.Monitor = mon

	gc := scheduler.NewGarbageCollector(store, memIndex, loggerClient.Named("gc"), cfg.GCInterval, cfg.GCThreshold)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		monitor:     mon,
		gc:          gc,
		redisClient: redisClient,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting hostwatch %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	a.gc.Start(ctx)
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval),
		logger.Duration("threshold", a.cfg.GCThreshold))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		a.logger.Error("http server failed", logger.Error(runErr))
	}

	return multierr.Append(runErr, a.shutdown())
}

// shutdown stops components in reverse dependency order and reports every
// failure.
func (a *App) shutdown() error {
	a.monitor.Stop()
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var err error
	if serr := a.server.Stop(shutdownCtx); serr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to stop server: %w", serr))
	}

	if a.redisClient != nil {
		if cerr := a.redisClient.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close redis: %w", cerr))
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if err == nil {
		a.logger.Info("✅ hostwatch stopped cleanly")
	}
	_ = a.logger.Sync()
	return err
}
