package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
	"github.com/yndnr/memkv-go/internal/infra/confloader"
	"github.com/yndnr/memkv-go/internal/infra/lockfile"
	"github.com/yndnr/memkv-go/internal/infra/shutdown"
	"github.com/yndnr/memkv-go/internal/infra/tlsroots"
	"github.com/yndnr/memkv-go/internal/server/config"
	"github.com/yndnr/memkv-go/internal/server/httpserver"
	"github.com/yndnr/memkv-go/internal/server/redisserver"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

// shutdownTimeout bounds the time shutdown hooks may take.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "memkv-server",
		Usage:   "In-memory key-value server speaking the Redis protocol",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"MEMKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a dotenv file read before the environment",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "RESP listen address (overrides server.addr)",
			},
			&cli.IntFlag{
				Name:  "databases",
				Usage: "Number of logical databases (overrides server.databases)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides log.level)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "HTTP metrics listen address (overrides metrics.addr)",
			},
		},
		Action: run,
	}
}

// overridesFrom maps explicitly set flags to configuration keys.
func overridesFrom(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	if c.IsSet("addr") {
		overrides["server.addr"] = c.String("addr")
	}
	if c.IsSet("databases") {
		overrides["server.databases"] = c.Int("databases")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("metrics-addr") {
		overrides["metrics.addr"] = c.String("metrics-addr")
	}
	return overrides
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	loaderOpts := []confloader.Option{
		confloader.WithConfigFile(configFile),
		confloader.WithEnvFile(c.String("env-file")),
		confloader.WithOverrides(overridesFrom(c)),
	}

	cfg, err := loadConfig(loaderOpts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	runID := ulid.Make().String()
	ctx := logger.WithRunID(logger.WithLogger(context.Background(), log), runID)
	slogLogger := logger.L(ctx)

	info := buildinfo.Get()
	logger.L(ctx).Info("starting memkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"go_version", info.GoVersion,
		"config", configFile)
	logger.L(ctx).Info("effective configuration", config.Summary(cfg)...)

	sd := shutdown.NewHandler(shutdownTimeout)
	abort := func(err error) error {
		sd.Trigger(err.Error())
		if _, hookErr := sd.Wait(); hookErr != nil {
			slogLogger.Error("shutdown error", "error", hookErr)
		}
		return err
	}

	if cfg.Server.LockFile != "" {
		lock, err := lockfile.Acquire(cfg.Server.LockFile)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		sd.OnShutdown("lock file", func(context.Context) error {
			return lock.Release()
		})
	}

	reg := metric.Global()
	keyspace := memory.NewKeyspace(cfg.Server.Databases, memory.WithExpireHook(reg.AddExpired))

	redisServer := redisserver.New(redisConfig(cfg), keyspace, reg, slogLogger)
	if err := reg.Register(metric.NewKeyspaceCollector(redisServer.Stats)); err != nil {
		return abort(fmt.Errorf("register keyspace collector: %w", err))
	}
	if err := redisServer.Start(ctx); err != nil {
		return abort(fmt.Errorf("start redis server: %w", err))
	}
	sd.OnShutdown("redis server", redisServer.Shutdown)
	go func() {
		<-redisServer.Done()
		if err := redisServer.Err(); err != nil {
			sd.Trigger("redis server failed: " + err.Error())
			return
		}
		sd.Trigger("redis server stopped")
	}()

	if cfg.Metrics.Addr != "" {
		httpServer, err := startMetrics(cfg, reg, redisServer, slogLogger, sd)
		if err != nil {
			return abort(fmt.Errorf("start metrics server: %w", err))
		}
		sd.OnShutdown("metrics server", httpServer.Shutdown)
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, loaderOpts, slogLogger)
		if err != nil {
			// Reload is a convenience; the server runs without it.
			slogLogger.Warn("config watcher disabled", "error", err)
		} else {
			sd.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	slogLogger.Info("server started, press Ctrl+C to stop")
	reason, err := sd.Wait()
	if err != nil {
		slogLogger.Error("shutdown error", "reason", reason, "error", err)
		return err
	}

	slogLogger.Info("server stopped gracefully", "reason", reason)
	return nil
}

// loadConfig loads defaults, file, dotenv, environment and flag
// overrides, then validates the result.
func loadConfig(opts ...confloader.Option) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func redisConfig(cfg *config.ServerConfig) *redisserver.Config {
	return &redisserver.Config{
		Addr:            cfg.Server.Addr,
		MaxClients:      cfg.Server.MaxClients,
		MaxPendingBytes: cfg.Server.MaxPendingBytes,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.EffectiveBurst(),
		SweepInterval:   cfg.Storage.SweepInterval,
		SweepBatch:      cfg.Storage.SweepBatch,
	}
}

// startMetrics binds the HTTP endpoint and serves it in the background.
func startMetrics(cfg *config.ServerConfig, reg *metric.Registry, rs *redisserver.Server, log *slog.Logger, sd *shutdown.Handler) (*httpserver.Server, error) {
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics:   reg.Handler(),
		Ready:     readiness(rs),
		Logger:    log,
		AllowList: cfg.Metrics.AllowList,
		RateLimit: cfg.Metrics.RateLimit,
		AccessLog: true,
	})

	var tlsCfg *tls.Config
	if cfg.Metrics.TLS.Enabled() {
		keyPair, c, err := metricsTLS(cfg.Metrics.TLS, log)
		if err != nil {
			return nil, err
		}
		sd.OnShutdown("metrics certificate watcher", func(context.Context) error {
			return keyPair.Stop()
		})
		tlsCfg = c
	}
	srv, err := httpserver.Listen(cfg.Metrics.Addr, router, tlsCfg)
	if err != nil {
		return nil, err
	}

	go func() {
		log.Info("metrics server listening", "address", srv.Addr().String(), "scheme", srv.Scheme())
		if err := srv.Serve(); err != nil {
			log.Error("metrics server error", "error", err)
			sd.Trigger("metrics server failed")
		}
	}()
	return srv, nil
}

// metricsTLS loads the endpoint key pair, follows it for rotation and
// builds the listener config.
func metricsTLS(cfg config.TLSSection, log *slog.Logger) (*tlsroots.KeyPair, *tls.Config, error) {
	keyPair, err := tlsroots.LoadKeyPair(cfg.CertFile, cfg.KeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	var clientCAs *x509.CertPool
	if cfg.ClientCAFile != "" {
		if clientCAs, err = tlsroots.LoadPool(cfg.ClientCAFile); err != nil {
			return nil, nil, err
		}
	}
	if err := keyPair.Watch(); err != nil {
		log.Warn("certificate reload disabled", "error", err)
	}
	return keyPair, keyPair.ServerConfig(clientCAs), nil
}

// readiness reports the RESP server as unavailable once its loop exits.
func readiness(rs *redisserver.Server) func() error {
	return func() error {
		select {
		case <-rs.Done():
			if err := rs.Err(); err != nil {
				return err
			}
			return errors.New("redis server stopped")
		default:
			return nil
		}
	}
}

// watchConfig reloads log.level whenever the config file changes.
func watchConfig(path string, opts []confloader.Option, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(opts...)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level changed", "level", logger.GetLevel())
	})
	w.StartAsync()
	return w, nil
}
