package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yndnr/keymesh-go/internal/engine"
	"github.com/yndnr/keymesh-go/internal/infra/buildinfo"
	"github.com/yndnr/keymesh-go/internal/infra/confloader"
	"github.com/yndnr/keymesh-go/internal/infra/shutdown"
	"github.com/yndnr/keymesh-go/internal/server/config"
	"github.com/yndnr/keymesh-go/internal/server/respserver"
	"github.com/yndnr/keymesh-go/internal/telemetry/logger"
	"github.com/yndnr/keymesh-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		addr        = flag.String("addr", "", "Listen address override (host:port)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("keymesh-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	log.Info("starting keymesh-server",
		"version", buildinfo.Version,
		"addr", cfg.Server.Addr,
		"databases", cfg.Server.Databases)

	metrics := metric.New()

	eng := engine.NewServer(engine.Options{
		Databases:   cfg.Server.Databases,
		RequirePass: cfg.Server.RequirePass,
		Logger:      log,
		Metrics:     metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng.StartActiveExpiry(ctx, 100*time.Millisecond)

	front := respserver.New(&respserver.Config{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxClients:     cfg.Limits.MaxClients,
		ConnRatePerSec: cfg.Limits.ConnRatePerSec,
	}, eng, log)
	if err := front.Start(ctx); err != nil {
		return fmt.Errorf("start resp server: %w", err)
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			log.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	shutdownHandler := shutdown.NewHandler(30 * time.Second)
	eng.SetShutdownFunc(shutdownHandler.Trigger)

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down resp server")
		return front.Shutdown(ctx)
	})

	// Re-apply mutable settings when the config file changes on disk.
	if *configFile != "" {
		watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err == nil {
			if err := watcher.Watch(*configFile); err == nil {
				watcher.OnChange(func(string) {
					fresh, err := loadConfig(*configFile)
					if err != nil {
						log.Warn("config reload failed", "error", err)
						return
					}
					logger.SetLevel(fresh.Log.Level)
					log.Info("config re-applied", "level", fresh.Log.Level)
				})
				watcher.StartAsync()
				shutdownHandler.OnShutdown(func(context.Context) error {
					return watcher.Stop()
				})
			}
		}
	}

	log.Info("server started")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
