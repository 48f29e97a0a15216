// Command coordinator runs the rank-0 reconciliation loop and the
// read-only cluster status API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouc/distfuzz/pkg/api"
	"github.com/shouc/distfuzz/pkg/auth"
	"github.com/shouc/distfuzz/pkg/cluster"
	"github.com/shouc/distfuzz/pkg/config"
	"github.com/shouc/distfuzz/pkg/logging"
	"github.com/shouc/distfuzz/pkg/metrics"
	"github.com/shouc/distfuzz/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "path to the cluster config YAML")
	flag.Parse()

	logger := logging.NewDefaultLogger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("coordinator: config error", logging.Error(err))
		os.Exit(1)
	}
	if cfg.Rank != 0 {
		logger.Error("coordinator: rank must be 0", logging.Rank(cfg.Rank))
		os.Exit(1)
	}
	logger = logging.ForRank(logger, cfg.Rank)

	t, err := buildTransport(cfg)
	if err != nil {
		logger.Error("coordinator: transport init failed", logging.Error(err))
		os.Exit(1)
	}
	defer t.Close()

	registry := metrics.NewRegistry()
	coordinator := cluster.NewCoordinator(t, logger)
	coordinator.SetMetrics(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.API.Enabled {
		validator, err := buildValidator(cfg)
		if err != nil {
			logger.Error("coordinator: auth init failed", logging.Error(err))
			os.Exit(1)
		}
		server := api.NewServer(coordinator, cfg.WorldSize, validator, registry, logger)
		go func() {
			if err := server.Start(ctx, cfg.API.ListenAddr); err != nil {
				logger.Error("coordinator: status api stopped", logging.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	runErr := make(chan error, 1)
	go func() { runErr <- coordinator.Run(ctx) }()

	select {
	case <-sigCh:
		logger.Info("coordinator: shutting down")
		cancel()
	case err := <-runErr:
		if err != nil && ctx.Err() == nil {
			logger.Error("coordinator: reconciliation loop exited", logging.Error(err))
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, fmt.Errorf("coordinator: -config is required")
	}
	return config.Load(path)
}

func buildTransport(cfg config.Config) (transport.Transport, error) {
	if cfg.Backend == config.BackendLocal {
		return nil, fmt.Errorf("coordinator: backend %q only supports in-process runs; use -tags zmq or -tags nng for a standalone coordinator process", cfg.Backend)
	}
	return transport.Build(cfg.Rank, string(cfg.Backend), cfg.Addresses)
}

// buildValidator assembles the bearer-token validator chain for the
// status API from whichever of JWTSecret/StaticToken is configured.
// With both set, a request is accepted if either validates it.
func buildValidator(cfg config.Config) (auth.TokenValidator, error) {
	var validators []auth.TokenValidator

	if cfg.API.JWTSecret != "" {
		jwtManager, err := auth.NewJWTManager(cfg.API.JWTSecret, time.Hour, 24*time.Hour)
		if err != nil {
			return nil, err
		}
		validators = append(validators, jwtManager)
	}

	if cfg.API.StaticToken != "" {
		validators = append(validators, auth.NewStaticTokenValidator(cfg.API.StaticToken))
	}

	switch len(validators) {
	case 0:
		return nil, nil
	case 1:
		return validators[0], nil
	default:
		return auth.NewCompositeTokenValidator(validators...), nil
	}
}
