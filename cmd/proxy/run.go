package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/api"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/config"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/core"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/factory"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/logger"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/metrics"
)

const healthShutdownTimeout = 5 * time.Second

func run(ctx context.Context, bindAddress, backendAddress string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration from arguments and environment
	cfg, err := config.Load(bindAddress, backendAddress)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Initialize logger
	logger.Init()
	logger.Info("Starting xminecraft-proxy...",
		"version", version,
		"bind", cfg.BindAddress,
		"backend", cfg.BackendAddress,
		"runtime", cfg.Runtime,
		"discovery", cfg.DiscoveryMode)

	m := metrics.New(prometheus.DefaultRegisterer)

	// Start health server (optional)
	var healthServer *api.HealthServer
	if cfg.HealthServerPort != "" {
		healthServer = api.NewHealthServer(":"+cfg.HealthServerPort, prometheus.DefaultGatherer)
		if err := healthServer.Start(); err != nil {
			return fmt.Errorf("failed to start health server on port %s: %w", cfg.HealthServerPort, err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
			defer cancel()
			healthServer.Stop(shutdownCtx)
		}()
	}

	// Create backend resolver
	resolver, err := factory.NewResolverFactory(cfg).Create(ctx)
	if err != nil {
		return fmt.Errorf("failed to create backend resolver: %w", err)
	}

	// Create protocol handler
	connectionHandler := factory.NewProxyFactory(cfg).Create(resolver, m)

	// Start TCP listener
	listener, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.BindAddress, err)
	}
	logger.Info("Proxy listening", "addr", listener.Addr().String(), "backend", cfg.BackendAddress)

	server := &core.Server{
		Listener:          listener,
		ConnectionHandler: connectionHandler,
		Admission:         core.NewAdmission(cfg.MaxConnPerSecPerIP, cfg.ConnBurstPerIP, cfg.MaxConcurrentConns),
		Pacer:             core.NewPacer(),
		Metrics:           m,
	}

	// Mark as ready
	if healthServer != nil {
		healthServer.SetReady(true)
		context.AfterFunc(ctx, func() { healthServer.SetReady(false) })
	}
	logger.Info("Proxy is ready to accept connections")

	// Start serving (blocking until a signal arrives)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("Proxy stopped")
	return nil
}
