package factory

import (
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/config"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/core"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/logger"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/metrics"
	minecraft_proxy "github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/proxy/minecraft"
)

// ProxyFactory creates the connection handler from configuration
type ProxyFactory struct {
	cfg *config.Config
}

// NewProxyFactory creates a new proxy factory
func NewProxyFactory(cfg *config.Config) *ProxyFactory {
	return &ProxyFactory{cfg: cfg}
}

// Create wires the Minecraft handshake proxy to resolver and m.
func (f *ProxyFactory) Create(resolver core.BackendResolver, m *metrics.Metrics) core.ConnectionHandler {
	logger.Info("Creating Minecraft Proxy Handler",
		"handshake_timeout", f.cfg.HandshakeTimeout.String(),
		"idle_timeout", f.cfg.IdleTimeout.String(),
		"max_session_duration", f.cfg.MaxSessionDuration.String())

	return &minecraft_proxy.MinecraftProxy{
		Resolver:           resolver,
		Metrics:            m,
		HandshakeTimeout:   f.cfg.HandshakeTimeout,
		DialTimeout:        f.cfg.DialTimeout,
		IdleTimeout:        f.cfg.IdleTimeout,
		MaxSessionDuration: f.cfg.MaxSessionDuration,
		MaxHandshakeSize:   f.cfg.MaxHandshakeSize,
		MaxLegacyBytes:     f.cfg.MaxLegacyBytes,
	}
}
