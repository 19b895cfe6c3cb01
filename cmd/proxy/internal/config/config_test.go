package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RUNTIME", "vm")
	t.Setenv("NAMESPACE", "games")

	cfg, err := Load("0.0.0.0:25565", "10.0.0.5:25566")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BindAddress != "0.0.0.0:25565" || cfg.BackendAddress != "10.0.0.5:25566" {
		t.Errorf("addresses = %q, %q", cfg.BindAddress, cfg.BackendAddress)
	}
	if cfg.DiscoveryMode != DiscoveryStatic {
		t.Errorf("DiscoveryMode = %q, want static", cfg.DiscoveryMode)
	}
	if cfg.HandshakeTimeout != 5*time.Second || cfg.IdleTimeout != 0 {
		t.Errorf("timeouts = %v, %v", cfg.HandshakeTimeout, cfg.IdleTimeout)
	}
	if cfg.MaxLegacyBytes != 4096 || cfg.MaxHandshakeSize != 65536 {
		t.Errorf("limits = %d, %d", cfg.MaxLegacyBytes, cfg.MaxHandshakeSize)
	}
	if cfg.Namespace != "games" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if cfg.HealthServerPort != "" {
		t.Errorf("HealthServerPort = %q, want disabled", cfg.HealthServerPort)
	}
}

func TestLoadInvalidAddresses(t *testing.T) {
	tests := []struct {
		name          string
		bind, backend string
	}{
		{"missing_bind", "", "127.0.0.1:25566"},
		{"missing_backend", "127.0.0.1:25565", ""},
		{"no_port", "127.0.0.1", "127.0.0.1:25566"},
		{"bad_port", "127.0.0.1:http", "127.0.0.1:25566"},
		{"port_range", "127.0.0.1:25565", "127.0.0.1:70000"},
		{"garbage", "not an address", "127.0.0.1:25566"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.bind, tc.backend)
			if !errors.Is(err, ErrInvalidAddress) {
				t.Fatalf("err = %v, want ErrInvalidAddress", err)
			}
		})
	}
}

func TestLoadAcceptsHostnamesAndIPv6(t *testing.T) {
	t.Setenv("RUNTIME", "vm")
	for _, addr := range []string{":25565", "[::1]:25565", "mc-backend.games:25565"} {
		if _, err := Load(addr, addr); err != nil {
			t.Errorf("Load(%q): %v", addr, err)
		}
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("RUNTIME", "vm")
	t.Setenv("DEBUG", "true")
	t.Setenv("LOG_FORMAT", "Console")
	t.Setenv("HEALTH_SERVER_PORT", "8081")
	t.Setenv("DISCOVERY_MODE", "k8s")
	t.Setenv("HANDSHAKE_TIMEOUT", "2s")
	t.Setenv("IDLE_TIMEOUT", "10m")
	t.Setenv("MAX_LEGACY_BYTES", "512")
	t.Setenv("MAX_CONN_PER_SEC_PER_IP", "2.5")
	t.Setenv("MAX_CONCURRENT_CONNS", "not-a-number")

	cfg, err := Load("127.0.0.1:25565", "minecraft.games:25565")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug || cfg.LogFormat != "console" || cfg.HealthServerPort != "8081" {
		t.Errorf("core = %v, %q, %q", cfg.Debug, cfg.LogFormat, cfg.HealthServerPort)
	}
	if cfg.DiscoveryMode != DiscoveryKubernetes {
		t.Errorf("DiscoveryMode = %q", cfg.DiscoveryMode)
	}
	if cfg.HandshakeTimeout != 2*time.Second || cfg.IdleTimeout != 10*time.Minute {
		t.Errorf("timeouts = %v, %v", cfg.HandshakeTimeout, cfg.IdleTimeout)
	}
	if cfg.MaxLegacyBytes != 512 || cfg.MaxConnPerSecPerIP != 2.5 {
		t.Errorf("limits = %d, %v", cfg.MaxLegacyBytes, cfg.MaxConnPerSecPerIP)
	}
	if cfg.MaxConcurrentConns != 1024 {
		t.Errorf("unparsable MAX_CONCURRENT_CONNS should keep default, got %d", cfg.MaxConcurrentConns)
	}
}

func TestValidateRejectsIncoherentConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"log_format", map[string]string{"LOG_FORMAT": "xml"}},
		{"handshake_timeout", map[string]string{"HANDSHAKE_TIMEOUT": "-1s"}},
		{"legacy_bytes", map[string]string{"MAX_LEGACY_BYTES": "0"}},
		{"health_port", map[string]string{"HEALTH_SERVER_PORT": "abc"}},
		{"burst", map[string]string{"CONN_BURST_PER_IP": "0"}},
		{"k8s_container", map[string]string{"RUNTIME": "docker", "DISCOVERY_MODE": "kubernetes"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("RUNTIME", "vm")
			t.Setenv("KUBECONFIG", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load("127.0.0.1:25565", "127.0.0.1:25566"); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
