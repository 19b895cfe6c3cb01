package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidAddress is returned when a positional address is missing or is
// not in host:port form.
var ErrInvalidAddress = errors.New("invalid address")

// RuntimeEnvironment represents the execution environment
type RuntimeEnvironment string

const (
	RuntimeKubernetes RuntimeEnvironment = "kubernetes"
	RuntimeContainer  RuntimeEnvironment = "container"
	RuntimeVM         RuntimeEnvironment = "vm"
)

// DiscoveryMode represents how the backend address is turned into a dialable
// endpoint.
type DiscoveryMode string

const (
	DiscoveryStatic     DiscoveryMode = "static"
	DiscoveryKubernetes DiscoveryMode = "kubernetes"
)

// Config holds all application configuration
type Config struct {
	// Core
	Debug     bool
	LogFormat string // json, console

	// Addresses (positional arguments)
	BindAddress    string
	BackendAddress string

	// Runtime
	Runtime   RuntimeEnvironment
	Namespace string // Only for Kubernetes discovery

	// Server
	HealthServerPort string // empty disables the health server

	// Backend Discovery
	DiscoveryMode  DiscoveryMode
	KubeConfigPath string
	KubeContext    string

	// Connection handling
	HandshakeTimeout   time.Duration
	DialTimeout        time.Duration
	IdleTimeout        time.Duration // 0 disables
	MaxSessionDuration time.Duration // 0 disables
	MaxHandshakeSize   int
	MaxLegacyBytes     int64

	// Admission
	MaxConnPerSecPerIP float64 // 0 disables the per-IP limiter
	ConnBurstPerIP     int
	MaxConcurrentConns int // 0 means unlimited
}

// Load validates the positional addresses and reads everything else from
// the environment.
func Load(bindAddress, backendAddress string) (*Config, error) {
	if err := validateAddress("bind", bindAddress); err != nil {
		return nil, err
	}
	if err := validateAddress("backend", backendAddress); err != nil {
		return nil, err
	}

	cfg := LoadFromEnv()
	cfg.BindAddress = bindAddress
	cfg.BackendAddress = backendAddress

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return &Config{
		// Core
		Debug:     getEnvBool("DEBUG", false),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		// Runtime - Auto-detect or explicit
		Runtime:   determineRuntime(),
		Namespace: determineNamespace(),

		// Server
		HealthServerPort: os.Getenv("HEALTH_SERVER_PORT"),

		// Backend Discovery
		DiscoveryMode:  determineDiscoveryMode(),
		KubeConfigPath: getEnv("KUBECONFIG", ""),
		KubeContext:    getEnv("KUBE_CONTEXT", ""),

		// Connection handling
		HandshakeTimeout:   getEnvDuration("HANDSHAKE_TIMEOUT", 5*time.Second),
		DialTimeout:        getEnvDuration("DIAL_TIMEOUT", 5*time.Second),
		IdleTimeout:        getEnvDuration("IDLE_TIMEOUT", 0),
		MaxSessionDuration: getEnvDuration("MAX_SESSION_DURATION", 0),
		MaxHandshakeSize:   getEnvInt("MAX_HANDSHAKE_SIZE", 64*1024),
		MaxLegacyBytes:     int64(getEnvInt("MAX_LEGACY_BYTES", 4*1024)),

		// Admission
		MaxConnPerSecPerIP: getEnvFloat("MAX_CONN_PER_SEC_PER_IP", 10),
		ConnBurstPerIP:     getEnvInt("CONN_BURST_PER_IP", 20),
		MaxConcurrentConns: getEnvInt("MAX_CONCURRENT_CONNS", 1024),
	}
}

// validate ensures configuration is coherent
func (c *Config) validate() error {
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("unsupported LOG_FORMAT: %s (supported: json, console)", c.LogFormat)
	}

	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("HANDSHAKE_TIMEOUT must be positive")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("DIAL_TIMEOUT must be positive")
	}
	if c.IdleTimeout < 0 || c.MaxSessionDuration < 0 {
		return fmt.Errorf("IDLE_TIMEOUT and MAX_SESSION_DURATION must not be negative")
	}
	if c.MaxHandshakeSize <= 0 {
		return fmt.Errorf("MAX_HANDSHAKE_SIZE must be positive")
	}
	if c.MaxLegacyBytes <= 0 {
		return fmt.Errorf("MAX_LEGACY_BYTES must be positive")
	}
	if c.MaxConnPerSecPerIP < 0 || c.MaxConcurrentConns < 0 {
		return fmt.Errorf("admission limits must not be negative")
	}
	if c.MaxConnPerSecPerIP > 0 && c.ConnBurstPerIP < 1 {
		return fmt.Errorf("CONN_BURST_PER_IP must be at least 1 when per-IP limiting is enabled")
	}

	if c.HealthServerPort != "" {
		if _, err := strconv.ParseUint(c.HealthServerPort, 10, 16); err != nil {
			return fmt.Errorf("invalid HEALTH_SERVER_PORT: %s", c.HealthServerPort)
		}
	}

	// Validate discovery mode
	if c.DiscoveryMode == DiscoveryKubernetes && c.Runtime == RuntimeContainer && c.KubeConfigPath == "" {
		return fmt.Errorf("kubernetes discovery in container runtime requires KUBECONFIG path")
	}

	return nil
}

// validateAddress accepts host:port where host may be empty (all
// interfaces), an IP literal or a name, and port is numeric.
func validateAddress(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("missing %s address: %w", name, ErrInvalidAddress)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s address %q: %v: %w", name, addr, err, ErrInvalidAddress)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("%s address %q: bad port: %w", name, addr, ErrInvalidAddress)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func determineRuntime() RuntimeEnvironment {
	// Explicit runtime setting
	if runtime := os.Getenv("RUNTIME"); runtime != "" {
		switch strings.ToLower(runtime) {
		case "kubernetes", "k8s":
			return RuntimeKubernetes
		case "container", "docker":
			return RuntimeContainer
		case "vm", "virtual-machine", "bare-metal":
			return RuntimeVM
		}
	}

	// Auto-detect: Check if running in Kubernetes
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount"); err == nil {
		return RuntimeKubernetes
	}

	// Auto-detect: Check if running in container
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return RuntimeContainer
	}

	return RuntimeVM
}

func determineNamespace() string {
	if ns := os.Getenv("NAMESPACE"); ns != "" {
		return ns
	}

	// Kubernetes downward API
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return ns
	}

	// Read from service account (in-cluster)
	if data, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
		return strings.TrimSpace(string(data))
	}

	return "default"
}

func determineDiscoveryMode() DiscoveryMode {
	switch strings.ToLower(os.Getenv("DISCOVERY_MODE")) {
	case "kubernetes", "k8s":
		return DiscoveryKubernetes
	default:
		return DiscoveryStatic
	}
}
