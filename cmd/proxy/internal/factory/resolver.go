package factory

import (
	"context"
	"fmt"
	"os"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/config"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/core"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/discovery/kubernetes"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/discovery/memory"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/logger"

	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ResolverFactory creates backend resolvers based on configuration
type ResolverFactory struct {
	cfg *config.Config

	// newClientset is replaced in tests.
	newClientset func() (k8s.Interface, error)
}

// NewResolverFactory creates a new resolver factory
func NewResolverFactory(cfg *config.Config) *ResolverFactory {
	f := &ResolverFactory{cfg: cfg}
	f.newClientset = f.buildClientset
	return f
}

// Create creates a backend resolver based on configuration. The kubernetes
// resolver keeps an informer running until ctx is done.
func (f *ResolverFactory) Create(ctx context.Context) (core.BackendResolver, error) {
	switch f.cfg.DiscoveryMode {
	case config.DiscoveryStatic, "":
		return f.createStaticResolver()
	case config.DiscoveryKubernetes:
		return f.createKubernetesResolver(ctx)
	default:
		return nil, fmt.Errorf("unknown discovery mode: %s", f.cfg.DiscoveryMode)
	}
}

func (f *ResolverFactory) createStaticResolver() (core.BackendResolver, error) {
	logger.Info("Creating Static Backend Resolver", "backend", f.cfg.BackendAddress)

	resolver, err := memory.NewResolver(f.cfg.BackendAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create static resolver: %w", err)
	}
	return resolver, nil
}

func (f *ResolverFactory) createKubernetesResolver(ctx context.Context) (core.BackendResolver, error) {
	logger.Info("Creating Kubernetes Backend Resolver",
		"runtime", f.cfg.Runtime,
		"namespace", f.cfg.Namespace,
		"backend", f.cfg.BackendAddress)

	clientset, err := f.newClientset()
	if err != nil {
		return nil, err
	}

	resolver, err := kubernetes.NewK8sResolver(ctx, clientset, f.cfg.Namespace, f.cfg.BackendAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes resolver: %w", err)
	}
	logger.Info("Kubernetes resolver created successfully")
	return resolver, nil
}

func (f *ResolverFactory) buildClientset() (k8s.Interface, error) {
	kubeconfig := f.cfg.KubeConfigPath

	// For non-Kubernetes runtime, kubeconfig is required
	if f.cfg.Runtime != config.RuntimeKubernetes && kubeconfig == "" {
		if home := os.Getenv("HOME"); home != "" {
			kubeconfig = home + "/.kube/config"
		}
	}

	configOverrides := &clientcmd.ConfigOverrides{}
	if f.cfg.KubeContext != "" {
		configOverrides.CurrentContext = f.cfg.KubeContext
		logger.Info("Using specific Kubernetes context", "context", f.cfg.KubeContext)
	}

	var restConfig *rest.Config
	var err error

	// Try kubeconfig first (for VM/Container runtime or explicit config)
	if kubeconfig != "" {
		restConfig, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
			configOverrides,
		).ClientConfig()
		if err != nil {
			logger.Warn("Failed to load kubeconfig, will try in-cluster config", "error", err)
		}
	}

	// Fallback to in-cluster config (for Kubernetes runtime)
	if restConfig == nil {
		logger.Info("Attempting in-cluster Kubernetes configuration")
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config (tried kubeconfig and in-cluster): %w", err)
		}
	}

	clientset, err := k8s.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return clientset, nil
}
