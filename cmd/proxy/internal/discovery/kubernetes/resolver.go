package kubernetes

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/core"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"
)

// EnabledLabel set to "false" on the backend Service takes it out of
// rotation without deleting it.
const EnabledLabel = "xminecraft-proxy-enabled"

// K8sResolver resolves the configured backend Service through an informer
// cache. There is still exactly one backend; the cluster only decides which
// IP it lives at right now.
type K8sResolver struct {
	store     cache.Store
	namespace string
	name      string
	port      int32
}

// ParseServiceAddress splits "service[.namespace]:port". A missing
// namespace falls back to defaultNamespace.
func ParseServiceAddress(addr, defaultNamespace string) (namespace, name string, port int32, err error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid service address %q: %w", addr, err)
	}
	p, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || p == 0 {
		return "", "", 0, fmt.Errorf("invalid service port in %q", addr)
	}

	host = strings.TrimSuffix(host, ".svc.cluster.local")
	name, namespace, _ = strings.Cut(host, ".")
	if namespace == "" {
		namespace = defaultNamespace
	}
	if name == "" {
		return "", "", 0, fmt.Errorf("missing service name in %q", addr)
	}
	return namespace, name, int32(p), nil
}

// NewK8sResolver starts a Service informer scoped to the backend's namespace
// and blocks until its cache has synced.
func NewK8sResolver(ctx context.Context, clientset kubernetes.Interface, defaultNamespace, backend string) (*K8sResolver, error) {
	namespace, name, port, err := ParseServiceAddress(backend, defaultNamespace)
	if err != nil {
		return nil, err
	}

	factory := informers.NewSharedInformerFactoryWithOptions(clientset, 10*time.Minute,
		informers.WithNamespace(namespace))
	serviceInformer := factory.Core().V1().Services().Informer()

	// Start the informer in the background
	factory.Start(ctx.Done())
	if !cache.WaitForCacheSync(ctx.Done(), serviceInformer.HasSynced) {
		return nil, fmt.Errorf("service cache for namespace %s did not sync", namespace)
	}

	return &K8sResolver{
		store:     serviceInformer.GetStore(),
		namespace: namespace,
		name:      name,
		port:      port,
	}, nil
}

func (r *K8sResolver) Resolve(ctx context.Context, metadata core.RoutingMetadata) (string, error) {
	key := r.namespace + "/" + r.name
	obj, exists, err := r.store.GetByKey(key)
	if err != nil {
		return "", fmt.Errorf("service cache lookup %s: %w", key, err)
	}
	if !exists {
		return "", fmt.Errorf("service %s not found", key)
	}
	svc, ok := obj.(*corev1.Service)
	if !ok {
		return "", fmt.Errorf("unexpected object %T in service cache", obj)
	}

	if svc.Labels[EnabledLabel] == "false" {
		return "", fmt.Errorf("service %s is disabled via %s label", key, EnabledLabel)
	}

	found := false
	for _, p := range svc.Spec.Ports {
		if p.Port == r.port {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("service %s does not expose port %d", key, r.port)
	}

	port := strconv.Itoa(int(r.port))
	if ip := svc.Spec.ClusterIP; ip != "" && ip != corev1.ClusterIPNone {
		return net.JoinHostPort(ip, port), nil
	}
	// Headless service: let cluster DNS pick an endpoint.
	return net.JoinHostPort(fmt.Sprintf("%s.%s.svc.cluster.local", svc.Name, svc.Namespace), port), nil
}
