package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/config"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/discovery/kubernetes"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/discovery/memory"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/metrics"
	minecraft_proxy "github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/proxy/minecraft"
)

func TestResolverFactoryStatic(t *testing.T) {
	f := NewResolverFactory(&config.Config{
		DiscoveryMode:  config.DiscoveryStatic,
		BackendAddress: "10.0.0.5:25566",
	})
	r, err := f.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := r.(*memory.Resolver); !ok {
		t.Fatalf("resolver = %T, want *memory.Resolver", r)
	}
	got, err := r.Resolve(context.Background(), nil)
	if err != nil || got != "10.0.0.5:25566" {
		t.Errorf("Resolve = %q, %v", got, err)
	}
}

func TestResolverFactoryKubernetes(t *testing.T) {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "velocity", Namespace: "games"},
		Spec: corev1.ServiceSpec{
			ClusterIP: "10.96.0.20",
			Ports:     []corev1.ServicePort{{Port: 25577}},
		},
	}
	f := NewResolverFactory(&config.Config{
		DiscoveryMode:  config.DiscoveryKubernetes,
		Namespace:      "games",
		BackendAddress: "velocity:25577",
	})
	f.newClientset = func() (k8s.Interface, error) { return fake.NewSimpleClientset(svc), nil }

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r, err := f.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := r.(*kubernetes.K8sResolver); !ok {
		t.Fatalf("resolver = %T, want *kubernetes.K8sResolver", r)
	}
	got, err := r.Resolve(ctx, nil)
	if err != nil || got != "10.96.0.20:25577" {
		t.Errorf("Resolve = %q, %v", got, err)
	}
}

func TestResolverFactoryErrors(t *testing.T) {
	clientErr := errors.New("no cluster")
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"unknown_mode", &config.Config{DiscoveryMode: "consul", BackendAddress: "127.0.0.1:25565"}},
		{"bad_static_backend", &config.Config{DiscoveryMode: config.DiscoveryStatic, BackendAddress: "nope"}},
		{"client_failure", &config.Config{DiscoveryMode: config.DiscoveryKubernetes, BackendAddress: "velocity:25577"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewResolverFactory(tc.cfg)
			f.newClientset = func() (k8s.Interface, error) { return nil, clientErr }
			if _, err := f.Create(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestProxyFactoryCopiesLimits(t *testing.T) {
	cfg := &config.Config{
		HandshakeTimeout:   3 * time.Second,
		DialTimeout:        4 * time.Second,
		IdleTimeout:        time.Minute,
		MaxSessionDuration: time.Hour,
		MaxHandshakeSize:   1024,
		MaxLegacyBytes:     256,
	}
	m := metrics.New(prometheus.NewRegistry())
	r, _ := memory.NewResolver("127.0.0.1:25565")

	h := NewProxyFactory(cfg).Create(r, m)
	p, ok := h.(*minecraft_proxy.MinecraftProxy)
	if !ok {
		t.Fatalf("handler = %T", h)
	}
	if p.Resolver != r || p.Metrics != m {
		t.Error("resolver or metrics not wired")
	}
	if p.HandshakeTimeout != cfg.HandshakeTimeout || p.DialTimeout != cfg.DialTimeout ||
		p.IdleTimeout != cfg.IdleTimeout || p.MaxSessionDuration != cfg.MaxSessionDuration ||
		p.MaxHandshakeSize != cfg.MaxHandshakeSize || p.MaxLegacyBytes != cfg.MaxLegacyBytes {
		t.Errorf("limits not copied: %+v", p)
	}
}
