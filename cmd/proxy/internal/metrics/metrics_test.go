package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Connections.WithLabelValues("modern").Inc()
	m.HandshakeFailures.WithLabelValues("truncated").Add(2)
	m.ActiveSessions.Set(3)

	const want = `
# HELP xminecraft_proxy_handshake_failures_total Connections dropped before relaying, by reason.
# TYPE xminecraft_proxy_handshake_failures_total counter
xminecraft_proxy_handshake_failures_total{reason="truncated"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "xminecraft_proxy_handshake_failures_total"); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 3 {
		t.Errorf("active sessions = %v", got)
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(reg)
}
