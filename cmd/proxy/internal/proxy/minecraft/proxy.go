package minecraft_proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/core"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/logger"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/mcproto"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/metrics"
)

const (
	tracerName     = "github.com/hasirciogluhq/xminecraft-proxy"
	resolveTimeout = 5 * time.Second
)

// ErrDial is returned when the outbound connection to the backend fails.
var ErrDial = errors.New("backend dial failed")

// MinecraftProxy classifies a client connection, decodes the modern
// handshake and splices the connection to the backend. Legacy pings are
// drained and dropped.
type MinecraftProxy struct {
	Resolver core.BackendResolver
	Metrics  *metrics.Metrics

	HandshakeTimeout   time.Duration
	DialTimeout        time.Duration
	IdleTimeout        time.Duration
	MaxSessionDuration time.Duration
	MaxHandshakeSize   int
	MaxLegacyBytes     int64
}

// HandleConnection implements core.ConnectionHandler.
// It takes full ownership of the connection lifecycle.
func (p *MinecraftProxy) HandleConnection(ctx context.Context, clientConn net.Conn) {
	defer clientConn.Close()

	log := logger.With("remote_addr", clientConn.RemoteAddr().String())
	ctx, span := otel.Tracer(tracerName).Start(ctx, "minecraft.connection",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("net.peer.addr", clientConn.RemoteAddr().String())))
	defer span.End()

	if err := p.handle(ctx, clientConn, log, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("Connection failed", "error", err)
	}
}

func (p *MinecraftProxy) handle(ctx context.Context, clientConn net.Conn, log logger.Logger, span trace.Span) error {
	// 1. Classification, under the handshake deadline
	if p.HandshakeTimeout > 0 {
		if err := clientConn.SetReadDeadline(time.Now().Add(p.HandshakeTimeout)); err != nil {
			return fmt.Errorf("set handshake deadline: %w", err)
		}
	}
	br := bufio.NewReader(clientConn)

	kind, err := mcproto.Sniff(br)
	if err != nil {
		return p.fail("classify", err)
	}
	p.Metrics.Connections.WithLabelValues(kind.String()).Inc()
	span.SetAttributes(attribute.String("minecraft.kind", kind.String()))
	log.Debug("Connection classified", "kind", kind.String())

	if kind == mcproto.KindLegacy {
		return p.handleLegacy(br, log)
	}
	return p.handleModern(ctx, clientConn, br, log, span)
}

// handleLegacy drains a legacy ping and drops it. No reply is sent and the
// backend is never contacted.
func (p *MinecraftProxy) handleLegacy(br *bufio.Reader, log logger.Logger) error {
	ping, err := mcproto.ReadLegacy(br, p.MaxLegacyBytes)
	if err != nil {
		return p.fail("legacy", err)
	}
	first, second, n := ping.Markers()
	log.Info("Legacy ping dropped",
		"length", len(ping.Payload),
		"markers", fmt.Sprintf("% X", []byte{first, second}[:n]))
	return nil
}

func (p *MinecraftProxy) handleModern(ctx context.Context, clientConn net.Conn, br *bufio.Reader, log logger.Logger, span trace.Span) error {
	// 2. Handshake parsing
	hs, err := mcproto.ReadHandshake(br, p.MaxHandshakeSize)
	if err != nil {
		return p.fail("handshake", err)
	}
	if err := clientConn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("clear handshake deadline: %w", err)
	}

	hosts := hs.Hosts()
	log = log.With("hostname", hosts.Primary, "protocol_version", hs.ProtocolVersion)
	log.Info("Handshake decoded",
		"packet_id", hs.PacketID,
		"port", hs.ServerPort,
		"addons", hosts.Addons,
		"residual", hs.Residual())
	span.SetAttributes(
		attribute.String("minecraft.hostname", hosts.Primary),
		attribute.Int("minecraft.protocol_version", int(hs.ProtocolVersion)),
		attribute.Int("minecraft.port", int(hs.ServerPort)),
		attribute.StringSlice("minecraft.addons", hosts.Addons),
	)

	// 3. Resolve Backend
	metadata := core.RoutingMetadata{
		"hostname":         hosts.Primary,
		"addons":           strings.Join(hosts.Addons, ","),
		"protocol_version": strconv.Itoa(int(hs.ProtocolVersion)),
		"port":             strconv.Itoa(int(hs.ServerPort)),
	}
	resolveCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
	backendAddr, err := p.Resolver.Resolve(resolveCtx, metadata)
	cancel()
	if err != nil {
		return p.fail("resolve", fmt.Errorf("resolution failed: %w", err))
	}

	// 4. Dial Backend
	dialer := net.Dialer{Timeout: p.DialTimeout}
	backendConn, err := dialer.DialContext(ctx, "tcp", backendAddr)
	if err != nil {
		p.Metrics.DialFailures.Inc()
		return p.fail("dial", fmt.Errorf("%w: %s: %v", ErrDial, backendAddr, err))
	}
	defer backendConn.Close()

	// 5. Forward the handshake exactly as received
	if _, err := backendConn.Write(hs.Raw); err != nil {
		return p.fail("forward", fmt.Errorf("forward handshake: %w", err))
	}

	// 6. Pipe Data
	sessionCtx := ctx
	if p.MaxSessionDuration > 0 {
		var cancelSession context.CancelFunc
		sessionCtx, cancelSession = context.WithTimeout(ctx, p.MaxSessionDuration)
		defer cancelSession()
	}

	log.Info("Relay started", "backend_addr", backendAddr)
	p.Metrics.ActiveSessions.Inc()
	start := time.Now()
	stats, err := core.Splice(sessionCtx, core.BufferedConn(clientConn, br), backendConn, p.IdleTimeout)
	elapsed := time.Since(start)
	p.Metrics.RelayedBytes.WithLabelValues("client_to_backend").Add(float64(stats.ClientToBackend + int64(len(hs.Raw))))
	p.Metrics.RelayedBytes.WithLabelValues("backend_to_client").Add(float64(stats.BackendToClient))
	p.Metrics.SessionDuration.Observe(elapsed.Seconds())
	p.Metrics.ActiveSessions.Dec()

	log.Info("Relay finished",
		"backend_addr", backendAddr,
		"client_to_backend", stats.ClientToBackend,
		"backend_to_client", stats.BackendToClient,
		"duration", elapsed.String())

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// Shutdown.
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		log.Info("Session reached its maximum duration")
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		log.Info("Session idle timeout")
		return nil
	default:
		return fmt.Errorf("relay: %w", err)
	}
}

// fail counts a connection dropped before relaying and wraps err with the
// stage it failed in.
func (p *MinecraftProxy) fail(stage string, err error) error {
	p.Metrics.HandshakeFailures.WithLabelValues(failureReason(stage, err)).Inc()
	return fmt.Errorf("%s: %w", stage, err)
}

func failureReason(stage string, err error) string {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return "timeout"
	case errors.Is(err, mcproto.ErrMalformedVarInt):
		return "malformed_varint"
	case errors.Is(err, mcproto.ErrMalformedLength):
		return "malformed_length"
	case errors.Is(err, mcproto.ErrPacketTooLarge):
		return "packet_too_large"
	case errors.Is(err, mcproto.ErrLegacyTooLarge):
		return "legacy_too_large"
	case errors.Is(err, mcproto.ErrTruncatedInput):
		return "truncated"
	case stage == "resolve", stage == "dial", stage == "forward":
		return stage
	default:
		return "io"
	}
}
