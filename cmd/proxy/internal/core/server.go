package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/logger"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/metrics"
)

const (
	maxAcceptBackoff = time.Second
	sweepInterval    = time.Minute
	visitorIdle      = 3 * time.Minute
)

// Server is the generic TCP proxy server.
// It depends ONLY on interfaces, not concrete implementations.
type Server struct {
	Listener          net.Listener
	ConnectionHandler ConnectionHandler

	// Optional.
	Admission *Admission
	Pacer     *Pacer
	Metrics   *metrics.Metrics

	wg sync.WaitGroup
}

// Serve accepts connections until ctx is cancelled or the listener fails
// permanently. Each connection runs in its own goroutine; a failing
// connection never stops the loop. On cancellation Serve closes the listener
// and waits for in-flight handlers before returning nil.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.Pacer == nil {
		s.Pacer = NewPacer()
	}

	go func() {
		<-ctx.Done()
		s.Listener.Close()
	}()
	if s.Admission != nil {
		go s.sweep(ctx)
	}

	var backoff time.Duration
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return fmt.Errorf("listener closed: %w", err)
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(backoff*2, maxAcceptBackoff)
			}
			logger.Warn("Accept failed, retrying", "error", err, "backoff", backoff.String())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0

		release := func() {}
		if s.Admission != nil {
			var (
				reason string
				ok     bool
			)
			release, reason, ok = s.Admission.Admit(conn.RemoteAddr())
			if !ok {
				logger.Warn("Connection rejected", "remote_addr", conn.RemoteAddr().String(), "reason", reason)
				if s.Metrics != nil {
					s.Metrics.Rejected.WithLabelValues(reason).Inc()
				}
				conn.Close()
				continue
			}
		}

		logger.Debug("Connection accepted",
			"remote_addr", conn.RemoteAddr().String(),
			"since_last", s.Pacer.Lap().String())

		s.wg.Add(1)
		go s.handleConnection(ctx, conn, release)
	}
}

func (s *Server) handleConnection(ctx context.Context, clientConn net.Conn, release func()) {
	defer s.wg.Done()
	defer release()

	// Delegate the entire lifecycle to the handler
	s.ConnectionHandler.HandleConnection(ctx, clientConn)

	logger.Debug("Connection finished",
		"remote_addr", clientConn.RemoteAddr().String(),
		"since_last", s.Pacer.Lap().String())
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Admission.Sweep(visitorIdle); n > 0 {
				logger.Debug("Swept idle rate limiter entries", "removed", n)
			}
		}
	}
}
