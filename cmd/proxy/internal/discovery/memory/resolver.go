package memory

import (
	"context"
	"fmt"
	"net"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/core"
	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/logger"
)

// Resolver always answers with the single backend it was built with. The
// handshake metadata is logged but never changes the answer.
type Resolver struct {
	backend string
}

// NewResolver creates a resolver for a fixed host:port backend.
func NewResolver(backend string) (*Resolver, error) {
	if _, _, err := net.SplitHostPort(backend); err != nil {
		return nil, fmt.Errorf("invalid backend address %q: %w", backend, err)
	}
	return &Resolver{backend: backend}, nil
}

func (r *Resolver) Resolve(ctx context.Context, metadata core.RoutingMetadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	logger.Debug("Static resolver routing",
		"hostname", metadata["hostname"],
		"backend_addr", r.backend)
	return r.backend, nil
}
