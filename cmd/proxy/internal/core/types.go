package core

import (
	"context"
	"net"
)

// RoutingMetadata contains information extracted from the protocol handshake
// (e.g., "hostname": "play.example.com"). Resolvers may use it to pick a
// backend; the built-in resolvers only record it.
type RoutingMetadata map[string]string

// BackendResolver defines how to find a backend address based on metadata.
// It is purely a lookup mechanism and knows nothing about the network.
type BackendResolver interface {
	Resolve(ctx context.Context, metadata RoutingMetadata) (string, error)
}

// ConnectionHandler owns an accepted connection for its whole lifetime and
// must close it before returning. ctx is cancelled on shutdown.
type ConnectionHandler interface {
	HandleConnection(ctx context.Context, conn net.Conn)
}

// ConnectionHandlerFunc adapts a function to ConnectionHandler.
type ConnectionHandlerFunc func(ctx context.Context, conn net.Conn)

func (f ConnectionHandlerFunc) HandleConnection(ctx context.Context, conn net.Conn) {
	f(ctx, conn)
}
