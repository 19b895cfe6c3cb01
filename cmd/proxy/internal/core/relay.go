package core

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// SpliceStats counts the bytes copied in each direction.
type SpliceStats struct {
	ClientToBackend int64
	BackendToClient int64
}

// Splice copies bytes between client and backend until one direction hits
// EOF or an error, then closes both connections. Cancelling ctx closes both
// as well and makes Splice return ctx.Err(). idle > 0 ends the session when
// a direction receives nothing for that long.
//
// The returned error is the one that ended the session; the read failure
// the other direction sees after the close is not reported.
func Splice(ctx context.Context, client, backend net.Conn, idle time.Duration) (SpliceStats, error) {
	var (
		stats     SpliceStats
		closeOnce sync.Once
		cancelled atomic.Bool
	)
	closeBoth := func() {
		client.Close()
		backend.Close()
	}
	// finish closes both sides and reports whether the caller was first.
	finish := func() bool {
		first := false
		closeOnce.Do(func() {
			first = true
			closeBoth()
		})
		return first
	}

	stop := context.AfterFunc(ctx, func() {
		closeOnce.Do(func() {
			cancelled.Store(true)
			closeBoth()
		})
	})
	defer stop()

	var g errgroup.Group
	g.Go(func() error {
		n, err := io.Copy(backend, withIdle(client, idle))
		stats.ClientToBackend = n
		if !finish() {
			return nil
		}
		return err
	})
	g.Go(func() error {
		n, err := io.Copy(client, withIdle(backend, idle))
		stats.BackendToClient = n
		if !finish() {
			return nil
		}
		return err
	})

	err := g.Wait()
	if cancelled.Load() {
		return stats, ctx.Err()
	}
	return stats, err
}

// idleConn pushes the read deadline forward before every read.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func withIdle(conn net.Conn, idle time.Duration) net.Conn {
	if idle <= 0 {
		return conn
	}
	return &idleConn{Conn: conn, timeout: idle}
}

// bufferedConn reads through r, typically a bufio.Reader that still holds
// bytes peeked from the connection, and writes straight to the socket.
type bufferedConn struct {
	net.Conn
	r io.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// BufferedConn returns conn with its reads served from r.
func BufferedConn(conn net.Conn, r io.Reader) net.Conn {
	return &bufferedConn{Conn: conn, r: r}
}
