// Package netgate implements the network gate (C8): a cheap reachability
// probe plus a timeout wrapper every server-talking path in C3/C4/C6/C7
// flows through.
package netgate

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/kilnworks/syncengine/internal/engineerrors"
)

// dialTimeout bounds the reachability probe itself; it is intentionally
// much shorter than the per-call deadlines WithTimeout enforces.
const dialTimeout = 2 * time.Second

// Gate combines an OS-level reachability probe with the last-known
// liveness of the identity session, so a component can ask "is there any
// point attempting a server call right now" without making one.
type Gate struct {
	probeAddr string

	mu           sync.RWMutex
	sessionAlive bool
}

// New returns a Gate that probes probeAddr (host:port) for reachability.
// Callers typically pass the remote store's or identity server's address.
func New(probeAddr string) *Gate {
	return &Gate{probeAddr: probeAddr, sessionAlive: true}
}

// SetSessionAlive records the last-known liveness of the identity session,
// updated by the identity client whenever it succeeds or sees an
// authentication failure.
func (g *Gate) SetSessionAlive(alive bool) {
	g.mu.Lock()
	g.sessionAlive = alive
	g.mu.Unlock()
}

// IsOnline reports whether the engine should attempt a server call: the
// host must be reachable AND the last-known session must not be dead.
func (g *Gate) IsOnline(ctx context.Context) bool {
	g.mu.RLock()
	alive := g.sessionAlive
	g.mu.RUnlock()
	if !alive {
		return false
	}
	return g.reachable(ctx)
}

func (g *Gate) reachable(ctx context.Context) bool {
	if g.probeAddr == "" {
		return true
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", g.probeAddr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WithTimeout runs fn with a bounded deadline, converting a deadline
// overrun into an engineerrors.NetworkTimeoutError rather than the bare
// context.DeadlineExceeded.
func WithTimeout(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(tctx)
	if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return &engineerrors.NetworkTimeoutError{Op: op}
	}
	return err
}
