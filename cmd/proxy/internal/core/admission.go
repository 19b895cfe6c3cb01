package core

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Rejection reasons reported by Admit.
const (
	RejectRateLimited   = "rate_limited"
	RejectTooManyActive = "too_many_connections"
)

// Admission limits new connections per source IP with a token bucket and
// caps how many run at once.
type Admission struct {
	perIP         rate.Limit
	burst         int
	maxConcurrent int64

	active atomic.Int64

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAdmission builds the admission controller. perSecond <= 0 disables the
// per-IP limiter; maxConcurrent <= 0 means unlimited.
func NewAdmission(perSecond float64, burst, maxConcurrent int) *Admission {
	a := &Admission{
		perIP:         rate.Inf,
		burst:         burst,
		maxConcurrent: int64(maxConcurrent),
		visitors:      make(map[string]*visitor),
		now:           time.Now,
	}
	if perSecond > 0 {
		a.perIP = rate.Limit(perSecond)
	}
	return a
}

// Admit decides whether a connection from addr may proceed. On success the
// returned release func must be called once the connection is done.
func (a *Admission) Admit(addr net.Addr) (release func(), reason string, ok bool) {
	if a.perIP != rate.Inf && !a.limiter(hostOf(addr)).Allow() {
		return nil, RejectRateLimited, false
	}

	n := a.active.Add(1)
	if a.maxConcurrent > 0 && n > a.maxConcurrent {
		a.active.Add(-1)
		return nil, RejectTooManyActive, false
	}

	var once sync.Once
	return func() { once.Do(func() { a.active.Add(-1) }) }, "", true
}

// Active returns the number of admitted connections not yet released.
func (a *Admission) Active() int64 {
	return a.active.Load()
}

// Sweep forgets per-IP buckets that have been idle longer than idle and
// returns how many were removed.
func (a *Admission) Sweep(idle time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().Add(-idle)
	removed := 0
	for ip, v := range a.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(a.visitors, ip)
			removed++
		}
	}
	return removed
}

func (a *Admission) limiter(ip string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(a.perIP, a.burst)}
		a.visitors[ip] = v
	}
	v.lastSeen = a.now()
	return v.limiter
}

func hostOf(addr net.Addr) string {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
