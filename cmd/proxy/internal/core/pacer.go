package core

import (
	"sync/atomic"
	"time"
)

// Pacer reports the time elapsed since the previous event, across all
// connections. It only orders diagnostic log lines.
type Pacer struct {
	start time.Time
	last  atomic.Int64 // nanoseconds since start
}

// NewPacer returns a Pacer whose first Lap measures from now.
func NewPacer() *Pacer {
	return &Pacer{start: time.Now()}
}

// Lap returns the time since the previous Lap and resets the mark.
func (p *Pacer) Lap() time.Duration {
	for {
		prev := p.last.Load()
		now := int64(time.Since(p.start))
		if p.last.CompareAndSwap(prev, now) {
			return time.Duration(now - prev)
		}
	}
}
