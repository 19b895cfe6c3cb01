package core

import (
	"sync"
	"testing"
	"time"
)

func TestPacerLap(t *testing.T) {
	p := NewPacer()
	time.Sleep(10 * time.Millisecond)
	if d := p.Lap(); d < 10*time.Millisecond {
		t.Errorf("first lap = %v, want >= 10ms", d)
	}
	if d := p.Lap(); d > 10*time.Millisecond {
		t.Errorf("second lap = %v, expected it to reset", d)
	}
}

// Laps from concurrent callers partition the elapsed time exactly.
func TestPacerConcurrentLapsSum(t *testing.T) {
	p := NewPacer()
	var (
		mu    sync.Mutex
		total time.Duration
		wg    sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := p.Lap()
			if d < 0 {
				t.Errorf("negative lap %v", d)
			}
			mu.Lock()
			total += d
			mu.Unlock()
		}()
	}
	wg.Wait()
	if total > time.Since(p.start) {
		t.Errorf("laps sum %v exceeds elapsed time", total)
	}
}
