package service

import (
	"context"
	"sync"
)

// ExportedJobGuard lets _test packages exercise the guard.
type ExportedJobGuard = jobGuard

// ─────────────────────────────────────────────────────────────
// jobGuard — single-flight for background backup jobs
// ─────────────────────────────────────────────────────────────

// jobGuard lets at most one run of each named job proceed at a time.
// A cron tick that fires while the previous run is still writing is skipped.
type jobGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks job as running. False means a run is already in progress.
func (g *jobGuard) TryLock(job string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, busy := g.running[job]; busy {
		return false
	}
	g.running[job] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock ends a run started by a successful TryLock.
func (g *jobGuard) Unlock(job string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[job]; !busy {
		return
	}
	delete(g.running, job)
	g.wg.Done()
}

// Wait blocks until no job is running or ctx is done.
func (g *jobGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
