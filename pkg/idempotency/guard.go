// Package idempotency provides a time-bounded duplicate-request guard.
//
// The guard is process-local and in-memory: in a multi-instance deployment a
// duplicate routed to another instance will not be caught. Callers needing
// cross-instance suppression must back the guard with a shared store.
package idempotency

import (
	"errors"
	"sync"
	"time"
)

// DefaultTTL is the window within which a repeated key is rejected.
const DefaultTTL = 20 * time.Minute

// ErrDuplicateKey reports a key that was already admitted within its TTL
// window.
var ErrDuplicateKey = errors.New("idempotency: duplicate key")

type entry struct {
	expiresAt time.Time
}

// Guard is a key→marker cache with a fixed TTL. Within the TTL window exactly
// one Admit call per key succeeds; after expiry the key becomes admittable
// again. Construct one per process and inject it; it is safe for concurrent
// use.
type Guard struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry

	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns a Guard with the given TTL. A non-positive ttl falls back to
// DefaultTTL.
func New(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{
		ttl:     ttl,
		entries: make(map[string]entry),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Admit records key and returns nil, or returns ErrDuplicateKey if key was
// already admitted within the TTL window. The check and the insert happen
// under one lock so exactly one concurrent Admit for a given key wins.
func (g *Guard) Admit(key string) error {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[key]; ok && now.Before(e.expiresAt) {
		return ErrDuplicateKey
	}

	g.entries[key] = entry{expiresAt: now.Add(g.ttl)}
	return nil
}

// TTL reports the configured suppression window.
func (g *Guard) TTL() time.Duration { return g.ttl }

// Len reports the number of tracked keys, expired entries included until the
// janitor sweeps them. Intended for tests and diagnostics.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Start launches the background janitor that sweeps expired entries so the
// map does not grow without bound. Call Stop to shut it down.
func (g *Guard) Start() {
	go g.run()
}

// Stop shuts down the janitor and blocks until it has exited.
func (g *Guard) Stop() {
	close(g.stopCh)
	<-g.doneCh
}

func (g *Guard) run() {
	defer close(g.doneCh)

	// Sweep at half the TTL so stale entries linger at most 1.5×TTL.
	ticker := time.NewTicker(g.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep(time.Now())
		case <-g.stopCh:
			return
		}
	}
}

func (g *Guard) sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key, e := range g.entries {
		if now.After(e.expiresAt) {
			delete(g.entries, key)
		}
	}
}
