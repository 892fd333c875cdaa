// Package decisions remembers which approval requests already received a
// terminal decision, so a replayed action token cannot grant twice.
package decisions

import (
	"context"
	"sync"
	"time"
)

const cleanupInterval = time.Hour

// MemoryGuard keeps claims in process memory. Claims are lost on restart.
type MemoryGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time
	ttl    time.Duration
	now    func() time.Time

	stopCh chan struct{}
	once   sync.Once
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return newMemoryGuard(ttl, time.Now)
}

func newMemoryGuard(ttl time.Duration, now func() time.Time) *MemoryGuard {
	return &MemoryGuard{
		claims: make(map[string]time.Time),
		ttl:    ttl,
		now:    now,
		stopCh: make(chan struct{}),
	}
}

// Claim marks key as decided. It returns false if key was already claimed
// and the claim has not expired.
func (g *MemoryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiresAt, exists := g.claims[key]; exists && now.Before(expiresAt) {
		return false, nil
	}

	g.claims[key] = now.Add(g.ttl)
	return true, nil
}

// Release forgets a claim so the request can be decided again.
func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, key)
	return nil
}

func (g *MemoryGuard) Name() string {
	return "decision-guard-cleanup"
}

// Start periodically drops expired claims until Stop is called.
func (g *MemoryGuard) Start() error {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-g.stopCh:
				return
			case <-ticker.C:
				g.purge()
			}
		}
	}()
	return nil
}

func (g *MemoryGuard) Stop() {
	g.once.Do(func() { close(g.stopCh) })
}

func (g *MemoryGuard) purge() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, expiresAt := range g.claims {
		if !now.Before(expiresAt) {
			delete(g.claims, key)
		}
	}
}

func (g *MemoryGuard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.claims)
}
