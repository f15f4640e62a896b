// Package cooldown is a keyed last-fired gate. A key may fire once the
// window has fully elapsed since it last fired.
//
// The gate is seeded per call with the last firing time known to storage,
// so it survives restarts without owning persistence, and the in-memory
// record closes the gap between two concurrent firings whose storage
// writes have not landed yet.
package cooldown

import (
	"sync"
	"time"
)

// Gate tracks the last firing time per key.
type Gate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// New creates a gate with the given window. A window <= 0 never blocks.
func New(window time.Duration) *Gate {
	return &Gate{window: window, last: make(map[string]time.Time)}
}

// Window returns the configured cooldown.
func (g *Gate) Window() time.Duration {
	return g.window
}

// Allow reports whether key may fire at now and, if so, records the firing.
// persisted is the last firing time held by storage; nil means never.
// The later of persisted and the in-memory record wins.
func (g *Gate) Allow(key string, persisted *time.Time, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, seen := g.last[key]
	if persisted != nil && (!seen || persisted.After(last)) {
		last, seen = *persisted, true
	}

	if g.window > 0 && seen && now.Sub(last) <= g.window {
		return false
	}

	g.last[key] = now
	return true
}

// Forget undoes the firing recorded for key at at, as when the work it
// allowed could not be handed off. A later firing is left in place.
func (g *Gate) Forget(key string, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.last[key]; ok && last.Equal(at) {
		delete(g.last, key)
	}
}
