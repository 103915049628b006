package async

import (
	"sync"
	"time"
)

// DefaultGuardWindow suits tap/touch double-fire on the order of a single
// user gesture.
const DefaultGuardWindow = 300 * time.Millisecond

// KeyGuard grants an action key at most once per window. It decouples the
// "a single gesture must not double-apply" rule from any specific input
// event type: callers pick the key, the guard enforces the window.
type KeyGuard struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewKeyGuard creates a guard with the given window. A non-positive window
// falls back to DefaultGuardWindow.
func NewKeyGuard(window time.Duration) *KeyGuard {
	if window <= 0 {
		window = DefaultGuardWindow
	}
	return &KeyGuard{
		window: window,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether the action key may fire now, and if so records the
// firing. A repeat of the same key inside the window is rejected.
func (g *KeyGuard) Allow(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if last, ok := g.last[key]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[key] = now

	// Opportunistic cleanup so long-lived guards do not accumulate keys.
	for k, t := range g.last {
		if now.Sub(t) >= g.window {
			delete(g.last, k)
		}
	}
	return true
}
