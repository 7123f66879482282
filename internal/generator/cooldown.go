package generator

import (
	"sync"
	"time"
)

// CooldownGate controls how often a single user may start a generation
// request. Implementations must be safe for concurrent use across users.
type CooldownGate interface {
	// TryAcquire reports whether a request at now is allowed for the user.
	// When allowed, now is recorded as the user's last accepted request
	// before returning, so a generation that later fails for other reasons
	// still consumes the window. When refused, the remaining wait is
	// returned and stored state is left untouched.
	TryAcquire(userID int64, now time.Time) (time.Duration, bool)
}

// MemoryGate is an in-process CooldownGate backed by a mutex-guarded map.
// State does not survive restarts; a distributed store can replace it by
// implementing CooldownGate.
type MemoryGate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[int64]time.Time
}

// NewMemoryGate creates a MemoryGate enforcing the given cooldown window.
func NewMemoryGate(window time.Duration) *MemoryGate {
	return &MemoryGate{
		window: window,
		last:   make(map[int64]time.Time),
	}
}

// TryAcquire implements CooldownGate. The lock is held only for the map
// check and write, never across store or API calls.
func (g *MemoryGate) TryAcquire(userID int64, now time.Time) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.last[userID]; ok {
		elapsed := now.Sub(last)
		if elapsed < g.window {
			return g.window - elapsed, false
		}
	}

	g.last[userID] = now
	return 0, true
}
