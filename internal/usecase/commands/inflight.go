package commands

import "sync"

// InflightGuard rejects a second submission with the same composite key while
// the first is still being processed. Process-local and best-effort: the
// partial unique index on pending reservations is the cross-process backstop.
type InflightGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInflightGuard() *InflightGuard {
	return &InflightGuard{keys: make(map[string]struct{})}
}

// Acquire reports whether the key was free. A false return means an identical
// request is already in flight.
func (g *InflightGuard) Acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.keys[key]; busy {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

// Release frees the key. Called unconditionally when processing finishes,
// whether it succeeded or failed.
func (g *InflightGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}
