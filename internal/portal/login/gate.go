package login

import "sync"

// Gate admits at most one holder per key.
type Gate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewGate constructs an empty Gate.
func NewGate() *Gate {
	return &Gate{held: make(map[string]struct{})}
}

// TryAcquire claims key. When the key is already held it returns false and a
// nil release func.
func (g *Gate) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, false
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true
}

// Held reports whether key is currently claimed.
func (g *Gate) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
