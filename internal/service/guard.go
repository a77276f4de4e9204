package service

import "sync"

// runGuard is a set of session ids with a run currently in flight. It keeps
// a session from being run twice concurrently.
type runGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{running: make(map[string]struct{})}
}

// tryAcquire inserts the id unless it is already present.
func (g *runGuard) tryAcquire(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.running[sessionID]; exists {
		return false
	}
	g.running[sessionID] = struct{}{}
	return true
}

// release removes the id. Must run on every exit path of a run, or the
// session wedges permanently.
func (g *runGuard) release(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, sessionID)
}
