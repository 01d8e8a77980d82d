package extractor

import "sync"

// Guard enforces at most one in-flight extraction per session. The document
// collaborators are not safe for concurrent use on the same handle, so a
// second request for a busy session is rejected rather than interleaved.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard returns an empty Guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// Acquire reserves the slot for session. It returns a release function and
// true on success, or nil and false if the session already has an extraction
// in flight.
func (g *Guard) Acquire(session string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[session]; busy {
		return nil, false
	}
	g.inflight[session] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.inflight, session)
		g.mu.Unlock()
	}, true
}
