package chat

import "sync"

// Session pairs an engine with the mutex that serializes access to it.
// The engine itself is single threaded; the lock is what turns the
// concurrent HTTP surface into the engine's one-message-at-a-time world.
type Session struct {
	mu     sync.Mutex
	engine *Engine
}

// Registry creates and caches one Session per client session id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  func() *Engine
}

func NewRegistry(factory func() *Engine) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

func (r *Registry) Session(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = &Session{engine: r.factory()}
		r.sessions[id] = s
	}
	return s
}

// Stop cancels pending navigate timers across all sessions. Used on
// shutdown so no deferred signal fires against a torn-down host.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		s.engine.Stop()
	}
}
