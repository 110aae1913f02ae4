package bot

import "sync"

// Registry maps bot ids to connected bots.
//
// Registration happens once during startup; lookups happen on every webhook
// request, so the registry is read-mostly.
type Registry struct {
	mu   sync.RWMutex
	bots map[string]Bot
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bots: make(map[string]Bot)}
}

// Register adds a bot under its own id. Re-registering an id replaces the
// previous entry.
func (r *Registry) Register(b Bot) {
	if b == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots[b.ID()] = b
}

// Lookup returns the bot registered under id.
func (r *Registry) Lookup(id string) (Bot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bots[id]
	return b, ok
}

// All returns a snapshot of the registered bots.
func (r *Registry) All() []Bot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bots := make([]Bot, 0, len(r.bots))
	for _, b := range r.bots {
		bots = append(bots, b)
	}

	return bots
}
