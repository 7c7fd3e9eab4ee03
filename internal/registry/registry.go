package registry

import "sync"

// Conn is the live connection handle bound to a user. Push must not block;
// implementations drop the payload when the peer cannot keep up.
type Conn interface {
	Push(payload []byte) error
}

// Registry maps an authenticated user id to at most one live connection.
// Bindings are process-lifetime only and rebuilt from scratch on restart.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func New() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Bind registers the live connection for userID, silently evicting any
// prior binding. There is no multi-device fan-out.
func (r *Registry) Bind(userID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = c
}

// Unbind removes the binding only if c is still the current one, so a stale
// connection's teardown never evicts the binding of a reconnect that
// already replaced it.
func (r *Registry) Unbind(userID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
	}
}

func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
