package assessment

import (
	"sync"

	"github.com/google/uuid"
)

// sessionKey identifies the uniqueness scope for active sessions: each
// (examinee, pool scope) pair may have at most one active session.
type sessionKey struct {
	examineeID uuid.UUID
	poolScope  string
}

// activeRegistry enforces the one-active-session invariant in memory.
// Distinct sessions share no mutable state beyond this registry.
type activeRegistry struct {
	mu     sync.Mutex
	active map[sessionKey]uuid.UUID
}

func newActiveRegistry() *activeRegistry {
	return &activeRegistry{
		active: make(map[sessionKey]uuid.UUID),
	}
}

// acquire registers a session as the active one for its examinee and
// scope. Returns false if another session already holds the slot.
func (r *activeRegistry) acquire(examineeID uuid.UUID, scope string, sessionID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{examineeID: examineeID, poolScope: scope}
	if existing, ok := r.active[key]; ok && existing != sessionID {
		return false
	}

	r.active[key] = sessionID
	return true
}

// release frees the slot held by the given session. Releasing a slot held
// by a different session is a no-op.
func (r *activeRegistry) release(examineeID uuid.UUID, scope string, sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{examineeID: examineeID, poolScope: scope}
	if existing, ok := r.active[key]; ok && existing == sessionID {
		delete(r.active, key)
	}
}
