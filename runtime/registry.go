// Package runtime holds the process-local state of the realtime layer.
// Nothing in here survives a restart: presence is rebuilt as connections
// come and go.
package runtime

import (
	"sync"

	"social-chat/contract"
)

type sinkSet map[contract.EventSink]struct{}

// Registry maps a user identity to its live sessions. A user may be connected
// from several devices at once; every registered sink receives fan-out.
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]sinkSet
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]sinkSet)}
}

// Register adds a session for the user. Earlier sessions for the same user
// are kept, not overwritten.
func (r *Registry) Register(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[userID]; !ok {
		r.sessions[userID] = make(sinkSet)
	}
	r.sessions[userID][sink] = struct{}{}
}

// Unregister removes one session. It is a no-op when the session is unknown,
// and it prunes the user entry entirely once the last session is gone so the
// map does not accumulate empty sets.
func (r *Registry) Unregister(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sinks, ok := r.sessions[userID]
	if !ok {
		return
	}
	delete(sinks, sink)
	if len(sinks) == 0 {
		delete(r.sessions, userID)
	}
}

// Resolve returns every live session of the user, or nil when none is connected.
func (r *Registry) Resolve(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	out := make([]contract.EventSink, 0, len(sinks))
	for sink := range sinks {
		out = append(out, sink)
	}
	return out
}

func (r *Registry) Connected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}
