// Package notify tracks push tokens and announces fresh news fetches.
package notify

import "sync"

// Registry is the set of registered push tokens. Registration is idempotent;
// the registry lives only as long as the process.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]struct{})}
}

// Register adds a token and reports whether it was new.
func (r *Registry) Register(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; ok {
		return false
	}
	r.tokens[token] = struct{}{}
	return true
}

// Unregister removes a token and reports whether it was present.
func (r *Registry) Unregister(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return false
	}
	delete(r.tokens, token)
	return true
}

// Contains reports token membership.
func (r *Registry) Contains(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tokens[token]
	return ok
}

// Tokens returns a snapshot of registered tokens. Order is not defined.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tokens))
	for t := range r.tokens {
		out = append(out, t)
	}
	return out
}
