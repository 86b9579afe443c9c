package session

import (
	"sync"
	"time"
)

// Record is one live session: the access token most recently issued against
// a refresh token, plus the claims it carries.
type Record struct {
	AccessToken  string
	RefreshToken string
	Payload      Payload
	AccountID    int64
	IssuedAt     time.Time
}

// Registry maps refresh-token strings to session records. It is the only
// shared mutable state in the process and must stay race-free under
// concurrent login, refresh and logout. Process lifetime only: a restart
// silently invalidates every outstanding refresh token.
//
// Construct with NewRegistry and inject it; never share one through a
// package-level variable.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Record
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Record)}
}

// Put stores or replaces the record for its refresh token. At most one
// record exists per key.
func (r *Registry) Put(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[rec.RefreshToken] = rec
}

// Get returns a copy of the record for the refresh token.
func (r *Registry) Get(refreshToken string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.sessions[refreshToken]
	return rec, ok
}

// SetAccessToken replaces the stored access token for an existing session.
// Reports false when no session matches.
func (r *Registry) SetAccessToken(refreshToken, accessToken string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[refreshToken]
	if !ok {
		return false
	}
	rec.AccessToken = accessToken
	r.sessions[refreshToken] = rec
	return true
}

// Remove drops the session for the refresh token.
func (r *Registry) Remove(refreshToken string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[refreshToken]; !ok {
		return false
	}
	delete(r.sessions, refreshToken)
	return true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
