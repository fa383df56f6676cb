package session

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"ttt-arena/pkg/arenadto"
)

// Session is the per-connection bookkeeping record. The registry owns it;
// other components address sessions by connection ID only.
type Session struct {
	ConnID      string
	DisplayName string
	Rating      int
	InGame      bool
	CurrentRoom string
}

// Registry maps connection IDs to sessions. Owned by the transport layer:
// created on connect, destroyed on disconnect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a fresh session with a generated display name.
func (r *Registry) Add(connID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		ConnID:      connID,
		DisplayName: fmt.Sprintf("Player%d", rand.Intn(10000)),
	}
	r.sessions[connID] = s
	return *s
}

// Get returns a copy of the session.
func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[connID]; ok {
		return *s, true
	}
	return Session{}, false
}

// Remove drops the session; absent IDs are a no-op.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connID)
}

// SetRating records the client-reported rating used for matchmaking.
func (r *Registry) SetRating(connID string, rating int) {
	if rating < 0 {
		rating = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connID]; ok {
		s.Rating = rating
	}
}

// AdjustRating applies a settlement delta, floored at zero, and returns the
// new rating.
func (r *Registry) AdjustRating(connID string, delta int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return 0
	}
	s.Rating += delta
	if s.Rating < 0 {
		s.Rating = 0
	}
	return s.Rating
}

// EnterRoom marks the session as playing in the given room.
func (r *Registry) EnterRoom(connID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connID]; ok {
		s.InGame = true
		s.CurrentRoom = code
	}
}

// LeaveRoom clears the room association.
func (r *Registry) LeaveRoom(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[connID]; ok {
		s.InGame = false
		s.CurrentRoom = ""
	}
}

// Count reports connected sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Top returns the n highest-rated connected players. Fallback leaderboard
// when no rating store is configured.
func (r *Registry) Top(n int) []arenadto.Standing {
	r.mu.RLock()
	all := make([]arenadto.Standing, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, arenadto.Standing{Username: s.DisplayName, Points: s.Rating})
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].Username < all[j].Username
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
