package main

import (
	mrand "math/rand"
	"sync"
	"time"
)

// SessionStore maps a room id to its live GameSession; at most one
// session per room. Installing a session for a room that already has
// one stops the old tick loop first.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*GameSession
	reg      *Registry
	out      RoomBroadcaster
}

// NewSessionStore creates an empty SessionStore
func NewSessionStore(reg *Registry, out RoomBroadcaster) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*GameSession),
		reg:      reg,
		out:      out,
	}
}

// Start marks the room started, builds a fresh session from its
// current member set and schedules both tick tasks. Returns false
// when the room does not exist or has no members.
func (s *SessionStore) Start(roomID string, settings GameSettings, esw, esh float64) (*GameSession, bool) {
	if len(s.reg.Members(roomID)) == 0 {
		return nil, false
	}
	s.reg.MarkStarted(roomID)

	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	g := NewGameSession(roomID, s.reg, s, s.out, settings, esw, esh, rng)

	s.mu.Lock()
	if old := s.sessions[roomID]; old != nil {
		old.Stop()
	}
	s.sessions[roomID] = g
	s.mu.Unlock()

	go g.Run()
	return g, true
}

// Restart tears the room's session down and recreates it with the
// prior settings and enemy dimensions, discarding all entity state
func (s *SessionStore) Restart(roomID string) (*GameSession, bool) {
	old := s.Get(roomID)
	if old == nil {
		return nil, false
	}
	settings, esw, esh := old.Settings()
	return s.Start(roomID, settings, esw, esh)
}

// Get returns the live session for a room, or nil
func (s *SessionStore) Get(roomID string) *GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[roomID]
}

// RemovePlayer drops a participant from the room's session. The
// session is deregistered and its tick loop stopped when it empties.
func (s *SessionStore) RemovePlayer(roomID, playerID string) {
	g := s.Get(roomID)
	if g == nil {
		return
	}
	g.RemovePlayer(playerID)
	if g.PlayerCount() == 0 {
		s.Remove(roomID)
	}
}

// Remove deregisters and stops the room's session
func (s *SessionStore) Remove(roomID string) {
	s.mu.Lock()
	g := s.sessions[roomID]
	delete(s.sessions, roomID)
	s.mu.Unlock()
	if g != nil {
		g.Stop()
	}
}

// SessionCount returns the number of live sessions
func (s *SessionStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
