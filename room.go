package main

import (
	"fmt"
	"math/rand"
	"sync"
)

// Participant is one room member's lobby-side record
type Participant struct {
	ID       string
	Username string
	Limits   GameLimits
	Skin     SkinInfo
}

// Room is a pre-game lobby grouping participants who will share one
// session. Limits is the union rectangle over all members' viewports.
type Room struct {
	ID          string
	GameStarted bool
	Players     []Participant
	Limits      GameLimits
	Powerups    []SkinInfo // skin catalogue, indexed by powerup type
}

// Registry is the in-memory room catalogue. All mutation goes through
// its methods; rooms are never handed out by reference.
type Registry struct {
	mu    sync.RWMutex
	rooms []*Room
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// generateRoomID draws ids of the shape room-NNNN until one is free.
// Caller must hold the lock.
func (r *Registry) generateRoomID() string {
	for {
		id := fmt.Sprintf("room-%04d", rand.Intn(10000))
		if r.findLocked(id) == nil {
			return id
		}
	}
}

func (r *Registry) findLocked(roomID string) *Room {
	for _, room := range r.rooms {
		if room.ID == roomID {
			return room
		}
	}
	return nil
}

// CreateRoom registers a new room with the requester as sole
// participant, evacuating any room the requester currently occupies
func (r *Registry) CreateRoom(clientID string, limits GameLimits, username string, skin SkinInfo, powerups []SkinInfo) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev := r.roomOfLocked(clientID); prev != nil {
		r.leaveLocked(prev.ID, clientID)
	}

	room := &Room{
		ID:       r.generateRoomID(),
		Players:  []Participant{{ID: clientID, Username: username, Limits: limits, Skin: skin}},
		Limits:   limits,
		Powerups: append([]SkinInfo(nil), powerups...),
	}
	r.rooms = append(r.rooms, room)
	return room.ID
}

// JoinRoom appends the requester to the target room. It fails without
// mutation when the requester is already in that room or the room is
// absent or started; membership in a different room is evacuated first.
func (r *Registry) JoinRoom(roomID, clientID string, limits GameLimits, username string, skin SkinInfo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev := r.roomOfLocked(clientID); prev != nil {
		if prev.ID == roomID {
			return false
		}
		r.leaveLocked(prev.ID, clientID)
	}

	room := r.findLocked(roomID)
	if room == nil || room.GameStarted {
		return false
	}
	room.Players = append(room.Players, Participant{ID: clientID, Username: username, Limits: limits, Skin: skin})
	recomputeLimits(room)
	return true
}

// LeaveRoom removes the requester from the named room. The room is
// deleted outright when it was the sole participant.
func (r *Registry) LeaveRoom(roomID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, clientID)
}

func (r *Registry) leaveLocked(roomID, clientID string) {
	for i, room := range r.rooms {
		if room.ID != roomID {
			continue
		}
		if len(room.Players) == 1 {
			if room.Players[0].ID == clientID {
				r.rooms = append(r.rooms[:i], r.rooms[i+1:]...)
			}
			return
		}
		for j, p := range room.Players {
			if p.ID == clientID {
				room.Players = append(room.Players[:j], room.Players[j+1:]...)
				recomputeLimits(room)
				return
			}
		}
		return
	}
}

// recomputeLimits refreshes the union rectangle from the current
// member set: minimum minX, maximum maxX, maximum maxY
func recomputeLimits(room *Room) {
	if len(room.Players) == 0 {
		return
	}
	first := room.Players[0].Limits
	minX, maxX, maxY := first.MinX, first.MaxX, first.MaxY
	for _, p := range room.Players[1:] {
		if p.Limits.MinX < minX {
			minX = p.Limits.MinX
		}
		if p.Limits.MaxX > maxX {
			maxX = p.Limits.MaxX
		}
		if p.Limits.MaxY > maxY {
			maxY = p.Limits.MaxY
		}
	}
	room.Limits.MinX = minX
	room.Limits.MaxX = maxX
	room.Limits.MaxY = maxY
}

// RoomOf returns the id of the room the client currently occupies
func (r *Registry) RoomOf(clientID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if room := r.roomOfLocked(clientID); room != nil {
		return room.ID, true
	}
	return "", false
}

func (r *Registry) roomOfLocked(clientID string) *Room {
	for _, room := range r.rooms {
		for _, p := range room.Players {
			if p.ID == clientID {
				return room
			}
		}
	}
	return nil
}

// OpenRooms lists rooms whose game has not started yet
func (r *Registry) OpenRooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.GameStarted {
			continue
		}
		info := RoomInfo{ID: room.ID, Limits: room.Limits}
		for _, p := range room.Players {
			info.Players = append(info.Players, ParticipantInfo{ID: p.ID, Username: p.Username})
		}
		list = append(list, info)
	}
	return list
}

// UpdateLimits replaces one participant's viewport rectangle and
// recomputes the room union; used on viewport resize
func (r *Registry) UpdateLimits(roomID, clientID string, limits GameLimits) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.findLocked(roomID)
	if room == nil {
		return
	}
	for i := range room.Players {
		if room.Players[i].ID == clientID {
			room.Players[i].Limits = limits
			recomputeLimits(room)
			return
		}
	}
}

// Rename updates the participant's stored username in its room
func (r *Registry) Rename(clientID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		for i := range room.Players {
			if room.Players[i].ID == clientID {
				room.Players[i].Username = username
			}
		}
	}
}

// MarkStarted flips the room out of the joinable lobby list
func (r *Registry) MarkStarted(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room := r.findLocked(roomID); room != nil {
		room.GameStarted = true
	}
}

// Limits returns the room's current union rectangle
func (r *Registry) Limits(roomID string) (GameLimits, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if room := r.findLocked(roomID); room != nil {
		return room.Limits, true
	}
	return GameLimits{}, false
}

// PowerupCatalogue returns a copy of the room's powerup skin list
func (r *Registry) PowerupCatalogue(roomID string) []SkinInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if room := r.findLocked(roomID); room != nil {
		return append([]SkinInfo(nil), room.Powerups...)
	}
	return nil
}

// Members returns a copy of the room's participant list in join order
func (r *Registry) Members(roomID string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if room := r.findLocked(roomID); room != nil {
		return append([]Participant(nil), room.Players...)
	}
	return nil
}

// RoomCount returns the number of rooms, open or started
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
