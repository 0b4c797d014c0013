package main

import (
	"encoding/json"
	"log"
	"sync"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and wires them to the room
// registry and the session store
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	byID       map[string]*Client
	register   chan *Client
	unregister chan *Client

	rooms *Registry
	store *SessionStore

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	// Score archive & accounts
	db   *DB
	auth *Auth
}

// NewHub creates a Hub with its registry and session store
func NewHub(db *DB) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		byID:       make(map[string]*Client),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		rooms:      NewRegistry(),
		ipConns:    make(map[string]int),
		db:         db,
		auth:       NewAuth(db),
	}
	h.store = NewSessionStore(h.rooms, h)
	return h
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.byID[client.id] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.byID, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			// A vanished connection is a quit
			h.QuitGame(client.id)
		}
	}
}

// ClientByID returns the connected client with the given id
func (h *Hub) ClientByID(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.byID[id]
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends a message to every connected client
func (h *Hub) BroadcastAll(msg Envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.SendRaw(data)
	}
}

// BroadcastLobby pushes the open-room list to every connected client
func (h *Hub) BroadcastLobby() {
	h.BroadcastAll(Envelope{T: MsgLobby, Data: h.rooms.OpenRooms()})
}

// BroadcastRoom sends a message to every participant of a room
func (h *Hub) BroadcastRoom(roomID string, msg Envelope) {
	h.BroadcastRoomExcept(roomID, "", msg)
}

// BroadcastRoomExcept sends a message to a room, skipping one participant
func (h *Hub) BroadcastRoomExcept(roomID, exceptID string, msg Envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	for _, m := range h.rooms.Members(roomID) {
		if m.ID == exceptID {
			continue
		}
		if c := h.ClientByID(m.ID); c != nil {
			c.SendRaw(data)
		}
	}
}

// BroadcastRoomSnapshot pushes a session snapshot to a room as a
// msgpack binary frame
func (h *Hub) BroadcastRoomSnapshot(roomID string, snap GameSnapshot) {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		log.Printf("snapshot encode error: %v", err)
		return
	}
	for _, m := range h.rooms.Members(roomID) {
		if c := h.ClientByID(m.ID); c != nil {
			c.SendBinary(data)
		}
	}
}

// QuitGame removes a participant from its session and room, then
// reassigns the pause lock if the quitter held it. Safe to call for
// clients that are in no room.
func (h *Hub) QuitGame(clientID string) {
	roomID, ok := h.rooms.RoomOf(clientID)
	if !ok {
		return
	}
	h.store.RemovePlayer(roomID, clientID)
	h.rooms.LeaveRoom(roomID, clientID)
	h.BroadcastLobby()

	if g := h.store.Get(roomID); g != nil {
		if _, transferred := g.TransferPauseIfHolder(clientID); transferred {
			h.BroadcastRoom(roomID, Envelope{T: MsgPauserQuit, Data: g.Snapshot()})
		}
	}
}

// RecordGameOver archives a finished session's score for every
// participant still present
func (h *Hub) RecordGameOver(roomID string, snap GameSnapshot) {
	if h.db == nil {
		return
	}
	for _, p := range snap.Players {
		pilotID := int64(0)
		if c := h.ClientByID(p.ID); c != nil {
			pilotID = c.pilotID
		}
		if err := h.db.RecordScore(roomID, p.Username, pilotID, snap.Score); err != nil {
			log.Printf("record score: %v", err)
		}
	}
}
