package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120
	maxNameLen        = 16
)

// Client represents a WebSocket connection. Its id doubles as the
// participant identifier in rooms and sessions.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Account state (0/"" = guest)
	pilotID   int64
	pilotName string
}

// NewClient creates a Client with a fresh participant id
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgHost:
		c.handleHost(env.D)
	case MsgJoinRoom:
		c.handleJoinRoom(env.D)
	case MsgQuitRoom:
		c.handleQuitRoom(env.D)
	case MsgStartGame:
		c.handleStartGame(env.D)
	case MsgStartSolo:
		c.handleStartSolo(env.D)
	case MsgNameChanged:
		c.handleNameChanged(env.D)
	case MsgGameEnded, MsgQuitGame:
		c.hub.QuitGame(c.id)
	case MsgGameOver:
		c.handleGameOver()
	case MsgGameRestart:
		c.handleGameRestart()
	case MsgPauseToggled:
		c.handlePauseToggled()
	case MsgPlayerMoved:
		c.handlePlayerMoved(env.D)
	case MsgPlayerShoot:
		c.handlePlayerShoot()
	case MsgResized:
		c.handleResized(env.D)
	case MsgRequestLobby:
		c.SendJSON(Envelope{T: MsgLobby, Data: c.hub.rooms.OpenRooms()})
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	case MsgLeaderboard:
		c.handleLeaderboard()
	}
}

func cleanName(name string) string {
	if name == "" {
		name = "Pilot"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

func (c *Client) handleHost(data json.RawMessage) {
	var msg HostMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	roomID := c.hub.rooms.CreateRoom(c.id, msg.Limits, cleanName(msg.Username), msg.Skin, msg.Powerups)
	c.SendJSON(Envelope{T: MsgHosted, Data: HostedMsg{RoomID: roomID}})
	c.hub.BroadcastLobby()
}

func (c *Client) handleJoinRoom(data json.RawMessage) {
	var msg JoinRoomMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	ok := c.hub.rooms.JoinRoom(msg.RoomID, c.id, msg.Limits, cleanName(msg.Username), msg.Skin)
	c.SendJSON(Envelope{T: MsgJoinResult, Data: JoinResultMsg{RoomID: msg.RoomID, Success: ok}})
	c.hub.BroadcastLobby()
}

func (c *Client) handleQuitRoom(data json.RawMessage) {
	var msg QuitRoomMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.rooms.LeaveRoom(msg.RoomID, c.id)
	c.SendJSON(Envelope{T: MsgRoomLeft})
	c.hub.BroadcastLobby()
}

func (c *Client) handleStartGame(data json.RawMessage) {
	var msg StartGameMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	g, ok := c.hub.store.Start(msg.RoomID, msg.Settings, msg.EnemyWidth, msg.EnemyHeight)
	if !ok {
		return
	}
	snap := g.Snapshot()
	c.SendJSON(Envelope{T: MsgGameStarted, Data: snap})
	c.hub.BroadcastRoomExcept(msg.RoomID, c.id, Envelope{T: MsgHostStarted, Data: snap})
	c.hub.BroadcastLobby()
}

func (c *Client) handleStartSolo(data json.RawMessage) {
	var msg StartSoloMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	roomID := c.hub.rooms.CreateRoom(c.id, msg.Limits, cleanName(msg.Username), msg.Skin, msg.Powerups)
	g, ok := c.hub.store.Start(roomID, msg.Settings, msg.EnemyWidth, msg.EnemyHeight)
	if !ok {
		return
	}
	c.SendJSON(Envelope{T: MsgGameStarted, Data: g.Snapshot()})
}

func (c *Client) handleNameChanged(data json.RawMessage) {
	var msg NameChangedMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.rooms.Rename(c.id, cleanName(msg.Username))
	c.hub.BroadcastLobby()
}

func (c *Client) handleGameOver() {
	roomID, ok := c.hub.rooms.RoomOf(c.id)
	if !ok {
		return
	}
	g := c.hub.store.Get(roomID)
	if g == nil || !g.MarkOver() {
		return
	}
	snap := g.Snapshot()
	c.hub.BroadcastRoom(roomID, Envelope{T: MsgGameUpdate, Data: snap})
	c.hub.RecordGameOver(roomID, snap)
}

func (c *Client) handleGameRestart() {
	roomID, ok := c.hub.rooms.RoomOf(c.id)
	if !ok {
		return
	}
	g, ok := c.hub.store.Restart(roomID)
	if !ok {
		return
	}
	c.hub.BroadcastRoom(roomID, Envelope{T: MsgGameRestarted, Data: g.Snapshot()})
}

func (c *Client) handlePauseToggled() {
	roomID, ok := c.hub.rooms.RoomOf(c.id)
	if !ok {
		return
	}
	g := c.hub.store.Get(roomID)
	if g == nil || !g.TogglePause(c.id) {
		return
	}
	c.hub.BroadcastRoom(roomID, Envelope{T: MsgGameUpdate, Data: g.Snapshot()})
}

func (c *Client) handlePlayerMoved(data json.RawMessage) {
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	roomID, ok := c.hub.rooms.RoomOf(c.id)
	if !ok {
		return
	}
	if g := c.hub.store.Get(roomID); g != nil {
		g.MovePlayer(c.id, msg.X, msg.Y)
	}
}

func (c *Client) handlePlayerShoot() {
	roomID, ok := c.hub.rooms.RoomOf(c.id)
	if !ok {
		return
	}
	if g := c.hub.store.Get(roomID); g != nil {
		g.PlayerShoot(c.id)
	}
}

func (c *Client) handleResized(data json.RawMessage) {
	var msg ResizeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.rooms.UpdateLimits(msg.RoomID, c.id, msg.Limits)
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.pilotID = id
	c.pilotName = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PilotID: id}})
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.pilotID = id
	c.pilotName = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PilotID: id}})
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.pilotID = id
	c.pilotName = username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: msg.Token, Username: username, PilotID: id}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.pilotID == 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "not authenticated"}})
		return
	}
	best, games, err := c.hub.db.PilotSummary(c.pilotID)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "profile not found"}})
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:  c.pilotName,
		BestScore: best,
		Games:     games,
	}})
}

func (c *Client) handleLeaderboard() {
	if c.hub.db == nil {
		c.SendJSON(Envelope{T: MsgLeaderboardData, Data: []LeaderboardEntry{}})
		return
	}
	entries, err := c.hub.db.Leaderboard(10)
	if err != nil {
		log.Printf("leaderboard: %v", err)
		return
	}
	c.SendJSON(Envelope{T: MsgLeaderboardData, Data: entries})
}
