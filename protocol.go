package main

import "encoding/json"

// Client -> Server message types
const (
	MsgHost         = "host"
	MsgJoinRoom     = "join_room"
	MsgQuitRoom     = "quit_room"
	MsgStartGame    = "start_game"
	MsgStartSolo    = "start_solo_game"
	MsgNameChanged  = "username_changed"
	MsgGameEnded    = "game_ended"
	MsgGameOver     = "game_over"
	MsgGameRestart  = "game_restart"
	MsgPauseToggled = "game_pause_toggled"
	MsgPlayerMoved  = "player_moved"
	MsgPlayerShoot  = "game_player_shooting"
	MsgResized      = "screen_resized"
	MsgRequestLobby = "request_lobby"
	MsgQuitGame     = "quit_game"
	MsgRegister     = "register"
	MsgLogin        = "login"
	MsgAuth         = "auth"
	MsgProfile      = "profile"
	MsgLeaderboard  = "leaderboard"
)

// Server -> Client message types
const (
	MsgHosted          = "hosted"
	MsgJoinResult      = "join_result"
	MsgRoomLeft        = "room_left"
	MsgLobby           = "update_lobby"
	MsgGameStarted     = "game_started"      // ack to the starter
	MsgHostStarted     = "host_started_game" // to the rest of the room
	MsgGameUpdate      = "game_update"
	MsgGameRestarted   = "game_restarted"
	MsgPauserQuit      = "game_pauser_quit" // pause ownership transferred
	MsgError           = "error"
	MsgAuthOK          = "auth_ok"
	MsgProfileData     = "profile_data"
	MsgLeaderboardData = "leaderboard_data"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// GameLimits is one participant's playable viewport rectangle
type GameLimits struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// SkinInfo carries a skin identifier and its rendered dimensions
type SkinInfo struct {
	Skin int     `json:"skin"`
	W    float64 `json:"sw"`
	H    float64 `json:"sh"`
}

// GameSettings are chosen by the host at start and immutable for the session
type GameSettings struct {
	PlayerHP   int `json:"playerHp"`
	PlayerAmmo int `json:"playerBasedAmmo"`
}

// HostMsg creates a room
type HostMsg struct {
	Limits   GameLimits `json:"limits"`
	Username string     `json:"username"`
	Skin     SkinInfo   `json:"skin"`
	Powerups []SkinInfo `json:"powerups"`
}

// JoinRoomMsg joins an existing room
type JoinRoomMsg struct {
	RoomID   string     `json:"rid"`
	Limits   GameLimits `json:"limits"`
	Username string     `json:"username"`
	Skin     SkinInfo   `json:"skin"`
}

// QuitRoomMsg leaves a lobby room
type QuitRoomMsg struct {
	RoomID string `json:"rid"`
}

// StartGameMsg starts the session for a room
type StartGameMsg struct {
	RoomID      string       `json:"rid"`
	Settings    GameSettings `json:"settings"`
	EnemyWidth  float64      `json:"esw"`
	EnemyHeight float64      `json:"esh"`
}

// StartSoloMsg creates a single-participant room and starts it in one step
type StartSoloMsg struct {
	Settings    GameSettings `json:"settings"`
	Limits      GameLimits   `json:"limits"`
	Username    string       `json:"username"`
	Skin        SkinInfo     `json:"skin"`
	EnemyWidth  float64      `json:"esw"`
	EnemyHeight float64      `json:"esh"`
	Powerups    []SkinInfo   `json:"powerups"`
}

// NameChangedMsg renames a participant
type NameChangedMsg struct {
	Username string `json:"username"`
}

// MoveMsg updates a participant's position
type MoveMsg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ResizeMsg updates a participant's viewport limits
type ResizeMsg struct {
	RoomID string     `json:"rid"`
	Limits GameLimits `json:"limits"`
}

// HostedMsg acknowledges room creation
type HostedMsg struct {
	RoomID string `json:"rid"`
}

// JoinResultMsg acknowledges a join attempt
type JoinResultMsg struct {
	RoomID  string `json:"rid"`
	Success bool   `json:"ok"`
}

// ParticipantInfo summarizes one room member for the lobby
type ParticipantInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RoomInfo is one entry of the open-room list
type RoomInfo struct {
	ID      string            `json:"id"`
	Players []ParticipantInfo `json:"players"`
	Limits  GameLimits        `json:"limits"`
}

// PlayerSnap is one participant in a session snapshot
type PlayerSnap struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Immune   bool    `json:"immune"`
	Skin     int     `json:"skin"`
	W        float64 `json:"sw"`
	H        float64 `json:"sh"`
	Ammo     int     `json:"ammo"`
	HP       int     `json:"hp"`
}

// EnemySnap is one enemy in a session snapshot
type EnemySnap struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	HP   int     `json:"hp"`
	Boss bool    `json:"boss"`
}

// BulletSnap is one bullet in a session snapshot
type BulletSnap struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	ShotByPlayer bool    `json:"shotByPlayer"`
}

// PowerupSnap is one powerup in a session snapshot
type PowerupSnap struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type int     `json:"type"`
}

// GameSnapshot is the full authoritative session state pushed after
// each physics tick and returned by start/restart acks
type GameSnapshot struct {
	Players     []PlayerSnap  `json:"players"`
	Enemies     []EnemySnap   `json:"enemies"`
	Bullets     []BulletSnap  `json:"bullets"`
	Powerups    []PowerupSnap `json:"powerups"`
	Score       int           `json:"score"`
	SpawnChance float64       `json:"spawn_chance"`
	MaxEnemies  int           `json:"max_enemy_count"`
	Paused      bool          `json:"paused"`
	PausedBy    string        `json:"paused_by,omitempty"`
	Over        bool          `json:"is_over"`
	Settings    GameSettings  `json:"settings"`
	Tick        uint64        `json:"tick"`
}

// RegisterMsg creates a pilot account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates an existing pilot
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg re-authenticates with a previously issued token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PilotID  int64  `json:"pid"`
}

// ProfileDataMsg returns a pilot's archive summary
type ProfileDataMsg struct {
	Username  string `json:"username"`
	BestScore int    `json:"best"`
	Games     int    `json:"games"`
}

// LeaderboardEntry is one row of the score archive
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
