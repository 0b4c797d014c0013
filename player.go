package main

import mrand "math/rand"

const (
	// Spawn offset above the bottom edge of the room limits
	playerSpawnYOffset = 10.0

	// Post-hit immunity window in physics ticks (500ms at 60Hz)
	ImmunityTicks = PhysicsRate / 2
)

// Player is one participant's authoritative in-session state
type Player struct {
	ID          string
	Username    string
	X, Y        float64
	ImmuneUntil uint64 // physics tick at which immunity expires
	Skin        int
	W, H        float64
	Ammo        int
	HP          int
}

// NewPlayer spawns a participant at a random position along the bottom
// of the room limits
func NewPlayer(m Participant, limits GameLimits, settings GameSettings, rng *mrand.Rand) *Player {
	return &Player{
		ID:       m.ID,
		Username: m.Username,
		X:        randBetween(rng, limits.MinX+1, limits.MaxX-m.Skin.W),
		Y:        limits.MaxY - m.Skin.H - playerSpawnYOffset,
		Skin:     m.Skin.Skin,
		W:        m.Skin.W,
		H:        m.Skin.H,
		Ammo:     settings.PlayerAmmo,
		HP:       settings.PlayerHP,
	}
}

// Immune reports whether the player's immunity window covers the given tick
func (p *Player) Immune(tick uint64) bool {
	return p.ImmuneUntil > tick
}

// Hit applies one point of damage and opens the immunity window.
// HP never drops below zero.
func (p *Player) Hit(tick uint64) {
	if p.HP > 0 {
		p.HP--
	}
	p.ImmuneUntil = tick + ImmunityTicks
}

// HurtBox returns the rectangle other entities test against
func (p *Player) HurtBox() Box {
	return NewBox(p.X, p.Y, p.W, p.H)
}

// ToSnap converts to the snapshot representation
func (p *Player) ToSnap(tick uint64) PlayerSnap {
	return PlayerSnap{
		ID:       p.ID,
		Username: p.Username,
		X:        p.X,
		Y:        p.Y,
		Immune:   p.Immune(tick),
		Skin:     p.Skin,
		W:        p.W,
		H:        p.H,
		Ammo:     p.Ammo,
		HP:       p.HP,
	}
}
