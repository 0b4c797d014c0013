package main

import (
	"log"
	mrand "math/rand"
	"sync"
	"time"
)

const (
	PhysicsRate         = 60 // physics ticks per second
	LogicRate           = 20 // spawn/fire ticks per second
	PhysicsTickDuration = time.Second / PhysicsRate
	LogicTickDuration   = time.Second / LogicRate
)

// RoomBroadcaster delivers events to a room's connected participants
type RoomBroadcaster interface {
	BroadcastRoom(roomID string, msg Envelope)
	BroadcastRoomSnapshot(roomID string, snap GameSnapshot)
}

// GameSession owns all authoritative entity state for one started room.
// Mutators are invoked by the tick loop and by inbound commands; the
// mutex keeps commands atomic with respect to ticks.
type GameSession struct {
	mu     sync.Mutex
	roomID string
	reg    *Registry
	store  *SessionStore
	out    RoomBroadcaster
	rng    *mrand.Rand

	players  []*Player
	enemies  []*Enemy
	bullets  []*Bullet
	powerups []*Powerup

	score       int
	spawnChance float64
	maxEnemies  int
	esw, esh    float64 // base enemy dimensions
	settings    GameSettings

	paused   bool
	pausedBy string
	over     bool
	tick     uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewGameSession spawns one player per room participant along the
// bottom of the room limits and resets score and difficulty
func NewGameSession(roomID string, reg *Registry, store *SessionStore, out RoomBroadcaster, settings GameSettings, esw, esh float64, rng *mrand.Rand) *GameSession {
	g := &GameSession{
		roomID:      roomID,
		reg:         reg,
		store:       store,
		out:         out,
		rng:         rng,
		spawnChance: InitialSpawnChance,
		maxEnemies:  InitialMaxEnemyCount,
		esw:         esw,
		esh:         esh,
		settings:    settings,
		stop:        make(chan struct{}),
	}
	limits, _ := reg.Limits(roomID)
	for _, m := range reg.Members(roomID) {
		g.players = append(g.players, NewPlayer(m, limits, settings, rng))
	}
	return g
}

// Run drives both periodic tasks for the session. The two cadences
// interleave in one goroutine, so a physics tick and a logic tick
// never mutate the session concurrently. The loop exits when the
// store no longer maps the room to this session.
func (g *GameSession) Run() {
	physics := time.NewTicker(PhysicsTickDuration)
	logic := time.NewTicker(LogicTickDuration)
	defer physics.Stop()
	defer logic.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-physics.C:
			if !g.registered() {
				return
			}
			g.physicsTick()
		case <-logic.C:
			if !g.registered() {
				return
			}
			g.logicTick()
		}
	}
}

// Stop terminates the tick loop
func (g *GameSession) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

func (g *GameSession) registered() bool {
	return g.store == nil || g.store.Get(g.roomID) == g
}

// physicsTick runs one motion/collision/cleanup pass and pushes the
// resulting snapshot to the room
func (g *GameSession) physicsTick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused || g.over {
		return
	}
	limits, ok := g.reg.Limits(g.roomID)
	if !ok {
		return
	}
	g.tick++

	// 1. Enemies that escaped past the bottom edge — no penalty
	kept := g.enemies[:0]
	for _, e := range g.enemies {
		if e.Y < limits.MaxY {
			kept = append(kept, e)
		}
	}
	g.enemies = kept

	// 2. Bullets outside the vertical bounds
	keptB := g.bullets[:0]
	for _, b := range g.bullets {
		if b.Y >= bulletCullTop && b.Y < limits.MaxY {
			keptB = append(keptB, b)
		}
	}
	g.bullets = keptB

	// 3-5. Collision passes mark removals; nothing is spliced until
	// every pass has run, so indices stay stable throughout.
	killed := make([]bool, len(g.enemies))
	usedBullets := make([]bool, len(g.bullets))
	usedPowerups := make([]bool, len(g.powerups))

	// 3. Bullet collisions. A bullet hits at most one target per tick,
	// first match in stored order wins.
	for bi, b := range g.bullets {
		hitBox := b.HitBox()
		if b.Kind == BulletPlayer {
			for ei, e := range g.enemies {
				if killed[ei] {
					continue
				}
				if hitBox.Overlaps(e.HurtBox(g.esw, g.esh)) {
					e.HP--
					if e.HP <= 0 {
						killed[ei] = true
						g.score += e.Kind.Points()
						g.raiseDifficulty()
					}
					usedBullets[bi] = true
					break
				}
			}
		} else {
			for _, p := range g.players {
				if p.HP <= 0 {
					continue
				}
				if hitBox.Overlaps(p.HurtBox()) {
					if !p.Immune(g.tick) {
						p.Hit(g.tick)
					}
					usedBullets[bi] = true
					break
				}
			}
		}
	}

	// 4. Direct enemy contact. Independent of pass 3: an enemy killed
	// by a bullet this tick can still land its contact hit.
	for _, e := range g.enemies {
		hurtBox := e.HurtBox(g.esw, g.esh)
		for _, p := range g.players {
			if p.HP <= 0 || p.Immune(g.tick) {
				continue
			}
			if hurtBox.Overlaps(p.HurtBox()) {
				p.Hit(g.tick)
			}
		}
	}

	// 5. Powerup pickups
	catalogue := g.reg.PowerupCatalogue(g.roomID)
	for pi, pu := range g.powerups {
		if pu.Type < 0 || pu.Type >= len(catalogue) {
			log.Printf("room %s: powerup with unknown type %d", g.roomID, pu.Type)
			usedPowerups[pi] = true
			continue
		}
		box := pu.BoxFor(catalogue[pu.Type])
		for _, p := range g.players {
			if p.HP <= 0 {
				continue
			}
			if box.Overlaps(p.HurtBox()) {
				usedPowerups[pi] = true
				g.applyPowerup(pu, p)
				break
			}
		}
	}

	// 6. Apply the collected removals
	g.enemies = filterEnemies(g.enemies, killed)
	g.bullets = filterBullets(g.bullets, usedBullets)
	g.powerups = filterPowerups(g.powerups, usedPowerups)

	// 7. Advance positions
	for _, b := range g.bullets {
		b.Advance()
	}
	for _, e := range g.enemies {
		e.Advance()
	}

	// 8. Push the authoritative snapshot
	g.out.BroadcastRoomSnapshot(g.roomID, g.snapshotLocked())
}

// logicTick spawns enemies and powerups and lets enemies fire
func (g *GameSession) logicTick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused || g.over {
		return
	}
	limits, ok := g.reg.Limits(g.roomID)
	if !ok {
		return
	}

	if len(g.enemies) < g.maxEnemies && g.rng.Float64() < g.spawnChance {
		kind := EnemyNormal
		if g.rng.Float64() < BossSpawnChance {
			kind = EnemyBoss
		}
		s := kind.Scale()
		x := randBetween(g.rng, limits.MinX, limits.MaxX-g.esw*s)
		y := limits.MinY - g.esh*s
		g.enemies = append(g.enemies, NewEnemy(kind, x, y))
	}

	catalogue := g.reg.PowerupCatalogue(g.roomID)
	if len(g.powerups) < MaxPowerups && len(catalogue) > 0 && g.rng.Float64() < PowerupSpawnChance {
		t := g.rng.Intn(len(catalogue))
		skin := catalogue[t]
		g.powerups = append(g.powerups, &Powerup{
			X:    randBetween(g.rng, limits.MinX, limits.MaxX-skin.W),
			Y:    randBetween(g.rng, limits.MinY, limits.MaxY-skin.H),
			Type: t,
		})
	}

	for _, e := range g.enemies {
		if g.rng.Float64() < EnemyShootChance {
			g.bullets = append(g.bullets, NewEnemyBullet(e, g.esw, g.esh))
		}
	}
}

// raiseDifficulty is applied after every kill, using the updated score
func (g *GameSession) raiseDifficulty() {
	g.spawnChance = NextSpawnChance(g.spawnChance, g.score)
	g.maxEnemies = MaxEnemyCountFor(g.score)
}

func (g *GameSession) applyPowerup(pu *Powerup, p *Player) {
	switch pu.Type {
	case PowerupHeal:
		p.HP += powerupHealAmount
	case PowerupAmmo:
		p.Ammo += powerupAmmoAmount
	default:
		log.Printf("room %s: powerup type %d has no effect", g.roomID, pu.Type)
	}
}

// TogglePause flips the session between Running and Paused. Pausing
// records the toggling participant as holder; only the holder may
// unpause. Returns whether the state changed.
func (g *GameSession) TogglePause(by string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over {
		return false
	}
	if !g.paused {
		g.paused = true
		g.pausedBy = by
		return true
	}
	if g.pausedBy != by {
		return false
	}
	g.paused = false
	g.pausedBy = ""
	return true
}

// MarkOver transitions to the terminal Over state, but only after the
// server independently observes that no participant has hp left.
// Returns whether the transition happened.
func (g *GameSession) MarkOver() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over {
		return false
	}
	for _, p := range g.players {
		if p.HP > 0 {
			return false
		}
	}
	g.over = true
	return true
}

// MovePlayer updates a participant's position. Positions are
// client-reported and not validated against the limits.
func (g *GameSession) MovePlayer(id string, x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.players {
		if p.ID == id {
			p.X = x
			p.Y = y
			return
		}
	}
}

// PlayerShoot spends one ammo and spawns a player bullet. With no
// ammo left the command silently declines.
func (g *GameSession) PlayerShoot(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.players {
		if p.ID == id {
			if p.Ammo > 0 {
				p.Ammo--
				g.bullets = append(g.bullets, NewPlayerBullet(p))
			}
			return
		}
	}
}

// RemovePlayer drops a participant from the session
func (g *GameSession) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, p := range g.players {
		if p.ID == id {
			g.players = append(g.players[:i], g.players[i+1:]...)
			return
		}
	}
}

// PlayerCount returns the number of participants still in the session
func (g *GameSession) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// TransferPauseIfHolder reassigns the pause lock after the holder
// quit: the first remaining participant in session order becomes the
// new holder. Returns the new holder id and whether a transfer happened.
func (g *GameSession) TransferPauseIfHolder(quitterID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused || g.pausedBy != quitterID || len(g.players) == 0 {
		return "", false
	}
	g.pausedBy = g.players[0].ID
	return g.pausedBy, true
}

// Settings returns the immutable session parameters for restart
func (g *GameSession) Settings() (GameSettings, float64, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings, g.esw, g.esh
}

// Snapshot returns the full session state
func (g *GameSession) Snapshot() GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *GameSession) snapshotLocked() GameSnapshot {
	snap := GameSnapshot{
		Players:     make([]PlayerSnap, 0, len(g.players)),
		Enemies:     make([]EnemySnap, 0, len(g.enemies)),
		Bullets:     make([]BulletSnap, 0, len(g.bullets)),
		Powerups:    make([]PowerupSnap, 0, len(g.powerups)),
		Score:       g.score,
		SpawnChance: g.spawnChance,
		MaxEnemies:  g.maxEnemies,
		Paused:      g.paused,
		PausedBy:    g.pausedBy,
		Over:        g.over,
		Settings:    g.settings,
		Tick:        g.tick,
	}
	for _, p := range g.players {
		snap.Players = append(snap.Players, p.ToSnap(g.tick))
	}
	for _, e := range g.enemies {
		snap.Enemies = append(snap.Enemies, e.ToSnap())
	}
	for _, b := range g.bullets {
		snap.Bullets = append(snap.Bullets, b.ToSnap())
	}
	for _, pu := range g.powerups {
		snap.Powerups = append(snap.Powerups, pu.ToSnap())
	}
	return snap
}

func filterEnemies(in []*Enemy, drop []bool) []*Enemy {
	out := in[:0]
	for i, e := range in {
		if !drop[i] {
			out = append(out, e)
		}
	}
	return out
}

func filterBullets(in []*Bullet, drop []bool) []*Bullet {
	out := in[:0]
	for i, b := range in {
		if !drop[i] {
			out = append(out, b)
		}
	}
	return out
}

func filterPowerups(in []*Powerup, drop []bool) []*Powerup {
	out := in[:0]
	for i, p := range in {
		if !drop[i] {
			out = append(out, p)
		}
	}
	return out
}
