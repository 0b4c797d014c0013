package main

import (
	mrand "math/rand"
	"sync"
	"testing"
)

// mockRoomBroadcaster captures outgoing messages for testing
type mockRoomBroadcaster struct {
	mu    sync.Mutex
	msgs  []Envelope
	snaps []GameSnapshot
}

func (m *mockRoomBroadcaster) BroadcastRoom(roomID string, msg Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

func (m *mockRoomBroadcaster) BroadcastRoomSnapshot(roomID string, snap GameSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
}

func (m *mockRoomBroadcaster) snapCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

var testSettings = GameSettings{PlayerHP: 3, PlayerAmmo: 10}

// newTestSession builds a two-player session over a fresh registry.
// The session is not scheduled; tests drive ticks directly.
func newTestSession(t *testing.T) (*GameSession, *mockRoomBroadcaster) {
	t.Helper()
	reg := NewRegistry()
	catalogue := []SkinInfo{{Skin: 0, W: 16, H: 16}, {Skin: 1, W: 16, H: 16}}
	rid := reg.CreateRoom("p1", testLimits(0, 800, 600), "One", testSkin(), catalogue)
	if !reg.JoinRoom(rid, "p2", testLimits(0, 800, 600), "Two", testSkin()) {
		t.Fatal("join failed")
	}
	out := &mockRoomBroadcaster{}
	rng := mrand.New(mrand.NewSource(42))
	return NewGameSession(rid, reg, nil, out, testSettings, 40, 40, rng), out
}

func (g *GameSession) player(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func TestSessionSpawnsPlayersAtBottom(t *testing.T) {
	g, _ := newTestSession(t)
	snap := g.Snapshot()

	if len(snap.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(snap.Players))
	}
	for _, p := range snap.Players {
		if p.X < 1 || p.X >= 800-p.W {
			t.Errorf("player %s spawned at x=%v, outside [1, %v)", p.ID, p.X, 800-p.W)
		}
		if want := 600 - p.H - 10; p.Y != want {
			t.Errorf("player %s spawned at y=%v, want %v", p.ID, p.Y, want)
		}
		if p.HP != 3 || p.Ammo != 10 {
			t.Errorf("player %s has hp=%d ammo=%d, want 3/10", p.ID, p.HP, p.Ammo)
		}
	}
	if snap.Score != 0 || len(snap.Enemies) != 0 || len(snap.Bullets) != 0 {
		t.Errorf("fresh session should be empty: %+v", snap)
	}
	if snap.SpawnChance != InitialSpawnChance || snap.MaxEnemies != InitialMaxEnemyCount {
		t.Errorf("fresh session difficulty wrong: %v/%d", snap.SpawnChance, snap.MaxEnemies)
	}
}

func TestPlayerBulletKillsEnemy(t *testing.T) {
	g, out := newTestSession(t)
	g.enemies = append(g.enemies, NewEnemy(EnemyNormal, 100, 100))
	g.bullets = append(g.bullets, &Bullet{Kind: BulletPlayer, X: 100, Y: 100})

	g.physicsTick()

	if len(g.enemies) != 0 {
		t.Errorf("enemy should be dead, %d left", len(g.enemies))
	}
	if len(g.bullets) != 0 {
		t.Errorf("bullet should be consumed, %d left", len(g.bullets))
	}
	if g.score != 10 {
		t.Errorf("expected score 10, got %d", g.score)
	}
	if want := InitialSpawnChance + 10*ScoreMultiplier; g.spawnChance != want {
		t.Errorf("spawn chance not raised: got %v, want %v", g.spawnChance, want)
	}
	if out.snapCount() != 1 {
		t.Errorf("expected 1 snapshot broadcast, got %d", out.snapCount())
	}
}

func TestBossTakesFourHits(t *testing.T) {
	g, _ := newTestSession(t)
	g.enemies = append(g.enemies, NewEnemy(EnemyBoss, 100, 100))

	for hit := 1; hit <= BossHP; hit++ {
		e := g.enemies[0]
		g.bullets = append(g.bullets, &Bullet{Kind: BulletPlayer, X: e.X, Y: e.Y})
		g.physicsTick()

		if hit < BossHP {
			if len(g.enemies) != 1 {
				t.Fatalf("boss died after %d hits", hit)
			}
			if g.enemies[0].HP != BossHP-hit {
				t.Fatalf("after %d hits boss hp=%d", hit, g.enemies[0].HP)
			}
			if g.score != 0 {
				t.Fatalf("score awarded before the kill: %d", g.score)
			}
		}
	}

	if len(g.enemies) != 0 {
		t.Error("boss should be dead")
	}
	if g.score != 30 {
		t.Errorf("boss kill should award 30, got %d", g.score)
	}
}

func TestBulletHitsFirstEnemyOnly(t *testing.T) {
	g, _ := newTestSession(t)
	g.enemies = append(g.enemies,
		NewEnemy(EnemyNormal, 100, 100),
		NewEnemy(EnemyNormal, 100, 100))
	g.bullets = append(g.bullets, &Bullet{Kind: BulletPlayer, X: 100, Y: 100})

	g.physicsTick()

	if len(g.enemies) != 1 {
		t.Fatalf("exactly one enemy should die, %d left", len(g.enemies))
	}
	if g.score != 10 {
		t.Errorf("expected score 10, got %d", g.score)
	}
}

func TestEnemyBulletDamageAndImmunity(t *testing.T) {
	g, _ := newTestSession(t)
	p := g.player("p1")
	// Two overlapping enemy bullets in the same tick
	g.bullets = append(g.bullets,
		&Bullet{Kind: BulletEnemy, X: p.X, Y: p.Y},
		&Bullet{Kind: BulletEnemy, X: p.X, Y: p.Y})
	// Keep the other player clear
	g.player("p2").X = 700
	p.X = 50

	g.bullets[0].X, g.bullets[1].X = p.X, p.X
	g.physicsTick()

	if p.HP != 2 {
		t.Errorf("immunity should absorb the second hit: hp=%d, want 2", p.HP)
	}
	if len(g.bullets) != 0 {
		t.Errorf("both bullets should be consumed, %d left", len(g.bullets))
	}
}

func TestKillAndContactSameTick(t *testing.T) {
	g, _ := newTestSession(t)
	p := g.player("p1")
	p.X, p.Y = 50, 300
	g.player("p2").X = 700

	// Enemy overlapping the player, and a player bullet killing it the
	// same tick: both the kill and the contact damage must apply.
	g.enemies = append(g.enemies, NewEnemy(EnemyNormal, p.X, p.Y))
	g.bullets = append(g.bullets, &Bullet{Kind: BulletPlayer, X: p.X, Y: p.Y})

	g.physicsTick()

	if g.score != 10 {
		t.Errorf("kill not awarded: score=%d", g.score)
	}
	if len(g.enemies) != 0 {
		t.Error("enemy should be removed")
	}
	if p.HP != 2 {
		t.Errorf("contact damage should still apply: hp=%d, want 2", p.HP)
	}
}

func TestPlayerImmunityWindow(t *testing.T) {
	p := &Player{HP: 3}
	p.Hit(10)
	if p.HP != 2 {
		t.Fatalf("hp=%d, want 2", p.HP)
	}
	if !p.Immune(10) || !p.Immune(10 + ImmunityTicks - 1) {
		t.Error("player should be immune inside the window")
	}
	if p.Immune(10 + ImmunityTicks) {
		t.Error("immunity should have expired")
	}
}

func TestEscapedEnemiesRemovedWithoutPenalty(t *testing.T) {
	g, _ := newTestSession(t)
	g.enemies = append(g.enemies, NewEnemy(EnemyNormal, 100, 600))

	g.physicsTick()

	if len(g.enemies) != 0 {
		t.Error("escaped enemy should be removed")
	}
	if g.score != 0 {
		t.Errorf("escape must not change score: %d", g.score)
	}
}

func TestBulletsCulledAtVerticalBounds(t *testing.T) {
	g, _ := newTestSession(t)
	g.player("p1").X, g.player("p2").X = 700, 750
	g.bullets = append(g.bullets,
		&Bullet{Kind: BulletPlayer, X: 50, Y: 5},   // above the top threshold
		&Bullet{Kind: BulletEnemy, X: 50, Y: 600},  // at the bottom edge
		&Bullet{Kind: BulletPlayer, X: 50, Y: 300}) // in flight

	g.physicsTick()

	if len(g.bullets) != 1 {
		t.Fatalf("expected 1 surviving bullet, got %d", len(g.bullets))
	}
	if got := g.bullets[0].Y; got != 300-BulletVelocity {
		t.Errorf("player bullet should move up: y=%v", got)
	}
}

func TestEnemyAdvanceSpeeds(t *testing.T) {
	g, _ := newTestSession(t)
	g.enemies = append(g.enemies,
		NewEnemy(EnemyNormal, 100, 100),
		NewEnemy(EnemyBoss, 300, 100))

	g.physicsTick()

	if got := g.enemies[0].Y; got != 100+EnemyVelocity {
		t.Errorf("normal enemy y=%v, want %v", got, 100+EnemyVelocity)
	}
	if got := g.enemies[1].Y; got != 100+BossVelocity {
		t.Errorf("boss y=%v, want %v", got, 100+BossVelocity)
	}
}

func TestPowerupEffects(t *testing.T) {
	g, _ := newTestSession(t)
	p := g.player("p1")
	p.X, p.Y = 50, 300
	g.player("p2").X = 700

	g.powerups = append(g.powerups, &Powerup{X: p.X, Y: p.Y, Type: PowerupHeal})
	g.physicsTick()
	if p.HP != 4 {
		t.Errorf("heal powerup: hp=%d, want 4", p.HP)
	}

	g.powerups = append(g.powerups, &Powerup{X: p.X, Y: p.Y, Type: PowerupAmmo})
	g.physicsTick()
	if p.Ammo != 15 {
		t.Errorf("ammo powerup: ammo=%d, want 15", p.Ammo)
	}

	if len(g.powerups) != 0 {
		t.Errorf("powerups should be consumed, %d left", len(g.powerups))
	}
}

func TestUnknownPowerupIgnored(t *testing.T) {
	g, _ := newTestSession(t)
	p := g.player("p1")
	p.X, p.Y = 50, 300

	g.powerups = append(g.powerups, &Powerup{X: p.X, Y: p.Y, Type: 7})
	g.physicsTick()

	if len(g.powerups) != 0 {
		t.Error("unknown powerup should be dropped")
	}
	if p.HP != 3 || p.Ammo != 10 {
		t.Errorf("unknown powerup must have no effect: hp=%d ammo=%d", p.HP, p.Ammo)
	}
}

func TestPlayerShootSpendsAmmo(t *testing.T) {
	g, _ := newTestSession(t)
	p := g.player("p1")

	g.PlayerShoot("p1")
	if p.Ammo != 9 {
		t.Errorf("ammo=%d, want 9", p.Ammo)
	}
	if len(g.bullets) != 1 || g.bullets[0].Kind != BulletPlayer {
		t.Fatalf("expected one player bullet, got %+v", g.bullets)
	}
	if want := p.X + p.W/2 - BulletSize; g.bullets[0].X != want {
		t.Errorf("bullet x=%v, want %v", g.bullets[0].X, want)
	}

	p.Ammo = 0
	g.PlayerShoot("p1")
	if len(g.bullets) != 1 {
		t.Error("shooting without ammo must silently decline")
	}
	if p.Ammo != 0 {
		t.Errorf("ammo must never go negative: %d", p.Ammo)
	}
}

func TestPauseToggleAndHolder(t *testing.T) {
	g, _ := newTestSession(t)

	if !g.TogglePause("p1") {
		t.Fatal("pause should succeed")
	}
	snap := g.Snapshot()
	if !snap.Paused || snap.PausedBy != "p1" {
		t.Fatalf("pause state wrong: %+v", snap)
	}

	// A non-holder cannot resume
	if g.TogglePause("p2") {
		t.Error("non-holder toggle must be ignored")
	}
	if snap := g.Snapshot(); !snap.Paused || snap.PausedBy != "p1" {
		t.Errorf("state changed by non-holder: %+v", snap)
	}

	if !g.TogglePause("p1") {
		t.Fatal("holder resume should succeed")
	}
	if snap := g.Snapshot(); snap.Paused || snap.PausedBy != "" {
		t.Errorf("resume should clear the holder: %+v", snap)
	}
}

func TestPausedTickIsNoop(t *testing.T) {
	g, out := newTestSession(t)
	g.TogglePause("p1")
	g.enemies = append(g.enemies, NewEnemy(EnemyNormal, 100, 100))

	g.physicsTick()
	g.logicTick()

	if g.tick != 0 {
		t.Errorf("tick advanced while paused: %d", g.tick)
	}
	if g.enemies[0].Y != 100 {
		t.Errorf("enemy moved while paused: y=%v", g.enemies[0].Y)
	}
	if out.snapCount() != 0 {
		t.Errorf("no snapshot should go out while paused, got %d", out.snapCount())
	}
}

func TestPauseTransferOnHolderQuit(t *testing.T) {
	g, _ := newTestSession(t)
	g.TogglePause("p1")
	g.RemovePlayer("p1")

	holder, ok := g.TransferPauseIfHolder("p1")
	if !ok || holder != "p2" {
		t.Fatalf("expected transfer to p2, got %q (ok=%v)", holder, ok)
	}
	// The new holder can resume
	if !g.TogglePause("p2") {
		t.Error("new holder should be able to resume")
	}
}

func TestPauseTransferOnlyForHolder(t *testing.T) {
	g, _ := newTestSession(t)
	g.TogglePause("p1")
	g.RemovePlayer("p2")

	if _, ok := g.TransferPauseIfHolder("p2"); ok {
		t.Error("non-holder quit must not transfer the pause lock")
	}
	if snap := g.Snapshot(); snap.PausedBy != "p1" {
		t.Errorf("holder changed unexpectedly: %q", snap.PausedBy)
	}
}

func TestMarkOverRequiresAllDead(t *testing.T) {
	g, out := newTestSession(t)

	if g.MarkOver() {
		t.Fatal("game over with living players must be rejected")
	}
	for _, p := range g.players {
		p.HP = 0
	}
	if !g.MarkOver() {
		t.Fatal("game over with all players dead should be accepted")
	}
	if g.MarkOver() {
		t.Error("over is terminal, second transition must fail")
	}

	// Over sessions no-op their ticks
	g.physicsTick()
	g.logicTick()
	if g.tick != 0 || out.snapCount() != 0 {
		t.Error("ticks must be no-ops after game over")
	}
}

func TestMovePlayerUpdatesPosition(t *testing.T) {
	g, _ := newTestSession(t)
	g.MovePlayer("p2", 123, 456)
	p := g.player("p2")
	if p.X != 123 || p.Y != 456 {
		t.Errorf("position not updated: (%v, %v)", p.X, p.Y)
	}
	// Unknown participant is a silent no-op
	g.MovePlayer("ghost", 1, 1)
}

func TestLogicTickSpawnsEnemyWithinLimits(t *testing.T) {
	g, _ := newTestSession(t)
	g.spawnChance = 1

	g.logicTick()

	if len(g.enemies) != 1 {
		t.Fatalf("expected 1 spawned enemy, got %d", len(g.enemies))
	}
	e := g.enemies[0]
	s := e.Kind.Scale()
	if e.X < 0 || e.X >= 800-40*s {
		t.Errorf("enemy x=%v outside [0, %v)", e.X, 800-40*s)
	}
	if e.Y != -40*s {
		t.Errorf("enemy should start above the top edge: y=%v", e.Y)
	}
	if e.HP != e.Kind.HP() {
		t.Errorf("enemy hp=%d, want %d", e.HP, e.Kind.HP())
	}
}

func TestLogicTickRespectsMaxEnemyCount(t *testing.T) {
	g, _ := newTestSession(t)
	g.spawnChance = 1
	for i := 0; i < g.maxEnemies; i++ {
		g.enemies = append(g.enemies, NewEnemy(EnemyNormal, 100, 100))
	}

	g.logicTick()

	// Spawn declined, but the existing enemies may still have fired
	if len(g.enemies) != g.maxEnemies {
		t.Errorf("spawn above the cap: %d enemies", len(g.enemies))
	}
}

func TestLogicTickEnemyFire(t *testing.T) {
	g, _ := newTestSession(t)
	g.spawnChance = 0
	g.enemies = append(g.enemies, NewEnemy(EnemyNormal, 100, 100))

	for i := 0; i < 500; i++ {
		g.logicTick()
	}

	fired := 0
	for _, b := range g.bullets {
		if b.Kind != BulletEnemy {
			continue
		}
		fired++
		if b.X != 100+20-BulletSize || b.Y != 140 {
			t.Errorf("enemy bullet at (%v, %v), want center-bottom", b.X, b.Y)
		}
	}
	if fired == 0 {
		t.Error("expected at least one enemy shot over 500 logic ticks")
	}
}

func TestPowerupSpawnCap(t *testing.T) {
	g, _ := newTestSession(t)
	g.spawnChance = 0
	for i := 0; i < MaxPowerups; i++ {
		g.powerups = append(g.powerups, &Powerup{X: 10, Y: 10, Type: 0})
	}

	for i := 0; i < 1000; i++ {
		g.logicTick()
	}

	if len(g.powerups) != MaxPowerups {
		t.Errorf("powerup cap exceeded: %d", len(g.powerups))
	}
}
