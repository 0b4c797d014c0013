package main

const (
	EnemyVelocity    = 4.0  // pixels per physics tick
	BossVelocity     = 1.0  // bosses descend slower
	BossHP           = 4
	BossSpawnChance  = 0.2
	EnemyShootChance = 0.04 // per enemy per logic tick
)

// EnemyKind distinguishes the enemy variants
type EnemyKind int

const (
	EnemyNormal EnemyKind = iota
	EnemyBoss
)

// HP returns the starting hit points for the kind
func (k EnemyKind) HP() int {
	if k == EnemyBoss {
		return BossHP
	}
	return 1
}

// Speed returns the downward velocity per physics tick
func (k EnemyKind) Speed() float64 {
	if k == EnemyBoss {
		return BossVelocity
	}
	return EnemyVelocity
}

// Scale returns the size multiplier applied to the room's enemy dimensions
func (k EnemyKind) Scale() float64 {
	if k == EnemyBoss {
		return 2
	}
	return 1
}

// Points returns the score awarded for a kill
func (k EnemyKind) Points() int {
	if k == EnemyBoss {
		return 30
	}
	return 10
}

// Enemy is a hostile ship descending through the playfield
type Enemy struct {
	Kind EnemyKind
	X, Y float64
	HP   int
}

// NewEnemy creates an enemy of the given kind at the given position
func NewEnemy(kind EnemyKind, x, y float64) *Enemy {
	return &Enemy{Kind: kind, X: x, Y: y, HP: kind.HP()}
}

// HurtBox returns the enemy's damageable rectangle, scaled for bosses.
// esw/esh are the session's base enemy dimensions.
func (e *Enemy) HurtBox(esw, esh float64) Box {
	s := e.Kind.Scale()
	return NewBox(e.X, e.Y, esw*s, esh*s)
}

// Advance moves the enemy one physics tick downward
func (e *Enemy) Advance() {
	e.Y += e.Kind.Speed()
}

// ToSnap converts to the snapshot representation
func (e *Enemy) ToSnap() EnemySnap {
	return EnemySnap{X: e.X, Y: e.Y, HP: e.HP, Boss: e.Kind == EnemyBoss}
}
