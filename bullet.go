package main

const (
	BulletVelocity = 10.0 // pixels per physics tick
	BulletSize     = 8.0  // square hit box edge
	bulletCullTop  = 10.0 // bullets above this y are dropped
)

// BulletKind distinguishes who fired the bullet; it decides direction
// and which entities the bullet can damage
type BulletKind int

const (
	BulletPlayer BulletKind = iota
	BulletEnemy
)

// VelocityY returns the signed per-tick velocity: player bullets travel
// up, enemy bullets travel down
func (k BulletKind) VelocityY() float64 {
	if k == BulletPlayer {
		return -BulletVelocity
	}
	return BulletVelocity
}

// Bullet is a projectile in flight
type Bullet struct {
	Kind BulletKind
	X, Y float64
}

// NewPlayerBullet fires from the player's center-top
func NewPlayerBullet(p *Player) *Bullet {
	return &Bullet{
		Kind: BulletPlayer,
		X:    p.X + p.W/2 - BulletSize,
		Y:    p.Y,
	}
}

// NewEnemyBullet fires from the enemy's center-bottom
func NewEnemyBullet(e *Enemy, esw, esh float64) *Bullet {
	s := e.Kind.Scale()
	return &Bullet{
		Kind: BulletEnemy,
		X:    e.X + esw*s/2 - BulletSize,
		Y:    e.Y + esh*s,
	}
}

// HitBox returns the bullet's damaging rectangle
func (b *Bullet) HitBox() Box {
	return NewBox(b.X, b.Y, BulletSize, BulletSize)
}

// Advance moves the bullet one physics tick
func (b *Bullet) Advance() {
	b.Y += b.Kind.VelocityY()
}

// ToSnap converts to the snapshot representation
func (b *Bullet) ToSnap() BulletSnap {
	return BulletSnap{X: b.X, Y: b.Y, ShotByPlayer: b.Kind == BulletPlayer}
}
