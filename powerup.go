package main

const (
	MaxPowerups        = 5    // concurrently alive per session
	PowerupSpawnChance = 0.01 // per logic tick

	PowerupHeal = 0 // restores +1 hp
	PowerupAmmo = 1 // grants +5 ammo

	powerupHealAmount = 1
	powerupAmmoAmount = 5
)

// Powerup is a collectible item; Type indexes the room's powerup
// skin catalogue and selects the effect on pickup
type Powerup struct {
	X, Y float64
	Type int
}

// BoxFor returns the pickup rectangle sized by the catalogue skin
func (p *Powerup) BoxFor(skin SkinInfo) Box {
	return NewBox(p.X, p.Y, skin.W, skin.H)
}

// ToSnap converts to the snapshot representation
func (p *Powerup) ToSnap() PowerupSnap {
	return PowerupSnap{X: p.X, Y: p.Y, Type: p.Type}
}
