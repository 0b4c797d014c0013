package main

import "math"

const (
	ScoreMultiplier      = 0.0001
	InitialSpawnChance   = 0.02
	InitialMaxEnemyCount = 5
)

// NextSpawnChance raises the per-tick spawn probability with the
// accumulated score, capped at 1
func NextSpawnChance(current float64, score int) float64 {
	return math.Min(current+float64(score)*ScoreMultiplier, 1)
}

// MaxEnemyCountFor grants one extra concurrent enemy per 100 points
func MaxEnemyCountFor(score int) int {
	return InitialMaxEnemyCount + score/100
}
