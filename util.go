package main

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// randBetween returns a uniform float64 in [min, max)
func randBetween(r *mrand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
