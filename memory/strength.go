package memory

import (
	"math"
	"time"
)

// Strength model defaults. Strength starts at InitialStrength on append,
// halves for every DefaultHalfLife of idle time, and gains one full unit on
// each access. During ranking the effective strength is squashed into [0,1)
// and scaled by DefaultStrengthWeight, keeping it a boost/tie-break and never
// the dominant ranking term.
const (
	DefaultHalfLife       = 7 * 24 * time.Hour
	DefaultStrengthWeight = 0.1
	InitialStrength       = 1.0
	accessGain            = 1.0
)

// decayedStrength returns the strength after idle time has eroded it,
// exponential by half-life.
func decayedStrength(strength float64, lastAccess, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 || !now.After(lastAccess) {
		return strength
	}
	idle := now.Sub(lastAccess)
	return strength * math.Exp2(-float64(idle)/float64(halfLife))
}

// strengthBoost maps an effective strength onto [0,weight). The squash keeps
// heavily accessed records from dominating pure relevance.
func strengthBoost(effective, weight float64) float64 {
	if effective <= 0 {
		return 0
	}
	return weight * effective / (effective + 1)
}

// cosineSimilarity computes the cosine of the angle between two vectors,
// or 0 when either has no magnitude or the dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
