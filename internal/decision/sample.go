// Package decision provides the shared utility-sampling primitives used by
// the agent and faction decision subsystems.
package decision

import "math/rand"

// Scored is one candidate action with its additive utility score.
// Scores are surfaced on every decision so downstream consumers can
// explain why an actor acted.
type Scored struct {
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

// Sample picks one candidate by weighted cumulative-sum sampling over the
// non-negative scores. Candidates scoring <= 0 can never be chosen. Ties
// are broken by the RNG draw, not by insertion order. Returns -1 when no
// candidate has positive weight.
func Sample(rng *rand.Rand, candidates []Scored) int {
	total := 0.0
	for _, c := range candidates {
		if c.Score > 0 {
			total += c.Score
		}
	}
	if total <= 0 {
		return -1
	}

	r := rng.Float64() * total
	cum := 0.0
	for i, c := range candidates {
		if c.Score <= 0 {
			continue
		}
		cum += c.Score
		if r < cum {
			return i
		}
	}
	// Float round-off can leave r == total; return the last positive candidate.
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].Score > 0 {
			return i
		}
	}
	return -1
}

// Best returns the index of the highest-scoring candidate, or -1 when no
// candidate has positive score. Earlier candidates win exact ties, which
// only matters for the forced-strategic check where the candidate order
// is fixed.
func Best(candidates []Scored) int {
	best := -1
	bestScore := 0.0
	for i, c := range candidates {
		if c.Score > bestScore {
			best = i
			bestScore = c.Score
		}
	}
	return best
}
