// Package settlement resolves rounds: the selector picks the winning card
// from the bet distribution and the engine applies it to every slip.
package settlement

import (
	"fmt"
	"math/rand"

	"github.com/luckytwelve/platform/internal/domain"
)

// ditherProbability is how often the selector ignores the bet distribution
// and picks uniformly from all cards. It bounds how exploitable the
// house-favoring choice is.
const ditherProbability = 0.10

// Rand is the randomness the selector consumes. Satisfied by *rand.Rand;
// tests substitute a scripted source.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Selector picks winning cards from per-card bet totals.
type Selector struct {
	rng Rand
}

// NewSelector creates a selector. A nil rng falls back to a time-seeded
// source.
func NewSelector(rng Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Selector{rng: rng}
}

// Pick chooses a winning card for the given per-card totals, indexed by card
// number 1..12 (totals[0] is card 1). The heavy cards (those carrying the
// maximum wagered amount) are excluded and the choice leans toward cards
// below the average of the rest, so the paid-out amount tends to stay under
// the round's intake.
func (s *Selector) Pick(totals []int64) (int, error) {
	if len(totals) != domain.CardCount {
		return 0, fmt.Errorf("expected %d card totals, got %d", domain.CardCount, len(totals))
	}

	var sum, max int64
	for _, t := range totals {
		if t < 0 {
			return 0, fmt.Errorf("negative card total %d", t)
		}
		sum += t
		if t > max {
			max = t
		}
	}
	if sum == 0 {
		return s.rng.Intn(domain.CardCount) + 1, nil
	}

	// rest = cards not carrying the maximum.
	var rest []int
	var restSum int64
	for i, t := range totals {
		if t < max {
			rest = append(rest, i+1)
			restSum += t
		}
	}
	// Every card tied at the maximum; nothing to favor.
	if len(rest) == 0 {
		return s.rng.Intn(domain.CardCount) + 1, nil
	}

	avg := float64(restSum) / float64(len(rest))
	var low []int
	for _, card := range rest {
		if float64(totals[card-1]) < avg {
			low = append(low, card)
		}
	}
	if len(low) == 0 {
		low = rest
	}

	if s.rng.Float64() < ditherProbability {
		return s.rng.Intn(domain.CardCount) + 1, nil
	}
	return low[s.rng.Intn(len(low))], nil
}

// RandomCard returns a uniformly random card, the fallback when Pick fails.
func (s *Selector) RandomCard() int {
	return s.rng.Intn(domain.CardCount) + 1
}
