// Package dice implements the reproducible random source battles roll
// against.
package dice

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidSpec indicates a roll request with non-positive sides or count.
var ErrInvalidSpec = errors.New("dice must have positive sides and count")

// RollRequest describes one batch of dice.
//
// Seq numbers the requests a battle has made so far. Two sources built from
// the same seed return the same values for the same Seq, which is what lets a
// restored battle continue exactly where the saved one stopped.
type RollRequest struct {
	Max        int
	Count      int
	Seq        uint64
	Annotation string
}

// Seeded derives every roll from a battle seed and the request sequence.
type Seeded struct {
	seed int64
}

// NewSeeded creates a source for a battle seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{seed: seed}
}

// Seed returns the battle seed.
func (s *Seeded) Seed() int64 {
	return s.seed
}

// Roll returns Count values in [1, Max].
func (s *Seeded) Roll(ctx context.Context, req RollRequest) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Max <= 0 || req.Count <= 0 {
		return nil, fmt.Errorf("%w: %dd%d", ErrInvalidSpec, req.Count, req.Max)
	}
	rng := rand.New(rand.NewSource(mix(s.seed, req.Seq)))
	results := make([]int, req.Count)
	for i := range results {
		results[i] = rollDie(rng, req.Max)
	}
	return results, nil
}

// mix spreads (seed, seq) with a splitmix64 finalizer so nearby sequence
// numbers do not yield correlated streams.
func mix(seed int64, seq uint64) int64 {
	z := uint64(seed) + (seq+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// rollDie rolls a die with the provided number of sides.
func rollDie(rng *rand.Rand, sides int) int {
	return rng.Intn(sides) + 1
}

// Script replays fixed values, one slice per request, in order. It is meant
// for tests and rigged scenarios.
type Script struct {
	rolls [][]int
	next  int
}

// NewScript creates a scripted source.
func NewScript(rolls ...[]int) *Script {
	return &Script{rolls: rolls}
}

// ErrScriptExhausted indicates a scripted source ran out of rolls.
var ErrScriptExhausted = errors.New("scripted dice exhausted")

// Roll returns the next scripted values, padded with Max (a miss for any
// strength below Max) when the script is shorter than Count.
func (s *Script) Roll(ctx context.Context, req RollRequest) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Max <= 0 || req.Count <= 0 {
		return nil, fmt.Errorf("%w: %dd%d", ErrInvalidSpec, req.Count, req.Max)
	}
	if s.next >= len(s.rolls) {
		return nil, ErrScriptExhausted
	}
	values := s.rolls[s.next]
	s.next++
	out := make([]int, req.Count)
	for i := range out {
		out[i] = req.Max
		if i < len(values) {
			out[i] = values[i]
		}
	}
	return out, nil
}
