// Package random provides cryptographic seed generation helpers.
//
// Battles are reproducible from their seed, so a seed is chosen once at
// battle creation and persisted with the battle state.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	return seedFrom(crand.Reader)
}

// Resolve returns configured when it is non-zero, otherwise a fresh seed.
func Resolve(configured int64) (int64, error) {
	if configured != 0 {
		return configured, nil
	}
	return NewSeed()
}

func seedFrom(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	if seed == 0 {
		// Zero means "unset" in configuration.
		seed = 1
	}
	return seed, nil
}
