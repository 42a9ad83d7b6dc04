package testutil

import "math/rand"

// NewRand returns a deterministic generator for tests.
//
// Every statistical test seeds its own generator so results do not depend on
// test order or on other packages touching the global source.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
