package store

import (
	"crypto/rand"
	"fmt"
)

// autoIDAlphabet matches the emulated service's auto-id character set.
const autoIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// autoIDLength gives 62^20 possible ids, wide enough that a collision
// over a store's practical lifetime is negligible.
const autoIDLength = 20

// IDGenerator produces random document identifiers for creates without
// an explicit id. It carries no uniqueness guarantee of its own; the
// store re-checks each generated name for existence.
type IDGenerator interface {
	NewID() string
}

type randomIDGenerator struct{}

// NewRandomIDGenerator returns the default crypto/rand-backed generator.
func NewRandomIDGenerator() IDGenerator {
	return randomIDGenerator{}
}

func (randomIDGenerator) NewID() string {
	id := make([]byte, autoIDLength)
	buf := make([]byte, 1)
	for i := 0; i < autoIDLength; {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("reading random bytes: %v", err))
		}
		// Rejection-sample to keep the distribution uniform over the
		// 62-character alphabet.
		if int(buf[0]) >= 62*4 {
			continue
		}
		id[i] = autoIDAlphabet[int(buf[0])%62]
		i++
	}
	return string(id)
}
