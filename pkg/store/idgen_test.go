package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomIDGenerator(t *testing.T) {
	gen := NewRandomIDGenerator()

	t.Run("fixed length from the alphanumeric alphabet", func(t *testing.T) {
		id := gen.NewID()
		assert.Len(t, id, autoIDLength)
		for _, c := range id {
			assert.Contains(t, autoIDAlphabet, string(c))
		}
	})

	t.Run("successive ids differ", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 100; i++ {
			seen[gen.NewID()] = struct{}{}
		}
		assert.Len(t, seen, 100)
	})
}
