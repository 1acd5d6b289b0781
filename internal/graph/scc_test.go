package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycles(t *testing.T) {
	a, b, c, d := MakeSymbol(3, 1), MakeSymbol(3, 2), MakeSymbol(3, 3), MakeSymbol(3, 4)

	t.Run("dag", func(t *testing.T) {
		deps := Dependencies{a: {b}, b: {c}, c: nil}
		assert.Empty(t, Cycles(deps))
		assert.Len(t, StronglyConnected(deps), 3)
	})

	t.Run("two node cycle", func(t *testing.T) {
		deps := Dependencies{a: {b}, b: {a}, c: {a}}
		cycles := Cycles(deps)
		require.Len(t, cycles, 1)
		assert.ElementsMatch(t, []Symbol{a, b}, cycles[0])

		path := CyclePath(cycles[0], deps)
		assert.Equal(t, []Symbol{a, b, a}, path)
	})

	t.Run("self loop", func(t *testing.T) {
		deps := Dependencies{d: {d}}
		cycles := Cycles(deps)
		require.Len(t, cycles, 1)
		assert.Equal(t, []Symbol{d, d}, CyclePath(cycles[0], deps))
	})
}
