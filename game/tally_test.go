package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mafiarena/mafiarena/core"
)

func TestTally(t *testing.T) {
	t.Run("plurality lynches the top target", func(t *testing.T) {
		ballot := core.Ballot{
			"p1": "p4",
			"p2": "p4",
			"p3": "p4",
			"p4": "p1",
			"p5": "p2",
		}
		result := Tally(ballot, true)
		assert.True(t, result.Lynched)
		assert.Equal(t, "p4", result.TargetID)
		assert.Equal(t, map[string]int{"p4": 3, "p1": 1, "p2": 1}, result.Counts)
	})

	t.Run("tie resolves to no lynch", func(t *testing.T) {
		ballot := core.Ballot{
			"p1": "p2",
			"p2": "p1",
			"p3": "p2",
			"p4": "p1",
			"p5": core.VoteSkip,
		}
		result := Tally(ballot, true)
		assert.False(t, result.Lynched)
		assert.Empty(t, result.TargetID)
		assert.Equal(t, map[string]int{"p1": 2, "p2": 2, core.VoteSkip: 1}, result.Counts)
	})

	t.Run("skip plurality means no lynch", func(t *testing.T) {
		ballot := core.Ballot{
			"p1": core.VoteSkip,
			"p2": core.VoteSkip,
			"p3": core.VoteSkip,
			"p4": "p1",
			"p5": "p1",
		}
		result := Tally(ballot, true)
		assert.False(t, result.Lynched)
		assert.Equal(t, 3, result.Counts[core.VoteSkip])
	})

	t.Run("skips discarded when no-lynch is disabled", func(t *testing.T) {
		ballot := core.Ballot{
			"p1": core.VoteSkip,
			"p2": core.VoteSkip,
			"p3": core.VoteSkip,
			"p4": "p1",
			"p5": "p1",
		}
		result := Tally(ballot, false)
		assert.True(t, result.Lynched)
		assert.Equal(t, "p1", result.TargetID)
		assert.NotContains(t, result.Counts, core.VoteSkip)
	})

	t.Run("all skips eliminate nobody either way", func(t *testing.T) {
		ballot := core.Ballot{"p1": core.VoteSkip, "p2": core.VoteSkip}
		for _, allow := range []bool{true, false} {
			result := Tally(ballot, allow)
			assert.False(t, result.Lynched)
			assert.Empty(t, result.TargetID)
		}
	})

	t.Run("empty ballot", func(t *testing.T) {
		result := Tally(core.Ballot{}, true)
		assert.False(t, result.Lynched)
		assert.Empty(t, result.Counts)
	})

	t.Run("order independent", func(t *testing.T) {
		// A ballot is a map, so this exercises the guarantee that map
		// iteration never changes the outcome across repeated tallies.
		ballot := core.Ballot{
			"p1": "p3",
			"p2": "p3",
			"p3": "p2",
			"p4": "p2",
			"p5": "p3",
			"p6": core.VoteSkip,
			"p7": "p1",
		}
		first := Tally(ballot, true)
		for i := 0; i < 50; i++ {
			assert.Equal(t, first, Tally(ballot, true))
		}
	})
}
