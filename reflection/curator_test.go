package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafiarena/mafiarena/core"
)

func sheetWith(items ...core.CheatsheetItem) core.Cheatsheet {
	return core.Cheatsheet{Version: 3, Items: items}
}

func TestApply(t *testing.T) {
	tun := DefaultTunables()

	t.Run("accepted add appends with defaults", func(t *testing.T) {
		current := sheetWith()
		proposal := &ReflectorOutput{DeltaUpdates: []Delta{{
			Action: DeltaAdd,
			Item:   core.CheatsheetItem{Category: "voting", Content: "Vote with the quiet bloc."},
		}}}
		review := &CuratorOutput{Decisions: []CuratorDecision{{DeltaIndex: 0, Decision: "accept"}}}

		next := Apply(current, proposal, review, 2, tun)
		assert.Equal(t, 4, next.Version)
		require.Len(t, next.Items, 1)
		assert.NotEmpty(t, next.Items[0].ID)
		assert.Equal(t, 0.5, next.Items[0].HelpfulnessScore)
		assert.Equal(t, 2, next.Items[0].AddedAfterGame)
	})

	t.Run("rejected delta changes nothing", func(t *testing.T) {
		current := sheetWith()
		proposal := &ReflectorOutput{DeltaUpdates: []Delta{{
			Action: DeltaAdd,
			Item:   core.CheatsheetItem{Category: "general", Content: "noise"},
		}}}
		review := &CuratorOutput{Decisions: []CuratorDecision{{DeltaIndex: 0, Decision: "reject"}}}

		next := Apply(current, proposal, review, 2, tun)
		assert.Empty(t, next.Items)
		assert.Equal(t, 4, next.Version)
	})

	t.Run("accepted update rewrites in place", func(t *testing.T) {
		current := sheetWith(core.CheatsheetItem{
			ID: "a", Category: "detection", Content: "old wisdom", HelpfulnessScore: 0.6,
		})
		proposal := &ReflectorOutput{DeltaUpdates: []Delta{{
			Action: DeltaUpdate,
			ItemID: "a",
			Item:   core.CheatsheetItem{Category: "detection", Content: "new wisdom"},
		}}}
		review := &CuratorOutput{Decisions: []CuratorDecision{{DeltaIndex: 0, Decision: "accept"}}}

		next := Apply(current, proposal, review, 2, tun)
		require.Len(t, next.Items, 1)
		assert.Equal(t, "new wisdom", next.Items[0].Content)
		// Untouched score field means no adjustment beyond the rewrite.
		assert.InDelta(t, 0.6, next.Items[0].HelpfulnessScore, 1e-9)
	})

	t.Run("accepted remove deletes", func(t *testing.T) {
		current := sheetWith(core.CheatsheetItem{ID: "a", Content: "stale", HelpfulnessScore: 0.9})
		proposal := &ReflectorOutput{DeltaUpdates: []Delta{{Action: DeltaRemove, ItemID: "a"}}}
		review := &CuratorOutput{Decisions: []CuratorDecision{{DeltaIndex: 0, Decision: "accept"}}}

		next := Apply(current, proposal, review, 2, tun)
		assert.Empty(t, next.Items)
	})

	t.Run("merge combines with the existing item", func(t *testing.T) {
		current := sheetWith(core.CheatsheetItem{
			ID: "a", Category: "deception", Content: "Deflect early", HelpfulnessScore: 0.5,
		})
		proposal := &ReflectorOutput{DeltaUpdates: []Delta{{
			Action: DeltaAdd,
			Item:   core.CheatsheetItem{Category: "deception", Content: "accuse a townsperson first", HelpfulnessScore: 0.8},
		}}}
		review := &CuratorOutput{Decisions: []CuratorDecision{{
			DeltaIndex: 0, Decision: "merge", MergeWithID: "a",
		}}}

		next := Apply(current, proposal, review, 2, tun)
		require.Len(t, next.Items, 1)
		assert.Equal(t, "Deflect early; accuse a townsperson first", next.Items[0].Content)
		assert.Equal(t, 1, next.Items[0].TimesUsed)
		// 0.5 + 0.3*(0.8-0.5)
		assert.InDelta(t, 0.59, next.Items[0].HelpfulnessScore, 1e-9)
	})

	t.Run("score adjustment moves by alpha", func(t *testing.T) {
		current := sheetWith(core.CheatsheetItem{ID: "a", Content: "x", HelpfulnessScore: 0.4})
		review := &CuratorOutput{ScoreAdjustments: []ScoreAdjustment{{ItemID: "a", NewScore: 0.9}}}

		next := Apply(current, &ReflectorOutput{}, review, 2, tun)
		require.Len(t, next.Items, 1)
		// 0.4 + 0.3*(0.9-0.4)
		assert.InDelta(t, 0.55, next.Items[0].HelpfulnessScore, 1e-9)
	})

	t.Run("untouched items decay and low scores prune", func(t *testing.T) {
		current := sheetWith(
			core.CheatsheetItem{ID: "keep", Content: "x", HelpfulnessScore: 0.8},
			core.CheatsheetItem{ID: "fade", Content: "y", HelpfulnessScore: 0.21},
		)
		next := Apply(current, &ReflectorOutput{}, &CuratorOutput{}, 2, tun)
		require.Len(t, next.Items, 1)
		assert.Equal(t, "keep", next.Items[0].ID)
		assert.InDelta(t, 0.76, next.Items[0].HelpfulnessScore, 1e-9)
	})

	t.Run("explicit prune wins over a healthy score", func(t *testing.T) {
		current := sheetWith(core.CheatsheetItem{ID: "a", Content: "x", HelpfulnessScore: 0.9})
		review := &CuratorOutput{PruneItems: []PruneItem{{ItemID: "a", Reasoning: "contradicted"}}}
		next := Apply(current, &ReflectorOutput{}, review, 2, tun)
		assert.Empty(t, next.Items)
	})

	t.Run("out of range delta index ignored", func(t *testing.T) {
		current := sheetWith()
		review := &CuratorOutput{Decisions: []CuratorDecision{{DeltaIndex: 5, Decision: "accept"}}}
		next := Apply(current, &ReflectorOutput{}, review, 2, tun)
		assert.Empty(t, next.Items)
	})

	t.Run("input cheatsheet never mutated", func(t *testing.T) {
		current := sheetWith(core.CheatsheetItem{ID: "a", Content: "original", HelpfulnessScore: 0.5})
		proposal := &ReflectorOutput{DeltaUpdates: []Delta{{
			Action: DeltaUpdate, ItemID: "a",
			Item: core.CheatsheetItem{Content: "rewritten"},
		}}}
		review := &CuratorOutput{Decisions: []CuratorDecision{{DeltaIndex: 0, Decision: "accept"}}}

		Apply(current, proposal, review, 2, tun)
		assert.Equal(t, "original", current.Items[0].Content)
		assert.Equal(t, 3, current.Version)
	})
}
