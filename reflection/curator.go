package reflection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/model"
)

// Tunables are the helpfulness-score parameters. The score moves toward a
// curator-proposed value by Alpha per review, untouched items decay by Decay
// per game, and items falling below PruneBelow are dropped.
type Tunables struct {
	Alpha      float64
	Decay      float64
	PruneBelow float64
}

// DefaultTunables returns the default score parameters.
func DefaultTunables() Tunables {
	return Tunables{Alpha: 0.3, Decay: 0.05, PruneBelow: 0.2}
}

// CuratorDecision is the verdict on one proposed delta, referenced by its
// index in the Reflector's proposal list.
type CuratorDecision struct {
	DeltaIndex  int    `json:"delta_index"`
	Decision    string `json:"decision"` // accept, reject or merge
	Reasoning   string `json:"reasoning,omitempty"`
	MergeWithID string `json:"merge_with_id,omitempty"`
}

// ScoreAdjustment nudges an existing item's helpfulness score toward
// NewScore.
type ScoreAdjustment struct {
	ItemID    string  `json:"item_id"`
	NewScore  float64 `json:"new_score"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// PruneItem flags an item for removal.
type PruneItem struct {
	ItemID    string `json:"item_id"`
	Reasoning string `json:"reasoning,omitempty"`
}

// CuratorOutput is the full review of one Reflector proposal. Applying it to
// a cheatsheet is deterministic; the model only judges, it never writes the
// final item list itself.
type CuratorOutput struct {
	PlayerID         string            `json:"player_id"`
	Decisions        []CuratorDecision `json:"decisions"`
	ScoreAdjustments []ScoreAdjustment `json:"score_adjustments"`
	PruneItems       []PruneItem       `json:"prune_items"`
}

const curatorSystemTemplate = `You are curating cheatsheet updates for player %s.
Your job is to accept, reject, or merge proposed changes to maintain a high-quality, non-redundant cheatsheet.

CURRENT CHEATSHEET:
%s

PROPOSED UPDATES FROM REFLECTOR:
%s

For each proposed delta, decide:
- "accept": Apply the change as-is
- "reject": Don't apply (not useful, redundant, or wrong)
- "merge": Combine with an existing item covering the same idea (specify merge_with_id)

Also:
- Adjust helpfulness_score for existing items based on game performance
- Flag stale or contradicted items for pruning

Respond with JSON:
{
  "player_id": "%s",
  "decisions": [
    {
      "delta_index": 0,
      "decision": "accept|reject|merge",
      "reasoning": "why",
      "merge_with_id": "item_id if merging"
    }
  ],
  "score_adjustments": [
    {"item_id": "...", "new_score": 0.6, "reasoning": "why"}
  ],
  "prune_items": [
    {"item_id": "...", "reasoning": "why"}
  ]
}`

// Curator reviews Reflector proposals.
type Curator struct {
	model     model.Model
	maxTokens int64
}

// NewCurator wraps a model as a Curator.
func NewCurator(m model.Model, maxTokens int64) *Curator {
	return &Curator{model: m, maxTokens: maxTokens}
}

// Review runs the curator stage once.
func (c *Curator) Review(ctx context.Context, report GameReport, proposal *ReflectorOutput) (*CuratorOutput, error) {
	proposalJSON, err := json.MarshalIndent(proposal, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode reflector output: %w", err)
	}

	system := fmt.Sprintf(curatorSystemTemplate,
		report.Player.Name,
		report.Cheatsheet.PromptFormat(0),
		proposalJSON,
		report.Player.ID,
	)

	resp, err := c.model.Complete(ctx, model.Request{
		System:    system,
		Prompt:    "Review the proposed updates and produce your decisions.",
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	var out CuratorOutput
	if err := decodeOutput(resp.Text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Apply folds a reviewed proposal into the next cheatsheet version. The
// result depends only on the inputs: accepted adds append, accepted updates
// and merges rewrite their target in place, scores move toward proposed
// values by Alpha, untouched items decay, and anything under PruneBelow is
// dropped. The input cheatsheet is never mutated.
func Apply(current core.Cheatsheet, proposal *ReflectorOutput, review *CuratorOutput, gameNumber int, tun Tunables) core.Cheatsheet {
	next := current.Clone()
	next.Version = current.Version + 1

	touched := map[string]bool{}
	index := func(id string) int {
		for i, item := range next.Items {
			if item.ID == id {
				return i
			}
		}
		return -1
	}

	for _, d := range review.Decisions {
		if d.DeltaIndex < 0 || d.DeltaIndex >= len(proposal.DeltaUpdates) {
			continue
		}
		delta := proposal.DeltaUpdates[d.DeltaIndex]

		switch d.Decision {
		case "accept":
			switch delta.Action {
			case DeltaAdd:
				item := delta.Item
				item.ID = core.NewID()
				if item.HelpfulnessScore == 0 {
					item.HelpfulnessScore = 0.5
				}
				item.AddedAfterGame = gameNumber
				next.Items = append(next.Items, item)
				touched[item.ID] = true
			case DeltaUpdate:
				if i := index(delta.ItemID); i >= 0 {
					next.Items[i].Category = delta.Item.Category
					next.Items[i].Content = delta.Item.Content
					if delta.Item.HelpfulnessScore > 0 {
						next.Items[i].HelpfulnessScore = moveScore(next.Items[i].HelpfulnessScore, delta.Item.HelpfulnessScore, tun.Alpha)
					}
					touched[delta.ItemID] = true
				}
			case DeltaRemove:
				if i := index(delta.ItemID); i >= 0 {
					next.Items = append(next.Items[:i], next.Items[i+1:]...)
				}
			}
		case "merge":
			if i := index(d.MergeWithID); i >= 0 {
				next.Items[i].Content = next.Items[i].Content + "; " + delta.Item.Content
				next.Items[i].TimesUsed++
				if delta.Item.HelpfulnessScore > 0 {
					next.Items[i].HelpfulnessScore = moveScore(next.Items[i].HelpfulnessScore, delta.Item.HelpfulnessScore, tun.Alpha)
				}
				touched[d.MergeWithID] = true
			}
		}
	}

	for _, adj := range review.ScoreAdjustments {
		if i := index(adj.ItemID); i >= 0 {
			next.Items[i].HelpfulnessScore = moveScore(next.Items[i].HelpfulnessScore, adj.NewScore, tun.Alpha)
			touched[adj.ItemID] = true
		}
	}

	for i := range next.Items {
		if !touched[next.Items[i].ID] {
			next.Items[i].HelpfulnessScore *= 1 - tun.Decay
		}
	}

	pruned := next.Items[:0]
	explicit := map[string]bool{}
	for _, p := range review.PruneItems {
		explicit[p.ItemID] = true
	}
	for _, item := range next.Items {
		if explicit[item.ID] || item.HelpfulnessScore < tun.PruneBelow {
			continue
		}
		pruned = append(pruned, item)
	}
	next.Items = pruned

	return next
}

// moveScore nudges old toward target by alpha, clamped to [0, 1].
func moveScore(old, target, alpha float64) float64 {
	s := old + alpha*(target-old)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
