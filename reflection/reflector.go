package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/model"
)

// DeltaAction is the kind of cheatsheet edit the Reflector proposes.
type DeltaAction string

const (
	// DeltaAdd proposes a new item.
	DeltaAdd DeltaAction = "add"
	// DeltaUpdate proposes replacing an existing item's content.
	DeltaUpdate DeltaAction = "update"
	// DeltaRemove proposes deleting an existing item.
	DeltaRemove DeltaAction = "remove"
)

// Delta is one proposed cheatsheet edit, citing the reasoning that
// motivated it.
type Delta struct {
	Action    DeltaAction         `json:"action"`
	Item      core.CheatsheetItem `json:"item"`
	ItemID    string              `json:"item_id,omitempty"`
	Reasoning string              `json:"reasoning,omitempty"`
}

// ReflectorOutput is the Reflector's full proposal for one player.
type ReflectorOutput struct {
	PlayerID          string        `json:"player_id"`
	GameAnalysis      string        `json:"game_analysis"`
	DeltaUpdates      []Delta `json:"delta_updates"`
	OverallAssessment string        `json:"overall_assessment"`
}

// GameReport bundles everything the reflection stages need to know about one
// player's completed game.
type GameReport struct {
	Player     *core.Player
	Survived   bool
	Winner     core.Winner
	Cheatsheet core.Cheatsheet
	Transcript string
	GameNumber int
}

// Won reports whether the player's faction took the game.
func (r GameReport) Won() bool {
	return r.Player.Role.Alignment() == r.Winner
}

const reflectorSystemTemplate = `You are analyzing a completed Mafia game for player %s.
Your job is to identify lessons learned and suggest updates to their strategy cheatsheet.

PLAYER'S ROLE THIS GAME: %s
GAME OUTCOME: %s (%s won)
PLAYER SURVIVED: %s

CURRENT CHEATSHEET:
%s

FULL GAME LOG (from viewer perspective):
%s

Analyze the game and suggest cheatsheet updates. Consider:
1. What strategies worked well?
2. What mistakes were made?
3. What patterns did you notice in other players?
4. What should be remembered for future games?

Respond with JSON:
{
  "player_id": "%s",
  "game_analysis": "2-3 sentence analysis of the game from this player's perspective",
  "delta_updates": [
    {
      "action": "add|update|remove",
      "item": {"category": "...", "content": "...", "helpfulness_score": 0.5},
      "item_id": "existing_item_id_for_update_or_remove",
      "reasoning": "why this change"
    }
  ],
  "overall_assessment": "1 sentence on player's performance"
}

Categories: "deception", "detection", "voting", "night_actions", "general"
Keep items concise (1-2 sentences). Suggest 0-3 updates per game.`

// Reflector proposes cheatsheet deltas from a game transcript.
type Reflector struct {
	model     model.Model
	maxTokens int64
}

// NewReflector wraps a model as a Reflector.
func NewReflector(m model.Model, maxTokens int64) *Reflector {
	return &Reflector{model: m, maxTokens: maxTokens}
}

// Propose runs the reflector stage once.
func (r *Reflector) Propose(ctx context.Context, report GameReport) (*ReflectorOutput, error) {
	outcome := "lost"
	if report.Won() {
		outcome = "won"
	}
	survived := "No"
	if report.Survived {
		survived = "Yes"
	}

	system := fmt.Sprintf(reflectorSystemTemplate,
		report.Player.Name,
		report.Player.Role,
		outcome,
		report.Winner,
		survived,
		report.Cheatsheet.PromptFormat(0),
		report.Transcript,
		report.Player.ID,
	)

	resp, err := r.model.Complete(ctx, model.Request{
		System:    system,
		Prompt:    "Analyze the game and suggest cheatsheet updates.",
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	var out ReflectorOutput
	if err := decodeOutput(resp.Text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeOutput extracts the first JSON object from a completion, stripping
// markdown fences, and unmarshals it into dst.
func decodeOutput(text string, dst any) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), dst); err != nil {
		return fmt.Errorf("decode reflection output: %w", err)
	}
	return nil
}
