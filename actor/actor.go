package actor

import (
	"context"
	"strings"

	"github.com/mafiarena/mafiarena/core"
)

// PlayerView is the roster slice of the game state an actor may see.
type PlayerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
}

// Context is the game-visible input for one decision: the acting player's
// identity and role, the roster, today's discussion so far, the player's
// cheatsheet and the set of legal targets for the pending decision.
type Context struct {
	SeriesID string
	GameID   string
	Day      int

	Self    core.Player
	Players []PlayerView

	// MafiaPartners lists fellow mafia names; populated only when Self is
	// mafia.
	MafiaPartners []string

	// Discussion holds today's speeches as "Name: text" lines in speaking
	// order.
	Discussion []string

	// LegalTargets restricts the pending vote or night action. Empty for
	// speeches.
	LegalTargets []PlayerView

	// AllowSkip permits an explicit no-lynch vote (voting decisions only).
	AllowSkip bool

	// Action identifies the pending night capability (night decisions only).
	Action core.NightAction
}

// TargetNames returns the legal target names in roster order.
func (c Context) TargetNames() []string {
	names := make([]string, 0, len(c.LegalTargets))
	for _, p := range c.LegalTargets {
		names = append(names, p.Name)
	}
	return names
}

// TargetByName resolves a legal target by case-insensitive name match.
func (c Context) TargetByName(name string) (PlayerView, bool) {
	for _, p := range c.LegalTargets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return PlayerView{}, false
}

// AlivePlayers returns the names of players still alive, in seat order.
func (c Context) AlivePlayers() []string {
	var names []string
	for _, p := range c.Players {
		if p.Alive {
			names = append(names, p.Name)
		}
	}
	return names
}

// DeadPlayers returns the names of eliminated players, in seat order.
func (c Context) DeadPlayers() []string {
	var names []string
	for _, p := range c.Players {
		if !p.Alive {
			names = append(names, p.Name)
		}
	}
	return names
}

// SpeechDecision is one day speech.
type SpeechDecision struct {
	Content    string   `json:"content"`
	Addressing []string `json:"addressing,omitempty"`
}

// VoteDecision is one lynch vote: a target name or core.VoteSkip.
type VoteDecision struct {
	Vote      string `json:"vote"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Skip reports whether the vote is an explicit no-lynch.
func (d VoteDecision) Skip() bool { return d.Vote == core.VoteSkip }

// NightDecision is one night-action target choice.
type NightDecision struct {
	Target    string `json:"target"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Gateway obtains structured decisions from a language model. Every method
// validates the decision against the legal targets in the Context and fails
// closed: an invalid or unparseable decision is returned as an error for the
// fallback policy to resolve, never passed through.
type Gateway interface {
	Speech(ctx context.Context, gc Context) (*SpeechDecision, error)
	Vote(ctx context.Context, gc Context) (*VoteDecision, error)
	NightAction(ctx context.Context, gc Context) (*NightDecision, error)
}
