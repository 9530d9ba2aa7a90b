package testutil

import (
	"github.com/mafiarena/mafiarena/core"
)

// EventBuilder provides a fluent helper for constructing game events in
// tests. Example:
//
//	ev := testutil.NewEventBuilder().Game("g2").Speech("alice", "bob is lying")
//
// Chain only the parts you need; sensible defaults ("s1", "g1", public
// visibility) are applied.
type EventBuilder struct {
	seriesID   string
	gameID     string
	visibility core.Visibility
}

// NewEventBuilder creates a builder with default series "s1" and game "g1".
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{seriesID: "s1", gameID: "g1", visibility: core.VisibilityPublic}
}

// Series sets the series id for subsequent events (chainable).
func (b *EventBuilder) Series(id string) *EventBuilder { b.seriesID = id; return b }

// Game sets the game id for subsequent events (chainable).
func (b *EventBuilder) Game(id string) *EventBuilder { b.gameID = id; return b }

// Visibility sets the visibility for subsequent events (chainable).
func (b *EventBuilder) Visibility(v core.Visibility) *EventBuilder { b.visibility = v; return b }

// Event builds a bare event of the given type with the given payload.
func (b *EventBuilder) Event(t core.EventType, payload map[string]any) core.GameEvent {
	ev := core.NewGameEvent(b.seriesID, b.gameID, t, b.visibility)
	ev.Payload = payload
	return ev
}

// Speech builds a day speech event.
func (b *EventBuilder) Speech(playerName, content string) core.GameEvent {
	return b.Event(core.EventSpeech, map[string]any{"player_name": playerName, "content": content})
}

// Vote builds a vote_cast event; target may be core.VoteSkip.
func (b *EventBuilder) Vote(voterName, target string) core.GameEvent {
	return b.Event(core.EventVoteCast, map[string]any{"voter_name": voterName, "vote": target})
}

// Lynch builds a lynch_result event for an eliminated player.
func (b *EventBuilder) Lynch(playerName string, role core.Role) core.GameEvent {
	return b.Event(core.EventLynchResult, map[string]any{"lynched": playerName, "lynched_role": role})
}

// NoLynch builds a lynch_result event for a day without elimination.
func (b *EventBuilder) NoLynch() core.GameEvent {
	return b.Event(core.EventLynchResult, map[string]any{"lynched": nil})
}

// NightKill builds a night_result event for a successful mafia kill.
func (b *EventBuilder) NightKill(playerName string, role core.Role) core.GameEvent {
	return b.Event(core.EventNightResult, map[string]any{
		"killed": playerName, "killed_role": role, "was_saved": false,
	})
}

// NightSave builds a night_result event for a doctor save.
func (b *EventBuilder) NightSave() core.GameEvent {
	return b.Event(core.EventNightResult, map[string]any{"killed": nil, "was_saved": true})
}

// GameEnded builds a game_ended event.
func (b *EventBuilder) GameEnded(winner core.Winner, day int) core.GameEvent {
	return b.Event(core.EventGameEnded, map[string]any{"winner": winner, "day_number": day})
}
