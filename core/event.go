package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a game event.
type EventType string

const (
	// EventGameStarted opens a game's event stream.
	EventGameStarted EventType = "game_started"
	// EventPhaseChanged records every phase machine transition.
	EventPhaseChanged EventType = "phase_changed"
	// EventDayStarted opens a day.
	EventDayStarted EventType = "day_started"
	// EventNightStarted opens a night.
	EventNightStarted EventType = "night_started"
	// EventGameEnded closes a game and carries the winner.
	EventGameEnded EventType = "game_ended"

	// EventSpeech is one player's day speech.
	EventSpeech EventType = "speech"
	// EventVoteCast is one player's lynch vote.
	EventVoteCast EventType = "vote_cast"
	// EventLynchResult reports the outcome of a voting phase.
	EventLynchResult EventType = "lynch_result"

	// EventMafiaKill is the mafia's chosen kill target (mafia visibility).
	EventMafiaKill EventType = "mafia_kill"
	// EventDoctorSave is the doctor's protect target (private visibility).
	EventDoctorSave EventType = "doctor_save"
	// EventDeputyInvestigate is the deputy's inspection and its result
	// (private visibility).
	EventDeputyInvestigate EventType = "deputy_investigate"
	// EventNightResult announces the night's public outcome.
	EventNightResult EventType = "night_result"

	// EventReflectionStarted marks the start of a player's reflection run.
	EventReflectionStarted EventType = "reflection_started"
	// EventReflectionCompleted marks a successful reflection run.
	EventReflectionCompleted EventType = "reflection_completed"
	// EventReflectionFailed records that the prior cheatsheet version was
	// carried forward unchanged.
	EventReflectionFailed EventType = "reflection_failed"
	// EventCheatsheetUpdated announces a new cheatsheet version.
	EventCheatsheetUpdated EventType = "cheatsheet_updated"

	// EventFallbackUsed records that a deterministic fallback decision was
	// substituted for an actor's failed or illegal decision.
	EventFallbackUsed EventType = "fallback_used"
	// EventError records a non-fatal runtime error.
	EventError EventType = "error"
)

// Visibility tags who may see an event when the log is fanned out.
type Visibility string

const (
	// VisibilityPublic events are visible to every player.
	VisibilityPublic Visibility = "public"
	// VisibilityMafia events are visible to the mafia faction only.
	VisibilityMafia Visibility = "mafia"
	// VisibilityPrivate events are visible to the acting player only.
	VisibilityPrivate Visibility = "private"
	// VisibilityViewer events are visible to spectators and tooling, not to
	// players.
	VisibilityViewer Visibility = "viewer"
)

// GameEvent is an immutable, timestamped record of a game-state-changing
// occurrence. After Append it must be treated as read-only; the log's order
// is the source of truth for reconstruction and replay.
type GameEvent struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	SeriesID   string         `json:"series_id"`
	GameID     string         `json:"game_id"`
	Type       EventType      `json:"type"`
	Visibility Visibility     `json:"visibility"`
	ActorID    string         `json:"actor_id,omitempty"`
	TargetID   string         `json:"target_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewGameEvent creates an event with a fresh ID and UTC timestamp. Callers
// fill Actor/Target/Payload before appending it to a log.
func NewGameEvent(seriesID, gameID string, t EventType, vis Visibility) GameEvent {
	return GameEvent{
		ID:         NewID(),
		Timestamp:  time.Now().UTC(),
		SeriesID:   seriesID,
		GameID:     gameID,
		Type:       t,
		Visibility: vis,
	}
}

// NewID generates a unique identifier for events, players, games and series.
func NewID() string { return uuid.NewString() }
