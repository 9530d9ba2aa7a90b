package game

import (
	"github.com/mafiarena/mafiarena/core"
)

// Snapshot is the reconstructable portion of game state: who is alive, the
// current phase and day. It is derived purely from the event log, so a stored
// game can be audited or resumed without the in-memory runner.
type Snapshot struct {
	Phase core.GamePhase
	Day   int
	Alive map[string]bool
}

// Snapshot returns the runner's current state in replayable form.
func (r *Runner) Snapshot() Snapshot {
	alive := make(map[string]bool, len(r.players))
	for _, p := range r.players {
		alive[p.ID] = p.Alive
	}
	return Snapshot{Phase: r.phase, Day: r.day, Alive: alive}
}

// Replay folds an event sequence into a Snapshot. Only state-bearing events
// matter: game_started seeds the alive set, lynch_result and night_result
// remove their targets, phase_changed tracks the phase machine. Unknown event
// types are skipped, so logs from newer writers still replay.
func Replay(events []core.GameEvent) Snapshot {
	snap := Snapshot{Phase: core.PendingPhase(), Alive: map[string]bool{}}

	for _, ev := range events {
		switch ev.Type {
		case core.EventGameStarted:
			for _, id := range payloadStrings(ev.Payload, "players") {
				snap.Alive[id] = true
			}
		case core.EventPhaseChanged:
			snap.Phase = phaseFromPayload(ev.Payload)
			if snap.Phase.Day > snap.Day {
				snap.Day = snap.Phase.Day
			}
		case core.EventLynchResult, core.EventNightResult:
			if ev.TargetID != "" {
				snap.Alive[ev.TargetID] = false
			}
		}
	}
	return snap
}

// phaseFromPayload rebuilds a GamePhase from a phase_changed payload. Numbers
// may arrive as float64 after a JSON round-trip through a store.
func phaseFromPayload(payload map[string]any) core.GamePhase {
	phase := core.GamePhase{Kind: core.PhasePending}
	if kind, ok := payload["kind"].(string); ok {
		phase.Kind = core.PhaseKind(kind)
	}
	switch day := payload["day"].(type) {
	case int:
		phase.Day = day
	case float64:
		phase.Day = int(day)
	}
	if winner, ok := payload["winner"].(string); ok {
		phase.Winner = core.Winner(winner)
	}
	return phase
}

func payloadStrings(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
