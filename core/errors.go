package core

import (
	"fmt"
	"time"
)

// InvalidPlayerCountError is raised at setup when the roster size is outside
// the supported range and no explicit role assignment compensates.
type InvalidPlayerCountError struct {
	Count int
}

func (e *InvalidPlayerCountError) Error() string {
	return fmt.Sprintf("invalid player count %d: must be between %d and %d", e.Count, MinPlayers, MaxPlayers)
}

// IllegalActionError marks an actor decision that violates game rules. It is
// absorbed by the fallback policy, never surfaced to the series
// orchestrator.
type IllegalActionError struct {
	Actor  string
	Action string
	Reason string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal %s by %s: %s", e.Action, e.Actor, e.Reason)
}

// ActorTimeoutError marks a gateway call that exceeded the decision timeout.
// It is treated exactly like an IllegalActionError.
type ActorTimeoutError struct {
	Actor   string
	Action  string
	Timeout time.Duration
}

func (e *ActorTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s waiting for %s decision", e.Actor, e.Timeout, e.Action)
}

// ReflectionFailure records that a player's reflection run failed after
// retries. The prior cheatsheet version carries forward unchanged; the
// failure is non-fatal to the series.
type ReflectionFailure struct {
	PlayerID string
	Stage    string // "reflector" or "curator"
	Err      error
}

func (e *ReflectionFailure) Error() string {
	return fmt.Sprintf("reflection %s stage failed for player %s: %v", e.Stage, e.PlayerID, e.Err)
}

func (e *ReflectionFailure) Unwrap() error { return e.Err }
