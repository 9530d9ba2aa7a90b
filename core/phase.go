package core

import (
	"fmt"
	"time"
)

// PhaseKind enumerates the states of the game phase machine.
type PhaseKind string

const (
	// PhasePending is the state before role assignment completes.
	PhasePending PhaseKind = "pending"
	// PhaseDay is the speech sub-phase of a day.
	PhaseDay PhaseKind = "day"
	// PhaseVoting is the voting sub-phase of a day.
	PhaseVoting PhaseKind = "voting"
	// PhaseNight covers the mafia/doctor/deputy actions and their resolution.
	PhaseNight PhaseKind = "night"
	// PhaseCompleted is terminal and carries the winner.
	PhaseCompleted PhaseKind = "completed"
)

// GamePhase is a tagged phase value. Day is zero until the first day starts
// and increases monotonically; Winner is set only when Kind is
// PhaseCompleted.
type GamePhase struct {
	Kind   PhaseKind `json:"kind"`
	Day    int       `json:"day,omitempty"`
	Winner Winner    `json:"winner,omitempty"`
}

// PendingPhase returns the initial phase.
func PendingPhase() GamePhase { return GamePhase{Kind: PhasePending} }

// DayPhase returns the speech phase of day n.
func DayPhase(n int) GamePhase { return GamePhase{Kind: PhaseDay, Day: n} }

// VotingPhase returns the voting phase of day n.
func VotingPhase(n int) GamePhase { return GamePhase{Kind: PhaseVoting, Day: n} }

// NightPhase returns the night phase of day n.
func NightPhase(n int) GamePhase { return GamePhase{Kind: PhaseNight, Day: n} }

// CompletedPhase returns the terminal phase with its winner.
func CompletedPhase(w Winner) GamePhase { return GamePhase{Kind: PhaseCompleted, Winner: w} }

// Terminal reports whether no further transition may occur.
func (p GamePhase) Terminal() bool { return p.Kind == PhaseCompleted }

// String renders the phase for logs and events.
func (p GamePhase) String() string {
	switch p.Kind {
	case PhaseDay, PhaseVoting, PhaseNight:
		return fmt.Sprintf("%s(%d)", p.Kind, p.Day)
	case PhaseCompleted:
		return fmt.Sprintf("completed(%s)", p.Winner)
	default:
		return string(p.Kind)
	}
}

// SeriesStatus is the lifecycle state of a series.
type SeriesStatus string

const (
	// SeriesPending means the series has been created but not started.
	SeriesPending SeriesStatus = "pending"
	// SeriesInProgress means games are being played.
	SeriesInProgress SeriesStatus = "in_progress"
	// SeriesStopRequested means a stop was requested and will be honored at
	// the next safe boundary.
	SeriesStopRequested SeriesStatus = "stop_requested"
	// SeriesStopped means the series ended early on user request.
	SeriesStopped SeriesStatus = "stopped"
	// SeriesCompleted means every configured game finished.
	SeriesCompleted SeriesStatus = "completed"
)

// Series is the persistent record of an ordered run of games sharing a
// roster and cumulative cheatsheets.
type Series struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      SeriesStatus `json:"status"`
	TotalGames  int          `json:"total_games"`
	CurrentGame int          `json:"current_game"`
	Config      SeriesConfig `json:"config"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Game is the persistent record of one play-through.
type Game struct {
	ID          string     `json:"id"`
	SeriesID    string     `json:"series_id"`
	Number      int        `json:"number"`
	Phase       GamePhase  `json:"phase"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
