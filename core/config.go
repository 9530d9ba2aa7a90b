package core

import (
	"fmt"
	"time"
)

// Player count bounds supported by the role table.
const (
	MinPlayers = 5
	MaxPlayers = 7
)

// GameConfig holds per-game tunables. The zero value is not usable; start
// from DefaultGameConfig.
type GameConfig struct {
	// AllowNoLynch is the single source of truth for skip-vote semantics:
	// when true, skip votes form a "no lynch" bucket that competes in the
	// plurality like any target; when false, skip votes are discarded before
	// counting and an all-skip ballot simply eliminates nobody.
	AllowNoLynch bool `json:"allow_no_lynch"`
	// DoctorSelfSave controls whether the doctor may protect themself.
	DoctorSelfSave bool `json:"doctor_self_save"`
	// DecisionTimeout bounds every actor gateway call. A timeout is treated
	// like an invalid decision and resolved by the fallback policy.
	DecisionTimeout time.Duration `json:"decision_timeout"`
	// MaxRetries is the retry bound before a fallback decision is
	// substituted.
	MaxRetries int `json:"max_retries"`
	// Seed makes role assignment and fallback decisions deterministic for
	// replay and testing. Zero selects a fresh random source.
	Seed int64 `json:"seed,omitempty"`
	// MaxModelCalls caps actor model calls per game. Zero means unlimited.
	MaxModelCalls int `json:"max_model_calls,omitempty"`
}

// DefaultGameConfig returns the baseline game configuration.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		AllowNoLynch:    true,
		DoctorSelfSave:  true,
		DecisionTimeout: 45 * time.Second,
		MaxRetries:      2,
	}
}

// SeriesConfig describes a full series: roster, game count and game
// tunables.
type SeriesConfig struct {
	Name       string         `json:"name"`
	TotalGames int            `json:"total_games"`
	Game       GameConfig     `json:"game"`
	Players    []PlayerConfig `json:"players"`
}

// Validate checks setup-time constraints. Configuration errors are raised
// immediately and loudly; nothing here is recoverable at runtime.
func (c SeriesConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("series config: name is required")
	}
	if c.TotalGames < 1 {
		return fmt.Errorf("series config: total_games must be >= 1, got %d", c.TotalGames)
	}
	if n := len(c.Players); n < MinPlayers || n > MaxPlayers {
		return &InvalidPlayerCountError{Count: n}
	}
	seen := map[string]bool{}
	for _, p := range c.Players {
		if p.Name == "" {
			return fmt.Errorf("series config: every player needs a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("series config: duplicate player name %q", p.Name)
		}
		seen[p.Name] = true
		if p.FixedRole != "" && !p.FixedRole.Valid() {
			return fmt.Errorf("series config: unknown fixed role %q for player %q", p.FixedRole, p.Name)
		}
	}
	if c.Game.DecisionTimeout <= 0 {
		return fmt.Errorf("series config: decision_timeout must be positive")
	}
	if c.Game.MaxRetries < 0 {
		return fmt.Errorf("series config: max_retries must not be negative")
	}
	return nil
}
