package store

import (
	"errors"

	"github.com/mafiarena/mafiarena/core"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store persists series state. Implementations must be safe for concurrent
// use; the orchestrator writes through while the control surface reads.
type Store interface {
	// CreateSeries registers a new series record.
	CreateSeries(s core.Series) error
	// UpdateSeries overwrites an existing series record.
	UpdateSeries(s core.Series) error
	// GetSeries returns one series or ErrNotFound.
	GetSeries(id string) (*core.Series, error)
	// ListSeries returns every series, newest first.
	ListSeries() ([]core.Series, error)

	// CreateGame registers a new game record.
	CreateGame(g core.Game) error
	// UpdateGame overwrites an existing game record.
	UpdateGame(g core.Game) error
	// GetGame returns one game or ErrNotFound.
	GetGame(id string) (*core.Game, error)
	// ListGames returns a series' games ordered by game number.
	ListGames(seriesID string) ([]core.Game, error)

	// AppendEvent persists one event. Events are immutable once written.
	AppendEvent(ev core.GameEvent) error
	// ListEvents returns a game's events in append order.
	ListEvents(gameID string) ([]core.GameEvent, error)
	// ListSeriesEvents returns all of a series' events in append order.
	ListSeriesEvents(seriesID string) ([]core.GameEvent, error)

	// SaveCheatsheet appends a new cheatsheet version for a player. Prior
	// versions are retained.
	SaveCheatsheet(seriesID, playerID string, cs core.Cheatsheet) error
	// LatestCheatsheet returns the player's newest version, or ErrNotFound
	// when the player has none yet.
	LatestCheatsheet(seriesID, playerID string) (*core.Cheatsheet, error)
	// CheatsheetHistory returns every version in ascending version order.
	CheatsheetHistory(seriesID, playerID string) ([]core.Cheatsheet, error)

	// Close releases underlying resources.
	Close() error
}
