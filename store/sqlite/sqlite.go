// Package sqlite persists series state to a local SQLite database. Records
// with nested structure (series config, game phase, event payloads,
// cheatsheet items) are stored as JSON columns; ordering columns keep event
// append order and cheatsheet version order stable across restarts.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/store"
)

// Store is a store.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) the database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

// Close implements store.Store.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS series (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			status       TEXT NOT NULL,
			total_games  INTEGER NOT NULL,
			current_game INTEGER NOT NULL,
			config       TEXT NOT NULL,
			created_at   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS games (
			id           TEXT PRIMARY KEY,
			series_id    TEXT NOT NULL,
			number       INTEGER NOT NULL,
			phase        TEXT NOT NULL,
			started_at   TEXT,
			completed_at TEXT,
			FOREIGN KEY (series_id) REFERENCES series(id)
		);

		CREATE INDEX IF NOT EXISTS idx_games_series ON games(series_id, number);

		CREATE TABLE IF NOT EXISTS events (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			series_id  TEXT NOT NULL,
			game_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			visibility TEXT NOT NULL,
			actor_id   TEXT,
			target_id  TEXT,
			payload    TEXT,
			timestamp  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_game   ON events(game_id, seq);
		CREATE INDEX IF NOT EXISTS idx_events_series ON events(series_id, seq);

		CREATE TABLE IF NOT EXISTS cheatsheets (
			series_id  TEXT NOT NULL,
			player_id  TEXT NOT NULL,
			version    INTEGER NOT NULL,
			items      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (series_id, player_id, version)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateSeries implements store.Store.
func (s *Store) CreateSeries(series core.Series) error {
	config, err := json.Marshal(series.Config)
	if err != nil {
		return fmt.Errorf("sqlite: encode series config: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO series (id, name, status, total_games, current_game, config, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		series.ID, series.Name, series.Status, series.TotalGames, series.CurrentGame,
		string(config), series.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// UpdateSeries implements store.Store.
func (s *Store) UpdateSeries(series core.Series) error {
	config, err := json.Marshal(series.Config)
	if err != nil {
		return fmt.Errorf("sqlite: encode series config: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE series SET name = ?, status = ?, total_games = ?, current_game = ?, config = ? WHERE id = ?`,
		series.Name, series.Status, series.TotalGames, series.CurrentGame, string(config), series.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetSeries implements store.Store.
func (s *Store) GetSeries(id string) (*core.Series, error) {
	row := s.db.QueryRow(
		`SELECT id, name, status, total_games, current_game, config, created_at FROM series WHERE id = ?`, id,
	)
	series, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return series, err
}

// ListSeries implements store.Store.
func (s *Store) ListSeries() ([]core.Series, error) {
	rows, err := s.db.Query(
		`SELECT id, name, status, total_games, current_game, config, created_at
		 FROM series ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *series)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeries(row rowScanner) (*core.Series, error) {
	var series core.Series
	var config, createdAt string
	if err := row.Scan(&series.ID, &series.Name, &series.Status,
		&series.TotalGames, &series.CurrentGame, &config, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(config), &series.Config); err != nil {
		return nil, fmt.Errorf("sqlite: decode series config: %w", err)
	}
	var err error
	series.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	return &series, err
}

// CreateGame implements store.Store.
func (s *Store) CreateGame(g core.Game) error {
	phase, err := json.Marshal(g.Phase)
	if err != nil {
		return fmt.Errorf("sqlite: encode game phase: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO games (id, series_id, number, phase, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.SeriesID, g.Number, string(phase), nullableTime(g.StartedAt), nullableTime(g.CompletedAt),
	)
	return err
}

// UpdateGame implements store.Store.
func (s *Store) UpdateGame(g core.Game) error {
	phase, err := json.Marshal(g.Phase)
	if err != nil {
		return fmt.Errorf("sqlite: encode game phase: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE games SET phase = ?, started_at = ?, completed_at = ? WHERE id = ?`,
		string(phase), nullableTime(g.StartedAt), nullableTime(g.CompletedAt), g.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetGame implements store.Store.
func (s *Store) GetGame(id string) (*core.Game, error) {
	row := s.db.QueryRow(
		`SELECT id, series_id, number, phase, started_at, completed_at FROM games WHERE id = ?`, id,
	)
	g, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return g, err
}

// ListGames implements store.Store.
func (s *Store) ListGames(seriesID string) ([]core.Game, error) {
	rows, err := s.db.Query(
		`SELECT id, series_id, number, phase, started_at, completed_at
		 FROM games WHERE series_id = ? ORDER BY number`, seriesID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func scanGame(row rowScanner) (*core.Game, error) {
	var g core.Game
	var phase string
	var startedAt, completedAt sql.NullString
	if err := row.Scan(&g.ID, &g.SeriesID, &g.Number, &phase, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(phase), &g.Phase); err != nil {
		return nil, fmt.Errorf("sqlite: decode game phase: %w", err)
	}
	var err error
	if g.StartedAt, err = parseNullTime(startedAt); err != nil {
		return nil, err
	}
	if g.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// AppendEvent implements store.Store.
func (s *Store) AppendEvent(ev core.GameEvent) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("sqlite: encode event payload: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO events (id, series_id, game_id, type, visibility, actor_id, target_id, payload, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SeriesID, ev.GameID, ev.Type, ev.Visibility,
		ev.ActorID, ev.TargetID, string(payload), ev.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListEvents implements store.Store.
func (s *Store) ListEvents(gameID string) ([]core.GameEvent, error) {
	return s.queryEvents(`WHERE game_id = ?`, gameID)
}

// ListSeriesEvents implements store.Store.
func (s *Store) ListSeriesEvents(seriesID string) ([]core.GameEvent, error) {
	return s.queryEvents(`WHERE series_id = ?`, seriesID)
}

func (s *Store) queryEvents(where string, arg any) ([]core.GameEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, series_id, game_id, type, visibility, actor_id, target_id, payload, timestamp
		 FROM events `+where+` ORDER BY seq`, arg,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.GameEvent
	for rows.Next() {
		var ev core.GameEvent
		var actorID, targetID sql.NullString
		var payload, timestamp string
		if err := rows.Scan(&ev.ID, &ev.SeriesID, &ev.GameID, &ev.Type, &ev.Visibility,
			&actorID, &targetID, &payload, &timestamp); err != nil {
			return nil, err
		}
		ev.ActorID = actorID.String
		ev.TargetID = targetID.String
		if payload != "" && payload != "null" {
			if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
				return nil, fmt.Errorf("sqlite: decode event payload: %w", err)
			}
		}
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// SaveCheatsheet implements store.Store.
func (s *Store) SaveCheatsheet(seriesID, playerID string, cs core.Cheatsheet) error {
	items, err := json.Marshal(cs.Items)
	if err != nil {
		return fmt.Errorf("sqlite: encode cheatsheet items: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO cheatsheets (series_id, player_id, version, items, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		seriesID, playerID, cs.Version, string(items), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// LatestCheatsheet implements store.Store.
func (s *Store) LatestCheatsheet(seriesID, playerID string) (*core.Cheatsheet, error) {
	row := s.db.QueryRow(
		`SELECT version, items FROM cheatsheets
		 WHERE series_id = ? AND player_id = ?
		 ORDER BY version DESC LIMIT 1`,
		seriesID, playerID,
	)
	cs, err := scanCheatsheet(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return cs, err
}

// CheatsheetHistory implements store.Store.
func (s *Store) CheatsheetHistory(seriesID, playerID string) ([]core.Cheatsheet, error) {
	rows, err := s.db.Query(
		`SELECT version, items FROM cheatsheets
		 WHERE series_id = ? AND player_id = ? ORDER BY version`,
		seriesID, playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Cheatsheet
	for rows.Next() {
		cs, err := scanCheatsheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cs)
	}
	return out, rows.Err()
}

func scanCheatsheet(row rowScanner) (*core.Cheatsheet, error) {
	var cs core.Cheatsheet
	var items string
	if err := row.Scan(&cs.Version, &items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &cs.Items); err != nil {
		return nil, fmt.Errorf("sqlite: decode cheatsheet items: %w", err)
	}
	return &cs, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
