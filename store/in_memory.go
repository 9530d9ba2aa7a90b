package store

import (
	"sort"
	"sync"

	"github.com/mafiarena/mafiarena/core"
)

// InMemory is a volatile Store keeping everything in process-local maps. It
// is safe for concurrent access and best suited for tests and ephemeral
// demos. Returned records are copies, so callers can never mutate internal
// state.
type InMemory struct {
	mu          sync.RWMutex
	series      map[string]core.Series
	games       map[string]core.Game
	events      []core.GameEvent
	cheatsheets map[string][]core.Cheatsheet // keyed by seriesID/playerID
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		series:      make(map[string]core.Series),
		games:       make(map[string]core.Game),
		cheatsheets: make(map[string][]core.Cheatsheet),
	}
}

// CreateSeries implements Store.
func (s *InMemory) CreateSeries(series core.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[series.ID] = series
	return nil
}

// UpdateSeries implements Store.
func (s *InMemory) UpdateSeries(series core.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[series.ID]; !ok {
		return ErrNotFound
	}
	s.series[series.ID] = series
	return nil
}

// GetSeries implements Store.
func (s *InMemory) GetSeries(id string) (*core.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.series[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &series, nil
}

// ListSeries implements Store.
func (s *InMemory) ListSeries() ([]core.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Series, 0, len(s.series))
	for _, series := range s.series {
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CreateGame implements Store.
func (s *InMemory) CreateGame(g core.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	return nil
}

// UpdateGame implements Store.
func (s *InMemory) UpdateGame(g core.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; !ok {
		return ErrNotFound
	}
	s.games[g.ID] = g
	return nil
}

// GetGame implements Store.
func (s *InMemory) GetGame(id string) (*core.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

// ListGames implements Store.
func (s *InMemory) ListGames(seriesID string) ([]core.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Game
	for _, g := range s.games {
		if g.SeriesID == seriesID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// AppendEvent implements Store.
func (s *InMemory) AppendEvent(ev core.GameEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// ListEvents implements Store.
func (s *InMemory) ListEvents(gameID string) ([]core.GameEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.GameEvent
	for _, ev := range s.events {
		if ev.GameID == gameID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ListSeriesEvents implements Store.
func (s *InMemory) ListSeriesEvents(seriesID string) ([]core.GameEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.GameEvent
	for _, ev := range s.events {
		if ev.SeriesID == seriesID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// SaveCheatsheet implements Store.
func (s *InMemory) SaveCheatsheet(seriesID, playerID string, cs core.Cheatsheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seriesID + "/" + playerID
	s.cheatsheets[key] = append(s.cheatsheets[key], cs.Clone())
	return nil
}

// LatestCheatsheet implements Store.
func (s *InMemory) LatestCheatsheet(seriesID, playerID string) (*core.Cheatsheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.cheatsheets[seriesID+"/"+playerID]
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	latest := history[len(history)-1].Clone()
	return &latest, nil
}

// CheatsheetHistory implements Store.
func (s *InMemory) CheatsheetHistory(seriesID, playerID string) ([]core.Cheatsheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.cheatsheets[seriesID+"/"+playerID]
	out := make([]core.Cheatsheet, len(history))
	for i, cs := range history {
		out[i] = cs.Clone()
	}
	return out, nil
}

// Close implements Store.
func (s *InMemory) Close() error { return nil }
