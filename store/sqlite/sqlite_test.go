package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "mafiarena.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSmoke(t *testing.T) {
	s := openTestStore(t)

	series := core.Series{
		ID:         "s1",
		Name:       "league",
		Status:     core.SeriesPending,
		TotalGames: 3,
		Config: core.SeriesConfig{
			Name:       "league",
			TotalGames: 3,
			Game:       core.DefaultGameConfig(),
			Players: []core.PlayerConfig{
				{Name: "alice", Provider: "mock", Model: "test"},
			},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateSeries(series))

	got, err := s.GetSeries("s1")
	require.NoError(t, err)
	assert.Equal(t, "league", got.Name)
	assert.Equal(t, 3, got.Config.TotalGames)
	require.Len(t, got.Config.Players, 1)
	assert.Equal(t, "alice", got.Config.Players[0].Name)

	series.Status = core.SeriesCompleted
	series.CurrentGame = 3
	require.NoError(t, s.UpdateSeries(series))
	got, err = s.GetSeries("s1")
	require.NoError(t, err)
	assert.Equal(t, core.SeriesCompleted, got.Status)

	_, err = s.GetSeries("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteGames(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSeries(core.Series{ID: "s1", CreatedAt: time.Now()}))

	started := time.Now().UTC().Truncate(time.Millisecond)
	g := core.Game{ID: "g1", SeriesID: "s1", Number: 1, Phase: core.PendingPhase(), StartedAt: &started}
	require.NoError(t, s.CreateGame(g))
	require.NoError(t, s.CreateGame(core.Game{ID: "g2", SeriesID: "s1", Number: 2, Phase: core.PendingPhase()}))

	g.Phase = core.CompletedPhase(core.WinnerMafia)
	completed := time.Now().UTC().Truncate(time.Millisecond)
	g.CompletedAt = &completed
	require.NoError(t, s.UpdateGame(g))

	got, err := s.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, core.WinnerMafia, got.Phase.Winner)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(completed))

	games, err := s.ListGames("s1")
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, 1, games[0].Number)

	assert.ErrorIs(t, s.UpdateGame(core.Game{ID: "missing"}), store.ErrNotFound)
}

func TestSQLiteEventsKeepAppendOrder(t *testing.T) {
	s := openTestStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		ev := core.NewGameEvent("s1", "g1", core.EventSpeech, core.VisibilityPublic)
		ev.ActorID = "p1"
		ev.Payload = map[string]any{"content": "hello", "index": i}
		require.NoError(t, s.AppendEvent(ev))
		ids = append(ids, ev.ID)
	}

	events, err := s.ListEvents("g1")
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, ids[i], ev.ID)
		assert.Equal(t, "hello", ev.Payload["content"])
		// JSON round-trip turns numbers into float64.
		assert.Equal(t, float64(i), ev.Payload["index"])
	}

	all, err := s.ListSeriesEvents("s1")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSQLiteCheatsheetVersions(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LatestCheatsheet("s1", "p1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	for v := 1; v <= 3; v++ {
		cs := core.Cheatsheet{
			Version: v,
			Items:   []core.CheatsheetItem{{ID: "a", Category: "voting", Content: "x", HelpfulnessScore: 0.5}},
		}
		require.NoError(t, s.SaveCheatsheet("s1", "p1", cs))
	}

	latest, err := s.LatestCheatsheet("s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)

	history, err := s.CheatsheetHistory("s1", "p1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, cs := range history {
		assert.Equal(t, i+1, cs.Version)
	}

	// Version collisions are rejected by the primary key.
	err = s.SaveCheatsheet("s1", "p1", core.Cheatsheet{Version: 3})
	assert.Error(t, err)
}
