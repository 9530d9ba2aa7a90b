package reflection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/internal/testutil"
	"github.com/mafiarena/mafiarena/model"
)

const reflectorPrompt = "Analyze the game and suggest cheatsheet updates."
const curatorPrompt = "Review the proposed updates and produce your decisions."

func reflectionPlayer() *core.Player {
	return &core.Player{
		ID:       "p1",
		Name:     "alice",
		Provider: "mock",
		Model:    "test",
		Role:     core.RoleTownsperson,
		Alive:    true,
	}
}

func mockResolver(m model.Model) func(provider, name string) (model.Model, error) {
	return func(provider, name string) (model.Model, error) { return m, nil }
}

func scriptReflection(m *model.MockModel) {
	m.AddResponse(reflectorPrompt, `{
		"player_id": "p1",
		"game_analysis": "Voted with the majority and survived.",
		"delta_updates": [
			{"action": "add", "item": {"category": "voting", "content": "Follow the early accusers.", "helpfulness_score": 0.6}}
		],
		"overall_assessment": "Solid game."
	}`)
	m.AddResponse(curatorPrompt, `{
		"player_id": "p1",
		"decisions": [{"delta_index": 0, "decision": "accept", "reasoning": "new and useful"}],
		"score_adjustments": [],
		"prune_items": []
	}`)
}

func TestPipelineRunForPlayer(t *testing.T) {
	mock := model.NewMockModel("test")
	scriptReflection(mock)

	log := core.NewEventLog()
	p := NewPipeline("s1", "g1", 1, mockResolver(mock), log)

	current := core.Cheatsheet{Version: 0}
	next, err := p.RunForPlayer(context.Background(), reflectionPlayer(), true, core.WinnerTown, current)
	require.NoError(t, err)

	assert.Equal(t, 1, next.Version)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "Follow the early accusers.", next.Items[0].Content)
	assert.Equal(t, 1, next.Items[0].AddedAfterGame)

	var types []core.EventType
	for _, ev := range log.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []core.EventType{
		core.EventReflectionStarted,
		core.EventReflectionCompleted,
		core.EventCheatsheetUpdated,
	}, types)
}

func TestPipelineVersionsAreMonotonic(t *testing.T) {
	mock := model.NewMockModel("test")
	scriptReflection(mock)

	log := core.NewEventLog()
	sheet := core.Cheatsheet{Version: 0}
	player := reflectionPlayer()

	for game := 1; game <= 3; game++ {
		p := NewPipeline("s1", "g1", game, mockResolver(mock), log)
		next, err := p.RunForPlayer(context.Background(), player, true, core.WinnerTown, sheet)
		require.NoError(t, err)
		assert.Equal(t, sheet.Version+1, next.Version)
		sheet = next
	}
	assert.Equal(t, 3, sheet.Version)
}

func TestPipelineReflectorFailureCarriesForward(t *testing.T) {
	mock := model.NewMockModel("test")
	// Fail every attempt of the reflector stage.
	mock.FailFor(3)

	log := core.NewEventLog()
	p := NewPipeline("s1", "g1", 1, mockResolver(mock), log)

	current := core.Cheatsheet{
		Version: 2,
		Items:   []core.CheatsheetItem{{ID: "a", Content: "keep me", HelpfulnessScore: 0.7}},
	}
	next, err := p.RunForPlayer(context.Background(), reflectionPlayer(), false, core.WinnerMafia, current)

	var failure *core.ReflectionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "reflector", failure.Stage)
	assert.Equal(t, current, next)

	events := log.Events()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventReflectionStarted, events[0].Type)
	assert.Equal(t, core.EventReflectionFailed, events[1].Type)
	assert.Equal(t, "reflector", events[1].Payload["stage"])
}

func TestPipelineCuratorFailureCarriesForward(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.AddResponse(reflectorPrompt, `{"player_id": "p1", "delta_updates": []}`)
	// The curator prompt has no canned response; make those calls error.
	mock.AddResponse(curatorPrompt, "this is not json")

	log := core.NewEventLog()
	p := NewPipeline("s1", "g1", 1, mockResolver(mock), log, func(o *PipelineOptions) {
		o.Retries = 0
	})

	current := core.Cheatsheet{Version: 1}
	next, err := p.RunForPlayer(context.Background(), reflectionPlayer(), true, core.WinnerTown, current)

	var failure *core.ReflectionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "curator", failure.Stage)
	assert.Equal(t, current, next)

	last := log.Events()[log.Len()-1]
	assert.Equal(t, core.EventReflectionFailed, last.Type)
}

func TestTranscript(t *testing.T) {
	b := testutil.NewEventBuilder()
	events := []core.GameEvent{
		b.Speech("alice", "bob is lying"),
		b.Vote("alice", "bob"),
		b.Lynch("bob", core.RoleTownsperson),
		b.NightSave(),
		b.GameEnded(core.WinnerMafia, 1),
	}

	got := Transcript(events, "g1")
	assert.Equal(t,
		"[DAY] alice: bob is lying\n"+
			"[VOTE] alice voted for bob\n"+
			"[LYNCH] bob was lynched (was townsperson)\n"+
			"[NIGHT] Someone was saved by the doctor\n"+
			"[END] Game ended - mafia wins",
		got)

	t.Run("other games filtered out", func(t *testing.T) {
		other := testutil.NewEventBuilder().Game("g2").Speech("x", "y")
		assert.Equal(t, "No events recorded", Transcript([]core.GameEvent{other}, "g1"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "No events recorded", Transcript(nil, "g1"))
	})
}
