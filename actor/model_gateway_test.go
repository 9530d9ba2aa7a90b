package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/model"
)

func gatewayContext() Context {
	gc := deciderContext()
	gc.Self.Provider = "mock"
	gc.Self.Model = "test"
	return gc
}

func gatewayFor(m model.Model, optFns ...func(o *ModelGatewayOptions)) *ModelGateway {
	resolve := func(provider, name string) (model.Model, error) { return m, nil }
	return NewModelGateway(resolve, optFns...)
}

func TestModelGatewaySpeechDecodesFencedJSON(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.AddResponse("Give your speech now.", "```json\n{\"content\": \"I trust nobody\", \"addressing\": [\"bob\"]}\n```")

	decision, err := gatewayFor(mock).Speech(context.Background(), gatewayContext())
	require.NoError(t, err)
	assert.Equal(t, "I trust nobody", decision.Content)
	assert.Equal(t, []string{"bob"}, decision.Addressing)
}

func TestModelGatewaySpeechRejectsEmptyContent(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.AddResponse("Give your speech now.", `{"content": "   "}`)

	_, err := gatewayFor(mock).Speech(context.Background(), gatewayContext())
	var illegal *core.IllegalActionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "speech", illegal.Action)
}

func TestModelGatewayRejectsNonJSONOutput(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.AddResponse("Give your speech now.", "I would rather not answer in JSON.")

	_, err := gatewayFor(mock).Speech(context.Background(), gatewayContext())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no JSON object")
}

func TestModelGatewayVoteValidatesTargets(t *testing.T) {
	gc := gatewayContext()
	gc.AllowSkip = true

	t.Run("legal target, case-insensitive", func(t *testing.T) {
		mock := model.NewMockModel("test")
		mock.AddResponse(voteUserPrompt(gc), `{"vote": "BOB", "reasoning": "gut"}`)

		decision, err := gatewayFor(mock).Vote(context.Background(), gc)
		require.NoError(t, err)
		assert.Equal(t, "bob", decision.Vote, "vote is normalized to the roster name")
	})

	t.Run("unknown target fails closed", func(t *testing.T) {
		mock := model.NewMockModel("test")
		mock.AddResponse(voteUserPrompt(gc), `{"vote": "mallory", "reasoning": "who?"}`)

		_, err := gatewayFor(mock).Vote(context.Background(), gc)
		var illegal *core.IllegalActionError
		require.ErrorAs(t, err, &illegal)
		assert.Equal(t, "alice", illegal.Actor)
	})

	t.Run("skip allowed", func(t *testing.T) {
		mock := model.NewMockModel("test")
		mock.AddResponse(voteUserPrompt(gc), `{"vote": "no_lynch", "reasoning": "not sure"}`)

		decision, err := gatewayFor(mock).Vote(context.Background(), gc)
		require.NoError(t, err)
		assert.True(t, decision.Skip())
	})

	t.Run("skip rejected when disallowed", func(t *testing.T) {
		noSkip := gc
		noSkip.AllowSkip = false
		mock := model.NewMockModel("test")
		mock.AddResponse(voteUserPrompt(noSkip), `{"vote": "no_lynch", "reasoning": "not sure"}`)

		_, err := gatewayFor(mock).Vote(context.Background(), noSkip)
		var illegal *core.IllegalActionError
		require.ErrorAs(t, err, &illegal)
	})
}

func TestModelGatewayNightActionValidatesTargets(t *testing.T) {
	gc := gatewayContext()
	gc.Self.Role = core.RoleMafia
	gc.Action = core.NightActionKill

	mock := model.NewMockModel("test")
	mock.AddResponse(nightUserPrompt(gc), `{"target": "carol", "reasoning": "quietest"}`)

	decision, err := gatewayFor(mock).NightAction(context.Background(), gc)
	require.NoError(t, err)
	assert.Equal(t, "carol", decision.Target)

	mock.AddResponse(nightUserPrompt(gc), `{"target": "alice", "reasoning": "self"}`)
	_, err = gatewayFor(mock).NightAction(context.Background(), gc)
	var illegal *core.IllegalActionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, string(core.NightActionKill), illegal.Action)
}

func TestModelGatewayEnforcesCallBudget(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.AddResponse("Give your speech now.", `{"content": "hello"}`)

	gw := gatewayFor(mock, func(o *ModelGatewayOptions) {
		o.Budget = NewCallBudget(2)
	})

	gc := gatewayContext()
	for i := 0; i < 2; i++ {
		_, err := gw.Speech(context.Background(), gc)
		require.NoError(t, err)
	}

	_, err := gw.Speech(context.Background(), gc)
	require.Error(t, err)
	assert.ErrorContains(t, err, "budget exhausted")
	assert.Equal(t, 2, mock.Calls(), "exhausted budget must not reach the model")
}

func TestModelGatewayResolverFailure(t *testing.T) {
	gw := NewModelGateway(func(provider, name string) (model.Model, error) {
		return nil, assert.AnError
	})

	_, err := gw.Speech(context.Background(), gatewayContext())
	require.Error(t, err)
	assert.ErrorContains(t, err, "resolve model")
}

func TestCallBudget(t *testing.T) {
	t.Run("unlimited when zero", func(t *testing.T) {
		b := NewCallBudget(0)
		for i := 0; i < 100; i++ {
			require.NoError(t, b.Increment())
		}
		assert.Equal(t, 100, b.Count())
		assert.Equal(t, -1, b.Remaining())
	})

	t.Run("exhaustion", func(t *testing.T) {
		b := NewCallBudget(2)
		require.NoError(t, b.Increment())
		require.NoError(t, b.Increment())
		assert.Equal(t, 0, b.Remaining())

		err := b.Increment()
		require.Error(t, err)
		assert.ErrorContains(t, err, "budget exhausted")
	})
}
