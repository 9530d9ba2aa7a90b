package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/logging"
	"github.com/mafiarena/mafiarena/model"
	"github.com/mafiarena/mafiarena/trace"
)

// ModelResolver maps a player's provider/model binding to a concrete model
// implementation. Players in one game may use different providers.
type ModelResolver func(provider, name string) (model.Model, error)

// ModelGatewayOptions configures a ModelGateway.
type ModelGatewayOptions struct {
	// MaxTokens bounds each completion.
	MaxTokens int64
	// Budget caps the total model calls made through this gateway; nil means
	// unlimited.
	Budget *CallBudget
	Logger logging.Logger
	Tracer trace.Tracer
}

// ModelGateway implements Gateway over the chat-completion contract: it
// builds role-scoped prompts, requests a JSON decision, parses it strictly
// and validates every target against the legal set.
type ModelGateway struct {
	resolve   ModelResolver
	maxTokens int64
	budget    *CallBudget
	logger    logging.Logger
	tracer    trace.Tracer
}

// NewModelGateway constructs a ModelGateway with optional overrides.
func NewModelGateway(resolve ModelResolver, optFns ...func(o *ModelGatewayOptions)) *ModelGateway {
	opts := ModelGatewayOptions{
		MaxTokens: 1024,
		Logger:    logging.NoOpLogger{},
		Tracer:    trace.Noop{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelGateway{
		resolve:   resolve,
		maxTokens: opts.MaxTokens,
		budget:    opts.Budget,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
	}
}

// Speech implements Gateway.
func (g *ModelGateway) Speech(ctx context.Context, gc Context) (*SpeechDecision, error) {
	text, err := g.complete(ctx, gc, "speech", speechSystemPrompt(gc), "Give your speech now.")
	if err != nil {
		return nil, err
	}
	var decision SpeechDecision
	if err := decodeDecision(text, &decision); err != nil {
		return nil, err
	}
	if strings.TrimSpace(decision.Content) == "" {
		return nil, &core.IllegalActionError{Actor: gc.Self.Name, Action: "speech", Reason: "empty speech content"}
	}
	return &decision, nil
}

// Vote implements Gateway.
func (g *ModelGateway) Vote(ctx context.Context, gc Context) (*VoteDecision, error) {
	text, err := g.complete(ctx, gc, "vote", voteSystemPrompt(gc), voteUserPrompt(gc))
	if err != nil {
		return nil, err
	}
	var decision VoteDecision
	if err := decodeDecision(text, &decision); err != nil {
		return nil, err
	}
	if decision.Skip() {
		if !gc.AllowSkip {
			return nil, &core.IllegalActionError{Actor: gc.Self.Name, Action: "vote", Reason: "no_lynch is not allowed"}
		}
		return &decision, nil
	}
	target, ok := gc.TargetByName(decision.Vote)
	if !ok {
		return nil, &core.IllegalActionError{
			Actor:  gc.Self.Name,
			Action: "vote",
			Reason: fmt.Sprintf("%q is not a legal target", decision.Vote),
		}
	}
	decision.Vote = target.Name
	return &decision, nil
}

// NightAction implements Gateway.
func (g *ModelGateway) NightAction(ctx context.Context, gc Context) (*NightDecision, error) {
	text, err := g.complete(ctx, gc, string(gc.Action), nightSystemPrompt(gc), nightUserPrompt(gc))
	if err != nil {
		return nil, err
	}
	var decision NightDecision
	if err := decodeDecision(text, &decision); err != nil {
		return nil, err
	}
	target, ok := gc.TargetByName(decision.Target)
	if !ok {
		return nil, &core.IllegalActionError{
			Actor:  gc.Self.Name,
			Action: string(gc.Action),
			Reason: fmt.Sprintf("%q is not a legal target", decision.Target),
		}
	}
	decision.Target = target.Name
	return &decision, nil
}

func (g *ModelGateway) complete(ctx context.Context, gc Context, action, system, prompt string) (string, error) {
	if g.budget != nil {
		if err := g.budget.Increment(); err != nil {
			return "", err
		}
	}

	m, err := g.resolve(gc.Self.Provider, gc.Self.Model)
	if err != nil {
		return "", fmt.Errorf("resolve model for %s: %w", gc.Self.Name, err)
	}

	ctx, span := trace.Start(ctx, g.tracer, "actor."+action, map[string]any{
		"player": gc.Self.Name,
		"game":   gc.GameID,
		"day":    gc.Day,
	})

	start := time.Now()
	resp, err := m.Complete(ctx, model.Request{System: system, Prompt: prompt, MaxTokens: g.maxTokens})
	span.End(err)
	if err != nil {
		g.logger.Warn("model call failed player=%s action=%s err=%v", gc.Self.Name, action, err)
		return "", err
	}
	g.logger.Debug("model call completed player=%s action=%s duration=%s", gc.Self.Name, action, time.Since(start))
	return resp.Text, nil
}

// decodeDecision extracts the first JSON object from a completion, stripping
// markdown fences, and unmarshals it into dst. Anything else fails closed.
func decodeDecision(text string, dst any) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), dst); err != nil {
		return fmt.Errorf("decode decision: %w", err)
	}
	return nil
}
