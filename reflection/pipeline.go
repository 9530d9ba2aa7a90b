package reflection

import (
	"context"
	"time"

	"github.com/mafiarena/mafiarena/actor"
	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/logging"
	"github.com/mafiarena/mafiarena/trace"
)

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// Retries is how many times a failed stage is retried before the prior
	// cheatsheet version is carried forward.
	Retries int
	// MaxTokens bounds each reflection completion.
	MaxTokens int64
	Tunables  Tunables
	Logger    logging.Logger
	Tracer    trace.Tracer
}

// Pipeline runs both reflection stages for the players of one completed game
// and emits the outcome to the event log. Stage failures are non-fatal: the
// prior cheatsheet version carries forward unchanged under a
// reflection_failed event.
type Pipeline struct {
	seriesID   string
	gameID     string
	gameNumber int

	resolve actor.ModelResolver
	log     *core.EventLog

	retries   int
	maxTokens int64
	tun       Tunables
	logger    logging.Logger
	tracer    trace.Tracer
}

// NewPipeline constructs a Pipeline for one completed game.
func NewPipeline(
	seriesID, gameID string,
	gameNumber int,
	resolve actor.ModelResolver,
	log *core.EventLog,
	optFns ...func(o *PipelineOptions),
) *Pipeline {
	opts := PipelineOptions{
		Retries:   2,
		MaxTokens: 2048,
		Tunables:  DefaultTunables(),
		Logger:    logging.NoOpLogger{},
		Tracer:    trace.Noop{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{
		seriesID:   seriesID,
		gameID:     gameID,
		gameNumber: gameNumber,
		resolve:    resolve,
		log:        log,
		retries:    opts.Retries,
		maxTokens:  opts.MaxTokens,
		tun:        opts.Tunables,
		logger:     opts.Logger,
		tracer:     opts.Tracer,
	}
}

// RunForPlayer reflects one player's game and returns the next cheatsheet
// version. On any stage failure the current cheatsheet is returned unchanged
// together with a *core.ReflectionFailure describing the stage; callers may
// log it and move on.
func (p *Pipeline) RunForPlayer(
	ctx context.Context,
	player *core.Player,
	survived bool,
	winner core.Winner,
	current core.Cheatsheet,
) (core.Cheatsheet, error) {
	ctx, span := trace.Start(ctx, p.tracer, "reflection.run", map[string]any{
		"player": player.Name,
		"game":   p.gameID,
	})

	p.emit(core.EventReflectionStarted, core.VisibilityViewer, player.ID, map[string]any{
		"player_name": player.Name,
		"game_number": p.gameNumber,
	})

	report := GameReport{
		Player:     player,
		Survived:   survived,
		Winner:     winner,
		Cheatsheet: current,
		Transcript: Transcript(p.log.Events(), p.gameID),
		GameNumber: p.gameNumber,
	}

	start := time.Now()
	next, err := p.run(ctx, report)
	span.End(err)
	if err != nil {
		failure := err.(*core.ReflectionFailure)
		p.logger.Warn("reflection failed player=%s stage=%s err=%v", player.Name, failure.Stage, failure.Err)
		p.emit(core.EventReflectionFailed, core.VisibilityViewer, player.ID, map[string]any{
			"player_name": player.Name,
			"stage":       failure.Stage,
			"error":       failure.Err.Error(),
		})
		return current, failure
	}

	p.logger.Info("reflection completed player=%s version=%d items=%d duration=%s",
		player.Name, next.Version, len(next.Items), time.Since(start))

	p.emit(core.EventReflectionCompleted, core.VisibilityViewer, player.ID, map[string]any{
		"status":      "success",
		"new_version": next.Version,
		"items_count": len(next.Items),
	})
	p.emit(core.EventCheatsheetUpdated, core.VisibilityPublic, player.ID, map[string]any{
		"player_name": player.Name,
		"version":     next.Version,
		"items_count": len(next.Items),
	})

	return next, nil
}

func (p *Pipeline) run(ctx context.Context, report GameReport) (core.Cheatsheet, error) {
	m, err := p.resolve(report.Player.Provider, report.Player.Model)
	if err != nil {
		return core.Cheatsheet{}, &core.ReflectionFailure{PlayerID: report.Player.ID, Stage: "reflector", Err: err}
	}

	reflector := NewReflector(m, p.maxTokens)
	var proposal *ReflectorOutput
	if err := p.withRetries(ctx, func() error {
		var stageErr error
		proposal, stageErr = reflector.Propose(ctx, report)
		return stageErr
	}); err != nil {
		return core.Cheatsheet{}, &core.ReflectionFailure{PlayerID: report.Player.ID, Stage: "reflector", Err: err}
	}

	curator := NewCurator(m, p.maxTokens)
	var review *CuratorOutput
	if err := p.withRetries(ctx, func() error {
		var stageErr error
		review, stageErr = curator.Review(ctx, report, proposal)
		return stageErr
	}); err != nil {
		return core.Cheatsheet{}, &core.ReflectionFailure{PlayerID: report.Player.ID, Stage: "curator", Err: err}
	}

	return Apply(report.Cheatsheet, proposal, review, p.gameNumber, p.tun), nil
}

func (p *Pipeline) withRetries(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i <= p.retries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (p *Pipeline) emit(t core.EventType, vis core.Visibility, actorID string, payload map[string]any) {
	ev := core.NewGameEvent(p.seriesID, p.gameID, t, vis)
	ev.ActorID = actorID
	ev.Payload = payload
	p.log.Append(ev)
}
