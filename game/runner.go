package game

import (
	"context"
	"errors"
	"math/rand"

	"github.com/mafiarena/mafiarena/actor"
	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/logging"
	"github.com/mafiarena/mafiarena/trace"
)

// ErrStopped is returned by Run when a stop request was honored at a phase
// boundary before the game completed.
var ErrStopped = errors.New("game stopped before completion")

// RunnerOptions configures a Runner beyond its required collaborators.
type RunnerOptions struct {
	Logger logging.Logger
	Tracer trace.Tracer
	// StopRequested is polled at phase boundaries only, never mid-phase, so
	// vote and night state are always fully resolved before stopping.
	StopRequested func() bool
}

// Runner drives one game through the phase machine:
//
//	Pending → Day(n) → Voting(n) → Night(n) → Day(n+1) → … → Completed
//
// Each alive player speaks exactly once per day in fixed seat order, casts
// exactly one vote, and the special roles act at night. Win conditions are
// checked after every elimination. All actor decisions go through the
// fallback decider, so a failing model call degrades to a logged fallback
// decision instead of stalling the game.
type Runner struct {
	seriesID string
	gameID   string
	cfg      core.GameConfig

	players []*core.Player // seat order, fixed for the game
	decider *actor.Decider
	log     *core.EventLog
	rng     *rand.Rand

	logger        logging.Logger
	tracer        trace.Tracer
	stopRequested func() bool

	phase      core.GamePhase
	day        int
	discussion []string
}

// NewRunner constructs a Runner over an assigned roster. The players slice
// defines seat order; every player must already carry a role.
func NewRunner(
	seriesID, gameID string,
	players []*core.Player,
	cfg core.GameConfig,
	gw actor.Gateway,
	log *core.EventLog,
	optFns ...func(o *RunnerOptions),
) *Runner {
	opts := RunnerOptions{
		Logger: logging.NoOpLogger{},
		Tracer: trace.Noop{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	rng := newRand(cfg.Seed)
	decider := actor.NewDecider(gw, func(o *actor.DeciderOptions) {
		o.Retries = cfg.MaxRetries
		o.Timeout = cfg.DecisionTimeout
		o.Rand = rng
		o.Logger = opts.Logger
	})

	return &Runner{
		seriesID:      seriesID,
		gameID:        gameID,
		cfg:           cfg,
		players:       players,
		decider:       decider,
		log:           log,
		rng:           rng,
		logger:        opts.Logger,
		tracer:        opts.Tracer,
		stopRequested: opts.StopRequested,
		phase:         core.PendingPhase(),
	}
}

// Phase returns the current phase.
func (r *Runner) Phase() core.GamePhase { return r.phase }

// Run plays the game to completion and returns the winner. Once the game is
// completed further calls return the recorded winner without any actor
// calls. A honored stop request returns ErrStopped with an empty winner.
func (r *Runner) Run(ctx context.Context) (core.Winner, error) {
	if r.phase.Terminal() {
		return r.phase.Winner, nil
	}

	ctx, span := trace.Start(ctx, r.tracer, "game.run", map[string]any{"game": r.gameID})
	var runErr error
	defer func() { span.End(runErr) }()

	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	r.emit(core.EventGameStarted, core.VisibilityPublic, "", "", map[string]any{
		"player_count": len(r.players),
		"players":      ids,
	})

	for {
		r.day++

		if r.stopped() {
			runErr = ErrStopped
			return "", runErr
		}
		winner, err := r.runDay(ctx)
		if err != nil {
			runErr = r.fail(err)
			return "", runErr
		}
		if winner != "" {
			return r.complete(winner), nil
		}

		if r.stopped() {
			runErr = ErrStopped
			return "", runErr
		}
		winner, err = r.runNight(ctx)
		if err != nil {
			runErr = r.fail(err)
			return "", runErr
		}
		if winner != "" {
			return r.complete(winner), nil
		}
	}
}

// runDay plays the speech and voting sub-phases of one day.
func (r *Runner) runDay(ctx context.Context) (core.Winner, error) {
	r.setPhase(core.DayPhase(r.day))
	r.emit(core.EventDayStarted, core.VisibilityPublic, "", "", map[string]any{"day_number": r.day})

	r.discussion = nil

	// Fixed seat order: alive players speak in roster order, once each.
	for _, p := range r.alivePlayers() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r.playerSpeech(ctx, p)
	}

	r.setPhase(core.VotingPhase(r.day))

	ballot := core.Ballot{}
	for _, p := range r.alivePlayers() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ballot[p.ID] = r.playerVote(ctx, p)
	}

	r.resolveLynch(ballot)
	return r.checkWin(), nil
}

func (r *Runner) playerSpeech(ctx context.Context, p *core.Player) {
	gc := r.actorContext(p)
	decision, fallback := r.decider.Speech(ctx, gc)
	if fallback {
		r.emitFallback(p, "speech")
	}

	r.discussion = append(r.discussion, p.Name+": "+decision.Content)

	payload := map[string]any{"content": decision.Content, "player_name": p.Name}
	if len(decision.Addressing) > 0 {
		payload["addressing"] = decision.Addressing
	}
	r.emit(core.EventSpeech, core.VisibilityPublic, p.ID, "", payload)
}

// playerVote obtains one vote and returns the target player id or
// core.VoteSkip.
func (r *Runner) playerVote(ctx context.Context, p *core.Player) string {
	gc := r.actorContext(p)
	gc.LegalTargets = r.targetViews(func(t *core.Player) bool { return t.ID != p.ID })
	gc.AllowSkip = r.cfg.AllowNoLynch

	decision, fallback := r.decider.Vote(ctx, gc)
	if fallback {
		r.emitFallback(p, "vote")
	}

	targetID := core.VoteSkip
	targetName := core.VoteSkip
	if !decision.Skip() {
		if target, ok := gc.TargetByName(decision.Vote); ok {
			targetID = target.ID
			targetName = target.Name
		}
	}

	ev := core.NewGameEvent(r.seriesID, r.gameID, core.EventVoteCast, core.VisibilityPublic)
	ev.ActorID = p.ID
	if targetID != core.VoteSkip {
		ev.TargetID = targetID
	}
	ev.Payload = map[string]any{
		"vote":        targetName,
		"voter_name":  p.Name,
		"target_name": targetName,
		"reasoning":   decision.Reasoning,
	}
	r.log.Append(ev)

	return targetID
}

func (r *Runner) resolveLynch(ballot core.Ballot) {
	result := Tally(ballot, r.cfg.AllowNoLynch)

	counts := map[string]int{}
	for target, n := range result.Counts {
		counts[r.displayName(target)] = n
	}

	payload := map[string]any{"vote_counts": counts}
	targetID := ""
	if result.Lynched {
		if lynched := r.playerByID(result.TargetID); lynched != nil {
			lynched.Alive = false
			targetID = lynched.ID
			payload["lynched"] = lynched.Name
			payload["lynched_role"] = lynched.Role
		}
	}
	if targetID == "" {
		payload["lynched"] = nil
	}
	r.emit(core.EventLynchResult, core.VisibilityPublic, "", targetID, payload)
}

// runNight plays the mafia, doctor and deputy actions and resolves them.
func (r *Runner) runNight(ctx context.Context) (core.Winner, error) {
	r.setPhase(core.NightPhase(r.day))
	r.emit(core.EventNightStarted, core.VisibilityPublic, "", "", map[string]any{"day_number": r.day})

	killTarget := r.mafiaKillChoice(ctx)
	saveTarget := r.doctorSaveChoice(ctx)
	r.deputyInvestigateChoice(ctx)

	var killed *core.Player
	saved := killTarget != "" && killTarget == saveTarget
	if killTarget != "" && !saved {
		if target := r.playerByID(killTarget); target != nil && target.Alive {
			target.Alive = false
			killed = target
		}
	}

	payload := map[string]any{"was_saved": saved}
	targetID := ""
	if killed != nil {
		targetID = killed.ID
		payload["killed"] = killed.Name
		payload["killed_role"] = killed.Role
	} else {
		payload["killed"] = nil
	}
	r.emit(core.EventNightResult, core.VisibilityPublic, "", targetID, payload)

	return r.checkWin(), nil
}

// mafiaKillChoice returns the chosen victim's id, or empty when no mafia is
// alive. The first alive mafia member decides for the faction.
func (r *Runner) mafiaKillChoice(ctx context.Context) string {
	mafia := r.aliveWithRole(core.RoleMafia)
	if len(mafia) == 0 {
		return ""
	}
	p := mafia[0]

	gc := r.actorContext(p)
	gc.Action = core.NightActionKill
	gc.LegalTargets = r.targetViews(func(t *core.Player) bool { return t.Role != core.RoleMafia })

	decision, fallback := r.decider.NightAction(ctx, gc)
	if fallback {
		r.emitFallback(p, string(core.NightActionKill))
	}
	if decision == nil {
		return ""
	}

	target, ok := gc.TargetByName(decision.Target)
	if !ok {
		return ""
	}
	r.emit(core.EventMafiaKill, core.VisibilityMafia, p.ID, target.ID, map[string]any{
		"target":    target.Name,
		"reasoning": decision.Reasoning,
	})
	return target.ID
}

// doctorSaveChoice returns the protected player's id, or empty when no
// doctor is alive.
func (r *Runner) doctorSaveChoice(ctx context.Context) string {
	doctors := r.aliveWithRole(core.RoleDoctor)
	if len(doctors) == 0 {
		return ""
	}
	p := doctors[0]

	gc := r.actorContext(p)
	gc.Action = core.NightActionProtect
	gc.LegalTargets = r.targetViews(func(t *core.Player) bool {
		return r.cfg.DoctorSelfSave || t.ID != p.ID
	})

	decision, fallback := r.decider.NightAction(ctx, gc)
	if fallback {
		r.emitFallback(p, string(core.NightActionProtect))
	}
	if decision == nil {
		return ""
	}

	target, ok := gc.TargetByName(decision.Target)
	if !ok {
		return ""
	}
	r.emit(core.EventDoctorSave, core.VisibilityPrivate, p.ID, target.ID, map[string]any{
		"target":    target.Name,
		"reasoning": decision.Reasoning,
	})
	return target.ID
}

// deputyInvestigateChoice runs the investigation; the result is visible only
// to the deputy via the private event.
func (r *Runner) deputyInvestigateChoice(ctx context.Context) {
	deputies := r.aliveWithRole(core.RoleDeputy)
	if len(deputies) == 0 {
		return
	}
	p := deputies[0]

	gc := r.actorContext(p)
	gc.Action = core.NightActionInvestigate
	gc.LegalTargets = r.targetViews(func(t *core.Player) bool { return t.ID != p.ID })

	decision, fallback := r.decider.NightAction(ctx, gc)
	if fallback {
		r.emitFallback(p, string(core.NightActionInvestigate))
	}
	if decision == nil {
		return
	}

	target, ok := gc.TargetByName(decision.Target)
	if !ok {
		return
	}
	investigated := r.playerByID(target.ID)
	result := "good"
	if investigated != nil && investigated.Role == core.RoleMafia {
		result = "bad"
	}
	r.emit(core.EventDeputyInvestigate, core.VisibilityPrivate, p.ID, target.ID, map[string]any{
		"target":    target.Name,
		"result":    result,
		"reasoning": decision.Reasoning,
	})
}

// checkWin evaluates the win condition: town wins when no mafia remains,
// mafia wins at parity with the rest of the town.
func (r *Runner) checkWin() core.Winner {
	mafia, town := 0, 0
	for _, p := range r.players {
		if !p.Alive {
			continue
		}
		if p.Role == core.RoleMafia {
			mafia++
		} else {
			town++
		}
	}
	if mafia == 0 {
		return core.WinnerTown
	}
	if mafia >= town {
		return core.WinnerMafia
	}
	return ""
}

func (r *Runner) complete(winner core.Winner) core.Winner {
	r.setPhase(core.CompletedPhase(winner))
	r.emit(core.EventGameEnded, core.VisibilityPublic, "", "", map[string]any{
		"winner":     winner,
		"day_number": r.day,
	})
	return winner
}

func (r *Runner) stopped() bool {
	return r.stopRequested != nil && r.stopRequested()
}

// fail records an abort mid-game so the event log explains why the stream
// ends without a game_ended event.
func (r *Runner) fail(err error) error {
	r.logger.Error("game aborted game=%s day=%d err=%v", r.gameID, r.day, err)
	r.emit(core.EventError, core.VisibilityViewer, "", "", map[string]any{
		"error":      err.Error(),
		"day_number": r.day,
	})
	return err
}

func (r *Runner) setPhase(phase core.GamePhase) {
	r.phase = phase
	r.logger.Debug("phase transition game=%s phase=%s", r.gameID, phase)
	payload := map[string]any{"kind": string(phase.Kind), "day": phase.Day}
	if phase.Winner != "" {
		payload["winner"] = string(phase.Winner)
	}
	r.emit(core.EventPhaseChanged, core.VisibilityViewer, "", "", payload)
}

func (r *Runner) emit(t core.EventType, vis core.Visibility, actorID, targetID string, payload map[string]any) {
	ev := core.NewGameEvent(r.seriesID, r.gameID, t, vis)
	ev.ActorID = actorID
	ev.TargetID = targetID
	ev.Payload = payload
	r.log.Append(ev)
}

func (r *Runner) emitFallback(p *core.Player, action string) {
	r.emit(core.EventFallbackUsed, core.VisibilityViewer, p.ID, "", map[string]any{
		"player_name": p.Name,
		"action":      action,
	})
}

// actorContext builds the game-visible view for one acting player.
func (r *Runner) actorContext(p *core.Player) actor.Context {
	views := make([]actor.PlayerView, len(r.players))
	for i, pl := range r.players {
		views[i] = actor.PlayerView{ID: pl.ID, Name: pl.Name, Alive: pl.Alive}
	}

	var partners []string
	if p.Role == core.RoleMafia {
		for _, pl := range r.players {
			if pl.Role == core.RoleMafia && pl.ID != p.ID {
				partners = append(partners, pl.Name)
			}
		}
	}

	discussion := make([]string, len(r.discussion))
	copy(discussion, r.discussion)

	return actor.Context{
		SeriesID:      r.seriesID,
		GameID:        r.gameID,
		Day:           r.day,
		Self:          *p,
		Players:       views,
		MafiaPartners: partners,
		Discussion:    discussion,
	}
}

// targetViews returns alive players passing the filter, in seat order.
func (r *Runner) targetViews(keep func(*core.Player) bool) []actor.PlayerView {
	var views []actor.PlayerView
	for _, p := range r.players {
		if p.Alive && keep(p) {
			views = append(views, actor.PlayerView{ID: p.ID, Name: p.Name, Alive: true})
		}
	}
	return views
}

func (r *Runner) alivePlayers() []*core.Player {
	var alive []*core.Player
	for _, p := range r.players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

func (r *Runner) aliveWithRole(role core.Role) []*core.Player {
	var out []*core.Player
	for _, p := range r.players {
		if p.Alive && p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func (r *Runner) playerByID(id string) *core.Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Runner) displayName(id string) string {
	if id == core.VoteSkip {
		return core.VoteSkip
	}
	if p := r.playerByID(id); p != nil {
		return p.Name
	}
	return id
}
