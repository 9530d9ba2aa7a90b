package series

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mafiarena/mafiarena/actor"
	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/game"
	"github.com/mafiarena/mafiarena/logging"
	"github.com/mafiarena/mafiarena/reflection"
	"github.com/mafiarena/mafiarena/store"
	"github.com/mafiarena/mafiarena/trace"
)

// Options configures an Orchestrator beyond its required collaborators.
type Options struct {
	// Store receives every series, game, event and cheatsheet record as it is
	// produced. Defaults to an in-memory store.
	Store store.Store
	// Tunables are the reflection score parameters.
	Tunables reflection.Tunables
	Logger   logging.Logger
	Tracer   trace.Tracer
}

// Orchestrator runs one series to completion: role assignment, game run and
// per-player reflection, once per configured game, strictly in order.
type Orchestrator struct {
	mu      sync.Mutex
	series  core.Series
	players []*core.Player

	resolve actor.ModelResolver
	st      store.Store
	log     *core.EventLog

	tun    reflection.Tunables
	logger logging.Logger
	tracer trace.Tracer

	stop    atomic.Bool
	running atomic.Bool
}

// New validates the configuration, registers the series with the store and
// returns an Orchestrator ready to Run. Configuration errors fail loudly
// here; nothing later in the series lifecycle is allowed to.
func New(cfg core.SeriesConfig, resolve actor.ModelResolver, optFns ...func(o *Options)) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{
		Store:    store.NewInMemory(),
		Tunables: reflection.DefaultTunables(),
		Logger:   logging.NoOpLogger{},
		Tracer:   trace.Noop{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	players := make([]*core.Player, len(cfg.Players))
	for i, pc := range cfg.Players {
		p := &core.Player{
			ID:       core.NewID(),
			Name:     pc.Name,
			Provider: pc.Provider,
			Model:    pc.Model,
		}
		if pc.InitialCheatsheet != nil {
			p.Cheatsheet = pc.InitialCheatsheet.Clone()
		}
		players[i] = p
	}

	series := core.Series{
		ID:         core.NewID(),
		Name:       cfg.Name,
		Status:     core.SeriesPending,
		TotalGames: cfg.TotalGames,
		Config:     cfg,
		CreatedAt:  time.Now().UTC(),
	}
	if err := opts.Store.CreateSeries(series); err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}

	return &Orchestrator{
		series:  series,
		players: players,
		resolve: resolve,
		st:      opts.Store,
		log:     core.NewEventLog(),
		tun:     opts.Tunables,
		logger:  opts.Logger,
		tracer:  opts.Tracer,
	}, nil
}

// Series returns a snapshot of the series record.
func (o *Orchestrator) Series() core.Series {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.series
}

// Players returns a snapshot of the roster, cheatsheets included.
func (o *Orchestrator) Players() []core.Player {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]core.Player, len(o.players))
	for i, p := range o.players {
		out[i] = *p
		out[i].Cheatsheet = p.Cheatsheet.Clone()
	}
	return out
}

// Log exposes the live event log for subscribers (transports, spectators).
func (o *Orchestrator) Log() *core.EventLog { return o.log }

// Stop requests a stop at the next safe boundary. It never interrupts a
// phase in flight.
func (o *Orchestrator) Stop() {
	o.stop.Store(true)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.series.Status == core.SeriesInProgress {
		o.setStatusLocked(core.SeriesStopRequested)
	}
}

// Run plays every configured game in order, reflecting after each one. It
// returns nil both on completion and on an honored stop request; only setup
// and store failures surface as errors. Run may be called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return errors.New("series already running")
	}

	ctx, span := trace.Start(ctx, o.tracer, "series.run", map[string]any{"series": o.series.ID})
	var runErr error
	defer func() { span.End(runErr) }()

	// Write-through: every event appended to the live log lands in the store
	// in the same order. Closing the log lets the persister drain the full
	// backlog before Run returns.
	persistCtx, cancelPersist := context.WithCancel(context.Background())
	var persisted sync.WaitGroup
	persisted.Add(1)
	go func() {
		defer persisted.Done()
		for ev := range o.log.Subscribe(persistCtx) {
			if err := o.st.AppendEvent(ev); err != nil {
				o.logger.Error("persist event failed id=%s err=%v", ev.ID, err)
			}
		}
	}()
	defer func() {
		o.log.Close()
		persisted.Wait()
		cancelPersist()
	}()

	o.setStatus(core.SeriesInProgress)

	for n := o.series.CurrentGame + 1; n <= o.series.TotalGames; n++ {
		if o.stop.Load() {
			o.setStatus(core.SeriesStopped)
			return nil
		}
		if err := ctx.Err(); err != nil {
			o.setStatus(core.SeriesStopped)
			runErr = err
			return runErr
		}

		stopped, err := o.runGame(ctx, n)
		if err != nil {
			runErr = err
			return runErr
		}
		if stopped {
			o.setStatus(core.SeriesStopped)
			return nil
		}

		o.mu.Lock()
		o.series.CurrentGame = n
		o.mu.Unlock()
		o.persistSeries()
	}

	o.setStatus(core.SeriesCompleted)
	return nil
}

// runGame plays one game and its reflection round. The returned bool reports
// an honored stop request.
func (o *Orchestrator) runGame(ctx context.Context, number int) (bool, error) {
	gameID := core.NewID()
	logger := o.logger
	if gl, ok := logger.(*logging.GameLogger); ok {
		logger = gl.WithComponent("game").WithGame(o.series.ID, gameID)
	}
	logger.Info("game starting number=%d", number)

	if err := o.assignRoles(number); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	record := core.Game{
		ID:        gameID,
		SeriesID:  o.series.ID,
		Number:    number,
		Phase:     core.PendingPhase(),
		StartedAt: &now,
	}
	if err := o.st.CreateGame(record); err != nil {
		return false, fmt.Errorf("create game %d: %w", number, err)
	}

	cfg := o.series.Config.Game
	if cfg.Seed != 0 {
		// Distinct deterministic stream per game.
		cfg.Seed += int64(number)
	}

	var budget *actor.CallBudget
	if cfg.MaxModelCalls > 0 {
		budget = actor.NewCallBudget(cfg.MaxModelCalls)
	}
	gw := actor.NewModelGateway(o.resolve, func(mo *actor.ModelGatewayOptions) {
		mo.Budget = budget
		mo.Logger = logger
		mo.Tracer = o.tracer
	})

	runner := game.NewRunner(o.series.ID, gameID, o.players, cfg, gw, o.log, func(ro *game.RunnerOptions) {
		ro.Logger = logger
		ro.Tracer = o.tracer
		ro.StopRequested = o.stop.Load
	})

	winner, err := runner.Run(ctx)
	record.Phase = runner.Phase()
	if err != nil {
		if errors.Is(err, game.ErrStopped) {
			logger.Info("game stopped at phase boundary number=%d", number)
			if updateErr := o.st.UpdateGame(record); updateErr != nil {
				return true, fmt.Errorf("update game %d: %w", number, updateErr)
			}
			return true, nil
		}
		return false, fmt.Errorf("game %d: %w", number, err)
	}

	completed := time.Now().UTC()
	record.CompletedAt = &completed
	if err := o.st.UpdateGame(record); err != nil {
		return false, fmt.Errorf("update game %d: %w", number, err)
	}
	logger.Info("game completed number=%d winner=%s", number, winner)

	o.reflect(ctx, gameID, number, winner)
	return false, nil
}

// assignRoles deals fresh roles for one game and revives the roster.
func (o *Orchestrator) assignRoles(number int) error {
	ids := make([]string, len(o.players))
	fixed := map[string]core.Role{}
	for i, p := range o.players {
		ids[i] = p.ID
		if fr := o.series.Config.Players[i].FixedRole; fr != "" {
			fixed[p.ID] = fr
		}
	}

	seed := o.series.Config.Game.Seed
	if seed != 0 {
		seed += int64(number)
	}
	assignment, err := game.AssignRoles(ids, fixed, seed)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.players {
		p.Role = assignment[p.ID]
		p.Alive = true
	}
	return nil
}

// reflect runs the reflection pipeline for every player of a completed game.
// Failures carry the player's cheatsheet forward unchanged and never fail
// the series.
func (o *Orchestrator) reflect(ctx context.Context, gameID string, number int, winner core.Winner) {
	logger := o.logger
	if gl, ok := logger.(*logging.GameLogger); ok {
		logger = gl.WithComponent("reflection").WithContext("game_number", number)
	}

	pipeline := reflection.NewPipeline(o.series.ID, gameID, number, o.resolve, o.log, func(po *reflection.PipelineOptions) {
		po.Retries = o.series.Config.Game.MaxRetries
		po.Tunables = o.tun
		po.Logger = logger
		po.Tracer = o.tracer
	})

	for _, p := range o.players {
		next, err := pipeline.RunForPlayer(ctx, p, p.Alive, winner, p.Cheatsheet)
		if err != nil {
			// Already logged and recorded as a reflection_failed event.
			continue
		}

		o.mu.Lock()
		p.Cheatsheet = next
		o.mu.Unlock()

		if err := o.st.SaveCheatsheet(o.series.ID, p.ID, next); err != nil {
			o.logger.Error("persist cheatsheet failed player=%s version=%d err=%v", p.Name, next.Version, err)
		}
	}
}

func (o *Orchestrator) setStatus(status core.SeriesStatus) {
	o.mu.Lock()
	o.setStatusLocked(status)
	o.mu.Unlock()
}

// setStatusLocked updates and persists the status; caller holds the lock.
func (o *Orchestrator) setStatusLocked(status core.SeriesStatus) {
	o.series.Status = status
	o.logger.Info("series status=%s game=%d/%d", status, o.series.CurrentGame, o.series.TotalGames)
	if err := o.st.UpdateSeries(o.series); err != nil {
		o.logger.Error("persist series failed err=%v", err)
	}
}

func (o *Orchestrator) persistSeries() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.st.UpdateSeries(o.series); err != nil {
		o.logger.Error("persist series failed err=%v", err)
	}
}
