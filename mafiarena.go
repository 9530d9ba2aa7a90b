// Package mafiarena provides a high-level façade over the series orchestrator
// and its collaborators (stores, model resolution, logging). Most applications
// interact with this package by:
//  1. Creating a Mafiarena via New() (optionally overriding the default
//     in-memory store, model resolver or logger)
//  2. Starting a series asynchronously (StartSeries) or running one to
//     completion synchronously (RunSeries)
//  3. Reading results back through Store()
//
// The façade delegates all game and reflection logic to the series package
// while keeping setup ergonomics concise. The defaults are safe for local
// development: an in-memory store and a resolver that only serves mock
// models. Production callers supply a sqlite store and a resolver built from
// config.Load().
package mafiarena

import (
	"context"
	"fmt"
	"sync"

	"github.com/mafiarena/mafiarena/actor"
	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/logging"
	"github.com/mafiarena/mafiarena/model"
	"github.com/mafiarena/mafiarena/reflection"
	"github.com/mafiarena/mafiarena/series"
	"github.com/mafiarena/mafiarena/store"
	"github.com/mafiarena/mafiarena/trace"
)

// Options configures the Mafiarena instance.
type Options struct {
	// Store receives every series, game, event and cheatsheet record.
	// Defaults to an in-memory store.
	Store store.Store

	// Resolver maps (provider, model) pairs from player configs to live
	// models. Defaults to a mock-only resolver suitable for dry runs.
	Resolver actor.ModelResolver

	// Tunables are the reflection score parameters shared by every series.
	Tunables reflection.Tunables

	// Logger defaults to NoOp.
	Logger logging.Logger
	Tracer trace.Tracer
}

// Mafiarena is the high-level façade aggregating the store and model
// resolution shared by the series it creates.
type Mafiarena struct {
	opts Options
}

// New creates a new Mafiarena instance with optional overrides. Any unset
// collaborator is initialized with an in-memory or no-op implementation.
func New(optFns ...func(o *Options)) *Mafiarena {
	opts := Options{
		Store:    store.NewInMemory(),
		Resolver: mockResolver(),
		Tunables: reflection.DefaultTunables(),
		Logger:   logging.NoOpLogger{},
		Tracer:   trace.Noop{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Mafiarena{opts: opts}
}

// Store exposes the checkpoint store for result queries.
func (m *Mafiarena) Store() store.Store { return m.opts.Store }

// NewSeries validates the configuration and registers a new series without
// starting it. The returned orchestrator is ready to Run.
func (m *Mafiarena) NewSeries(cfg core.SeriesConfig) (*series.Orchestrator, error) {
	return series.New(cfg, m.opts.Resolver, func(o *series.Options) {
		o.Store = m.opts.Store
		o.Tunables = m.opts.Tunables
		o.Logger = m.opts.Logger
		o.Tracer = m.opts.Tracer
	})
}

// StartSeries registers a series and starts it in the background. The error
// channel receives the terminal Run error (or nil) and is then closed; the
// orchestrator exposes the live event log and the Stop handle.
func (m *Mafiarena) StartSeries(ctx context.Context, cfg core.SeriesConfig) (*series.Orchestrator, <-chan error, error) {
	o, err := m.NewSeries(cfg)
	if err != nil {
		return nil, nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- o.Run(ctx)
	}()
	return o, done, nil
}

// RunSeries is a synchronous helper that registers a series, runs every game
// and returns the final series snapshot.
func (m *Mafiarena) RunSeries(ctx context.Context, cfg core.SeriesConfig) (core.Series, error) {
	o, err := m.NewSeries(cfg)
	if err != nil {
		return core.Series{}, err
	}
	if err := o.Run(ctx); err != nil {
		return o.Series(), err
	}
	return o.Series(), nil
}

// mockResolver serves only the "mock" provider, one shared model per name.
func mockResolver() actor.ModelResolver {
	var mu sync.Mutex
	cache := map[string]*model.MockModel{}

	return func(provider, name string) (model.Model, error) {
		if provider != "mock" {
			return nil, fmt.Errorf("no resolver configured for provider %q (see config.Load)", provider)
		}
		mu.Lock()
		defer mu.Unlock()
		if m, ok := cache[name]; ok {
			return m, nil
		}
		m := model.NewMockModel(name)
		cache[name] = m
		return m, nil
	}
}
