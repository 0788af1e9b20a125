// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package session compiles shader packs into host-ready programs.
//
// A Session groups a pack's files into programs, runs each program's stages
// through preprocess, parse, transform, link and emit, and caches the
// outcome. Programs compile concurrently and fail independently: one broken
// program yields a failed Result while the others succeed.
//
// # Basic Usage
//
//	s := session.New(config.Default(), session.WithLogger(logger))
//	results := s.Compile(ctx, pack, options)
//	for name, r := range results {
//	    if !r.OK() {
//	        fmt.Println(name, r.Diagnostics)
//	    }
//	}
//
// A Session is safe for concurrent use.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/config"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/shader"
	"github.com/gogpu/shaderpack/transform"
)

// Program is a transformed program. It is shared between cached results
// and must not be modified.
type Program struct {
	Name string
	// Sources holds the emitted text per stage, in pipeline order. Path is
	// the pack file the stage came from.
	Sources  []shader.Source
	Bindings *binding.Table
	// Diagnostics holds the info and warning messages of the compile.
	Diagnostics diag.List
	// Key identifies the inputs the program was compiled from.
	Key string
}

// Source returns the emitted source of one stage.
func (p *Program) Source(stage shader.Stage) (shader.Source, bool) {
	for _, s := range p.Sources {
		if s.Stage == stage {
			return s, true
		}
	}
	return shader.Source{}, false
}

// Result is the outcome of compiling one program.
type Result struct {
	// Program is nil when the program failed before emission.
	Program *Program
	// Diagnostics holds everything reported for the program, errors
	// included.
	Diagnostics diag.List
	// Cached is set when the result came from the session cache.
	Cached bool
	// Handle is set by Build for programs the host compiled.
	Handle bridge.ProgramHandle
}

// OK reports whether the program compiled without errors.
func (r Result) OK() bool {
	return r.Program != nil && !r.Diagnostics.HasErrors()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithBridge sets the initial bridge state. The default is bridge.NoOp().
func WithBridge(state *bridge.State) Option {
	return func(s *Session) {
		if state != nil {
			s.state.Store(state)
		}
	}
}

// WithPipeline replaces the default transform pipeline.
func WithPipeline(p *transform.Pipeline) Option {
	return func(s *Session) { s.pipeline = p }
}

// WithHostInputs replaces the host input catalogue.
func WithHostInputs(inputs []binding.HostInput) Option {
	return func(s *Session) { s.hostInputs = inputs }
}

// Session compiles packs and caches the results.
type Session struct {
	cfg        config.Config
	log        *slog.Logger
	pipeline   *transform.Pipeline
	hostInputs []binding.HostInput
	state      atomic.Pointer[bridge.State]
	cache      *cache
	counters   counters

	handlesMu sync.RWMutex
	handles   map[string]bridge.ProgramHandle
}

// New returns a session for cfg. The configuration is not validated; use
// config.Load or Config.Validate first.
func New(cfg config.Config, opts ...Option) *Session {
	s := &Session{
		cfg:        cfg,
		log:        slog.New(slog.DiscardHandler),
		pipeline:   transform.Default(),
		hostInputs: binding.DefaultHostInputs(),
		cache:      newCache(),
		handles:    make(map[string]bridge.ProgramHandle),
	}
	s.state.Store(bridge.NoOp())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bridge returns the current bridge state.
func (s *Session) Bridge() *bridge.State {
	return s.state.Load()
}

// Reload swaps in a new bridge state and returns the previous one, which
// the caller closes. Compiles already running keep the state they started
// with; cache keys include the capability set, so later compiles never see
// programs built under the old state.
func (s *Session) Reload(state *bridge.State) *bridge.State {
	if state == nil {
		state = bridge.NoOp()
	}
	old := s.state.Swap(state)
	s.log.Info("bridge state reloaded",
		slog.String("capabilities", state.Capabilities().Fingerprint()),
		slog.Bool("active", state.Active()))
	return old
}

// Unload drops every cached program of the pack.
func (s *Session) Unload(pack string) {
	n := s.cache.evict(pack, func(cacheKey) bool { return true })
	s.log.Debug("pack unloaded", slog.String("pack", pack), slog.Int("evicted", n))
}

// compileRun is the state shared by the programs of one Compile call.
type compileRun struct {
	id        string
	pack      Pack
	options   shader.OptionSet
	caps      bridge.Capabilities
	libraries []shader.Source
	log       *slog.Logger
}

// Compile compiles every program of the pack under options. The result
// holds one entry per program, keyed by program name, whether or not the
// program compiled.
func (s *Session) Compile(ctx context.Context, pack Pack, options shader.OptionSet) map[string]Result {
	run := &compileRun{
		id:        uuid.NewString(),
		pack:      pack,
		options:   options,
		caps:      s.state.Load().Capabilities(),
		libraries: pack.libraries(),
	}
	run.log = s.log.With(slog.String("run", run.id), slog.String("pack", pack.Name))

	fingerprint := options.Fingerprint()
	if n := s.cache.evict(pack.Name, func(k cacheKey) bool { return k.options != fingerprint }); n > 0 {
		run.log.Debug("evicted stale programs", slog.Int("count", n))
	}

	programs := pack.programs()
	results := make(map[string]Result, len(programs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for _, ps := range programs {
		g.Go(func() error {
			r := s.compileCached(gctx, run, ps)
			mu.Lock()
			results[ps.name] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // programs report failures in their results

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	run.log.Info("pack compiled",
		slog.Int("programs", len(results)),
		slog.Int("failed", failed))
	return results
}

func (s *Session) workers() int {
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (s *Session) compileCached(ctx context.Context, run *compileRun, ps programSources) Result {
	log := run.log.With(slog.String("program", ps.name))
	if err := ctx.Err(); err != nil {
		return s.failed(log, ps, diag.FromError("session", location(ps), fmt.Errorf("compile canceled: %w", err)), false)
	}

	key := newCacheKey(run.pack.Name, ps.sources, run.libraries, run.options.Fingerprint(), s.cfg.Transform(), run.caps.Fingerprint())
	if e, ok := s.cache.get(key); ok {
		s.counters.hits.Add(1)
		log.Debug("cache hit", slog.String("key", key.String()))
		if e.program == nil {
			return s.failed(log, ps, e.diagnostics, true)
		}
		return Result{Program: e.program, Diagnostics: e.program.Diagnostics.Clone(), Cached: true}
	}
	s.counters.misses.Add(1)
	log.Debug("cache miss", slog.String("key", key.String()))

	prog, diags := s.compileProgram(run, ps, key)
	s.cache.put(key, cacheEntry{program: prog, diagnostics: diags})
	if prog == nil {
		return s.failed(log, ps, diags, false)
	}
	return Result{Program: prog, Diagnostics: diags.Clone()}
}

func (s *Session) failed(log *slog.Logger, ps programSources, diags diag.List, cached bool) Result {
	s.counters.failures.Add(1)
	first := ""
	if errs := diags.Errors(); len(errs) > 0 {
		first = errs[0].String()
	}
	log.Warn("program failed", slog.String("error", first), slog.Bool("cached", cached))
	return Result{Diagnostics: diags.Clone(), Cached: cached}
}

// location is where program-level failures are reported: the first stage
// file, or the program name.
func location(ps programSources) diag.Location {
	if len(ps.sources) > 0 {
		return diag.Location{File: ps.sources[0].Path}
	}
	return diag.Location{File: ps.name}
}
