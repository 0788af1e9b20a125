// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/glsl"
	"github.com/gogpu/shaderpack/preprocess"
	"github.com/gogpu/shaderpack/shader"
	"github.com/gogpu/shaderpack/transform"
)

// ErrNoStages is reported for a combined file without usable stages.
var ErrNoStages = errors.New("program has no stage sources")

// compileProgram runs every stage of one program through the full
// pipeline. It returns the program, or nil and diagnostics ending in the
// error that stopped it. A panic anywhere below fails only this program.
func (s *Session) compileProgram(run *compileRun, ps programSources, key cacheKey) (prog *Program, diags diag.List) {
	units := make([]transform.Unit, 0, len(ps.sources))
	// Diagnostics are collected per stage so they come out in stage order
	// even when linking adds to an earlier stage.
	collect := func() diag.List {
		var out diag.List
		for _, u := range units {
			out = append(out, *u.Ctx.Diagnostics...)
		}
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			run.log.Error("panic compiling program", slog.String("program", ps.name), slog.Any("panic", r))
			prog = nil
			diags = append(collect(), diag.Diagnostic{
				Severity: diag.SeverityError,
				Phase:    "session",
				Location: location(ps),
				Message:  fmt.Sprintf("internal error: %v", r),
			})
		}
	}()

	if ps.err != nil {
		return nil, diag.FromError("session", location(ps), ps.err)
	}
	if len(ps.sources) == 0 {
		return nil, diag.FromError("session", location(ps), ErrNoStages)
	}

	ppcfg := s.cfg.Preprocess()
	ppcfg.Capabilities = run.caps.Names()
	ppcfg.Include = run.pack.resolver()

	table := binding.NewTable()

	for _, src := range ps.sources {
		fileLoc := diag.Location{File: src.Path}

		s.counters.preprocessed.Add(1)
		res, err := preprocess.Preprocess(src, run.options, ppcfg)
		if err != nil {
			return nil, append(collect(), diag.FromError("preprocess", fileLoc, err)...)
		}

		s.counters.parsed.Add(1)
		tree, err := glsl.Parse(res)
		if err != nil {
			return nil, append(append(collect(), res.Warnings...), diag.FromError("parse", fileLoc, err)...)
		}

		ctx := transform.ForSource(res, table)
		ctx.Target = s.cfg.Target()
		ctx.Capabilities = run.caps
		ctx.HostInputs = s.hostInputs
		*ctx.Diagnostics = append(*ctx.Diagnostics, res.Warnings...)
		units = append(units, transform.Unit{Tree: tree, Ctx: ctx})

		s.counters.transformed.Add(1)
		if err := s.pipeline.Run(tree, ctx); err != nil {
			return nil, append(collect(), diag.FromError("transform", fileLoc, err)...)
		}
	}

	if err := transform.Link(units); err != nil {
		return nil, append(collect(), diag.FromError("link", location(ps), err)...)
	}
	if err := table.Validate(); err != nil {
		return nil, append(collect(), diag.FromError("link", location(ps), err)...)
	}

	prog = &Program{
		Name:        ps.name,
		Sources:     make([]shader.Source, 0, len(units)),
		Bindings:    table,
		Diagnostics: collect(),
		Key:         key.String(),
	}
	for i, u := range units {
		src := ps.sources[i]
		src.Text = glsl.Emit(u.Tree)
		prog.Sources = append(prog.Sources, src)
	}
	return prog, prog.Diagnostics
}
