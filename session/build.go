// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/shader"
)

// StageSources is what the host compiles into one GPU program.
type StageSources struct {
	// Program is the program name after bridge redirection.
	Program  string
	Stages   []shader.Source
	Bindings []binding.Binding
}

// Compiler is the host's GPU compiler.
type Compiler interface {
	CompileProgram(ctx context.Context, sources StageSources) (bridge.ProgramHandle, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, sources StageSources) (bridge.ProgramHandle, error)

// CompileProgram implements Compiler.
func (f CompilerFunc) CompileProgram(ctx context.Context, sources StageSources) (bridge.ProgramHandle, error) {
	return f(ctx, sources)
}

// GpuCompileError is a driver rejection of emitted source.
type GpuCompileError struct {
	Program string
	Stage   shader.Stage
	// Path is the pack file of the rejected stage.
	Path string
	// Log is the driver's info log.
	Log string
}

func (e *GpuCompileError) Error() string {
	return fmt.Sprintf("gpu compile %s (%s): %s", e.Program, e.Stage, e.Log)
}

// Location implements diag.Locator.
func (e *GpuCompileError) Location() diag.Location {
	return diag.Location{File: e.Path}
}

// Detail implements diag.Detailer.
func (e *GpuCompileError) Detail() string {
	return fmt.Sprintf("driver rejected %s stage: %s", e.Stage, e.Log)
}

// Build compiles the pack and hands every successful program to the host
// compiler, one program at a time in name order. A host failure becomes an
// error diagnostic on that program only.
func (s *Session) Build(ctx context.Context, pack Pack, options shader.OptionSet, c Compiler) map[string]Result {
	results := s.Compile(ctx, pack, options)
	adapter := s.state.Load().Adapter()

	for _, name := range slices.Sorted(maps.Keys(results)) {
		r := results[name]
		if !r.OK() {
			continue
		}
		target := adapter.Program(name)
		handle, err := c.CompileProgram(ctx, StageSources{
			Program:  target,
			Stages:   r.Program.Sources,
			Bindings: r.Program.Bindings.Bindings(),
		})
		if err != nil {
			loc := location(programSources{name: name, sources: r.Program.Sources})
			var gerr *GpuCompileError
			if errors.As(err, &gerr) && gerr.Path == "" {
				if src, ok := r.Program.Source(gerr.Stage); ok {
					gerr.Path = src.Path
				}
			}
			r.Diagnostics = append(r.Diagnostics, diag.FromError("gpu", loc, err)...)
			s.log.Warn("host rejected program", slog.String("program", name), slog.String("error", err.Error()))
			results[name] = r
			continue
		}
		r.Handle = handle
		results[name] = r
		s.handlesMu.Lock()
		s.handles[target] = handle
		s.handlesMu.Unlock()
	}
	return results
}

// LookupProgram returns the handle of a program built by this session. It
// implements bridge.Hooks, so the session can be passed to bridge.Install.
func (s *Session) LookupProgram(name string) (bridge.ProgramHandle, bool) {
	s.handlesMu.RLock()
	defer s.handlesMu.RUnlock()
	h, ok := s.handles[name]
	return h, ok
}

var _ bridge.Hooks = (*Session)(nil)
