// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bridge

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// State is the outcome of Install. It is read-only after creation; a reload
// installs a new State.
type State struct {
	caps    Capabilities
	adapter Adapter
	module  Module

	closeOnce sync.Once
}

// NoOp returns a state with no capabilities and the pass-through adapter.
func NoOp() *State {
	return &State{adapter: noopAdapter{}}
}

// NewState returns a state with the given capabilities and the pass-through
// adapter. It lets tests and hosts without a module enable capabilities
// directly.
func NewState(caps Capabilities) *State {
	return &State{caps: caps, adapter: noopAdapter{}}
}

// Capabilities returns the detected capabilities.
func (s *State) Capabilities() Capabilities { return s.caps }

// Adapter returns the interposition adapter.
func (s *State) Adapter() Adapter { return s.adapter }

// Active reports whether a module is installed.
func (s *State) Active() bool { return s.module != nil }

// Module returns the installed module, or nil.
func (s *State) Module() Module { return s.module }

// Close shuts the module down. It is safe to call more than once. A module
// that panics while closing yields ErrModulePanicked.
func (s *State) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.module != nil {
			err = safeClose(s.module)
		}
	})
	return err
}

// Adapter carries host calls across to the module.
type Adapter interface {
	// ModelView returns the model-view matrix the module expects.
	ModelView(view mgl32.Mat4) mgl32.Mat4
	// FluidLayout returns the fluid data layout, if the module has one.
	FluidLayout() (FluidLayout, bool)
	// SecondaryLightTexture returns the secondary lighting texture, if any.
	SecondaryLightTexture() (uint32, bool)
	// Program returns the program name to use in place of name.
	Program(name string) string
}

type noopAdapter struct{}

func (noopAdapter) ModelView(view mgl32.Mat4) mgl32.Mat4 { return view }

func (noopAdapter) FluidLayout() (FluidLayout, bool) { return FluidLayout{}, false }

func (noopAdapter) SecondaryLightTexture() (uint32, bool) { return 0, false }

func (noopAdapter) Program(name string) string { return name }

// moduleAdapter forwards to the module's optional interfaces. A panic in
// the module falls back to the pass-through result.
type moduleAdapter struct {
	m   Module
	log *slog.Logger
}

func (a *moduleAdapter) guard(call string) {
	if r := recover(); r != nil {
		a.log.Warn("rendering module panicked", "call", call, "panic", r)
	}
}

func (a *moduleAdapter) ModelView(view mgl32.Mat4) (out mgl32.Mat4) {
	out = view
	defer a.guard("ModelView")
	if adj, ok := a.m.(ModelViewAdjuster); ok {
		return adj.AdjustModelView(view)
	}
	if src, ok := a.m.(CameraOffsetSource); ok {
		off := src.CameraOffset()
		return view.Mul4(mgl32.Translate3D(-off.X(), -off.Y(), -off.Z()))
	}
	return view
}

func (a *moduleAdapter) FluidLayout() (layout FluidLayout, ok bool) {
	src, implemented := a.m.(FluidDataSource)
	if !implemented {
		return FluidLayout{}, false
	}
	defer a.guard("FluidLayout")
	return src.FluidDataLayout(), true
}

func (a *moduleAdapter) SecondaryLightTexture() (tex uint32, ok bool) {
	src, implemented := a.m.(SecondaryLightingSource)
	if !implemented {
		return 0, false
	}
	defer a.guard("SecondaryLightTexture")
	return src.SecondaryLightTexture(), true
}

func (a *moduleAdapter) Program(name string) (out string) {
	out = name
	defer a.guard("Program")
	if r, ok := a.m.(ProgramRedirector); ok {
		if to, ok := r.RedirectProgram(name); ok {
			return to
		}
	}
	return name
}
