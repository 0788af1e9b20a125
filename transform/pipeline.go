// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package transform rewrites parsed pack shaders so they link against the
// host renderer.
//
// A Pipeline runs an ordered list of passes over one stage's tree. Passes
// mutate the tree and the program's binding table in place; a later pass
// may rely on what an earlier one left behind. The first failing pass stops
// the run for that stage only.
//
// Passes hold no state between runs, so one Pipeline serves concurrent
// compilations.
package transform

import (
	"errors"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/bridge"
)

// Pass is one tree-to-tree rewrite.
type Pass interface {
	Name() string
	Apply(tree *ast.Tree, ctx *Context) error
}

// Pipeline is an ordered list of passes.
type Pipeline struct {
	passes []Pass
}

// NewPipeline returns a pipeline running passes in the given order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// Default returns the host's pipeline.
func Default() *Pipeline {
	return NewPipeline(
		VersionPass{},
		CollisionPass{},
		LegacyPass{},
		BindingPass{},
		Gate(bridge.CapExtendedFluidData, FluidDataPass()),
		Gate(bridge.CapSecondaryLightingBuffer, SecondaryLightingPass()),
		ReferencePass{},
	)
}

// Passes returns the passes in run order.
func (p *Pipeline) Passes() []Pass {
	out := make([]Pass, len(p.passes))
	copy(out, p.passes)
	return out
}

// Run applies every pass in order and stops at the first error, which is
// returned as an *Error naming the pass.
func (p *Pipeline) Run(tree *ast.Tree, ctx *Context) error {
	for _, pass := range p.passes {
		if err := pass.Apply(tree, ctx); err != nil {
			return wrap(pass.Name(), err, ctx)
		}
	}
	return nil
}

func wrap(pass string, err error, ctx *Context) *Error {
	var te *Error
	if errors.As(err, &te) {
		if te.Pass == "" {
			te.Pass = pass
		}
		return te
	}
	return &Error{
		Pass:    pass,
		Kind:    ErrPassFailed,
		Loc:     ctx.Locate(ast.Pos{}),
		Message: err.Error(),
	}
}

// Gate returns a pass that runs p only when the capability is present.
// Without it the pass does nothing, so a missing module degrades features
// instead of failing compilation.
func Gate(capability string, p Pass) Pass {
	return gated{capability: capability, pass: p}
}

type gated struct {
	capability string
	pass       Pass
}

func (g gated) Name() string { return g.pass.Name() }

func (g gated) Apply(tree *ast.Tree, ctx *Context) error {
	if !ctx.Capabilities.Has(g.capability) {
		return nil
	}
	return g.pass.Apply(tree, ctx)
}

// PassFunc adapts a function to Pass.
type PassFunc struct {
	PassName string
	Fn       func(tree *ast.Tree, ctx *Context) error
}

// Name implements Pass.
func (p PassFunc) Name() string { return p.PassName }

// Apply implements Pass.
func (p PassFunc) Apply(tree *ast.Tree, ctx *Context) error { return p.Fn(tree, ctx) }
