// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
)

// InjectPass declares a fixed set of host inputs, assigns their slots and
// wires the pack's uses of them. Run it behind Gate for inputs that exist
// only with a capability.
type InjectPass struct {
	name   string
	inputs []binding.HostInput
}

// NewInjectPass returns a pass injecting inputs.
func NewInjectPass(name string, inputs []binding.HostInput) InjectPass {
	return InjectPass{name: name, inputs: inputs}
}

// FluidDataPass declares the vertex fluid data attribute.
func FluidDataPass() InjectPass {
	return NewInjectPass("fluid-data", binding.FluidDataInputs())
}

// SecondaryLightingPass declares the fragment secondary lighting output and
// its sampler.
func SecondaryLightingPass() InjectPass {
	return NewInjectPass("secondary-lighting", binding.SecondaryLightingInputs())
}

// Name implements Pass.
func (p InjectPass) Name() string { return p.name }

// Inputs returns the inputs the pass declares.
func (p InjectPass) Inputs() []binding.HostInput { return p.inputs }

// Apply implements Pass.
func (p InjectPass) Apply(tree *ast.Tree, ctx *Context) error {
	injected, err := bindHostInputs(tree, ctx, p.inputs)
	if err != nil {
		return err
	}
	// The pack's declarations were assigned by BindingPass.
	return assignRequests(tree, ctx, collectSlotRequests(tree, ctx, injected, true))
}
