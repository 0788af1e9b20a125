// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"fmt"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/glsl"
	"github.com/gogpu/shaderpack/preprocess"
	"github.com/gogpu/shaderpack/shader"
)

// Context is the state one stage's pipeline run shares between passes. It
// is owned by a single compilation.
type Context struct {
	Stage  shader.Stage
	Source shader.Source
	// Lines maps tree positions back to pack files.
	Lines preprocess.LineMap

	// Target is the minimum version of the emitted source.
	Target glsl.Version

	// Bindings is shared by all stages of a program.
	Bindings     *binding.Table
	Capabilities bridge.Capabilities
	HostInputs   []binding.HostInput

	// Diagnostics collects info and warning messages. Errors are returned.
	Diagnostics *diag.List
}

// NewContext returns a context for stage with the default host inputs, a
// 330 core target and no capabilities.
func NewContext(stage shader.Stage, table *binding.Table) *Context {
	if table == nil {
		table = binding.NewTable()
	}
	return &Context{
		Stage:       stage,
		Target:      glsl.Version330,
		Bindings:    table,
		HostInputs:  binding.DefaultHostInputs(),
		Diagnostics: new(diag.List),
	}
}

// ForSource returns a context for a preprocessed stage source.
func ForSource(res *preprocess.Result, table *binding.Table) *Context {
	ctx := NewContext(res.Source.Stage, table)
	ctx.Source = res.Source
	ctx.Lines = res.Lines
	return ctx
}

func (c *Context) file() string {
	if c.Source.Path != "" {
		return c.Source.Path
	}
	return c.Source.Name
}

// Locate maps a tree position to the original pack location. Injected
// nodes have no position and map to the file alone.
func (c *Context) Locate(pos ast.Pos) diag.Location {
	if pos.Line == 0 {
		return diag.Location{File: c.file()}
	}
	if loc := c.Lines.Locate(pos.Line, pos.Column); loc.Line != 0 {
		return loc
	}
	return diag.Location{File: c.file(), Line: pos.Line, Column: pos.Column}
}

func (c *Context) infof(pos ast.Pos, format string, args ...any) {
	c.Diagnostics.Infof("transform", c.Locate(pos), format, args...)
}

func (c *Context) warnf(pos ast.Pos, format string, args ...any) {
	c.Diagnostics.Warnf("transform", c.Locate(pos), format, args...)
}

// fail returns an *Error; the pipeline fills in the pass name.
func (c *Context) fail(kind error, pos ast.Pos, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Pos:     pos,
		Loc:     c.Locate(pos),
		Message: fmt.Sprintf(format, args...),
	}
}
