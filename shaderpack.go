// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shaderpack rewrites user shader packs so they link against a host
// renderer.
//
// A shader pack is a set of GLSL stage files plus an option set. Each stage
// is preprocessed under the options, parsed into a syntax tree, rewritten by
// a pipeline of transform passes that bind host inputs and modernize legacy
// constructs, and emitted as GLSL again.
//
// Example usage:
//
//	source := `
//	#version 120
//	varying vec2 uv;
//	uniform sampler2D tex;
//	void main() { gl_FragColor = texture2D(tex, uv); }
//	`
//	out, err := shaderpack.Compile(source, shader.StageFragment)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Whole packs, with caching and concurrent compilation, go through the
// session package:
//
//	s := session.New(config.Default())
//	results := s.Compile(ctx, session.Pack{Name: "pack", Files: files}, options)
package shaderpack

import (
	"fmt"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/config"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/glsl"
	"github.com/gogpu/shaderpack/preprocess"
	"github.com/gogpu/shaderpack/shader"
	"github.com/gogpu/shaderpack/transform"
)

// CompileOptions configures single-stage compilation.
type CompileOptions struct {
	Config config.Config

	// Options are the pack options exposed as macros.
	Options shader.OptionSet

	// Capabilities gates the capability-dependent passes.
	Capabilities bridge.Capabilities

	// Include resolves #include directives. Nil disables includes.
	Include preprocess.IncludeResolver
}

// DefaultOptions returns options with the default configuration, no pack
// options and no capabilities.
func DefaultOptions() CompileOptions {
	return CompileOptions{Config: config.Default()}
}

// Output is the result of compiling one stage.
type Output struct {
	Source      string
	Bindings    *binding.Table
	Diagnostics diag.List
}

// Compile rewrites one stage's source using default options and returns
// the emitted GLSL.
func Compile(source string, stage shader.Stage) (string, error) {
	out, err := CompileWithOptions(shader.Source{Name: "main", Stage: stage, Text: source}, DefaultOptions())
	if err != nil {
		return "", err
	}
	return out.Source, nil
}

// CompileWithOptions rewrites one stage's source.
//
// The compilation pipeline is:
//  1. Preprocess directives under the options
//  2. Parse the result to a syntax tree
//  3. Run the default transform pipeline
//  4. Emit GLSL
func CompileWithOptions(src shader.Source, opts CompileOptions) (*Output, error) {
	res, err := Preprocess(src, opts)
	if err != nil {
		return nil, fmt.Errorf("preprocess error: %w", err)
	}

	tree, err := glsl.Parse(res)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	ctx := transform.ForSource(res, binding.NewTable())
	ctx.Target = opts.Config.Target()
	ctx.Capabilities = opts.Capabilities
	*ctx.Diagnostics = append(*ctx.Diagnostics, res.Warnings...)
	if err := Transform(tree, ctx); err != nil {
		return nil, fmt.Errorf("transform error: %w", err)
	}

	return &Output{
		Source:      glsl.Emit(tree),
		Bindings:    ctx.Bindings,
		Diagnostics: *ctx.Diagnostics,
	}, nil
}

// Preprocess resolves directives in src under the options.
func Preprocess(src shader.Source, opts CompileOptions) (*preprocess.Result, error) {
	cfg := opts.Config.Preprocess()
	cfg.Capabilities = opts.Capabilities.Names()
	cfg.Include = opts.Include
	return preprocess.Preprocess(src, opts.Options, cfg)
}

// Transform runs the default pass pipeline over a parsed tree.
func Transform(tree *ast.Tree, ctx *transform.Context) error {
	return transform.Default().Run(tree, ctx)
}
