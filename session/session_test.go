// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/config"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/shader"
	"github.com/gogpu/shaderpack/transform"
)

const (
	vertexSource = `#version 330 core
out vec2 uv;
void main() {
    uv = vec2(0.0);
    gl_Position = vec4(0.0);
}
`
	fragmentSource = `#version 330 core
in vec2 uv;
out vec4 fragColor;
void main() {
    fragColor = vec4(uv, 0.0, 1.0);
}
`
)

func testPack() Pack {
	return Pack{
		Name: "test",
		Files: map[string]string{
			"gbuffers_basic.vsh": vertexSource,
			"gbuffers_basic.fsh": fragmentSource,
			"composite.fsh":      fragmentSource,
		},
	}
}

func noOptions() shader.OptionSet { return shader.OptionSet{} }

func TestCompileUseShadowsScenario(t *testing.T) {
	pack := Pack{Name: "shadows", Files: map[string]string{
		"final.fsh": `#version 330 core
out vec4 fragColor;
void main() {
#ifdef USE_SHADOWS
    vec3 color = shadowColor();
#else
    vec3 color = vec3(0.0);
#endif
    fragColor = vec4(color, 1.0);
}
`,
	}}
	opts := shader.NewOptionSet(map[string]shader.Value{"USE_SHADOWS": shader.Bool(false)})

	results := New(config.Default()).Compile(context.Background(), pack, opts)
	require.Len(t, results, 1)
	r := results["final"]
	require.True(t, r.OK(), r.Diagnostics.String())
	assert.Empty(t, r.Diagnostics)

	src, ok := r.Program.Source(shader.StageFragment)
	require.True(t, ok)
	assert.Equal(t, "final.fsh", src.Path)
	assert.Contains(t, src.Text, "vec3 color = vec3(0.0);")
	assert.NotContains(t, src.Text, "shadowColor")

	for _, name := range []string{"frameTimeCounter", "gbufferModelView", "gbufferProjection"} {
		b, ok := r.Program.Bindings.Lookup(binding.KindUniform, name)
		require.True(t, ok, name)
		assert.True(t, b.Injected, name)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	first := New(config.Default()).Compile(context.Background(), testPack(), noOptions())
	second := New(config.Default()).Compile(context.Background(), testPack(), noOptions())

	require.Len(t, first, 2)
	for name, r := range first {
		require.True(t, r.OK(), r.Diagnostics.String())
		other := second[name]
		require.True(t, other.OK())
		assert.Equal(t, r.Program.Sources, other.Program.Sources, name)
		assert.Equal(t, r.Program.Bindings.Bindings(), other.Program.Bindings.Bindings(), name)
		assert.Equal(t, r.Program.Key, other.Program.Key, name)
	}
}

func TestCompileLinksStages(t *testing.T) {
	results := New(config.Default()).Compile(context.Background(), testPack(), noOptions())
	r := results["gbuffers_basic"]
	require.True(t, r.OK(), r.Diagnostics.String())

	require.Len(t, r.Program.Sources, 2)
	assert.Equal(t, shader.StageVertex, r.Program.Sources[0].Stage)
	assert.Equal(t, shader.StageFragment, r.Program.Sources[1].Stage)

	uv, ok := r.Program.Bindings.Lookup(binding.KindVarying, "uv")
	require.True(t, ok)
	assert.Equal(t, "vec2", uv.Type)
}

func TestCompileCache(t *testing.T) {
	s := New(config.Default())
	ctx := context.Background()

	first := s.Compile(ctx, testPack(), noOptions())
	stats := s.Stats()
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Equal(t, int64(0), stats.CacheHits)
	assert.Equal(t, int64(3), stats.Preprocessed)
	assert.Equal(t, int64(3), stats.Parsed)
	assert.Equal(t, int64(3), stats.Transformed)
	assert.Equal(t, 2, stats.Entries)

	second := s.Compile(ctx, testPack(), noOptions())
	stats = s.Stats()
	assert.Equal(t, int64(2), stats.CacheHits)
	assert.Equal(t, int64(3), stats.Preprocessed, "cache hits do no work")
	for name, r := range second {
		assert.True(t, r.Cached, name)
		assert.Same(t, first[name].Program, r.Program, name)
	}

	// New options miss and replace the stale entries.
	opts := shader.NewOptionSet(map[string]shader.Value{"BLOOM": shader.Bool(true)})
	third := s.Compile(ctx, testPack(), opts)
	stats = s.Stats()
	assert.Equal(t, int64(4), stats.CacheMisses)
	assert.Equal(t, 2, stats.Entries)
	for name, r := range third {
		assert.False(t, r.Cached, name)
	}

	s.Unload("test")
	assert.Equal(t, 0, s.Stats().Entries)
}

func TestCompileCacheSeparatesPacks(t *testing.T) {
	s := New(config.Default())
	ctx := context.Background()
	a, b := testPack(), testPack()
	a.Name, b.Name = "a", "b"

	first := s.Compile(ctx, a, noOptions())
	second := s.Compile(ctx, b, noOptions())
	assert.Equal(t, 4, s.Stats().Entries)
	for name, r := range second {
		require.True(t, r.OK(), name)
		assert.False(t, r.Cached, name)
		assert.NotEqual(t, first[name].Program.Key, r.Program.Key, name)
	}

	// New options for a leave b's entries alone.
	opts := shader.NewOptionSet(map[string]shader.Value{"BLOOM": shader.Bool(true)})
	s.Compile(ctx, a, opts)
	assert.Equal(t, 4, s.Stats().Entries)
	for name, r := range s.Compile(ctx, b, noOptions()) {
		assert.True(t, r.Cached, name)
	}

	s.Unload("a")
	assert.Equal(t, 2, s.Stats().Entries)
	for name, r := range s.Compile(ctx, b, noOptions()) {
		assert.True(t, r.Cached, name)
		assert.Same(t, second[name].Program, r.Program, name)
	}
}

func TestCompileCacheKeyCoversIncludes(t *testing.T) {
	s := New(config.Default())
	pack := Pack{Name: "inc", Files: map[string]string{
		"lib/color.glsl": "vec3 tint() { return vec3(1.0); }\n",
		"final.fsh":      "#version 330 core\n#include \"lib/color.glsl\"\nout vec4 c;\nvoid main() { c = vec4(tint(), 1.0); }\n",
	}}
	first := s.Compile(context.Background(), pack, noOptions())
	require.True(t, first["final"].OK(), first["final"].Diagnostics.String())
	require.Len(t, first, 1, "libraries are not programs")

	pack.Files["lib/color.glsl"] = "vec3 tint() { return vec3(0.5); }\n"
	second := s.Compile(context.Background(), pack, noOptions())
	r := second["final"]
	require.True(t, r.OK())
	assert.False(t, r.Cached)
	src, _ := r.Program.Source(shader.StageFragment)
	assert.Contains(t, src.Text, "return vec3(0.5);")
}

func TestCompileIsolatesFailures(t *testing.T) {
	pack := testPack()
	pack.Files["broken.fsh"] = "#version 330 core\n#frobnicate\nvoid main() {}\n"
	pack.Files["unresolved.fsh"] = "#version 330 core\nout vec4 c;\nvoid main() { c = missing; }\n"

	s := New(config.Default())
	results := s.Compile(context.Background(), pack, noOptions())
	require.Len(t, results, 4)

	assert.True(t, results["gbuffers_basic"].OK())
	assert.True(t, results["composite"].OK())

	tests := []struct {
		program string
		phase   string
		line    int
		message string
	}{
		{"broken", "preprocess", 2, "#frobnicate"},
		{"unresolved", "transform", 3, "'missing' is not declared"},
	}
	for _, tt := range tests {
		r := results[tt.program]
		require.False(t, r.OK(), tt.program)
		assert.Nil(t, r.Program, tt.program)
		errs := r.Diagnostics.Errors()
		require.Len(t, errs, 1, tt.program)
		assert.Equal(t, tt.phase, errs[0].Phase)
		assert.Equal(t, tt.program+".fsh", errs[0].Location.File)
		assert.Equal(t, tt.line, errs[0].Location.Line)
		assert.Contains(t, errs[0].Message, tt.message)
	}
	assert.Equal(t, int64(2), s.Stats().Failures)

	// Failures are cached too.
	again := s.Compile(context.Background(), pack, noOptions())
	assert.True(t, again["broken"].Cached)
	assert.False(t, again["broken"].OK())
	assert.Equal(t, int64(4), s.Stats().Failures)
}

func TestCompileBindingUniqueness(t *testing.T) {
	pack := Pack{Name: "bindings", Files: map[string]string{
		"gbuffers_textured.vsh": `#version 330 core
layout(location = 1) in vec3 position;
in vec2 texcoord;
out vec2 uv;
uniform mat4 model;
void main() { uv = texcoord; gl_Position = gbufferProjection * model * vec4(position, 1.0); }
`,
		"gbuffers_textured.fsh": `#version 330 core
in vec2 uv;
uniform sampler2D albedo;
uniform sampler2D normals;
uniform mat4 model;
out vec4 color;
out vec4 normal;
void main() { color = texture(albedo, uv) * texture(gtexture, uv); normal = texture(normals, uv); }
`,
	}}
	results := New(config.Default()).Compile(context.Background(), pack, noOptions())
	r := results["gbuffers_textured"]
	require.True(t, r.OK(), r.Diagnostics.String())
	require.NoError(t, r.Program.Bindings.Validate())

	seen := make(map[binding.Slot]string)
	for _, b := range r.Program.Bindings.Bindings() {
		owner, dup := seen[b.Slot]
		assert.False(t, dup, "%s and %s share %s", owner, b.Name, b.Slot)
		seen[b.Slot] = b.Name
	}

	position, ok := r.Program.Bindings.Lookup(binding.KindAttribute, "position")
	require.True(t, ok)
	assert.Equal(t, 1, position.Slot.Index)
	texcoord, ok := r.Program.Bindings.Lookup(binding.KindAttribute, "texcoord")
	require.True(t, ok)
	assert.Equal(t, 0, texcoord.Slot.Index)
}

func TestCompileCapabilityGating(t *testing.T) {
	pack := Pack{Name: "water", Files: map[string]string{
		"gbuffers_water.vsh": "#version 330 core\nvoid main() { gl_Position = vec4(0.0); }\n",
		"gbuffers_water.fsh": "#version 330 core\nout vec4 c;\nvoid main() { c = vec4(1.0); }\n",
	}}
	injected := []string{binding.FluidData, binding.SecondaryLight, binding.SecondaryLightTex}

	s := New(config.Default())
	r := s.Compile(context.Background(), pack, noOptions())["gbuffers_water"]
	require.True(t, r.OK(), r.Diagnostics.String())
	for _, src := range r.Program.Sources {
		for _, name := range injected {
			assert.NotContains(t, src.Text, name)
		}
	}

	old := s.Reload(bridge.NewState(bridge.NewCapabilities(
		bridge.CapExtendedFluidData, bridge.CapSecondaryLightingBuffer)))
	assert.False(t, old.Active())

	r = s.Compile(context.Background(), pack, noOptions())["gbuffers_water"]
	require.True(t, r.OK(), r.Diagnostics.String())
	assert.False(t, r.Cached, "capabilities are part of the cache key")
	vert, _ := r.Program.Source(shader.StageVertex)
	frag, _ := r.Program.Source(shader.StageFragment)
	assert.Contains(t, vert.Text, "in vec4 host_FluidData;")
	assert.Contains(t, frag.Text, "out vec4 host_SecondaryLight;")
	assert.Contains(t, frag.Text, "uniform sampler2D host_SecondaryLightTex;")
}

func TestCompileCombinedFile(t *testing.T) {
	pack := Pack{Name: "combined", Files: map[string]string{
		"lib/common.glsl": "float luma(vec3 c) { return dot(c, vec3(0.299, 0.587, 0.114)); }\n",
		"final.glsl": `#shader vertex
#version 330 core
out vec3 color;
void main() { color = vec3(1.0); gl_Position = vec4(0.0); }
#shader fragment
#version 330 core
#include "lib/common.glsl"
in vec3 color;
out vec4 c;
void main() { c = vec4(luma(color)); }
`,
	}}
	results := New(config.Default()).Compile(context.Background(), pack, noOptions())
	require.Len(t, results, 1)
	r := results["final"]
	require.True(t, r.OK(), r.Diagnostics.String())
	require.Len(t, r.Program.Sources, 2)
	frag, _ := r.Program.Source(shader.StageFragment)
	assert.Equal(t, "final.glsl", frag.Path)
	assert.Contains(t, frag.Text, "float luma(vec3 c) {")
}

func TestCompileDuplicateStage(t *testing.T) {
	pack := Pack{Name: "dup", Files: map[string]string{
		"sky.vsh":  vertexSource,
		"sky.vert": vertexSource,
	}}
	r := New(config.Default()).Compile(context.Background(), pack, noOptions())["sky"]
	require.False(t, r.OK())
	assert.Contains(t, r.Diagnostics.String(), "duplicate vertex stage in sky.vert and sky.vsh")
}

func TestCompileRecoversPanics(t *testing.T) {
	boom := transform.PassFunc{PassName: "boom", Fn: func(_ *ast.Tree, ctx *transform.Context) error {
		if ctx.Source.Name == "composite" {
			panic("pass exploded")
		}
		return nil
	}}
	pipeline := transform.NewPipeline(append(transform.Default().Passes(), boom)...)

	results := New(config.Default(), WithPipeline(pipeline)).Compile(context.Background(), testPack(), noOptions())
	require.Len(t, results, 2)
	assert.True(t, results["gbuffers_basic"].OK())

	r := results["composite"]
	require.False(t, r.OK())
	errs := r.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "session", errs[0].Phase)
	assert.Equal(t, "internal error: pass exploded", errs[0].Message)
}

func TestCompileRecoveredPanicKeepsDiagnostics(t *testing.T) {
	boom := transform.PassFunc{PassName: "boom", Fn: func(_ *ast.Tree, ctx *transform.Context) error {
		if ctx.Stage == shader.StageFragment {
			panic("pass exploded")
		}
		return nil
	}}
	pipeline := transform.NewPipeline(append(transform.Default().Passes(), boom)...)
	pack := Pack{Name: "warn", Files: map[string]string{
		"sky.vsh": "#version 330 core\nout vec2 uv;\nvoid main() { uv = vec2(0.0); gl_Position = vec4(helper()); }\n",
		"sky.fsh": fragmentSource,
	}}

	r := New(config.Default(), WithPipeline(pipeline)).Compile(context.Background(), pack, noOptions())["sky"]
	require.False(t, r.OK())
	assert.Equal(t, 1, r.Diagnostics.Count(diag.SeverityWarning))
	assert.Contains(t, r.Diagnostics.String(), "call to undeclared function 'helper'")

	errs := r.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "internal error: pass exploded", errs[0].Message)
	assert.Equal(t, diag.SeverityError, r.Diagnostics[len(r.Diagnostics)-1].Severity, "the error comes last")
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(config.Default()).Compile(ctx, testPack(), noOptions())
	require.Len(t, results, 2)
	for name, r := range results {
		assert.False(t, r.OK(), name)
		assert.Contains(t, r.Diagnostics.String(), "compile canceled", name)
	}
}

func TestCompileWithHostInputs(t *testing.T) {
	inputs := []binding.HostInput{{Name: "exposure", Kind: binding.KindUniform, Type: "float", InjectAlways: true}}
	s := New(config.Default(), WithHostInputs(inputs))
	r := s.Compile(context.Background(), testPack(), noOptions())["composite"]
	require.True(t, r.OK(), r.Diagnostics.String())

	_, ok := r.Program.Bindings.Lookup(binding.KindUniform, "exposure")
	assert.True(t, ok)
	_, ok = r.Program.Bindings.Lookup(binding.KindUniform, "frameTimeCounter")
	assert.False(t, ok)
}

func TestCompileLogsRun(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(config.Default(), WithLogger(logger))

	s.Compile(context.Background(), testPack(), noOptions())
	s.Compile(context.Background(), testPack(), noOptions())

	out := buf.String()
	assert.Contains(t, out, "msg=\"cache miss\"")
	assert.Contains(t, out, "msg=\"cache hit\"")
	assert.Contains(t, out, "msg=\"pack compiled\"")
	assert.Contains(t, out, "run=")
	assert.Contains(t, out, "pack=test")
}

func TestBuild(t *testing.T) {
	var compiled []string
	compiler := CompilerFunc(func(_ context.Context, src StageSources) (bridge.ProgramHandle, error) {
		compiled = append(compiled, src.Program)
		if src.Program == "composite" {
			return 0, &GpuCompileError{Program: src.Program, Stage: shader.StageFragment, Log: "0:3: syntax error"}
		}
		assert.NotEmpty(t, src.Bindings)
		return bridge.ProgramHandle(len(compiled)), nil
	})

	s := New(config.Default())
	results := s.Build(context.Background(), testPack(), noOptions(), compiler)
	assert.Equal(t, []string{"composite", "gbuffers_basic"}, compiled)

	ok := results["gbuffers_basic"]
	assert.True(t, ok.OK())
	assert.Equal(t, bridge.ProgramHandle(2), ok.Handle)
	h, found := s.LookupProgram("gbuffers_basic")
	assert.True(t, found)
	assert.Equal(t, bridge.ProgramHandle(2), h)

	bad := results["composite"]
	assert.False(t, bad.OK())
	assert.NotNil(t, bad.Program)
	errs := bad.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "gpu", errs[0].Phase)
	assert.Equal(t, diag.Location{File: "composite.fsh"}, errs[0].Location)
	assert.Equal(t, "driver rejected fragment stage: 0:3: syntax error", errs[0].Message)
	_, found = s.LookupProgram("composite")
	assert.False(t, found)

	// The cached program is not affected by the host failure.
	again := s.Compile(context.Background(), testPack(), noOptions())["composite"]
	assert.True(t, again.OK())
}

func TestBuildHostError(t *testing.T) {
	compiler := CompilerFunc(func(context.Context, StageSources) (bridge.ProgramHandle, error) {
		return 0, errors.New("context lost")
	})
	results := New(config.Default()).Build(context.Background(), testPack(), noOptions(), compiler)
	for name, r := range results {
		assert.False(t, r.OK(), name)
		assert.Contains(t, r.Diagnostics.String(), "context lost")
	}
}
