// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/glsl"
	"github.com/gogpu/shaderpack/preprocess"
	"github.com/gogpu/shaderpack/shader"
)

// parseStage preprocesses and parses text and returns a context sharing
// table.
func parseStage(t *testing.T, stage shader.Stage, text string, table *binding.Table) (*ast.Tree, *Context) {
	t.Helper()
	src := shader.Source{Name: "test", Stage: stage, Path: "test." + stage.String(), Text: text}
	res, err := preprocess.Preprocess(src, shader.OptionSet{}, preprocess.DefaultConfig())
	require.NoError(t, err)
	tree, err := glsl.Parse(res)
	require.NoError(t, err)
	return tree, ForSource(res, table)
}

func parse(t *testing.T, stage shader.Stage, text string) (*ast.Tree, *Context) {
	t.Helper()
	return parseStage(t, stage, text, binding.NewTable())
}

// requireTransformError checks err is an *Error of kind from pass.
func requireTransformError(t *testing.T, err error, pass string, kind error) *Error {
	t.Helper()
	require.Error(t, err)
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, pass, te.Pass)
	assert.ErrorIs(t, err, kind)
	return te
}

func TestPipelineStopsAtFirstError(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, "#version 330 core\nvoid main() {}\n")

	var ran []string
	record := func(name string, err error) Pass {
		return PassFunc{PassName: name, Fn: func(*ast.Tree, *Context) error {
			ran = append(ran, name)
			return err
		}}
	}
	p := NewPipeline(record("first", nil), record("second", errors.New("boom")), record("third", nil))

	err := p.Run(tree, ctx)
	te := requireTransformError(t, err, "second", ErrPassFailed)
	assert.Equal(t, "boom", te.Message)
	assert.Equal(t, "test.fragment", te.Loc.File)
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestDefaultPipelineOrder(t *testing.T) {
	var names []string
	for _, p := range Default().Passes() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{
		"version", "collision", "legacy", "binding",
		"fluid-data", "secondary-lighting", "reference",
	}, names)
}

func TestGate(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, "#version 330 core\nvoid main() {}\n")

	calls := 0
	inner := PassFunc{PassName: "inner", Fn: func(*ast.Tree, *Context) error {
		calls++
		return nil
	}}
	gated := Gate("some-capability", inner)
	assert.Equal(t, "inner", gated.Name())

	require.NoError(t, gated.Apply(tree, ctx))
	assert.Equal(t, 0, calls)

	ctx.Capabilities = bridge.NewCapabilities("some-capability")
	require.NoError(t, gated.Apply(tree, ctx))
	assert.Equal(t, 1, calls)
}

func TestVersionPass(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		target     glsl.Version
		want       string
		extensions []string
		infos      int
	}{
		{
			name:   "raises old version",
			source: "#version 120\nvoid main() {}\n",
			target: glsl.Version330,
			want:   "330 core",
			infos:  1,
		},
		{
			name:   "keeps newer version",
			source: "#version 450 core\nvoid main() {}\n",
			target: glsl.Version330,
			want:   "450 core",
		},
		{
			name:   "defaults missing version",
			source: "void main() {}\n",
			target: glsl.Version330,
			want:   "330 core",
			infos:  1,
		},
		{
			name:   "drops compatibility profile",
			source: "#version 400 compatibility\nvoid main() {}\n",
			target: glsl.Version330,
			want:   "400 core",
			infos:  1,
		},
		{
			name:   "switches to es",
			source: "#version 330 core\nvoid main() {}\n",
			target: glsl.VersionES300,
			want:   "300 es",
			infos:  1,
		},
		{
			name: "drops core and duplicate extensions",
			source: `#version 330 core
#extension GL_ARB_explicit_attrib_location : enable
#extension GL_ARB_gpu_shader5 : enable
#extension GL_ARB_gpu_shader5 : require
#extension GL_EXT_texture_array : enable
void main() {}
`,
			target:     glsl.Version330,
			want:       "330 core",
			extensions: []string{"GL_ARB_gpu_shader5"},
			infos:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, ctx := parse(t, shader.StageFragment, tt.source)
			ctx.Target = tt.target

			require.NoError(t, VersionPass{}.Apply(tree, ctx))
			assert.Equal(t, tt.want, tree.Version.String())

			var exts []string
			for _, e := range tree.Extensions {
				exts = append(exts, e.Name)
			}
			assert.Equal(t, tt.extensions, exts)
			assert.Equal(t, tt.infos, ctx.Diagnostics.Count(diag.SeverityInfo))
		})
	}
}

func TestVersionPassKeepsPosition(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, "// header\n#version 120\nvoid main() {}\n")
	before := tree.Version.Pos
	require.NoError(t, VersionPass{}.Apply(tree, ctx))
	assert.Equal(t, before, tree.Version.Pos)
	require.Len(t, *ctx.Diagnostics, 1)
	assert.Equal(t, 2, (*ctx.Diagnostics)[0].Location.Line)
}

func TestCollisionPass(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, `#version 120
uniform float host_gain;
float sample;
float texture(vec2 uv);
float texture(vec3 uvw) { return uvw.x; }
float texture(vec2 uv) { return uv.x * host_gain; }
void main() { sample = texture(vec2(0.0)) + texture(vec3(1.0)); }
`)
	ctx.Target = glsl.Version430

	require.NoError(t, CollisionPass{}.Apply(tree, ctx))

	out := glsl.Emit(tree)
	assert.Contains(t, out, "uniform float host_gain_1;")
	assert.Contains(t, out, "float sample_2;")
	assert.Contains(t, out, "float texture_3(vec2 uv);")
	assert.Contains(t, out, "float texture_3(vec3 uvw) {")
	assert.Contains(t, out, "return uv.x * host_gain_1;")
	assert.Contains(t, out, "sample_2 = texture_3(vec2(0.0)) + texture_3(vec3(1.0));")
	assert.NotContains(t, out, "texture(")

	diags := *ctx.Diagnostics
	require.Len(t, diags, 3)
	assert.Contains(t, diags[0].Message, "renamed 'host_gain' to 'host_gain_1'")
	assert.Equal(t, 2, diags[0].Location.Line)
	assert.Contains(t, diags[1].Message, "reserved in GLSL 430 core")
	assert.Contains(t, diags[2].Message, "shadows a built-in function")
}

func TestCollisionPassSkipsUsedNames(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, `#version 330 core
float host_x;
float host_x_1;
void main() { host_x = host_x_1; }
`)
	require.NoError(t, CollisionPass{}.Apply(tree, ctx))
	assert.Contains(t, glsl.Emit(tree), "host_x_2 = host_x_1_3;")
}

func TestLegacyPassVertex(t *testing.T) {
	tree, ctx := parse(t, shader.StageVertex, `#version 120
attribute vec3 offset;
varying vec4 color;
void main() {
    color = gl_Color;
    gl_Position = gl_ModelViewProjectionMatrix * (gl_Vertex + vec4(offset, 0.0));
}
`)
	require.NoError(t, Default().Run(tree, ctx))

	want := `#version 330 core
uniform float frameTimeCounter;
uniform mat4 gbufferModelView;
uniform mat4 gbufferProjection;
uniform mat4 host_ModelViewMatrix;
uniform mat4 host_ProjectionMatrix;
layout(location = 0) in vec4 host_Vertex;
layout(location = 1) in vec4 host_Color;
layout(location = 2) in vec3 offset;
out vec4 color;

void main() {
    color = host_Color;
    gl_Position = host_ProjectionMatrix * host_ModelViewMatrix * (host_Vertex + vec4(offset, 0.0));
}
`
	assert.Equal(t, want, glsl.Emit(tree))
}

func TestLegacyPassFtransform(t *testing.T) {
	tree, ctx := parse(t, shader.StageVertex, "#version 120\nvoid main() { gl_Position = ftransform(); }\n")
	require.NoError(t, Default().Run(tree, ctx))
	assert.Contains(t, glsl.Emit(tree), "gl_Position = host_ProjectionMatrix * host_ModelViewMatrix * host_Vertex;")
}

func TestLegacyPassFragment(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, `#version 120
varying vec4 color;
uniform sampler2D tex;
uniform sampler2DShadow shadowTex;
void main() {
    vec4 c = texture2D(tex, color.xy) * shadow2D(shadowTex, color.xyz).r;
    gl_FragData[1] = c;
    gl_FragColor = c;
}
`)
	require.NoError(t, Default().Run(tree, ctx))

	out := glsl.Emit(tree)
	assert.Contains(t, out, "layout(location = 0) out vec4 host_FragData0;\nlayout(location = 1) out vec4 host_FragData1;\n")
	assert.Contains(t, out, "\nin vec4 color;\n")
	assert.Contains(t, out, "vec4 c = texture(tex, color.xy) * vec4(texture(shadowTex, color.xyz)).r;")
	assert.Contains(t, out, "host_FragData1 = c;")
	assert.Contains(t, out, "host_FragData0 = c;")
	assert.NotContains(t, out, "gl_Frag")

	b, ok := ctx.Bindings.Lookup(binding.KindOutput, "host_FragData1")
	require.True(t, ok)
	assert.Equal(t, 1, b.Slot.Index)
}

func TestLegacyPassRejectsDynamicFragData(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, `#version 120
uniform int target;
void main() {
    gl_FragData[target] = vec4(1.0);
}
`)
	err := Default().Run(tree, ctx)
	te := requireTransformError(t, err, "legacy", ErrUnresolvedReference)
	assert.Equal(t, 4, te.Loc.Line)
	assert.Contains(t, te.Message, "constant integer")
}

func TestLegacyPassSkippedForLegacyTarget(t *testing.T) {
	src := "#version 120\nvarying vec4 color;\nvoid main() { gl_FragColor = texture2D(t, color.xy); }\n"
	tree, ctx := parse(t, shader.StageFragment, src)
	ctx.Target = glsl.Version120
	before := glsl.Emit(tree)
	require.NoError(t, LegacyPass{}.Apply(tree, ctx))
	assert.Equal(t, before, glsl.Emit(tree))
}

func TestLegacyPassTextureMatrix(t *testing.T) {
	tree, ctx := parse(t, shader.StageVertex, `#version 120
varying vec2 uv;
void main() {
    uv = (gl_TextureMatrix[1] * gl_MultiTexCoord1).xy;
    gl_Position = ftransform();
}
`)
	require.NoError(t, Default().Run(tree, ctx))

	out := glsl.Emit(tree)
	assert.Contains(t, out, "uniform mat4 host_TextureMatrix1;\n")
	assert.Contains(t, out, "host_TextureMatrix1 * host_MultiTexCoord1")
	assert.NotContains(t, out, "host_TextureMatrix0")
	assert.NotContains(t, out, "gl_TextureMatrix")

	b, ok := ctx.Bindings.Lookup(binding.KindUniform, binding.TextureMatrixPrefix+"1")
	require.True(t, ok)
	assert.True(t, b.Injected)
}

func TestLegacyPassRejectsIndices(t *testing.T) {
	tests := []struct {
		name    string
		stage   shader.Stage
		body    string
		message string
	}{
		{"texture matrix out of range", shader.StageVertex, "gl_Position = gl_TextureMatrix[2] * gl_Vertex;", "gl_TextureMatrix[2] is not provided by the host"},
		{"dynamic texture matrix", shader.StageVertex, "gl_Position = gl_TextureMatrix[unit] * gl_Vertex;", "gl_TextureMatrix index must be a constant integer"},
		{"texture coordinate out of range", shader.StageVertex, "gl_TexCoord[8] = gl_Vertex;", "gl_TexCoord[8] is out of range"},
		{"dynamic texture coordinate", shader.StageFragment, "gl_FragColor = gl_TexCoord[unit];", "gl_TexCoord index must be a constant integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, ctx := parse(t, tt.stage, "#version 120\nuniform int unit;\nvoid main() {\n    "+tt.body+"\n}\n")
			te := requireTransformError(t, Default().Run(tree, ctx), "legacy", ErrUnresolvedReference)
			assert.Contains(t, te.Message, tt.message)
			assert.Equal(t, 4, te.Loc.Line)
		})
	}
}

func TestLegacyPassVaryings(t *testing.T) {
	t.Run("vertex writes", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageVertex, `#version 120
void main() {
    gl_TexCoord[0] = gl_MultiTexCoord0;
    gl_FrontColor = gl_Color;
    gl_FogFragCoord = length(gl_Vertex.xyz);
    gl_Position = ftransform();
}
`)
		require.NoError(t, Default().Run(tree, ctx))

		out := glsl.Emit(tree)
		assert.Contains(t, out, "out float host_FogFragCoord;\nout vec4 host_FrontColor;\nout vec4 host_TexCoord0;\n")
		assert.Contains(t, out, "host_TexCoord0 = host_MultiTexCoord0;")
		assert.Contains(t, out, "host_FrontColor = host_Color;")
		assert.Contains(t, out, "host_FogFragCoord = length(host_Vertex.xyz);")
		assert.Contains(t, ctx.Diagnostics.String(), "declared host_TexCoord0 for gl_TexCoord[0]")
	})

	t.Run("fragment reads", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageFragment, `#version 120
uniform sampler2D tex;
void main() {
    gl_FragColor = texture2D(tex, gl_TexCoord[0].xy) * gl_Color;
}
`)
		require.NoError(t, Default().Run(tree, ctx))

		out := glsl.Emit(tree)
		assert.Contains(t, out, "layout(location = 0) out vec4 host_FragData0;\nin vec4 host_FrontColor;\nin vec4 host_TexCoord0;\n")
		assert.Contains(t, out, "host_FragData0 = texture(tex, host_TexCoord0.xy) * host_FrontColor;")
		assert.NotContains(t, out, "gl_")
	})
}

func TestBindingPassInjectsHostInputs(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, `#version 330 core
uniform float frameTimeCounter;
uniform sampler2D noise;
out vec4 fragColor;
void main() { fragColor = texture(noise, vec2(frameTimeCounter)) * texture(gtexture, vec2(0.0)); }
`)
	require.NoError(t, BindingPass{}.Apply(tree, ctx))

	out := glsl.Emit(tree)
	assert.Contains(t, out, "#version 330 core\nuniform mat4 gbufferModelView;\nuniform mat4 gbufferProjection;\nuniform sampler2D gtexture;\nuniform float frameTimeCounter;\n")
	assert.Contains(t, out, "layout(location = 0) out vec4 fragColor;")

	tests := []struct {
		kind     binding.Kind
		name     string
		index    int
		injected bool
	}{
		{binding.KindUniform, "gbufferModelView", 0, true},
		{binding.KindUniform, "gbufferProjection", 1, true},
		{binding.KindSampler, "gtexture", 0, true},
		{binding.KindUniform, "frameTimeCounter", 2, false},
		{binding.KindSampler, "noise", 1, false},
		{binding.KindOutput, "fragColor", 0, false},
	}
	for _, tt := range tests {
		b, ok := ctx.Bindings.Lookup(tt.kind, tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.index, b.Slot.Index, tt.name)
		assert.Equal(t, tt.injected, b.Injected, tt.name)
	}
	assert.Equal(t, len(tests), ctx.Bindings.Len())
	assert.NoError(t, ctx.Bindings.Validate())

	// The pack's use of gtexture resolves to the injected declaration.
	for _, h := range tree.Idents() {
		id := tree.Expr(h).Kind.(*ast.Ident)
		assert.True(t, id.Decl.Valid(), id.Name)
	}
}

func TestBindingPassErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   error
		detail string
		line   int
	}{
		{
			name:   "host uniform with wrong type",
			source: "#version 330 core\nuniform int frameTimeCounter;\nvoid main() {}\n",
			kind:   ErrBindingTypeConflict,
			detail: "'frameTimeCounter' is declared int but the host provides float",
			line:   2,
		},
		{
			name:   "host uniform with wrong storage",
			source: "#version 330 core\n\nin float frameTimeCounter;\nvoid main() {}\n",
			kind:   ErrBindingTypeConflict,
			detail: "declared in but the host provides it as uniform",
			line:   3,
		},
		{
			name:   "host uniform declared as function",
			source: "#version 330 core\nfloat worldTime() { return 0.0; }\nvoid main() {}\n",
			kind:   ErrBindingTypeConflict,
			detail: "reserved for a host uniform int",
			line:   2,
		},
		{
			name:   "host uniform in block with wrong type",
			source: "#version 330 core\nuniform Globals { vec4 fogColor; };\nvoid main() {}\n",
			kind:   ErrBindingTypeConflict,
			detail: "declared vec4 in block Globals",
			line:   2,
		},
		{
			name:   "duplicate explicit location",
			source: "#version 330 core\nlayout(location = 0) out vec4 a;\nlayout(location = 0) out vec4 b;\nvoid main() {}\n",
			kind:   ErrSlotConflict,
			detail: "output#0",
			line:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, ctx := parse(t, shader.StageFragment, tt.source)
			te := requireTransformError(t, Default().Run(tree, ctx), "binding", tt.kind)
			assert.Contains(t, te.Message, tt.detail)
			assert.Equal(t, tt.line, te.Loc.Line)
		})
	}
}

func TestBindingPassHonoursExplicitSlots(t *testing.T) {
	tree, ctx := parse(t, shader.StageFragment, `#version 330 core
out vec4 albedo;
layout(location = 0) out vec4 normal;
layout(location = BAD) out vec4 extra;
void main() {}
`)
	require.NoError(t, BindingPass{}.Apply(tree, ctx))

	out := glsl.Emit(tree)
	assert.Contains(t, out, "layout(location = 1) out vec4 albedo;")
	assert.Contains(t, out, "layout(location = 0) out vec4 normal;")
	assert.Contains(t, out, "layout(location = 2) out vec4 extra;")
	assert.Equal(t, 1, ctx.Diagnostics.Count(diag.SeverityWarning))
}

func TestBindingPassWideLocations(t *testing.T) {
	t.Run("matrix attribute", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageVertex, `#version 330 core
in mat4 instanceMatrix;
in vec3 position;
void main() { gl_Position = instanceMatrix * vec4(position, 1.0); }
`)
		require.NoError(t, BindingPass{}.Apply(tree, ctx))

		out := glsl.Emit(tree)
		assert.Contains(t, out, "layout(location = 0) in mat4 instanceMatrix;")
		assert.Contains(t, out, "layout(location = 4) in vec3 position;")
		assert.NoError(t, ctx.Bindings.Validate())
	})

	t.Run("output array", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageFragment, `#version 330 core
out vec4 outColor[2];
out vec4 extra;
void main() { outColor[0] = vec4(1.0); outColor[1] = vec4(0.0); extra = vec4(0.5); }
`)
		require.NoError(t, BindingPass{}.Apply(tree, ctx))

		out := glsl.Emit(tree)
		assert.Contains(t, out, "layout(location = 0) out vec4 outColor[2];")
		assert.Contains(t, out, "layout(location = 2) out vec4 extra;")
	})

	t.Run("explicit overlap", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageVertex, `#version 330 core
layout(location = 0) in mat3 basis;
layout(location = 2) in vec3 position;
void main() {}
`)
		err := BindingPass{}.Apply(tree, ctx)
		requireTransformError(t, err, "", ErrSlotConflict)
	})
}

func TestBindingPassSharesTableAcrossStages(t *testing.T) {
	table := binding.NewTable()
	vert, vctx := parseStage(t, shader.StageVertex, "#version 330 core\nuniform vec3 tint;\nvoid main() {}\n", table)
	frag, fctx := parseStage(t, shader.StageFragment, "#version 330 core\nuniform vec3 tint;\nuniform float fade;\nvoid main() {}\n", table)

	require.NoError(t, BindingPass{}.Apply(vert, vctx))
	require.NoError(t, BindingPass{}.Apply(frag, fctx))

	tint, ok := table.Lookup(binding.KindUniform, "tint")
	require.True(t, ok)
	fade, ok := table.Lookup(binding.KindUniform, "fade")
	require.True(t, ok)
	assert.NotEqual(t, tint.Slot, fade.Slot)
	assert.NoError(t, table.Validate())

	other, octx := parseStage(t, shader.StageFragment, "#version 330 core\nuniform vec4 tint;\nvoid main() {}\n", table)
	requireTransformError(t, Default().Run(other, octx), "binding", ErrBindingTypeConflict)
}

func TestGatedPasses(t *testing.T) {
	vertex := "#version 330 core\nvoid main() { gl_Position = vec4(0.0); }\n"
	fragment := "#version 330 core\nout vec4 c;\nvoid main() { c = vec4(1.0); }\n"

	tests := []struct {
		name    string
		stage   shader.Stage
		source  string
		caps    []string
		present []string
		absent  []string
	}{
		{
			name:   "fluid data unset",
			stage:  shader.StageVertex,
			source: vertex,
			absent: []string{binding.FluidData},
		},
		{
			name:    "fluid data set",
			stage:   shader.StageVertex,
			source:  vertex,
			caps:    []string{bridge.CapExtendedFluidData},
			present: []string{"layout(location = 0) in vec4 host_FluidData;"},
		},
		{
			name:   "fluid data ignores fragment stage",
			stage:  shader.StageFragment,
			source: fragment,
			caps:   []string{bridge.CapExtendedFluidData},
			absent: []string{binding.FluidData},
		},
		{
			name:   "secondary lighting unset",
			stage:  shader.StageFragment,
			source: fragment,
			absent: []string{binding.SecondaryLight, binding.SecondaryLightTex},
		},
		{
			name:   "secondary lighting set",
			stage:  shader.StageFragment,
			source: fragment,
			caps:   []string{bridge.CapSecondaryLightingBuffer},
			present: []string{
				"layout(location = 1) out vec4 host_SecondaryLight;",
				"uniform sampler2D host_SecondaryLightTex;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, ctx := parse(t, tt.stage, tt.source)
			ctx.Capabilities = bridge.NewCapabilities(tt.caps...)
			require.NoError(t, Default().Run(tree, ctx))

			out := glsl.Emit(tree)
			for _, s := range tt.present {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
				for _, b := range ctx.Bindings.Bindings() {
					assert.NotEqual(t, s, b.Name)
				}
			}
			assert.NoError(t, ctx.Bindings.Validate())
		})
	}
}

func TestReferencePass(t *testing.T) {
	t.Run("unresolved identifier", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageFragment, "#version 330 core\nout vec4 c;\nvoid main() {\n    c = vec4(missing);\n}\n")
		te := requireTransformError(t, Default().Run(tree, ctx), "reference", ErrUnresolvedReference)
		assert.Equal(t, "'missing' is not declared", te.Message)
		assert.Equal(t, 4, te.Loc.Line)
	})

	t.Run("unknown function warns", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageFragment, "#version 330 core\nout vec4 c;\nvoid main() { c = vec4(helper(1.0)) + vec4(helper(2.0)); }\n")
		require.NoError(t, Default().Run(tree, ctx))
		require.Equal(t, 1, ctx.Diagnostics.Count(diag.SeverityWarning))
		assert.Contains(t, ctx.Diagnostics.String(), "call to undeclared function 'helper'")
	})

	t.Run("missing entry point", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageVertex, "#version 330 core\nvoid helper() {}\n")
		te := requireTransformError(t, Default().Run(tree, ctx), "reference", ErrMissingEntryPoint)
		assert.Contains(t, te.Error(), "vertex stage has no 'void main()'")
	})

	t.Run("built-ins resolve", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageFragment, "#version 330 core\nout vec4 c;\nvoid main() { c = vec4(gl_FragCoord.xy, 0.0, 1.0); }\n")
		require.NoError(t, Default().Run(tree, ctx))
		assert.Empty(t, *ctx.Diagnostics)
	})

	t.Run("compatibility built-ins need a legacy target", func(t *testing.T) {
		tests := []struct {
			name  string
			stage shader.Stage
			text  string
			ident string
		}{
			{"fog", shader.StageFragment, "#version 120\nvoid main() { gl_FragColor = gl_Fog.color; }\n", "gl_Fog"},
			{"light source", shader.StageVertex, "#version 120\nvoid main() { gl_FrontColor = gl_LightSource[0].diffuse; gl_Position = ftransform(); }\n", "gl_LightSource"},
			{"back color", shader.StageVertex, "#version 120\nvoid main() { gl_BackColor = vec4(1.0); gl_Position = ftransform(); }\n", "gl_BackColor"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tree, ctx := parse(t, tt.stage, tt.text)
				te := requireTransformError(t, Default().Run(tree, ctx), "reference", ErrUnresolvedReference)
				assert.Equal(t, "'"+tt.ident+"' is not available in GLSL 330 core", te.Message)

				tree, ctx = parse(t, tt.stage, tt.text)
				ctx.Target = glsl.Version120
				require.NoError(t, ReferencePass{}.Apply(tree, ctx))
			})
		}
	})

	t.Run("compatibility functions warn under core", func(t *testing.T) {
		src := "#version 330 core\nout vec4 c;\nvoid main() { c = ftransform(); }\n"
		tree, ctx := parse(t, shader.StageFragment, src)
		require.NoError(t, ReferencePass{}.Apply(tree, ctx))
		assert.Contains(t, ctx.Diagnostics.String(), "call to undeclared function 'ftransform'")

		tree, ctx = parse(t, shader.StageFragment, src)
		ctx.Target = glsl.Version120
		require.NoError(t, ReferencePass{}.Apply(tree, ctx))
		assert.Empty(t, *ctx.Diagnostics)
	})

	t.Run("extension built-ins resolve", func(t *testing.T) {
		tree, ctx := parse(t, shader.StageVertex, "#version 330 core\nvoid main() { gl_Position = vec4(float(gl_BaseVertex)); }\n")
		require.NoError(t, ReferencePass{}.Apply(tree, ctx))
	})
}
