// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package binding

import (
	"slices"
	"strings"

	"github.com/gogpu/shaderpack/shader"
)

// HostPrefix starts every name the host injects for its own use. Pack
// declarations using it are renamed.
const HostPrefix = "host_"

// Names of host symbols introduced by transform passes.
const (
	ModelViewMatrix  = "host_ModelViewMatrix"
	ProjectionMatrix = "host_ProjectionMatrix"
	NormalMatrix     = "host_NormalMatrix"
	Vertex           = "host_Vertex"
	Color            = "host_Color"
	Normal           = "host_Normal"
	MultiTexCoord0   = "host_MultiTexCoord0"
	MultiTexCoord1   = "host_MultiTexCoord1"

	// TextureMatrixPrefix is followed by the texture unit, below
	// TextureMatrices.
	TextureMatrixPrefix = "host_TextureMatrix"
	TextureMatrices     = 2

	// Varyings replacing the fixed-function ones. TexCoordPrefix is
	// followed by the coordinate set, below TexCoords.
	TexCoordPrefix = "host_TexCoord"
	TexCoords      = 8
	FrontColor     = "host_FrontColor"
	FogFragCoord   = "host_FogFragCoord"

	// FragDataPrefix is followed by the draw buffer index.
	FragDataPrefix = "host_FragData"

	FluidData         = "host_FluidData"
	SecondaryLight    = "host_SecondaryLight"
	SecondaryLightTex = "host_SecondaryLightTex"
)

// HostInput is a resource the host renderer provides to programs.
type HostInput struct {
	Name string
	Kind Kind
	Type string
	// Stages limits the input to some stages. Empty means every stage.
	Stages []shader.Stage
	// InjectAlways declares the input even when the pack never uses it.
	InjectAlways bool
}

// AppliesTo reports whether the input is available in stage.
func (h HostInput) AppliesTo(stage shader.Stage) bool {
	return len(h.Stages) == 0 || slices.Contains(h.Stages, stage)
}

// Storage returns the GLSL storage qualifier used to declare the input.
func (h HostInput) Storage() string {
	switch h.Kind {
	case KindAttribute:
		return "in"
	case KindOutput:
		return "out"
	default:
		return "uniform"
	}
}

var (
	vertexOnly   = []shader.Stage{shader.StageVertex}
	fragmentOnly = []shader.Stage{shader.StageFragment}
)

// DefaultHostInputs returns the host input catalogue. Time and camera
// uniforms are always declared; the rest only when a program uses them.
func DefaultHostInputs() []HostInput {
	return []HostInput{
		{Name: "frameTimeCounter", Kind: KindUniform, Type: "float", InjectAlways: true},
		{Name: "gbufferModelView", Kind: KindUniform, Type: "mat4", InjectAlways: true},
		{Name: "gbufferProjection", Kind: KindUniform, Type: "mat4", InjectAlways: true},
		{Name: "gbufferModelViewInverse", Kind: KindUniform, Type: "mat4"},
		{Name: "gbufferProjectionInverse", Kind: KindUniform, Type: "mat4"},
		{Name: "cameraPosition", Kind: KindUniform, Type: "vec3"},
		{Name: "sunPosition", Kind: KindUniform, Type: "vec3"},
		{Name: "worldTime", Kind: KindUniform, Type: "int"},
		{Name: "viewWidth", Kind: KindUniform, Type: "float"},
		{Name: "viewHeight", Kind: KindUniform, Type: "float"},
		{Name: "fogColor", Kind: KindUniform, Type: "vec3"},
		{Name: "fogStart", Kind: KindUniform, Type: "float"},
		{Name: "fogEnd", Kind: KindUniform, Type: "float"},
		{Name: "gtexture", Kind: KindSampler, Type: "sampler2D", Stages: fragmentOnly},
		{Name: "lightmap", Kind: KindSampler, Type: "sampler2D", Stages: fragmentOnly},

		{Name: ModelViewMatrix, Kind: KindUniform, Type: "mat4"},
		{Name: ProjectionMatrix, Kind: KindUniform, Type: "mat4"},
		{Name: NormalMatrix, Kind: KindUniform, Type: "mat3"},
		{Name: TextureMatrixPrefix + "0", Kind: KindUniform, Type: "mat4"},
		{Name: TextureMatrixPrefix + "1", Kind: KindUniform, Type: "mat4"},
		{Name: Vertex, Kind: KindAttribute, Type: "vec4", Stages: vertexOnly},
		{Name: Color, Kind: KindAttribute, Type: "vec4", Stages: vertexOnly},
		{Name: Normal, Kind: KindAttribute, Type: "vec3", Stages: vertexOnly},
		{Name: MultiTexCoord0, Kind: KindAttribute, Type: "vec4", Stages: vertexOnly},
		{Name: MultiTexCoord1, Kind: KindAttribute, Type: "vec4", Stages: vertexOnly},
	}
}

// FluidDataInputs are declared when the extended-fluid-data capability is
// present.
func FluidDataInputs() []HostInput {
	return []HostInput{
		{Name: FluidData, Kind: KindAttribute, Type: "vec4", Stages: vertexOnly, InjectAlways: true},
	}
}

// SecondaryLightingInputs are declared when the secondary-lighting-buffers
// capability is present.
func SecondaryLightingInputs() []HostInput {
	return []HostInput{
		{Name: SecondaryLight, Kind: KindOutput, Type: "vec4", Stages: fragmentOnly, InjectAlways: true},
		{Name: SecondaryLightTex, Kind: KindSampler, Type: "sampler2D", Stages: fragmentOnly, InjectAlways: true},
	}
}

// IsHostName reports whether name is reserved for host symbols.
func IsHostName(name string) bool {
	return strings.HasPrefix(name, HostPrefix)
}

// Find returns the input named name from inputs.
func Find(inputs []HostInput, name string) (HostInput, bool) {
	for _, in := range inputs {
		if in.Name == name {
			return in, true
		}
	}
	return HostInput{}, false
}
