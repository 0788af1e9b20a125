// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"fmt"
	"strings"
)

// Stage identifies the pipeline stage a source file targets.
type Stage uint8

const (
	StageUnknown Stage = iota
	StageVertex
	StageGeometry
	StageFragment
	StageCompute
)

// Stages lists the known stages in pipeline order. Linking walks programs in
// this order so that each stage's outputs feed the next stage's inputs.
var Stages = []Stage{StageVertex, StageGeometry, StageFragment, StageCompute}

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Macro returns the predefined preprocessor symbol for the stage.
func (s Stage) Macro() string {
	switch s {
	case StageVertex:
		return "VERTEX_SHADER"
	case StageGeometry:
		return "GEOMETRY_SHADER"
	case StageFragment:
		return "FRAGMENT_SHADER"
	case StageCompute:
		return "COMPUTE_SHADER"
	default:
		return ""
	}
}

// ParseStage parses a stage name as written in "#shader <stage>" markers.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vertex", "vert":
		return StageVertex, nil
	case "geometry", "geom":
		return StageGeometry, nil
	case "fragment", "frag", "pixel":
		return StageFragment, nil
	case "compute", "comp":
		return StageCompute, nil
	default:
		return StageUnknown, fmt.Errorf("shader: unknown stage %q", name)
	}
}

// stageExtensions maps file extensions to stages. Both the short shader-pack
// spellings and the common glslang ones are accepted.
var stageExtensions = map[string]Stage{
	".vsh":  StageVertex,
	".vert": StageVertex,
	".gsh":  StageGeometry,
	".geom": StageGeometry,
	".fsh":  StageFragment,
	".frag": StageFragment,
	".csh":  StageCompute,
	".comp": StageCompute,
}

// StageFromExt returns the stage for a file extension such as ".fsh".
func StageFromExt(ext string) (Stage, bool) {
	s, ok := stageExtensions[strings.ToLower(ext)]
	return s, ok
}
