// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/shaderpack/ast"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / WebGL)
	// Compatibility selects the compatibility profile on desktop 150+.
	Compatibility bool
}

// Common GLSL versions.
var (
	// Desktop OpenGL versions
	Version110 = Version{Major: 1, Minor: 10} // OpenGL 2.0, the default without #version
	Version120 = Version{Major: 1, Minor: 20} // OpenGL 2.1
	Version130 = Version{Major: 1, Minor: 30} // OpenGL 3.0
	Version150 = Version{Major: 1, Minor: 50} // OpenGL 3.2
	Version330 = Version{Major: 3, Minor: 30} // OpenGL 3.3 Core
	Version430 = Version{Major: 4, Minor: 30} // OpenGL 4.3 (compute shaders)
	Version460 = Version{Major: 4, Minor: 60} // OpenGL 4.6

	// OpenGL ES / WebGL versions
	VersionES100 = Version{Major: 1, Minor: 0, ES: true}  // ES 2.0 / WebGL 1.0
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}  // ES 3.0 / WebGL 2.0
	VersionES310 = Version{Major: 3, Minor: 10, ES: true} // ES 3.1 (compute shaders)
	VersionES320 = Version{Major: 3, Minor: 20, ES: true} // ES 3.2
)

var knownVersions = map[int]bool{
	110: true, 120: true, 130: true, 140: true, 150: true,
	330: true, 400: true, 410: true, 420: true, 430: true, 440: true, 450: true, 460: true,
}

var knownESVersions = map[int]bool{100: true, 300: true, 310: true, 320: true}

// ParseVersion parses the value of a #version directive, such as "330 core",
// "300 es" or "120". An empty string yields Version110, the GLSL default.
func ParseVersion(s string) (Version, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Version110, nil
	}
	if len(fields) > 2 {
		return Version{}, fmt.Errorf("malformed version %q", s)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return Version{}, fmt.Errorf("malformed version number %q", fields[0])
	}
	profile := ""
	if len(fields) == 2 {
		profile = fields[1]
	}
	v := Version{Major: uint8(n / 100), Minor: uint8(n % 100)} //nolint:gosec // checked against known versions below

	switch {
	case n == 100:
		if profile != "" {
			return Version{}, fmt.Errorf("version 100 takes no profile, got %q", profile)
		}
		v.ES = true
	case profile == "es":
		if !knownESVersions[n] {
			return Version{}, fmt.Errorf("unknown GLSL ES version %d", n)
		}
		v.ES = true
	case profile == "" || profile == "core" || profile == "compatibility":
		if !knownVersions[n] {
			return Version{}, fmt.Errorf("unknown GLSL version %d", n)
		}
		if profile != "" && n < 150 {
			return Version{}, fmt.Errorf("profile %q requires version 150 or later", profile)
		}
		v.Compatibility = profile == "compatibility"
	default:
		return Version{}, fmt.Errorf("unknown profile %q", profile)
	}
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on error. It is meant for
// constants and tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Number returns the numeric version, e.g. 330 or 300.
func (v Version) Number() int {
	return int(v.Major)*100 + int(v.Minor)
}

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	switch {
	case v.ES && v.Number() == 100:
		return "100"
	case v.ES:
		return fmt.Sprintf("%d es", v.Number())
	case v.Number() < 150:
		return strconv.Itoa(v.Number())
	case v.Compatibility:
		return fmt.Sprintf("%d compatibility", v.Number())
	default:
		return fmt.Sprintf("%d core", v.Number())
	}
}

// versionLessThan returns true if the numeric version is less than number.
func (v Version) versionLessThan(number int) bool {
	return v.Number() < number
}

// AtLeast reports whether v is at least the desktop version desktop or, for
// ES, the ES version es. A zero bound means never.
func (v Version) AtLeast(desktop, es int) bool {
	if v.ES {
		return es != 0 && v.Number() >= es
	}
	return desktop != 0 && v.Number() >= desktop
}

// AllowsLegacy reports whether attribute, varying, gl_FragColor and the
// other pre-1.40 built-ins are available.
func (v Version) AllowsLegacy() bool {
	if v.ES {
		return v.Number() == 100
	}
	return v.versionLessThan(140) || v.Compatibility
}

// SupportsCompute returns true if this version supports compute shaders.
func (v Version) SupportsCompute() bool {
	return v.AtLeast(430, 310)
}

// Less orders versions of the same family.
func (v Version) Less(o Version) bool {
	return v.Number() < o.Number()
}

// AST converts v to the tree representation.
func (v Version) AST() ast.Version {
	av := ast.Version{Number: v.Number()}
	switch {
	case v.ES && v.Number() != 100:
		av.Profile = "es"
	case v.ES:
	case v.Number() < 150:
	case v.Compatibility:
		av.Profile = "compatibility"
	default:
		av.Profile = "core"
	}
	return av
}

// FromAST converts a tree version back. A zero Number yields Version110.
func FromAST(av ast.Version) (Version, error) {
	if av.Number == 0 {
		return Version110, nil
	}
	return ParseVersion(av.String())
}

// coreExtensions maps extensions to the desktop version whose core language
// absorbed them. Directives for these are dropped when targeting that version
// or later.
var coreExtensions = map[string]int{
	"GL_EXT_gpu_shader4":                  130,
	"GL_EXT_texture_array":                130,
	"GL_ARB_shader_texture_lod":           130,
	"GL_ARB_texture_rectangle":            140,
	"GL_ARB_uniform_buffer_object":        140,
	"GL_ARB_draw_instanced":               140,
	"GL_ARB_geometry_shader4":             150,
	"GL_ARB_explicit_attrib_location":     330,
	"GL_ARB_shader_bit_encoding":          330,
	"GL_ARB_gpu_shader5":                  400,
	"GL_ARB_texture_gather":               400,
	"GL_ARB_texture_query_lod":            400,
	"GL_ARB_texture_cube_map_array":       400,
	"GL_ARB_separate_shader_objects":      410,
	"GL_ARB_shading_language_420pack":     420,
	"GL_ARB_shader_image_load_store":      420,
	"GL_ARB_shading_language_packing":     420,
	"GL_ARB_explicit_uniform_location":    430,
	"GL_ARB_compute_shader":               430,
	"GL_ARB_shader_storage_buffer_object": 430,
	"GL_ARB_enhanced_layouts":             440,
	"GL_ARB_shader_draw_parameters":       460,
	"GL_ARB_shader_atomic_counter_ops":    460,
	"GL_ARB_gl_spirv":                     460,
	"GL_ARB_shader_group_vote":            460,
	"GL_ARB_texture_query_levels":         430,
	"GL_ARB_arrays_of_arrays":             430,
	"GL_ARB_shader_image_size":            430,
	"GL_ARB_fragment_layer_viewport":      430,
	"GL_ARB_conservative_depth":           420,
	"GL_ARB_shader_precision":             410,
	"GL_ARB_vertex_attrib_64bit":          410,
	"GL_ARB_gpu_shader_fp64":              400,
	"GL_ARB_sample_shading":               400,
	"GL_ARB_texture_multisample":          150,
	"GL_ARB_fragment_coord_conventions":   150,
}

// IsCore reports whether ext is part of the core language of v. ES targets
// absorb no desktop extensions.
func (v Version) IsCore(ext string) bool {
	since, ok := coreExtensions[ext]
	return ok && since != 0 && !v.ES && v.Number() >= since
}
