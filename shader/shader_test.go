// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageFromExt(t *testing.T) {
	tests := []struct {
		ext  string
		want Stage
		ok   bool
	}{
		{".vsh", StageVertex, true},
		{".FSH", StageFragment, true},
		{".geom", StageGeometry, true},
		{".comp", StageCompute, true},
		{".glsl", StageUnknown, false},
	}
	for _, tt := range tests {
		got, ok := StageFromExt(tt.ext)
		assert.Equal(t, tt.ok, ok, tt.ext)
		assert.Equal(t, tt.want, got, tt.ext)
	}
}

func TestStageMacro(t *testing.T) {
	assert.Equal(t, "FRAGMENT_SHADER", StageFragment.Macro())
	assert.Equal(t, "", StageUnknown.Macro())
	_, err := ParseStage("tessellation")
	assert.Error(t, err)
}

func TestSourceHash(t *testing.T) {
	a := Source{Name: "p", Stage: StageVertex, Path: "p.vsh", Text: "void main() {}"}
	b := a
	assert.Equal(t, a.Hash(), b.Hash())

	b.Text += "\n"
	assert.NotEqual(t, a.Hash(), b.Hash())

	c := a
	c.Stage = StageFragment
	assert.NotEqual(t, a.Hash(), c.Hash())

	assert.Equal(t, HashAll([]Source{a, c}), HashAll([]Source{a, c}))
	assert.NotEqual(t, HashAll([]Source{a, c}), HashAll([]Source{c, a}))
}

func TestOptionSetImmutable(t *testing.T) {
	base := NewOptionSet(map[string]Value{"USE_SHADOWS": Bool(true)})
	next := base.With("USE_SHADOWS", Bool(false))

	v, ok := base.Get("USE_SHADOWS")
	require.True(t, ok)
	assert.True(t, v.Bool)

	v, _ = next.Get("USE_SHADOWS")
	assert.False(t, v.Bool)
	assert.NotEqual(t, base.Fingerprint(), next.Fingerprint())
}

func TestOptionSetFingerprintIsCanonical(t *testing.T) {
	a := NewOptionSet(map[string]Value{"B": Number(2), "A": Enum("HIGH")})
	b := OptionSet{}.With("A", Enum("HIGH")).With("B", Number(2))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, "A=enum:HIGH;B=number:2;", a.Fingerprint())
	assert.Equal(t, []string{"A", "B"}, a.Names())
}

func TestDefines(t *testing.T) {
	opts := NewOptionSet(map[string]Value{
		"USE_SHADOWS": Bool(false),
		"USE_FOG":     Bool(true),
		"SHADOW_RES":  Number(2048),
		"BLOOM":       Number(0.25),
		"WATER":       Enum("REALISTIC"),
	})
	assert.Equal(t, map[string]string{
		"USE_FOG":    "1",
		"SHADOW_RES": "2048",
		"BLOOM":      "0.25",
		"WATER":      "REALISTIC",
	}, opts.Defines())
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]byte("USE_SHADOWS: false\nSHADOW_RES: 1024\nSTYLE: SOFT\nSTRENGTH: 0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, opts.Len())

	v, _ := opts.Get("USE_SHADOWS")
	assert.Equal(t, Bool(false), v)
	v, _ = opts.Get("SHADOW_RES")
	assert.Equal(t, Number(1024), v)
	v, _ = opts.Get("STYLE")
	assert.Equal(t, Enum("SOFT"), v)
	v, _ = opts.Get("STRENGTH")
	assert.Equal(t, Number(0.5), v)
}

func TestParseOptionsRejectsNested(t *testing.T) {
	_, err := ParseOptions([]byte("GROUP:\n  A: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROUP")
}

func TestSplitCombined(t *testing.T) {
	text := strings.Join([]string{
		"// combined program",
		"#shader vertex",
		"#version 330 core",
		"void main() { gl_Position = vec4(0.0); }",
		"#shader fragment",
		"#version 330 core",
		"out vec4 c;",
		"void main() { c = vec4(1.0); }",
	}, "\n")
	require.True(t, IsCombined(text))

	srcs, err := SplitCombined("prog", "prog.glsl", text)
	require.NoError(t, err)
	require.Len(t, srcs, 2)

	assert.Equal(t, StageVertex, srcs[0].Stage)
	assert.Equal(t, StageFragment, srcs[1].Stage)

	// Line numbers are preserved: "#version" of the fragment section is line 6.
	fragLines := strings.Split(srcs[1].Text, "\n")
	assert.Equal(t, "#version 330 core", fragLines[5])
	assert.NotContains(t, srcs[0].Text, "out vec4 c;")
}

func TestSplitCombinedErrors(t *testing.T) {
	_, err := SplitCombined("p", "p.glsl", "void main() {}\n#shader vertex\n")
	assert.Error(t, err)

	_, err = SplitCombined("p", "p.glsl", "#shader vertex\n#shader vertex\n")
	assert.Error(t, err)

	_, err = SplitCombined("p", "p.glsl", "#shader hull\n")
	assert.Error(t, err)

	assert.False(t, IsCombined("float helper() { return 1.0; }"))
}
