// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/glsl"
)

// VersionPass raises the #version directive to the target and drops
// extension directives the target makes core.
type VersionPass struct{}

// Name implements Pass.
func (VersionPass) Name() string { return "version" }

// Apply implements Pass.
func (VersionPass) Apply(tree *ast.Tree, ctx *Context) error {
	v, err := glsl.FromAST(tree.Version)
	if err != nil {
		return ctx.fail(ErrUnsupportedVersion, tree.Version.Pos, "%v", err)
	}
	target := ctx.Target

	if v.ES != target.ES || v.Less(target) {
		// The raised version takes the target's profile; LegacyPass
		// rewrites compatibility constructs.
		from := v
		v = target
		pos := tree.Version.Pos
		tree.Version = v.AST()
		tree.Version.Pos = pos
		ctx.infof(pos, "raised #version %s to %s", from, v)
	} else if v.Compatibility && !target.Compatibility {
		pos := tree.Version.Pos
		v.Compatibility = false
		tree.Version = v.AST()
		tree.Version.Pos = pos
		ctx.infof(pos, "dropped compatibility profile from #version %d", v.Number())
	}

	seen := make(map[string]bool, len(tree.Extensions))
	kept := tree.Extensions[:0]
	for _, ext := range tree.Extensions {
		switch {
		case seen[ext.Name]:
			ctx.infof(ext.Pos, "dropped duplicate #extension %s", ext.Name)
		case v.IsCore(ext.Name):
			ctx.infof(ext.Pos, "dropped #extension %s, core in %s", ext.Name, v)
		default:
			kept = append(kept, ext)
		}
		seen[ext.Name] = true
	}
	tree.Extensions = kept
	return nil
}
