// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/glsl"
)

// legacyTargets are the core texture functions LegacyPass rewrites legacy
// calls into. A pack function with one of these names would capture the
// rewritten calls.
var legacyTargets = map[string]bool{
	"texture":        true,
	"textureLod":     true,
	"textureProj":    true,
	"textureProjLod": true,
	"textureGrad":    true,
}

// CollisionPass renames pack declarations whose names collide with host
// symbols or with words the target version reserves.
type CollisionPass struct{}

// Name implements Pass.
func (CollisionPass) Name() string { return "collision" }

// namer generates unique identifiers. The counter is shared by all names,
// so suffixes follow declaration order.
type namer struct {
	usedNames map[string]struct{}
	counter   uint32
}

func newNamer() *namer {
	return &namer{usedNames: make(map[string]struct{})}
}

func (n *namer) reserve(name string) {
	n.usedNames[name] = struct{}{}
}

// call returns base with the next free numeric suffix.
func (n *namer) call(base string) string {
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", base, n.counter)
		if _, used := n.usedNames[candidate]; !used {
			n.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

// Apply implements Pass.
func (CollisionPass) Apply(tree *ast.Tree, ctx *Context) error {
	var decls []ast.DeclHandle
	w := ast.Walker{Decl: func(h ast.DeclHandle) bool {
		decls = append(decls, h)
		return true
	}}
	w.Walk(tree)

	n := newNamer()
	for _, h := range decls {
		n.reserve(tree.DeclName(h))
	}
	for _, in := range ctx.HostInputs {
		n.reserve(in.Name)
	}

	functions := make(map[string]string)
	for _, h := range decls {
		name, ok := renamable(tree, h)
		if !ok {
			continue
		}
		reason := collides(name, ctx)
		if reason == "" {
			continue
		}
		_, isFunc := tree.Decl(h).Kind.(*ast.Function)
		if isFunc {
			// Overloads and prototypes share one new name.
			if renamed, done := functions[name]; done {
				tree.SetDeclName(h, renamed)
				continue
			}
		}
		renamed := n.call(name)
		if isFunc {
			functions[name] = renamed
		}
		tree.SetDeclName(h, renamed)
		ctx.infof(tree.Decl(h).Pos, "renamed '%s' to '%s': %s", name, renamed, reason)
	}
	return nil
}

// renamable returns the name a declaration introduces into the pack's
// namespace. Anonymous blocks, unnamed parameters and built-in
// redeclarations are left alone.
func renamable(tree *ast.Tree, h ast.DeclHandle) (string, bool) {
	switch d := tree.Decl(h).Kind.(type) {
	case *ast.Block:
		if d.Instance == "" {
			return "", false
		}
	case *ast.Precision, *ast.Default, *ast.Pragma:
		return "", false
	}
	name := tree.DeclName(h)
	if name == "" || strings.HasPrefix(name, "gl_") {
		return "", false
	}
	return name, true
}

// collides returns why name cannot be used, or "".
func collides(name string, ctx *Context) string {
	switch {
	case binding.IsHostName(name):
		return "the " + binding.HostPrefix + " prefix is reserved for the host"
	case glsl.IsReserved(name, ctx.Target):
		return "reserved in GLSL " + ctx.Target.String()
	case legacyTargets[name] && !ctx.Target.AllowsLegacy():
		return "shadows a built-in function of GLSL " + ctx.Target.String()
	}
	return ""
}
