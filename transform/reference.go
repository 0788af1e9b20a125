// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/glsl"
)

// ReferencePass checks that every identifier resolves and that the stage
// has an entry point. It does not modify the tree.
type ReferencePass struct{}

// Name implements Pass.
func (ReferencePass) Name() string { return "reference" }

// Apply implements Pass.
func (ReferencePass) Apply(tree *ast.Tree, ctx *Context) error {
	var err error
	warned := make(map[string]bool)
	w := ast.Walker{Expr: func(h ast.ExprHandle) bool {
		if err != nil {
			return false
		}
		e := tree.Expr(h)
		switch k := e.Kind.(type) {
		case *ast.Ident:
			if k.Decl.Valid() || glsl.IsBuiltinVariableIn(k.Name, ctx.Target) {
				break
			}
			if glsl.IsBuiltinVariable(k.Name) {
				err = ctx.fail(ErrUnresolvedReference, e.Pos, "'%s' is not available in GLSL %s", k.Name, ctx.Target)
			} else {
				err = ctx.fail(ErrUnresolvedReference, e.Pos, "'%s' is not declared", k.Name)
			}
		case *ast.Call:
			if k.Decl.Valid() || glsl.IsBuiltinFunctionIn(k.Callee, ctx.Target) || glsl.IsBuiltinType(k.Callee) {
				break
			}
			if !warned[k.Callee] {
				warned[k.Callee] = true
				ctx.warnf(e.Pos, "call to undeclared function '%s'", k.Callee)
			}
		}
		return true
	}}
	w.Walk(tree)
	if err != nil {
		return err
	}

	if _, ok := tree.EntryPoint(); !ok {
		return ctx.fail(ErrMissingEntryPoint, ast.Pos{}, "%s stage has no 'void main()'", ctx.Stage)
	}
	return nil
}
