// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"strings"

	"github.com/gogpu/shaderpack/ast"
)

// typeString renders a declared type with its array dimensions, e.g.
// "vec2[4]". Dimensions on the type come before those on the name.
func typeString(tree *ast.Tree, ts *ast.TypeSpec, dims []ast.ExprHandle) string {
	var sb strings.Builder
	sb.WriteString(tree.TypeName(ts))
	writeDims(&sb, tree, ts.Array)
	writeDims(&sb, tree, dims)
	return sb.String()
}

func writeDims(sb *strings.Builder, tree *ast.Tree, dims []ast.ExprHandle) {
	for _, d := range dims {
		sb.WriteByte('[')
		if d.Valid() {
			sb.WriteString(tree.ExprString(d))
		}
		sb.WriteByte(']')
	}
}

// dropOuterDim removes the outermost array dimension of a rendered type.
// Geometry inputs are arrays of the previous stage's outputs.
func dropOuterDim(typ string) (string, bool) {
	open := strings.IndexByte(typ, '[')
	if open < 0 {
		return typ, false
	}
	end := strings.IndexByte(typ[open:], ']')
	if end < 0 {
		return typ, false
	}
	return typ[:open] + typ[open+end+1:], true
}
