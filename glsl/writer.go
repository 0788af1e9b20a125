// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderpack/ast"
)

// Emit regenerates GLSL source from a tree. The output is a pure function of
// the tree: the #version line, extension directives in tree order, default
// precision statements for ES when the tree has none, then the globals in
// order with four-space indentation. Parentheses are emitted only where
// operator precedence requires them, and literals keep their source spelling.
func Emit(tree *ast.Tree) string {
	w := newWriter(tree)
	w.writeTree()
	return w.String()
}

// Writer generates GLSL source code from a tree.
type Writer struct {
	tree *ast.Tree

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int
}

func newWriter(tree *ast.Tree) *Writer {
	return &Writer{tree: tree}
}

// String returns the generated GLSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

func (w *Writer) writeTree() {
	w.writeVersionDirective()
	for _, ext := range w.tree.Extensions {
		w.writeLine("#extension %s : %s", ext.Name, ext.Behavior)
	}
	w.writePrecisionQualifiers()

	prevFunc := false
	for i, h := range w.tree.Globals {
		_, isFunc := w.tree.Decl(h).Kind.(*ast.Function)
		if i > 0 && (isFunc || prevFunc) {
			w.writeLine("")
		}
		w.writeDecl(h)
		prevFunc = isFunc
	}
}

func (w *Writer) writeVersionDirective() {
	if w.tree.Version.Number == 0 {
		return
	}
	w.writeLine("#version %s", w.tree.Version.String())
}

// defaultPrecisions are written for ES unless the tree declares them.
var defaultPrecisions = []string{"float", "int", "sampler2D", "sampler3D", "samplerCube"}

// writePrecisionQualifiers writes precision qualifiers for ES.
func (w *Writer) writePrecisionQualifiers() {
	if !w.tree.Version.ES() {
		return
	}
	declared := make(map[string]bool)
	for _, h := range w.tree.Globals {
		if p, ok := w.tree.Decl(h).Kind.(*ast.Precision); ok {
			declared[p.Type] = true
		}
	}
	for _, typ := range defaultPrecisions {
		if !declared[typ] {
			w.writeLine("precision highp %s;", typ)
		}
	}
}

// Declarations

func (w *Writer) writeDecl(h ast.DeclHandle) {
	switch d := w.tree.Decl(h).Kind.(type) {
	case *ast.Variable:
		w.writeLine("%s;", w.variable(d))
	case *ast.Function:
		w.writeFunction(d)
	case *ast.Struct:
		w.writeLine("struct %s {", d.Name)
		w.writeMembers(d.Members)
		w.writeLine("};")
	case *ast.Block:
		w.writeLine("%s%s {", w.qualifiers(&d.Qualifiers), d.Name)
		w.writeMembers(d.Members)
		if d.Instance != "" {
			w.writeLine("} %s%s;", d.Instance, w.arraySuffix(d.Array))
		} else {
			w.writeLine("};")
		}
	case *ast.Precision:
		w.writeLine("precision %s %s;", d.Precision, d.Type)
	case *ast.Default:
		q := strings.TrimSuffix(w.qualifiers(&d.Qualifiers), " ")
		if len(d.Names) > 0 {
			w.writeLine("%s %s;", q, strings.Join(d.Names, ", "))
		} else {
			w.writeLine("%s;", q)
		}
	case *ast.Pragma:
		w.writeLine("%s", d.Text)
	case *ast.Param:
		w.writeLine("%s;", w.param(d))
	}
}

func (w *Writer) variable(v *ast.Variable) string {
	s := w.typeSpec(&v.Type) + " " + v.Name + w.arraySuffix(v.Array)
	if v.Init.Valid() {
		s += " = " + w.expr(v.Init, ast.PrecAssign)
	}
	return s
}

func (w *Writer) param(p *ast.Param) string {
	s := w.typeSpec(&p.Type)
	if p.Name != "" {
		s += " " + p.Name + w.arraySuffix(p.Array)
	}
	return s
}

func (w *Writer) writeMembers(members []ast.Member) {
	w.pushIndent()
	for i := range members {
		m := &members[i]
		w.writeLine("%s %s%s;", w.typeSpec(&m.Type), m.Name, w.arraySuffix(m.Array))
	}
	w.popIndent()
}

func (w *Writer) writeFunction(f *ast.Function) {
	params := make([]string, len(f.Params))
	for i, ph := range f.Params {
		params[i] = w.param(w.tree.Decl(ph).Kind.(*ast.Param))
	}
	sig := fmt.Sprintf("%s %s(%s)", w.typeSpec(&f.Return), f.Name, strings.Join(params, ", "))
	if !f.Body.Valid() {
		w.writeLine("%s;", sig)
		return
	}
	w.writeIndent()
	w.out.WriteString(sig)
	w.writeBlockBody(f.Body)
	w.out.WriteByte('\n')
}

// qualifiers renders qualifiers in the order every GLSL version accepts,
// with a trailing space when non-empty.
func (w *Writer) qualifiers(q *ast.Qualifiers) string {
	var parts []string
	if q.Precise {
		parts = append(parts, "precise")
	}
	if q.Invariant {
		parts = append(parts, "invariant")
	}
	if len(q.Layout) > 0 {
		items := make([]string, len(q.Layout))
		for i, l := range q.Layout {
			if l.Value == "" {
				items[i] = l.Name
			} else {
				items[i] = l.Name + " = " + l.Value
			}
		}
		parts = append(parts, "layout("+strings.Join(items, ", ")+")")
	}
	if q.Interpolation != "" {
		parts = append(parts, q.Interpolation)
	}
	if q.Auxiliary != "" {
		parts = append(parts, q.Auxiliary)
	}
	if q.Storage != ast.StorageNone {
		parts = append(parts, q.Storage.String())
	}
	parts = append(parts, q.Memory...)
	if q.Precision != "" {
		parts = append(parts, q.Precision)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

func (w *Writer) typeSpec(ts *ast.TypeSpec) string {
	return w.qualifiers(&ts.Qualifiers) + w.tree.TypeName(ts) + w.arraySuffix(ts.Array)
}

func (w *Writer) arraySuffix(dims []ast.ExprHandle) string {
	var sb strings.Builder
	for _, d := range dims {
		sb.WriteByte('[')
		if d.Valid() {
			sb.WriteString(w.expr(d, ast.PrecSequence))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// Statements

// writeBlockBody writes a statement as the body of a function or control
// statement, continuing the current line. Compound statements open a brace
// on the same line; anything else goes on its own indented line. The
// closing brace or statement is left without a newline.
func (w *Writer) writeBlockBody(h ast.StmtHandle) {
	if c, ok := w.tree.Stmt(h).Kind.(*ast.Compound); ok {
		w.out.WriteString(" {\n")
		w.pushIndent()
		w.writeStmtList(c.Stmts)
		w.popIndent()
		w.writeIndent()
		w.out.WriteString("}")
		return
	}
	w.out.WriteByte('\n')
	w.pushIndent()
	w.writeStmt(h)
	w.popIndent()
	w.trimNewline()
}

// writeStmtList writes statements, indenting the statements that follow a
// case label one level deeper than the label.
func (w *Writer) writeStmtList(stmts []ast.StmtHandle) {
	inCase := false
	for _, s := range stmts {
		if _, ok := w.tree.Stmt(s).Kind.(*ast.Case); ok {
			if inCase {
				w.popIndent()
			}
			w.writeStmt(s)
			w.pushIndent()
			inCase = true
			continue
		}
		w.writeStmt(s)
	}
	if inCase {
		w.popIndent()
	}
}

func (w *Writer) trimNewline() {
	s := w.out.String()
	if strings.HasSuffix(s, "\n") {
		w.out.Reset()
		w.out.WriteString(s[:len(s)-1])
	}
}

func (w *Writer) writeStmt(h ast.StmtHandle) {
	switch s := w.tree.Stmt(h).Kind.(type) {
	case *ast.Compound:
		w.writeLine("{")
		w.pushIndent()
		w.writeStmtList(s.Stmts)
		w.popIndent()
		w.writeLine("}")
	case *ast.DeclStmt:
		for _, d := range s.Decls {
			w.writeDecl(d)
		}
	case *ast.ExprStmt:
		w.writeLine("%s;", w.expr(s.Expr, ast.PrecSequence))
	case *ast.If:
		w.writeIndent()
		w.writeIf(s)
		w.out.WriteByte('\n')
	case *ast.For:
		w.writeIndent()
		fmt.Fprintf(&w.out, "for (%s", w.inlineStmt(s.Init))
		if s.Cond.Valid() {
			w.out.WriteString(" " + w.expr(s.Cond, ast.PrecSequence))
		}
		w.out.WriteString(";")
		if s.Post.Valid() {
			w.out.WriteString(" " + w.expr(s.Post, ast.PrecSequence))
		}
		w.out.WriteString(")")
		w.writeBlockBody(s.Body)
		w.out.WriteByte('\n')
	case *ast.While:
		w.writeIndent()
		fmt.Fprintf(&w.out, "while (%s)", w.expr(s.Cond, ast.PrecSequence))
		w.writeBlockBody(s.Body)
		w.out.WriteByte('\n')
	case *ast.DoWhile:
		w.writeIndent()
		w.out.WriteString("do")
		w.writeBlockBody(s.Body)
		if _, ok := w.tree.Stmt(s.Body).Kind.(*ast.Compound); ok {
			w.out.WriteString(" ")
		} else {
			w.out.WriteByte('\n')
			w.writeIndent()
		}
		fmt.Fprintf(&w.out, "while (%s);\n", w.expr(s.Cond, ast.PrecSequence))
	case *ast.Switch:
		w.writeIndent()
		fmt.Fprintf(&w.out, "switch (%s)", w.expr(s.Selector, ast.PrecSequence))
		w.writeBlockBody(s.Body)
		w.out.WriteByte('\n')
	case *ast.Case:
		if s.Value.Valid() {
			w.writeLine("case %s:", w.expr(s.Value, ast.PrecSequence))
		} else {
			w.writeLine("default:")
		}
	case *ast.Jump:
		if s.Value.Valid() {
			w.writeLine("return %s;", w.expr(s.Value, ast.PrecSequence))
		} else {
			w.writeLine("%s;", s.Kind)
		}
	case *ast.Empty:
		w.writeLine(";")
	}
}

func (w *Writer) writeIf(s *ast.If) {
	fmt.Fprintf(&w.out, "if (%s)", w.expr(s.Cond, ast.PrecSequence))
	w.writeBlockBody(s.Then)
	if !s.Else.Valid() {
		return
	}
	if _, ok := w.tree.Stmt(s.Then).Kind.(*ast.Compound); ok {
		w.out.WriteString(" else")
	} else {
		w.out.WriteByte('\n')
		w.writeIndent()
		w.out.WriteString("else")
	}
	if elif, ok := w.tree.Stmt(s.Else).Kind.(*ast.If); ok {
		w.out.WriteString(" ")
		w.writeIf(elif)
		return
	}
	w.writeBlockBody(s.Else)
}

// inlineStmt renders the init statement of a for loop, including its ';'.
func (w *Writer) inlineStmt(h ast.StmtHandle) string {
	if !h.Valid() {
		return ";"
	}
	switch s := w.tree.Stmt(h).Kind.(type) {
	case *ast.DeclStmt:
		parts := make([]string, 0, len(s.Decls))
		for i, d := range s.Decls {
			v, ok := w.tree.Decl(d).Kind.(*ast.Variable)
			if !ok {
				continue
			}
			if i == 0 {
				parts = append(parts, w.variable(v))
				continue
			}
			part := v.Name + w.arraySuffix(v.Array)
			if v.Init.Valid() {
				part += " = " + w.expr(v.Init, ast.PrecAssign)
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, ", ") + ";"
	case *ast.ExprStmt:
		return w.expr(s.Expr, ast.PrecSequence) + ";"
	}
	return ";"
}

// Expressions

// expr renders an expression, parenthesized when it binds more loosely than
// the context precedence prec.
func (w *Writer) expr(h ast.ExprHandle, prec int) string {
	s, own := w.exprPrec(h)
	if own < prec {
		return "(" + s + ")"
	}
	return s
}

func (w *Writer) exprPrec(h ast.ExprHandle) (string, int) {
	switch e := w.tree.Expr(h).Kind.(type) {
	case *ast.Ident:
		return w.tree.IdentName(e), ast.PrecPrimary
	case *ast.Literal:
		return e.Text, ast.PrecPrimary
	case *ast.Unary:
		if e.Postfix {
			return w.expr(e.Operand, ast.PrecPostfix) + e.Op.String(), ast.PrecPostfix
		}
		operand := w.expr(e.Operand, ast.PrecUnary)
		// Keep - -x and + +x from fusing into -- and ++.
		if (e.Op == ast.OpNeg || e.Op == ast.OpPos) && strings.HasPrefix(operand, e.Op.String()) {
			operand = "(" + operand + ")"
		}
		return e.Op.String() + operand, ast.PrecUnary
	case *ast.Binary:
		prec := e.Op.BinaryPrecedence()
		return w.expr(e.Left, prec) + " " + e.Op.String() + " " + w.expr(e.Right, prec+1), prec
	case *ast.Assign:
		return w.expr(e.Left, ast.PrecUnary) + " " + e.Op.String() + " " + w.expr(e.Right, ast.PrecAssign), ast.PrecAssign
	case *ast.Ternary:
		return w.expr(e.Cond, ast.PrecOr) + " ? " + w.expr(e.Then, ast.PrecAssign) + " : " + w.expr(e.Else, ast.PrecAssign), ast.PrecTernary
	case *ast.Sequence:
		parts := make([]string, len(e.Exprs))
		for i, x := range e.Exprs {
			parts[i] = w.expr(x, ast.PrecAssign)
		}
		return strings.Join(parts, ", "), ast.PrecSequence
	case *ast.Call:
		return w.tree.CallName(e) + "(" + w.args(e.Args) + ")", ast.PrecPostfix
	case *ast.Construct:
		return w.tree.TypeName(&e.Type) + w.arraySuffix(e.Type.Array) + "(" + w.args(e.Args) + ")", ast.PrecPostfix
	case *ast.Index:
		return w.expr(e.Base, ast.PrecPostfix) + "[" + w.expr(e.Index, ast.PrecSequence) + "]", ast.PrecPostfix
	case *ast.Selection:
		s := w.expr(e.Base, ast.PrecPostfix) + "." + e.Field
		if e.Method {
			s += "()"
		}
		return s, ast.PrecPostfix
	case *ast.InitList:
		return "{" + w.args(e.Exprs) + "}", ast.PrecPrimary
	}
	return "", ast.PrecPrimary
}

func (w *Writer) args(hs []ast.ExprHandle) string {
	parts := make([]string, len(hs))
	for i, a := range hs {
		parts[i] = w.expr(a, ast.PrecAssign)
	}
	return strings.Join(parts, ", ")
}

// Output helpers

func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
