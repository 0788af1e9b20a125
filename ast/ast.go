// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ast defines the syntax tree of a GLSL shader.
//
// Nodes live in three arenas owned by a Tree: expressions, statements and
// declarations. Nodes refer to each other through typed integer handles
// rather than pointers, so transform passes can rename, replace and insert
// nodes without leaving dangling references. Identifier and call
// expressions carry the handle of the declaration they resolve to; renaming
// a declaration therefore renames every use.
//
// A Tree is owned by a single compilation and is not safe for concurrent use.
package ast

import (
	"fmt"

	"github.com/gogpu/shaderpack/shader"
)

// Handle types for referencing tree nodes.
type (
	ExprHandle uint32
	StmtHandle uint32
	DeclHandle uint32
)

// Sentinel handles for absent nodes.
const (
	NoExpr ExprHandle = ^ExprHandle(0)
	NoStmt StmtHandle = ^StmtHandle(0)
	NoDecl DeclHandle = ^DeclHandle(0)
)

// Valid reports whether h refers to a node.
func (h ExprHandle) Valid() bool { return h != NoExpr }

// Valid reports whether h refers to a node.
func (h StmtHandle) Valid() bool { return h != NoStmt }

// Valid reports whether h refers to a node.
func (h DeclHandle) Valid() bool { return h != NoDecl }

// Pos is a 1-based line and column in the preprocessed text. Injected nodes
// have a zero Pos.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Version is the #version directive of a tree.
type Version struct {
	// Number is e.g. 330; zero when the source declared none.
	Number int
	// Profile is "", "core", "compatibility" or "es".
	Profile string
	Pos     Pos
}

// ES reports whether the version selects GLSL ES.
func (v Version) ES() bool { return v.Profile == "es" }

func (v Version) String() string {
	if v.Profile == "" {
		return fmt.Sprintf("%d", v.Number)
	}
	return fmt.Sprintf("%d %s", v.Number, v.Profile)
}

// Extension is an #extension directive.
type Extension struct {
	Name     string
	Behavior string
	Pos      Pos
}

// Tree is a parsed shader.
type Tree struct {
	Stage      shader.Stage
	Version    Version
	Extensions []Extension

	// Globals lists the top-level declarations in source order.
	Globals []DeclHandle

	Exprs []Expr
	Stmts []Stmt
	Decls []Decl
}

// New returns an empty tree for the given stage.
func New(stage shader.Stage) *Tree {
	return &Tree{
		Stage: stage,
		Exprs: make([]Expr, 0, 256),
		Stmts: make([]Stmt, 0, 64),
		Decls: make([]Decl, 0, 32),
	}
}

// AddExpr appends an expression node and returns its handle.
func (t *Tree) AddExpr(kind ExprKind, pos Pos) ExprHandle {
	h := ExprHandle(len(t.Exprs)) //nolint:gosec // arena size fits in uint32
	t.Exprs = append(t.Exprs, Expr{Kind: kind, Pos: pos})
	return h
}

// AddStmt appends a statement node and returns its handle.
func (t *Tree) AddStmt(kind StmtKind, pos Pos) StmtHandle {
	h := StmtHandle(len(t.Stmts)) //nolint:gosec // arena size fits in uint32
	t.Stmts = append(t.Stmts, Stmt{Kind: kind, Pos: pos})
	return h
}

// AddDecl appends a declaration node and returns its handle. The
// declaration is not placed in Globals; use AppendGlobal or InsertGlobal.
func (t *Tree) AddDecl(kind DeclKind, pos Pos) DeclHandle {
	h := DeclHandle(len(t.Decls)) //nolint:gosec // arena size fits in uint32
	t.Decls = append(t.Decls, Decl{Kind: kind, Pos: pos})
	return h
}

// Expr returns the expression for h. The pointer is valid until the next
// AddExpr.
func (t *Tree) Expr(h ExprHandle) *Expr { return &t.Exprs[h] }

// Stmt returns the statement for h. The pointer is valid until the next
// AddStmt.
func (t *Tree) Stmt(h StmtHandle) *Stmt { return &t.Stmts[h] }

// Decl returns the declaration for h. The pointer is valid until the next
// AddDecl.
func (t *Tree) Decl(h DeclHandle) *Decl { return &t.Decls[h] }

// AppendGlobal adds h at the end of the global declaration list.
func (t *Tree) AppendGlobal(h DeclHandle) {
	t.Globals = append(t.Globals, h)
}

// InsertGlobal inserts h at index i of the global declaration list.
func (t *Tree) InsertGlobal(i int, h DeclHandle) {
	if i >= len(t.Globals) {
		t.Globals = append(t.Globals, h)
		return
	}
	t.Globals = append(t.Globals, NoDecl)
	copy(t.Globals[i+1:], t.Globals[i:])
	t.Globals[i] = h
}

// RemoveGlobal removes h from the global declaration list. The node itself
// stays in the arena, unreachable.
func (t *Tree) RemoveGlobal(h DeclHandle) bool {
	for i, g := range t.Globals {
		if g == h {
			t.Globals = append(t.Globals[:i], t.Globals[i+1:]...)
			return true
		}
	}
	return false
}

// GlobalIndex returns the position of h in Globals, or -1.
func (t *Tree) GlobalIndex(h DeclHandle) int {
	for i, g := range t.Globals {
		if g == h {
			return i
		}
	}
	return -1
}

// FirstFunctionIndex returns the index in Globals of the first function
// declaration, or len(Globals) when there is none. Injected globals are
// placed before it so they are declared before any use.
func (t *Tree) FirstFunctionIndex() int {
	for i, g := range t.Globals {
		if _, ok := t.Decls[g].Kind.(*Function); ok {
			return i
		}
	}
	return len(t.Globals)
}

// RequireExtension records an extension directive unless one with the same
// name is already present.
func (t *Tree) RequireExtension(name, behavior string) {
	for _, e := range t.Extensions {
		if e.Name == name {
			return
		}
	}
	t.Extensions = append(t.Extensions, Extension{Name: name, Behavior: behavior})
}

// LookupGlobal returns the first global declaration that declares name:
// a variable, function, struct, or interface block (by instance name, block
// name, or member name of an anonymous block).
func (t *Tree) LookupGlobal(name string) (DeclHandle, bool) {
	for _, g := range t.Globals {
		if t.Declares(g, name) {
			return g, true
		}
	}
	return NoDecl, false
}

// Declares reports whether declaration h introduces name.
func (t *Tree) Declares(h DeclHandle, name string) bool {
	switch d := t.Decls[h].Kind.(type) {
	case *Variable:
		return d.Name == name
	case *Param:
		return d.Name == name
	case *Function:
		return d.Name == name
	case *Struct:
		return d.Name == name
	case *Block:
		if d.Instance != "" {
			return d.Instance == name
		}
		for _, m := range d.Members {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

// DeclName returns the name a declaration introduces: the variable,
// parameter, function or struct name, or a block's instance name.
func (t *Tree) DeclName(h DeclHandle) string {
	switch d := t.Decls[h].Kind.(type) {
	case *Variable:
		return d.Name
	case *Param:
		return d.Name
	case *Function:
		return d.Name
	case *Struct:
		return d.Name
	case *Block:
		if d.Instance != "" {
			return d.Instance
		}
		return d.Name
	}
	return ""
}

// SetDeclName renames a declaration. Uses that reference it by handle follow
// automatically.
func (t *Tree) SetDeclName(h DeclHandle, name string) {
	switch d := t.Decls[h].Kind.(type) {
	case *Variable:
		d.Name = name
	case *Param:
		d.Name = name
	case *Function:
		d.Name = name
	case *Struct:
		d.Name = name
	case *Block:
		if d.Instance != "" {
			d.Instance = name
		} else {
			d.Name = name
		}
	}
}

// ExprString renders an expression for diagnostics: identifiers and simple
// member chains by name, anything else by kind.
func (t *Tree) ExprString(h ExprHandle) string {
	switch e := t.Exprs[h].Kind.(type) {
	case *Ident:
		return t.IdentName(e)
	case *Selection:
		return t.ExprString(e.Base) + "." + e.Field
	case *Index:
		return t.ExprString(e.Base) + "[...]"
	case *Literal:
		return e.Text
	case *Call:
		return t.CallName(e) + "(...)"
	default:
		return fmt.Sprintf("%T", e)
	}
}

// IdentName returns the name to print for an identifier: the resolved
// declaration's current name, or the written name for built-ins and members
// of anonymous blocks.
func (t *Tree) IdentName(id *Ident) string {
	if !id.Decl.Valid() {
		return id.Name
	}
	if b, ok := t.Decls[id.Decl].Kind.(*Block); ok && b.Instance == "" {
		return id.Name
	}
	return t.DeclName(id.Decl)
}

// CallName returns the name to print for a call's callee.
func (t *Tree) CallName(c *Call) string {
	if c.Decl.Valid() {
		return t.DeclName(c.Decl)
	}
	return c.Callee
}

// TypeName returns the name to print for a type specifier.
func (t *Tree) TypeName(ts *TypeSpec) string {
	if ts.Ref.Valid() {
		return t.DeclName(ts.Ref)
	}
	return ts.Name
}
