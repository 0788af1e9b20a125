// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Walker visits the nodes reachable from a tree's globals in source order,
// parents before children. A callback returning false skips the node's
// children; a nil callback visits everything.
//
// Callbacks receive handles, not pointers, and may replace the visited
// node's Kind or add nodes to the arenas. Children are read after the
// callback returns, so a replacement is walked instead of the original.
type Walker struct {
	Decl func(h DeclHandle) bool
	Stmt func(h StmtHandle) bool
	Expr func(h ExprHandle) bool
}

// Walk visits every global declaration.
func (w *Walker) Walk(t *Tree) {
	// Globals may grow while walking; injected globals are visited too.
	for i := 0; i < len(t.Globals); i++ {
		w.WalkDecl(t, t.Globals[i])
	}
}

// WalkDecl visits a declaration and its children.
func (w *Walker) WalkDecl(t *Tree, h DeclHandle) {
	if !h.Valid() {
		return
	}
	if w.Decl != nil && !w.Decl(h) {
		return
	}
	switch d := t.Decls[h].Kind.(type) {
	case *Variable:
		w.walkType(t, &d.Type)
		w.walkExprs(t, d.Array)
		w.WalkExpr(t, d.Init)
	case *Param:
		w.walkType(t, &d.Type)
		w.walkExprs(t, d.Array)
	case *Function:
		w.walkType(t, &d.Return)
		for _, p := range d.Params {
			w.WalkDecl(t, p)
		}
		w.WalkStmt(t, d.Body)
	case *Struct:
		w.walkMembers(t, d.Members)
	case *Block:
		w.walkMembers(t, d.Members)
		w.walkExprs(t, d.Array)
	}
}

func (w *Walker) walkMembers(t *Tree, members []Member) {
	for i := range members {
		w.walkExprs(t, members[i].Type.Array)
		w.walkExprs(t, members[i].Array)
	}
}

func (w *Walker) walkType(t *Tree, ts *TypeSpec) {
	w.walkExprs(t, ts.Array)
}

func (w *Walker) walkExprs(t *Tree, hs []ExprHandle) {
	for _, h := range hs {
		w.WalkExpr(t, h)
	}
}

// WalkStmt visits a statement and its children.
func (w *Walker) WalkStmt(t *Tree, h StmtHandle) {
	if !h.Valid() {
		return
	}
	if w.Stmt != nil && !w.Stmt(h) {
		return
	}
	switch s := t.Stmts[h].Kind.(type) {
	case *Compound:
		for _, c := range s.Stmts {
			w.WalkStmt(t, c)
		}
	case *DeclStmt:
		for _, d := range s.Decls {
			w.WalkDecl(t, d)
		}
	case *ExprStmt:
		w.WalkExpr(t, s.Expr)
	case *If:
		w.WalkExpr(t, s.Cond)
		w.WalkStmt(t, s.Then)
		w.WalkStmt(t, s.Else)
	case *For:
		w.WalkStmt(t, s.Init)
		w.WalkExpr(t, s.Cond)
		w.WalkExpr(t, s.Post)
		w.WalkStmt(t, s.Body)
	case *While:
		w.WalkExpr(t, s.Cond)
		w.WalkStmt(t, s.Body)
	case *DoWhile:
		w.WalkStmt(t, s.Body)
		w.WalkExpr(t, s.Cond)
	case *Switch:
		w.WalkExpr(t, s.Selector)
		w.WalkStmt(t, s.Body)
	case *Case:
		w.WalkExpr(t, s.Value)
	case *Jump:
		w.WalkExpr(t, s.Value)
	}
}

// WalkExpr visits an expression and its children.
func (w *Walker) WalkExpr(t *Tree, h ExprHandle) {
	if !h.Valid() {
		return
	}
	if w.Expr != nil && !w.Expr(h) {
		return
	}
	switch e := t.Exprs[h].Kind.(type) {
	case *Unary:
		w.WalkExpr(t, e.Operand)
	case *Binary:
		w.WalkExpr(t, e.Left)
		w.WalkExpr(t, e.Right)
	case *Assign:
		w.WalkExpr(t, e.Left)
		w.WalkExpr(t, e.Right)
	case *Ternary:
		w.WalkExpr(t, e.Cond)
		w.WalkExpr(t, e.Then)
		w.WalkExpr(t, e.Else)
	case *Sequence:
		w.walkExprs(t, e.Exprs)
	case *Call:
		w.walkExprs(t, e.Args)
	case *Construct:
		w.walkType(t, &e.Type)
		w.walkExprs(t, e.Args)
	case *Index:
		w.WalkExpr(t, e.Base)
		w.WalkExpr(t, e.Index)
	case *Selection:
		w.WalkExpr(t, e.Base)
	case *InitList:
		w.walkExprs(t, e.Exprs)
	}
}

// Idents returns the handles of all reachable identifier expressions, in
// source order.
func (t *Tree) Idents() []ExprHandle {
	var out []ExprHandle
	w := Walker{Expr: func(h ExprHandle) bool {
		if _, ok := t.Exprs[h].Kind.(*Ident); ok {
			out = append(out, h)
		}
		return true
	}}
	w.Walk(t)
	return out
}

// Uses reports whether any reachable identifier refers to decl.
func (t *Tree) Uses(decl DeclHandle) bool {
	for _, h := range t.Idents() {
		if t.Exprs[h].Kind.(*Ident).Decl == decl {
			return true
		}
	}
	return false
}
