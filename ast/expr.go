// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Expr is an expression node.
type Expr struct {
	Kind ExprKind
	Pos  Pos
}

// ExprKind is implemented by every expression variant.
type ExprKind interface {
	exprKind()
}

// Ident is a reference to a variable, parameter, or built-in.
type Ident struct {
	// Name is the identifier as written. When Decl is valid, printing uses
	// the declaration's current name instead.
	Name string
	Decl DeclHandle
}

// LiteralKind classifies literals.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitUint
	LitFloat
	LitDouble
	LitBool
)

// Literal is a constant; Text is kept verbatim so regenerated source spells
// numbers exactly as the pack did.
type Literal struct {
	Kind LiteralKind
	Text string
}

// Unary is a prefix or postfix operation.
type Unary struct {
	Op      Op
	Operand ExprHandle
	Postfix bool
}

// Binary is an infix operation.
type Binary struct {
	Op    Op
	Left  ExprHandle
	Right ExprHandle
}

// Assign is an assignment or compound assignment.
type Assign struct {
	Op    Op
	Left  ExprHandle
	Right ExprHandle
}

// Ternary is cond ? then : else.
type Ternary struct {
	Cond ExprHandle
	Then ExprHandle
	Else ExprHandle
}

// Sequence is a comma expression.
type Sequence struct {
	Exprs []ExprHandle
}

// Call is a function call or a constructor of a built-in or struct type.
type Call struct {
	// Callee is the written name.
	Callee string
	// Decl is the resolved function or struct declaration, if any.
	Decl DeclHandle
	Args []ExprHandle
}

// Construct is an array constructor such as float[3](a, b, c).
type Construct struct {
	Type TypeSpec
	Args []ExprHandle
}

// Index is base[index].
type Index struct {
	Base  ExprHandle
	Index ExprHandle
}

// Selection is base.field, including swizzles. Method is set for the
// .length() method of arrays and vectors.
type Selection struct {
	Base   ExprHandle
	Field  string
	Method bool
}

// InitList is a braced initializer such as {1.0, 2.0}.
type InitList struct {
	Exprs []ExprHandle
}

func (*Ident) exprKind()     {}
func (*Literal) exprKind()   {}
func (*Unary) exprKind()     {}
func (*Binary) exprKind()    {}
func (*Assign) exprKind()    {}
func (*Ternary) exprKind()   {}
func (*Sequence) exprKind()  {}
func (*Call) exprKind()      {}
func (*Construct) exprKind() {}
func (*Index) exprKind()     {}
func (*Selection) exprKind() {}
func (*InitList) exprKind()  {}

// NewIdent adds an unresolved identifier expression.
func (t *Tree) NewIdent(name string, pos Pos) ExprHandle {
	return t.AddExpr(&Ident{Name: name, Decl: NoDecl}, pos)
}

// NewCall adds a call expression to an unresolved callee.
func (t *Tree) NewCall(callee string, pos Pos, args ...ExprHandle) ExprHandle {
	return t.AddExpr(&Call{Callee: callee, Decl: NoDecl, Args: args}, pos)
}

// NewFloat adds a float literal.
func (t *Tree) NewFloat(text string, pos Pos) ExprHandle {
	return t.AddExpr(&Literal{Kind: LitFloat, Text: text}, pos)
}

// NewBinary adds a binary expression.
func (t *Tree) NewBinary(op Op, left, right ExprHandle, pos Pos) ExprHandle {
	return t.AddExpr(&Binary{Op: op, Left: left, Right: right}, pos)
}
