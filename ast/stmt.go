// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Stmt is a statement node.
type Stmt struct {
	Kind StmtKind
	Pos  Pos
}

// StmtKind is implemented by every statement variant.
type StmtKind interface {
	stmtKind()
}

// Compound is a braced statement list. Function bodies and the bodies of
// loops open a scope; NewScope is false only for the compound statement that
// makes up a switch body's case list.
type Compound struct {
	Stmts    []StmtHandle
	NewScope bool
}

// DeclStmt declares local variables or a local struct.
type DeclStmt struct {
	Decls []DeclHandle
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr ExprHandle
}

// If is if (Cond) Then else Else; Else is NoStmt when absent.
type If struct {
	Cond ExprHandle
	Then StmtHandle
	Else StmtHandle
}

// For is a for loop. Init is NoStmt, Cond and Post are NoExpr when omitted.
type For struct {
	Init StmtHandle
	Cond ExprHandle
	Post ExprHandle
	Body StmtHandle
}

// While is a while loop.
type While struct {
	Cond ExprHandle
	Body StmtHandle
}

// DoWhile is a do { } while loop.
type DoWhile struct {
	Body StmtHandle
	Cond ExprHandle
}

// Switch is a switch statement; Body is a Compound holding Case labels and
// statements.
type Switch struct {
	Selector ExprHandle
	Body     StmtHandle
}

// Case is a case label; Value is NoExpr for default.
type Case struct {
	Value ExprHandle
}

// JumpKind selects the jump statement.
type JumpKind uint8

const (
	JumpBreak JumpKind = iota
	JumpContinue
	JumpDiscard
	JumpReturn
)

func (k JumpKind) String() string {
	switch k {
	case JumpBreak:
		return "break"
	case JumpContinue:
		return "continue"
	case JumpDiscard:
		return "discard"
	default:
		return "return"
	}
}

// Jump is break, continue, discard or return. Value is the returned
// expression or NoExpr.
type Jump struct {
	Kind  JumpKind
	Value ExprHandle
}

// Empty is a lone semicolon.
type Empty struct{}

func (*Compound) stmtKind() {}
func (*DeclStmt) stmtKind() {}
func (*ExprStmt) stmtKind() {}
func (*If) stmtKind()       {}
func (*For) stmtKind()      {}
func (*While) stmtKind()    {}
func (*DoWhile) stmtKind()  {}
func (*Switch) stmtKind()   {}
func (*Case) stmtKind()     {}
func (*Jump) stmtKind()     {}
func (*Empty) stmtKind()    {}
