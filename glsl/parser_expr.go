// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/shaderpack/ast"
)

var binaryOps = map[TokenKind]ast.Op{
	TokenStar:           ast.OpMul,
	TokenSlash:          ast.OpDiv,
	TokenPercent:        ast.OpMod,
	TokenPlus:           ast.OpAdd,
	TokenMinus:          ast.OpSub,
	TokenLessLess:       ast.OpShl,
	TokenGreaterGreater: ast.OpShr,
	TokenLess:           ast.OpLt,
	TokenGreater:        ast.OpGt,
	TokenLessEqual:      ast.OpLe,
	TokenGreaterEqual:   ast.OpGe,
	TokenEqualEqual:     ast.OpEq,
	TokenBangEqual:      ast.OpNe,
	TokenAmpersand:      ast.OpBitAnd,
	TokenCaret:          ast.OpBitXor,
	TokenPipe:           ast.OpBitOr,
	TokenAmpAmp:         ast.OpAnd,
	TokenCaretCaret:     ast.OpXor,
	TokenPipePipe:       ast.OpOr,
}

var assignOps = map[TokenKind]ast.Op{
	TokenEqual:               ast.OpAssign,
	TokenStarEqual:           ast.OpMulAssign,
	TokenSlashEqual:          ast.OpDivAssign,
	TokenPercentEqual:        ast.OpModAssign,
	TokenPlusEqual:           ast.OpAddAssign,
	TokenMinusEqual:          ast.OpSubAssign,
	TokenLessLessEqual:       ast.OpShlAssign,
	TokenGreaterGreaterEqual: ast.OpShrAssign,
	TokenAmpEqual:            ast.OpAndAssign,
	TokenCaretEqual:          ast.OpXorAssign,
	TokenPipeEqual:           ast.OpOrAssign,
}

var unaryOps = map[TokenKind]ast.Op{
	TokenMinus:      ast.OpNeg,
	TokenPlus:       ast.OpPos,
	TokenBang:       ast.OpNot,
	TokenTilde:      ast.OpBitNot,
	TokenPlusPlus:   ast.OpInc,
	TokenMinusMinus: ast.OpDec,
}

// expression parses a comma-separated sequence.
func (p *Parser) expression() (ast.ExprHandle, *ParseError) {
	start := p.peek()
	first, err := p.assignment()
	if err != nil {
		return ast.NoExpr, err
	}
	if !p.check(TokenComma) {
		return first, nil
	}
	exprs := []ast.ExprHandle{first}
	for p.match(TokenComma) {
		e, err := p.assignment()
		if err != nil {
			return ast.NoExpr, err
		}
		exprs = append(exprs, e)
	}
	return p.tree.AddExpr(&ast.Sequence{Exprs: exprs}, pos(start)), nil
}

// assignment parses right-associative assignment.
func (p *Parser) assignment() (ast.ExprHandle, *ParseError) {
	left, err := p.conditional()
	if err != nil {
		return ast.NoExpr, err
	}
	op, ok := assignOps[p.peek().Kind]
	if !ok {
		return left, nil
	}
	opTok := p.advance()
	right, err := p.assignment()
	if err != nil {
		return ast.NoExpr, err
	}
	return p.tree.AddExpr(&ast.Assign{Op: op, Left: left, Right: right}, pos(opTok)), nil
}

// conditional parses cond ? a : b.
func (p *Parser) conditional() (ast.ExprHandle, *ParseError) {
	cond, err := p.binary(ast.PrecOr)
	if err != nil {
		return ast.NoExpr, err
	}
	if !p.check(TokenQuestion) {
		return cond, nil
	}
	q := p.advance()
	then, err := p.expression()
	if err != nil {
		return ast.NoExpr, err
	}
	if err := p.expectErr(TokenColon); err != nil {
		return ast.NoExpr, err
	}
	els, err := p.assignment()
	if err != nil {
		return ast.NoExpr, err
	}
	return p.tree.AddExpr(&ast.Ternary{Cond: cond, Then: then, Else: els}, pos(q)), nil
}

// binary parses left-associative binary operators binding at least as
// tightly as minPrec.
func (p *Parser) binary(minPrec int) (ast.ExprHandle, *ParseError) {
	left, err := p.unary()
	if err != nil {
		return ast.NoExpr, err
	}
	for {
		op, ok := binaryOps[p.peek().Kind]
		if !ok || op.BinaryPrecedence() < minPrec {
			return left, nil
		}
		opTok := p.advance()
		right, err := p.binary(op.BinaryPrecedence() + 1)
		if err != nil {
			return ast.NoExpr, err
		}
		left = p.tree.AddExpr(&ast.Binary{Op: op, Left: left, Right: right}, pos(opTok))
	}
}

// unary parses prefix operators.
func (p *Parser) unary() (ast.ExprHandle, *ParseError) {
	op, ok := unaryOps[p.peek().Kind]
	if !ok {
		return p.postfix()
	}
	opTok := p.advance()
	operand, err := p.unary()
	if err != nil {
		return ast.NoExpr, err
	}
	return p.tree.AddExpr(&ast.Unary{Op: op, Operand: operand}, pos(opTok)), nil
}

// postfix parses indexing, member access, .length() and postfix ++/--.
func (p *Parser) postfix() (ast.ExprHandle, *ParseError) {
	expr, err := p.primary()
	if err != nil {
		return ast.NoExpr, err
	}

	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenLeftBracket:
			p.advance()
			index, err := p.expression()
			if err != nil {
				return ast.NoExpr, err
			}
			if err := p.expectErr(TokenRightBracket); err != nil {
				return ast.NoExpr, err
			}
			expr = p.tree.AddExpr(&ast.Index{Base: expr, Index: index}, pos(tok))
		case TokenDot:
			p.advance()
			field := p.peek()
			if field.Kind != TokenIdent {
				return ast.NoExpr, p.errorAt(field, "field name", "")
			}
			p.advance()
			m := &ast.Selection{Base: expr, Field: field.Lexeme}
			if p.check(TokenLeftParen) {
				if field.Lexeme != "length" || p.peekAt(1).Kind != TokenRightParen {
					return ast.NoExpr, p.errorAt(field, "", fmt.Sprintf("unknown method '%s'", field.Lexeme))
				}
				p.advance()
				p.advance()
				m.Method = true
			}
			expr = p.tree.AddExpr(m, pos(tok))
		case TokenPlusPlus, TokenMinusMinus:
			p.advance()
			expr = p.tree.AddExpr(&ast.Unary{Op: unaryOps[tok.Kind], Operand: expr, Postfix: true}, pos(tok))
		default:
			return expr, nil
		}
	}
}

// primary parses literals, names, calls, constructors and parentheses.
func (p *Parser) primary() (ast.ExprHandle, *ParseError) {
	tok := p.peek()

	switch tok.Kind {
	case TokenIntLiteral, TokenUintLiteral, TokenFloatLiteral, TokenDoubleLiteral:
		p.advance()
		return p.tree.AddExpr(&ast.Literal{Kind: literalKind(tok.Kind), Text: tok.Lexeme}, pos(tok)), nil

	case TokenTrue, TokenFalse:
		p.advance()
		return p.tree.AddExpr(&ast.Literal{Kind: ast.LitBool, Text: tok.Lexeme}, pos(tok)), nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return ast.NoExpr, err
		}
		if err := p.expectErr(TokenRightParen); err != nil {
			return ast.NoExpr, err
		}
		return expr, nil

	case TokenIdent:
		next := p.peekAt(1)
		if next.Kind == TokenLeftParen {
			return p.call()
		}
		if next.Kind == TokenLeftBracket && p.isTypeName(tok.Lexeme) {
			return p.arrayConstructor()
		}
		p.advance()
		return p.tree.AddExpr(&ast.Ident{Name: tok.Lexeme, Decl: p.lookup(tok.Lexeme)}, pos(tok)), nil

	case TokenError:
		return ast.NoExpr, p.errorAt(tok, "", fmt.Sprintf("invalid character %q", tok.Lexeme))

	default:
		return ast.NoExpr, p.errorAt(tok, "expression", "")
	}
}

func literalKind(k TokenKind) ast.LiteralKind {
	switch k {
	case TokenUintLiteral:
		return ast.LitUint
	case TokenFloatLiteral:
		return ast.LitFloat
	case TokenDoubleLiteral:
		return ast.LitDouble
	default:
		return ast.LitInt
	}
}

// call parses name(args). Struct constructors resolve to the struct, user
// functions to their first declaration; built-ins stay unresolved.
func (p *Parser) call() (ast.ExprHandle, *ParseError) {
	name := p.advance()
	args, err := p.arguments()
	if err != nil {
		return ast.NoExpr, err
	}
	decl := p.lookupType(name.Lexeme)
	if !decl.Valid() {
		if h := p.lookup(name.Lexeme); h.Valid() {
			if _, ok := p.tree.Decl(h).Kind.(*ast.Function); ok {
				decl = h
			}
		}
	}
	return p.tree.AddExpr(&ast.Call{Callee: name.Lexeme, Decl: decl, Args: args}, pos(name)), nil
}

// arrayConstructor parses type[size](args).
func (p *Parser) arrayConstructor() (ast.ExprHandle, *ParseError) {
	start := p.peek()
	ts, err := p.typeSpecifier(ast.Qualifiers{})
	if err != nil {
		return ast.NoExpr, err
	}
	if !p.check(TokenLeftParen) {
		return ast.NoExpr, p.errorAt(p.peek(), "'('", "array type used as a value")
	}
	args, err := p.arguments()
	if err != nil {
		return ast.NoExpr, err
	}
	return p.tree.AddExpr(&ast.Construct{Type: ts, Args: args}, pos(start)), nil
}

// arguments parses (a, b, ...). The current token must be '('.
func (p *Parser) arguments() ([]ast.ExprHandle, *ParseError) {
	p.advance()
	var args []ast.ExprHandle
	if p.check(TokenIdent) && p.peek().Lexeme == "void" && p.peekAt(1).Kind == TokenRightParen {
		p.advance()
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		arg, err := p.assignment()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	return args, nil
}
