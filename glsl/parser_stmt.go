// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "github.com/gogpu/shaderpack/ast"

// compound parses { statements }. Errors inside are recorded and the parser
// resumes at the next statement, so compound itself never fails. The
// current token must be '{'.
func (p *Parser) compound(newScope bool) ast.StmtHandle {
	open := p.advance()
	if newScope {
		p.pushScope()
		defer p.popScope()
	}

	var stmts []ast.StmtHandle
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		s, err := p.statement()
		if s.Valid() {
			stmts = append(stmts, s)
		}
		if err != nil {
			p.errors = append(p.errors, err)
			p.syncStatement()
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		p.errors = append(p.errors, err)
	}
	return p.tree.AddStmt(&ast.Compound{Stmts: stmts, NewScope: newScope}, pos(open))
}

// statement parses one statement.
func (p *Parser) statement() (ast.StmtHandle, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenLeftBrace:
		return p.compound(true), nil
	case TokenIf:
		return p.ifStmt()
	case TokenFor:
		return p.forStmt()
	case TokenWhile:
		return p.whileStmt()
	case TokenDo:
		return p.doWhileStmt()
	case TokenSwitch:
		return p.switchStmt()
	case TokenCase, TokenDefault:
		return p.caseLabel()
	case TokenBreak:
		return p.jump(ast.JumpBreak)
	case TokenContinue:
		return p.jump(ast.JumpContinue)
	case TokenDiscard:
		return p.jump(ast.JumpDiscard)
	case TokenReturn:
		return p.returnStmt()
	case TokenDirective:
		p.advance()
		d := p.tree.AddDecl(&ast.Pragma{Text: tok.Lexeme}, pos(tok))
		return p.tree.AddStmt(&ast.DeclStmt{Decls: []ast.DeclHandle{d}}, pos(tok)), nil
	case TokenPrecision:
		d, err := p.precisionDecl()
		if err != nil {
			return ast.NoStmt, err
		}
		return p.tree.AddStmt(&ast.DeclStmt{Decls: []ast.DeclHandle{d}}, pos(tok)), nil
	}
	return p.simpleStatement()
}

// simpleStatement parses a declaration, expression or empty statement,
// including its ';'.
func (p *Parser) simpleStatement() (ast.StmtHandle, *ParseError) {
	tok := p.peek()
	if p.match(TokenSemicolon) {
		return p.tree.AddStmt(&ast.Empty{}, pos(tok)), nil
	}
	if p.startsDeclaration() {
		decls, err := p.declaration(false)
		s := ast.NoStmt
		if len(decls) > 0 {
			s = p.tree.AddStmt(&ast.DeclStmt{Decls: decls}, pos(tok))
		}
		return s, err
	}

	e, err := p.expression()
	if err != nil {
		return ast.NoStmt, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.NoStmt, err
	}
	return p.tree.AddStmt(&ast.ExprStmt{Expr: e}, pos(tok)), nil
}

// startsDeclaration decides between a declaration and an expression
// statement. A type name starts a declaration when a name follows it,
// possibly after array dimensions; vec3(1.0); is an expression.
func (p *Parser) startsDeclaration() bool {
	tok := p.peek()
	switch tok.Kind {
	case TokenStruct, TokenConst, TokenIn, TokenOut, TokenInout, TokenUniform, TokenBuffer, TokenShared,
		TokenAttribute, TokenVarying, TokenLayout, TokenInvariant, TokenPrecise,
		TokenFlat, TokenSmooth, TokenNoperspective, TokenCentroid, TokenSample, TokenPatch,
		TokenCoherent, TokenVolatile, TokenRestrict, TokenReadonly, TokenWriteonly,
		TokenLowp, TokenMediump, TokenHighp:
		return true
	case TokenIdent:
	default:
		return false
	}
	if !p.isTypeName(tok.Lexeme) {
		return false
	}
	i := 1
	for p.peekAt(i).Kind == TokenLeftBracket {
		depth := 0
		for {
			k := p.peekAt(i).Kind
			if k == TokenEOF {
				return false
			}
			if k == TokenLeftBracket {
				depth++
			} else if k == TokenRightBracket {
				depth--
				if depth == 0 {
					i++
					break
				}
			}
			i++
		}
	}
	return p.peekAt(i).Kind == TokenIdent
}

func (p *Parser) parenCondition() (ast.ExprHandle, *ParseError) {
	if err := p.expectErr(TokenLeftParen); err != nil {
		return ast.NoExpr, err
	}
	cond, err := p.expression()
	if err != nil {
		return ast.NoExpr, err
	}
	return cond, p.expectErr(TokenRightParen)
}

func (p *Parser) ifStmt() (ast.StmtHandle, *ParseError) {
	start := p.advance()
	cond, err := p.parenCondition()
	if err != nil {
		return ast.NoStmt, err
	}
	then, err := p.statement()
	if err != nil {
		return ast.NoStmt, err
	}
	els := ast.NoStmt
	if p.match(TokenElse) {
		if els, err = p.statement(); err != nil {
			return ast.NoStmt, err
		}
	}
	return p.tree.AddStmt(&ast.If{Cond: cond, Then: then, Else: els}, pos(start)), nil
}

func (p *Parser) forStmt() (ast.StmtHandle, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return ast.NoStmt, err
	}
	p.pushScope()
	defer p.popScope()

	init, err := p.simpleStatement()
	if err != nil {
		return ast.NoStmt, err
	}
	cond := ast.NoExpr
	if !p.check(TokenSemicolon) {
		if cond, err = p.expression(); err != nil {
			return ast.NoStmt, err
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.NoStmt, err
	}
	post := ast.NoExpr
	if !p.check(TokenRightParen) {
		if post, err = p.expression(); err != nil {
			return ast.NoStmt, err
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return ast.NoStmt, err
	}
	body, err := p.statement()
	if err != nil {
		return ast.NoStmt, err
	}
	return p.tree.AddStmt(&ast.For{Init: init, Cond: cond, Post: post, Body: body}, pos(start)), nil
}

func (p *Parser) whileStmt() (ast.StmtHandle, *ParseError) {
	start := p.advance()
	cond, err := p.parenCondition()
	if err != nil {
		return ast.NoStmt, err
	}
	body, err := p.statement()
	if err != nil {
		return ast.NoStmt, err
	}
	return p.tree.AddStmt(&ast.While{Cond: cond, Body: body}, pos(start)), nil
}

func (p *Parser) doWhileStmt() (ast.StmtHandle, *ParseError) {
	start := p.advance()
	body, err := p.statement()
	if err != nil {
		return ast.NoStmt, err
	}
	if err := p.expectErr(TokenWhile); err != nil {
		return ast.NoStmt, err
	}
	cond, err := p.parenCondition()
	if err != nil {
		return ast.NoStmt, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.NoStmt, err
	}
	return p.tree.AddStmt(&ast.DoWhile{Body: body, Cond: cond}, pos(start)), nil
}

func (p *Parser) switchStmt() (ast.StmtHandle, *ParseError) {
	start := p.advance()
	sel, err := p.parenCondition()
	if err != nil {
		return ast.NoStmt, err
	}
	if !p.check(TokenLeftBrace) {
		return ast.NoStmt, p.errorAt(p.peek(), "'{'", "")
	}
	body := p.compound(true)
	return p.tree.AddStmt(&ast.Switch{Selector: sel, Body: body}, pos(start)), nil
}

func (p *Parser) caseLabel() (ast.StmtHandle, *ParseError) {
	start := p.advance()
	value := ast.NoExpr
	if start.Kind == TokenCase {
		var err *ParseError
		if value, err = p.conditional(); err != nil {
			return ast.NoStmt, err
		}
	}
	if err := p.expectErr(TokenColon); err != nil {
		return ast.NoStmt, err
	}
	return p.tree.AddStmt(&ast.Case{Value: value}, pos(start)), nil
}

func (p *Parser) jump(kind ast.JumpKind) (ast.StmtHandle, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.NoStmt, err
	}
	return p.tree.AddStmt(&ast.Jump{Kind: kind, Value: ast.NoExpr}, pos(start)), nil
}

func (p *Parser) returnStmt() (ast.StmtHandle, *ParseError) {
	start := p.advance()
	value := ast.NoExpr
	if !p.check(TokenSemicolon) {
		var err *ParseError
		if value, err = p.expression(); err != nil {
			return ast.NoStmt, err
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.NoStmt, err
	}
	return p.tree.AddStmt(&ast.Jump{Kind: ast.JumpReturn, Value: value}, pos(start)), nil
}
