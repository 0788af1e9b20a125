// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/preprocess"
)

// Parse parses preprocessed source into a syntax tree. The dialect is chosen
// by the #version directive.
//
// Parse recovers from syntax errors at the next ';' or '}' and keeps going.
// When any error was found it returns the partial tree together with a
// ParseErrors listing every error in source order.
func Parse(res *preprocess.Result) (*ast.Tree, error) {
	v, err := ParseVersion(res.Version)
	if err != nil {
		return nil, ParseErrors{{Loc: res.VersionLoc, Message: err.Error()}}
	}

	tokens := NewLexer(res.Text, v).Tokenize()
	p := newParser(tokens, v, res)
	tree := p.parse()
	if len(p.errors) > 0 {
		return tree, p.errors
	}
	return tree, nil
}

// scope holds the names declared in one block.
type scope struct {
	names map[string]ast.DeclHandle
	types map[string]ast.DeclHandle
}

// Parser parses GLSL tokens into an ast.Tree.
type Parser struct {
	tokens  []Token
	current int
	errors  ParseErrors

	res     *preprocess.Result
	version Version
	tree    *ast.Tree
	scopes  []scope

	anonStructs int
}

func newParser(tokens []Token, v Version, res *preprocess.Result) *Parser {
	return &Parser{
		tokens:  tokens,
		res:     res,
		version: v,
		tree:    ast.New(res.Source.Stage),
	}
}

func (p *Parser) parse() *ast.Tree {
	p.pushScope()
	for !p.isAtEnd() {
		if err := p.externalDeclaration(); err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
		}
	}
	p.popScope()
	p.resolveLateCalls()
	return p.tree
}

// externalDeclaration parses one top-level item.
func (p *Parser) externalDeclaration() *ParseError {
	switch p.peek().Kind {
	case TokenDirective:
		if h, ok := p.directive(); ok {
			p.tree.AppendGlobal(h)
		}
		return nil
	case TokenSemicolon:
		p.advance()
		return nil
	case TokenPrecision:
		h, err := p.precisionDecl()
		if err != nil {
			return err
		}
		p.tree.AppendGlobal(h)
		return nil
	}

	decls, err := p.declaration(true)
	for _, h := range decls {
		p.tree.AppendGlobal(h)
	}
	return err
}

// directive records #version and #extension lines on the tree and turns
// other pass-through lines into Pragma declarations.
func (p *Parser) directive() (ast.DeclHandle, bool) {
	tok := p.advance()
	name, rest, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(tok.Lexeme, "#")), " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "version":
		p.tree.Version = p.version.AST()
		p.tree.Version.Pos = pos(tok)
		return ast.NoDecl, false
	case "extension":
		ext, behavior, _ := strings.Cut(rest, ":")
		p.tree.Extensions = append(p.tree.Extensions, ast.Extension{
			Name:     strings.TrimSpace(ext),
			Behavior: strings.TrimSpace(behavior),
			Pos:      pos(tok),
		})
		return ast.NoDecl, false
	}
	return p.tree.AddDecl(&ast.Pragma{Text: tok.Lexeme}, pos(tok)), true
}

// precisionDecl parses precision highp float;
func (p *Parser) precisionDecl() (ast.DeclHandle, *ParseError) {
	start := p.advance()
	prec := p.peek()
	switch prec.Kind {
	case TokenLowp, TokenMediump, TokenHighp:
		p.advance()
	default:
		return ast.NoDecl, p.errorAt(prec, "precision qualifier", "")
	}
	typ := p.peek()
	if typ.Kind != TokenIdent || !IsBuiltinType(typ.Lexeme) {
		return ast.NoDecl, p.errorAt(typ, "type", "")
	}
	p.advance()
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.NoDecl, err
	}
	return p.tree.AddDecl(&ast.Precision{Precision: prec.Lexeme, Type: typ.Lexeme}, pos(start)), nil
}

// declaration parses a declaration statement. Function definitions are only
// accepted at global scope. The returned handles are in source order and are
// returned even alongside an error, so nothing parsed is lost.
func (p *Parser) declaration(global bool) ([]ast.DeclHandle, *ParseError) {
	start := p.peek()
	q, err := p.qualifiers()
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); {
	case tok.Kind == TokenSemicolon && !q.IsZero():
		p.advance()
		return []ast.DeclHandle{p.tree.AddDecl(&ast.Default{Qualifiers: q}, pos(start))}, nil

	case tok.Kind == TokenStruct:
		sh, err := p.structSpecifier()
		if err != nil {
			return nil, err
		}
		out := []ast.DeclHandle{sh}
		if p.match(TokenSemicolon) {
			return out, nil
		}
		ts := ast.TypeSpec{Qualifiers: q, Name: p.tree.DeclName(sh), Ref: sh}
		vars, err := p.declarators(ts, global)
		return append(out, vars...), err

	case tok.Kind == TokenIdent && !p.isTypeName(tok.Lexeme):
		next := p.peekAt(1)
		switch {
		case next.Kind == TokenLeftBrace && isBlockStorage(q.Storage):
			h, err := p.interfaceBlock(q, global)
			if err != nil {
				return nil, err
			}
			return []ast.DeclHandle{h}, nil
		case !q.IsZero() && (next.Kind == TokenSemicolon || next.Kind == TokenComma):
			return []ast.DeclHandle{p.redeclaration(q, start)}, p.expectErr(TokenSemicolon)
		}
		return nil, p.errorAt(tok, "", fmt.Sprintf("unknown type name '%s'", tok.Lexeme))

	case tok.Kind == TokenIdent:
		ts, err := p.typeSpecifier(q)
		if err != nil {
			return nil, err
		}
		if p.check(TokenIdent) && p.peekAt(1).Kind == TokenLeftParen {
			if !global {
				return nil, p.errorAt(p.peek(), "", "function definitions are only allowed at global scope")
			}
			h, err := p.functionDecl(ts, start)
			if err != nil {
				return nil, err
			}
			return []ast.DeclHandle{h}, nil
		}
		return p.declarators(ts, global)

	default:
		return nil, p.errorAt(tok, "declaration", "")
	}
}

func isBlockStorage(s ast.Storage) bool {
	switch s {
	case ast.StorageIn, ast.StorageOut, ast.StorageUniform, ast.StorageBuffer:
		return true
	}
	return false
}

// redeclaration parses the names of a qualifier-only declaration such as
// invariant gl_Position, gl_PointSize;
func (p *Parser) redeclaration(q ast.Qualifiers, start Token) ast.DeclHandle {
	var names []string
	for p.check(TokenIdent) {
		names = append(names, p.advance().Lexeme)
		if !p.match(TokenComma) {
			break
		}
	}
	return p.tree.AddDecl(&ast.Default{Qualifiers: q, Names: names}, pos(start))
}

// qualifiers parses any qualifiers before a type. Legacy storage
// qualifiers are accepted only where the version allows them.
func (p *Parser) qualifiers() (ast.Qualifiers, *ParseError) {
	var q ast.Qualifiers
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenLayout:
			p.advance()
			if err := p.layout(&q); err != nil {
				return q, err
			}
		case TokenInvariant:
			p.advance()
			q.Invariant = true
		case TokenPrecise:
			p.advance()
			q.Precise = true
		case TokenFlat, TokenSmooth, TokenNoperspective:
			p.advance()
			q.Interpolation = tok.Lexeme
		case TokenCentroid, TokenSample, TokenPatch:
			p.advance()
			q.Auxiliary = tok.Lexeme
		case TokenConst, TokenIn, TokenOut, TokenInout, TokenUniform, TokenBuffer, TokenShared:
			p.advance()
			q.Storage = storageOf(tok.Kind)
		case TokenAttribute, TokenVarying:
			p.advance()
			if !p.version.AllowsLegacy() {
				p.errors = append(p.errors, p.errorAt(tok, "",
					fmt.Sprintf("'%s' is not available in GLSL %s", tok.Lexeme, p.version)))
			}
			q.Storage = storageOf(tok.Kind)
		case TokenCoherent, TokenVolatile, TokenRestrict, TokenReadonly, TokenWriteonly:
			p.advance()
			q.Memory = append(q.Memory, tok.Lexeme)
		case TokenLowp, TokenMediump, TokenHighp:
			p.advance()
			q.Precision = tok.Lexeme
		default:
			return q, nil
		}
	}
}

func storageOf(kind TokenKind) ast.Storage {
	switch kind {
	case TokenConst:
		return ast.StorageConst
	case TokenIn:
		return ast.StorageIn
	case TokenOut:
		return ast.StorageOut
	case TokenInout:
		return ast.StorageInOut
	case TokenUniform:
		return ast.StorageUniform
	case TokenBuffer:
		return ast.StorageBuffer
	case TokenShared:
		return ast.StorageShared
	case TokenAttribute:
		return ast.StorageAttribute
	case TokenVarying:
		return ast.StorageVarying
	}
	return ast.StorageNone
}

// layout parses (name [= value], ...). Values are kept as written.
func (p *Parser) layout(q *ast.Qualifiers) *ParseError {
	if err := p.expectErr(TokenLeftParen); err != nil {
		return err
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		name := p.peek()
		if name.Kind != TokenIdent && name.Kind != TokenShared {
			return p.errorAt(name, "layout qualifier name", "")
		}
		p.advance()
		value := ""
		if p.match(TokenEqual) {
			var sb strings.Builder
			for !p.check(TokenComma) && !p.check(TokenRightParen) && !p.isAtEnd() {
				sb.WriteString(p.advance().Lexeme)
			}
			value = sb.String()
			if value == "" {
				return p.errorAt(p.peek(), "layout qualifier value", "")
			}
		}
		q.SetLayout(name.Lexeme, value)
		if !p.match(TokenComma) {
			break
		}
	}
	return p.expectErr(TokenRightParen)
}

// typeSpecifier parses a type name with optional array dimensions.
func (p *Parser) typeSpecifier(q ast.Qualifiers) (ast.TypeSpec, *ParseError) {
	tok := p.peek()
	if tok.Kind != TokenIdent || !p.isTypeName(tok.Lexeme) {
		return ast.TypeSpec{}, p.errorAt(tok, "type", "")
	}
	p.advance()
	ts := ast.TypeSpec{Qualifiers: q, Name: tok.Lexeme, Ref: p.lookupType(tok.Lexeme)}
	dims, err := p.arrayDims()
	if err != nil {
		return ts, err
	}
	ts.Array = dims
	return ts, nil
}

// arrayDims parses zero or more [size] suffixes. An unsized dimension is
// recorded as NoExpr.
func (p *Parser) arrayDims() ([]ast.ExprHandle, *ParseError) {
	var dims []ast.ExprHandle
	for p.match(TokenLeftBracket) {
		if p.match(TokenRightBracket) {
			dims = append(dims, ast.NoExpr)
			continue
		}
		size, err := p.conditional()
		if err != nil {
			return dims, err
		}
		dims = append(dims, size)
		if err := p.expectErr(TokenRightBracket); err != nil {
			return dims, err
		}
	}
	return dims, nil
}

// declarators parses name [dims] [= init] {, ...} ; for one type.
func (p *Parser) declarators(ts ast.TypeSpec, global bool) ([]ast.DeclHandle, *ParseError) {
	var out []ast.DeclHandle
	for {
		nameTok := p.peek()
		if nameTok.Kind != TokenIdent {
			return out, p.errorAt(nameTok, "identifier", "")
		}
		p.advance()
		dims, err := p.arrayDims()
		if err != nil {
			return out, err
		}
		init := ast.NoExpr
		if p.match(TokenEqual) {
			if init, err = p.initializer(); err != nil {
				return out, err
			}
		}
		h := p.tree.AddDecl(&ast.Variable{
			Type:   cloneType(ts),
			Name:   nameTok.Lexeme,
			Array:  dims,
			Init:   init,
			Global: global,
		}, pos(nameTok))
		p.declare(nameTok.Lexeme, h)
		out = append(out, h)
		if !p.match(TokenComma) {
			break
		}
	}
	return out, p.expectErr(TokenSemicolon)
}

func cloneType(ts ast.TypeSpec) ast.TypeSpec {
	ts.Array = slices.Clone(ts.Array)
	ts.Qualifiers.Layout = slices.Clone(ts.Qualifiers.Layout)
	ts.Qualifiers.Memory = slices.Clone(ts.Qualifiers.Memory)
	return ts
}

// initializer parses an assignment expression or a braced list.
func (p *Parser) initializer() (ast.ExprHandle, *ParseError) {
	if !p.check(TokenLeftBrace) {
		return p.assignment()
	}
	open := p.advance()
	var elems []ast.ExprHandle
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		e, err := p.initializer()
		if err != nil {
			return ast.NoExpr, err
		}
		elems = append(elems, e)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return ast.NoExpr, err
	}
	return p.tree.AddExpr(&ast.InitList{Exprs: elems}, pos(open)), nil
}

// functionDecl parses the rest of a function prototype or definition after
// the return type.
func (p *Parser) functionDecl(ret ast.TypeSpec, start Token) (ast.DeclHandle, *ParseError) {
	nameTok := p.advance()
	p.advance() // (

	p.pushScope()
	defer p.popScope()

	var params []ast.DeclHandle
	if p.check(TokenIdent) && p.peek().Lexeme == "void" && p.peekAt(1).Kind == TokenRightParen {
		p.advance()
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		h, err := p.parameter()
		if err != nil {
			return ast.NoDecl, err
		}
		params = append(params, h)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return ast.NoDecl, err
	}

	h := p.tree.AddDecl(&ast.Function{
		Return: ret,
		Name:   nameTok.Lexeme,
		Params: params,
		Body:   ast.NoStmt,
	}, pos(start))
	p.declareGlobal(nameTok.Lexeme, h)

	if p.match(TokenSemicolon) {
		return h, nil
	}
	if !p.check(TokenLeftBrace) {
		return h, p.errorAt(p.peek(), "'{' or ';'", "")
	}
	// Parameters and the outermost body block share one scope.
	body := p.compound(false)
	p.tree.Decl(h).Kind.(*ast.Function).Body = body
	return h, nil
}

func (p *Parser) parameter() (ast.DeclHandle, *ParseError) {
	start := p.peek()
	q, err := p.qualifiers()
	if err != nil {
		return ast.NoDecl, err
	}
	ts, err := p.typeSpecifier(q)
	if err != nil {
		return ast.NoDecl, err
	}
	param := &ast.Param{Type: ts}
	if p.check(TokenIdent) {
		param.Name = p.advance().Lexeme
		if param.Array, err = p.arrayDims(); err != nil {
			return ast.NoDecl, err
		}
	}
	h := p.tree.AddDecl(param, pos(start))
	if param.Name != "" {
		p.declare(param.Name, h)
	}
	return h, nil
}

// structSpecifier parses struct [Name] { members } and declares the type.
// Anonymous structs get a generated name so they can be declared on their
// own.
func (p *Parser) structSpecifier() (ast.DeclHandle, *ParseError) {
	start := p.advance()
	name := ""
	if p.check(TokenIdent) {
		name = p.advance().Lexeme
	} else {
		p.anonStructs++
		name = fmt.Sprintf("anon_struct_%d", p.anonStructs)
	}
	members, err := p.memberList()
	if err != nil {
		return ast.NoDecl, err
	}
	h := p.tree.AddDecl(&ast.Struct{Name: name, Members: members}, pos(start))
	p.declareType(name, h)
	return h, nil
}

// memberList parses { type name, name; ... } for structs and blocks.
func (p *Parser) memberList() ([]ast.Member, *ParseError) {
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}
	var members []ast.Member
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		q, err := p.qualifiers()
		if err != nil {
			return members, err
		}
		ts, err := p.typeSpecifier(q)
		if err != nil {
			return members, err
		}
		for {
			nameTok := p.peek()
			if nameTok.Kind != TokenIdent {
				return members, p.errorAt(nameTok, "member name", "")
			}
			p.advance()
			dims, err := p.arrayDims()
			if err != nil {
				return members, err
			}
			members = append(members, ast.Member{Type: cloneType(ts), Name: nameTok.Lexeme, Array: dims})
			if !p.match(TokenComma) {
				break
			}
		}
		if err := p.expectErr(TokenSemicolon); err != nil {
			return members, err
		}
	}
	if len(members) == 0 {
		return nil, p.errorAt(p.peek(), "", "empty member list")
	}
	return members, p.expectErr(TokenRightBrace)
}

// interfaceBlock parses uniform Name { members } [instance[dims]] ;
func (p *Parser) interfaceBlock(q ast.Qualifiers, global bool) (ast.DeclHandle, *ParseError) {
	nameTok := p.advance()
	if !global {
		return ast.NoDecl, p.errorAt(nameTok, "", "interface blocks are only allowed at global scope")
	}
	members, err := p.memberList()
	if err != nil {
		return ast.NoDecl, err
	}
	blk := &ast.Block{Qualifiers: q, Name: nameTok.Lexeme, Members: members}
	if p.check(TokenIdent) {
		blk.Instance = p.advance().Lexeme
		if blk.Array, err = p.arrayDims(); err != nil {
			return ast.NoDecl, err
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.NoDecl, err
	}
	h := p.tree.AddDecl(blk, pos(nameTok))
	if blk.Instance != "" {
		p.declare(blk.Instance, h)
	} else {
		for _, m := range members {
			p.declare(m.Name, h)
		}
	}
	return h, nil
}

// Scopes

func (p *Parser) pushScope() {
	p.scopes = append(p.scopes, scope{
		names: make(map[string]ast.DeclHandle),
		types: make(map[string]ast.DeclHandle),
	})
}

func (p *Parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *Parser) declare(name string, h ast.DeclHandle) {
	p.scopes[len(p.scopes)-1].names[name] = h
}

// declareGlobal declares a function name. Overloads and the definition of a
// prototyped function keep resolving to the first declaration.
func (p *Parser) declareGlobal(name string, h ast.DeclHandle) {
	if _, ok := p.scopes[0].names[name]; !ok {
		p.scopes[0].names[name] = h
	}
}

func (p *Parser) declareType(name string, h ast.DeclHandle) {
	p.scopes[len(p.scopes)-1].types[name] = h
}

func (p *Parser) lookup(name string) ast.DeclHandle {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if h, ok := p.scopes[i].names[name]; ok {
			return h
		}
	}
	return ast.NoDecl
}

func (p *Parser) lookupType(name string) ast.DeclHandle {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if h, ok := p.scopes[i].types[name]; ok {
			return h
		}
	}
	return ast.NoDecl
}

func (p *Parser) isTypeName(name string) bool {
	return IsBuiltinType(name) || p.lookupType(name).Valid()
}

// resolveLateCalls links calls to functions defined later in the file.
// GLSL requires a prototype first, but drivers are lenient and packs rely
// on it.
func (p *Parser) resolveLateCalls() {
	for i := range p.tree.Exprs {
		c, ok := p.tree.Exprs[i].Kind.(*ast.Call)
		if !ok || c.Decl.Valid() {
			continue
		}
		if fns := p.tree.Functions(c.Callee); len(fns) > 0 {
			c.Decl = fns[0]
		}
	}
}

// Helper methods

func pos(tok Token) ast.Pos {
	return ast.Pos{Line: tok.Line, Column: tok.Column}
}

// locate maps a token to its original location.
func (p *Parser) locate(tok Token) diag.Location {
	if loc := p.res.Lines.Locate(tok.Line, tok.Column); loc.Line != 0 {
		return loc
	}
	file := p.res.Source.Path
	if file == "" {
		file = p.res.Source.Name
	}
	return diag.Location{File: file, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) errorAt(tok Token, expected, message string) *ParseError {
	e := &ParseError{
		Pos:      pos(tok),
		Loc:      p.locate(tok),
		Expected: expected,
		Message:  message,
	}
	if expected != "" {
		e.Found = tok.describe()
	}
	return e
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind) *ParseError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return p.errorAt(p.peek(), "'"+kind.String()+"'", "")
}

// synchronize skips to the end of the current global declaration: past the
// next ';' at brace depth zero, or past the '}' closing a function body.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		tok := p.advance()
		switch tok.Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth <= 0 && !p.check(TokenSemicolon) {
				return
			}
		case TokenSemicolon:
			if depth <= 0 {
				return
			}
		}
	}
}

// syncStatement skips to the end of the current statement without leaving
// the enclosing block: past the next ';' at depth zero, or up to the '}'
// that closes the block.
func (p *Parser) syncStatement() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}
