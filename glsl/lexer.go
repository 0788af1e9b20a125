// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"strings"
	"unicode/utf8"
)

// Lexer tokenizes preprocessed GLSL source code. Keywords are recognized
// according to the language version: a word reserved only in later versions
// lexes as an identifier.
type Lexer struct {
	source  string
	version Version
	pos     int
	line    int
	column  int
	start   int
	// lineStart is true while only whitespace has been seen on the line.
	lineStart bool
	tokens    []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string, version Version) *Lexer {
	// Estimate ~1 token per 6 characters of source.
	estTokens := len(source) / 6
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source:    source,
		version:   version,
		line:      1,
		column:    1,
		lineStart: true,
		tokens:    make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source. Invalid characters become
// TokenError tokens for the parser to report.
func (l *Lexer) Tokenize() []Token {
	for !l.isAtEnd() {
		l.start = l.pos
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens
}

func (l *Lexer) scanToken() {
	r := l.advance()

	switch r {
	// Whitespace
	case ' ', '\r', '\t', '\f', '\v':
		return
	case '\n':
		l.line++
		l.column = 1
		l.lineStart = true
		return
	}

	if r == '#' && l.lineStart {
		l.directive()
		return
	}
	l.lineStart = false

	switch r {
	// Single-character tokens
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ':':
		l.addToken(TokenColon)
	case ';':
		l.addToken(TokenSemicolon)
	case '?':
		l.addToken(TokenQuestion)
	case '~':
		l.addToken(TokenTilde)
	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(TokenDot)
		}
	case '%':
		l.addToken(l.pick('=', TokenPercentEqual, TokenPercent))
	case '^':
		if l.match('^') {
			l.addToken(TokenCaretCaret)
		} else {
			l.addToken(l.pick('=', TokenCaretEqual, TokenCaret))
		}

	// Operators that could be one or two characters
	case '+':
		if l.match('+') {
			l.addToken(TokenPlusPlus)
		} else {
			l.addToken(l.pick('=', TokenPlusEqual, TokenPlus))
		}
	case '-':
		if l.match('-') {
			l.addToken(TokenMinusMinus)
		} else {
			l.addToken(l.pick('=', TokenMinusEqual, TokenMinus))
		}
	case '*':
		l.addToken(l.pick('=', TokenStarEqual, TokenStar))
	case '/':
		switch {
		case l.match('/'):
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		case l.match('*'):
			l.blockComment()
		default:
			l.addToken(l.pick('=', TokenSlashEqual, TokenSlash))
		}
	case '=':
		l.addToken(l.pick('=', TokenEqualEqual, TokenEqual))
	case '!':
		l.addToken(l.pick('=', TokenBangEqual, TokenBang))
	case '<':
		if l.match('<') {
			l.addToken(l.pick('=', TokenLessLessEqual, TokenLessLess))
		} else {
			l.addToken(l.pick('=', TokenLessEqual, TokenLess))
		}
	case '>':
		if l.match('>') {
			l.addToken(l.pick('=', TokenGreaterGreaterEqual, TokenGreaterGreater))
		} else {
			l.addToken(l.pick('=', TokenGreaterEqual, TokenGreater))
		}
	case '&':
		if l.match('&') {
			l.addToken(TokenAmpAmp)
		} else {
			l.addToken(l.pick('=', TokenAmpEqual, TokenAmpersand))
		}
	case '|':
		if l.match('|') {
			l.addToken(TokenPipePipe)
		} else {
			l.addToken(l.pick('=', TokenPipeEqual, TokenPipe))
		}

	default:
		switch {
		case isDigit(r):
			l.number()
		case isAlpha(r) || r == '_':
			l.identifier()
		default:
			l.addToken(TokenError)
		}
	}
}

// pick consumes next and returns yes if it follows, otherwise no.
func (l *Lexer) pick(next rune, yes, no TokenKind) TokenKind {
	if l.match(next) {
		return yes
	}
	return no
}

// directive lexes a whole directive line as one token.
func (l *Lexer) directive() {
	for l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
	tok := Token{
		Kind:   TokenDirective,
		Lexeme: strings.TrimSpace(l.source[l.start:l.pos]),
		Line:   l.line,
		Column: l.column - (l.pos - l.start),
	}
	l.tokens = append(l.tokens, tok)
}

func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.peek() == '\n' {
			l.advance()
			l.line++
			l.column = 1
			continue
		}
		l.advance()
	}
}

func (l *Lexer) number() {
	kind := TokenIntLiteral

	// Hex integers
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == 'u' || l.peek() == 'U' {
			l.advance()
			kind = TokenUintLiteral
		}
		l.addToken(kind)
		return
	}

	if l.source[l.start] == '.' {
		kind = TokenFloatLiteral
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	if kind == TokenIntLiteral && l.peek() == '.' {
		l.advance()
		kind = TokenFloatLiteral
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	// Exponent
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) || next == '+' || next == '-' {
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
			kind = TokenFloatLiteral
		}
	}

	// Suffixes
	switch {
	case kind == TokenIntLiteral && (l.peek() == 'u' || l.peek() == 'U'):
		l.advance()
		kind = TokenUintLiteral
	case l.peek() == 'f' || l.peek() == 'F':
		l.advance()
		kind = TokenFloatLiteral
	case (l.peek() == 'l' && l.peekNext() == 'f') || (l.peek() == 'L' && l.peekNext() == 'F'):
		l.advance()
		l.advance()
		kind = TokenDoubleLiteral
	}

	l.addToken(kind)
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	text := l.source[l.start:l.pos]
	l.addToken(lookupKeyword(text, l.version))
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.column - (l.pos - l.start),
	})
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// GLSL identifiers are ASCII.
func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
