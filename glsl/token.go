// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenUintLiteral
	TokenFloatLiteral
	TokenDoubleLiteral

	// TokenDirective is a whole #version, #extension or pass-through line.
	TokenDirective

	// Operators
	TokenPlus                // +
	TokenMinus               // -
	TokenStar                // *
	TokenSlash               // /
	TokenPercent             // %
	TokenAmpersand           // &
	TokenPipe                // |
	TokenCaret               // ^
	TokenTilde               // ~
	TokenBang                // !
	TokenEqual               // =
	TokenLess                // <
	TokenGreater             // >
	TokenDot                 // .
	TokenComma               // ,
	TokenColon               // :
	TokenSemicolon           // ;
	TokenQuestion            // ?
	TokenPlusPlus            // ++
	TokenMinusMinus          // --
	TokenEqualEqual          // ==
	TokenBangEqual           // !=
	TokenLessEqual           // <=
	TokenGreaterEqual        // >=
	TokenAmpAmp              // &&
	TokenPipePipe            // ||
	TokenCaretCaret          // ^^
	TokenLessLess            // <<
	TokenGreaterGreater      // >>
	TokenPlusEqual           // +=
	TokenMinusEqual          // -=
	TokenStarEqual           // *=
	TokenSlashEqual          // /=
	TokenPercentEqual        // %=
	TokenAmpEqual            // &=
	TokenPipeEqual           // |=
	TokenCaretEqual          // ^=
	TokenLessLessEqual       // <<=
	TokenGreaterGreaterEqual // >>=

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenAttribute
	TokenBreak
	TokenBuffer
	TokenCase
	TokenCentroid
	TokenCoherent
	TokenConst
	TokenContinue
	TokenDefault
	TokenDiscard
	TokenDo
	TokenElse
	TokenFalse
	TokenFlat
	TokenFor
	TokenHighp
	TokenIf
	TokenIn
	TokenInout
	TokenInvariant
	TokenLayout
	TokenLowp
	TokenMediump
	TokenNoperspective
	TokenOut
	TokenPatch
	TokenPrecise
	TokenPrecision
	TokenReadonly
	TokenRestrict
	TokenReturn
	TokenSample
	TokenShared
	TokenSmooth
	TokenStruct
	TokenSwitch
	TokenTrue
	TokenUniform
	TokenVarying
	TokenVolatile
	TokenWhile
	TokenWriteonly

	tokenCount
)

var tokenNames = [tokenCount]string{
	TokenEOF:           "end of file",
	TokenError:         "invalid character",
	TokenIdent:         "identifier",
	TokenIntLiteral:    "integer literal",
	TokenUintLiteral:   "unsigned literal",
	TokenFloatLiteral:  "float literal",
	TokenDoubleLiteral: "double literal",
	TokenDirective:     "directive",

	TokenPlus:                "+",
	TokenMinus:               "-",
	TokenStar:                "*",
	TokenSlash:               "/",
	TokenPercent:             "%",
	TokenAmpersand:           "&",
	TokenPipe:                "|",
	TokenCaret:               "^",
	TokenTilde:               "~",
	TokenBang:                "!",
	TokenEqual:               "=",
	TokenLess:                "<",
	TokenGreater:             ">",
	TokenDot:                 ".",
	TokenComma:               ",",
	TokenColon:               ":",
	TokenSemicolon:           ";",
	TokenQuestion:            "?",
	TokenPlusPlus:            "++",
	TokenMinusMinus:          "--",
	TokenEqualEqual:          "==",
	TokenBangEqual:           "!=",
	TokenLessEqual:           "<=",
	TokenGreaterEqual:        ">=",
	TokenAmpAmp:              "&&",
	TokenPipePipe:            "||",
	TokenCaretCaret:          "^^",
	TokenLessLess:            "<<",
	TokenGreaterGreater:      ">>",
	TokenPlusEqual:           "+=",
	TokenMinusEqual:          "-=",
	TokenStarEqual:           "*=",
	TokenSlashEqual:          "/=",
	TokenPercentEqual:        "%=",
	TokenAmpEqual:            "&=",
	TokenPipeEqual:           "|=",
	TokenCaretEqual:          "^=",
	TokenLessLessEqual:       "<<=",
	TokenGreaterGreaterEqual: ">>=",

	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenLeftBracket:  "[",
	TokenRightBracket: "]",

	TokenAttribute:     "attribute",
	TokenBreak:         "break",
	TokenBuffer:        "buffer",
	TokenCase:          "case",
	TokenCentroid:      "centroid",
	TokenCoherent:      "coherent",
	TokenConst:         "const",
	TokenContinue:      "continue",
	TokenDefault:       "default",
	TokenDiscard:       "discard",
	TokenDo:            "do",
	TokenElse:          "else",
	TokenFalse:         "false",
	TokenFlat:          "flat",
	TokenFor:           "for",
	TokenHighp:         "highp",
	TokenIf:            "if",
	TokenIn:            "in",
	TokenInout:         "inout",
	TokenInvariant:     "invariant",
	TokenLayout:        "layout",
	TokenLowp:          "lowp",
	TokenMediump:       "mediump",
	TokenNoperspective: "noperspective",
	TokenOut:           "out",
	TokenPatch:         "patch",
	TokenPrecise:       "precise",
	TokenPrecision:     "precision",
	TokenReadonly:      "readonly",
	TokenRestrict:      "restrict",
	TokenReturn:        "return",
	TokenSample:        "sample",
	TokenShared:        "shared",
	TokenSmooth:        "smooth",
	TokenStruct:        "struct",
	TokenSwitch:        "switch",
	TokenTrue:          "true",
	TokenUniform:       "uniform",
	TokenVarying:       "varying",
	TokenVolatile:      "volatile",
	TokenWhile:         "while",
	TokenWriteonly:     "writeonly",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if k < tokenCount {
		return tokenNames[k]
	}
	return "Unknown"
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}

// describe renders a token for "found ..." messages.
func (t Token) describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of file"
	case TokenIdent, TokenIntLiteral, TokenUintLiteral, TokenFloatLiteral, TokenDoubleLiteral:
		return "'" + t.Lexeme + "'"
	case TokenDirective:
		return "directive '" + t.Lexeme + "'"
	default:
		return "'" + t.Kind.String() + "'"
	}
}

// keyword is a reserved word with the versions that introduced it. Below
// those versions the word lexes as an identifier. A zero ES version means the
// word is not reserved in GLSL ES.
type keyword struct {
	kind    TokenKind
	desktop int
	es      int
}

var keywords = map[string]keyword{
	"attribute":     {TokenAttribute, 110, 100},
	"break":         {TokenBreak, 110, 100},
	"buffer":        {TokenBuffer, 430, 310},
	"case":          {TokenCase, 130, 300},
	"centroid":      {TokenCentroid, 120, 300},
	"coherent":      {TokenCoherent, 420, 310},
	"const":         {TokenConst, 110, 100},
	"continue":      {TokenContinue, 110, 100},
	"default":       {TokenDefault, 130, 300},
	"discard":       {TokenDiscard, 110, 100},
	"do":            {TokenDo, 110, 100},
	"else":          {TokenElse, 110, 100},
	"false":         {TokenFalse, 110, 100},
	"flat":          {TokenFlat, 130, 300},
	"for":           {TokenFor, 110, 100},
	"highp":         {TokenHighp, 130, 100},
	"if":            {TokenIf, 110, 100},
	"in":            {TokenIn, 110, 100},
	"inout":         {TokenInout, 110, 100},
	"invariant":     {TokenInvariant, 120, 100},
	"layout":        {TokenLayout, 140, 300},
	"lowp":          {TokenLowp, 130, 100},
	"mediump":       {TokenMediump, 130, 100},
	"noperspective": {TokenNoperspective, 130, 0},
	"out":           {TokenOut, 110, 100},
	"patch":         {TokenPatch, 400, 320},
	"precise":       {TokenPrecise, 400, 320},
	"precision":     {TokenPrecision, 130, 100},
	"readonly":      {TokenReadonly, 420, 310},
	"restrict":      {TokenRestrict, 420, 310},
	"return":        {TokenReturn, 110, 100},
	"sample":        {TokenSample, 400, 320},
	"shared":        {TokenShared, 430, 310},
	"smooth":        {TokenSmooth, 130, 300},
	"struct":        {TokenStruct, 110, 100},
	"switch":        {TokenSwitch, 130, 300},
	"true":          {TokenTrue, 110, 100},
	"uniform":       {TokenUniform, 110, 100},
	"varying":       {TokenVarying, 110, 100},
	"volatile":      {TokenVolatile, 420, 310},
	"while":         {TokenWhile, 110, 100},
	"writeonly":     {TokenWriteonly, 420, 310},
}

// lookupKeyword returns the keyword token for text under version v, or
// TokenIdent.
func lookupKeyword(text string, v Version) TokenKind {
	kw, ok := keywords[text]
	if !ok {
		return TokenIdent
	}
	if v.ES {
		if kw.es == 0 || v.Number() < kw.es {
			return TokenIdent
		}
		return kw.kind
	}
	if v.Number() < kw.desktop {
		return TokenIdent
	}
	return kw.kind
}
