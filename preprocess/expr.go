// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"strconv"
	"strings"
)

// evalCondition evaluates the controlling expression of #if or #elif.
func (e *expander) evalCondition(text string) (bool, error) {
	toks, err := e.replaceDefined(tokenize(text))
	if err != nil {
		return false, err
	}
	toks, err = e.expand(toks, 0)
	if err != nil {
		return false, err
	}
	var filtered []ppToken
	for _, t := range toks {
		if t.kind != ppSpace {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return false, newError(ErrInvalidExpression, e.loc, "empty expression")
	}
	p := &condParser{toks: filtered, e: e}
	v, err := p.ternary()
	if err != nil {
		return false, err
	}
	if p.pos < len(p.toks) {
		return false, newError(ErrInvalidExpression, e.loc, "unexpected %q", p.toks[p.pos].text)
	}
	return v != 0, nil
}

// replaceDefined rewrites "defined X" and "defined(X)" to 1 or 0 before macro
// expansion can touch X.
func (e *expander) replaceDefined(toks []ppToken) ([]ppToken, error) {
	out := make([]ppToken, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !t.is(ppIdent, "defined") {
			out = append(out, t)
			continue
		}
		j := skipSpace(toks, i+1)
		paren := j < len(toks) && toks[j].is(ppPunct, "(")
		if paren {
			j = skipSpace(toks, j+1)
		}
		if j >= len(toks) || toks[j].kind != ppIdent {
			return nil, newError(ErrInvalidExpression, e.loc, "defined requires an identifier")
		}
		name := toks[j].text
		if paren {
			j = skipSpace(toks, j+1)
			if j >= len(toks) || !toks[j].is(ppPunct, ")") {
				return nil, newError(ErrInvalidExpression, e.loc, "missing ')' after defined(%s", name)
			}
		}
		v := "0"
		if _, ok := e.macros[name]; ok || name == "__LINE__" {
			v = "1"
		}
		out = append(out, ppToken{ppNumber, v})
		i = j
	}
	return out, nil
}

func skipSpace(toks []ppToken, i int) int {
	for i < len(toks) && toks[i].kind == ppSpace {
		i++
	}
	return i
}

// condParser is a precedence-climbing evaluator over int64 following the C
// preprocessor operator table.
type condParser struct {
	toks []ppToken
	pos  int
	e    *expander
}

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (p *condParser) peek() (ppToken, bool) {
	if p.pos >= len(p.toks) {
		return ppToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *condParser) ternary() (int64, error) {
	cond, err := p.binary(1)
	if err != nil {
		return 0, err
	}
	t, ok := p.peek()
	if !ok || !t.is(ppPunct, "?") {
		return cond, nil
	}
	p.pos++
	a, err := p.ternary()
	if err != nil {
		return 0, err
	}
	if t, ok := p.peek(); !ok || !t.is(ppPunct, ":") {
		return 0, newError(ErrInvalidExpression, p.e.loc, "expected ':' in conditional expression")
	}
	p.pos++
	b, err := p.ternary()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

func (p *condParser) binary(minPrec int) (int64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != ppPunct {
			return left, nil
		}
		prec, isOp := binaryPrecedence[t.text]
		if !isOp || prec < minPrec {
			return left, nil
		}
		p.pos++
		right, err := p.binary(prec + 1)
		if err != nil {
			return 0, err
		}
		left, err = p.apply(t.text, left, right)
		if err != nil {
			return 0, err
		}
	}
}

func (p *condParser) apply(op string, a, b int64) (int64, error) {
	switch op {
	case "||":
		return boolInt(a != 0 || b != 0), nil
	case "&&":
		return boolInt(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		return a << uint64(b&63), nil
	case ">>":
		return a >> uint64(b&63), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			return 0, newError(ErrInvalidExpression, p.e.loc, "division by zero")
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, newError(ErrInvalidExpression, p.e.loc, "unknown operator %q", op)
}

func (p *condParser) unary() (int64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, newError(ErrInvalidExpression, p.e.loc, "unexpected end of expression")
	}
	if t.kind == ppPunct {
		switch t.text {
		case "+", "-", "~", "!":
			p.pos++
			v, err := p.unary()
			if err != nil {
				return 0, err
			}
			switch t.text {
			case "-":
				return -v, nil
			case "~":
				return ^v, nil
			case "!":
				return boolInt(v == 0), nil
			}
			return v, nil
		case "(":
			p.pos++
			v, err := p.ternary()
			if err != nil {
				return 0, err
			}
			if t, ok := p.peek(); !ok || !t.is(ppPunct, ")") {
				return 0, newError(ErrInvalidExpression, p.e.loc, "missing ')'")
			}
			p.pos++
			return v, nil
		}
	}
	p.pos++
	switch t.kind {
	case ppNumber:
		return parseIntLiteral(t.text, p)
	case ppIdent:
		// Identifiers left after expansion are not macros and evaluate to 0.
		return 0, nil
	}
	return 0, newError(ErrInvalidExpression, p.e.loc, "unexpected %q", t.text)
}

func parseIntLiteral(text string, p *condParser) (int64, error) {
	s := strings.TrimRight(text, "uU")
	base := 10
	switch {
	case isHexPrefixed(s):
		base, s = 16, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, newError(ErrInvalidExpression, p.e.loc, "invalid integer %q", text)
	}
	return int64(v), nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
