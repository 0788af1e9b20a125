// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"strconv"
	"strings"

	"github.com/gogpu/shaderpack/diag"
)

// Macro is a #define'd symbol.
type Macro struct {
	Name string
	// Function is true for function-like macros, even with no parameters.
	Function bool
	Params   []string
	Body     string
	// Loc is where the macro was defined; zero for predefined macros.
	Loc diag.Location

	body []ppToken
}

func newObjectMacro(name, body string) *Macro {
	return &Macro{Name: name, Body: body, body: trimSpace(tokenize(body))}
}

// sameDefinition reports whether two definitions are identical in the sense
// of redefinition rules: same parameters and same body up to whitespace.
func (m *Macro) sameDefinition(o *Macro) bool {
	if m.Function != o.Function || len(m.Params) != len(o.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != o.Params[i] {
			return false
		}
	}
	return strings.Join(strings.Fields(m.Body), " ") == strings.Join(strings.Fields(o.Body), " ")
}

// parseDefine parses the text following "#define".
func parseDefine(rest string, loc diag.Location) (*Macro, error) {
	toks := tokenize(rest)
	i := 0
	for i < len(toks) && toks[i].kind == ppSpace {
		i++
	}
	if i >= len(toks) || toks[i].kind != ppIdent {
		return nil, newError(ErrInvalidMacro, loc, "#define requires a macro name")
	}
	m := &Macro{Name: toks[i].text, Loc: loc}
	if err := checkMacroName(m.Name, loc); err != nil {
		return nil, err
	}
	i++

	// A '(' directly after the name starts a parameter list.
	if i < len(toks) && toks[i].is(ppPunct, "(") {
		m.Function = true
		i++
		expectParam := true
		closed := false
		for i < len(toks) {
			t := toks[i]
			i++
			switch {
			case t.kind == ppSpace:
			case t.is(ppPunct, ")"):
				if expectParam && len(m.Params) > 0 {
					return nil, newError(ErrInvalidMacro, loc, "missing parameter name in %s", m.Name)
				}
				closed = true
			case t.is(ppPunct, ","):
				if expectParam {
					return nil, newError(ErrInvalidMacro, loc, "missing parameter name in %s", m.Name)
				}
				expectParam = true
			case t.kind == ppIdent && expectParam:
				for _, p := range m.Params {
					if p == t.text {
						return nil, newError(ErrInvalidMacro, loc, "duplicate parameter %s in %s", t.text, m.Name)
					}
				}
				m.Params = append(m.Params, t.text)
				expectParam = false
			default:
				return nil, newError(ErrInvalidMacro, loc, "unexpected %q in parameters of %s", t.text, m.Name)
			}
			if closed {
				break
			}
		}
		if !closed {
			return nil, newError(ErrInvalidMacro, loc, "unterminated parameter list in %s", m.Name)
		}
	} else if i < len(toks) && toks[i].kind != ppSpace {
		return nil, newError(ErrInvalidMacro, loc, "missing whitespace after macro name %s", m.Name)
	}

	m.body = trimSpace(toks[i:])
	m.Body = joinTokens(m.body)
	return m, nil
}

func checkMacroName(name string, loc diag.Location) error {
	switch {
	case name == "defined":
		return newError(ErrInvalidMacro, loc, "cannot define %q", name)
	case strings.HasPrefix(name, "GL_"):
		return newError(ErrInvalidMacro, loc, "macro names beginning with GL_ are reserved: %s", name)
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return newError(ErrInvalidMacro, loc, "built-in macro %s cannot be changed", name)
	}
	return nil
}

// expander performs macro substitution on one logical line.
type expander struct {
	macros   map[string]*Macro
	maxDepth int
	// budget is the number of tokens expansion may still produce.
	budget int
	loc    diag.Location
}

// spend charges n produced tokens against the budget.
func (e *expander) spend(n int) error {
	e.budget -= n
	if e.budget < 0 {
		return newError(ErrMacroRecursionExceeded, e.loc, "expansion produced too many tokens")
	}
	return nil
}

func (e *expander) expandLine(line string) (string, error) {
	out, err := e.expand(tokenize(line), 0)
	if err != nil {
		return "", err
	}
	return joinTokens(out), nil
}

// expand substitutes macros in toks and rescans the result. Expansion does
// not suppress self-reference, so a macro that expands to itself recurses
// until maxDepth and reports ErrMacroRecursionExceeded.
func (e *expander) expand(toks []ppToken, depth int) ([]ppToken, error) {
	if depth > e.maxDepth {
		return nil, newError(ErrMacroRecursionExceeded, e.loc, "expansion nested deeper than %d", e.maxDepth)
	}
	out := make([]ppToken, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != ppIdent {
			out = append(out, t)
			continue
		}
		if t.text == "__LINE__" {
			out = append(out, ppToken{ppNumber, strconv.Itoa(e.loc.Line)})
			continue
		}
		m, ok := e.macros[t.text]
		if !ok {
			out = append(out, t)
			continue
		}
		if !m.Function {
			exp, err := e.expand(pasteTokens(cloneTokens(m.body)), depth+1)
			if err != nil {
				return nil, err
			}
			if err := e.spend(len(exp)); err != nil {
				return nil, err
			}
			out = append(out, exp...)
			continue
		}

		// A function-like macro name not followed by '(' is left alone.
		j := i + 1
		for j < len(toks) && toks[j].kind == ppSpace {
			j++
		}
		if j >= len(toks) || !toks[j].is(ppPunct, "(") {
			out = append(out, t)
			continue
		}
		args, end, err := e.collectArgs(toks, j, m)
		if err != nil {
			return nil, err
		}
		body, err := e.substitute(m, args, depth)
		if err != nil {
			return nil, err
		}
		exp, err := e.expand(body, depth+1)
		if err != nil {
			return nil, err
		}
		if err := e.spend(len(exp)); err != nil {
			return nil, err
		}
		out = append(out, exp...)
		i = end
	}
	return out, nil
}

// collectArgs gathers the arguments of a function-like macro invocation whose
// '(' is at toks[open]. It returns the index of the closing ')'.
func (e *expander) collectArgs(toks []ppToken, open int, m *Macro) ([][]ppToken, int, error) {
	var args [][]ppToken
	var cur []ppToken
	depth := 0
	for k := open + 1; k < len(toks); k++ {
		t := toks[k]
		switch {
		case t.is(ppPunct, "("):
			depth++
		case t.is(ppPunct, ")") && depth > 0:
			depth--
		case t.is(ppPunct, ")"):
			args = append(args, trimSpace(cur))
			if len(m.Params) == 0 && len(args) == 1 && len(args[0]) == 0 {
				args = nil
			}
			if len(args) != len(m.Params) {
				return nil, 0, newError(ErrInvalidMacro, e.loc, "%s expects %d argument(s), got %d", m.Name, len(m.Params), len(args))
			}
			return args, k, nil
		case t.is(ppPunct, ",") && depth == 0:
			args = append(args, trimSpace(cur))
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	return nil, 0, newError(ErrInvalidMacro, e.loc, "unterminated invocation of %s", m.Name)
}

// substitute replaces parameters in the macro body. Arguments are fully
// expanded first, except where they are operands of ## which uses them raw.
func (e *expander) substitute(m *Macro, args [][]ppToken, depth int) ([]ppToken, error) {
	index := make(map[string]int, len(m.Params))
	for i, p := range m.Params {
		index[p] = i
	}
	expanded := make([][]ppToken, len(args))

	var out []ppToken
	for i, t := range m.body {
		pi, isParam := index[t.text]
		if t.kind != ppIdent || !isParam {
			out = append(out, t)
			continue
		}
		if adjacentToPaste(m.body, i) {
			out = append(out, args[pi]...)
			continue
		}
		if expanded[pi] == nil {
			exp, err := e.expand(args[pi], depth+1)
			if err != nil {
				return nil, err
			}
			expanded[pi] = append([]ppToken{}, exp...)
		}
		if err := e.spend(len(expanded[pi])); err != nil {
			return nil, err
		}
		out = append(out, expanded[pi]...)
	}
	return pasteTokens(out), nil
}

func adjacentToPaste(body []ppToken, i int) bool {
	for j := i - 1; j >= 0; j-- {
		if body[j].kind != ppSpace {
			if body[j].is(ppPunct, "##") {
				return true
			}
			break
		}
	}
	for j := i + 1; j < len(body); j++ {
		if body[j].kind != ppSpace {
			return body[j].is(ppPunct, "##")
		}
	}
	return false
}

// pasteTokens applies the ## operator, concatenating its neighbours.
func pasteTokens(toks []ppToken) []ppToken {
	hasPaste := false
	for _, t := range toks {
		if t.is(ppPunct, "##") {
			hasPaste = true
			break
		}
	}
	if !hasPaste {
		return toks
	}
	out := make([]ppToken, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !t.is(ppPunct, "##") {
			out = append(out, t)
			continue
		}
		for len(out) > 0 && out[len(out)-1].kind == ppSpace {
			out = out[:len(out)-1]
		}
		j := i + 1
		for j < len(toks) && toks[j].kind == ppSpace {
			j++
		}
		if j >= len(toks) || len(out) == 0 {
			continue
		}
		left := out[len(out)-1]
		pasted := tokenize(left.text + toks[j].text)
		out = append(out[:len(out)-1], pasted...)
		i = j
	}
	return out
}

func cloneTokens(toks []ppToken) []ppToken {
	return append([]ppToken(nil), toks...)
}
