// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package preprocess expands macros and resolves conditional compilation in
// shader source text. It knows nothing about the shading-language grammar:
// it works on lines and preprocessing tokens, and keeps a line map so that
// later stages can report positions in the original files.
package preprocess

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/shader"
)

// Extension is an #extension directive.
type Extension struct {
	Name     string
	Behavior string
	Loc      diag.Location
}

// LineMap maps output lines (index = line-1) to original locations.
type LineMap []diag.Location

// Locate maps a 1-based output line and column to the original location.
// Columns are carried over unchanged; they are exact for lines without macro
// expansion.
func (m LineMap) Locate(line, column int) diag.Location {
	if line < 1 || line > len(m) {
		return diag.Location{}
	}
	loc := m[line-1]
	loc.Column = column
	return loc
}

// Result is directive-free source text plus the state needed downstream.
type Result struct {
	Source  shader.Source
	Options shader.OptionSet

	// Text contains no preprocessor directives other than #version,
	// #extension and whitelisted pass-through lines.
	Text  string
	Lines LineMap

	// Macros holds the definitions active at the end of the file.
	Macros map[string]*Macro

	// Version is the value of the #version directive, e.g. "330 core".
	// Empty when the source has none.
	Version    string
	VersionLoc diag.Location
	Extensions []Extension

	// Warnings are non-fatal findings such as macro redefinitions.
	Warnings diag.List
}

// condFrame is one level of #if nesting.
type condFrame struct {
	// parentActive is whether the enclosing region emits code.
	parentActive bool
	// active is whether the current branch emits code.
	active bool
	// taken is whether any branch of this conditional has been selected.
	taken   bool
	sawElse bool
	loc     diag.Location
}

type state struct {
	cfg     *Config
	src     shader.Source
	macros  map[string]*Macro
	locked  map[string]bool
	conds   []condFrame
	out     []string
	lines   LineMap
	res     *Result
	stack   []string
	visited map[string]bool
}

// Preprocess resolves directives in src under the given options.
func Preprocess(src shader.Source, opts shader.OptionSet, cfg Config) (*Result, error) {
	st := &state{
		cfg:     &cfg,
		src:     src,
		macros:  make(map[string]*Macro),
		locked:  make(map[string]bool),
		res:     &Result{Source: src, Options: opts},
		visited: make(map[string]bool),
	}
	st.predefine(opts)

	if err := st.processFile(src.Path, src.Text); err != nil {
		return nil, err
	}

	st.res.Text = strings.Join(st.out, "\n") + "\n"
	st.res.Lines = st.lines
	st.res.Macros = st.macros
	return st.res, nil
}

func (st *state) predefine(opts shader.OptionSet) {
	define := func(name, body string) {
		st.macros[name] = newObjectMacro(name, body)
	}
	define("HOST_VERSION", strconv.Itoa(st.cfg.HostVersion))
	define("__VERSION__", "110")
	if m := st.src.Stage.Macro(); m != "" {
		define(m, "1")
	}
	for _, c := range st.cfg.Capabilities {
		define(CapabilityMacro(c), "1")
	}
	for name, body := range st.cfg.Predefined {
		define(name, body)
	}
	// Options override whatever the pack itself declares for the same name,
	// including a false boolean which keeps the macro undefined.
	for _, name := range opts.Names() {
		st.locked[name] = true
		delete(st.macros, name)
	}
	for name, body := range opts.Defines() {
		define(name, body)
	}
}

func (st *state) active() bool {
	if n := len(st.conds); n > 0 {
		return st.conds[n-1].active
	}
	return true
}

func (st *state) emit(text string, loc diag.Location) {
	st.out = append(st.out, text)
	st.lines = append(st.lines, loc)
}

func (st *state) processFile(path, text string) error {
	for _, p := range st.stack {
		if p == path {
			return newError(ErrIncludeCycle, diag.Location{File: path}, "%s", strings.Join(append(st.stack, path), " -> "))
		}
	}
	st.stack = append(st.stack, path)
	st.visited[path] = true
	defer func() { st.stack = st.stack[:len(st.stack)-1] }()

	base := len(st.conds)
	lines := logicalLines(stripComments(text))
	for i, line := range lines {
		loc := diag.Location{File: path, Line: i + 1}
		if err := st.processLine(line, loc); err != nil {
			return err
		}
	}
	if len(st.conds) > base {
		open := st.conds[len(st.conds)-1]
		return newError(ErrUnterminatedConditional, open.loc, "missing #endif")
	}
	return nil
}

func (st *state) processLine(line string, loc diag.Location) error {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "#") {
		if !st.active() {
			st.emit("", loc)
			return nil
		}
		ex := st.expander(loc)
		expanded, err := ex.expandLine(line)
		if err != nil {
			return err
		}
		st.emit(expanded, loc)
		return nil
	}

	name, rest := splitDirective(trimmed[1:])
	switch name {
	case "if", "ifdef", "ifndef", "elif", "else", "endif":
		st.emit("", loc)
		return st.conditional(name, rest, loc)
	}
	if !st.active() {
		st.emit("", loc)
		return nil
	}

	switch name {
	case "":
		// The null directive.
		st.emit("", loc)
	case "define":
		st.emit("", loc)
		return st.define(rest, loc)
	case "undef":
		st.emit("", loc)
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return newError(ErrInvalidMacro, loc, "#undef requires exactly one name")
		}
		if err := checkMacroName(fields[0], loc); err != nil {
			return err
		}
		if !st.locked[fields[0]] {
			delete(st.macros, fields[0])
		}
	case "version":
		return st.version(trimmed, rest, loc)
	case "extension":
		return st.extension(trimmed, rest, loc)
	case "error":
		return newError(ErrErrorDirective, loc, "%s", strings.TrimSpace(rest))
	case "include":
		st.emit("", loc)
		return st.include(rest, loc)
	default:
		if st.cfg.whitelisted(name) {
			st.emit(trimmed, loc)
			return nil
		}
		return newError(ErrUnsupportedDirective, loc, "#%s", name)
	}
	return nil
}

func splitDirective(s string) (name, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func (st *state) expander(loc diag.Location) *expander {
	return &expander{macros: st.macros, maxDepth: st.cfg.maxDepth(), budget: st.cfg.maxTokens(), loc: loc}
}

func (st *state) conditional(name, rest string, loc diag.Location) error {
	switch name {
	case "if", "ifdef", "ifndef":
		parent := st.active()
		frame := condFrame{parentActive: parent, loc: loc}
		if parent {
			cond, err := st.evalBranch(name, rest, loc)
			if err != nil {
				return err
			}
			frame.active, frame.taken = cond, cond
		}
		st.conds = append(st.conds, frame)
	case "elif":
		if len(st.conds) == 0 {
			return newError(ErrUnbalancedConditional, loc, "#elif without #if")
		}
		f := &st.conds[len(st.conds)-1]
		if f.sawElse {
			return newError(ErrUnbalancedConditional, loc, "#elif after #else")
		}
		f.active = false
		if f.parentActive && !f.taken {
			cond, err := st.evalBranch("if", rest, loc)
			if err != nil {
				return err
			}
			f.active, f.taken = cond, cond
		}
	case "else":
		if len(st.conds) == 0 {
			return newError(ErrUnbalancedConditional, loc, "#else without #if")
		}
		f := &st.conds[len(st.conds)-1]
		if f.sawElse {
			return newError(ErrUnbalancedConditional, loc, "duplicate #else")
		}
		f.sawElse = true
		f.active = f.parentActive && !f.taken
		f.taken = true
	case "endif":
		if len(st.conds) == 0 {
			return newError(ErrUnbalancedConditional, loc, "#endif without #if")
		}
		st.conds = st.conds[:len(st.conds)-1]
	}
	return nil
}

func (st *state) evalBranch(name, rest string, loc diag.Location) (bool, error) {
	if name == "if" {
		return st.expander(loc).evalCondition(rest)
	}
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return false, newError(ErrInvalidExpression, loc, "#%s requires exactly one name", name)
	}
	_, defined := st.macros[fields[0]]
	if name == "ifndef" {
		return !defined, nil
	}
	return defined, nil
}

func (st *state) define(rest string, loc diag.Location) error {
	m, err := parseDefine(rest, loc)
	if err != nil {
		return err
	}
	if st.locked[m.Name] {
		return nil
	}
	if prev, ok := st.macros[m.Name]; ok && prev.Loc.Line != 0 && !prev.sameDefinition(m) {
		st.res.Warnings.Warnf("preprocess", loc, "macro %s redefined (previous definition at %s)", m.Name, prev.Loc)
	}
	st.macros[m.Name] = m
	return nil
}

func (st *state) version(line, rest string, loc diag.Location) error {
	if len(st.stack) > 1 {
		return newError(ErrUnsupportedDirective, loc, "#version in included file")
	}
	if st.res.Version != "" {
		return newError(ErrUnsupportedDirective, loc, "duplicate #version (first at %s)", st.res.VersionLoc)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 || len(fields) > 2 {
		return newError(ErrUnsupportedDirective, loc, "malformed #version")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return newError(ErrUnsupportedDirective, loc, "malformed #version number %q", fields[0])
	}
	st.res.Version = strings.Join(fields, " ")
	st.res.VersionLoc = loc
	st.macros["__VERSION__"] = newObjectMacro("__VERSION__", strconv.Itoa(n))
	if len(fields) == 2 && fields[1] == "es" {
		st.macros["GL_ES"] = newObjectMacro("GL_ES", "1")
	}
	st.emit(line, loc)
	return nil
}

func (st *state) extension(line, rest string, loc diag.Location) error {
	name, behavior, ok := strings.Cut(rest, ":")
	name, behavior = strings.TrimSpace(name), strings.TrimSpace(behavior)
	if !ok || name == "" {
		return newError(ErrUnsupportedDirective, loc, "malformed #extension")
	}
	switch behavior {
	case "require", "enable", "warn", "disable":
	default:
		return newError(ErrUnsupportedDirective, loc, "unknown extension behavior %q", behavior)
	}
	st.res.Extensions = append(st.res.Extensions, Extension{Name: name, Behavior: behavior, Loc: loc})
	// Extensions become available as macros once enabled.
	if behavior != "disable" && name != "all" {
		st.macros[name] = newObjectMacro(name, "1")
	}
	st.emit(line, loc)
	return nil
}

func (st *state) include(rest string, loc diag.Location) error {
	arg := strings.TrimSpace(rest)
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return newError(ErrUnsupportedDirective, loc, "malformed #include %s", arg)
	}
	name := arg[1 : len(arg)-1]
	if st.cfg.Include == nil {
		return newError(ErrIncludeNotFound, loc, "%s (includes are disabled)", name)
	}
	resolved, text, err := st.cfg.Include.Resolve(loc.File, name)
	if err != nil {
		return newError(ErrIncludeNotFound, loc, "%s: %v", name, err)
	}
	for _, p := range st.stack {
		if p == resolved {
			return newError(ErrIncludeCycle, loc, "%s", strings.Join(append(append([]string{}, st.stack...), resolved), " -> "))
		}
	}
	if st.visited[resolved] {
		// Each file is included at most once per compilation.
		return nil
	}
	if err := st.processFile(resolved, text); err != nil {
		return fmt.Errorf("included from %s: %w", loc, err)
	}
	return nil
}
