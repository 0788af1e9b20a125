// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package diag defines the diagnostics reported while processing one shader
// program: an ordered list of warnings and errors, each tagged with the
// location in the original pack source.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Severity ranks a diagnostic.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// Location is a position in an original pack file. Line and Column are
// 1-based; a zero Line means the location is unknown.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	switch {
	case l.Line == 0 && l.File == "":
		return "<unknown>"
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}

// Locator is implemented by errors that know where in the original source
// they happened.
type Locator interface {
	Location() Location
}

// Diagnostic is a single message about a shader file.
type Diagnostic struct {
	Severity Severity
	// Phase names the pipeline stage that produced it: preprocess, parse,
	// transform, link, emit or gpu.
	Phase    string
	Message  string
	Location Location
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: [%s] %s", d.Location, d.Severity, d.Phase, d.Message)
}

// List is an ordered list of diagnostics. Order is the order in which they
// were reported, which is deterministic for a given input.
type List []Diagnostic

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Infof appends an info diagnostic.
func (l *List) Infof(phase string, loc Location, format string, args ...any) {
	l.Add(Diagnostic{Severity: SeverityInfo, Phase: phase, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning.
func (l *List) Warnf(phase string, loc Location, format string, args ...any) {
	l.Add(Diagnostic{Severity: SeverityWarning, Phase: phase, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Errorf appends an error.
func (l *List) Errorf(phase string, loc Location, format string, args ...any) {
	l.Add(Diagnostic{Severity: SeverityError, Phase: phase, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics with the given severity.
func (l List) Count(s Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Errors returns only the error diagnostics.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Clone returns an independent copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

func (l List) String() string {
	var sb strings.Builder
	for i, d := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.String())
	}
	return sb.String()
}

// Detailer is implemented by located errors whose Error text repeats the
// location; Detail returns the message without it.
type Detailer interface {
	Detail() string
}

// multiError is implemented by error lists such as glsl.ParseErrors.
type multiError interface {
	Unwrap() []error
}

// FromError converts err into error diagnostics for the given phase. Errors
// implementing Locator carry their own location; others fall back to loc.
// Error lists are flattened so each entry becomes its own diagnostic.
func FromError(phase string, loc Location, err error) List {
	if err == nil {
		return nil
	}
	if me, ok := err.(multiError); ok {
		var out List
		for _, e := range me.Unwrap() {
			out = append(out, FromError(phase, loc, e)...)
		}
		if len(out) > 0 {
			return out
		}
	}
	msg := err.Error()
	var located Locator
	if errors.As(err, &located) {
		if l := located.Location(); l.Line != 0 || l.File != "" {
			loc = l
		}
		if d, ok := located.(Detailer); ok {
			msg = d.Detail()
		}
	}
	return List{{Severity: SeverityError, Phase: phase, Location: loc, Message: msg}}
}
