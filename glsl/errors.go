// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/diag"
)

// ParseError is a syntax error. Pos is in the preprocessed text; Loc is the
// matching location in the original pack file.
type ParseError struct {
	Pos ast.Pos
	Loc diag.Location
	// Expected describes what the parser wanted, e.g. "';'". Empty when
	// Message says it all.
	Expected string
	Found    string
	Message  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Detail())
}

// Detail implements diag.Detailer.
func (e *ParseError) Detail() string {
	switch {
	case e.Message != "" && e.Expected != "":
		return fmt.Sprintf("%s: expected %s, found %s", e.Message, e.Expected, e.Found)
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
	}
}

// Location implements diag.Locator.
func (e *ParseError) Location() diag.Location { return e.Loc }

// ParseErrors represents a list of parse errors, in source order.
type ParseErrors []*ParseError

// Error implements the error interface.
func (el ParseErrors) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// Unwrap exposes every error, so diag.FromError reports each one.
func (el ParseErrors) Unwrap() []error {
	errs := make([]error, len(el))
	for i, e := range el {
		errs[i] = e
	}
	return errs
}

// FormatAll returns all errors, one per line.
func (el ParseErrors) FormatAll() string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}
