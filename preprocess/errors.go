// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"errors"
	"fmt"

	"github.com/gogpu/shaderpack/diag"
)

// Error kinds. Use errors.Is to test which kind an *Error carries.
var (
	ErrMacroRecursionExceeded  = errors.New("macro recursion exceeded")
	ErrUnsupportedDirective    = errors.New("unsupported directive")
	ErrInvalidMacro            = errors.New("invalid macro")
	ErrInvalidExpression       = errors.New("invalid #if expression")
	ErrUnterminatedConditional = errors.New("unterminated conditional")
	ErrUnbalancedConditional   = errors.New("unbalanced conditional")
	ErrIncludeNotFound         = errors.New("include not found")
	ErrIncludeCycle            = errors.New("include cycle")
	ErrErrorDirective          = errors.New("#error")
)

// Error is a preprocessing failure at an original source location.
type Error struct {
	Kind    error
	Loc     diag.Location
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Loc, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Loc, e.Kind, e.Message)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error { return e.Kind }

// Location implements diag.Locator.
func (e *Error) Location() diag.Location { return e.Loc }

// Detail implements diag.Detailer.
func (e *Error) Detail() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func newError(kind error, loc diag.Location, format string, args ...any) *Error {
	return &Error{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)}
}
