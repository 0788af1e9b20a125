// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"errors"
	"fmt"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/diag"
)

// Error kinds. Use errors.Is to test which kind an *Error carries.
var (
	ErrBindingTypeConflict = errors.New("binding type conflict")
	ErrSlotConflict        = errors.New("slot conflict")
	ErrInterfaceMismatch   = errors.New("interface mismatch")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrMissingEntryPoint   = errors.New("missing entry point")
	ErrUnsupportedVersion  = errors.New("unsupported version")
	ErrPassFailed          = errors.New("pass failed")
)

// Error is a transform failure. It stops the pipeline for one program.
type Error struct {
	// Pass is the name of the failing pass.
	Pass    string
	Kind    error
	Pos     ast.Pos
	Loc     diag.Location
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Loc, e.Pass, e.Detail())
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
