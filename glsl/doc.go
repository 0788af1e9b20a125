// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl parses and regenerates GLSL source.
//
// The front end is a hand-written lexer and recursive-descent parser
// covering desktop GLSL 1.10 through 4.60 and GLSL ES 1.00 through 3.20.
// The #version directive selects the dialect: words reserved only in later
// versions lex as identifiers, and attribute/varying are rejected where the
// version no longer has them.
//
// # Basic Usage
//
//	res, err := preprocess.Preprocess(src, opts, cfg)
//	tree, err := glsl.Parse(res)
//	source := glsl.Emit(tree)
//
// # Errors
//
// Parse does not stop at the first syntax error. It resynchronizes at the
// next ';' or '}' and returns every error as ParseErrors, each mapped back
// to the original file and line through the preprocessor's line map.
//
// # Output
//
// Emit is deterministic: the same tree always produces the same bytes.
// Parentheses are written only where precedence requires them, so output
// differs from the input in layout but not in meaning.
package glsl
