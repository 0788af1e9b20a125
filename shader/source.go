// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shader holds the immutable inputs of a compilation: stage source
// files and the option set chosen by the user.
package shader

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Source is one stage's raw text as read from a shader pack.
type Source struct {
	// Name is the logical program name, e.g. "gbuffers_terrain".
	Name  string
	Stage Stage
	// Path is the pack-relative origin path used in diagnostics.
	Path string
	Text string
}

// Hash returns the hex SHA-256 of the source identity and text.
func (s Source) Hash() string {
	h := sha256.New()
	s.writeHash(h)
	return hex.EncodeToString(h.Sum(nil))
}

func (s Source) writeHash(w io.Writer) {
	// Fields are NUL separated so that adjacent fields cannot alias.
	io.WriteString(w, s.Stage.String())
	w.Write([]byte{0})
	io.WriteString(w, s.Path)
	w.Write([]byte{0})
	io.WriteString(w, s.Text)
	w.Write([]byte{0})
}

// HashAll hashes several sources in the given order.
func HashAll(sources []Source) string {
	h := sha256.New()
	for _, s := range sources {
		s.writeHash(h)
	}
	return hex.EncodeToString(h.Sum(nil))
}
