// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"fmt"
	"strings"
)

// CombinedMarker starts a stage section in a combined source file.
const CombinedMarker = "#shader"

// IsCombined reports whether text contains "#shader <stage>" section markers.
func IsCombined(text string) bool {
	for line := range strings.Lines(text) {
		if strings.HasPrefix(strings.TrimSpace(line), CombinedMarker+" ") {
			return true
		}
	}
	return false
}

// SplitCombined splits a combined file into one Source per "#shader <stage>"
// section. Each section keeps its original line numbers: lines outside the
// section are blanked so that diagnostics point into the combined file.
func SplitCombined(name, path, text string) ([]Source, error) {
	lines := strings.Split(text, "\n")

	type section struct {
		stage Stage
		start int // index of the first line after the marker
		end   int
	}
	var sections []section
	seen := make(map[Stage]bool)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, CombinedMarker) {
			if len(sections) == 0 && trimmed != "" && !strings.HasPrefix(trimmed, "//") {
				return nil, fmt.Errorf("shader: %s:%d: content before first %s marker", path, i+1, CombinedMarker)
			}
			continue
		}
		stage, err := ParseStage(strings.TrimPrefix(trimmed, CombinedMarker))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		if seen[stage] {
			return nil, fmt.Errorf("shader: %s:%d: duplicate %s section", path, i+1, stage)
		}
		seen[stage] = true
		if n := len(sections); n > 0 {
			sections[n-1].end = i
		}
		sections = append(sections, section{stage: stage, start: i + 1, end: len(lines)})
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("shader: %s: no %s sections", path, CombinedMarker)
	}

	out := make([]Source, 0, len(sections))
	for _, sec := range sections {
		var sb strings.Builder
		sb.WriteString(strings.Repeat("\n", sec.start))
		sb.WriteString(strings.Join(lines[sec.start:sec.end], "\n"))
		out = append(out, Source{Name: name, Stage: sec.stage, Path: path, Text: sb.String()})
	}
	return out, nil
}
