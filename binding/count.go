// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package binding

import (
	"strconv"
	"strings"
)

// SlotCount returns how many consecutive slots of kind a resource of the
// given type occupies. typ is rendered as in Binding.Type, e.g. "mat4" or
// "vec4[2]".
//
// Every array element takes its own slot. For the location kinds
// (attributes, outputs and varyings) a matrix also takes one location per
// column, and dvec3, dvec4 and the double matrix columns with three or four
// rows take two. Uniform locations count array elements only. Unsized or
// non-literal dimensions count as one element.
func SlotCount(kind Kind, typ string) int {
	base, elems := splitArray(typ)
	if kind.isLocation() {
		return elems * locationsPerElement(base)
	}
	return elems
}

// isLocation reports whether the kind numbers interface locations.
func (k Kind) isLocation() bool {
	return k == KindAttribute || k == KindOutput || k == KindVarying
}

// splitArray returns the element type and the total element count.
func splitArray(typ string) (string, int) {
	open := strings.IndexByte(typ, '[')
	if open < 0 {
		return typ, 1
	}
	base, dims := typ[:open], typ[open:]
	elems := 1
	for len(dims) > 0 && dims[0] == '[' {
		end := strings.IndexByte(dims, ']')
		if end < 0 {
			break
		}
		if n, ok := arraySize(dims[1:end]); ok {
			elems *= n
		}
		dims = dims[end+1:]
	}
	return base, elems
}

func arraySize(s string) (int, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "uU")
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil || n <= 0 {
		return 0, false
	}
	return int(n), true
}

// locationsPerElement counts the locations of one non-array value.
func locationsPerElement(base string) int {
	switch {
	case strings.HasPrefix(base, "dmat"):
		cols, rows := matrixShape(base[len("dmat"):])
		if rows >= 3 {
			return cols * 2
		}
		return cols
	case strings.HasPrefix(base, "mat"):
		cols, _ := matrixShape(base[len("mat"):])
		return cols
	case base == "dvec3", base == "dvec4":
		return 2
	default:
		return 1
	}
}

// matrixShape parses "4" or "3x2" into columns and rows.
func matrixShape(s string) (cols, rows int) {
	c, r, found := strings.Cut(s, "x")
	cols, err := strconv.Atoi(c)
	if err != nil || cols < 2 || cols > 4 {
		return 1, 1
	}
	if !found {
		return cols, cols
	}
	rows, err = strconv.Atoi(r)
	if err != nil || rows < 2 || rows > 4 {
		return cols, cols
	}
	return cols, rows
}
