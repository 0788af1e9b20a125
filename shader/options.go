// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind is the type of an option value.
type ValueKind uint8

const (
	KindBool ValueKind = iota
	KindNumber
	KindEnum
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Value is a single option choice.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	Enum   string
}

// Bool returns a boolean option value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Number returns a numeric option value.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Enum returns an enumerated option value.
func Enum(s string) Value { return Value{Kind: KindEnum, Enum: s} }

// String returns the value as it appears in a macro body.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "1"
		}
		return "0"
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	default:
		return v.Enum
	}
}

// OptionSet maps option names to chosen values. It is immutable: With returns
// a new set.
type OptionSet struct {
	values map[string]Value
}

// NewOptionSet copies values into a new option set.
func NewOptionSet(values map[string]Value) OptionSet {
	return OptionSet{values: maps.Clone(values)}
}

// Len returns the number of options.
func (o OptionSet) Len() int { return len(o.values) }

// Get returns the value chosen for name.
func (o OptionSet) Get(name string) (Value, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Names returns the option names in sorted order.
func (o OptionSet) Names() []string {
	return slices.Sorted(maps.Keys(o.values))
}

// With returns a copy of o with name set to v.
func (o OptionSet) With(name string, v Value) OptionSet {
	values := make(map[string]Value, len(o.values)+1)
	maps.Copy(values, o.values)
	values[name] = v
	return OptionSet{values: values}
}

// Fingerprint returns a canonical encoding of the set. Two sets have the same
// fingerprint exactly when they hold the same names and values.
func (o OptionSet) Fingerprint() string {
	var sb strings.Builder
	for _, name := range o.Names() {
		v := o.values[name]
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(v.Kind.String())
		sb.WriteByte(':')
		sb.WriteString(v.String())
		sb.WriteByte(';')
	}
	return sb.String()
}

// Defines converts the options into preprocessor macros. A false boolean
// leaves its macro undefined so that #ifdef tests behave as pack authors
// expect.
func (o OptionSet) Defines() map[string]string {
	defs := make(map[string]string, len(o.values))
	for name, v := range o.values {
		if v.Kind == KindBool && !v.Bool {
			continue
		}
		defs[name] = v.String()
	}
	return defs
}

// ParseOptions reads an option file: a flat YAML mapping of option name to a
// boolean, number or string value.
//
//	USE_SHADOWS: true
//	SHADOW_RES: 2048
//	WATER_STYLE: REALISTIC
func ParseOptions(data []byte) (OptionSet, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return OptionSet{}, fmt.Errorf("shader: parse options: %w", err)
	}
	values := make(map[string]Value, len(raw))
	for name, node := range raw {
		v, err := optionValue(&node)
		if err != nil {
			return OptionSet{}, fmt.Errorf("shader: option %s (line %d): %w", name, node.Line, err)
		}
		values[name] = v
	}
	return OptionSet{values: values}, nil
}

func optionValue(node *yaml.Node) (Value, error) {
	if node.Kind != yaml.ScalarNode {
		return Value{}, fmt.Errorf("expected a scalar value")
	}
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case "!!str":
		if node.Value == "" {
			return Value{}, fmt.Errorf("empty value")
		}
		return Enum(node.Value), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %s", node.Tag)
	}
}
