// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package binding assigns host slots to the resources a program exchanges
// with the host: uniforms, samplers, vertex attributes, fragment outputs,
// varyings and interface blocks.
//
// A Table is built incrementally by the transform passes of one program and
// shared by all of its stages, so a uniform declared in two stages receives
// one slot. Names are scoped by kind: a vertex attribute and a fragment
// output may both be called color. No two bindings ever share a slot.
package binding

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the kind of resource a binding names. Each kind numbers its slots
// independently.
type Kind uint8

const (
	// KindUniform is a default-block uniform location.
	KindUniform Kind = iota

	// KindSampler is a texture unit for a sampler or image uniform.
	KindSampler

	// KindAttribute is a vertex input location.
	KindAttribute

	// KindOutput is a fragment output location.
	KindOutput

	// KindVarying is a location on a stage-to-stage interface.
	KindVarying

	// KindUniformBlock is a uniform block binding point.
	KindUniformBlock

	// KindStorageBlock is a shader storage block binding point.
	KindStorageBlock
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindUniform:
		return "uniform"
	case KindSampler:
		return "sampler"
	case KindAttribute:
		return "attribute"
	case KindOutput:
		return "output"
	case KindVarying:
		return "varying"
	case KindUniformBlock:
		return "uniform-block"
	case KindStorageBlock:
		return "storage-block"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Slot is a host-assigned location within the namespace of one kind.
type Slot struct {
	Kind  Kind
	Index int
}

// String returns e.g. "sampler#2".
func (s Slot) String() string {
	return fmt.Sprintf("%s#%d", s.Kind, s.Index)
}

// Binding maps one logical resource name to its slots.
type Binding struct {
	Name string
	Kind Kind
	// Slot is the first slot held. The binding occupies Count consecutive
	// slots from there.
	Slot  Slot
	Count int
	// Type is the GLSL type as written, e.g. "mat4" or "vec2[4]".
	Type string
	// Injected is set for declarations added by the host rather than
	// written by the pack.
	Injected bool
}

// Errors returned by Table methods.
var (
	// ErrSlotConflict is returned when a slot is already held by another
	// name, or a name is already bound to a different slot.
	ErrSlotConflict = errors.New("slot conflict")

	// ErrTypeConflict is returned when a name is bound again with a
	// different type.
	ErrTypeConflict = errors.New("type conflict")
)

// Table maps logical names to slots. The zero value is not usable; call
// NewTable.
type Table struct {
	byName map[key]int
	bySlot map[Slot]string
	list   []Binding
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		byName: make(map[key]int),
		bySlot: make(map[Slot]string),
	}
}

type key struct {
	kind Kind
	name string
}

// Lookup returns the binding of the given kind for name.
func (t *Table) Lookup(kind Kind, name string) (Binding, bool) {
	i, ok := t.byName[key{kind, name}]
	if !ok {
		return Binding{}, false
	}
	return t.list[i], true
}

// Last returns the index of the last slot the binding holds.
func (b Binding) Last() int { return b.Slot.Index + b.Count - 1 }

// Range returns e.g. "attribute#0" or "attribute#0-3".
func (b Binding) Range() string {
	if b.Count <= 1 {
		return b.Slot.String()
	}
	return fmt.Sprintf("%s-%d", b.Slot, b.Last())
}

// Owner returns the name holding slot s.
func (t *Table) Owner(s Slot) (string, bool) {
	name, ok := t.bySlot[s]
	return name, ok
}

// Len returns the number of bindings.
func (t *Table) Len() int { return len(t.list) }

// Bindings returns the bindings in the order they were added.
func (t *Table) Bindings() []Binding {
	out := make([]Binding, len(t.list))
	copy(out, t.list)
	return out
}

// existing checks a repeated binding of name. It returns ok when name is
// already bound compatibly.
func (t *Table) existing(name string, kind Kind, typ string) (Binding, bool, error) {
	i, ok := t.byName[key{kind, name}]
	if !ok {
		return Binding{}, false, nil
	}
	b := t.list[i]
	if b.Type != typ {
		return b, false, fmt.Errorf("%w: %s %s is bound as %s, not %s",
			ErrTypeConflict, kind, name, b.Type, typ)
	}
	return b, true, nil
}

// Assign binds name to the lowest run of free slots of its kind wide
// enough for typ (see SlotCount). Binding a name again with the same type
// returns the existing binding.
func (t *Table) Assign(name string, kind Kind, typ string, injected bool) (Binding, error) {
	if b, ok, err := t.existing(name, kind, typ); ok || err != nil {
		return b, err
	}
	count := SlotCount(kind, typ)
	s := Slot{Kind: kind}
	for {
		if _, used := t.firstUsed(kind, s.Index, count); !used {
			break
		}
		s.Index++
	}
	return t.add(Binding{Name: name, Kind: kind, Slot: s, Count: count, Type: typ, Injected: injected}), nil
}

// firstUsed returns the owner of the first held slot in
// [index, index+count).
func (t *Table) firstUsed(kind Kind, index, count int) (string, bool) {
	for i := index; i < index+count; i++ {
		if owner, used := t.bySlot[Slot{Kind: kind, Index: i}]; used {
			return owner, true
		}
	}
	return "", false
}

// Reserve binds name to an explicit slot index, as written in a layout
// qualifier.
func (t *Table) Reserve(name string, kind Kind, typ string, index int, injected bool) (Binding, error) {
	s := Slot{Kind: kind, Index: index}
	if b, ok, err := t.existing(name, kind, typ); err != nil {
		return b, err
	} else if ok {
		if b.Slot != s {
			return b, fmt.Errorf("%w: %s is already bound to %s, not %s", ErrSlotConflict, name, b.Slot, s)
		}
		return b, nil
	}
	b := Binding{Name: name, Kind: kind, Slot: s, Count: SlotCount(kind, typ), Type: typ, Injected: injected}
	if owner, used := t.firstUsed(kind, index, b.Count); used {
		return Binding{}, fmt.Errorf("%w: %s and %s both use %s", ErrSlotConflict, owner, name, b.Range())
	}
	return t.add(b), nil
}

func (t *Table) add(b Binding) Binding {
	if b.Count < 1 {
		b.Count = 1
	}
	t.byName[key{b.Kind, b.Name}] = len(t.list)
	for i := b.Slot.Index; i <= b.Last(); i++ {
		t.bySlot[Slot{Kind: b.Kind, Index: i}] = b.Name
	}
	t.list = append(t.list, b)
	return b
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable()
	for _, b := range t.list {
		c.add(b)
	}
	return c
}

// Validate checks that no two names share a slot.
func (t *Table) Validate() error {
	seen := make(map[Slot]string, len(t.list))
	for _, b := range t.list {
		for i := b.Slot.Index; i <= b.Last(); i++ {
			s := Slot{Kind: b.Kind, Index: i}
			if owner, ok := seen[s]; ok {
				return fmt.Errorf("%w: %s and %s both use %s", ErrSlotConflict, owner, b.Name, s)
			}
			seen[s] = b.Name
		}
	}
	return nil
}

// String renders the table one binding per line, for reports.
func (t *Table) String() string {
	var sb strings.Builder
	for _, b := range t.list {
		fmt.Fprintf(&sb, "%-24s %-14s %s", b.Name, b.Range(), b.Type)
		if b.Injected {
			sb.WriteString(" (injected)")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
