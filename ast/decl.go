// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import "strings"

// Decl is a declaration node.
type Decl struct {
	Kind DeclKind
	Pos  Pos
}

// DeclKind is implemented by every declaration variant.
type DeclKind interface {
	declKind()
}

// Storage is the storage qualifier of a declaration.
type Storage uint8

const (
	StorageNone Storage = iota
	StorageConst
	StorageIn
	StorageOut
	StorageInOut
	StorageUniform
	StorageBuffer
	StorageShared
	StorageAttribute
	StorageVarying
)

var storageText = [...]string{
	StorageNone:      "",
	StorageConst:     "const",
	StorageIn:        "in",
	StorageOut:       "out",
	StorageInOut:     "inout",
	StorageUniform:   "uniform",
	StorageBuffer:    "buffer",
	StorageShared:    "shared",
	StorageAttribute: "attribute",
	StorageVarying:   "varying",
}

func (s Storage) String() string {
	if int(s) < len(storageText) {
		return storageText[s]
	}
	return ""
}

// LayoutQualifier is one entry of layout(...). Value is the written value
// text, empty for flags such as std140.
type LayoutQualifier struct {
	Name  string
	Value string
}

// Qualifiers collects the qualifiers written before a type.
type Qualifiers struct {
	Layout        []LayoutQualifier
	Invariant     bool
	Precise       bool
	Interpolation string // flat, smooth, noperspective
	Auxiliary     string // centroid, sample, patch
	Storage       Storage
	Memory        []string // coherent, volatile, restrict, readonly, writeonly
	Precision     string   // lowp, mediump, highp
}

// IsZero reports whether no qualifier is present.
func (q *Qualifiers) IsZero() bool {
	return len(q.Layout) == 0 && !q.Invariant && !q.Precise &&
		q.Interpolation == "" && q.Auxiliary == "" && q.Storage == StorageNone &&
		len(q.Memory) == 0 && q.Precision == ""
}

// LayoutValue returns the value of a layout qualifier. Names compare
// case-sensitively, as GLSL requires.
func (q *Qualifiers) LayoutValue(name string) (string, bool) {
	for _, l := range q.Layout {
		if l.Name == name {
			return l.Value, true
		}
	}
	return "", false
}

// SetLayout sets or adds a layout qualifier.
func (q *Qualifiers) SetLayout(name, value string) {
	for i := range q.Layout {
		if q.Layout[i].Name == name {
			q.Layout[i].Value = value
			return
		}
	}
	q.Layout = append(q.Layout, LayoutQualifier{Name: name, Value: value})
}

// TypeSpec is a fully specified type: qualifiers, a type name and optional
// array dimensions written on the type (float[4] x). A NoExpr dimension is
// an unsized array.
type TypeSpec struct {
	Qualifiers Qualifiers
	Name       string
	// Ref is the struct declaration Name resolves to, if any.
	Ref   DeclHandle
	Array []ExprHandle
}

// IsSampler reports whether the type is an opaque sampler type.
func (ts *TypeSpec) IsSampler() bool {
	n := strings.TrimLeft(ts.Name, "iu")
	return strings.HasPrefix(n, "sampler")
}

// IsImage reports whether the type is an opaque image type.
func (ts *TypeSpec) IsImage() bool {
	n := strings.TrimLeft(ts.Name, "iu")
	return strings.HasPrefix(n, "image")
}

// Variable declares one variable. A declaration with several declarators
// (float a, b;) becomes several Variables sharing a copy of the type.
type Variable struct {
	Type  TypeSpec
	Name  string
	Array []ExprHandle
	Init  ExprHandle
	// Global is true for declarations at file scope.
	Global bool
}

// Param is a function parameter. Name may be empty in prototypes.
type Param struct {
	Type  TypeSpec
	Name  string
	Array []ExprHandle
}

// Function is a function definition or, with Body == NoStmt, a prototype.
type Function struct {
	Return TypeSpec
	Name   string
	Params []DeclHandle
	Body   StmtHandle
}

// Member is a field of a struct or interface block.
type Member struct {
	Type  TypeSpec
	Name  string
	Array []ExprHandle
}

// Struct declares a struct type. A struct defined inline in a variable
// declaration is split into a Struct followed by the Variable.
type Struct struct {
	Name    string
	Members []Member
}

// Block is an interface block such as uniform Globals { ... } g;
type Block struct {
	Qualifiers Qualifiers
	Name       string
	Members    []Member
	// Instance is empty for anonymous blocks, whose members are global names.
	Instance string
	Array    []ExprHandle
}

// Precision is a default precision statement.
type Precision struct {
	Precision string
	Type      string
}

// Default is a qualifier-only declaration: layout(...) in; or a
// redeclaration such as invariant gl_Position;
type Default struct {
	Qualifiers Qualifiers
	Names      []string
}

// Pragma is a #pragma line kept at global scope.
type Pragma struct {
	Text string
}

func (*Variable) declKind()  {}
func (*Param) declKind()     {}
func (*Function) declKind()  {}
func (*Struct) declKind()    {}
func (*Block) declKind()     {}
func (*Precision) declKind() {}
func (*Default) declKind()   {}
func (*Pragma) declKind()    {}

// NewGlobalVariable adds a global variable declaration. The caller places it
// in Globals.
func (t *Tree) NewGlobalVariable(q Qualifiers, typ, name string) DeclHandle {
	return t.AddDecl(&Variable{
		Type:   TypeSpec{Qualifiers: q, Name: typ, Ref: NoDecl},
		Name:   name,
		Init:   NoExpr,
		Global: true,
	}, Pos{})
}

// Functions returns the global function declarations named name, prototypes
// included.
func (t *Tree) Functions(name string) []DeclHandle {
	var out []DeclHandle
	for _, g := range t.Globals {
		if f, ok := t.Decls[g].Kind.(*Function); ok && f.Name == name {
			out = append(out, g)
		}
	}
	return out
}

// EntryPoint returns the definition of void main(), if present.
func (t *Tree) EntryPoint() (DeclHandle, bool) {
	for _, h := range t.Functions("main") {
		f := t.Decls[h].Kind.(*Function)
		if f.Body.Valid() && len(f.Params) == 0 && f.Return.Name == "void" {
			return h, true
		}
	}
	return NoDecl, false
}
