// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/shader"
)

// BindingPass binds host inputs to the pack's declarations, injects the
// ones the pack uses without declaring, and assigns slots to every
// resource the program exposes.
type BindingPass struct{}

// Name implements Pass.
func (BindingPass) Name() string { return "binding" }

// Apply implements Pass.
func (BindingPass) Apply(tree *ast.Tree, ctx *Context) error {
	injected, err := bindHostInputs(tree, ctx, ctx.HostInputs)
	if err != nil {
		return err
	}
	return assignSlots(tree, ctx, injected)
}

// bindHostInputs checks pack declarations of host inputs and declares the
// missing ones. It returns the injected declarations.
func bindHostInputs(tree *ast.Tree, ctx *Context, inputs []binding.HostInput) (map[ast.DeclHandle]bool, error) {
	injected := make(map[ast.DeclHandle]bool)
	at := injectIndex(tree)
	for _, in := range inputs {
		if !in.AppliesTo(ctx.Stage) {
			continue
		}
		if d, ok := tree.LookupGlobal(in.Name); ok {
			if err := checkHostDecl(tree, ctx, d, in); err != nil {
				return nil, err
			}
			continue
		}
		uses := unresolvedUses(tree, in.Name)
		if len(uses) == 0 && !in.InjectAlways {
			continue
		}
		d := tree.NewGlobalVariable(hostQualifiers(in), in.Type, in.Name)
		tree.InsertGlobal(at, d)
		at++
		for _, h := range uses {
			tree.Expr(h).Kind.(*ast.Ident).Decl = d
		}
		injected[d] = true
	}
	return injected, nil
}

func hostQualifiers(in binding.HostInput) ast.Qualifiers {
	var q ast.Qualifiers
	switch in.Kind {
	case binding.KindAttribute:
		q.Storage = ast.StorageIn
	case binding.KindOutput:
		q.Storage = ast.StorageOut
	default:
		q.Storage = ast.StorageUniform
	}
	return q
}

// checkHostDecl reports a pack declaration that cannot receive host input in.
func checkHostDecl(tree *ast.Tree, ctx *Context, h ast.DeclHandle, in binding.HostInput) error {
	decl := tree.Decl(h)
	switch d := decl.Kind.(type) {
	case *ast.Variable:
		if !storageMatches(d.Type.Qualifiers.Storage, in.Kind) {
			return ctx.fail(ErrBindingTypeConflict, decl.Pos,
				"'%s' is declared %s but the host provides it as %s", in.Name,
				storageName(d.Type.Qualifiers.Storage), in.Storage())
		}
		if got := typeString(tree, &d.Type, d.Array); got != in.Type {
			return ctx.fail(ErrBindingTypeConflict, decl.Pos,
				"'%s' is declared %s but the host provides %s", in.Name, got, in.Type)
		}
		return nil
	case *ast.Block:
		if d.Instance == "" && storageMatches(d.Qualifiers.Storage, in.Kind) {
			for i := range d.Members {
				m := &d.Members[i]
				if m.Name != in.Name {
					continue
				}
				if got := typeString(tree, &m.Type, m.Array); got != in.Type {
					return ctx.fail(ErrBindingTypeConflict, decl.Pos,
						"'%s' is declared %s in block %s but the host provides %s", in.Name, got, d.Name, in.Type)
				}
				return nil
			}
		}
	}
	return ctx.fail(ErrBindingTypeConflict, decl.Pos,
		"'%s' is reserved for a host %s %s", in.Name, in.Storage(), in.Type)
}

func storageMatches(s ast.Storage, kind binding.Kind) bool {
	switch kind {
	case binding.KindAttribute:
		return s == ast.StorageIn || s == ast.StorageAttribute
	case binding.KindOutput:
		return s == ast.StorageOut
	default:
		return s == ast.StorageUniform
	}
}

func storageName(s ast.Storage) string {
	if s == ast.StorageNone {
		return "without storage qualifier"
	}
	return s.String()
}

// unresolvedUses returns the identifiers named name that resolve to nothing.
func unresolvedUses(tree *ast.Tree, name string) []ast.ExprHandle {
	var out []ast.ExprHandle
	for _, h := range tree.Idents() {
		id := tree.Expr(h).Kind.(*ast.Ident)
		if !id.Decl.Valid() && id.Name == name {
			out = append(out, h)
		}
	}
	return out
}

// slotRequest is one resource that needs a slot.
type slotRequest struct {
	decl     ast.DeclHandle
	name     string
	kind     binding.Kind
	typ      string
	quals    *ast.Qualifiers
	layout   string
	explicit int
	hasIndex bool
	injected bool
}

// assignSlots reserves explicit layouts first, then assigns the lowest free
// slots to the rest in declaration order.
func assignSlots(tree *ast.Tree, ctx *Context, injected map[ast.DeclHandle]bool) error {
	return assignRequests(tree, ctx, collectSlotRequests(tree, ctx, injected, false))
}

func assignRequests(tree *ast.Tree, ctx *Context, reqs []slotRequest) error {
	for i := range reqs {
		r := &reqs[i]
		if !r.hasIndex {
			continue
		}
		if _, err := ctx.Bindings.Reserve(r.name, r.kind, r.typ, r.explicit, r.injected); err != nil {
			return slotError(ctx, tree.Decl(r.decl).Pos, err)
		}
	}
	for i := range reqs {
		r := &reqs[i]
		if r.hasIndex {
			continue
		}
		b, err := ctx.Bindings.Assign(r.name, r.kind, r.typ, r.injected)
		if err != nil {
			return slotError(ctx, tree.Decl(r.decl).Pos, err)
		}
		if layoutSupported(ctx, r.kind) {
			r.quals.SetLayout(r.layout, strconv.Itoa(b.Slot.Index))
		}
	}
	return nil
}

func slotError(ctx *Context, pos ast.Pos, err error) *Error {
	kind, cause := ErrSlotConflict, binding.ErrSlotConflict
	if errors.Is(err, binding.ErrTypeConflict) {
		kind, cause = ErrBindingTypeConflict, binding.ErrTypeConflict
	}
	return ctx.fail(kind, pos, "%s", strings.TrimPrefix(err.Error(), cause.Error()+": "))
}

// layoutSupported reports whether the target can spell an assigned slot as
// a layout qualifier. Older targets leave slots to the host's API calls.
func layoutSupported(ctx *Context, kind binding.Kind) bool {
	v := ctx.Target
	switch kind {
	case binding.KindAttribute, binding.KindOutput:
		return v.AtLeast(330, 300)
	case binding.KindSampler, binding.KindUniformBlock:
		return v.AtLeast(420, 310)
	case binding.KindStorageBlock:
		return v.AtLeast(430, 310)
	case binding.KindUniform:
		return v.AtLeast(430, 310)
	default:
		return false
	}
}

// collectSlotRequests lists the globals needing a slot, in declaration
// order. With onlyInjected set, pack declarations are skipped.
func collectSlotRequests(tree *ast.Tree, ctx *Context, injected map[ast.DeclHandle]bool, onlyInjected bool) []slotRequest {
	var reqs []slotRequest
	for _, g := range tree.Globals {
		if onlyInjected && !injected[g] {
			continue
		}
		r := slotRequest{decl: g, injected: injected[g]}
		switch d := tree.Decl(g).Kind.(type) {
		case *ast.Variable:
			r.name = d.Name
			r.typ = typeString(tree, &d.Type, d.Array)
			r.quals = &d.Type.Qualifiers
			if !variableSlot(&r, &d.Type, ctx.Stage) {
				continue
			}
		case *ast.Block:
			r.name = d.Name
			r.typ = d.Name
			r.quals = &d.Qualifiers
			r.layout = "binding"
			switch d.Qualifiers.Storage {
			case ast.StorageUniform:
				r.kind = binding.KindUniformBlock
			case ast.StorageBuffer:
				r.kind = binding.KindStorageBlock
			default:
				continue
			}
		default:
			continue
		}
		if v, ok := r.quals.LayoutValue(r.layout); ok {
			n, err := strconv.ParseInt(v, 0, 32)
			if err != nil || n < 0 {
				ctx.warnf(tree.Decl(g).Pos, "layout(%s = %s) on '%s' is not a non-negative integer; assigning a slot", r.layout, v, r.name)
			} else {
				r.explicit = int(n)
				r.hasIndex = true
			}
		}
		reqs = append(reqs, r)
	}
	return reqs
}

// variableSlot fills in the kind and layout name of a global variable, or
// reports that it needs no slot.
func variableSlot(r *slotRequest, ts *ast.TypeSpec, stage shader.Stage) bool {
	switch ts.Qualifiers.Storage {
	case ast.StorageUniform:
		switch {
		case ts.IsSampler():
			r.kind, r.layout = binding.KindSampler, "binding"
		case ts.IsImage():
			// Image units are bound by the host's compute dispatch.
			return false
		default:
			r.kind, r.layout = binding.KindUniform, "location"
		}
	case ast.StorageIn, ast.StorageAttribute:
		if stage != shader.StageVertex {
			return false
		}
		r.kind, r.layout = binding.KindAttribute, "location"
	case ast.StorageOut:
		if stage != shader.StageFragment {
			return false
		}
		r.kind, r.layout = binding.KindOutput, "location"
	default:
		return false
	}
	return true
}
