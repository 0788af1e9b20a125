// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"slices"
	"strconv"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/shader"
)

// Unit is one transformed stage of a program.
type Unit struct {
	Tree *ast.Tree
	Ctx  *Context
}

// linkPass names link failures in errors.
const linkPass = "link"

// Link matches the interfaces of a program's stages after their pipelines
// ran. Each graphics stage's outputs must match the next present stage's
// inputs by name and type, and blocks sharing a name must agree on their
// members. Matched varyings share one slot in the program's binding table.
func Link(units []Unit) error {
	ordered := slices.Clone(units)
	slices.SortStableFunc(ordered, func(a, b Unit) int {
		return stageOrder(a.Ctx.Stage) - stageOrder(b.Ctx.Stage)
	})

	if err := linkUniformBlocks(ordered); err != nil {
		return err
	}

	var graphics []Unit
	for _, u := range ordered {
		if u.Ctx.Stage != shader.StageCompute {
			graphics = append(graphics, u)
		}
	}
	for i := 1; i < len(graphics); i++ {
		if err := linkPair(graphics[i-1], graphics[i]); err != nil {
			return err
		}
	}
	return nil
}

func stageOrder(s shader.Stage) int {
	if i := slices.Index(shader.Stages, s); i >= 0 {
		return i
	}
	return len(shader.Stages)
}

func linkError(ctx *Context, kind error, pos ast.Pos, format string, args ...any) *Error {
	err := ctx.fail(kind, pos, format, args...)
	err.Pass = linkPass
	return err
}

// interfaceVar is a global in or out variable.
type interfaceVar struct {
	decl ast.DeclHandle
	v    *ast.Variable
	typ  string
}

// interfaceVars returns the stage's global variables with storage out (or
// in), keyed by name.
func interfaceVars(tree *ast.Tree, out bool) map[string]interfaceVar {
	vars := make(map[string]interfaceVar)
	for _, g := range tree.Globals {
		v, ok := tree.Decl(g).Kind.(*ast.Variable)
		if !ok {
			continue
		}
		s := v.Type.Qualifiers.Storage
		match := s == ast.StorageIn
		if out {
			match = s == ast.StorageOut
		}
		if match || s == ast.StorageVarying {
			vars[v.Name] = interfaceVar{decl: g, v: v, typ: typeString(tree, &v.Type, v.Array)}
		}
	}
	return vars
}

func linkPair(prod, cons Unit) error {
	outs := interfaceVars(prod.Tree, true)
	for _, g := range cons.Tree.Globals {
		v, ok := cons.Tree.Decl(g).Kind.(*ast.Variable)
		if !ok {
			continue
		}
		if s := v.Type.Qualifiers.Storage; s != ast.StorageIn && s != ast.StorageVarying {
			continue
		}
		pos := cons.Tree.Decl(g).Pos
		out, ok := outs[v.Name]
		if !ok {
			cons.Ctx.warnf(pos, "input '%s' has no matching %s output", v.Name, prod.Ctx.Stage)
			continue
		}
		typ := typeString(cons.Tree, &v.Type, v.Array)
		if cons.Ctx.Stage == shader.StageGeometry {
			inner, ok := dropOuterDim(typ)
			if !ok {
				return linkError(cons.Ctx, ErrInterfaceMismatch, pos, "geometry input '%s' must be an array", v.Name)
			}
			typ = inner
		}
		if typ != out.typ {
			return linkError(cons.Ctx, ErrInterfaceMismatch, pos,
				"input '%s' is %s but the %s output is %s", v.Name, typ, prod.Ctx.Stage, out.typ)
		}
		if err := linkVaryingSlot(prod, cons, out, v, pos); err != nil {
			return err
		}
	}
	return linkBlocks(prod, cons)
}

// linkVaryingSlot gives a matched varying one slot and writes it to both
// declarations when the target supports explicit locations.
func linkVaryingSlot(prod, cons Unit, out interfaceVar, in *ast.Variable, pos ast.Pos) error {
	pq := &out.v.Type.Qualifiers
	cq := &in.Type.Qualifiers
	pl, pok := pq.LayoutValue("location")
	cl, cok := cq.LayoutValue("location")
	if pok && cok && pl != cl {
		return linkError(cons.Ctx, ErrInterfaceMismatch, pos,
			"'%s' has location %s in the %s stage and %s in the %s stage", in.Name, pl, prod.Ctx.Stage, cl, cons.Ctx.Stage)
	}
	explicit := pl
	if !pok {
		explicit = cl
	}

	table := cons.Ctx.Bindings
	var (
		b   binding.Binding
		err error
	)
	if n, perr := strconv.ParseInt(explicit, 0, 32); explicit != "" && perr == nil && n >= 0 {
		b, err = table.Reserve(in.Name, binding.KindVarying, out.typ, int(n), false)
	} else {
		b, err = table.Assign(in.Name, binding.KindVarying, out.typ, false)
	}
	if err != nil {
		serr := slotError(cons.Ctx, pos, err)
		serr.Pass = linkPass
		return serr
	}
	if cons.Ctx.Target.AtLeast(410, 310) {
		loc := strconv.Itoa(b.Slot.Index)
		pq.SetLayout("location", loc)
		cq.SetLayout("location", loc)
	}
	return nil
}

// blockSignature renders a block's members for comparison.
func blockSignature(tree *ast.Tree, b *ast.Block) []string {
	sig := make([]string, len(b.Members))
	for i := range b.Members {
		m := &b.Members[i]
		sig[i] = typeString(tree, &m.Type, m.Array) + " " + m.Name
	}
	return sig
}

func blocksOf(tree *ast.Tree, storage ast.Storage) map[string]ast.DeclHandle {
	out := make(map[string]ast.DeclHandle)
	for _, g := range tree.Globals {
		if b, ok := tree.Decl(g).Kind.(*ast.Block); ok && b.Qualifiers.Storage == storage {
			out[b.Name] = g
		}
	}
	return out
}

// linkBlocks matches the consumer's input blocks against the producer's
// output blocks.
func linkBlocks(prod, cons Unit) error {
	outs := blocksOf(prod.Tree, ast.StorageOut)
	for _, g := range cons.Tree.Globals {
		in, ok := cons.Tree.Decl(g).Kind.(*ast.Block)
		if !ok || in.Qualifiers.Storage != ast.StorageIn {
			continue
		}
		pos := cons.Tree.Decl(g).Pos
		h, ok := outs[in.Name]
		if !ok {
			cons.Ctx.warnf(pos, "input block '%s' has no matching %s output", in.Name, prod.Ctx.Stage)
			continue
		}
		out := prod.Tree.Decl(h).Kind.(*ast.Block)
		if !slices.Equal(blockSignature(prod.Tree, out), blockSignature(cons.Tree, in)) {
			return linkError(cons.Ctx, ErrInterfaceMismatch, pos,
				"block '%s' members differ from the %s stage", in.Name, prod.Ctx.Stage)
		}
	}
	return nil
}

// linkUniformBlocks checks that uniform blocks sharing a name have the same
// members in every stage.
func linkUniformBlocks(units []Unit) error {
	type first struct {
		unit Unit
		sig  []string
	}
	seen := make(map[string]first)
	for _, u := range units {
		for _, g := range u.Tree.Globals {
			b, ok := u.Tree.Decl(g).Kind.(*ast.Block)
			if !ok || b.Qualifiers.Storage != ast.StorageUniform {
				continue
			}
			sig := blockSignature(u.Tree, b)
			f, ok := seen[b.Name]
			if !ok {
				seen[b.Name] = first{unit: u, sig: sig}
				continue
			}
			if !slices.Equal(f.sig, sig) {
				return linkError(u.Ctx, ErrInterfaceMismatch, u.Tree.Decl(g).Pos,
					"uniform block '%s' members differ from the %s stage", b.Name, f.unit.Ctx.Stage)
			}
		}
	}
	return nil
}
