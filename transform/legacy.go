// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/shaderpack/ast"
	"github.com/gogpu/shaderpack/binding"
	"github.com/gogpu/shaderpack/shader"
)

// legacyTextureCalls maps pre-1.30 texture lookups to their core names.
var legacyTextureCalls = map[string]string{
	"texture1D":         "texture",
	"texture2D":         "texture",
	"texture3D":         "texture",
	"textureCube":       "texture",
	"texture2DRect":     "texture",
	"texture1DLod":      "textureLod",
	"texture2DLod":      "textureLod",
	"texture3DLod":      "textureLod",
	"textureCubeLod":    "textureLod",
	"texture2DLodEXT":   "textureLod",
	"texture1DProj":     "textureProj",
	"texture2DProj":     "textureProj",
	"texture3DProj":     "textureProj",
	"texture2DRectProj": "textureProj",
	"texture1DProjLod":  "textureProjLod",
	"texture2DProjLod":  "textureProjLod",
	"texture3DProjLod":  "textureProjLod",
	"texture2DGradARB":  "textureGrad",
}

// Legacy shadow lookups returned vec4; the core versions return float.
var legacyShadowCalls = map[string]string{
	"shadow1D":     "texture",
	"shadow2D":     "texture",
	"shadow1DLod":  "textureLod",
	"shadow2DLod":  "textureLod",
	"shadow1DProj": "textureProj",
	"shadow2DProj": "textureProj",
}

// Fixed-function uniforms, available in every stage.
var legacyUniforms = map[string]string{
	"gl_ModelViewMatrix":  binding.ModelViewMatrix,
	"gl_ProjectionMatrix": binding.ProjectionMatrix,
	"gl_NormalMatrix":     binding.NormalMatrix,
}

// Fixed-function vertex attributes.
var legacyAttributes = map[string]string{
	"gl_Vertex":         binding.Vertex,
	"gl_Color":          binding.Color,
	"gl_Normal":         binding.Normal,
	"gl_MultiTexCoord0": binding.MultiTexCoord0,
	"gl_MultiTexCoord1": binding.MultiTexCoord1,
}

// LegacyPass rewrites compatibility-profile constructs into their core
// equivalents when the target has no compatibility profile.
type LegacyPass struct{}

// Name implements Pass.
func (LegacyPass) Name() string { return "legacy" }

// legacyRewriter is the per-Apply state of LegacyPass.
type legacyRewriter struct {
	tree *ast.Tree
	ctx  *Context
	err  error
	// fragData holds the rewritten identifiers per draw buffer.
	fragData map[int][]ast.ExprHandle
	// varyings holds the fixed-function varyings the stage used, by the
	// name that replaces them.
	varyings map[string]*legacyVarying
}

// legacyVarying is a fixed-function varying replaced by a declared one.
type legacyVarying struct {
	typ  string
	from string
	uses []ast.ExprHandle
}

// Apply implements Pass.
func (LegacyPass) Apply(tree *ast.Tree, ctx *Context) error {
	if ctx.Target.AllowsLegacy() {
		return nil
	}
	r := &legacyRewriter{
		tree:     tree,
		ctx:      ctx,
		fragData: make(map[int][]ast.ExprHandle),
		varyings: make(map[string]*legacyVarying),
	}
	r.rewriteStorage()

	w := ast.Walker{Expr: r.expr}
	w.Walk(tree)
	if r.err != nil {
		return r.err
	}
	at := injectIndex(tree)
	at = r.declareFragData(at)
	r.declareVaryings(at)
	return nil
}

func (r *legacyRewriter) rewriteStorage() {
	for _, g := range r.tree.Globals {
		v, ok := r.tree.Decl(g).Kind.(*ast.Variable)
		if !ok {
			continue
		}
		q := &v.Type.Qualifiers
		switch q.Storage {
		case ast.StorageAttribute:
			q.Storage = ast.StorageIn
		case ast.StorageVarying:
			if r.ctx.Stage == shader.StageFragment {
				q.Storage = ast.StorageIn
			} else {
				q.Storage = ast.StorageOut
			}
		}
	}
}

func (r *legacyRewriter) expr(h ast.ExprHandle) bool {
	if r.err != nil {
		return false
	}
	pos := r.tree.Expr(h).Pos
	switch e := r.tree.Expr(h).Kind.(type) {
	case *ast.Ident:
		if e.Decl.Valid() {
			return true
		}
		r.ident(h, e, pos)
	case *ast.Call:
		if e.Decl.Valid() {
			return true
		}
		r.call(h, e, pos)
	case *ast.Index:
		base, ok := r.tree.Expr(e.Base).Kind.(*ast.Ident)
		if !ok || base.Decl.Valid() || !r.indexed(base.Name) {
			return true
		}
		r.index(h, base.Name, e.Index, pos)
		return false
	}
	return true
}

// indexed reports whether name is a fixed-function array the stage
// rewrites element by element.
func (r *legacyRewriter) indexed(name string) bool {
	switch name {
	case "gl_FragData":
		return r.ctx.Stage == shader.StageFragment
	case "gl_TexCoord":
		return r.varyingStage()
	case "gl_TextureMatrix":
		return true
	}
	return false
}

// index replaces name[index] with the host symbol for that element.
func (r *legacyRewriter) index(h ast.ExprHandle, name string, index ast.ExprHandle, pos ast.Pos) {
	n, ok := r.constIndex(index)
	if !ok {
		r.err = r.ctx.fail(ErrUnresolvedReference, pos, "%s index must be a constant integer", name)
		return
	}
	switch name {
	case "gl_FragData":
		r.tree.Expr(h).Kind = r.fragDataIdent(h, n)
	case "gl_TexCoord":
		if n >= binding.TexCoords {
			r.err = r.ctx.fail(ErrUnresolvedReference, pos, "gl_TexCoord[%d] is out of range; there are %d coordinate sets", n, binding.TexCoords)
			return
		}
		from := "gl_TexCoord[" + strconv.Itoa(n) + "]"
		r.tree.Expr(h).Kind = r.varyingIdent(h, binding.TexCoordPrefix+strconv.Itoa(n), "vec4", from)
	case "gl_TextureMatrix":
		if n >= binding.TextureMatrices {
			r.err = r.ctx.fail(ErrUnresolvedReference, pos, "gl_TextureMatrix[%d] is not provided by the host", n)
			return
		}
		r.tree.Expr(h).Kind = &ast.Ident{Name: binding.TextureMatrixPrefix + strconv.Itoa(n), Decl: ast.NoDecl}
	}
}

// varyingStage reports whether the stage passes fixed-function varyings
// from vertex to fragment.
func (r *legacyRewriter) varyingStage() bool {
	return r.ctx.Stage == shader.StageVertex || r.ctx.Stage == shader.StageFragment
}

func (r *legacyRewriter) ident(h ast.ExprHandle, id *ast.Ident, pos ast.Pos) {
	if name, ok := legacyUniforms[id.Name]; ok {
		id.Name = name
		return
	}
	if name, ok := legacyAttributes[id.Name]; ok && r.ctx.Stage == shader.StageVertex {
		id.Name = name
		return
	}
	switch id.Name {
	case "gl_ModelViewProjectionMatrix":
		r.tree.Expr(h).Kind = r.mvp(pos)
	case "gl_FragColor":
		if r.ctx.Stage == shader.StageFragment {
			r.tree.Expr(h).Kind = r.fragDataIdent(h, 0)
		}
	case "gl_FrontColor":
		if r.ctx.Stage == shader.StageVertex {
			r.tree.Expr(h).Kind = r.varyingIdent(h, binding.FrontColor, "vec4", id.Name)
		}
	case "gl_Color":
		if r.ctx.Stage == shader.StageFragment {
			r.tree.Expr(h).Kind = r.varyingIdent(h, binding.FrontColor, "vec4", id.Name)
		}
	case "gl_FogFragCoord":
		if r.varyingStage() {
			r.tree.Expr(h).Kind = r.varyingIdent(h, binding.FogFragCoord, "float", id.Name)
		}
	case "gl_FragData", "gl_TexCoord", "gl_TextureMatrix":
		if r.indexed(id.Name) {
			r.err = r.ctx.fail(ErrUnresolvedReference, pos, "%s must be indexed by a constant integer", id.Name)
		}
	}
}

func (r *legacyRewriter) call(h ast.ExprHandle, c *ast.Call, pos ast.Pos) {
	if name, ok := legacyTextureCalls[c.Callee]; ok {
		c.Callee = name
		return
	}
	if name, ok := legacyShadowCalls[c.Callee]; ok {
		inner := r.tree.NewCall(name, pos, c.Args...)
		r.tree.Expr(h).Kind = &ast.Call{Callee: "vec4", Decl: ast.NoDecl, Args: []ast.ExprHandle{inner}}
		return
	}
	if c.Callee == "ftransform" && len(c.Args) == 0 && r.ctx.Stage == shader.StageVertex {
		mvp := r.tree.AddExpr(r.mvp(pos), pos)
		vertex := r.tree.NewIdent(binding.Vertex, pos)
		r.tree.Expr(h).Kind = &ast.Binary{Op: ast.OpMul, Left: mvp, Right: vertex}
	}
}

// mvp returns host_ProjectionMatrix * host_ModelViewMatrix.
func (r *legacyRewriter) mvp(pos ast.Pos) *ast.Binary {
	proj := r.tree.NewIdent(binding.ProjectionMatrix, pos)
	mv := r.tree.NewIdent(binding.ModelViewMatrix, pos)
	return &ast.Binary{Op: ast.OpMul, Left: proj, Right: mv}
}

func (r *legacyRewriter) fragDataIdent(h ast.ExprHandle, n int) *ast.Ident {
	r.fragData[n] = append(r.fragData[n], h)
	return &ast.Ident{Name: binding.FragDataPrefix + strconv.Itoa(n), Decl: ast.NoDecl}
}

func (r *legacyRewriter) varyingIdent(h ast.ExprHandle, name, typ, from string) *ast.Ident {
	v, ok := r.varyings[name]
	if !ok {
		v = &legacyVarying{typ: typ, from: from}
		r.varyings[name] = v
	}
	v.uses = append(v.uses, h)
	return &ast.Ident{Name: name, Decl: ast.NoDecl}
}

func (r *legacyRewriter) constIndex(h ast.ExprHandle) (int, bool) {
	lit, ok := r.tree.Expr(h).Kind.(*ast.Literal)
	if !ok || (lit.Kind != ast.LitInt && lit.Kind != ast.LitUint) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimRight(lit.Text, "uU"), 0, 32)
	if err != nil || n < 0 {
		return 0, false
	}
	return int(n), true
}

// declareFragData declares one output per draw buffer the pack wrote at
// global index at and wires the rewritten identifiers to it. It returns the
// index following the declarations.
func (r *legacyRewriter) declareFragData(at int) int {
	indices := make([]int, 0, len(r.fragData))
	for n := range r.fragData {
		indices = append(indices, n)
	}
	slices.Sort(indices)

	for _, n := range indices {
		var q ast.Qualifiers
		q.Storage = ast.StorageOut
		if r.ctx.Target.AtLeast(330, 300) {
			q.SetLayout("location", strconv.Itoa(n))
		}
		name := binding.FragDataPrefix + strconv.Itoa(n)
		d := r.tree.NewGlobalVariable(q, "vec4", name)
		r.tree.InsertGlobal(at, d)
		at++
		for _, h := range r.fragData[n] {
			r.tree.Expr(h).Kind.(*ast.Ident).Decl = d
		}
		r.ctx.infof(ast.Pos{}, "declared %s for legacy fragment output %d", name, n)
	}
	return at
}

// declareVaryings declares the replacement varyings in name order. The
// vertex stage writes them and the fragment stage reads them, so the link
// step matches the two by name.
func (r *legacyRewriter) declareVaryings(at int) {
	var q ast.Qualifiers
	q.Storage = ast.StorageOut
	if r.ctx.Stage == shader.StageFragment {
		q.Storage = ast.StorageIn
	}
	for _, name := range slices.Sorted(maps.Keys(r.varyings)) {
		v := r.varyings[name]
		d := r.tree.NewGlobalVariable(q, v.typ, name)
		r.tree.InsertGlobal(at, d)
		at++
		for _, h := range v.uses {
			r.tree.Expr(h).Kind.(*ast.Ident).Decl = d
		}
		r.ctx.infof(ast.Pos{}, "declared %s for %s", name, v.from)
	}
}

// injectIndex returns where injected globals go: after the leading
// precision statements, pragmas and qualifier-only declarations.
func injectIndex(tree *ast.Tree) int {
	for i, g := range tree.Globals {
		switch tree.Decl(g).Kind.(type) {
		case *ast.Precision, *ast.Pragma, *ast.Default:
		default:
			return i
		}
	}
	return len(tree.Globals)
}
