// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package session

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/gogpu/shaderpack/preprocess"
	"github.com/gogpu/shaderpack/shader"
)

// Pack is an unpacked shader pack: file text keyed by slash-separated
// pack-relative path.
type Pack struct {
	Name  string
	Files map[string]string
}

// CombinedExt is the extension of files that may hold several stages
// behind "#shader <stage>" markers.
const CombinedExt = ".glsl"

// programSources is one program's stage files as found in a pack.
type programSources struct {
	name    string
	sources []shader.Source
	// err is set when the files cannot form a program.
	err error
}

// programs groups the pack's stage files by program name: the file path
// without its extension. Files that are not stage files are include-only
// libraries. Programs are returned sorted by name.
func (p Pack) programs() []programSources {
	byName := make(map[string]*programSources)
	get := func(name string) *programSources {
		ps, ok := byName[name]
		if !ok {
			ps = &programSources{name: name}
			byName[name] = ps
		}
		return ps
	}

	for _, file := range slices.Sorted(maps.Keys(p.Files)) {
		text := p.Files[file]
		ext := path.Ext(file)
		name := strings.TrimSuffix(file, ext)

		if stage, ok := shader.StageFromExt(ext); ok {
			ps := get(name)
			ps.add(shader.Source{Name: name, Stage: stage, Path: file, Text: text})
			continue
		}
		if strings.EqualFold(ext, CombinedExt) && shader.IsCombined(text) {
			ps := get(name)
			srcs, err := shader.SplitCombined(name, file, text)
			if err != nil {
				ps.err = err
				continue
			}
			for _, src := range srcs {
				ps.add(src)
			}
		}
	}

	out := make([]programSources, 0, len(byName))
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		ps := byName[name]
		slices.SortFunc(ps.sources, func(a, b shader.Source) int {
			return stageIndex(a.Stage) - stageIndex(b.Stage)
		})
		out = append(out, *ps)
	}
	return out
}

func (ps *programSources) add(src shader.Source) {
	for _, s := range ps.sources {
		if s.Stage == src.Stage {
			if ps.err == nil {
				ps.err = fmt.Errorf("duplicate %s stage in %s and %s", src.Stage, s.Path, src.Path)
			}
			return
		}
	}
	ps.sources = append(ps.sources, src)
}

func stageIndex(s shader.Stage) int {
	if i := slices.Index(shader.Stages, s); i >= 0 {
		return i
	}
	return len(shader.Stages)
}

// resolver serves #include from every file in the pack.
func (p Pack) resolver() preprocess.MapResolver {
	return preprocess.MapResolver(maps.Clone(p.Files))
}

// libraries returns the files that are not stage sources, sorted by path.
// Their text is part of every program's cache key since any of them may be
// included.
func (p Pack) libraries() []shader.Source {
	var libs []shader.Source
	for _, file := range slices.Sorted(maps.Keys(p.Files)) {
		ext := path.Ext(file)
		if _, ok := shader.StageFromExt(ext); ok {
			continue
		}
		if strings.EqualFold(ext, CombinedExt) && shader.IsCombined(p.Files[file]) {
			continue
		}
		libs = append(libs, shader.Source{Path: file, Text: p.Files[file]})
	}
	return libs
}
