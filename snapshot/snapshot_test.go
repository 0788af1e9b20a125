// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package snapshot_test provides golden snapshot tests for whole packs.
//
// Each directory in testdata/in/ is a pack. It is compiled through a session
// with its options.yaml, and every emitted stage is compared to
// testdata/golden/<pack>/<program>.<stage>.glsl. An optional snapshot.yaml
// overrides the session configuration and lists the capabilities the host
// approves:
//
//	config:
//	  target_version: 300 es
//	capabilities: [extended-fluid-data]
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/config"
	"github.com/gogpu/shaderpack/session"
	"github.com/gogpu/shaderpack/shader"
)

// ---------------------------------------------------------------------------
// Test Runner
// ---------------------------------------------------------------------------

// packDir is an input pack loaded from disk.
type packDir struct {
	pack    session.Pack
	options shader.OptionSet
	cfg     config.Config
	caps    []string
}

// packSettings is the layout of snapshot.yaml.
type packSettings struct {
	Config       config.Config `yaml:"config"`
	Capabilities []string      `yaml:"capabilities"`
}

// newSession returns a session configured for the pack.
func (p *packDir) newSession() *session.Session {
	if len(p.caps) == 0 {
		return session.New(p.cfg)
	}
	return session.New(p.cfg, session.WithBridge(bridge.NewState(bridge.NewCapabilities(p.caps...))))
}

// TestSnapshots compiles every input pack and compares each emitted stage
// with its golden file.
func TestSnapshots(t *testing.T) {
	packs := loadInputPacks(t, "testdata/in")
	if len(packs) == 0 {
		t.Fatal("no input packs found in testdata/in/")
	}

	for i := range packs {
		p := &packs[i]
		t.Run(p.pack.Name, func(t *testing.T) {
			results := p.newSession().Compile(context.Background(), p.pack, p.options)
			require.NotEmpty(t, results)

			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				r := results[name]
				require.Truef(t, r.OK(), "program %s failed:\n%s", name, r.Diagnostics)
				for _, src := range r.Program.Sources {
					t.Run(name+"/"+src.Stage.String(), func(t *testing.T) {
						golden := filepath.Join("testdata", "golden", p.pack.Name, name+"."+src.Stage.String()+".glsl")
						compareGolden(t, golden, src.Text)
					})
				}
			}
		})
	}
}

// TestSnapshotsStable recompiles each pack in a fresh session and requires
// byte-identical output.
func TestSnapshotsStable(t *testing.T) {
	for _, p := range loadInputPacks(t, "testdata/in") {
		first := p.newSession().Compile(context.Background(), p.pack, p.options)
		second := p.newSession().Compile(context.Background(), p.pack, p.options)
		require.Len(t, second, len(first))
		for name, r := range first {
			if r.Program == nil {
				continue
			}
			require.NotNil(t, second[name].Program, name)
			require.Equal(t, r.Program.Sources, second[name].Program.Sources, name)
			require.Equal(t, r.Program.Key, second[name].Program.Key, name)
		}
	}
}

// ---------------------------------------------------------------------------
// Pack Loading
// ---------------------------------------------------------------------------

// loadInputPacks reads every pack directory under dir.
func loadInputPacks(t *testing.T, dir string) []packDir {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var packs []packDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		packs = append(packs, loadPack(t, filepath.Join(dir, entry.Name())))
	}

	// Sort for deterministic test order
	sort.Slice(packs, func(i, j int) bool {
		return packs[i].pack.Name < packs[j].pack.Name
	})

	return packs
}

func loadPack(t *testing.T, root string) packDir {
	t.Helper()

	p := packDir{
		pack: session.Pack{Name: filepath.Base(root), Files: make(map[string]string)},
		cfg:  config.Default(),
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		switch rel {
		case "options.yaml":
			p.options, err = shader.ParseOptions(data)
			return err
		case "snapshot.yaml":
			settings := packSettings{Config: config.Default()}
			if err := yaml.Unmarshal(data, &settings); err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			if err := settings.Config.Validate(); err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			p.cfg, p.caps = settings.Config, settings.Capabilities
			return nil
		}
		p.pack.Files[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("load pack %q: %v", root, err)
	}
	return p
}

// ---------------------------------------------------------------------------
// Golden Comparison
// ---------------------------------------------------------------------------

// compareGolden compares actual output with a golden file, or writes it when
// UPDATE_GOLDEN is set.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file missing: %s\nRun with UPDATE_GOLDEN=1 to create.\n\nActual output:\n%s", path, truncate(actual, 500))
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if expectedStr != actualStr {
		t.Errorf("output differs from golden %s:\n%s", path, diffStrings(expectedStr, actualStr))
	}
}

// diffStrings shows the first differing line with surrounding context.
func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")
	maxLines := max(len(expectedLines), len(actualLines))

	line := func(lines []string, i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}

	firstDiff := -1
	for i := 0; i < maxLines; i++ {
		if line(expectedLines, i) != line(actualLines, i) {
			firstDiff = i
			break
		}
	}
	if firstDiff < 0 {
		return "(no difference found)"
	}

	const contextLines = 3
	var sb strings.Builder
	fmt.Fprintf(&sb, "first difference at line %d:\n", firstDiff+1)
	fmt.Fprintf(&sb, "  expected lines: %d\n", len(expectedLines))
	fmt.Fprintf(&sb, "  actual lines:   %d\n\n", len(actualLines))

	for i := max(firstDiff-contextLines, 0); i < min(firstDiff+contextLines+1, maxLines); i++ {
		e, a := line(expectedLines, i), line(actualLines, i)
		prefix := " "
		if e != a {
			prefix = "!"
		}
		fmt.Fprintf(&sb, "%s %4d expected: %s\n", prefix, i+1, truncate(e, 120))
		if e != a {
			fmt.Fprintf(&sb, "%s %4d actual:   %s\n", prefix, i+1, truncate(a, 120))
		}
	}
	return sb.String()
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
