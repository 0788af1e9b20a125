// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command packc compiles a shader pack directory the way the host loads it.
//
// Usage:
//
//	packc [options] <pack-dir>
//
// Examples:
//
//	packc shaders/                       # Compile and report diagnostics
//	packc -o out/ shaders/               # Write rewritten stage sources
//	packc -options opts.yaml shaders/    # Select pack options
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/gogpu/shaderpack/bridge"
	"github.com/gogpu/shaderpack/config"
	"github.com/gogpu/shaderpack/session"
	"github.com/gogpu/shaderpack/shader"
)

var (
	configPath  = flag.String("config", "", "configuration file (YAML)")
	optionsPath = flag.String("options", "", "pack option file (default: <pack>/options.yaml if present)")
	output      = flag.String("o", "", "output directory for rewritten sources")
	caps        = flag.String("caps", "", "comma-separated capabilities the host approves")
	verbose     = flag.Bool("v", false, "verbose logging")
	stats       = flag.Bool("stats", false, "print session statistics")
	version     = flag.Bool("version", false, "print version")
)

const packcVersion = "0.1.0-dev"

// optionsFile is read from the pack root when -options is not given.
const optionsFile = "options.yaml"

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("packc version %s (transform %s)\n", packcVersion, config.TransformVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no pack directory specified")
		usage()
		os.Exit(1)
	}

	ok, err := run(args[0], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(2)
	}
}

// run compiles the pack at dir and reports to stdout. It returns false when
// any program failed.
func run(dir string, stdout, stderr io.Writer) (bool, error) {
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			return false, err
		}
	}

	pack, err := loadPack(dir)
	if err != nil {
		return false, err
	}
	options, err := loadOptions(dir, *optionsPath)
	if err != nil {
		return false, err
	}

	sess := session.New(cfg, session.WithLogger(logger))
	state := bridge.Install(cfg.Bridge, approved(*caps), bridge.WithLogger(logger), bridge.WithHooks(sess))
	defer state.Close()
	sess.Reload(state)

	results := sess.Compile(context.Background(), pack, options)
	ok := report(stdout, uuid.NewString(), pack, results)

	if *output != "" {
		if err := writeOutputs(*output, results); err != nil {
			return false, err
		}
	}
	if *stats {
		st := sess.Stats()
		fmt.Fprintf(stdout, "stats: preprocessed=%d parsed=%d transformed=%d failures=%d\n",
			st.Preprocessed, st.Parsed, st.Transformed, st.Failures)
	}
	return ok, nil
}

// loadPack reads every regular file under dir, keyed by slash-separated
// path relative to dir.
func loadPack(dir string) (session.Pack, error) {
	pack := session.Pack{Name: filepath.Base(filepath.Clean(dir)), Files: make(map[string]string)}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == optionsFile {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		pack.Files[rel] = string(data)
		return nil
	})
	if err != nil {
		return session.Pack{}, fmt.Errorf("reading pack: %w", err)
	}
	return pack, nil
}

// loadOptions reads the option file. An absent default file means no
// options.
func loadOptions(dir, path string) (shader.OptionSet, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, optionsFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return shader.OptionSet{}, nil
		}
		return shader.OptionSet{}, fmt.Errorf("reading options: %w", err)
	}
	opts, err := shader.ParseOptions(data)
	if err != nil {
		return shader.OptionSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// approved answers capability queries from the -caps list.
func approved(list string) bridge.HostQuerier {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return bridge.HostQuerierFunc(func(name string) bool {
		return slices.Contains(names, name)
	})
}

func report(w io.Writer, runID string, pack session.Pack, results map[string]session.Result) bool {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	slices.Sort(names)

	ok := true
	fmt.Fprintf(w, "pack %s (run %s)\n", pack.Name, runID)
	for _, name := range names {
		r := results[name]
		status := "ok"
		if !r.OK() {
			status = "FAILED"
			ok = false
		}
		fmt.Fprintf(w, "  %-24s %s\n", name, status)
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "    %s\n", d)
		}
	}
	return ok
}

// writeOutputs writes each compiled stage as <program>.<stage>.glsl.
func writeOutputs(dir string, results map[string]session.Result) error {
	for name, r := range results {
		if r.Program == nil {
			continue
		}
		for _, src := range r.Program.Sources {
			path := filepath.Join(dir, filepath.FromSlash(name)+"."+src.Stage.String()+".glsl")
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(src.Text), 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: packc [options] <pack-dir>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  packc shaders/                     Compile and report\n")
	fmt.Fprintf(os.Stderr, "  packc -o out/ shaders/             Write rewritten sources\n")
	fmt.Fprintf(os.Stderr, "  packc -caps extended-fluid-data shaders/\n")
}
