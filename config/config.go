// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config loads the session configuration from YAML.
//
//	host_version: 11
//	target_version: 330 core
//	max_expansion_depth: 64
//	max_expansion_tokens: 65536
//	directive_whitelist: [pragma]
//	workers: 4
//	bridge:
//	  module: fluidrender
//	  min_version: 1.2.0
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderpack/glsl"
	"github.com/gogpu/shaderpack/preprocess"
)

// TransformVersion identifies the behavior of the default pass pipeline. It
// is part of every cache key; bump it when pass output changes.
const TransformVersion = "1"

// Config is the session configuration.
type Config struct {
	// HostVersion is exposed to packs as the HOST_VERSION macro.
	HostVersion int `yaml:"host_version"`

	// TargetVersion is the minimum GLSL version of emitted source.
	TargetVersion string `yaml:"target_version"`

	MaxExpansionDepth  int               `yaml:"max_expansion_depth"`
	MaxExpansionTokens int               `yaml:"max_expansion_tokens"`
	DirectiveWhitelist []string          `yaml:"directive_whitelist"`
	Predefined         map[string]string `yaml:"predefined"`

	// Workers bounds concurrent program compiles. Zero means one per CPU.
	Workers int `yaml:"workers"`

	// TransformVersion overrides the pipeline version used in cache keys.
	TransformVersion string `yaml:"transform_version"`

	Bridge Bridge `yaml:"bridge"`
}

// Bridge configures the optional rendering module.
type Bridge struct {
	// Module is the provider name the module registers under. Empty
	// disables probing.
	Module string `yaml:"module"`

	// Plugin is a shared object to load the provider from, on platforms
	// with plugin support.
	Plugin string `yaml:"plugin"`

	// MinVersion is the oldest module version accepted, e.g. "1.2.0".
	MinVersion string `yaml:"min_version"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HostVersion:        1,
		TargetVersion:      "330 core",
		MaxExpansionDepth:  preprocess.DefaultMaxExpansionDepth,
		MaxExpansionTokens: preprocess.DefaultMaxExpansionTokens,
		DirectiveWhitelist: []string{"pragma"},
		TransformVersion:   TransformVersion,
	}
}

// Load parses YAML over the defaults and validates the result. Fields the
// document omits keep their default values.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and parses a configuration file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Load(data)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if _, err := glsl.ParseVersion(c.TargetVersion); err != nil {
		errs = append(errs, fmt.Errorf("target_version: %w", err))
	}
	if c.MaxExpansionDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_expansion_depth must be positive, got %d", c.MaxExpansionDepth))
	}
	if c.MaxExpansionTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_expansion_tokens must be positive, got %d", c.MaxExpansionTokens))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Bridge.MinVersion != "" {
		if _, err := ParseSemver(c.Bridge.MinVersion); err != nil {
			errs = append(errs, fmt.Errorf("bridge.min_version: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Target returns the parsed target version.
func (c Config) Target() glsl.Version {
	v, err := glsl.ParseVersion(c.TargetVersion)
	if err != nil {
		return glsl.Version330
	}
	return v
}

// Transform returns the pipeline version for cache keys.
func (c Config) Transform() string {
	if c.TransformVersion == "" {
		return TransformVersion
	}
	return c.TransformVersion
}

// Preprocess returns the preprocessor configuration without capabilities
// or an include resolver; those are set per compile.
func (c Config) Preprocess() preprocess.Config {
	return preprocess.Config{
		HostVersion:        c.HostVersion,
		MaxExpansionDepth:  c.MaxExpansionDepth,
		MaxExpansionTokens: c.MaxExpansionTokens,
		Whitelist:          c.DirectiveWhitelist,
		Predefined:         c.Predefined,
	}
}

// Semver is a major.minor.patch version.
type Semver struct {
	Major, Minor, Patch int
}

// ParseSemver parses "1", "1.2" or "1.2.3". A leading "v" is allowed.
func ParseSemver(s string) (Semver, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Semver{}, fmt.Errorf("malformed version %q", s)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Semver{}, fmt.Errorf("malformed version %q", s)
		}
		n[i] = v
	}
	return Semver{Major: n[0], Minor: n[1], Patch: n[2]}, nil
}

// Less reports whether v orders before o.
func (v Semver) Less(o Semver) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
