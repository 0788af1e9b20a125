// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"fmt"
	"path"
	"strings"
)

// DefaultMaxExpansionDepth bounds nested macro expansion.
const DefaultMaxExpansionDepth = 64

// DefaultMaxExpansionTokens bounds the tokens produced while expanding one
// line.
const DefaultMaxExpansionTokens = 1 << 16

// Config controls preprocessing.
type Config struct {
	// HostVersion is exposed to packs as HOST_VERSION.
	HostVersion int

	// MaxExpansionDepth bounds nested macro expansion. Zero means
	// DefaultMaxExpansionDepth.
	MaxExpansionDepth int

	// MaxExpansionTokens bounds the tokens macro expansion may produce for
	// one line, counting every nesting level. Zero means
	// DefaultMaxExpansionTokens.
	MaxExpansionTokens int

	// Whitelist names directives (without '#') that are passed through to
	// the output untouched, e.g. "pragma". Directives the preprocessor does
	// not know and that are not listed fail with ErrUnsupportedDirective.
	Whitelist []string

	// Predefined macros, in addition to the built-in ones.
	Predefined map[string]string

	// Capabilities are exposed as HOST_CAP_<NAME> macros, with the name
	// upper-cased and dashes replaced by underscores.
	Capabilities []string

	// Include resolves #include directives. Nil disables includes.
	Include IncludeResolver
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxExpansionDepth:  DefaultMaxExpansionDepth,
		MaxExpansionTokens: DefaultMaxExpansionTokens,
		Whitelist:          []string{"pragma"},
	}
}

func (c *Config) maxDepth() int {
	if c.MaxExpansionDepth <= 0 {
		return DefaultMaxExpansionDepth
	}
	return c.MaxExpansionDepth
}

func (c *Config) maxTokens() int {
	if c.MaxExpansionTokens <= 0 {
		return DefaultMaxExpansionTokens
	}
	return c.MaxExpansionTokens
}

func (c *Config) whitelisted(directive string) bool {
	for _, w := range c.Whitelist {
		if w == directive {
			return true
		}
	}
	return false
}

// CapabilityMacro returns the macro name that exposes a capability flag.
func CapabilityMacro(capability string) string {
	return "HOST_CAP_" + strings.ToUpper(strings.ReplaceAll(capability, "-", "_"))
}

// IncludeResolver finds the text of an included file. from is the path of
// the including file; name is the path written in the directive. It returns
// the resolved path, used for cycle detection and diagnostics.
type IncludeResolver interface {
	Resolve(from, name string) (resolved string, text string, err error)
}

// MapResolver resolves includes against an in-memory file set keyed by
// slash-separated pack paths. Names starting with "/" are relative to the
// pack root, others to the including file's directory.
type MapResolver map[string]string

// Resolve implements IncludeResolver.
func (m MapResolver) Resolve(from, name string) (string, string, error) {
	var p string
	if strings.HasPrefix(name, "/") {
		p = path.Clean(strings.TrimPrefix(name, "/"))
	} else {
		p = path.Join(path.Dir(from), name)
	}
	if text, ok := m[p]; ok {
		return p, text, nil
	}
	return "", "", fmt.Errorf("%s", p)
}
