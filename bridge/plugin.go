// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build (linux || darwin || freebsd) && cgo

package bridge

import (
	"fmt"
	"plugin"
)

// ProviderSymbol is the symbol a module plugin exports.
const ProviderSymbol = "Provider"

// openPlugin loads a provider from a shared object built with
// -buildmode=plugin. The plugin exports a package-level variable named
// Provider holding a bridge.Provider.
func openPlugin(path string) (Provider, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bridge: open plugin: %w", err)
	}
	sym, err := p.Lookup(ProviderSymbol)
	if err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}
	switch v := sym.(type) {
	case *Provider:
		if *v == nil {
			return nil, fmt.Errorf("bridge: plugin %s: %s is nil", path, ProviderSymbol)
		}
		return *v, nil
	case Provider:
		return v, nil
	default:
		return nil, fmt.Errorf("bridge: plugin %s: %s has type %T", path, ProviderSymbol, sym)
	}
}
