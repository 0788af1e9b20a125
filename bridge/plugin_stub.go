// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build !((linux || darwin || freebsd) && cgo)

package bridge

import "fmt"

// ProviderSymbol is the symbol a module plugin exports.
const ProviderSymbol = "Provider"

func openPlugin(path string) (Provider, error) {
	return nil, fmt.Errorf("bridge: %w: %s", ErrPluginUnsupported, path)
}
