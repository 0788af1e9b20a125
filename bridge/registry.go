// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bridge

import (
	"maps"
	"slices"
	"sync"
)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// Register makes a provider available under name. It is meant to be called
// from the module's init function. Register panics if p is nil or name is
// already registered.
func Register(name string, p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	if p == nil {
		panic("bridge: Register provider is nil")
	}
	if _, dup := providers[name]; dup {
		panic("bridge: Register called twice for provider " + name)
	}
	providers[name] = p
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	return slices.Sorted(maps.Keys(providers))
}

func lookupProvider(name string) (Provider, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

func unregister(name string) {
	providersMu.Lock()
	defer providersMu.Unlock()
	delete(providers, name)
}
