// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package session

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	"github.com/gogpu/shaderpack/diag"
	"github.com/gogpu/shaderpack/shader"
)

// cacheKey identifies one compile of one program of one pack. Packs with
// identical files get separate entries.
type cacheKey struct {
	pack         string
	content      string
	options      string
	transform    string
	capabilities string
}

// newCacheKey hashes the program's stage sources and the pack's include
// libraries into the content part of the key.
func newCacheKey(pack string, sources, libraries []shader.Source, options, transform, capabilities string) cacheKey {
	h := sha256.New()
	io.WriteString(h, shader.HashAll(sources))
	h.Write([]byte{0})
	io.WriteString(h, shader.HashAll(libraries))
	return cacheKey{
		pack:         pack,
		content:      hex.EncodeToString(h.Sum(nil)),
		options:      options,
		transform:    transform,
		capabilities: capabilities,
	}
}

// String returns a short printable form, used as Program.Key.
func (k cacheKey) String() string {
	h := sha256.New()
	for _, part := range []string{k.pack, k.content, k.options, k.transform, k.capabilities} {
		io.WriteString(h, part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// cacheEntry is a recorded success or failure.
type cacheEntry struct {
	program     *Program
	diagnostics diag.List
}

// cache holds compiled programs across Compile calls. The last writer wins
// when two compiles of the same key race.
type cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[cacheKey]cacheEntry)}
}

func (c *cache) get(k cacheKey) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k]
	return e, ok
}

func (c *cache) put(k cacheKey, e cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = e
}

// evict removes the pack's entries for which stale returns true and
// returns how many were removed.
func (c *cache) evict(pack string, stale func(cacheKey) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if k.pack == pack && stale(k) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
