// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package session

import "sync/atomic"

// Stats counts work done by a session since it was created.
type Stats struct {
	// Preprocessed, Parsed and Transformed count stage sources that
	// entered each phase.
	Preprocessed int64
	Parsed       int64
	Transformed  int64

	CacheHits   int64
	CacheMisses int64

	// Failures counts programs that failed to compile, cached or not.
	Failures int64

	// Entries is the number of cached programs.
	Entries int
}

type counters struct {
	preprocessed atomic.Int64
	parsed       atomic.Int64
	transformed  atomic.Int64
	hits         atomic.Int64
	misses       atomic.Int64
	failures     atomic.Int64
}

// Stats returns a snapshot of the session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		Preprocessed: s.counters.preprocessed.Load(),
		Parsed:       s.counters.parsed.Load(),
		Transformed:  s.counters.transformed.Load(),
		CacheHits:    s.counters.hits.Load(),
		CacheMisses:  s.counters.misses.Load(),
		Failures:     s.counters.failures.Load(),
		Entries:      s.cache.len(),
	}
}
