// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package memo provides a generation-stamped memo table.
//
// Every entry remembers the Generation it was computed in. A lookup with a
// newer generation misses, so bumping the owner's generation invalidates
// the whole table without touching a single entry:
//
//	var gen memo.Generation
//	t := memo.New[int, float64]()
//	t.Store(7, 1.5, gen)
//	v, ok := t.Lookup(7, gen) // 1.5, true
//	gen = gen.Next()
//	_, ok = t.Lookup(7, gen)  // false: stale
//
// # Thread Safety
//
// Table is not safe for concurrent use. Each property tree instance owns
// its tables and updates them from a single goroutine.
package memo
