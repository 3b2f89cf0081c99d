// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package memo

// Generation is a monotonically increasing update counter.
type Generation uint64

// Next returns the following generation.
func (g Generation) Next() Generation {
	return g + 1
}

// entry holds a memoized value with the generation it was computed in.
type entry[V any] struct {
	value V
	gen   Generation
}

// Table is a memo keyed by K whose entries are only valid for the
// generation they were stored with.
type Table[K comparable, V any] struct {
	entries map[K]*entry[V]
	hits    uint64
	misses  uint64
}

// New creates an empty table.
func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{
		entries: make(map[K]*entry[V]),
	}
}

// Lookup returns the value stored for key if it was computed in the
// current generation.
func (t *Table[K, V]) Lookup(key K, current Generation) (V, bool) {
	e, ok := t.entries[key]
	if !ok || e.gen != current {
		t.misses++
		var zero V
		return zero, false
	}
	t.hits++
	return e.value, true
}

// Store records value for key in the given generation, replacing any stale
// entry in place.
func (t *Table[K, V]) Store(key K, value V, current Generation) {
	if e, ok := t.entries[key]; ok {
		e.value = value
		e.gen = current
		return
	}
	t.entries[key] = &entry[V]{value: value, gen: current}
}

// GetOrCompute returns the current value for key, calling compute on a miss.
// compute may itself use the table; the result is stored after it returns.
func (t *Table[K, V]) GetOrCompute(key K, current Generation, compute func() V) V {
	if v, ok := t.Lookup(key, current); ok {
		return v
	}
	v := compute()
	t.Store(key, v, current)
	return v
}

// Reset drops every entry and the statistics.
func (t *Table[K, V]) Reset() {
	t.entries = make(map[K]*entry[V])
	t.hits = 0
	t.misses = 0
}

// Stats returns lookup statistics.
func (t *Table[K, V]) Stats() Stats {
	s := Stats{
		Len:    len(t.entries),
		Hits:   t.hits,
		Misses: t.misses,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Stats contains table statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Hits is the number of lookups answered from the current generation.
	Hits uint64
	// Misses is the number of lookups that found nothing or a stale entry.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0.0 to 1.0.
	HitRate float64
}
