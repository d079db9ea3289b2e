package kanjidrill

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultStrokeCount is used in place of a stroke count that could not be resolved.
const DefaultStrokeCount = 10

// StrokeCache maps characters to their stroke count. It only grows:
// once a key is set its value is never replaced.
// The cache is passed by value into the ordering functions and a new
// cache is returned, so callers never share a mutable map.
type StrokeCache map[Character]int

// Get returns the cached count of c, if any.
func (sc StrokeCache) Get(c Character) (int, bool) {
	n, ok := sc[c]
	return n, ok
}

// Count returns the cached stroke count of c or DefaultStrokeCount.
func (sc StrokeCache) Count(c Character) int {
	if n, ok := sc[c]; ok {
		return n
	}
	return DefaultStrokeCount
}

// Clone returns a copy of the cache.
func (sc StrokeCache) Clone() StrokeCache {
	out := make(StrokeCache, len(sc))
	for k, v := range sc {
		out[k] = v
	}
	return out
}

// Merge returns a new cache holding the entries of both caches.
// Keys already present in sc keep their value.
func (sc StrokeCache) Merge(other StrokeCache) StrokeCache {
	out := sc.Clone()
	for k, v := range other {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Missing lists the characters of doc without a cached count, in first-seen order.
func (sc StrokeCache) Missing(doc Document) []Character {
	var out []Character
	for _, c := range doc.Unique() {
		if _, ok := sc[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Keys returns the cached characters sorted by code point.
func (sc StrokeCache) Keys() []Character {
	keys := maps.Keys(sc)
	slices.Sort(keys)
	return keys
}
