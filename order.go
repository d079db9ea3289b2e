package kanjidrill

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// SortOrder selects how the characters of each line are reordered.
type SortOrder string

// The supported sort orders.
const (
	SortNone        SortOrder = "none"
	SortStrokeAsc   SortOrder = "stroke-asc"
	SortStrokeDesc  SortOrder = "stroke-desc"
	SortUnicodeAsc  SortOrder = "unicode-asc"
	SortUnicodeDesc SortOrder = "unicode-desc"
)

// SortOrders lists every supported order.
var SortOrders = []SortOrder{SortNone, SortStrokeAsc, SortStrokeDesc, SortUnicodeAsc, SortUnicodeDesc}

// ParseSortOrder converts a name into a SortOrder. The empty string means SortNone.
func ParseSortOrder(s string) (SortOrder, error) {
	if s == "" {
		return SortNone, nil
	}
	for _, o := range SortOrders {
		if string(o) == s {
			return o, nil
		}
	}
	return SortNone, fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
}

func (o SortOrder) String() string { return string(o) }

// ByStrokes reports whether the order needs stroke counts.
func (o SortOrder) ByStrokes() bool {
	return o == SortStrokeAsc || o == SortStrokeDesc
}

// Order returns a copy of doc with every line sorted according to mode.
// Stroke counts are taken from cache; characters missing from it sort
// as if they had DefaultStrokeCount strokes. Lines are sorted independently
// and the sort is stable.
func Order(doc Document, mode SortOrder, cache StrokeCache) Document {
	out := doc.clone()
	var less func(a, b Character) bool

	switch mode {
	case SortUnicodeAsc:
		less = func(a, b Character) bool { return a < b }
	case SortUnicodeDesc:
		less = func(a, b Character) bool { return a > b }
	case SortStrokeAsc:
		less = func(a, b Character) bool { return cache.Count(a) < cache.Count(b) }
	case SortStrokeDesc:
		less = func(a, b Character) bool { return cache.Count(a) > cache.Count(b) }
	default:
		return out
	}
	for _, line := range out {
		slices.SortStableFunc(line, less)
	}
	return out
}

// OrderAsync resolves the missing stroke counts when mode needs them and
// then orders the document. The returned cache includes every newly
// resolved count.
func OrderAsync(ctx context.Context, doc Document, mode SortOrder, cache StrokeCache, r *Resolver) (Document, StrokeCache) {
	if cache == nil {
		cache = StrokeCache{}
	}
	if mode.ByStrokes() && r != nil {
		cache = r.Resolve(ctx, doc, cache)
	}
	return Order(doc, mode, cache), cache
}

// Resolver looks up the stroke counts of uncached characters concurrently.
type Resolver struct {
	Provider Provider
	// Workers bounds the number of lookups in flight. Zero means runtime.NumCPU.
	Workers int
	Logger  logrus.FieldLogger
}

// NewResolver returns a resolver backed by p.
func NewResolver(p Provider, logger logrus.FieldLogger) *Resolver {
	return &Resolver{Provider: p, Logger: logger}
}

// Resolve issues one lookup per character of doc missing from cache, waits
// for all of them and returns the merged cache. A failed lookup records
// DefaultStrokeCount. Lookups interrupted by ctx are not recorded, so they
// are retried on the next call.
func (r *Resolver) Resolve(ctx context.Context, doc Document, cache StrokeCache) StrokeCache {
	missing := cache.Missing(doc)
	if len(missing) == 0 {
		return cache.Clone()
	}
	logger := loggerOrDiscard(r.Logger)

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type lookup struct {
		count int
		ok    bool
	}
	results := make([]lookup, len(missing))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range missing {
		i, c := i, c
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			n, err := r.Provider.StrokeCount(gctx, c)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				logger.WithField("char", c.String()).WithError(err).
					Debug("stroke count lookup failed, using default")
				n = DefaultStrokeCount
			}
			results[i] = lookup{count: n, ok: true}
			return nil
		})
	}
	// The lookups never return an error.
	_ = g.Wait()

	resolved := make(StrokeCache, len(missing))
	for i, c := range missing {
		if results[i].ok {
			resolved[c] = results[i].count
		}
	}
	return cache.Merge(resolved)
}
