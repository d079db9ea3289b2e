package kanjidrill

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

const testKanjiDir = "testdata/kanji"

// fakeProvider serves synthetic illustrations with a fixed number of strokes.
type fakeProvider struct {
	mu     sync.Mutex
	counts map[Character]int
	calls  map[Character]int
	delay  time.Duration
}

func newFakeProvider(counts map[Character]int) *fakeProvider {
	return &fakeProvider{counts: counts, calls: make(map[Character]int)}
}

func (f *fakeProvider) Illustration(ctx context.Context, c Character) (*Illustration, error) {
	f.mu.Lock()
	f.calls[c]++
	n, ok := f.counts[c]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrIllustrationNotFound, c, ctx.Err())
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIllustrationNotFound, c)
	}
	ill := &Illustration{Char: c, ViewBox: defaultViewBox}
	for i := 0; i < n; i++ {
		ill.Strokes = append(ill.Strokes, Stroke{D: fmt.Sprintf("M10,%d L90,%d", 10+i*5, 10+i*5)})
		ill.Numbers = append(ill.Numbers, StrokeNumber{N: i + 1, X: 5, Y: float64(10 + i*5)})
	}
	return ill, nil
}

func (f *fakeProvider) StrokeCount(ctx context.Context, c Character) (int, error) {
	return strokeCount(ctx, f, c)
}

func (f *fakeProvider) callCount(c Character) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[c]
}

// chars converts a string into a line of characters.
func chars(s string) Line {
	var l Line
	for _, r := range s {
		l = append(l, Character(r))
	}
	return l
}

// lineString converts a line back into a string.
func lineString(l []Character) string {
	var b strings.Builder
	for _, c := range l {
		b.WriteRune(rune(c))
	}
	return b.String()
}

func docStrings(d Document) []string {
	out := make([]string, len(d))
	for i, l := range d {
		out[i] = lineString(l)
	}
	return out
}

func testSettings(t *testing.T) Settings {
	t.Helper()
	s := DefaultSettings()
	s.CellSize = 20
	s.PageWidth = 190
	return s
}
