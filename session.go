package kanjidrill

import (
	"context"
	"fmt"
	"sync"
)

// Session keeps the current input state of a drill sheet and recomputes
// its rows whenever any part of that state changes: text, settings or the
// stroke cache. Stroke counts needed by the stroke orders are resolved in
// the background; the rows are recomputed once they arrive.
type Session struct {
	ctx      context.Context
	resolver *Resolver
	onChange func([]Row)

	// notify serialises recomputation and notification so that callbacks
	// observe the rows in the order they were computed.
	notify sync.Mutex

	mu       sync.Mutex
	settings Settings
	doc      Document
	cache    StrokeCache
	rows     []Row
	gen      uint64
	pending  sync.WaitGroup
}

// NewSession creates a session. The resolver may be nil, in which case
// stroke orders fall back to DefaultStrokeCount for every uncached character.
// onChange, when not nil, receives the rows after every recomputation.
func NewSession(ctx context.Context, s Settings, r *Resolver, onChange func([]Row)) (*Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	sess := &Session{
		ctx:      ctx,
		resolver: r,
		onChange: onChange,
		settings: s,
		cache:    StrokeCache{},
	}
	sess.update(true)
	return sess, nil
}

// SetText replaces the input text.
func (s *Session) SetText(text string) {
	s.change(true, func(st *Settings) { st.Text = text })
}

// SetDedupe toggles per-line deduplication.
func (s *Session) SetDedupe(v bool) {
	s.change(true, func(st *Settings) { st.Dedupe = v })
}

// SetNormalize toggles NFC normalisation of the input.
func (s *Session) SetNormalize(v bool) {
	s.change(true, func(st *Settings) { st.Normalize = v })
}

// SetCellSize changes the cell size. The value is clamped to its valid range.
func (s *Session) SetCellSize(v float64) {
	s.change(false, func(st *Settings) { st.CellSize = ClampCellSize(v) })
}

// SetPageWidth changes the printable width budget.
func (s *Session) SetPageWidth(v float64) error {
	if v <= 0 {
		return fmt.Errorf("page width must be positive, got %v", v)
	}
	s.change(false, func(st *Settings) { st.PageWidth = v })
	return nil
}

// SetSort changes the ordering mode.
func (s *Session) SetSort(o SortOrder) error {
	o, err := ParseSortOrder(string(o))
	if err != nil {
		return err
	}
	s.change(false, func(st *Settings) { st.Sort = o })
	return nil
}

// Rows returns the rows computed from the current state.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Document returns the extracted document of the current text.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Cache returns a copy of the stroke cache.
func (s *Session) Cache() StrokeCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Clone()
}

// Wait blocks until every background stroke lookup has been applied.
func (s *Session) Wait() {
	s.pending.Wait()
}

func (s *Session) change(reextract bool, fn func(*Settings)) {
	s.mu.Lock()
	fn(&s.settings)
	s.mu.Unlock()

	s.update(reextract)
}

// update recomputes the rows and starts a background resolution when
// the current order needs stroke counts that are not cached yet.
func (s *Session) update(reextract bool) {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	if reextract {
		s.doc = ExtractWith(s.settings.Text, s.settings.ExtractOptions())
	}
	s.gen++
	s.rows = ComputeRows(s.doc, s.settings, s.cache)
	rows := s.rows

	if s.resolver != nil && s.settings.Sort.ByStrokes() && len(s.cache.Missing(s.doc)) > 0 {
		s.pending.Add(1)
		go s.resolve(s.gen, s.doc, s.cache.Clone())
	}
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(rows)
	}
}

// resolve looks up the missing stroke counts of doc and merges them into
// the session cache. Results arriving after the text changed are still
// cached, but the rows only change if the current document uses them.
func (s *Session) resolve(gen uint64, doc Document, snapshot StrokeCache) {
	defer s.pending.Done()

	resolved := s.resolver.Resolve(s.ctx, doc, snapshot)

	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	before := len(s.cache)
	s.cache = s.cache.Merge(resolved)
	if len(s.cache) == before {
		s.mu.Unlock()
		return
	}
	if gen != s.gen && !usesAny(s.doc, resolved, snapshot) {
		s.mu.Unlock()
		return
	}
	s.rows = ComputeRows(s.doc, s.settings, s.cache)
	rows := s.rows
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(rows)
	}
}

// usesAny reports whether doc contains a character resolved in resolved
// that was not already part of snapshot.
func usesAny(doc Document, resolved, snapshot StrokeCache) bool {
	for _, line := range doc {
		for _, c := range line {
			if _, ok := snapshot[c]; ok {
				continue
			}
			if _, ok := resolved[c]; ok {
				return true
			}
		}
	}
	return false
}
