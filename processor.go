package kanjidrill

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/esimov/kanjidrill/utils"
	"github.com/sirupsen/logrus"
)

// Processor runs the whole pipeline: text → document → ordered rows → sheet → output.
// A Processor may be shared by several goroutines. The stroke cache it holds
// grows over its lifetime and is shared by every job.
type Processor struct {
	Settings Settings
	Provider Provider
	// Workers bounds the concurrent illustration lookups of a single job.
	Workers int
	Logger  logrus.FieldLogger
	Spinner *utils.Spinner

	mu    sync.Mutex
	cache StrokeCache
}

// Cache returns a copy of the stroke counts resolved so far.
func (p *Processor) Cache() StrokeCache {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Clone()
}

// Rows extracts, orders and lays out text according to the processor settings.
func (p *Processor) Rows(ctx context.Context, text string) []Row {
	doc := ExtractWith(text, p.Settings.ExtractOptions())
	cache := p.Cache()

	if p.Settings.Sort.ByStrokes() && p.Provider != nil {
		r := &Resolver{Provider: p.Provider, Workers: p.Workers, Logger: p.Logger}
		resolved := r.Resolve(ctx, doc, cache)

		p.mu.Lock()
		p.cache = p.cache.Merge(resolved)
		cache = p.cache.Clone()
		p.mu.Unlock()
	}
	return ComputeRows(doc, p.Settings, cache)
}

// Sheet builds the printable sheet of text.
func (p *Processor) Sheet(ctx context.Context, text string) (*Sheet, error) {
	rows := p.Rows(ctx, text)
	return BuildSheet(ctx, rows, p.Settings, p.Provider, p.Workers, p.Logger)
}

// Process reads the text from r and writes the rendered sheet into w.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer, rend Renderer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read the source text: %w", err)
	}
	sheet, err := p.Sheet(ctx, string(data))
	if err != nil {
		return err
	}
	if missing := sheet.Missing(); len(missing) > 0 {
		loggerOrDiscard(p.Logger).WithField("count", len(missing)).Debug("characters drawn as placeholders")
	}
	return rend.Render(w, sheet)
}
