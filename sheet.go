package kanjidrill

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sheet is everything a renderer needs to draw a practice sheet.
type Sheet struct {
	Rows     []Row
	Settings Settings
	// Illustrations holds the resolved illustration of every character
	// found in Rows. A nil entry marks a character without illustration,
	// which is drawn as a placeholder.
	Illustrations map[Character]*Illustration
}

// Illustration returns the illustration of c, or nil when none was found.
func (s *Sheet) Illustration(c Character) *Illustration {
	return s.Illustrations[c]
}

// Missing returns the characters drawn as placeholders, in first-seen order.
func (s *Sheet) Missing() []Character {
	var (
		out  []Character
		seen = make(map[Character]struct{})
	)
	for _, r := range s.Rows {
		for _, c := range r.Chars {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			if s.Illustrations[c] == nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// BuildSheet fetches the illustrations of every character used by rows.
// The fetches run concurrently, bounded by workers (zero means runtime.NumCPU).
// A failed fetch never aborts the sheet: the character is kept and drawn
// as a placeholder. Only a cancelled context yields an error.
func BuildSheet(ctx context.Context, rows []Row, s Settings, p Provider, workers int, logger logrus.FieldLogger) (*Sheet, error) {
	logger = loggerOrDiscard(logger)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var chars []Character
	seen := make(map[Character]struct{})
	for _, r := range rows {
		for _, c := range r.Chars {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				chars = append(chars, c)
			}
		}
	}

	sheet := &Sheet{
		Rows:          rows,
		Settings:      s,
		Illustrations: make(map[Character]*Illustration, len(chars)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range chars {
		c := c
		g.Go(func() error {
			var ill *Illustration
			if p != nil {
				var err error
				ill, err = p.Illustration(gctx, c)
				if err != nil {
					logger.WithField("char", c.String()).WithError(err).Warn("illustration not found")
					ill = nil
				}
			}
			mu.Lock()
			sheet.Illustrations[c] = ill
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sheet, nil
}
