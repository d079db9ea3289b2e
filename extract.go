package kanjidrill

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unicode ranges accepted as kanji.
const (
	unifiedStart = 0x4E00
	unifiedEnd   = 0x9FAF
	extAStart    = 0x3400
	extAEnd      = 0x4DBF
)

// Character is a single kanji scalar value.
type Character rune

// String returns the character as a string.
func (c Character) String() string {
	return string(rune(c))
}

// Line holds the kanji found on one input line, in reading order.
type Line []Character

// Document is the ordered list of non-empty lines extracted from the input text.
type Document []Line

// ExtractOptions controls the extraction of kanji from raw text.
type ExtractOptions struct {
	// Dedupe removes repeated characters within a line. The first occurrence is kept.
	Dedupe bool
	// Normalize applies NFC before matching, which folds CJK compatibility
	// ideographs into the unified block.
	Normalize bool
}

// IsKanji reports whether r lies in the CJK Unified Ideographs block
// or in its Extension A.
func IsKanji(r rune) bool {
	return (r >= unifiedStart && r <= unifiedEnd) || (r >= extAStart && r <= extAEnd)
}

// Extract returns the kanji of text grouped by input line.
func Extract(text string, dedupe bool) Document {
	return ExtractWith(text, ExtractOptions{Dedupe: dedupe})
}

// ExtractWith is like Extract but accepts the full set of extraction options.
// Characters outside the supported ranges are skipped without notice
// and lines left without any kanji are dropped.
func ExtractWith(text string, opts ExtractOptions) Document {
	if opts.Normalize {
		text = norm.NFC.String(text)
	}
	var doc Document
	for _, raw := range splitLines(text) {
		line := extractLine(raw, opts.Dedupe)
		if len(line) > 0 {
			doc = append(doc, line)
		}
	}
	return doc
}

func extractLine(s string, dedupe bool) Line {
	var (
		line Line
		seen map[Character]struct{}
	)
	if dedupe {
		seen = make(map[Character]struct{})
	}
	for _, r := range s {
		if !IsKanji(r) {
			continue
		}
		c := Character(r)
		if dedupe {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
		}
		line = append(line, c)
	}
	return line
}

// splitLines splits on \n, \r\n and a lone \r.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Len returns the total number of characters in the document.
func (d Document) Len() int {
	var n int
	for _, l := range d {
		n += len(l)
	}
	return n
}

// Unique returns every distinct character of the document in first-seen order.
func (d Document) Unique() []Character {
	var (
		out  []Character
		seen = make(map[Character]struct{})
	)
	for _, l := range d {
		for _, c := range l {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// clone returns a deep copy of the document.
func (d Document) clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, l := range d {
		out[i] = append(Line(nil), l...)
	}
	return out
}
