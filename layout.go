package kanjidrill

import "github.com/esimov/kanjidrill/utils"

// Cell size bounds, in the same unit as the page width (millimetres by default).
const (
	MinCellSize = 10
	MaxCellSize = 100
)

// RowKind tells the renderer how a row is drawn.
type RowKind int

const (
	// Annotated rows show the stroke numbers.
	Annotated RowKind = iota
	// Plain rows repeat the annotated row without numbers, for tracing.
	Plain
	// LineBreak is a vertical gap separating two input lines.
	LineBreak
)

func (k RowKind) String() string {
	switch k {
	case Annotated:
		return "annotated"
	case Plain:
		return "plain"
	case LineBreak:
		return "break"
	}
	return "unknown"
}

// Row is a printable row of the practice sheet.
type Row struct {
	Kind  RowKind
	Chars []Character
}

// Cell is a single character slot of a row.
type Cell struct {
	Char        Character
	ShowNumbers bool
}

// Cells returns the row content as cells.
func (r Row) Cells() []Cell {
	cells := make([]Cell, len(r.Chars))
	for i, c := range r.Chars {
		cells[i] = Cell{Char: c, ShowNumbers: r.Kind == Annotated}
	}
	return cells
}

// ClampCellSize restricts v to [MinCellSize, MaxCellSize].
func ClampCellSize(v float64) float64 {
	return utils.Clamp(v, MinCellSize, MaxCellSize)
}

// MaxPerRow returns how many cells fit into the width budget. It is never below 1.
func MaxPerRow(budget, cellSize float64) int {
	if cellSize <= 0 {
		return 1
	}
	n := int(budget / cellSize)
	return utils.Max(n, 1)
}

// Layout folds every line of doc into rows of at most MaxPerRow(budget, cellSize)
// characters. Each chunk yields an annotated row followed by a plain row;
// a line break row separates consecutive lines.
func Layout(doc Document, cellSize, budget float64) []Row {
	if len(doc) == 0 {
		return nil
	}
	per := MaxPerRow(budget, cellSize)

	var rows []Row
	for i, line := range doc {
		for start := 0; start < len(line); start += per {
			end := utils.Min(start+per, len(line))
			chunk := line[start:end:end]
			rows = append(rows,
				Row{Kind: Annotated, Chars: chunk},
				Row{Kind: Plain, Chars: chunk},
			)
		}
		if i < len(doc)-1 {
			rows = append(rows, Row{Kind: LineBreak})
		}
	}
	return rows
}

// ComputeRows orders doc with the cached stroke counts and lays it out
// according to the settings. It has no side effects and is meant to be
// called again whenever any of its inputs changes.
func ComputeRows(doc Document, s Settings, cache StrokeCache) []Row {
	ordered := Order(doc, s.Sort, cache)
	return Layout(ordered, ClampCellSize(s.CellSize), s.PageWidth)
}
