package kanjidrill

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLayout_MaxPerRow(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(9, MaxPerRow(190, 20))
	assert.Equal(19, MaxPerRow(190, 10))
	assert.Equal(1, MaxPerRow(190, 100))
	assert.Equal(1, MaxPerRow(5, 20))
	assert.Equal(1, MaxPerRow(190, 0))

	for size := float64(MinCellSize); size <= MaxCellSize; size += 0.5 {
		n := MaxPerRow(190, size)
		assert.GreaterOrEqual(n, 1)
		assert.Equal(int(190/size), n)
	}
}

func TestLayout_ClampCellSize(t *testing.T) {
	assert.Equal(t, float64(MinCellSize), ClampCellSize(1))
	assert.Equal(t, float64(MaxCellSize), ClampCellSize(1000))
	assert.Equal(t, 42.5, ClampCellSize(42.5))
}

func TestLayout_Empty(t *testing.T) {
	assert.Empty(t, Layout(nil, 20, 190))
	assert.Empty(t, ComputeRows(Extract("no kanji here", true), DefaultSettings(), nil))
}

func TestLayout_ShortLine(t *testing.T) {
	rows := Layout(Document{chars("山川")}, 20, 190)

	want := []Row{
		{Kind: Annotated, Chars: chars("山川")},
		{Kind: Plain, Chars: chars("山川")},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Layout() mismatch (-want +got):\n%s", diff)
	}
}

func TestLayout_Chunks(t *testing.T) {
	line := chars("一二三四五六七八九十")
	rows := Layout(Document{line}, 30, 100) // 3 per row

	var kinds []RowKind
	for _, r := range rows {
		kinds = append(kinds, r.Kind)
		assert.LessOrEqual(t, len(r.Chars), 3)
	}
	assert.Equal(t, []RowKind{Annotated, Plain, Annotated, Plain, Annotated, Plain, Annotated, Plain}, kinds)
	assert.Equal(t, "十", lineString(rows[6].Chars))

	// Annotated and plain rows of a pair hold the same characters.
	for i := 0; i < len(rows); i += 2 {
		assert.Equal(t, rows[i].Chars, rows[i+1].Chars)
	}
}

func TestLayout_Lossless(t *testing.T) {
	doc := Extract("春夏秋冬東西南北上下左右\n日月火水木金土\n一", false)

	for _, size := range []float64{10, 15, 20, 33, 100} {
		rows := Layout(doc, size, 190)

		var (
			lines []string
			cur   []Character
		)
		for _, r := range rows {
			switch r.Kind {
			case LineBreak:
				lines = append(lines, lineString(cur))
				cur = nil
			case Annotated:
				cur = append(cur, r.Chars...)
			}
		}
		lines = append(lines, lineString(cur))

		if diff := cmp.Diff(docStrings(doc), lines); diff != "" {
			t.Errorf("size %v: rows do not reproduce the document (-want +got):\n%s", size, diff)
		}
	}
}

func TestLayout_Scenario(t *testing.T) {
	s := DefaultSettings()
	s.Dedupe = true
	s.CellSize = 20
	s.PageWidth = 190

	doc := ExtractWith("漢字\n漢字", s.ExtractOptions())
	assert.Equal(t, []string{"漢字", "漢字"}, docStrings(doc))
	assert.Equal(t, 9, MaxPerRow(s.PageWidth, s.CellSize))

	rows := ComputeRows(doc, s, nil)
	want := []Row{
		{Kind: Annotated, Chars: chars("漢字")},
		{Kind: Plain, Chars: chars("漢字")},
		{Kind: LineBreak},
		{Kind: Annotated, Chars: chars("漢字")},
		{Kind: Plain, Chars: chars("漢字")},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("ComputeRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestLayout_Idempotent(t *testing.T) {
	s := DefaultSettings()
	s.Sort = SortStrokeDesc
	cache := StrokeCache{'木': 4, '一': 1, '人': 2}
	text := "木一人\n人木\n一"

	first := ComputeRows(Extract(text, s.Dedupe), s, cache)
	second := ComputeRows(Extract(text, s.Dedupe), s, cache)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ComputeRows() is not idempotent (-first +second):\n%s", diff)
	}
}

func TestLayout_ComputeRowsClampsCellSize(t *testing.T) {
	s := DefaultSettings()
	s.CellSize = 1 // clamped to MinCellSize
	s.PageWidth = 40

	rows := ComputeRows(Document{chars("一二三四五")}, s, nil)
	assert.Len(t, rows[0].Chars, 4)
}

func TestLayout_Cells(t *testing.T) {
	annotated := Row{Kind: Annotated, Chars: chars("一人")}
	plain := Row{Kind: Plain, Chars: chars("一人")}

	assert.Equal(t, []Cell{{'一', true}, {'人', true}}, annotated.Cells())
	assert.Equal(t, []Cell{{'一', false}, {'人', false}}, plain.Cells())
	assert.Empty(t, Row{Kind: LineBreak}.Cells())
}
