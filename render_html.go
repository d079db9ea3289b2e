package kanjidrill

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
)

var sheetTemplate = template.Must(template.New("sheet").Funcs(template.FuncMap{
	"mm": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "mm" },
}).Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { margin: 10mm; }
body { margin: 0; font-family: sans-serif; }
.sheet { width: {{mm .PageWidth}}; }
.row { display: flex; break-inside: avoid; }
.cell { width: {{mm .CellSize}}; height: {{mm .CellSize}}; border: 0.2mm solid #c8c8c8; box-sizing: border-box; position: relative; }
.cell svg { width: 100%; height: 100%; display: block; }
.strokes { fill: none; stroke: #000; stroke-width: 3; stroke-linecap: round; stroke-linejoin: round; }
.plain .strokes { stroke: #c8c8c8; }
.numbers { font-size: 8px; fill: #808080; }
.missing { display: flex; align-items: center; justify-content: center; height: 100%; color: #c00; }
.break { height: {{mm .Gap}}; }
</style>
</head>
<body>
<div class="sheet">
{{- range .Rows}}
{{- if .Break}}
<div class="break"></div>
{{- else}}
<div class="row {{.Class}}">
{{- range .Cells}}
<div class="cell">
{{- if .Ill}}
<svg xmlns="http://www.w3.org/2000/svg" viewBox="{{.ViewBox}}"><g class="strokes">
{{- range .Ill.Strokes}}<path d="{{.D}}"/>{{end -}}
</g>
{{- if .ShowNumbers}}<g class="numbers">
{{- range .Ill.Numbers}}<text x="{{.X}}" y="{{.Y}}">{{.N}}</text>{{end -}}
</g>{{end -}}
</svg>
{{- else}}
<div class="missing" title="illustration not found">{{.Char}}</div>
{{- end}}
</div>
{{- end}}
</div>
{{- end}}
{{- end}}
</div>
</body>
</html>
`))

type htmlSheet struct {
	Title     string
	PageWidth float64
	CellSize  float64
	Gap       float64
	Rows      []htmlRow
}

type htmlRow struct {
	Break bool
	Class string
	Cells []htmlCell
}

type htmlCell struct {
	Char        string
	ShowNumbers bool
	Ill         *Illustration
	ViewBox     string
}

// HTMLRenderer writes the sheet as a printable HTML page with inline SVG.
type HTMLRenderer struct {
	Title string
}

// Render implements Renderer.
func (r HTMLRenderer) Render(w io.Writer, s *Sheet) error {
	title := r.Title
	if title == "" {
		title = "Kanji practice sheet"
	}
	cell := ClampCellSize(s.Settings.CellSize)
	data := htmlSheet{
		Title:     title,
		PageWidth: s.Settings.PageWidth,
		CellSize:  cell,
		Gap:       cell / 2,
	}
	for _, row := range s.Rows {
		if row.Kind == LineBreak {
			data.Rows = append(data.Rows, htmlRow{Break: true})
			continue
		}
		hr := htmlRow{Class: row.Kind.String()}
		for _, c := range row.Cells() {
			hc := htmlCell{Char: c.Char.String(), ShowNumbers: c.ShowNumbers}
			if ill := s.Illustration(c.Char); ill != nil {
				hc.Ill = ill
				vb := ill.ViewBox
				hc.ViewBox = fmt.Sprintf("%g %g %g %g", vb.MinX, vb.MinY, vb.Width, vb.Height)
			}
			hr.Cells = append(hr.Cells, hc)
		}
		data.Rows = append(data.Rows, hr)
	}
	return sheetTemplate.Execute(w, data)
}
