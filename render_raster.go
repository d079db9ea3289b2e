package kanjidrill

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	mmPerInch = 25.4
	// The stroke numbers of KanjiVG use a font size of 8 user units. Glyphs are
	// first drawn at the scale where this matches the bitmap face height.
	numberFontSize = 8
	strokeWidth    = 3
	marginMM       = 5
)

var (
	strokeColor      = color.NRGBA{A: 0xff}
	traceColor       = color.NRGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
	numberColor      = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	gridColor        = color.NRGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
	guideColor       = color.NRGBA{R: 0xe4, G: 0xe4, B: 0xe4, A: 0xff}
	placeholderColor = color.NRGBA{R: 0xcc, A: 0xff}
)

// RasterRenderer draws the sheet into a bitmap image.
type RasterRenderer struct {
	// DPI converts millimetres into pixels.
	DPI    float64
	Format imaging.Format
	// Quality is the JPEG quality, 1-100.
	Quality int
}

// Render implements Renderer.
func (r RasterRenderer) Render(w io.Writer, s *Sheet) error {
	img := r.Draw(s)

	quality := r.Quality
	if quality <= 0 {
		quality = 95
	}
	return imaging.Encode(w, img, r.Format, imaging.JPEGQuality(quality))
}

// Draw returns the sheet as an image.
func (r RasterRenderer) Draw(s *Sheet) *image.NRGBA {
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	px := func(mm float64) int {
		return int(math.Round(mm / mmPerInch * dpi))
	}
	var (
		cell   = px(ClampCellSize(s.Settings.CellSize))
		gap    = cell / 2
		margin = px(marginMM)
		width  = px(s.Settings.PageWidth) + 2*margin
		height = 2 * margin
	)
	for _, row := range s.Rows {
		if row.Kind == LineBreak {
			height += gap
		} else {
			height += cell
		}
	}

	dst := imaging.New(width, height, color.White)
	glyphs := newGlyphCache(cell)

	y := margin
	for _, row := range s.Rows {
		if row.Kind == LineBreak {
			y += gap
			continue
		}
		for i, c := range row.Cells() {
			rect := image.Rect(margin+i*cell, y, margin+(i+1)*cell, y+cell)
			drawGrid(dst, rect)

			g := glyphs.get(s.Illustration(c.Char), row.Kind)
			draw.Draw(dst, rect, g, image.Point{}, draw.Over)
		}
		y += cell
	}
	return dst
}

type glyphKey struct {
	ill  *Illustration
	kind RowKind
}

// glyphCache renders each illustration once per row kind.
type glyphCache struct {
	size int
	m    map[glyphKey]*image.NRGBA
}

func newGlyphCache(size int) *glyphCache {
	return &glyphCache{size: size, m: make(map[glyphKey]*image.NRGBA)}
}

func (gc *glyphCache) get(ill *Illustration, kind RowKind) *image.NRGBA {
	key := glyphKey{ill: ill, kind: kind}
	if g, ok := gc.m[key]; ok {
		return g
	}
	g := renderGlyph(ill, kind, gc.size)
	gc.m[key] = g
	return g
}

// renderGlyph draws an illustration on a transparent square of the given size.
// A nil illustration yields the placeholder cross.
func renderGlyph(ill *Illustration, kind RowKind, size int) *image.NRGBA {
	vb := defaultViewBox
	if ill != nil {
		vb = ill.ViewBox
	}
	face := basicfont.Face7x13
	scale := float64(face.Height) / numberFontSize
	native := int(math.Ceil(math.Max(vb.Width, vb.Height) * scale))
	img := image.NewNRGBA(image.Rect(0, 0, native, native))

	tr := func(p point) point {
		return point{(p.X - vb.MinX) * scale, (p.Y - vb.MinY) * scale}
	}
	z := vector.NewRasterizer(native, native)
	width := strokeWidth * scale

	if ill == nil {
		m := vb.Width * 0.25
		cross := []polyline{
			{{vb.MinX + m, vb.MinY + m}, {vb.MinX + vb.Width - m, vb.MinY + vb.Height - m}},
			{{vb.MinX + vb.Width - m, vb.MinY + m}, {vb.MinX + m, vb.MinY + vb.Height - m}},
		}
		for _, pl := range cross {
			strokePolyline(z, pl, tr, width)
		}
		z.Draw(img, img.Bounds(), image.NewUniform(placeholderColor), image.Point{})
		return imaging.Resize(img, size, size, imaging.Lanczos)
	}

	for _, s := range ill.Strokes {
		lines, err := parsePath(s.D)
		if err != nil {
			continue
		}
		for _, pl := range lines {
			strokePolyline(z, pl, tr, width)
		}
	}
	col := strokeColor
	if kind == Plain {
		col = traceColor
	}
	z.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{})

	if kind == Annotated {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(numberColor),
			Face: face,
		}
		for _, n := range ill.Numbers {
			p := tr(point{n.X, n.Y})
			d.Dot = fixed.P(int(math.Round(p.X)), int(math.Round(p.Y)))
			d.DrawString(strconv.Itoa(n.N))
		}
	}
	return imaging.Resize(img, size, size, imaging.Lanczos)
}

// strokePolyline adds a round-capped, round-joined outline of pl to z.
// Every polygon is added with the same winding so overlapping parts
// accumulate instead of cancelling each other.
func strokePolyline(z *vector.Rasterizer, pl polyline, tr func(point) point, width float64) {
	half := width / 2
	for i, p := range pl {
		p = tr(p)
		addPolygon(z, circle(p, half))
		if i == 0 {
			continue
		}
		q := tr(pl[i-1])
		d := p.sub(q)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			continue
		}
		n := point{-d.Y / l * half, d.X / l * half}
		addPolygon(z, []point{q.add(n), p.add(n), p.sub(n), q.sub(n)})
	}
}

func circle(c point, r float64) []point {
	const sides = 12
	pts := make([]point, sides)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / sides
		pts[i] = point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return pts
}

func addPolygon(z *vector.Rasterizer, pts []point) {
	if len(pts) < 3 {
		return
	}
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}

// drawGrid draws the cell border and the dashed centre guides.
func drawGrid(dst *image.NRGBA, r image.Rectangle) {
	midX, midY := (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.SetNRGBA(x, r.Min.Y, gridColor)
		dst.SetNRGBA(x, r.Max.Y-1, gridColor)
		if (x-r.Min.X)%6 < 3 {
			dst.SetNRGBA(x, midY, guideColor)
		}
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.SetNRGBA(r.Min.X, y, gridColor)
		dst.SetNRGBA(r.Max.X-1, y, gridColor)
		if (y-r.Min.Y)%6 < 3 {
			dst.SetNRGBA(midX, y, guideColor)
		}
	}
}
