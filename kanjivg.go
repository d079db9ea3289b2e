package kanjidrill

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// defaultViewBox is the coordinate space of every KanjiVG file.
var defaultViewBox = ViewBox{Width: 109, Height: 109}

// ViewBox is the SVG user coordinate system of an illustration.
type ViewBox struct {
	MinX, MinY    float64
	Width, Height float64
}

// Stroke is a single stroke path of an illustration.
type Stroke struct {
	ID   string
	Type string
	D    string
}

// StrokeNumber is the label drawn next to a stroke start.
type StrokeNumber struct {
	N    int
	X, Y float64
}

// Illustration is a parsed stroke-order illustration.
type Illustration struct {
	Char    Character
	ViewBox ViewBox
	Strokes []Stroke
	Numbers []StrokeNumber
	Raw     []byte
}

// StrokeCount returns the number of stroke paths.
func (ill *Illustration) StrokeCount() int {
	if ill == nil {
		return 0
	}
	return len(ill.Strokes)
}

// FileName returns the KanjiVG file name of c, e.g. 04e00.svg.
func FileName(c Character) string {
	return fmt.Sprintf("%05x.svg", rune(c))
}

// ParseKanjiVG decodes a KanjiVG SVG document.
func ParseKanjiVG(c Character, r io.Reader) (*Illustration, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read illustration: %w", err)
	}
	ill := &Illustration{
		Char:    c,
		ViewBox: defaultViewBox,
		Raw:     raw,
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false

	var (
		inText  bool
		textBuf strings.Builder
		textPos [2]float64
		sawSVG  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed illustration: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "svg":
				sawSVG = true
				if vb, ok := attr(t, "viewBox"); ok {
					if v, err := parseViewBox(vb); err == nil {
						ill.ViewBox = v
					}
				}
			case "path":
				d, ok := attr(t, "d")
				if !ok || strings.TrimSpace(d) == "" {
					continue
				}
				id, _ := attr(t, "id")
				typ, _ := attr(t, "type")
				ill.Strokes = append(ill.Strokes, Stroke{ID: id, Type: typ, D: d})
			case "text":
				inText = true
				textBuf.Reset()
				textPos = [2]float64{}
				if tr, ok := attr(t, "transform"); ok {
					if x, y, err := parseTranslate(tr); err == nil {
						textPos = [2]float64{x, y}
					}
				}
			}
		case xml.CharData:
			if inText {
				textBuf.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "text" && inText {
				inText = false
				n, err := strconv.Atoi(strings.TrimSpace(textBuf.String()))
				if err != nil {
					continue
				}
				ill.Numbers = append(ill.Numbers, StrokeNumber{N: n, X: textPos[0], Y: textPos[1]})
			}
		}
	}
	if !sawSVG {
		return nil, errors.New("malformed illustration: missing svg element")
	}
	return ill, nil
}

// attr returns the value of the attribute with the given local name, ignoring the namespace.
func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseViewBox(s string) (ViewBox, error) {
	f, err := parseFloats(s)
	if err != nil {
		return ViewBox{}, err
	}
	if len(f) != 4 || f[2] <= 0 || f[3] <= 0 {
		return ViewBox{}, fmt.Errorf("invalid viewBox %q", s)
	}
	return ViewBox{MinX: f[0], MinY: f[1], Width: f[2], Height: f[3]}, nil
}

// parseTranslate extracts the translation of a matrix(a b c d e f) or
// translate(x y) transform.
func parseTranslate(s string) (float64, float64, error) {
	s = strings.TrimSpace(s)
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return 0, 0, fmt.Errorf("invalid transform %q", s)
	}
	fn := strings.TrimSpace(s[:open])
	f, err := parseFloats(s[open+1 : end])
	if err != nil {
		return 0, 0, err
	}
	switch {
	case fn == "matrix" && len(f) == 6:
		return f[4], f[5], nil
	case fn == "translate" && len(f) == 2:
		return f[0], f[1], nil
	case fn == "translate" && len(f) == 1:
		return f[0], 0, nil
	}
	return 0, 0, fmt.Errorf("unsupported transform %q", s)
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
