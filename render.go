package kanjidrill

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/exp/slices"
)

// Renderer writes a practice sheet in some output format.
type Renderer interface {
	Render(w io.Writer, s *Sheet) error
}

var (
	_ Renderer = HTMLRenderer{}
	_ Renderer = RasterRenderer{}
)

// SupportedExtensions lists the output file extensions understood by NewRenderer.
var SupportedExtensions = []string{".html", ".htm", ".png", ".jpg", ".jpeg", ".bmp", ".gif"}

// NewRenderer picks the renderer matching the extension of name.
// An empty extension selects HTML, which is also what is written to pipes.
func NewRenderer(name string, s Settings) (Renderer, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" && !slices.Contains(SupportedExtensions, ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	switch ext {
	case "", ".html", ".htm":
		return HTMLRenderer{}, nil
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return RasterRenderer{DPI: s.DPI, Format: format}, nil
}
