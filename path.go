package kanjidrill

import (
	"fmt"
	"strconv"
)

// curveSteps is the number of line segments a bezier curve is flattened into.
const curveSteps = 16

type point struct {
	X, Y float64
}

func (p point) add(q point) point         { return point{p.X + q.X, p.Y + q.Y} }
func (p point) sub(q point) point         { return point{p.X - q.X, p.Y - q.Y} }
func (p point) scale(f float64) point     { return point{p.X * f, p.Y * f} }
func (p point) reflect(about point) point { return about.add(about.sub(p)) }

// polyline is a flattened subpath.
type polyline []point

// parsePath parses SVG path data and flattens it into polylines.
// Elliptical arcs are not supported; KanjiVG never uses them.
func parsePath(d string) ([]polyline, error) {
	var (
		lx       = pathLexer{s: d}
		out      []polyline
		cur      polyline
		pos      point
		start    point
		ctrl     point // last cubic control point, for S
		qctrl    point // last quadratic control point, for T
		cmd      byte
		prev     byte
		hasPoint bool
	)
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	lineTo := func(p point) {
		if len(cur) == 0 {
			cur = append(cur, pos)
		}
		cur = append(cur, p)
		pos = p
	}

	for {
		lx.skipSep()
		if lx.done() {
			break
		}
		if c, ok := lx.command(); ok {
			cmd = c
		} else if cmd == 0 {
			return nil, fmt.Errorf("expected a command at offset %d in %q", lx.i, d)
		}
		rel := cmd >= 'a' && cmd <= 'z'
		abs := func(p point) point {
			if rel {
				return pos.add(p)
			}
			return p
		}

		switch cmd {
		case 'M', 'm':
			p, err := lx.pair()
			if err != nil {
				return nil, err
			}
			flush()
			if rel && hasPoint {
				p = pos.add(p)
			}
			pos, start = p, p
			cur = polyline{p}
			hasPoint = true
			// Subsequent pairs are implicit line commands.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			p, err := lx.pair()
			if err != nil {
				return nil, err
			}
			lineTo(abs(p))
		case 'H', 'h':
			x, err := lx.number()
			if err != nil {
				return nil, err
			}
			if rel {
				x += pos.X
			}
			lineTo(point{x, pos.Y})
		case 'V', 'v':
			y, err := lx.number()
			if err != nil {
				return nil, err
			}
			if rel {
				y += pos.Y
			}
			lineTo(point{pos.X, y})
		case 'C', 'c', 'S', 's':
			var c1 point
			if cmd == 'C' || cmd == 'c' {
				p, err := lx.pair()
				if err != nil {
					return nil, err
				}
				c1 = abs(p)
			} else {
				c1 = pos
				if isCubic(prev) {
					c1 = ctrl.reflect(pos)
				}
			}
			p2, err := lx.pair()
			if err != nil {
				return nil, err
			}
			p3, err := lx.pair()
			if err != nil {
				return nil, err
			}
			c2, end := abs(p2), abs(p3)
			p0 := pos
			for i := 1; i <= curveSteps; i++ {
				lineTo(cubicAt(p0, c1, c2, end, float64(i)/curveSteps))
			}
			ctrl = c2
		case 'Q', 'q', 'T', 't':
			var c1 point
			if cmd == 'Q' || cmd == 'q' {
				p, err := lx.pair()
				if err != nil {
					return nil, err
				}
				c1 = abs(p)
			} else {
				c1 = pos
				if isQuad(prev) {
					c1 = qctrl.reflect(pos)
				}
			}
			p2, err := lx.pair()
			if err != nil {
				return nil, err
			}
			end := abs(p2)
			p0 := pos
			for i := 1; i <= curveSteps; i++ {
				lineTo(quadAt(p0, c1, end, float64(i)/curveSteps))
			}
			qctrl = c1
		case 'Z', 'z':
			if len(cur) > 0 {
				lineTo(start)
			}
			flush()
			pos = start
		default:
			return nil, fmt.Errorf("unsupported path command %q", cmd)
		}
		prev = cmd
		// Closepath takes no arguments: the next token must be a command.
		if cmd == 'Z' || cmd == 'z' {
			cmd = 0
		}
	}
	flush()
	return out, nil
}

func isCubic(c byte) bool { return c == 'C' || c == 'c' || c == 'S' || c == 's' }
func isQuad(c byte) bool  { return c == 'Q' || c == 'q' || c == 'T' || c == 't' }

func cubicAt(p0, p1, p2, p3 point, t float64) point {
	mt := 1 - t
	return p0.scale(mt * mt * mt).
		add(p1.scale(3 * mt * mt * t)).
		add(p2.scale(3 * mt * t * t)).
		add(p3.scale(t * t * t))
}

func quadAt(p0, p1, p2 point, t float64) point {
	mt := 1 - t
	return p0.scale(mt * mt).add(p1.scale(2 * mt * t)).add(p2.scale(t * t))
}

// pathLexer splits SVG path data into commands and numbers.
type pathLexer struct {
	s string
	i int
}

func (l *pathLexer) done() bool { return l.i >= len(l.s) }

func (l *pathLexer) skipSep() {
	for l.i < len(l.s) {
		switch l.s[l.i] {
		case ' ', ',', '\t', '\n', '\r', '\f':
			l.i++
		default:
			return
		}
	}
}

func (l *pathLexer) command() (byte, bool) {
	c := l.s[l.i]
	if (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') && c != 'e' && c != 'E' {
		l.i++
		return c, true
	}
	return 0, false
}

func (l *pathLexer) pair() (point, error) {
	x, err := l.number()
	if err != nil {
		return point{}, err
	}
	y, err := l.number()
	if err != nil {
		return point{}, err
	}
	return point{x, y}, nil
}

func (l *pathLexer) number() (float64, error) {
	l.skipSep()
	start := l.i
	if l.i < len(l.s) && (l.s[l.i] == '+' || l.s[l.i] == '-') {
		l.i++
	}
	digits := l.digits()
	if l.i < len(l.s) && l.s[l.i] == '.' {
		l.i++
		digits += l.digits()
	}
	if digits == 0 {
		l.i = start
		return 0, fmt.Errorf("expected number at offset %d in %q", start, l.s)
	}
	if l.i < len(l.s) && (l.s[l.i] == 'e' || l.s[l.i] == 'E') {
		mark := l.i
		l.i++
		if l.i < len(l.s) && (l.s[l.i] == '+' || l.s[l.i] == '-') {
			l.i++
		}
		if l.digits() == 0 {
			l.i = mark
		}
	}
	return strconv.ParseFloat(l.s[start:l.i], 64)
}

func (l *pathLexer) digits() int {
	n := 0
	for l.i < len(l.s) && l.s[l.i] >= '0' && l.s[l.i] <= '9' {
		l.i++
		n++
	}
	return n
}
