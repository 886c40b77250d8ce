package pdf

import (
	"math"

	"github.com/glyphtech/symscan/internal/utils"
)

// matrix is a PDF transformation matrix [a b c d e f].
type matrix struct {
	a, b, c, d, e, f float64
}

func identityMatrix() matrix { return matrix{a: 1, d: 1} }

// mul returns m applied before n, i.e. the matrix mapping p -> n(m(p)).
func (m matrix) mul(n matrix) matrix {
	return matrix{
		a: m.a*n.a + m.b*n.c,
		b: m.a*n.b + m.b*n.d,
		c: m.c*n.a + m.d*n.c,
		d: m.c*n.b + m.d*n.d,
		e: m.e*n.a + m.f*n.c + n.e,
		f: m.e*n.b + m.f*n.d + n.f,
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

// scaleFactor approximates the uniform scale the matrix applies, used to
// transform line widths into device space.
func (m matrix) scaleFactor() float64 {
	det := math.Abs(m.a*m.d - m.b*m.c)
	if det <= 0 {
		return 1
	}
	return math.Sqrt(det)
}

type graphicsState struct {
	ctm       matrix
	lineWidth float64
}

// curveSteps controls the flattening resolution for Bézier segments.
// Fixed so that identical content always yields identical geometry.
const curveSteps = 8

// pathInterpreter executes the subset of content-stream operators needed to
// recover painted vector paths. Text objects (BT..ET) and inline images
// (BI..EI) are skipped entirely; color, clipping and XObject operators only
// consume their operands.
type pathInterpreter struct {
	pageHeight float64

	gs      graphicsState
	gsStack []graphicsState
	stack   []float64

	subpaths  [][]utils.Point
	segments  []SegKind
	current   utils.Point
	start     utils.Point
	havePoint bool

	primitives []Primitive
}

func newPathInterpreter(pageHeight float64) *pathInterpreter {
	return &pathInterpreter{
		pageHeight: pageHeight,
		gs:         graphicsState{ctm: identityMatrix(), lineWidth: 1.0},
	}
}

// device maps a user-space coordinate through the CTM and flips the y axis
// so that the origin sits at the top-left page corner.
func (in *pathInterpreter) device(x, y float64) utils.Point {
	dx, dy := in.gs.ctm.apply(x, y)
	return utils.Point{X: dx, Y: in.pageHeight - dy}
}

func (in *pathInterpreter) run(content []byte) {
	lx := newLexer(content)
	for {
		tok, ok := lx.next()
		if !ok {
			return
		}
		switch tok.kind {
		case tokNumber:
			in.stack = append(in.stack, tok.num)
		case tokOperator:
			in.exec(tok.text, lx)
		default:
			// Names, strings, arrays and dicts are operands we never
			// consume; they simply invalidate the numeric stack.
		}
	}
}

// operands pops the last n numeric operands, padding with zeros when the
// stream is malformed.
func (in *pathInterpreter) operands(n int) []float64 {
	out := make([]float64, n)
	m := len(in.stack)
	for i := range n {
		j := m - n + i
		if j >= 0 {
			out[i] = in.stack[j]
		}
	}
	return out
}

func (in *pathInterpreter) clearStack() { in.stack = in.stack[:0] }

func (in *pathInterpreter) exec(op string, lx *lexer) {
	defer in.clearStack()

	switch op {
	case "q":
		in.gsStack = append(in.gsStack, in.gs)
	case "Q":
		if n := len(in.gsStack); n > 0 {
			in.gs = in.gsStack[n-1]
			in.gsStack = in.gsStack[:n-1]
		}
	case "cm":
		v := in.operands(6)
		m := matrix{a: v[0], b: v[1], c: v[2], d: v[3], e: v[4], f: v[5]}
		in.gs.ctm = m.mul(in.gs.ctm)
	case "w":
		v := in.operands(1)
		in.gs.lineWidth = v[0]
	case "m":
		v := in.operands(2)
		in.moveTo(in.device(v[0], v[1]))
	case "l":
		v := in.operands(2)
		in.lineTo(in.device(v[0], v[1]))
	case "c":
		v := in.operands(6)
		in.curveTo(in.device(v[0], v[1]), in.device(v[2], v[3]), in.device(v[4], v[5]))
	case "v":
		v := in.operands(4)
		in.curveTo(in.current, in.device(v[0], v[1]), in.device(v[2], v[3]))
	case "y":
		v := in.operands(4)
		end := in.device(v[2], v[3])
		in.curveTo(in.device(v[0], v[1]), end, end)
	case "h":
		in.closeSubpath()
	case "re":
		v := in.operands(4)
		in.rectTo(v[0], v[1], v[2], v[3])
	case "S":
		in.paint(false, true, false)
	case "s":
		in.paint(false, true, true)
	case "f", "F", "f*":
		in.paint(true, false, true)
	case "B", "B*":
		in.paint(true, true, false)
	case "b", "b*":
		in.paint(true, true, true)
	case "n":
		in.dropPath()
	case "BT":
		lx.skipUntilOperator("ET")
	case "BI":
		lx.skipInlineImage()
	default:
		// Color, clipping, state and XObject operators: operands already
		// consumed by the deferred stack clear.
	}
}

func (in *pathInterpreter) moveTo(p utils.Point) {
	in.subpaths = append(in.subpaths, []utils.Point{p})
	in.segments = append(in.segments, SegMove)
	in.current = p
	in.start = p
	in.havePoint = true
}

func (in *pathInterpreter) lineTo(p utils.Point) {
	if !in.havePoint {
		in.moveTo(p)
		return
	}
	last := len(in.subpaths) - 1
	in.subpaths[last] = append(in.subpaths[last], p)
	in.segments = append(in.segments, SegLine)
	in.current = p
}

func (in *pathInterpreter) curveTo(c1, c2, end utils.Point) {
	if !in.havePoint {
		in.moveTo(end)
		return
	}
	last := len(in.subpaths) - 1
	p0 := in.current
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		in.subpaths[last] = append(in.subpaths[last], cubicAt(p0, c1, c2, end, t))
	}
	in.segments = append(in.segments, SegCurve)
	in.current = end
}

func (in *pathInterpreter) closeSubpath() {
	if !in.havePoint || len(in.subpaths) == 0 {
		return
	}
	last := len(in.subpaths) - 1
	if len(in.subpaths[last]) > 1 {
		in.subpaths[last] = append(in.subpaths[last], in.start)
	}
	in.segments = append(in.segments, SegClose)
	in.current = in.start
}

func (in *pathInterpreter) rectTo(x, y, w, h float64) {
	p0 := in.device(x, y)
	p1 := in.device(x+w, y)
	p2 := in.device(x+w, y+h)
	p3 := in.device(x, y+h)
	in.subpaths = append(in.subpaths, []utils.Point{p0, p1, p2, p3, p0})
	in.segments = append(in.segments, SegRect)
	in.current = p0
	in.start = p0
	in.havePoint = true
}

func (in *pathInterpreter) dropPath() {
	in.subpaths = nil
	in.segments = nil
	in.havePoint = false
}

func (in *pathInterpreter) paint(filled, stroked, closePath bool) {
	if closePath && stroked {
		in.closeSubpath()
	}
	if len(in.subpaths) == 0 {
		in.dropPath()
		return
	}

	var pts []utils.Point
	for _, sp := range in.subpaths {
		pts = append(pts, sp...)
	}
	if len(pts) == 0 {
		in.dropPath()
		return
	}

	prim := Primitive{
		Rect:        utils.BoundingBox(pts),
		Segments:    in.segments,
		Subpaths:    in.subpaths,
		StrokeWidth: in.gs.lineWidth * in.gs.ctm.scaleFactor(),
		Filled:      filled,
		Stroked:     stroked,
	}
	in.primitives = append(in.primitives, prim)

	in.subpaths = nil
	in.segments = nil
	in.havePoint = false
}

func cubicAt(p0, c1, c2, p3 utils.Point, t float64) utils.Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return utils.Point{
		X: b0*p0.X + b1*c1.X + b2*c2.X + b3*p3.X,
		Y: b0*p0.Y + b1*c1.Y + b2*c2.Y + b3*p3.Y,
	}
}
