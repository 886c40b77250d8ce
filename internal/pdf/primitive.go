package pdf

import "github.com/glyphtech/symscan/internal/utils"

// SegKind identifies one path-construction operation inside a primitive.
type SegKind byte

const (
	SegMove  SegKind = 'm'
	SegLine  SegKind = 'l'
	SegCurve SegKind = 'c'
	SegRect  SegKind = 'r'
	SegClose SegKind = 'h'
)

// Primitive is a single painted vector path extracted from a page content
// stream. Coordinates are PDF points with the origin at the top-left corner
// of the page. Primitives are derived per page and never mutated.
type Primitive struct {
	// Rect is the axis-aligned bounding box of the path (control points
	// of curves included).
	Rect utils.Box

	// Segments is the ordered sequence of path-operation kinds.
	Segments []SegKind

	// Subpaths holds the flattened geometry (curves approximated by line
	// segments) used for rasterization. Subpaths painted closed repeat
	// their first point at the end.
	Subpaths [][]utils.Point

	// StrokeWidth is the line width in effect when the path was painted,
	// already scaled by the current transformation matrix.
	StrokeWidth float64

	Filled  bool
	Stroked bool
}

// SegString returns the segment-type sequence as a compact string,
// e.g. "mllllh" for a closed polyline.
func (p Primitive) SegString() string {
	b := make([]byte, len(p.Segments))
	for i, s := range p.Segments {
		b[i] = byte(s)
	}
	return string(b)
}

// Width returns the bounding-box width in points.
func (p Primitive) Width() float64 { return p.Rect.Width() }

// Height returns the bounding-box height in points.
func (p Primitive) Height() float64 { return p.Rect.Height() }

// Area returns the bounding-box area in square points.
func (p Primitive) Area() float64 { return p.Rect.Area() }
