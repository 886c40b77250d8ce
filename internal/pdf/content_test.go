package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtech/symscan/internal/utils"
)

func runInterpreter(content string, pageH float64) []Primitive {
	in := newPathInterpreter(pageH)
	in.run([]byte(content))
	return in.primitives
}

func TestInterpreter_FilledRect(t *testing.T) {
	prims := runInterpreter("100 650 40 30 re f", 792)
	require.Len(t, prims, 1)

	p := prims[0]
	assert.True(t, p.Filled)
	assert.False(t, p.Stroked)
	assert.Equal(t, []SegKind{SegRect}, p.Segments)
	// User-space y 650..680 flips to top-left 112..142.
	assert.Equal(t, utils.NewBox(100, 112, 140, 142), p.Rect)
}

func TestInterpreter_StrokedLine(t *testing.T) {
	prims := runInterpreter("0 0 m 100 50 l S", 100)
	require.Len(t, prims, 1)

	p := prims[0]
	assert.True(t, p.Stroked)
	assert.False(t, p.Filled)
	assert.Equal(t, []SegKind{SegMove, SegLine}, p.Segments)
	assert.Equal(t, utils.NewBox(0, 50, 100, 100), p.Rect)
}

func TestInterpreter_TransformScalesGeometryAndWidth(t *testing.T) {
	prims := runInterpreter("3 0 0 3 0 0 cm 2 w 10 10 m 20 10 l S", 300)
	require.Len(t, prims, 1)

	p := prims[0]
	assert.InDelta(t, 6.0, p.StrokeWidth, 1e-9)
	assert.Equal(t, utils.NewBox(30, 270, 60, 270), p.Rect)
}

func TestInterpreter_SaveRestoreState(t *testing.T) {
	prims := runInterpreter("q 2 0 0 2 0 0 cm Q 10 10 20 20 re f", 100)
	require.Len(t, prims, 1)
	assert.Equal(t, utils.NewBox(10, 70, 30, 90), prims[0].Rect)
}

func TestInterpreter_SkipsTextObjects(t *testing.T) {
	content := "BT /F1 12 Tf 1 0 0 1 50 50 Tm (10 10 40 40 re f) Tj ET 10 10 5 5 re f"
	prims := runInterpreter(content, 100)
	require.Len(t, prims, 1)
	assert.InDelta(t, 5.0, prims[0].Width(), 1e-9)
}

func TestInterpreter_SkipsInlineImages(t *testing.T) {
	content := "BI /W 2 /H 2 /BPC 8 ID \x00\x01\x02\x03 EI 0 0 m 10 0 l S"
	prims := runInterpreter(content, 50)
	require.Len(t, prims, 1)
	assert.Equal(t, []SegKind{SegMove, SegLine}, prims[0].Segments)
}

func TestInterpreter_NoPaintDropsPath(t *testing.T) {
	assert.Empty(t, runInterpreter("10 10 20 20 re n", 100))
	assert.Empty(t, runInterpreter("10 10 20 20 re W n 5 5 m", 100))
}

func TestInterpreter_CurveIncludesControlPoints(t *testing.T) {
	// Bounding boxes include curve control points, matching how the
	// signature treats identical curves as identical shapes.
	prims := runInterpreter("0 0 m 10 40 30 40 40 0 c S", 100)
	require.Len(t, prims, 1)
	assert.Equal(t, []SegKind{SegMove, SegCurve}, prims[0].Segments)
	assert.InDelta(t, 40.0, prims[0].Width(), 1e-9)
}

func TestInterpreter_CloseFillProducesClosedSubpath(t *testing.T) {
	prims := runInterpreter("0 0 m 40 0 l 20 30 l h f", 100)
	require.Len(t, prims, 1)

	p := prims[0]
	require.Len(t, p.Subpaths, 1)
	sp := p.Subpaths[0]
	assert.Equal(t, sp[0], sp[len(sp)-1], "closed subpath repeats its first point")
	assert.Equal(t, []SegKind{SegMove, SegLine, SegLine, SegClose}, p.Segments)
}

func TestLexer_Tokens(t *testing.T) {
	lx := newLexer([]byte("1 .5 -3 re % trailing comment\n/Name (lit (nested)) <AB12> [1 2] << /K (v) >> f*"))

	var kinds []tokenKind
	var nums []float64
	var ops []string
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		kinds = append(kinds, tok.kind)
		switch tok.kind {
		case tokNumber:
			nums = append(nums, tok.num)
		case tokOperator:
			ops = append(ops, tok.text)
		}
	}

	assert.Equal(t, []tokenKind{
		tokNumber, tokNumber, tokNumber, tokOperator,
		tokName, tokString, tokString, tokArray, tokDict, tokOperator,
	}, kinds)
	assert.Equal(t, []float64{1, 0.5, -3}, nums)
	assert.Equal(t, []string{"re", "f*"}, ops)
}
