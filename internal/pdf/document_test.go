package pdf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtech/symscan/internal/testutil"
)

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	testutil.WriteCorruptPDF(t, path)

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestDocument_PageGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.pdf")
	testutil.WritePDF(t, path,
		testutil.Page{Width: 612, Height: 792, Content: testutil.RectContent([4]float64{10, 10, 50, 50})},
		testutil.Page{Width: 841.89, Height: 595.28, Content: ""},
	)

	doc, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path())
	assert.Equal(t, 2, doc.PageCount())

	w, h, err := doc.PageSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 612.0, w, 0.01)
	assert.InDelta(t, 792.0, h, 0.01)

	w, h, err = doc.PageSize(1)
	require.NoError(t, err)
	assert.InDelta(t, 841.89, w, 0.01)
	assert.InDelta(t, 595.28, h, 0.01)

	box, err := doc.PageBox(0)
	require.NoError(t, err)
	assert.InDelta(t, 612.0, box.Width(), 0.01)
	assert.InDelta(t, 792.0, box.Height(), 0.01)

	_, _, err = doc.PageSize(2)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, _, err = doc.PageSize(-1)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestDocument_ExtractPrimitives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rect.pdf")
	testutil.WritePDF(t, path, testutil.Page{
		Width: 612, Height: 792,
		Content: testutil.RectContent([4]float64{100, 200, 40, 30}),
	})

	doc, err := Open(path)
	require.NoError(t, err)

	prims, err := doc.ExtractPrimitives(0)
	require.NoError(t, err)
	require.Len(t, prims, 1)

	p := prims[0]
	assert.True(t, p.Filled)
	assert.Equal(t, []SegKind{SegRect}, p.Segments)
	assert.InDelta(t, 100.0, p.Rect.MinX, 0.01)
	assert.InDelta(t, 140.0, p.Rect.MaxX, 0.01)
	// Bottom-left y 200..230 becomes top-left 562..592.
	assert.InDelta(t, 562.0, p.Rect.MinY, 0.01)
	assert.InDelta(t, 592.0, p.Rect.MaxY, 0.01)

	_, err = doc.ExtractPrimitives(5)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestDocument_ExtractPrimitives_EmptyPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	testutil.WritePDF(t, path, testutil.Page{Width: 200, Height: 200, Content: ""})

	doc, err := Open(path)
	require.NoError(t, err)

	prims, err := doc.ExtractPrimitives(0)
	require.NoError(t, err)
	assert.Empty(t, prims)
}
