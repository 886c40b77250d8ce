package raster

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/testutil"
	"github.com/glyphtech/symscan/internal/utils"
)

func writeRectPage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.pdf")
	testutil.WritePDF(t, path, testutil.Page{
		Width: 100, Height: 100,
		Content: testutil.RectContent([4]float64{25, 25, 50, 50}),
	})
	return path
}

func TestRasterize_Dimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.pdf")
	testutil.WritePDF(t, path, testutil.Page{Width: 100, Height: 50, Content: ""})

	doc, err := pdf.Open(path)
	require.NoError(t, err)

	r, err := Rasterize(doc, 0, 144)
	require.NoError(t, err)
	assert.Equal(t, 200, r.Width())
	assert.Equal(t, 100, r.Height())
	assert.Equal(t, 144.0, r.DPI)
	assert.Equal(t, utils.Point{}, r.Origin)
}

func TestRasterize_FilledRectProducesInk(t *testing.T) {
	doc, err := pdf.Open(writeRectPage(t))
	require.NoError(t, err)

	r, err := Rasterize(doc, 0, 144)
	require.NoError(t, err)

	// The rect covers user space (25,25)-(75,75); at scale 2 its center
	// lands on pixel (100,100).
	assert.Equal(t, uint8(0x00), r.Gray.GrayAt(100, 100).Y)
	// Corners of the page stay white.
	assert.Equal(t, uint8(0xff), r.Gray.GrayAt(5, 5).Y)
	assert.Equal(t, uint8(0xff), r.Gray.GrayAt(194, 194).Y)
}

func TestRasterize_Deterministic(t *testing.T) {
	doc, err := pdf.Open(writeRectPage(t))
	require.NoError(t, err)

	r1, err := Rasterize(doc, 0, 150)
	require.NoError(t, err)
	r2, err := Rasterize(doc, 0, 150)
	require.NoError(t, err)
	assert.Equal(t, r1.Gray.Pix, r2.Gray.Pix)
}

func TestRasterize_PageOutOfRange(t *testing.T) {
	doc, err := pdf.Open(writeRectPage(t))
	require.NoError(t, err)

	_, err = Rasterize(doc, 3, 150)
	assert.ErrorIs(t, err, pdf.ErrPageOutOfRange)
}

func TestRasterizeClip_OriginAndRoundTrip(t *testing.T) {
	doc, err := pdf.Open(writeRectPage(t))
	require.NoError(t, err)

	clip := utils.NewBox(25, 25, 75, 75)
	r, err := RasterizeClip(doc, 0, 144, clip, 10)
	require.NoError(t, err)

	assert.Equal(t, utils.Point{X: 15, Y: 15}, r.Origin)
	assert.Equal(t, 140, r.Width())
	assert.Equal(t, 140, r.Height())

	// A pixel box mapped back through the origin lands in page points.
	back := r.ToPageBox(utils.NewBox(0, 0, 140, 140))
	assert.InDelta(t, 15.0, back.MinX, 1e-9)
	assert.InDelta(t, 85.0, back.MaxX, 1e-9)

	// The clipped render still contains the symbol's ink.
	center := r.Gray.GrayAt(70, 70).Y
	assert.Equal(t, uint8(0x00), center)
}

func TestRasterizeClip_OutsidePage(t *testing.T) {
	doc, err := pdf.Open(writeRectPage(t))
	require.NoError(t, err)

	_, err = RasterizeClip(doc, 0, 144, utils.NewBox(500, 500, 600, 600), 0)
	assert.Error(t, err)
}

func TestFromImage_ConvertsToGray(t *testing.T) {
	img := testutil.NewWhiteGray(10, 8)
	testutil.FillRect(img, 2, 2, 3, 3, 0)

	r := FromImage(img, 0)
	assert.Equal(t, DefaultDPI, int(r.DPI))
	assert.Equal(t, 10, r.Width())
	assert.Equal(t, 8, r.Height())
	assert.Equal(t, uint8(0x00), r.Gray.GrayAt(3, 3).Y)
}
