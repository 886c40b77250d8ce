package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/testutil"
)

// twoSquaresPDF writes a page carrying two identical filled squares.
func twoSquaresPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "squares.pdf")
	testutil.WritePDF(t, path, testutil.Page{
		Width: 300, Height: 300,
		Content: testutil.RectContent(
			[4]float64{40, 200, 50, 50},
			[4]float64{200, 100, 50, 50},
		),
	})
	return path
}

// fastPipeline keeps the sweep minimal so tests stay quick.
func fastPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewBuilder().
		WithDPI(72).
		WithThreshold(0.8).
		WithScales([]float64{1.0}).
		WithRotations([]float64{0}).
		WithWorkers(1).
		WithFeatureFallback(false).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestCountSymbols_FindsRepeatedSymbol(t *testing.T) {
	path := twoSquaresPDF(t)
	p := fastPipeline(t)

	templates, err := p.DiscoverTemplates(context.Background(), path, 0, TemplateSourceVector)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, confidence.SourceVector, templates[0].Source)

	var mu sync.Mutex
	var stages []Stage
	progress := func(pr Progress) {
		mu.Lock()
		stages = append(stages, pr.Stage)
		mu.Unlock()
	}

	res, err := p.CountSymbols(context.Background(), path, templates, progress)
	require.NoError(t, err)

	assert.Equal(t, path, res.File)
	assert.Empty(t, res.PageErrors)
	require.Len(t, res.Pages, 1)

	page := res.Pages[0]
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 300, page.ImageWidth)
	assert.Equal(t, 300, page.ImageHeight)
	require.Len(t, page.Symbols, 1)
	assert.Equal(t, 2, page.Symbols[0].Count)
	assert.Equal(t, 2, res.TotalCount())

	for _, d := range page.Symbols[0].Detections {
		assert.GreaterOrEqual(t, d.Score, 0.8)
		assert.Greater(t, d.Confidence, 0.0)
		assert.NotEmpty(t, d.Band)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, stages)
	assert.Equal(t, StageInitialized, stages[0])
	assert.Equal(t, StageCompleted, stages[len(stages)-1])
}

func TestCountSymbols_NoTemplates(t *testing.T) {
	p := fastPipeline(t)
	_, err := p.CountSymbols(context.Background(), "whatever.pdf", nil, nil)
	assert.ErrorIs(t, err, ErrNoTemplates)
}

func TestCountSymbols_UnreadableDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	testutil.WriteCorruptPDF(t, path)

	p := fastPipeline(t)
	tmpl := NewTemplate("dummy", testutil.NewWhiteGray(20, 20), confidence.SourceRaster)
	_, err := p.CountSymbols(context.Background(), path, []Template{tmpl}, nil)
	assert.ErrorIs(t, err, pdf.ErrUnreadableDocument)
}

func TestCountSymbols_CanceledContext(t *testing.T) {
	path := twoSquaresPDF(t)
	p := fastPipeline(t)
	tmpl := NewTemplate("dummy", testutil.NewWhiteGray(20, 20), confidence.SourceRaster)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.CountSymbols(ctx, path, []Template{tmpl}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverTemplates_RasterSource(t *testing.T) {
	path := twoSquaresPDF(t)
	p := fastPipeline(t)

	templates, err := p.DiscoverTemplates(context.Background(), path, 0, TemplateSourceRaster)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "patch_1", templates[0].Name)
	assert.Equal(t, confidence.SourceRaster, templates[0].Source)
}

func TestDiscoverTemplates_UnknownSource(t *testing.T) {
	path := twoSquaresPDF(t)
	p := fastPipeline(t)

	_, err := p.DiscoverTemplates(context.Background(), path, 0, TemplateSource("ocr"))
	assert.Error(t, err)
}

func TestDiscoverTemplates_EmptyPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.pdf")
	testutil.WritePDF(t, path, testutil.Page{Width: 200, Height: 200, Content: ""})

	p := fastPipeline(t)
	_, err := p.DiscoverTemplates(context.Background(), path, 0, TemplateSourceVector)
	assert.ErrorIs(t, err, ErrNoTemplates)
}

func TestExtractVector_ClustersAndNames(t *testing.T) {
	path := twoSquaresPDF(t)
	p := fastPipeline(t)

	res, err := p.ExtractVector(context.Background(), path, nil)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)

	page := res.Pages[0]
	assert.Equal(t, 1, page.Page)
	assert.InDelta(t, 300.0, page.PageWidth, 1e-9)
	require.Len(t, page.Symbols, 1)

	sym := page.Symbols[0]
	assert.Equal(t, 2, sym.Count)
	assert.Len(t, sym.Occurrences, 2)
	// No text layer, so the group gets a synthetic name.
	assert.Equal(t, "symbol_1", sym.Name)
	assert.NotEmpty(t, sym.Signature)
}
