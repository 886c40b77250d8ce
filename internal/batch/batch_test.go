package batch

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/pipeline"
	"github.com/glyphtech/symscan/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// squaresPDF writes a one-page drawing with two identical squares.
func squaresPDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testutil.WritePDF(t, path, testutil.Page{
		Width: 300, Height: 300,
		Content: testutil.RectContent(
			[4]float64{40, 200, 50, 50},
			[4]float64{200, 100, 50, 50},
		),
	})
	return path
}

func squareTemplate(t *testing.T) pipeline.Template {
	t.Helper()
	// White margin keeps the template from being a flat patch, which
	// normalized correlation cannot score.
	img := testutil.NewWhiteGray(70, 70)
	testutil.FillRect(img, 10, 10, 50, 50, 0)
	return pipeline.Template{Name: "square", Image: img, Source: confidence.SourceRaster}
}

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.NewBuilder().
		WithDPI(72).
		WithThreshold(0.8).
		WithScales([]float64{1.0}).
		WithRotations([]float64{0}).
		WithWorkers(1).
		WithFeatureFallback(false).
		WithLogger(discardLogger()).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestRun_CountsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := squaresPDF(t, dir, "a.pdf")
	b := squaresPDF(t, dir, "b.pdf")
	pl := testPipeline(t)

	res, err := Run(context.Background(), pl, []pipeline.Template{squareTemplate(t)},
		[]string{a, b}, Config{Workers: 2}, discardLogger())
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, a, res.Files[0].Path)
	assert.Equal(t, b, res.Files[1].Path)
	assert.Equal(t, 4, res.TotalCount())
	assert.Zero(t, res.Failed())
	assert.Positive(t, res.Duration)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	dir := t.TempDir()
	good := squaresPDF(t, dir, "good.pdf")
	bad := filepath.Join(dir, "bad.pdf")
	testutil.WriteCorruptPDF(t, bad)
	pl := testPipeline(t)

	_, err := Run(context.Background(), pl, []pipeline.Template{squareTemplate(t)},
		[]string{bad, good}, Config{}, discardLogger())
	assert.Error(t, err)
}

func TestRun_ContinueOnError(t *testing.T) {
	dir := t.TempDir()
	good := squaresPDF(t, dir, "good.pdf")
	bad := filepath.Join(dir, "bad.pdf")
	testutil.WriteCorruptPDF(t, bad)
	pl := testPipeline(t)

	res, err := Run(context.Background(), pl, []pipeline.Template{squareTemplate(t)},
		[]string{bad, good}, Config{ContinueOnError: true}, discardLogger())
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, 1, res.Failed())
	assert.NotEmpty(t, res.Files[0].Error)
	require.NotNil(t, res.Files[1].Result)
	assert.Equal(t, 2, res.Files[1].Result.TotalCount())
}

func TestRun_NoFiles(t *testing.T) {
	pl := testPipeline(t)
	_, err := Run(context.Background(), pl, []pipeline.Template{squareTemplate(t)}, nil, Config{}, discardLogger())
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestRun_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	a := squaresPDF(t, dir, "a.pdf")
	pl := testPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, pl, []pipeline.Template{squareTemplate(t)}, []string{a}, Config{}, discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
}
