package pdf

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/glyphtech/symscan/internal/utils"
)

// Document provides read access to a PDF file: page geometry, vector
// content and the text layer. It is safe for concurrent page reads since
// all accessors operate on the immutable parsed context.
type Document struct {
	path      string
	ctx       *model.Context
	pageCount int
	dims      []pageDim
}

type pageDim struct {
	width  float64
	height float64
}

// Open parses the PDF at path. It returns ErrUnreadableDocument (wrapped
// with the underlying cause) if the file cannot be read or is not a valid
// PDF.
func Open(path string) (*Document, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, path, err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, path, err)
	}

	doc := &Document{
		path:      path,
		ctx:       ctx,
		pageCount: ctx.PageCount,
		dims:      make([]pageDim, len(dims)),
	}
	for i, d := range dims {
		doc.dims[i] = pageDim{width: d.Width, height: d.Height}
	}
	return doc, nil
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pageCount }

// PageSize returns the width and height of a page in PDF points.
// pageIndex is 0-based.
func (d *Document) PageSize(pageIndex int) (float64, float64, error) {
	if pageIndex < 0 || pageIndex >= d.pageCount {
		return 0, 0, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageIndex, d.pageCount)
	}
	if pageIndex >= len(d.dims) {
		return 0, 0, fmt.Errorf("%w: no dimensions for page %d", ErrPageOutOfRange, pageIndex)
	}
	dim := d.dims[pageIndex]
	return dim.width, dim.height, nil
}

// ExtractPrimitives reads the page's vector drawing operations without
// rasterizing and returns one Primitive per painted path. Text blocks and
// inline images are skipped. pageIndex is 0-based.
func (d *Document) ExtractPrimitives(pageIndex int) ([]Primitive, error) {
	if pageIndex < 0 || pageIndex >= d.pageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageIndex, d.pageCount)
	}

	r, err := pdfcpu.ExtractPageContent(d.ctx, pageIndex+1)
	if err != nil {
		return nil, fmt.Errorf("extract content for page %d: %w", pageIndex, err)
	}
	if r == nil {
		return nil, nil
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read content for page %d: %w", pageIndex, err)
	}

	_, pageH, err := d.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}

	interp := newPathInterpreter(pageH)
	interp.run(content)
	return interp.primitives, nil
}

// PageBox returns the full page box in top-left origin coordinates.
func (d *Document) PageBox(pageIndex int) (utils.Box, error) {
	w, h, err := d.PageSize(pageIndex)
	if err != nil {
		return utils.Box{}, err
	}
	return utils.NewBox(0, 0, w, h), nil
}
