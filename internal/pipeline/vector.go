package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/raster"
	"github.com/glyphtech/symscan/internal/vector"
)

// ExtractVector clusters the drawn geometry of every page into symbol
// groups, labeling each group from nearby text. Failed pages are
// recorded and skipped.
func (p *Pipeline) ExtractVector(ctx context.Context, pdfPath string, progress ProgressFunc) (*VectorResult, error) {
	doc, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	total := doc.PageCount()
	report := func(st Stage, page, done int) {
		if progress != nil {
			progress(Progress{Stage: st, Page: page, TotalPages: total, DonePages: done})
		}
	}
	report(StageInitialized, 0, 0)

	type pageOut struct {
		index  int
		result VectorPageResult
		err    error
	}
	jobs := make(chan int)
	results := make(chan pageOut)
	var wg sync.WaitGroup

	workers := p.cfg.workers()
	if workers > total {
		workers = total
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				pr, err := p.extractVectorPage(ctx, doc, idx)
				select {
				case results <- pageOut{index: idx, result: pr, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := 0; i < total; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	res := &VectorResult{File: pdfPath, Timestamp: time.Now().UTC()}
	pages := make([]*VectorPageResult, total)
	done := 0
	for out := range results {
		done++
		if out.err != nil {
			if ctx.Err() != nil {
				report(StageFailed, out.index+1, done)
				return nil, ctx.Err()
			}
			if res.PageErrors == nil {
				res.PageErrors = make(map[int]string)
			}
			res.PageErrors[out.index+1] = out.err.Error()
			p.logger.Warn("vector extraction failed",
				"file", pdfPath, "page", out.index+1, "error", out.err)
			continue
		}
		pr := out.result
		pages[out.index] = &pr
	}
	if err := ctx.Err(); err != nil {
		report(StageFailed, 0, done)
		return nil, err
	}
	for _, pr := range pages {
		if pr != nil {
			res.Pages = append(res.Pages, *pr)
		}
	}
	sort.Slice(res.Pages, func(i, j int) bool { return res.Pages[i].Page < res.Pages[j].Page })
	report(StageCompleted, 0, done)
	return res, nil
}

func (p *Pipeline) extractVectorPage(ctx context.Context, doc *pdf.Document, pageIndex int) (VectorPageResult, error) {
	if err := ctx.Err(); err != nil {
		return VectorPageResult{}, err
	}
	w, h, err := doc.PageSize(pageIndex)
	if err != nil {
		return VectorPageResult{}, err
	}
	prims, err := doc.ExtractPrimitives(pageIndex)
	if err != nil {
		return VectorPageResult{}, fmt.Errorf("extract primitives: %w", err)
	}
	prims = vector.FilterPrimitives(prims, w, h, p.cfg.Filter)
	groups := vector.Groups(vector.Cluster(prims, p.cfg.Signature), p.cfg.MinCount)

	// Labels are best effort; a page without a text layer still counts.
	words, err := doc.ExtractWords(pageIndex)
	if err != nil {
		p.logger.Debug("text layer unavailable", "page", pageIndex+1, "error", err)
		words = nil
	}

	pr := VectorPageResult{Page: pageIndex + 1, PageWidth: w, PageHeight: h}
	for i, g := range groups {
		name := vector.NearestLabel(g, words, p.cfg.LabelMaxDistPts)
		if name == "" {
			name = fmt.Sprintf("symbol_%d", i+1)
		}
		g.Name = name
		pr.Symbols = append(pr.Symbols, VectorSymbol{
			Name:        name,
			Signature:   g.Signature,
			Count:       g.Count(),
			Occurrences: g.Occurrences,
		})
	}
	return pr, nil
}

// TemplateSource selects where discovered templates come from. The two
// strategies are alternatives, never merged implicitly.
type TemplateSource string

const (
	// TemplateSourceVector materializes templates from clustered page
	// geometry.
	TemplateSourceVector TemplateSource = "vector"
	// TemplateSourceRaster cuts templates out of rendered ink blobs.
	TemplateSourceRaster TemplateSource = "raster"
)

// DiscoverTemplates builds a template set from the document itself
// using the chosen strategy. pageIndex selects the page mined for
// exemplars.
func (p *Pipeline) DiscoverTemplates(ctx context.Context, pdfPath string, pageIndex int, src TemplateSource) ([]Template, error) {
	doc, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	switch src {
	case TemplateSourceVector:
		return p.vectorTemplates(ctx, doc, pageIndex)
	case TemplateSourceRaster:
		return p.rasterTemplates(ctx, doc, pageIndex)
	default:
		return nil, fmt.Errorf("unknown template source %q", src)
	}
}

func (p *Pipeline) vectorTemplates(ctx context.Context, doc *pdf.Document, pageIndex int) ([]Template, error) {
	w, h, err := doc.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	prims, err := doc.ExtractPrimitives(pageIndex)
	if err != nil {
		return nil, err
	}
	prims = vector.FilterPrimitives(prims, w, h, p.cfg.Filter)
	groups := vector.Groups(vector.Cluster(prims, p.cfg.Signature), p.cfg.MinCount)
	words, _ := doc.ExtractWords(pageIndex)

	var templates []Template
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := vector.MaterializeTemplate(doc, pageIndex, g, p.cfg.DPI)
		if err != nil {
			p.logger.Warn("template materialization failed",
				"page", pageIndex+1, "signature", g.Signature, "error", err)
			continue
		}
		name := vector.NearestLabel(g, words, p.cfg.LabelMaxDistPts)
		if name == "" {
			name = fmt.Sprintf("symbol_%d", i+1)
		}
		templates = append(templates, Template{
			Name:   name,
			Image:  r.Gray,
			Source: confidence.SourceVector,
		})
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: no symbol clusters on page %d", ErrNoTemplates, pageIndex+1)
	}
	return templates, nil
}

func (p *Pipeline) rasterTemplates(ctx context.Context, doc *pdf.Document, pageIndex int) ([]Template, error) {
	page, err := raster.Rasterize(doc, pageIndex, p.cfg.DPI)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	boxes := raster.ExtractPatches(page, p.cfg.Patch)
	var templates []Template
	for i, b := range boxes {
		patch := page.CropPatch(b)
		templates = append(templates, Template{
			Name:   fmt.Sprintf("patch_%d", i+1),
			Image:  patch.Gray,
			Source: confidence.SourceRaster,
		})
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: no ink regions on page %d", ErrNoTemplates, pageIndex+1)
	}
	return templates, nil
}
