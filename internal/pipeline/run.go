package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/detect"
	"github.com/glyphtech/symscan/internal/feature"
	"github.com/glyphtech/symscan/internal/match"
	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/raster"
	"github.com/glyphtech/symscan/internal/timing"
)

// Stage identifies where a run currently is, for progress reporting.
type Stage string

const (
	StageInitialized Stage = "initialized"
	StageRasterizing Stage = "rasterizing"
	StageMatching    Stage = "matching"
	StageSuppressing Stage = "suppressing"
	StageAggregating Stage = "aggregating"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// Progress is a snapshot delivered to the run's progress callback.
type Progress struct {
	Stage      Stage `json:"stage"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	DonePages  int   `json:"done_pages"`
}

// ProgressFunc receives progress snapshots. Callbacks run on worker
// goroutines and must be safe for concurrent use.
type ProgressFunc func(Progress)

// CountSymbols searches every page of the document at pdfPath for the
// given templates. A page that fails is recorded in PageErrors and the
// run continues; the run as a whole fails only when the document cannot
// be opened at all or the context is canceled.
func (p *Pipeline) CountSymbols(ctx context.Context, pdfPath string, templates []Template, progress ProgressFunc) (*Result, error) {
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}
	doc, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	runTimer := timing.Start("count")

	total := doc.PageCount()
	report := func(st Stage, page, done int) {
		if progress != nil {
			progress(Progress{Stage: st, Page: page, TotalPages: total, DonePages: done})
		}
	}
	report(StageInitialized, 0, 0)

	type pageOut struct {
		index  int
		result PageResult
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
				pr, err := p.countPage(ctx, doc, idx, templates, report)
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

	res := &Result{
		File:      pdfPath,
		DPI:       p.cfg.DPI,
		Timestamp: time.Now().UTC(),
	}
	pages := make([]*PageResult, total)
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
			p.logger.Warn("page processing failed",
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

	report(StageAggregating, 0, done)
	for _, pr := range pages {
		if pr != nil {
			res.Pages = append(res.Pages, *pr)
		}
	}
	sort.Slice(res.Pages, func(i, j int) bool { return res.Pages[i].Page < res.Pages[j].Page })
	report(StageCompleted, 0, done)
	p.logger.Info("document processed",
		"file", pdfPath, "pages", total, "symbols", res.TotalCount(),
		"elapsed", runTimer.Stop())
	return res, nil
}

// countPage runs the full per-page flow: rasterize once, then match
// every template against it and aggregate the survivors.
func (p *Pipeline) countPage(ctx context.Context, doc *pdf.Document, pageIndex int, templates []Template, report func(Stage, int, int)) (PageResult, error) {
	if err := ctx.Err(); err != nil {
		return PageResult{}, err
	}
	pageTimer := timing.Start("page")
	report(StageRasterizing, pageIndex+1, 0)
	page, err := raster.Rasterize(doc, pageIndex, p.cfg.DPI)
	if err != nil {
		return PageResult{}, fmt.Errorf("rasterize: %w", err)
	}

	report(StageMatching, pageIndex+1, 0)
	var mlDets []detect.Detection
	if p.ml != nil {
		mlDets, err = p.ml.Detect(page.Gray)
		if err != nil {
			// The learned detector is advisory; log and continue with
			// the classical paths.
			p.logger.Warn("ml detection failed", "page", pageIndex+1, "error", err)
			mlDets = nil
		}
	}

	pr := PageResult{
		Page:        pageIndex + 1,
		ImageWidth:  page.Width(),
		ImageHeight: page.Height(),
	}
	opts := p.cfg.matchOptions()
	for _, tmpl := range templates {
		if err := ctx.Err(); err != nil {
			return PageResult{}, err
		}
		dets, err := match.Match(page.Gray, tmpl.Image, opts)
		if err != nil {
			return PageResult{}, fmt.Errorf("template %s: %w", tmpl.Name, err)
		}
		if len(dets) == 0 && p.cfg.UseFeatureFallback {
			if d, ok := feature.Match(page.Gray, tmpl.Image, p.cfg.MinFeatureMatches); ok {
				dets = append(dets, d)
			}
		}
		dets = append(dets, p.claimMLDetections(tmpl, dets, mlDets)...)

		report(StageSuppressing, pageIndex+1, 0)
		dets = detect.SuppressDetections(dets, p.cfg.NMSIoU)
		if len(dets) < p.cfg.MinCount {
			continue
		}
		pr.Symbols = append(pr.Symbols, p.aggregate(tmpl, dets))
	}
	p.logger.Debug("page processed",
		"page", pageIndex+1, "symbols", len(pr.Symbols), "elapsed", pageTimer.Stop())
	return pr, nil
}

// claimMLDetections assigns learned detections to a template when they
// overlap one of its classical detections. Unclaimed regions stay
// unattributed rather than being guessed onto a symbol.
func (p *Pipeline) claimMLDetections(tmpl Template, classical, mlDets []detect.Detection) []detect.Detection {
	if len(mlDets) == 0 || len(classical) == 0 {
		return nil
	}
	var claimed []detect.Detection
	for _, m := range mlDets {
		for _, c := range classical {
			if detect.IoU(m.Box, c.Box) > p.cfg.NMSIoU {
				claimed = append(claimed, m)
				break
			}
		}
	}
	return claimed
}

// aggregate converts raw detections into the reported symbol entry with
// blended confidences.
func (p *Pipeline) aggregate(tmpl Template, dets []detect.Detection) SymbolCount {
	sc := SymbolCount{Name: tmpl.Name}
	for _, d := range dets {
		sig := confidence.Signals{Source: tmpl.Source}
		score := d.Score
		switch d.Method {
		case detect.MethodTemplate:
			sig.Template = &score
		case detect.MethodFeature:
			sig.Feature = &score
		case detect.MethodML:
			sig.ML = &score
		}
		conf := confidence.Aggregate(sig, p.cfg.Weights)
		sc.Detections = append(sc.Detections, SymbolDetection{
			Box:        d.Box,
			Score:      d.Score,
			Method:     d.Method,
			Confidence: conf,
			Band:       p.cfg.Bands.Classify(conf),
		})
	}
	sc.Count = len(sc.Detections)
	return sc
}
