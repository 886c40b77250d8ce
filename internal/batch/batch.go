// Package batch counts symbols across many PDF drawings in one run,
// fanning files out to a worker pool and collecting per-file results.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/glyphtech/symscan/internal/pipeline"
	"github.com/glyphtech/symscan/internal/timing"
)

// ErrNoFiles is returned when discovery yields nothing to process.
var ErrNoFiles = errors.New("batch: no PDF files found")

// Config controls a batch run.
type Config struct {
	// Recursive descends into subdirectories during discovery.
	Recursive bool
	// IncludePatterns restricts discovery to matching base names.
	// Empty means every PDF.
	IncludePatterns []string
	// ExcludePatterns drops matching base names.
	ExcludePatterns []string
	// Workers is the number of files processed concurrently. Zero
	// means one.
	Workers int
	// ContinueOnError records a failed file and moves on instead of
	// aborting the batch.
	ContinueOnError bool
}

// FileResult pairs one input file with its outcome. Exactly one of
// Result and Error is meaningful.
type FileResult struct {
	Path   string           `json:"file"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Result is the outcome of a whole batch.
type Result struct {
	Files    []FileResult  `json:"files"`
	Duration time.Duration `json:"duration_ns"`
}

// TotalCount sums symbol occurrences across all successful files.
func (r *Result) TotalCount() int {
	total := 0
	for _, f := range r.Files {
		if f.Result != nil {
			total += f.Result.TotalCount()
		}
	}
	return total
}

// Failed counts files that produced an error.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}

// Run counts templates in every file using the given pipeline. Results
// keep the order of files. Without ContinueOnError the first failure
// aborts the batch.
func Run(ctx context.Context, pl *pipeline.Pipeline, templates []pipeline.Template, files []string, cfg Config, logger *slog.Logger) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	timer := timing.Start("batch")
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	out := make([]FileResult, len(files))
	var firstErr error
	var errOnce sync.Once
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				path := files[idx]
				res, err := pl.CountSymbols(runCtx, path, templates, nil)
				if err != nil {
					logger.Warn("file failed", "file", path, "error", err)
					out[idx] = FileResult{Path: path, Error: err.Error()}
					if !cfg.ContinueOnError {
						errOnce.Do(func() {
							firstErr = err
							cancel()
						})
						return
					}
					continue
				}
				out[idx] = FileResult{Path: path, Result: res}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range files {
			select {
			case jobs <- i:
			case <-runCtx.Done():
				return
			}
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	res := &Result{Files: out, Duration: timer.Stop()}
	logger.Info("batch finished",
		"files", len(files), "failed", res.Failed(),
		"symbols", res.TotalCount(), "elapsed", res.Duration)
	return res, nil
}
