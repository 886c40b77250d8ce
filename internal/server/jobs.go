package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/glyphtech/symscan/internal/jobstore"
	"github.com/glyphtech/symscan/internal/pipeline"
)

// jobsHandler creates asynchronous counting jobs (POST) and lists
// existing jobs (GET).
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createJobHandler(w, r)
	case http.MethodGet:
		s.listJobsHandler(w, r)
	default:
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createJobHandler(w http.ResponseWriter, r *http.Request) {
	pdfPath, cleanup, err := s.receivePDF(w, r)
	if err != nil {
		detectRequestsTotal.WithLabelValues("job", "error").Inc()
		return
	}

	pl, err := s.requestPipeline(r)
	if err != nil {
		cleanup()
		s.writeError(w, err.Error(), http.StatusBadRequest)
		detectRequestsTotal.WithLabelValues("job", "error").Inc()
		return
	}

	templates, err := s.requestTemplates(r, pl, pdfPath)
	if err != nil {
		cleanup()
		s.writeError(w, err.Error(), statusForError(err))
		detectRequestsTotal.WithLabelValues("job", "error").Inc()
		return
	}

	fileName := "upload.pdf"
	if f := r.MultipartForm.File["pdf"]; len(f) > 0 {
		fileName = f[0].Filename
	}
	job, err := s.store.Create(r.Context(), fileName)
	if err != nil {
		cleanup()
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		detectRequestsTotal.WithLabelValues("job", "error").Inc()
		return
	}

	go s.runJob(job.ID, pl, pdfPath, templates, cleanup)

	detectRequestsTotal.WithLabelValues("job", "success").Inc()
	s.writeJSON(w, http.StatusAccepted, jobResponse(job))
}

// runJob executes a counting job in the background, mirroring progress
// into the store so polling and websocket clients can follow along.
func (s *Server) runJob(id string, pl *pipeline.Pipeline, pdfPath string, templates []pipeline.Template, cleanup func()) {
	defer cleanup()
	defer func() {
		if pl != s.pipeline {
			_ = pl.Close()
		}
	}()
	ctx := context.Background()
	start := time.Now()

	progress := func(p pipeline.Progress) {
		if err := s.store.SetRunning(ctx, id, p); err != nil {
			s.logger.Warn("failed to record job progress", "job", id, "error", err)
		}
	}

	result, err := pl.CountSymbols(ctx, pdfPath, templates, progress)
	if err != nil {
		if ferr := s.store.Fail(ctx, id, err); ferr != nil {
			s.logger.Error("failed to record job failure", "job", id, "error", ferr)
		}
		s.logger.Warn("job failed", "job", id, "error", err)
		return
	}
	if err := s.store.Complete(ctx, id, result); err != nil {
		s.logger.Error("failed to record job result", "job", id, "error", err)
		return
	}
	detectDuration.WithLabelValues("job").Observe(time.Since(start).Seconds())
	symbolsDetected.WithLabelValues("job").Observe(float64(result.TotalCount()))
	s.logger.Info("job completed", "job", id, "symbols", result.TotalCount())
}

func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	opts := jobstore.ListOptions{Limit: 100}
	if v := r.URL.Query().Get("status"); v != "" {
		opts.Status = jobstore.Status(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	jobs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = jobResponse(j)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// jobHandler returns a single job by ID.
func (s *Server) jobHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			s.writeError(w, "job not found", http.StatusNotFound)
			return
		}
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, jobResponse(job))
}

