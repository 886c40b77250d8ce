package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/match"
	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/pipeline"
	"github.com/glyphtech/symscan/internal/utils"
)

// serverThreshold is the default match threshold for API requests; the
// interactive default is stricter than batch CLI runs to favor recall
// on uploads of unknown quality.
const serverThreshold = 0.65

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// countHandler runs synchronous symbol counting on an uploaded PDF.
// Templates come either from uploaded images ("template" parts) or are
// discovered from the document when a "source" value is given.
func (s *Server) countHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	pdfPath, cleanup, err := s.receivePDF(w, r)
	if err != nil {
		detectRequestsTotal.WithLabelValues("count", "error").Inc()
		return // receivePDF already wrote the response
	}
	defer cleanup()

	pl, err := s.requestPipeline(r)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		detectRequestsTotal.WithLabelValues("count", "error").Inc()
		return
	}
	defer func() {
		if pl != s.pipeline {
			_ = pl.Close()
		}
	}()

	templates, err := s.requestTemplates(r, pl, pdfPath)
	if err != nil {
		s.writeError(w, err.Error(), statusForError(err))
		detectRequestsTotal.WithLabelValues("count", "error").Inc()
		return
	}

	result, err := pl.CountSymbols(r.Context(), pdfPath, templates, nil)
	if err != nil {
		s.writeError(w, err.Error(), statusForError(err))
		detectRequestsTotal.WithLabelValues("count", "error").Inc()
		return
	}

	detectRequestsTotal.WithLabelValues("count", "success").Inc()
	detectDuration.WithLabelValues("count").Observe(time.Since(start).Seconds())
	symbolsDetected.WithLabelValues("count").Observe(float64(result.TotalCount()))
	s.writeJSON(w, http.StatusOK, result)
}

// vectorHandler runs synchronous vector extraction on an uploaded PDF.
func (s *Server) vectorHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	pdfPath, cleanup, err := s.receivePDF(w, r)
	if err != nil {
		detectRequestsTotal.WithLabelValues("vector", "error").Inc()
		return
	}
	defer cleanup()

	result, err := s.pipeline.ExtractVector(r.Context(), pdfPath, nil)
	if err != nil {
		s.writeError(w, err.Error(), statusForError(err))
		detectRequestsTotal.WithLabelValues("vector", "error").Inc()
		return
	}

	count := 0
	for _, p := range result.Pages {
		for _, sym := range p.Symbols {
			count += sym.Count
		}
	}
	detectRequestsTotal.WithLabelValues("vector", "success").Inc()
	detectDuration.WithLabelValues("vector").Observe(time.Since(start).Seconds())
	symbolsDetected.WithLabelValues("vector").Observe(float64(count))
	s.writeJSON(w, http.StatusOK, result)
}

// receivePDF parses the multipart form and spools the uploaded document
// to a temp file, since page access needs a seekable path. On error the
// response has already been written.
func (s *Server) receivePDF(w http.ResponseWriter, r *http.Request) (string, func(), error) {
	limit := int64(s.cfg.MaxUploadMB) * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeError(w, "failed to parse form data", http.StatusBadRequest)
		return "", nil, err
	}
	file, header, err := r.FormFile("pdf")
	if err != nil {
		s.writeError(w, "no pdf file provided", http.StatusBadRequest)
		return "", nil, err
	}
	defer func() { _ = file.Close() }()
	if header.Size > limit {
		s.writeError(w, "file too large", http.StatusRequestEntityTooLarge)
		return "", nil, fmt.Errorf("upload of %d bytes exceeds limit", header.Size)
	}

	tmp, err := os.CreateTemp("", "symscan-*.pdf")
	if err != nil {
		s.writeError(w, "failed to store upload", http.StatusInternalServerError)
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		cleanup()
		s.writeError(w, "failed to store upload", http.StatusInternalServerError)
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		s.writeError(w, "failed to store upload", http.StatusInternalServerError)
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

// requestPipeline derives a pipeline for this request, rebuilding only
// when a form value overrides the server defaults.
func (s *Server) requestPipeline(r *http.Request) (*pipeline.Pipeline, error) {
	base := s.pipeline.Config()
	cfg := base
	cfg.Threshold = serverThreshold
	changed := cfg.Threshold != base.Threshold
	if v := r.FormValue("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q", v)
		}
		cfg.Threshold = t
		changed = true
	}
	if v := r.FormValue("dpi"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil || dpi <= 0 {
			return nil, fmt.Errorf("invalid dpi %q", v)
		}
		cfg.DPI = dpi
		changed = true
	}
	if v := r.FormValue("min_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid min_count %q", v)
		}
		cfg.MinCount = n
		changed = true
	}
	if !changed {
		return s.pipeline, nil
	}
	return pipeline.NewBuilder().WithConfig(cfg).WithLogger(s.logger).Build()
}

// requestTemplates collects uploaded template images, or discovers
// templates from the document itself when the form selects a source.
func (s *Server) requestTemplates(r *http.Request, pl *pipeline.Pipeline, pdfPath string) ([]pipeline.Template, error) {
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["template"]
	}
	if len(files) > 0 {
		templates := make([]pipeline.Template, 0, len(files))
		for _, fh := range files {
			t, err := decodeTemplate(fh)
			if err != nil {
				return nil, err
			}
			templates = append(templates, t)
		}
		return templates, nil
	}

	src := pipeline.TemplateSource(r.FormValue("source"))
	if src == "" {
		return nil, pipeline.ErrNoTemplates
	}
	page := 0
	if v := r.FormValue("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page %q", v)
		}
		page = n - 1
	}
	return pl.DiscoverTemplates(r.Context(), pdfPath, page, src)
}

func decodeTemplate(fh *multipart.FileHeader) (pipeline.Template, error) {
	f, err := fh.Open()
	if err != nil {
		return pipeline.Template{}, fmt.Errorf("failed to open template %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return pipeline.Template{}, fmt.Errorf("failed to read template %s: %w", fh.Filename, err)
	}
	img, err := utils.DecodeImage(data)
	if err != nil {
		return pipeline.Template{}, fmt.Errorf("invalid template image %s: %w", fh.Filename, err)
	}
	return pipeline.NewTemplate(templateName(fh.Filename), img, confidence.SourceRaster), nil
}

func templateName(filename string) string {
	name := filename
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' || name[i] == '\\' {
			name = name[i+1:]
			break
		}
	}
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

// statusForError maps the error taxonomy onto HTTP statuses: caller
// mistakes are 4xx, everything else is a server failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pdf.ErrUnreadableDocument),
		errors.Is(err, pdf.ErrPageOutOfRange),
		errors.Is(err, match.ErrInvalidThreshold),
		errors.Is(err, match.ErrEmptyParameterSet),
		errors.Is(err, pipeline.ErrNoTemplates):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
