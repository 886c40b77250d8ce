package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/detect"
	"github.com/glyphtech/symscan/internal/utils"
)

// SymbolDetection is one reported occurrence.
type SymbolDetection struct {
	Box        utils.Box       `json:"bbox"`
	Score      float64         `json:"score"`
	Method     detect.Method   `json:"method"`
	Confidence float64         `json:"confidence"`
	Band       confidence.Band `json:"band"`
}

// SymbolCount groups a symbol's detections on one page.
type SymbolCount struct {
	Name       string            `json:"symbol_name"`
	Count      int               `json:"count"`
	Detections []SymbolDetection `json:"detections"`
}

// PageResult holds everything found on a single page. Page numbers are
// 1-based on the wire.
type PageResult struct {
	Page        int           `json:"page"`
	ImageWidth  int           `json:"image_width"`
	ImageHeight int           `json:"image_height"`
	Symbols     []SymbolCount `json:"symbols"`
}

// Result is a whole-document counting report.
type Result struct {
	File      string       `json:"file"`
	DPI       float64      `json:"dpi"`
	Timestamp time.Time    `json:"timestamp"`
	Pages     []PageResult `json:"pages"`
	// PageErrors maps 1-based page numbers to the failure that skipped
	// them. Absent when every page succeeded.
	PageErrors map[int]string `json:"page_errors,omitempty"`
}

// TotalCount sums detections across pages and symbols.
func (r *Result) TotalCount() int {
	total := 0
	for _, p := range r.Pages {
		for _, s := range p.Symbols {
			total += s.Count
		}
	}
	return total
}

// WriteJSON renders the result as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV renders one row per symbol per page.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"page", "symbol", "count", "max_score", "max_confidence"}); err != nil {
		return err
	}
	for _, p := range r.Pages {
		for _, s := range p.Symbols {
			var maxScore, maxConf float64
			for _, d := range s.Detections {
				if d.Score > maxScore {
					maxScore = d.Score
				}
				if d.Confidence > maxConf {
					maxConf = d.Confidence
				}
			}
			row := []string{
				strconv.Itoa(p.Page),
				s.Name,
				strconv.Itoa(s.Count),
				strconv.FormatFloat(maxScore, 'f', 4, 64),
				strconv.FormatFloat(maxConf, 'f', 4, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText renders a human-readable summary.
func (r *Result) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s (%g dpi)\n", r.File, r.DPI); err != nil {
		return err
	}
	for _, p := range r.Pages {
		if _, err := fmt.Fprintf(w, "page %d (%dx%d px):\n", p.Page, p.ImageWidth, p.ImageHeight); err != nil {
			return err
		}
		for _, s := range p.Symbols {
			if _, err := fmt.Fprintf(w, "  %-30s %d\n", s.Name, s.Count); err != nil {
				return err
			}
		}
	}
	pages := make([]int, 0, len(r.PageErrors))
	for p := range r.PageErrors {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	for _, p := range pages {
		if _, err := fmt.Fprintf(w, "page %d failed: %s\n", p, r.PageErrors[p]); err != nil {
			return err
		}
	}
	return nil
}

// VectorSymbol is one clustered symbol reported by vector extraction.
type VectorSymbol struct {
	Name        string      `json:"symbol_name"`
	Signature   string      `json:"signature"`
	Count       int         `json:"count"`
	Occurrences []utils.Box `json:"occurrences"`
}

// VectorPageResult holds the clusters of one page.
type VectorPageResult struct {
	Page       int            `json:"page"`
	PageWidth  float64        `json:"page_width"`
	PageHeight float64        `json:"page_height"`
	Symbols    []VectorSymbol `json:"symbols"`
}

// VectorResult is a whole-document vector extraction report.
type VectorResult struct {
	File       string             `json:"file"`
	Timestamp  time.Time          `json:"timestamp"`
	Pages      []VectorPageResult `json:"pages"`
	PageErrors map[int]string     `json:"page_errors,omitempty"`
}

// WriteJSON renders the result as indented JSON.
func (r *VectorResult) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
