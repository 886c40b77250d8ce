package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteJSON renders the batch result as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV renders one row per symbol per page per file.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "page", "symbol", "count"}); err != nil {
		return err
	}
	for _, f := range r.Files {
		if f.Result == nil {
			continue
		}
		for _, p := range f.Result.Pages {
			for _, s := range p.Symbols {
				if err := cw.Write([]string{
					f.Path,
					strconv.Itoa(p.Page),
					s.Name,
					strconv.Itoa(s.Count),
				}); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText renders a human-readable summary.
func (r *Result) WriteText(w io.Writer) error {
	for _, f := range r.Files {
		if f.Error != "" {
			if _, err := fmt.Fprintf(w, "%s: failed: %s\n", f.Path, f.Error); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %d symbols\n", f.Path, f.Result.TotalCount()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total: %d symbols in %d files (%d failed) in %v\n",
		r.TotalCount(), len(r.Files), r.Failed(), r.Duration.Round(time.Millisecond))
	return err
}
