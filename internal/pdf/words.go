package pdf

import (
	"fmt"
	"math"
	"strings"

	dpdf "github.com/dslipak/pdf"

	"github.com/glyphtech/symscan/internal/utils"
)

// Word is a text-layer string with its bounding box in page points,
// top-left origin.
type Word struct {
	Text string
	Box  utils.Box
}

// ExtractWords reads the text layer of a page and groups adjacent glyph
// runs into words. Pages without a text layer yield an empty slice.
// pageIndex is zero-based.
func (d *Document) ExtractWords(pageIndex int) ([]Word, error) {
	if pageIndex < 0 || pageIndex >= d.pageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageIndex, d.pageCount)
	}

	reader, err := dpdf.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, d.path, err)
	}

	page := reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return nil, nil
	}

	pageH := d.dims[pageIndex].height

	content := page.Content()
	return groupWords(content.Text, pageH), nil
}

// groupWords merges consecutive glyph runs on the same baseline into
// words, splitting at whitespace or horizontal gaps wider than half the
// font size. Coordinates are flipped from PDF bottom-left to top-left.
func groupWords(texts []dpdf.Text, pageHeight float64) []Word {
	var words []Word
	var cur strings.Builder
	var box utils.Box
	var lastEnd, lastY, lastSize float64
	open := false

	flush := func() {
		if open && strings.TrimSpace(cur.String()) != "" {
			words = append(words, Word{Text: cur.String(), Box: box})
		}
		cur.Reset()
		open = false
	}

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}
		h := t.FontSize
		if h <= 0 {
			h = 10
		}
		top := pageHeight - t.Y - h
		tb := utils.Box{MinX: t.X, MinY: top, MaxX: t.X + t.W, MaxY: top + h}

		sameRun := open &&
			math.Abs(t.Y-lastY) < lastSize*0.3 &&
			t.X-lastEnd < lastSize*0.5 &&
			t.X >= lastEnd-lastSize*0.1

		if sameRun {
			cur.WriteString(t.S)
			if tb.MinX < box.MinX {
				box.MinX = tb.MinX
			}
			if tb.MinY < box.MinY {
				box.MinY = tb.MinY
			}
			if tb.MaxX > box.MaxX {
				box.MaxX = tb.MaxX
			}
			if tb.MaxY > box.MaxY {
				box.MaxY = tb.MaxY
			}
		} else {
			flush()
			cur.WriteString(t.S)
			box = tb
			open = true
		}
		lastEnd = t.X + t.W
		lastY = t.Y
		lastSize = h
	}
	flush()
	return words
}
