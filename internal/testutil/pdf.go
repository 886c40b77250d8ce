package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Page describes one page of a synthetic PDF: its media box size in
// points and a raw content stream.
type Page struct {
	Width   float64
	Height  float64
	Content string
}

// WritePDF builds a well-formed single-xref PDF with the given pages
// and writes it to path. Offsets are computed while writing so the file
// parses with strict readers.
func WritePDF(t *testing.T, path string, pages ...Page) {
	t.Helper()
	require.NotEmpty(t, pages, "a PDF needs at least one page")

	var buf bytes.Buffer
	offsets := make([]int, 0, 2+2*len(pages))
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// Object 1: catalog, object 2: page tree. Page i uses objects
	// 3+2i (page) and 4+2i (content stream).
	addObj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	addObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids[:len(kids)-1], len(pages)))

	for i, p := range pages {
		addObj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Contents %d 0 R /Resources << >> >>",
			p.Width, p.Height, 4+2*i))
		addObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.Content)+1, p.Content))
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

// RectContent returns a content stream drawing filled rectangles, each
// given as [x, y, w, h] in PDF user space (bottom-left origin).
func RectContent(rects ...[4]float64) string {
	var buf bytes.Buffer
	for _, r := range rects {
		fmt.Fprintf(&buf, "%g %g %g %g re f\n", r[0], r[1], r[2], r[3])
	}
	return buf.String()
}

// CircleContent returns a content stream drawing a stroked circle
// approximated by four Bézier arcs around (cx, cy).
func CircleContent(cx, cy, r float64) string {
	const k = 0.5523 // kappa for a four-arc circle
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%g %g m\n", cx+r, cy)
	fmt.Fprintf(&buf, "%g %g %g %g %g %g c\n", cx+r, cy+k*r, cx+k*r, cy+r, cx, cy+r)
	fmt.Fprintf(&buf, "%g %g %g %g %g %g c\n", cx-k*r, cy+r, cx-r, cy+k*r, cx-r, cy)
	fmt.Fprintf(&buf, "%g %g %g %g %g %g c\n", cx-r, cy-k*r, cx-k*r, cy-r, cx, cy-r)
	fmt.Fprintf(&buf, "%g %g %g %g %g %g c\n", cx+k*r, cy-r, cx+r, cy-k*r, cx+r, cy)
	buf.WriteString("S\n")
	return buf.String()
}

// WriteCorruptPDF writes a file that is not a parseable PDF.
func WriteCorruptPDF(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))
}
