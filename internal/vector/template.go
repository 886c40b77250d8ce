package vector

import (
	"math"

	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/raster"
	"github.com/glyphtech/symscan/internal/utils"
)

// TemplatePadPts is the margin rendered around a symbol exemplar so
// template matching sees a little surrounding whitespace.
const TemplatePadPts = 10

// MaterializeTemplate renders a group's exemplar region into a
// grayscale template at the given resolution.
func MaterializeTemplate(doc *pdf.Document, pageIndex int, g *SymbolGroup, dpi float64) (*raster.Raster, error) {
	return raster.RasterizeClip(doc, pageIndex, dpi, g.Exemplar, TemplatePadPts)
}

// NearestLabel names a group after the closest text-layer word, or
// returns "" when no word lies within maxDistPts of the exemplar.
func NearestLabel(g *SymbolGroup, words []pdf.Word, maxDistPts float64) string {
	cx := (g.Exemplar.MinX + g.Exemplar.MaxX) / 2
	cy := (g.Exemplar.MinY + g.Exemplar.MaxY) / 2
	best := ""
	bestDist := maxDistPts
	for _, w := range words {
		wx := (w.Box.MinX + w.Box.MaxX) / 2
		wy := (w.Box.MinY + w.Box.MaxY) / 2
		d := math.Hypot(wx-cx, wy-cy)
		if d < bestDist {
			best = w.Text
			bestDist = d
		}
	}
	return best
}

// UnionBox returns the bounding box covering all occurrences.
func (g *SymbolGroup) UnionBox() utils.Box {
	if len(g.Occurrences) == 0 {
		return utils.Box{}
	}
	u := g.Occurrences[0]
	for _, b := range g.Occurrences[1:] {
		if b.MinX < u.MinX {
			u.MinX = b.MinX
		}
		if b.MinY < u.MinY {
			u.MinY = b.MinY
		}
		if b.MaxX > u.MaxX {
			u.MaxX = b.MaxX
		}
		if b.MaxY > u.MaxY {
			u.MaxY = b.MaxY
		}
	}
	return u
}
