package vector

import (
	"sort"
	"strings"

	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/utils"
)

// FilterConfig discards shapes that cannot be symbols before clustering.
type FilterConfig struct {
	// MinArea drops tiny marks, in square points.
	MinArea float64 `mapstructure:"min_area" yaml:"min_area"`
	// MaxPageFraction drops shapes covering more than this fraction of
	// the page, such as frames and borders.
	MaxPageFraction float64 `mapstructure:"max_page_fraction" yaml:"max_page_fraction"`
	// MinExtent drops shapes narrower or shorter than this, in points.
	MinExtent float64 `mapstructure:"min_extent" yaml:"min_extent"`
}

// DefaultFilterConfig matches the production filtering.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinArea:         10,
		MaxPageFraction: 0.3,
		MinExtent:       2,
	}
}

// FilterPrimitives keeps shapes plausible as symbol occurrences.
// pageW and pageH are the page dimensions in points.
func FilterPrimitives(prims []pdf.Primitive, pageW, pageH float64, cfg FilterConfig) []pdf.Primitive {
	maxArea := cfg.MaxPageFraction * pageW * pageH
	out := make([]pdf.Primitive, 0, len(prims))
	for _, p := range prims {
		if p.Width() < cfg.MinExtent || p.Height() < cfg.MinExtent {
			continue
		}
		a := p.Area()
		if a < cfg.MinArea || (maxArea > 0 && a > maxArea) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SymbolGroup is one cluster of identically-shaped primitives.
type SymbolGroup struct {
	// Signature is the quantized geometry key shared by all members.
	Signature string
	// Name is a human label, from nearby page text when available.
	Name string
	// Occurrences are the member bounding boxes in page points.
	Occurrences []utils.Box
	// Exemplar is the member used when a raster template is needed.
	Exemplar utils.Box
}

// Count returns the number of occurrences.
func (g *SymbolGroup) Count() int { return len(g.Occurrences) }

// Cluster groups filtered primitives by signature. Groups of size one
// are kept; callers decide the minimum occurrence count that matters.
func Cluster(prims []pdf.Primitive, cfg SignatureConfig) map[string]*SymbolGroup {
	groups := make(map[string]*SymbolGroup)
	for i := range prims {
		sig := Signature(&prims[i], cfg)
		g, ok := groups[sig]
		if !ok {
			g = &SymbolGroup{Signature: sig, Exemplar: prims[i].Rect}
			groups[sig] = g
		}
		g.Occurrences = append(g.Occurrences, prims[i].Rect)
	}
	return groups
}

// Groups flattens the cluster map to a deterministic slice, dropping
// clusters below minCount and ordering by descending count, then by
// signature.
func Groups(clusters map[string]*SymbolGroup, minCount int) []*SymbolGroup {
	if minCount < 1 {
		minCount = 1
	}
	out := make([]*SymbolGroup, 0, len(clusters))
	for _, g := range clusters {
		if g.Count() >= minCount {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count() != out[j].Count() {
			return out[i].Count() > out[j].Count()
		}
		return strings.Compare(out[i].Signature, out[j].Signature) < 0
	})
	return out
}
