// Package vector groups the drawn shapes of a page into repeated-symbol
// clusters using quantized geometric signatures, and turns clusters into
// raster templates and labeled symbol groups.
package vector

import (
	"fmt"
	"strings"

	"github.com/glyphtech/symscan/internal/pdf"
)

// SignatureConfig controls how finely geometry is quantized before two
// shapes are considered the same symbol.
type SignatureConfig struct {
	// SizePrecision is the quantization step for width and height in
	// page points.
	SizePrecision float64 `mapstructure:"size_precision" yaml:"size_precision"`
	// AreaPrecision is the quantization step for area and aspect ratio.
	AreaPrecision float64 `mapstructure:"area_precision" yaml:"area_precision"`
	// SegmentPrefix is how many leading path segments participate in
	// the signature.
	SegmentPrefix int `mapstructure:"segment_prefix" yaml:"segment_prefix"`
}

// DefaultSignatureConfig matches the production quantization.
func DefaultSignatureConfig() SignatureConfig {
	return SignatureConfig{
		SizePrecision: 0.1,
		AreaPrecision: 0.01,
		SegmentPrefix: 5,
	}
}

// Signature produces the cluster key for a primitive. Primitives with
// equal signatures are treated as occurrences of one symbol.
func Signature(p *pdf.Primitive, cfg SignatureConfig) string {
	if cfg.SizePrecision <= 0 {
		cfg.SizePrecision = 0.1
	}
	if cfg.AreaPrecision <= 0 {
		cfg.AreaPrecision = 0.01
	}
	if cfg.SegmentPrefix <= 0 {
		cfg.SegmentPrefix = 5
	}

	w := p.Width()
	h := p.Height()
	aspect := 0.0
	if h > 0 {
		aspect = w / h
	}
	segs := p.Segments
	if len(segs) > cfg.SegmentPrefix {
		segs = segs[:cfg.SegmentPrefix]
	}
	parts := make([]string, 0, cfg.SegmentPrefix)
	for _, s := range segs {
		parts = append(parts, string(rune(s)))
	}

	return fmt.Sprintf("%d:%d:%d:%d:%d:%s",
		quantize(w, cfg.SizePrecision),
		quantize(h, cfg.SizePrecision),
		quantize(p.Area(), cfg.AreaPrecision),
		quantize(aspect, cfg.AreaPrecision),
		len(p.Segments),
		strings.Join(parts, "_"),
	)
}

func quantize(v, step float64) int64 {
	if step <= 0 {
		return int64(v)
	}
	return int64(v/step + 0.5)
}
