// Package confidence combines per-method detection scores into a single
// calibrated confidence value with coarse quality bands.
package confidence

// SourceType says where a symbol template came from, which affects how
// much the aggregate trusts it.
type SourceType int

const (
	// SourceVector templates come from exact page geometry.
	SourceVector SourceType = iota
	// SourceRaster templates were cropped from rendered pixels.
	SourceRaster
)

// Trust returns the prior weight of the source.
func (s SourceType) Trust() float64 {
	if s == SourceVector {
		return 1.0
	}
	return 0.7
}

// String returns the wire name of the source.
func (s SourceType) String() string {
	if s == SourceVector {
		return "vector"
	}
	return "raster"
}

// Signals holds the optional per-method scores for one detection. Nil
// fields mean the method did not run; aggregation reweights over the
// signals that are present.
type Signals struct {
	Template *float64
	Feature  *float64
	ML       *float64
	OCR      *float64
	Source   SourceType
}

// Weights are the relative contributions of each signal. They need not
// sum to one; aggregation normalizes over present signals.
type Weights struct {
	Template float64 `mapstructure:"template" yaml:"template"`
	Feature  float64 `mapstructure:"feature" yaml:"feature"`
	ML       float64 `mapstructure:"ml" yaml:"ml"`
	OCR      float64 `mapstructure:"ocr" yaml:"ocr"`
	Source   float64 `mapstructure:"source" yaml:"source"`
}

// DefaultWeights is the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Template: 0.30,
		Feature:  0.25,
		ML:       0.30,
		OCR:      0.10,
		Source:   0.05,
	}
}

// Aggregate computes the weighted mean of the present signals plus the
// source prior, renormalized so missing methods do not drag the score
// down. The result is clamped to [0, 1].
func Aggregate(s Signals, w Weights) float64 {
	var sum, norm float64
	add := func(v *float64, weight float64) {
		if v == nil || weight <= 0 {
			return
		}
		sum += clamp01(*v) * weight
		norm += weight
	}
	add(s.Template, w.Template)
	add(s.Feature, w.Feature)
	add(s.ML, w.ML)
	add(s.OCR, w.OCR)
	if w.Source > 0 {
		sum += s.Source.Trust() * w.Source
		norm += w.Source
	}
	if norm <= 0 {
		return 0
	}
	return clamp01(sum / norm)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Band is a coarse confidence class for reporting.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// Bands holds the cut points between confidence classes.
type Bands struct {
	High   float64 `mapstructure:"high" yaml:"high"`
	Medium float64 `mapstructure:"medium" yaml:"medium"`
}

// DefaultBands is the production banding.
func DefaultBands() Bands {
	return Bands{High: 0.8, Medium: 0.5}
}

// Classify maps a confidence value to its band.
func (b Bands) Classify(v float64) Band {
	switch {
	case v >= b.High:
		return BandHigh
	case v >= b.Medium:
		return BandMedium
	default:
		return BandLow
	}
}
