package confidence

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestAggregate_SingleSignal(t *testing.T) {
	w := DefaultWeights()

	// Template 0.9 with the vector prior: (0.9*0.30 + 1.0*0.05) / 0.35.
	got := Aggregate(Signals{Template: f(0.9), Source: SourceVector}, w)
	assert.InDelta(t, (0.9*0.30+1.0*0.05)/0.35, got, 1e-12)

	// Same signal from a raster-sourced template scores lower.
	raster := Aggregate(Signals{Template: f(0.9), Source: SourceRaster}, w)
	assert.Less(t, raster, got)
}

func TestAggregate_AllSignals(t *testing.T) {
	w := DefaultWeights()
	s := Signals{
		Template: f(0.8),
		Feature:  f(1.0),
		ML:       f(0.6),
		OCR:      f(0.5),
		Source:   SourceVector,
	}
	want := (0.8*0.30 + 1.0*0.25 + 0.6*0.30 + 0.5*0.10 + 1.0*0.05) / 1.0
	assert.InDelta(t, want, Aggregate(s, w), 1e-12)
}

func TestAggregate_MissingSignalsDoNotDrag(t *testing.T) {
	w := DefaultWeights()
	full := Aggregate(Signals{Template: f(0.9), Feature: f(0.9), Source: SourceVector}, w)
	sparse := Aggregate(Signals{Template: f(0.9), Source: SourceVector}, w)

	// Dropping an equally strong signal must not lower the aggregate.
	assert.InDelta(t, full, sparse, 0.02)
	assert.Greater(t, sparse, 0.85)
}

func TestAggregate_NoSignals(t *testing.T) {
	assert.Zero(t, Aggregate(Signals{}, Weights{}))
	// Only the source prior present.
	got := Aggregate(Signals{Source: SourceRaster}, DefaultWeights())
	assert.InDelta(t, 0.7, got, 1e-12)
}

func TestAggregate_ClampsOutOfRangeScores(t *testing.T) {
	w := Weights{Template: 1}
	assert.Equal(t, 1.0, Aggregate(Signals{Template: f(3.5)}, w))
	assert.Equal(t, 0.0, Aggregate(Signals{Template: f(-1.0)}, w))
}

func TestAggregate_Monotone(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	genScore := gen.Float64Range(0, 1)

	properties.Property("raising a present signal never lowers the aggregate", prop.ForAll(
		func(tpl, ml, delta float64) bool {
			w := DefaultWeights()
			lo := Aggregate(Signals{Template: f(tpl), ML: f(ml)}, w)
			bumped := clamp01(tpl + delta)
			hi := Aggregate(Signals{Template: f(bumped), ML: f(ml)}, w)
			return hi >= lo-1e-12
		},
		genScore, genScore, gen.Float64Range(0, 1),
	))

	properties.Property("aggregate stays in [0,1]", prop.ForAll(
		func(tpl, feat, ml, ocr float64) bool {
			s := Signals{Template: f(tpl), Feature: f(feat), ML: f(ml), OCR: f(ocr)}
			v := Aggregate(s, DefaultWeights())
			return v >= 0 && v <= 1
		},
		genScore, genScore, genScore, genScore,
	))

	properties.TestingRun(t)
}

func TestSourceType(t *testing.T) {
	assert.Equal(t, 1.0, SourceVector.Trust())
	assert.Equal(t, 0.7, SourceRaster.Trust())
	assert.Equal(t, "vector", SourceVector.String())
	assert.Equal(t, "raster", SourceRaster.String())
}

func TestBandsClassify(t *testing.T) {
	b := DefaultBands()
	tests := []struct {
		v    float64
		want Band
	}{
		{0.95, BandHigh},
		{0.8, BandHigh},
		{0.79, BandMedium},
		{0.5, BandMedium},
		{0.49, BandLow},
		{0, BandLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Classify(tt.v), "value %v", tt.v)
	}
}
