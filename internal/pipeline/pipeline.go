// Package pipeline orchestrates symbol detection over PDF documents:
// rasterization, template and feature matching, optional learned
// detection, suppression, and confidence aggregation.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/match"
	"github.com/glyphtech/symscan/internal/mldetect"
	"github.com/glyphtech/symscan/internal/raster"
	"github.com/glyphtech/symscan/internal/vector"
)

// ErrNoTemplates is returned when a counting run starts with an empty
// template set.
var ErrNoTemplates = errors.New("pipeline: no templates provided")

// Config holds the tunables for a detection run.
type Config struct {
	// DPI is the rasterization resolution.
	DPI float64 `mapstructure:"dpi" yaml:"dpi"`
	// Threshold is the minimum template-match score.
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	// Scales and Rotations parameterize template matching.
	Scales    []float64 `mapstructure:"scales" yaml:"scales"`
	Rotations []float64 `mapstructure:"rotations" yaml:"rotations"`
	// NMSIoU is the suppression overlap threshold.
	NMSIoU float64 `mapstructure:"nms_iou" yaml:"nms_iou"`
	// MinCount drops symbols detected fewer times than this.
	MinCount int `mapstructure:"min_count" yaml:"min_count"`
	// Workers bounds page-level parallelism. Zero means NumCPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// UseFeatureFallback tries keypoint matching on templates that
	// template matching found nowhere.
	UseFeatureFallback bool `mapstructure:"use_feature_fallback" yaml:"use_feature_fallback"`
	// MinFeatureMatches gates the feature fallback.
	MinFeatureMatches int `mapstructure:"min_feature_matches" yaml:"min_feature_matches"`
	// LabelMaxDistPts bounds how far a text label may sit from a
	// vector symbol, in page points.
	LabelMaxDistPts float64 `mapstructure:"label_max_dist_pts" yaml:"label_max_dist_pts"`

	Signature vector.SignatureConfig `mapstructure:"signature" yaml:"signature"`
	Filter    vector.FilterConfig    `mapstructure:"filter" yaml:"filter"`
	Patch     raster.PatchConfig     `mapstructure:"patch" yaml:"patch"`
	ML        mldetect.Config        `mapstructure:"ml" yaml:"ml"`
	Weights   confidence.Weights     `mapstructure:"weights" yaml:"weights"`
	Bands     confidence.Bands       `mapstructure:"bands" yaml:"bands"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DPI:                raster.DefaultDPI,
		Threshold:          0.75,
		Scales:             []float64{0.5, 0.75, 1.0, 1.25, 1.5},
		Rotations:          []float64{0, 90, 180, 270},
		NMSIoU:             0.25,
		MinCount:           1,
		Workers:            0,
		UseFeatureFallback: true,
		MinFeatureMatches:  10,
		LabelMaxDistPts:    72,
		Signature:          vector.DefaultSignatureConfig(),
		Filter:             vector.DefaultFilterConfig(),
		Patch:              raster.DefaultPatchConfig(),
		ML:                 mldetect.DefaultConfig(),
		Weights:            confidence.DefaultWeights(),
		Bands:              confidence.DefaultBands(),
	}
}

// Validate rejects configurations before any page work starts.
func (c Config) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("pipeline: dpi must be positive, got %g", c.DPI)
	}
	opts := c.matchOptions()
	if err := opts.Validate(); err != nil {
		return err
	}
	if c.NMSIoU < 0 || c.NMSIoU > 1 {
		return fmt.Errorf("pipeline: nms_iou must be in [0, 1], got %g", c.NMSIoU)
	}
	if c.MinCount < 1 {
		return fmt.Errorf("pipeline: min_count must be at least 1, got %d", c.MinCount)
	}
	return nil
}

func (c Config) matchOptions() match.Options {
	return match.Options{
		Scales:       c.Scales,
		Rotations:    c.Rotations,
		Threshold:    c.Threshold,
		IoUThreshold: c.NMSIoU,
	}
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Pipeline runs detection with a fixed configuration. It is safe for
// concurrent use; the ML detector session serializes internally.
type Pipeline struct {
	cfg    Config
	ml     *mldetect.Detector
	logger *slog.Logger
}

// Builder assembles a Pipeline with fluent configuration.
type Builder struct {
	cfg    Config
	logger *slog.Logger
}

// NewBuilder starts from the default configuration.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder { b.cfg = cfg; return b }

// WithDPI sets the rasterization resolution.
func (b *Builder) WithDPI(dpi float64) *Builder {
	if dpi > 0 {
		b.cfg.DPI = dpi
	}
	return b
}

// WithThreshold sets the template-match score floor.
func (b *Builder) WithThreshold(t float64) *Builder { b.cfg.Threshold = t; return b }

// WithScales sets the template scale sweep.
func (b *Builder) WithScales(scales []float64) *Builder {
	if len(scales) > 0 {
		b.cfg.Scales = scales
	}
	return b
}

// WithRotations sets the template rotation sweep in degrees.
func (b *Builder) WithRotations(rotations []float64) *Builder {
	if len(rotations) > 0 {
		b.cfg.Rotations = rotations
	}
	return b
}

// WithNMSIoU sets the suppression overlap threshold.
func (b *Builder) WithNMSIoU(iou float64) *Builder { b.cfg.NMSIoU = iou; return b }

// WithMinCount sets the minimum occurrences for a reported symbol.
func (b *Builder) WithMinCount(n int) *Builder {
	if n > 0 {
		b.cfg.MinCount = n
	}
	return b
}

// WithWorkers bounds page-level parallelism.
func (b *Builder) WithWorkers(n int) *Builder { b.cfg.Workers = n; return b }

// WithFeatureFallback toggles keypoint matching for templates the
// correlation pass missed.
func (b *Builder) WithFeatureFallback(enabled bool) *Builder {
	b.cfg.UseFeatureFallback = enabled
	return b
}

// WithMLModelPath enables the learned detector.
func (b *Builder) WithMLModelPath(path string) *Builder {
	b.cfg.ML.ModelPath = path
	return b
}

// WithLogger sets the structured logger. Nil keeps the default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and opens the optional model.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	ml, err := mldetect.New(b.cfg.ML)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: b.cfg, ml: ml, logger: logger}, nil
}

// Config returns a copy of the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Close releases the model session if one was opened.
func (p *Pipeline) Close() error {
	return p.ml.Close()
}
