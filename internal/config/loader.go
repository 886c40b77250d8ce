package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files, without
	// extension.
	ConfigFileName = "symscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SYMSCAN"
)

// Loader reads configuration from files and the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader uses the global viper instance so cobra flag bindings keep
// working.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads the configuration from the search paths, applies
// environment overrides and defaults, and validates the result. A
// missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile reads a specific configuration file, which must exist.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	l.v.SetConfigFile(configFile)
	l.setupEnvironment()
	l.setDefaults()
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath("/etc/symscan")
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "symscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "symscan"))
	}
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)

	l.v.SetDefault("pipeline.dpi", d.Pipeline.DPI)
	l.v.SetDefault("pipeline.threshold", d.Pipeline.Threshold)
	l.v.SetDefault("pipeline.scales", d.Pipeline.Scales)
	l.v.SetDefault("pipeline.rotations", d.Pipeline.Rotations)
	l.v.SetDefault("pipeline.nms_iou", d.Pipeline.NMSIoU)
	l.v.SetDefault("pipeline.min_count", d.Pipeline.MinCount)
	l.v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	l.v.SetDefault("pipeline.use_feature_fallback", d.Pipeline.UseFeatureFallback)
	l.v.SetDefault("pipeline.min_feature_matches", d.Pipeline.MinFeatureMatches)
	l.v.SetDefault("pipeline.label_max_dist_pts", d.Pipeline.LabelMaxDistPts)

	l.v.SetDefault("pipeline.signature.size_precision", d.Pipeline.Signature.SizePrecision)
	l.v.SetDefault("pipeline.signature.area_precision", d.Pipeline.Signature.AreaPrecision)
	l.v.SetDefault("pipeline.signature.segment_prefix", d.Pipeline.Signature.SegmentPrefix)

	l.v.SetDefault("pipeline.filter.min_area", d.Pipeline.Filter.MinArea)
	l.v.SetDefault("pipeline.filter.max_page_fraction", d.Pipeline.Filter.MaxPageFraction)
	l.v.SetDefault("pipeline.filter.min_extent", d.Pipeline.Filter.MinExtent)

	l.v.SetDefault("pipeline.patch.blur_sigma", d.Pipeline.Patch.BlurSigma)
	l.v.SetDefault("pipeline.patch.ink_level", d.Pipeline.Patch.InkLevel)
	l.v.SetDefault("pipeline.patch.min_area_px", d.Pipeline.Patch.MinAreaPx)
	l.v.SetDefault("pipeline.patch.max_page_fraction", d.Pipeline.Patch.MaxPageFraction)
	l.v.SetDefault("pipeline.patch.min_extent_px", d.Pipeline.Patch.MinExtentPx)

	l.v.SetDefault("pipeline.ml.model_path", d.Pipeline.ML.ModelPath)
	l.v.SetDefault("pipeline.ml.threshold", d.Pipeline.ML.Threshold)
	l.v.SetDefault("pipeline.ml.min_region_pixels", d.Pipeline.ML.MinRegionPixels)
	l.v.SetDefault("pipeline.ml.input_name", d.Pipeline.ML.InputName)
	l.v.SetDefault("pipeline.ml.output_name", d.Pipeline.ML.OutputName)

	l.v.SetDefault("pipeline.weights.template", d.Pipeline.Weights.Template)
	l.v.SetDefault("pipeline.weights.feature", d.Pipeline.Weights.Feature)
	l.v.SetDefault("pipeline.weights.ml", d.Pipeline.Weights.ML)
	l.v.SetDefault("pipeline.weights.ocr", d.Pipeline.Weights.OCR)
	l.v.SetDefault("pipeline.weights.source", d.Pipeline.Weights.Source)

	l.v.SetDefault("pipeline.bands.high", d.Pipeline.Bands.High)
	l.v.SetDefault("pipeline.bands.medium", d.Pipeline.Bands.Medium)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.file", d.Output.File)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.rate_limit", d.Server.RateLimit)
	l.v.SetDefault("server.enable_cors", d.Server.EnableCORS)

	l.v.SetDefault("store.backend", d.Store.Backend)
	l.v.SetDefault("store.dir", d.Store.Dir)
}
