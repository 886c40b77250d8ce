// Package models resolves where ONNX model files live on disk.
package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SymbolDetector is the bundled symbol segmentation model filename.
const SymbolDetector = "symbol_det.onnx"

// DefaultDir is the models directory relative to the working directory.
const DefaultDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "SYMSCAN_MODELS_DIR"

// Dir returns the models directory. Priority: explicit argument, the
// SYMSCAN_MODELS_DIR environment variable, then ./models.
func Dir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvModelsDir); env != "" {
		return env
	}
	return DefaultDir
}

// Resolve turns a model reference into a usable file path. A reference
// containing a path separator is taken literally; a bare filename is
// looked up in the models directory. The file must exist.
func Resolve(ref string) (string, error) {
	path := ref
	if !strings.ContainsRune(ref, os.PathSeparator) && !strings.ContainsRune(ref, '/') {
		path = filepath.Join(Dir(""), ref)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("model %s not found at %s: %w", ref, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("model path %s is a directory", path)
	}
	return path, nil
}
