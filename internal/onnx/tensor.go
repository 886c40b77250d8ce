// Package onnx holds the small helpers shared by ONNX Runtime callers:
// tensor assembly and environment lifecycle.
package onnx

import (
	"errors"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Tensor is a float32 tensor prepared for model input. Data layout is
// row-major NCHW.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewImageTensor builds a single-image tensor with shape [1, C, H, W].
// data must be length C*H*W in NCHW order.
func NewImageTensor(data []float32, c, h, w int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil data")
	}
	if expected := c * h * w; len(data) != expected {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), expected)
	}
	return Tensor{
		Data:  data,
		Shape: []int64{1, int64(c), int64(h), int64(w)},
	}, nil
}

// GrayToTensor normalizes a grayscale image to [0, 1] floats with shape
// [1, 1, H, W].
func GrayToTensor(img *image.Gray) (Tensor, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	data := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			data[y*w+x] = float32(img.Pix[row+x]) / 255.0
		}
	}
	return NewImageTensor(data, 1, h, w)
}

// ValidateNCHW ensures a shape is [N, C, H, W] with positive dimensions.
func ValidateNCHW(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

var (
	initOnce sync.Once
	initErr  error
)

// EnsureRuntime initializes the ONNX Runtime environment once per
// process. Later calls return the result of the first attempt.
func EnsureRuntime() error {
	initOnce.Do(func() {
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	if initErr != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", initErr)
	}
	return nil
}
