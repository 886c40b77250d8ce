// Package mldetect runs an optional learned symbol detector. When no
// model is configured the detector is disabled and the pipeline relies
// on template and feature matching alone.
package mldetect

import (
	"fmt"
	"image"
	"math"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/glyphtech/symscan/internal/detect"
	"github.com/glyphtech/symscan/internal/mempool"
	"github.com/glyphtech/symscan/internal/models"
	"github.com/glyphtech/symscan/internal/onnx"
	"github.com/glyphtech/symscan/internal/utils"
)

// Config selects and tunes the model.
type Config struct {
	// ModelPath is the ONNX model file. Empty disables the detector.
	ModelPath string `mapstructure:"model_path" yaml:"model_path"`
	// Threshold binarizes the output probability map.
	Threshold float32 `mapstructure:"threshold" yaml:"threshold"`
	// MinRegionPixels drops components smaller than this.
	MinRegionPixels int `mapstructure:"min_region_pixels" yaml:"min_region_pixels"`
	// InputName and OutputName are the model's graph tensor names.
	InputName  string `mapstructure:"input_name" yaml:"input_name"`
	OutputName string `mapstructure:"output_name" yaml:"output_name"`
}

// DefaultConfig returns a disabled detector configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:       0.5,
		MinRegionPixels: 16,
		InputName:       "input",
		OutputName:      "output",
	}
}

// Detector wraps an ONNX segmentation model producing a per-pixel
// symbol probability map at input resolution.
type Detector struct {
	cfg     Config
	session *ort.DynamicAdvancedSession
}

// Enabled reports whether a model path was configured.
func (c Config) Enabled() bool { return c.ModelPath != "" }

// New opens the model session. A disabled config yields a nil Detector,
// which is safe to pass around; its methods report no detections.
func New(cfg Config) (*Detector, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	modelPath, err := models.Resolve(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	if err := onnx.EnsureRuntime(); err != nil {
		return nil, err
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", modelPath, err)
	}
	return &Detector{cfg: cfg, session: session}, nil
}

// Close releases the model session.
func (d *Detector) Close() error {
	if d == nil || d.session == nil {
		return nil
	}
	return d.session.Destroy()
}

// Detect runs the model on a grayscale page and converts the thresholded
// probability map into box detections via connected components.
func (d *Detector) Detect(img *image.Gray) ([]detect.Detection, error) {
	if d == nil || d.session == nil {
		return nil, nil
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	t, err := onnx.GrayToTensor(img)
	if err != nil {
		return nil, err
	}
	input, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := d.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("model inference failed: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected model output type %T", outputs[0])
	}
	defer func() { _ = out.Destroy() }()

	prob := out.GetData()
	if len(prob) < w*h {
		return nil, fmt.Errorf("model output has %d values, need %d", len(prob), w*h)
	}
	return regionsFromProbMap(prob[:w*h], w, h, d.cfg.Threshold, d.cfg.MinRegionPixels), nil
}

// regionsFromProbMap thresholds the probability map and extracts
// 4-connected components as box detections scored by their mean
// probability.
func regionsFromProbMap(prob []float32, w, h int, threshold float32, minPixels int) []detect.Detection {
	mask := mempool.GetBool(w * h)
	defer mempool.PutBool(mask)
	for i, p := range prob {
		mask[i] = p >= threshold
	}
	visited := mempool.GetBool(w * h)
	defer mempool.PutBool(visited)
	var dets []detect.Detection
	queue := make([]int, 0, 256)

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		queue = append(queue[:0], start)
		visited[start] = true
		count := 0
		var sum float64
		minX, minY := w, h
		maxX, maxY := 0, 0

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			count++
			sum += float64(prob[i])
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				if n < 0 || n >= w*h || visited[n] || !mask[n] {
					continue
				}
				// Skip row wrap on horizontal neighbors.
				if (n == i-1 || n == i+1) && n/w != y {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}
		if count < minPixels {
			continue
		}
		dets = append(dets, detect.Detection{
			Box: utils.Box{
				MinX: float64(minX), MinY: float64(minY),
				MaxX: float64(maxX + 1), MaxY: float64(maxY + 1),
			},
			Score:  math.Min(1.0, sum/float64(count)),
			Method: detect.MethodML,
		})
	}
	return dets
}
