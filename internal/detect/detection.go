// Package detect defines the shared detection types and the
// non-maximum suppression used to merge overlapping candidates.
package detect

import (
	"encoding/json"
	"fmt"

	"github.com/glyphtech/symscan/internal/utils"
)

// Method identifies how a detection was produced.
type Method int

const (
	// MethodTemplate is normalized cross-correlation template matching.
	MethodTemplate Method = iota
	// MethodFeature is keypoint feature matching with homography fit.
	MethodFeature
	// MethodML is a learned detector.
	MethodML
)

// String returns the wire name of the method.
func (m Method) String() string {
	switch m {
	case MethodTemplate:
		return "template"
	case MethodFeature:
		return "feature"
	case MethodML:
		return "ml"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// MarshalJSON encodes the method as its string name.
func (m Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a method from its string name.
func (m *Method) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "template":
		*m = MethodTemplate
	case "feature":
		*m = MethodFeature
	case "ml":
		*m = MethodML
	default:
		return fmt.Errorf("unknown detection method %q", s)
	}
	return nil
}

// Detection is a single symbol occurrence candidate in pixel space.
type Detection struct {
	Box      utils.Box `json:"bbox"`
	Score    float64   `json:"score"`
	Method   Method    `json:"method"`
	Scale    float64   `json:"scale,omitempty"`
	Rotation float64   `json:"rotation,omitempty"`
}

// IoU computes intersection over union of two boxes. Non-overlapping
// or degenerate boxes score zero.
func IoU(a, b utils.Box) float64 {
	ix := minf(a.MaxX, b.MaxX) - maxf(a.MinX, b.MinX)
	iy := minf(a.MaxY, b.MaxY) - maxf(a.MinY, b.MinY)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
