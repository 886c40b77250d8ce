// Package feature locates symbols by sparse keypoint correspondence:
// corner detection, binary descriptors, mutual Hamming matching, and a
// RANSAC-fitted homography projecting the template outline onto the page.
package feature

import (
	"image"
	"math"
	"sort"

	"github.com/glyphtech/symscan/internal/mempool"
)

// Keypoint is a detected corner with an intensity-centroid orientation.
type Keypoint struct {
	X, Y     int
	Angle    float64
	Response float64
}

// fastOffsets is the 16-pixel Bresenham circle of radius 3 used by the
// segment test, in clockwise order.
var fastOffsets = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1},
	{3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
	{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

const (
	fastArc       = 9 // contiguous pixels required on the circle
	centroidR     = 7 // orientation patch radius
	borderMargin  = 18
	defaultThresh = 20
)

// DetectCorners finds up to maxFeatures corners using a segment test
// with 3x3 non-maximum suppression, strongest first. A threshold of
// zero selects the default contrast threshold.
func DetectCorners(img *image.Gray, threshold, maxFeatures int) []Keypoint {
	if threshold <= 0 {
		threshold = defaultThresh
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 2*borderMargin || h <= 2*borderMargin {
		return nil
	}

	response := mempool.GetFloat64(w * h)
	defer mempool.PutFloat64(response)
	for y := borderMargin; y < h-borderMargin; y++ {
		for x := borderMargin; x < w-borderMargin; x++ {
			if r, ok := segmentTest(img, x, y, threshold); ok {
				response[y*w+x] = r
			}
		}
	}

	var kps []Keypoint
	for y := borderMargin; y < h-borderMargin; y++ {
		for x := borderMargin; x < w-borderMargin; x++ {
			r := response[y*w+x]
			if r == 0 || !localMax(response, w, x, y, r) {
				continue
			}
			kps = append(kps, Keypoint{
				X: x, Y: y,
				Angle:    orientation(img, x, y),
				Response: r,
			})
		}
	}

	sort.SliceStable(kps, func(i, j int) bool {
		if kps[i].Response != kps[j].Response {
			return kps[i].Response > kps[j].Response
		}
		if kps[i].Y != kps[j].Y {
			return kps[i].Y < kps[j].Y
		}
		return kps[i].X < kps[j].X
	})
	if maxFeatures > 0 && len(kps) > maxFeatures {
		kps = kps[:maxFeatures]
	}
	return kps
}

// segmentTest checks whether fastArc contiguous circle pixels are all
// brighter or all darker than the center by threshold, returning the
// summed absolute contrast as the corner response.
func segmentTest(img *image.Gray, x, y, threshold int) (float64, bool) {
	c := int(img.Pix[y*img.Stride+x])
	var states [16]int8
	for i, off := range fastOffsets {
		v := int(img.Pix[(y+off[1])*img.Stride+x+off[0]])
		switch {
		case v >= c+threshold:
			states[i] = 1
		case v <= c-threshold:
			states[i] = -1
		}
	}
	for _, want := range []int8{1, -1} {
		run := 0
		// Walk the circle twice so wrap-around arcs count.
		for i := 0; i < 32; i++ {
			if states[i%16] == want {
				run++
				if run >= fastArc {
					var sum float64
					for j, off := range fastOffsets {
						if states[j] == want {
							v := int(img.Pix[(y+off[1])*img.Stride+x+off[0]])
							sum += math.Abs(float64(v - c))
						}
					}
					return sum, true
				}
			} else {
				run = 0
			}
		}
	}
	return 0, false
}

func localMax(response []float64, w, x, y int, r float64) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := response[(y+dy)*w+x+dx]
			if n > r {
				return false
			}
			// Equal responses keep only the top-left occurrence.
			if n == r && (dy < 0 || (dy == 0 && dx < 0)) {
				return false
			}
		}
	}
	return true
}

// orientation computes the intensity-centroid angle of the patch, so
// descriptors can be steered to the dominant direction.
func orientation(img *image.Gray, x, y int) float64 {
	var m10, m01 float64
	for dy := -centroidR; dy <= centroidR; dy++ {
		for dx := -centroidR; dx <= centroidR; dx++ {
			if dx*dx+dy*dy > centroidR*centroidR {
				continue
			}
			v := float64(img.Pix[(y+dy)*img.Stride+x+dx])
			m10 += float64(dx) * v
			m01 += float64(dy) * v
		}
	}
	return math.Atan2(m01, m10)
}
