package feature

import (
	"image"
	"math"
	"math/bits"
	"math/rand"

	"github.com/glyphtech/symscan/internal/detect"
	"github.com/glyphtech/symscan/internal/utils"
)

const (
	// DefaultMinMatches is the minimum number of mutual matches
	// required before a homography is attempted.
	DefaultMinMatches = 10

	maxReprojError = 5.0
	ransacRounds   = 600
	maxKeypoints   = 1500
)

// correspondence pairs a template keypoint with a page keypoint.
type correspondence struct {
	from, to Keypoint
}

func hamming(a, b Descriptor) int {
	n := 0
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return n
}

// matchMutual returns pairs that are each other's nearest descriptor in
// both directions, the binary analogue of cross-checked matching.
func matchMutual(aK []Keypoint, aD []Descriptor, bK []Keypoint, bD []Descriptor) []correspondence {
	if len(aD) == 0 || len(bD) == 0 {
		return nil
	}
	bestAB := make([]int, len(aD))
	for i := range aD {
		best, bestDist := -1, math.MaxInt
		for j := range bD {
			if d := hamming(aD[i], bD[j]); d < bestDist {
				best, bestDist = j, d
			}
		}
		bestAB[i] = best
	}
	bestBA := make([]int, len(bD))
	for j := range bD {
		best, bestDist := -1, math.MaxInt
		for i := range aD {
			if d := hamming(aD[i], bD[j]); d < bestDist {
				best, bestDist = i, d
			}
		}
		bestBA[j] = best
	}
	var out []correspondence
	for i, j := range bestAB {
		if j >= 0 && bestBA[j] == i {
			out = append(out, correspondence{from: aK[i], to: bK[j]})
		}
	}
	return out
}

// Match looks for one instance of template inside img. It reports false
// when too few correspondences survive or no consistent homography
// exists. A found detection carries the fixed feature-path score.
func Match(img, template *image.Gray, minMatches int) (detect.Detection, bool) {
	if minMatches <= 0 {
		minMatches = DefaultMinMatches
	}
	tK := DetectCorners(template, 0, maxKeypoints)
	iK := DetectCorners(img, 0, maxKeypoints)
	tK, tD := Describe(template, tK)
	iK, iD := Describe(img, iK)

	matches := matchMutual(tK, tD, iK, iD)
	if len(matches) < minMatches {
		return detect.Detection{}, false
	}

	H, inliers := ransacHomography(matches)
	if H == nil || inliers < minMatches/2 || inliers < 4 {
		return detect.Detection{}, false
	}

	// Project the template corners through the homography and take
	// their bounding box as the detection region.
	tw := float64(template.Rect.Dx())
	th := float64(template.Rect.Dy())
	corners := [4][2]float64{{0, 0}, {tw, 0}, {tw, th}, {0, th}}
	var pts []utils.Point
	for _, c := range corners {
		x, y, ok := project(H, c[0], c[1])
		if !ok {
			return detect.Detection{}, false
		}
		pts = append(pts, utils.Point{X: x, Y: y})
	}
	box := utils.BoundingBox(pts)
	iw, ih := float64(img.Rect.Dx()), float64(img.Rect.Dy())
	box = utils.Box{
		MinX: math.Max(0, box.MinX), MinY: math.Max(0, box.MinY),
		MaxX: math.Min(iw, box.MaxX), MaxY: math.Min(ih, box.MaxY),
	}
	if box.Empty() {
		return detect.Detection{}, false
	}
	return detect.Detection{
		Box:    box,
		Score:  1.0,
		Method: detect.MethodFeature,
	}, true
}

// ransacHomography fits a 4-point homography with a fixed-seed RANSAC
// loop, keeping the sample model with the most inliers.
func ransacHomography(matches []correspondence) ([]float64, int) {
	if len(matches) < 4 {
		return nil, 0
	}
	rng := rand.New(rand.NewSource(42))
	bestInliers := 0
	var bestH [9]float64
	found := false

	for round := 0; round < ransacRounds; round++ {
		idx := rng.Perm(len(matches))[:4]
		H, ok := homographyDLT(
			matches[idx[0]], matches[idx[1]], matches[idx[2]], matches[idx[3]])
		if !ok {
			continue
		}
		inliers := 0
		for _, m := range matches {
			x, y, ok := project(H[:], float64(m.from.X), float64(m.from.Y))
			if !ok {
				continue
			}
			dx := x - float64(m.to.X)
			dy := y - float64(m.to.Y)
			if dx*dx+dy*dy <= maxReprojError*maxReprojError {
				inliers++
			}
		}
		if inliers > bestInliers {
			bestInliers = inliers
			bestH = H
			found = true
		}
	}
	if !found {
		return nil, 0
	}
	return bestH[:], bestInliers
}

// homographyDLT solves the exact 4-point homography with h33 fixed to 1
// by Gaussian elimination on the 8x8 system.
func homographyDLT(m0, m1, m2, m3 correspondence) ([9]float64, bool) {
	ms := [4]correspondence{m0, m1, m2, m3}
	var a [8][9]float64
	for i, m := range ms {
		sx, sy := float64(m.from.X), float64(m.from.Y)
		dx, dy := float64(m.to.X), float64(m.to.Y)
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}
	// Forward elimination with partial pivoting.
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-10 {
			return [9]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := col + 1; r < 8; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= 8; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	var h [9]float64
	h[8] = 1
	for r := 7; r >= 0; r-- {
		v := a[r][8]
		for c := r + 1; c < 8; c++ {
			v -= a[r][c] * h[c]
		}
		h[r] = v / a[r][r]
	}
	return h, true
}

func project(h []float64, x, y float64) (float64, float64, bool) {
	w := h[6]*x + h[7]*y + h[8]
	if math.Abs(w) < 1e-10 {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w, true
}
