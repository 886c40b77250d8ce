package feature

import (
	"image"
	"math"
	"math/rand"
)

// descriptorBytes is the descriptor length: 256 comparisons packed into
// 32 bytes.
const descriptorBytes = 32

const patchRadius = 15

// Descriptor is a 256-bit binary patch signature.
type Descriptor [descriptorBytes]byte

// samplingPairs is the fixed point-pair pattern shared by every
// descriptor. It is generated once from a constant seed so descriptors
// are comparable across processes.
var samplingPairs = makeSamplingPairs()

func makeSamplingPairs() [256][4]float64 {
	rng := rand.New(rand.NewSource(0x5ca1ab1e))
	var pairs [256][4]float64
	for i := range pairs {
		for j := 0; j < 4; j++ {
			// Gaussian spread concentrated near the patch center,
			// clamped inside the patch.
			v := rng.NormFloat64() * float64(patchRadius) / 2.5
			if v > patchRadius-1 {
				v = patchRadius - 1
			}
			if v < -(patchRadius - 1) {
				v = -(patchRadius - 1)
			}
			pairs[i][j] = v
		}
	}
	return pairs
}

// Compute builds the steered descriptor at kp. It reports false when
// the patch does not fit inside the image.
func Compute(img *image.Gray, kp Keypoint) (Descriptor, bool) {
	var d Descriptor
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if kp.X < patchRadius+1 || kp.Y < patchRadius+1 ||
		kp.X >= w-patchRadius-1 || kp.Y >= h-patchRadius-1 {
		return d, false
	}
	sin, cos := math.Sincos(kp.Angle)
	at := func(dx, dy float64) uint8 {
		// Rotate the sampling offset by the keypoint orientation.
		rx := kp.X + int(math.Round(dx*cos-dy*sin))
		ry := kp.Y + int(math.Round(dx*sin+dy*cos))
		return img.Pix[ry*img.Stride+rx]
	}
	for i, p := range samplingPairs {
		if at(p[0], p[1]) < at(p[2], p[3]) {
			d[i/8] |= 1 << uint(i%8)
		}
	}
	return d, true
}

// Describe computes descriptors for each keypoint, dropping keypoints
// whose patch falls outside the image. The returned slices are parallel.
func Describe(img *image.Gray, kps []Keypoint) ([]Keypoint, []Descriptor) {
	kept := make([]Keypoint, 0, len(kps))
	descs := make([]Descriptor, 0, len(kps))
	for _, kp := range kps {
		if d, ok := Compute(img, kp); ok {
			kept = append(kept, kp)
			descs = append(descs, d)
		}
	}
	return kept, descs
}
