package testutil

import (
	"image"
	"math"
)

// NewWhiteGray returns a w by h grayscale image filled with white.
func NewWhiteGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

// FillRect paints a solid rectangle of the given gray value.
func FillRect(img *image.Gray, x, y, w, h int, v uint8) {
	for yy := y; yy < y+h; yy++ {
		if yy < 0 || yy >= img.Rect.Dy() {
			continue
		}
		for xx := x; xx < x+w; xx++ {
			if xx < 0 || xx >= img.Rect.Dx() {
				continue
			}
			img.Pix[yy*img.Stride+xx] = v
		}
	}
}

// DrawRing paints a circle outline of the given thickness, useful for
// making distinctive corner-rich test symbols.
func DrawRing(img *image.Gray, cx, cy, r, thickness int, v uint8) {
	rOut := float64(r)
	rIn := float64(r - thickness)
	for y := cy - r; y <= cy+r; y++ {
		if y < 0 || y >= img.Rect.Dy() {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < 0 || x >= img.Rect.Dx() {
				continue
			}
			d := math.Hypot(float64(x-cx), float64(y-cy))
			if d <= rOut && d >= rIn {
				img.Pix[y*img.Stride+x] = v
			}
		}
	}
}

// CopyPatch stamps src onto dst with its top-left corner at (x, y).
func CopyPatch(dst, src *image.Gray, x, y int) {
	for sy := 0; sy < src.Rect.Dy(); sy++ {
		dy := y + sy
		if dy < 0 || dy >= dst.Rect.Dy() {
			continue
		}
		for sx := 0; sx < src.Rect.Dx(); sx++ {
			dx := x + sx
			if dx < 0 || dx >= dst.Rect.Dx() {
				continue
			}
			dst.Pix[dy*dst.Stride+dx] = src.Pix[sy*src.Stride+sx]
		}
	}
}
