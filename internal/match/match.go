// Package match implements multi-scale, multi-rotation template
// matching on grayscale rasters using normalized cross-correlation.
package match

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/glyphtech/symscan/internal/detect"
	"github.com/glyphtech/symscan/internal/mempool"
	"github.com/glyphtech/symscan/internal/utils"
)

var (
	// ErrEmptyParameterSet is returned when scales or rotations are empty.
	ErrEmptyParameterSet = errors.New("match: empty scale or rotation set")
	// ErrInvalidThreshold is returned when the score threshold is not
	// a valid correlation value.
	ErrInvalidThreshold = errors.New("match: threshold outside [-1, 1]")
)

// Options controls a matching pass.
type Options struct {
	// Scales are the template resize factors to try.
	Scales []float64
	// Rotations are template rotations in degrees.
	Rotations []float64
	// Threshold is the minimum correlation score to keep a candidate.
	Threshold float64
	// IoUThreshold is the overlap above which candidates are merged.
	IoUThreshold float64
}

// DefaultOptions mirrors the matcher's production configuration.
func DefaultOptions() Options {
	return Options{
		Scales:       []float64{0.5, 0.75, 1.0, 1.25, 1.5},
		Rotations:    []float64{0, 90, 180, 270},
		Threshold:    0.75,
		IoUThreshold: 0.25,
	}
}

// Validate checks the option set before any pixel work happens.
func (o Options) Validate() error {
	if len(o.Scales) == 0 || len(o.Rotations) == 0 {
		return ErrEmptyParameterSet
	}
	if o.Threshold < -1 || o.Threshold > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidThreshold, o.Threshold)
	}
	for _, s := range o.Scales {
		if s <= 0 {
			return fmt.Errorf("%w: scale %g", ErrEmptyParameterSet, s)
		}
	}
	return nil
}

// Match slides every scaled and rotated variant of template across img
// and returns the surviving detections after suppression, sorted by
// descending score.
func Match(img, template *image.Gray, opts Options) ([]detect.Detection, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if img == nil || template == nil ||
		img.Rect.Dx() == 0 || img.Rect.Dy() == 0 ||
		template.Rect.Dx() == 0 || template.Rect.Dy() == 0 {
		return nil, nil
	}

	plane := newScorePlane(img)
	defer plane.release()

	var candidates []detect.Detection
	for _, rot := range opts.Rotations {
		rotated := rotateGray(template, rot)
		for _, scale := range opts.Scales {
			variant := resizeGray(rotated, scale)
			if variant == nil {
				continue
			}
			if variant.Rect.Dx() > img.Rect.Dx() || variant.Rect.Dy() > img.Rect.Dy() {
				continue
			}
			candidates = append(candidates,
				plane.scan(variant, opts.Threshold, scale, rot)...)
		}
	}
	return detect.SuppressDetections(candidates, opts.IoUThreshold), nil
}

// rotateGray rotates by exact quarter turns when possible and falls
// back to interpolated rotation on a white background otherwise.
func rotateGray(g *image.Gray, degrees float64) *image.Gray {
	switch degrees {
	case 0:
		return g
	case 90:
		return toGray(imaging.Rotate90(g))
	case 180:
		return toGray(imaging.Rotate180(g))
	case 270:
		return toGray(imaging.Rotate270(g))
	default:
		return toGray(imaging.Rotate(g, degrees, color.White))
	}
}

func resizeGray(g *image.Gray, scale float64) *image.Gray {
	if scale == 1.0 {
		return g
	}
	w := int(float64(g.Rect.Dx()) * scale)
	h := int(float64(g.Rect.Dy()) * scale)
	if w < 1 || h < 1 {
		return nil
	}
	return toGray(imaging.Resize(g, w, h, imaging.Lanczos))
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return g
}

// scorePlane precomputes integral images of the search image so each
// window's mean and variance come from four lookups.
type scorePlane struct {
	img  *image.Gray
	sum  []float64
	sum2 []float64
	w, h int
}

func newScorePlane(img *image.Gray) *scorePlane {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	p := &scorePlane{
		img:  img,
		sum:  mempool.GetFloat64((w + 1) * (h + 1)),
		sum2: mempool.GetFloat64((w + 1) * (h + 1)),
		w:    w,
		h:    h,
	}
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum, rowSum2 float64
		for x := 0; x < w; x++ {
			v := float64(img.Pix[y*img.Stride+x])
			rowSum += v
			rowSum2 += v * v
			p.sum[(y+1)*stride+x+1] = p.sum[y*stride+x+1] + rowSum
			p.sum2[(y+1)*stride+x+1] = p.sum2[y*stride+x+1] + rowSum2
		}
	}
	return p
}

// release returns the integral-image buffers to the pool. The plane
// must not be used afterwards.
func (p *scorePlane) release() {
	mempool.PutFloat64(p.sum)
	mempool.PutFloat64(p.sum2)
	p.sum, p.sum2 = nil, nil
}

func (p *scorePlane) window(x, y, tw, th int) (sum, sum2 float64) {
	stride := p.w + 1
	sum = p.sum[(y+th)*stride+x+tw] - p.sum[y*stride+x+tw] -
		p.sum[(y+th)*stride+x] + p.sum[y*stride+x]
	sum2 = p.sum2[(y+th)*stride+x+tw] - p.sum2[y*stride+x+tw] -
		p.sum2[(y+th)*stride+x] + p.sum2[y*stride+x]
	return sum, sum2
}

// scan evaluates the mean-shifted normalized cross-correlation of tmpl
// at every placement and keeps placements scoring at or above threshold.
func (p *scorePlane) scan(tmpl *image.Gray, threshold, scale, rotation float64) []detect.Detection {
	tw, th := tmpl.Rect.Dx(), tmpl.Rect.Dy()
	n := float64(tw * th)

	var tSum, tSum2 float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			v := float64(tmpl.Pix[y*tmpl.Stride+x])
			tSum += v
			tSum2 += v * v
		}
	}
	tMean := tSum / n
	tVar := tSum2 - tSum*tSum/n
	if tVar <= 1e-9 {
		// A flat template correlates with nothing meaningful.
		return nil
	}
	tNorm := math.Sqrt(tVar)

	var out []detect.Detection
	for y := 0; y+th <= p.h; y++ {
		for x := 0; x+tw <= p.w; x++ {
			var cross float64
			for ty := 0; ty < th; ty++ {
				irow := (y+ty)*p.img.Stride + x
				trow := ty * tmpl.Stride
				for tx := 0; tx < tw; tx++ {
					cross += float64(p.img.Pix[irow+tx]) * float64(tmpl.Pix[trow+tx])
				}
			}
			wSum, wSum2 := p.window(x, y, tw, th)
			wVar := wSum2 - wSum*wSum/n
			if wVar <= 1e-9 {
				continue
			}
			score := (cross - wSum*tMean) / (tNorm * math.Sqrt(wVar))
			if score >= threshold {
				out = append(out, detect.Detection{
					Box: utils.Box{
						MinX: float64(x), MinY: float64(y),
						MaxX: float64(x + tw), MaxY: float64(y + th),
					},
					Score:    score,
					Method:   detect.MethodTemplate,
					Scale:    scale,
					Rotation: rotation,
				})
			}
		}
	}
	return out
}

