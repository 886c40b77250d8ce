package raster

import (
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"

	"github.com/glyphtech/symscan/internal/mempool"
	"github.com/glyphtech/symscan/internal/utils"
)

// PatchConfig tunes the ink-blob patch extractor used when a page has
// no usable vector geometry.
type PatchConfig struct {
	// BlurSigma smooths rendering noise before thresholding.
	BlurSigma float64 `mapstructure:"blur_sigma" yaml:"blur_sigma"`
	// InkLevel is the grayscale cutoff: pixels at or below it count as ink.
	InkLevel uint8 `mapstructure:"ink_level" yaml:"ink_level"`
	// MinAreaPx drops blobs smaller than this many pixels.
	MinAreaPx int `mapstructure:"min_area_px" yaml:"min_area_px"`
	// MaxPageFraction drops blobs covering more than this fraction of
	// the image, such as frames.
	MaxPageFraction float64 `mapstructure:"max_page_fraction" yaml:"max_page_fraction"`
	// MinExtentPx drops blobs narrower or shorter than this.
	MinExtentPx int `mapstructure:"min_extent_px" yaml:"min_extent_px"`
}

// DefaultPatchConfig matches vector-side filtering scaled to pixels.
func DefaultPatchConfig() PatchConfig {
	return PatchConfig{
		BlurSigma:       1.0,
		InkLevel:        200,
		MinAreaPx:       64,
		MaxPageFraction: 0.3,
		MinExtentPx:     8,
	}
}

// ExtractPatches segments a rendered page into connected ink blobs and
// returns their pixel-space bounding boxes, largest first by area. The
// boxes serve as raster-sourced symbol candidates.
func ExtractPatches(r *Raster, cfg PatchConfig) []utils.Box {
	w, h := r.Width(), r.Height()
	if w == 0 || h == 0 {
		return nil
	}

	src := r.Gray
	if cfg.BlurSigma > 0 {
		src = FromImage(blur.Gaussian(r.Gray, cfg.BlurSigma), r.DPI).Gray
	}
	// segment.Threshold maps pixels above the level to white; ink ends
	// up black.
	bin := segment.Threshold(src, cfg.InkLevel)

	mask := mempool.GetBool(w * h)
	defer mempool.PutBool(mask)
	for y := 0; y < h; y++ {
		row := y * bin.Stride
		for x := 0; x < w; x++ {
			mask[y*w+x] = bin.Pix[row+x] == 0
		}
	}

	maxArea := int(cfg.MaxPageFraction * float64(w*h))
	visited := mempool.GetBool(w * h)
	defer mempool.PutBool(visited)
	queue := make([]int, 0, 1024)
	var boxes []utils.Box

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		queue = append(queue[:0], start)
		visited[start] = true
		count := 0
		minX, minY := w, h
		maxX, maxY := 0, 0
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			count++
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				if n < 0 || n >= w*h || visited[n] || !mask[n] {
					continue
				}
				if (n == i-1 || n == i+1) && n/w != y {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}
		bw, bh := maxX-minX+1, maxY-minY+1
		if count < cfg.MinAreaPx || bw < cfg.MinExtentPx || bh < cfg.MinExtentPx {
			continue
		}
		if maxArea > 0 && bw*bh > maxArea {
			continue
		}
		boxes = append(boxes, utils.Box{
			MinX: float64(minX), MinY: float64(minY),
			MaxX: float64(maxX + 1), MaxY: float64(maxY + 1),
		})
	}

	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Area() > boxes[j].Area()
	})
	return boxes
}

// CropPatch cuts a patch out of the raster as its own template image.
func (r *Raster) CropPatch(b utils.Box) *Raster {
	rect := b.ToRect(r.Gray.Rect)
	sub := r.Gray.SubImage(rect)
	out := FromImage(sub, r.DPI)
	s := 72.0 / r.DPI
	out.Origin = utils.Point{
		X: r.Origin.X + float64(rect.Min.X)*s,
		Y: r.Origin.Y + float64(rect.Min.Y)*s,
	}
	return out
}
