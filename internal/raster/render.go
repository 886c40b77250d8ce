package raster

import (
	"image"
	"math"
	"sort"

	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/utils"
)

const ink = 0x00

// renderer paints primitives onto a grayscale canvas. Coordinates are
// page points, translated by (offX, offY) and scaled to pixels.
type renderer struct {
	img   *image.Gray
	scale float64
	offX  float64
	offY  float64
}

func (r *renderer) toPx(p utils.Point) (float64, float64) {
	return (p.X - r.offX) * r.scale, (p.Y - r.offY) * r.scale
}

func (r *renderer) drawPrimitive(p *pdf.Primitive) {
	if p.Filled {
		r.fillEvenOdd(p.Subpaths)
	}
	if p.Stroked || !p.Filled {
		width := int(math.Round(p.StrokeWidth * r.scale))
		if width < 1 {
			width = 1
		}
		for _, sp := range p.Subpaths {
			r.strokePolyline(sp, width)
		}
	}
}

// fillEvenOdd rasterizes the union of subpaths with the even-odd rule,
// one scanline at a time. Crossings at each row center are collected,
// sorted, and paired into filled spans.
func (r *renderer) fillEvenOdd(subpaths [][]utils.Point) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, sp := range subpaths {
		for _, p := range sp {
			_, py := r.toPx(p)
			if py < minY {
				minY = py
			}
			if py > maxY {
				maxY = py
			}
		}
	}
	if minY > maxY {
		return
	}
	y0 := int(math.Floor(minY))
	y1 := int(math.Ceil(maxY))
	if y0 < 0 {
		y0 = 0
	}
	if y1 >= r.img.Rect.Dy() {
		y1 = r.img.Rect.Dy() - 1
	}

	var xs []float64
	for y := y0; y <= y1; y++ {
		cy := float64(y) + 0.5
		xs = xs[:0]
		for _, sp := range subpaths {
			n := len(sp)
			if n < 2 {
				continue
			}
			for i := 0; i < n; i++ {
				ax, ay := r.toPx(sp[i])
				bx, by := r.toPx(sp[(i+1)%n])
				if (ay <= cy) == (by <= cy) {
					continue
				}
				t := (cy - ay) / (by - ay)
				xs = append(xs, ax+t*(bx-ax))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			r.fillSpan(y, xs[i], xs[i+1])
		}
	}
}

func (r *renderer) fillSpan(y int, x0, x1 float64) {
	a := int(math.Ceil(x0 - 0.5))
	b := int(math.Floor(x1 - 0.5))
	if a < 0 {
		a = 0
	}
	if b >= r.img.Rect.Dx() {
		b = r.img.Rect.Dx() - 1
	}
	for x := a; x <= b; x++ {
		r.img.Pix[y*r.img.Stride+x] = ink
	}
}

func (r *renderer) strokePolyline(pts []utils.Point, width int) {
	if len(pts) == 0 {
		return
	}
	if len(pts) == 1 {
		x, y := r.toPx(pts[0])
		r.plotThick(int(math.Round(x)), int(math.Round(y)), width)
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		ax, ay := r.toPx(pts[i])
		bx, by := r.toPx(pts[i+1])
		r.line(int(math.Round(ax)), int(math.Round(ay)),
			int(math.Round(bx)), int(math.Round(by)), width)
	}
}

// line draws with the integer Bresenham walk so identical inputs always
// touch identical pixels.
func (r *renderer) line(x0, y0, x1, y1, width int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.plotThick(x0, y0, width)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *renderer) plotThick(x, y, width int) {
	if width <= 1 {
		r.plot(x, y)
		return
	}
	half := width / 2
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			r.plot(x+dx, y+dy)
		}
	}
}

func (r *renderer) plot(x, y int) {
	if x < 0 || y < 0 || x >= r.img.Rect.Dx() || y >= r.img.Rect.Dy() {
		return
	}
	r.img.Pix[y*r.img.Stride+x] = ink
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
