// Package raster renders extracted page geometry into grayscale images
// at a requested resolution. Rendering is deterministic: the same
// document and settings always produce identical pixels.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/utils"
)

// DefaultDPI is the resolution used when none is configured.
const DefaultDPI = 300

// Raster is a rendered page or page region.
type Raster struct {
	Gray *image.Gray
	// DPI is the resolution the image was rendered at.
	DPI float64
	// Origin is the page-point coordinate of the image's top-left pixel.
	Origin utils.Point
}

// Width returns the pixel width.
func (r *Raster) Width() int { return r.Gray.Rect.Dx() }

// Height returns the pixel height.
func (r *Raster) Height() int { return r.Gray.Rect.Dy() }

// ToPageBox converts a pixel-space box back to page points.
func (r *Raster) ToPageBox(b utils.Box) utils.Box {
	s := 72.0 / r.DPI
	return utils.Box{
		MinX: r.Origin.X + b.MinX*s,
		MinY: r.Origin.Y + b.MinY*s,
		MaxX: r.Origin.X + b.MaxX*s,
		MaxY: r.Origin.Y + b.MaxY*s,
	}
}

// Rasterize renders a full page of doc at the given resolution.
// pageIndex is zero-based.
func Rasterize(doc *pdf.Document, pageIndex int, dpi float64) (*Raster, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	w, h, err := doc.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	prims, err := doc.ExtractPrimitives(pageIndex)
	if err != nil {
		return nil, err
	}

	scale := dpi / 72.0
	pxW := int(math.Ceil(w * scale))
	pxH := int(math.Ceil(h * scale))
	if pxW < 1 {
		pxW = 1
	}
	if pxH < 1 {
		pxH = 1
	}

	img := newWhite(pxW, pxH)
	rd := renderer{img: img, scale: scale}
	for i := range prims {
		rd.drawPrimitive(&prims[i])
	}
	return &Raster{Gray: img, DPI: dpi}, nil
}

// RasterizeClip renders only the region of the page covered by clip,
// expanded by padPts points on every side and clamped to the page. The
// returned raster records the page-point origin of its top-left pixel.
func RasterizeClip(doc *pdf.Document, pageIndex int, dpi float64, clip utils.Box, padPts float64) (*Raster, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	w, h, err := doc.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	prims, err := doc.ExtractPrimitives(pageIndex)
	if err != nil {
		return nil, err
	}

	region := utils.Box{
		MinX: math.Max(0, clip.MinX-padPts),
		MinY: math.Max(0, clip.MinY-padPts),
		MaxX: math.Min(w, clip.MaxX+padPts),
		MaxY: math.Min(h, clip.MaxY+padPts),
	}
	if region.Empty() {
		return nil, fmt.Errorf("clip region %v lies outside the page", clip)
	}

	scale := dpi / 72.0
	pxW := int(math.Ceil(region.Width() * scale))
	pxH := int(math.Ceil(region.Height() * scale))
	if pxW < 1 {
		pxW = 1
	}
	if pxH < 1 {
		pxH = 1
	}

	img := newWhite(pxW, pxH)
	rd := renderer{img: img, scale: scale, offX: region.MinX, offY: region.MinY}
	keep := utils.Box{
		MinX: region.MinX - padPts,
		MinY: region.MinY - padPts,
		MaxX: region.MaxX + padPts,
		MaxY: region.MaxY + padPts,
	}
	for i := range prims {
		if !boxesOverlap(prims[i].Rect, keep) {
			continue
		}
		rd.drawPrimitive(&prims[i])
	}
	return &Raster{Gray: img, DPI: dpi, Origin: utils.Point{X: region.MinX, Y: region.MinY}}, nil
}

// FromImage wraps an already decoded image, converting it to grayscale.
func FromImage(img image.Image, dpi float64) *Raster {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return &Raster{Gray: gray, DPI: dpi}
}

func newWhite(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func boxesOverlap(a, b utils.Box) bool {
	return a.MinX < b.MaxX && b.MinX < a.MaxX && a.MinY < b.MaxY && b.MinY < a.MaxY
}
