package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/pdf"
	"github.com/glyphtech/symscan/internal/raster"
	"github.com/glyphtech/symscan/internal/utils"
)

// AnnotateOptions controls the rendered review output.
type AnnotateOptions struct {
	// Dir receives one PNG per page that had detections.
	Dir string
	// SaveCrops additionally writes each detection as its own image.
	SaveCrops bool
	// Thickness is the outline width in pixels. Zero means 3.
	Thickness int
}

// bandColor maps a confidence band to its review outline color.
func bandColor(b confidence.Band) color.RGBA {
	switch b {
	case confidence.BandHigh:
		return color.RGBA{0, 170, 0, 255}
	case confidence.BandMedium:
		return color.RGBA{230, 140, 0, 255}
	default:
		return color.RGBA{200, 0, 0, 255}
	}
}

// Annotate re-renders the counted pages with detection outlines, color
// coded by confidence band, and writes them under opts.Dir. It returns
// the paths written. Pages without detections are skipped.
func (p *Pipeline) Annotate(ctx context.Context, pdfPath string, res *Result, opts AnnotateOptions) ([]string, error) {
	if res == nil || opts.Dir == "" {
		return nil, nil
	}
	if opts.Thickness <= 0 {
		opts.Thickness = 3
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create annotation dir: %w", err)
	}
	doc, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, pr := range res.Pages {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if len(pr.Symbols) == 0 {
			continue
		}
		page, err := raster.Rasterize(doc, pr.Page-1, res.DPI)
		if err != nil {
			return written, fmt.Errorf("page %d: %w", pr.Page, err)
		}
		canvas := image.NewRGBA(page.Gray.Bounds())
		draw.Draw(canvas, canvas.Bounds(), page.Gray, page.Gray.Bounds().Min, draw.Src)

		for _, sym := range pr.Symbols {
			for i, det := range sym.Detections {
				rect := det.Box.ToRect(canvas.Bounds())
				utils.DrawRect(canvas, rect, bandColor(det.Band), opts.Thickness)

				if opts.SaveCrops {
					crop := utils.CropImageBox(page.Gray, det.Box)
					cropPath := filepath.Join(opts.Dir,
						fmt.Sprintf("page_%03d_%s_%02d.png", pr.Page, sym.Name, i+1))
					if err := utils.SaveImagePNG(crop, cropPath); err != nil {
						return written, err
					}
					written = append(written, cropPath)
				}
			}
		}

		pagePath := filepath.Join(opts.Dir, fmt.Sprintf("page_%03d.png", pr.Page))
		if err := utils.SaveImagePNG(canvas, pagePath); err != nil {
			return written, err
		}
		written = append(written, pagePath)
	}
	return written, nil
}
