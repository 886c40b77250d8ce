package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glyphtech/symscan/internal/confidence"
	"github.com/glyphtech/symscan/internal/raster"
	"github.com/glyphtech/symscan/internal/utils"
)

// Template is one named symbol exemplar to search for.
type Template struct {
	Name  string
	Image *image.Gray
	// Source records whether the exemplar came from exact geometry or
	// from pixels, which weights its confidence.
	Source confidence.SourceType
}

// NewTemplate wraps an already decoded exemplar image.
func NewTemplate(name string, img image.Image, source confidence.SourceType) Template {
	return Template{
		Name:   name,
		Image:  raster.FromImage(img, 0).Gray,
		Source: source,
	}
}

// LoadTemplateFile reads one exemplar image, named after its file stem.
func LoadTemplateFile(path string) (Template, error) {
	img, err := utils.LoadImage(path)
	if err != nil {
		return Template{}, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewTemplate(name, img, confidence.SourceRaster), nil
}

// LoadTemplateDir reads every supported image in dir as a template,
// sorted by name. It fails with ErrNoTemplates when none are found.
func LoadTemplateDir(dir string) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory %s: %w", dir, err)
	}
	var templates []Template
	for _, e := range entries {
		if e.IsDir() || !utils.IsSupportedImage(e.Name()) {
			continue
		}
		t, err := LoadTemplateFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: no usable images in %s", ErrNoTemplates, dir)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}
