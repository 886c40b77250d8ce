package utils

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("symbol.png"))
	assert.True(t, IsSupportedImage("SCAN.JPG"))
	assert.True(t, IsSupportedImage("patch.bmp"))
	assert.False(t, IsSupportedImage("drawing.pdf"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestSaveAndLoadImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}

	path := filepath.Join(t.TempDir(), "nested", "out.png")
	require.NoError(t, SaveImagePNG(img, path))

	back, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 8, back.Bounds().Dx())
	assert.Equal(t, 6, back.Bounds().Dy())
}

func TestLoadImage_Errors(t *testing.T) {
	_, err := LoadImage("")
	assert.Error(t, err)

	_, err = LoadImage("file.tiff")
	var perr *ImageProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Operation)

	_, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	img, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestSaveImagePNG_NilImage(t *testing.T) {
	err := SaveImagePNG(nil, filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}
