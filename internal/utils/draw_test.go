package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCropImageRect(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 40, 40))
	got := CropImageRect(src, image.Rect(10, 10, 30, 25))
	assert.Equal(t, 20, got.Bounds().Dx())
	assert.Equal(t, 15, got.Bounds().Dy())
}

func TestCropImageRect_ClampsToBounds(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	got := CropImageRect(src, image.Rect(10, 10, 50, 50))
	assert.Equal(t, 10, got.Bounds().Dx())
	assert.Equal(t, 10, got.Bounds().Dy())

	empty := CropImageRect(src, image.Rect(30, 30, 40, 40))
	assert.True(t, empty.Bounds().Empty())
}

func TestCropImageBox(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 100, 100))
	got := CropImageBox(src, Box{MinX: 5, MinY: 5, MaxX: 25, MaxY: 15})
	assert.Equal(t, 20, got.Bounds().Dx())
	assert.Equal(t, 10, got.Bounds().Dy())
}

func TestDrawRect(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 30, 30))
	red := color.RGBA{255, 0, 0, 255}
	DrawRect(dst, image.Rect(5, 5, 25, 25), red, 2)

	assert.Equal(t, red, dst.RGBAAt(5, 5), "top-left corner")
	assert.Equal(t, red, dst.RGBAAt(24, 24), "bottom-right corner")
	assert.Equal(t, red, dst.RGBAAt(6, 15), "second ring of left edge")
	assert.NotEqual(t, red, dst.RGBAAt(15, 15), "interior untouched")
	assert.NotEqual(t, red, dst.RGBAAt(4, 4), "outside untouched")
}

func TestDrawRect_OutsideBoundsIsNoOp(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.NotPanics(t, func() {
		DrawRect(dst, image.Rect(20, 20, 30, 30), color.White, 1)
		DrawRect(dst, image.Rect(0, 0, 10, 10), color.White, 0)
	})
}
