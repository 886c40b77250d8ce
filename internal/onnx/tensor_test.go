package onnx

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageTensor(t *testing.T) {
	data := make([]float32, 2*3*4)
	tensor, err := NewImageTensor(data, 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, tensor.Shape)
	assert.Len(t, tensor.Data, 24)
}

func TestNewImageTensor_BadInput(t *testing.T) {
	_, err := NewImageTensor(nil, 1, 2, 2)
	assert.Error(t, err)

	_, err = NewImageTensor(make([]float32, 5), 1, 2, 2)
	assert.ErrorContains(t, err, "unexpected data length")
}

func TestGrayToTensor(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.Pix[0] = 255
	img.Pix[1*img.Stride+2] = 51

	tensor, err := GrayToTensor(img)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 2, 3}, tensor.Shape)
	require.Len(t, tensor.Data, 6)
	assert.InDelta(t, 1.0, tensor.Data[0], 1e-6)
	assert.InDelta(t, 0.2, tensor.Data[1*3+2], 1e-6)
	assert.Zero(t, tensor.Data[1])
}

func TestGrayToTensor_NonZeroOrigin(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4)).SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)

	tensor, err := GrayToTensor(img)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 2, 2}, tensor.Shape)
	assert.Len(t, tensor.Data, 4)
}

func TestValidateNCHW(t *testing.T) {
	assert.NoError(t, ValidateNCHW([]int64{1, 1, 64, 64}))
	assert.ErrorContains(t, ValidateNCHW([]int64{1, 64, 64}), "rank")
	assert.ErrorContains(t, ValidateNCHW([]int64{1, 0, 64, 64}), "dimension 1")
	assert.ErrorContains(t, ValidateNCHW([]int64{1, 1, -2, 64}), "dimension 2")
}
