package mldetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphtech/symscan/internal/detect"
	"github.com/glyphtech/symscan/internal/utils"
)

func TestConfigEnabled(t *testing.T) {
	assert.False(t, DefaultConfig().Enabled())

	cfg := DefaultConfig()
	cfg.ModelPath = "model.onnx"
	assert.True(t, cfg.Enabled())
}

func TestNew_DisabledConfig(t *testing.T) {
	d, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, d)

	// A nil detector is inert, not a crash.
	require.NoError(t, d.Close())
	dets, err := d.Detect(nil)
	require.NoError(t, err)
	assert.Nil(t, dets)
}

// probMap builds a w*h map at background probability with one hot
// rectangle.
func probMap(w, h int, rect utils.Box, hot float32) []float32 {
	prob := make([]float32, w*h)
	for y := int(rect.MinY); y < int(rect.MaxY); y++ {
		for x := int(rect.MinX); x < int(rect.MaxX); x++ {
			prob[y*w+x] = hot
		}
	}
	return prob
}

func TestRegionsFromProbMap_SingleRegion(t *testing.T) {
	prob := probMap(40, 30, utils.NewBox(5, 5, 15, 12), 0.9)

	dets := regionsFromProbMap(prob, 40, 30, 0.5, 16)
	require.Len(t, dets, 1)

	d := dets[0]
	assert.Equal(t, utils.NewBox(5, 5, 15, 12), d.Box)
	assert.InDelta(t, 0.9, d.Score, 1e-6)
	assert.Equal(t, detect.MethodML, d.Method)
}

func TestRegionsFromProbMap_DropsSmallRegions(t *testing.T) {
	prob := probMap(40, 30, utils.NewBox(0, 0, 3, 3), 0.99)
	assert.Empty(t, regionsFromProbMap(prob, 40, 30, 0.5, 16))
}

func TestRegionsFromProbMap_BelowThreshold(t *testing.T) {
	prob := probMap(40, 30, utils.NewBox(5, 5, 20, 20), 0.4)
	assert.Empty(t, regionsFromProbMap(prob, 40, 30, 0.5, 16))
}

func TestRegionsFromProbMap_SeparatesRegionsAcrossRows(t *testing.T) {
	// Two hot regions, one ending at the right edge and one starting at
	// the left edge of the next rows; row wrap must not join them.
	w, h := 20, 20
	prob := make([]float32, w*h)
	for y := 0; y < 6; y++ {
		for x := 14; x < 20; x++ {
			prob[y*w+x] = 1
		}
	}
	for y := 6; y < 12; y++ {
		for x := 0; x < 6; x++ {
			prob[y*w+x] = 1
		}
	}

	dets := regionsFromProbMap(prob, w, h, 0.5, 16)
	require.Len(t, dets, 2)
}

func TestRegionsFromProbMap_ScoreIsMeanProbability(t *testing.T) {
	w, h := 10, 10
	prob := make([]float32, w*h)
	// A 5x5 region, half at 0.6 and half at 1.0.
	vals := []float32{0.6, 1.0}
	i := 0
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			prob[y*w+x] = vals[i%2]
			i++
		}
	}

	dets := regionsFromProbMap(prob, w, h, 0.5, 16)
	require.Len(t, dets, 1)
	// 13 cells at 0.6 and 12 at 1.0.
	assert.InDelta(t, (13*0.6+12*1.0)/25, dets[0].Score, 1e-6)
}
