package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHamming(t *testing.T) {
	var a, b Descriptor
	assert.Equal(t, 0, hamming(a, b))

	b[0] = 0xFF
	assert.Equal(t, 8, hamming(a, b))

	a[0] = 0x0F
	assert.Equal(t, 4, hamming(a, b))

	for i := range a {
		a[i] = 0x00
		b[i] = 0xFF
	}
	assert.Equal(t, 256, hamming(a, b))
}

func TestMatchMutual_IdenticalSets(t *testing.T) {
	kps := []Keypoint{{X: 10, Y: 10}, {X: 20, Y: 30}, {X: 40, Y: 5}}
	descs := []Descriptor{{0x01}, {0xF0}, {0xFF, 0xFF}}

	matches := matchMutual(kps, descs, kps, descs)
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Equal(t, kps[i], m.from)
		assert.Equal(t, kps[i], m.to)
	}
}

func TestMatchMutual_Empty(t *testing.T) {
	kps := []Keypoint{{X: 1, Y: 1}}
	descs := []Descriptor{{0x01}}

	assert.Nil(t, matchMutual(nil, nil, kps, descs))
	assert.Nil(t, matchMutual(kps, descs, nil, nil))
}

func TestHomographyDLT_Identity(t *testing.T) {
	corr := func(x, y int) correspondence {
		return correspondence{from: Keypoint{X: x, Y: y}, to: Keypoint{X: x, Y: y}}
	}
	h, ok := homographyDLT(corr(0, 0), corr(100, 0), corr(100, 100), corr(0, 100))
	require.True(t, ok)

	for _, p := range [][2]float64{{0, 0}, {50, 25}, {100, 100}, {13, 87}} {
		x, y, ok := project(h[:], p[0], p[1])
		require.True(t, ok)
		assert.InDelta(t, p[0], x, 1e-6)
		assert.InDelta(t, p[1], y, 1e-6)
	}
}

func TestHomographyDLT_Translation(t *testing.T) {
	corr := func(x, y int) correspondence {
		return correspondence{
			from: Keypoint{X: x, Y: y},
			to:   Keypoint{X: x + 12, Y: y + 7},
		}
	}
	h, ok := homographyDLT(corr(0, 0), corr(60, 0), corr(60, 60), corr(0, 60))
	require.True(t, ok)

	x, y, ok := project(h[:], 30, 30)
	require.True(t, ok)
	assert.InDelta(t, 42.0, x, 1e-6)
	assert.InDelta(t, 37.0, y, 1e-6)
}

func TestHomographyDLT_RejectsCollinearPoints(t *testing.T) {
	corr := func(x, y int) correspondence {
		return correspondence{from: Keypoint{X: x, Y: y}, to: Keypoint{X: x, Y: y}}
	}
	_, ok := homographyDLT(corr(0, 0), corr(10, 10), corr(20, 20), corr(30, 30))
	assert.False(t, ok)
}

func TestProject_DegenerateDenominator(t *testing.T) {
	h := []float64{1, 0, 0, 0, 1, 0, 0, 0, 0}
	_, _, ok := project(h, 5, 5)
	assert.False(t, ok)
}

func TestRansacHomography_PureTranslation(t *testing.T) {
	var matches []correspondence
	for y := 0; y < 40; y += 10 {
		for x := 0; x < 40; x += 10 {
			matches = append(matches, correspondence{
				from: Keypoint{X: x, Y: y},
				to:   Keypoint{X: x + 15, Y: y + 9},
			})
		}
	}

	h, inliers := ransacHomography(matches)
	require.NotNil(t, h)
	assert.Equal(t, len(matches), inliers)

	x, y, ok := project(h, 20, 20)
	require.True(t, ok)
	assert.InDelta(t, 35.0, x, maxReprojError)
	assert.InDelta(t, 29.0, y, maxReprojError)
}

func TestRansacHomography_TooFewMatches(t *testing.T) {
	matches := []correspondence{
		{from: Keypoint{X: 0, Y: 0}, to: Keypoint{X: 1, Y: 1}},
		{from: Keypoint{X: 5, Y: 5}, to: Keypoint{X: 6, Y: 6}},
	}
	h, inliers := ransacHomography(matches)
	assert.Nil(t, h)
	assert.Zero(t, inliers)
}

func TestRansacHomography_Deterministic(t *testing.T) {
	var matches []correspondence
	for i := 0; i < 20; i++ {
		matches = append(matches, correspondence{
			from: Keypoint{X: i * 7 % 50, Y: i * 13 % 50},
			to:   Keypoint{X: i*7%50 + 4, Y: i*13%50 + 2},
		})
	}
	h1, in1 := ransacHomography(matches)
	h2, in2 := ransacHomography(matches)
	require.NotNil(t, h1)
	assert.Equal(t, in1, in2)
	assert.Equal(t, h1, h2)
}
