package curves

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityCurveLUT(t *testing.T) {
	lut := BuildLUT(DefaultCurve())
	for i := 0; i < 256; i++ {
		require.Equal(t, uint8(i), lut[i], "index %d", i)
	}
}

func TestDegenerateCurvesAreIdentity(t *testing.T) {
	assert.Equal(t, Identity(), BuildLUT(nil))
	assert.Equal(t, Identity(), BuildLUT(Curve{{128, 40}}))
}

func TestLUTClampsOutsideRange(t *testing.T) {
	lut := BuildLUT(Curve{{50, 20}, {128, 128}, {200, 230}})
	for i := 0; i <= 50; i++ {
		assert.Equal(t, uint8(20), lut[i], "index %d", i)
	}
	for i := 200; i < 256; i++ {
		assert.Equal(t, uint8(230), lut[i], "index %d", i)
	}
	assert.Equal(t, uint8(128), lut[128])
}

func TestLUTPassesThroughControlPoints(t *testing.T) {
	c := Curve{{0, 0}, {64, 40}, {192, 220}, {255, 255}}
	lut := BuildLUT(c)
	assert.Equal(t, uint8(0), lut[0])
	assert.Equal(t, uint8(40), lut[64])
	assert.Equal(t, uint8(220), lut[192])
	assert.Equal(t, uint8(255), lut[255])
}

func TestUnsortedPointsAreSorted(t *testing.T) {
	a := BuildLUT(Curve{{255, 255}, {0, 0}, {128, 90}})
	b := BuildLUT(Curve{{0, 0}, {128, 90}, {255, 255}})
	assert.Equal(t, a, b)
}

func TestIsCurvesModified(t *testing.T) {
	c := DefaultCurves()
	assert.False(t, IsCurvesModified(c))
	c.Green = Curve{{0, 0}, {128, 140}, {255, 255}}
	assert.True(t, IsCurvesModified(c))
	c = DefaultCurves()
	c.RGB = Curve{{0, 10}, {255, 255}}
	assert.True(t, IsCurvesModified(c))
}

func TestCompose(t *testing.T) {
	var rgb, ch LUT
	for i := range rgb {
		rgb[i] = uint8(255 - i)
		ch[i] = uint8(i / 2)
	}
	out := Compose(rgb, ch)
	assert.Equal(t, uint8(127), out[0])
	assert.Equal(t, uint8(0), out[255])
}

func TestCacheRebuildsOnlyOnChange(t *testing.T) {
	var ca Cache
	c := DefaultCurves()
	c.Red = Curve{{0, 0}, {100, 150}, {255, 255}}
	first := ca.Get(c)
	again := ca.Get(c)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, ca.Builds())

	c.Red = Curve{{0, 0}, {100, 60}, {255, 255}}
	ca.Get(c)
	assert.Equal(t, 2, ca.Builds())
}

func TestNaNControlPointMapsToZero(t *testing.T) {
	lut := BuildLUT(Curve{{0, 0}, {128, math.NaN()}, {255, 255}})
	assert.Equal(t, uint8(0), lut[128])
	assert.Equal(t, uint8(255), lut[255])
}
