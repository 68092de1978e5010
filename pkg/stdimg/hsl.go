package stdimg

import (
	"image"
	"math"

	"github.com/Fepozopo/darkroom/pkg/colormath"
	"github.com/Fepozopo/darkroom/pkg/params"
)

// Band weighting: full weight within bandPlateau degrees of a band center,
// linear falloff to zero at bandFalloff.
const (
	bandPlateau = 15.0
	bandFalloff = 45.0
	// Pixels less saturated than this are left alone.
	hslMinSaturation = 0.05
	// Full-scale hue shift in degrees.
	hslHueRange = 30.0
)

// BandWeight is the influence of a band on a hue at circular distance d.
func BandWeight(d float64) float64 {
	switch {
	case d <= bandPlateau:
		return 1
	case d >= bandFalloff:
		return 0
	default:
		return (bandFalloff - d) / (bandFalloff - bandPlateau)
	}
}

// HSLDelta is a per-hue adjustment normalized to -1..1.
type HSLDelta struct {
	Hue, Saturation, Luminance float64
}

func (d HSLDelta) isZero() bool {
	return d.Hue == 0 && d.Saturation == 0 && d.Luminance == 0
}

// HSLTable holds the blended adjustment for every integer hue 0..359.
type HSLTable [360]HSLDelta

// BuildHSLTable blends the band adjustments for every hue. Overlapping bands
// contribute a weighted average.
func BuildHSLTable(bands map[params.Band]params.HSLAdjust) *HSLTable {
	var t HSLTable
	for h := 0; h < 360; h++ {
		var sum HSLDelta
		wsum := 0.0
		for _, band := range params.Bands {
			adj, ok := bands[band]
			if !ok || adj.IsZero() {
				continue
			}
			w := BandWeight(colormath.HueDistance(float64(h), params.BandCenter[band]))
			if w == 0 {
				continue
			}
			sum.Hue += w * adj.Hue / 100
			sum.Saturation += w * adj.Saturation / 100
			sum.Luminance += w * adj.Luminance / 100
			wsum += w
		}
		if wsum > 1 {
			sum.Hue /= wsum
			sum.Saturation /= wsum
			sum.Luminance /= wsum
		}
		t[h] = sum
	}
	return &t
}

// Adjust applies the delta to an HSL triple (hue in turns).
func (d HSLDelta) Adjust(h, s, l float64) (float64, float64, float64) {
	h = colormath.WrapUnit(h + d.Hue*hslHueRange/360)
	s = colormath.Clamp01(s * (1 + d.Saturation))
	l = colormath.Clamp01(l * (1 + d.Luminance*0.5))
	return h, s, l
}

// HSLPixel applies the table to one pixel (0..255 channels).
func (t *HSLTable) HSLPixel(r, g, b float64) (float64, float64, float64) {
	h, s, l := colormath.RGBToHSL(r/255, g/255, b/255)
	if s < hslMinSaturation {
		return r, g, b
	}
	idx := int(math.Floor(h*360)) % 360
	d := t[idx]
	if d.isZero() {
		return r, g, b
	}
	h, s, l = d.Adjust(h, s, l)
	r, g, b = colormath.HSLToRGB(h, s, l)
	return r * 255, g * 255, b * 255
}

// HSL applies per-color adjustments in place.
func HSL(img *image.NRGBA, t *HSLTable) {
	eachPixel(img, t.HSLPixel)
}
