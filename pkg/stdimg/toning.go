package stdimg

import (
	"image"
	"math"

	"github.com/Fepozopo/darkroom/pkg/colormath"
	"github.com/Fepozopo/darkroom/pkg/params"
)

// ShadowTintCap limits the shadow tint channel shift to 30%.
const ShadowTintCap = 0.3

// SplitToner holds the precomputed tints of a split-tone setting.
type SplitToner struct {
	threshold          float64
	hiTint, shTint     [3]float64
	hiAmount, shAmount float64
}

// NewSplitToner prepares st for per-pixel use.
func NewSplitToner(st params.SplitToning) SplitToner {
	var s SplitToner
	s.threshold = 0.5 - st.Balance/200
	s.hiTint[0], s.hiTint[1], s.hiTint[2] = colormath.HueTint(st.HighlightHue)
	s.shTint[0], s.shTint[1], s.shTint[2] = colormath.HueTint(st.ShadowHue)
	s.hiAmount = st.HighlightSaturation / 100
	s.shAmount = st.ShadowSaturation / 100
	return s
}

// Pixel tints one pixel. Pixels at or above the balance threshold get the
// highlight tint, the rest the shadow tint; strength grows with distance
// from mid-gray.
func (s SplitToner) Pixel(r, g, b float64) (float64, float64, float64) {
	lum := colormath.Luma(r, g, b) / 255
	tint, amount := s.shTint, s.shAmount
	if lum >= s.threshold {
		tint, amount = s.hiTint, s.hiAmount
	}
	k := math.Abs(lum-0.5) * 2 * amount * 0.5 * 255
	return r + (tint[0]-0.5)*k, g + (tint[1]-0.5)*k, b + (tint[2]-0.5)*k
}

// SplitTone applies split toning in place.
func SplitTone(img *image.NRGBA, st params.SplitToning) {
	eachPixel(img, NewSplitToner(st).Pixel)
}

// ShadowTintPixel shifts dark pixels toward magenta (positive) or green
// (negative) by at most ShadowTintCap.
func ShadowTintPixel(tint, r, g, b float64) (float64, float64, float64) {
	lum := colormath.Luma(r, g, b) / 255
	s := colormath.Clamp(tint*(1-lum)*ShadowTintCap, -ShadowTintCap, ShadowTintCap)
	return r * (1 + s), g * (1 - s), b * (1 + s)
}

// ShadowTint applies ShadowTintPixel in place.
func ShadowTint(img *image.NRGBA, tint float64) {
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return ShadowTintPixel(tint, r, g, b)
	})
}
