package stdimg

import (
	"image"
	"math"

	"github.com/Fepozopo/darkroom/pkg/colormath"
	"github.com/Fepozopo/darkroom/pkg/params"
)

// ZoneMasks returns the shadow, midtone and highlight weights for a
// normalized luminance l.
func ZoneMasks(l float64) (shadow, mid, highlight float64) {
	shadow = 1 - colormath.Smoothstep(0, 0.5, l)
	highlight = colormath.Smoothstep(0.5, 1, l)
	mid = 1 - colormath.Smoothstep(0, 0.5, math.Abs(l-0.5))
	return
}

type gradeZone struct {
	tint      [3]float64
	amount    float64
	luminance float64
}

func newGradeZone(z params.Zone) gradeZone {
	var g gradeZone
	g.tint[0], g.tint[1], g.tint[2] = colormath.HueTint(z.Hue)
	g.amount = z.Saturation / 100
	g.luminance = z.Luminance / 100
	return g
}

// Grader holds a prepared color-grading setting.
type Grader struct {
	shadows, mid, highlights, global gradeZone
	blend, balance                   float64
}

// NewGrader prepares cg for per-pixel use.
func NewGrader(cg params.ColorGrading) Grader {
	return Grader{
		shadows:    newGradeZone(cg.Shadows),
		mid:        newGradeZone(cg.Midtones),
		highlights: newGradeZone(cg.Highlights),
		global:     newGradeZone(cg.Global),
		blend:      cg.Blending / 100,
		balance:    cg.Balance / 100 * 0.2,
	}
}

// Pixel grades one pixel (0..255 channels).
func (g Grader) Pixel(r, gr, b float64) (float64, float64, float64) {
	lum := colormath.Clamp01(colormath.Luma(r, gr, b)/255 + g.balance)
	sw, mw, hw := ZoneMasks(lum)

	shift := (g.shadows.luminance*sw + g.mid.luminance*mw +
		g.highlights.luminance*hw + g.global.luminance) * 0.2 * 255
	out := [3]float64{r + shift, gr + shift, b + shift}

	zones := [4]struct {
		z gradeZone
		w float64
	}{
		{g.shadows, sw},
		{g.mid, mw * g.blend},
		{g.highlights, hw},
		{g.global, g.blend},
	}
	for _, zw := range zones {
		k := zw.z.amount * zw.w * 0.3 * 255
		if k == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			out[c] += (zw.z.tint[c] - 0.5) * k
		}
	}
	return out[0], out[1], out[2]
}

// ColorGrade applies color grading in place.
func ColorGrade(img *image.NRGBA, cg params.ColorGrading) {
	eachPixel(img, NewGrader(cg).Pixel)
}

// Calibration primaries sit at 0, 120 and 240 degrees with a triangular
// membership 120 degrees wide.
const (
	calibrationWidth    = 120.0
	calibrationHueRange = 20.0
)

// CalibrationPixel shifts hue and saturation by primary membership, then
// applies the calibration shadow tint.
func CalibrationPixel(cc params.ColorCalibration, r, g, b float64) (float64, float64, float64) {
	h, s, l := colormath.RGBToHSL(r/255, g/255, b/255)
	if s > 0 {
		deg := h * 360
		var hueShift, satShift float64
		for i, pr := range [3]params.Primary{cc.Red, cc.Green, cc.Blue} {
			w := math.Max(0, 1-colormath.HueDistance(deg, float64(i)*120)/calibrationWidth)
			hueShift += w * pr.Hue / 100 * calibrationHueRange
			satShift += w * pr.Saturation / 100
		}
		h = colormath.WrapUnit(h + hueShift/360)
		s = colormath.Clamp01(s * (1 + satShift))
		r, g, b = colormath.HSLToRGB(h, s, l)
		r, g, b = r*255, g*255, b*255
	}
	if cc.ShadowTint != 0 {
		r, g, b = ShadowTintPixel(cc.ShadowTint/100, r, g, b)
	}
	return r, g, b
}

// Calibrate applies camera calibration in place.
func Calibrate(img *image.NRGBA, cc params.ColorCalibration) {
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return CalibrationPixel(cc, r, g, b)
	})
}
