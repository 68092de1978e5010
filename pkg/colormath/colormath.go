// Package colormath provides the scalar color helpers shared by the CPU stage
// library and the shader programs. All conversions operate on 0..1 floats.
package colormath

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// BT.601 luma weights.
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114
)

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

// ClampByte rounds v to the nearest integer and clamps it to 0..255.
func ClampByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Smoothstep is the Hermite step between edge0 and edge1.
// edge0 may be greater than edge1 for a falling step.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// Luma returns the BT.601 weighted luminance of r, g, b (any common scale).
func Luma(r, g, b float64) float64 {
	return LumaR*r + LumaG*g + LumaB*b
}

// RGBToHSL converts 0..1 RGB to hue (turns, 0..1), saturation and lightness.
func RGBToHSL(r, g, b float64) (h, s, l float64) {
	deg, s, l := colorful.Color{R: r, G: g, B: b}.Hsl()
	return WrapUnit(deg / 360), s, l
}

// HSLToRGB is the inverse of RGBToHSL. Hue is wrapped into 0..1.
func HSLToRGB(h, s, l float64) (r, g, b float64) {
	c := colorful.Hsl(WrapUnit(h)*360, s, l)
	return c.R, c.G, c.B
}

// WrapUnit wraps h into [0, 1).
func WrapUnit(h float64) float64 {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	return h
}

// WrapDegrees wraps d into [0, 360).
func WrapDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// HueDistance is the circular distance between two hues in degrees (0..180).
func HueDistance(a, b float64) float64 {
	d := math.Abs(WrapDegrees(a) - WrapDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// HueTint returns the fully saturated, mid-lightness color for hueDeg as 0..1 RGB.
func HueTint(hueDeg float64) (r, g, b float64) {
	c := colorful.Hsl(WrapDegrees(hueDeg), 1, 0.5)
	return c.R, c.G, c.B
}
