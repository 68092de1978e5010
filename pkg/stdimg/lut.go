package stdimg

import (
	"image"
	"math"

	"github.com/Fepozopo/darkroom/pkg/curves"
	"github.com/Fepozopo/darkroom/pkg/params"
)

// ChannelLUT holds one 256-entry table per color channel (R, G, B).
type ChannelLUT [3][256]uint8

// IdentityLUT passes every value through.
func IdentityLUT() ChannelLUT {
	var l ChannelLUT
	for c := 0; c < 3; c++ {
		for i := 0; i < 256; i++ {
			l[c][i] = uint8(i)
		}
	}
	return l
}

// uniformLUT applies the same transfer function to all three channels.
func uniformLUT(fn func(v float64) float64) ChannelLUT {
	var l ChannelLUT
	for i := 0; i < 256; i++ {
		v := toByte(fn(float64(i)))
		l[0][i], l[1][i], l[2][i] = v, v, v
	}
	return l
}

// Then returns the table equivalent to applying l followed by next.
func (l ChannelLUT) Then(next ChannelLUT) ChannelLUT {
	var out ChannelLUT
	for c := 0; c < 3; c++ {
		for i := 0; i < 256; i++ {
			out[c][i] = next[c][l[c][i]]
		}
	}
	return out
}

// Apply maps every pixel of img through l in place.
func (l *ChannelLUT) Apply(img *image.NRGBA) {
	if img == nil {
		return
	}
	b := img.Bounds()
	w := b.Dx()
	parallelRows(b.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := img.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				img.Pix[i+0] = l[0][img.Pix[i+0]]
				img.Pix[i+1] = l[1][img.Pix[i+1]]
				img.Pix[i+2] = l[2][img.Pix[i+2]]
				i += 4
			}
		}
	})
}

// CurvesStrength is the fixed blend between the original value and the
// curve output.
const CurvesStrength = 0.6

// CurvesLUT blends the composed curve tables with the identity at
// CurvesStrength.
func CurvesLUT(c curves.Composed) ChannelLUT {
	var l ChannelLUT
	tables := [3]curves.LUT{c.Red, c.Green, c.Blue}
	for ch := 0; ch < 3; ch++ {
		for i := 0; i < 256; i++ {
			v := float64(i)*(1-CurvesStrength) + float64(tables[ch][i])*CurvesStrength
			l[ch][i] = toByte(v)
		}
	}
	return l
}

// BrightnessLUT scales values by 1+b.
func BrightnessLUT(b float64) ChannelLUT {
	f := 1 + b
	return uniformLUT(func(v float64) float64 { return v * f })
}

// ExposureFactor is the linear gain for the given number of stops.
func ExposureFactor(stops float64) float64 { return math.Pow(2, stops) }

// ExposureLUT scales values by 2^stops.
func ExposureLUT(stops float64) ChannelLUT {
	f := ExposureFactor(stops)
	return uniformLUT(func(v float64) float64 { return v * f })
}

// Tonal zone strengths.
const (
	BlacksStrength     = 0.3
	ShadowsStrength    = 0.12
	HighlightsStrength = 0.3
	WhitesStrength     = 0.3
)

// TonalMasks returns the blacks, shadows, highlights and whites weights for
// a normalized value n.
func TonalMasks(n float64) (blacks, shadows, highlights, whites float64) {
	if n < 0.25 {
		blacks = (0.25 - n) / 0.25
	}
	if n < 0.5 {
		shadows = math.Sin(n / 0.5 * math.Pi)
	}
	if n > 0.5 {
		highlights = math.Sin((n - 0.5) / 0.5 * math.Pi)
	}
	if n > 0.75 {
		whites = (n - 0.75) / 0.25
	}
	return
}

// TonalShift is the normalized offset added by the four tonal sliders.
func TonalShift(n float64, p params.EditParameters) float64 {
	bl, sh, hi, wh := TonalMasks(n)
	return p.Blacks*BlacksStrength*bl +
		p.Shadows*ShadowsStrength*sh +
		p.Highlights*HighlightsStrength*hi +
		p.Whites*WhitesStrength*wh
}

// TonalLUT applies highlights/shadows/whites/blacks.
func TonalLUT(p params.EditParameters) ChannelLUT {
	return uniformLUT(func(v float64) float64 {
		n := v / 255
		return (n + TonalShift(n, p)) * 255
	})
}

// ClarityWeight peaks at mid-gray and reaches zero 1/1.5 away from it.
func ClarityWeight(n float64) float64 {
	return math.Max(0, 1-math.Abs(n-0.5)*1.5)
}

// ClarityLUT pushes values away from mid-gray, weighted toward midtones.
func ClarityLUT(c float64) ChannelLUT {
	return uniformLUT(func(v float64) float64 {
		n := v / 255
		return (n + (n-0.5)*c*ClarityWeight(n)) * 255
	})
}

// ContrastScale maps the -1..1 slider onto the -100..100 contrast range
// expected by ContrastAdjust.
const ContrastScale = 25

// ContrastAdjust is the gain applied around mid-gray.
func ContrastAdjust(c float64) float64 {
	k := (c*ContrastScale + 100) / 100
	return k * k
}

// ContrastLUT applies ((v/255 - 0.5) * adj + 0.5) * 255.
func ContrastLUT(c float64) ChannelLUT {
	adj := ContrastAdjust(c)
	return uniformLUT(func(v float64) float64 {
		return ((v/255-0.5)*adj + 0.5) * 255
	})
}

// TemperatureScale converts the slider to a channel offset.
const TemperatureScale = 30

// TemperatureLUT adds temp*30 to red and subtracts it from blue.
func TemperatureLUT(temp float64) ChannelLUT {
	l := IdentityLUT()
	d := temp * TemperatureScale
	for i := 0; i < 256; i++ {
		l[0][i] = toByte(float64(i) + d)
		l[2][i] = toByte(float64(i) - d)
	}
	return l
}
