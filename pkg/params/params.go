// Package params defines the edit-parameter model that drives both the CPU
// pipeline and the GPU engine.
package params

import (
	"encoding/json"
	"math"

	"github.com/Fepozopo/darkroom/pkg/curves"
)

// Band names one of the eight per-color HSL bands.
type Band string

const (
	Red     Band = "red"
	Orange  Band = "orange"
	Yellow  Band = "yellow"
	Green   Band = "green"
	Aqua    Band = "aqua"
	Blue    Band = "blue"
	Purple  Band = "purple"
	Magenta Band = "magenta"
)

// Bands lists every band in hue order.
var Bands = []Band{Red, Orange, Yellow, Green, Aqua, Blue, Purple, Magenta}

// BandCenter is the hue (degrees) at the center of each band.
var BandCenter = map[Band]float64{
	Red: 0, Orange: 30, Yellow: 60, Green: 120,
	Aqua: 180, Blue: 240, Purple: 270, Magenta: 300,
}

// HSLAdjust is a per-band adjustment. All fields are -100..100.
type HSLAdjust struct {
	Hue        float64 `json:"hue" yaml:"hue"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Luminance  float64 `json:"luminance" yaml:"luminance"`
}

// IsZero reports whether the adjustment changes nothing.
func (a HSLAdjust) IsZero() bool {
	return a.Hue == 0 && a.Saturation == 0 && a.Luminance == 0
}

// SplitToning tints highlights and shadows. Hues in degrees, saturations
// 0..100, balance -100..100.
type SplitToning struct {
	HighlightHue        float64 `json:"highlightHue" yaml:"highlightHue"`
	HighlightSaturation float64 `json:"highlightSaturation" yaml:"highlightSaturation"`
	ShadowHue           float64 `json:"shadowHue" yaml:"shadowHue"`
	ShadowSaturation    float64 `json:"shadowSaturation" yaml:"shadowSaturation"`
	Balance             float64 `json:"balance" yaml:"balance"`
}

// Zone is one color-grading wheel.
type Zone struct {
	Hue        float64 `json:"hue" yaml:"hue"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Luminance  float64 `json:"luminance" yaml:"luminance"`
}

// ColorGrading has four wheels plus blending (0..100) and balance (-100..100).
type ColorGrading struct {
	Shadows    Zone    `json:"shadows" yaml:"shadows"`
	Midtones   Zone    `json:"midtones" yaml:"midtones"`
	Highlights Zone    `json:"highlights" yaml:"highlights"`
	Global     Zone    `json:"global" yaml:"global"`
	Blending   float64 `json:"blending" yaml:"blending"`
	Balance    float64 `json:"balance" yaml:"balance"`
}

// Primary is a calibration adjustment for one primary, -100..100.
type Primary struct {
	Hue        float64 `json:"hue" yaml:"hue"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
}

// ColorCalibration shifts the red/green/blue primaries and tints shadows.
type ColorCalibration struct {
	Red        Primary `json:"red" yaml:"red"`
	Green      Primary `json:"green" yaml:"green"`
	Blue       Primary `json:"blue" yaml:"blue"`
	ShadowTint float64 `json:"shadowTint" yaml:"shadowTint"`
}

// Filters are the legacy on/off color filters.
type Filters struct {
	Grayscale bool `json:"grayscale" yaml:"grayscale"`
	Sepia     bool `json:"sepia" yaml:"sepia"`
	Invert    bool `json:"invert" yaml:"invert"`
}

// Any reports whether at least one filter is enabled.
func (f Filters) Any() bool { return f.Grayscale || f.Sepia || f.Invert }

// EditParameters is the full, flat set of adjustments for one image.
// Scalar sliders are -1..1 unless noted.
type EditParameters struct {
	Exposure    float64 `json:"exposure" yaml:"exposure"` // stops, -5..5
	Brightness  float64 `json:"brightness" yaml:"brightness"`
	Contrast    float64 `json:"contrast" yaml:"contrast"`
	Highlights  float64 `json:"highlights" yaml:"highlights"`
	Shadows     float64 `json:"shadows" yaml:"shadows"`
	Whites      float64 `json:"whites" yaml:"whites"`
	Blacks      float64 `json:"blacks" yaml:"blacks"`
	Clarity     float64 `json:"clarity" yaml:"clarity"`
	Dehaze      float64 `json:"dehaze" yaml:"dehaze"`
	Vibrance    float64 `json:"vibrance" yaml:"vibrance"`
	Saturation  float64 `json:"saturation" yaml:"saturation"`
	Hue         float64 `json:"hue" yaml:"hue"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	ShadowTint  float64 `json:"shadowTint" yaml:"shadowTint"`
	Vignette    float64 `json:"vignette" yaml:"vignette"`

	// 0..1
	Grain float64 `json:"grain" yaml:"grain"`
	Blur  float64 `json:"blur" yaml:"blur"`
	Sepia float64 `json:"sepia" yaml:"sepia"`
	Noise float64 `json:"noise" yaml:"noise"`

	Curves           curves.Curves      `json:"curves" yaml:"curves"`
	ColorHSL         map[Band]HSLAdjust `json:"colorHSL,omitempty" yaml:"colorHSL,omitempty"`
	SplitToning      SplitToning        `json:"splitToning" yaml:"splitToning"`
	ColorGrading     ColorGrading       `json:"colorGrading" yaml:"colorGrading"`
	ColorCalibration ColorCalibration   `json:"colorCalibration" yaml:"colorCalibration"`
	Filters          Filters            `json:"filters" yaml:"filters"`
}

// DefaultBlending is the color-grading blending value of an untouched edit.
const DefaultBlending = 50

// Identity returns parameters under which every stage is a no-op.
func Identity() EditParameters {
	return EditParameters{
		Curves:       curves.DefaultCurves(),
		ColorGrading: ColorGrading{Blending: DefaultBlending},
	}
}

// Clone returns a deep copy.
func (p EditParameters) Clone() EditParameters {
	out := p
	out.Curves = curves.Curves{
		RGB:   append(curves.Curve(nil), p.Curves.RGB...),
		Red:   append(curves.Curve(nil), p.Curves.Red...),
		Green: append(curves.Curve(nil), p.Curves.Green...),
		Blue:  append(curves.Curve(nil), p.Curves.Blue...),
	}
	if p.ColorHSL != nil {
		out.ColorHSL = make(map[Band]HSLAdjust, len(p.ColorHSL))
		for k, v := range p.ColorHSL {
			out.ColorHSL[k] = v
		}
	}
	return out
}

// Signature is a stable serialization of p. encoding/json sorts map keys, so
// equal parameters always produce equal signatures.
func (p EditParameters) Signature() string {
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}

// HSLSignature covers only the per-color table.
func (p EditParameters) HSLSignature() string {
	b, err := json.Marshal(p.ColorHSL)
	if err != nil {
		return ""
	}
	return string(b)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

// Clamped returns a copy with every field limited to its effective range.
// NaN becomes zero.
func (p EditParameters) Clamped() EditParameters {
	q := p.Clone()
	q.Exposure = clamp(q.Exposure, -5, 5)
	for _, f := range []*float64{
		&q.Brightness, &q.Contrast, &q.Highlights, &q.Shadows, &q.Whites, &q.Blacks,
		&q.Clarity, &q.Dehaze, &q.Vibrance, &q.Saturation, &q.Hue, &q.Temperature,
		&q.ShadowTint, &q.Vignette,
	} {
		*f = clamp(*f, -1, 1)
	}
	for _, f := range []*float64{&q.Grain, &q.Blur, &q.Sepia, &q.Noise} {
		*f = clamp(*f, 0, 1)
	}
	for k, a := range q.ColorHSL {
		q.ColorHSL[k] = HSLAdjust{
			Hue:        clamp(a.Hue, -100, 100),
			Saturation: clamp(a.Saturation, -100, 100),
			Luminance:  clamp(a.Luminance, -100, 100),
		}
	}
	st := &q.SplitToning
	st.HighlightSaturation = clamp(st.HighlightSaturation, 0, 100)
	st.ShadowSaturation = clamp(st.ShadowSaturation, 0, 100)
	st.Balance = clamp(st.Balance, -100, 100)
	cg := &q.ColorGrading
	for _, z := range []*Zone{&cg.Shadows, &cg.Midtones, &cg.Highlights, &cg.Global} {
		z.Saturation = clamp(z.Saturation, 0, 100)
		z.Luminance = clamp(z.Luminance, -100, 100)
	}
	cg.Blending = clamp(cg.Blending, 0, 100)
	cg.Balance = clamp(cg.Balance, -100, 100)
	cc := &q.ColorCalibration
	for _, pr := range []*Primary{&cc.Red, &cc.Green, &cc.Blue} {
		pr.Hue = clamp(pr.Hue, -100, 100)
		pr.Saturation = clamp(pr.Saturation, -100, 100)
	}
	cc.ShadowTint = clamp(cc.ShadowTint, -100, 100)
	for _, c := range []*curves.Curve{&q.Curves.RGB, &q.Curves.Red, &q.Curves.Green, &q.Curves.Blue} {
		*c = clampCurve(*c)
	}
	return q
}

// clampCurve drops points with a NaN coordinate and limits the rest to
// 0..255. c is modified in place; Clamped works on a clone.
func clampCurve(c curves.Curve) curves.Curve {
	out := c[:0]
	for _, pt := range c {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
			continue
		}
		out = append(out, curves.Point{X: clamp(pt.X, 0, 255), Y: clamp(pt.Y, 0, 255)})
	}
	return out
}
