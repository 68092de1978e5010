package gpu

import (
	"math"

	"github.com/Fepozopo/darkroom/pkg/colormath"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/stdimg"
)

// Program names. They double as WGSL file names.
const (
	ProgramCurves        = "curves"
	ProgramLight         = "light"
	ProgramBasicColor    = "basic_color"
	ProgramAdvancedColor = "advanced_color"
	ProgramEffects       = "effects"
	ProgramBlur          = "blur"
	ProgramLegacy        = "legacy"
)

// CurvesProgram blends the composed curve tables from a 256x1 lookup
// texture at stdimg.CurvesStrength.
type CurvesProgram struct {
	lut *Texture
}

func (p *CurvesProgram) Name() string         { return ProgramCurves }
func (p *CurvesProgram) Source() string       { return shaderSource(ProgramCurves) }
func (p *CurvesProgram) Uniforms() []float32  { return []float32{stdimg.CurvesStrength} }
func (p *CurvesProgram) Bindings() []*Texture { return []*Texture{p.lut} }

func (p *CurvesProgram) Shade(c Vec4, f *Fragment) Vec4 {
	const k = stdimg.CurvesStrength
	for ch := 0; ch < 3; ch++ {
		idx := int(math.Round(float64(c[ch]) * 255))
		c[ch] = c[ch]*(1-k) + f.Texel(0, idx)[ch]*k
	}
	return clampRGB(c)
}

// LightProgram runs brightness, exposure, tonal zones, clarity and contrast.
type LightProgram struct {
	brightness, exposure, contrast bool
	tonal, clarity                 bool

	gain        float32 // 1 + brightness
	exposureMul float32
	contrastAdj float32
	clarityAmt  float32
	p           params.EditParameters
}

// Set loads the uniforms for p.
func (l *LightProgram) Set(p params.EditParameters) {
	l.brightness = p.BrightnessActive()
	l.exposure = p.ExposureActive()
	l.tonal = p.TonalActive()
	l.clarity = p.ClarityActive()
	l.contrast = p.ContrastActive()
	l.gain = float32(1 + p.Brightness)
	l.exposureMul = float32(stdimg.ExposureFactor(p.Exposure))
	l.contrastAdj = float32(stdimg.ContrastAdjust(p.Contrast))
	l.clarityAmt = float32(p.Clarity)
	l.p = p
}

func (l *LightProgram) Name() string         { return ProgramLight }
func (l *LightProgram) Source() string       { return shaderSource(ProgramLight) }
func (l *LightProgram) Bindings() []*Texture { return nil }

func (l *LightProgram) Uniforms() []float32 {
	return []float32{
		flag(l.brightness), flag(l.exposure), flag(l.tonal), flag(l.clarity),
		flag(l.contrast), l.gain, l.exposureMul, l.contrastAdj,
		l.clarityAmt, float32(l.p.Highlights), float32(l.p.Shadows), float32(l.p.Whites),
		float32(l.p.Blacks), 0, 0, 0,
	}
}

func (l *LightProgram) channel(v float32) float32 {
	if l.brightness {
		v = colormath.Clamp01f(v * l.gain)
	}
	if l.exposure {
		v = colormath.Clamp01f(v * l.exposureMul)
	}
	if l.tonal {
		v = colormath.Clamp01f(v + float32(stdimg.TonalShift(float64(v), l.p)))
	}
	if l.clarity {
		w := float32(stdimg.ClarityWeight(float64(v)))
		v = colormath.Clamp01f(v + (v-0.5)*l.clarityAmt*w)
	}
	if l.contrast {
		v = colormath.Clamp01f((v-0.5)*l.contrastAdj + 0.5)
	}
	return v
}

func (l *LightProgram) Shade(c Vec4, _ *Fragment) Vec4 {
	return Vec4{l.channel(c[0]), l.channel(c[1]), l.channel(c[2]), c[3]}
}

// BasicColorProgram runs temperature, the saturation/hue matrix and
// vibrance.
type BasicColorProgram struct {
	temperature, hsv, vibrance bool

	tempOffset float32
	matrix     [9]float32
	vibAmount  float32
}

// Set loads the uniforms for p.
func (b *BasicColorProgram) Set(p params.EditParameters) {
	b.temperature = p.TemperatureActive()
	b.hsv = p.HSVActive()
	b.vibrance = p.VibranceActive()
	b.tempOffset = float32(p.Temperature * stdimg.TemperatureScale / 255)
	m := stdimg.HSVMatrix(p.Saturation, p.Hue)
	for i, v := range m {
		b.matrix[i] = float32(v)
	}
	b.vibAmount = float32(p.Vibrance)
}

func (b *BasicColorProgram) Name() string         { return ProgramBasicColor }
func (b *BasicColorProgram) Source() string       { return shaderSource(ProgramBasicColor) }
func (b *BasicColorProgram) Bindings() []*Texture { return nil }

func (b *BasicColorProgram) Uniforms() []float32 {
	m := b.matrix
	// mat3x3 columns are padded to vec4 in the uniform layout
	return []float32{
		flag(b.temperature), flag(b.hsv), flag(b.vibrance), b.tempOffset,
		m[0], m[3], m[6], 0,
		m[1], m[4], m[7], 0,
		m[2], m[5], m[8], 0,
		b.vibAmount, 0, 0, 0,
	}
}

func (b *BasicColorProgram) Shade(c Vec4, _ *Fragment) Vec4 {
	if b.temperature {
		c[0] += b.tempOffset
		c[2] -= b.tempOffset
		c = clampRGB(c)
	}
	if b.hsv {
		m := b.matrix
		r, g, bl := c[0], c[1], c[2]
		c[0] = m[0]*r + m[1]*g + m[2]*bl
		c[1] = m[3]*r + m[4]*g + m[5]*bl
		c[2] = m[6]*r + m[7]*g + m[8]*bl
		c = clampRGB(c)
	}
	if b.vibrance {
		mx := max(c[0], c[1], c[2])
		mn := min(c[0], c[1], c[2])
		gray := colormath.Lumaf(c[0], c[1], c[2])
		f := 1 + b.vibAmount*(1-(mx-mn))
		for i := 0; i < 3; i++ {
			c[i] = gray + (c[i]-gray)*f
		}
		c = clampRGB(c)
	}
	return c
}

// AdvancedColorProgram runs per-color HSL (sampled from a 360x1 lookup
// texture), split toning, shadow tint, color grading and calibration.
type AdvancedColorProgram struct {
	hsl, split, shadowTint, grading, calibration bool

	lut        *Texture
	toner      stdimg.SplitToner
	tint       float64
	grader     stdimg.Grader
	cal        params.ColorCalibration
	uniformRaw params.EditParameters
}

// Set loads the uniforms for p. The HSL table itself lives in the lookup
// texture and is refreshed by the engine.
func (a *AdvancedColorProgram) Set(p params.EditParameters) {
	a.hsl = p.HSLActive()
	a.split = p.SplitToningActive()
	a.shadowTint = p.ShadowTintActive()
	a.grading = p.ColorGradingActive()
	a.calibration = p.CalibrationActive()
	a.toner = stdimg.NewSplitToner(p.SplitToning)
	a.tint = p.ShadowTint
	a.grader = stdimg.NewGrader(p.ColorGrading)
	a.cal = p.ColorCalibration
	a.uniformRaw = p
}

func (a *AdvancedColorProgram) Name() string         { return ProgramAdvancedColor }
func (a *AdvancedColorProgram) Source() string       { return shaderSource(ProgramAdvancedColor) }
func (a *AdvancedColorProgram) Bindings() []*Texture { return []*Texture{a.lut} }

func (a *AdvancedColorProgram) Uniforms() []float32 {
	p := a.uniformRaw
	st, cg, cc := p.SplitToning, p.ColorGrading, p.ColorCalibration
	u := []float32{
		flag(a.hsl), flag(a.split), flag(a.shadowTint), flag(a.grading),
		flag(a.calibration), float32(p.ShadowTint), float32(st.Balance), 0,
		float32(st.HighlightHue), float32(st.HighlightSaturation), float32(st.ShadowHue), float32(st.ShadowSaturation),
	}
	for _, z := range []params.Zone{cg.Shadows, cg.Midtones, cg.Highlights, cg.Global} {
		u = append(u, float32(z.Hue), float32(z.Saturation), float32(z.Luminance), 0)
	}
	u = append(u, float32(cg.Blending), float32(cg.Balance), float32(cc.ShadowTint), 0)
	for _, pr := range []params.Primary{cc.Red, cc.Green, cc.Blue} {
		u = append(u, float32(pr.Hue), float32(pr.Saturation), 0, 0)
	}
	return u
}

// EncodeHSLTable packs a table into normalized texels: each delta d in
// -1..1 is stored as (d+1)/2.
func EncodeHSLTable(t *stdimg.HSLTable) []float32 {
	out := make([]float32, 360*4)
	for i, d := range t {
		out[i*4+0] = float32((d.Hue + 1) / 2)
		out[i*4+1] = float32((d.Saturation + 1) / 2)
		out[i*4+2] = float32((d.Luminance + 1) / 2)
		out[i*4+3] = 1
	}
	return out
}

func decodeDelta(t Vec4) stdimg.HSLDelta {
	return stdimg.HSLDelta{
		Hue:        float64(t[0])*2 - 1,
		Saturation: float64(t[1])*2 - 1,
		Luminance:  float64(t[2])*2 - 1,
	}
}

func (a *AdvancedColorProgram) Shade(c Vec4, f *Fragment) Vec4 {
	if a.hsl {
		h, s, l := colormath.RGBToHSLf(c[0], c[1], c[2])
		if s >= 0.05 {
			idx := int(math.Floor(float64(h)*360)) % 360
			d := decodeDelta(f.Texel(0, idx))
			hh, ss, ll := d.Adjust(float64(h), float64(s), float64(l))
			r, g, b := colormath.HSLToRGB(hh, ss, ll)
			c = clampRGB(Vec4{float32(r), float32(g), float32(b), c[3]})
		}
	}
	if a.split {
		r, g, b := a.toner.Pixel(to255(c))
		c = from255(r, g, b, c[3])
	}
	if a.shadowTint {
		r, g, b := to255(c)
		r, g, b = stdimg.ShadowTintPixel(a.tint, r, g, b)
		c = from255(r, g, b, c[3])
	}
	if a.grading {
		r, g, b := a.grader.Pixel(to255(c))
		c = from255(r, g, b, c[3])
	}
	if a.calibration {
		r, g, b := to255(c)
		r, g, b = stdimg.CalibrationPixel(a.cal, r, g, b)
		c = from255(r, g, b, c[3])
	}
	return c
}

// EffectsProgram runs dehaze, vignette and grain.
type EffectsProgram struct {
	dehaze, vignette, grain bool

	dehazeAmt, vignetteAmt, grainAmp float64
	Seed                             uint32
}

// Set loads the uniforms for p.
func (e *EffectsProgram) Set(p params.EditParameters) {
	e.dehaze = p.DehazeActive()
	e.vignette = p.VignetteActive()
	e.grain = p.GrainActive()
	e.dehazeAmt = p.Dehaze
	e.vignetteAmt = p.Vignette
	e.grainAmp = p.Grain * stdimg.GrainAmplitude / 255
}

func (e *EffectsProgram) Name() string         { return ProgramEffects }
func (e *EffectsProgram) Source() string       { return shaderSource(ProgramEffects) }
func (e *EffectsProgram) Bindings() []*Texture { return nil }

func (e *EffectsProgram) Uniforms() []float32 {
	return []float32{
		flag(e.dehaze), flag(e.vignette), flag(e.grain), float32(e.Seed),
		float32(e.dehazeAmt), float32(e.vignetteAmt), float32(e.grainAmp), 0,
	}
}

func (e *EffectsProgram) Shade(c Vec4, f *Fragment) Vec4 {
	if e.dehaze {
		r, g, b := to255(c)
		r, g, b = stdimg.DehazePixel(e.dehazeAmt, r, g, b)
		c = from255(r, g, b, c[3])
	}
	if e.vignette {
		k := float32(1 - e.vignetteAmt*stdimg.VignetteDistance(f.X, f.Y, f.Width, f.Height))
		c = clampRGB(Vec4{c[0] * k, c[1] * k, c[2] * k, c[3]})
	}
	if e.grain {
		amp := float32(e.grainAmp)
		for ch := 0; ch < 3; ch++ {
			c[ch] += noise(f.X, f.Y, e.Seed, uint32(ch)) * amp
		}
		c = clampRGB(c)
	}
	return c
}

// BlurProgram is the built-in separable gaussian with strength blur*20.
type BlurProgram struct {
	Strength float64
}

func (b *BlurProgram) Name() string         { return ProgramBlur }
func (b *BlurProgram) Source() string       { return shaderSource(ProgramBlur) }
func (b *BlurProgram) Bindings() []*Texture { return nil }

func (b *BlurProgram) Kernel() []float32 {
	k, _ := stdimg.GaussianKernel1D(stdimg.BlurSigma(b.Strength))
	out := make([]float32, len(k))
	for i, v := range k {
		out[i] = float32(v)
	}
	return out
}

func (b *BlurProgram) Uniforms() []float32 {
	k := b.Kernel()
	u := []float32{float32(len(k) / 2), 0, 0, 0}
	return append(u, k...)
}

// LegacyProgram applies the grayscale/sepia/invert color matrix and noise.
// The matrix is rebuilt from identity on every Set.
type LegacyProgram struct {
	matrix stdimg.ColorMatrix
	noise  float32
	Seed   uint32
}

// Set loads the uniforms for p.
func (l *LegacyProgram) Set(p params.EditParameters) {
	l.matrix = stdimg.LegacyMatrix(p.Filters, p.Sepia)
	l.noise = float32(p.Noise * stdimg.NoiseAmplitude / 255)
}

func (l *LegacyProgram) Name() string         { return ProgramLegacy }
func (l *LegacyProgram) Source() string       { return shaderSource(ProgramLegacy) }
func (l *LegacyProgram) Bindings() []*Texture { return nil }

func (l *LegacyProgram) Uniforms() []float32 {
	m := l.matrix
	u := make([]float32, 0, 16)
	for r := 0; r < 3; r++ {
		u = append(u, float32(m[r*4]), float32(m[r*4+1]), float32(m[r*4+2]), float32(m[r*4+3]/255))
	}
	return append(u, l.noise, float32(l.Seed), 0, 0)
}

func (l *LegacyProgram) Shade(c Vec4, f *Fragment) Vec4 {
	r, g, b := to255(c)
	r, g, b = l.matrix.Transform(r, g, b)
	c = from255(r, g, b, c[3])
	if l.noise > 0 {
		for ch := 0; ch < 3; ch++ {
			c[ch] += noise(f.X, f.Y, l.Seed+1, uint32(ch)) * l.noise
		}
		c = clampRGB(c)
	}
	return c
}
