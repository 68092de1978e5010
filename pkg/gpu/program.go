package gpu

import "github.com/Fepozopo/darkroom/pkg/colormath"

// Vec4 is an RGBA color with normalized channels.
type Vec4 [4]float32

// Program is a compiled filter pass. Source is the WGSL used by hardware
// backends; Uniforms packs the parameters in the order of the WGSL Params
// struct.
type Program interface {
	Name() string
	Source() string
	Uniforms() []float32
	// Bindings lists the lookup textures sampled by the program, in
	// binding order.
	Bindings() []*Texture
}

// FragmentProgram computes each output pixel from the same input pixel.
type FragmentProgram interface {
	Program
	Shade(c Vec4, f *Fragment) Vec4
}

// SeparableProgram is a two-pass convolution with a symmetric kernel.
type SeparableProgram interface {
	Program
	Kernel() []float32
}

// Fragment carries the per-invocation inputs of a FragmentProgram.
type Fragment struct {
	X, Y          int
	Width, Height int
	luts          []*swTexture
}

// Texel loads texel x of row 0 from lookup binding i, clamping x.
func (f *Fragment) Texel(binding, x int) Vec4 {
	t := f.luts[binding]
	x = clampIndex(x, t.w)
	i := x * 4
	return Vec4{t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
}

func clampRGB(c Vec4) Vec4 {
	return Vec4{colormath.Clamp01f(c[0]), colormath.Clamp01f(c[1]), colormath.Clamp01f(c[2]), c[3]}
}

// to255 and from255 bridge to the 0..255 helpers shared with the CPU stages.
func to255(c Vec4) (float64, float64, float64) {
	return float64(c[0]) * 255, float64(c[1]) * 255, float64(c[2]) * 255
}

func from255(r, g, b float64, a float32) Vec4 {
	return clampRGB(Vec4{float32(r / 255), float32(g / 255), float32(b / 255), a})
}

func flag(on bool) float32 {
	if on {
		return 1
	}
	return 0
}

// hash3 is a 32-bit integer hash; the WGSL twin uses the same constants.
func hash3(x, y, s uint32) uint32 {
	h := x*374761393 + y*668265263 + s*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

// noise returns a pseudo random value in [-1, 1] for a pixel, channel and seed.
func noise(x, y int, seed uint32, ch uint32) float32 {
	h := hash3(uint32(x), uint32(y), seed*3+ch)
	return float32(h&0xffffff)/float32(0xffffff)*2 - 1
}
