package stdimg

import (
	"image"
	"math/rand"
	"sync"
)

const (
	grainPatternSize = 4096
	grainSeed        = 0x5eed
	// GrainAmplitude is the channel offset at full grain strength.
	GrainAmplitude = 40.0
	// NoiseAmplitude is the half-range of legacy noise at full strength.
	NoiseAmplitude = 127.5
)

// grainPattern is the repeating noise pattern, uniform in [-1, 1].
var grainPattern = sync.OnceValue(func() []float64 {
	rng := rand.New(rand.NewSource(grainSeed))
	p := make([]float64, grainPatternSize)
	for i := range p {
		p[i] = rng.Float64()*2 - 1
	}
	return p
})

// Grain adds film grain sampled from a fixed repeating pattern. The output
// is deterministic for a given image size.
func Grain(img *image.NRGBA, amount float64) {
	if img == nil || amount <= 0 {
		return
	}
	pat := grainPattern()
	amp := amount * GrainAmplitude
	eachPixelAt(img, func(_, _, idx int, r, g, b float64) (float64, float64, float64) {
		o := idx * 3
		return r + pat[o%grainPatternSize]*amp,
			g + pat[(o+1)%grainPatternSize]*amp,
			b + pat[(o+2)%grainPatternSize]*amp
	})
}

// AddNoise adds uniform noise of up to amount*NoiseAmplitude per channel.
// seed allows deterministic output for tests (seed==0 uses a fixed seed).
func AddNoise(img *image.NRGBA, amount float64, seed int64) {
	if img == nil || amount <= 0 {
		return
	}
	if seed == 0 {
		seed = 1
	}
	// a single sequential generator keeps the output reproducible
	rng := rand.New(rand.NewSource(seed))
	half := amount * NoiseAmplitude
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			for c := 0; c < 3; c++ {
				d := half - 2*half*rng.Float64()
				img.Pix[i+c] = toByte(float64(img.Pix[i+c]) + d)
			}
			i += 4
		}
	}
}
