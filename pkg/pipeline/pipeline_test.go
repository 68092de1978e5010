package pipeline

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fepozopo/darkroom/pkg/curves"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/stdimg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "rewrite golden files")

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / (w - 1)),
				G: uint8(y * 255 / (h - 1)),
				B: uint8((x + y) * 255 / (w + h - 2)),
				A: 255,
			})
		}
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// busy enables every stage except legacy noise.
func busy() params.EditParameters {
	p := params.Identity()
	p.Curves.RGB = curves.Curve{{X: 0, Y: 0}, {X: 90, Y: 70}, {X: 190, Y: 210}, {X: 255, Y: 255}}
	p.Brightness = 0.1
	p.Exposure = 0.3
	p.Highlights = -0.4
	p.Shadows = 0.5
	p.Whites = 0.2
	p.Blacks = -0.2
	p.Clarity = 0.3
	p.Contrast = 1
	p.Temperature = 0.5
	p.Saturation = 0.5
	p.Hue = 0.3
	p.Vibrance = 0.4
	p.ColorHSL = map[params.Band]params.HSLAdjust{params.Orange: {Hue: 20, Saturation: 30}, params.Blue: {Luminance: -40}}
	p.SplitToning = params.SplitToning{HighlightHue: 40, HighlightSaturation: 30, ShadowHue: 220, ShadowSaturation: 40}
	p.ShadowTint = 0.3
	p.ColorGrading.Midtones = params.Zone{Hue: 30, Saturation: 40, Luminance: 10}
	p.ColorCalibration.Blue = params.Primary{Hue: 20, Saturation: 30}
	p.Dehaze = 0.4
	p.Vignette = 0.5
	p.Grain = 0.5
	p.Blur = 0.05
	p.Filters.Sepia = true
	return p
}

func TestIdentityRoundTrip(t *testing.T) {
	src := gradient(32, 32)
	require.Empty(t, BuildFilterList(params.Identity(), nil))
	out := Process(src, params.Identity(), nil)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestProcessDoesNotModifySource(t *testing.T) {
	src := gradient(16, 16)
	before := append([]byte(nil), src.Pix...)
	Process(src, busy(), nil)
	assert.Equal(t, before, src.Pix)
}

func TestStageOrder(t *testing.T) {
	names := Names(BuildFilterList(busy(), nil))
	want := make([]string, 0, len(stdimg.Stages))
	for _, s := range stdimg.Stages {
		want = append(want, s.Name)
	}
	assert.Equal(t, want, names)
}

func TestBypassTabs(t *testing.T) {
	p := busy()
	list := BuildFilterList(p, params.NewBypass(params.TabLight, params.TabColor))
	assert.Equal(t, []string{"curves", "dehaze", "vignette", "grain", "blur", "legacy"}, Names(list))

	list = BuildFilterList(p, params.NewBypass(params.Tabs...))
	assert.Equal(t, []string{"legacy"}, Names(list), "legacy filters have no tab")
	assert.Equal(t, Names(list), ActiveNames(p, params.NewBypass(params.Tabs...)))
	assert.Empty(t, ActiveNames(params.Identity(), nil))
}

func TestEndToEndGray(t *testing.T) {
	p := params.Identity()
	p.Contrast = 0.4
	p.Temperature = 0.5
	out := Process(solid(4, 4, color.NRGBA{128, 128, 128, 255}), p, nil)
	assert.Equal(t, color.NRGBA{143, 128, 113, 255}, out.NRGBAAt(2, 2))

	out = Process(solid(4, 4, color.NRGBA{128, 128, 128, 255}), p, params.NewBypass(params.TabColor))
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, out.NRGBAAt(0, 0))
}

func TestFusedMatchesSequential(t *testing.T) {
	list := BuildFilterList(busy(), nil)
	fused := gradient(24, 24)
	Apply(fused, list)

	seq := gradient(24, 24)
	for _, s := range list {
		s.Apply(seq)
	}
	assert.Equal(t, seq.Pix, fused.Pix)
}

func TestAlphaPreserved(t *testing.T) {
	src := solid(8, 8, color.NRGBA{100, 150, 200, 77})
	out := Process(src, busy(), nil)
	for i := 3; i < len(out.Pix); i += 4 {
		require.Equal(t, uint8(77), out.Pix[i])
	}
}

func swapped(list []Stage, a, b string) ([]Stage, bool) {
	out := append([]Stage(nil), list...)
	for i := 0; i+1 < len(out); i++ {
		if out[i].Name() == a && out[i+1].Name() == b {
			out[i], out[i+1] = out[i+1], out[i]
			return out, true
		}
	}
	return nil, false
}

func TestOrderSensitivity(t *testing.T) {
	p := params.Identity()
	p.Contrast = 1
	p.Temperature = 0.5
	p.Saturation = 0.5
	p.Hue = 0.3
	p.Dehaze = 0.6
	p.Vignette = 0.8
	p.Grain = 0.5
	list := BuildFilterList(p, nil)

	base := gradient(32, 32)
	Apply(base, list)

	pairs := [][2]string{
		{"contrast", "temperature"},
		{"temperature", "hsv"},
		{"dehaze", "vignette"},
		{"vignette", "grain"},
	}
	for _, pr := range pairs {
		alt, ok := swapped(list, pr[0], pr[1])
		require.True(t, ok, "stages %v not adjacent", pr)
		img := gradient(32, 32)
		Apply(img, alt)
		assert.False(t, bytes.Equal(base.Pix, img.Pix), "swapping %s and %s left the output unchanged", pr[0], pr[1])
	}
}

// toneChain enables only the table stages. Their output is exact, so it can
// be pinned byte for byte.
func toneChain() params.EditParameters {
	p := params.Identity()
	p.Brightness = 0.125
	p.Exposure = -1
	p.Highlights = -0.4
	p.Shadows = 0.5
	p.Whites = 0.2
	p.Blacks = -0.2
	p.Clarity = 0.3
	p.Contrast = 0.4
	p.Temperature = 0.5
	return p
}

func TestGoldenToneChain(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 1))
	for i := 0; i < 256; i++ {
		img.SetNRGBA(i, 0, color.NRGBA{R: uint8(i), G: uint8(255 - i), B: uint8(i * 7 % 256), A: 255})
	}
	list := BuildFilterList(toneChain(), nil)
	require.Equal(t, []string{"brightness", "exposure", "tonal", "clarity", "contrast", "temperature"}, Names(list))
	Apply(img, list)

	var got strings.Builder
	for i := 0; i < 256; i++ {
		c := img.NRGBAAt(i, 0)
		fmt.Fprintf(&got, "%02x%02x%02x\n", c.R, c.G, c.B)
	}

	path := filepath.Join("testdata", "tone_chain.golden")
	if *update {
		require.NoError(t, os.WriteFile(path, []byte(got.String()), 0o644))
		return
	}
	want, err := os.ReadFile(path)
	require.NoError(t, err, "golden file missing; run with -update")
	assert.Equal(t, string(want), got.String())
}

func TestDeterministic(t *testing.T) {
	a := gradient(20, 20)
	b := gradient(20, 20)
	Apply(a, BuildFilterList(busy(), nil))
	Apply(b, BuildFilterList(busy(), nil))
	assert.Equal(t, a.Pix, b.Pix)
}
