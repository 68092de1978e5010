package stdimg

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/Fepozopo/darkroom/pkg/params"
)

func TestVignetteCenterAndCorner(t *testing.T) {
	img := makeSolidNRGBA(3, 3, color.NRGBA{200, 200, 200, 255})
	Vignette(img, 1)
	if c := px(img, 1, 1); c.R != 200 {
		t.Fatalf("center changed to %d", c.R)
	}
	if c := px(img, 0, 0); c.R != 111 {
		t.Fatalf("corner = %d, want 111", c.R)
	}

	img = makeSolidNRGBA(3, 3, color.NRGBA{100, 100, 100, 255})
	Vignette(img, -1)
	if c := px(img, 2, 2); c.R <= 100 {
		t.Fatalf("negative vignette should lighten corners, got %d", c.R)
	}
}

func TestVignetteMapCached(t *testing.T) {
	a := vignetteMap(8, 4)
	b := vignetteMap(8, 4)
	if &a[0] != &b[0] {
		t.Fatal("map recomputed for identical dimensions")
	}
	c := vignetteMap(4, 8)
	if &a[0] == &c[0] {
		t.Fatal("map not recomputed after a size change")
	}
}

func TestGrainDeterministic(t *testing.T) {
	a := makeSolidNRGBA(16, 16, color.NRGBA{128, 128, 128, 255})
	b := CloneNRGBA(a)
	Grain(a, 0.5)
	Grain(b, 0.5)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("grain output differs between runs")
	}
	orig := makeSolidNRGBA(16, 16, color.NRGBA{128, 128, 128, 255})
	if bytes.Equal(a.Pix, orig.Pix) {
		t.Fatal("grain did not change the image")
	}
}

func TestBlurUniformAndSpread(t *testing.T) {
	img := makeSolidNRGBA(12, 12, color.NRGBA{90, 140, 30, 200})
	Blur(img, 0.25)
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if c := px(img, x, y); c.R != 90 || c.G != 140 || c.B != 30 || c.A != 200 {
				t.Fatalf("uniform image changed at %d,%d: %v", x, y, c)
			}
		}
	}

	img = makeSolidNRGBA(21, 21, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(10, 10, color.NRGBA{255, 255, 255, 255})
	Blur(img, 0.1)
	if c := px(img, 10, 10); c.R == 255 || c.R == 0 {
		t.Fatalf("center after blur = %d", c.R)
	}
	if c := px(img, 11, 10); c.R == 0 {
		t.Fatal("blur did not spread to the neighbour")
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	k, r := GaussianKernel1D(2)
	if r != 6 || len(k) != 13 {
		t.Fatalf("radius %d len %d", r, len(k))
	}
	sum := 0.0
	for _, v := range k {
		sum += v
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Fatalf("kernel sum = %v", sum)
	}
}

func TestLegacyFilters(t *testing.T) {
	img := makeSolidNRGBA(1, 1, color.NRGBA{10, 20, 30, 255})
	Legacy(img, params.Filters{Invert: true}, 0, 0, 0)
	if c := px(img, 0, 0); c.R != 245 || c.G != 235 || c.B != 225 {
		t.Fatalf("invert = %v", c)
	}

	img = makeSolidNRGBA(1, 1, color.NRGBA{255, 0, 0, 255})
	Legacy(img, params.Filters{Grayscale: true}, 0, 0, 0)
	if c := px(img, 0, 0); c.R != 54 || c.G != 54 || c.B != 54 {
		t.Fatalf("grayscale = %v", c)
	}
}

func TestLegacyMatrixResetsEachCall(t *testing.T) {
	a := LegacyMatrix(params.Filters{Sepia: true}, 0)
	b := LegacyMatrix(params.Filters{Sepia: true}, 0)
	if a != b {
		t.Fatal("matrix depends on previous calls")
	}
	if LegacyMatrix(params.Filters{}, 0) != IdentityMatrix() {
		t.Fatal("no filters should give identity")
	}
}

func TestAddNoiseDeterministic(t *testing.T) {
	a := makeSolidNRGBA(4, 4, color.NRGBA{128, 128, 128, 255})
	b := CloneNRGBA(a)
	AddNoise(a, 0.2, 42)
	AddNoise(b, 0.2, 42)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("same seed gave different noise")
	}
	same := true
	for i := 0; i < len(a.Pix); i += 4 {
		if a.Pix[i] != 128 {
			same = false
		}
	}
	if same {
		t.Fatal("expected at least one pixel to change")
	}
}
