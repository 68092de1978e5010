package stdimg

import (
	"image/color"
	"math"
	"testing"

	"github.com/Fepozopo/darkroom/pkg/params"
	"gonum.org/v1/gonum/mat"
)

func TestHSVKeepsGray(t *testing.T) {
	img := makeSolidNRGBA(2, 2, color.NRGBA{128, 128, 128, 255})
	HSV(img, 0.7, 0.3)
	if c := px(img, 0, 0); c.R != 128 || c.G != 128 || c.B != 128 {
		t.Fatalf("gray changed to %v", c)
	}
}

// The hue basis matches the Konva HSV filter coefficients; every row of
// both basis matrices sums to zero so grays stay gray.
func TestHSVMatrixCoefficients(t *testing.T) {
	want := [9]float64{
		0.466, 0.917, -0.383,
		-0.029, 0.622, 0.407,
		1.549, -0.463, -0.086,
	}
	got := HSVMatrix(0, 0.5) // unit saturation, 90 degrees
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("HSVMatrix(0, 0.5)[%d] = %v, want %v (matrix %v)", i, got[i], want[i], got)
		}
	}
	for name, m := range map[string]mat.Matrix{"cos": hueCos, "sin": hueSin} {
		for r := 0; r < 3; r++ {
			sum := m.At(r, 0) + m.At(r, 1) + m.At(r, 2)
			if math.Abs(sum) > 1e-12 {
				t.Fatalf("%s basis row %d sums to %v", name, r, sum)
			}
		}
	}
}

func TestHSVDesaturates(t *testing.T) {
	img := makeSolidNRGBA(1, 1, color.NRGBA{200, 0, 0, 255})
	HSV(img, -1, 0)
	c := px(img, 0, 0)
	if int(c.R)-int(c.G) >= 200 {
		t.Fatalf("expected less saturated red, got %v", c)
	}
	if c.A != 255 {
		t.Fatalf("alpha changed: %d", c.A)
	}
}

func TestVibranceKeepsGray(t *testing.T) {
	r, g, b := VibrancePixel(1, 90, 90, 90)
	if r != 90 || g != 90 || b != 90 {
		t.Fatalf("gray changed: %v %v %v", r, g, b)
	}
	r, g, _ = VibrancePixel(1, 200, 100, 100)
	if r-g <= 100 {
		t.Fatalf("vibrance should widen the spread: r=%v g=%v", r, g)
	}
}

func TestBandWeight(t *testing.T) {
	cases := map[float64]float64{0: 1, 15: 1, 30: 0.5, 45: 0, 90: 0}
	for d, want := range cases {
		if got := BandWeight(d); got != want {
			t.Fatalf("BandWeight(%v) = %v, want %v", d, got, want)
		}
	}
}

func TestHSLDesaturateRed(t *testing.T) {
	table := BuildHSLTable(map[params.Band]params.HSLAdjust{params.Red: {Saturation: -100}})
	img := makeSolidNRGBA(1, 1, color.NRGBA{255, 0, 0, 255})
	HSL(img, table)
	if c := px(img, 0, 0); c.R != 128 || c.G != 128 || c.B != 128 {
		t.Fatalf("fully desaturated red = %v, want 128 gray", c)
	}
	// blue is 120 degrees away from red and untouched
	img = makeSolidNRGBA(1, 1, color.NRGBA{0, 0, 255, 255})
	HSL(img, table)
	if c := px(img, 0, 0); c.B != 255 || c.R != 0 {
		t.Fatalf("blue changed: %v", c)
	}
}

func TestHSLSkipsNearGray(t *testing.T) {
	table := BuildHSLTable(map[params.Band]params.HSLAdjust{params.Red: {Saturation: 100, Luminance: 100}})
	img := makeSolidNRGBA(1, 1, color.NRGBA{128, 125, 125, 255})
	HSL(img, table)
	if c := px(img, 0, 0); c.R != 128 || c.G != 125 || c.B != 125 {
		t.Fatalf("near-gray pixel changed: %v", c)
	}
}

func TestHSLTableBlendsNeighbours(t *testing.T) {
	table := BuildHSLTable(map[params.Band]params.HSLAdjust{
		params.Yellow: {Hue: 100},
		params.Green:  {Hue: -100},
	})
	// 90 degrees sits halfway between yellow (60) and green (120)
	if d := table[90].Hue; d != 0 {
		t.Fatalf("expected cancelling contributions at 90, got %v", d)
	}
	if d := table[60].Hue; d != 1 {
		t.Fatalf("yellow center hue delta = %v", d)
	}
}

func TestShadowTintCap(t *testing.T) {
	r, g, b := ShadowTintPixel(1, 50, 50, 50)
	if r <= 50 || b <= 50 || g >= 50 {
		t.Fatalf("positive tint should push toward magenta: %v %v %v", r, g, b)
	}
	if g < 50*(1-ShadowTintCap) || r > 50*(1+ShadowTintCap) {
		t.Fatalf("shift exceeds cap: %v %v", r, g)
	}
	r, g, _ = ShadowTintPixel(-1, 50, 50, 50)
	if g <= 50 || r >= 50 {
		t.Fatalf("negative tint should push toward green: r=%v g=%v", r, g)
	}
}

func TestSplitToneShadows(t *testing.T) {
	img := makeSolidNRGBA(1, 1, color.NRGBA{20, 20, 20, 255})
	SplitTone(img, params.SplitToning{ShadowHue: 240, ShadowSaturation: 100})
	c := px(img, 0, 0)
	if c.B <= c.R {
		t.Fatalf("expected blue shadows, got %v", c)
	}
}

func TestColorGradeGlobalLuminance(t *testing.T) {
	img := makeSolidNRGBA(1, 1, color.NRGBA{128, 128, 128, 255})
	ColorGrade(img, params.ColorGrading{Global: params.Zone{Luminance: 100}, Blending: 50})
	if c := px(img, 0, 0); c.R != 179 || c.G != 179 || c.B != 179 {
		t.Fatalf("global luminance +100 = %v, want 179", c)
	}
}

func TestZoneMasks(t *testing.T) {
	s, m, h := ZoneMasks(0)
	if s != 1 || m != 0 || h != 0 {
		t.Fatalf("masks(0) = %v %v %v", s, m, h)
	}
	s, m, h = ZoneMasks(0.5)
	if s != 0 || m != 1 || h != 0 {
		t.Fatalf("masks(0.5) = %v %v %v", s, m, h)
	}
}

func TestCalibrationKeepsGray(t *testing.T) {
	cc := params.ColorCalibration{Red: params.Primary{Hue: 100, Saturation: 50}}
	r, g, b := CalibrationPixel(cc, 100, 100, 100)
	if r != 100 || g != 100 || b != 100 {
		t.Fatalf("gray changed: %v %v %v", r, g, b)
	}
	r, g, b = CalibrationPixel(cc, 255, 0, 0)
	if r == 255 && g == 0 && b == 0 {
		t.Fatal("red primary shift had no effect on pure red")
	}
}

func TestDehazeExpandsContrast(t *testing.T) {
	img := makeSolidNRGBA(1, 1, color.NRGBA{200, 200, 200, 255})
	Dehaze(img, 1)
	if c := px(img, 0, 0); c.R <= 200 {
		t.Fatalf("dehaze should brighten values above mid-gray, got %v", c)
	}
}
