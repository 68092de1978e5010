package stdimg

import (
	"image"
	"math"

	"github.com/Fepozopo/darkroom/pkg/colormath"
	"gonum.org/v1/gonum/mat"
)

// Hue rotation basis for the saturation/hue matrix. The matrix is
// luma + s*cos(h)*hueCos + s*sin(h)*hueSin, with luma rows of BT.601 weights.
// The coefficients are those of the Konva HSV filter.
var (
	lumaRows = mat.NewDense(3, 3, []float64{
		0.299, 0.587, 0.114,
		0.299, 0.587, 0.114,
		0.299, 0.587, 0.114,
	})
	hueCos = mat.NewDense(3, 3, []float64{
		0.701, -0.587, -0.114,
		-0.299, 0.413, -0.114,
		-0.3, -0.586, 0.886,
	})
	hueSin = mat.NewDense(3, 3, []float64{
		0.167, 0.33, -0.497,
		-0.328, 0.035, 0.293,
		1.25, -1.05, -0.2,
	})
)

// HueDegrees converts the -1..1 hue slider to degrees.
func HueDegrees(hue float64) float64 { return hue * 180 }

// SaturationFactor converts the -1..1 saturation slider to the matrix gain.
func SaturationFactor(sat float64) float64 { return math.Pow(2, 2*sat) }

// HSVMatrix returns the 3x3 RGB matrix for the saturation and hue sliders.
func HSVMatrix(saturation, hue float64) [9]float64 {
	s := SaturationFactor(saturation)
	h := HueDegrees(hue) * math.Pi / 180

	var cosTerm, sinTerm, m mat.Dense
	cosTerm.Scale(s*math.Cos(h), hueCos)
	sinTerm.Scale(s*math.Sin(h), hueSin)
	m.Add(lumaRows, &cosTerm)
	m.Add(&m, &sinTerm)

	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m.At(r, c)
		}
	}
	return out
}

// HSV applies the saturation/hue matrix in place.
func HSV(img *image.NRGBA, saturation, hue float64) {
	m := HSVMatrix(saturation, hue)
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return m[0]*r + m[1]*g + m[2]*b,
			m[3]*r + m[4]*g + m[5]*b,
			m[6]*r + m[7]*g + m[8]*b
	})
}

// VibrancePixel boosts low-saturation colors more than saturated ones.
func VibrancePixel(amount, r, g, b float64) (float64, float64, float64) {
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	sat := (mx - mn) / 255
	gray := colormath.Luma(r, g, b)
	f := 1 + amount*(1-sat)
	return gray + (r-gray)*f, gray + (g-gray)*f, gray + (b-gray)*f
}

// Vibrance applies VibrancePixel to every pixel.
func Vibrance(img *image.NRGBA, amount float64) {
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return VibrancePixel(amount, r, g, b)
	})
}

// DehazePixel expands contrast around mid-gray and lifts saturation.
func DehazePixel(amount, r, g, b float64) (float64, float64, float64) {
	cf := 1 + amount*0.3
	r = (r-128)*cf + 128
	g = (g-128)*cf + 128
	b = (b-128)*cf + 128
	gray := colormath.Luma(r, g, b)
	sf := 1 + amount*0.2
	return gray + (r-gray)*sf, gray + (g-gray)*sf, gray + (b-gray)*sf
}

// Dehaze applies DehazePixel to every pixel.
func Dehaze(img *image.NRGBA, amount float64) {
	eachPixel(img, func(r, g, b float64) (float64, float64, float64) {
		return DehazePixel(amount, r, g, b)
	})
}
