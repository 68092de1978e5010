package stdimg

import (
	"image"

	"github.com/Fepozopo/darkroom/pkg/params"
)

// ColorMatrix is a 3x4 matrix over 0..255 RGB: the last column is an offset.
type ColorMatrix [12]float64

// IdentityMatrix leaves colors unchanged.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	}
}

var (
	grayscaleMatrix = ColorMatrix{
		0.2126, 0.7152, 0.0722, 0,
		0.2126, 0.7152, 0.0722, 0,
		0.2126, 0.7152, 0.0722, 0,
	}
	sepiaMatrix = ColorMatrix{
		0.393, 0.769, 0.189, 0,
		0.349, 0.686, 0.168, 0,
		0.272, 0.534, 0.131, 0,
	}
	invertMatrix = ColorMatrix{
		-1, 0, 0, 255,
		0, -1, 0, 255,
		0, 0, -1, 255,
	}
)

// Mul returns the matrix that applies m first, then n.
func (m ColorMatrix) Mul(n ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*4+c] = n[r*4]*m[c] + n[r*4+1]*m[4+c] + n[r*4+2]*m[8+c]
		}
		out[r*4+3] = n[r*4]*m[3] + n[r*4+1]*m[7] + n[r*4+2]*m[11] + n[r*4+3]
	}
	return out
}

// Lerp blends between m (t=0) and n (t=1).
func (m ColorMatrix) Lerp(n ColorMatrix, t float64) ColorMatrix {
	var out ColorMatrix
	for i := range out {
		out[i] = m[i] + (n[i]-m[i])*t
	}
	return out
}

// Transform applies the matrix to one RGB triple.
func (m ColorMatrix) Transform(r, g, b float64) (float64, float64, float64) {
	return m[0]*r + m[1]*g + m[2]*b + m[3],
		m[4]*r + m[5]*g + m[6]*b + m[7],
		m[8]*r + m[9]*g + m[10]*b + m[11]
}

// LegacyMatrix composes the grayscale, sepia and invert filters plus the
// partial sepia amount. It starts from identity on every call.
func LegacyMatrix(f params.Filters, sepia float64) ColorMatrix {
	m := IdentityMatrix()
	if f.Grayscale {
		m = m.Mul(grayscaleMatrix)
	}
	if f.Sepia {
		m = m.Mul(sepiaMatrix)
	}
	if sepia > 0 {
		m = m.Mul(IdentityMatrix().Lerp(sepiaMatrix, sepia))
	}
	if f.Invert {
		m = m.Mul(invertMatrix)
	}
	return m
}

// Legacy applies the legacy color filters and noise in place.
func Legacy(img *image.NRGBA, f params.Filters, sepia, noise float64, seed int64) {
	if f.Any() || sepia > 0 {
		m := LegacyMatrix(f, sepia)
		eachPixel(img, m.Transform)
	}
	AddNoise(img, noise, seed)
}
