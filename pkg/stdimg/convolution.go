package stdimg

import (
	"image"
	"math"
)

// BlurRadiusScale converts the 0..1 blur slider to a radius in pixels.
const BlurRadiusScale = 20

// BlurSigma is the gaussian sigma used for a blur radius.
func BlurSigma(radius float64) float64 { return radius / 3 }

// GaussianKernel1D generates a normalized 1D gaussian kernel with the given
// sigma. Returns kernel and half-width radius.
func GaussianKernel1D(sigma float64) ([]float64, int) {
	if sigma <= 0 {
		return []float64{1.0}, 0
	}
	// choose radius ~ ceil(3*sigma)
	radius := int(math.Ceil(3 * sigma))
	kern := make([]float64, radius*2+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern, radius
}

// Blur applies a separable gaussian blur of radius blur*20 in place.
// Edges are clamped and alpha is left untouched.
func Blur(img *image.NRGBA, blur float64) {
	if img == nil || blur <= 0 {
		return
	}
	kern, radius := GaussianKernel1D(BlurSigma(blur * BlurRadiusScale))
	if radius == 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	// horizontal pass into a float buffer, vertical pass back into img
	tmp := make([]float64, w*h*3)
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := img.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				var sr, sg, sb float64
				for k := -radius; k <= radius; k++ {
					i := row + clampInt(x+k, 0, w-1)*4
					wgt := kern[k+radius]
					sr += float64(img.Pix[i+0]) * wgt
					sg += float64(img.Pix[i+1]) * wgt
					sb += float64(img.Pix[i+2]) * wgt
				}
				o := (y*w + x) * 3
				tmp[o], tmp[o+1], tmp[o+2] = sr, sg, sb
			}
		}
	})
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			di := img.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				var sr, sg, sb float64
				for k := -radius; k <= radius; k++ {
					o := (clampInt(y+k, 0, h-1)*w + x) * 3
					wgt := kern[k+radius]
					sr += tmp[o] * wgt
					sg += tmp[o+1] * wgt
					sb += tmp[o+2] * wgt
				}
				img.Pix[di+0] = toByte(sr)
				img.Pix[di+1] = toByte(sg)
				img.Pix[di+2] = toByte(sb)
				di += 4
			}
		}
	})
}
