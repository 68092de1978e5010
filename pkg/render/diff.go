package render

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanAbsDiff returns the mean absolute RGB difference between a and b in
// 0..255 units. Alpha is ignored.
func MeanAbsDiff(a, b *image.NRGBA) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, fmt.Errorf("size mismatch: %dx%d vs %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	w, h := ab.Dx(), ab.Dy()
	if w == 0 || h == 0 {
		return 0, nil
	}
	d := make([]float64, 0, w*h*3)
	for y := 0; y < h; y++ {
		ai := a.PixOffset(ab.Min.X, ab.Min.Y+y)
		bi := b.PixOffset(bb.Min.X, bb.Min.Y+y)
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				d = append(d, math.Abs(float64(a.Pix[ai+c])-float64(b.Pix[bi+c])))
			}
			ai += 4
			bi += 4
		}
	}
	return stat.Mean(d, nil), nil
}
