package stdimg

import (
	"image"
	"sync"
)

// vignetteMaps caches the normalized squared-distance map per image size.
var vignetteMaps struct {
	sync.Mutex
	w, h int
	m    []float32
}

// VignetteDistance is the squared distance of pixel (x, y) from the image
// center, normalized so the corners are 1.
func VignetteDistance(x, y, w, h int) float64 {
	cx := float64(w) / 2
	cy := float64(h) / 2
	dx := float64(x) + 0.5 - cx
	dy := float64(y) + 0.5 - cy
	return (dx*dx + dy*dy) / (cx*cx + cy*cy)
}

// vignetteMap returns the falloff map for a w x h image, recomputing it only
// when the dimensions change.
func vignetteMap(w, h int) []float32 {
	vignetteMaps.Lock()
	defer vignetteMaps.Unlock()
	if vignetteMaps.m != nil && vignetteMaps.w == w && vignetteMaps.h == h {
		return vignetteMaps.m
	}
	m := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m[y*w+x] = float32(VignetteDistance(x, y, w, h))
		}
	}
	vignetteMaps.w, vignetteMaps.h, vignetteMaps.m = w, h, m
	return m
}

// Vignette darkens (amount > 0) or lightens (amount < 0) toward the corners
// by multiplying RGB with 1 - amount*distance.
func Vignette(img *image.NRGBA, amount float64) {
	if img == nil || amount == 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m := vignetteMap(w, h)
	eachPixelAt(img, func(_, _, idx int, r, g, bl float64) (float64, float64, float64) {
		f := 1 - amount*float64(m[idx])
		return r * f, g * f, bl * f
	})
}
