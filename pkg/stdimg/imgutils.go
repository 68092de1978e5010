package stdimg

import (
	"image"
	"image/color"
	"runtime"
	"sync"
)

// ToNRGBA converts any image.Image to a fresh *image.NRGBA anchored at the
// origin. The source is never aliased.
func ToNRGBA(src image.Image) *image.NRGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			si := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()*4], n.Pix[si:si+b.Dx()*4])
		}
		return out
	}
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.Pix[idx+0] = c.R
			out.Pix[idx+1] = c.G
			out.Pix[idx+2] = c.B
			out.Pix[idx+3] = c.A
			idx += 4
		}
	}
	return out
}

// CloneNRGBA returns a copy of the provided image.NRGBA
func CloneNRGBA(src *image.NRGBA) *image.NRGBA {
	if src == nil {
		return nil
	}
	out := image.NewNRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// clampInt clamps v to [lo,hi]
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// parallelRows splits [0,h) into contiguous bands and runs fn on each band
// concurrently. Every pixel is owned by exactly one band.
func parallelRows(h int, fn func(y0, y1 int)) {
	if h <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	if workers <= 1 || h < 16 {
		fn(0, h)
		return
	}
	band := (h + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += band {
		y1 := y0 + band
		if y1 > h {
			y1 = h
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

// eachPixel calls fn with the RGB triple (0..255) of every pixel and writes
// back the returned triple. Alpha is untouched.
func eachPixel(img *image.NRGBA, fn func(r, g, b float64) (float64, float64, float64)) {
	if img == nil {
		return
	}
	b := img.Bounds()
	w := b.Dx()
	parallelRows(b.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := img.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				p := img.Pix[i : i+3 : i+3]
				r, g, bl := fn(float64(p[0]), float64(p[1]), float64(p[2]))
				p[0] = toByte(r)
				p[1] = toByte(g)
				p[2] = toByte(bl)
				i += 4
			}
		}
	})
}

// eachPixelAt is eachPixel with the pixel coordinates and linear index.
func eachPixelAt(img *image.NRGBA, fn func(x, y, idx int, r, g, b float64) (float64, float64, float64)) {
	if img == nil {
		return
	}
	b := img.Bounds()
	w := b.Dx()
	parallelRows(b.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := img.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				p := img.Pix[i : i+3 : i+3]
				r, g, bl := fn(x, y, y*w+x, float64(p[0]), float64(p[1]), float64(p[2]))
				p[0] = toByte(r)
				p[1] = toByte(g)
				p[2] = toByte(bl)
				i += 4
			}
		}
	})
}
