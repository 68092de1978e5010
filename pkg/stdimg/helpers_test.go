package stdimg

import (
	"image"
	"image/color"
)

func makeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func px(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(x, y)
}
