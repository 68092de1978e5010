package codec

import (
	"bytes"
	"image"

	"github.com/Fepozopo/darkroom/pkg/stdimg"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation returns the EXIF orientation (1..8) of an encoded image, or 1
// when there is none.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// AutoOrient returns img transformed so that EXIF orientation o displays
// upright. Orientation 1 and unknown values return img unchanged.
func AutoOrient(img image.Image, o int) image.Image {
	if img == nil || o <= 1 || o > 8 {
		return img
	}
	src := stdimg.ToNRGBA(img)
	switch o {
	case 2:
		return flop(src)
	case 3:
		return rotate180(src)
	case 4:
		return flip(src)
	case 5:
		return flop(rotate90(src))
	case 6:
		return rotate90(src)
	case 7:
		return flop(rotate270(src))
	case 8:
		return rotate270(src)
	}
	return img
}

// remap builds a w x h image whose pixel (x, y) comes from src at at(x, y).
func remap(src *image.NRGBA, w, h int, at func(x, y int) (int, int)) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := at(x, y)
			si := src.PixOffset(sx, sy)
			di := out.PixOffset(x, y)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

func flip(src *image.NRGBA) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, w, h, func(x, y int) (int, int) { return x, h - 1 - y })
}

func flop(src *image.NRGBA) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, w, h, func(x, y int) (int, int) { return w - 1 - x, y })
}

func rotate180(src *image.NRGBA) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
}

// rotate90 rotates clockwise.
func rotate90(src *image.NRGBA) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, h, w, func(x, y int) (int, int) { return y, h - 1 - x })
}

// rotate270 rotates counter-clockwise.
func rotate270(src *image.NRGBA) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, h, w, func(x, y int) (int, int) { return w - 1 - y, x })
}
