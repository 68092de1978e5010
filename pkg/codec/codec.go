// Package codec loads images with EXIF orientation applied and encodes
// filtered results.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format is an image container format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
	WebP Format = "webp" // decode only
)

// DefaultJPEGQuality is used when a quality of 0 is requested.
const DefaultJPEGQuality = 92

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".gif":
		return GIF, nil
	case ".tif", ".tiff":
		return TIFF, nil
	case ".bmp":
		return BMP, nil
	case ".webp":
		return WebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ParseFormat accepts a format name such as "png" or "jpg".
func ParseFormat(s string) (Format, error) {
	return FormatFromPath("x." + strings.TrimPrefix(strings.ToLower(s), "."))
}

// Extension returns the canonical file extension for f.
func (f Format) Extension() string {
	switch f {
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tif"
	}
	return "." + string(f)
}

// Load reads and decodes path, applying its EXIF orientation.
func Load(path string) (image.Image, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return Decode(data)
}

// Decode decodes an in-memory image and applies its EXIF orientation.
func Decode(data []byte) (image.Image, Format, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	f, _ := ParseFormat(name)
	if o := Orientation(data); o > 1 {
		img = AutoOrient(img, o)
	}
	return img, f, nil
}

// Encode writes img to w. quality applies to JPEG only; 0 selects
// DefaultJPEGQuality.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case GIF:
		return gif.Encode(w, img, nil)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Save encodes img into path, choosing the format from the extension. The
// data goes to a temporary file in the same directory first, so a failed
// encode never leaves a partial file behind.
func Save(path string, img image.Image, quality int) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return SaveAs(path, img, f, quality)
}

// SaveAs is Save with an explicit format.
func SaveAs(path string, img image.Image, f Format, quality int) error {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, quality); err != nil {
		return err
	}
	return WriteFile(path, buf.Bytes())
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".darkroom-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
