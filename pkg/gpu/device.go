package gpu

import (
	"errors"
	"image"
)

// ErrDeviceUnavailable is returned by a DeviceFactory when no device can be
// created (no adapter, disabled by configuration, context lost).
var ErrDeviceUnavailable = errors.New("gpu: device unavailable")

// Format is a texture storage format.
type Format int

const (
	// FormatRGBA8 stores 8 bits per channel; writes are quantized.
	FormatRGBA8 Format = iota
	// FormatRGBA32F stores full float channels.
	FormatRGBA32F
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBA32F:
		return "rgba32f"
	default:
		return "unknown"
	}
}

// Texture is a device-owned 2D texture. The handle stays valid across
// resizes and in-place writes; Version increases with every write.
type Texture struct {
	ID      uint64
	Label   string
	Width   int
	Height  int
	Format  Format
	Version uint64
}

// Device is the minimal surface the engine needs from a graphics backend.
// Implementations must be safe for use by one goroutine at a time; the
// engine serializes all calls.
type Device interface {
	Name() string
	NewTexture(label string, w, h int, f Format) (*Texture, error)
	// ResizeTexture changes t's dimensions in place. Contents are undefined.
	ResizeTexture(t *Texture, w, h int) error
	// WriteTexture replaces t's contents with normalized RGBA data
	// (len w*h*4) without reallocating.
	WriteTexture(t *Texture, rgba []float32) error
	UploadImage(t *Texture, img *image.NRGBA) error
	// ReadImage copies t into a new caller-owned image.
	ReadImage(t *Texture) (*image.NRGBA, error)
	Compile(p Program) error
	Draw(p Program, src, dst *Texture) error
	ReleaseTexture(t *Texture)
	Destroy()
}

// SPIRVConsumer is implemented by devices that build pipelines from SPIR-V.
type SPIRVConsumer interface {
	LoadSPIRV(program string, words []uint32) error
}

// DeviceFactory creates a device on first engine initialization.
type DeviceFactory func() (Device, error)
