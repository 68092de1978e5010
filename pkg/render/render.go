// Package render drives the GPU engine and the CPU pipeline for previews
// and exports.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/Fepozopo/darkroom/pkg/gpu"
	"github.com/Fepozopo/darkroom/pkg/logging"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/pipeline"
	"github.com/Fepozopo/darkroom/pkg/stdimg"
	xdraw "golang.org/x/image/draw"
)

// PreviewMaxDimension caps the longest side of a preview render.
const PreviewMaxDimension = 1024

// Backend names the path that produced an image.
type Backend string

const (
	BackendGPU    Backend = "gpu"
	BackendCPU    Backend = "cpu"
	BackendSource Backend = "source" // unfiltered fallback
)

// Config tunes a Renderer.
type Config struct {
	UseGPU      bool
	PreviewMax  int
	JPEGQuality int
}

// DefaultConfig enables the GPU with the standard preview cap.
func DefaultConfig() Config {
	return Config{UseGPU: true, PreviewMax: PreviewMaxDimension, JPEGQuality: codec.DefaultJPEGQuality}
}

// Renderer produces previews and exports for one editing session.
type Renderer struct {
	cfg    Config
	engine *gpu.Engine
	log    *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEngine sets the GPU engine used for previews.
func WithEngine(e *gpu.Engine) Option {
	return func(r *Renderer) { r.engine = e }
}

// WithLogger sets the renderer logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// New returns a renderer. When cfg.UseGPU is set and no engine is given,
// one is created lazily on the first preview.
func New(cfg Config, opts ...Option) *Renderer {
	if cfg.PreviewMax <= 0 {
		cfg.PreviewMax = PreviewMaxDimension
	}
	r := &Renderer{cfg: cfg}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = logging.Logger()
	}
	if r.cfg.UseGPU && r.engine == nil {
		r.engine = gpu.New(gpu.WithLogger(r.log))
	}
	return r
}

// Engine returns the GPU engine, or nil when the GPU is disabled.
func (r *Renderer) Engine() *gpu.Engine { return r.engine }

// Close releases the GPU engine.
func (r *Renderer) Close() {
	if r.engine != nil {
		r.engine.Destroy()
	}
}

// Result is a preview render.
type Result struct {
	Image   *image.NRGBA
	Backend Backend
	// Err is set when rendering failed and Image is the unfiltered source.
	Err error
}

// Downscale returns src scaled so its longest side is at most maxDim,
// keeping the aspect ratio. Smaller images are copied unchanged.
func Downscale(src image.Image, maxDim int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return stdimg.ToNRGBA(src)
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// Preview renders a capped-resolution preview. It prefers the GPU, falls
// back to the CPU pipeline when the engine cannot initialize, and returns
// the unfiltered (downscaled) source if rendering fails.
func (r *Renderer) Preview(ctx context.Context, src image.Image, p params.EditParameters, bypass params.BypassSet) Result {
	small := Downscale(src, r.cfg.PreviewMax)
	if err := ctx.Err(); err != nil {
		return Result{Image: small, Backend: BackendSource, Err: err}
	}

	if r.engine != nil {
		b := small.Bounds()
		if r.engine.Init(b.Dx(), b.Dy()) {
			out, err := r.engine.RenderImage(ctx, small, p, bypass)
			if err == nil {
				return Result{Image: out, Backend: BackendGPU}
			}
			r.log.Warn("gpu preview failed, showing source", "err", err)
			return Result{Image: small, Backend: BackendSource, Err: err}
		}
		r.log.Debug("gpu unavailable, using cpu preview")
	}

	out, err := processCPU(small, p, bypass)
	if err != nil {
		r.log.Warn("cpu preview failed, showing source", "err", err)
		return Result{Image: small, Backend: BackendSource, Err: err}
	}
	return Result{Image: out, Backend: BackendCPU}
}

// processCPU runs the pipeline, turning a stage panic into an error.
func processCPU(src image.Image, p params.EditParameters, bypass params.BypassSet) (out *image.NRGBA, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, fmt.Errorf("pipeline panic: %v", v)
		}
	}()
	return pipeline.Process(src, p, bypass), nil
}

// Export renders src at full resolution on the CPU with every tab enabled
// and encodes it.
func (r *Renderer) Export(ctx context.Context, src image.Image, p params.EditParameters, f codec.Format) ([]byte, error) {
	if src == nil {
		return nil, errors.New("export: nil source image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := processCPU(src, p, params.NewBypass())
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, out, f, r.cfg.JPEGQuality); err != nil {
		return nil, fmt.Errorf("export encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportGPU is Export through the GPU engine.
func (r *Renderer) ExportGPU(ctx context.Context, src image.Image, p params.EditParameters, f codec.Format) ([]byte, error) {
	if r.engine == nil {
		return nil, gpu.ErrDeviceUnavailable
	}
	return r.engine.ExportFiltered(ctx, src, p, f, r.cfg.JPEGQuality)
}

// ExportFile exports to path, choosing the format from its extension. The
// GPU is used when available, the CPU otherwise. Nothing is written when
// rendering or encoding fails.
func (r *Renderer) ExportFile(ctx context.Context, src image.Image, p params.EditParameters, path string) (int, error) {
	f, err := codec.FormatFromPath(path)
	if err != nil {
		return 0, err
	}
	var data []byte
	if r.engine != nil {
		data, err = r.ExportGPU(ctx, src, p, f)
		if errors.Is(err, gpu.ErrDeviceUnavailable) {
			r.log.Warn("gpu export unavailable, using cpu")
			data, err = r.Export(ctx, src, p, f)
		}
	} else {
		data, err = r.Export(ctx, src, p, f)
	}
	if err != nil {
		return 0, err
	}
	if err := codec.WriteFile(path, data); err != nil {
		return 0, fmt.Errorf("export write: %w", err)
	}
	return len(data), nil
}
