// Package gpu renders edit parameters through grouped shader programs on a
// graphics device. Every program has a WGSL source and a float32 fragment
// implementation that the software device executes.
package gpu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/Fepozopo/darkroom/pkg/curves"
	"github.com/Fepozopo/darkroom/pkg/logging"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/stdimg"
	"golang.org/x/sync/semaphore"
)

var (
	ErrNotInitialized = errors.New("gpu: engine not initialized")
	ErrDestroyed      = errors.New("gpu: engine destroyed")
)

// State is the engine lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateRendering
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Option configures an Engine.
type Option func(*Engine)

// WithDeviceFactory sets the device factory. The default is SoftwareFactory.
func WithDeviceFactory(f DeviceFactory) Option {
	return func(e *Engine) { e.factory = f }
}

// WithLogger sets the engine logger. The default is logging.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine owns one device and the textures and programs built on it. All
// rendering goes through a single render lock, so concurrent RenderImage
// calls never overlap; each caller receives its own output image.
type Engine struct {
	factory DeviceFactory
	log     *slog.Logger

	// lock is the render lock; it also serializes Init and Destroy.
	lock  *semaphore.Weighted
	state atomic.Int32

	dev    Device
	w, h   int
	source *Texture
	ping   [2]*Texture

	light    *LightProgram
	basic    *BasicColorProgram
	effects  *EffectsProgram
	blur     *BlurProgram
	legacy   *LegacyProgram
	curves   *CurvesProgram        // built on first use
	advanced *AdvancedColorProgram // built on first use

	curveLUT lutSlot
	hslLUT   lutSlot

	seed      atomic.Uint32
	lutWrites atomic.Int64
	latency   *latency

	buildMu sync.Mutex
	builds  []string
}

// New returns an uninitialized engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		factory:  SoftwareFactory,
		lock:     semaphore.NewWeighted(1),
		latency:  newLatency(),
		curveLUT: lutSlot{label: "curves-lut", width: CurveLUTSize, format: FormatRGBA8},
		hslLUT:   lutSlot{label: "hsl-lut", width: HSLLUTSize, format: FormatRGBA32F},
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = logging.Logger()
	}
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Device returns the device, or nil before a successful Init.
func (e *Engine) Device() Device { return e.dev }

// Size returns the current render target dimensions.
func (e *Engine) Size() (int, int) { return e.w, e.h }

// Stats returns render latency percentiles and the lookup texture write count.
func (e *Engine) Stats() Stats {
	s := e.latency.snapshot()
	s.LUTWrites = e.lutWrites.Load()
	return s
}

// Init prepares the device and render targets for w x h images. Calling it
// again with the same size is a no-op; a new size resizes the targets in
// place. It returns false if no device could be created or the engine was
// destroyed.
func (e *Engine) Init(w, h int) bool {
	if err := e.lock.Acquire(context.Background(), 1); err != nil {
		return false
	}
	defer e.lock.Release(1)
	if err := e.initLocked(w, h); err != nil {
		e.log.Warn("gpu init failed", "width", w, "height", h, "err", err)
		return false
	}
	return true
}

func (e *Engine) initLocked(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid size %dx%d", w, h)
	}
	switch e.State() {
	case StateDestroyed:
		return ErrDestroyed
	case StateReady:
		if w == e.w && h == e.h {
			return nil
		}
		return e.resizeLocked(w, h)
	}

	e.state.Store(int32(StateInitializing))
	dev, err := e.factory()
	if err != nil {
		e.state.Store(int32(StateUninitialized))
		return fmt.Errorf("create device: %w", err)
	}
	if err := e.setup(dev, w, h); err != nil {
		dev.Destroy()
		e.state.Store(int32(StateUninitialized))
		return err
	}
	e.dev, e.w, e.h = dev, w, h
	e.state.Store(int32(StateReady))
	e.log.Info("gpu engine ready", "device", dev.Name(), "width", w, "height", h)
	return nil
}

func (e *Engine) setup(dev Device, w, h int) error {
	var err error
	if e.source, err = dev.NewTexture("source", w, h, FormatRGBA8); err != nil {
		return fmt.Errorf("create source texture: %w", err)
	}
	for i := range e.ping {
		if e.ping[i], err = dev.NewTexture(fmt.Sprintf("target-%d", i), w, h, FormatRGBA8); err != nil {
			return fmt.Errorf("create render target: %w", err)
		}
	}
	e.light = &LightProgram{}
	e.basic = &BasicColorProgram{}
	e.effects = &EffectsProgram{}
	e.blur = &BlurProgram{}
	e.legacy = &LegacyProgram{}
	for _, p := range []Program{e.light, e.basic, e.effects, e.blur, e.legacy} {
		if err := e.compile(dev, p); err != nil {
			return err
		}
	}
	return nil
}

// compile builds p on dev, handing SPIR-V to devices that want it.
func (e *Engine) compile(dev Device, p Program) error {
	if sc, ok := dev.(SPIRVConsumer); ok {
		words, err := CompileShaderToSPIRV(p.Source())
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		if err := sc.LoadSPIRV(p.Name(), words); err != nil {
			return fmt.Errorf("load %s: %w", p.Name(), err)
		}
	}
	if err := dev.Compile(p); err != nil {
		return fmt.Errorf("compile %s: %w", p.Name(), err)
	}
	e.buildMu.Lock()
	e.builds = append(e.builds, p.Name())
	e.buildMu.Unlock()
	e.log.Debug("gpu program compiled", "program", p.Name())
	return nil
}

// Compiled lists the programs built so far, in build order.
func (e *Engine) Compiled() []string {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	return append([]string(nil), e.builds...)
}

func (e *Engine) resizeLocked(w, h int) error {
	for _, t := range []*Texture{e.source, e.ping[0], e.ping[1]} {
		if err := e.dev.ResizeTexture(t, w, h); err != nil {
			return fmt.Errorf("resize %s: %w", t.Label, err)
		}
	}
	e.w, e.h = w, h
	e.log.Debug("gpu targets resized", "width", w, "height", h)
	return nil
}

// RenderImage renders src with p, skipping bypassed tabs, and returns a new
// image owned by the caller. The engine must be initialized; a source of a
// different size resizes the render targets first.
func (e *Engine) RenderImage(ctx context.Context, src image.Image, p params.EditParameters, bypass params.BypassSet) (*image.NRGBA, error) {
	if src == nil {
		return nil, errors.New("gpu: nil source image")
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.lock.Release(1)
	// Destroy may have won the lock
	if err := e.ready(); err != nil {
		return nil, err
	}

	start := time.Now()
	e.state.Store(int32(StateRendering))
	defer e.state.CompareAndSwap(int32(StateRendering), int32(StateReady))

	img := stdimg.ToNRGBA(src)
	b := img.Bounds()
	if b.Dx() != e.w || b.Dy() != e.h {
		if err := e.resizeLocked(b.Dx(), b.Dy()); err != nil {
			return nil, err
		}
	}
	if err := e.dev.UploadImage(e.source, img); err != nil {
		return nil, fmt.Errorf("upload source: %w", err)
	}

	progs, err := e.programs(p.Clamped(), bypass)
	if err != nil {
		return nil, err
	}
	cur := e.source
	for i, prog := range progs {
		dst := e.ping[i%2]
		if err := e.dev.Draw(prog, cur, dst); err != nil {
			return nil, fmt.Errorf("draw %s: %w", prog.Name(), err)
		}
		cur = dst
	}
	out, err := e.dev.ReadImage(cur)
	if err != nil {
		return nil, fmt.Errorf("read back: %w", err)
	}
	e.latency.record(time.Since(start))
	e.log.Debug("gpu render", "programs", programNames(progs), "elapsed", time.Since(start))
	return out, nil
}

func (e *Engine) ready() error {
	switch e.State() {
	case StateDestroyed:
		return ErrDestroyed
	case StateUninitialized, StateInitializing:
		return ErrNotInitialized
	}
	return nil
}

// programs returns the passes for p in execution order, refreshing lookup
// textures and building lazy programs as needed.
func (e *Engine) programs(p params.EditParameters, bypass params.BypassSet) ([]Program, error) {
	var list []Program

	if !bypass.Has(params.TabCurves) && p.CurvesActive() {
		if e.curves == nil {
			cp := &CurvesProgram{}
			if err := e.compile(e.dev, cp); err != nil {
				return nil, err
			}
			e.curves = cp
		}
		wrote, err := e.curveLUT.refresh(e.dev, curves.Signature(p.Curves), func() []float32 {
			return curveTexels(p.Curves)
		})
		if err != nil {
			return nil, err
		}
		if wrote {
			e.lutWrites.Add(1)
		}
		e.curves.lut = e.curveLUT.tex
		list = append(list, e.curves)
	}

	if !bypass.Has(params.TabLight) && p.LightActive() {
		e.light.Set(p)
		list = append(list, e.light)
	}

	if !bypass.Has(params.TabColor) {
		if p.BasicColorActive() {
			e.basic.Set(p)
			list = append(list, e.basic)
		}
		if p.AdvancedColorActive() {
			if e.advanced == nil {
				ap := &AdvancedColorProgram{}
				if err := e.compile(e.dev, ap); err != nil {
					return nil, err
				}
				e.advanced = ap
			}
			wrote, err := e.hslLUT.refresh(e.dev, p.HSLSignature(), func() []float32 {
				return hslTexels(p)
			})
			if err != nil {
				return nil, err
			}
			if wrote {
				e.lutWrites.Add(1)
			}
			e.advanced.lut = e.hslLUT.tex
			e.advanced.Set(p)
			list = append(list, e.advanced)
		}
	}

	if !bypass.Has(params.TabEffects) {
		if p.EffectsActive() {
			e.effects.Set(p)
			e.effects.Seed = e.seed.Add(1)
			list = append(list, e.effects)
		}
		if p.BlurActive() {
			e.blur.Strength = p.Blur * stdimg.BlurRadiusScale
			list = append(list, e.blur)
		}
	}

	if p.LegacyActive() {
		e.legacy.Set(p)
		e.legacy.Seed = e.seed.Add(1)
		list = append(list, e.legacy)
	}
	return list, nil
}

func programNames(progs []Program) []string {
	names := make([]string, len(progs))
	for i, p := range progs {
		names[i] = p.Name()
	}
	return names
}

// ExportFiltered renders src at full resolution with every tab enabled and
// encodes the result.
func (e *Engine) ExportFiltered(ctx context.Context, src image.Image, p params.EditParameters, format codec.Format, quality int) ([]byte, error) {
	if src == nil {
		return nil, errors.New("gpu: nil source image")
	}
	b := src.Bounds()
	if !e.Init(b.Dx(), b.Dy()) {
		if e.State() == StateDestroyed {
			return nil, ErrDestroyed
		}
		return nil, ErrDeviceUnavailable
	}
	out, err := e.RenderImage(ctx, src, p, params.NewBypass())
	if err != nil {
		return nil, fmt.Errorf("export render: %w", err)
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, out, format, quality); err != nil {
		return nil, fmt.Errorf("export encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Destroy releases every device resource. It waits for an in-flight render
// and is safe to call more than once.
func (e *Engine) Destroy() {
	_ = e.lock.Acquire(context.Background(), 1)
	defer e.lock.Release(1)
	if e.State() == StateDestroyed {
		return
	}
	if e.dev != nil {
		e.curveLUT.release(e.dev)
		e.hslLUT.release(e.dev)
		for _, t := range []*Texture{e.source, e.ping[0], e.ping[1]} {
			e.dev.ReleaseTexture(t)
		}
		e.dev.Destroy()
	}
	e.source, e.ping = nil, [2]*Texture{}
	e.curves, e.advanced = nil, nil
	e.state.Store(int32(StateDestroyed))
	e.log.Info("gpu engine destroyed")
}
