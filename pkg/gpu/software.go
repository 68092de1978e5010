package gpu

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Fepozopo/darkroom/pkg/colormath"
)

type swTexture struct {
	w, h int
	f    Format
	pix  []float32
}

// SoftwareDevice runs fragment programs on the CPU in float32, one band of
// rows per goroutine. It is the reference backend and the one used by tests.
type SoftwareDevice struct {
	mu        sync.Mutex
	nextID    uint64
	textures  map[uint64]*swTexture
	compiled  map[string]bool
	destroyed bool
	draws     atomic.Int64
	workers   int
}

// NewSoftwareDevice returns a ready software device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{
		textures: make(map[uint64]*swTexture),
		compiled: make(map[string]bool),
		workers:  runtime.GOMAXPROCS(0),
	}
}

// SoftwareFactory is a DeviceFactory for the software device.
func SoftwareFactory() (Device, error) { return NewSoftwareDevice(), nil }

func (d *SoftwareDevice) Name() string { return "software" }

// Draws reports the number of Draw calls executed.
func (d *SoftwareDevice) Draws() int64 { return d.draws.Load() }

func (d *SoftwareDevice) lookup(t *Texture) (*swTexture, error) {
	if d.destroyed {
		return nil, fmt.Errorf("software device: destroyed")
	}
	if t == nil {
		return nil, fmt.Errorf("software device: nil texture")
	}
	st, ok := d.textures[t.ID]
	if !ok {
		return nil, fmt.Errorf("software device: unknown texture %d (%s)", t.ID, t.Label)
	}
	return st, nil
}

func (d *SoftwareDevice) NewTexture(label string, w, h int, f Format) (*Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("software device: invalid texture size %dx%d", w, h)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, fmt.Errorf("software device: destroyed")
	}
	d.nextID++
	d.textures[d.nextID] = &swTexture{w: w, h: h, f: f, pix: make([]float32, w*h*4)}
	return &Texture{ID: d.nextID, Label: label, Width: w, Height: h, Format: f}, nil
}

func (d *SoftwareDevice) ResizeTexture(t *Texture, w, h int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, err := d.lookup(t)
	if err != nil {
		return err
	}
	if st.w != w || st.h != h {
		st.w, st.h = w, h
		st.pix = make([]float32, w*h*4)
	}
	t.Width, t.Height = w, h
	t.Version++
	return nil
}

func quantize(v float32) float32 {
	return float32(math.Round(float64(colormath.Clamp01f(v))*255)) / 255
}

func (d *SoftwareDevice) WriteTexture(t *Texture, rgba []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, err := d.lookup(t)
	if err != nil {
		return err
	}
	if len(rgba) != len(st.pix) {
		return fmt.Errorf("software device: write of %d values into %dx%d texture", len(rgba), st.w, st.h)
	}
	if st.f == FormatRGBA8 {
		for i, v := range rgba {
			st.pix[i] = quantize(v)
		}
	} else {
		copy(st.pix, rgba)
	}
	t.Version++
	return nil
}

func (d *SoftwareDevice) UploadImage(t *Texture, img *image.NRGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, err := d.lookup(t)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() != st.w || b.Dy() != st.h {
		return fmt.Errorf("software device: upload %dx%d into %dx%d texture", b.Dx(), b.Dy(), st.w, st.h)
	}
	for y := 0; y < st.h; y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * st.w * 4
		for x := 0; x < st.w*4; x++ {
			st.pix[di+x] = float32(img.Pix[si+x]) / 255
		}
	}
	t.Version++
	return nil
}

func (d *SoftwareDevice) ReadImage(t *Texture) (*image.NRGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	out := image.NewNRGBA(image.Rect(0, 0, st.w, st.h))
	for i, v := range st.pix {
		out.Pix[i] = colormath.ClampByte(float64(v) * 255)
	}
	return out, nil
}

func (d *SoftwareDevice) Compile(p Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return fmt.Errorf("software device: destroyed")
	}
	switch p.(type) {
	case FragmentProgram, SeparableProgram:
	default:
		return fmt.Errorf("software device: program %s has no software implementation", p.Name())
	}
	d.compiled[p.Name()] = true
	return nil
}

func (d *SoftwareDevice) Draw(p Program, src, dst *Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.compiled[p.Name()] {
		return fmt.Errorf("software device: program %s not compiled", p.Name())
	}
	in, err := d.lookup(src)
	if err != nil {
		return err
	}
	out, err := d.lookup(dst)
	if err != nil {
		return err
	}
	if in.w != out.w || in.h != out.h {
		return fmt.Errorf("software device: draw %dx%d into %dx%d", in.w, in.h, out.w, out.h)
	}
	if in == out {
		return fmt.Errorf("software device: %s reads and writes the same texture", p.Name())
	}
	d.draws.Add(1)
	switch prog := p.(type) {
	case FragmentProgram:
		luts, err := d.bindings(prog)
		if err != nil {
			return err
		}
		d.runFragment(prog, in, out, luts)
	case SeparableProgram:
		d.runSeparable(prog.Kernel(), in, out)
	}
	dst.Version++
	return nil
}

func (d *SoftwareDevice) bindings(p Program) ([]*swTexture, error) {
	bs := p.Bindings()
	luts := make([]*swTexture, len(bs))
	for i, t := range bs {
		st, err := d.lookup(t)
		if err != nil {
			return nil, fmt.Errorf("binding %d of %s: %w", i, p.Name(), err)
		}
		luts[i] = st
	}
	return luts, nil
}

func (d *SoftwareDevice) rows(h int, fn func(y0, y1 int)) {
	workers := d.workers
	if workers < 1 || h < 16 {
		workers = 1
	}
	band := (h + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

func (d *SoftwareDevice) runFragment(p FragmentProgram, in, out *swTexture, luts []*swTexture) {
	d.rows(in.h, func(y0, y1 int) {
		f := Fragment{Width: in.w, Height: in.h, luts: luts}
		for y := y0; y < y1; y++ {
			f.Y = y
			for x := 0; x < in.w; x++ {
				f.X = x
				i := (y*in.w + x) * 4
				c := Vec4{in.pix[i], in.pix[i+1], in.pix[i+2], in.pix[i+3]}
				c = p.Shade(c, &f)
				if out.f == FormatRGBA8 {
					c = Vec4{quantize(c[0]), quantize(c[1]), quantize(c[2]), quantize(c[3])}
				}
				copy(out.pix[i:i+4], c[:])
			}
		}
	})
}

// runSeparable convolves RGB horizontally then vertically with clamped
// edges. Alpha is copied through.
func (d *SoftwareDevice) runSeparable(kern []float32, in, out *swTexture) {
	radius := len(kern) / 2
	w, h := in.w, in.h
	tmp := make([]float32, len(in.pix))
	d.rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc [3]float32
				for k := -radius; k <= radius; k++ {
					i := (y*w + clampIndex(x+k, w)) * 4
					wgt := kern[k+radius]
					acc[0] += in.pix[i] * wgt
					acc[1] += in.pix[i+1] * wgt
					acc[2] += in.pix[i+2] * wgt
				}
				o := (y*w + x) * 4
				tmp[o], tmp[o+1], tmp[o+2], tmp[o+3] = acc[0], acc[1], acc[2], in.pix[o+3]
			}
		}
	})
	d.rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc [3]float32
				for k := -radius; k <= radius; k++ {
					i := (clampIndex(y+k, h)*w + x) * 4
					wgt := kern[k+radius]
					acc[0] += tmp[i] * wgt
					acc[1] += tmp[i+1] * wgt
					acc[2] += tmp[i+2] * wgt
				}
				o := (y*w + x) * 4
				out.pix[o], out.pix[o+1], out.pix[o+2], out.pix[o+3] = acc[0], acc[1], acc[2], tmp[o+3]
			}
		}
	})
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (d *SoftwareDevice) ReleaseTexture(t *Texture) {
	if t == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, t.ID)
}

// Textures reports how many textures are alive.
func (d *SoftwareDevice) Textures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

func (d *SoftwareDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
	d.textures = map[uint64]*swTexture{}
	d.compiled = map[string]bool{}
}
