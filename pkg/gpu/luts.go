package gpu

import (
	"fmt"

	"github.com/Fepozopo/darkroom/pkg/curves"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/stdimg"
)

// Lookup texture widths.
const (
	CurveLUTSize = 256
	HSLLUTSize   = 360
)

// lutSlot is a lookup texture that is rewritten in place whenever the
// signature of its source data changes.
type lutSlot struct {
	label  string
	width  int
	format Format
	tex    *Texture
	sig    string
	valid  bool
}

// refresh makes sure the slot holds data for sig. build is only called
// when the signature differs from the one currently uploaded. It reports
// whether a write happened.
func (s *lutSlot) refresh(dev Device, sig string, build func() []float32) (bool, error) {
	if s.tex == nil {
		t, err := dev.NewTexture(s.label, s.width, 1, s.format)
		if err != nil {
			return false, fmt.Errorf("create %s: %w", s.label, err)
		}
		s.tex = t
		s.valid = false
	}
	if s.valid && s.sig == sig {
		return false, nil
	}
	if err := dev.WriteTexture(s.tex, build()); err != nil {
		s.valid = false
		return false, fmt.Errorf("update %s: %w", s.label, err)
	}
	s.sig, s.valid = sig, true
	return true, nil
}

func (s *lutSlot) release(dev Device) {
	if s.tex != nil {
		dev.ReleaseTexture(s.tex)
	}
	s.tex, s.sig, s.valid = nil, "", false
}

// curveTexels packs the composed red, green and blue tables into a 256x1
// texture.
func curveTexels(c curves.Curves) []float32 {
	comp := curves.BuildComposed(c)
	out := make([]float32, CurveLUTSize*4)
	for i := 0; i < CurveLUTSize; i++ {
		out[i*4+0] = float32(comp.Red[i]) / 255
		out[i*4+1] = float32(comp.Green[i]) / 255
		out[i*4+2] = float32(comp.Blue[i]) / 255
		out[i*4+3] = 1
	}
	return out
}

func hslTexels(p params.EditParameters) []float32 {
	return EncodeHSLTable(stdimg.BuildHSLTable(p.ColorHSL))
}
