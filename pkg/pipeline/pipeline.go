// Package pipeline assembles the ordered CPU filter list for a set of edit
// parameters and runs it over an image.
package pipeline

import (
	"image"
	"sync/atomic"

	"github.com/Fepozopo/darkroom/pkg/curves"
	"github.com/Fepozopo/darkroom/pkg/logging"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/stdimg"
)

// Stage is one filter in the list.
type Stage interface {
	Name() string
	Tab() params.Tab
	Apply(img *image.NRGBA)
}

// LUTStage is a stage expressible as per-channel lookup tables. Consecutive
// LUT stages are fused before execution.
type LUTStage interface {
	Stage
	LUT() stdimg.ChannelLUT
}

type lutStage struct {
	name string
	tab  params.Tab
	lut  stdimg.ChannelLUT
}

func (s *lutStage) Name() string           { return s.name }
func (s *lutStage) Tab() params.Tab        { return s.tab }
func (s *lutStage) LUT() stdimg.ChannelLUT { return s.lut }
func (s *lutStage) Apply(img *image.NRGBA) { s.lut.Apply(img) }

type funcStage struct {
	name string
	tab  params.Tab
	fn   func(img *image.NRGBA)
}

func (s *funcStage) Name() string           { return s.name }
func (s *funcStage) Tab() params.Tab        { return s.tab }
func (s *funcStage) Apply(img *image.NRGBA) { s.fn(img) }

var curveCache curves.Cache

// noiseSeed varies legacy noise between renders while staying reproducible
// within one run.
var noiseSeed atomic.Int64

// Options tunes list construction.
type Options struct {
	// NoiseSeed fixes the legacy noise seed; zero picks a fresh one per list.
	NoiseSeed int64
}

// BuildFilterList returns the active stages for p in fixed order, skipping
// stages whose tab is bypassed.
func BuildFilterList(p params.EditParameters, bypass params.BypassSet) []Stage {
	return BuildFilterListWith(p, bypass, Options{})
}

// BuildFilterListWith is BuildFilterList with options.
func BuildFilterListWith(p params.EditParameters, bypass params.BypassSet, opts Options) []Stage {
	p = p.Clamped()
	var list []Stage
	add := func(name string, active bool, build func() Stage) {
		spec, _ := stdimg.LookupStage(name)
		if !active || bypass.Has(spec.Tab) {
			return
		}
		list = append(list, build())
	}
	lut := func(name string, l func() stdimg.ChannelLUT) func() Stage {
		return func() Stage {
			spec, _ := stdimg.LookupStage(name)
			return &lutStage{name: name, tab: spec.Tab, lut: l()}
		}
	}
	fn := func(name string, f func(img *image.NRGBA)) func() Stage {
		return func() Stage {
			spec, _ := stdimg.LookupStage(name)
			return &funcStage{name: name, tab: spec.Tab, fn: f}
		}
	}

	add(stdimg.StageCurves, p.CurvesActive(), lut(stdimg.StageCurves, func() stdimg.ChannelLUT {
		return stdimg.CurvesLUT(curveCache.Get(p.Curves))
	}))
	add(stdimg.StageBrightness, p.BrightnessActive(), lut(stdimg.StageBrightness, func() stdimg.ChannelLUT {
		return stdimg.BrightnessLUT(p.Brightness)
	}))
	add(stdimg.StageExposure, p.ExposureActive(), lut(stdimg.StageExposure, func() stdimg.ChannelLUT {
		return stdimg.ExposureLUT(p.Exposure)
	}))
	add(stdimg.StageTonal, p.TonalActive(), lut(stdimg.StageTonal, func() stdimg.ChannelLUT {
		return stdimg.TonalLUT(p)
	}))
	add(stdimg.StageClarity, p.ClarityActive(), lut(stdimg.StageClarity, func() stdimg.ChannelLUT {
		return stdimg.ClarityLUT(p.Clarity)
	}))
	add(stdimg.StageContrast, p.ContrastActive(), lut(stdimg.StageContrast, func() stdimg.ChannelLUT {
		return stdimg.ContrastLUT(p.Contrast)
	}))
	add(stdimg.StageTemperature, p.TemperatureActive(), lut(stdimg.StageTemperature, func() stdimg.ChannelLUT {
		return stdimg.TemperatureLUT(p.Temperature)
	}))
	add(stdimg.StageHSV, p.HSVActive(), fn(stdimg.StageHSV, func(img *image.NRGBA) {
		stdimg.HSV(img, p.Saturation, p.Hue)
	}))
	add(stdimg.StageVibrance, p.VibranceActive(), fn(stdimg.StageVibrance, func(img *image.NRGBA) {
		stdimg.Vibrance(img, p.Vibrance)
	}))
	add(stdimg.StageHSL, p.HSLActive(), func() Stage {
		table := stdimg.BuildHSLTable(p.ColorHSL)
		return fn(stdimg.StageHSL, func(img *image.NRGBA) { stdimg.HSL(img, table) })()
	})
	add(stdimg.StageSplitToning, p.SplitToningActive(), fn(stdimg.StageSplitToning, func(img *image.NRGBA) {
		stdimg.SplitTone(img, p.SplitToning)
	}))
	add(stdimg.StageShadowTint, p.ShadowTintActive(), fn(stdimg.StageShadowTint, func(img *image.NRGBA) {
		stdimg.ShadowTint(img, p.ShadowTint)
	}))
	add(stdimg.StageColorGrading, p.ColorGradingActive(), fn(stdimg.StageColorGrading, func(img *image.NRGBA) {
		stdimg.ColorGrade(img, p.ColorGrading)
	}))
	add(stdimg.StageCalibration, p.CalibrationActive(), fn(stdimg.StageCalibration, func(img *image.NRGBA) {
		stdimg.Calibrate(img, p.ColorCalibration)
	}))
	add(stdimg.StageDehaze, p.DehazeActive(), fn(stdimg.StageDehaze, func(img *image.NRGBA) {
		stdimg.Dehaze(img, p.Dehaze)
	}))
	add(stdimg.StageVignette, p.VignetteActive(), fn(stdimg.StageVignette, func(img *image.NRGBA) {
		stdimg.Vignette(img, p.Vignette)
	}))
	add(stdimg.StageGrain, p.GrainActive(), fn(stdimg.StageGrain, func(img *image.NRGBA) {
		stdimg.Grain(img, p.Grain)
	}))
	add(stdimg.StageBlur, p.BlurActive(), fn(stdimg.StageBlur, func(img *image.NRGBA) {
		stdimg.Blur(img, p.Blur)
	}))
	seed := opts.NoiseSeed
	if seed == 0 && p.Noise > 0 {
		seed = noiseSeed.Add(1)
	}
	add(stdimg.StageLegacy, p.LegacyActive(), fn(stdimg.StageLegacy, func(img *image.NRGBA) {
		stdimg.Legacy(img, p.Filters, p.Sepia, p.Noise, seed)
	}))

	logging.Logger().Debug("pipeline: filter list built", "stages", Names(list), "bypass", bypass.String())
	return list
}

// Names returns the stage names of list.
func Names(list []Stage) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name()
	}
	return out
}

// ActiveNames lists the stages that would run for p with bypass.
func ActiveNames(p params.EditParameters, bypass params.BypassSet) []string {
	return Names(BuildFilterList(p, bypass))
}

// Apply runs list over img in place. Adjacent LUT stages are composed into a
// single table, which is exact because each table maps bytes to bytes.
func Apply(img *image.NRGBA, list []Stage) {
	if img == nil {
		return
	}
	var pending *stdimg.ChannelLUT
	flush := func() {
		if pending != nil {
			pending.Apply(img)
			pending = nil
		}
	}
	for _, s := range list {
		if ls, ok := s.(LUTStage); ok {
			l := ls.LUT()
			if pending == nil {
				pending = &l
			} else {
				fused := pending.Then(l)
				pending = &fused
			}
			continue
		}
		flush()
		s.Apply(img)
	}
	flush()
}

// Process returns a filtered copy of src; src is not modified.
func Process(src image.Image, p params.EditParameters, bypass params.BypassSet) *image.NRGBA {
	img := stdimg.ToNRGBA(src)
	Apply(img, BuildFilterList(p, bypass))
	return img
}
