package params

import "github.com/Fepozopo/darkroom/pkg/curves"

// Activity predicates. A stage runs only when its predicate holds; equality
// is exact except for the 0..1 effects, which use > 0.

func (p EditParameters) CurvesActive() bool { return curves.IsCurvesModified(p.Curves) }

func (p EditParameters) BrightnessActive() bool { return p.Brightness != 0 }

func (p EditParameters) ExposureActive() bool { return p.Exposure != 0 }

func (p EditParameters) TonalActive() bool {
	return p.Highlights != 0 || p.Shadows != 0 || p.Whites != 0 || p.Blacks != 0
}

func (p EditParameters) ClarityActive() bool { return p.Clarity != 0 }

func (p EditParameters) ContrastActive() bool { return p.Contrast != 0 }

func (p EditParameters) TemperatureActive() bool { return p.Temperature != 0 }

func (p EditParameters) HSVActive() bool { return p.Saturation != 0 || p.Hue != 0 }

func (p EditParameters) VibranceActive() bool { return p.Vibrance != 0 }

func (p EditParameters) HSLActive() bool {
	for _, a := range p.ColorHSL {
		if !a.IsZero() {
			return true
		}
	}
	return false
}

func (p EditParameters) SplitToningActive() bool {
	return p.SplitToning.HighlightSaturation != 0 || p.SplitToning.ShadowSaturation != 0
}

func (p EditParameters) ShadowTintActive() bool { return p.ShadowTint != 0 }

func (p EditParameters) ColorGradingActive() bool {
	cg := p.ColorGrading
	for _, z := range []Zone{cg.Shadows, cg.Midtones, cg.Highlights, cg.Global} {
		if z.Saturation != 0 || z.Luminance != 0 {
			return true
		}
	}
	return false
}

func (p EditParameters) CalibrationActive() bool {
	cc := p.ColorCalibration
	for _, pr := range []Primary{cc.Red, cc.Green, cc.Blue} {
		if pr.Hue != 0 || pr.Saturation != 0 {
			return true
		}
	}
	return cc.ShadowTint != 0
}

func (p EditParameters) DehazeActive() bool { return p.Dehaze != 0 }

func (p EditParameters) VignetteActive() bool { return p.Vignette != 0 }

func (p EditParameters) GrainActive() bool { return p.Grain > 0 }

func (p EditParameters) BlurActive() bool { return p.Blur > 0 }

func (p EditParameters) LegacyActive() bool {
	return p.Filters.Any() || p.Sepia > 0 || p.Noise > 0
}

// LightActive reports whether anything in the light group is active.
func (p EditParameters) LightActive() bool {
	return p.BrightnessActive() || p.ExposureActive() || p.TonalActive() ||
		p.ClarityActive() || p.ContrastActive()
}

// BasicColorActive covers temperature, saturation/hue and vibrance.
func (p EditParameters) BasicColorActive() bool {
	return p.TemperatureActive() || p.HSVActive() || p.VibranceActive()
}

// AdvancedColorActive covers the per-color, split-tone, shadow-tint, grading
// and calibration stages.
func (p EditParameters) AdvancedColorActive() bool {
	return p.HSLActive() || p.SplitToningActive() || p.ShadowTintActive() ||
		p.ColorGradingActive() || p.CalibrationActive()
}

// EffectsActive covers dehaze, vignette and grain.
func (p EditParameters) EffectsActive() bool {
	return p.DehazeActive() || p.VignetteActive() || p.GrainActive()
}

// IsIdentity reports whether no stage would run.
func (p EditParameters) IsIdentity() bool {
	return !p.CurvesActive() && !p.LightActive() && !p.BasicColorActive() &&
		!p.AdvancedColorActive() && !p.EffectsActive() && !p.BlurActive() && !p.LegacyActive()
}
