// Package stdimg is the CPU implementation of every filter stage. Stages
// mutate an *image.NRGBA in place and never touch alpha.
package stdimg

import "github.com/Fepozopo/darkroom/pkg/params"

// Stage names, in pipeline order.
const (
	StageCurves       = "curves"
	StageBrightness   = "brightness"
	StageExposure     = "exposure"
	StageTonal        = "tonal"
	StageClarity      = "clarity"
	StageContrast     = "contrast"
	StageTemperature  = "temperature"
	StageHSV          = "hsv"
	StageVibrance     = "vibrance"
	StageHSL          = "hsl"
	StageSplitToning  = "splitToning"
	StageShadowTint   = "shadowTint"
	StageColorGrading = "colorGrading"
	StageCalibration  = "calibration"
	StageDehaze       = "dehaze"
	StageVignette     = "vignette"
	StageGrain        = "grain"
	StageBlur         = "blur"
	StageLegacy       = "legacy"
)

// StageSpec describes one stage for help text and inspection.
type StageSpec struct {
	Name        string
	Tab         params.Tab
	Params      []string // EditParameters fields the stage reads
	Description string
}

// Stages is the authoritative stage list in execution order.
var Stages = []StageSpec{
	{StageCurves, params.TabCurves, []string{"curves"}, "Tone curves, channel[rgb[x]] blended at 60%."},
	{StageBrightness, params.TabLight, []string{"brightness"}, "Multiply by 1+brightness."},
	{StageExposure, params.TabLight, []string{"exposure"}, "Multiply by 2^exposure."},
	{StageTonal, params.TabLight, []string{"highlights", "shadows", "whites", "blacks"}, "Tonal zone offsets."},
	{StageClarity, params.TabLight, []string{"clarity"}, "Midtone-weighted contrast."},
	{StageContrast, params.TabLight, []string{"contrast"}, "Contrast around mid-gray."},
	{StageTemperature, params.TabColor, []string{"temperature"}, "Warm/cool red-blue shift."},
	{StageHSV, params.TabColor, []string{"saturation", "hue"}, "Saturation and hue rotation matrix."},
	{StageVibrance, params.TabColor, []string{"vibrance"}, "Saturation boost favoring muted colors."},
	{StageHSL, params.TabColor, []string{"colorHSL"}, "Per-color hue/saturation/luminance."},
	{StageSplitToning, params.TabColor, []string{"splitToning"}, "Highlight and shadow tints."},
	{StageShadowTint, params.TabColor, []string{"shadowTint"}, "Green/magenta shadow tint."},
	{StageColorGrading, params.TabColor, []string{"colorGrading"}, "Shadow/midtone/highlight/global wheels."},
	{StageCalibration, params.TabColor, []string{"colorCalibration"}, "Primary hue/saturation calibration."},
	{StageDehaze, params.TabEffects, []string{"dehaze"}, "Contrast and saturation lift."},
	{StageVignette, params.TabEffects, []string{"vignette"}, "Radial corner darkening."},
	{StageGrain, params.TabEffects, []string{"grain"}, "Film grain."},
	{StageBlur, params.TabEffects, []string{"blur"}, "Separable gaussian, radius blur*20."},
	{StageLegacy, params.TabNone, []string{"filters", "sepia", "noise"}, "Grayscale/sepia/invert and noise."},
}

// LookupStage returns the StageSpec registered under name.
func LookupStage(name string) (StageSpec, bool) {
	for _, s := range Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageSpec{}, false
}
