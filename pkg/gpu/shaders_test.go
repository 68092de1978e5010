package gpu

import (
	"strings"
	"testing"
)

func TestShaderSourcesNonEmpty(t *testing.T) {
	for _, name := range ProgramNames {
		t.Run(name, func(t *testing.T) {
			src := ShaderSource(name)
			if len(src) < 100 {
				t.Errorf("%s shader source suspiciously short: %d bytes", name, len(src))
			}
		})
	}
	if ShaderSource("nope") != "" {
		t.Errorf("unknown shader should have empty source")
	}
}

func TestShaderSourcesContainExpectedContent(t *testing.T) {
	tests := []struct {
		name     string
		required []string
	}{
		{ProgramCurves, []string{"@fragment", "fs_main", "curve_lut", "CurvesParams"}},
		{ProgramLight, []string{"@fragment", "tonal_shift", "contrast_adj", "LightParams"}},
		{ProgramBasicColor, []string{"@fragment", "mat3x3<f32>", "vibrance"}},
		{ProgramAdvancedColor, []string{"@fragment", "hsl_lut", "split_tone", "calibrate", "smoothstep"}},
		{ProgramEffects, []string{"@fragment", "hash3", "vignette", "dehaze"}},
		{ProgramBlur, []string{"@fragment", "weights", "radius"}},
		{ProgramLegacy, []string{"@fragment", "row0", "noise"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := ShaderSource(tt.name)
			if !strings.Contains(src, "@vertex") || !strings.Contains(src, "vs_main") {
				t.Errorf("%s missing fullscreen vertex stage", tt.name)
			}
			for _, req := range tt.required {
				if !strings.Contains(src, req) {
					t.Errorf("%s shader missing %q", tt.name, req)
				}
			}
		})
	}
}

func TestProgramsReportTheirSource(t *testing.T) {
	progs := []Program{&CurvesProgram{}, &LightProgram{}, &BasicColorProgram{}, &AdvancedColorProgram{}, &EffectsProgram{}, &BlurProgram{}, &LegacyProgram{}}
	if len(progs) != len(ProgramNames) {
		t.Fatalf("program list out of sync")
	}
	for i, p := range progs {
		if p.Name() != ProgramNames[i] {
			t.Errorf("program %d: got %s want %s", i, p.Name(), ProgramNames[i])
		}
		if p.Source() != ShaderSource(p.Name()) {
			t.Errorf("%s: source mismatch", p.Name())
		}
	}
}
