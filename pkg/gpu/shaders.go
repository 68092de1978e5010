package gpu

import (
	"embed"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources, one file per program.
//
//go:embed shaders/*.wgsl
var shaderFS embed.FS

// ProgramNames lists every program in execution order.
var ProgramNames = []string{
	ProgramCurves,
	ProgramLight,
	ProgramBasicColor,
	ProgramAdvancedColor,
	ProgramEffects,
	ProgramBlur,
	ProgramLegacy,
}

func shaderSource(name string) string {
	b, err := shaderFS.ReadFile("shaders/" + name + ".wgsl")
	if err != nil {
		return ""
	}
	return string(b)
}

// ShaderSource returns the WGSL source of a program, or "" if unknown.
func ShaderSource(name string) string { return shaderSource(name) }

// CompileShaderToSPIRV compiles WGSL source to SPIR-V words.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// CompileShaders compiles the named programs (all of them when names is
// empty) and returns their SPIR-V keyed by program name.
func CompileShaders(names ...string) (map[string][]uint32, error) {
	if len(names) == 0 {
		names = ProgramNames
	}
	out := make(map[string][]uint32, len(names))
	for _, name := range names {
		src := shaderSource(name)
		if src == "" {
			return nil, fmt.Errorf("unknown shader %q", name)
		}
		words, err := CompileShaderToSPIRV(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = words
	}
	return out, nil
}

// SortedNames returns the keys of a compiled shader map in a stable order.
func SortedNames(m map[string][]uint32) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
