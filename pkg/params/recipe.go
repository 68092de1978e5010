package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fepozopo/darkroom/pkg/curves"
	"github.com/blang/semver"
	"gopkg.in/yaml.v2"
)

// RecipeVersion is written into every saved recipe.
var RecipeVersion = semver.MustParse("1.0.0")

// ErrRecipeVersion is returned for recipes written by an incompatible release.
var ErrRecipeVersion = errors.New("incompatible recipe version")

// Recipe is the on-disk form of a saved edit.
type Recipe struct {
	Version string         `json:"version" yaml:"version"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Bypass  []Tab          `json:"bypass,omitempty" yaml:"bypass,omitempty"`
	Params  EditParameters `json:"params" yaml:"params"`
}

// BypassSet returns the recipe's bypassed tabs as a set.
func (r Recipe) BypassSet() BypassSet { return NewBypass(r.Bypass...) }

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// ParseRecipe decodes data as YAML, or JSON when asJSON is set. Missing
// curves default to identity and the result is clamped.
func ParseRecipe(data []byte, asJSON bool) (Recipe, error) {
	r := Recipe{Params: Identity()}
	var err error
	if asJSON {
		err = json.Unmarshal(data, &r)
	} else {
		err = yaml.Unmarshal(data, &r)
	}
	if err != nil {
		return Recipe{}, fmt.Errorf("decode recipe: %w", err)
	}
	if r.Version == "" {
		r.Version = RecipeVersion.String()
	}
	v, err := semver.ParseTolerant(r.Version)
	if err != nil {
		return Recipe{}, fmt.Errorf("recipe version %q: %w", r.Version, err)
	}
	if v.Major != RecipeVersion.Major {
		return Recipe{}, fmt.Errorf("%w: %s (want %d.x)", ErrRecipeVersion, v, RecipeVersion.Major)
	}
	fillDefaultCurves(&r.Params)
	r.Params = r.Params.Clamped()
	return r, nil
}

func fillDefaultCurves(p *EditParameters) {
	if len(p.Curves.RGB) == 0 {
		p.Curves.RGB = curves.DefaultCurve()
	}
	if len(p.Curves.Red) == 0 {
		p.Curves.Red = curves.DefaultCurve()
	}
	if len(p.Curves.Green) == 0 {
		p.Curves.Green = curves.DefaultCurve()
	}
	if len(p.Curves.Blue) == 0 {
		p.Curves.Blue = curves.DefaultCurve()
	}
}

// LoadRecipe reads a recipe file. Files ending in .json are JSON, anything
// else YAML.
func LoadRecipe(path string) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("read recipe: %w", err)
	}
	return ParseRecipe(data, isJSON(path))
}

// SaveRecipe writes r to path, stamping the current recipe version.
func SaveRecipe(path string, r Recipe) error {
	r.Version = RecipeVersion.String()
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = yaml.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write recipe: %w", err)
	}
	return nil
}
