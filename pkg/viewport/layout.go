package viewport

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

// Layout is a canvas description: a viewport and the items on it.
type Layout struct {
	Viewport Viewport `yaml:"viewport"`
	Padding  *float64 `yaml:"padding,omitempty"`
	Items    []Item   `yaml:"items"`
}

// EffectivePadding returns the layout padding, or DefaultPadding if unset.
func (l Layout) EffectivePadding() float64 {
	if l.Padding == nil {
		return DefaultPadding
	}
	return *l.Padding
}

// ParseLayout decodes a YAML layout. Items without an ID get a random one.
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("parse layout: %w", err)
	}
	seen := make(map[string]bool, len(l.Items))
	for i := range l.Items {
		if l.Items[i].ID == "" {
			l.Items[i].ID = uuid.NewString()
		}
		if seen[l.Items[i].ID] {
			return Layout{}, fmt.Errorf("parse layout: duplicate item id %q", l.Items[i].ID)
		}
		seen[l.Items[i].ID] = true
	}
	if l.Viewport.Scale == 0 {
		l.Viewport.Scale = 1
	}
	return l, nil
}

// LoadLayout reads a YAML layout file.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	return ParseLayout(data)
}
