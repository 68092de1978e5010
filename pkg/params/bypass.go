package params

import (
	"fmt"
	"sort"
	"strings"
)

// Tab is an adjustment tab that can be bypassed as a whole.
type Tab string

const (
	TabCurves  Tab = "curves"
	TabLight   Tab = "light"
	TabColor   Tab = "color"
	TabEffects Tab = "effects"
	// TabNone marks stages that cannot be bypassed.
	TabNone Tab = ""
)

// Tabs lists the bypassable tabs.
var Tabs = []Tab{TabCurves, TabLight, TabColor, TabEffects}

// BypassSet is the set of tabs whose stages are skipped. The zero value
// bypasses nothing.
type BypassSet map[Tab]struct{}

// NewBypass builds a set from tabs.
func NewBypass(tabs ...Tab) BypassSet {
	b := make(BypassSet, len(tabs))
	for _, t := range tabs {
		b[t] = struct{}{}
	}
	return b
}

// Has reports whether t is bypassed. TabNone is never bypassed.
func (b BypassSet) Has(t Tab) bool {
	if t == TabNone {
		return false
	}
	_, ok := b[t]
	return ok
}

// With returns a copy of b that also bypasses t.
func (b BypassSet) With(t Tab) BypassSet {
	out := make(BypassSet, len(b)+1)
	for k := range b {
		out[k] = struct{}{}
	}
	out[t] = struct{}{}
	return out
}

// Toggle returns a copy of b with t flipped.
func (b BypassSet) Toggle(t Tab) BypassSet {
	out := make(BypassSet, len(b))
	for k := range b {
		out[k] = struct{}{}
	}
	if _, ok := out[t]; ok {
		delete(out, t)
	} else {
		out[t] = struct{}{}
	}
	return out
}

func (b BypassSet) String() string {
	names := make([]string, 0, len(b))
	for t := range b {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// ParseBypass parses a comma separated list such as "light,effects".
// "all" bypasses every tab.
func ParseBypass(s string) (BypassSet, error) {
	b := BypassSet{}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "all" {
			return NewBypass(Tabs...), nil
		}
		found := false
		for _, t := range Tabs {
			if string(t) == part {
				b[t] = struct{}{}
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown tab %q", part)
		}
	}
	return b, nil
}
