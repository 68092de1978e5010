package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Fepozopo/darkroom/pkg/curves"
	"github.com/Fepozopo/darkroom/pkg/params"
)

// ParamType is a small enum for adjustment value types.
type ParamType string

const (
	ParamTypeFloat   ParamType = "float"
	ParamTypeBool    ParamType = "bool"
	ParamTypePercent ParamType = "percent"
	ParamTypeCurve   ParamType = "curve"
)

// ValidationRule is a machine-friendly representation of the constraints
// a client can check before setting an adjustment.
type ValidationRule struct {
	Type    ParamType `json:"type"`
	Min     *float64  `json:"min,omitempty"`
	Max     *float64  `json:"max,omitempty"`
	Unit    string    `json:"unit,omitempty"`
	Example string    `json:"example,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// Adjustment is one user-settable field of params.EditParameters.
type Adjustment struct {
	Key         string
	Tab         params.Tab
	Type        ParamType
	Min, Max    float64
	Unit        string
	Description string

	get     func(p params.EditParameters) float64
	set     func(p *params.EditParameters, v float64)
	getBool func(p params.EditParameters) bool
	setBool func(p *params.EditParameters, v bool)
	curve   func(p *params.EditParameters) *curves.Curve
}

// Rule returns the validation rule for a.
func (a Adjustment) Rule() ValidationRule {
	r := ValidationRule{Type: a.Type, Unit: a.Unit, Hint: a.Description}
	switch a.Type {
	case ParamTypeBool:
		r.Example = "on"
	case ParamTypeCurve:
		r.Example = "0:0,64:50,192:210,255:255"
	default:
		lo, hi := a.Min, a.Max
		r.Min, r.Max = &lo, &hi
		r.Example = strconv.FormatFloat(hi/2, 'f', -1, 64)
		if a.Type == ParamTypePercent {
			r.Example = strconv.FormatFloat(hi*50, 'f', -1, 64) + "%"
		}
	}
	return r
}

// Tooltip is the help text shown before prompting for a value.
func (a Adjustment) Tooltip() string {
	var sb strings.Builder
	sb.WriteString(a.Key)
	if a.Description != "" {
		sb.WriteString(": " + a.Description)
	}
	switch a.Type {
	case ParamTypeBool:
		sb.WriteString(" (on/off)")
	case ParamTypeCurve:
		sb.WriteString(" (x:y pairs in 0..255, empty resets)")
	default:
		fmt.Fprintf(&sb, " (%s, %g..%g", a.Type, a.Min, a.Max)
		if a.Unit != "" {
			sb.WriteString(" " + a.Unit)
		}
		sb.WriteString(")")
	}
	if a.Tab != params.TabNone {
		sb.WriteString(" [" + string(a.Tab) + "]")
	}
	return sb.String()
}

// Value formats the current value of a in p.
func (a Adjustment) Value(p params.EditParameters) string {
	switch a.Type {
	case ParamTypeBool:
		if a.getBool(p) {
			return "on"
		}
		return "off"
	case ParamTypeCurve:
		return formatCurve(*a.curve(&p))
	default:
		return strconv.FormatFloat(a.get(p), 'f', -1, 64)
	}
}

// Set parses raw and stores it into p.
func (a Adjustment) Set(p *params.EditParameters, raw string) error {
	raw = strings.TrimSpace(raw)
	switch a.Type {
	case ParamTypeBool:
		bs, err := parseBoolLikeToString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Key, err)
		}
		a.setBool(p, bs == "true")
		return nil
	case ParamTypeCurve:
		c, err := parseCurve(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Key, err)
		}
		*a.curve(p) = c
		return nil
	}

	var f float64
	if a.Type == ParamTypePercent {
		n, err := parsePercentValue(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Key, err)
		}
		f, _ = strconv.ParseFloat(n, 64)
		if strings.HasSuffix(raw, "%") {
			f /= 100
		}
	} else {
		var err error
		f, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s: expected number, got %q", a.Key, raw)
		}
	}
	if f < a.Min {
		return fmt.Errorf("%s: %v < min %v", a.Key, f, a.Min)
	}
	if f > a.Max {
		return fmt.Errorf("%s: %v > max %v", a.Key, f, a.Max)
	}
	a.set(p, f)
	return nil
}

// parseBoolLikeToString accepts common truthy/falsy forms and returns "true"/"false" string.
func parseBoolLikeToString(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return "true", nil
	case "0", "f", "false", "n", "no", "off":
		return "false", nil
	default:
		return "", fmt.Errorf("invalid boolean: %q", s)
	}
}

// parsePercentValue parses a percent string like "30%" or a bare number and returns numeric string.
func parsePercentValue(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		raw := strings.TrimSuffix(s, "%")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", fmt.Errorf("invalid percent value: %q", s)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("invalid percent/float value: %q", s)
	}
	return s, nil
}

// parseCurve reads "x:y,x:y,..." control points. An empty string is the
// identity curve.
func parseCurve(s string) (curves.Curve, error) {
	if s == "" {
		return curves.DefaultCurve(), nil
	}
	var c curves.Curve
	for _, part := range strings.Split(s, ",") {
		xs, ys, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("invalid point %q, want x:y", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid x in %q", part)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid y in %q", part)
		}
		if x < 0 || x > 255 || y < 0 || y > 255 {
			return nil, fmt.Errorf("point %q outside 0..255", part)
		}
		c = append(c, curves.Point{X: x, Y: y})
	}
	return c, nil
}

func formatCurve(c curves.Curve) string {
	parts := make([]string, len(c))
	for i, pt := range c {
		parts[i] = strconv.FormatFloat(pt.X, 'f', -1, 64) + ":" + strconv.FormatFloat(pt.Y, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func slider(key string, tab params.Tab, typ ParamType, lo, hi float64, desc string, field func(p *params.EditParameters) *float64) Adjustment {
	return Adjustment{
		Key: key, Tab: tab, Type: typ, Min: lo, Max: hi, Description: desc,
		get: func(p params.EditParameters) float64 { return *field(&p) },
		set: func(p *params.EditParameters, v float64) { *field(p) = v },
	}
}

func toggle(key, desc string, field func(p *params.EditParameters) *bool) Adjustment {
	return Adjustment{
		Key: key, Tab: params.TabNone, Type: ParamTypeBool, Description: desc,
		getBool: func(p params.EditParameters) bool { return *field(&p) },
		setBool: func(p *params.EditParameters, v bool) { *field(p) = v },
	}
}

// hslSlider edits one field of a band in the ColorHSL map.
func hslSlider(b params.Band, name string, field func(a *params.HSLAdjust) *float64) Adjustment {
	return Adjustment{
		Key: "hsl." + string(b) + "." + name, Tab: params.TabColor, Type: ParamTypeFloat,
		Min: -100, Max: 100, Description: fmt.Sprintf("%s %s", b, name),
		get: func(p params.EditParameters) float64 {
			a := p.ColorHSL[b]
			return *field(&a)
		},
		set: func(p *params.EditParameters, v float64) {
			if p.ColorHSL == nil {
				p.ColorHSL = make(map[params.Band]params.HSLAdjust)
			}
			a := p.ColorHSL[b]
			*field(&a) = v
			if a.IsZero() {
				delete(p.ColorHSL, b)
				return
			}
			p.ColorHSL[b] = a
		},
	}
}

func curveAdjustment(key, desc string, field func(c *curves.Curves) *curves.Curve) Adjustment {
	return Adjustment{
		Key: key, Tab: params.TabCurves, Type: ParamTypeCurve, Description: desc,
		curve: func(p *params.EditParameters) *curves.Curve { return field(&p.Curves) },
	}
}

// Adjustments lists every settable field, grouped by tab.
var Adjustments = buildAdjustments()

func buildAdjustments() []Adjustment {
	light, color, fx := params.TabLight, params.TabColor, params.TabEffects
	pct := ParamTypePercent
	adjs := []Adjustment{
		curveAdjustment("curves.rgb", "master tone curve", func(c *curves.Curves) *curves.Curve { return &c.RGB }),
		curveAdjustment("curves.red", "red channel curve", func(c *curves.Curves) *curves.Curve { return &c.Red }),
		curveAdjustment("curves.green", "green channel curve", func(c *curves.Curves) *curves.Curve { return &c.Green }),
		curveAdjustment("curves.blue", "blue channel curve", func(c *curves.Curves) *curves.Curve { return &c.Blue }),

		slider("exposure", light, ParamTypeFloat, -5, 5, "exposure", func(p *params.EditParameters) *float64 { return &p.Exposure }),
		slider("brightness", light, pct, -1, 1, "brightness", func(p *params.EditParameters) *float64 { return &p.Brightness }),
		slider("contrast", light, pct, -1, 1, "contrast around mid-gray", func(p *params.EditParameters) *float64 { return &p.Contrast }),
		slider("highlights", light, pct, -1, 1, "highlight recovery", func(p *params.EditParameters) *float64 { return &p.Highlights }),
		slider("shadows", light, pct, -1, 1, "shadow lift", func(p *params.EditParameters) *float64 { return &p.Shadows }),
		slider("whites", light, pct, -1, 1, "white point", func(p *params.EditParameters) *float64 { return &p.Whites }),
		slider("blacks", light, pct, -1, 1, "black point", func(p *params.EditParameters) *float64 { return &p.Blacks }),
		slider("clarity", light, pct, -1, 1, "midtone contrast", func(p *params.EditParameters) *float64 { return &p.Clarity }),

		slider("temperature", color, pct, -1, 1, "cool/warm", func(p *params.EditParameters) *float64 { return &p.Temperature }),
		slider("saturation", color, pct, -1, 1, "saturation", func(p *params.EditParameters) *float64 { return &p.Saturation }),
		slider("hue", color, pct, -1, 1, "hue rotation, 1 = 180 degrees", func(p *params.EditParameters) *float64 { return &p.Hue }),
		slider("vibrance", color, pct, -1, 1, "muted color boost", func(p *params.EditParameters) *float64 { return &p.Vibrance }),
		slider("shadowTint", color, pct, -1, 1, "green/magenta shadow tint", func(p *params.EditParameters) *float64 { return &p.ShadowTint }),

		slider("dehaze", fx, pct, -1, 1, "haze removal", func(p *params.EditParameters) *float64 { return &p.Dehaze }),
		slider("vignette", fx, pct, -1, 1, "corner darkening (negative lightens)", func(p *params.EditParameters) *float64 { return &p.Vignette }),
		slider("grain", fx, pct, 0, 1, "film grain", func(p *params.EditParameters) *float64 { return &p.Grain }),
		slider("blur", fx, pct, 0, 1, "gaussian blur, radius blur*20 px", func(p *params.EditParameters) *float64 { return &p.Blur }),

		slider("sepia", params.TabNone, pct, 0, 1, "sepia amount", func(p *params.EditParameters) *float64 { return &p.Sepia }),
		slider("noise", params.TabNone, pct, 0, 1, "uniform noise", func(p *params.EditParameters) *float64 { return &p.Noise }),
		toggle("filters.grayscale", "grayscale filter", func(p *params.EditParameters) *bool { return &p.Filters.Grayscale }),
		toggle("filters.sepia", "full sepia filter", func(p *params.EditParameters) *bool { return &p.Filters.Sepia }),
		toggle("filters.invert", "invert filter", func(p *params.EditParameters) *bool { return &p.Filters.Invert }),
	}

	for _, b := range params.Bands {
		adjs = append(adjs,
			hslSlider(b, "hue", func(a *params.HSLAdjust) *float64 { return &a.Hue }),
			hslSlider(b, "saturation", func(a *params.HSLAdjust) *float64 { return &a.Saturation }),
			hslSlider(b, "luminance", func(a *params.HSLAdjust) *float64 { return &a.Luminance }),
		)
	}

	st := func(key string, lo, hi float64, unit string, field func(s *params.SplitToning) *float64) Adjustment {
		a := slider("splitToning."+key, color, ParamTypeFloat, lo, hi, "split toning "+key,
			func(p *params.EditParameters) *float64 { return field(&p.SplitToning) })
		a.Unit = unit
		return a
	}
	adjs = append(adjs,
		st("highlightHue", 0, 360, "deg", func(s *params.SplitToning) *float64 { return &s.HighlightHue }),
		st("highlightSaturation", 0, 100, "", func(s *params.SplitToning) *float64 { return &s.HighlightSaturation }),
		st("shadowHue", 0, 360, "deg", func(s *params.SplitToning) *float64 { return &s.ShadowHue }),
		st("shadowSaturation", 0, 100, "", func(s *params.SplitToning) *float64 { return &s.ShadowSaturation }),
		st("balance", -100, 100, "", func(s *params.SplitToning) *float64 { return &s.Balance }),
	)

	zones := []struct {
		name string
		zone func(g *params.ColorGrading) *params.Zone
	}{
		{"shadows", func(g *params.ColorGrading) *params.Zone { return &g.Shadows }},
		{"midtones", func(g *params.ColorGrading) *params.Zone { return &g.Midtones }},
		{"highlights", func(g *params.ColorGrading) *params.Zone { return &g.Highlights }},
		{"global", func(g *params.ColorGrading) *params.Zone { return &g.Global }},
	}
	for _, z := range zones {
		zone := z.zone
		prefix := "colorGrading." + z.name + "."
		hue := slider(prefix+"hue", color, ParamTypeFloat, 0, 360, z.name+" wheel hue",
			func(p *params.EditParameters) *float64 { return &zone(&p.ColorGrading).Hue })
		hue.Unit = "deg"
		adjs = append(adjs, hue,
			slider(prefix+"saturation", color, ParamTypeFloat, 0, 100, z.name+" wheel saturation",
				func(p *params.EditParameters) *float64 { return &zone(&p.ColorGrading).Saturation }),
			slider(prefix+"luminance", color, ParamTypeFloat, -100, 100, z.name+" wheel luminance",
				func(p *params.EditParameters) *float64 { return &zone(&p.ColorGrading).Luminance }),
		)
	}
	adjs = append(adjs,
		slider("colorGrading.blending", color, ParamTypeFloat, 0, 100, "zone overlap", func(p *params.EditParameters) *float64 { return &p.ColorGrading.Blending }),
		slider("colorGrading.balance", color, ParamTypeFloat, -100, 100, "shadow/highlight balance", func(p *params.EditParameters) *float64 { return &p.ColorGrading.Balance }),
	)

	primaries := []struct {
		name    string
		primary func(c *params.ColorCalibration) *params.Primary
	}{
		{"red", func(c *params.ColorCalibration) *params.Primary { return &c.Red }},
		{"green", func(c *params.ColorCalibration) *params.Primary { return &c.Green }},
		{"blue", func(c *params.ColorCalibration) *params.Primary { return &c.Blue }},
	}
	for _, pr := range primaries {
		primary := pr.primary
		prefix := "colorCalibration." + pr.name + "."
		adjs = append(adjs,
			slider(prefix+"hue", color, ParamTypeFloat, -100, 100, pr.name+" primary hue",
				func(p *params.EditParameters) *float64 { return &primary(&p.ColorCalibration).Hue }),
			slider(prefix+"saturation", color, ParamTypeFloat, -100, 100, pr.name+" primary saturation",
				func(p *params.EditParameters) *float64 { return &primary(&p.ColorCalibration).Saturation }),
		)
	}
	adjs = append(adjs,
		slider("colorCalibration.shadowTint", color, ParamTypeFloat, -100, 100, "calibration shadow tint",
			func(p *params.EditParameters) *float64 { return &p.ColorCalibration.ShadowTint }),
	)
	return adjs
}

// LookupAdjustment finds an adjustment by key, ignoring case.
func LookupAdjustment(key string) (Adjustment, bool) {
	for _, a := range Adjustments {
		if strings.EqualFold(a.Key, key) {
			return a, true
		}
	}
	return Adjustment{}, false
}

// resolveAdjustment maps user input to a key: an exact match first, then a
// unique prefix. Ambiguous prefixes return the sorted candidates.
func resolveAdjustment(sel string) (string, []string) {
	if a, ok := LookupAdjustment(sel); ok {
		return a.Key, nil
	}
	lower := strings.ToLower(sel)
	var matches []string
	for _, a := range Adjustments {
		if strings.HasPrefix(strings.ToLower(a.Key), lower) {
			matches = append(matches, a.Key)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	sort.Strings(matches)
	return "", matches
}

// ApplyAssignments applies "key=value" pairs to p in order.
func ApplyAssignments(p *params.EditParameters, assignments []string) error {
	for _, kv := range assignments {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q, want key=value", kv)
		}
		a, found := LookupAdjustment(strings.TrimSpace(key))
		if !found {
			return fmt.Errorf("unknown adjustment %q", key)
		}
		if err := a.Set(p, val); err != nil {
			return err
		}
	}
	return nil
}

// Changed lists the adjustments whose value differs from the identity edit.
func Changed(p params.EditParameters) []Adjustment {
	id := params.Identity()
	var out []Adjustment
	for _, a := range Adjustments {
		if a.Value(p) != a.Value(id) {
			out = append(out, a)
		}
	}
	return out
}
