// Package viewport decides which canvas items are close enough to the
// visible area to be worth filtering.
package viewport

// DefaultPadding is the margin, in world units, added around the visible
// area so items just off screen are already mounted when they scroll in.
const DefaultPadding = 200

// Rect is an axis-aligned rectangle in world coordinates.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

// Inset grows r by d on every side (shrinks for negative d).
func (r Rect) Inset(d float64) Rect {
	return Rect{r.MinX - d, r.MinY - d, r.MaxX + d, r.MaxY + d}
}

// Intersects reports whether a and b overlap. Touching edges count.
func (r Rect) Intersects(b Rect) bool {
	if r.IsEmpty() || b.IsEmpty() {
		return false
	}
	return !(r.MaxX < b.MinX || r.MinX > b.MaxX ||
		r.MaxY < b.MinY || r.MinY > b.MaxY)
}

// Item is an image placed on the canvas.
type Item struct {
	ID     string  `yaml:"id"`
	Path   string  `yaml:"path,omitempty"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Bounds returns the item rectangle.
func (it Item) Bounds() Rect {
	return Rect{it.X, it.Y, it.X + it.Width, it.Y + it.Height}
}

// Viewport is the screen window onto the canvas: screen = world*Scale + Pan.
type Viewport struct {
	PanX   float64 `yaml:"pan_x"`
	PanY   float64 `yaml:"pan_y"`
	Scale  float64 `yaml:"scale"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ToWorld converts a screen point to world coordinates.
func (v Viewport) ToWorld(sx, sy float64) (float64, float64) {
	return (sx - v.PanX) / v.Scale, (sy - v.PanY) / v.Scale
}

// WorldBounds returns the visible area in world coordinates, grown by
// padding. ok is false when the scale is not positive.
func WorldBounds(v Viewport, padding float64) (r Rect, ok bool) {
	if !(v.Scale > 0) {
		return Rect{}, false
	}
	x0, y0 := v.ToWorld(0, 0)
	x1, y1 := v.ToWorld(v.Width, v.Height)
	return Rect{x0, y0, x1, y1}.Inset(padding), true
}

// VisibleSet returns the IDs of items overlapping the padded visible area.
func VisibleSet(items []Item, v Viewport, padding float64) map[string]struct{} {
	out := make(map[string]struct{})
	bounds, ok := WorldBounds(v, padding)
	if !ok {
		return out
	}
	for _, it := range items {
		if bounds.Intersects(it.Bounds()) {
			out[it.ID] = struct{}{}
		}
	}
	return out
}

// Visible is VisibleSet returning items in input order.
func Visible(items []Item, v Viewport, padding float64) []Item {
	set := VisibleSet(items, v, padding)
	var out []Item
	for _, it := range items {
		if _, ok := set[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}
