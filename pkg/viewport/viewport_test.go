package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleSetPaddingBoundary(t *testing.T) {
	items := []Item{{ID: "far", X: 500, Y: 500, Width: 1000, Height: 1000}}
	vp := Viewport{Scale: 1, Width: 400, Height: 400}

	assert.Empty(t, VisibleSet(items, vp, 0))
	assert.Contains(t, VisibleSet(items, vp, 150), "far")
}

func TestWorldBoundsPanAndScale(t *testing.T) {
	vp := Viewport{PanX: 100, PanY: -50, Scale: 2, Width: 800, Height: 600}
	r, ok := WorldBounds(vp, 0)
	require.True(t, ok)
	assert.Equal(t, Rect{-50, 25, 350, 325}, r)

	r, ok = WorldBounds(vp, 10)
	require.True(t, ok)
	assert.Equal(t, Rect{-60, 15, 360, 335}, r)
}

func TestVisibleSetZoomedOut(t *testing.T) {
	items := []Item{
		{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
		{ID: "b", X: 1500, Y: 0, Width: 100, Height: 100},
		{ID: "c", X: 5000, Y: 5000, Width: 100, Height: 100},
	}
	vp := Viewport{Scale: 0.5, Width: 1000, Height: 1000}
	got := VisibleSet(items, vp, 0)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
}

func TestVisibleSetDegenerateScale(t *testing.T) {
	items := []Item{{ID: "a", Width: 10, Height: 10}}
	for _, s := range []float64{0, -1} {
		assert.Empty(t, VisibleSet(items, Viewport{Scale: s, Width: 100, Height: 100}, DefaultPadding))
	}
}

func TestVisibleKeepsOrder(t *testing.T) {
	items := []Item{
		{ID: "z", X: 10, Width: 10, Height: 10},
		{ID: "off", X: 9000, Width: 10, Height: 10},
		{ID: "a", X: 20, Width: 10, Height: 10},
	}
	got := Visible(items, Viewport{Scale: 1, Width: 100, Height: 100}, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "z", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout([]byte(`
viewport:
  pan_x: 0
  pan_y: 0
  width: 400
  height: 400
items:
  - id: one
    x: 500
    y: 500
    width: 1000
    height: 1000
  - x: 10
    y: 10
    width: 50
    height: 50
`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, l.Viewport.Scale)
	assert.Equal(t, float64(DefaultPadding), l.EffectivePadding())
	require.Len(t, l.Items, 2)
	assert.NotEmpty(t, l.Items[1].ID)

	got := VisibleSet(l.Items, l.Viewport, 0)
	assert.NotContains(t, got, "one")
	assert.Contains(t, got, l.Items[1].ID)
}

func TestParseLayoutDuplicateID(t *testing.T) {
	_, err := ParseLayout([]byte("items:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err)
}
