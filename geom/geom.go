// Package geom holds the stateless coordinate math between screen space and
// grid cells under a pannable, zoomable viewport.
package geom

import "math"

const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// Viewport is a pan offset in screen pixels plus a zoom factor. The world
// point w maps to screen at w*Zoom + Offset.
type Viewport struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64
}

func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ScreenToWorld inverts the pan/zoom transform.
func (v Viewport) ScreenToWorld(px, py float64) (float64, float64) {
	return (px - v.OffsetX) / v.Zoom, (py - v.OffsetY) / v.Zoom
}

// WorldToScreen applies the pan/zoom transform.
func (v Viewport) WorldToScreen(wx, wy float64) (float64, float64) {
	return wx*v.Zoom + v.OffsetX, wy*v.Zoom + v.OffsetY
}

// Panned returns the viewport shifted by a screen-space delta.
func (v Viewport) Panned(dx, dy float64) Viewport {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}

// ZoomedAt scales the zoom by factor, clamped to [MinZoom, MaxZoom], and
// recomputes the offset so the world point under the cursor (px, py) stays
// under it.
func (v Viewport) ZoomedAt(px, py, factor float64) Viewport {
	wx, wy := v.ScreenToWorld(px, py)
	z := v.Zoom * factor
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	v.Zoom = z
	v.OffsetX = px - wx*z
	v.OffsetY = py - wy*z
	return v
}

// ScreenToCell maps a screen point to a grid cell without bounds checking.
// Drags that leave the grid still need a cell delta, so this may return
// negative or out-of-range cells.
func ScreenToCell(px, py float64, v Viewport, tileSize int) (int, int) {
	wx, wy := v.ScreenToWorld(px, py)
	return int(math.Floor(wx / float64(tileSize))), int(math.Floor(wy / float64(tileSize)))
}

// ScreenToCellBounded is ScreenToCell restricted to [0,width) x [0,height);
// ok is false outside the grid.
func ScreenToCellBounded(px, py float64, v Viewport, tileSize, width, height int) (int, int, bool) {
	x, y := ScreenToCell(px, py, v, tileSize)
	if x < 0 || y < 0 || x >= width || y >= height {
		return 0, 0, false
	}
	return x, y, true
}

// CellToScreen returns the screen position of the cell's top-left corner.
func CellToScreen(x, y int, v Viewport, tileSize int) (float64, float64) {
	return v.WorldToScreen(float64(x*tileSize), float64(y*tileSize))
}
