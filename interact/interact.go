// Package interact turns raw pointer gestures into store operations. It owns
// no scene state of its own, only the in-flight gesture, so one input event
// always resolves to one store operation before control returns to the event
// loop.
package interact

import (
	"math"

	"github.com/milk9111/tileforge/geom"
	"github.com/milk9111/tileforge/scene"
	"github.com/milk9111/tileforge/store"
)

type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Modifiers carries the keyboard state relevant to a pointer event.
type Modifiers struct {
	Shift bool // additive selection
	Alt   bool // subtractive area selection
}

type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragBand
	dragPan
)

const wheelZoomStep = 1.1

// Controller interprets pointer gestures against a store and a viewport.
type Controller struct {
	store *store.Store
	view  geom.Viewport

	paletteTile string

	mode       dragMode
	dragIDs    []string
	dragStarts map[string]store.Cell
	startCell  store.Cell
	bandEnd    store.Cell
	lastX      float64
	lastY      float64
	moved      bool
}

func New(st *store.Store) *Controller {
	return &Controller{
		store: st,
		view:  geom.NewViewport(),
	}
}

func (c *Controller) Viewport() geom.Viewport      { return c.view }
func (c *Controller) SetViewport(v geom.Viewport)  { c.view = v }
func (c *Controller) PaletteTile() string          { return c.paletteTile }
func (c *Controller) SetPaletteTile(tileID string) { c.paletteTile = tileID }

// Band returns the in-progress rubber-band rectangle in grid coordinates,
// normalized; ok is false when no band selection is active.
func (c *Controller) Band() (min, max store.Cell, ok bool) {
	if c.mode != dragBand {
		return store.Cell{}, store.Cell{}, false
	}
	return normalize(c.startCell, c.bandEnd)
}

func normalize(a, b store.Cell) (store.Cell, store.Cell, bool) {
	if a.X > b.X {
		a.X, b.X = b.X, a.X
	}
	if a.Y > b.Y {
		a.Y, b.Y = b.Y, a.Y
	}
	return a, b, true
}

// PointerDown starts a gesture. Left button on a placement begins a move
// drag of the selection; on an empty cell it places the palette tile (opening
// a creation drag) or starts a rubber-band selection. Right and middle
// buttons pan.
func (c *Controller) PointerDown(px, py float64, button Button, mods Modifiers) {
	sc := c.store.ActiveScene()
	if sc == nil {
		return
	}
	c.lastX, c.lastY = px, py

	if button == ButtonRight || button == ButtonMiddle {
		c.mode = dragPan
		return
	}

	x, y, in := geom.ScreenToCellBounded(px, py, c.view, sc.TileSize, sc.GridWidth, sc.GridHeight)
	if !in {
		return
	}
	cell := store.Cell{X: x, Y: y}

	if c.store.Selection().Mode() == store.ModeEdges {
		if e := c.hitEdge(sc, px, py); e != nil {
			c.store.SelectEdge(e.ID, mods.Shift)
			return
		}
	}

	if hit := sc.PlacementAt(x, y); hit != nil {
		if !c.store.Selection().HasPlacement(hit.ID) {
			c.store.SelectPlacement(hit.ID, mods.Shift)
		}
		c.mode = dragMove
		c.moved = false
		c.startCell = cell
		c.dragIDs = c.store.Selection().PlacementIDs()
		c.captureDragStarts(sc)
		return
	}

	if c.paletteTile != "" {
		if p := c.store.PlaceTile(c.paletteTile, x, y); p != nil {
			c.mode = dragMove
			c.moved = false
			c.startCell = cell
			c.dragIDs = []string{p.ID}
			c.captureDragStarts(sc)
		}
		return
	}

	if !mods.Shift && !mods.Alt {
		c.store.ClearSelection()
	}
	c.mode = dragBand
	c.startCell = cell
	c.bandEnd = cell
}

// PointerMove continues the gesture. Move drags pass the cumulative cell
// offset from the drag start; the store overwrites positions rather than
// stacking deltas. A move that would push any dragged placement off the grid
// is withheld, leaving the drop decision to PointerUp.
func (c *Controller) PointerMove(px, py float64) {
	sc := c.store.ActiveScene()
	if sc == nil {
		return
	}
	switch c.mode {
	case dragPan:
		c.view = c.view.Panned(px-c.lastX, py-c.lastY)
	case dragMove:
		x, y := geom.ScreenToCell(px, py, c.view, sc.TileSize)
		dx, dy := x-c.startCell.X, y-c.startCell.Y
		if dx != 0 || dy != 0 {
			c.moved = true
		}
		if c.inBoundsAfter(sc, dx, dy) {
			c.store.MovePlacements(c.dragIDs, dx, dy)
		}
	case dragBand:
		x, y := geom.ScreenToCell(px, py, c.view, sc.TileSize)
		c.bandEnd = store.Cell{X: clamp(x, 0, sc.GridWidth-1), Y: clamp(y, 0, sc.GridHeight-1)}
	}
	c.lastX, c.lastY = px, py
}

// PointerUp ends the gesture. Releasing a move drag outside the grid deletes
// the dragged placements instead of moving them; inside the grid the
// transaction stays open so it can still be undone or cancelled. Releasing a
// band applies the area selection, subtractive with alt held.
func (c *Controller) PointerUp(px, py float64, mods Modifiers) {
	sc := c.store.ActiveScene()
	if sc == nil {
		c.mode = dragNone
		return
	}
	switch c.mode {
	case dragMove:
		if _, _, in := geom.ScreenToCellBounded(px, py, c.view, sc.TileSize, sc.GridWidth, sc.GridHeight); !in && c.moved {
			c.store.DeleteSelectedPlacements()
		}
	case dragBand:
		min, max, _ := normalize(c.startCell, c.bandEnd)
		if mods.Alt {
			c.store.DeselectArea(min.X, min.Y, max.X, max.Y)
		} else {
			c.store.SelectArea(min.X, min.Y, max.X, max.Y)
		}
	}
	c.mode = dragNone
	c.dragIDs = nil
	c.dragStarts = nil
}

// Wheel zooms about the cursor.
func (c *Controller) Wheel(px, py, wy float64) {
	if wy == 0 {
		return
	}
	factor := wheelZoomStep
	if wy < 0 {
		factor = 1 / wheelZoomStep
	}
	c.view = c.view.ZoomedAt(px, py, factor)
}

func (c *Controller) captureDragStarts(sc *scene.Scene) {
	c.dragStarts = make(map[string]store.Cell, len(c.dragIDs))
	for _, id := range c.dragIDs {
		if p := sc.Placement(id); p != nil {
			c.dragStarts[id] = store.Cell{X: p.GridX, Y: p.GridY}
		}
	}
}

// inBoundsAfter reports whether every dragged placement lands inside the grid
// after applying the cumulative offset from its drag-start cell.
func (c *Controller) inBoundsAfter(sc *scene.Scene, dx, dy int) bool {
	for _, id := range c.dragIDs {
		start, ok := c.dragStarts[id]
		if !ok {
			continue
		}
		if !sc.InBounds(start.X+dx, start.Y+dy) {
			return false
		}
	}
	return true
}

// hitEdge finds an edge whose boundary line passes within a quarter tile of
// the pointer.
func (c *Controller) hitEdge(sc *scene.Scene, px, py float64) *scene.Edge {
	wx, wy := c.view.ScreenToWorld(px, py)
	ts := float64(sc.TileSize)
	tol := ts / 4
	for _, e := range sc.Edges {
		switch e.Orientation {
		case scene.Vertical:
			lineX := float64(e.X) * ts
			if math.Abs(wx-lineX) <= tol && wy >= float64(e.Y)*ts && wy <= float64(e.Y+max(e.Width, 1))*ts {
				return e
			}
		case scene.Horizontal:
			lineY := float64(e.Y) * ts
			if math.Abs(wy-lineY) <= tol && wx >= float64(e.X)*ts && wx <= float64(e.X+max(e.Width, 1))*ts {
				return e
			}
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
