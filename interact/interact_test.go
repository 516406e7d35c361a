package interact

import (
	"testing"

	"github.com/milk9111/tileforge/scene"
	"github.com/milk9111/tileforge/store"
)

func newTestController(w, h int) (*Controller, *store.Store, *scene.Scene, *scene.Tile) {
	p := &scene.Project{Name: "test"}
	sc := scene.NewScene("main", w, h, 16)
	p.Scenes = append(p.Scenes, sc)
	p.ActiveSceneID = sc.ID
	tile := &scene.Tile{ID: scene.NewID(), Width: 16, Height: 16}
	p.AddTile(tile)
	st := store.New(p, nil)
	return New(st), st, sc, tile
}

func addPlacement(sc *scene.Scene, tileID string, x, y int) *scene.TilePlacement {
	p := &scene.TilePlacement{ID: scene.NewID(), TileID: tileID, GridX: x, GridY: y}
	sc.Placements = append(sc.Placements, p)
	return p
}

func TestClickSelectsAndDragMoves(t *testing.T) {
	c, st, sc, tile := newTestController(8, 8)
	p := addPlacement(sc, tile.ID, 0, 0)

	c.PointerDown(8, 8, ButtonLeft, Modifiers{})
	if !st.Selection().HasPlacement(p.ID) {
		t.Fatalf("pointer down on a placement must select it")
	}

	c.PointerMove(40, 8) // cell (2,0), cumulative offset (2,0)
	if p.GridX != 2 || p.GridY != 0 {
		t.Fatalf("expected placement at (2,0), got (%d,%d)", p.GridX, p.GridY)
	}

	c.PointerMove(24, 24) // cell (1,1), offsets overwrite, never stack
	if p.GridX != 1 || p.GridY != 1 {
		t.Fatalf("expected placement at (1,1), got (%d,%d)", p.GridX, p.GridY)
	}

	c.PointerUp(24, 24, Modifiers{})
	if st.Transaction() == nil {
		t.Fatalf("releasing inside the grid keeps the transaction open")
	}
}

func TestDragOffGridDeletes(t *testing.T) {
	c, st, sc, tile := newTestController(4, 4)
	p := addPlacement(sc, tile.ID, 1, 1)

	c.PointerDown(24, 24, ButtonLeft, Modifiers{})
	c.PointerMove(300, 24) // far right of a 64px-wide grid
	if got := sc.Placement(p.ID); got.GridX != 1 {
		t.Fatalf("an off-grid move must be withheld, placement drifted to x=%d", got.GridX)
	}

	c.PointerUp(300, 24, Modifiers{})
	if sc.Placement(p.ID) != nil {
		t.Fatalf("releasing off-grid must delete the dragged placement")
	}
	if st.Transaction() != nil {
		t.Fatalf("transaction must be folded before the delete")
	}
}

func TestPalettePlacementOpensDrag(t *testing.T) {
	c, st, sc, tile := newTestController(8, 8)
	c.SetPaletteTile(tile.ID)

	c.PointerDown(40, 40, ButtonLeft, Modifiers{})
	if len(sc.Placements) != 1 {
		t.Fatalf("pointer down on an empty cell must place the palette tile")
	}
	if sc.Placements[0].GridX != 2 || sc.Placements[0].GridY != 2 {
		t.Fatalf("placed at (%d,%d), want (2,2)", sc.Placements[0].GridX, sc.Placements[0].GridY)
	}

	c.PointerMove(56, 40)
	if sc.Placements[0].GridX != 3 {
		t.Fatalf("the fresh placement must follow the drag")
	}
	tx := st.Transaction()
	if tx == nil {
		t.Fatalf("placement must open a transaction")
	}
	if _, ok := tx.OriginalPosition(sc.Placements[0].ID); ok {
		t.Fatalf("dragging a fresh creation must not turn it into a move")
	}
}

func TestBandSelection(t *testing.T) {
	c, st, sc, tile := newTestController(8, 8)
	in1 := addPlacement(sc, tile.ID, 1, 0)
	in2 := addPlacement(sc, tile.ID, 2, 2)
	out := addPlacement(sc, tile.ID, 5, 5)

	c.PointerDown(4, 4, ButtonLeft, Modifiers{})
	c.PointerMove(47, 47)
	if min, max, ok := c.Band(); !ok || min != (store.Cell{X: 0, Y: 0}) || max != (store.Cell{X: 2, Y: 2}) {
		t.Fatalf("band should span (0,0)-(2,2), got %v-%v ok=%v", min, max, ok)
	}
	c.PointerUp(47, 47, Modifiers{})

	sel := st.Selection()
	if !sel.HasPlacement(in1.ID) || !sel.HasPlacement(in2.ID) {
		t.Fatalf("placements inside the band must be selected")
	}
	if sel.HasPlacement(out.ID) {
		t.Fatalf("placement outside the band must not be selected")
	}

	// Alt-band removes.
	c.PointerDown(4, 4, ButtonLeft, Modifiers{Alt: true})
	c.PointerMove(31, 15)
	c.PointerUp(31, 15, Modifiers{Alt: true})
	if sel.HasPlacement(in1.ID) {
		t.Fatalf("alt band must deselect")
	}
	if !sel.HasPlacement(in2.ID) {
		t.Fatalf("alt band must only touch its rectangle")
	}
}

func TestPanAndZoom(t *testing.T) {
	c, _, _, _ := newTestController(8, 8)

	c.PointerDown(100, 100, ButtonRight, Modifiers{})
	c.PointerMove(110, 95)
	c.PointerUp(110, 95, Modifiers{})
	v := c.Viewport()
	if v.OffsetX != 10 || v.OffsetY != -5 {
		t.Fatalf("pan moved the viewport to (%f,%f)", v.OffsetX, v.OffsetY)
	}

	before := c.Viewport().Zoom
	c.Wheel(50, 50, 1)
	if c.Viewport().Zoom <= before {
		t.Fatalf("wheel up must zoom in")
	}
}

func TestEdgeClickTogglesInEdgeMode(t *testing.T) {
	c, st, _, _ := newTestController(8, 8)
	st.SetSelectionMode(store.ModeEdges)
	e := st.AddEdge(2, 1, scene.Vertical, 1)

	// The boundary line x=32 runs alongside cell rows 1..2.
	c.PointerDown(32, 24, ButtonLeft, Modifiers{Shift: true})
	if !st.Selection().HasEdge(e.ID) {
		t.Fatalf("clicking the boundary must select the edge")
	}
	c.PointerUp(32, 24, Modifiers{Shift: true})

	c.PointerDown(32, 24, ButtonLeft, Modifiers{Shift: true})
	if st.Selection().HasEdge(e.ID) {
		t.Fatalf("additive edge clicks toggle")
	}
	c.PointerUp(32, 24, Modifiers{Shift: true})
}
