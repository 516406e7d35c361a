package store

import (
	"testing"

	"github.com/milk9111/tileforge/scene"
)

func newTestProject(w, h int) (*scene.Project, *scene.Scene, *scene.Tile) {
	p := &scene.Project{Name: "test"}
	sc := scene.NewScene("main", w, h, 16)
	p.Scenes = append(p.Scenes, sc)
	p.ActiveSceneID = sc.ID
	t := &scene.Tile{ID: scene.NewID(), Labels: []string{"grass"}, Width: 16, Height: 16}
	p.AddTile(t)
	return p, sc, t
}

func addPlacement(sc *scene.Scene, tileID string, x, y int) *scene.TilePlacement {
	p := &scene.TilePlacement{ID: scene.NewID(), TileID: tileID, GridX: x, GridY: y}
	sc.Placements = append(sc.Placements, p)
	return p
}

func TestPlaceThenUndo(t *testing.T) {
	proj, sc, tile := newTestProject(4, 4)
	st := New(proj, nil)

	st.PlaceTile(tile.ID, 1, 1)
	if st.Transaction() == nil {
		t.Fatalf("placing a tile should open a transaction")
	}
	if len(sc.Placements) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(sc.Placements))
	}

	st.Undo()
	if len(sc.Placements) != 0 {
		t.Fatalf("undo of an uncommitted creation should empty the scene, got %d placements", len(sc.Placements))
	}
	if st.Transaction() != nil {
		t.Fatalf("transaction should be idle after undo")
	}
	if st.CanUndo() {
		t.Fatalf("nothing left to undo")
	}
}

func TestMoveCommitUndoRedo(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	p := addPlacement(sc, tile.ID, 0, 0)

	st.MovePlacements([]string{p.ID}, 1, 0)
	if p.GridX != 1 || p.GridY != 0 {
		t.Fatalf("expected placement at (1,0), got (%d,%d)", p.GridX, p.GridY)
	}
	tx := st.Transaction()
	if tx == nil {
		t.Fatalf("move should open a transaction")
	}
	if c, ok := tx.OriginalPosition(p.ID); !ok || c != (Cell{0, 0}) {
		t.Fatalf("expected original position (0,0), got %v ok=%v", c, ok)
	}

	st.CommitTransaction()
	if len(st.ledger.past) != 1 {
		t.Fatalf("commit should push exactly one history entry, got %d", len(st.ledger.past))
	}
	if got := st.ledger.past[0].placements[0]; got.GridX != 0 || got.GridY != 0 {
		t.Fatalf("history should hold the pre-move state, got (%d,%d)", got.GridX, got.GridY)
	}

	st.Undo()
	if got := sc.Placement(p.ID); got.GridX != 0 || got.GridY != 0 {
		t.Fatalf("undo should restore (0,0), got (%d,%d)", got.GridX, got.GridY)
	}
	if len(st.ledger.future) != 1 {
		t.Fatalf("undo should push one future entry, got %d", len(st.ledger.future))
	}
	if got := st.ledger.future[0].placements[0]; got.GridX != 1 {
		t.Fatalf("future should hold the post-move state, got x=%d", got.GridX)
	}

	st.Redo()
	if got := sc.Placement(p.ID); got.GridX != 1 || got.GridY != 0 {
		t.Fatalf("redo should restore (1,0), got (%d,%d)", got.GridX, got.GridY)
	}
}

func TestMoveOffsetIsCumulativeFromDragStart(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	p := addPlacement(sc, tile.ID, 2, 3)

	st.MovePlacements([]string{p.ID}, 1, 0)
	st.MovePlacements([]string{p.ID}, 2, 1)
	if p.GridX != 4 || p.GridY != 4 {
		t.Fatalf("offsets must be applied from the drag start cell, got (%d,%d)", p.GridX, p.GridY)
	}
	if c, _ := st.Transaction().OriginalPosition(p.ID); c != (Cell{2, 3}) {
		t.Fatalf("first-move capture must not be overwritten, got %v", c)
	}
}

func TestCancelRestoresMove(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	a := addPlacement(sc, tile.ID, 0, 0)
	b := addPlacement(sc, tile.ID, 2, 2)

	ids := []string{a.ID, b.ID}
	st.MovePlacements(ids, 1, 0)
	st.MovePlacements(ids, 3, 2)
	st.CancelTransaction()

	if a.GridX != 0 || a.GridY != 0 || b.GridX != 2 || b.GridY != 2 {
		t.Fatalf("cancel must restore pre-transaction positions, got a=(%d,%d) b=(%d,%d)",
			a.GridX, a.GridY, b.GridX, b.GridY)
	}
	if st.Transaction() != nil {
		t.Fatalf("transaction should be idle after cancel")
	}
}

func TestCancelRemovesCreation(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	under := addPlacement(sc, tile.ID, 1, 1)

	p := st.PlaceTile(tile.ID, 1, 1)
	st.MovePlacements([]string{p.ID}, 1, 1)
	st.CancelTransaction()

	if sc.Placement(p.ID) != nil {
		t.Fatalf("cancel must remove placements created by the transaction")
	}
	if sc.Placement(under.ID) == nil {
		t.Fatalf("replaced placement must survive a cancel untouched")
	}
	if under.GridX != 1 || under.GridY != 1 {
		t.Fatalf("replaced placement must keep its cell, got (%d,%d)", under.GridX, under.GridY)
	}
}

func TestCommitDeletesReplaced(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	under := addPlacement(sc, tile.ID, 1, 1)

	p := st.PlaceTile(tile.ID, 1, 1)
	tx := st.Transaction()
	if got := tx.Replaced(); len(got) != 1 || got[0].ID != under.ID {
		t.Fatalf("expected the covered placement to be recorded as replaced")
	}

	st.CommitTransaction()
	if sc.Placement(under.ID) != nil {
		t.Fatalf("commit must delete replaced placements")
	}
	if got := sc.Placement(p.ID); got == nil || got.GridX != 1 || got.GridY != 1 {
		t.Fatalf("committed placement must keep its in-transaction position")
	}
	// The history entry holds the pre-transaction scene: the covered
	// placement present, the new one absent.
	pre := st.ledger.past[len(st.ledger.past)-1].placements
	if len(pre) != 1 || pre[0].ID != under.ID {
		t.Fatalf("history must hold the pre-transaction state")
	}
}

func TestUndoOpenCreationThenRedoRestoresTransaction(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)

	p := st.PlaceTile(tile.ID, 2, 2)
	st.Undo()
	if len(sc.Placements) != 0 {
		t.Fatalf("undo should remove the uncommitted creation")
	}
	if !st.CanRedo() {
		t.Fatalf("the undone creation should be redoable")
	}

	st.Redo()
	if sc.Placement(p.ID) == nil {
		t.Fatalf("redo should restore the created placement")
	}
	if st.Transaction() == nil || !st.Transaction().has(p.ID) {
		t.Fatalf("redo should restore the open transaction")
	}
	if !st.Selection().HasPlacement(p.ID) {
		t.Fatalf("redo should re-select the restored placement")
	}
}

func TestUndoOpenMoveKeepsTransactionOpen(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	p := addPlacement(sc, tile.ID, 1, 1)

	st.MovePlacements([]string{p.ID}, 2, 0)
	st.Undo()

	if p.GridX != 1 || p.GridY != 1 {
		t.Fatalf("undoing an open move should snap back to (1,1), got (%d,%d)", p.GridX, p.GridY)
	}
	tx := st.Transaction()
	if tx == nil {
		t.Fatalf("transaction should stay open")
	}
	if _, ok := tx.OriginalPosition(p.ID); ok {
		t.Fatalf("original positions should be cleared; the restored cell is the new origin")
	}
	if len(st.ledger.past) != 0 || len(st.ledger.future) != 0 {
		t.Fatalf("undoing an open move must not touch the ledger")
	}
}

func TestHistoryCapDropsOldestFirst(t *testing.T) {
	proj, _, _ := newTestProject(4, 4)
	st := New(proj, nil)
	st.SetHistoryLimit(5)

	descs := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, d := range descs {
		st.PushHistory(d)
	}
	if len(st.ledger.past) != 5 {
		t.Fatalf("past must be capped at 5, got %d", len(st.ledger.past))
	}
	if st.ledger.past[0].description != "c" {
		t.Fatalf("oldest entries must be evicted first, oldest is %q", st.ledger.past[0].description)
	}
}

func TestDeletePurgesSelectionAndSkipsStaleIDs(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		p := addPlacement(sc, tile.ID, i, 0)
		ids = append(ids, p.ID)
		st.SelectPlacement(p.ID, true)
	}
	// One selected id goes stale before the delete.
	sc.RemovePlacement(ids[2])

	st.DeleteSelectedPlacements()
	if len(sc.Placements) != 0 {
		t.Fatalf("the remaining four placements must still be deleted, got %d left", len(sc.Placements))
	}
	if st.Selection().PlacementCount() != 0 {
		t.Fatalf("deletion must purge the selection, %d ids remain", st.Selection().PlacementCount())
	}
}

func TestDuplicateAcrossBoundary(t *testing.T) {
	cases := []struct {
		name           string
		gridW, gridH   int
		cells          []Cell
		wantDX, wantDY int
	}{
		{"right_fits", 8, 8, []Cell{{0, 0}, {1, 0}}, 2, 0},
		{"drops_below", 4, 8, []Cell{{2, 0}, {3, 0}}, 0, 1},
		{"degenerate_diagonal", 4, 1, []Cell{{2, 0}, {3, 0}}, 1, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			proj, sc, tile := newTestProject(c.gridW, c.gridH)
			st := New(proj, nil)
			for _, cell := range c.cells {
				p := addPlacement(sc, tile.ID, cell.X, cell.Y)
				st.SelectPlacement(p.ID, true)
			}

			st.DuplicateSelectedPlacements()
			if len(sc.Placements) != 2*len(c.cells) {
				t.Fatalf("expected %d placements, got %d", 2*len(c.cells), len(sc.Placements))
			}
			for _, cell := range c.cells {
				want := Cell{cell.X + c.wantDX, cell.Y + c.wantDY}
				if sc.PlacementAt(want.X, want.Y) == nil {
					t.Fatalf("expected a clone at (%d,%d)", want.X, want.Y)
				}
			}
			tx := st.Transaction()
			if tx == nil || tx.isMove() {
				t.Fatalf("duplication must open a pure-creation transaction")
			}
			if st.Selection().PlacementCount() != len(c.cells) {
				t.Fatalf("clones must become the new selection")
			}
		})
	}
}

func TestUndoSwitchesScenes(t *testing.T) {
	proj, scA, tile := newTestProject(8, 8)
	st := New(proj, nil)
	p := addPlacement(scA, tile.ID, 0, 0)
	st.SelectPlacement(p.ID, false)
	st.DeleteSelectedPlacements()

	scB := st.AddScene("other", 8, 8, 16)
	if st.ActiveScene() != scB {
		t.Fatalf("new scene should be active")
	}

	st.Undo()
	if st.Project().ActiveSceneID != scA.ID {
		t.Fatalf("undo must switch to the scene the entry targets")
	}
	if len(scA.Placements) != 1 {
		t.Fatalf("undo must restore the deleted placement")
	}
}

func TestSelectionToggleAsymmetry(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	p := addPlacement(sc, tile.ID, 0, 0)
	e := st.AddEdge(1, 1, scene.Vertical, 1)

	// Additive tile clicks add and never toggle off.
	st.SelectPlacement(p.ID, true)
	st.SelectPlacement(p.ID, true)
	if !st.Selection().HasPlacement(p.ID) {
		t.Fatalf("additive tile select must not toggle")
	}

	// Additive edge clicks toggle.
	st.SelectEdge(e.ID, true)
	st.SelectEdge(e.ID, true)
	if st.Selection().HasEdge(e.ID) {
		t.Fatalf("additive edge select must toggle off")
	}
}

func TestSelectionIsTransactionBoundary(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	other := addPlacement(sc, tile.ID, 5, 5)

	st.PlaceTile(tile.ID, 1, 1)
	if st.Transaction() == nil {
		t.Fatalf("expected open transaction")
	}
	st.SelectPlacement(other.ID, false)
	if st.Transaction() != nil {
		t.Fatalf("selecting outside the transaction must commit it")
	}
	if len(st.ledger.past) != 1 {
		t.Fatalf("the implicit commit must reach the ledger")
	}
}

func TestAreaSelectIncludesBoundaryEdges(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	st.SetSelectionMode(ModeBoth)

	in := addPlacement(sc, tile.ID, 2, 2)
	out := addPlacement(sc, tile.ID, 3, 2)
	edgeOnMax := st.AddEdge(3, 2, scene.Vertical, 1)
	edgeBeyond := st.AddEdge(4, 2, scene.Vertical, 1)

	st.SelectArea(1, 1, 2, 2)
	if !st.Selection().HasPlacement(in.ID) {
		t.Fatalf("placement inside the rectangle must be selected")
	}
	if st.Selection().HasPlacement(out.ID) {
		t.Fatalf("placement outside the rectangle must not be selected")
	}
	if !st.Selection().HasEdge(edgeOnMax.ID) {
		t.Fatalf("edges extend one unit past the max side and must be selected")
	}
	if st.Selection().HasEdge(edgeBeyond.ID) {
		t.Fatalf("edge beyond the extended rectangle must not be selected")
	}

	st.DeselectArea(1, 1, 2, 2)
	if !st.Selection().Empty() {
		t.Fatalf("deselect area must remove what select area added")
	}
}

func TestRemoveTileCascades(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	p := addPlacement(sc, tile.ID, 0, 0)
	st.SelectPlacement(p.ID, false)

	st.RemoveTile(tile.ID)
	if proj.Tile(tile.ID) != nil {
		t.Fatalf("tile must be removed from the library")
	}
	if len(sc.Placements) != 0 {
		t.Fatalf("placements referencing the tile must be deleted")
	}
	if st.Selection().PlacementCount() != 0 {
		t.Fatalf("selection must be purged")
	}
}

func TestApplyGeneratedTiles(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)
	old := addPlacement(sc, tile.ID, 1, 1)

	st.ApplyGeneratedTiles([]GeneratedTile{
		{GridX: 1, GridY: 1, PNG: []byte{1}, Labels: []string{"cave"}},
		{GridX: 2, GridY: 1, PNG: []byte{2}, Labels: []string{"cave"}},
	})

	if sc.Placement(old.ID) != nil {
		t.Fatalf("regenerated cells must replace existing placements")
	}
	if len(sc.Placements) != 2 {
		t.Fatalf("expected 2 generated placements, got %d", len(sc.Placements))
	}
	if len(proj.Tiles) != 3 {
		t.Fatalf("each generated image becomes a library tile, got %d tiles", len(proj.Tiles))
	}
	st.Undo()
	if sc.Placement(old.ID) == nil {
		t.Fatalf("generation must be one undoable step")
	}
}

func TestMutatorsNoOpWithoutScene(t *testing.T) {
	st := New(&scene.Project{Name: "empty"}, nil)
	st.PlaceTile("nope", 0, 0)
	st.MovePlacements([]string{"nope"}, 1, 1)
	st.DuplicateSelectedPlacements()
	st.DeleteSelectedPlacements()
	st.CommitTransaction()
	st.CancelTransaction()
	st.Undo()
	st.Redo()
	if st.CanUndo() || st.CanRedo() {
		t.Fatalf("no-ops must not create history")
	}
}

func TestAddPlacementsOpensCreationTransaction(t *testing.T) {
	proj, sc, tile := newTestProject(8, 8)
	st := New(proj, nil)

	st.AddPlacements([]PlacementSpec{
		{TileID: tile.ID, GridX: 2, GridY: 3},
		{TileID: "missing", GridX: 0, GridY: 0},
		{TileID: tile.ID, GridX: 3, GridY: 3},
	})
	if len(sc.Placements) != 2 {
		t.Fatalf("unknown tiles must be skipped, got %d placements", len(sc.Placements))
	}
	tx := st.Transaction()
	if tx == nil || len(tx.PlacementIDs()) != 2 {
		t.Fatalf("paste should leave an open creation transaction")
	}
	if _, ok := tx.OriginalPosition(sc.Placements[0].ID); ok {
		t.Fatalf("pasted placements are creations, not moves")
	}
	if st.Selection().PlacementCount() != 2 {
		t.Fatalf("pasted placements become the selection")
	}

	st.Undo()
	if len(sc.Placements) != 0 {
		t.Fatalf("undoing an open paste removes the placements, got %d", len(sc.Placements))
	}
}

func TestSelectorsNoOpWithoutProject(t *testing.T) {
	st := New(nil, nil)
	st.SelectPlacement("ghost", false)
	st.SelectPlacement("ghost", true)
	st.SelectEdge("ghost", true)
	st.SelectMatching(func(*scene.TilePlacement) bool { return true }, false)
	st.SelectArea(0, 0, 3, 3)
	st.DeselectArea(0, 0, 3, 3)
	st.ClearSelection()
	if !st.Selection().Empty() {
		t.Fatalf("selection must stay empty without a project")
	}
	if st.CanUndo() || st.CanRedo() {
		t.Fatalf("selectors must not create history")
	}
}

func TestAddTilesRefreshesBySource(t *testing.T) {
	proj, sc, _ := newTestProject(4, 4)
	st := New(proj, nil)

	first := &scene.Tile{ID: scene.NewID(), Labels: []string{"grass"}, Width: 16, Height: 16, PNG: []byte{1}, Source: "grass.png"}
	st.AddTiles([]*scene.Tile{first})
	p := addPlacement(sc, first.ID, 0, 0)

	refreshed := &scene.Tile{ID: scene.NewID(), Labels: []string{"grass", "spring"}, Width: 32, Height: 32, PNG: []byte{2}, Source: "grass.png"}
	st.AddTiles([]*scene.Tile{refreshed})

	if len(proj.Tiles) != 2 {
		t.Fatalf("a matching source must refresh in place, got %d library tiles", len(proj.Tiles))
	}
	got := proj.TileBySource("grass.png")
	if got == nil || got.ID != first.ID {
		t.Fatalf("refresh must keep the original tile id")
	}
	if got.Width != 32 || len(got.Labels) != 2 || got.PNG[0] != 2 {
		t.Fatalf("refresh must take the new imagery: %+v", got)
	}
	if sc.Placement(p.ID).TileID != first.ID {
		t.Fatalf("placements keep referencing the refreshed tile")
	}
}

func TestRetireTileSourceSkipsTilesInUse(t *testing.T) {
	proj, sc, _ := newTestProject(4, 4)
	st := New(proj, nil)

	used := &scene.Tile{ID: scene.NewID(), Width: 16, Height: 16, Source: "used.png"}
	unused := &scene.Tile{ID: scene.NewID(), Width: 16, Height: 16, Source: "unused.png"}
	st.AddTiles([]*scene.Tile{used, unused})
	addPlacement(sc, used.ID, 1, 1)

	st.RetireTileSource("unused.png")
	if proj.TileBySource("unused.png") != nil {
		t.Fatalf("an unused tile whose file vanished must leave the library")
	}

	st.RetireTileSource("used.png")
	if proj.TileBySource("used.png") == nil {
		t.Fatalf("a tile still placed somewhere must stay in the library")
	}

	st.RetireTileSource("never-existed.png")
	if st.CanUndo() {
		t.Fatalf("retiring is not an undoable edit")
	}
}
