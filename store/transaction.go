package store

import (
	"sort"

	"go.uber.org/zap"

	"github.com/milk9111/tileforge/scene"
)

// Cell is an integer grid position.
type Cell struct {
	X int
	Y int
}

// Transaction is an in-progress placement or move: the placements currently
// live in it, which placements they are covering, and where the pre-existing
// ones started. At most one transaction is open at a time, globally, and it is
// either a pure creation (no original positions) or a pure move (all live
// placements have one).
type Transaction struct {
	ids      map[string]struct{}
	original map[string]Cell
	base     map[string]Cell
	replaced []*scene.TilePlacement
	desc     string
}

func newTransaction(desc string) *Transaction {
	return &Transaction{
		ids:      make(map[string]struct{}),
		original: make(map[string]Cell),
		base:     make(map[string]Cell),
		desc:     desc,
	}
}

func (t *Transaction) has(id string) bool {
	_, ok := t.ids[id]
	return ok
}

// isMove distinguishes a move of existing placements from a fresh creation.
func (t *Transaction) isMove() bool {
	return len(t.original) > 0
}

// PlacementIDs returns the live placement ids in a stable order.
func (t *Transaction) PlacementIDs() []string {
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// OriginalPosition returns the pre-transaction cell of a live placement. A
// missing entry means the placement was created by this transaction.
func (t *Transaction) OriginalPosition(id string) (Cell, bool) {
	c, ok := t.original[id]
	return c, ok
}

// Replaced returns copies of the placements the live set currently covers.
// They are still in the scene; commit deletes them.
func (t *Transaction) Replaced() []scene.TilePlacement {
	out := make([]scene.TilePlacement, len(t.replaced))
	for i, p := range t.replaced {
		out[i] = *p
	}
	return out
}

// recomputeReplaced rescans the scene for placements the live set overlaps at
// its current positions. Called after every position change so the replaced
// list always reflects the in-transaction geometry.
func (t *Transaction) recomputeReplaced(sc *scene.Scene) {
	occupied := make(map[Cell]struct{}, len(t.ids))
	for id := range t.ids {
		if p := sc.Placement(id); p != nil {
			occupied[Cell{p.GridX, p.GridY}] = struct{}{}
		}
	}
	t.replaced = t.replaced[:0]
	for _, p := range sc.Placements {
		if t.has(p.ID) {
			continue
		}
		if _, ok := occupied[Cell{p.GridX, p.GridY}]; ok {
			t.replaced = append(t.replaced, p)
		}
	}
}

// Transaction returns the open transaction, or nil when idle. Consumers must
// treat it as read-only.
func (st *Store) Transaction() *Transaction {
	return st.tx
}

// PlaceTile creates a new unlocked placement of the given library tile at
// (x, y) and opens a fresh transaction holding it. Any open transaction is
// committed first; transactions never nest. Placements already occupying the
// cell stay in the scene, recorded as replaced, so a cancel leaves them
// untouched. The selection is replaced with just the new placement.
func (st *Store) PlaceTile(tileID string, x, y int) *scene.TilePlacement {
	sc := st.activeScene()
	if sc == nil || st.project.Tile(tileID) == nil {
		return nil
	}
	st.CommitTransaction()

	p := &scene.TilePlacement{
		ID:     scene.NewID(),
		TileID: tileID,
		GridX:  x,
		GridY:  y,
	}
	sc.Placements = append(sc.Placements, p)

	tx := newTransaction("place")
	tx.ids[p.ID] = struct{}{}
	tx.base[p.ID] = Cell{x, y}
	tx.recomputeReplaced(sc)
	st.tx = tx

	st.selection.clear()
	st.selection.tileIDs[p.ID] = struct{}{}

	st.logger.Debug("place tile", zap.String("tile", tileID), zap.Int("x", x), zap.Int("y", y))
	return p
}

// MovePlacements moves the given placements by (dx, dy) relative to where
// they were when the drag started. Callers pass the cumulative offset from
// drag start on every call, so repeated calls overwrite rather than stack.
// The first call for a placement not already in a transaction captures its
// current position as the original; later calls in the same drag leave the
// capture alone. Stale ids are skipped.
func (st *Store) MovePlacements(ids []string, dx, dy int) {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	live := make([]*scene.TilePlacement, 0, len(ids))
	for _, id := range ids {
		if p := sc.Placement(id); p != nil {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return
	}

	// A move targeting placements outside the open transaction is a new
	// gesture; fold the old one first.
	if st.tx != nil {
		for _, p := range live {
			if !st.tx.has(p.ID) {
				st.CommitTransaction()
				break
			}
		}
	}
	if st.tx == nil {
		st.tx = newTransaction("move")
	}

	for _, p := range live {
		if !st.tx.has(p.ID) {
			st.tx.ids[p.ID] = struct{}{}
			st.tx.original[p.ID] = Cell{p.GridX, p.GridY}
			st.tx.base[p.ID] = Cell{p.GridX, p.GridY}
		}
		base := st.tx.base[p.ID]
		p.GridX = base.X + dx
		p.GridY = base.Y + dy
	}
	st.tx.recomputeReplaced(sc)
}

// DuplicateSelectedPlacements clones every selected placement with new ids,
// offset so the clones avoid the originals: right by the selection's bounding
// box width, or down by its height when that would leave the grid, or (1, 1)
// as a last resort (which may overlap). The clones become a fresh creation
// transaction and the new selection.
func (st *Store) DuplicateSelectedPlacements() {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	st.CommitTransaction()

	var src []*scene.TilePlacement
	for _, id := range st.selection.PlacementIDs() {
		if p := sc.Placement(id); p != nil {
			src = append(src, p)
		}
	}
	if len(src) == 0 {
		return
	}

	minX, minY := src[0].GridX, src[0].GridY
	maxX, maxY := minX, minY
	for _, p := range src[1:] {
		if p.GridX < minX {
			minX = p.GridX
		}
		if p.GridY < minY {
			minY = p.GridY
		}
		if p.GridX > maxX {
			maxX = p.GridX
		}
		if p.GridY > maxY {
			maxY = p.GridY
		}
	}
	w := maxX - minX + 1
	h := maxY - minY + 1

	dx, dy := w, 0
	if maxX+w >= sc.GridWidth {
		dx, dy = 0, h
		if maxY+h >= sc.GridHeight {
			dx, dy = 1, 1
		}
	}

	tx := newTransaction("duplicate")
	st.selection.clear()
	for _, p := range src {
		clone := &scene.TilePlacement{
			ID:     scene.NewID(),
			TileID: p.TileID,
			GridX:  p.GridX + dx,
			GridY:  p.GridY + dy,
			Locked: p.Locked,
		}
		sc.Placements = append(sc.Placements, clone)
		tx.ids[clone.ID] = struct{}{}
		tx.base[clone.ID] = Cell{clone.GridX, clone.GridY}
		st.selection.tileIDs[clone.ID] = struct{}{}
	}
	tx.recomputeReplaced(sc)
	st.tx = tx

	st.logger.Debug("duplicate placements", zap.Int("count", len(src)), zap.Int("dx", dx), zap.Int("dy", dy))
}

// PlacementSpec describes a placement to insert: which tile and where.
type PlacementSpec struct {
	TileID string
	GridX  int
	GridY  int
}

// AddPlacements inserts ready-made placements (clipboard paste) as a fresh
// creation transaction, mirroring duplication: the new placements become the
// selection and can still be dragged, undone, or cancelled. Specs referencing
// unknown tiles are skipped.
func (st *Store) AddPlacements(specs []PlacementSpec) {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	st.CommitTransaction()

	tx := newTransaction("paste")
	added := 0
	for _, spec := range specs {
		if st.project.Tile(spec.TileID) == nil {
			continue
		}
		p := &scene.TilePlacement{
			ID:     scene.NewID(),
			TileID: spec.TileID,
			GridX:  spec.GridX,
			GridY:  spec.GridY,
		}
		sc.Placements = append(sc.Placements, p)
		tx.ids[p.ID] = struct{}{}
		tx.base[p.ID] = Cell{p.GridX, p.GridY}
		added++
	}
	if added == 0 {
		return
	}
	tx.recomputeReplaced(sc)
	st.tx = tx
	st.selection.clear()
	for id := range tx.ids {
		st.selection.tileIDs[id] = struct{}{}
	}

	st.logger.Debug("paste placements", zap.Int("count", added))
}

// DeleteSelectedPlacements removes every selected placement from the active
// scene, pushing history first so the delete is undoable. Ids that no longer
// exist are skipped without aborting the rest. An open transaction is folded
// into history before the delete so the ledger stays linear.
func (st *Store) DeleteSelectedPlacements() {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	st.CommitTransaction()

	ids := make([]string, 0, len(st.selection.tileIDs))
	for id := range st.selection.tileIDs {
		if sc.Placement(id) != nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	st.recordHistory(sc, "delete")
	for _, id := range ids {
		sc.RemovePlacement(id)
	}
	st.selection.tileIDs = make(map[string]struct{})

	st.logger.Debug("delete placements", zap.Int("count", len(ids)))
}

// CommitTransaction folds the open transaction into history and makes its
// effects permanent. The ledger receives the scene as it was before the
// transaction began: moved placements back at their original cells, fresh
// creations absent, covered placements still present. After the push the
// replaced placements are deleted for real. No-op when idle.
func (st *Store) CommitTransaction() {
	if st.tx == nil {
		return
	}
	sc := st.activeScene()
	if sc == nil {
		st.tx = nil
		return
	}
	tx := st.tx

	pre := make([]*scene.TilePlacement, 0, len(sc.Placements))
	for _, p := range sc.Placements {
		if c, ok := tx.original[p.ID]; ok {
			cp := *p
			cp.GridX = c.X
			cp.GridY = c.Y
			pre = append(pre, &cp)
			continue
		}
		if tx.has(p.ID) {
			// Created by this transaction; it did not exist before.
			continue
		}
		cp := *p
		pre = append(pre, &cp)
	}
	st.ledger.record(&historyEntry{
		sceneID:     sc.ID,
		placements:  pre,
		description: tx.desc,
	})

	for _, r := range tx.replaced {
		sc.RemovePlacement(r.ID)
		delete(st.selection.tileIDs, r.ID)
	}
	st.tx = nil

	st.logger.Debug("commit transaction", zap.String("op", tx.desc), zap.Int("replaced", len(tx.replaced)))
}

// CancelTransaction abandons the open transaction: moved placements return to
// their original cells, fresh creations are removed, and the tile selection
// is cleared. Replaced placements need no repair because commit is the only
// transition that deletes them. No-op when idle.
func (st *Store) CancelTransaction() {
	if st.tx == nil {
		return
	}
	sc := st.activeScene()
	if sc != nil {
		for id := range st.tx.ids {
			p := sc.Placement(id)
			if p == nil {
				continue
			}
			if c, ok := st.tx.original[id]; ok {
				p.GridX = c.X
				p.GridY = c.Y
			} else {
				sc.RemovePlacement(id)
			}
		}
	}
	st.tx = nil
	st.selection.tileIDs = make(map[string]struct{})

	st.logger.Debug("cancel transaction")
}
