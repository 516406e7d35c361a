package store

import (
	"go.uber.org/zap"

	"github.com/milk9111/tileforge/scene"
)

// DefaultHistoryLimit caps the past stack; the oldest entries are dropped
// once it is exceeded.
const DefaultHistoryLimit = 100

// historyEntry is a full snapshot of one scene's placements. The scene id is
// required because undo may target a scene that is not currently active. An
// entry produced by undoing an uncommitted creation additionally carries the
// transaction so redo can resurrect it.
type historyEntry struct {
	sceneID     string
	placements  []*scene.TilePlacement
	description string
	tx          *txSnapshot
}

// txSnapshot is the restorable part of a transaction: which placements were
// live and their drag-start cells. Replaced placements are recomputed from
// scene geometry on restore.
type txSnapshot struct {
	ids  []string
	base map[string]Cell
	desc string
}

type ledger struct {
	past   []*historyEntry
	future []*historyEntry
	limit  int
}

func newLedger(limit int) *ledger {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ledger{limit: limit}
}

// record appends a past entry as part of a new action: the future stack is
// invalidated and the size cap enforced by dropping the oldest entry.
func (l *ledger) record(e *historyEntry) {
	l.past = append(l.past, e)
	l.future = nil
	if len(l.past) > l.limit {
		l.past = l.past[1:]
	}
}

// pushPast appends without invalidating the future stack. Used by redo, which
// must keep the rest of the redo chain intact.
func (l *ledger) pushPast(e *historyEntry) {
	l.past = append(l.past, e)
	if len(l.past) > l.limit {
		l.past = l.past[1:]
	}
}

func (l *ledger) pushFuture(e *historyEntry) {
	l.future = append([]*historyEntry{e}, l.future...)
}

func (l *ledger) popPast() *historyEntry {
	if len(l.past) == 0 {
		return nil
	}
	e := l.past[len(l.past)-1]
	l.past = l.past[:len(l.past)-1]
	return e
}

func (l *ledger) popFuture() *historyEntry {
	if len(l.future) == 0 {
		return nil
	}
	e := l.future[0]
	l.future = l.future[1:]
	return e
}

// recordHistory snapshots sc's current placements into the past stack. Every
// structural mutation calls this before applying itself, so undo always
// reverts exactly the most recent change.
func (st *Store) recordHistory(sc *scene.Scene, description string) {
	st.ledger.record(&historyEntry{
		sceneID:     sc.ID,
		placements:  scene.ClonePlacements(sc.Placements),
		description: description,
	})
}

// PushHistory snapshots the active scene's placements as an undo point.
func (st *Store) PushHistory(description string) {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	st.recordHistory(sc, description)
}

// CanUndo reports whether Undo would do anything: an open transaction counts
// because undoing rewinds it even though the ledger itself is untouched.
func (st *Store) CanUndo() bool {
	return st.tx != nil || len(st.ledger.past) > 0
}

// CanRedo reports whether Redo would do anything.
func (st *Store) CanRedo() bool {
	return len(st.ledger.future) > 0
}

// Undo reverts the most recent change. With an open transaction it rewinds
// the transaction and leaves the ledger alone: a move snaps back to its
// original positions and stays open with the restored positions as the new
// origin; a creation is cancelled, with the undone state pushed onto the
// future stack (transaction included) so redo can bring it back. Otherwise
// the last past entry is applied to its scene, switching the active scene to
// it if needed, and the overwritten state is pushed onto the future stack.
// Tile selection is not undo-tracked and is cleared.
func (st *Store) Undo() {
	if st.tx != nil {
		st.undoTransaction()
		return
	}
	e := st.ledger.popPast()
	if e == nil {
		return
	}
	target := st.project.Scene(e.sceneID)
	if target == nil {
		return
	}
	st.ledger.pushFuture(&historyEntry{
		sceneID:     e.sceneID,
		placements:  scene.ClonePlacements(target.Placements),
		description: e.description,
	})
	target.Placements = scene.ClonePlacements(e.placements)
	st.project.ActiveSceneID = e.sceneID
	st.selection.tileIDs = make(map[string]struct{})

	st.logger.Debug("undo", zap.String("op", e.description), zap.String("scene", e.sceneID))
}

func (st *Store) undoTransaction() {
	sc := st.activeScene()
	if sc == nil {
		st.tx = nil
		return
	}
	tx := st.tx
	if tx.isMove() {
		for id, c := range tx.original {
			if p := sc.Placement(id); p != nil {
				p.GridX = c.X
				p.GridY = c.Y
			}
			tx.base[id] = c
		}
		tx.original = make(map[string]Cell)
		tx.recomputeReplaced(sc)
		st.logger.Debug("undo open move")
		return
	}

	// Pure creation: cancelling it destroys the placements, so capture the
	// scene and the transaction first for redo.
	snap := &txSnapshot{
		ids:  tx.PlacementIDs(),
		base: make(map[string]Cell, len(tx.base)),
		desc: tx.desc,
	}
	for id, c := range tx.base {
		snap.base[id] = c
	}
	st.ledger.pushFuture(&historyEntry{
		sceneID:     sc.ID,
		placements:  scene.ClonePlacements(sc.Placements),
		description: tx.desc,
		tx:          snap,
	})
	st.CancelTransaction()
	st.logger.Debug("undo open creation")
}

// Redo re-applies the most recently undone change. An open transaction is
// cancelled first; redo and an open transaction never coexist. If the entry
// carries a transaction captured by undoing an uncommitted creation, that
// transaction is restored and its placements re-selected; otherwise the tile
// selection is cleared.
func (st *Store) Redo() {
	if st.tx != nil {
		st.CancelTransaction()
	}
	e := st.ledger.popFuture()
	if e == nil {
		return
	}
	target := st.project.Scene(e.sceneID)
	if target == nil {
		return
	}
	st.ledger.pushPast(&historyEntry{
		sceneID:     e.sceneID,
		placements:  scene.ClonePlacements(target.Placements),
		description: e.description,
	})
	target.Placements = scene.ClonePlacements(e.placements)
	st.project.ActiveSceneID = e.sceneID
	st.selection.tileIDs = make(map[string]struct{})

	if e.tx != nil {
		tx := newTransaction(e.tx.desc)
		for _, id := range e.tx.ids {
			if target.Placement(id) == nil {
				continue
			}
			tx.ids[id] = struct{}{}
			if c, ok := e.tx.base[id]; ok {
				tx.base[id] = c
			}
			st.selection.tileIDs[id] = struct{}{}
		}
		tx.recomputeReplaced(target)
		st.tx = tx
	}

	st.logger.Debug("redo", zap.String("op", e.description), zap.String("scene", e.sceneID))
}
