// Package store implements the scene-editing state machine: it owns the
// project, turns operations into atomic edits, and keeps the four pieces of
// mutable state (scene, selection, open transaction, history ledger) mutually
// consistent. All operations run synchronously on the event loop goroutine;
// the store does no locking.
//
// Invalid requests are silent no-ops, not errors: operating with no active
// scene, an empty selection, or stale ids never corrupts state and never
// raises. Surfacing "nothing to do" is the caller's job.
package store

import (
	"go.uber.org/zap"

	"github.com/milk9111/tileforge/scene"
)

type Store struct {
	project   *scene.Project
	selection *Selection
	tx        *Transaction
	ledger    *ledger
	logger    *zap.Logger
}

func New(project *scene.Project, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		project:   project,
		selection: newSelection(),
		ledger:    newLedger(DefaultHistoryLimit),
		logger:    logger,
	}
}

// SetHistoryLimit changes the past-stack cap, trimming oldest entries if the
// current stack already exceeds it.
func (st *Store) SetHistoryLimit(n int) {
	if n <= 0 {
		return
	}
	st.ledger.limit = n
	for len(st.ledger.past) > n {
		st.ledger.past = st.ledger.past[1:]
	}
}

func (st *Store) Project() *scene.Project {
	return st.project
}

// ActiveScene returns the active scene, or nil when the project has none.
func (st *Store) ActiveScene() *scene.Scene {
	return st.activeScene()
}

func (st *Store) activeScene() *scene.Scene {
	if st.project == nil {
		return nil
	}
	return st.project.ActiveScene()
}

// SetActiveScene switches scenes. Scene switches are a transaction boundary,
// and the selection belongs to the old scene, so both are folded away.
func (st *Store) SetActiveScene(id string) {
	if st.project == nil || st.project.Scene(id) == nil {
		return
	}
	st.CommitTransaction()
	st.project.ActiveSceneID = id
	st.selection.clear()
}

// AddScene appends a new scene and makes it active.
func (st *Store) AddScene(name string, gridWidth, gridHeight, tileSize int) *scene.Scene {
	if st.project == nil {
		return nil
	}
	st.CommitTransaction()
	sc := scene.NewScene(name, gridWidth, gridHeight, tileSize)
	st.project.Scenes = append(st.project.Scenes, sc)
	st.project.ActiveSceneID = sc.ID
	st.selection.clear()
	return sc
}

// RemoveScene deletes a scene and drops its history entries; a linear ledger
// must not resurrect a scene that is gone. Removing the active scene
// activates the first remaining one.
func (st *Store) RemoveScene(id string) {
	if st.project == nil || st.project.Scene(id) == nil {
		return
	}
	st.CommitTransaction()
	for i, sc := range st.project.Scenes {
		if sc.ID == id {
			st.project.Scenes = append(st.project.Scenes[:i], st.project.Scenes[i+1:]...)
			break
		}
	}
	st.ledger.past = dropSceneEntries(st.ledger.past, id)
	st.ledger.future = dropSceneEntries(st.ledger.future, id)
	if st.project.ActiveSceneID == id {
		st.project.ActiveSceneID = ""
		if len(st.project.Scenes) > 0 {
			st.project.ActiveSceneID = st.project.Scenes[0].ID
		}
		st.selection.clear()
	}
}

func dropSceneEntries(entries []*historyEntry, sceneID string) []*historyEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.sceneID != sceneID {
			out = append(out, e)
		}
	}
	return out
}

// ImportScenes appends ready-made scenes produced by an import layer. The
// first imported scene becomes active when the project had none.
func (st *Store) ImportScenes(scenes []*scene.Scene) {
	if st.project == nil || len(scenes) == 0 {
		return
	}
	st.CommitTransaction()
	st.project.Scenes = append(st.project.Scenes, scenes...)
	if st.project.ActiveScene() == nil {
		st.project.ActiveSceneID = scenes[0].ID
	}
}

// AddTiles merges tiles into the project's library. A tile sharing a Source
// with an existing library tile refreshes that tile's imagery and labels in
// place, keeping its id so placements referencing it pick up the new content.
// Everything else is appended.
func (st *Store) AddTiles(tiles []*scene.Tile) {
	if st.project == nil {
		return
	}
	for _, t := range tiles {
		if t == nil {
			continue
		}
		if existing := st.project.TileBySource(t.Source); existing != nil {
			existing.Labels = t.Labels
			existing.Width = t.Width
			existing.Height = t.Height
			existing.PNG = t.PNG
			continue
		}
		st.project.AddTile(t)
	}
}

// RetireTileSource drops the library tile loaded from the named file after
// the file disappears, unless a placement somewhere still uses it. A tile in
// use keeps its last-read imagery.
func (st *Store) RetireTileSource(source string) {
	if st.project == nil {
		return
	}
	t := st.project.TileBySource(source)
	if t == nil {
		return
	}
	for _, sc := range st.project.Scenes {
		for _, p := range sc.Placements {
			if p.TileID == t.ID {
				return
			}
		}
	}
	st.project.RemoveTile(t.ID)
	st.logger.Debug("retired tile", zap.String("source", source), zap.String("tile", t.ID))
}

// RemoveTile deletes a library tile and every placement referencing it, in
// every scene. The active scene's pre-removal placements are pushed to
// history first.
func (st *Store) RemoveTile(id string) {
	if st.project == nil || st.project.Tile(id) == nil {
		return
	}
	st.CommitTransaction()
	sc := st.activeScene()
	if sc != nil {
		st.recordHistory(sc, "remove tile")
	}
	st.project.RemoveTile(id)
	for _, s := range st.project.Scenes {
		kept := s.Placements[:0]
		for _, p := range s.Placements {
			if p.TileID == id {
				delete(st.selection.tileIDs, p.ID)
				continue
			}
			kept = append(kept, p)
		}
		s.Placements = kept
	}
	st.logger.Debug("remove tile", zap.String("tile", id))
}

// SetPlacementLocked sets the lock flag on one placement. Stale ids are
// ignored. The pre-change state is pushed to history so lock toggles are
// undoable.
func (st *Store) SetPlacementLocked(id string, locked bool) {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	st.CommitTransaction()
	p := sc.Placement(id)
	if p == nil || p.Locked == locked {
		return
	}
	st.recordHistory(sc, "lock")
	p.Locked = locked
}

// SetEdgeLocked sets the lock flag on one edge. Edges are not part of history
// snapshots, so edge locks are not undoable.
func (st *Store) SetEdgeLocked(id string, locked bool) {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	e := sc.Edge(id)
	if e == nil {
		return
	}
	e.Locked = locked
}

// AddEdge inserts an edge constraint on a grid boundary.
func (st *Store) AddEdge(x, y int, orientation scene.Orientation, width int) *scene.Edge {
	sc := st.activeScene()
	if sc == nil {
		return nil
	}
	e := &scene.Edge{
		ID:          scene.NewID(),
		X:           x,
		Y:           y,
		Orientation: orientation,
		Width:       width,
	}
	sc.Edges = append(sc.Edges, e)
	return e
}

// GeneratedTile is one tile produced by the generation backend, positioned at
// a grid cell of the active scene.
type GeneratedTile struct {
	GridX  int
	GridY  int
	PNG    []byte
	Labels []string
}

// ApplyGeneratedTiles folds a generation result into the project as a single
// undoable step: each generated image becomes a library tile, existing
// placements in the regenerated cells are replaced, and the new placements
// are added. Generated placements arrive unlocked.
func (st *Store) ApplyGeneratedTiles(tiles []GeneratedTile) {
	sc := st.activeScene()
	if sc == nil || len(tiles) == 0 {
		return
	}
	st.CommitTransaction()
	st.recordHistory(sc, "generate")

	for _, gt := range tiles {
		t := &scene.Tile{
			ID:     scene.NewID(),
			Labels: gt.Labels,
			Width:  sc.TileSize,
			Height: sc.TileSize,
			PNG:    gt.PNG,
		}
		st.project.AddTile(t)

		for _, old := range sc.PlacementsAt(gt.GridX, gt.GridY) {
			delete(st.selection.tileIDs, old.ID)
			sc.RemovePlacement(old.ID)
		}
		sc.Placements = append(sc.Placements, &scene.TilePlacement{
			ID:     scene.NewID(),
			TileID: t.ID,
			GridX:  gt.GridX,
			GridY:  gt.GridY,
		})
	}
	st.logger.Debug("apply generated tiles", zap.Int("count", len(tiles)))
}
