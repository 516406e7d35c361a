package store

import (
	"sort"

	"github.com/milk9111/tileforge/scene"
)

// SelectionMode says which kinds of entities area selection touches.
type SelectionMode int

const (
	ModeTiles SelectionMode = iota
	ModeEdges
	ModeBoth
)

func (m SelectionMode) String() string {
	switch m {
	case ModeTiles:
		return "Tiles"
	case ModeEdges:
		return "Edges"
	case ModeBoth:
		return "Both"
	default:
		return "Unknown"
	}
}

// Selection holds the ids of the currently selected placements and edges.
// It is transient UI state and is never persisted. Only the Store mutates it;
// consumers read through the accessor methods.
type Selection struct {
	tileIDs map[string]struct{}
	edgeIDs map[string]struct{}
	mode    SelectionMode
}

func newSelection() *Selection {
	return &Selection{
		tileIDs: make(map[string]struct{}),
		edgeIDs: make(map[string]struct{}),
		mode:    ModeTiles,
	}
}

func (s *Selection) Mode() SelectionMode { return s.mode }

func (s *Selection) HasPlacement(id string) bool {
	_, ok := s.tileIDs[id]
	return ok
}

func (s *Selection) HasEdge(id string) bool {
	_, ok := s.edgeIDs[id]
	return ok
}

func (s *Selection) PlacementCount() int { return len(s.tileIDs) }
func (s *Selection) EdgeCount() int      { return len(s.edgeIDs) }
func (s *Selection) Empty() bool         { return len(s.tileIDs) == 0 && len(s.edgeIDs) == 0 }

// PlacementIDs returns the selected placement ids in a stable order.
func (s *Selection) PlacementIDs() []string {
	out := make([]string, 0, len(s.tileIDs))
	for id := range s.tileIDs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// EdgeIDs returns the selected edge ids in a stable order.
func (s *Selection) EdgeIDs() []string {
	out := make([]string, 0, len(s.edgeIDs))
	for id := range s.edgeIDs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Selection) clear() {
	s.tileIDs = make(map[string]struct{})
	s.edgeIDs = make(map[string]struct{})
}

// SetSelectionMode switches between tile, edge, and combined selection.
func (st *Store) SetSelectionMode(mode SelectionMode) {
	st.selection.mode = mode
}

// Selection returns the live selection. Consumers must treat it as read-only.
func (st *Store) Selection() *Selection {
	return st.selection
}

// SelectPlacement selects the placement with the given id. Non-additive
// selection replaces the whole selection with just this placement. Additive
// selection adds without removing; unlike edges, clicking an already selected
// placement again keeps it selected.
func (st *Store) SelectPlacement(id string, additive bool) {
	sc := st.activeScene()
	if sc == nil || sc.Placement(id) == nil {
		return
	}
	if st.tx != nil && !st.tx.has(id) {
		st.CommitTransaction()
	}
	if !additive {
		st.selection.clear()
	}
	st.selection.tileIDs[id] = struct{}{}
}

// SelectEdge selects the edge with the given id. Additive selection toggles
// membership.
func (st *Store) SelectEdge(id string, additive bool) {
	sc := st.activeScene()
	if sc == nil || sc.Edge(id) == nil {
		return
	}
	st.CommitTransaction()
	if !additive {
		st.selection.clear()
		st.selection.edgeIDs[id] = struct{}{}
		return
	}
	if _, ok := st.selection.edgeIDs[id]; ok {
		delete(st.selection.edgeIDs, id)
	} else {
		st.selection.edgeIDs[id] = struct{}{}
	}
}

// SelectMatching bulk-selects every placement in the active scene satisfying
// pred. Non-additive selection replaces the current selection.
func (st *Store) SelectMatching(pred func(*scene.TilePlacement) bool, additive bool) {
	sc := st.activeScene()
	if sc == nil || pred == nil {
		return
	}
	st.CommitTransaction()
	if !additive {
		st.selection.clear()
	}
	for _, p := range sc.Placements {
		if pred(p) {
			st.selection.tileIDs[p.ID] = struct{}{}
		}
	}
}

// SelectArea adds everything inside the rectangle (inclusive bounds, grid
// coordinates) to the selection, honoring the selection mode. The edge
// rectangle extends one unit past the max side because edges sit on cell
// boundaries.
func (st *Store) SelectArea(minX, minY, maxX, maxY int) {
	st.areaSelect(minX, minY, maxX, maxY, true)
}

// DeselectArea removes everything inside the rectangle from the selection.
func (st *Store) DeselectArea(minX, minY, maxX, maxY int) {
	st.areaSelect(minX, minY, maxX, maxY, false)
}

func (st *Store) areaSelect(minX, minY, maxX, maxY int, add bool) {
	sc := st.activeScene()
	if sc == nil {
		return
	}
	st.CommitTransaction()
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	if st.selection.mode == ModeTiles || st.selection.mode == ModeBoth {
		for _, p := range sc.Placements {
			if p.GridX >= minX && p.GridX <= maxX && p.GridY >= minY && p.GridY <= maxY {
				if add {
					st.selection.tileIDs[p.ID] = struct{}{}
				} else {
					delete(st.selection.tileIDs, p.ID)
				}
			}
		}
	}
	if st.selection.mode == ModeEdges || st.selection.mode == ModeBoth {
		for _, e := range sc.Edges {
			if e.X >= minX && e.X <= maxX+1 && e.Y >= minY && e.Y <= maxY+1 {
				if add {
					st.selection.edgeIDs[e.ID] = struct{}{}
				} else {
					delete(st.selection.edgeIDs, e.ID)
				}
			}
		}
	}
}

// ClearSelection empties the selection. Selection changes are a transaction
// boundary, so an open transaction is committed first.
func (st *Store) ClearSelection() {
	st.CommitTransaction()
	st.selection.clear()
}
