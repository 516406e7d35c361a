package scene

import (
	"github.com/google/uuid"
)

// Tile is one entry in the project's tile library: encoded image content plus
// labels used when composing generation prompts. Tiles are referenced by id
// from placements; a scene never owns a tile. Source names the disk file a
// tile was loaded from, so a reload can refresh the imagery in place. Tiles
// born from generation or paste have no Source.
type Tile struct {
	ID     string
	Labels []string
	Width  int // pixel width
	Height int // pixel height
	PNG    []byte
	Source string
}

// Orientation says which grid boundary an edge sits on.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// TilePlacement is one instance of a tile at an integer grid cell. More than
// one placement may occupy the same cell; the most recently placed one wins
// hit-testing.
type TilePlacement struct {
	ID     string
	TileID string
	GridX  int
	GridY  int
	Locked bool
}

// Edge is a constraint on a grid boundary, independent of any tile. Edges are
// never moved, only locked/unlocked.
type Edge struct {
	ID          string
	X           int
	Y           int
	Orientation Orientation
	Locked      bool
	Width       int
}

// Scene owns its placements and edges.
type Scene struct {
	ID         string
	Name       string
	GridWidth  int
	GridHeight int
	TileSize   int
	Placements []*TilePlacement
	Edges      []*Edge
}

func NewID() string {
	return uuid.NewString()
}

func NewScene(name string, gridWidth, gridHeight, tileSize int) *Scene {
	return &Scene{
		ID:         NewID(),
		Name:       name,
		GridWidth:  gridWidth,
		GridHeight: gridHeight,
		TileSize:   tileSize,
	}
}

// Placement returns the placement with the given id, or nil.
func (s *Scene) Placement(id string) *TilePlacement {
	for _, p := range s.Placements {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlacementAt returns the topmost placement occupying (x, y), or nil. Later
// entries in the slice are treated as on top.
func (s *Scene) PlacementAt(x, y int) *TilePlacement {
	for i := len(s.Placements) - 1; i >= 0; i-- {
		if s.Placements[i].GridX == x && s.Placements[i].GridY == y {
			return s.Placements[i]
		}
	}
	return nil
}

// PlacementsAt returns every placement occupying (x, y), bottom first.
func (s *Scene) PlacementsAt(x, y int) []*TilePlacement {
	var out []*TilePlacement
	for _, p := range s.Placements {
		if p.GridX == x && p.GridY == y {
			out = append(out, p)
		}
	}
	return out
}

// RemovePlacement deletes the placement with the given id, reporting whether
// it existed.
func (s *Scene) RemovePlacement(id string) bool {
	for i, p := range s.Placements {
		if p.ID == id {
			s.Placements = append(s.Placements[:i], s.Placements[i+1:]...)
			return true
		}
	}
	return false
}

// Edge returns the edge with the given id, or nil.
func (s *Scene) Edge(id string) *Edge {
	for _, e := range s.Edges {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// InBounds reports whether the cell (x, y) lies inside the grid.
func (s *Scene) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.GridWidth && y < s.GridHeight
}

// ClonePlacements deep-copies a placement list. Used for history snapshots so
// later edits cannot reach back into recorded state.
func ClonePlacements(ps []*TilePlacement) []*TilePlacement {
	out := make([]*TilePlacement, len(ps))
	for i, p := range ps {
		cp := *p
		out[i] = &cp
	}
	return out
}
