package scene

// Project is the root document: the tile library, an ordered collection of
// scenes, and which scene is active. The library outlives any scene reference
// into it.
type Project struct {
	Name          string
	Tiles         []*Tile
	Scenes        []*Scene
	ActiveSceneID string
}

func NewProject(name string) *Project {
	p := &Project{Name: name}
	s := NewScene("Scene 1", 16, 16, 16)
	p.Scenes = append(p.Scenes, s)
	p.ActiveSceneID = s.ID
	return p
}

// ActiveScene returns the active scene, or nil if the project has none.
func (p *Project) ActiveScene() *Scene {
	return p.Scene(p.ActiveSceneID)
}

// Scene returns the scene with the given id, or nil.
func (p *Project) Scene(id string) *Scene {
	for _, s := range p.Scenes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Tile returns the library tile with the given id, or nil.
func (p *Project) Tile(id string) *Tile {
	for _, t := range p.Tiles {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TileBySource returns the library tile loaded from the named file, or nil.
func (p *Project) TileBySource(source string) *Tile {
	if source == "" {
		return nil
	}
	for _, t := range p.Tiles {
		if t.Source == source {
			return t
		}
	}
	return nil
}

// AddTile appends a tile to the library, ignoring duplicates by id.
func (p *Project) AddTile(t *Tile) {
	if t == nil || p.Tile(t.ID) != nil {
		return
	}
	p.Tiles = append(p.Tiles, t)
}

// RemoveTile deletes a tile from the library, reporting whether it existed.
// Placements referencing it are the store's responsibility to clean up.
func (p *Project) RemoveTile(id string) bool {
	for i, t := range p.Tiles {
		if t.ID == id {
			p.Tiles = append(p.Tiles[:i], p.Tiles[i+1:]...)
			return true
		}
	}
	return false
}
