// Package persist reads and writes the project document: versioned JSON with
// tile imagery inlined as base64 PNG data URLs. Selection and any open
// transaction are deliberately not part of the document.
package persist

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/tileforge/scene"
)

// Version is the current document version.
const Version = 1

const pngDataURLPrefix = "data:image/png;base64,"

type document struct {
	Version       int        `json:"version"`
	Name          string     `json:"name"`
	Tiles         []tileDoc  `json:"tiles"`
	Scenes        []sceneDoc `json:"scenes"`
	ActiveSceneID string     `json:"active_scene_id,omitempty"`
}

type tileDoc struct {
	ID     string   `json:"id"`
	Labels []string `json:"labels,omitempty"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Image  string   `json:"image,omitempty"`
	Source string   `json:"source,omitempty"`
}

type sceneDoc struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	GridWidth  int            `json:"grid_width"`
	GridHeight int            `json:"grid_height"`
	TileSize   int            `json:"tile_size"`
	Placements []placementDoc `json:"placements"`
	Edges      []edgeDoc      `json:"edges,omitempty"`
}

type placementDoc struct {
	ID     string `json:"id"`
	TileID string `json:"tile_id"`
	GridX  int    `json:"grid_x"`
	GridY  int    `json:"grid_y"`
	Locked bool   `json:"locked,omitempty"`
}

type edgeDoc struct {
	ID          string `json:"id"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Orientation string `json:"orientation"`
	Locked      bool   `json:"locked,omitempty"`
	Width       int    `json:"width,omitempty"`
}

// EncodeImage wraps raw PNG bytes in a data URL.
func EncodeImage(png []byte) string {
	if len(png) == 0 {
		return ""
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeImage unwraps a data URL back to raw PNG bytes. Bare base64 without
// the prefix is accepted too.
func DecodeImage(dataURL string) ([]byte, error) {
	if dataURL == "" {
		return nil, nil
	}
	if i := strings.LastIndex(dataURL, ","); i >= 0 {
		dataURL = dataURL[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL)
	if err != nil {
		return nil, fmt.Errorf("persist: decode image: %w", err)
	}
	return raw, nil
}

// Marshal serializes a project to the versioned document format.
func Marshal(p *scene.Project) ([]byte, error) {
	doc := document{
		Version:       Version,
		Name:          p.Name,
		ActiveSceneID: p.ActiveSceneID,
		Tiles:         make([]tileDoc, 0, len(p.Tiles)),
		Scenes:        make([]sceneDoc, 0, len(p.Scenes)),
	}
	for _, t := range p.Tiles {
		doc.Tiles = append(doc.Tiles, tileDoc{
			ID:     t.ID,
			Labels: t.Labels,
			Width:  t.Width,
			Height: t.Height,
			Image:  EncodeImage(t.PNG),
			Source: t.Source,
		})
	}
	for _, s := range p.Scenes {
		sd := sceneDoc{
			ID:         s.ID,
			Name:       s.Name,
			GridWidth:  s.GridWidth,
			GridHeight: s.GridHeight,
			TileSize:   s.TileSize,
			Placements: make([]placementDoc, 0, len(s.Placements)),
		}
		for _, pl := range s.Placements {
			sd.Placements = append(sd.Placements, placementDoc{
				ID:     pl.ID,
				TileID: pl.TileID,
				GridX:  pl.GridX,
				GridY:  pl.GridY,
				Locked: pl.Locked,
			})
		}
		for _, e := range s.Edges {
			sd.Edges = append(sd.Edges, edgeDoc{
				ID:          e.ID,
				X:           e.X,
				Y:           e.Y,
				Orientation: string(e.Orientation),
				Locked:      e.Locked,
				Width:       e.Width,
			})
		}
		doc.Scenes = append(doc.Scenes, sd)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal parses a versioned document back into a project.
func Unmarshal(data []byte) (*scene.Project, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persist: unmarshal project: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("persist: unsupported document version %d", doc.Version)
	}
	p := &scene.Project{
		Name:          doc.Name,
		ActiveSceneID: doc.ActiveSceneID,
	}
	for _, td := range doc.Tiles {
		png, err := DecodeImage(td.Image)
		if err != nil {
			return nil, fmt.Errorf("persist: tile %s: %w", td.ID, err)
		}
		p.Tiles = append(p.Tiles, &scene.Tile{
			ID:     td.ID,
			Labels: td.Labels,
			Width:  td.Width,
			Height: td.Height,
			PNG:    png,
			Source: td.Source,
		})
	}
	for _, sd := range doc.Scenes {
		s := &scene.Scene{
			ID:         sd.ID,
			Name:       sd.Name,
			GridWidth:  sd.GridWidth,
			GridHeight: sd.GridHeight,
			TileSize:   sd.TileSize,
		}
		for _, pd := range sd.Placements {
			s.Placements = append(s.Placements, &scene.TilePlacement{
				ID:     pd.ID,
				TileID: pd.TileID,
				GridX:  pd.GridX,
				GridY:  pd.GridY,
				Locked: pd.Locked,
			})
		}
		for _, ed := range sd.Edges {
			s.Edges = append(s.Edges, &scene.Edge{
				ID:          ed.ID,
				X:           ed.X,
				Y:           ed.Y,
				Orientation: scene.Orientation(ed.Orientation),
				Locked:      ed.Locked,
				Width:       ed.Width,
			})
		}
		p.Scenes = append(p.Scenes, s)
	}
	if p.ActiveScene() == nil && len(p.Scenes) > 0 {
		p.ActiveSceneID = p.Scenes[0].ID
	}
	return p, nil
}

// Save writes the project to path, creating parent directories.
func Save(path string, p *scene.Project) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("persist: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("persist: write %s: %w", path, err)
	}
	return nil
}

// Load reads a project from path.
func Load(path string) (*scene.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: read %s: %w", path, err)
	}
	return Unmarshal(data)
}
