// Package importer converts legacy row-major level files into ready-made
// scenes and library tiles for the store to adopt via ImportScenes/AddTiles.
// The legacy format stores one int per cell per layer plus per-cell tileset
// usage records pointing into tileset images.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/milk9111/tileforge/scene"
)

type legacyLevel struct {
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	Layers       [][]int             `json:"layers"`
	TilesetUsage [][]*legacyTileInfo `json:"tileset_usage"`
}

type legacyTileInfo struct {
	Path  string `json:"path"`
	Index int    `json:"index"`
	TileW int    `json:"tile_w"`
	TileH int    `json:"tile_h"`
}

// TilesetLoader resolves a tileset path from a legacy level to its encoded
// image bytes. Returning an error for a path yields placeholder tiles with no
// imagery instead of failing the import.
type TilesetLoader func(path string) ([]byte, error)

// Importer converts legacy levels, deduplicating tiles across calls so two
// levels using the same tileset cell share one library tile.
type Importer struct {
	loadTileset TilesetLoader

	tilesets map[string]image.Image
	tiles    map[string]*scene.Tile
	added    []*scene.Tile
}

func New(loader TilesetLoader) *Importer {
	return &Importer{
		loadTileset: loader,
		tilesets:    make(map[string]image.Image),
		tiles:       make(map[string]*scene.Tile),
	}
}

// Tiles returns every tile created so far, in creation order.
func (im *Importer) Tiles() []*scene.Tile {
	return im.added
}

// ImportLevel parses one legacy level into a scene. Cells with value zero are
// empty; every other cell becomes a placement. Name becomes the scene name.
func (im *Importer) ImportLevel(name string, data []byte) (*scene.Scene, error) {
	var lvl legacyLevel
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("importer: unmarshal %s: %w", name, err)
	}
	if lvl.Width <= 0 || lvl.Height <= 0 {
		return nil, fmt.Errorf("importer: %s has no grid", name)
	}

	tileSize := 16
	for _, layer := range lvl.TilesetUsage {
		for _, info := range layer {
			if info != nil && info.TileW > 0 {
				tileSize = info.TileW
				break
			}
		}
	}

	sc := scene.NewScene(name, lvl.Width, lvl.Height, tileSize)
	for li, layer := range lvl.Layers {
		for idx, v := range layer {
			if v == 0 {
				continue
			}
			x := idx % lvl.Width
			y := idx / lvl.Width
			var info *legacyTileInfo
			if li < len(lvl.TilesetUsage) && idx < len(lvl.TilesetUsage[li]) {
				info = lvl.TilesetUsage[li][idx]
			}
			t := im.tileFor(info, v)
			sc.Placements = append(sc.Placements, &scene.TilePlacement{
				ID:     scene.NewID(),
				TileID: t.ID,
				GridX:  x,
				GridY:  y,
			})
		}
	}
	return sc, nil
}

// tileFor returns the library tile for a cell, creating it on first use. A
// cell without tileset usage gets a plain placeholder tile keyed by its cell
// value.
func (im *Importer) tileFor(info *legacyTileInfo, value int) *scene.Tile {
	key := fmt.Sprintf("value:%d", value)
	if info != nil {
		key = fmt.Sprintf("%s#%d", info.Path, info.Index)
	}
	if t, ok := im.tiles[key]; ok {
		return t
	}

	t := &scene.Tile{ID: scene.NewID(), Width: 16, Height: 16}
	if info != nil {
		t.Labels = labelsFromPath(info.Path)
		t.Width = info.TileW
		t.Height = info.TileH
		if pngBytes := im.sliceTileset(info); pngBytes != nil {
			t.PNG = pngBytes
		}
	} else {
		t.Labels = []string{fmt.Sprintf("legacy-%d", value)}
	}
	im.tiles[key] = t
	im.added = append(im.added, t)
	return t
}

// sliceTileset cuts the cell's sub-image out of its tileset and re-encodes
// it, or returns nil when the tileset cannot be resolved.
func (im *Importer) sliceTileset(info *legacyTileInfo) []byte {
	if im.loadTileset == nil || info.TileW <= 0 || info.TileH <= 0 {
		return nil
	}
	src, ok := im.tilesets[info.Path]
	if !ok {
		data, err := im.loadTileset(info.Path)
		if err != nil {
			im.tilesets[info.Path] = nil
			return nil
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			im.tilesets[info.Path] = nil
			return nil
		}
		src = img
		im.tilesets[info.Path] = src
	}
	if src == nil {
		return nil
	}

	cols := src.Bounds().Dx() / info.TileW
	if cols <= 0 {
		return nil
	}
	col := info.Index % cols
	row := info.Index / cols
	r := image.Rect(
		src.Bounds().Min.X+col*info.TileW,
		src.Bounds().Min.Y+row*info.TileH,
		src.Bounds().Min.X+(col+1)*info.TileW,
		src.Bounds().Min.Y+(row+1)*info.TileH,
	)
	if !r.In(src.Bounds()) {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, info.TileW, info.TileH))
	draw.Draw(out, out.Bounds(), src, r.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil
	}
	return buf.Bytes()
}

func labelsFromPath(path string) []string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) == 0 {
		return nil
	}
	return parts
}
