// Package tiles loads tile imagery from disk into library tiles and watches
// the tile directory for changes.
package tiles

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/tileforge/scene"
)

// FromPNG builds a library tile from encoded PNG bytes. The name, minus its
// extension and split on underscores, becomes the tile's labels.
func FromPNG(name string, data []byte) (*scene.Tile, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tiles: decode %s: %w", name, err)
	}
	return &scene.Tile{
		ID:     scene.NewID(),
		Labels: labelsFromName(name),
		Width:  cfg.Width,
		Height: cfg.Height,
		PNG:    data,
		Source: name,
	}, nil
}

// LoadDir reads every PNG in dir into a tile. Files that fail to decode are
// skipped; a missing directory yields an empty library.
func LoadDir(dir string) ([]*scene.Tile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tiles: read dir %s: %w", dir, err)
	}
	var out []*scene.Tile
	for _, e := range entries {
		if e.IsDir() || !isTileFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		t, err := FromPNG(e.Name(), data)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func labelsFromName(name string) []string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

func isTileFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}
