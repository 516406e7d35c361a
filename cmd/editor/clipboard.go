package main

import (
	"encoding/json"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"golang.design/x/clipboard"

	"github.com/milk9111/tileforge/geom"
	"github.com/milk9111/tileforge/store"
)

// clipboardPayload is the JSON shape placed on the system clipboard when
// copying a selection. Cells are stored relative to the selection's top-left
// corner so a paste can re-anchor them anywhere on the grid.
type clipboardPayload struct {
	Placements []clipboardPlacement `json:"placements"`
}

type clipboardPlacement struct {
	TileID string `json:"tile_id"`
	DX     int    `json:"dx"`
	DY     int    `json:"dy"`
}

var clipboardReady bool

func initClipboard(logger *zap.Logger) {
	if err := clipboard.Init(); err != nil {
		logger.Warn("clipboard unavailable", zap.Error(err))
		return
	}
	clipboardReady = true
}

func (g *editorGame) copySelection() {
	if !clipboardReady {
		return
	}
	sc := g.store.ActiveScene()
	if sc == nil {
		return
	}
	sel := g.store.Selection()
	ids := sel.PlacementIDs()
	if len(ids) == 0 {
		return
	}

	minX, minY := sc.GridWidth, sc.GridHeight
	var picked []*clipboardSource
	for _, id := range ids {
		p := sc.Placement(id)
		if p == nil {
			continue
		}
		picked = append(picked, &clipboardSource{tileID: p.TileID, x: p.GridX, y: p.GridY})
		if p.GridX < minX {
			minX = p.GridX
		}
		if p.GridY < minY {
			minY = p.GridY
		}
	}
	if len(picked) == 0 {
		return
	}

	payload := clipboardPayload{}
	for _, src := range picked {
		payload.Placements = append(payload.Placements, clipboardPlacement{
			TileID: src.tileID,
			DX:     src.x - minX,
			DY:     src.y - minY,
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		g.logger.Warn("encode clipboard payload", zap.Error(err))
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	g.logger.Debug("copied selection", zap.Int("placements", len(payload.Placements)))
}

type clipboardSource struct {
	tileID string
	x, y   int
}

func (g *editorGame) pasteClipboard() {
	if !clipboardReady {
		return
	}
	sc := g.store.ActiveScene()
	if sc == nil {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return
	}
	var payload clipboardPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if len(payload.Placements) == 0 {
		return
	}

	// Anchor the paste at the cell under the cursor, falling back to the
	// grid origin when the cursor is off the grid.
	anchorX, anchorY := 0, 0
	cx, cy := ebiten.CursorPosition()
	if gx, gy, ok := geom.ScreenToCellBounded(float64(cx), float64(cy), g.ctrl.Viewport(), sc.TileSize, sc.GridWidth, sc.GridHeight); ok {
		anchorX, anchorY = gx, gy
	}

	var specs []store.PlacementSpec
	for _, p := range payload.Placements {
		x, y := anchorX+p.DX, anchorY+p.DY
		if !sc.InBounds(x, y) {
			continue
		}
		specs = append(specs, store.PlacementSpec{TileID: p.TileID, GridX: x, GridY: y})
	}
	g.store.AddPlacements(specs)
}
