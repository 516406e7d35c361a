package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"go.uber.org/zap"

	"github.com/milk9111/tileforge/genclient"
	"github.com/milk9111/tileforge/persist"
	"github.com/milk9111/tileforge/scene"
)

// generateSelection sends the selected region to the generation backend and
// applies the returned tiles when they arrive. The request runs on its own
// goroutine; Update drains the result channel.
func (g *editorGame) generateSelection() {
	if g.generating || g.client == nil {
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
	g.store.CommitTransaction()

	bounds, ok := selectionBounds(sc, ids)
	if !ok {
		return
	}

	sceneImg := composeSceneImage(sc, g.store.Project())
	maskImg := composeMask(sc, ids)

	req := genclient.Request{
		SceneImage:  encodeDataURL(sceneImg),
		Mask:        encodeDataURL(maskImg),
		LockedEdges: lockedEdgeConstraints(sc, sceneImg),
		Prompt:      promptFromSelection(sc, g.store.Project(), ids),
		TileSize:    sc.TileSize,
		Bounds:      bounds,
	}

	g.generating = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		resp, err := g.client.Generate(ctx, req)
		if err != nil {
			g.logger.Error("generate tiles", zap.Error(err))
			g.generated <- nil
			return
		}
		generated, err := resp.GeneratedTiles([]string{"generated"})
		if err != nil {
			g.logger.Error("decode generated tiles", zap.Error(err))
			g.generated <- nil
			return
		}
		g.logger.Info("generation finished", zap.Int("tiles", len(generated)))
		g.generated <- generated
	}()
}

func selectionBounds(sc *scene.Scene, ids []string) (genclient.Bounds, bool) {
	b := genclient.Bounds{MinX: sc.GridWidth, MinY: sc.GridHeight, MaxX: -1, MaxY: -1}
	for _, id := range ids {
		p := sc.Placement(id)
		if p == nil {
			continue
		}
		if p.GridX < b.MinX {
			b.MinX = p.GridX
		}
		if p.GridY < b.MinY {
			b.MinY = p.GridY
		}
		if p.GridX > b.MaxX {
			b.MaxX = p.GridX
		}
		if p.GridY > b.MaxY {
			b.MaxY = p.GridY
		}
	}
	return b, b.MaxX >= b.MinX && b.MaxY >= b.MinY
}

// composeSceneImage flattens every placement into one RGBA image of the full
// grid, bottom placement first so overlaps resolve the same way rendering
// does.
func composeSceneImage(sc *scene.Scene, p *scene.Project) *image.RGBA {
	ts := sc.TileSize
	img := image.NewRGBA(image.Rect(0, 0, sc.GridWidth*ts, sc.GridHeight*ts))
	for _, placement := range sc.Placements {
		t := p.Tile(placement.TileID)
		if t == nil {
			continue
		}
		decoded, err := png.Decode(bytes.NewReader(t.PNG))
		if err != nil {
			continue
		}
		dst := image.Rect(placement.GridX*ts, placement.GridY*ts, (placement.GridX+1)*ts, (placement.GridY+1)*ts)
		draw.Draw(img, dst, decoded, decoded.Bounds().Min, draw.Over)
	}
	return img
}

// composeMask paints the selected cells white on black. White marks the
// region the backend regenerates.
func composeMask(sc *scene.Scene, ids []string) *image.RGBA {
	ts := sc.TileSize
	img := image.NewRGBA(image.Rect(0, 0, sc.GridWidth*ts, sc.GridHeight*ts))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	for _, id := range ids {
		p := sc.Placement(id)
		if p == nil {
			continue
		}
		dst := image.Rect(p.GridX*ts, p.GridY*ts, (p.GridX+1)*ts, (p.GridY+1)*ts)
		draw.Draw(img, dst, image.NewUniform(color.White), image.Point{}, draw.Src)
	}
	return img
}

// lockedEdgeConstraints cuts a pixel strip out of the composed scene image for
// every locked edge so the generator can keep seams continuous.
func lockedEdgeConstraints(sc *scene.Scene, sceneImg *image.RGBA) []genclient.EdgeConstraint {
	ts := sc.TileSize
	var constraints []genclient.EdgeConstraint
	for _, e := range sc.Edges {
		if !e.Locked {
			continue
		}
		span := max(e.Width, 1) * ts
		var rect image.Rectangle
		if e.Orientation == scene.Horizontal {
			rect = image.Rect(e.X*ts, e.Y*ts-1, e.X*ts+span, e.Y*ts+1)
		} else {
			rect = image.Rect(e.X*ts-1, e.Y*ts, e.X*ts+1, e.Y*ts+span)
		}
		rect = rect.Intersect(sceneImg.Bounds())
		if rect.Empty() {
			continue
		}
		strip := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(strip, strip.Bounds(), sceneImg, rect.Min, draw.Src)
		var buf bytes.Buffer
		if err := png.Encode(&buf, strip); err != nil {
			continue
		}
		constraints = append(constraints, genclient.EdgeConstraint{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
			Pixels: base64.StdEncoding.EncodeToString(buf.Bytes()),
		})
	}
	return constraints
}

// promptFromSelection folds the labels of the selected tiles into a prompt so
// regenerated tiles stay on theme.
func promptFromSelection(sc *scene.Scene, p *scene.Project, ids []string) string {
	seen := make(map[string]struct{})
	prompt := "tileset matching the surrounding scene"
	for _, id := range ids {
		placement := sc.Placement(id)
		if placement == nil {
			continue
		}
		t := p.Tile(placement.TileID)
		if t == nil {
			continue
		}
		for _, label := range t.Labels {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			prompt += ", " + label
		}
	}
	return prompt
}

func encodeDataURL(img *image.RGBA) string {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ""
	}
	return persist.EncodeImage(buf.Bytes())
}
