package main

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"time"

	"github.com/ebitenui/ebitenui"
	ebuiinput "github.com/ebitenui/ebitenui/input"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/milk9111/tileforge/config"
	"github.com/milk9111/tileforge/genclient"
	"github.com/milk9111/tileforge/geom"
	"github.com/milk9111/tileforge/interact"
	"github.com/milk9111/tileforge/persist"
	"github.com/milk9111/tileforge/scene"
	"github.com/milk9111/tileforge/store"
	"github.com/milk9111/tileforge/tiles"
)

var (
	backgroundColor = color.RGBA{24, 24, 28, 255}
	gridColor       = color.RGBA{60, 60, 68, 255}
	selectionColor  = color.RGBA{90, 160, 255, 110}
	replacedColor   = color.RGBA{255, 90, 90, 90}
	bandColor       = color.RGBA{120, 180, 255, 60}
	edgeColor       = color.RGBA{230, 200, 80, 255}
	lockedEdgeColor = color.RGBA{230, 90, 80, 255}
)

type editorGame struct {
	store  *store.Store
	ctrl   *interact.Controller
	cfg    *config.Config
	logger *zap.Logger

	ui      *ebitenui.UI
	toolbar *toolBar
	palette *palettePanel

	client   *genclient.Client
	watcher  *tiles.Watcher
	savePath string
	autosave time.Duration
	lastSave time.Time

	tileCache map[string]*ebiten.Image
	pixel     *ebiten.Image

	generating bool
	generated  chan []store.GeneratedTile

	width, height int
}

func newEditorGame(st *store.Store, cfg *config.Config, logger *zap.Logger) *editorGame {
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)

	g := &editorGame{
		store:     st,
		ctrl:      interact.New(st),
		cfg:       cfg,
		logger:    logger,
		tileCache: make(map[string]*ebiten.Image),
		pixel:     pixel,
		generated: make(chan []store.GeneratedTile, 1),
		lastSave:  time.Now(),
		width:     1440,
		height:    900,
	}
	g.ctrl.SetViewport(geom.Viewport{OffsetX: 64, OffsetY: 64, Zoom: 1})
	return g
}

func (g *editorGame) Update() error {
	g.drainWatcher()
	g.drainGenerated()

	if g.ui != nil {
		g.ui.Update()
	}
	g.handleKeys()

	if !ebuiinput.UIHovered {
		g.handleMouse()
	}

	if g.autosave > 0 && g.savePath != "" && time.Since(g.lastSave) >= g.autosave {
		g.save()
	}
	return nil
}

func (g *editorGame) drainWatcher() {
	if g.watcher == nil {
		return
	}
	changed, removed := false, false
	for {
		select {
		case ev := <-g.watcher.Events:
			if ev.Removed {
				if t := g.store.Project().TileBySource(ev.Name); t != nil {
					delete(g.tileCache, t.ID)
				}
				g.store.RetireTileSource(ev.Name)
				removed = true
			} else {
				changed = true
			}
		case err := <-g.watcher.Errors:
			g.logger.Warn("tile watcher", zap.Error(err))
		default:
			if changed {
				g.reloadTiles()
			} else if removed && g.palette != nil {
				g.palette.rebuild(g.store.Project().Tiles)
			}
			return
		}
	}
}

func (g *editorGame) reloadTiles() {
	loaded, err := tiles.LoadDir(g.cfg.TilesDir)
	if err != nil {
		g.logger.Warn("reload tiles", zap.String("dir", g.cfg.TilesDir), zap.Error(err))
		return
	}
	// Refreshed tiles keep their ids, so drop any cached imagery first.
	for _, t := range loaded {
		if existing := g.store.Project().TileBySource(t.Source); existing != nil {
			delete(g.tileCache, existing.ID)
		}
	}
	g.store.AddTiles(loaded)
	if g.palette != nil {
		g.palette.rebuild(g.store.Project().Tiles)
	}
	g.logger.Info("tile library refreshed", zap.Int("tiles", len(g.store.Project().Tiles)))
}

func (g *editorGame) drainGenerated() {
	select {
	case generated := <-g.generated:
		g.generating = false
		if len(generated) > 0 {
			g.store.ApplyGeneratedTiles(generated)
			if g.palette != nil {
				g.palette.rebuild(g.store.Project().Tiles)
			}
		}
	default:
	}
}

func (g *editorGame) handleKeys() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	switch {
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyZ):
		if shift {
			g.store.Redo()
		} else {
			g.store.Undo()
		}
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyY):
		g.store.Redo()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyD):
		g.store.DuplicateSelectedPlacements()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copySelection()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.pasteClipboard()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.save()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.toggleSelectionLock()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyG):
		g.generateSelection()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.store.CancelTransaction()
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete),
		inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		g.store.DeleteSelectedPlacements()
	}
}

func (g *editorGame) handleMouse() {
	cx, cy := ebiten.CursorPosition()
	px, py := float64(cx), float64(cy)
	mods := interact.Modifiers{
		Shift: ebiten.IsKeyPressed(ebiten.KeyShift),
		Alt:   ebiten.IsKeyPressed(ebiten.KeyAlt),
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		g.ctrl.Wheel(px, py, wy)
	}

	buttons := map[ebiten.MouseButton]interact.Button{
		ebiten.MouseButtonLeft:   interact.ButtonLeft,
		ebiten.MouseButtonRight:  interact.ButtonRight,
		ebiten.MouseButtonMiddle: interact.ButtonMiddle,
	}
	for eb, b := range buttons {
		if inpututil.IsMouseButtonJustPressed(eb) {
			g.ctrl.PointerDown(px, py, b, mods)
		}
	}
	anyHeld := false
	for eb := range buttons {
		if ebiten.IsMouseButtonPressed(eb) {
			anyHeld = true
		}
		if inpututil.IsMouseButtonJustReleased(eb) {
			g.ctrl.PointerUp(px, py, mods)
		}
	}
	if anyHeld {
		g.ctrl.PointerMove(px, py)
	}
}

func (g *editorGame) toggleSelectionLock() {
	sc := g.store.ActiveScene()
	if sc == nil {
		return
	}
	sel := g.store.Selection()
	for _, id := range sel.PlacementIDs() {
		if p := sc.Placement(id); p != nil {
			g.store.SetPlacementLocked(id, !p.Locked)
		}
	}
	for _, id := range sel.EdgeIDs() {
		if e := sc.Edge(id); e != nil {
			g.store.SetEdgeLocked(id, !e.Locked)
		}
	}
}

func (g *editorGame) save() {
	g.store.CommitTransaction()
	if err := persist.Save(g.savePath, g.store.Project()); err != nil {
		g.logger.Error("save project", zap.String("path", g.savePath), zap.Error(err))
		return
	}
	g.lastSave = time.Now()
	g.logger.Info("saved project", zap.String("path", g.savePath))
}

func (g *editorGame) tileImage(t *scene.Tile) *ebiten.Image {
	if img, ok := g.tileCache[t.ID]; ok {
		return img
	}
	decoded, err := png.Decode(bytes.NewReader(t.PNG))
	if err != nil {
		g.logger.Warn("decode tile image", zap.String("tile", t.ID), zap.Error(err))
		placeholder := ebiten.NewImage(t.Width, t.Height)
		placeholder.Fill(color.RGBA{160, 90, 160, 255})
		g.tileCache[t.ID] = placeholder
		return placeholder
	}
	img := ebiten.NewImageFromImage(decoded)
	g.tileCache[t.ID] = img
	return img
}

func (g *editorGame) fillRect(screen *ebiten.Image, x, y, w, h float64, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
	screen.DrawImage(g.pixel, op)
}

func (g *editorGame) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	sc := g.store.ActiveScene()
	if sc != nil {
		view := g.ctrl.Viewport()
		g.drawGrid(screen, sc, view)
		g.drawPlacements(screen, sc, view)
		g.drawEdges(screen, sc, view)
		g.drawBand(screen, sc, view)
		g.drawPalettePreview(screen, sc, view)
		g.drawStatus(screen, sc, view)
	}

	if g.ui != nil {
		g.ui.Draw(screen)
	}
}

func (g *editorGame) drawGrid(screen *ebiten.Image, sc *scene.Scene, view geom.Viewport) {
	cell := float64(sc.TileSize) * view.Zoom
	ox, oy := geom.CellToScreen(0, 0, view, sc.TileSize)
	w := float64(sc.GridWidth) * cell
	h := float64(sc.GridHeight) * cell

	for x := 0; x <= sc.GridWidth; x++ {
		g.fillRect(screen, ox+float64(x)*cell, oy, 1, h, gridColor)
	}
	for y := 0; y <= sc.GridHeight; y++ {
		g.fillRect(screen, ox, oy+float64(y)*cell, w, 1, gridColor)
	}
}

func (g *editorGame) drawPlacements(screen *ebiten.Image, sc *scene.Scene, view geom.Viewport) {
	cell := float64(sc.TileSize) * view.Zoom
	sel := g.store.Selection()

	replaced := make(map[string]struct{})
	if tx := g.store.Transaction(); tx != nil {
		for _, p := range tx.Replaced() {
			replaced[p.ID] = struct{}{}
		}
	}

	for _, p := range sc.Placements {
		t := g.store.Project().Tile(p.TileID)
		if t == nil {
			continue
		}
		img := g.tileImage(t)
		sx, sy := geom.CellToScreen(p.GridX, p.GridY, view, sc.TileSize)

		op := &ebiten.DrawImageOptions{}
		bounds := img.Bounds()
		op.GeoM.Scale(cell/float64(bounds.Dx()), cell/float64(bounds.Dy()))
		op.GeoM.Translate(sx, sy)
		if _, ok := replaced[p.ID]; ok {
			op.ColorScale.ScaleAlpha(0.35)
		}
		screen.DrawImage(img, op)

		if _, ok := replaced[p.ID]; ok {
			g.fillRect(screen, sx, sy, cell, cell, replacedColor)
		}
		if sel.HasPlacement(p.ID) {
			g.fillRect(screen, sx, sy, cell, cell, selectionColor)
		}
		if p.Locked {
			g.fillRect(screen, sx+cell-4, sy, 4, 4, lockedEdgeColor)
		}
	}
}

func (g *editorGame) drawEdges(screen *ebiten.Image, sc *scene.Scene, view geom.Viewport) {
	cell := float64(sc.TileSize) * view.Zoom
	sel := g.store.Selection()

	for _, e := range sc.Edges {
		sx, sy := geom.CellToScreen(e.X, e.Y, view, sc.TileSize)
		span := cell * float64(max(e.Width, 1))
		c := edgeColor
		if e.Locked {
			c = lockedEdgeColor
		}
		if e.Orientation == scene.Horizontal {
			g.fillRect(screen, sx, sy-1, span, 3, c)
			if sel.HasEdge(e.ID) {
				g.fillRect(screen, sx, sy-3, span, 7, selectionColor)
			}
		} else {
			g.fillRect(screen, sx-1, sy, 3, span, c)
			if sel.HasEdge(e.ID) {
				g.fillRect(screen, sx-3, sy, 7, span, selectionColor)
			}
		}
	}
}

func (g *editorGame) drawBand(screen *ebiten.Image, sc *scene.Scene, view geom.Viewport) {
	bandMin, bandMax, ok := g.ctrl.Band()
	if !ok {
		return
	}
	cell := float64(sc.TileSize) * view.Zoom
	sx, sy := geom.CellToScreen(bandMin.X, bandMin.Y, view, sc.TileSize)
	w := float64(bandMax.X-bandMin.X+1) * cell
	h := float64(bandMax.Y-bandMin.Y+1) * cell
	g.fillRect(screen, sx, sy, w, h, bandColor)
}

func (g *editorGame) drawPalettePreview(screen *ebiten.Image, sc *scene.Scene, view geom.Viewport) {
	if g.ctrl.PaletteTile() == "" || ebuiinput.UIHovered {
		return
	}
	t := g.store.Project().Tile(g.ctrl.PaletteTile())
	if t == nil {
		return
	}
	cx, cy := ebiten.CursorPosition()
	gx, gy, ok := geom.ScreenToCellBounded(float64(cx), float64(cy), view, sc.TileSize, sc.GridWidth, sc.GridHeight)
	if !ok {
		return
	}
	cell := float64(sc.TileSize) * view.Zoom
	img := g.tileImage(t)
	sx, sy := geom.CellToScreen(gx, gy, view, sc.TileSize)
	op := &ebiten.DrawImageOptions{}
	bounds := img.Bounds()
	op.GeoM.Scale(cell/float64(bounds.Dx()), cell/float64(bounds.Dy()))
	op.GeoM.Translate(sx, sy)
	op.ColorScale.ScaleAlpha(0.5)
	screen.DrawImage(img, op)
}

func (g *editorGame) drawStatus(screen *ebiten.Image, sc *scene.Scene, view geom.Viewport) {
	sel := g.store.Selection()
	status := fmt.Sprintf("%s  %dx%d  zoom %.2f  selected %d/%d  mode %s",
		sc.Name, sc.GridWidth, sc.GridHeight, view.Zoom,
		sel.PlacementCount(), sel.EdgeCount(), sel.Mode())
	if g.store.Transaction() != nil {
		status += "  [editing]"
	}
	if g.generating {
		status += "  [generating...]"
	}
	ebitenutil.DebugPrintAt(screen, status, 8, g.height-20)
}

func (g *editorGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
