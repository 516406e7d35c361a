package main

import (
	"bytes"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/milk9111/tileforge/scene"
	"github.com/milk9111/tileforge/store"
)

func (g *editorGame) buildUI() {
	ui := &ebitenui.UI{}

	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("Failed to load font: " + err.Error())
	}

	var fontFace text.Face = &text.GoTextFace{Source: s, Size: 14}
	ui.PrimaryTheme = newEditorTheme(&fontFace)

	toolbarContainer, toolbar := buildToolBar(ui.PrimaryTheme, &fontFace, g)
	paletteContainer, palette := buildPalette(&fontFace, g)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	toolbarContainer.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionCenter,
		VerticalPosition:   widget.AnchorLayoutPositionStart,
	}
	paletteContainer.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionEnd,
		VerticalPosition:   widget.AnchorLayoutPositionCenter,
		StretchVertical:    true,
	}
	root.AddChild(toolbarContainer)
	root.AddChild(paletteContainer)

	ui.Container = root
	g.ui = ui
	g.toolbar = toolbar
	g.palette = palette
	palette.rebuild(g.store.Project().Tiles)
}

type toolBar struct {
	group       *widget.RadioGroup
	modeButtons []*widget.Button
}

func buildToolBar(theme *widget.Theme, fontFace *text.Face, g *editorGame) (*widget.Container, *toolBar) {
	buttonTextColor := &widget.ButtonTextColor{
		Idle:     color.Black,
		Hover:    color.Black,
		Pressed:  color.RGBA{0, 0, 200, 255},
		Disabled: color.Gray{Y: 128},
	}

	toolbar := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(220, 48),
		),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(8),
				widget.RowLayoutOpts.Padding(&widget.Insets{Top: 4, Bottom: 4, Left: 4, Right: 4}),
			),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{48, 48, 56, 255})),
	)

	modes := []store.SelectionMode{store.ModeTiles, store.ModeEdges, store.ModeBoth}
	var modeButtons []*widget.Button
	for _, mode := range modes {
		btn := widget.NewButton(
			widget.ButtonOpts.Image(theme.ButtonTheme.Image),
			widget.ButtonOpts.Text(mode.String(), fontFace, buttonTextColor),
			widget.ButtonOpts.ToggleMode(),
			widget.ButtonOpts.WidgetOpts(
				widget.WidgetOpts.MinSize(56, 40),
			),
		)
		modeButtons = append(modeButtons, btn)
		toolbar.AddChild(btn)
	}

	elements := make([]widget.RadioGroupElement, 0, len(modeButtons))
	for _, b := range modeButtons {
		elements = append(elements, b)
	}
	group := widget.NewRadioGroup(
		widget.RadioGroupOpts.Elements(elements...),
		widget.RadioGroupOpts.ChangedHandler(func(args *widget.RadioGroupChangedEventArgs) {
			for idx, b := range modeButtons {
				if args.Active == b {
					g.store.SetSelectionMode(modes[idx])
					return
				}
			}
		}),
	)
	group.SetActive(modeButtons[0])

	actions := []struct {
		label string
		run   func()
	}{
		{"Undo", func() { g.store.Undo() }},
		{"Redo", func() { g.store.Redo() }},
		{"Dup", func() { g.store.DuplicateSelectedPlacements() }},
		{"Del", func() { g.store.DeleteSelectedPlacements() }},
		{"Lock", g.toggleSelectionLock},
		{"Gen", g.generateSelection},
		{"Save", g.save},
	}
	for _, action := range actions {
		run := action.run
		btn := widget.NewButton(
			widget.ButtonOpts.Image(theme.ButtonTheme.Image),
			widget.ButtonOpts.Text(action.label, fontFace, buttonTextColor),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				run()
			}),
			widget.ButtonOpts.WidgetOpts(
				widget.WidgetOpts.MinSize(48, 40),
			),
		)
		toolbar.AddChild(btn)
	}

	return toolbar, &toolBar{group: group, modeButtons: modeButtons}
}

// paletteEntry is a tile row in the palette list. An empty TileID means the
// plain selection pointer with no tile armed for placement.
type paletteEntry struct {
	TileID string
	Label  string
}

type palettePanel struct {
	list *widget.List
	game *editorGame
}

func buildPalette(fontFace *text.Face, g *editorGame) (*widget.Container, *palettePanel) {
	panel := &palettePanel{game: g}

	container := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(200, 0),
		),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Padding(&widget.Insets{Top: 6, Bottom: 6, Left: 6, Right: 6}),
			),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{36, 36, 42, 255})),
	)

	paletteLabel := widget.NewLabel(
		widget.LabelOpts.Text("Tiles", fontFace, &widget.LabelColor{Idle: color.White, Disabled: color.Gray{Y: 140}}),
	)
	container.AddChild(paletteLabel)

	panel.list = widget.NewList(
		widget.ListOpts.Entries([]any{}),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			if entry, ok := e.(paletteEntry); ok {
				return entry.Label
			}
			return ""
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {
			entry, ok := args.Entry.(paletteEntry)
			if !ok {
				return
			}
			g.ctrl.SetPaletteTile(entry.TileID)
		}),
	)
	panel.list.GetWidget().MinWidth = 188
	panel.list.GetWidget().MinHeight = 500
	container.AddChild(panel.list)

	return container, panel
}

func (p *palettePanel) rebuild(library []*scene.Tile) {
	if p == nil || p.list == nil {
		return
	}
	entries := []any{paletteEntry{Label: "(pointer)"}}

	sorted := make([]*scene.Tile, len(library))
	copy(sorted, library)
	sort.Slice(sorted, func(i, j int) bool {
		return paletteLabel(sorted[i]) < paletteLabel(sorted[j])
	})
	for _, t := range sorted {
		entries = append(entries, paletteEntry{TileID: t.ID, Label: paletteLabel(t)})
	}
	p.list.SetEntries(entries)
}

func paletteLabel(t *scene.Tile) string {
	if len(t.Labels) > 0 {
		return strings.Join(t.Labels, " ")
	}
	if len(t.ID) >= 8 {
		return fmt.Sprintf("tile %s", t.ID[:8])
	}
	return "tile " + t.ID
}
