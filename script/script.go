// Package script runs user-written tengo macros against the store for bulk
// edits that would be tedious by hand: select everything with a label, stamp
// rows of placements, mass lock, and so on.
package script

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/tileforge/scene"
	"github.com/milk9111/tileforge/store"
)

// Runner compiles and executes macros with an `editor` binding exposing a
// constrained slice of the store's operation surface.
type Runner struct {
	store *store.Store
}

func NewRunner(st *store.Store) *Runner {
	return &Runner{store: st}
}

// Run executes one macro to completion. Macros are synchronous, like every
// other store caller.
func (r *Runner) Run(src []byte) error {
	script := tengo.NewScript(src)
	if err := script.Add("editor", r.binding()); err != nil {
		return fmt.Errorf("script: bind editor: %w", err)
	}
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return fmt.Errorf("script: compile: %w", err)
	}
	if err := compiled.Run(); err != nil {
		return fmt.Errorf("script: run: %w", err)
	}
	return nil
}

func (r *Runner) binding() *tengo.ImmutableMap {
	st := r.store
	values := map[string]tengo.Object{}

	values["select_by_label"] = &tengo.UserFunction{Name: "select_by_label", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		label, _ := tengo.ToString(args[0])
		additive := len(args) > 1 && !args[1].IsFalsy()
		st.SelectMatching(func(p *scene.TilePlacement) bool {
			t := st.Project().Tile(p.TileID)
			if t == nil {
				return false
			}
			for _, l := range t.Labels {
				if l == label {
					return true
				}
			}
			return false
		}, additive)
		return tengo.TrueValue, nil
	}}

	values["select_all"] = &tengo.UserFunction{Name: "select_all", Value: func(args ...tengo.Object) (tengo.Object, error) {
		st.SelectMatching(func(*scene.TilePlacement) bool { return true }, false)
		return tengo.TrueValue, nil
	}}

	values["clear_selection"] = &tengo.UserFunction{Name: "clear_selection", Value: func(args ...tengo.Object) (tengo.Object, error) {
		st.ClearSelection()
		return tengo.TrueValue, nil
	}}

	values["place"] = &tengo.UserFunction{Name: "place", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return tengo.FalseValue, nil
		}
		ref, _ := tengo.ToString(args[0])
		x, _ := tengo.ToInt(args[1])
		y, _ := tengo.ToInt(args[2])
		tile := r.resolveTile(ref)
		if tile == nil {
			return tengo.FalseValue, nil
		}
		if p := st.PlaceTile(tile.ID, x, y); p == nil {
			return tengo.FalseValue, nil
		}
		st.CommitTransaction()
		return tengo.TrueValue, nil
	}}

	values["move_selection"] = &tengo.UserFunction{Name: "move_selection", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		dx, _ := tengo.ToInt(args[0])
		dy, _ := tengo.ToInt(args[1])
		st.MovePlacements(st.Selection().PlacementIDs(), dx, dy)
		st.CommitTransaction()
		return tengo.TrueValue, nil
	}}

	values["duplicate_selection"] = &tengo.UserFunction{Name: "duplicate_selection", Value: func(args ...tengo.Object) (tengo.Object, error) {
		st.DuplicateSelectedPlacements()
		st.CommitTransaction()
		return tengo.TrueValue, nil
	}}

	values["delete_selection"] = &tengo.UserFunction{Name: "delete_selection", Value: func(args ...tengo.Object) (tengo.Object, error) {
		st.DeleteSelectedPlacements()
		return tengo.TrueValue, nil
	}}

	values["lock_selection"] = &tengo.UserFunction{Name: "lock_selection", Value: func(args ...tengo.Object) (tengo.Object, error) {
		locked := len(args) == 0 || !args[0].IsFalsy()
		for _, id := range st.Selection().PlacementIDs() {
			st.SetPlacementLocked(id, locked)
		}
		return tengo.TrueValue, nil
	}}

	values["undo"] = &tengo.UserFunction{Name: "undo", Value: func(args ...tengo.Object) (tengo.Object, error) {
		st.Undo()
		return tengo.TrueValue, nil
	}}

	values["redo"] = &tengo.UserFunction{Name: "redo", Value: func(args ...tengo.Object) (tengo.Object, error) {
		st.Redo()
		return tengo.TrueValue, nil
	}}

	values["selection_count"] = &tengo.UserFunction{Name: "selection_count", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(st.Selection().PlacementCount())}, nil
	}}

	values["placement_count"] = &tengo.UserFunction{Name: "placement_count", Value: func(args ...tengo.Object) (tengo.Object, error) {
		sc := st.ActiveScene()
		if sc == nil {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(len(sc.Placements))}, nil
	}}

	values["grid_size"] = &tengo.UserFunction{Name: "grid_size", Value: func(args ...tengo.Object) (tengo.Object, error) {
		sc := st.ActiveScene()
		if sc == nil {
			return tengo.UndefinedValue, nil
		}
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"width":  &tengo.Int{Value: int64(sc.GridWidth)},
			"height": &tengo.Int{Value: int64(sc.GridHeight)},
		}}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

// resolveTile finds a library tile by id, or by the first label match.
func (r *Runner) resolveTile(ref string) *scene.Tile {
	p := r.store.Project()
	if p == nil {
		return nil
	}
	if t := p.Tile(ref); t != nil {
		return t
	}
	for _, t := range p.Tiles {
		for _, l := range t.Labels {
			if l == ref {
				return t
			}
		}
	}
	return nil
}
