package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/milk9111/tileforge/importer"
	"github.com/milk9111/tileforge/persist"
	"github.com/milk9111/tileforge/scene"
)

// tileforge-import converts legacy level JSON files into a Tileforge project.
// Each level becomes a scene; tileset images referenced by the levels are
// sliced into library tiles.
func main() {
	projectPath := flag.String("project", "project.json", "Project file to create or merge into")
	name := flag.String("name", "imported", "Project name used when creating a new project")
	assetsDir := flag.String("assets", ".", "Directory tileset paths in the level files are relative to")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: tileforge-import [flags] level.json [level.json ...]")
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "import: build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	project, err := persist.Load(*projectPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Fatal("load project", zap.String("path", *projectPath), zap.Error(err))
		}
		project = scene.NewProject(*name)
	}

	imp := importer.New(func(path string) ([]byte, error) {
		return os.ReadFile(filepath.Join(*assetsDir, filepath.FromSlash(path)))
	})

	imported := 0
	for _, levelPath := range flag.Args() {
		data, err := os.ReadFile(levelPath)
		if err != nil {
			logger.Error("read level", zap.String("path", levelPath), zap.Error(err))
			continue
		}
		base := filepath.Base(levelPath)
		sc, err := imp.ImportLevel(base[:len(base)-len(filepath.Ext(base))], data)
		if err != nil {
			logger.Error("import level", zap.String("path", levelPath), zap.Error(err))
			continue
		}
		project.Scenes = append(project.Scenes, sc)
		if project.ActiveSceneID == "" {
			project.ActiveSceneID = sc.ID
		}
		imported++
		logger.Info("imported level",
			zap.String("path", levelPath),
			zap.String("scene", sc.Name),
			zap.Int("placements", len(sc.Placements)))
	}

	for _, t := range imp.Tiles() {
		project.AddTile(t)
	}

	if imported == 0 {
		logger.Fatal("no levels imported")
	}
	if err := persist.Save(*projectPath, project); err != nil {
		logger.Fatal("save project", zap.String("path", *projectPath), zap.Error(err))
	}
	logger.Info("saved project",
		zap.String("path", *projectPath),
		zap.Int("scenes", len(project.Scenes)),
		zap.Int("tiles", len(project.Tiles)))
}
