package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/milk9111/tileforge/config"
	"github.com/milk9111/tileforge/genclient"
	"github.com/milk9111/tileforge/persist"
	"github.com/milk9111/tileforge/scene"
	"github.com/milk9111/tileforge/store"
	"github.com/milk9111/tileforge/tiles"
)

func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if cfg.LogFile != "" {
		zcfg.OutputPaths = []string{cfg.LogFile}
		zcfg.ErrorOutputPaths = []string{cfg.LogFile}
	}
	return zcfg.Build()
}

func loadProject(path string, cfg *config.Config, logger *zap.Logger) *scene.Project {
	if path != "" {
		p, err := persist.Load(path)
		if err == nil {
			logger.Info("loaded project",
				zap.String("path", path),
				zap.Int("scenes", len(p.Scenes)),
				zap.Int("tiles", len(p.Tiles)))
			return p
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Fatal("load project", zap.String("path", path), zap.Error(err))
		}
		logger.Info("project file not found, starting fresh", zap.String("path", path))
	}

	p := scene.NewProject("untitled")
	sc := scene.NewScene("main", cfg.GridWidth, cfg.GridHeight, cfg.TileSize)
	p.Scenes = append(p.Scenes, sc)
	p.ActiveSceneID = sc.ID
	return p
}

func main() {
	configPath := flag.String("config", "tileforge.yaml", "Path to the editor config file")
	projectPath := flag.String("project", "project.json", "Project file to open (created on first save)")
	tilesDir := flag.String("tiles", "", "Tile image directory (overrides the config file)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "editor: %v\n", err)
		os.Exit(1)
	}
	if *tilesDir != "" {
		cfg.TilesDir = *tilesDir
	}

	logger, err := newLogger(cfg, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "editor: build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	project := loadProject(*projectPath, cfg, logger)

	st := store.New(project, logger)
	st.SetHistoryLimit(cfg.HistoryLimit)

	loaded, err := tiles.LoadDir(cfg.TilesDir)
	if err != nil {
		logger.Warn("load tile directory", zap.String("dir", cfg.TilesDir), zap.Error(err))
	}
	st.AddTiles(loaded)

	var watcher *tiles.Watcher
	if _, statErr := os.Stat(cfg.TilesDir); statErr == nil {
		watcher, err = tiles.NewWatcher(cfg.TilesDir)
		if err != nil {
			logger.Warn("watch tile directory", zap.String("dir", cfg.TilesDir), zap.Error(err))
		}
	}

	game := newEditorGame(st, cfg, logger)
	game.savePath = *projectPath
	game.watcher = watcher
	game.client = genclient.New(cfg.BackendURL)
	if cfg.AutosaveSeconds > 0 {
		game.autosave = time.Duration(cfg.AutosaveSeconds) * time.Second
	}
	game.buildUI()
	initClipboard(logger)

	if watcher != nil {
		defer watcher.Close()
	}

	ebiten.SetWindowSize(1440, 900)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("Tileforge")

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("editor exited", zap.Error(err))
	}
}
