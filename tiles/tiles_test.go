package tiles

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFromPNG(t *testing.T) {
	data := encodePNG(t, 16, 24)
	tile, err := FromPNG("mossy_rock.png", data)
	if err != nil {
		t.Fatalf("FromPNG: %v", err)
	}
	if tile.Width != 16 || tile.Height != 24 {
		t.Fatalf("got %dx%d, want 16x24", tile.Width, tile.Height)
	}
	if !reflect.DeepEqual(tile.Labels, []string{"mossy", "rock"}) {
		t.Fatalf("labels: %v", tile.Labels)
	}
	if tile.ID == "" {
		t.Fatalf("tile must get an id")
	}
	if tile.Source != "mossy_rock.png" {
		t.Fatalf("source: %q", tile.Source)
	}
}

func TestFromPNGRejectsGarbage(t *testing.T) {
	if _, err := FromPNG("bad.png", []byte("not a png")); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "grass.png"), encodePNG(t, 16, 16), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("junk"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(got) != 1 || got[0].Labels[0] != "grass" {
		t.Fatalf("expected just the decodable png, got %d tiles", len(got))
	}
}

func TestLoadDirMissing(t *testing.T) {
	got, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil || got != nil {
		t.Fatalf("missing dir must yield an empty library, got %v %v", got, err)
	}
}
