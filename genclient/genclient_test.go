package genclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/milk9111/tileforge/persist"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" || r.Method != http.MethodPost {
			t.Fatalf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Prompt != "mossy cave wall" || req.Bounds.MaxX != 2 {
			t.Fatalf("request not forwarded faithfully: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(Response{
			Success: true,
			Tiles: []Tile{
				{GridX: 1, GridY: 1, ImageBase64: persist.EncodeImage([]byte{9, 9})},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Generate(context.Background(), Request{
		Prompt:   "mossy cave wall",
		TileSize: 16,
		Bounds:   Bounds{MinX: 1, MinY: 1, MaxX: 2, MaxY: 1},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(resp.Tiles) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(resp.Tiles))
	}

	gts, err := resp.GeneratedTiles([]string{"cave"})
	if err != nil {
		t.Fatalf("GeneratedTiles: %v", err)
	}
	if gts[0].GridX != 1 || string(gts[0].PNG) != string([]byte{9, 9}) {
		t.Fatalf("tile conversion lost data: %+v", gts[0])
	}
}

func TestGenerateReportsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Response{Success: false, Error: "no gpu"})
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Generate(context.Background(), Request{}); err == nil {
		t.Fatalf("a failed generation must surface as an error")
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if !New(srv.URL).Healthy(context.Background()) {
		t.Fatalf("backend is up, Healthy must be true")
	}
	if New(srv.URL + "/missing").Healthy(context.Background()) {
		t.Fatalf("404 must not be healthy")
	}
}
