// Package genclient talks to the tile-generation backend. The backend
// receives a composed scene image, a regeneration mask, locked edge pixel
// constraints, and a prompt, and returns freshly generated tiles sliced to
// the grid.
package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/milk9111/tileforge/persist"
	"github.com/milk9111/tileforge/store"
)

// EdgeConstraint is a strip of pixels the generator must match.
type EdgeConstraint struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels string `json:"pixels"` // base64 encoded
}

// Bounds is the generation area in grid coordinates, inclusive.
type Bounds struct {
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// Request asks the backend to regenerate the masked region of a scene.
type Request struct {
	SceneImage  string           `json:"sceneImage"` // data URL
	Mask        string           `json:"mask"`       // data URL, white = regenerate
	LockedEdges []EdgeConstraint `json:"lockedEdges,omitempty"`
	Prompt      string           `json:"prompt"`
	Keywords    []string         `json:"keywords,omitempty"`
	TileSize    int              `json:"tileSize"`
	Bounds      Bounds           `json:"bounds"`
}

// Tile is one generated tile positioned on the grid.
type Tile struct {
	GridX       int    `json:"gridX"`
	GridY       int    `json:"gridY"`
	ImageBase64 string `json:"imageBase64"`
}

// Response is the backend's generation result.
type Response struct {
	Tiles   []Tile `json:"tiles"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client is an HTTP client for one backend instance.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate posts a generation request and decodes the result. A response
// with Success false becomes an error.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("genclient: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("genclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genclient: generate: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("genclient: read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genclient: generate: %s: %s", httpResp.Status, data)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("genclient: unmarshal response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("genclient: generation failed: %s", resp.Error)
	}
	return &resp, nil
}

// Healthy reports whether the backend answers its health route.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// GeneratedTiles converts a response into store tiles, decoding each data
// URL. The labels are attached to every generated tile.
func (r *Response) GeneratedTiles(labels []string) ([]store.GeneratedTile, error) {
	out := make([]store.GeneratedTile, 0, len(r.Tiles))
	for _, t := range r.Tiles {
		png, err := persist.DecodeImage(t.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("genclient: tile (%d,%d): %w", t.GridX, t.GridY, err)
		}
		out = append(out, store.GeneratedTile{
			GridX:  t.GridX,
			GridY:  t.GridY,
			PNG:    png,
			Labels: labels,
		})
	}
	return out, nil
}
