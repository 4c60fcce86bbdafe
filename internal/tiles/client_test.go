package tiles

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shadeserve/internal/shade"
)

func worldCanvas(t *testing.T, width, height int) shade.Canvas {
	t.Helper()
	c, err := shade.NewCanvas(width, height, -originShift, originShift, -originShift, originShift)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	return c
}

func tileServer(t *testing.T, colors map[string]color.NRGBA) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/t/"), ".png")
		mu.Lock()
		requests = append(requests, key)
		mu.Unlock()
		c, ok := colors[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		img := image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = 255
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Errorf("encode tile: %v", err)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestUnderlayAssemblesTiles(t *testing.T) {
	colors := map[string]color.NRGBA{
		"1/0/0": {255, 0, 0, 255},
		"1/1/0": {0, 255, 0, 255},
		"1/0/1": {0, 0, 255, 255},
		"1/1/1": {255, 255, 255, 255},
	}
	srv, requests := tileServer(t, colors)
	client := NewClient(srv.URL+"/t/{Z}/{X}/{Y}.png", time.Second)

	img, err := client.Underlay(context.Background(), worldCanvas(t, 512, 512), color.NRGBA{0, 0, 0, 255})
	if err != nil {
		t.Fatalf("Underlay: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 512 {
		t.Fatalf("underlay size = %dx%d", b.Dx(), b.Dy())
	}
	if len(*requests) != 4 {
		t.Fatalf("fetched %d tiles (%v), want 4", len(*requests), *requests)
	}

	// Tile row 0 is the top of the world, so 1/0/0 fills the top-left
	// quadrant.
	quadrants := []struct {
		x, y int
		want color.RGBA
	}{
		{128, 128, color.RGBA{255, 0, 0, 255}},
		{384, 128, color.RGBA{0, 255, 0, 255}},
		{128, 384, color.RGBA{0, 0, 255, 255}},
		{384, 384, color.RGBA{255, 255, 255, 255}},
	}
	for _, q := range quadrants {
		if got := img.RGBAAt(q.x, q.y); got != q.want {
			t.Errorf("pixel (%d, %d) = %v, want %v", q.x, q.y, got, q.want)
		}
	}
}

func TestUnderlayTileFailure(t *testing.T) {
	srv, _ := tileServer(t, nil) // every tile 404s
	client := NewClient(srv.URL+"/t/{Z}/{X}/{Y}.png", time.Second)

	_, err := client.Underlay(context.Background(), worldCanvas(t, 512, 512), color.NRGBA{0, 0, 0, 255})
	if err == nil {
		t.Fatal("expected error when tiles fail")
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("error = %v, want tile status", err)
	}
}

func TestUnderlayOutsideWorld(t *testing.T) {
	srv, requests := tileServer(t, nil)
	client := NewClient(srv.URL+"/t/{Z}/{X}/{Y}.png", time.Second)

	c, err := shade.NewCanvas(100, 100, 3e7, 4e7, 3e7, 4e7)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	img, err := client.Underlay(context.Background(), c, color.NRGBA{9, 9, 9, 255})
	if err != nil {
		t.Fatalf("Underlay: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("fetched %d tiles for an extent outside the world", len(*requests))
	}
	if got := img.RGBAAt(50, 50); got != (color.RGBA{9, 9, 9, 255}) {
		t.Fatalf("pixel = %v, want plain background", got)
	}
}

func TestTileURLTemplate(t *testing.T) {
	c := NewClient("https://tiles.example/{z}/{y}/{x}.jpg", time.Second)
	if got := c.tileURL(3, 5, 7); got != "https://tiles.example/3/7/5.jpg" {
		t.Fatalf("tileURL = %q", got)
	}
	c = NewClient("https://tiles.example/{Z}/{X}/{Y}.png", time.Second)
	if got := c.tileURL(12, 1205, 1539); got != "https://tiles.example/12/1205/1539.png" {
		t.Fatalf("tileURL = %q", got)
	}
}

func TestZoomRespectsTileBudget(t *testing.T) {
	// A 4096px world-spanning canvas wants zoom 4 (256 tiles); the
	// budget forces it down.
	c := worldCanvas(t, 4096, 4096)
	z := zoomFor(c)
	if n := tileCount(c, z); n > maxTiles {
		t.Fatalf("zoom %d covers %d tiles, budget is %d", z, n, maxTiles)
	}
	if z >= 4 {
		t.Fatalf("zoom = %d, want backed off below 4", z)
	}
	if z == 0 {
		t.Fatal("zoom collapsed to 0, want the largest level within budget")
	}

	// A typical city-scale canvas stays well inside the budget.
	city, err := shade.NewCanvas(800, 600, -8243000, -8210000, 4960000, 4985000)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	if n := tileCount(city, zoomFor(city)); n == 0 || n > maxTiles {
		t.Fatalf("city canvas covers %d tiles", n)
	}
}
