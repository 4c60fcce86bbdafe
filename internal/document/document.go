// Package document models the served artifact: a visual (a frame bound
// to a canvas and shading options) wrapped in a titled document that
// the HTTP layer mounts at a path.
package document

import (
	"crypto/rand"
	"encoding/hex"
	"image"
	"image/color"
	"runtime"
	"sync"
	"time"

	"shadeserve/internal/dataset"
	"shadeserve/internal/shade"
)

// Visual binds a loaded frame to the raster geometry and default
// shading options it is served with. The frame and canvas never change
// after construction; per-request option overrides are passed to
// Render instead.
type Visual struct {
	Frame      *dataset.Frame
	Canvas     shade.Canvas
	Opts       shade.Options
	Background color.NRGBA

	// Workers bounds aggregation concurrency. 0 means GOMAXPROCS.
	Workers int
}

func NewVisual(frame *dataset.Frame, canvas shade.Canvas, opts shade.Options, bg color.NRGBA) *Visual {
	return &Visual{Frame: frame, Canvas: canvas, Opts: opts, Background: bg}
}

// Aggregate counts the frame's points into a fresh grid, restricted to
// one hour when hour is in 0-23. The frame is sharded across workers.
func (v *Visual) Aggregate(hour int) *shade.Grid {
	n := v.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return v.Canvas.CountShards(v.Frame.Shards(n, hour))
}

// Render aggregates and shades onto the visual's plain background.
func (v *Visual) Render(hour int, opts shade.Options) *image.RGBA {
	base := shade.Fill(v.Canvas.Width, v.Canvas.Height, v.Background)
	return v.RenderOnto(base, hour, opts)
}

// RenderOnto shades over a prepared base layer, such as a map tile
// underlay, and returns the base.
func (v *Visual) RenderOnto(base *image.RGBA, hour int, opts shade.Options) *image.RGBA {
	fg := shade.Shade(v.Aggregate(hour), opts)
	return shade.Composite(base, fg)
}

// Document is a served visualization: a stable identity, a mount path,
// a title, and the visual rendered under it.
type Document struct {
	mu sync.Mutex

	ID    string
	Path  string
	Title string

	Description Description

	CreatedAt time.Time
	UpdatedAt time.Time

	visual *Visual
}

func newDocument(path string, v *Visual) *Document {
	now := time.Now()
	return &Document{
		ID:        newID(),
		Path:      path,
		visual:    v,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Visual returns the document's visual. It is fixed at construction.
func (d *Document) Visual() *Visual { return d.visual }

// SetTitle updates the document title atomically.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Title = title
	d.UpdatedAt = time.Now()
}

// SetDescription attaches the explanatory panel content.
func (d *Document) SetDescription(desc Description) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Description = desc
	d.UpdatedAt = time.Now()
}

// Describe returns the description panel content.
func (d *Document) Describe() Description {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Description
}

// Snapshot is a read-only, JSON-safe copy of document state.
type Snapshot struct {
	ID            string         `json:"id"`
	Path          string         `json:"path"`
	Title         string         `json:"title"`
	Rows          int            `json:"rows"`
	Dropped       int            `json:"dropped_rows"`
	HasHours      bool           `json:"has_hours"`
	Bounds        dataset.Bounds `json:"bounds"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	Colormap      string         `json:"colormap"`
	Normalization string         `json:"normalization"`
	Description   string         `json:"description,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the document state.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.visual
	return Snapshot{
		ID:            d.ID,
		Path:          d.Path,
		Title:         d.Title,
		Rows:          v.Frame.Len(),
		Dropped:       v.Frame.Dropped(),
		HasHours:      v.Frame.HasHours(),
		Bounds:        v.Frame.Bounds(),
		Width:         v.Canvas.Width,
		Height:        v.Canvas.Height,
		Colormap:      v.Opts.Colormap.Name(),
		Normalization: string(v.Opts.How),
		Description:   d.Description.Text,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func newID() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
