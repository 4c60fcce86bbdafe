// Package tiles fetches web-mercator map tiles over HTTP and assembles
// them into a canvas-sized underlay for the shaded raster. Coordinates
// are assumed to be web-mercator meters.
package tiles

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"shadeserve/internal/shade"
)

const (
	tileSize = 256
	// originShift is half the web-mercator world span in meters.
	originShift = 20037508.342789244
	maxZoom     = 19
	// maxTiles caps how many tiles one underlay may fetch; the zoom
	// level backs off until the extent fits.
	maxTiles      = 32
	fetchParallel = 8
)

// Client fetches tiles from an XYZ tile service. The URL template
// carries {Z}, {X} and {Y} placeholders, upper or lower case.
type Client struct {
	urlTemplate string
	httpClient  *http.Client
}

func NewClient(urlTemplate string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		urlTemplate: urlTemplate,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) tileURL(z, x, y int) string {
	r := strings.NewReplacer(
		"{Z}", strconv.Itoa(z), "{z}", strconv.Itoa(z),
		"{X}", strconv.Itoa(x), "{x}", strconv.Itoa(x),
		"{Y}", strconv.Itoa(y), "{y}", strconv.Itoa(y),
	)
	return r.Replace(c.urlTemplate)
}

// placement is one tile with its destination rectangle on the canvas.
type placement struct {
	z, x, y int
	rect    image.Rectangle
	img     image.Image
}

// Underlay fetches the tiles covering the canvas extent and scales
// them onto a background-filled image. Any tile failure fails the
// whole underlay; callers fall back to a plain background.
func (c *Client) Underlay(ctx context.Context, canvas shade.Canvas, bg color.NRGBA) (*image.RGBA, error) {
	base := shade.Fill(canvas.Width, canvas.Height, bg)

	z := zoomFor(canvas)
	placements := cover(canvas, z)
	if len(placements) == 0 {
		return base, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallel)
	for i := range placements {
		p := &placements[i]
		g.Go(func() error {
			img, err := c.fetch(ctx, p.z, p.x, p.y)
			if err != nil {
				return err
			}
			p.img = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range placements {
		xdraw.BiLinear.Scale(base, p.rect, p.img, p.img.Bounds(), xdraw.Src, nil)
	}
	return base, nil
}

func (c *Client) fetch(ctx context.Context, z, x, y int) (image.Image, error) {
	url := c.tileURL(z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tile %d/%d/%d: %w", z, x, y, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tile %d/%d/%d: status %d", z, x, y, resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tile %d/%d/%d: %w", z, x, y, err)
	}
	return img, nil
}

// zoomFor picks the smallest zoom whose tile resolution meets the
// canvas resolution, then backs off until the tile count fits the
// budget.
func zoomFor(canvas shade.Canvas) int {
	world := 2 * originShift
	mpp := (canvas.X1 - canvas.X0) / float64(canvas.Width)
	z := 0
	for z < maxZoom && world/(tileSize*math.Exp2(float64(z))) > mpp {
		z++
	}
	for z > 0 && tileCount(canvas, z) > maxTiles {
		z--
	}
	return z
}

func tileCount(canvas shade.Canvas, z int) int {
	x0, x1, y0, y1, ok := tileRange(canvas, z)
	if !ok {
		return 0
	}
	return (x1 - x0 + 1) * (y1 - y0 + 1)
}

// tileRange returns the inclusive XYZ tile index range covering the
// canvas extent at zoom z, clamped to the world. ok is false when the
// extent lies entirely outside the mercator world.
func tileRange(canvas shade.Canvas, z int) (x0, x1, y0, y1 int, ok bool) {
	n := int(math.Exp2(float64(z)))
	span := 2 * originShift / float64(n)
	x0 = int(math.Floor((canvas.X0 + originShift) / span))
	x1 = int(math.Floor((canvas.X1 + originShift) / span))
	// Tile y counts from the top of the world.
	y0 = int(math.Floor((originShift - canvas.Y1) / span))
	y1 = int(math.Floor((originShift - canvas.Y0) / span))
	if x1 < 0 || x0 >= n || y1 < 0 || y0 >= n {
		return 0, 0, 0, 0, false
	}
	x0 = max(x0, 0)
	y0 = max(y0, 0)
	x1 = min(x1, n-1)
	y1 = min(y1, n-1)
	return x0, x1, y0, y1, true
}

func cover(canvas shade.Canvas, z int) []placement {
	x0, x1, y0, y1, ok := tileRange(canvas, z)
	if !ok {
		return nil
	}
	span := 2 * originShift / math.Exp2(float64(z))
	fx := float64(canvas.Width) / (canvas.X1 - canvas.X0)
	fy := float64(canvas.Height) / (canvas.Y1 - canvas.Y0)

	var out []placement
	for ty := y0; ty <= y1; ty++ {
		for tx := x0; tx <= x1; tx++ {
			minX := float64(tx)*span - originShift
			maxY := originShift - float64(ty)*span
			rect := image.Rect(
				int(math.Round((minX-canvas.X0)*fx)),
				int(math.Round((canvas.Y1-maxY)*fy)),
				int(math.Round((minX+span-canvas.X0)*fx)),
				int(math.Round((canvas.Y1-maxY+span)*fy)),
			)
			out = append(out, placement{z: z, x: tx, y: ty, rect: rect})
		}
	}
	return out
}
