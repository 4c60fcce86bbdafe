// Package shade rasterizes large point sets: it bins points into a
// fixed-size count grid, normalizes the counts, and maps them through a
// colormap into an image. The pipeline follows the aggregate-then-shade
// split of the datashader model.
package shade

import (
	"fmt"
	"iter"
	"sync"
)

// Canvas fixes the raster geometry: pixel dimensions plus the data
// extent mapped onto them. X grows rightwards, Y grows upwards; row 0
// of a Grid is the top pixel row.
type Canvas struct {
	Width  int
	Height int
	X0, X1 float64
	Y0, Y1 float64
}

// NewCanvas validates the geometry. Degenerate extents (all points
// sharing one coordinate, or an empty dataset) are padded by half a
// unit each way so projection stays well defined.
func NewCanvas(width, height int, minX, maxX, minY, maxY float64) (Canvas, error) {
	if width <= 0 || height <= 0 {
		return Canvas{}, fmt.Errorf("canvas %dx%d: dimensions must be positive", width, height)
	}
	if !(maxX >= minX) || !(maxY >= minY) {
		return Canvas{}, fmt.Errorf("canvas bounds [%g, %g]x[%g, %g] are not ordered", minX, maxX, minY, maxY)
	}
	if minX == maxX {
		minX -= 0.5
		maxX += 0.5
	}
	if minY == maxY {
		minY -= 0.5
		maxY += 0.5
	}
	return Canvas{Width: width, Height: height, X0: minX, X1: maxX, Y0: minY, Y1: maxY}, nil
}

// project maps a data point to grid coordinates. Points outside the
// extent report ok=false; points exactly on the max edge land in the
// last pixel, so the extent is closed on all sides.
func (c Canvas) project(x, y float64) (col, row int, ok bool) {
	if !(x >= c.X0) || !(x <= c.X1) || !(y >= c.Y0) || !(y <= c.Y1) {
		return 0, 0, false
	}
	col = int((x - c.X0) / (c.X1 - c.X0) * float64(c.Width))
	if col >= c.Width {
		col = c.Width - 1
	}
	py := int((y - c.Y0) / (c.Y1 - c.Y0) * float64(c.Height))
	if py >= c.Height {
		py = c.Height - 1
	}
	return col, c.Height - 1 - py, true
}

// Grid is a per-pixel point count over a canvas, rows top to bottom.
type Grid struct {
	Width  int
	Height int
	Counts []int32
}

// NewGrid returns a zeroed count grid.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Counts: make([]int32, width*height)}
}

// At returns the count at a pixel.
func (g *Grid) At(col, row int) int32 { return g.Counts[row*g.Width+col] }

// Max returns the largest count in the grid.
func (g *Grid) Max() int32 {
	var m int32
	for _, c := range g.Counts {
		if c > m {
			m = c
		}
	}
	return m
}

// add accumulates another grid of the same dimensions.
func (g *Grid) add(o *Grid) {
	for i, c := range o.Counts {
		g.Counts[i] += c
	}
}

// Count bins every point of a feed into a fresh grid. Points outside
// the canvas extent are ignored.
func (c Canvas) Count(points iter.Seq2[float64, float64]) *Grid {
	g := NewGrid(c.Width, c.Height)
	for x, y := range points {
		if col, row, ok := c.project(x, y); ok {
			g.Counts[row*c.Width+col]++
		}
	}
	return g
}

// CountShards bins several point feeds concurrently and merges the
// partial grids. The result is identical to counting the concatenated
// feeds with Count.
func (c Canvas) CountShards(shards []iter.Seq2[float64, float64]) *Grid {
	if len(shards) == 1 {
		return c.Count(shards[0])
	}
	parts := make([]*Grid, len(shards))
	var wg sync.WaitGroup
	for i, shard := range shards {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts[i] = c.Count(shard)
		}()
	}
	wg.Wait()

	g := NewGrid(c.Width, c.Height)
	for _, p := range parts {
		g.add(p)
	}
	return g
}

// Section extracts the vertical cross-section of a grid at data
// coordinate x: per-row counts with the y coordinate of each row
// center, ordered bottom to top.
func (c Canvas) Section(g *Grid, x float64) (ys, counts []float64, err error) {
	col, _, ok := c.project(x, c.Y0)
	if !ok {
		return nil, nil, fmt.Errorf("x %g outside canvas extent [%g, %g]", x, c.X0, c.X1)
	}
	ys = make([]float64, c.Height)
	counts = make([]float64, c.Height)
	rowHeight := (c.Y1 - c.Y0) / float64(c.Height)
	for i := 0; i < c.Height; i++ {
		row := c.Height - 1 - i
		ys[i] = c.Y0 + (float64(i)+0.5)*rowHeight
		counts[i] = float64(g.At(col, row))
	}
	return ys, counts, nil
}
