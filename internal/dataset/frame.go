package dataset

import "iter"

// Bounds is the axis-aligned extent of a frame's coordinates.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Frame is a column-restricted, in-memory point table: two coordinate
// columns of equal length plus an optional per-row hour (0-23). It is
// built once by a Loader and never mutated afterwards, so views over it
// need no synchronization.
type Frame struct {
	xs, ys  []float64
	hours   []uint8
	bounds  Bounds
	dropped int
}

// New builds a frame directly from in-memory columns, for callers that
// already hold the data. len(ys), and len(hours) when hours is not
// nil, must match len(xs).
func New(xs, ys []float64, hours []uint8) *Frame {
	return newFrame(xs, ys, hours, 0)
}

func newFrame(xs, ys []float64, hours []uint8, dropped int) *Frame {
	f := &Frame{xs: xs, ys: ys, hours: hours, dropped: dropped}
	for i := range xs {
		x, y := xs[i], ys[i]
		if i == 0 {
			f.bounds = Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y}
			continue
		}
		if x < f.bounds.MinX {
			f.bounds.MinX = x
		}
		if x > f.bounds.MaxX {
			f.bounds.MaxX = x
		}
		if y < f.bounds.MinY {
			f.bounds.MinY = y
		}
		if y > f.bounds.MaxY {
			f.bounds.MaxY = y
		}
	}
	return f
}

// Len returns the number of materialized rows.
func (f *Frame) Len() int { return len(f.xs) }

// Dropped returns how many source rows were discarded during
// materialization (nulls, unparseable fields).
func (f *Frame) Dropped() int { return f.dropped }

// HasHours reports whether an hour column was materialized.
func (f *Frame) HasHours() bool { return f.hours != nil }

// Bounds returns the coordinate extent, computed once at materialization.
// The zero Bounds is returned for an empty frame.
func (f *Frame) Bounds() Bounds { return f.bounds }

// Points yields every point in row order. The view borrows the frame's
// storage; it never copies it.
func (f *Frame) Points() iter.Seq2[float64, float64] {
	return f.rangePoints(0, len(f.xs), -1)
}

// PointsAtHour yields the points whose hour equals h. A negative h
// yields every point.
func (f *Frame) PointsAtHour(h int) iter.Seq2[float64, float64] {
	return f.rangePoints(0, len(f.xs), h)
}

// Shards splits the frame into up to n contiguous point feeds covering
// every row exactly once, each independently iterable. At least one
// feed is returned even for an empty frame.
func (f *Frame) Shards(n, hour int) []iter.Seq2[float64, float64] {
	if n < 1 {
		n = 1
	}
	total := len(f.xs)
	per := (total + n - 1) / n
	var shards []iter.Seq2[float64, float64]
	for start := 0; start < total; start += per {
		end := min(start+per, total)
		shards = append(shards, f.rangePoints(start, end, hour))
	}
	if len(shards) == 0 {
		shards = append(shards, f.rangePoints(0, 0, hour))
	}
	return shards
}

func (f *Frame) rangePoints(start, end, hour int) iter.Seq2[float64, float64] {
	return func(yield func(float64, float64) bool) {
		if hour >= 0 && f.hours != nil {
			h := uint8(hour)
			for i := start; i < end; i++ {
				if f.hours[i] != h {
					continue
				}
				if !yield(f.xs[i], f.ys[i]) {
					return
				}
			}
			return
		}
		for i := start; i < end; i++ {
			if !yield(f.xs[i], f.ys[i]) {
				return
			}
		}
	}
}
