package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"golang.org/x/sync/errgroup"
)

// ParquetLoader reads a partitioned parquet directory (or a single
// parquet file) with the selected columns projected at read time.
// Partitions load concurrently; chunks are stitched in sorted file
// order so the frame's row order is deterministic.
type ParquetLoader struct {
	// Workers bounds partition concurrency. 0 means GOMAXPROCS.
	Workers int
}

const readBatchSize = 64 << 10

func (l *ParquetLoader) Load(ctx context.Context, path string, cols Columns) (*Frame, error) {
	parts, err := partFiles(path)
	if err != nil {
		return nil, err
	}

	workers := l.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunks := make([]partChunk, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range parts {
		g.Go(func() error {
			c, err := readPart(ctx, p, cols)
			if err != nil {
				return err
			}
			chunks[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total, dropped int
	hasHours := len(chunks) > 0
	for _, c := range chunks {
		total += len(c.xs)
		dropped += c.dropped
		if c.hours == nil {
			hasHours = false
		}
	}

	xs := make([]float64, 0, total)
	ys := make([]float64, 0, total)
	var hours []uint8
	if hasHours {
		hours = make([]uint8, 0, total)
	}
	for _, c := range chunks {
		xs = append(xs, c.xs...)
		ys = append(ys, c.ys...)
		if hasHours {
			hours = append(hours, c.hours...)
		}
	}
	return newFrame(xs, ys, hours, dropped), nil
}

// partFiles resolves a dataset path to its parquet part files. Dask
// sidecars (_metadata, _common_metadata) carry no parquet extension and
// fall out of the filter.
func partFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}
	var parts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".parquet") || strings.HasSuffix(name, ".parq") {
			parts = append(parts, filepath.Join(path, e.Name()))
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no parquet part files in %s", path)
	}
	return parts, nil
}

type partChunk struct {
	xs, ys  []float64
	hours   []uint8
	dropped int
}

func readPart(ctx context.Context, path string, cols Columns) (partChunk, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return partChunk{}, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: readBatchSize,
	}, memory.DefaultAllocator)
	if err != nil {
		return partChunk{}, fmt.Errorf("arrow reader %s: %w", path, err)
	}

	schema, err := fr.Schema()
	if err != nil {
		return partChunk{}, fmt.Errorf("parquet schema %s: %w", path, err)
	}
	xi, err := fieldIndex(schema, cols.X, path)
	if err != nil {
		return partChunk{}, err
	}
	yi, err := fieldIndex(schema, cols.Y, path)
	if err != nil {
		return partChunk{}, err
	}
	project := []int{xi, yi}
	if cols.Hour != "" {
		if hi, err := fieldIndex(schema, cols.Hour, path); err == nil {
			project = append(project, hi)
		}
	}

	rr, err := fr.GetRecordReader(ctx, project, nil)
	if err != nil {
		return partChunk{}, fmt.Errorf("read parquet %s: %w", path, err)
	}
	defer rr.Release()

	var c partChunk
	withHours := len(project) == 3
	for rr.Next() {
		rec := rr.Record()
		xcol, err := recColumn(rec, cols.X, path)
		if err != nil {
			return partChunk{}, err
		}
		ycol, err := recColumn(rec, cols.Y, path)
		if err != nil {
			return partChunk{}, err
		}
		xval, err := floatGetter(xcol, cols.X, path)
		if err != nil {
			return partChunk{}, err
		}
		yval, err := floatGetter(ycol, cols.Y, path)
		if err != nil {
			return partChunk{}, err
		}

		var hcol arrow.Array
		var hval func(int) uint8
		if withHours {
			hcol, err = recColumn(rec, cols.Hour, path)
			if err != nil {
				return partChunk{}, err
			}
			hval, err = hourGetter(hcol, cols.Hour, path)
			if err != nil {
				return partChunk{}, err
			}
			if c.hours == nil {
				c.hours = make([]uint8, 0, rec.NumRows())
			}
		}

		n := int(rec.NumRows())
		for i := 0; i < n; i++ {
			if xcol.IsNull(i) || ycol.IsNull(i) || (hcol != nil && hcol.IsNull(i)) {
				c.dropped++
				continue
			}
			c.xs = append(c.xs, xval(i))
			c.ys = append(c.ys, yval(i))
			if withHours {
				c.hours = append(c.hours, hval(i))
			}
		}
	}
	if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return partChunk{}, fmt.Errorf("read parquet %s: %w", path, err)
	}
	if withHours && c.hours == nil {
		c.hours = []uint8{}
	}
	return c, nil
}

func fieldIndex(schema *arrow.Schema, name, path string) (int, error) {
	idx := schema.FieldIndices(name)
	if len(idx) == 0 {
		return 0, fmt.Errorf("column %q not found in %s", name, path)
	}
	return idx[0], nil
}

func recColumn(rec arrow.Record, name, path string) (arrow.Array, error) {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, fmt.Errorf("column %q not found in %s", name, path)
	}
	return rec.Column(idx[0]), nil
}

func floatGetter(col arrow.Array, name, path string) (func(int) float64, error) {
	switch arr := col.(type) {
	case *array.Float64:
		return arr.Value, nil
	case *array.Float32:
		return func(i int) float64 { return float64(arr.Value(i)) }, nil
	default:
		return nil, fmt.Errorf("column %q in %s: unsupported type %s (want floating)", name, path, col.DataType())
	}
}

func hourGetter(col arrow.Array, name, path string) (func(int) uint8, error) {
	switch arr := col.(type) {
	case *array.Int64:
		return func(i int) uint8 { return uint8(arr.Value(i)) }, nil
	case *array.Int32:
		return func(i int) uint8 { return uint8(arr.Value(i)) }, nil
	case *array.Int16:
		return func(i int) uint8 { return uint8(arr.Value(i)) }, nil
	case *array.Int8:
		return func(i int) uint8 { return uint8(arr.Value(i)) }, nil
	case *array.Uint64:
		return func(i int) uint8 { return uint8(arr.Value(i)) }, nil
	case *array.Uint32:
		return func(i int) uint8 { return uint8(arr.Value(i)) }, nil
	case *array.Uint16:
		return func(i int) uint8 { return uint8(arr.Value(i)) }, nil
	case *array.Uint8:
		return arr.Value, nil
	default:
		return nil, fmt.Errorf("column %q in %s: unsupported type %s (want integer)", name, path, col.DataType())
	}
}
