package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// timeLayout matches the timestamp format of the NYC taxi exports,
// e.g. "2015-01-15 19:05:39".
const timeLayout = "2006-01-02 15:04:05"

// CSVLoader reads a single CSV file, optionally gzip-compressed. When
// the hour column is absent it derives hours from the pickup timestamp
// column instead. Rows that fail to parse are dropped and counted.
type CSVLoader struct{}

func (l *CSVLoader) Load(ctx context.Context, path string, cols Columns) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer gz.Close()
		src = gz
	}

	r := csv.NewReader(src)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header %s: %w", path, err)
	}
	xi := columnIndex(header, cols.X)
	if xi < 0 {
		return nil, fmt.Errorf("column %q not found in %s", cols.X, path)
	}
	yi := columnIndex(header, cols.Y)
	if yi < 0 {
		return nil, fmt.Errorf("column %q not found in %s", cols.Y, path)
	}
	hi := columnIndex(header, cols.Hour)
	ti := columnIndex(header, cols.Time)
	withHours := hi >= 0 || ti >= 0

	var (
		xs, ys  []float64
		hours   []uint8
		dropped int
	)
	if withHours {
		hours = []uint8{}
	}
	for row := 0; ; row++ {
		if row%65536 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		if xi >= len(rec) || yi >= len(rec) {
			dropped++
			continue
		}
		x, err := strconv.ParseFloat(rec[xi], 64)
		if err != nil {
			dropped++
			continue
		}
		y, err := strconv.ParseFloat(rec[yi], 64)
		if err != nil {
			dropped++
			continue
		}
		var h uint8
		if withHours {
			h, err = rowHour(rec, hi, ti)
			if err != nil {
				dropped++
				continue
			}
		}
		xs = append(xs, x)
		ys = append(ys, y)
		if withHours {
			hours = append(hours, h)
		}
	}
	return newFrame(xs, ys, hours, dropped), nil
}

func rowHour(rec []string, hi, ti int) (uint8, error) {
	if hi >= 0 {
		if hi >= len(rec) {
			return 0, fmt.Errorf("short row")
		}
		h, err := strconv.Atoi(strings.TrimSpace(rec[hi]))
		if err != nil || h < 0 || h > 23 {
			return 0, fmt.Errorf("bad hour %q", rec[hi])
		}
		return uint8(h), nil
	}
	if ti >= len(rec) {
		return 0, fmt.Errorf("short row")
	}
	t, err := time.Parse(timeLayout, strings.TrimSpace(rec[ti]))
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q: %w", rec[ti], err)
	}
	return uint8(t.Hour()), nil
}

func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}
