package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Columns selects which source columns feed the frame. X and Y are
// required coordinate columns. Hour names an integer hour column read
// as-is; Time names a timestamp column the hour is derived from when
// no Hour column exists in the source. Either may be empty.
type Columns struct {
	X    string
	Y    string
	Hour string
	Time string
}

// Loader materializes a dataset path into a Frame. Load blocks until
// every partition has landed in memory.
type Loader interface {
	Load(ctx context.Context, path string, cols Columns) (*Frame, error)
}

// ForPath returns the loader for a dataset path: a directory or a
// .parquet/.parq file selects the parquet loader, .csv and .csv.gz the
// CSV loader. The path must exist.
func ForPath(path string) (Loader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return &ParquetLoader{}, nil
	}
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".parquet"), strings.HasSuffix(name, ".parq"):
		return &ParquetLoader{}, nil
	case strings.HasSuffix(name, ".csv"), strings.HasSuffix(name, ".csv.gz"):
		return &CSVLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(name))
	}
}
