package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Dataset
	DataPath   string
	XColumn    string
	YColumn    string
	HourColumn string
	TimeColumn string

	// Canvas and shading
	CanvasWidth   int
	CanvasHeight  int
	Background    string
	Colormap      string
	Normalization string
	MinAlpha      int

	// Document
	DocTitle        string
	RenderBackend   string
	DescriptionFile string

	// Materialization
	LoadWorkers int

	// Optional web-mercator tile underlay
	TileURL     string
	TileTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8707"),

		DataPath:   envOr("DATA_PATH", "../data/nyc_taxi_hours.parq/"),
		XColumn:    envOr("X_COLUMN", "dropoff_x"),
		YColumn:    envOr("Y_COLUMN", "dropoff_y"),
		HourColumn: envOr("HOUR_COLUMN", "hour"),
		TimeColumn: envOr("TIME_COLUMN", "tpep_pickup_datetime"),

		CanvasWidth:   envInt("CANVAS_WIDTH", 800),
		CanvasHeight:  envInt("CANVAS_HEIGHT", 600),
		Background:    envOr("BACKGROUND", "black"),
		Colormap:      envOr("COLORMAP", "fire"),
		Normalization: envOr("NORMALIZATION", "eq-hist"),
		MinAlpha:      envInt("MIN_ALPHA", 40),

		DocTitle:        envOr("DOC_TITLE", "HoloViews Bokeh App"),
		RenderBackend:   envOr("RENDER_BACKEND", "html"),
		DescriptionFile: os.Getenv("DESCRIPTION_FILE"),

		LoadWorkers: envInt("LOAD_WORKERS", 0), // 0 = GOMAXPROCS

		TileURL:     os.Getenv("TILE_URL"),
		TileTimeout: envDuration("TILE_TIMEOUT", 10*time.Second),
	}

	if cfg.CanvasWidth <= 0 {
		cfg.CanvasWidth = 800
	}
	if cfg.CanvasHeight <= 0 {
		cfg.CanvasHeight = 600
	}
	if cfg.MinAlpha < 0 {
		cfg.MinAlpha = 0
	}
	if cfg.MinAlpha > 255 {
		cfg.MinAlpha = 255
	}
	if cfg.LoadWorkers < 0 {
		cfg.LoadWorkers = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("DATA_PATH is required")
	}
	if c.XColumn == "" || c.YColumn == "" {
		return fmt.Errorf("X_COLUMN and Y_COLUMN are required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
