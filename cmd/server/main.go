package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shadeserve/internal/api"
	"shadeserve/internal/config"
	"shadeserve/internal/dataset"
	"shadeserve/internal/document"
	"shadeserve/internal/shade"
	"shadeserve/internal/tiles"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// The dataset loads before anything is served; a broken data path
	// must kill the process, not produce an empty document.
	frame, err := loadFrame(context.Background(), log, cfg)
	if err != nil {
		log.Error("load dataset", "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}

	visual, err := buildVisual(cfg, frame)
	if err != nil {
		log.Error("configure visual", "error", err)
		os.Exit(1)
	}

	backend, err := document.For(cfg.RenderBackend)
	if err != nil {
		log.Error("configure render backend", "error", err)
		os.Exit(1)
	}
	doc := backend.ServerDoc(visual)
	doc.SetTitle(cfg.DocTitle)

	if desc, err := document.DescribeData(cfg.DataPath, cfg.DescriptionFile); err != nil {
		log.Warn("load description", "error", err)
	} else if desc.Text != "" {
		doc.SetDescription(desc)
	}

	var tileClient *tiles.Client
	if cfg.TileURL != "" {
		tileClient = tiles.NewClient(cfg.TileURL, cfg.TileTimeout)
	}

	srv := api.NewServer(backend.Registry(), tileClient, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("serving document", "port", cfg.Port, "title", cfg.DocTitle, "doc_id", doc.ID)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func loadFrame(ctx context.Context, log *slog.Logger, cfg config.Config) (*dataset.Frame, error) {
	loader, err := dataset.ForPath(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	if pl, ok := loader.(*dataset.ParquetLoader); ok {
		pl.Workers = cfg.LoadWorkers
	}

	start := time.Now()
	frame, err := loader.Load(ctx, cfg.DataPath, dataset.Columns{
		X:    cfg.XColumn,
		Y:    cfg.YColumn,
		Hour: cfg.HourColumn,
		Time: cfg.TimeColumn,
	})
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded",
		"rows", frame.Len(),
		"dropped", frame.Dropped(),
		"hours", frame.HasHours(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return frame, nil
}

func buildVisual(cfg config.Config, frame *dataset.Frame) (*document.Visual, error) {
	cmap, err := shade.ByName(cfg.Colormap)
	if err != nil {
		return nil, err
	}
	how, err := shade.ParseHow(cfg.Normalization)
	if err != nil {
		return nil, err
	}
	bg, err := shade.ParseColor(cfg.Background)
	if err != nil {
		return nil, err
	}

	// The canvas spans the full dataset so hour-filtered frames render
	// on a stable extent.
	b := frame.Bounds()
	canvas, err := shade.NewCanvas(cfg.CanvasWidth, cfg.CanvasHeight, b.MinX, b.MaxX, b.MinY, b.MaxY)
	if err != nil {
		return nil, err
	}

	opts := shade.Options{Colormap: cmap, How: how, MinAlpha: uint8(cfg.MinAlpha)}
	return document.NewVisual(frame, canvas, opts, bg), nil
}
