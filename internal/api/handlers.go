package api

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strconv"

	"shadeserve/internal/document"
	"shadeserve/internal/shade"
)

const sectionHeight = 200

// rootDoc resolves the root server document, answering 503 itself when
// nothing is mounted.
func (s *Server) rootDoc(w http.ResponseWriter) *document.Document {
	doc := s.registry.Root()
	if doc == nil {
		jsonError(w, "no document mounted", http.StatusServiceUnavailable)
	}
	return doc
}

// parseHour reads the hour query parameter: absent or -1 means all
// hours, otherwise 0-23.
func parseHour(q string) (int, error) {
	if q == "" || q == "-1" {
		return -1, nil
	}
	h, err := strconv.Atoi(q)
	if err != nil || h < 0 || h > 23 {
		return 0, strconv.ErrRange
	}
	return h, nil
}

// requestOptions applies per-request cmap and how overrides on top of
// the visual's defaults.
func requestOptions(v *document.Visual, r *http.Request) (shade.Options, error) {
	opts := v.Opts
	if cm := r.URL.Query().Get("cmap"); cm != "" {
		m, err := shade.ByName(cm)
		if err != nil {
			return opts, err
		}
		opts.Colormap = m
	}
	if how := r.URL.Query().Get("how"); how != "" {
		h, err := shade.ParseHow(how)
		if err != nil {
			return opts, err
		}
		opts.How = h
	}
	return opts, nil
}

func (s *Server) hourFor(w http.ResponseWriter, r *http.Request, v *document.Visual) (int, bool) {
	hour, err := parseHour(r.URL.Query().Get("hour"))
	if err != nil {
		jsonError(w, "hour must be -1 or 0-23", http.StatusBadRequest)
		return 0, false
	}
	if hour >= 0 && !v.Frame.HasHours() {
		jsonError(w, "dataset has no hour column", http.StatusBadRequest)
		return 0, false
	}
	return hour, true
}

// handleShade renders the raster for the requested hour and shading
// overrides. Each response is aggregated and shaded fresh.
func (s *Server) handleShade(w http.ResponseWriter, r *http.Request) {
	doc := s.rootDoc(w)
	if doc == nil {
		return
	}
	v := doc.Visual()
	hour, ok := s.hourFor(w, r, v)
	if !ok {
		return
	}
	opts, err := requestOptions(v, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	base := shade.Fill(v.Canvas.Width, v.Canvas.Height, v.Background)
	if s.tiles != nil {
		under, err := s.tiles.Underlay(r.Context(), v.Canvas, v.Background)
		if err != nil {
			s.log.Warn("tile underlay failed, using plain background", "error", err)
		} else {
			base = under
		}
	}
	img := v.RenderOnto(base, hour, opts)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.log.Error("encode raster", "error", err)
	}
}

// handleSection renders the cross-section chart at the x given in data
// coordinates.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	doc := s.rootDoc(w)
	if doc == nil {
		return
	}
	v := doc.Visual()
	hour, ok := s.hourFor(w, r, v)
	if !ok {
		return
	}
	xq := r.URL.Query().Get("x")
	if xq == "" {
		jsonError(w, "x query parameter is required", http.StatusBadRequest)
		return
	}
	x, err := strconv.ParseFloat(xq, 64)
	if err != nil {
		jsonError(w, "x must be a number", http.StatusBadRequest)
		return
	}
	if x < v.Canvas.X0 || x > v.Canvas.X1 {
		jsonError(w, "x outside the canvas extent", http.StatusBadRequest)
		return
	}

	data, err := v.SectionChart(hour, x, v.Canvas.Width, sectionHeight)
	if err != nil {
		s.log.Error("render section", "error", err)
		jsonError(w, "failed to render section", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// handleDocument serves the document snapshot as JSON.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.rootDoc(w)
	if doc == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
