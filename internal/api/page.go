package api

import (
	"bytes"
	"html/template"
	"net/http"
)

type pageData struct {
	Title         string
	Description   template.HTML
	Summary       string
	HasHours      bool
	Width         int
	Height        int
	SectionHeight int
	X0, X1        float64
}

// handlePage serves the interactive document page: the raster, the
// hour slider with its play button, and the pointer-driven section
// chart, all backed by the PNG endpoints.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	doc := s.rootDoc(w)
	if doc == nil {
		return
	}
	v := doc.Visual()
	desc := doc.Describe()
	data := pageData{
		Title:         doc.Snapshot().Title,
		Description:   desc.HTML,
		Summary:       desc.Text,
		HasHours:      v.Frame.HasHours(),
		Width:         v.Canvas.Width,
		Height:        v.Canvas.Height,
		SectionHeight: sectionHeight,
		X0:            v.Canvas.X0,
		X1:            v.Canvas.X1,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.log.Error("render page", "error", err)
		jsonError(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{if .Summary}}<meta name="description" content="{{.Summary}}">
{{end}}<title>{{.Title}}</title>
<style>
body { margin: 0; background: #1a1a1a; color: #ddd; font-family: sans-serif; }
.wrap { max-width: {{.Width}}px; margin: 2rem auto; padding: 0 1rem; }
h1 { font-size: 1.3rem; font-weight: normal; }
img.raster { display: block; width: 100%; border: 1px solid #333; }
.controls { display: flex; align-items: center; gap: 1rem; margin: 0.75rem 0; }
.controls input[type=range] { flex: 1; }
button { background: #333; color: #ddd; border: 1px solid #555; padding: 0.3rem 0.9rem; cursor: pointer; }
.desc { margin-top: 1.5rem; color: #aaa; font-size: 0.9rem; }
.desc a { color: #8ab; }
</style>
</head>
<body>
<div class="wrap">
<h1>{{.Title}}</h1>
<img id="raster" class="raster" src="/shade.png" width="{{.Width}}" height="{{.Height}}" alt="shaded raster">
{{if .HasHours}}
<div class="controls">
<button id="play" type="button">&#9658; Play</button>
<input id="hour" type="range" min="-1" max="23" step="1" value="-1">
<span id="hour-label">All hours</span>
</div>
{{end}}
<img id="section" class="raster" src="" width="{{.Width}}" height="{{.SectionHeight}}" alt="" hidden>
{{if .Description}}<div class="desc">{{.Description}}</div>{{end}}
<script>
(function () {
  var raster = document.getElementById('raster');
  var section = document.getElementById('section');
  var hourInput = document.getElementById('hour');
  var label = document.getElementById('hour-label');
  var play = document.getElementById('play');
  var x0 = {{.X0}};
  var x1 = {{.X1}};
  var timer = null;

  function hourParam() {
    if (!hourInput || hourInput.value < 0) { return ''; }
    return '&hour=' + hourInput.value;
  }

  function refresh() {
    raster.src = '/shade.png?_=' + Date.now() + hourParam();
    if (label) {
      label.textContent = hourInput.value < 0 ? 'All hours' : 'Hour ' + hourInput.value;
    }
  }

  if (hourInput) {
    hourInput.addEventListener('input', refresh);
  }

  if (play) {
    play.addEventListener('click', function () {
      if (timer) {
        clearInterval(timer);
        timer = null;
        play.innerHTML = '&#9658; Play';
        return;
      }
      play.innerHTML = '&#10074;&#10074; Pause';
      timer = setInterval(function () {
        hourInput.value = (parseInt(hourInput.value, 10) + 1) % 24;
        refresh();
      }, 1000);
    });
  }

  var lastMove = 0;
  raster.addEventListener('mousemove', function (e) {
    var now = Date.now();
    if (now - lastMove < 150) { return; }
    lastMove = now;
    var rect = raster.getBoundingClientRect();
    var fx = (e.clientX - rect.left) / rect.width;
    section.hidden = false;
    section.src = '/section.png?x=' + (x0 + fx * (x1 - x0)) + hourParam();
  });
})();
</script>
</div>
</body>
</html>
`))
