package shade

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Colormap maps a normalized intensity in [0, 1] onto a color by
// piecewise-linear interpolation between fixed stops.
type Colormap struct {
	name  string
	stops []stop
}

type stop struct {
	t float64
	c color.NRGBA
}

func (m Colormap) Name() string { return m.name }

// At interpolates the color for t, clamping t to [0, 1].
func (m Colormap) At(t float64) color.NRGBA {
	if t <= m.stops[0].t {
		return m.stops[0].c
	}
	last := m.stops[len(m.stops)-1]
	if t >= last.t {
		return last.c
	}
	for i := 1; i < len(m.stops); i++ {
		if t > m.stops[i].t {
			continue
		}
		lo, hi := m.stops[i-1], m.stops[i]
		f := (t - lo.t) / (hi.t - lo.t)
		return color.NRGBA{
			R: lerp8(lo.c.R, hi.c.R, f),
			G: lerp8(lo.c.G, hi.c.G, f),
			B: lerp8(lo.c.B, hi.c.B, f),
			A: 255,
		}
	}
	return last.c
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

// Fire is the default heat colormap: black through red and orange to
// white, matching the colorcet fire palette's shape.
var Fire = Colormap{name: "fire", stops: []stop{
	{0.00, color.NRGBA{0, 0, 0, 255}},
	{0.15, color.NRGBA{60, 9, 4, 255}},
	{0.35, color.NRGBA{150, 27, 7, 255}},
	{0.50, color.NRGBA{223, 69, 8, 255}},
	{0.65, color.NRGBA{249, 131, 16, 255}},
	{0.80, color.NRGBA{253, 199, 49, 255}},
	{0.92, color.NRGBA{254, 244, 142, 255}},
	{1.00, color.NRGBA{255, 255, 255, 255}},
}}

var Gray = Colormap{name: "gray", stops: []stop{
	{0, color.NRGBA{0, 0, 0, 255}},
	{1, color.NRGBA{255, 255, 255, 255}},
}}

var Blues = Colormap{name: "blues", stops: []stop{
	{0, color.NRGBA{173, 216, 230, 255}},
	{1, color.NRGBA{0, 0, 139, 255}},
}}

var Viridis = Colormap{name: "viridis", stops: []stop{
	{0.00, color.NRGBA{68, 1, 84, 255}},
	{0.25, color.NRGBA{59, 82, 139, 255}},
	{0.50, color.NRGBA{33, 145, 140, 255}},
	{0.75, color.NRGBA{94, 201, 98, 255}},
	{1.00, color.NRGBA{253, 231, 37, 255}},
}}

// ByName resolves a colormap by its lowercase name.
func ByName(name string) (Colormap, error) {
	switch strings.ToLower(name) {
	case "fire":
		return Fire, nil
	case "gray", "grey":
		return Gray, nil
	case "blues":
		return Blues, nil
	case "viridis":
		return Viridis, nil
	default:
		return Colormap{}, fmt.Errorf("unknown colormap %q", name)
	}
}

var namedColors = map[string]color.NRGBA{
	"black":     {0, 0, 0, 255},
	"white":     {255, 255, 255, 255},
	"gray":      {128, 128, 128, 255},
	"grey":      {128, 128, 128, 255},
	"red":       {255, 0, 0, 255},
	"green":     {0, 128, 0, 255},
	"blue":      {0, 0, 255, 255},
	"lightblue": {173, 216, 230, 255},
	"darkblue":  {0, 0, 139, 255},
}

// ParseColor accepts a small set of CSS color names plus #rgb and
// #rrggbb hex forms.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
