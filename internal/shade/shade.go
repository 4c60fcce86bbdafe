package shade

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
)

// How selects the count normalization applied before colormapping.
type How string

const (
	// EqHist equalizes the count histogram so every occupied intensity
	// band covers a similar pixel population. It is the default; it
	// keeps sparse tails visible next to dense cores.
	EqHist How = "eq-hist"
	Linear How = "linear"
	Log    How = "log"
	Cbrt   How = "cbrt"
)

// ParseHow resolves a normalization name. Both eq-hist and eq_hist
// spellings are accepted.
func ParseHow(s string) (How, error) {
	switch strings.ToLower(s) {
	case "eq-hist", "eq_hist", "eqhist":
		return EqHist, nil
	case "linear":
		return Linear, nil
	case "log":
		return Log, nil
	case "cbrt":
		return Cbrt, nil
	default:
		return "", fmt.Errorf("unknown normalization %q", s)
	}
}

// Options controls how a count grid becomes pixels. The zero How means
// EqHist. MinAlpha is the opacity floor for occupied pixels; alpha
// ramps linearly from there to fully opaque at intensity 1.
type Options struct {
	Colormap Colormap
	How      How
	MinAlpha uint8
}

// Shade maps a count grid to an image. Pixels with zero count stay
// fully transparent so lower layers show through after compositing.
func Shade(g *Grid, opts Options) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	max := g.Max()
	if max == 0 {
		return img
	}
	scale := scaler(g, max, opts.How)
	floor := float64(opts.MinAlpha)
	for idx, c := range g.Counts {
		if c == 0 {
			continue
		}
		t := scale(c)
		rgb := opts.Colormap.At(t)
		i := idx * 4
		img.Pix[i] = rgb.R
		img.Pix[i+1] = rgb.G
		img.Pix[i+2] = rgb.B
		img.Pix[i+3] = uint8(floor + t*(255-floor) + 0.5)
	}
	return img
}

func scaler(g *Grid, max int32, how How) func(int32) float64 {
	switch how {
	case Linear:
		m := float64(max)
		return func(c int32) float64 { return float64(c) / m }
	case Log:
		m := math.Log1p(float64(max))
		return func(c int32) float64 { return math.Log1p(float64(c)) / m }
	case Cbrt:
		m := math.Cbrt(float64(max))
		return func(c int32) float64 { return math.Cbrt(float64(c)) / m }
	default:
		return eqHistScale(g.Counts, max)
	}
}

// maxHistBins caps the equalization histogram; counts are mapped onto
// bins proportionally when the grid maximum exceeds it.
const maxHistBins = 65536

// eqHistScale builds the histogram-equalization transfer function for
// the nonzero counts: per-bin population, cumulative sum, then the
// normalized cumulative value for each count's bin. When every
// occupied pixel holds the lowest bin the span is empty and everything
// maps to full intensity.
func eqHistScale(counts []int32, max int32) func(int32) float64 {
	nbins := int(max)
	if nbins > maxHistBins {
		nbins = maxHistBins
	}
	hist := make([]int64, nbins)
	for _, c := range counts {
		if c == 0 {
			continue
		}
		hist[binFor(c, max, nbins)]++
	}
	cdf := make([]float64, nbins)
	var cum int64
	for i, h := range hist {
		cum += h
		cdf[i] = float64(cum)
	}
	base := cdf[0]
	span := cdf[nbins-1] - base
	if span == 0 {
		return func(int32) float64 { return 1 }
	}
	return func(c int32) float64 { return (cdf[binFor(c, max, nbins)] - base) / span }
}

func binFor(c, max int32, nbins int) int {
	return int((int64(c) - 1) * int64(nbins) / int64(max))
}

// Fill returns an opaque image of one color.
func Fill(width, height int, c color.NRGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// Composite draws each layer over base in order and returns base.
func Composite(base *image.RGBA, layers ...image.Image) *image.RGBA {
	for _, l := range layers {
		draw.Draw(base, base.Bounds(), l, image.Point{}, draw.Over)
	}
	return base
}
