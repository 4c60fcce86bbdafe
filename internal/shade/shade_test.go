package shade

import (
	"image/color"
	"testing"
)

var black = color.NRGBA{0, 0, 0, 255}

// An empty dataset must still produce a full-size canvas where every
// pixel is the background color.
func TestEmptyDatasetRendersBackground(t *testing.T) {
	c, err := NewCanvas(800, 600, 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	g := c.Count(feed(nil))
	fg := Shade(g, Options{Colormap: Fire})
	out := Composite(Fill(800, 600, black), fg)

	b := out.Bounds()
	if b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("image size = %dx%d, want 800x600", b.Dx(), b.Dy())
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0 || out.Pix[i+1] != 0 || out.Pix[i+2] != 0 || out.Pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque black", i/4, out.Pix[i:i+4])
		}
	}
}

// Identical coordinates all land in one bin, so the render differs
// from the background in exactly one pixel.
func TestIdenticalPointsShadeOnePixel(t *testing.T) {
	c, err := NewCanvas(800, 600, -73.99, -73.99, 40.75, 40.75)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	pts := make([][2]float64, 1000)
	for i := range pts {
		pts[i] = [2]float64{-73.99, 40.75}
	}
	g := c.Count(feed(pts))
	if g.Max() != 1000 {
		t.Fatalf("Max = %d, want 1000", g.Max())
	}

	fg := Shade(g, Options{Colormap: Fire, MinAlpha: 40})
	out := Composite(Fill(800, 600, black), fg)

	lit := 0
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0 || out.Pix[i+1] != 0 || out.Pix[i+2] != 0 {
			lit++
		}
	}
	if lit != 1 {
		t.Fatalf("%d pixels differ from background, want 1", lit)
	}
}

func TestShadeZeroCountsTransparent(t *testing.T) {
	g := NewGrid(4, 4)
	g.Counts[5] = 3
	img := Shade(g, Options{Colormap: Fire, MinAlpha: 40})
	for idx := range g.Counts {
		a := img.Pix[idx*4+3]
		if idx == 5 {
			if a != 255 {
				t.Errorf("occupied pixel alpha = %d, want 255", a)
			}
		} else if a != 0 {
			t.Errorf("empty pixel %d alpha = %d, want 0", idx, a)
		}
	}
}

func TestShadeAlphaFloor(t *testing.T) {
	g := NewGrid(2, 1)
	g.Counts[0] = 1
	g.Counts[1] = 100
	img := Shade(g, Options{Colormap: Fire, How: Linear, MinAlpha: 40})
	if a := img.Pix[3]; a < 40 {
		t.Errorf("low-count alpha = %d, want >= 40", a)
	}
	if a := img.Pix[7]; a != 255 {
		t.Errorf("max-count alpha = %d, want 255", a)
	}
}

func TestNormalizationMonotonic(t *testing.T) {
	g := NewGrid(4, 1)
	copy(g.Counts, []int32{1, 10, 100, 1000})
	for _, how := range []How{EqHist, Linear, Log, Cbrt} {
		scale := scaler(g, g.Max(), how)
		prev := -1.0
		for _, c := range g.Counts {
			v := scale(c)
			if v < prev {
				t.Errorf("%s: scale(%d) = %g < previous %g", how, c, v, prev)
			}
			if v < 0 || v > 1 {
				t.Errorf("%s: scale(%d) = %g outside [0, 1]", how, c, v)
			}
			prev = v
		}
		if got := scale(1000); got != 1 {
			t.Errorf("%s: scale(max) = %g, want 1", how, got)
		}
	}
}

func TestEqHistUniformCounts(t *testing.T) {
	g := NewGrid(3, 1)
	copy(g.Counts, []int32{7, 7, 7})
	scale := scaler(g, g.Max(), EqHist)
	if got := scale(7); got != 1 {
		t.Fatalf("uniform counts scale to %g, want 1", got)
	}
}

func TestEqHistSpreadsSkewedCounts(t *testing.T) {
	// 99 pixels at count 1 and one at 1000: the occupied bins span the
	// full intensity range regardless of how skewed the counts are.
	g := NewGrid(100, 1)
	for i := 0; i < 99; i++ {
		g.Counts[i] = 1
	}
	g.Counts[99] = 1000
	linear := scaler(g, g.Max(), Linear)
	eq := scaler(g, g.Max(), EqHist)
	if linear(1) >= 0.01 {
		t.Fatalf("linear(1) = %g, expected tiny", linear(1))
	}
	if eq(1000) != 1 {
		t.Fatalf("eq(max) = %g, want 1", eq(1000))
	}
	if eq(1000) <= eq(1) {
		t.Fatalf("eq not increasing: eq(1)=%g eq(1000)=%g", eq(1), eq(1000))
	}
}

func TestParseHow(t *testing.T) {
	for _, s := range []string{"eq-hist", "eq_hist", "EQHIST"} {
		how, err := ParseHow(s)
		if err != nil || how != EqHist {
			t.Errorf("ParseHow(%q) = %q, %v", s, how, err)
		}
	}
	if how, err := ParseHow("log"); err != nil || how != Log {
		t.Errorf("ParseHow(log) = %q, %v", how, err)
	}
	if _, err := ParseHow("sqrt"); err == nil {
		t.Error("unknown normalization accepted")
	}
}
