package document

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
)

// SectionChart renders the vertical cross-section of the visual at
// data coordinate x: per-row counts plotted against y, as a PNG line
// chart. hour restricts the aggregate the same way Render does.
func (v *Visual) SectionChart(hour int, x float64, width, height int) ([]byte, error) {
	grid := v.Aggregate(hour)
	ys, counts, err := v.Canvas.Section(grid, x)
	if err != nil {
		return nil, err
	}
	if len(ys) < 2 {
		return nil, fmt.Errorf("canvas height %d too small for a section", len(ys))
	}

	maxCount := 1.0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: ys[0], Max: ys[len(ys)-1]},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxCount},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: ys,
				YValues: counts,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 1.5,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render section chart: %w", err)
	}
	return buf.Bytes(), nil
}
