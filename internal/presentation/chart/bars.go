package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
)

// groupedBars adds one bar chart per series, offset around each x position.
func groupedBars(p *plot.Plot, names []string, series []plotter.Values, barWidth vg.Length, labels bool) error {
	colors := variantColors(len(series))
	spacing := barWidth / 8
	groupWidth := (barWidth + spacing) * vg.Length(len(series)-1)

	for i, values := range series {
		bc, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return err
		}
		bc.Offset = (barWidth+spacing)*vg.Length(i) - groupWidth/2
		bc.Color = colors[i]
		bc.LineStyle.Width = 0
		p.Add(bc)
		p.Legend.Add(names[i], bc)

		if !labels {
			continue
		}
		xys := make(plotter.XYs, len(values))
		texts := make([]string, len(values))
		for j, v := range values {
			xys[j] = plotter.XY{X: float64(j), Y: v}
			texts[j] = fmt.Sprintf("%.0f", v)
		}
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return err
		}
		l.Offset = vg.Point{X: bc.Offset, Y: vg.Points(3)}
		for j := range l.TextStyle {
			l.TextStyle[j].XAlign = draw.XCenter
			l.TextStyle[j].Font.Size = vg.Points(7)
		}
		p.Add(l)
	}
	return nil
}

// AverageEnergyHistogram compares the mean energy per run of each sensor
// category across variants.
func (r *Renderer) AverageEnergyHistogram(variants []*model.VariantResult) (string, error) {
	p := newPlot("Average energy per run by sensor", "", "Energy (J)")
	p.Legend.Left = false

	names := make([]string, len(variants))
	series := make([]plotter.Values, len(variants))
	maxLast, maxAll := 0.0, 0.0
	for i, v := range variants {
		names[i] = v.Name
		values := make(plotter.Values, len(sensor.Categories))
		for j, c := range sensor.Categories {
			row, err := categoryRow(v, c)
			if err != nil {
				return "", err
			}
			total := 0.0
			for _, e := range row {
				total += e
			}
			values[j] = total / float64(len(row))
			maxAll = math.Max(maxAll, values[j])
			if i == len(variants)-1 {
				maxLast = math.Max(maxLast, values[j])
			}
		}
		series[i] = values
	}

	if err := groupedBars(p, names, series, vg.Points(12), true); err != nil {
		return "", err
	}

	labels := make([]string, len(sensor.Categories))
	for i, c := range sensor.Categories {
		labels[i] = sensor.MetaOf(c).Label
	}
	p.NominalX(labels...)
	p.Y.Min = 0
	p.Y.Max = maxLast + 1
	if maxAll > p.Y.Max {
		p.Y.Max = maxAll * 1.1
	}
	return r.save(p, "average-energy-histogram")
}

// PerRunHistogram compares two variants run by run, one panel per sensor category.
func (r *Renderer) PerRunHistogram(first, last *model.VariantResult) (string, error) {
	const cols = 2
	rows := (len(sensor.Categories) + cols - 1) / cols
	grid := newGrid(rows, cols)

	for i, c := range sensor.Categories {
		a, err := categoryRow(first, c)
		if err != nil {
			return "", err
		}
		b, err := categoryRow(last, c)
		if err != nil {
			return "", err
		}
		p := newPlot(sensor.MetaOf(c).Label, "Run", "Energy (J)")
		if err := groupedBars(p, []string{first.Name, last.Name}, []plotter.Values{a, b}, vg.Points(3), false); err != nil {
			return "", err
		}
		grid[i/cols][i%cols] = p
	}

	return r.saveGrid(grid, "per-run-histogram", 2*r.width, vg.Length(rows)*r.height*0.75)
}
