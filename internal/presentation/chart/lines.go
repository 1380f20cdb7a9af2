package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
)

const energyAxis = "Energy per run (J)"

// energyPanel draws one line per sensor category of a variant across runs.
func energyPanel(v *model.VariantResult) (*plot.Plot, error) {
	p := newPlot(fmt.Sprintf("Energy per run (%s)", v.Name), "Run", energyAxis)
	for _, c := range sensor.Categories {
		row, err := categoryRow(v, c)
		if err != nil {
			return nil, err
		}
		line, err := plotter.NewLine(runXYs(v.Pivot.Runs, row))
		if err != nil {
			return nil, err
		}
		meta := sensor.MetaOf(c)
		line.Color = meta.Color
		p.Add(line)
		p.Legend.Add(meta.Label, line)
	}
	return p, nil
}

// EnergyEvolution stacks the per-sensor energy lines of two variants.
func (r *Renderer) EnergyEvolution(first, last *model.VariantResult) (string, error) {
	top, err := energyPanel(first)
	if err != nil {
		return "", err
	}
	bottom, err := energyPanel(last)
	if err != nil {
		return "", err
	}
	return r.saveGrid([][]*plot.Plot{{top}, {bottom}}, "energy-evolution", r.width, 2*r.height)
}

// SensorComparison draws one panel per sensor category with one line per variant.
func (r *Renderer) SensorComparison(variants []*model.VariantResult) (string, error) {
	colors := variantColors(len(variants))
	const cols = 2
	rows := (len(sensor.Categories) + cols - 1) / cols
	grid := newGrid(rows, cols)

	for i, c := range sensor.Categories {
		p := newPlot(sensor.MetaOf(c).Label, "Run", energyAxis)
		for vi, v := range variants {
			row, err := categoryRow(v, c)
			if err != nil {
				return "", err
			}
			line, err := plotter.NewLine(runXYs(v.Pivot.Runs, row))
			if err != nil {
				return "", err
			}
			line.Color = colors[vi]
			p.Add(line)
			p.Legend.Add(v.Name, line)
		}
		grid[i/cols][i%cols] = p
	}

	return r.saveGrid(grid, "sensor-comparison", 2*r.width, vg.Length(rows)*r.height*0.75)
}

// GeneralComparison draws the average power of every run, one line per variant.
func (r *Renderer) GeneralComparison(variants []*model.VariantResult) (string, error) {
	colors := variantColors(len(variants))
	p := newPlot("Energy consumption comparison", "Run", "Average power per run (W)")

	for i, v := range variants {
		line, err := plotter.NewLine(summaryXYs(v.Summaries, func(s model.RunSummary) float64 { return s.AveragePower }))
		if err != nil {
			return "", err
		}
		line.Color = colors[i]
		p.Add(line)
		p.Legend.Add(v.Name, line)
	}
	return r.save(p, "general-comparison")
}
