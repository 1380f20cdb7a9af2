package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/penwyp/go-energy-report/internal/core/model"
)

// Lower bounds of the box plot axes.
const (
	boxPowerMin   = 5.5
	boxElapsedMin = 100
)

// Maxima are the largest elapsed time and average power over every variant.
type Maxima struct {
	Elapsed float64
	Power   float64
}

// ComputeMaxima scans the run summaries of every variant.
func ComputeMaxima(variants []*model.VariantResult) Maxima {
	var m Maxima
	for _, v := range variants {
		m.Elapsed = math.Max(m.Elapsed, v.MaxElapsed())
		m.Power = math.Max(m.Power, v.MaxAveragePower())
	}
	return m
}

// TimeVsPower scatters elapsed time against average power, one panel per
// variant, with shared limits of max elapsed + 50 and max power + 1.
func (r *Renderer) TimeVsPower(variants []*model.VariantResult) (string, error) {
	if len(variants) == 0 {
		return "", ErrNoVariants
	}
	m := ComputeMaxima(variants)
	colors := variantColors(len(variants))

	row := make([]*plot.Plot, len(variants))
	for i, v := range variants {
		p := newPlot(v.Name, "Time (s)", "Average power (W)")
		xys := make(plotter.XYs, len(v.Summaries))
		for j, s := range v.Summaries {
			xys[j] = plotter.XY{X: s.ElapsedSeconds, Y: s.AveragePower}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return "", err
		}
		sc.GlyphStyle.Color = colors[i]
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)

		p.X.Min, p.X.Max = 0, m.Elapsed+50
		p.Y.Min, p.Y.Max = 0, m.Power+1
		row[i] = p
	}

	width := vg.Length(len(variants)) * r.width / 2
	return r.saveGrid([][]*plot.Plot{row}, "time-vs-power", width, r.height)
}

// boxRange returns [lo, hi] unless the data maximum falls below lo.
func boxRange(lo, hi float64) (float64, float64) {
	if hi <= lo {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// BoxPlots draws the distribution of average power and of elapsed time for
// one variant, bounded by the maxima shared across variants.
func (r *Renderer) BoxPlots(v *model.VariantResult, m Maxima) (string, error) {
	if len(v.Summaries) == 0 {
		return "", fmt.Errorf("%s: no run summaries", v.Name)
	}
	power := make(plotter.Values, len(v.Summaries))
	elapsed := make(plotter.Values, len(v.Summaries))
	for i, s := range v.Summaries {
		power[i] = s.AveragePower
		elapsed[i] = s.ElapsedSeconds
	}

	pp := newPlot("Average power", "", "Power (W)")
	bp, err := plotter.NewBoxPlot(vg.Points(60), 0, power)
	if err != nil {
		return "", err
	}
	pp.Add(bp)
	pp.NominalX(v.Name)
	pp.Y.Min, pp.Y.Max = boxRange(boxPowerMin, m.Power)

	tp := newPlot("Elapsed time", "", "Time (s)")
	bt, err := plotter.NewBoxPlot(vg.Points(60), 0, elapsed)
	if err != nil {
		return "", err
	}
	tp.Add(bt)
	tp.NominalX(v.Name)
	tp.Y.Min, tp.Y.Max = boxRange(boxElapsedMin, m.Elapsed)

	return r.saveGrid([][]*plot.Plot{{pp, tp}}, "box-plots-"+Slug(v.Name), r.width, r.height)
}
