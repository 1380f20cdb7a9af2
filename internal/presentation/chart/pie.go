package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
	"github.com/penwyp/go-energy-report/internal/util"
)

// Wedge is one slice of a Donut.
type Wedge struct {
	Value float64
	Label string
	Color color.Color
}

// Donut is a plot.Plotter drawing a ring chart in the data area of a plot.
// gonum/plot has no pie chart of its own.
type Donut struct {
	Wedges []Wedge
	// Hole is the inner radius as a fraction of the outer radius.
	Hole float64
	// Start is the angle of the first wedge in degrees, counterclockwise from 3 o'clock.
	Start float64
	// Steps per full turn used to approximate arcs.
	Steps int
}

var _ plot.Plotter = (*Donut)(nil)

// NewDonut builds a Donut. The values must be non-negative and sum to more than zero.
func NewDonut(wedges []Wedge) (*Donut, error) {
	total := 0.0
	for _, w := range wedges {
		if w.Value < 0 || math.IsNaN(w.Value) || math.IsInf(w.Value, 0) {
			return nil, fmt.Errorf("invalid wedge value %v for %s", w.Value, w.Label)
		}
		total += w.Value
	}
	if total <= 0 {
		return nil, fmt.Errorf("donut needs a positive total, got %v", total)
	}
	return &Donut{Wedges: wedges, Hole: 0.5, Start: -40, Steps: 360}, nil
}

// Angles returns the start and end angle in radians of every wedge.
func (d *Donut) Angles() [][2]float64 {
	total := 0.0
	for _, w := range d.Wedges {
		total += w.Value
	}
	out := make([][2]float64, len(d.Wedges))
	a := d.Start * math.Pi / 180
	for i, w := range d.Wedges {
		span := 2 * math.Pi * w.Value / total
		out[i] = [2]float64{a, a + span}
		a += span
	}
	return out
}

// DataRange keeps the axes out of the way; the ring is drawn in canvas units.
func (d *Donut) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

func (d *Donut) Plot(c draw.Canvas, plt *plot.Plot) {
	cx := (c.Min.X + c.Max.X) / 2
	cy := (c.Min.Y + c.Max.Y) / 2
	radius := c.Max.X - c.Min.X
	if h := c.Max.Y - c.Min.Y; h < radius {
		radius = h
	}
	radius *= 0.35
	inner := radius * vg.Length(d.Hole)

	at := func(r vg.Length, a float64) vg.Point {
		return vg.Point{X: cx + r*vg.Length(math.Cos(a)), Y: cy + r*vg.Length(math.Sin(a))}
	}

	sty := plt.Legend.TextStyle
	sty.YAlign = draw.YCenter
	edge := draw.LineStyle{Color: color.White, Width: vg.Points(1)}

	for i, span := range d.Angles() {
		w := d.Wedges[i]
		a0, a1 := span[0], span[1]
		n := int(math.Ceil(float64(d.Steps) * (a1 - a0) / (2 * math.Pi)))
		if n < 1 {
			n = 1
		}

		pts := make([]vg.Point, 0, 2*(n+1))
		for k := 0; k <= n; k++ {
			pts = append(pts, at(radius, a0+(a1-a0)*float64(k)/float64(n)))
		}
		for k := n; k >= 0; k-- {
			pts = append(pts, at(inner, a0+(a1-a0)*float64(k)/float64(n)))
		}
		c.FillPolygon(w.Color, pts)
		c.StrokeLines(edge, append(pts, pts[0]))

		mid := (a0 + a1) / 2
		anchor := at(radius, mid)
		label := at(radius*1.3, mid)
		c.StrokeLine2(draw.LineStyle{Color: color.Gray{Y: 96}, Width: vg.Points(0.5)}, anchor.X, anchor.Y, label.X, label.Y)

		sty.XAlign = draw.XLeft
		if math.Cos(mid) < 0 {
			sty.XAlign = draw.XRight
		}
		c.FillText(sty, label, w.Label)
	}
}

// EnergyShare draws each sensor category's share of the variant's total energy.
// Labels carry the total computed from the pivot table.
func (r *Renderer) EnergyShare(v *model.VariantResult) (string, error) {
	wedges := make([]Wedge, 0, len(sensor.Categories))
	for _, c := range sensor.Categories {
		row, err := categoryRow(v, c)
		if err != nil {
			return "", err
		}
		total := 0.0
		for _, e := range row {
			total += e
		}
		meta := sensor.MetaOf(c)
		wedges = append(wedges, Wedge{
			Value: total,
			Label: fmt.Sprintf("%s\nE=%s", meta.Label, util.FormatWatts(total)),
			Color: meta.Color,
		})
	}

	donut, err := NewDonut(wedges)
	if err != nil {
		return "", fmt.Errorf("%s: %w", v.Name, err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Energy consumption per sensor (%s)", v.Name)
	p.HideAxes()
	p.Add(donut)
	return r.save(p, "energy-share-"+Slug(v.Name))
}
