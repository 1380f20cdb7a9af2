// Package chart renders the cross-variant comparison charts as PNG files.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
)

// Chart names accepted by Select.
const (
	EnergyEvolution        = "evolution"
	SensorComparison       = "sensors"
	EnergyShare            = "share"
	AverageEnergyHistogram = "histogram"
	PerRunHistogram        = "per-run"
	TimeVsPower            = "time-power"
	BoxPlots               = "box"
	GeneralComparison      = "general"
)

// All lists every chart in render order.
var All = []string{
	EnergyEvolution,
	SensorComparison,
	EnergyShare,
	AverageEnergyHistogram,
	PerRunHistogram,
	TimeVsPower,
	BoxPlots,
	GeneralComparison,
}

var ErrNoVariants = errors.New("no variants to chart")

// Select parses a comma separated chart list. "all" or an empty list selects
// every chart, "none" selects nothing.
func Select(list string) (map[string]bool, error) {
	selected := make(map[string]bool)
	list = strings.TrimSpace(list)
	switch list {
	case "", "all":
		for _, name := range All {
			selected[name] = true
		}
		return selected, nil
	case "none":
		return selected, nil
	}

	known := make(map[string]bool, len(All))
	for _, name := range All {
		known[name] = true
	}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown chart %q (valid: %s)", name, strings.Join(All, ", "))
		}
		selected[name] = true
	}
	return selected, nil
}

// Renderer writes charts into a directory.
type Renderer struct {
	outDir string
	width  vg.Length
	height vg.Length
}

func NewRenderer(outDir string) *Renderer {
	return &Renderer{
		outDir: outDir,
		width:  10 * vg.Inch,
		height: 6 * vg.Inch,
	}
}

// Dir returns the output directory.
func (r *Renderer) Dir() string {
	return r.outDir
}

func (r *Renderer) path(name string) (string, error) {
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return "", fmt.Errorf("create charts dir: %w", err)
	}
	return filepath.Join(r.outDir, name+".png"), nil
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	path, err := r.path(name)
	if err != nil {
		return "", err
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}

// newGrid returns rows×cols blank plots to be replaced by real panels.
func newGrid(rows, cols int) [][]*plot.Plot {
	grid := make([][]*plot.Plot, rows)
	for i := range grid {
		grid[i] = make([]*plot.Plot, cols)
		for j := range grid[i] {
			blank := plot.New()
			blank.HideAxes()
			grid[i][j] = blank
		}
	}
	return grid
}

// saveGrid aligns plots[row][col] on one image.
func (r *Renderer) saveGrid(plots [][]*plot.Plot, name string, width, height vg.Length) (string, error) {
	path, err := r.path(name)
	if err != nil {
		return "", err
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, f.Close()
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = 1 * vg.Millimeter
	p.Add(plotter.NewGrid())
	return p
}

// variantColors gives every variant a distinct Set1 color.
func variantColors(n int) []color.Color {
	size := n
	if size < 3 {
		size = 3
	}
	if size > 9 {
		size = 9
	}
	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Set1", size)
	if err != nil {
		panic(fmt.Sprintf("variant palette: %v", err))
	}
	colors := palette.Colors()
	out := make([]color.Color, n)
	for i := range out {
		out[i] = colors[i%len(colors)]
	}
	return out
}

// categoryRow returns the pivot row of a category for one variant.
func categoryRow(v *model.VariantResult, c sensor.Category) ([]float64, error) {
	if v.Pivot == nil {
		return nil, fmt.Errorf("%s: no pivot table", v.Name)
	}
	name, ok := sensor.FromKeys(v.SensorNames)[c]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", v.Name, sensor.ErrMissingCategory, sensor.MetaOf(c).Label)
	}
	row, err := v.Pivot.Row(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Name, err)
	}
	return row, nil
}

func runXYs(runs []int, values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(runs[i])
		xys[i].Y = v
	}
	return xys
}

func summaryXYs(summaries []model.RunSummary, y func(model.RunSummary) float64) plotter.XYs {
	xys := make(plotter.XYs, len(summaries))
	for i, s := range summaries {
		xys[i].X = float64(s.RunID)
		xys[i].Y = y(s)
	}
	return xys
}

// Slug turns a variant label into a file name fragment.
func Slug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ComparisonPair returns the two variants the two-panel charts compare: the
// last variant and the one before it. A single variant is compared with itself.
func ComparisonPair(variants []*model.VariantResult) (*model.VariantResult, *model.VariantResult) {
	last := variants[len(variants)-1]
	if len(variants) == 1 {
		return last, last
	}
	return variants[len(variants)-2], last
}

// RenderAll draws every selected chart and returns the written paths in order.
func (r *Renderer) RenderAll(variants []*model.VariantResult, selected map[string]bool) ([]string, error) {
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	first, last := ComparisonPair(variants)
	var paths []string
	add := func(path string, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	if selected[EnergyEvolution] {
		if err := add(r.EnergyEvolution(first, last)); err != nil {
			return nil, err
		}
	}
	if selected[SensorComparison] {
		if err := add(r.SensorComparison(variants)); err != nil {
			return nil, err
		}
	}
	if selected[EnergyShare] {
		for _, v := range variants {
			if err := add(r.EnergyShare(v)); err != nil {
				return nil, err
			}
		}
	}
	if selected[AverageEnergyHistogram] {
		if err := add(r.AverageEnergyHistogram(variants)); err != nil {
			return nil, err
		}
	}
	if selected[PerRunHistogram] {
		if err := add(r.PerRunHistogram(first, last)); err != nil {
			return nil, err
		}
	}

	maxima := ComputeMaxima(variants)
	if selected[TimeVsPower] {
		if err := add(r.TimeVsPower(variants)); err != nil {
			return nil, err
		}
	}
	if selected[BoxPlots] {
		for _, v := range variants {
			if err := add(r.BoxPlots(v, maxima)); err != nil {
				return nil, err
			}
		}
	}
	if selected[GeneralComparison] {
		if err := add(r.GeneralComparison(variants)); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// SortedNames returns the names of a selection in render order.
func SortedNames(selected map[string]bool) []string {
	order := make(map[string]int, len(All))
	for i, name := range All {
		order[name] = i
	}
	var names []string
	for name, ok := range selected {
		if ok {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return order[names[i]] < order[names[j]] })
	return names
}
