package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testVariant(name, app string, runs int, scale float64) *model.VariantResult {
	res := sensor.Resolution{sensor.Application: app}
	sensors := []string{app}
	for _, c := range sensor.Categories[1:] {
		res[c] = sensor.MetaOf(c).Name
		sensors = append(sensors, sensor.MetaOf(c).Name)
	}

	p := &model.PivotTable{Sensors: sensors, Runs: make([]int, runs), Values: make([][]float64, len(sensors))}
	for run := range p.Runs {
		p.Runs[run] = run
	}
	for i := range sensors {
		row := make([]float64, runs)
		for run := range row {
			row[run] = scale * float64((i+1)*10+run)
		}
		p.Values[i] = row
	}

	summaries := make([]model.RunSummary, runs)
	for run := range summaries {
		secs := 120 + float64(run)*3*scale
		summaries[run] = model.RunSummary{
			RunID:          run,
			TotalPower:     secs * 10 * scale,
			Elapsed:        time.Duration(secs * float64(time.Second)),
			ElapsedSeconds: secs,
			AveragePower:   10 * scale,
		}
	}

	return &model.VariantResult{Name: name, Pivot: p, Summaries: summaries, SensorNames: res.Keys()}
}

func testVariants() []*model.VariantResult {
	return []*model.VariantResult{
		testVariant("Pre refactoring", "crate-mio-container-master", 5, 1.5),
		testVariant("Partial refactoring", "crate-container-cd", 5, 1.2),
		testVariant("Post refactoring", "crate-container-cd", 5, 1),
	}
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), len(pngMagic))
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func TestRenderAll(t *testing.T) {
	r := NewRenderer(filepath.Join(t.TempDir(), "charts"))
	selected, err := Select("all")
	require.NoError(t, err)

	paths, err := r.RenderAll(testVariants(), selected)
	require.NoError(t, err)

	// Share and box plots are written once per variant.
	assert.Len(t, paths, len(All)+2*2)
	for _, path := range paths {
		assert.Equal(t, r.Dir(), filepath.Dir(path))
		assertPNG(t, path)
	}
}

func TestRenderAllSubset(t *testing.T) {
	r := NewRenderer(t.TempDir())
	selected, err := Select("box, general")
	require.NoError(t, err)

	paths, err := r.RenderAll(testVariants(), selected)
	require.NoError(t, err)

	require.Len(t, paths, 4)
	assert.Equal(t, "box-plots-pre-refactoring.png", filepath.Base(paths[0]))
	assert.Equal(t, "general-comparison.png", filepath.Base(paths[3]))
}

func TestRenderAllNoVariants(t *testing.T) {
	_, err := NewRenderer(t.TempDir()).RenderAll(nil, map[string]bool{GeneralComparison: true})
	assert.ErrorIs(t, err, ErrNoVariants)
}

func TestChartsFailOnMissingCategory(t *testing.T) {
	v := testVariant("Post refactoring", "crate-container-cd", 3, 1)
	delete(v.SensorNames, sensor.RAPL.String())

	_, err := NewRenderer(t.TempDir()).EnergyShare(v)
	assert.ErrorIs(t, err, sensor.ErrMissingCategory)
}

func TestChartsFailOnAbsentPivotRow(t *testing.T) {
	v := testVariant("Post refactoring", "crate-container-cd", 3, 1)
	v.SensorNames[sensor.Global.String()] = "global-typo"

	_, err := NewRenderer(t.TempDir()).SensorComparison([]*model.VariantResult{v})
	assert.ErrorIs(t, err, model.ErrSensorNotFound)
}

func TestSelect(t *testing.T) {
	all, err := Select("")
	require.NoError(t, err)
	assert.Len(t, all, len(All))

	none, err := Select("none")
	require.NoError(t, err)
	assert.Empty(t, none)

	some, err := Select("share,time-power")
	require.NoError(t, err)
	assert.Equal(t, []string{EnergyShare, TimeVsPower}, SortedNames(some))

	_, err = Select("share,pie")
	assert.Error(t, err)
}

func TestComputeMaxima(t *testing.T) {
	m := ComputeMaxima(testVariants())
	assert.Equal(t, 15.0, m.Power)
	assert.InDelta(t, 120+4*3*1.5, m.Elapsed, 1e-9)
}

func TestBoxRange(t *testing.T) {
	lo, hi := boxRange(100, 250)
	assert.Equal(t, 100.0, lo)
	assert.Equal(t, 250.0, hi)

	lo, hi = boxRange(100, 40)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 40.0, hi)

	lo, hi = boxRange(5.5, 0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestDonutAngles(t *testing.T) {
	d, err := NewDonut([]Wedge{{Value: 1}, {Value: 3}})
	require.NoError(t, err)
	d.Start = 0

	angles := d.Angles()
	require.Len(t, angles, 2)
	assert.InDelta(t, 0, angles[0][0], 1e-12)
	assert.InDelta(t, math.Pi/2, angles[0][1], 1e-12)
	assert.InDelta(t, 2*math.Pi, angles[1][1], 1e-12)
}

func TestNewDonutRejectsInvalidValues(t *testing.T) {
	_, err := NewDonut([]Wedge{{Value: 0}, {Value: 0}})
	assert.Error(t, err)

	_, err = NewDonut([]Wedge{{Value: -1, Label: "x"}, {Value: 3}})
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "pre-refactoring", Slug("Pre refactoring"))
	assert.Equal(t, "crate-cd-out", Slug("  crate_cd/out  "))
	assert.Equal(t, "v2", Slug("V2!"))
}

func TestComparisonPair(t *testing.T) {
	variants := testVariants()

	from, to := ComparisonPair(variants)
	assert.Equal(t, "Partial refactoring", from.Name)
	assert.Equal(t, "Post refactoring", to.Name)

	from, to = ComparisonPair(variants[:1])
	assert.Same(t, variants[0], from)
	assert.Same(t, variants[0], to)
}
