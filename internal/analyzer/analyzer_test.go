package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
	"github.com/penwyp/go-energy-report/internal/data/aggregator"
	"github.com/penwyp/go-energy-report/internal/data/loader"
	"github.com/penwyp/go-energy-report/internal/testing/fixtures"
)

const testRuns = 3

func setupData(t *testing.T, opts fixtures.VariantOptions) (dataDir string, variants []Variant) {
	t.Helper()
	dataDir = t.TempDir()
	gen := fixtures.NewTestDataGenerator(dataDir)

	apps := map[string]string{
		"crate-mio-master-out": "crate-mio-container-master",
		"crate-master":         "crate-container-cd",
		"crate-cd-out":         "crate-container-cd",
	}
	for _, v := range DefaultVariants {
		o := opts
		o.AppSensor = apps[v.Dir]
		_, err := gen.GenerateVariant(v.Dir, o)
		require.NoError(t, err)
	}
	return dataDir, DefaultVariants
}

func newTestConfig(t *testing.T, dataDir string) *Config {
	t.Helper()
	return &Config{
		DataDir:      dataDir,
		OutDir:       t.TempDir(),
		RunRange:     testRuns,
		Charts:       "none",
		OutputFormat: "table",
		Concurrency:  2,
		NoCache:      true,
		Output:       &bytes.Buffer{},
	}
}

func TestAnalyzeProcessesEveryVariant(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 4})
	cfg := newTestConfig(t, dataDir)
	a, err := New(cfg)
	require.NoError(t, err)

	results, err := a.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	pre := results[0]
	assert.Equal(t, "Pre refactoring", pre.Name)
	assert.Equal(t, "crate-mio-container-master", pre.SensorNames[sensor.Application.String()])
	assert.Equal(t, "crate-container-cd", results[2].SensorNames[sensor.Application.String()])

	// 7 sensors × runs × samples
	assert.Equal(t, 7*testRuns*4, pre.Dataset.Len())
	assert.Len(t, pre.SensorTables, 7)
	assert.Equal(t, []int{0, 1, 2}, pre.Pivot.Runs)

	require.Len(t, pre.Summaries, testRuns)
	for run, s := range pre.Summaries {
		// Only the application sensor survives: samples 0..3 one second apart.
		want := 0.0
		for sample := 0; sample < 4; sample++ {
			want += fixtures.SamplePower(0, run, sample)
		}
		assert.Equal(t, run, s.RunID)
		assert.Equal(t, want, s.TotalPower)
		assert.Equal(t, 3.0, s.ElapsedSeconds)
		assert.InDelta(t, want/3, s.AveragePower, 1e-9)
	}

	for _, v := range DefaultVariants {
		for _, path := range []string{
			loader.MainDatasetPath(cfg.OutDir, v.Label),
			aggregator.PivotPath(cfg.OutDir, v.Label),
			aggregator.SummaryPath(cfg.OutDir, v.Label),
			aggregator.SensorTablePath(cfg.OutDir, v.Label, "rapl"),
		} {
			_, err := os.Stat(path)
			assert.NoError(t, err, path)
		}
	}
}

func TestRunWritesReportAndCharts(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 3})
	cfg := newTestConfig(t, dataDir)
	cfg.Charts = "general,share"
	out := &bytes.Buffer{}
	cfg.Output = out

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "Pre refactoring (3 runs")
	assert.Contains(t, out.String(), "Charts written to")

	entries, err := os.ReadDir(filepath.Join(cfg.OutDir, constants.ChartsDir))
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestRunJSONOutputHasNoChartFooter(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 3})
	cfg := newTestConfig(t, dataDir)
	cfg.OutputFormat = "json"
	cfg.Charts = "general"
	out := &bytes.Buffer{}
	cfg.Output = out

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	assert.NotContains(t, out.String(), "Charts written")
	assert.Contains(t, out.String(), `"name": "Post refactoring"`)
}

func TestAnalyzeFailsOnRunRangeMismatch(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 2})
	cfg := newTestConfig(t, dataDir)
	cfg.RunRange = constants.DefaultRunRange

	a, err := New(cfg)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background())
	var rangeErr *aggregator.RunRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Contains(t, err.Error(), "Pre refactoring")
}

func TestAnalyzeFailsOnMissingCategory(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 2})
	for run := 0; run < testRuns; run++ {
		require.NoError(t, os.Remove(filepath.Join(dataDir, "crate-master", "Energies", fmt.Sprintf("run%d", run), "rapl.csv")))
	}

	a, err := New(newTestConfig(t, dataDir))
	require.NoError(t, err)

	_, err = a.Analyze(context.Background())
	assert.ErrorIs(t, err, sensor.ErrMissingCategory)
	assert.Contains(t, err.Error(), "Partial refactoring")
}

func TestAnalyzeFailsOnZeroElapsed(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 1})

	a, err := New(newTestConfig(t, dataDir))
	require.NoError(t, err)

	_, err = a.Analyze(context.Background())
	var zeroErr *aggregator.ZeroElapsedError
	assert.ErrorAs(t, err, &zeroErr)
}

func TestAnalyzeUsesCache(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 2})
	cfg := newTestConfig(t, dataDir)
	cfg.NoCache = false
	cfg.CacheDir = t.TempDir()

	a, err := New(cfg)
	require.NoError(t, err)
	first, err := a.Analyze(context.Background())
	require.NoError(t, err)
	second, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[1].Pivot, second[1].Pivot)

	entries, err := os.ReadDir(cfg.CacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	require.NoError(t, a.ClearCache())
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: testRuns, Samples: 2})
	a, err := New(newTestConfig(t, dataDir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Analyze(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"energy mode", func(c *Config) { c.EnergyMode = "joules" }},
		{"output format", func(c *Config) { c.OutputFormat = "xml" }},
		{"charts", func(c *Config) { c.Charts = "radar" }},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"run range", func(c *Config) { c.RunRange = -1 }},
		{"duplicate variant", func(c *Config) {
			c.Variants = []Variant{{Label: "a", Dir: "x"}, {Label: "a", Dir: "y"}}
		}},
		{"same chart name", func(c *Config) {
			c.Variants = []Variant{{Label: "Post refactoring", Dir: "x"}, {Label: "post-refactoring", Dir: "y"}}
		}},
		{"label with separator", func(c *Config) {
			c.Variants = []Variant{{Label: "../escape", Dir: "x"}}
		}},
		{"dot label", func(c *Config) {
			c.Variants = []Variant{{Label: "..", Dir: "x"}}
		}},
		{"label without letters", func(c *Config) {
			c.Variants = []Variant{{Label: "!!!", Dir: "x"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t, t.TempDir())
			tt.mutate(cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{OutDir: t.TempDir()}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultVariants, cfg.Variants)
	assert.Equal(t, constants.DefaultRunRange, cfg.RunRange)
	assert.Equal(t, constants.EnergyModePower, cfg.EnergyMode)
	assert.Equal(t, "table", cfg.OutputFormat)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("Post refactoring = crate-cd-out")
	require.NoError(t, err)
	assert.Equal(t, Variant{Label: "Post refactoring", Dir: "crate-cd-out"}, v)
	assert.Equal(t, "Post refactoring=crate-cd-out", v.String())

	for _, bad := range []string{"", "label", "=dir", "label="} {
		_, err := ParseVariant(bad)
		assert.Error(t, err, bad)
	}
}

func TestVariantDir(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, "/data/crate-cd-out", cfg.variantDir(Variant{Dir: "crate-cd-out"}))
	assert.Equal(t, "/abs/x", cfg.variantDir(Variant{Dir: "/abs/x"}))
}

func TestResolveSensors(t *testing.T) {
	dataDir, _ := setupData(t, fixtures.VariantOptions{Runs: 1, Samples: 2})
	gen := fixtures.NewTestDataGenerator(dataDir)
	require.NoError(t, gen.WriteCSV(filepath.Join("crate-cd-out", "Energies", "run0", "extra.csv"),
		fixtures.MeasurementHeader, [][]string{{"powerrep", "1700000000", "1", "s", "second-app"}}))

	cfg := newTestConfig(t, dataDir)
	a, err := New(cfg)
	require.NoError(t, err)

	got, err := a.ResolveSensors(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.NoError(t, got[0].Err)
	assert.Equal(t, "crate-mio-container-master", got[0].Names["application"])
	assert.Equal(t, "rapl", got[0].Names["rapl"])
	assert.ErrorIs(t, got[2].Err, sensor.ErrAmbiguousApplication)
	assert.Contains(t, got[2].Targets, "second-app")

	// Nothing is written by the probe.
	_, err = os.Stat(loader.MainDatasetPath(cfg.OutDir, "Pre refactoring"))
	assert.True(t, os.IsNotExist(err))
}

func TestWatchDirs(t *testing.T) {
	cfg := newTestConfig(t, "/data")
	a, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/data/crate-mio-master-out/Energies",
		"/data/crate-master/Energies",
		"/data/crate-cd-out/Energies",
	}, a.WatchDirs())
}
