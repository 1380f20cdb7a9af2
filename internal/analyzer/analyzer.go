package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
	"github.com/penwyp/go-energy-report/internal/data/aggregator"
	"github.com/penwyp/go-energy-report/internal/data/cache"
	"github.com/penwyp/go-energy-report/internal/data/loader"
	"github.com/penwyp/go-energy-report/internal/data/parser"
	"github.com/penwyp/go-energy-report/internal/data/snapshot"
	"github.com/penwyp/go-energy-report/internal/presentation/chart"
	"github.com/penwyp/go-energy-report/internal/presentation/formatter"
	"github.com/penwyp/go-energy-report/internal/util"
)

type Analyzer struct {
	config     *Config
	cache      cache.Cache
	loader     *loader.Loader
	probe      *loader.Loader
	aggregator *aggregator.Aggregator
	renderer   *chart.Renderer
	charts     map[string]bool
	formatter  formatter.Formatter
}

func New(config *Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}

	loc, err := util.LoadLocation(config.Timezone)
	if err != nil {
		return nil, err
	}

	charts, err := chart.Select(config.Charts)
	if err != nil {
		return nil, err
	}
	util.LogDebugf("Charts selected: %s", strings.Join(chart.SortedNames(charts), ", "))

	f, err := formatter.New(config.OutputFormat, config.Color)
	if err != nil {
		return nil, err
	}

	var c cache.Cache = cache.NopCache{}
	if !config.NoCache && config.CacheDir != "" {
		fileCache, err := cache.NewFileCache(config.CacheDir)
		if err != nil {
			util.LogWarnf("Cache disabled: %v", err)
		} else {
			c = fileCache
		}
	}

	p := parser.NewParser(config.Concurrency, loc)
	return &Analyzer{
		config:     config,
		cache:      c,
		loader:     loader.New(p, c, config.OutDir),
		probe:      loader.New(p, c, ""),
		aggregator: aggregator.New(config.EnergyMode, config.OutDir),
		renderer:   chart.NewRenderer(filepath.Join(config.OutDir, constants.ChartsDir)),
		charts:     charts,
		formatter:  f,
	}, nil
}

// Run processes every variant, prints the report and renders the charts.
func (a *Analyzer) Run(ctx context.Context) error {
	startTime := time.Now()
	util.LogInfo("Starting energy analysis",
		util.Field{Key: "variants", Value: len(a.config.Variants)},
		util.Field{Key: "energy_mode", Value: string(a.config.EnergyMode)},
	)

	results, err := a.Analyze(ctx)
	if err != nil {
		return err
	}

	outputStart := time.Now()
	reports, err := formatter.NewReports(results)
	if err != nil {
		return err
	}
	if err := a.formatter.Format(a.config.Output, reports); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	outputDuration := time.Since(outputStart)
	util.LogDebugf("Report phase duration: %v", outputDuration)

	chartStart := time.Now()
	paths, err := a.renderer.RenderAll(results, a.charts)
	if err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	chartDuration := time.Since(chartStart)
	util.LogDebugf("Chart phase duration: %v, %d charts", chartDuration, len(paths))

	for _, path := range paths {
		util.LogInfo("Chart written", util.Field{Key: "path", Value: path})
	}
	if len(paths) > 0 && (a.config.OutputFormat == "table" || a.config.OutputFormat == "summary") {
		fmt.Fprintf(a.config.Output, "\nCharts written to %s (%d files)\n", a.renderer.Dir(), len(paths))
	}

	util.LogDebugf("Total duration: %v (report:%v charts:%v)", time.Since(startTime), outputDuration, chartDuration)
	return nil
}

// Analyze runs the data phases of every variant in order.
func (a *Analyzer) Analyze(ctx context.Context) ([]*model.VariantResult, error) {
	results := make([]*model.VariantResult, 0, len(a.config.Variants))
	for _, v := range a.config.Variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := a.ProcessVariant(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Label, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// ProcessVariant loads, aggregates, reconciles and summarizes one variant,
// writing its snapshots along the way.
func (a *Analyzer) ProcessVariant(ctx context.Context, v Variant) (*model.VariantResult, error) {
	start := time.Now()
	dir := a.config.variantDir(v)

	// Phase 1: Load and normalize
	loadStart := time.Now()
	ds, err := a.loader.Load(ctx, v.Label, dir)
	if err != nil {
		return nil, err
	}
	loadDuration := time.Since(loadStart)
	util.LogDebugf("Phase 1 - Load duration: %v, rows: %d", loadDuration, ds.Len())

	// Phase 2: Per-sensor energy
	aggStart := time.Now()
	tables, names, err := a.aggregator.AggregateBySensor(ds)
	if err != nil {
		return nil, err
	}
	aggDuration := time.Since(aggStart)
	util.LogDebugf("Phase 2 - Aggregation duration: %v, sensors: %d", aggDuration, len(names))

	// Phase 3: Sensor categories
	resolution, err := sensor.Resolve(names)
	if err != nil {
		return nil, err
	}

	// Phase 4: Pivot
	pivotStart := time.Now()
	pivot, err := a.aggregator.Pivot(v.Label, tables, a.config.RunRange)
	if err != nil {
		return nil, err
	}
	pivotDuration := time.Since(pivotStart)
	util.LogDebugf("Phase 4 - Pivot duration: %v", pivotDuration)

	// Phase 5: Time/energy summary
	summaryStart := time.Now()
	summaries, err := aggregator.Summarize(ds, sensor.InfrastructureNames())
	if err != nil {
		return nil, err
	}
	if err := snapshot.WriteSummaries(aggregator.SummaryPath(a.config.OutDir, v.Label), summaries); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	summaryDuration := time.Since(summaryStart)
	util.LogDebugf("Phase 5 - Summary duration: %v, runs: %d", summaryDuration, len(summaries))

	util.LogDebugf("Variant %s done in %v (load:%v aggregate:%v pivot:%v summary:%v)",
		v.Label, time.Since(start), loadDuration, aggDuration, pivotDuration, summaryDuration)

	return &model.VariantResult{
		Name:         v.Label,
		Dir:          dir,
		Dataset:      ds,
		SensorTables: tables,
		Pivot:        pivot,
		Summaries:    summaries,
		SensorNames:  resolution.Keys(),
	}, nil
}

// ClearCache drops every cached parse.
func (a *Analyzer) ClearCache() error {
	return a.cache.Clear()
}

// VariantSensors is the sensor category resolution of one variant.
type VariantSensors struct {
	Variant Variant
	Targets []string
	Names   map[string]string
	Err     error
}

// ResolveSensors loads every variant without writing snapshots and resolves
// its target labels to sensor categories. Resolution failures are reported per
// variant; load failures abort.
func (a *Analyzer) ResolveSensors(ctx context.Context) ([]VariantSensors, error) {
	out := make([]VariantSensors, 0, len(a.config.Variants))
	for _, v := range a.config.Variants {
		ds, err := a.probe.Load(ctx, v.Label, a.config.variantDir(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Label, err)
		}
		vs := VariantSensors{Variant: v, Targets: ds.Targets()}
		res, err := sensor.Resolve(vs.Targets)
		if err != nil {
			vs.Err = err
		} else {
			vs.Names = res.Keys()
		}
		out = append(out, vs)
	}
	return out, nil
}

// WatchDirs returns the Energies directory of every variant.
func (a *Analyzer) WatchDirs() []string {
	dirs := make([]string, 0, len(a.config.Variants))
	for _, v := range a.config.Variants {
		dirs = append(dirs, filepath.Join(a.config.variantDir(v), constants.EnergiesDir))
	}
	return dirs
}
