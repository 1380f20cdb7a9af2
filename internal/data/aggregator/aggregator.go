// Package aggregator derives per-sensor energy tables, the sensor × run pivot
// and the per-run time/energy summary from a normalized dataset.
package aggregator

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/data/snapshot"
	"github.com/penwyp/go-energy-report/internal/util"
)

// ErrSensorFileCollision reports two sensors whose tables would share a snapshot file.
var ErrSensorFileCollision = errors.New("sensor names share a snapshot file")

// Aggregator groups measurements and optionally snapshots the resulting tables.
type Aggregator struct {
	mode        constants.EnergyMode
	snapshotDir string
}

// New creates an Aggregator. When snapshotDir is empty nothing is written.
func New(mode constants.EnergyMode, snapshotDir string) *Aggregator {
	if mode == "" {
		mode = constants.EnergyModePower
	}
	return &Aggregator{mode: mode, snapshotDir: snapshotDir}
}

// Energy derives the energy of one (sensor, run) group.
func Energy(mode constants.EnergyMode, power float64, count int) float64 {
	if mode == constants.EnergyModeScaled {
		return power * float64(count) * constants.EnergyScale
	}
	return power
}

// AggregateBySensor groups rows by target then by run id. Tables come back in
// ascending sensor order together with the parallel list of sensor names.
// Runs without samples for a sensor have no row in its table.
func (a *Aggregator) AggregateBySensor(ds *model.Dataset) ([]model.SensorTable, []string, error) {
	start := time.Now()

	type key struct {
		target string
		run    int
	}
	groups := make(map[key]*model.SensorEnergy)
	runsBySensor := make(map[string][]int)

	for _, row := range ds.Rows {
		k := key{row.Target, row.RunID}
		g, ok := groups[k]
		if !ok {
			g = &model.SensorEnergy{RunID: row.RunID}
			groups[k] = g
			runsBySensor[row.Target] = append(runsBySensor[row.Target], row.RunID)
		}
		g.Power += row.Power
		g.Count++
	}

	names := make([]string, 0, len(runsBySensor))
	for name := range runsBySensor {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make(map[string]string, len(names))
	for _, name := range names {
		file := snapshot.SensorFileName(name)
		if other, ok := files[file]; ok {
			return nil, nil, fmt.Errorf("%w: %q and %q both map to %s", ErrSensorFileCollision, other, name, file)
		}
		files[file] = name
	}

	tables := make([]model.SensorTable, 0, len(names))
	for _, name := range names {
		runs := runsBySensor[name]
		sort.Ints(runs)

		table := model.SensorTable{Sensor: name, Rows: make([]model.SensorEnergy, 0, len(runs))}
		for _, run := range runs {
			g := groups[key{name, run}]
			g.Energy = Energy(a.mode, g.Power, g.Count)
			table.Rows = append(table.Rows, *g)
		}
		tables = append(tables, table)

		if a.snapshotDir != "" {
			path := SensorTablePath(a.snapshotDir, ds.Variant, name)
			if err := snapshot.WriteSensorTable(path, table); err != nil {
				return nil, nil, fmt.Errorf("write sensor table %s: %w", name, err)
			}
		}
	}

	util.LogDebugf("Aggregated %d rows into %d sensor tables (%s mode) in %v",
		ds.Len(), len(tables), a.mode, time.Since(start))
	return tables, names, nil
}

// Pivot reconciles the tables against runRange, builds the pivot and writes
// its snapshot.
func (a *Aggregator) Pivot(variant string, tables []model.SensorTable, runRange int) (*model.PivotTable, error) {
	pivot, err := BuildPivot(tables, runRange)
	if err != nil {
		return nil, err
	}
	if a.snapshotDir != "" {
		if err := snapshot.WritePivot(PivotPath(a.snapshotDir, variant), pivot); err != nil {
			return nil, fmt.Errorf("write pivot: %w", err)
		}
	}
	return pivot, nil
}

// SensorTablePath is where a sensor table of a variant is written.
func SensorTablePath(outDir, variant, sensor string) string {
	return filepath.Join(outDir, variant, constants.SeparatedDir, snapshot.SensorFileName(sensor))
}

// PivotPath is where the pivot of a variant is written.
func PivotPath(outDir, variant string) string {
	return filepath.Join(outDir, variant, constants.PivotDir, constants.PivotFile)
}

// SummaryPath is where the run summary of a variant is written.
func SummaryPath(outDir, variant string) string {
	return filepath.Join(outDir, variant, constants.SummaryFile)
}
