package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/penwyp/go-energy-report/internal/core/model"
)

// RunMismatch describes how one sensor's run set differs from the expected range.
type RunMismatch struct {
	Sensor     string
	Missing    []int
	Unexpected []int
}

// RunRangeError is returned when a sensor does not cover exactly 0..RunRange-1.
type RunRangeError struct {
	RunRange   int
	Mismatches []RunMismatch
}

func (e *RunRangeError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		var b strings.Builder
		b.WriteString(m.Sensor)
		if len(m.Missing) > 0 {
			fmt.Fprintf(&b, " missing %s", formatRuns(m.Missing))
		}
		if len(m.Unexpected) > 0 {
			fmt.Fprintf(&b, " unexpected %s", formatRuns(m.Unexpected))
		}
		parts = append(parts, b.String())
	}
	return fmt.Sprintf("run ids do not match range 0..%d: %s", e.RunRange-1, strings.Join(parts, "; "))
}

func formatRuns(runs []int) string {
	const limit = 10
	strs := make([]string, 0, limit+1)
	for i, r := range runs {
		if i == limit {
			strs = append(strs, fmt.Sprintf("... (%d more)", len(runs)-limit))
			break
		}
		strs = append(strs, fmt.Sprint(r))
	}
	return "[" + strings.Join(strs, " ") + "]"
}

// Reconcile checks that every table holds exactly the runs 0..runRange-1.
func Reconcile(tables []model.SensorTable, runRange int) error {
	if runRange <= 0 {
		return fmt.Errorf("run range must be positive, got %d", runRange)
	}

	var mismatches []RunMismatch
	for _, t := range tables {
		present := make([]bool, runRange)
		var unexpected []int
		for _, row := range t.Rows {
			if row.RunID < 0 || row.RunID >= runRange {
				unexpected = append(unexpected, row.RunID)
				continue
			}
			present[row.RunID] = true
		}

		var missing []int
		for run, ok := range present {
			if !ok {
				missing = append(missing, run)
			}
		}
		if len(missing) > 0 || len(unexpected) > 0 {
			sort.Ints(unexpected)
			mismatches = append(mismatches, RunMismatch{Sensor: t.Sensor, Missing: missing, Unexpected: unexpected})
		}
	}

	if len(mismatches) > 0 {
		return &RunRangeError{RunRange: runRange, Mismatches: mismatches}
	}
	return nil
}

// BuildPivot reshapes the sensor tables into one row per sensor and one column
// per run. Values are placed by run id after reconciliation.
func BuildPivot(tables []model.SensorTable, runRange int) (*model.PivotTable, error) {
	if err := Reconcile(tables, runRange); err != nil {
		return nil, err
	}

	p := &model.PivotTable{
		Sensors: make([]string, len(tables)),
		Runs:    make([]int, runRange),
		Values:  make([][]float64, len(tables)),
	}
	for run := range p.Runs {
		p.Runs[run] = run
	}
	for i, t := range tables {
		p.Sensors[i] = t.Sensor
		row := make([]float64, runRange)
		for _, e := range t.Rows {
			row[e.RunID] = e.Energy
		}
		p.Values[i] = row
	}
	return p, nil
}
