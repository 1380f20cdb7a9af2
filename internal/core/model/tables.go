package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrSensorNotFound = errors.New("sensor not found in pivot table")

// SensorEnergy is one run's aggregate for a single sensor.
type SensorEnergy struct {
	RunID  int     `json:"run_id"`
	Power  float64 `json:"power"`
	Count  int     `json:"count"`
	Energy float64 `json:"energy"`
}

// SensorTable holds the per-run aggregates of one sensor, ordered by run id.
type SensorTable struct {
	Sensor string         `json:"sensor"`
	Rows   []SensorEnergy `json:"rows"`
}

// RunIDs returns the run ids present in the table.
func (t *SensorTable) RunIDs() []int {
	ids := make([]int, len(t.Rows))
	for i, row := range t.Rows {
		ids[i] = row.RunID
	}
	return ids
}

// TotalCount returns the number of raw samples that contributed to the table.
func (t *SensorTable) TotalCount() int {
	total := 0
	for _, row := range t.Rows {
		total += row.Count
	}
	return total
}

// TotalEnergy sums the energy column.
func (t *SensorTable) TotalEnergy() float64 {
	total := 0.0
	for _, row := range t.Rows {
		total += row.Energy
	}
	return total
}

// PivotTable is the sensor × run energy matrix. Values[i][j] is the energy of
// Sensors[i] during Runs[j].
type PivotTable struct {
	Sensors []string    `json:"sensors"`
	Runs    []int       `json:"runs"`
	Values  [][]float64 `json:"values"`
}

// Row returns the energy series of a sensor.
func (p *PivotTable) Row(sensor string) ([]float64, error) {
	for i, name := range p.Sensors {
		if name == sensor {
			return p.Values[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSensorNotFound, sensor)
}

// RowTotal sums a sensor's energy over all runs.
func (p *PivotTable) RowTotal(sensor string) (float64, error) {
	row, err := p.Row(sensor)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, v := range row {
		total += v
	}
	return total, nil
}

// RowMean is the average energy per run of a sensor.
func (p *PivotTable) RowMean(sensor string) (float64, error) {
	total, err := p.RowTotal(sensor)
	if err != nil {
		return 0, err
	}
	if len(p.Runs) == 0 {
		return 0, nil
	}
	return total / float64(len(p.Runs)), nil
}

// RunSummary is the time/energy aggregate of one run, infrastructure sensors excluded.
type RunSummary struct {
	RunID          int           `json:"run_id"`
	TotalPower     float64       `json:"total_power"`
	Elapsed        time.Duration `json:"-"`
	ElapsedSeconds float64       `json:"time"`
	AveragePower   float64       `json:"power"`
}

// VariantResult bundles every table produced for one variant.
type VariantResult struct {
	Name         string            `json:"name"`
	Dir          string            `json:"dir"`
	Dataset      *Dataset          `json:"-"`
	SensorTables []SensorTable     `json:"sensor_tables"`
	Pivot        *PivotTable       `json:"pivot"`
	Summaries    []RunSummary      `json:"summaries"`
	SensorNames  map[string]string `json:"sensor_names"` // category key -> sensor name
}

// TotalAveragePower sums the average power column of the run summaries.
func (v *VariantResult) TotalAveragePower() float64 {
	total := 0.0
	for _, s := range v.Summaries {
		total += s.AveragePower
	}
	return total
}

// MaxElapsed returns the largest elapsed seconds across runs.
func (v *VariantResult) MaxElapsed() float64 {
	max := 0.0
	for _, s := range v.Summaries {
		if s.ElapsedSeconds > max {
			max = s.ElapsedSeconds
		}
	}
	return max
}

// MaxAveragePower returns the largest average power across runs.
func (v *VariantResult) MaxAveragePower() float64 {
	max := 0.0
	for _, s := range v.Summaries {
		if s.AveragePower > max {
			max = s.AveragePower
		}
	}
	return max
}
