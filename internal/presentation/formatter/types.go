package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
)

// Formatter renders the variant reports to w.
type Formatter interface {
	Format(w io.Writer, reports []VariantReport) error
}

// VariantReport is the console view of one variant.
type VariantReport struct {
	Name              string             `json:"name"`
	Runs              int                `json:"runs"`
	Samples           int                `json:"samples"`
	TotalAveragePower float64            `json:"total_average_power"`
	MaxElapsed        float64            `json:"max_elapsed"`
	MaxAveragePower   float64            `json:"max_average_power"`
	Sensors           []SensorTotal      `json:"sensors"`
	Summaries         []model.RunSummary `json:"summaries"`
}

// SensorTotal is the energy of one sensor category over every run.
type SensorTotal struct {
	Category    string  `json:"category"`
	Sensor      string  `json:"sensor"`
	TotalEnergy float64 `json:"total_energy"`
	MeanEnergy  float64 `json:"mean_energy"`
}

// MeanElapsed is the average elapsed seconds per run.
func (r VariantReport) MeanElapsed() float64 {
	if len(r.Summaries) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range r.Summaries {
		total += s.ElapsedSeconds
	}
	return total / float64(len(r.Summaries))
}

// MeanAveragePower is the average of the per-run average power.
func (r VariantReport) MeanAveragePower() float64 {
	if len(r.Summaries) == 0 {
		return 0
	}
	return r.TotalAveragePower / float64(len(r.Summaries))
}

// NewReport builds the console view of a processed variant.
func NewReport(v *model.VariantResult) (VariantReport, error) {
	r := VariantReport{
		Name:              v.Name,
		TotalAveragePower: v.TotalAveragePower(),
		MaxElapsed:        v.MaxElapsed(),
		MaxAveragePower:   v.MaxAveragePower(),
		Summaries:         v.Summaries,
	}
	if v.Dataset != nil {
		r.Samples = v.Dataset.Len()
	}
	if v.Pivot != nil {
		r.Runs = len(v.Pivot.Runs)
	}

	names := sensor.FromKeys(v.SensorNames)
	for _, c := range sensor.Categories {
		name, ok := names[c]
		if !ok || v.Pivot == nil {
			continue
		}
		total, err := v.Pivot.RowTotal(name)
		if err != nil {
			return VariantReport{}, fmt.Errorf("%s: %w", v.Name, err)
		}
		mean, _ := v.Pivot.RowMean(name)
		r.Sensors = append(r.Sensors, SensorTotal{
			Category:    sensor.MetaOf(c).Label,
			Sensor:      name,
			TotalEnergy: total,
			MeanEnergy:  mean,
		})
	}
	return r, nil
}

// NewReports builds one report per variant, keeping their order.
func NewReports(results []*model.VariantResult) ([]VariantReport, error) {
	reports := make([]VariantReport, 0, len(results))
	for _, v := range results {
		r, err := NewReport(v)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// New returns the formatter for an output mode.
func New(mode string, color bool) (Formatter, error) {
	switch mode {
	case "table", "":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "summary":
		return NewSummaryFormatter(color), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", mode)
	}
}
