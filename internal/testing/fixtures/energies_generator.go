package fixtures

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
)

// MeasurementHeader is the column layout of a measurement CSV.
var MeasurementHeader = []string{"name", "time", "power", "sensor", "target"}

// VariantOptions shapes a generated variant tree.
type VariantOptions struct {
	Runs      int
	Samples   int
	Start     time.Time
	Step      time.Duration
	AppSensor string
}

func (o VariantOptions) withDefaults() VariantOptions {
	if o.Runs <= 0 {
		o.Runs = 3
	}
	if o.Samples <= 0 {
		o.Samples = 4
	}
	if o.Start.IsZero() {
		o.Start = time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	}
	if o.Step <= 0 {
		o.Step = time.Second
	}
	if o.AppSensor == "" {
		o.AppSensor = "crate-container-cd"
	}
	return o
}

// TestDataGenerator writes Energies trees for tests.
type TestDataGenerator struct {
	baseDir string
}

// NewTestDataGenerator creates a new test data generator
func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir: baseDir,
	}
}

// SensorNames returns the application sensor followed by every infrastructure sensor.
func SensorNames(app string) []string {
	return append([]string{app}, sensor.InfrastructureNames()...)
}

// SamplePower is the deterministic power of a generated sample.
func SamplePower(sensorIdx, run, sample int) float64 {
	return float64(10*(sensorIdx+1) + run + sample)
}

// GenerateVariant writes <variant>/Energies/run<N>/<sensor>.csv for every run
// and sensor, and returns the variant directory.
func (g *TestDataGenerator) GenerateVariant(variant string, opts VariantOptions) (string, error) {
	opts = opts.withDefaults()
	variantDir := filepath.Join(g.baseDir, variant)

	for run := 0; run < opts.Runs; run++ {
		runStart := opts.Start.Add(time.Duration(run) * time.Hour)
		for si, name := range SensorNames(opts.AppSensor) {
			records := make([][]string, 0, opts.Samples)
			for s := 0; s < opts.Samples; s++ {
				ts := runStart.Add(time.Duration(s) * opts.Step)
				records = append(records, []string{
					"powerrep",
					ts.Format(time.RFC3339Nano),
					strconv.FormatFloat(SamplePower(si, run, s), 'f', -1, 64),
					"sensor-" + strconv.Itoa(run),
					name,
				})
			}
			rel := filepath.Join(variant, constants.EnergiesDir, fmt.Sprintf("run%d", run), name+".csv")
			if err := g.WriteCSV(rel, MeasurementHeader, records); err != nil {
				return "", err
			}
		}
	}
	return variantDir, nil
}

// WriteCSV writes a CSV file relative to the base directory.
func (g *TestDataGenerator) WriteCSV(rel string, header []string, records [][]string) error {
	path := filepath.Join(g.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return file.Close()
}

// CleanupTestData removes the generated tree.
func (g *TestDataGenerator) CleanupTestData() error {
	return os.RemoveAll(g.baseDir)
}

// GetBaseDir returns the base directory
func (g *TestDataGenerator) GetBaseDir() string {
	return g.baseDir
}
