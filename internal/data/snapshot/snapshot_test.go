package snapshot

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-energy-report/internal/core/model"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestMainDatasetRoundTrip(t *testing.T) {
	base := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	ds := &model.Dataset{Rows: []model.Measurement{
		{Name: "a", Time: base, Power: 10.25, Sensor: "s1", Target: "rapl", RunID: 0},
		{Name: "a", Time: base.Add(1500 * time.Millisecond), Power: 20, Sensor: "s1", Target: "rapl", RunID: 0},
		{Name: "b", Time: base.Add(time.Hour), Power: 0.001, Sensor: "s2", Target: "crate-container-cd", RunID: 7},
	}}

	path := filepath.Join(t.TempDir(), "datasets", "mainDataset.csv")
	require.NoError(t, WriteMainDataset(path, ds))

	got, err := ReadMainDataset(path, time.UTC)
	require.NoError(t, err)
	require.Equal(t, ds.Len(), got.Len())

	if diff := cmp.Diff(ds.Rows, got.Rows); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteMainDatasetLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mainDataset.csv")
	require.NoError(t, WriteMainDataset(path, &model.Dataset{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mainDataset.csv", entries[0].Name())
	assert.Equal(t, [][]string{MainDatasetHeader}, readAll(t, path))
}

func TestWriteSensorTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapl.csv")
	table := model.SensorTable{Sensor: "rapl", Rows: []model.SensorEnergy{
		{RunID: 3, Power: 35, Count: 3, Energy: 35},
		{RunID: 4, Power: 1.5, Count: 1, Energy: 1.5},
	}}

	require.NoError(t, WriteSensorTable(path, table))

	assert.Equal(t, [][]string{
		SensorTableHeader,
		{"3", "35", "3", "35"},
		{"4", "1.5", "1", "1.5"},
	}, readAll(t, path))
}

func TestPivotRoundTrip(t *testing.T) {
	p := &model.PivotTable{
		Sensors: []string{"global", "rapl"},
		Runs:    []int{0, 1, 2},
		Values:  [][]float64{{1, 2, 3}, {4.5, 5.5, 6.5}},
	}
	path := filepath.Join(t.TempDir(), "separateRun", "uniqueDataset.csv")

	require.NoError(t, WritePivot(path, p))
	records := readAll(t, path)
	assert.Equal(t, []string{"sensor", "0", "1", "2"}, records[0])

	got, err := ReadPivot(path)
	require.NoError(t, err)
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("pivot mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSummaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, WriteSummaries(path, []model.RunSummary{
		{RunID: 0, TotalPower: 300, ElapsedSeconds: 10, AveragePower: 30, Elapsed: 10 * time.Second},
	}))

	assert.Equal(t, [][]string{SummaryHeader, {"0", "300", "10", "30"}}, readAll(t, path))
}

func TestSensorFileName(t *testing.T) {
	assert.Equal(t, "rapl.csv", SensorFileName("rapl"))
	assert.Equal(t, "b.csv", SensorFileName("../a/b"))
	assert.Equal(t, "unnamed.csv", SensorFileName(""))
}
