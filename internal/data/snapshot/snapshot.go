// Package snapshot writes and reads the CSV snapshots produced for each variant.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/util"
)

// MainDatasetHeader is the column layout of mainDataset.csv.
var MainDatasetHeader = []string{"name", "time", "power", "sensor", "target", "directory"}

// SensorTableHeader is the column layout of separatedDatasets/<sensor>.csv.
var SensorTableHeader = []string{"directory", "power", "numero_istanze", "energia"}

// SummaryHeader is the column layout of summary.csv.
var SummaryHeader = []string{"directory", "total_power", "time", "power"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeAtomic renders a CSV into a temp file beside path and renames it into
// place once fully flushed.
func writeAtomic(path string, render func(w *csv.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = render(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// WriteMainDataset writes the unified dataset of a variant.
func WriteMainDataset(path string, ds *model.Dataset) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(MainDatasetHeader); err != nil {
			return err
		}
		for _, row := range ds.Rows {
			record := []string{
				row.Name,
				util.FormatTimestamp(row.Time),
				formatFloat(row.Power),
				row.Sensor,
				row.Target,
				strconv.Itoa(row.RunID),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadMainDataset loads a snapshot written by WriteMainDataset.
func ReadMainDataset(path string, loc *time.Location) (*model.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) != len(MainDatasetHeader) {
		return nil, fmt.Errorf("%s: unexpected header %v", path, header)
	}

	ds := &model.Dataset{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		ts, err := util.ParseTimestamp(record[1], loc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		power, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid power: %w", path, err)
		}
		runID, err := strconv.Atoi(record[5])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid directory: %w", path, err)
		}

		ds.Rows = append(ds.Rows, model.Measurement{
			Name:   record[0],
			Time:   ts,
			Power:  power,
			Sensor: record[3],
			Target: record[4],
			RunID:  runID,
		})
	}
	return ds, nil
}

// WriteSensorTable writes one sensor's per-run energy table.
func WriteSensorTable(path string, t model.SensorTable) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(SensorTableHeader); err != nil {
			return err
		}
		for _, row := range t.Rows {
			record := []string{
				strconv.Itoa(row.RunID),
				formatFloat(row.Power),
				strconv.Itoa(row.Count),
				formatFloat(row.Energy),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WritePivot writes the sensor × run table, one row per sensor.
func WritePivot(path string, p *model.PivotTable) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		header := make([]string, 0, len(p.Runs)+1)
		header = append(header, "sensor")
		for _, run := range p.Runs {
			header = append(header, strconv.Itoa(run))
		}
		if err := w.Write(header); err != nil {
			return err
		}

		for i, sensor := range p.Sensors {
			record := make([]string, 0, len(p.Runs)+1)
			record = append(record, sensor)
			for _, v := range p.Values[i] {
				record = append(record, formatFloat(v))
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadPivot loads a table written by WritePivot.
func ReadPivot(path string) (*model.PivotTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty pivot", path)
	}

	p := &model.PivotTable{}
	for _, col := range records[0][1:] {
		run, err := strconv.Atoi(col)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid run column %q", path, col)
		}
		p.Runs = append(p.Runs, run)
	}
	for _, record := range records[1:] {
		values := make([]float64, len(record)-1)
		for j, cell := range record[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid value %q", path, cell)
			}
			values[j] = v
		}
		p.Sensors = append(p.Sensors, record[0])
		p.Values = append(p.Values, values)
	}
	return p, nil
}

// WriteSummaries writes the per-run time/energy summary.
func WriteSummaries(path string, summaries []model.RunSummary) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(SummaryHeader); err != nil {
			return err
		}
		for _, s := range summaries {
			record := []string{
				strconv.Itoa(s.RunID),
				formatFloat(s.TotalPower),
				formatFloat(s.ElapsedSeconds),
				formatFloat(s.AveragePower),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// SensorFileName returns the snapshot file name of a sensor table.
func SensorFileName(sensor string) string {
	name := filepath.Base(filepath.Clean("/" + sensor))
	if name == "/" || name == "." {
		name = "unnamed"
	}
	return name + ".csv"
}
