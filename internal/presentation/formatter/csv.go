package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader is the column layout of the csv output mode.
var CSVHeader = []string{"variant", "run", "total_power", "elapsed_seconds", "average_power"}

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, reports []VariantReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range reports {
		for _, s := range r.Summaries {
			record := []string{
				r.Name,
				strconv.Itoa(s.RunID),
				strconv.FormatFloat(s.TotalPower, 'f', -1, 64),
				strconv.FormatFloat(s.ElapsedSeconds, 'f', -1, 64),
				strconv.FormatFloat(s.AveragePower, 'f', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
