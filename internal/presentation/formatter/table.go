package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/penwyp/go-energy-report/internal/util"
)

type TableFormatter struct {
	runHeaders    []string
	sensorHeaders []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		runHeaders:    []string{"Run", "Total Power", "Elapsed (s)", "Avg Power"},
		sensorHeaders: []string{"Category", "Sensor", "Total Energy", "Energy / Run"},
	}
}

func (f *TableFormatter) Format(w io.Writer, reports []VariantReport) error {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d runs, %s samples)\n", r.Name, r.Runs, util.FormatNumber(r.Samples))

		rows := make([][]string, 0, len(r.Summaries)+1)
		for _, s := range r.Summaries {
			rows = append(rows, []string{
				strconv.Itoa(s.RunID),
				util.FormatFloat(s.TotalPower),
				util.FormatFloat(s.ElapsedSeconds),
				util.FormatFloat(s.AveragePower),
			})
		}
		total := []string{"Total", "", "", util.FormatFloat(r.TotalAveragePower)}
		f.writeTable(w, f.runHeaders, rows, total)

		if len(r.Sensors) == 0 {
			continue
		}
		rows = rows[:0]
		for _, s := range r.Sensors {
			rows = append(rows, []string{s.Category, s.Sensor, util.FormatFloat(s.TotalEnergy), util.FormatFloat(s.MeanEnergy)})
		}
		f.writeTable(w, f.sensorHeaders, rows, nil)
	}
	return nil
}

func (f *TableFormatter) writeTable(w io.Writer, headers []string, rows [][]string, total []string) {
	widths := calculateColumnWidths(headers, rows, total)

	printBorder(w, widths, "top")
	printRow(w, headers, widths)
	printBorder(w, widths, "middle")
	for _, row := range rows {
		printRow(w, row, widths)
	}
	if total != nil {
		printBorder(w, widths, "middle")
		printRow(w, total, widths)
	}
	printBorder(w, widths, "bottom")
}

// calculateColumnWidths sizes each column to its widest cell in display cells.
func calculateColumnWidths(headers []string, rows [][]string, total []string) []int {
	widths := make([]int, len(headers))
	measure := func(values []string) {
		for i, value := range values {
			if n := util.GetDisplayWidth(value); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	measure(total)

	const minWidth = 6
	for i := range widths {
		if widths[i] < minWidth {
			widths[i] = minWidth
		}
	}
	return widths
}

func printBorder(w io.Writer, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(w, b.String())
}

// printRow left-aligns the first column and text cells, right-aligns numbers.
func printRow(w io.Writer, values []string, widths []int) {
	var b strings.Builder
	b.WriteString("│")
	for i, value := range values {
		b.WriteByte(' ')
		if i == 0 || !isNumeric(value) {
			b.WriteString(util.PadRight(value, widths[i]))
		} else {
			b.WriteString(util.PadLeft(value, widths[i]))
		}
		b.WriteString(" │")
	}
	fmt.Fprintln(w, b.String())
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}
