package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-energy-report/internal/util"
)

// SummaryFormatter compares every variant against the first one.
type SummaryFormatter struct {
	color bool
}

// NewSummaryFormatter creates a SummaryFormatter. Deltas are colorized when color is set.
func NewSummaryFormatter(color bool) *SummaryFormatter {
	return &SummaryFormatter{color: color}
}

func (f *SummaryFormatter) Format(w io.Writer, reports []VariantReport) error {
	fmt.Fprintln(w, util.Separator(60))
	fmt.Fprintln(w, util.FormatSectionTitle("Energy Comparison Summary", f.color))
	fmt.Fprintln(w, util.Separator(60))
	fmt.Fprintln(w)

	if len(reports) == 0 {
		fmt.Fprintln(w, "No data to summarize")
		fmt.Fprintln(w)
		fmt.Fprintln(w, util.Separator(60))
		return nil
	}

	base := reports[0]
	for i, r := range reports {
		fmt.Fprintf(w, "%s:\n", util.FormatSectionTitle(r.Name, f.color))
		fmt.Fprintf(w, "  Runs:                 %d\n", r.Runs)
		fmt.Fprintf(w, "  Samples:              %s\n", util.FormatNumber(r.Samples))
		fmt.Fprintf(w, "  Total avg power:      %s%s\n", util.FormatFloat(r.TotalAveragePower), f.delta(i, base.TotalAveragePower, r.TotalAveragePower))
		fmt.Fprintf(w, "  Mean elapsed (s):     %s%s\n", util.FormatFloat(r.MeanElapsed()), f.delta(i, base.MeanElapsed(), r.MeanElapsed()))
		fmt.Fprintf(w, "  Mean avg power:       %s%s\n", util.FormatFloat(r.MeanAveragePower()), f.delta(i, base.MeanAveragePower(), r.MeanAveragePower()))

		for _, s := range r.Sensors {
			label := util.PadRight(s.Category+":", 22)
			fmt.Fprintf(w, "    %s%s%s\n", label, util.FormatFloat(s.MeanEnergy), f.delta(i, baseMean(base, s.Category), s.MeanEnergy))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, util.Separator(60))
	return nil
}

func baseMean(base VariantReport, category string) float64 {
	for _, s := range base.Sensors {
		if s.Category == category {
			return s.MeanEnergy
		}
	}
	return 0
}

// delta renders the relative change against the base value. Lower energy is
// shown in green.
func (f *SummaryFormatter) delta(index int, base, value float64) string {
	if index == 0 {
		return ""
	}
	if base == 0 {
		return "  (n/a)"
	}
	ratio := (value - base) / base
	color := util.ColorGreen
	if ratio > 0 {
		color = util.ColorRed
	}
	return "  (" + util.Colorize(util.FormatPercent(ratio), color, f.color) + ")"
}
