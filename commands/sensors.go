package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-energy-report/internal/analyzer"
	"github.com/penwyp/go-energy-report/internal/core/sensor"
	"github.com/penwyp/go-energy-report/internal/util"
)

var (
	checkSensors bool

	sensorsCmd = &cobra.Command{
		Use:   "sensors",
		Short: "List sensor categories and check how variants resolve them",
		Long: `Sensors prints the sensor categories known to the report with the exact
target label of each infrastructure sensor.

With --check every variant is loaded and its target labels are resolved to
categories, reporting missing or ambiguous sensors without producing output files.`,
		SilenceUsage: true,
		RunE:         runSensors,
	}
)

func init() {
	sensorsCmd.Flags().BoolVar(&checkSensors, "check", false,
		"Load every variant and resolve its sensors")
	rootCmd.AddCommand(sensorsCmd)
}

func runSensors(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printCategories(out)
	if !checkSensors {
		return nil
	}

	if err := initLogging(); err != nil {
		return err
	}
	defer util.CloseLogger()

	config, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	a, err := analyzer.New(config)
	if err != nil {
		return err
	}

	results, err := a.ResolveSensors(context.Background())
	if err != nil {
		return err
	}
	failed := printResolutions(out, results)
	if failed > 0 {
		return fmt.Errorf("%d variant(s) failed sensor resolution", failed)
	}
	return nil
}

func printCategories(w io.Writer) {
	fmt.Fprintf(w, "%-12s %-24s %s\n", "KEY", "LABEL", "TARGET")
	for _, c := range sensor.Categories {
		meta := sensor.MetaOf(c)
		target := meta.Name
		if target == "" {
			target = "(any other label)"
		}
		fmt.Fprintf(w, "%-12s %-24s %s\n", meta.Key, meta.Label, target)
	}
}

// printResolutions writes one block per variant and returns the number of
// variants that did not resolve.
func printResolutions(w io.Writer, results []analyzer.VariantSensors) int {
	failed := 0
	for _, r := range results {
		fmt.Fprintf(w, "\n%s (%s)\n", r.Variant.Label, r.Variant.Dir)
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "  error: %v\n", r.Err)
			fmt.Fprintf(w, "  targets: %s\n", strings.Join(r.Targets, ", "))
			continue
		}
		for _, c := range sensor.Categories {
			fmt.Fprintf(w, "  %-12s %s\n", c.String(), r.Names[c.String()])
		}
	}
	return failed
}
