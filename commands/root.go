package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-energy-report/internal/analyzer"
	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/util"
)

var (
	// Logging related
	debug     bool
	logFormat string

	// Data paths
	dataDir string
	outDir  string

	// Variants and processing
	variantFlags []string
	runRange     int
	energyMode   string
	concurrency  int
	noCache      bool
	reset        bool

	// Output related
	outputFormat string
	charts       string
	timezone     string

	rootCmd = &cobra.Command{
		Use:   "go-energy-report [flags]",
		Short: "Energy measurement report for refactoring variants",
		Long: `go-energy-report aggregates PowerAPI energy measurements of several
software variants and compares them.

Each variant directory holds Energies/run<N>/<sensor>.csv files. The tool
concatenates every run, computes per-sensor energy, pivots it by run, derives
the time/energy summary of the application and renders comparison charts.

Examples:
  go-energy-report                                       # Analyze ./rawData with the default variants
  go-energy-report --data-dir /data --out-dir /tmp/out   # Use other input and output directories
  go-energy-report --variant "Before=crate-a" --variant "After=crate-b"
  go-energy-report --energy-mode scaled --charts evolution,box
  go-energy-report --output json --charts none           # Report only, as JSON`,
		SilenceUsage: true,
		RunE:         runAnalyze,
	}
)

const (
	defaultLogFile  = "~/.go-energy-report/logs/app.log"
	defaultCacheDir = "~/.go-energy-report/cache"
	defaultDataDir  = "./rawData"
	defaultOutDir   = "./output"
)

func init() {
	// Input and output locations
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir,
		"Directory containing the variant directories")
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", defaultOutDir,
		"Directory receiving snapshots and charts")
	rootCmd.PersistentFlags().StringArrayVar(&variantFlags, "variant", defaultVariantFlags(),
		"Variant as label=dir, repeatable, in comparison order")

	// Processing
	rootCmd.PersistentFlags().IntVar(&runRange, "run-range", constants.DefaultRunRange,
		"Expected number of runs per variant (ids 0..N-1)")
	rootCmd.PersistentFlags().StringVar(&energyMode, "energy-mode", string(constants.EnergyModePower),
		"Energy column definition (power, scaled)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", runtime.NumCPU(),
		"Number of files parsed concurrently")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false,
		"Parse every file even when a cached copy is valid")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "UTC",
		"Timezone of timestamps without offset (e.g., Europe/Rome, UTC)")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", constants.DefaultOutputMode,
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&outputFormat, "format", "",
		"Alias for --output")
	rootCmd.PersistentFlags().StringVar(&charts, "charts", "all",
		"Charts to render: all, none or a comma-separated list")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(util.FormatText),
		"Log file format (text, json)")
	rootCmd.Flags().BoolVarP(&reset, "reset", "r", false,
		"Clear cache before analysis")
}

func defaultVariantFlags() []string {
	out := make([]string, len(analyzer.DefaultVariants))
	for i, v := range analyzer.DefaultVariants {
		out[i] = v.String()
	}
	return out
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Handle format alias
	if format := cmd.Flags().Lookup("format"); format != nil && format.Changed {
		outputFormat = format.Value.String()
	}

	if err := initLogging(); err != nil {
		return err
	}
	defer util.CloseLogger()

	config, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Clear cache if needed
	if reset {
		if err := clearCache(config.CacheDir); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	a, err := analyzer.New(config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}

func initLogging() error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	format := util.LogFormat(logFormat)
	if format != util.FormatText && format != util.FormatJSON {
		return fmt.Errorf("unknown log format %q (valid: text, json)", logFormat)
	}

	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return util.InitLogger(logLevel, logFile, format, debug)
}

// buildConfig turns the parsed flags into an analyzer configuration.
func buildConfig(cmd *cobra.Command) (*analyzer.Config, error) {
	variants, err := parseVariants(variantFlags)
	if err != nil {
		return nil, err
	}

	cacheDir := expandPath(defaultCacheDir)
	if !noCache {
		if err := ensureDir(cacheDir); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	out := expandPath(outDir)
	if err := ensureDir(out); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &analyzer.Config{
		DataDir:      expandPath(dataDir),
		OutDir:       out,
		CacheDir:     cacheDir,
		Variants:     variants,
		RunRange:     runRange,
		EnergyMode:   constants.EnergyMode(energyMode),
		Charts:       charts,
		OutputFormat: outputFormat,
		Timezone:     timezone,
		Concurrency:  concurrency,
		NoCache:      noCache,
		Output:       cmd.OutOrStdout(),
		Color:        util.IsTerminal(),
	}, nil
}

func parseVariants(values []string) ([]analyzer.Variant, error) {
	variants := make([]analyzer.Variant, 0, len(values))
	for _, value := range values {
		v, err := analyzer.ParseVariant(value)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func clearCache(cacheDir string) error {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			path := filepath.Join(cacheDir, entry.Name())
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}

	return nil
}
