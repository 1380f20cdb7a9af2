package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-energy-report/internal/analyzer"
	"github.com/penwyp/go-energy-report/internal/data/watcher"
	"github.com/penwyp/go-energy-report/internal/util"
)

var (
	debounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-run the report whenever measurement files change",
		Long: `Watch runs the full analysis once, then watches every variant's Energies
directory and runs it again after CSV files stop changing for --debounce.

Press Ctrl+C to stop.`,
		SilenceUsage: true,
		RunE:         runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second,
		"Quiet period before a batch of changes triggers a new run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw, err := watcher.NewFileWatcher(a.WatchDirs())
	if err != nil {
		return fmt.Errorf("failed to watch data directories: %w", err)
	}
	defer fw.Close()

	return watchLoop(ctx, a, fw.Batches(ctx, debounce), config.Output)
}

type runner interface {
	Run(ctx context.Context) error
}

// watchLoop runs r once and again for every batch. A failed run is reported
// and the loop keeps watching.
func watchLoop(ctx context.Context, r runner, batches <-chan []watcher.FileEvent, out io.Writer) error {
	runOnce := func() {
		if err := r.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			util.LogError("Analysis failed", util.Field{Key: "error", Value: err.Error()})
			fmt.Fprintf(out, "Analysis failed: %v\n", err)
		}
	}

	runOnce()
	fmt.Fprintln(out, "Watching for changes, press Ctrl+C to stop.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			util.LogInfo("Measurement files changed", util.Field{Key: "files", Value: len(batch)})
			for _, ev := range batch {
				util.LogDebugf("Change: %s %s", ev.Operation, ev.Path)
			}
			runOnce()
		}
	}
}
