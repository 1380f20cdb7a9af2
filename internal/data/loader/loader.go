// Package loader builds the unified measurement dataset of one variant.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/penwyp/go-energy-report/internal/core/constants"
	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/data/cache"
	"github.com/penwyp/go-energy-report/internal/data/parser"
	"github.com/penwyp/go-energy-report/internal/data/scanner"
	"github.com/penwyp/go-energy-report/internal/data/snapshot"
	"github.com/penwyp/go-energy-report/internal/util"
)

// Loader scans, parses and concatenates the measurement files of a variant.
type Loader struct {
	parser      *parser.Parser
	cache       cache.Cache
	snapshotDir string
}

// New creates a Loader. A nil cache disables caching. When snapshotDir is
// non-empty the dataset is written to <snapshotDir>/<variant>/datasets.
func New(p *parser.Parser, c cache.Cache, snapshotDir string) *Loader {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Loader{parser: p, cache: c, snapshotDir: snapshotDir}
}

// Load returns the normalized dataset found under <dir>/Energies.
func (l *Loader) Load(ctx context.Context, variant, dir string) (*model.Dataset, error) {
	start := time.Now()

	scanStart := time.Now()
	files, err := scanner.NewFileScanner(dir).Scan()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", variant, err)
	}
	util.LogDebugf("Scan phase for %s: %v, found %d files", variant, time.Since(scanStart), len(files))

	zone := l.parser.Location().String()
	stats := NewCacheStats()
	perFile := make([][]model.Measurement, len(files))
	var toParse []scanner.SourceFile
	var toParseIdx []int

	for i, f := range files {
		stats.IncrementTotal()
		result := l.cache.Get(f.Path, f.RunID, zone)
		if result.Found {
			stats.IncrementHit()
			perFile[i] = result.Entry.Rows
			continue
		}
		stats.IncrementMiss(f.Path, result.MissReason)
		toParse = append(toParse, f)
		toParseIdx = append(toParseIdx, i)
	}

	parseStart := time.Now()
	results, err := l.parser.ParseFiles(ctx, toParse)
	if err != nil {
		stats.IncrementFailure()
		return nil, fmt.Errorf("parse %s: %w", variant, err)
	}
	for j, res := range results {
		perFile[toParseIdx[j]] = res.Rows
		if err := l.cache.Set(res.File.Path, res.File.RunID, zone, res.Rows); err != nil {
			util.LogWarnf("Failed to cache %s: %v", res.File.Path, err)
		}
	}
	util.LogDebugf("Parse phase for %s: %v, parsed %d files", variant, time.Since(parseStart), len(toParse))
	stats.LogFinal(variant)

	total := 0
	for _, rows := range perFile {
		total += len(rows)
	}
	ds := &model.Dataset{Variant: variant, Rows: make([]model.Measurement, 0, total)}
	for _, rows := range perFile {
		ds.Rows = append(ds.Rows, rows...)
	}
	Normalize(ds)

	if l.snapshotDir != "" {
		path := MainDatasetPath(l.snapshotDir, variant)
		if err := snapshot.WriteMainDataset(path, ds); err != nil {
			return nil, fmt.Errorf("write dataset snapshot: %w", err)
		}
		util.LogDebugf("Wrote %d rows to %s", ds.Len(), path)
	}

	util.LogInfo("Variant loaded",
		util.Field{Key: "variant", Value: variant},
		util.Field{Key: "files", Value: len(files)},
		util.Field{Key: "rows", Value: ds.Len()},
		util.Field{Key: "duration", Value: time.Since(start).String()},
	)
	return ds, nil
}

// Normalize orders rows by run id then timestamp. Rows that tie keep their
// file order.
func Normalize(ds *model.Dataset) {
	sort.SliceStable(ds.Rows, func(i, j int) bool {
		a, b := ds.Rows[i], ds.Rows[j]
		if a.RunID != b.RunID {
			return a.RunID < b.RunID
		}
		return a.Time.Before(b.Time)
	})
}

// MainDatasetPath is where the unified dataset of a variant is written.
func MainDatasetPath(outDir, variant string) string {
	return filepath.Join(outDir, variant, constants.MainDatasetDir, constants.MainDatasetFile)
}
