package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/penwyp/go-energy-report/internal/core/model"
	"github.com/penwyp/go-energy-report/internal/data/scanner"
	"github.com/penwyp/go-energy-report/internal/util"
)

var ErrSchemaMismatch = errors.New("csv schema mismatch")

// Column names every measurement file must provide.
const (
	ColName   = "name"
	ColTime   = "time"
	ColPower  = "power"
	ColSensor = "sensor"
	ColTarget = "target"
)

// RequiredColumns lists the schema in snapshot order.
var RequiredColumns = []string{ColName, ColTime, ColPower, ColSensor, ColTarget}

// Parser decodes measurement CSV files.
type Parser struct {
	concurrency int
	location    *time.Location
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File scanner.SourceFile
	Rows []model.Measurement
}

// NewParser creates a Parser. Naive timestamps are read in loc.
func NewParser(concurrency int, loc *time.Location) *Parser {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		concurrency: concurrency,
		location:    loc,
	}
}

// Location returns the zone naive timestamps are read in.
func (p *Parser) Location() *time.Location {
	return p.location
}

// columnIndex maps each required column to its position in the header.
type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(RequiredColumns))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, dup := idx[col]; !dup {
			idx[col] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return idx, nil
}

// ParseFile reads every row of a measurement file and tags it with the file's run id.
func (p *Parser) ParseFile(src scanner.SourceFile) ([]model.Measurement, error) {
	util.LogDebugf("Start parsing file: %s", src.Path)

	file, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.Path, err)
	}
	defer file.Close()

	rows, err := p.Parse(file, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}
	return rows, nil
}

// Parse decodes CSV content from r.
func (p *Parser) Parse(r io.Reader, src scanner.SourceFile) ([]model.Measurement, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []model.Measurement
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		power, err := strconv.ParseFloat(strings.TrimSpace(record[idx[ColPower]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid power %q: %w", line, record[idx[ColPower]], err)
		}

		ts, err := util.ParseTimestamp(record[idx[ColTime]], p.location)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rows = append(rows, model.Measurement{
			Name:   record[idx[ColName]],
			Time:   ts,
			Power:  power,
			Sensor: record[idx[ColSensor]],
			Target: record[idx[ColTarget]],
			RunID:  src.RunID,
			Source: src.Path,
		})
	}

	return rows, nil
}

// ParseFiles parses files concurrently. Results keep the order of files; the
// first failure cancels outstanding work and is returned.
func (p *Parser) ParseFiles(ctx context.Context, files []scanner.SourceFile) ([]ParseResult, error) {
	start := time.Now()
	results := make([]ParseResult, len(files))

	util.LogDebugf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			fileStart := time.Now()
			rows, err := p.ParseFile(f)
			if err != nil {
				util.LogDebugf("File parsing failed: %s, duration %v - %v", f.Path, time.Since(fileStart), err)
				return err
			}

			results[i] = ParseResult{File: f, Rows: rows}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	util.LogDebugf("Concurrent parsing finished, total duration: %v", time.Since(start))
	return results, nil
}
