package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/penwyp/go-energy-report/internal/core/model"
)

// ZeroElapsedError is returned for a run whose samples all share one timestamp.
type ZeroElapsedError struct {
	RunID   int
	Samples int
}

func (e *ZeroElapsedError) Error() string {
	return fmt.Sprintf("run %d: elapsed time is zero over %d samples, average power is undefined", e.RunID, e.Samples)
}

// Summarize drops the excluded targets, groups the remaining rows by run and
// computes summed power, elapsed time (max - min timestamp) and average power.
func Summarize(ds *model.Dataset, excluded []string) ([]model.RunSummary, error) {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	type group struct {
		power    float64
		min, max time.Time
		samples  int
	}
	groups := make(map[int]*group)
	var runs []int

	for _, row := range ds.Rows {
		if _, ok := skip[row.Target]; ok {
			continue
		}
		g, ok := groups[row.RunID]
		if !ok {
			g = &group{min: row.Time, max: row.Time}
			groups[row.RunID] = g
			runs = append(runs, row.RunID)
		}
		g.power += row.Power
		g.samples++
		if row.Time.Before(g.min) {
			g.min = row.Time
		}
		if row.Time.After(g.max) {
			g.max = row.Time
		}
	}
	sort.Ints(runs)

	summaries := make([]model.RunSummary, 0, len(runs))
	for _, run := range runs {
		g := groups[run]
		elapsed := g.max.Sub(g.min)
		if elapsed <= 0 {
			return nil, &ZeroElapsedError{RunID: run, Samples: g.samples}
		}
		seconds := elapsed.Seconds()
		summaries = append(summaries, model.RunSummary{
			RunID:          run,
			TotalPower:     g.power,
			Elapsed:        elapsed,
			ElapsedSeconds: seconds,
			AveragePower:   g.power / seconds,
		})
	}
	return summaries, nil
}

// ElapsedFirstLast is the last row's timestamp minus the first row's. It
// equals the max - min span only when rows are time ordered.
func ElapsedFirstLast(rows []model.Measurement) time.Duration {
	if len(rows) == 0 {
		return 0
	}
	return rows[len(rows)-1].Time.Sub(rows[0].Time)
}

// ElapsedSpan is the max - min timestamp of rows.
func ElapsedSpan(rows []model.Measurement) time.Duration {
	if len(rows) == 0 {
		return 0
	}
	min, max := rows[0].Time, rows[0].Time
	for _, r := range rows[1:] {
		if r.Time.Before(min) {
			min = r.Time
		}
		if r.Time.After(max) {
			max = r.Time
		}
	}
	return max.Sub(min)
}
