package model

import (
	"sort"
	"time"
)

// Measurement is a single power sample read from an Energies CSV file.
type Measurement struct {
	Name   string    `json:"name"`
	Time   time.Time `json:"time"`
	Power  float64   `json:"power"`
	Sensor string    `json:"sensor"`
	Target string    `json:"target"`
	RunID  int       `json:"directory"`
	// Source is the file the row was read from. It is not part of snapshots.
	Source string `json:"-"`
}

// Dataset is the concatenation of every measurement of one variant.
type Dataset struct {
	Variant string
	Rows    []Measurement
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// RunIDs returns the distinct run ids in ascending order.
func (d *Dataset) RunIDs() []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, row := range d.Rows {
		if _, ok := seen[row.RunID]; ok {
			continue
		}
		seen[row.RunID] = struct{}{}
		ids = append(ids, row.RunID)
	}
	sort.Ints(ids)
	return ids
}

// Targets returns the distinct target labels in ascending order.
func (d *Dataset) Targets() []string {
	seen := make(map[string]struct{})
	var targets []string
	for _, row := range d.Rows {
		if _, ok := seen[row.Target]; ok {
			continue
		}
		seen[row.Target] = struct{}{}
		targets = append(targets, row.Target)
	}
	sort.Strings(targets)
	return targets
}
