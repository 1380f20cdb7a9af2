// Package sensor enumerates the measurement sources found in PowerAPI energy
// datasets and carries the display metadata used by the charts.
package sensor

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"gonum.org/v1/plot/palette/brewer"
)

// Category identifies a kind of sensor independently of its spelled name.
type Category int

const (
	Application Category = iota
	Global
	HWPCSensor
	InfluxDest
	MongoSource
	RAPL
	SmartWattsFormula
)

var (
	ErrMissingCategory      = errors.New("sensor category missing from dataset")
	ErrAmbiguousApplication = errors.New("more than one application sensor in dataset")
	ErrDuplicateSensor      = errors.New("duplicate sensor name")
)

// Meta is the display metadata of a category.
type Meta struct {
	Category Category
	Key      string
	Label    string
	// Name is the exact target label for infrastructure categories. It is empty
	// for Application, whose name differs per variant.
	Name  string
	Color color.Color
}

// Categories lists every category in chart order.
var Categories = []Category{
	Application,
	Global,
	HWPCSensor,
	InfluxDest,
	MongoSource,
	RAPL,
	SmartWattsFormula,
}

var metas = buildMetas()

func buildMetas() map[Category]Meta {
	colors := paletteColors(len(Categories))
	m := map[Category]Meta{
		Application:       {Key: "application", Label: "application container"},
		Global:            {Key: "global", Label: "global", Name: "global"},
		HWPCSensor:        {Key: "hwpc", Label: "hwpc-sensor-container", Name: "hwpc-sensor-container"},
		InfluxDest:        {Key: "influx", Label: "influx_dest", Name: "influx_dest"},
		MongoSource:       {Key: "mongo", Label: "mongo_source", Name: "mongo_source"},
		RAPL:              {Key: "rapl", Label: "rapl", Name: "rapl"},
		SmartWattsFormula: {Key: "smartwatts", Label: "smartwatts-formula", Name: "smartwatts-formula"},
	}
	for i, c := range Categories {
		meta := m[c]
		meta.Category = c
		meta.Color = colors[i]
		m[c] = meta
	}
	return m
}

func paletteColors(n int) []color.Color {
	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Dark2", n)
	if err != nil {
		// Dark2 covers up to 8 classes.
		panic(fmt.Sprintf("sensor palette: %v", err))
	}
	return palette.Colors()
}

// MetaOf returns the metadata of a category.
func MetaOf(c Category) Meta {
	return metas[c]
}

func (c Category) String() string {
	return metas[c].Key
}

// IsInfrastructure reports whether the category belongs to the measurement
// stack rather than to the monitored application.
func (c Category) IsInfrastructure() bool {
	return c != Application
}

// InfrastructureNames returns the exact target labels of every infrastructure
// sensor. These are the rows excluded by the time/energy summary.
func InfrastructureNames() []string {
	var names []string
	for _, c := range Categories {
		if c.IsInfrastructure() {
			names = append(names, metas[c].Name)
		}
	}
	sort.Strings(names)
	return names
}

// Classify maps a target label to its category. Labels that are not an
// infrastructure name are treated as the application sensor.
func Classify(name string) Category {
	for _, c := range Categories {
		if c.IsInfrastructure() && metas[c].Name == name {
			return c
		}
	}
	return Application
}

// Resolution is the category → sensor name mapping of one dataset.
type Resolution map[Category]string

// Resolve validates the sensor names present in a dataset: every category must
// appear exactly once and only one label may resolve to Application.
func Resolve(names []string) (Resolution, error) {
	res := make(Resolution, len(Categories))
	seen := make(map[string]struct{}, len(names))
	var apps []string

	for _, name := range names {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSensor, name)
		}
		seen[name] = struct{}{}

		c := Classify(name)
		if c == Application {
			apps = append(apps, name)
		}
		res[c] = name
	}

	if len(apps) > 1 {
		sort.Strings(apps)
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousApplication, strings.Join(apps, ", "))
	}

	var missing []string
	for _, c := range Categories {
		if _, ok := res[c]; !ok {
			missing = append(missing, metas[c].Label)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCategory, strings.Join(missing, ", "))
	}

	return res, nil
}

// Keys converts the resolution to a plain string map keyed by category key.
func (r Resolution) Keys() map[string]string {
	out := make(map[string]string, len(r))
	for c, name := range r {
		out[c.String()] = name
	}
	return out
}

// FromKeys rebuilds a resolution from a category key map.
func FromKeys(keys map[string]string) Resolution {
	res := make(Resolution, len(keys))
	for _, c := range Categories {
		if name, ok := keys[c.String()]; ok {
			res[c] = name
		}
	}
	return res
}
